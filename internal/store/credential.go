package store

import (
	"context"
	"sync"

	"github.com/kafekita/apiserver/types"
)

// CredentialRepository handles persistence for one credential
// collection. Users and admins live in separate documents; construct
// one repository per document with the role its records default to.
type CredentialRepository struct {
	path        string
	defaultRole string
	mu          sync.Mutex
}

func NewCredentialRepository(path, defaultRole string) *CredentialRepository {
	return &CredentialRepository{path: path, defaultRole: defaultRole}
}

// List returns all credentials in the collection with the Role field
// defaulted where a record omits it.
func (r *CredentialRepository) List(ctx context.Context) ([]types.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	creds, err := readDocument[types.Credential](r.path)
	if err != nil {
		return nil, err
	}
	for i := range creds {
		if creds[i].Role == "" {
			creds[i].Role = r.defaultRole
		}
	}
	return creds, nil
}

// Append adds a credential to the collection. The username must not
// already exist within this collection; cross-collection uniqueness is
// the access gate's concern.
func (r *CredentialRepository) Append(ctx context.Context, cred types.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	creds, err := r.List(ctx)
	if err != nil {
		return err
	}
	for _, existing := range creds {
		if existing.Username == cred.Username {
			return ErrAlreadyExists
		}
	}

	if cred.Role == "" {
		cred.Role = r.defaultRole
	}
	creds = append(creds, cred)
	return writeDocument(r.path, creds)
}
