package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kafekita/apiserver/internal/store"
	"github.com/kafekita/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login. It is
// deliberately generic: callers cannot tell an unknown username from a
// wrong password, which keeps the API from leaking which usernames
// exist.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidRegistration is returned when a registration fails
// validation.
var ErrInvalidRegistration = errors.New("invalid registration")

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// CredentialRepository defines persistence operations for one
// credential collection.
type CredentialRepository interface {
	List(ctx context.Context) ([]types.Credential, error)
	Append(ctx context.Context, cred types.Credential) error
}

// AuthService resolves logins against the merged user and admin
// collections and registers new users.
type AuthService struct {
	users  CredentialRepository
	admins CredentialRepository
}

func NewAuthService(users, admins CredentialRepository) *AuthService {
	return &AuthService{users: users, admins: admins}
}

// Authenticate verifies a username/password pair against the merged
// credential set and returns the authenticated identity.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (types.Identity, error) {
	merged, err := s.MergedCredentials(ctx)
	if err != nil {
		return types.Identity{}, err
	}

	cred, ok := merged[username]
	if !ok {
		return types.Identity{}, ErrInvalidCredentials
	}
	if !VerifyPassword(cred.Password, password) {
		return types.Identity{}, ErrInvalidCredentials
	}

	role := cred.Role
	if role == "" {
		role = types.RoleUser
	}
	return types.Identity{Username: username, Role: role}, nil
}

// Register validates and stores a new user credential. The stored
// password is always bcrypt-hashed; new records never take the legacy
// plaintext path.
func (s *AuthService) Register(ctx context.Context, username, password, confirm string) (types.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return types.Identity{}, fmt.Errorf("%w: username and password must not be empty", ErrInvalidRegistration)
	}
	if password != confirm {
		return types.Identity{}, fmt.Errorf("%w: passwords do not match", ErrInvalidRegistration)
	}

	merged, err := s.MergedCredentials(ctx)
	if err != nil {
		return types.Identity{}, err
	}
	if _, exists := merged[username]; exists {
		return types.Identity{}, store.ErrAlreadyExists
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return types.Identity{}, err
	}

	cred := types.Credential{
		Username: username,
		Password: hashed,
		Role:     types.RoleUser,
	}
	if err := s.users.Append(ctx, cred); err != nil {
		return types.Identity{}, err
	}
	return types.Identity{Username: username, Role: types.RoleUser}, nil
}

// MergedCredentials builds the single lookup the access gate resolves
// against: user records first, then admin records with the role forced
// to admin. On a username collision the admin record wins.
func (s *AuthService) MergedCredentials(ctx context.Context) (map[string]types.Credential, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]types.Credential, len(users)+len(admins))
	for _, user := range users {
		if user.Role == "" {
			user.Role = types.RoleUser
		}
		merged[user.Username] = user
	}
	for _, admin := range admins {
		admin.Role = types.RoleAdmin
		merged[admin.Username] = admin
	}
	return merged, nil
}

// VerifyPassword checks a supplied password against a stored value. A
// stored value with a bcrypt prefix is verified through bcrypt; any
// other value is compared as an opaque string. The plaintext branch is
// a compatibility path for unmigrated legacy records, not a feature.
func VerifyPassword(stored, supplied string) bool {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(stored, prefix) {
			return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
		}
	}
	return stored == supplied
}

// HashPassword returns the bcrypt hash new credentials are stored with.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
