package types

// Roles recognized by the access gate.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Credential is one stored login record. Regular users and admins live
// in separate collections; admin records carry the admin role
// implicitly and may omit the Role field entirely.
type Credential struct {
	// Username is the login name, unique within its own collection.
	// Collisions across the user and admin collections are possible;
	// the access gate resolves them with admin precedence.
	Username string `json:"username"`

	// Password is either a bcrypt hash (recognized by its "$2a$"/"$2b$"/
	// "$2y$" prefix) or a legacy plaintext value. New registrations are
	// always hashed; the plaintext path only exists for unmigrated
	// records.
	Password string `json:"password"`

	// Role is the authorization level ("user" or "admin"). Empty means
	// "user" for user-collection records.
	Role string `json:"role,omitempty"`
}

// Identity is the authenticated username/role pair produced by a
// successful login.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
