package model

// Role comes from the identity service; this server only consumes it.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleReader Role = "reader"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor || r == RoleReader
}

// User is the authenticated identity resolved from a bearer token.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
