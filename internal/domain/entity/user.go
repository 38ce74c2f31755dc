package entity

const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"
)

// Principal is the authenticated caller as resolved from a bearer token.
type Principal struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == UserRoleAdmin
}
