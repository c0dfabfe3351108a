package auth

import "fmt"

// Operator roles carried in the access token.
const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one the operator API understands.
func ValidRole(role string) bool {
	return role == RoleOperator || role == RoleAdmin
}

// CheckRole returns an error naming role when it is not recognised.
func CheckRole(role string) error {
	if !ValidRole(role) {
		return fmt.Errorf("unknown role %q (want %q or %q)", role, RoleOperator, RoleAdmin)
	}
	return nil
}
