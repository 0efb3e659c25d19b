package enums

// UserRole separates marketplace participants.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleVendor   UserRole = "vendor"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleVendor,
	UserRoleAdmin,
}

// IsValid reports whether the value matches the canonical user role enum.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}
