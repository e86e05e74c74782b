package access

type Role string

const (
	AdminRole    Role = "DEFAULT_ADMIN_ROLE"
	OpsRole      Role = "OPS_ROLE"
	MerchantRole Role = "MERCHANT_ROLE"
	MinterRole   Role = "MINTER_ROLE"
)

func Roles() []Role {
	return []Role{AdminRole, OpsRole, MerchantRole, MinterRole}
}

// ManagedBy returns the role allowed to grant and revoke r.
func (r Role) ManagedBy() Role {
	switch r {
	case MerchantRole, MinterRole:
		return OpsRole
	default:
		return AdminRole
	}
}

func (r Role) Valid() bool {
	for _, role := range Roles() {
		if role == r {
			return true
		}
	}
	return false
}
