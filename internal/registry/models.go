package registry

import "github.com/ethereum/go-ethereum/common"

// Role is a registry membership role.
type Role string

const (
	RoleUser    Role = "user"
	RoleCharity Role = "charity"
)

// Authorize is emitted when the owner toggles a role for an address.
type Authorize struct {
	Registrar common.Address `json:"registrar"`
	Role      Role           `json:"role"`
	Enabled   bool           `json:"enabled"`
}

func (Authorize) EventName() string { return "Authorize" }
func (Authorize) Signature() string { return "Authorize(address,string,bool)" }
