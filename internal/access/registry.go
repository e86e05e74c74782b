package access

import (
	"sort"
	"sync"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/ethereum/go-ethereum/common"
)

// Registry holds the role assignments of a single component.
type Registry struct {
	mu      sync.RWMutex
	members map[Role]map[common.Address]bool
}

// NewRegistry grants every role to the deployer.
func NewRegistry(deployer common.Address) *Registry {
	r := &Registry{members: make(map[Role]map[common.Address]bool)}
	for _, role := range Roles() {
		r.members[role] = map[common.Address]bool{deployer: true}
	}
	return r
}

func (r *Registry) HasRole(role Role, account common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.members[role][account]
}

// Require is the policy check run at the top of every guarded operation.
func (r *Registry) Require(role Role, caller common.Address) error {
	if !r.HasRole(role, caller) {
		return failure.New(failure.Unauthorized, "account %s is missing role %s", caller.Hex(), role)
	}
	return nil
}

func (r *Registry) Members(role Role) []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]common.Address, 0, len(r.members[role]))
	for account := range r.members[role] {
		members = append(members, account)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].Hex() < members[j].Hex()
	})

	return members
}

func (r *Registry) set(role Role, account common.Address, member bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if member {
		r.members[role][account] = true
	} else {
		delete(r.members[role], account)
	}
}
