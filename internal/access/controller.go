package access

import (
	"context"
	"sync"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Controller exposes role management for a component. Components embed it.
type Controller struct {
	mu      sync.RWMutex
	runner  *txn.Runner
	address common.Address
	roles   *Registry
	version string
}

func NewController(runner *txn.Runner, address, deployer common.Address) *Controller {
	return &Controller{
		runner:  runner,
		address: address,
		roles:   NewRegistry(deployer),
		version: "1",
	}
}

func (c *Controller) Address() common.Address {
	return c.address
}

func (c *Controller) Roles() *Registry {
	return c.roles
}

func (c *Controller) HasRole(role Role, account common.Address) bool {
	return c.roles.HasRole(role, account)
}

func (c *Controller) Require(role Role, caller common.Address) error {
	return c.roles.Require(role, caller)
}

func (c *Controller) GrantRole(ctx context.Context, caller common.Address, role Role, account common.Address) (event.Log, error) {
	return c.runner.Execute(ctx, c.address, "grantRole", func(tx *txn.Tx) error {
		if err := c.checkManager(caller, role); err != nil {
			return err
		}
		if c.roles.HasRole(role, account) {
			return nil
		}

		tx.OnCommit(func() { c.roles.set(role, account, true) })
		tx.Emit(event.RoleGranted, event.RoleArgs{Role: string(role), Account: account, Sender: caller})

		return nil
	})
}

func (c *Controller) RevokeRole(ctx context.Context, caller common.Address, role Role, account common.Address) (event.Log, error) {
	return c.runner.Execute(ctx, c.address, "revokeRole", func(tx *txn.Tx) error {
		if err := c.checkManager(caller, role); err != nil {
			return err
		}
		if !c.roles.HasRole(role, account) {
			return nil
		}

		c.revoke(tx, caller, role, account)
		return nil
	})
}

// RenounceRole drops the caller's own role. Renouncing the last admin locks the
// component out of administration for good.
func (c *Controller) RenounceRole(ctx context.Context, caller common.Address, role Role) (event.Log, error) {
	return c.runner.Execute(ctx, c.address, "renounceRole", func(tx *txn.Tx) error {
		if !role.Valid() {
			return failure.New(failure.InvalidArgument, "unknown role %q", role)
		}
		if !c.roles.HasRole(role, caller) {
			return nil
		}

		if role == AdminRole && len(c.roles.Members(AdminRole)) == 1 {
			zap.L().With(zap.String("component", c.address.Hex()), zap.String("account", caller.Hex())).
				Warn("Access: Last admin renounced, component can no longer be administered")
		}

		c.revoke(tx, caller, role, caller)
		return nil
	})
}

// Upgrade records a new implementation version. Admin only.
func (c *Controller) Upgrade(ctx context.Context, caller common.Address, version string) (event.Log, error) {
	return c.runner.Execute(ctx, c.address, "upgrade", func(tx *txn.Tx) error {
		if err := c.roles.Require(AdminRole, caller); err != nil {
			return err
		}
		if version == "" {
			return failure.New(failure.InvalidArgument, "empty version")
		}

		tx.OnCommit(func() {
			c.mu.Lock()
			c.version = version
			c.mu.Unlock()
		})
		tx.Emit(event.Upgraded, event.UpgradedArgs{Version: version})

		return nil
	})
}

func (c *Controller) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.version
}

func (c *Controller) checkManager(caller common.Address, role Role) error {
	if !role.Valid() {
		return failure.New(failure.InvalidArgument, "unknown role %q", role)
	}
	return c.roles.Require(role.ManagedBy(), caller)
}

func (c *Controller) revoke(tx *txn.Tx, caller common.Address, role Role, account common.Address) {
	tx.OnCommit(func() { c.roles.set(role, account, false) })
	tx.Emit(event.RoleRevoked, event.RoleArgs{Role: string(role), Account: account, Sender: caller})
}
