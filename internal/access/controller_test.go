package access

import (
	"context"
	"testing"
	"time"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	component = common.HexToAddress("0xc000000000000000000000000000000000000001")
	deployer  = common.HexToAddress("0xd000000000000000000000000000000000000001")
	ops       = common.HexToAddress("0xd000000000000000000000000000000000000002")
	stranger  = common.HexToAddress("0xd000000000000000000000000000000000000003")
)

func newController() *Controller {
	runner := txn.NewRunner(&txn.FixedClock{T: time.Unix(1700000000, 0)}, ledger.NewMemory(), nil)
	return NewController(runner, component, deployer)
}

func TestController_GenesisRoles(t *testing.T) {
	c := newController()
	for _, role := range Roles() {
		require.True(t, c.HasRole(role, deployer), role)
		require.False(t, c.HasRole(role, stranger), role)
	}
}

func TestController_GrantRequiresManagingRole(t *testing.T) {
	tests := map[string]struct {
		setup  func(c *Controller)
		caller common.Address
		role   Role
		kind   failure.Kind
	}{
		"admin grants ops": {
			caller: deployer,
			role:   OpsRole,
		},
		"ops grants merchant": {
			setup: func(c *Controller) {
				_, err := c.GrantRole(context.Background(), deployer, OpsRole, ops)
				require.NoError(t, err)
			},
			caller: ops,
			role:   MerchantRole,
		},
		"ops cannot grant admin": {
			setup: func(c *Controller) {
				_, err := c.GrantRole(context.Background(), deployer, OpsRole, ops)
				require.NoError(t, err)
			},
			caller: ops,
			role:   AdminRole,
			kind:   failure.Unauthorized,
		},
		"stranger cannot grant minter": {
			caller: stranger,
			role:   MinterRole,
			kind:   failure.Unauthorized,
		},
		"unknown role": {
			caller: deployer,
			role:   Role("BURNER_ROLE"),
			kind:   failure.InvalidArgument,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := newController()
			if tc.setup != nil {
				tc.setup(c)
			}

			log, err := c.GrantRole(context.Background(), tc.caller, tc.role, stranger)
			if tc.kind != "" {
				require.Equal(t, tc.kind, failure.KindOf(err))
				require.False(t, c.HasRole(tc.role, stranger))
				return
			}

			require.NoError(t, err)
			require.Equal(t, 1, log.Count(event.RoleGranted))
			require.True(t, c.HasRole(tc.role, stranger))
		})
	}
}

func TestController_RevokeRole(t *testing.T) {
	ctx := context.Background()
	c := newController()

	_, err := c.GrantRole(ctx, deployer, MerchantRole, stranger)
	require.NoError(t, err)

	_, err = c.RevokeRole(ctx, stranger, MerchantRole, stranger)
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))

	log, err := c.RevokeRole(ctx, deployer, MerchantRole, stranger)
	require.NoError(t, err)
	require.Equal(t, 1, log.Count(event.RoleRevoked))
	require.False(t, c.HasRole(MerchantRole, stranger))
}

func TestController_RenounceAdminLocksOutUpgrade(t *testing.T) {
	ctx := context.Background()
	c := newController()

	_, err := c.Upgrade(ctx, deployer, "2")
	require.NoError(t, err)
	require.Equal(t, "2", c.Version())

	_, err = c.RenounceRole(ctx, deployer, AdminRole)
	require.NoError(t, err)
	require.Empty(t, c.Roles().Members(AdminRole))

	_, err = c.Upgrade(ctx, deployer, "3")
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))
	require.Equal(t, "2", c.Version())

	_, err = c.GrantRole(ctx, deployer, AdminRole, deployer)
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))
}
