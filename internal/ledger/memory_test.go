package ledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var (
	nftContract = common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokenAddr   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	alice       = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bob         = common.HexToAddress("0xb0b0000000000000000000000000000000000002")
	market      = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func seeded(t *testing.T) (*Memory, *big.Int) {
	m := NewMemory()
	require.NoError(t, m.CreateCollection(nftContract, alice, "Toko", "TKO"))
	id, err := m.Mint(nftContract, alice)
	require.NoError(t, err)
	m.CreateToken(tokenAddr)
	require.NoError(t, m.Credit(tokenAddr, bob, big.NewInt(1000)))
	return m, id
}

func TestMemory_MintAssignsSequentialIds(t *testing.T) {
	m, first := seeded(t)
	second, err := m.Mint(nftContract, bob)
	require.NoError(t, err)

	require.Equal(t, int64(1), first.Int64())
	require.Equal(t, int64(2), second.Int64())

	owner, err := m.OwnerOf(context.Background(), nftContract, second)
	require.NoError(t, err)
	require.Equal(t, bob, owner)
}

func TestMemory_ApplyIsAtomic(t *testing.T) {
	ctx := context.Background()
	m, id := seeded(t)
	require.NoError(t, m.SetApprovalForAll(nftContract, alice, market, true))
	require.NoError(t, m.IncreaseAllowance(tokenAddr, bob, market, big.NewInt(500)))

	err := m.Apply(ctx, []Op{
		TokenTransfer(market, tokenAddr, bob, alice, big.NewInt(400)),
		NFTTransfer(market, nftContract, alice, bob, id),
		TokenTransfer(market, tokenAddr, bob, alice, big.NewInt(400)),
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, failure.Code(failure.InsufficientFunds, failure.CodeLowAllowance)))

	owner, err := m.OwnerOf(ctx, nftContract, id)
	require.NoError(t, err)
	require.Equal(t, alice, owner)

	balance, err := m.BalanceOf(ctx, tokenAddr, bob)
	require.NoError(t, err)
	require.Equal(t, int64(1000), balance.Int64())

	allowance, err := m.Allowance(ctx, tokenAddr, bob, market)
	require.NoError(t, err)
	require.Equal(t, int64(500), allowance.Int64())
}

func TestMemory_Transfers(t *testing.T) {
	tests := map[string]struct {
		op   func(id *big.Int) Op
		kind failure.Kind
	}{
		"operator not approved": {
			op:   func(id *big.Int) Op { return NFTTransfer(market, nftContract, alice, bob, id) },
			kind: failure.Unauthorized,
		},
		"from is not owner": {
			op:   func(id *big.Int) Op { return NFTTransfer(bob, nftContract, bob, alice, id) },
			kind: failure.InvalidState,
		},
		"unknown token": {
			op:   func(*big.Int) Op { return NFTTransfer(alice, nftContract, alice, bob, big.NewInt(99)) },
			kind: failure.NotFound,
		},
		"native sent by third party": {
			op:   func(*big.Int) Op { return TokenTransfer(market, common.Address{}, bob, alice, big.NewInt(1)) },
			kind: failure.Unauthorized,
		},
		"balance too low": {
			op:   func(*big.Int) Op { return TokenTransfer(bob, tokenAddr, bob, alice, big.NewInt(1001)) },
			kind: failure.InsufficientFunds,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m, id := seeded(t)
			err := m.Apply(context.Background(), []Op{tc.op(id)})
			require.Error(t, err)
			require.Equal(t, tc.kind, failure.KindOf(err))
		})
	}
}

func TestMemory_CollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	fresh := common.HexToAddress("0x4000000000000000000000000000000000000004")

	require.NoError(t, m.Apply(ctx, []Op{
		NewCollection(fresh, bob, "Fresh", "FRS"),
		MintNFT(bob, fresh, alice, big.NewInt(7)),
	}))

	owner, err := m.ContractOwner(ctx, fresh)
	require.NoError(t, err)
	require.Equal(t, bob, owner)

	err = m.Apply(ctx, []Op{NewCollection(fresh, alice, "Again", "AGN")})
	require.Equal(t, failure.InvalidState, failure.KindOf(err))

	require.NoError(t, m.Apply(ctx, []Op{BurnNFT(alice, fresh, alice, big.NewInt(7))}))
	_, err = m.OwnerOf(ctx, fresh, big.NewInt(7))
	require.Equal(t, failure.NotFound, failure.KindOf(err))
}
