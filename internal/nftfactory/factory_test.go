package nftfactory

import (
	"context"
	"testing"
	"time"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	factoryAddr    = common.HexToAddress("0x6000000000000000000000000000000000000006")
	merchant       = common.HexToAddress("0xa000000000000000000000000000000000000001")
	secondMerchant = common.HexToAddress("0xa000000000000000000000000000000000000002")
)

func newFactory(t *testing.T) (*Factory, *ledger.Memory) {
	t.Helper()

	mem := ledger.NewMemory()
	runner := txn.NewRunner(&txn.FixedClock{T: time.Unix(1700000000, 0)}, mem, nil)
	return New(runner, factoryAddr), mem
}

func TestCreateNft(t *testing.T) {
	factory, mem := newFactory(t)
	ctx := context.Background()

	nft, log, err := factory.CreateNft(ctx, merchant, "foo", "bar")
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress(factoryAddr, 1), nft)

	created := log.Filter(event.NftCreated)
	require.Len(t, created, 1)
	args := created[0].Args.(event.NftCreatedArgs)
	assert.Equal(t, merchant, args.Owner)
	assert.Equal(t, nft, args.Nft)

	owner, err := mem.ContractOwner(ctx, nft)
	require.NoError(t, err)
	assert.Equal(t, merchant, owner)

	second, _, err := factory.CreateNft(ctx, merchant, "foo", "Foo")
	require.NoError(t, err)
	assert.NotEqual(t, nft, second)

	assert.Equal(t, []common.Address{nft, second}, factory.GetNfts())
	assert.Equal(t, []common.Address{nft, second}, factory.GetNftsByUser(merchant))

	byUser := factory.GetNftsByUser(secondMerchant)
	assert.NotNil(t, byUser)
	assert.Empty(t, byUser)
}

func TestCreateNft_Rejections(t *testing.T) {
	factory, _ := newFactory(t)

	_, _, err := factory.CreateNft(context.Background(), merchant, "", "bar")
	require.Equal(t, failure.InvalidArgument, failure.KindOf(err))
	assert.Empty(t, factory.GetNfts())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = factory.CreateNft(ctx, merchant, "foo", "bar")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, factory.GetNfts())
}
