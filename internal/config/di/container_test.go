package di

import (
	"context"
	"testing"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainer_MemoryStack(t *testing.T) {
	t.Setenv("PAYMENT_TOKEN", "0x00000000000000000000000000000000000000aa")

	container, err := NewContainer()
	require.NoError(t, err)
	defer container.Delete()

	memory, ok := container.GetLedger().(*ledger.Memory)
	require.True(t, ok)
	balance, err := memory.BalanceOf(context.Background(), common.HexToAddress("0xaa"), common.HexToAddress("0x1"))
	require.NoError(t, err)
	assert.Zero(t, balance.Sign())

	market := container.GetMarketplace()
	assert.Equal(t, common.HexToAddress("0x0000000000000000000000000000000000000f02"), market.Address())
	assert.Same(t, container.GetRunner(), container.GetRunner())
	assert.Equal(t, common.HexToAddress("0x0000000000000000000000000000000000000f03"), container.GetOrderMatch().Address())
	assert.NotNil(t, container.GetBlindBoxFactory())
	assert.NotNil(t, container.GetNftFactory())
	assert.Nil(t, container.GetMessenger())
}
