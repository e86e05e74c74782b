package marketplace

import (
	"context"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/access"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/fee"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/pricefeed"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	marketAddr = common.HexToAddress("0x3000000000000000000000000000000000000003")
	feeResAddr = common.HexToAddress("0x3000000000000000000000000000000000000004")
	feedAddr   = common.HexToAddress("0x3000000000000000000000000000000000000005")
	nft        = common.HexToAddress("0x1000000000000000000000000000000000000001")
	tko        = common.HexToAddress("0x2000000000000000000000000000000000000002")

	deployer = common.HexToAddress("0xa000000000000000000000000000000000000000")
	buyer    = common.HexToAddress("0xa000000000000000000000000000000000000001")
	other    = common.HexToAddress("0xa000000000000000000000000000000000000002")
	feeAddr  = common.HexToAddress("0xa000000000000000000000000000000000000005")
)

type fixture struct {
	ctx    context.Context
	t      *testing.T
	mem    *ledger.Memory
	clock  *txn.FixedClock
	runner *txn.Runner
	fees   *fee.Resolver
	market *Marketplace
}

func newFixture(t *testing.T, feed func(runner *txn.Runner) pricefeed.Source) *fixture {
	f := &fixture{
		ctx:   context.Background(),
		t:     t,
		mem:   ledger.NewMemory(),
		clock: &txn.FixedClock{T: time.Unix(1700000000, 0).UTC()},
	}
	f.runner = txn.NewRunner(f.clock, f.mem, nil)
	f.fees = newFees(f.runner)

	var source pricefeed.Source
	if feed != nil {
		source = feed(f.runner)
	}
	f.market = New(f.runner, f.fees, source, Config{
		Address:      marketAddr,
		Deployer:     deployer,
		PaymentToken: tko,
		FeeAddress:   feeAddr,
		ExpiredTimes: 5,
	})

	require.NoError(t, f.mem.CreateCollection(nft, deployer, "Toko NFT", "TKONFT"))
	for i := 0; i < 5; i++ {
		_, err := f.mem.Mint(nft, deployer)
		require.NoError(t, err)
	}
	require.NoError(t, f.mem.SetApprovalForAll(nft, deployer, marketAddr, true))

	f.mem.CreateToken(tko)
	f.fund(buyer, 1000000000)

	_, err := f.market.AddContractNFT(f.ctx, deployer, nft)
	require.NoError(t, err)

	return f
}

func newFees(runner *txn.Runner) *fee.Resolver {
	return fee.NewResolver(runner, feeResAddr, deployer, entity.FeeConfig{Marketplace: 250, Owner: 500, Merchant: 300, Collector: 200})
}

func (f *fixture) fund(account common.Address, amount int64) {
	require.NoError(f.t, f.mem.Credit(tko, account, big.NewInt(amount)))
	require.NoError(f.t, f.mem.IncreaseAllowance(tko, account, marketAddr, big.NewInt(amount)))
}

func (f *fixture) balance(account common.Address) int64 {
	b, err := f.mem.BalanceOf(f.ctx, tko, account)
	require.NoError(f.t, err)
	return b.Int64()
}

func (f *fixture) owner(tokenId int64) common.Address {
	o, err := f.mem.OwnerOf(f.ctx, nft, big.NewInt(tokenId))
	require.NoError(f.t, err)
	return o
}

func (f *fixture) sell(seller common.Address, tokenId, price int64) uint64 {
	id, _, err := f.market.SellNFT(f.ctx, seller, nft, big.NewInt(tokenId), big.NewInt(price))
	require.NoError(f.t, err)
	return id
}

func TestSellNFT_Rejections(t *testing.T) {
	unregistered := common.HexToAddress("0x1000000000000000000000000000000000000009")

	tests := map[string]struct {
		setup    func(f *fixture)
		caller   common.Address
		contract common.Address
		tokenId  int64
		price    int64
		kind     failure.Kind
	}{
		"unregistered contract": {
			caller: deployer, contract: unregistered, tokenId: 1, price: 100, kind: failure.InvalidState,
		},
		"zero price": {
			caller: deployer, contract: nft, tokenId: 1, price: 0, kind: failure.InvalidArgument,
		},
		"caller is not owner": {
			caller: other, contract: nft, tokenId: 1, price: 100, kind: failure.Unauthorized,
		},
		"marketplace not approved": {
			setup: func(f *fixture) {
				require.NoError(f.t, f.mem.SetApprovalForAll(nft, deployer, marketAddr, false))
			},
			caller: deployer, contract: nft, tokenId: 1, price: 100, kind: failure.Unauthorized,
		},
		"unknown token": {
			caller: deployer, contract: nft, tokenId: 99, price: 100, kind: failure.NotFound,
		},
		"already listed by the same owner": {
			setup:  func(f *fixture) { f.sell(deployer, 1, 100) },
			caller: deployer, contract: nft, tokenId: 1, price: 200, kind: failure.InvalidState,
		},
		"paused": {
			setup: func(f *fixture) {
				_, err := f.market.Pause(f.ctx, deployer)
				require.NoError(f.t, err)
			},
			caller: deployer, contract: nft, tokenId: 1, price: 100, kind: failure.InvalidState,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil)
			if tc.setup != nil {
				tc.setup(f)
			}
			before := f.market.TotalAsks()

			_, _, err := f.market.SellNFT(f.ctx, tc.caller, tc.contract, big.NewInt(tc.tokenId), big.NewInt(tc.price))
			require.Equal(t, tc.kind, failure.KindOf(err))
			require.Equal(t, before, f.market.TotalAsks())
		})
	}
}

func TestSellNFTBatch_Pagination(t *testing.T) {
	f := newFixture(t, nil)

	ids, log, err := f.market.SellNFTBatch(f.ctx, deployer, nft, []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}, big.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, ids)
	require.Equal(t, 3, log.Count(event.Ask))

	f.sell(deployer, 4, 2000)
	f.sell(deployer, 5, 3000)
	_, err = f.market.CancelSellNFT(f.ctx, deployer, 3)
	require.NoError(t, err)

	page, err := f.market.GetAsksByPage(2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, uint64(3), page[0].Id)
	require.Equal(t, uint64(4), page[1].Id)
	require.False(t, page[0].Active)

	desc, err := f.market.GetAsksByPageDesc(1, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(5), desc[0].Id)
	require.Equal(t, uint64(4), desc[1].Id)

	last, err := f.market.GetAsksByPage(3, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)

	empty, err := f.market.GetAsksByPage(4, 2)
	require.NoError(t, err)
	require.Empty(t, empty)

	for _, page := range []uint64{1<<63 + 1, math.MaxUint64} {
		beyond, err := f.market.GetAsksByPage(page, 2)
		require.NoError(t, err)
		require.Empty(t, beyond, "page %d", page)

		beyond, err = f.market.GetAsksByPageDesc(page, math.MaxUint64)
		require.NoError(t, err)
		require.Empty(t, beyond, "page %d", page)
	}

	_, err = f.market.GetAsksByPage(0, 2)
	require.Equal(t, failure.InvalidArgument, failure.KindOf(err))

	all := f.market.GetAsks()
	require.Len(t, all, 5)
	require.Equal(t, uint64(1), all[0].Id)
	require.Equal(t, uint64(5), f.market.GetAsksDesc()[0].Id)

	batch, err := f.market.GetAskBatch([]uint64{2, 4})
	require.NoError(t, err)
	require.Equal(t, int64(1000), batch[0].Price.Int64())
	require.Equal(t, int64(2000), batch[1].Price.Int64())

	_, err = f.market.GetAskBatch([]uint64{2, 40})
	require.Equal(t, failure.NotFound, failure.KindOf(err))
}

func TestSellNFTBatch_IsAllOrNothing(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.mem.Mint(nft, other)
	require.NoError(t, err)

	_, _, err = f.market.SellNFTBatch(f.ctx, deployer, nft, []*big.Int{big.NewInt(1), big.NewInt(6)}, big.NewInt(1000))
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))
	require.Zero(t, f.market.TotalAsks())
	require.Empty(t, f.market.GetAsks())
}

func TestCancelSellNFT(t *testing.T) {
	f := newFixture(t, nil)
	id := f.sell(deployer, 1, 1000)

	_, err := f.market.CancelSellNFT(f.ctx, buyer, id)
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))

	log, err := f.market.CancelSellNFT(f.ctx, deployer, id)
	require.NoError(t, err)
	require.Equal(t, 1, log.Count(event.CancelSellNFT))

	ask, err := f.market.GetAsk(id)
	require.NoError(t, err)
	require.Equal(t, entity.ZeroAddress, ask.Seller)
	require.False(t, ask.Active)

	_, err = f.market.BuyNFT(f.ctx, buyer, id)
	require.Equal(t, failure.InvalidState, failure.KindOf(err))

	_, err = f.market.CancelSellNFT(f.ctx, deployer, id)
	require.Equal(t, failure.InvalidState, failure.KindOf(err))

	relisted := f.sell(deployer, 1, 500)
	require.Equal(t, id+1, relisted)
}

func TestCancelSellNFTBatch(t *testing.T) {
	f := newFixture(t, nil)
	ids, _, err := f.market.SellNFTBatch(f.ctx, deployer, nft, []*big.Int{big.NewInt(1), big.NewInt(2)}, big.NewInt(1000))
	require.NoError(t, err)

	_, err = f.market.CancelSellNFTBatch(f.ctx, deployer, []uint64{ids[0], ids[0]})
	require.Equal(t, failure.InvalidArgument, failure.KindOf(err))

	log, err := f.market.CancelSellNFTBatch(f.ctx, deployer, ids)
	require.NoError(t, err)
	require.Equal(t, 2, log.Count(event.CancelSellNFT))
}

func TestSetCurrentPrice(t *testing.T) {
	f := newFixture(t, nil)
	id := f.sell(deployer, 1, 1000)
	second := f.sell(deployer, 2, 1000)

	_, err := f.market.SetCurrentPrice(f.ctx, buyer, id, big.NewInt(10))
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))

	_, err = f.market.SetCurrentPrice(f.ctx, deployer, id, big.NewInt(0))
	require.Equal(t, failure.InvalidArgument, failure.KindOf(err))

	log, err := f.market.SetCurrentPriceBatch(f.ctx, deployer, []uint64{id, second}, big.NewInt(4242))
	require.NoError(t, err)
	require.Equal(t, 2, log.Count(event.Ask))

	ask, err := f.market.GetAsk(second)
	require.NoError(t, err)
	require.Equal(t, int64(4242), ask.Price.Int64())
}

func TestBuyNFT_FirstSaleAndResale(t *testing.T) {
	f := newFixture(t, nil)
	id := f.sell(deployer, 1, 1000000)

	log, err := f.market.BuyNFT(f.ctx, buyer, id)
	require.NoError(t, err)
	require.Equal(t, []event.Type{event.Trade, event.LogBuy}, log.Types())

	trade := log[0].Args.(event.TradeArgs)
	require.Equal(t, int64(25000), trade.Marketplace.Int64())
	require.Equal(t, int64(30000), trade.Merchant.Int64())
	require.Equal(t, int64(0), trade.Collector.Int64())
	require.Equal(t, int64(0), trade.Owner.Int64())

	require.Equal(t, int64(999000000), f.balance(buyer))
	require.Equal(t, int64(945000), f.balance(deployer))
	require.Equal(t, int64(55000), f.balance(feeAddr))
	require.Equal(t, buyer, f.owner(1))

	ask, err := f.market.GetAsk(id)
	require.NoError(t, err)
	require.Equal(t, entity.ZeroAddress, ask.Seller)
	require.False(t, ask.Active)

	creator, ok := f.market.Creator(ask.Asset())
	require.True(t, ok)
	require.Equal(t, deployer, creator)

	// Resale by a non-merchant pays the collector cut and the creator's owner cut.
	require.NoError(t, f.mem.SetApprovalForAll(nft, buyer, marketAddr, true))
	f.fund(other, 1000000)
	resale := f.sell(buyer, 1, 1000000)

	_, err = f.market.BuyNFT(f.ctx, other, resale)
	require.NoError(t, err)

	require.Equal(t, int64(999905000), f.balance(buyer))
	require.Equal(t, int64(995000), f.balance(deployer))
	require.Equal(t, int64(100000), f.balance(feeAddr))
	require.Equal(t, int64(0), f.balance(other))
	require.Equal(t, other, f.owner(1))
}

func TestBuyNFT_Rejections(t *testing.T) {
	tests := map[string]struct {
		setup func(f *fixture, id uint64)
		buyer common.Address
		id    uint64
		kind  failure.Kind
	}{
		"unknown listing": {
			buyer: buyer, id: 42, kind: failure.NotFound,
		},
		"suspended listing": {
			setup: func(f *fixture, id uint64) {
				_, err := f.market.SuspendNFT(f.ctx, deployer, id)
				require.NoError(f.t, err)
			},
			buyer: buyer, id: 1, kind: failure.InvalidState,
		},
		"suspended collector": {
			setup: func(f *fixture, id uint64) {
				_, err := f.market.SuspendCollector(f.ctx, deployer, buyer)
				require.NoError(f.t, err)
			},
			buyer: buyer, id: 1, kind: failure.Unauthorized,
		},
		"seller moved the token away": {
			setup: func(f *fixture, id uint64) {
				require.NoError(f.t, f.mem.Transfer(nft, deployer, deployer, other, big.NewInt(1)))
			},
			buyer: buyer, id: 1, kind: failure.InvalidState,
		},
		"approval withdrawn": {
			setup: func(f *fixture, id uint64) {
				require.NoError(f.t, f.mem.SetApprovalForAll(nft, deployer, marketAddr, false))
			},
			buyer: buyer, id: 1, kind: failure.InvalidState,
		},
		"buyer without balance": {
			buyer: other, id: 1, kind: failure.InsufficientFunds,
		},
		"seller buys own listing": {
			buyer: deployer, id: 1, kind: failure.InvalidState,
		},
		"paused": {
			setup: func(f *fixture, id uint64) {
				_, err := f.market.Pause(f.ctx, deployer)
				require.NoError(f.t, err)
			},
			buyer: buyer, id: 1, kind: failure.InvalidState,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, nil)
			id := f.sell(deployer, 1, 1000000)
			if tc.setup != nil {
				tc.setup(f, id)
			}

			_, err := f.market.BuyNFT(f.ctx, tc.buyer, tc.id)
			require.Equal(t, tc.kind, failure.KindOf(err))
			require.Equal(t, int64(1000000000), f.balance(buyer))
			require.Equal(t, int64(0), f.balance(feeAddr))

			ask, err := f.market.GetAsk(id)
			require.NoError(t, err)
			require.True(t, ask.Active)
		})
	}
}

func TestSellNFT_ClosesStaleListing(t *testing.T) {
	f := newFixture(t, nil)
	stale := f.sell(deployer, 1, 1000)

	require.NoError(t, f.mem.Transfer(nft, deployer, deployer, other, big.NewInt(1)))
	require.NoError(t, f.mem.SetApprovalForAll(nft, other, marketAddr, true))

	id, log, err := f.market.SellNFT(f.ctx, other, nft, big.NewInt(1), big.NewInt(2000))
	require.NoError(t, err)
	require.Equal(t, []event.Type{event.CancelSellNFT, event.Ask}, log.Types())

	previous, err := f.market.GetAsk(stale)
	require.NoError(t, err)
	require.False(t, previous.Active)

	_, err = f.market.BuyNFT(f.ctx, buyer, id)
	require.NoError(t, err)
	require.Equal(t, buyer, f.owner(1))
}

func TestSuspension(t *testing.T) {
	f := newFixture(t, nil)
	ids, _, err := f.market.SellNFTBatch(f.ctx, deployer, nft, []*big.Int{big.NewInt(1), big.NewInt(2)}, big.NewInt(1000))
	require.NoError(t, err)

	_, err = f.market.SuspendNFTBatch(f.ctx, buyer, ids)
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))

	_, err = f.market.SuspendNFTBatch(f.ctx, deployer, []uint64{ids[0], 99})
	require.Equal(t, failure.NotFound, failure.KindOf(err))
	require.Equal(t, []bool{false, false}, f.market.IsSuspendNFTBatch(ids))

	log, err := f.market.SuspendNFTBatch(f.ctx, deployer, ids)
	require.NoError(t, err)
	require.Equal(t, 2, log.Count(event.SuspendNFT))
	require.Equal(t, []bool{true, true}, f.market.IsSuspendNFTBatch(ids))

	_, err = f.market.UnsuspendNFT(f.ctx, deployer, ids[1])
	require.NoError(t, err)
	require.False(t, f.market.IsSuspendNFT(ids[1]))

	_, err = f.market.SuspendCollector(f.ctx, deployer, buyer)
	require.NoError(t, err)
	require.True(t, f.market.IsSuspendCollector(buyer))

	_, err = f.market.UnsuspendCollector(f.ctx, deployer, buyer)
	require.NoError(t, err)
	require.False(t, f.market.IsSuspendCollector(buyer))

	_, err = f.market.BuyNFT(f.ctx, buyer, ids[1])
	require.NoError(t, err)
}

func TestGetThePrice(t *testing.T) {
	var feed *pricefeed.Feed
	f := newFixture(t, func(runner *txn.Runner) pricefeed.Source {
		feed = pricefeed.NewFeed(runner, feedAddr, deployer, 3, "TKOBIDR", 1)
		return feed
	})
	_, err := feed.UpdatePrice(f.ctx, deployer, big.NewInt(10000))
	require.NoError(t, err)

	id := f.sell(deployer, 1, 1000)

	log, err := f.market.SetExpiredTimes(f.ctx, deployer, 10)
	require.NoError(t, err)
	require.Equal(t, 1, log.Count(event.SetExpiredTimes))

	quote, err := f.market.GetThePrice(id)
	require.NoError(t, err)
	require.Equal(t, int64(1000), quote.Price.Int64())
	require.Equal(t, int64(100), quote.TokenAmount.Int64())
	require.Equal(t, uint64(1), quote.RoundId)
	require.Equal(t, uint64(600), quote.ExpiredSeconds)
	require.Equal(t, f.clock.T.Add(600*time.Second), quote.ExpiresAt)

	_, err = f.market.BuyNFT(f.ctx, buyer, id)
	require.NoError(t, err)
	require.Equal(t, int64(1000000000-100), f.balance(buyer))

	_, err = f.market.GetThePrice(99)
	require.Equal(t, failure.NotFound, failure.KindOf(err))
}

func TestGetThePrice_WithoutFeedRound(t *testing.T) {
	f := newFixture(t, func(runner *txn.Runner) pricefeed.Source {
		return pricefeed.NewFeed(runner, feedAddr, deployer, 3, "TKOBIDR", 1)
	})
	id := f.sell(deployer, 1, 1000)

	_, err := f.market.GetThePrice(id)
	require.Equal(t, failure.NotFound, failure.KindOf(err))
}

func TestAdministration(t *testing.T) {
	f := newFixture(t, nil)
	contract := common.HexToAddress("0x1000000000000000000000000000000000000007")

	_, err := f.market.AddContractNFT(f.ctx, buyer, contract)
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))
	_, err = f.market.SetFeeAddress(f.ctx, buyer, buyer)
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))
	_, err = f.market.SetExpiredTimes(f.ctx, buyer, 1)
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))
	_, err = f.market.Pause(f.ctx, buyer)
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))

	log, err := f.market.AddContractNFT(f.ctx, deployer, contract)
	require.NoError(t, err)
	require.Equal(t, 1, log.Count(event.ContractNFT))
	require.True(t, f.market.IsContractNFT(contract))

	_, err = f.market.RemoveContractNFT(f.ctx, deployer, contract)
	require.NoError(t, err)
	require.False(t, f.market.IsContractNFT(contract))
	_, err = f.market.RemoveContractNFT(f.ctx, deployer, contract)
	require.Equal(t, failure.NotFound, failure.KindOf(err))

	_, err = f.market.SetFeeAddress(f.ctx, deployer, other)
	require.NoError(t, err)
	require.Equal(t, other, f.market.FeeAddress())

	_, err = f.market.Pause(f.ctx, deployer)
	require.NoError(t, err)
	_, err = f.market.Pause(f.ctx, deployer)
	require.Equal(t, failure.InvalidState, failure.KindOf(err))
	_, err = f.market.Unpause(f.ctx, deployer)
	require.NoError(t, err)
	require.False(t, f.market.Paused())

	_, err = f.market.GrantRole(f.ctx, deployer, access.OpsRole, other)
	require.NoError(t, err)
	_, err = f.market.SetExpiredTimes(f.ctx, other, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), f.market.ExpiredTimes())
}

func TestUpgradeKeepsState(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.market.SetFeeAddress(f.ctx, deployer, other)
	require.NoError(t, err)

	_, err = f.market.Upgrade(f.ctx, deployer, "2")
	require.NoError(t, err)
	require.Equal(t, "2", f.market.Version())
	require.Equal(t, other, f.market.FeeAddress())
	require.True(t, f.market.IsContractNFT(nft))

	_, err = f.market.RenounceRole(f.ctx, deployer, access.AdminRole)
	require.NoError(t, err)
	_, err = f.market.Upgrade(f.ctx, deployer, "3")
	require.Equal(t, failure.Unauthorized, failure.KindOf(err))
}
