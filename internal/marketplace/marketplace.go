package marketplace

import (
	"context"
	"sync"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/access"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/pricefeed"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// FeeSource resolves the effective fee split for an NFT contract.
type FeeSource interface {
	GetFeeFor(contract common.Address) entity.FeeConfig
}

type Config struct {
	Address       common.Address
	Deployer      common.Address
	PaymentToken  common.Address
	TokenDecimals uint8
	FeeAddress    common.Address
	ExpiredTimes  uint64
}

// Marketplace is the ask book: fixed price listings bought with the payment token.
type Marketplace struct {
	*access.Controller

	mu     sync.RWMutex
	runner *txn.Runner
	fees   FeeSource
	feed   pricefeed.Source

	paymentToken  common.Address
	tokenDecimals uint8
	feeAddress    common.Address
	expiredTimes  uint64
	paused        bool

	nextId              uint64
	listings            map[uint64]*entity.Listing
	active              map[string]uint64
	creators            map[string]common.Address
	contracts           map[common.Address]bool
	suspendedListings   map[uint64]bool
	suspendedCollectors map[common.Address]bool
}

// New builds the ask book. feed may be nil, in which case prices are paid 1:1 in the payment token.
func New(runner *txn.Runner, fees FeeSource, feed pricefeed.Source, cfg Config) *Marketplace {
	feeAddress := cfg.FeeAddress
	if feeAddress == (common.Address{}) {
		feeAddress = cfg.Deployer
	}

	return &Marketplace{
		Controller:          access.NewController(runner, cfg.Address, cfg.Deployer),
		runner:              runner,
		fees:                fees,
		feed:                feed,
		paymentToken:        cfg.PaymentToken,
		tokenDecimals:       cfg.TokenDecimals,
		feeAddress:          feeAddress,
		expiredTimes:        cfg.ExpiredTimes,
		listings:            make(map[uint64]*entity.Listing),
		active:              make(map[string]uint64),
		creators:            make(map[string]common.Address),
		contracts:           make(map[common.Address]bool),
		suspendedListings:   make(map[uint64]bool),
		suspendedCollectors: make(map[common.Address]bool),
	}
}

func (m *Marketplace) AddContractNFT(ctx context.Context, caller, contract common.Address) (event.Log, error) {
	return m.runner.Execute(ctx, m.Address(), "addContractNFT", func(tx *txn.Tx) error {
		if err := m.Require(access.OpsRole, caller); err != nil {
			return err
		}
		if contract == (common.Address{}) {
			return failure.New(failure.InvalidArgument, "zero NFT contract")
		}

		tx.OnCommit(func() { m.write(func() { m.contracts[contract] = true }) })
		tx.Emit(event.ContractNFT, event.ContractNFTArgs{Contract: contract, Enabled: true})

		return nil
	})
}

func (m *Marketplace) RemoveContractNFT(ctx context.Context, caller, contract common.Address) (event.Log, error) {
	return m.runner.Execute(ctx, m.Address(), "removeContractNFT", func(tx *txn.Tx) error {
		if err := m.Require(access.OpsRole, caller); err != nil {
			return err
		}
		if !m.IsContractNFT(contract) {
			return failure.New(failure.NotFound, "NFT contract %s is not registered", contract.Hex())
		}

		tx.OnCommit(func() { m.write(func() { delete(m.contracts, contract) }) })
		tx.Emit(event.ContractNFT, event.ContractNFTArgs{Contract: contract, Enabled: false})

		return nil
	})
}

func (m *Marketplace) SetFeeAddress(ctx context.Context, caller, feeAddress common.Address) (event.Log, error) {
	return m.runner.Execute(ctx, m.Address(), "setFeeAddress", func(tx *txn.Tx) error {
		if err := m.Require(access.OpsRole, caller); err != nil {
			return err
		}
		if feeAddress == (common.Address{}) {
			return failure.New(failure.InvalidArgument, "zero fee address")
		}

		tx.OnCommit(func() { m.write(func() { m.feeAddress = feeAddress }) })
		tx.Emit(event.FeeAddress, event.AddressArgs{Address: feeAddress})

		return nil
	})
}

// SetExpiredTimes sets how long, in minutes, a price quote stays valid.
func (m *Marketplace) SetExpiredTimes(ctx context.Context, caller common.Address, minutes uint64) (event.Log, error) {
	return m.runner.Execute(ctx, m.Address(), "setExpiredTimes", func(tx *txn.Tx) error {
		if err := m.Require(access.OpsRole, caller); err != nil {
			return err
		}

		tx.OnCommit(func() { m.write(func() { m.expiredTimes = minutes }) })
		tx.Emit(event.SetExpiredTimes, event.ExpiredTimesArgs{Minutes: minutes})

		return nil
	})
}

func (m *Marketplace) Pause(ctx context.Context, caller common.Address) (event.Log, error) {
	return m.setPaused(ctx, caller, true)
}

func (m *Marketplace) Unpause(ctx context.Context, caller common.Address) (event.Log, error) {
	return m.setPaused(ctx, caller, false)
}

func (m *Marketplace) setPaused(ctx context.Context, caller common.Address, paused bool) (event.Log, error) {
	return m.runner.Execute(ctx, m.Address(), "setPaused", func(tx *txn.Tx) error {
		if err := m.Require(access.OpsRole, caller); err != nil {
			return err
		}
		if m.Paused() == paused {
			return failure.New(failure.InvalidState, "marketplace paused is already %t", paused)
		}

		tx.OnCommit(func() { m.write(func() { m.paused = paused }) })
		if paused {
			tx.Emit(event.Paused, event.AddressArgs{Address: caller})
		} else {
			tx.Emit(event.Unpaused, event.AddressArgs{Address: caller})
		}

		zap.L().With(zap.Bool("paused", paused), zap.String("caller", caller.Hex())).Info("Marketplace: Pause toggled")
		return nil
	})
}

func (m *Marketplace) SuspendNFT(ctx context.Context, caller common.Address, id uint64) (event.Log, error) {
	return m.setListingsSuspended(ctx, caller, []uint64{id}, true)
}

func (m *Marketplace) UnsuspendNFT(ctx context.Context, caller common.Address, id uint64) (event.Log, error) {
	return m.setListingsSuspended(ctx, caller, []uint64{id}, false)
}

func (m *Marketplace) SuspendNFTBatch(ctx context.Context, caller common.Address, ids []uint64) (event.Log, error) {
	return m.setListingsSuspended(ctx, caller, ids, true)
}

func (m *Marketplace) UnsuspendNFTBatch(ctx context.Context, caller common.Address, ids []uint64) (event.Log, error) {
	return m.setListingsSuspended(ctx, caller, ids, false)
}

func (m *Marketplace) setListingsSuspended(ctx context.Context, caller common.Address, ids []uint64, suspended bool) (event.Log, error) {
	return m.runner.Execute(ctx, m.Address(), "suspendNFT", func(tx *txn.Tx) error {
		if err := m.Require(access.OpsRole, caller); err != nil {
			return err
		}
		if len(ids) == 0 {
			return failure.New(failure.InvalidArgument, "no listing ids")
		}

		for _, id := range ids {
			if _, err := m.GetAsk(id); err != nil {
				return err
			}

			id := id
			tx.OnCommit(func() {
				m.write(func() {
					if suspended {
						m.suspendedListings[id] = true
					} else {
						delete(m.suspendedListings, id)
					}
				})
			})
			tx.Emit(event.SuspendNFT, event.SuspendNFTArgs{ListingId: id, Suspended: suspended})
		}

		return nil
	})
}

func (m *Marketplace) SuspendCollector(ctx context.Context, caller, collector common.Address) (event.Log, error) {
	return m.setCollectorSuspended(ctx, caller, collector, true)
}

func (m *Marketplace) UnsuspendCollector(ctx context.Context, caller, collector common.Address) (event.Log, error) {
	return m.setCollectorSuspended(ctx, caller, collector, false)
}

func (m *Marketplace) setCollectorSuspended(ctx context.Context, caller, collector common.Address, suspended bool) (event.Log, error) {
	return m.runner.Execute(ctx, m.Address(), "suspendCollector", func(tx *txn.Tx) error {
		if err := m.Require(access.OpsRole, caller); err != nil {
			return err
		}

		tx.OnCommit(func() {
			m.write(func() {
				if suspended {
					m.suspendedCollectors[collector] = true
				} else {
					delete(m.suspendedCollectors, collector)
				}
			})
		})
		tx.Emit(event.SuspendCollector, event.SuspendCollectorArgs{Collector: collector, Suspended: suspended})

		return nil
	})
}

func (m *Marketplace) write(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn()
}
