package fee

import (
	"context"
	"sync"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/access"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Resolver stores the default fee split and per-contract overrides.
type Resolver struct {
	*access.Controller

	mu         sync.RWMutex
	runner     *txn.Runner
	defaultFee entity.FeeConfig
	custom     map[common.Address]entity.FeeConfig
}

func NewResolver(runner *txn.Runner, address, deployer common.Address, defaultFee entity.FeeConfig) *Resolver {
	if field := defaultFee.Overflow(); field != "" {
		zap.L().With(zap.String("field", field)).Warn("FeeResolver: Default fee overflows, starting from zero")
		defaultFee = entity.FeeConfig{}
	}

	return &Resolver{
		Controller: access.NewController(runner, address, deployer),
		runner:     runner,
		defaultFee: defaultFee,
		custom:     make(map[common.Address]entity.FeeConfig),
	}
}

func (r *Resolver) SetDefaultFee(ctx context.Context, caller common.Address, fee entity.FeeConfig) (event.Log, error) {
	return r.runner.Execute(ctx, r.Address(), "setDefaultFee", func(tx *txn.Tx) error {
		if err := r.Require(access.OpsRole, caller); err != nil {
			return err
		}
		if field := fee.Overflow(); field != "" {
			return failure.New(failure.InvalidFee, "%s fee %s exceeds %d bps", field, fee, entity.MaxBps)
		}

		tx.OnCommit(func() {
			r.mu.Lock()
			r.defaultFee = fee
			r.mu.Unlock()
		})
		tx.Emit(event.SetDefaultFee, event.FeeArgs{
			Marketplace: fee.Marketplace,
			Owner:       fee.Owner,
			Merchant:    fee.Merchant,
			Collector:   fee.Collector,
		})

		return nil
	})
}

// SetFeeFor overrides the marketplace, owner and merchant components for one contract.
// The collector component keeps following the default.
func (r *Resolver) SetFeeFor(ctx context.Context, caller, contract common.Address, marketplaceBps, ownerBps, merchantBps uint64) (event.Log, error) {
	return r.runner.Execute(ctx, r.Address(), "setFeeFor", func(tx *txn.Tx) error {
		if err := r.Require(access.OpsRole, caller); err != nil {
			return err
		}

		fee := entity.FeeConfig{Marketplace: marketplaceBps, Owner: ownerBps, Merchant: merchantBps}
		if field := fee.Overflow(); field != "" {
			return failure.New(failure.InvalidFee, "%s fee %s exceeds %d bps", field, fee, entity.MaxBps)
		}

		tx.OnCommit(func() {
			r.mu.Lock()
			r.custom[contract] = fee
			r.mu.Unlock()
		})
		tx.Emit(event.SetCustomFee, event.FeeArgs{
			Contract:    contract,
			Marketplace: fee.Marketplace,
			Owner:       fee.Owner,
			Merchant:    fee.Merchant,
			Collector:   r.GetDefaultFee().Collector,
		})

		return nil
	})
}

func (r *Resolver) RemoveFeeFor(ctx context.Context, caller, contract common.Address) (event.Log, error) {
	return r.runner.Execute(ctx, r.Address(), "removeFeeFor", func(tx *txn.Tx) error {
		if err := r.Require(access.OpsRole, caller); err != nil {
			return err
		}
		if !r.HasCustomFee(contract) {
			return failure.New(failure.NotFound, "no custom fee for %s", contract.Hex())
		}

		tx.OnCommit(func() {
			r.mu.Lock()
			delete(r.custom, contract)
			r.mu.Unlock()
		})
		tx.Emit(event.RemoveCustomFee, event.RemoveCustomFeeArgs{Contract: contract})

		return nil
	})
}

func (r *Resolver) GetDefaultFee() entity.FeeConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.defaultFee
}

func (r *Resolver) GetFeeFor(contract common.Address) entity.FeeConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fee, ok := r.custom[contract]
	if !ok {
		return r.defaultFee
	}
	fee.Collector = r.defaultFee.Collector

	return fee
}

func (r *Resolver) HasCustomFee(contract common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.custom[contract]
	return ok
}
