package pricefeed

import (
	"context"
	"math/big"
	"sync"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/access"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
)

// Source is the read side of a price feed.
type Source interface {
	Decimals() uint8
	LatestRoundData() (entity.PriceRound, error)
}

// Feed is an operator maintained price oracle quoting the payment token in the listing currency.
type Feed struct {
	*access.Controller

	mu          sync.RWMutex
	runner      *txn.Runner
	decimals    uint8
	description string
	version     uint64
	rounds      []entity.PriceRound
}

func NewFeed(runner *txn.Runner, address, deployer common.Address, decimals uint8, description string, version uint64) *Feed {
	return &Feed{
		Controller:  access.NewController(runner, address, deployer),
		runner:      runner,
		decimals:    decimals,
		description: description,
		version:     version,
		rounds:      make([]entity.PriceRound, 0),
	}
}

func (f *Feed) UpdateDecimals(ctx context.Context, caller common.Address, decimals uint8) (event.Log, error) {
	return f.update(ctx, caller, "updateDecimals", func() { f.decimals = decimals })
}

func (f *Feed) UpdateDescription(ctx context.Context, caller common.Address, description string) (event.Log, error) {
	return f.update(ctx, caller, "updateDescription", func() { f.description = description })
}

func (f *Feed) UpdateVersion(ctx context.Context, caller common.Address, version uint64) (event.Log, error) {
	return f.update(ctx, caller, "updateVersion", func() { f.version = version })
}

// UpdatePrice opens a new round with the given answer.
func (f *Feed) UpdatePrice(ctx context.Context, caller common.Address, answer *big.Int) (event.Log, error) {
	return f.runner.Execute(ctx, f.Address(), "updatePrice", func(tx *txn.Tx) error {
		if err := f.Require(access.OpsRole, caller); err != nil {
			return err
		}
		if answer == nil || answer.Sign() <= 0 {
			return failure.New(failure.InvalidArgument, "price answer must be positive")
		}

		f.mu.RLock()
		roundId := uint64(len(f.rounds)) + 1
		f.mu.RUnlock()

		round := entity.PriceRound{
			RoundId:         roundId,
			Answer:          new(big.Int).Set(answer),
			StartedAt:       tx.Now(),
			UpdatedAt:       tx.Now(),
			AnsweredInRound: roundId,
		}

		tx.OnCommit(func() {
			f.mu.Lock()
			f.rounds = append(f.rounds, round)
			f.mu.Unlock()
		})
		tx.Emit(event.PriceUpdated, event.PriceUpdatedArgs{RoundId: roundId, Answer: round.Answer})

		return nil
	})
}

func (f *Feed) LatestRoundData() (entity.PriceRound, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.rounds) == 0 {
		return entity.PriceRound{}, failure.New(failure.NotFound, "price feed %s has no rounds", f.description)
	}

	return copyRound(f.rounds[len(f.rounds)-1]), nil
}

func (f *Feed) GetRoundData(roundId uint64) (entity.PriceRound, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if roundId == 0 || roundId > uint64(len(f.rounds)) {
		return entity.PriceRound{}, failure.New(failure.NotFound, "round %d does not exist", roundId)
	}

	return copyRound(f.rounds[roundId-1]), nil
}

func (f *Feed) Decimals() uint8 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.decimals
}

func (f *Feed) Description() string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.description
}

func (f *Feed) Version() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.version
}

func (f *Feed) update(ctx context.Context, caller common.Address, name string, apply func()) (event.Log, error) {
	return f.runner.Execute(ctx, f.Address(), name, func(tx *txn.Tx) error {
		if err := f.Require(access.OpsRole, caller); err != nil {
			return err
		}

		tx.OnCommit(func() {
			f.mu.Lock()
			apply()
			f.mu.Unlock()
		})

		return nil
	})
}

func copyRound(r entity.PriceRound) entity.PriceRound {
	r.Answer = new(big.Int).Set(r.Answer)
	return r
}
