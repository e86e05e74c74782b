package ordermatch

import (
	"context"
	"sync"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/access"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/signature"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// FeeSource resolves the platform fee for an NFT contract.
type FeeSource interface {
	GetFeeFor(contract common.Address) entity.FeeConfig
}

// Signer verifies orders and exposes the domain they are signed under.
type Signer interface {
	signature.Verifier
	Hash(order entity.SignedOrder) (common.Hash, error)
	Domain() signature.Domain
}

type Config struct {
	Address    common.Address
	Deployer   common.Address
	FeeAddress common.Address
}

// Engine settles seller signed orders. Each uniqId can be used once, either by a
// match or by a cancellation.
type Engine struct {
	*access.Controller

	mu     sync.RWMutex
	runner *txn.Runner
	fees   FeeSource
	signer Signer

	feeAddress common.Address
	consumed   map[string]event.Type
	royalties  map[common.Address]entity.RoyaltyFee
	tokens     map[common.Address]bool
}

func New(runner *txn.Runner, fees FeeSource, signer Signer, cfg Config) *Engine {
	feeAddress := cfg.FeeAddress
	if feeAddress == (common.Address{}) {
		feeAddress = cfg.Deployer
	}

	return &Engine{
		Controller: access.NewController(runner, cfg.Address, cfg.Deployer),
		runner:     runner,
		fees:       fees,
		signer:     signer,
		feeAddress: feeAddress,
		consumed:   make(map[string]event.Type),
		royalties:  make(map[common.Address]entity.RoyaltyFee),
		tokens:     make(map[common.Address]bool),
	}
}

// CancelMatch burns the uniqId of an order so it can never be executed.
func (e *Engine) CancelMatch(ctx context.Context, caller common.Address, sig entity.Signature, order entity.SignedOrder) (event.Log, error) {
	return e.runner.Execute(ctx, e.Address(), "cancelMatch", func(tx *txn.Tx) error {
		if order.UniqId == "" {
			return failure.New(failure.InvalidArgument, "order has no uniqId")
		}
		if e.IsConsumed(order.UniqId) {
			return failure.Coded(failure.ExpiredOrReplayed, failure.CodeOrderConsumed, "order %q was already used", order.UniqId)
		}

		signer, err := e.signer.Recover(order, sig)
		if err != nil && failure.KindOf(err) == failure.InvalidArgument {
			return err
		}
		if err != nil || signer != order.Seller || caller != order.Seller {
			return failure.Coded(failure.ExpiredOrReplayed, failure.CodeBadCanceller, "%s cannot cancel order %q", caller.Hex(), order.UniqId)
		}

		uniqId := order.UniqId
		tx.OnCommit(func() { e.write(func() { e.consumed[uniqId] = event.CancelMatch }) })
		tx.Emit(event.CancelMatch, event.CancelMatchArgs{UniqId: uniqId, Seller: order.Seller})

		zap.L().With(zap.String("uniqId", uniqId), zap.String("seller", order.Seller.Hex())).Info("OrderMatch: Order cancelled")
		return nil
	})
}

func (e *Engine) SetFeeAddress(ctx context.Context, caller, feeAddress common.Address) (event.Log, error) {
	return e.runner.Execute(ctx, e.Address(), "setFeeAddress", func(tx *txn.Tx) error {
		if err := e.Require(access.OpsRole, caller); err != nil {
			return err
		}
		if feeAddress == (common.Address{}) {
			return failure.New(failure.InvalidArgument, "zero fee address")
		}

		tx.OnCommit(func() { e.write(func() { e.feeAddress = feeAddress }) })
		tx.Emit(event.FeeAddress, event.AddressArgs{Address: feeAddress})

		return nil
	})
}

// SetRoyaltyFee records the royalty of an NFT contract. Only the contract owner may set it.
func (e *Engine) SetRoyaltyFee(ctx context.Context, caller, contractNFT, receiver common.Address, bps uint64) (event.Log, error) {
	return e.runner.Execute(ctx, e.Address(), "setRoyaltyFee", func(tx *txn.Tx) error {
		owner, err := tx.Ledger().ContractOwner(tx.Context(), contractNFT)
		if err != nil {
			return err
		}
		if owner != caller {
			return failure.New(failure.Unauthorized, "%s is not the owner of %s", caller.Hex(), contractNFT.Hex())
		}
		if bps > entity.MaxBps {
			return failure.New(failure.InvalidFee, "royalty of %d bps exceeds %d", bps, entity.MaxBps)
		}
		if bps > 0 && receiver == (common.Address{}) {
			return failure.New(failure.InvalidArgument, "royalty receiver is the zero address")
		}

		royalty := entity.RoyaltyFee{Receiver: receiver, Bps: bps}
		tx.OnCommit(func() { e.write(func() { e.royalties[contractNFT] = royalty }) })
		tx.Emit(event.RoyaltyFee, event.RoyaltyFeeArgs{Contract: contractNFT, Receiver: receiver, Bps: bps})

		return nil
	})
}

func (e *Engine) AddToken(ctx context.Context, caller, token common.Address) (event.Log, error) {
	return e.runner.Execute(ctx, e.Address(), "addToken", func(tx *txn.Tx) error {
		if err := e.Require(access.OpsRole, caller); err != nil {
			return err
		}
		if token == (common.Address{}) {
			return failure.New(failure.InvalidArgument, "native currency is always supported")
		}

		tx.OnCommit(func() { e.write(func() { e.tokens[token] = true }) })
		tx.Emit(event.AddToken, event.AddressArgs{Address: token})

		return nil
	})
}

func (e *Engine) RemoveToken(ctx context.Context, caller, token common.Address) (event.Log, error) {
	return e.runner.Execute(ctx, e.Address(), "removeToken", func(tx *txn.Tx) error {
		if err := e.Require(access.OpsRole, caller); err != nil {
			return err
		}

		e.mu.RLock()
		supported := e.tokens[token]
		e.mu.RUnlock()
		if !supported {
			return failure.New(failure.NotFound, "token %s is not supported", token.Hex())
		}

		tx.OnCommit(func() { e.write(func() { delete(e.tokens, token) }) })
		tx.Emit(event.RemoveToken, event.AddressArgs{Address: token})

		return nil
	})
}

func (e *Engine) write(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn()
}
