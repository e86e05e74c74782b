package nftfactory

import (
	"context"
	"sync"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Factory creates merchant NFT collections on the ledger.
type Factory struct {
	mu      sync.RWMutex
	runner  *txn.Runner
	address common.Address

	nonce  uint64
	nfts   []common.Address
	byUser map[common.Address][]common.Address
}

func New(runner *txn.Runner, address common.Address) *Factory {
	return &Factory{
		runner:  runner,
		address: address,
		nonce:   1,
		nfts:    make([]common.Address, 0),
		byUser:  make(map[common.Address][]common.Address),
	}
}

func (f *Factory) Address() common.Address {
	return f.address
}

// CreateNft deploys a collection owned by caller and returns its address.
func (f *Factory) CreateNft(ctx context.Context, caller common.Address, name, symbol string) (common.Address, event.Log, error) {
	var nft common.Address

	log, err := f.runner.Execute(ctx, f.address, "createNft", func(tx *txn.Tx) error {
		if name == "" || symbol == "" {
			return failure.New(failure.InvalidArgument, "collection needs a name and a symbol")
		}

		f.mu.RLock()
		nonce := f.nonce
		f.mu.RUnlock()

		nft = crypto.CreateAddress(f.address, nonce)
		tx.Stage(ledger.NewCollection(nft, caller, name, symbol))
		tx.OnCommit(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			f.nonce = nonce + 1
			f.nfts = append(f.nfts, nft)
			f.byUser[caller] = append(f.byUser[caller], nft)
		})
		tx.Emit(event.NftCreated, event.NftCreatedArgs{Owner: caller, Nft: nft, Name: name, Symbol: symbol})

		zap.L().With(zap.String("nft", nft.Hex()), zap.String("owner", caller.Hex())).Info("NftFactory: Collection created")
		return nil
	})
	if err != nil {
		return common.Address{}, nil, err
	}

	return nft, log, nil
}

func (f *Factory) GetNfts() []common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return append(make([]common.Address, 0, len(f.nfts)), f.nfts...)
}

// GetNftsByUser returns the collections created by user, or an empty slice.
func (f *Factory) GetNftsByUser(user common.Address) []common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return append(make([]common.Address, 0), f.byUser[user]...)
}
