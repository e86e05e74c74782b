package blindbox

import (
	"context"
	"sync"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Factory deploys blind box sets. Set addresses follow the CREATE scheme of the
// factory address and its deployment nonce.
type Factory struct {
	mu      sync.RWMutex
	runner  *txn.Runner
	address common.Address

	nonce  uint64
	sets   []*Set
	byAddr map[common.Address]*Set
	byUser map[common.Address][]common.Address
}

func NewFactory(runner *txn.Runner, address common.Address) *Factory {
	return &Factory{
		runner:  runner,
		address: address,
		nonce:   1,
		sets:    make([]*Set, 0),
		byAddr:  make(map[common.Address]*Set),
		byUser:  make(map[common.Address][]common.Address),
	}
}

func (f *Factory) Address() common.Address {
	return f.address
}

func (f *Factory) CreateBlindBoxSet(ctx context.Context, caller common.Address, name, symbol string, maxAssetPerBox uint64) (common.Address, event.Log, error) {
	var address common.Address

	log, err := f.runner.Execute(ctx, f.address, "createBlindBoxSet", func(tx *txn.Tx) error {
		if name == "" || symbol == "" {
			return failure.New(failure.InvalidArgument, "blind box set needs a name and a symbol")
		}
		if maxAssetPerBox == 0 {
			return failure.New(failure.InvalidArgument, "max asset per box must be greater than zero")
		}

		f.mu.RLock()
		nonce := f.nonce
		f.mu.RUnlock()

		address = crypto.CreateAddress(f.address, nonce)
		set := NewSet(f.runner, address, caller, name, symbol, maxAssetPerBox)

		tx.OnCommit(func() {
			f.mu.Lock()
			defer f.mu.Unlock()

			f.nonce = nonce + 1
			f.sets = append(f.sets, set)
			f.byAddr[address] = set
			f.byUser[caller] = append(f.byUser[caller], address)
		})
		tx.Emit(event.BlindBoxSetCreated, event.BlindBoxSetArgs{
			Owner:          caller,
			Set:            address,
			Name:           name,
			Symbol:         symbol,
			MaxAssetPerBox: maxAssetPerBox,
		})

		zap.L().With(zap.String("set", address.Hex()), zap.String("owner", caller.Hex())).Info("BlindBox: Set created")
		return nil
	})
	if err != nil {
		return common.Address{}, nil, err
	}

	return address, log, nil
}

func (f *Factory) GetBlindBoxSets() []common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()

	addresses := make([]common.Address, len(f.sets))
	for i, set := range f.sets {
		addresses[i] = set.Address()
	}
	return addresses
}

func (f *Factory) GetBlindBoxSetsByUser(user common.Address) []common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return append(make([]common.Address, 0), f.byUser[user]...)
}

func (f *Factory) Set(address common.Address) (*Set, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	set, ok := f.byAddr[address]
	if !ok {
		return nil, failure.New(failure.NotFound, "blind box set %s does not exist", address.Hex())
	}
	return set, nil
}
