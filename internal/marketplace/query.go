package marketplace

import (
	"math"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/ethereum/go-ethereum/common"
)

func (m *Marketplace) GetAsk(id uint64) (entity.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	listing, ok := m.listings[id]
	if !ok {
		return entity.Listing{}, failure.New(failure.NotFound, "listing %d does not exist", id)
	}
	return listing.Copy(), nil
}

func (m *Marketplace) GetAskBatch(ids []uint64) ([]entity.Listing, error) {
	listings := make([]entity.Listing, 0, len(ids))
	for _, id := range ids {
		listing, err := m.GetAsk(id)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// GetAsks returns every listing ever created, oldest first.
func (m *Marketplace) GetAsks() []entity.Listing {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.window(0, m.nextId, false)
}

func (m *Marketplace) GetAsksDesc() []entity.Listing {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.window(0, m.nextId, true)
}

// GetAsksByPage pages over all listings, including closed ones. Pages start at 1.
func (m *Marketplace) GetAsksByPage(page, size uint64) ([]entity.Listing, error) {
	return m.page(page, size, false)
}

func (m *Marketplace) GetAsksByPageDesc(page, size uint64) ([]entity.Listing, error) {
	return m.page(page, size, true)
}

func (m *Marketplace) TotalAsks() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.nextId
}

func (m *Marketplace) page(page, size uint64, desc bool) ([]entity.Listing, error) {
	if page == 0 || size == 0 {
		return nil, failure.New(failure.InvalidArgument, "page and size start at 1")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if page-1 > math.MaxUint64/size {
		return []entity.Listing{}, nil
	}

	offset := (page - 1) * size
	if offset >= m.nextId {
		return []entity.Listing{}, nil
	}

	return m.window(offset, size, desc), nil
}

// window returns up to limit listings skipping offset, walking ids up or down.
// Callers hold the read lock.
func (m *Marketplace) window(offset, limit uint64, desc bool) []entity.Listing {
	listings := make([]entity.Listing, 0)
	for i := offset; i < m.nextId && uint64(len(listings)) < limit; i++ {
		id := i + 1
		if desc {
			id = m.nextId - i
		}
		listings = append(listings, m.listings[id].Copy())
	}
	return listings
}

func (m *Marketplace) IsSuspendNFT(id uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.suspendedListings[id]
}

func (m *Marketplace) IsSuspendNFTBatch(ids []uint64) []bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	suspended := make([]bool, len(ids))
	for i, id := range ids {
		suspended[i] = m.suspendedListings[id]
	}
	return suspended
}

func (m *Marketplace) IsSuspendCollector(collector common.Address) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.suspendedCollectors[collector]
}

func (m *Marketplace) IsContractNFT(contract common.Address) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.contracts[contract]
}

// Creator returns the first seller recorded for an asset.
func (m *Marketplace) Creator(asset entity.Asset) (common.Address, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	creator, ok := m.creators[asset.Key()]
	return creator, ok
}

func (m *Marketplace) FeeAddress() common.Address {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.feeAddress
}

func (m *Marketplace) ExpiredTimes() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.expiredTimes
}

func (m *Marketplace) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.paused
}

func (m *Marketplace) PaymentToken() common.Address {
	return m.paymentToken
}
