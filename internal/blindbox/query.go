package blindbox

import (
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/ethereum/go-ethereum/common"
)

func (s *Set) Address() common.Address {
	return s.address
}

func (s *Set) Creator() common.Address {
	return s.creator
}

func (s *Set) Name() string {
	return s.name
}

func (s *Set) Symbol() string {
	return s.symbol
}

func (s *Set) GetDetail() entity.BlindBoxDetail {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.detail
}

// GetLockBoxBatch reports, per id, whether the box still holds its assets.
// Unknown ids report false.
func (s *Set) GetLockBoxBatch(ids []uint64) []bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locked := make([]bool, len(ids))
	for i, id := range ids {
		if box, ok := s.boxes[id]; ok {
			locked[i] = box.Locked()
		}
	}
	return locked
}

// Exists reports whether a box was minted and not burned.
func (s *Set) Exists(id uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	box, ok := s.boxes[id]
	return ok && !box.Burned
}

func (s *Set) OwnerOf(id uint64) (common.Address, error) {
	box, err := s.Box(id)
	if err != nil {
		return common.Address{}, err
	}
	return box.Owner, nil
}

func (s *Set) BoxAssets(id uint64) ([]entity.Asset, error) {
	box, err := s.Box(id)
	if err != nil {
		return nil, err
	}
	return box.Assets, nil
}

func (s *Set) Box(id uint64) (entity.Box, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	box, ok := s.boxes[id]
	if !ok || box.Burned {
		return entity.Box{}, failure.New(failure.NotFound, "box %d does not exist", id)
	}
	return box.Copy(), nil
}

func (s *Set) BalanceOf(owner common.Address) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var balance uint64
	for _, box := range s.boxes {
		if !box.Burned && box.Owner == owner {
			balance++
		}
	}
	return balance
}

func (s *Set) IsApprovedForAll(owner, operator common.Address) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.operators[owner][operator]
}
