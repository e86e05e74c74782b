package blindbox

import (
	"context"
	"math/big"
	"sync"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Set is a collection of blind boxes. Every box is a token of the set that holds
// up to maxAssetPerBox NFTs in the set's custody until it is opened or burned.
type Set struct {
	mu     sync.RWMutex
	runner *txn.Runner

	address        common.Address
	creator        common.Address
	name           string
	symbol         string
	maxAssetPerBox uint64

	nextId    uint64
	boxes     map[uint64]*entity.Box
	locked    map[string]uint64
	operators map[common.Address]map[common.Address]bool
	detail    entity.BlindBoxDetail
}

func NewSet(runner *txn.Runner, address, creator common.Address, name, symbol string, maxAssetPerBox uint64) *Set {
	return &Set{
		runner:         runner,
		address:        address,
		creator:        creator,
		name:           name,
		symbol:         symbol,
		maxAssetPerBox: maxAssetPerBox,
		boxes:          make(map[uint64]*entity.Box),
		locked:         make(map[string]uint64),
		operators:      make(map[common.Address]map[common.Address]bool),
		detail:         entity.BlindBoxDetail{MaxAssetPerBox: maxAssetPerBox},
	}
}

// SafeMintBatch locks the given assets into new boxes owned by to. Assets are packed
// in order, maxAssetPerBox per box.
func (s *Set) SafeMintBatch(ctx context.Context, caller, to common.Address, contracts []common.Address, tokenIds []*big.Int) ([]uint64, event.Log, error) {
	var ids []uint64

	log, err := s.runner.Execute(ctx, s.address, "safeMintBatch", func(tx *txn.Tx) error {
		assets, err := zipAssets(contracts, tokenIds)
		if err != nil {
			return err
		}
		if to == (common.Address{}) {
			return failure.New(failure.InvalidArgument, "mint to the zero address")
		}
		if s.maxAssetPerBox == 0 {
			return failure.New(failure.InvalidState, "set %s has no box capacity", s.address.Hex())
		}

		for _, asset := range assets {
			if err := s.checkLockable(tx, caller, asset); err != nil {
				return err
			}
		}

		s.mu.RLock()
		next := s.nextId
		s.mu.RUnlock()

		per := len(assets)
		if s.maxAssetPerBox < uint64(per) {
			per = int(s.maxAssetPerBox)
		}

		boxes := make([]*entity.Box, 0)
		for start := 0; start < len(assets); start += per {
			end := start + per
			if end > len(assets) {
				end = len(assets)
			}

			box := &entity.Box{
				Set:    s.address,
				Id:     next + uint64(len(boxes)) + 1,
				Owner:  to,
				Assets: assets[start:end],
			}
			boxes = append(boxes, box)
			ids = append(ids, box.Id)

			tx.Emit(event.Transfer, event.TransferArgs{From: common.Address{}, To: to, TokenId: box.Id})
			for _, asset := range box.Assets {
				owner, err := tx.Ledger().OwnerOf(tx.Context(), asset.Contract, asset.TokenId)
				if err != nil {
					return err
				}
				tx.Stage(ledger.NFTTransfer(s.address, asset.Contract, owner, s.address, asset.TokenId))
				tx.Emit(event.AddAssetNFT, event.BoxAssetArgs{BoxId: box.Id, Owner: to, Contract: asset.Contract, TokenId: asset.TokenId})
			}
		}

		tx.OnCommit(func() {
			s.write(func() {
				for _, box := range boxes {
					s.boxes[box.Id] = box
					for _, asset := range box.Assets {
						s.locked[asset.Key()] = box.Id
					}
				}
				s.nextId = next + uint64(len(boxes))
				s.detail.TotalMinted += uint64(len(boxes))
			})
		})

		zap.L().With(
			zap.String("set", s.address.Hex()),
			zap.Int("boxes", len(boxes)),
			zap.Int("assets", len(assets)),
		).Info("BlindBox: Boxes minted")

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return ids, log, nil
}

func (s *Set) checkLockable(tx *txn.Tx, caller common.Address, asset entity.Asset) error {
	s.mu.RLock()
	boxId, locked := s.locked[asset.Key()]
	s.mu.RUnlock()
	if locked {
		return failure.New(failure.InvalidState, "token %s of %s is locked in box %d", asset.TokenId, asset.Contract.Hex(), boxId)
	}

	owner, err := tx.Ledger().OwnerOf(tx.Context(), asset.Contract, asset.TokenId)
	if err != nil {
		return err
	}
	if owner != caller {
		approved, err := tx.Ledger().IsApprovedOrOwner(tx.Context(), asset.Contract, caller, asset.TokenId)
		if err != nil {
			return err
		}
		if !approved {
			return failure.New(failure.Unauthorized, "%s cannot lock token %s of %s", caller.Hex(), asset.TokenId, asset.Contract.Hex())
		}
	}

	approved, err := tx.Ledger().IsApprovedOrOwner(tx.Context(), asset.Contract, s.address, asset.TokenId)
	if err != nil {
		return err
	}
	if !approved {
		return failure.New(failure.Unauthorized, "set %s is not approved for token %s of %s", s.address.Hex(), asset.TokenId, asset.Contract.Hex())
	}

	return nil
}

// BurnBatch destroys boxes and hands their assets to the caller. The supplied assets
// must list the contents of each box in turn.
func (s *Set) BurnBatch(ctx context.Context, caller common.Address, boxIds []uint64, contracts []common.Address, tokenIds []*big.Int) (event.Log, error) {
	return s.runner.Execute(ctx, s.address, "burnBatch", func(tx *txn.Tx) error {
		if len(boxIds) == 0 {
			return failure.New(failure.InvalidArgument, "no box ids")
		}
		assets, err := zipAssets(contracts, tokenIds)
		if err != nil {
			return err
		}

		boxes, err := s.ownedLockedBoxes(caller, boxIds)
		if err != nil {
			return err
		}

		cursor := 0
		for _, box := range boxes {
			end := cursor + len(box.Assets)
			if end > len(assets) || !sameAssets(box.Assets, assets[cursor:end]) {
				return failure.New(failure.InvalidState, "assets do not match the contents of box %d", box.Id)
			}
			cursor = end

			for _, asset := range box.Assets {
				tx.Stage(ledger.NFTTransfer(s.address, asset.Contract, s.address, caller, asset.TokenId))
				tx.Emit(event.RemoveAssetNFT, event.BoxAssetArgs{BoxId: box.Id, Owner: caller, Contract: asset.Contract, TokenId: asset.TokenId})
			}
			tx.Emit(event.Transfer, event.TransferArgs{From: caller, To: common.Address{}, TokenId: box.Id})
		}
		if cursor != len(assets) {
			return failure.New(failure.InvalidArgument, "%d assets left after the last box", len(assets)-cursor)
		}

		tx.OnCommit(func() {
			s.write(func() {
				for _, box := range boxes {
					s.release(box.Id)
					b := s.boxes[box.Id]
					b.Burned = true
					b.Owner = common.Address{}
				}
				s.detail.TotalBurned += uint64(len(boxes))
			})
		})

		return nil
	})
}

// OpenBoxBatch unlocks boxes. The assets go back to the box owner and the box can
// never be opened or burned again.
func (s *Set) OpenBoxBatch(ctx context.Context, caller common.Address, boxIds []uint64) (event.Log, error) {
	return s.runner.Execute(ctx, s.address, "openBoxBatch", func(tx *txn.Tx) error {
		if len(boxIds) == 0 {
			return failure.New(failure.InvalidArgument, "no box ids")
		}

		boxes, err := s.ownedLockedBoxes(caller, boxIds)
		if err != nil {
			return err
		}

		for _, box := range boxes {
			for _, asset := range box.Assets {
				tx.Stage(ledger.NFTTransfer(s.address, asset.Contract, s.address, caller, asset.TokenId))
				tx.Emit(event.OpenBox, event.BoxAssetArgs{BoxId: box.Id, Owner: caller, Contract: asset.Contract, TokenId: asset.TokenId})
			}
		}

		tx.OnCommit(func() {
			s.write(func() {
				for _, box := range boxes {
					s.release(box.Id)
					s.boxes[box.Id].Opened = true
				}
				s.detail.TotalOpened += uint64(len(boxes))
			})
		})

		return nil
	})
}

// ownedLockedBoxes returns copies of the boxes, checking each is locked and owned by caller.
func (s *Set) ownedLockedBoxes(caller common.Address, boxIds []uint64) ([]entity.Box, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	boxes := make([]entity.Box, 0, len(boxIds))
	seen := make(map[uint64]bool, len(boxIds))
	for _, id := range boxIds {
		if seen[id] {
			return nil, failure.New(failure.InvalidArgument, "box %d given twice", id)
		}
		seen[id] = true

		box, ok := s.boxes[id]
		if !ok {
			return nil, failure.New(failure.NotFound, "box %d does not exist", id)
		}
		if !box.Locked() {
			return nil, failure.New(failure.InvalidState, "box %d is no longer locked", id)
		}
		if box.Owner != caller {
			return nil, failure.New(failure.Unauthorized, "%s does not own box %d", caller.Hex(), id)
		}
		boxes = append(boxes, box.Copy())
	}

	return boxes, nil
}

func (s *Set) SafeTransferFrom(ctx context.Context, caller, from, to common.Address, id uint64) (event.Log, error) {
	return s.SafeTransferFromBatch(ctx, caller, from, []common.Address{to}, []uint64{id}, nil)
}

// SafeTransferFromBatch moves boxes from one holder to many receivers. data is carried
// for receiver hooks and is not interpreted.
func (s *Set) SafeTransferFromBatch(ctx context.Context, caller, from common.Address, tos []common.Address, ids []uint64, data []byte) (event.Log, error) {
	return s.runner.Execute(ctx, s.address, "safeTransferFromBatch", func(tx *txn.Tx) error {
		if len(tos) == 0 || len(tos) != len(ids) {
			return failure.New(failure.InvalidArgument, "receivers and box ids must be non-empty and of equal length")
		}
		if caller != from && !s.IsApprovedForAll(from, caller) {
			return failure.New(failure.Unauthorized, "%s is not an operator of %s", caller.Hex(), from.Hex())
		}

		seen := make(map[uint64]bool, len(ids))
		for i, id := range ids {
			if seen[id] {
				return failure.New(failure.InvalidArgument, "box %d given twice", id)
			}
			seen[id] = true

			if tos[i] == (common.Address{}) {
				return failure.New(failure.InvalidArgument, "transfer to the zero address")
			}
			owner, err := s.OwnerOf(id)
			if err != nil {
				return err
			}
			if owner != from {
				return failure.New(failure.InvalidState, "box %d is not owned by %s", id, from.Hex())
			}

			id, to := id, tos[i]
			tx.OnCommit(func() { s.write(func() { s.boxes[id].Owner = to }) })
			tx.Emit(event.Transfer, event.TransferArgs{From: from, To: to, TokenId: id})
		}

		zap.L().With(zap.String("set", s.address.Hex()), zap.Int("boxes", len(ids)), zap.Int("data", len(data))).Debug("BlindBox: Boxes transferred")
		return nil
	})
}

func (s *Set) SetApprovalForAll(ctx context.Context, caller, operator common.Address, approved bool) (event.Log, error) {
	return s.runner.Execute(ctx, s.address, "setApprovalForAll", func(tx *txn.Tx) error {
		if caller == operator {
			return failure.New(failure.InvalidArgument, "approve to caller")
		}

		tx.OnCommit(func() {
			s.write(func() {
				if _, ok := s.operators[caller]; !ok {
					s.operators[caller] = make(map[common.Address]bool)
				}
				s.operators[caller][operator] = approved
			})
		})
		tx.Emit(event.ApprovalForAll, event.ApprovalForAllArgs{Owner: caller, Operator: operator, Approved: approved})

		return nil
	})
}

// release drops the custody records of a box. Callers hold the write lock.
func (s *Set) release(id uint64) {
	for _, asset := range s.boxes[id].Assets {
		delete(s.locked, asset.Key())
	}
}

func (s *Set) write(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn()
}

func zipAssets(contracts []common.Address, tokenIds []*big.Int) ([]entity.Asset, error) {
	if len(contracts) == 0 || len(contracts) != len(tokenIds) {
		return nil, failure.New(failure.InvalidArgument, "contracts and token ids must be non-empty and of equal length")
	}

	assets := make([]entity.Asset, 0, len(contracts))
	seen := make(map[string]bool, len(contracts))
	for i, contract := range contracts {
		if tokenIds[i] == nil {
			return nil, failure.New(failure.InvalidArgument, "missing token id at %d", i)
		}
		asset := entity.NewAsset(contract, tokenIds[i])
		if seen[asset.Key()] {
			return nil, failure.New(failure.InvalidArgument, "token %s of %s given twice", asset.TokenId, contract.Hex())
		}
		seen[asset.Key()] = true
		assets = append(assets, asset)
	}

	return assets, nil
}

func sameAssets(a, b []entity.Asset) bool {
	if len(a) != len(b) {
		return false
	}
	keys := make(map[string]bool, len(a))
	for _, asset := range a {
		keys[asset.Key()] = true
	}
	for _, asset := range b {
		if !keys[asset.Key()] {
			return false
		}
	}
	return true
}
