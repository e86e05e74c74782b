package marketplace

import (
	"context"
	"math/big"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
)

// SellNFT lists a token the caller owns. Custody stays with the seller; ownership is
// checked again when the listing is bought.
func (m *Marketplace) SellNFT(ctx context.Context, caller, contract common.Address, tokenId, price *big.Int) (uint64, event.Log, error) {
	ids, log, err := m.SellNFTBatch(ctx, caller, contract, []*big.Int{tokenId}, price)
	if err != nil {
		return 0, nil, err
	}
	return ids[0], log, nil
}

func (m *Marketplace) SellNFTBatch(ctx context.Context, caller, contract common.Address, tokenIds []*big.Int, price *big.Int) ([]uint64, event.Log, error) {
	var ids []uint64

	log, err := m.runner.Execute(ctx, m.Address(), "sellNFT", func(tx *txn.Tx) error {
		if m.Paused() {
			return failure.New(failure.InvalidState, "marketplace is paused")
		}
		if len(tokenIds) == 0 {
			return failure.New(failure.InvalidArgument, "no token ids")
		}
		if !m.IsContractNFT(contract) {
			return failure.New(failure.InvalidState, "NFT contract %s is not registered", contract.Hex())
		}
		if price == nil || price.Sign() <= 0 {
			return failure.New(failure.InvalidArgument, "price must be greater than zero")
		}

		m.mu.RLock()
		next := m.nextId
		m.mu.RUnlock()

		ids = make([]uint64, 0, len(tokenIds))
		seen := make(map[string]bool, len(tokenIds))
		for i, tokenId := range tokenIds {
			if tokenId == nil {
				return failure.New(failure.InvalidArgument, "missing token id at %d", i)
			}
			asset := entity.NewAsset(contract, tokenId)
			if seen[asset.Key()] {
				return failure.New(failure.InvalidArgument, "token %s listed twice", tokenId)
			}
			seen[asset.Key()] = true

			if err := m.checkSellable(tx, caller, asset); err != nil {
				return err
			}
			if err := m.closeStaleListing(tx, caller, asset); err != nil {
				return err
			}

			listing := &entity.Listing{
				Id:        next + uint64(i) + 1,
				Seller:    caller,
				Contract:  contract,
				TokenId:   asset.TokenId,
				Price:     new(big.Int).Set(price),
				Active:    true,
				CreatedAt: tx.Now(),
			}
			ids = append(ids, listing.Id)

			tx.OnCommit(func() {
				m.write(func() {
					m.listings[listing.Id] = listing
					m.active[asset.Key()] = listing.Id
				})
			})
			tx.Emit(event.Ask, event.AskArgs{
				ListingId: listing.Id,
				Seller:    caller,
				Contract:  contract,
				TokenId:   asset.TokenId,
				Price:     listing.Price,
			})
		}

		total := next + uint64(len(tokenIds))
		tx.OnCommit(func() { m.write(func() { m.nextId = total }) })

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return ids, log, nil
}

func (m *Marketplace) checkSellable(tx *txn.Tx, caller common.Address, asset entity.Asset) error {
	owner, err := tx.Ledger().OwnerOf(tx.Context(), asset.Contract, asset.TokenId)
	if err != nil {
		return err
	}
	if owner != caller {
		return failure.New(failure.Unauthorized, "%s does not own token %s", caller.Hex(), asset.TokenId)
	}

	approved, err := tx.Ledger().IsApprovedOrOwner(tx.Context(), asset.Contract, m.Address(), asset.TokenId)
	if err != nil {
		return err
	}
	if !approved {
		return failure.New(failure.Unauthorized, "marketplace is not approved for token %s", asset.TokenId)
	}

	return nil
}

// closeStaleListing cancels an active listing left behind by a previous owner.
func (m *Marketplace) closeStaleListing(tx *txn.Tx, caller common.Address, asset entity.Asset) error {
	m.mu.RLock()
	id, ok := m.active[asset.Key()]
	var previous entity.Listing
	if ok {
		previous = m.listings[id].Copy()
	}
	m.mu.RUnlock()

	if !ok {
		return nil
	}
	if previous.Seller == caller {
		return failure.New(failure.InvalidState, "token %s is already listed as %d", asset.TokenId, id)
	}

	tx.OnCommit(func() { m.write(func() { m.deactivate(id) }) })
	tx.Emit(event.CancelSellNFT, event.CancelSellArgs{
		ListingId: id,
		Seller:    previous.Seller,
		Contract:  previous.Contract,
		TokenId:   previous.TokenId,
	})

	return nil
}

func (m *Marketplace) SetCurrentPrice(ctx context.Context, caller common.Address, id uint64, price *big.Int) (event.Log, error) {
	return m.SetCurrentPriceBatch(ctx, caller, []uint64{id}, price)
}

func (m *Marketplace) SetCurrentPriceBatch(ctx context.Context, caller common.Address, ids []uint64, price *big.Int) (event.Log, error) {
	return m.runner.Execute(ctx, m.Address(), "setCurrentPrice", func(tx *txn.Tx) error {
		if len(ids) == 0 {
			return failure.New(failure.InvalidArgument, "no listing ids")
		}
		if price == nil || price.Sign() <= 0 {
			return failure.New(failure.InvalidArgument, "price must be greater than zero")
		}

		for _, id := range ids {
			listing, err := m.sellerListing(caller, id)
			if err != nil {
				return err
			}

			id := id
			newPrice := new(big.Int).Set(price)
			tx.OnCommit(func() { m.write(func() { m.listings[id].Price = newPrice }) })
			tx.Emit(event.Ask, event.AskArgs{
				ListingId: id,
				Seller:    caller,
				Contract:  listing.Contract,
				TokenId:   listing.TokenId,
				Price:     newPrice,
			})
		}

		return nil
	})
}

func (m *Marketplace) CancelSellNFT(ctx context.Context, caller common.Address, id uint64) (event.Log, error) {
	return m.CancelSellNFTBatch(ctx, caller, []uint64{id})
}

func (m *Marketplace) CancelSellNFTBatch(ctx context.Context, caller common.Address, ids []uint64) (event.Log, error) {
	return m.runner.Execute(ctx, m.Address(), "cancelSellNFT", func(tx *txn.Tx) error {
		if len(ids) == 0 {
			return failure.New(failure.InvalidArgument, "no listing ids")
		}

		seen := make(map[uint64]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				return failure.New(failure.InvalidArgument, "listing %d cancelled twice", id)
			}
			seen[id] = true

			listing, err := m.sellerListing(caller, id)
			if err != nil {
				return err
			}

			id := id
			tx.OnCommit(func() { m.write(func() { m.deactivate(id) }) })
			tx.Emit(event.CancelSellNFT, event.CancelSellArgs{
				ListingId: id,
				Seller:    caller,
				Contract:  listing.Contract,
				TokenId:   listing.TokenId,
			})
		}

		return nil
	})
}

// sellerListing returns an active listing owned by caller.
func (m *Marketplace) sellerListing(caller common.Address, id uint64) (entity.Listing, error) {
	listing, err := m.GetAsk(id)
	if err != nil {
		return entity.Listing{}, err
	}
	if !listing.Active {
		return entity.Listing{}, failure.New(failure.InvalidState, "listing %d is not active", id)
	}
	if listing.Seller != caller {
		return entity.Listing{}, failure.New(failure.Unauthorized, "%s is not the seller of listing %d", caller.Hex(), id)
	}
	return listing, nil
}

// deactivate closes a listing. Callers hold the write lock.
func (m *Marketplace) deactivate(id uint64) {
	listing := m.listings[id]
	if m.active[listing.Asset().Key()] == id {
		delete(m.active, listing.Asset().Key())
	}
	listing.Active = false
	listing.Seller = common.Address{}
}
