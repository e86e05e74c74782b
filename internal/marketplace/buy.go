package marketplace

import (
	"context"
	"math/big"
	"time"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/access"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/fee"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BuyNFT settles a listing: the buyer pays the quoted amount, fees are split off
// and the token moves from the seller to the buyer.
func (m *Marketplace) BuyNFT(ctx context.Context, caller common.Address, id uint64) (event.Log, error) {
	return m.runner.Execute(ctx, m.Address(), "buyNFT", func(tx *txn.Tx) error {
		if m.Paused() {
			return failure.New(failure.InvalidState, "marketplace is paused")
		}

		listing, err := m.GetAsk(id)
		if err != nil {
			return err
		}
		if !listing.Active {
			return failure.New(failure.InvalidState, "listing %d is not active", id)
		}
		if m.IsSuspendNFT(id) {
			return failure.New(failure.InvalidState, "listing %d is suspended", id)
		}
		if m.IsSuspendCollector(caller) {
			return failure.New(failure.Unauthorized, "collector %s is suspended", caller.Hex())
		}
		if listing.Seller == caller {
			return failure.New(failure.InvalidState, "seller cannot buy listing %d", id)
		}

		if err := m.checkDeliverable(tx, listing); err != nil {
			return err
		}

		amount, _, err := m.convert(listing.Price)
		if err != nil {
			return err
		}

		asset := listing.Asset()
		settlement, err := fee.Split(amount, m.shares(listing, asset)...)
		if err != nil {
			return err
		}

		operator, err := m.checkPayment(tx, caller, amount)
		if err != nil {
			return err
		}

		tx.Stage(settlement.Transfers(operator, m.PaymentToken(), caller, listing.Seller)...)
		tx.Stage(ledger.NFTTransfer(m.Address(), listing.Contract, listing.Seller, caller, listing.TokenId))

		seller := listing.Seller
		tx.OnCommit(func() {
			m.write(func() {
				m.deactivate(id)
				if _, ok := m.creators[asset.Key()]; !ok {
					m.creators[asset.Key()] = seller
				}
			})
		})

		tx.Emit(event.Trade, event.TradeArgs{
			ListingId:   id,
			Seller:      seller,
			Buyer:       caller,
			Contract:    listing.Contract,
			TokenId:     listing.TokenId,
			Price:       listing.Price,
			Amount:      amount,
			Marketplace: settlement.Amount(fee.Marketplace),
			Merchant:    settlement.Amount(fee.Merchant),
			Collector:   settlement.Amount(fee.Collector),
			Owner:       settlement.Amount(fee.Owner),
			SellerTake:  settlement.Seller,
		})
		tx.Emit(event.LogBuy, event.LogBuyArgs{ListingId: id, Buyer: caller, Amount: amount})

		zap.L().With(
			zap.Uint64("listing", id),
			zap.String("buyer", caller.Hex()),
			zap.String("amount", amount.String()),
		).Info("Marketplace: Listing bought")

		return nil
	})
}

// shares picks the fee components that apply to a sale. The merchant cut replaces the
// collector cut for merchant sellers; the owner cut goes to the recorded creator on resale.
func (m *Marketplace) shares(listing entity.Listing, asset entity.Asset) []fee.Share {
	fees := m.fees.GetFeeFor(listing.Contract)
	feeAddress := m.FeeAddress()

	shares := []fee.Share{{Name: fee.Marketplace, Receiver: feeAddress, Bps: fees.Marketplace}}
	if m.HasRole(access.MerchantRole, listing.Seller) {
		shares = append(shares, fee.Share{Name: fee.Merchant, Receiver: feeAddress, Bps: fees.Merchant})
	} else {
		shares = append(shares, fee.Share{Name: fee.Collector, Receiver: feeAddress, Bps: fees.Collector})
	}

	if creator, ok := m.Creator(asset); ok && creator != listing.Seller {
		shares = append(shares, fee.Share{Name: fee.Owner, Receiver: creator, Bps: fees.Owner})
	}

	return shares
}

func (m *Marketplace) checkDeliverable(tx *txn.Tx, listing entity.Listing) error {
	owner, err := tx.Ledger().OwnerOf(tx.Context(), listing.Contract, listing.TokenId)
	if err != nil {
		return err
	}
	if owner != listing.Seller {
		return failure.New(failure.InvalidState, "seller no longer owns token %s of listing %d", listing.TokenId, listing.Id)
	}

	approved, err := tx.Ledger().IsApprovedOrOwner(tx.Context(), listing.Contract, m.Address(), listing.TokenId)
	if err != nil {
		return err
	}
	if !approved {
		return failure.New(failure.InvalidState, "marketplace approval for listing %d was withdrawn", listing.Id)
	}

	return nil
}

// checkPayment verifies the buyer can cover amount and returns the operator of the payment legs.
func (m *Marketplace) checkPayment(tx *txn.Tx, buyer common.Address, amount *big.Int) (common.Address, error) {
	token := m.PaymentToken()

	balance, err := tx.Ledger().BalanceOf(tx.Context(), token, buyer)
	if err != nil {
		return common.Address{}, err
	}
	if balance.Cmp(amount) < 0 {
		return common.Address{}, failure.Coded(failure.InsufficientFunds, failure.CodeLowBalance, "balance %s below %s", balance, amount)
	}

	if token == (common.Address{}) {
		return buyer, nil
	}

	allowance, err := tx.Ledger().Allowance(tx.Context(), token, buyer, m.Address())
	if err != nil {
		return common.Address{}, err
	}
	if allowance.Cmp(amount) < 0 {
		return common.Address{}, failure.Coded(failure.InsufficientFunds, failure.CodeLowAllowance, "allowance %s below %s", allowance, amount)
	}

	return m.Address(), nil
}

// GetThePrice quotes a listing in the payment token together with the quote expiry.
func (m *Marketplace) GetThePrice(id uint64) (entity.Quote, error) {
	listing, err := m.GetAsk(id)
	if err != nil {
		return entity.Quote{}, err
	}

	amount, roundId, err := m.convert(listing.Price)
	if err != nil {
		return entity.Quote{}, err
	}

	seconds := m.ExpiredTimes() * 60
	return entity.Quote{
		ListingId:      id,
		Price:          listing.Price,
		TokenAmount:    amount,
		RoundId:        roundId,
		ExpiredSeconds: seconds,
		ExpiresAt:      m.runner.Now().Add(time.Duration(seconds) * time.Second),
	}, nil
}

// convert turns a listing price into payment token units:
// price * 10^tokenDecimals / (answer / 10^feedDecimals), truncated.
func (m *Marketplace) convert(price *big.Int) (*big.Int, uint64, error) {
	if m.feed == nil {
		return new(big.Int).Set(price), 0, nil
	}

	round, err := m.feed.LatestRoundData()
	if err != nil {
		return nil, 0, err
	}

	rate := decimal.NewFromBigInt(round.Answer, -int32(m.feed.Decimals()))
	if rate.Sign() <= 0 {
		return nil, 0, failure.New(failure.InvalidState, "price feed round %d has no usable answer", round.RoundId)
	}

	amount := decimal.NewFromBigInt(price, int32(m.tokenDecimals)).Div(rate).Truncate(0)
	if amount.Sign() <= 0 {
		return nil, 0, failure.New(failure.InvalidState, "price %s converts to zero tokens", price)
	}

	return amount.BigInt(), round.RoundId, nil
}
