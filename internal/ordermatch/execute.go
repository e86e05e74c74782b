package ordermatch

import (
	"context"
	"math/big"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/fee"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ExecuteOrderMatch buys the NFT of a signed order for caller. value is the native
// amount attached to the call and only matters for native priced orders.
func (e *Engine) ExecuteOrderMatch(ctx context.Context, caller common.Address, value *big.Int, sig entity.Signature, order entity.SignedOrder) (event.Log, error) {
	return e.runner.Execute(ctx, e.Address(), "executeOrderMatch", func(tx *txn.Tx) error {
		if order.UniqId == "" {
			return failure.New(failure.InvalidArgument, "order has no uniqId")
		}
		if e.IsConsumed(order.UniqId) {
			return failure.Coded(failure.ExpiredOrReplayed, failure.CodeOrderConsumed, "order %q was already used", order.UniqId)
		}

		signer, err := e.signer.Recover(order, sig)
		if err != nil {
			return err
		}
		if signer != order.Seller {
			return failure.Coded(failure.Unauthorized, failure.CodeBadSignature, "order %q is not signed by its seller", order.UniqId)
		}

		now := big.NewInt(tx.Now().Unix())
		if now.Cmp(order.Start) < 0 || now.Cmp(order.End) > 0 {
			return failure.Coded(failure.ExpiredOrReplayed, failure.CodeOrderWindow, "order %q is valid from %s to %s", order.UniqId, order.Start, order.End)
		}
		if order.Price.Sign() <= 0 {
			return failure.New(failure.InvalidArgument, "order %q has no price", order.UniqId)
		}
		if !e.IsSupportToken(order.ContractToken) {
			return failure.Coded(failure.InvalidState, failure.CodeUnsupportedToken, "token %s is not supported", order.ContractToken.Hex())
		}

		if err := e.checkDeliverable(tx, order); err != nil {
			return err
		}
		if caller == order.Seller {
			return failure.New(failure.InvalidState, "seller cannot buy order %q", order.UniqId)
		}

		operator, err := e.checkPayment(tx, caller, value, order)
		if err != nil {
			return err
		}

		royalty := e.CustomRoyaltyFee(order.ContractNFT)
		settlement, err := fee.Split(order.Price,
			fee.Share{Name: fee.Royalty, Receiver: royalty.Receiver, Bps: royalty.Bps},
			fee.Share{Name: fee.Platform, Receiver: e.FeeAddress(), Bps: e.fees.GetFeeFor(order.ContractNFT).Marketplace},
		)
		if err != nil {
			return err
		}

		tx.Stage(settlement.Transfers(operator, order.ContractToken, caller, order.Seller)...)
		tx.Stage(ledger.NFTTransfer(e.Address(), order.ContractNFT, order.Seller, caller, order.TokenId))

		uniqId := order.UniqId
		tx.OnCommit(func() { e.write(func() { e.consumed[uniqId] = event.OrderMatch }) })
		tx.Emit(event.OrderMatch, event.OrderMatchArgs{
			UniqId:        uniqId,
			Seller:        order.Seller,
			Buyer:         caller,
			ContractNFT:   order.ContractNFT,
			TokenId:       order.TokenId,
			ContractToken: order.ContractToken,
			Price:         order.Price,
			Royalty:       settlement.Amount(fee.Royalty),
			PlatformFee:   settlement.Amount(fee.Platform),
			SellerTake:    settlement.Seller,
		})

		zap.L().With(
			zap.String("uniqId", uniqId),
			zap.String("buyer", caller.Hex()),
			zap.String("price", order.Price.String()),
		).Info("OrderMatch: Order executed")

		return nil
	})
}

func (e *Engine) checkDeliverable(tx *txn.Tx, order entity.SignedOrder) error {
	owner, err := tx.Ledger().OwnerOf(tx.Context(), order.ContractNFT, order.TokenId)
	if err != nil {
		return err
	}
	if owner != order.Seller {
		return failure.Coded(failure.InvalidState, failure.CodeNotAssetOwner, "seller no longer owns token %s", order.TokenId)
	}

	approved, err := tx.Ledger().IsApprovedOrOwner(tx.Context(), order.ContractNFT, e.Address(), order.TokenId)
	if err != nil {
		return err
	}
	if !approved {
		return failure.Coded(failure.InvalidState, failure.CodeNotApproved, "engine is not approved for token %s", order.TokenId)
	}

	return nil
}

// checkPayment verifies the buyer can pay and returns the operator of the payment legs.
func (e *Engine) checkPayment(tx *txn.Tx, buyer common.Address, value *big.Int, order entity.SignedOrder) (common.Address, error) {
	if order.IsNative() {
		if value == nil || value.Cmp(order.Price) < 0 {
			return common.Address{}, failure.Coded(failure.InsufficientFunds, failure.CodeLowNativePayment, "value below price %s", order.Price)
		}
	}

	balance, err := tx.Ledger().BalanceOf(tx.Context(), order.ContractToken, buyer)
	if err != nil {
		return common.Address{}, err
	}
	if balance.Cmp(order.Price) < 0 {
		return common.Address{}, failure.Coded(failure.InsufficientFunds, failure.CodeLowBalance, "balance %s below %s", balance, order.Price)
	}

	if order.IsNative() {
		return buyer, nil
	}

	allowance, err := tx.Ledger().Allowance(tx.Context(), order.ContractToken, buyer, e.Address())
	if err != nil {
		return common.Address{}, err
	}
	if allowance.Cmp(order.Price) < 0 {
		return common.Address{}, failure.Coded(failure.InsufficientFunds, failure.CodeLowAllowance, "allowance %s below %s", allowance, order.Price)
	}

	return e.Address(), nil
}
