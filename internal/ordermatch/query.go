package ordermatch

import (
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/signature"
	"github.com/ethereum/go-ethereum/common"
)

func (e *Engine) IsConsumed(uniqId string) bool {
	_, ok := e.Outcome(uniqId)
	return ok
}

// Outcome reports whether a uniqId was used, and whether by a match or a cancellation.
func (e *Engine) Outcome(uniqId string) (event.Type, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	outcome, ok := e.consumed[uniqId]
	return outcome, ok
}

func (e *Engine) CustomRoyaltyFee(contractNFT common.Address) entity.RoyaltyFee {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.royalties[contractNFT]
}

// IsSupportToken reports whether orders may be priced in token. The zero address is
// the native currency and is always supported.
func (e *Engine) IsSupportToken(token common.Address) bool {
	if token == (common.Address{}) {
		return true
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.tokens[token]
}

func (e *Engine) FeeAddress() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.feeAddress
}

func (e *Engine) Domain() signature.Domain {
	return e.signer.Domain()
}

func (e *Engine) HashOrder(order entity.SignedOrder) (common.Hash, error) {
	return e.signer.Hash(order)
}
