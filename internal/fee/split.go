package fee

import (
	"math/big"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
)

const (
	Marketplace = "marketplace"
	Merchant    = "merchant"
	Collector   = "collector"
	Owner       = "owner"
	Royalty     = "royalty"
	Platform    = "platform"
)

type Share struct {
	Name     string
	Receiver common.Address
	Bps      uint64
}

type Cut struct {
	Name     string
	Receiver common.Address
	Amount   *big.Int
}

// Settlement is the distribution of a price between fee receivers and the seller.
type Settlement struct {
	Price  *big.Int
	Cuts   []Cut
	Seller *big.Int
}

// Split computes price*bps/10000 per share, truncated, and leaves the remainder to the seller.
func Split(price *big.Int, shares ...Share) (Settlement, error) {
	if price == nil || price.Sign() <= 0 {
		return Settlement{}, failure.New(failure.InvalidArgument, "price must be positive")
	}

	s := Settlement{Price: new(big.Int).Set(price), Cuts: make([]Cut, 0, len(shares))}
	total := new(big.Int)
	for _, share := range shares {
		if share.Bps > entity.MaxBps {
			return Settlement{}, failure.New(failure.InvalidFee, "%s share of %d bps exceeds %d", share.Name, share.Bps, entity.MaxBps)
		}
		amount := entity.Cut(price, share.Bps)
		total.Add(total, amount)
		s.Cuts = append(s.Cuts, Cut{Name: share.Name, Receiver: share.Receiver, Amount: amount})
	}

	if total.Cmp(price) > 0 {
		return Settlement{}, failure.New(failure.InvalidFee, "fees %s exceed price %s", total, price)
	}
	s.Seller = new(big.Int).Sub(price, total)

	return s, nil
}

// Amount returns the cut with the given name, or zero.
func (s Settlement) Amount(name string) *big.Int {
	amount := new(big.Int)
	for _, c := range s.Cuts {
		if c.Name == name {
			amount.Add(amount, c.Amount)
		}
	}
	return amount
}

func (s Settlement) Fees() *big.Int {
	return new(big.Int).Sub(s.Price, s.Seller)
}

// Transfers stages the payment legs from payer, skipping zero amounts.
func (s Settlement) Transfers(operator, token, payer, seller common.Address) []ledger.Op {
	ops := make([]ledger.Op, 0, len(s.Cuts)+1)
	if s.Seller.Sign() > 0 {
		ops = append(ops, ledger.TokenTransfer(operator, token, payer, seller, s.Seller))
	}
	for _, c := range s.Cuts {
		if c.Amount.Sign() > 0 {
			ops = append(ops, ledger.TokenTransfer(operator, token, payer, c.Receiver, c.Amount))
		}
	}
	return ops
}
