package entity

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
)

type Listing struct {
	Id        uint64         `json:"id"`
	Seller    common.Address `json:"seller"`
	Contract  common.Address `json:"contract"`
	TokenId   *big.Int       `json:"tokenId"`
	Price     *big.Int       `json:"price"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (l Listing) Slug() string {
	return CreateListingSlug(l.Id)
}

func CreateListingSlug(id uint64) string {
	return slug.Make(fmt.Sprintf("listing-%d", id))
}

func (l Listing) Asset() Asset {
	return NewAsset(l.Contract, l.TokenId)
}

// Copy detaches the big.Int fields so callers cannot mutate stored state.
func (l Listing) Copy() Listing {
	c := l
	if l.TokenId != nil {
		c.TokenId = new(big.Int).Set(l.TokenId)
	}
	if l.Price != nil {
		c.Price = new(big.Int).Set(l.Price)
	}
	return c
}

// Quote is the payment due for a listing at a point in time.
type Quote struct {
	ListingId      uint64    `json:"listingId"`
	Price          *big.Int  `json:"price"`
	TokenAmount    *big.Int  `json:"tokenAmount"`
	RoundId        uint64    `json:"roundId"`
	ExpiredSeconds uint64    `json:"expiredSeconds"`
	ExpiresAt      time.Time `json:"expiresAt"`
}
