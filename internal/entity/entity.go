package entity

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
)

// Entity is anything that can be stored in the search index.
type Entity interface {
	Slug() string
}

var ZeroAddress = common.Address{}

// Asset identifies a single NFT.
type Asset struct {
	Contract common.Address `json:"contract"`
	TokenId  *big.Int       `json:"tokenId"`
}

func NewAsset(contract common.Address, tokenId *big.Int) Asset {
	return Asset{Contract: contract, TokenId: new(big.Int).Set(tokenId)}
}

func (a Asset) Key() string {
	return AssetKey(a.Contract, a.TokenId)
}

func (a Asset) Slug() string {
	return slug.Make(fmt.Sprintf("asset-%s-%s", a.Contract.Hex(), a.TokenId.String()))
}

func (a Asset) Equal(b Asset) bool {
	return a.Contract == b.Contract && a.TokenId.Cmp(b.TokenId) == 0
}

func AssetKey(contract common.Address, tokenId *big.Int) string {
	return contract.Hex() + ":" + tokenId.String()
}
