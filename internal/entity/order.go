package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gosimple/slug"
)

// SignedOrder is a seller's off-chain sell order. Buyer is supplied at execution
// and is not part of the signed payload.
type SignedOrder struct {
	UniqId        string         `json:"uniqId" validate:"required"`
	Nonce         *big.Int       `json:"nonce" validate:"required"`
	Seller        common.Address `json:"seller"`
	ContractNFT   common.Address `json:"contractNFT"`
	TokenId       *big.Int       `json:"tokenId" validate:"required"`
	ContractToken common.Address `json:"contractToken"`
	Price         *big.Int       `json:"price" validate:"required"`
	Start         *big.Int       `json:"start" validate:"required"`
	End           *big.Int       `json:"end" validate:"required"`
	Buyer         common.Address `json:"buyer"`
}

func (o SignedOrder) Slug() string {
	return slug.Make("order-" + o.UniqId)
}

func (o SignedOrder) Asset() Asset {
	return NewAsset(o.ContractNFT, o.TokenId)
}

func (o SignedOrder) IsNative() bool {
	return o.ContractToken == ZeroAddress
}

type Signature struct {
	V uint8       `json:"v"`
	R common.Hash `json:"r"`
	S common.Hash `json:"s"`
}

// Bytes returns the 65 byte [R || S || V] form with V normalised to 0/1.
func (s Signature) Bytes() []byte {
	sig := make([]byte, 65)
	copy(sig[:32], s.R.Bytes())
	copy(sig[32:64], s.S.Bytes())
	v := s.V
	if v >= 27 {
		v -= 27
	}
	sig[64] = v
	return sig
}

func (s Signature) Hex() string {
	sig := s.Bytes()
	sig[64] += 27
	return hexutil.Encode(sig)
}

// SignatureFromBytes accepts a 65 byte signature with V as 0/1 or 27/28.
func SignatureFromBytes(b []byte) (Signature, bool) {
	if len(b) != 65 {
		return Signature{}, false
	}
	v := b[64]
	if v < 27 {
		v += 27
	}
	return Signature{V: v, R: common.BytesToHash(b[:32]), S: common.BytesToHash(b[32:64])}, true
}

type RoyaltyFee struct {
	Receiver common.Address `json:"receiver"`
	Bps      uint64         `json:"bps"`
}
