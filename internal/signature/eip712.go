package signature

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

const (
	DomainName    = "TokoMarketplace"
	DomainVersion = "0"
	PrimaryType   = "set"
)

type Domain struct {
	Name              string         `json:"name"`
	Version           string         `json:"version"`
	ChainId           *big.Int       `json:"chainId"`
	VerifyingContract common.Address `json:"verifyingContract"`
}

func NewDomain(chainId int64, verifyingContract common.Address) Domain {
	return Domain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainId:           big.NewInt(chainId),
		VerifyingContract: verifyingContract,
	}
}

var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	PrimaryType: {
		{Name: "uniqId", Type: "string"},
		{Name: "nonce", Type: "uint256"},
		{Name: "seller", Type: "address"},
		{Name: "contractNFT", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "contractToken", Type: "address"},
		{Name: "price", Type: "uint256"},
		{Name: "start", Type: "uint256"},
		{Name: "end", Type: "uint256"},
	},
}

// Verifier recovers the signer of an order.
type Verifier interface {
	Recover(order entity.SignedOrder, sig entity.Signature) (common.Address, error)
}

// EIP712 hashes, signs and verifies orders under a fixed domain.
type EIP712 struct {
	domain Domain
}

func NewEIP712(domain Domain) *EIP712 {
	return &EIP712{domain: domain}
}

func (e *EIP712) Domain() Domain {
	return e.domain
}

func (e *EIP712) TypedData(order entity.SignedOrder) (apitypes.TypedData, error) {
	if err := complete(order); err != nil {
		return apitypes.TypedData{}, err
	}

	return apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: PrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              e.domain.Name,
			Version:           e.domain.Version,
			ChainId:           (*math.HexOrDecimal256)(e.domain.ChainId),
			VerifyingContract: e.domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"uniqId":        order.UniqId,
			"nonce":         order.Nonce,
			"seller":        order.Seller.Hex(),
			"contractNFT":   order.ContractNFT.Hex(),
			"tokenId":       order.TokenId,
			"contractToken": order.ContractToken.Hex(),
			"price":         order.Price,
			"start":         order.Start,
			"end":           order.End,
		},
	}, nil
}

// Hash returns keccak256("\x19\x01" || domainSeparator || hashStruct(order)).
func (e *EIP712) Hash(order entity.SignedOrder) (common.Hash, error) {
	typedData, err := e.TypedData(order)
	if err != nil {
		return common.Hash{}, err
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "hash domain")
	}

	typedDataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "hash order")
	}

	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	return crypto.Keccak256Hash(rawData), nil
}

func (e *EIP712) Recover(order entity.SignedOrder, sig entity.Signature) (common.Address, error) {
	hash, err := e.Hash(order)
	if err != nil {
		return common.Address{}, err
	}

	pub, err := crypto.SigToPub(hash.Bytes(), sig.Bytes())
	if err != nil {
		return common.Address{}, failure.Coded(failure.Unauthorized, failure.CodeBadSignature, "recover signer: %v", err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

func (e *EIP712) Sign(order entity.SignedOrder, key *ecdsa.PrivateKey) (entity.Signature, error) {
	hash, err := e.Hash(order)
	if err != nil {
		return entity.Signature{}, err
	}

	raw, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return entity.Signature{}, errors.Wrap(err, "sign order")
	}

	sig, _ := entity.SignatureFromBytes(raw)
	return sig, nil
}

func complete(order entity.SignedOrder) error {
	for name, v := range map[string]*big.Int{
		"nonce":   order.Nonce,
		"tokenId": order.TokenId,
		"price":   order.Price,
		"start":   order.Start,
		"end":     order.End,
	} {
		if v == nil {
			return failure.New(failure.InvalidArgument, "order %q is missing %s", order.UniqId, name)
		}
		if v.Sign() < 0 {
			return failure.New(failure.InvalidArgument, "order %q has negative %s", order.UniqId, name)
		}
	}
	return nil
}
