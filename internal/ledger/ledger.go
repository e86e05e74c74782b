package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger is the chain-side collaborator: asset ownership, fungible balances and
// approvals. A zero token address denotes the native currency.
type Ledger interface {
	OwnerOf(ctx context.Context, contract common.Address, tokenId *big.Int) (common.Address, error)
	IsApprovedOrOwner(ctx context.Context, contract, spender common.Address, tokenId *big.Int) (bool, error)
	BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	ContractOwner(ctx context.Context, contract common.Address) (common.Address, error)

	// Apply executes every op or none of them.
	Apply(ctx context.Context, ops []Op) error
}

type OpKind string

const (
	TransferNFT      OpKind = "TransferNFT"
	TransferToken    OpKind = "TransferToken"
	CreateCollection OpKind = "CreateCollection"
	Mint             OpKind = "Mint"
	Burn             OpKind = "Burn"
)

type Op struct {
	Kind     OpKind         `json:"kind"`
	Operator common.Address `json:"operator"`
	Contract common.Address `json:"contract"`
	From     common.Address `json:"from"`
	To       common.Address `json:"to"`
	TokenId  *big.Int       `json:"tokenId,omitempty"`
	Amount   *big.Int       `json:"amount,omitempty"`
	Name     string         `json:"name,omitempty"`
	Symbol   string         `json:"symbol,omitempty"`
}

func NFTTransfer(operator, contract, from, to common.Address, tokenId *big.Int) Op {
	return Op{Kind: TransferNFT, Operator: operator, Contract: contract, From: from, To: to, TokenId: tokenId}
}

func TokenTransfer(operator, token, from, to common.Address, amount *big.Int) Op {
	return Op{Kind: TransferToken, Operator: operator, Contract: token, From: from, To: to, Amount: amount}
}

func NewCollection(contract, owner common.Address, name, symbol string) Op {
	return Op{Kind: CreateCollection, Operator: owner, Contract: contract, To: owner, Name: name, Symbol: symbol}
}

func MintNFT(operator, contract, to common.Address, tokenId *big.Int) Op {
	return Op{Kind: Mint, Operator: operator, Contract: contract, To: to, TokenId: tokenId}
}

func BurnNFT(operator, contract, from common.Address, tokenId *big.Int) Op {
	return Op{Kind: Burn, Operator: operator, Contract: contract, From: from, TokenId: tokenId}
}
