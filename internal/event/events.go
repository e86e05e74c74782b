package event

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
)

type Type string

const (
	SetDefaultFee   Type = "SetDefaultFee"
	SetCustomFee    Type = "SetCustomFee"
	RemoveCustomFee Type = "RemoveCustomFee"

	Ask              Type = "Ask"
	CancelSellNFT    Type = "CancelSellNFT"
	Trade            Type = "Trade"
	LogBuy           Type = "LogBuy"
	SuspendCollector Type = "SuspendCollector"
	SuspendNFT       Type = "SuspendNFT"
	ContractNFT      Type = "ContractNFT"
	FeeAddress       Type = "FeeAddress"
	SetExpiredTimes  Type = "SetExpiredTimes"
	Paused           Type = "Paused"
	Unpaused         Type = "Unpaused"

	Transfer           Type = "Transfer"
	ApprovalForAll     Type = "ApprovalForAll"
	AddAssetNFT        Type = "AddAssetNFT"
	RemoveAssetNFT     Type = "RemoveAssetNFT"
	OpenBox            Type = "OpenBox"
	BlindBoxSetCreated Type = "BlindBoxSetCreated"

	CancelMatch Type = "CancelMatch"
	OrderMatch  Type = "OrderMatch"
	RoyaltyFee  Type = "RoyaltyFee"
	AddToken    Type = "AddToken"
	RemoveToken Type = "RemoveToken"

	NftCreated   Type = "NftCreated"
	PriceUpdated Type = "PriceUpdated"

	RoleGranted Type = "RoleGranted"
	RoleRevoked Type = "RoleRevoked"
	Upgraded    Type = "Upgraded"

	// AnyEvent subscribes a listener to every type.
	AnyEvent Type = "*"
)

type Event struct {
	Id      string         `json:"id"`
	TxId    string         `json:"txId"`
	Type    Type           `json:"type"`
	Emitter common.Address `json:"emitter"`
	Time    time.Time      `json:"time"`
	Args    interface{}    `json:"args"`
}

func (e Event) Slug() string {
	return slug.Make("event-" + e.Id)
}

// Log is the ordered, append-only list of events produced by one operation.
type Log []Event

func (l Log) Count(t Type) int {
	count := 0
	for _, e := range l {
		if e.Type == t {
			count++
		}
	}
	return count
}

func (l Log) Filter(t Type) Log {
	filtered := make(Log, 0)
	for _, e := range l {
		if e.Type == t {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func (l Log) Types() []Type {
	types := make([]Type, len(l))
	for i, e := range l {
		types[i] = e.Type
	}
	return types
}
