package entity

import (
	"fmt"
	"math/big"
)

// MaxBps is 100% expressed in basis points.
const MaxBps uint64 = 10000

type FeeConfig struct {
	Marketplace uint64 `json:"marketplace"`
	Owner       uint64 `json:"owner"`
	Merchant    uint64 `json:"merchant"`
	Collector   uint64 `json:"collector"`
}

// Overflow returns the name of the first component above MaxBps, or an empty string.
func (f FeeConfig) Overflow() string {
	switch {
	case f.Marketplace > MaxBps:
		return "marketplace"
	case f.Owner > MaxBps:
		return "owner"
	case f.Merchant > MaxBps:
		return "merchant"
	case f.Collector > MaxBps:
		return "collector"
	}
	return ""
}

func (f FeeConfig) String() string {
	return fmt.Sprintf("marketplace=%d owner=%d merchant=%d collector=%d", f.Marketplace, f.Owner, f.Merchant, f.Collector)
}

// Cut returns amount*bps/10000 truncated toward zero.
func Cut(amount *big.Int, bps uint64) *big.Int {
	cut := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return cut.Quo(cut, new(big.Int).SetUint64(MaxBps))
}
