package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
)

type Box struct {
	Set    common.Address `json:"set"`
	Id     uint64         `json:"id"`
	Owner  common.Address `json:"owner"`
	Assets []Asset        `json:"assets"`
	Opened bool           `json:"opened"`
	Burned bool           `json:"burned"`
}

func (b Box) Slug() string {
	return slug.Make(fmt.Sprintf("box-%s-%d", b.Set.Hex(), b.Id))
}

// Locked reports whether the box still holds its assets in custody.
func (b Box) Locked() bool {
	return !b.Opened && !b.Burned
}

func (b Box) Copy() Box {
	c := b
	c.Assets = make([]Asset, len(b.Assets))
	for i, a := range b.Assets {
		c.Assets[i] = NewAsset(a.Contract, a.TokenId)
	}
	return c
}

type BlindBoxDetail struct {
	MaxAssetPerBox uint64 `json:"maxAssetPerBox"`
	TotalMinted    uint64 `json:"totalMinted"`
	TotalBurned    uint64 `json:"totalBurned"`
	TotalOpened    uint64 `json:"totalOpened"`
}
