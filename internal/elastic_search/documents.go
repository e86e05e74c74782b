package elastic_search

import (
	"fmt"
	"time"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gosimple/slug"
)

// OrderDocument records how a signed order's uniqId was consumed.
type OrderDocument struct {
	UniqId  string         `json:"uniqId"`
	Outcome event.Type     `json:"outcome"`
	Seller  common.Address `json:"seller"`
	Event   event.Event    `json:"event"`
}

func (d OrderDocument) Slug() string {
	return slug.Make("order-" + d.UniqId)
}

// BoxDocument tracks the current holder of a blind box.
type BoxDocument struct {
	Set       common.Address `json:"set"`
	BoxId     uint64         `json:"boxId"`
	Owner     common.Address `json:"owner"`
	Burned    bool           `json:"burned"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (d BoxDocument) Slug() string {
	return slug.Make(fmt.Sprintf("box-%s-%d", d.Set.Hex(), d.BoxId))
}
