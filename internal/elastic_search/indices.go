package elastic_search

import (
	"fmt"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/config"
)

type Indices string

var (
	EventIndex   Indices = "event"
	ListingIndex Indices = "listing"
	OrderIndex   Indices = "order"
	BoxIndex     Indices = "box"
)

// Get prefixes the index with the network and index name
func (i Indices) Get() string {
	return fmt.Sprintf("%s.%s.%s", config.Get().Network, config.Get().Index, string(i))
}
