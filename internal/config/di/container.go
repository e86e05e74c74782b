package di

import (
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/blindbox"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/elastic_search"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/fee"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/marketplace"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/messenger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/nftfactory"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ordermatch"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/pricefeed"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/repository"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/sarulabs/di/v2"
)

// Container exposes the definitions through typed getters.
type Container struct {
	ctn di.Container
}

func NewContainer() (*Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}
	if err := builder.Add(Definitions...); err != nil {
		return nil, err
	}

	return &Container{ctn: builder.Build()}, nil
}

func (c *Container) Delete() error {
	return c.ctn.Delete()
}

func (c *Container) GetEvents() event.Manager {
	return c.ctn.Get("events").(event.Manager)
}

func (c *Container) GetLedger() ledger.Ledger {
	return c.ctn.Get("ledger").(ledger.Ledger)
}

func (c *Container) GetRunner() *txn.Runner {
	return c.ctn.Get("runner").(*txn.Runner)
}

func (c *Container) GetFeeResolver() *fee.Resolver {
	return c.ctn.Get("fee.resolver").(*fee.Resolver)
}

func (c *Container) GetPriceFeed() *pricefeed.Feed {
	return c.ctn.Get("price.feed").(*pricefeed.Feed)
}

func (c *Container) GetMarketplace() *marketplace.Marketplace {
	return c.ctn.Get("marketplace").(*marketplace.Marketplace)
}

func (c *Container) GetOrderMatch() *ordermatch.Engine {
	return c.ctn.Get("order.match").(*ordermatch.Engine)
}

func (c *Container) GetBlindBoxFactory() *blindbox.Factory {
	return c.ctn.Get("blindbox.factory").(*blindbox.Factory)
}

func (c *Container) GetNftFactory() *nftfactory.Factory {
	return c.ctn.Get("nft.factory").(*nftfactory.Factory)
}

func (c *Container) GetElastic() elastic_search.Index {
	return c.ctn.Get("elastic").(elastic_search.Index)
}

func (c *Container) GetEventIndexer() *elastic_search.EventIndexer {
	return c.ctn.Get("event.indexer").(*elastic_search.EventIndexer)
}

func (c *Container) GetListingRepo() repository.ListingRepository {
	return c.ctn.Get("listing.repo").(repository.ListingRepository)
}

func (c *Container) GetEventRepo() repository.EventRepository {
	return c.ctn.Get("event.repo").(repository.EventRepository)
}

// GetMessenger returns nil when no messenger driver is configured.
func (c *Container) GetMessenger() messenger.MessageService {
	service, _ := c.ctn.Get("messenger").(messenger.MessageService)
	return service
}
