package di

import (
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/blindbox"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/config"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/elastic_search"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/fee"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ledger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/marketplace"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/messenger"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/nftfactory"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/ordermatch"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/pricefeed"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/repository"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/signature"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/txn"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

const eventBacklog = 1024

var Definitions = []di.Def{
	{
		Name: "events",
		Build: func(ctn di.Container) (interface{}, error) {
			return event.NewManager(eventBacklog), nil
		},
	},
	{
		Name: "ledger",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()
			if cfg.Ledger.Driver == "rpc" {
				return ledger.NewRPC(cfg.Ledger.Url, cfg.Ledger.Timeout, cfg.Ledger.Debug)
			}

			memory := ledger.NewMemory()
			if cfg.Marketplace.PaymentToken != "" {
				memory.CreateToken(common.HexToAddress(cfg.Marketplace.PaymentToken))
			}
			zap.L().Warn("Ledger: Using the in-memory ledger")

			return memory, nil
		},
	},
	{
		Name: "runner",
		Build: func(ctn di.Container) (interface{}, error) {
			return txn.NewRunner(
				txn.SystemClock(),
				ctn.Get("ledger").(ledger.Ledger),
				ctn.Get("events").(event.Manager),
			), nil
		},
	},
	{
		Name: "fee.resolver",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get().Marketplace
			return fee.NewResolver(
				ctn.Get("runner").(*txn.Runner),
				common.HexToAddress(cfg.FeeResolverAddress),
				common.HexToAddress(cfg.Deployer),
				entity.FeeConfig{
					Marketplace: cfg.FeeMarketplace,
					Owner:       cfg.FeeOwner,
					Merchant:    cfg.FeeMerchant,
					Collector:   cfg.FeeCollector,
				},
			), nil
		},
	},
	{
		Name: "price.feed",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get().Marketplace
			return pricefeed.NewFeed(
				ctn.Get("runner").(*txn.Runner),
				common.HexToAddress(cfg.PriceFeedAddress),
				common.HexToAddress(cfg.Deployer),
				uint8(cfg.PriceFeedDecimals),
				cfg.PriceFeedDescription,
				1,
			), nil
		},
	},
	{
		Name: "marketplace",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get().Marketplace

			var feed pricefeed.Source
			if cfg.PriceFeed {
				feed = ctn.Get("price.feed").(*pricefeed.Feed)
			}

			return marketplace.New(
				ctn.Get("runner").(*txn.Runner),
				ctn.Get("fee.resolver").(*fee.Resolver),
				feed,
				marketplace.Config{
					Address:       common.HexToAddress(cfg.MarketplaceAddress),
					Deployer:      common.HexToAddress(cfg.Deployer),
					PaymentToken:  common.HexToAddress(cfg.PaymentToken),
					TokenDecimals: uint8(cfg.TokenDecimals),
					FeeAddress:    common.HexToAddress(cfg.FeeAddress),
					ExpiredTimes:  cfg.ExpiredTimes,
				},
			), nil
		},
	},
	{
		Name: "order.match",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get().Marketplace
			address := common.HexToAddress(cfg.OrderMatchAddress)

			return ordermatch.New(
				ctn.Get("runner").(*txn.Runner),
				ctn.Get("fee.resolver").(*fee.Resolver),
				signature.NewEIP712(signature.NewDomain(cfg.ChainId, address)),
				ordermatch.Config{
					Address:    address,
					Deployer:   common.HexToAddress(cfg.Deployer),
					FeeAddress: common.HexToAddress(cfg.FeeAddress),
				},
			), nil
		},
	},
	{
		Name: "blindbox.factory",
		Build: func(ctn di.Container) (interface{}, error) {
			return blindbox.NewFactory(
				ctn.Get("runner").(*txn.Runner),
				common.HexToAddress(config.Get().Marketplace.BlindBoxFactoryAddress),
			), nil
		},
	},
	{
		Name: "nft.factory",
		Build: func(ctn di.Container) (interface{}, error) {
			return nftfactory.New(
				ctn.Get("runner").(*txn.Runner),
				common.HexToAddress(config.Get().Marketplace.NftFactoryAddress),
			), nil
		},
	},
	{
		Name: "elastic",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()
			elastic, err := elastic_search.New(cfg.ElasticSearch, cfg.Aws)
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to start ES")
			}

			return elastic, nil
		},
	},
	{
		Name: "event.indexer",
		Build: func(ctn di.Container) (interface{}, error) {
			return elastic_search.NewEventIndexer(
				ctn.Get("elastic").(elastic_search.Index),
				ctn.Get("marketplace").(*marketplace.Marketplace),
			), nil
		},
	},
	{
		Name: "listing.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewListingRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "event.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewEventRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "messenger",
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := config.Get()
			return messenger.NewMessageService(cfg.Messenger, cfg.Aws)
		},
	},
}
