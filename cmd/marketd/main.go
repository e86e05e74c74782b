package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/api"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/config"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/config/di"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/messenger"
	"go.uber.org/zap"
)

const persistInterval = 5 * time.Second

func main() {
	config.Init()
	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Invalid configuration")
	}

	container, err := di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	defer container.Delete()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := container.GetEvents()
	indexed := make(chan struct{})
	if cfg.ElasticSearch.Enabled {
		indexer := container.GetEventIndexer()
		indexer.Subscribe(events)
		go func() {
			indexer.Run(ctx, persistInterval)
			close(indexed)
		}()
	} else {
		close(indexed)
	}

	if service := container.GetMessenger(); service != nil {
		messenger.NewPublisher(service, true).Subscribe(events)
		zap.L().With(zap.String("driver", cfg.Messenger.Driver)).Info("Publishing events")
	}

	routes := api.NewServer(
		container.GetFeeResolver(),
		container.GetMarketplace(),
		container.GetOrderMatch(),
		container.GetBlindBoxFactory(),
	).
		WithCollections(container.GetNftFactory()).
		WithPriceFeed(container.GetPriceFeed())
	if cfg.ElasticSearch.Enabled {
		routes = routes.WithHistory(container.GetListingRepo(), container.GetEventRepo())
	}

	server := &http.Server{
		Addr:              ":" + cfg.Api.Port,
		Handler:           routes.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().With(zap.String("port", cfg.Api.Port), zap.String("network", cfg.Network)).Info("Marketplace Started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().With(zap.Error(err)).Fatal("Failed to start api")
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down")

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdown); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to stop api")
	}
	<-indexed
}
