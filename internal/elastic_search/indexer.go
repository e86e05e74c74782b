package elastic_search

import (
	"context"
	"time"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"go.uber.org/zap"
)

// ListingSource resolves the current state of a listing.
type ListingSource interface {
	GetAsk(id uint64) (entity.Listing, error)
}

// EventIndexer buffers every emitted event, and a snapshot of each listing it touches,
// as search index requests.
type EventIndexer struct {
	elastic  Index
	listings ListingSource
}

func NewEventIndexer(elastic Index, listings ListingSource) *EventIndexer {
	return &EventIndexer{elastic: elastic, listings: listings}
}

// Subscribe registers the indexer for every event type.
func (i *EventIndexer) Subscribe(manager event.Manager) {
	manager.AddEventListener(event.AnyEvent, i.Handle)
}

func (i *EventIndexer) Handle(e event.Event) {
	action := RequestAction(e.Type)
	i.elastic.AddIndexRequest(EventIndex.Get(), e, action)

	switch args := e.Args.(type) {
	case event.OrderMatchArgs:
		i.elastic.AddIndexRequest(OrderIndex.Get(), OrderDocument{UniqId: args.UniqId, Outcome: e.Type, Seller: args.Seller, Event: e}, action)
	case event.CancelMatchArgs:
		i.elastic.AddIndexRequest(OrderIndex.Get(), OrderDocument{UniqId: args.UniqId, Outcome: e.Type, Seller: args.Seller, Event: e}, action)
	case event.TransferArgs:
		i.elastic.AddUpdateRequest(BoxIndex.Get(), BoxDocument{Set: e.Emitter, BoxId: args.TokenId, Owner: args.To, Burned: args.To == entity.ZeroAddress, UpdatedAt: e.Time}, action)
	}

	if id, ok := listingId(e); ok && i.listings != nil {
		listing, err := i.listings.GetAsk(id)
		if err != nil {
			zap.L().With(zap.Error(err), zap.Uint64("listingId", id)).Error("EventIndexer: Failed to load listing")
			return
		}
		i.elastic.AddUpdateRequest(ListingIndex.Get(), listing, action)
	}
}

// Run persists buffered requests every interval until ctx is done, then flushes once more.
func (i *EventIndexer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if _, err := i.elastic.Persist(context.Background()); err != nil {
				zap.L().With(zap.Error(err)).Error("EventIndexer: Final persist failed")
			}
			return
		case <-ticker.C:
			count, err := i.elastic.Persist(ctx)
			if err != nil {
				zap.L().With(zap.Error(err)).Error("EventIndexer: Persist failed")
				continue
			}
			if count > 0 {
				zap.L().With(zap.Int("requests", count)).Info("EventIndexer: Persisted requests")
			}
		}
	}
}

func listingId(e event.Event) (uint64, bool) {
	switch args := e.Args.(type) {
	case event.AskArgs:
		return args.ListingId, true
	case event.CancelSellArgs:
		return args.ListingId, true
	case event.TradeArgs:
		return args.ListingId, true
	case event.SuspendNFTArgs:
		return args.ListingId, true
	}
	return 0, false
}
