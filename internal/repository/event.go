package repository

import (
	"context"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/elastic_search"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/olivere/elastic/v7"
)

type EventRepository interface {
	GetEvents(ctx context.Context, eventType event.Type, emitter common.Address, from, size int) ([]event.Event, error)
}

type eventRepository struct {
	elastic elastic_search.Index
}

func NewEventRepository(elastic elastic_search.Index) EventRepository {
	return eventRepository{elastic}
}

// GetEvents pages over indexed events, newest first. An empty type or zero emitter
// does not filter.
func (r eventRepository) GetEvents(ctx context.Context, eventType event.Type, emitter common.Address, from, size int) ([]event.Event, error) {
	query := elastic.NewBoolQuery()
	if eventType != "" {
		query = query.Filter(elastic.NewTermQuery("type", string(eventType)))
	}
	if emitter != (common.Address{}) {
		query = query.Filter(elastic.NewTermQuery("emitter", emitter.Hex()))
	}

	result, err := search(ctx, r.elastic.GetClient().
		Search(elastic_search.EventIndex.Get()).
		Query(query).
		Sort("time", false).
		From(from).
		Size(size))
	if err != nil {
		return nil, err
	}

	return decodeHits[event.Event](result)
}
