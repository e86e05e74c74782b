package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/olivere/elastic/v7"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	maxSearchAttempts = 3
	throttleDelay     = 5 * time.Second
)

func search(ctx context.Context, searchService *elastic.SearchService) (*elastic.SearchResult, error) {
	var err error
	for attempt := 1; attempt <= maxSearchAttempts; attempt++ {
		var result *elastic.SearchResult
		result, err = searchService.Do(ctx)
		if !elastic.IsStatusCode(err, 429) {
			return result, err
		}

		zap.L().With(zap.Int("attempt", attempt)).Warn("Elastic: 429 (Too Many Requests)")
		select {
		case <-ctx.Done():
			return nil, errors.WithStack(ctx.Err())
		case <-time.After(throttleDelay):
		}
	}

	return nil, err
}

func decodeHits[T any](result *elastic.SearchResult) ([]T, error) {
	if result == nil || result.Hits == nil {
		return []T{}, nil
	}

	items := make([]T, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var item T
		if err := json.Unmarshal(hit.Source, &item); err != nil {
			return nil, errors.Wrapf(err, "decode hit %s", hit.Id)
		}
		items = append(items, item)
	}

	return items, nil
}
