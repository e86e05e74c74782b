package repository

import (
	"context"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/elastic_search"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/ethereum/go-ethereum/common"
	"github.com/olivere/elastic/v7"
)

type ListingRepository interface {
	GetListingsBySeller(ctx context.Context, seller common.Address, activeOnly bool, size int) ([]entity.Listing, error)
}

type listingRepository struct {
	elastic elastic_search.Index
}

func NewListingRepository(elastic elastic_search.Index) ListingRepository {
	return listingRepository{elastic}
}

// GetListingsBySeller returns indexed listings of seller, newest first. Listings still
// waiting in the bulk buffer take precedence over their indexed copy.
func (r listingRepository) GetListingsBySeller(ctx context.Context, seller common.Address, activeOnly bool, size int) ([]entity.Listing, error) {
	query := elastic.NewBoolQuery().Filter(elastic.NewTermQuery("seller", seller.Hex()))
	if activeOnly {
		query = query.Filter(elastic.NewTermQuery("active", true))
	}

	result, err := search(ctx, r.elastic.GetClient().
		Search(elastic_search.ListingIndex.Get()).
		Query(query).
		Sort("id", false).
		Size(size))
	if err != nil {
		return nil, err
	}

	listings, err := decodeHits[entity.Listing](result)
	if err != nil {
		return nil, err
	}

	for i, listing := range listings {
		if pending := r.elastic.GetRequest(listing.Slug()); pending != nil {
			listings[i] = pending.Entity.(entity.Listing)
		}
	}

	filtered := listings[:0]
	for _, listing := range listings {
		if listing.Seller == seller && (!activeOnly || listing.Active) {
			filtered = append(filtered, listing)
		}
	}

	return filtered, nil
}
