package elastic_search

import (
	"bufio"
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/event"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCluster struct {
	mu      sync.Mutex
	bulk    []string
	created []string
}

func (c *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/_bulk":
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				c.bulk = append(c.bulk, line)
			}
		}
		_, _ = w.Write([]byte(`{"took":1,"errors":false,"items":[]}`))
	case r.Method == http.MethodHead:
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut:
		c.created = append(c.created, strings.TrimPrefix(r.URL.Path, "/"))
		_, _ = w.Write([]byte(`{"acknowledged":true,"shards_acknowledged":true}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestIndex(t *testing.T) (Index, *fakeCluster) {
	cluster := &fakeCluster{}
	server := httptest.NewServer(cluster)
	t.Cleanup(server.Close)

	client, err := elastic.NewClient(
		elastic.SetURL(server.URL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	require.NoError(t, err)

	return NewWithClient(client, "", 2), cluster
}

type listings map[uint64]entity.Listing

func (l listings) GetAsk(id uint64) (entity.Listing, error) {
	listing, ok := l[id]
	if !ok {
		return entity.Listing{}, failure.New(failure.NotFound, "listing %d does not exist", id)
	}
	return listing, nil
}

func TestIndex_UpdateKeepsPendingIndexRequest(t *testing.T) {
	idx, _ := newTestIndex(t)
	listing := entity.Listing{Id: 1, Price: big.NewInt(10), TokenId: big.NewInt(1)}

	idx.AddIndexRequest(ListingIndex.Get(), listing, "Ask")
	idx.AddUpdateRequest(ListingIndex.Get(), listing, "Trade")

	req := idx.GetRequest(listing.Slug())
	require.NotNil(t, req)
	assert.Equal(t, IndexRequest, req.Type)
	assert.Equal(t, RequestAction("Trade"), req.Action)
	assert.Len(t, idx.GetEntitiesByIndex(ListingIndex.Get()), 1)
}

func TestIndex_Persist(t *testing.T) {
	idx, cluster := newTestIndex(t)

	for i := uint64(1); i <= 3; i++ {
		idx.AddIndexRequest(ListingIndex.Get(), entity.Listing{Id: i, Price: big.NewInt(1), TokenId: big.NewInt(int64(i))}, "Ask")
	}

	count, err := idx.Persist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Empty(t, idx.GetRequests())

	cluster.mu.Lock()
	defer cluster.mu.Unlock()
	// one action line and one document line per request
	assert.Len(t, cluster.bulk, 6)
}

func TestIndex_PersistWithNothingQueued(t *testing.T) {
	idx, cluster := newTestIndex(t)

	count, err := idx.Persist(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, cluster.bulk)
}

func TestIndex_InstallMappings(t *testing.T) {
	idx, cluster := newTestIndex(t)

	require.NoError(t, idx.InstallMappings(context.Background(), "../../mappings", false))

	cluster.mu.Lock()
	defer cluster.mu.Unlock()
	assert.ElementsMatch(t, []string{BoxIndex.Get(), EventIndex.Get(), ListingIndex.Get(), OrderIndex.Get()}, cluster.created)
}

func TestEventIndexer_Handle(t *testing.T) {
	idx, _ := newTestIndex(t)
	set := common.HexToAddress("0x5")
	seller := common.HexToAddress("0x6")
	source := listings{7: {Id: 7, Seller: seller, Price: big.NewInt(5), TokenId: big.NewInt(1), Active: true}}

	indexer := NewEventIndexer(idx, source)
	indexer.Handle(event.Event{Id: "a", Type: event.Ask, Args: event.AskArgs{ListingId: 7, Seller: seller}})
	indexer.Handle(event.Event{Id: "b", Type: event.OrderMatch, Args: event.OrderMatchArgs{UniqId: "order-1", Seller: seller}})
	indexer.Handle(event.Event{Id: "c", Type: event.Transfer, Emitter: set, Args: event.TransferArgs{To: seller, TokenId: 3}})
	indexer.Handle(event.Event{Id: "d", Type: event.Ask, Args: event.AskArgs{ListingId: 99}})

	assert.Len(t, idx.GetEntitiesByIndex(EventIndex.Get()), 4)
	assert.Len(t, idx.GetEntitiesByIndex(ListingIndex.Get()), 1)

	order := idx.GetRequest(OrderDocument{UniqId: "order-1"}.Slug())
	require.NotNil(t, order)
	assert.Equal(t, event.OrderMatch, order.Entity.(OrderDocument).Outcome)

	box := idx.GetRequest(BoxDocument{Set: set, BoxId: 3}.Slug())
	require.NotNil(t, box)
	assert.Equal(t, seller, box.Entity.(BoxDocument).Owner)
	assert.False(t, box.Entity.(BoxDocument).Burned)
}

func TestEventIndexer_RunFlushesOnShutdown(t *testing.T) {
	idx, cluster := newTestIndex(t)
	indexer := NewEventIndexer(idx, nil)
	indexer.Handle(event.Event{Id: "a", Type: event.Paused})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	indexer.Run(ctx, time.Hour)

	assert.Empty(t, idx.GetRequests())
	cluster.mu.Lock()
	defer cluster.mu.Unlock()
	assert.Len(t, cluster.bulk, 2)
}
