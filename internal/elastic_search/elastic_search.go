package elastic_search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tokocrypto/tko-nft-smart-contract/internal/config"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/entity"
	"github.com/Tokocrypto/tko-nft-smart-contract/internal/log"
	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/olivere/elastic/v7"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/sha1sum/aws_signing_client"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Index interface {
	GetClient() *elastic.Client

	InstallMappings(ctx context.Context, dir string, reindex bool) error

	AddIndexRequest(index string, entity entity.Entity, reqAction RequestAction)
	AddUpdateRequest(index string, entity entity.Entity, reqAction RequestAction)
	HasRequest(entity entity.Entity) bool
	AddRequest(index string, entity entity.Entity, reqType RequestType, reqAction RequestAction)
	GetEntitiesByIndex(index string) []entity.Entity
	GetRequests() []Request
	GetRequest(id string) *Request
	ClearRequests()

	Save(ctx context.Context, index string, entity entity.Entity) error
	BatchPersist(ctx context.Context) bool
	Persist(ctx context.Context) (int, error)
}

type index struct {
	client    *elastic.Client
	cache     *cache.Cache
	refresh   string
	bulkCount int
	batchSize int
}

type Request struct {
	Index  string
	Entity entity.Entity
	Type   RequestType
	Action RequestAction
}

type RequestType string

const (
	IndexRequest  RequestType = "index"
	UpdateRequest RequestType = "update"
)

// RequestAction names the event that produced a request.
type RequestAction string

const (
	saveAttempts int = 3
	batchSize    int = 250
)

func New(cfg config.ElasticSearchConfig, aws config.AwsConfig) (Index, error) {
	client, err := newClient(cfg, aws)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to create client")
		return nil, err
	}

	return NewWithClient(client, cfg.Refresh, cfg.BulkPersistCount), nil
}

func NewWithClient(client *elastic.Client, refresh string, bulkCount int) Index {
	if bulkCount <= 0 {
		bulkCount = 300
	}

	return index{
		client:    client,
		cache:     cache.New(5*time.Minute, 10*time.Minute),
		refresh:   refresh,
		bulkCount: bulkCount,
		batchSize: batchSize,
	}
}

func newClient(cfg config.ElasticSearchConfig, aws config.AwsConfig) (*elastic.Client, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.Hosts...),
		elastic.SetSniff(cfg.Sniff),
		elastic.SetHealthcheck(cfg.HealthCheck),
		elastic.SetErrorLog(log.NewPrintfLogger(zapcore.ErrorLevel)),
	}

	if cfg.Debug {
		opts = append(opts, elastic.SetTraceLog(log.NewPrintfLogger(zapcore.DebugLevel)))
	}

	if cfg.Aws {
		creds := credentials.NewStaticCredentials(aws.AccessKey, aws.SecretKey, "")
		awsClient, err := aws_signing_client.New(v4.NewSigner(creds), nil, "es", aws.Region)
		if err != nil {
			return nil, err
		}

		opts = append(opts, elastic.SetHttpClient(awsClient))
		opts = append(opts, elastic.SetScheme("https"))
		return elastic.NewClient(opts...)
	}

	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}

	return elastic.NewClient(opts...)
}

func (i index) GetClient() *elastic.Client {
	return i.client
}

// InstallMappings creates one index per mapping file in dir, named after the file.
func (i index) InstallMappings(ctx context.Context, dir string, reindex bool) error {
	zap.L().Info("ElasticSearch: Install Mappings")

	files, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "elastic mappings directory")
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}

		b, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return errors.Wrapf(err, "elastic mappings file %s", f.Name())
		}

		name := Indices(strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))).Get()
		if err = i.createIndex(ctx, name, b, reindex); err != nil {
			return errors.Wrapf(err, "create index %s", name)
		}
	}

	return nil
}

func (i index) createIndex(ctx context.Context, index string, mapping []byte, reindex bool) error {
	exists, err := i.client.IndexExists(index).Do(ctx)
	if err != nil {
		return err
	}

	if exists && reindex {
		zap.S().Infof("ElasticSearch: Deleting index %s", index)
		if _, err = i.client.DeleteIndex(index).Do(ctx); err != nil {
			return err
		}
		exists = false
	}

	if !exists {
		createIndex, err := i.client.CreateIndex(index).BodyString(string(mapping)).Do(ctx)
		if err != nil {
			return err
		}

		if createIndex.Acknowledged {
			zap.S().Infof("ElasticSearch: Created index %s", index)
		}
	}

	return nil
}

func (i index) AddIndexRequest(index string, entity entity.Entity, reqAction RequestAction) {
	zap.L().With(
		zap.String("index", index),
		zap.String("slug", entity.Slug()),
		zap.String("action", string(reqAction)),
	).Debug("ElasticSearch: AddIndexRequest")

	i.AddRequest(index, entity, IndexRequest, reqAction)
}

// AddUpdateRequest queues a partial document. A pending index request for the same
// slug stays an index request so the full document is written.
func (i index) AddUpdateRequest(index string, entity entity.Entity, reqAction RequestAction) {
	zap.L().With(
		zap.String("index", index),
		zap.String("slug", entity.Slug()),
		zap.String("action", string(reqAction)),
	).Debug("ElasticSearch: AddUpdateRequest")

	if cached, found := i.cache.Get(entity.Slug()); found && cached.(Request).Type == IndexRequest {
		i.AddRequest(index, entity, IndexRequest, reqAction)
		return
	}

	i.AddRequest(index, entity, UpdateRequest, reqAction)
}

func (i index) HasRequest(entity entity.Entity) bool {
	_, found := i.cache.Get(entity.Slug())

	return found
}

func (i index) AddRequest(index string, entity entity.Entity, reqType RequestType, reqAction RequestAction) {
	i.cache.Set(entity.Slug(), Request{index, entity, reqType, reqAction}, cache.DefaultExpiration)
}

func (i index) GetEntitiesByIndex(index string) []entity.Entity {
	entities := make([]entity.Entity, 0)
	for _, req := range i.GetRequests() {
		if req.Index == index {
			entities = append(entities, req.Entity)
		}
	}

	return entities
}

func (i index) GetRequests() []Request {
	requests := make([]Request, 0)

	for _, item := range i.cache.Items() {
		requests = append(requests, item.Object.(Request))
	}

	return requests
}

func (i index) GetRequest(id string) *Request {
	if item, found := i.cache.Get(id); found {
		req := item.(Request)
		return &req
	}
	return nil
}

func (i index) ClearRequests() {
	i.cache.Flush()
}

func (i index) Save(ctx context.Context, index string, entity entity.Entity) error {
	var err error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		_, err = i.client.Index().
			Index(index).
			Id(entity.Slug()).
			BodyJson(entity).
			Do(ctx)
		if err == nil {
			return nil
		}

		zap.L().With(zap.Error(err), zap.String("index", index), zap.String("slug", entity.Slug()), zap.Int("attempt", attempt)).
			Error("ElasticSearch: Failed to save entity")

		select {
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case <-time.After(time.Second):
		}
	}

	return errors.Wrapf(err, "save %s after %d attempts", entity.Slug(), saveAttempts)
}

// BatchPersist persists the pending requests once enough of them have accumulated.
func (i index) BatchPersist(ctx context.Context) bool {
	if i.cache.ItemCount() < i.batchSize {
		return false
	}

	start := time.Now()
	actions, err := i.Persist(ctx)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Batch persist failed")
		return false
	}

	zap.L().With(
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("actions", actions),
	).Info("ElasticSearch: Persisting data")

	return true
}

// Persist writes every pending request in bulk and clears the buffer. Requests stay
// queued when the cluster rejects the bulk call.
func (i index) Persist(ctx context.Context) (int, error) {
	requests := i.GetRequests()
	if len(requests) == 0 {
		return 0, nil
	}

	bulk := i.client.Bulk()
	for _, r := range requests {
		switch r.Type {
		case IndexRequest:
			bulk.Add(elastic.NewBulkIndexRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))
		case UpdateRequest:
			bulk.Add(elastic.NewBulkUpdateRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity).DocAsUpsert(true))
		}

		if bulk.NumberOfActions() >= i.bulkCount {
			if err := i.persist(ctx, bulk); err != nil {
				return 0, err
			}
			bulk = i.client.Bulk()
		}
	}

	if bulk.NumberOfActions() != 0 {
		if err := i.persist(ctx, bulk); err != nil {
			return 0, err
		}
	}

	zap.L().Debug("ElasticSearch: Flushing ES cache")
	i.cache.Flush()

	return len(requests), nil
}

func (i index) persist(ctx context.Context, bulk *elastic.BulkService) error {
	zap.S().Debugf("ElasticSearch: Persisting %d actions", bulk.NumberOfActions())

	if i.refresh != "" {
		bulk = bulk.Refresh(i.refresh)
	}

	response, err := bulk.Do(ctx)
	if err != nil {
		return errors.Wrap(err, "bulk persist")
	}

	for _, failed := range response.Failed() {
		zap.L().With(
			zap.Any("error", failed.Error),
			zap.String("index", failed.Index),
			zap.String("id", failed.Id),
		).Error("ElasticSearch: Failed to persist request. Retrying...")

		req := i.GetRequest(failed.Id)
		if req == nil {
			continue
		}
		if err := i.Save(ctx, failed.Index, req.Entity); err != nil {
			return err
		}
	}

	return nil
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s/%s (%s)", r.Type, r.Index, r.Entity.Slug(), r.Action)
}
