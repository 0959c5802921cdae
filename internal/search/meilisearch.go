package search

import (
	"context"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"property-price-api/internal/dataset"
	"property-price-api/internal/models"
)

const (
	DefaultLimit = 20
	MaxLimit     = 1000

	indexBatchSize   = 5000
	taskPollInterval = 50 * time.Millisecond

	breakerThreshold = 3
	breakerReset     = 30 * time.Second
)

type SearchClient struct {
	client  *meilisearch.Client
	index   string
	breaker *CircuitBreaker
}

func NewSearchClient(host, apiKey, index string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client:  client,
		index:   index,
		breaker: NewCircuitBreaker(breakerThreshold, breakerReset),
	}
}

// Healthy reports whether the meilisearch server answers
func (s *SearchClient) Healthy() bool {
	return s.client.IsHealthy()
}

// InitIndex creates the index and configures its attributes. It returns
// once meilisearch has applied the settings or ctx is done.
func (s *SearchClient) InitIndex(ctx context.Context) error {
	info, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	if err != nil {
		return err
	}
	if task, err := s.waitForTask(ctx, info.TaskUID); err != nil {
		// an existing index is fine
		if task == nil || task.Error.Code != "index_already_exists" {
			return err
		}
	}

	idx := s.client.Index(s.index)

	settings := []func() (*meilisearch.TaskInfo, error){
		func() (*meilisearch.TaskInfo, error) {
			return idx.UpdateSearchableAttributes(&[]string{
				"city",
				"county",
				"voivodeship",
				"building_type",
				"building_material",
				"heating",
			})
		},
		func() (*meilisearch.TaskInfo, error) {
			return idx.UpdateFilterableAttributes(&[]string{
				"voivodeship_key",
				"city_key",
				"county_key",
				"market",
			})
		},
		func() (*meilisearch.TaskInfo, error) {
			return idx.UpdateSortableAttributes(&[]string{
				"price",
				"area",
			})
		},
	}
	for _, update := range settings {
		info, err := update()
		if err != nil {
			return err
		}
		if _, err := s.waitForTask(ctx, info.TaskUID); err != nil {
			return err
		}
	}

	return nil
}

// IndexRecords mirrors records into the index in batches and waits until
// every batch is searchable.
func (s *SearchClient) IndexRecords(ctx context.Context, records []models.PropertyRecord) error {
	if len(records) == 0 {
		return nil
	}
	infos, err := s.client.Index(s.index).AddDocumentsInBatches(toDocuments(records), indexBatchSize, "id")
	if err != nil {
		return err
	}
	for _, info := range infos {
		if _, err := s.waitForTask(ctx, info.TaskUID); err != nil {
			return err
		}
	}
	return nil
}

// waitForTask blocks until the task finishes. The task is returned alongside
// the error when it finished unsuccessfully.
func (s *SearchClient) waitForTask(ctx context.Context, uid int64) (*meilisearch.Task, error) {
	task, err := s.client.WaitForTask(uid, meilisearch.WaitParams{Context: ctx, Interval: taskPollInterval})
	if err != nil {
		return nil, fmt.Errorf("waiting for meilisearch task %d: %w", uid, err)
	}
	if task.Status != meilisearch.TaskStatusSucceeded {
		return task, fmt.Errorf("meilisearch task %d (%s) %s: %s", uid, task.Type, task.Status, task.Error.Message)
	}
	return task, nil
}

// Search runs a free-text query restricted to the region filters in q.
// It returns ErrCircuitOpen without calling meilisearch after repeated failures.
func (s *SearchClient) Search(query string, limit int64, q dataset.Query) ([]models.PropertyRecord, error) {
	if !s.breaker.CanProceed() {
		return nil, ErrCircuitOpen
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	req := &meilisearch.SearchRequest{Limit: limit}
	if filter := BuildFilter(q); filter != "" {
		req.Filter = filter
	}

	res, err := s.client.Index(s.index).Search(query, req)
	if err != nil {
		s.breaker.RecordFailure(err)
		return nil, err
	}
	s.breaker.RecordSuccess()
	return decodeHits(res.Hits), nil
}
