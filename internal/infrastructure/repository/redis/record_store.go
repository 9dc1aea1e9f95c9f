package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/samakshmehra/document-processing-system/internal/core/domain"
	"github.com/samakshmehra/document-processing-system/internal/infrastructure/resilience"
)

const defaultKeyPrefix = "docproc:"

type Options struct {
	URL                string
	KeyPrefix          string
	ConnectTimeout     time.Duration
	ResilienceExecutor *resilience.Executor
}

// RecordStore keeps the history in Redis: one JSON value per record, a global
// id list and one id list per thread. Appends run in a WATCH/MULTI
// transaction keyed on the thread's last timestamp.
type RecordStore struct {
	client   *goredis.Client
	prefix   string
	executor *resilience.Executor
	mu       sync.Mutex
}

func New(ctx context.Context, options Options) (*RecordStore, error) {
	url := options.URL
	if url == "" {
		url = "redis://localhost:6379"
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}

	redisOpts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisOpts.DialTimeout = connectTimeout

	client := goredis.NewClient(redisOpts)
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return NewWithClient(client, options), nil
}

func NewWithClient(client *goredis.Client, options Options) *RecordStore {
	prefix := options.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	executor := options.ResilienceExecutor
	if executor == nil {
		cfg := resilience.ConflictConfig()
		cfg.BreakerEnabled = false
		executor = resilience.NewExecutor(cfg)
	}
	return &RecordStore{
		client:   client,
		prefix:   prefix,
		executor: executor,
	}
}

func (s *RecordStore) Close() error {
	return s.client.Close()
}

func (s *RecordStore) allKey() string { return s.prefix + "records" }
func (s *RecordStore) recordKey(id string) string { return s.prefix + "record:" + id }
func (s *RecordStore) threadKey(id string) string { return s.prefix + "thread:" + id }
func (s *RecordStore) threadLastKey(id string) string { return s.prefix + "thread:" + id + ":last" }

func (s *RecordStore) Append(ctx context.Context, record domain.MemoryRecord) (string, error) {
	if err := record.Prepare(time.Now(), time.Time{}); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.client.Exists(ctx, s.recordKey(record.ID)).Result()
	if err != nil {
		return "", fmt.Errorf("check record id: %w", err)
	}
	if exists > 0 {
		return "", domain.WrapError(domain.ErrInvalidRecord, "append record", fmt.Errorf("duplicate record_id %s", record.ID))
	}

	lastKey := s.threadLastKey(record.ThreadID)
	err = s.executor.Execute(ctx, "redis.append", func(ctx context.Context) error {
		return s.client.Watch(ctx, func(tx *goredis.Tx) error {
			stored := record
			last, err := tx.Get(ctx, lastKey).Int64()
			if err != nil && !errors.Is(err, goredis.Nil) {
				return err
			}
			if err == nil && stored.Timestamp.UnixNano() < last {
				stored.Timestamp = time.Unix(0, last).UTC()
			}
			payload, err := json.Marshal(stored)
			if err != nil {
				return fmt.Errorf("marshal record: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Set(ctx, s.recordKey(stored.ID), payload, 0)
				pipe.RPush(ctx, s.allKey(), stored.ID)
				pipe.RPush(ctx, s.threadKey(stored.ThreadID), stored.ID)
				pipe.Set(ctx, lastKey, stored.Timestamp.UnixNano(), 0)
				return nil
			})
			return err
		}, lastKey)
	}, classifyRedisError)
	if errors.Is(err, goredis.TxFailedErr) {
		return "", domain.WrapError(domain.ErrTemporary, "append record", err)
	}
	if err != nil {
		return "", fmt.Errorf("append record: %w", err)
	}
	return record.ID, nil
}

func (s *RecordStore) GetThread(ctx context.Context, threadID string) ([]domain.MemoryRecord, error) {
	return s.loadList(ctx, s.threadKey(threadID))
}

func (s *RecordStore) GetAll(ctx context.Context) ([]domain.MemoryRecord, error) {
	return s.loadList(ctx, s.allKey())
}

func (s *RecordStore) Get(ctx context.Context, recordID string) (*domain.MemoryRecord, error) {
	raw, err := s.client.Get(ctx, s.recordKey(recordID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", fmt.Errorf("id=%s", recordID))
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	var record domain.MemoryRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &record, nil
}

// Search loads the candidate list and filters in process; Redis has no
// secondary indexes for these fields.
func (s *RecordStore) Search(ctx context.Context, filter domain.RecordFilter) ([]domain.MemoryRecord, error) {
	key := s.allKey()
	if filter.ThreadID != "" {
		key = s.threadKey(filter.ThreadID)
	}
	records, err := s.loadList(ctx, key)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MemoryRecord, 0, len(records))
	for _, r := range records {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *RecordStore) loadList(ctx context.Context, listKey string) ([]domain.MemoryRecord, error) {
	ids, err := s.client.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list record ids: %w", err)
	}
	out := make([]domain.MemoryRecord, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("record %s is missing", ids[i])
		}
		var record domain.MemoryRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("unmarshal record %s: %w", ids[i], err)
		}
		out = append(out, record)
	}
	return out, nil
}

func classifyRedisError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	case errors.Is(err, goredis.TxFailedErr):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: false}
	default:
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
}
