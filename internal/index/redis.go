package index

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/emaadiliX/retail-operations-copilot/config"
)

const upsertBatchSize = 100

// Redis implements Store on top of RediSearch vector indexes.
type Redis struct {
	client rueidis.Client
	name   string
	prefix string
	dim    int
	logger *log.Logger
}

var _ Store = (*Redis)(nil)

// NewRedis connects to Redis and returns a vector store for the configured
// collection.
func NewRedis(cfg config.IndexConfig, dimensions int) (*Redis, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{cfg.Addr},
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("creating redis client: %w", err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "chunk:"
	}
	return &Redis{
		client: client,
		name:   cfg.Collection,
		prefix: prefix,
		dim:    dimensions,
		logger: log.New(log.Writer(), "[INDEX] ", log.LstdFlags),
	}, nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Do(ctx, r.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (r *Redis) Close() {
	r.client.Close()
}

// EnsureIndex creates the collection schema. Returns ErrIndexExists when
// the collection is already in place.
func (r *Redis) EnsureIndex(ctx context.Context) error {
	args := createIndexArgs(r.name, r.prefix, r.dim)
	cmd := r.client.B().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return ErrIndexExists
		}
		return fmt.Errorf("creating index %s: %w", r.name, err)
	}
	r.logger.Printf("created index %s (dim=%d, prefix=%s)", r.name, r.dim, r.prefix)
	return nil
}

// Drop removes the index and the stored chunk hashes.
func (r *Redis) Drop(ctx context.Context) error {
	cmd := r.client.B().Arbitrary("FT.DROPINDEX").Args(r.name, "DD").Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return ErrIndexNotFound
		}
		return fmt.Errorf("dropping index %s: %w", r.name, err)
	}
	return nil
}

// Upsert writes records in DoMulti batches. Re-ingesting the same document
// overwrites hashes in place because chunk IDs are stable.
func (r *Redis) Upsert(ctx context.Context, records []Record) error {
	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		cmds := make([]rueidis.Completed, 0, end-start)
		for _, rec := range records[start:end] {
			cmds = append(cmds, r.client.B().Hset().Key(r.prefix+rec.ID).FieldValue().
				FieldValue("vector", vectorToBytes(rec.Vector)).
				FieldValue("text", rec.Text).
				FieldValue("document", rec.Document).
				FieldValue("page", strconv.Itoa(rec.Page)).
				FieldValue("chunk", strconv.Itoa(rec.Chunk)).
				FieldValue("citation", rec.Citation).
				FieldValue("file_path", rec.FilePath).
				Build())
		}
		for i, res := range r.client.DoMulti(ctx, cmds...) {
			if err := res.Error(); err != nil {
				return fmt.Errorf("upserting %s: %w", records[start+i].ID, err)
			}
		}
	}
	return nil
}

// Query runs a KNN search and returns matches in distance-ascending order.
func (r *Redis) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is required")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	args := knnArgs(r.name, k)
	args = append(args, "PARAMS", "2", "BLOB", vectorToBytes(vector), "DIALECT", "2")
	cmd := r.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := r.client.Do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("knn search on %s: %w", r.name, err)
	}
	return parseKNNResult(raw, r.prefix)
}

// Count reports the number of stored chunks.
func (r *Redis) Count(ctx context.Context) (int, error) {
	cmd := r.client.B().Arbitrary("FT.SEARCH").Args(r.name, "*", "LIMIT", "0", "0").Build()
	raw, err := r.client.Do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return 0, ErrIndexNotFound
		}
		return 0, fmt.Errorf("counting %s: %w", r.name, err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// createIndexArgs builds the FT.CREATE argument list for the chunk schema.
func createIndexArgs(name, prefix string, dim int) []string {
	return []string{
		name, "ON", "HASH", "PREFIX", "1", prefix, "SCHEMA",
		"vector", "VECTOR", "FLAT", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(dim),
		"DISTANCE_METRIC", "COSINE",
		"text", "TEXT",
		"document", "TAG",
		"page", "NUMERIC",
		"chunk", "NUMERIC",
	}
}

// knnArgs builds the FT.SEARCH argument list up to (not including) PARAMS.
// SORTBY pins the distance-ascending contract the retriever relies on.
func knnArgs(name string, k int) []string {
	return []string{
		name, fmt.Sprintf("*=>[KNN %d @vector $BLOB]", k),
		"SORTBY", "__vector_score",
		"RETURN", "7", "__vector_score", "text", "document", "page", "chunk", "citation", "file_path",
		"LIMIT", "0", strconv.Itoa(k),
	}
}

func parseKNNResult(raw []rueidis.RedisMessage, prefix string) ([]Match, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	matches := make([]Match, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fieldsArr, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(fieldsArr)

		m := Match{
			ID:       trimPrefix(key, prefix),
			Text:     fields["text"],
			Document: fields["document"],
			Citation: fields["citation"],
			FilePath: fields["file_path"],
		}
		if v, err := strconv.Atoi(fields["page"]); err == nil {
			m.Page = v
		}
		if v, err := strconv.Atoi(fields["chunk"]); err == nil {
			m.Chunk = v
		}
		if v, err := strconv.ParseFloat(fields["__vector_score"], 64); err == nil {
			m.Distance = v
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func trimPrefix(key, prefix string) string {
	if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// isRedisErr checks if err is a Redis server error containing substr
// (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return containsIgnoreCase(re.Error(), substr)
}

func containsIgnoreCase(s, substr string) bool {
	ls := len(s)
	lsub := len(substr)
	if lsub > ls {
		return false
	}
	for i := 0; i <= ls-lsub; i++ {
		match := true
		for j := 0; j < lsub; j++ {
			sc := s[i+j]
			tc := substr[j]
			if sc >= 'A' && sc <= 'Z' {
				sc += 'a' - 'A'
			}
			if tc >= 'A' && tc <= 'Z' {
				tc += 'a' - 'A'
			}
			if sc != tc {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
