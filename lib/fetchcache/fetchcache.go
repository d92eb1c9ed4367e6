// Package fetchcache is a TTL cache for fetched payloads, keyed by
// normalized URL. It exists because the public suggestion endpoints both
// rate-limit aggressively and return identical answers for hours at a
// time.
package fetchcache

import (
	"bytes"
	"context"
	"encoding/gob"
	"net/url"
	"time"

	devenv "seoassist-backend/dev/env"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("seoassist.lib.fetchcache")

var ErrNotFound = badger.ErrKeyNotFound

type entry struct {
	Payload string

	ExpiresAt int64
}

type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open creates or reuses an on-disk cache at path. "<dev_state>" prefixed
// paths resolve into the workspace state directory.
func Open(path string, ttl time.Duration) (Cache, error) {
	resolved, err := devenv.ResolvePath(path)
	if err != nil {
		return Cache{}, err
	}
	db, err := badger.Open(badger.DefaultOptions(resolved))
	if err != nil {
		return Cache{}, err
	}
	return Cache{db: db, ttl: ttl}, nil
}

// OpenInMemory backs the cache with badger's in-memory mode, nothing
// survives a restart.
func OpenInMemory(ttl time.Duration) (Cache, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true))
	if err != nil {
		return Cache{}, err
	}
	return Cache{db: db, ttl: ttl}, nil
}

func (c Cache) Close() error {
	return c.db.Close()
}

// cacheKey collapses trivially-different spellings of the same URL into
// one cache slot.
func cacheKey(namespace, rawUrl string) (string, error) {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	return namespace + ":" + normalized, nil
}

func (c Cache) Get(ctx context.Context, namespace, rawUrl string) (string, error) {
	ctx, span := tracer.Start(ctx, "Get")
	defer span.End()

	key, err := cacheKey(namespace, rawUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return "", err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	tx := c.db.NewTransaction(false)
	defer tx.Discard()
	item, err := tx.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return "", err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return "", err
	}

	decoder := gob.NewDecoder(bytes.NewBuffer(serialized))

	var cached entry
	err = decoder.Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return "", err
	}

	if time.Now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired cache key", trace.WithAttributes(
			attribute.String("key", key),
		))

		tx := c.db.NewTransaction(true)
		defer tx.Commit()

		err = tx.Delete([]byte(key))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
			return "", ErrNotFound
		}

		span.SetStatus(codes.Ok, "CACHE EXPIRED")
		return "", ErrNotFound
	}

	span.AddEvent("returned cached payload", trace.WithAttributes(
		attribute.Int("contentlength", len(cached.Payload)),
	))

	return cached.Payload, nil
}

func (c Cache) Set(ctx context.Context, namespace, rawUrl, payload string) error {
	ctx, span := tracer.Start(ctx, "Set")
	defer span.End()

	key, err := cacheKey(namespace, rawUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	serialized := bytes.NewBuffer(nil)
	encoder := gob.NewEncoder(serialized)
	err = encoder.Encode(entry{
		Payload:   payload,
		ExpiresAt: time.Now().Add(c.ttl).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize payload")
		return err
	}

	tx := c.db.NewTransaction(true)
	defer tx.Commit()

	err = tx.Set([]byte(key), serialized.Bytes())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}

	return nil
}
