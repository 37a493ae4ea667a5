package source

import (
	"context"
	"errors"

	"github.com/dgraph-io/ristretto"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
	"github.com/lighthouse-maranatha/lyricdeck/pkg/utils"
)

// Memo caches the songs a slow source returns, keyed by normalized title.
// Misses are remembered too so a title the source lacks is asked once.
// Errors other than not-found are never cached.
type Memo struct {
	inner pipeline.Source
	cache *ristretto.Cache
}

type memoEntry struct {
	song *pipeline.Song
}

// NewMemo wraps inner with a cache holding up to maxSongs entries.
func NewMemo(inner pipeline.Source, maxSongs int64) (*Memo, error) {
	if maxSongs <= 0 {
		maxSongs = 1000
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxSongs * 10,
		MaxCost:     maxSongs,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Memo{inner: inner, cache: cache}, nil
}

func (m *Memo) Lookup(ctx context.Context, title string) (*pipeline.Song, error) {
	key := utils.NormalizeTitle(title)
	if v, ok := m.cache.Get(key); ok {
		e := v.(memoEntry)
		if e.song == nil {
			return nil, &pipeline.SourceNotFoundError{Title: title}
		}
		return e.song, nil
	}

	song, err := m.inner.Lookup(ctx, title)
	switch {
	case err == nil:
		m.cache.Set(key, memoEntry{song: song}, 1)
	case errors.Is(err, pipeline.ErrSourceNotFound) && !errors.Is(err, context.Canceled):
		m.cache.Set(key, memoEntry{}, 1)
	default:
		return nil, err
	}
	m.cache.Wait()
	return song, err
}

// Forget drops a cached answer, e.g. after the library copy changed.
func (m *Memo) Forget(title string) {
	m.cache.Del(utils.NormalizeTitle(title))
}

func (m *Memo) Close() {
	m.cache.Close()
}
