package dataset

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"attritionboard/adapters/excel"
	"attritionboard/domain/core"
	"attritionboard/domain/dataset"
	"attritionboard/internal/errors"
	"attritionboard/ports"
)

// DefaultLoadTimeout bounds one shared fetch-and-parse.
const DefaultLoadTimeout = 2 * time.Minute

// Loader is the load-once, read-many access object for dashboard datasets.
// Results are memoized per source; concurrent first loads of one source are
// collapsed into a single fetch. Failed loads are not cached.
//
// The shared fetch is detached from the caller that started it, so one
// cancelled request never fails the load for the others waiting on it.
type Loader struct {
	fetcher ports.SourceFetcher
	group   singleflight.Group
	timeout time.Duration

	mu     sync.RWMutex
	cache  map[string]*dataset.Dataset
	status map[string]ports.LoadStatus
}

// NewLoader creates a loader on top of a fetcher.
func NewLoader(fetcher ports.SourceFetcher) *Loader {
	return &Loader{
		fetcher: fetcher,
		timeout: DefaultLoadTimeout,
		cache:   make(map[string]*dataset.Dataset),
		status:  make(map[string]ports.LoadStatus),
	}
}

// Load returns the dataset behind source, fetching it on first use.
func (l *Loader) Load(ctx context.Context, source string) (*dataset.Dataset, error) {
	l.mu.RLock()
	ds, ok := l.cache[source]
	l.mu.RUnlock()
	if ok {
		return ds, nil
	}

	ch := l.group.DoChan(source, func() (interface{}, error) {
		l.mu.RLock()
		ds, ok := l.cache[source]
		l.mu.RUnlock()
		if ok {
			return ds, nil
		}

		l.setStatus(ports.LoadStatus{Source: source, State: ports.LoadStateLoading})
		start := time.Now()

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()

		ds, err := l.fetchAndParse(loadCtx, source)
		if err != nil {
			log.Printf("[Loader] FAILED - %s: %v", source, err)
			l.setStatus(ports.LoadStatus{Source: source, State: ports.LoadStateFailed, Error: err.Error()})
			return nil, err
		}

		l.mu.Lock()
		l.cache[source] = ds
		l.mu.Unlock()
		l.setStatus(ports.LoadStatus{
			Source: source,
			State:  ports.LoadStateLoaded,
			Rows:   ds.Len(),
			Hash:   ds.Hash().Short(),
		})
		log.Printf("[Loader] loaded %s in %s (%d rows, %d columns)", source, time.Since(start).Round(time.Millisecond), ds.Len(), len(ds.Columns()))
		return ds, nil
	})

	select {
	case <-ctx.Done():
		// The shared load keeps running for the other callers.
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Printf("[Loader] shared in-flight load of %s", source)
		}
		return res.Val.(*dataset.Dataset), nil
	}
}

func (l *Loader) fetchAndParse(ctx context.Context, source string) (*dataset.Dataset, error) {
	body, err := l.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, errors.LoadError(source, err)
	}
	return Parse(source, body)
}

// SetTimeout changes the bound on one shared fetch-and-parse. Non-positive
// values are ignored.
func (l *Loader) SetTimeout(d time.Duration) {
	if d > 0 {
		l.timeout = d
	}
}

// Status reports the lifecycle of source.
func (l *Loader) Status(source string) ports.LoadStatus {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if st, ok := l.status[source]; ok {
		return st
	}
	return ports.LoadStatus{Source: source, State: ports.LoadStatePending}
}

// Bind returns a provider fixed to one source.
func (l *Loader) Bind(source string) *Source {
	return &Source{loader: l, source: source}
}

func (l *Loader) setStatus(st ports.LoadStatus) {
	st.UpdatedAt = time.Now()
	l.mu.Lock()
	l.status[st.Source] = st
	l.mu.Unlock()
}

// Parse turns raw CSV or XLSX bytes into a Dataset and drops the leading
// identifier column.
func Parse(source string, body []byte) (*dataset.Dataset, error) {
	raw, err := excel.NewDataReader(source).Parse(body)
	if err != nil {
		return nil, errors.LoadError(source, err)
	}
	if len(raw.Rows) == 0 {
		return nil, errors.LoadError(source, fmt.Errorf("no data rows below the header"))
	}
	if !excel.LooksLikeIdentifier(raw, 0) {
		log.Printf("[Loader] WARNING: first column %q of %s does not look like a row identifier; dropping it anyway", raw.Headers[0], source)
	}

	ds, err := dataset.New(source, raw.Headers, raw.Rows)
	if err != nil {
		return nil, errors.LoadError(source, err)
	}
	return ds.DropColumn(0).WithHash(core.NewHash(body)), nil
}

// Source is a DatasetProvider bound to one source key.
type Source struct {
	loader *Loader
	source string
}

var _ ports.DatasetProvider = (*Source)(nil)

// Dataset returns the memoized dataset.
func (s *Source) Dataset(ctx context.Context) (*dataset.Dataset, error) {
	return s.loader.Load(ctx, s.source)
}

// Status reports the load lifecycle of the bound source.
func (s *Source) Status() ports.LoadStatus {
	return s.loader.Status(s.source)
}

// Name returns the bound source.
func (s *Source) Name() string { return s.source }
