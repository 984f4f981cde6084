package synthetic

import (
	"context"
	"fmt"
	"log"
	"strings"

	"attritionboard/ports"
)

// Fetcher serves synthetic:// sources from the generator and hands
// every other source to the next fetcher.
type Fetcher struct {
	next   ports.SourceFetcher
	config Config
}

var _ ports.SourceFetcher = (*Fetcher)(nil)

// NewFetcher wraps next. next may be nil when only synthetic sources are used.
func NewFetcher(next ports.SourceFetcher, config Config) *Fetcher {
	return &Fetcher{next: next, config: config}
}

// Fetch implements ports.SourceFetcher.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, Scheme) {
		if f.next == nil {
			return nil, fmt.Errorf("no fetcher configured for %s", source)
		}
		return f.next.Fetch(ctx, source)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := strings.TrimPrefix(source, Scheme)
	if name != "attrition" {
		return nil, fmt.Errorf("unknown synthetic dataset %q", name)
	}
	log.Printf("[Synthetic] generating %d synthetic employees (seed %d)", f.config.EmployeeCount, f.config.Seed)
	return NewGenerator(f.config).CSV()
}
