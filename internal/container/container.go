package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"attritionboard/adapters/remote"
	"attritionboard/adapters/synthetic"
	"attritionboard/internal/api"
	"attritionboard/internal/config"
	"attritionboard/internal/dataset"
	"attritionboard/internal/pipeline"
	"attritionboard/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config  *config.Config
	Profile *config.Profile

	// Data access
	Fetcher ports.SourceFetcher
	Loader  *dataset.Loader
	Source  *dataset.Source

	// Computation and transport
	Pipeline *pipeline.Pipeline
	API      *api.Server
}

// New creates a new dependency injection container
func New(cfg *config.Config, profile *config.Profile) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if profile == nil {
		profile = config.DefaultProfile()
	}

	httpFetcher := remote.NewFetcher(cfg.Fetch.Timeout, cfg.Fetch.RetryMaxAttempts, cfg.Fetch.RetryBaseDelay, cfg.Fetch.RetryMaxDelay)
	fetcher := synthetic.NewFetcher(httpFetcher, synthetic.DefaultConfig())
	loader := dataset.NewLoader(fetcher)
	// Room for every retry attempt and the back-off between them.
	attempts := time.Duration(cfg.Fetch.RetryMaxAttempts)
	loader.SetTimeout(attempts * (cfg.Fetch.Timeout + cfg.Fetch.RetryMaxDelay))
	source := loader.Bind(cfg.Data.Source)
	p := pipeline.New(profile)

	c := &Container{
		Config:   cfg,
		Profile:  profile,
		Fetcher:  fetcher,
		Loader:   loader,
		Source:   source,
		Pipeline: p,
		API:      api.NewServer(source, p),
	}
	log.Printf("[Container] source=%s response=%s heatmap=%s", cfg.Data.Source, profile.ResponseColumn, profile.HeatmapColumn)
	return c, nil
}

// Warm starts loading the dataset in the background so the first page view
// does not pay for the download. Failures are logged; the next request retries.
func (c *Container) Warm(ctx context.Context) {
	go func() {
		start := time.Now()
		if _, err := c.Source.Dataset(ctx); err != nil {
			log.Printf("[Container] background load failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
			return
		}
		log.Printf("[Container] dataset ready in %s", time.Since(start).Round(time.Millisecond))
	}()
}
