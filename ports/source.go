package ports

import (
	"context"
	"time"

	"attritionboard/domain/dataset"
)

// SourceFetcher retrieves the raw bytes of a dataset source (URL or path).
type SourceFetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// LoadState is the lifecycle of a memoized dataset.
type LoadState string

const (
	LoadStatePending LoadState = "pending"
	LoadStateLoading LoadState = "loading"
	LoadStateLoaded  LoadState = "loaded"
	LoadStateFailed  LoadState = "failed"
)

// LoadStatus reports where a dataset is in its load-once lifecycle.
type LoadStatus struct {
	Source    string    `json:"source"`
	State     LoadState `json:"state"`
	Rows      int       `json:"rows,omitempty"`
	Hash      string    `json:"hash,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DatasetProvider gives read-only access to the dashboard's dataset. The
// dataset is loaded once and shared by every request.
type DatasetProvider interface {
	Dataset(ctx context.Context) (*dataset.Dataset, error)
	Status() LoadStatus
}
