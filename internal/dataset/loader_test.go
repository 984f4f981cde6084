package dataset

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"attritionboard/domain/dataset"
	"attritionboard/internal/errors"
	"attritionboard/ports"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	args := m.Called(ctx, source)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// gatedFetcher blocks every fetch until release is closed or its context ends.
type gatedFetcher struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	calls   int32
	mu      sync.Mutex
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	g.once.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return []byte(sampleCSV), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

const sampleCSV = "EmployeeID,Attrition,Department,Age\n" +
	"1,Left,Sales,34\n" +
	"2,Stayed,R&D,41\n" +
	"3,Stayed,Sales,\n"

func TestLoaderDropsIdentifierColumn(t *testing.T) {
	f := new(mockFetcher)
	f.On("Fetch", mock.Anything, "data.csv").Return([]byte(sampleCSV), nil).Once()

	ds, err := NewLoader(f).Load(context.Background(), "data.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"Attrition", "Department", "Age"}, ds.ColumnNames())
	assert.Equal(t, 3, ds.Len())
	assert.False(t, ds.Hash().IsEmpty())

	age, ok := ds.Column("Age")
	require.True(t, ok)
	assert.Equal(t, dataset.KindNumerical, age.Kind)
	assert.Equal(t, 2, age.NonNullCount())
	f.AssertExpectations(t)
}

func TestLoaderMemoizesPerSource(t *testing.T) {
	f := new(mockFetcher)
	f.On("Fetch", mock.Anything, "data.csv").Return([]byte(sampleCSV), nil).Once()
	l := NewLoader(f)

	first, err := l.Load(context.Background(), "data.csv")
	require.NoError(t, err)
	second, err := l.Load(context.Background(), "data.csv")
	require.NoError(t, err)

	assert.Same(t, first, second)
	f.AssertNumberOfCalls(t, "Fetch", 1)
	assert.Equal(t, ports.LoadStateLoaded, l.Status("data.csv").State)
	assert.Equal(t, 3, l.Status("data.csv").Rows)
}

func TestLoaderConcurrentFirstLoadFetchesOnce(t *testing.T) {
	f := new(mockFetcher)
	f.On("Fetch", mock.Anything, "data.csv").Return([]byte(sampleCSV), nil)
	l := NewLoader(f)

	var wg sync.WaitGroup
	results := make([]*dataset.Dataset, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := l.Load(context.Background(), "data.csv")
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	for _, ds := range results[1:] {
		assert.Same(t, results[0], ds)
	}
	assert.LessOrEqual(t, len(f.Calls), 8)
	assert.GreaterOrEqual(t, len(f.Calls), 1)
}

func TestLoaderDoesNotCacheFailures(t *testing.T) {
	f := new(mockFetcher)
	f.On("Fetch", mock.Anything, "data.csv").Return(nil, stderrors.New("connection refused")).Once()
	f.On("Fetch", mock.Anything, "data.csv").Return([]byte(sampleCSV), nil).Once()
	l := NewLoader(f)

	_, err := l.Load(context.Background(), "data.csv")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeLoadError))
	assert.Equal(t, ports.LoadStateFailed, l.Status("data.csv").State)

	ds, err := l.Load(context.Background(), "data.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
}

func TestParseRejectsEmptyBody(t *testing.T) {
	_, err := Parse("data.csv", nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeLoadError, errors.GetCode(err))
}

func TestParseRejectsHeaderOnly(t *testing.T) {
	_, err := Parse("data.csv", []byte("EmployeeID,Attrition,Age\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeLoadError))
}

func TestStatusPendingBeforeLoad(t *testing.T) {
	l := NewLoader(new(mockFetcher))
	src := l.Bind("data.csv")
	assert.Equal(t, ports.LoadStatePending, src.Status().State)
	assert.Equal(t, "data.csv", src.Name())
}

func TestLoaderSurvivesFirstCallerCancellation(t *testing.T) {
	g := newGatedFetcher()
	l := NewLoader(g)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := l.Load(ctxA, "data.csv")
		errA <- err
	}()
	<-g.started

	type result struct {
		ds  *dataset.Dataset
		err error
	}
	resB := make(chan result, 1)
	go func() {
		ds, err := l.Load(context.Background(), "data.csv")
		resB <- result{ds, err}
	}()

	cancelA()
	require.ErrorIs(t, <-errA, context.Canceled)
	assert.Equal(t, ports.LoadStateLoading, l.Status("data.csv").State)

	close(g.release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, 3, b.ds.Len())
	assert.Equal(t, ports.LoadStateLoaded, l.Status("data.csv").State)

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.EqualValues(t, 1, g.calls)
}

func TestLoaderBoundsSharedLoad(t *testing.T) {
	g := newGatedFetcher()
	l := NewLoader(g)
	l.SetTimeout(20 * time.Millisecond)

	_, err := l.Load(context.Background(), "data.csv")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeLoadError))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, ports.LoadStateFailed, l.Status("data.csv").State)
}
