package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attritionboard/adapters/synthetic"
	"attritionboard/internal/config"
	"attritionboard/ports"
)

func testConfig() *config.Config {
	return &config.Config{
		Data: config.DataConfig{Source: synthetic.Scheme + "attrition"},
		Fetch: config.FetchConfig{
			Timeout:          time.Second,
			RetryMaxAttempts: 1,
			RetryBaseDelay:   time.Millisecond,
			RetryMaxDelay:    time.Millisecond,
		},
	}
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestContainerServesSyntheticSource(t *testing.T) {
	c, err := New(testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Attrition", c.Profile.ResponseColumn)

	c.Warm(context.Background())
	require.Eventually(t, func() bool {
		return c.Source.Status().State == ports.LoadStateLoaded
	}, 5*time.Second, 10*time.Millisecond)

	ds, err := c.Source.Dataset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, synthetic.DefaultConfig().EmployeeCount, ds.Len())
}
