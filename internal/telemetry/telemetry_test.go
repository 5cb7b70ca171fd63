package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderRequiresServiceName(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{}, nil)
	assert.Error(t, err)
}

func TestNewProviderDefaultsToStdoutExporter(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{ServiceName: "intentd-test"}, nil)
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	assert.NotNil(t, p.Tracer())

	_, span := p.StartSpan(context.Background(), "test-span")
	span.End()
}

func TestShutdownIsIdempotent(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{ServiceName: "intentd-test"}, nil)
	require.NoError(t, err)

	require.NoError(t, p.Shutdown(context.Background()))
	require.NoError(t, p.Shutdown(context.Background()))
}
