package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLogger(t *testing.T) {
	err := InitLogger(&LogConfig{Level: "debug", Format: "json", Environment: "test", ServiceName: "tenancy-engine"})
	require.NoError(t, err)

	assert.NotNil(t, GetLogger())
	assert.True(t, GetLogger().Core().Enabled(zap.DebugLevel))
}

func TestFromContext(t *testing.T) {
	custom := zap.NewExample()
	ctx := WithContext(context.Background(), custom)

	assert.Same(t, custom, FromContext(ctx))
	assert.Same(t, GetLogger(), FromContext(context.Background()))
}
