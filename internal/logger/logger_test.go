package logger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxOnBareContextIsDisabled(t *testing.T) {
	// 未经 WithContext 包装的上下文取到的是禁用日志器，写入会被丢弃
	l := Ctx(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, zerolog.Disabled, l.GetLevel())
}

func TestWithContextCarriesGlobalLogger(t *testing.T) {
	Init(Config{Level: "info", Format: "json"})

	ctx := WithContext(context.Background())
	l := Ctx(ctx)

	require.NotNil(t, l)
	assert.NotEqual(t, zerolog.Disabled, l.GetLevel())
	assert.Equal(t, Logger.GetLevel(), l.GetLevel())
}
