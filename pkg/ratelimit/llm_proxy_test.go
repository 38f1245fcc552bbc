package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChatModel 前failTimes次调用返回err，之后成功
type stubChatModel struct {
	calls     int
	failTimes int
	err       error
}

func (s *stubChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	s.calls++
	if s.calls <= s.failTimes {
		return nil, s.err
	}
	return &schema.Message{Role: schema.Assistant, Content: "ok"}, nil
}

func (s *stubChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported in stub")
}

func (s *stubChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return s, nil
}

func TestProxyRetriesTransientFailure(t *testing.T) {
	stub := &stubChatModel{failTimes: 2, err: errors.New("429 Too Many Requests")}
	limited := NewLLMWithRateLimit(stub, "qwen-plus", nil, 600, 3, time.Millisecond)

	resp, err := limited.Generate(context.Background(), []*schema.Message{schema.UserMessage("打分")})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, stub.calls)
}

func TestProxyDoesNotRetryFatalFailure(t *testing.T) {
	stub := &stubChatModel{failTimes: 10, err: errors.New("invalid api key")}
	limited := NewLLMWithRateLimit(stub, "qwen-plus", nil, 600, 3, time.Millisecond)

	_, err := limited.Generate(context.Background(), []*schema.Message{schema.UserMessage("打分")})

	require.Error(t, err)
	assert.Equal(t, 1, stub.calls)
}

func TestProxyPrefersPublishedModelLimit(t *testing.T) {
	// 配额表命中时customQPM被忽略；这里只验证代理仍可正常调用
	stub := &stubChatModel{}
	limits := map[string]int{"qwen-plus": 1200}
	limited := NewLLMWithRateLimit(stub, "qwen-plus", limits, 0, 0, time.Millisecond)

	_, err := limited.Generate(context.Background(), []*schema.Message{schema.UserMessage("打分")})

	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
}
