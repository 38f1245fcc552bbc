package ratelimit

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const (
	// qpmHeadroom 对官方公布的配额只用九成，留出余量给时钟漂移和并发毛刺
	qpmHeadroom = 0.9
	// fallbackQPM 配置里找不到任何限额时的兜底值
	fallbackQPM = 30
)

// rateLimitedChatModel 打分模型的限流代理
// 每次 Generate/Stream 先过令牌桶，可重试错误按桶上的退避策略重试
type rateLimitedChatModel struct {
	inner  model.ToolCallingChatModel
	bucket *TokenBucket
}

// NewLLMWithRateLimit 把打分模型包进限流代理
// modelQPMLimits 记录各模型官方公布的QPM配额，命中时按 qpmHeadroom 折减；
// 未命中时退回 customQPM，两者都没有则使用兜底值
func NewLLMWithRateLimit(inner model.ToolCallingChatModel, modelName string, modelQPMLimits map[string]int, customQPM int, maxRetries int, retryWait time.Duration) model.ToolCallingChatModel {
	qpm := customQPM
	if limit, ok := modelQPMLimits[modelName]; ok && limit > 0 {
		qpm = int(float64(limit) * qpmHeadroom)
	}
	if qpm <= 0 {
		qpm = fallbackQPM
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}

	bucket := NewTokenBucket(qpm, qpm/2).WithRetryPolicy(retryWait, maxRetries)
	return &rateLimitedChatModel{inner: inner, bucket: bucket}
}

// Generate 限流后转发给内层模型
func (m *rateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	var resp *schema.Message
	err := m.bucket.RetryWithBackoff(ctx, func() error {
		var callErr error
		resp, callErr = m.inner.Generate(ctx, messages, options...)
		return callErr
	})
	return resp, err
}

// Stream 限流后转发给内层模型
func (m *rateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var stream *schema.StreamReader[*schema.Message]
	err := m.bucket.RetryWithBackoff(ctx, func() error {
		var callErr error
		stream, callErr = m.inner.Stream(ctx, messages, options...)
		return callErr
	})
	return stream, err
}

// WithTools 绑定工具后的模型沿用同一个令牌桶，配额不会因绑定而翻倍
func (m *rateLimitedChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	bound, err := m.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &rateLimitedChatModel{inner: bound, bucket: m.bucket}, nil
}
