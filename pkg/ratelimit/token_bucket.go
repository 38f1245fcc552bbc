package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"
)

// TokenBucket 按QPM对打分模型调用限流的令牌桶
// 桶容量决定允许的突发量，令牌按固定速率持续补充
type TokenBucket struct {
	mu         sync.Mutex
	ratePerSec float64
	capacity   float64
	tokens     float64
	lastRefill time.Time

	retryWait  time.Duration
	maxRetries int
}

// NewTokenBucket 按每分钟配额创建限流器
// capacity不大于0时默认为QPM的一半，至少为1
func NewTokenBucket(qpm int, capacity int) *TokenBucket {
	if capacity <= 0 {
		if capacity = qpm / 2; capacity <= 0 {
			capacity = 1
		}
	}
	return &TokenBucket{
		ratePerSec: float64(qpm) / 60.0,
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		lastRefill: time.Now(),
		retryWait:  time.Second,
		maxRetries: 3,
	}
}

// WithRetryPolicy 调整 RetryWithBackoff 的基础等待时间与重试上限
func (tb *TokenBucket) WithRetryPolicy(wait time.Duration, maxRetries int) *TokenBucket {
	tb.retryWait = wait
	tb.maxRetries = maxRetries
	return tb
}

// refill 把上次补充以来应得的令牌加入桶中，调用方需持锁
func (tb *TokenBucket) refill() {
	now := time.Now()
	tb.tokens += now.Sub(tb.lastRefill).Seconds() * tb.ratePerSec
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// Allow 非阻塞地尝试取一个令牌
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens < 1.0 {
		return false
	}
	tb.tokens--
	return true
}

// Wait 阻塞到取得一个令牌或上下文结束
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		tb.refill()
		if tb.tokens >= 1.0 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		// 补满一个令牌所需的时间
		wait := time.Duration((1.0 - tb.tokens) / tb.ratePerSec * float64(time.Second))
		tb.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RetryWithBackoff 限流执行fn，对可重试错误做指数退避重试
// 不可重试的错误(如鉴权失败、契约问题)立刻返回，不消耗重试次数
func (tb *TokenBucket) RetryWithBackoff(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = tb.Wait(ctx); err != nil {
			return err
		}
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= tb.maxRetries || !isRetryableError(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(tb.retryWait * time.Duration(1<<uint(attempt))):
		}
	}
}

// retryableSnippets 模型端点返回这类错误时重试有意义，其余一律快速失败
var retryableSnippets = []string{
	"timeout",
	"deadline exceeded",
	"connection reset",
	"connection refused",
	"EOF",
	"no such host",
	"429 Too Many Requests",
	"rate limit",
	"服务器繁忙",
	"请求超过限额",
	"QPS限制",
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, snippet := range retryableSnippets {
		if strings.Contains(msg, snippet) {
			return true
		}
	}
	return false
}
