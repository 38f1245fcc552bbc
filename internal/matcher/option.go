package matcher

// MatcherOption 匹配编排器的配置选项
type MatcherOption func(*Matcher)

// WithTextStore 设置解析文本对象存储，启用简历正文延迟回填
func WithTextStore(texts TextStore) MatcherOption {
	return func(m *Matcher) {
		m.texts = texts
	}
}

// WithRecommendCache 设置推荐结果缓存
func WithRecommendCache(cache RecommendCache) MatcherOption {
	return func(m *Matcher) {
		m.cache = cache
	}
}

// WithRateLimiter 设置打分调用的限流器
func WithRateLimiter(limiter RateLimiter) MatcherOption {
	return func(m *Matcher) {
		m.limiter = limiter
	}
}

// WithFanoutConcurrency 设置扇出匹配的并发上限
func WithFanoutConcurrency(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithFanoutLimit 设置单次扇出最多评估的对侧实体数
func WithFanoutLimit(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.fanoutLimit = n
		}
	}
}
