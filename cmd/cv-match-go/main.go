package main

import (
	"context"
	"encoding/json"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cv-match-go/internal/config"
	"cv-match-go/internal/logger"
	"cv-match-go/internal/matcher"
	"cv-match-go/internal/oracle"
	"cv-match-go/internal/outbox"
	"cv-match-go/internal/storage"
	"cv-match-go/internal/tracing"
	"cv-match-go/pkg/ratelimit"

	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		stdlog.Fatalf("加载配置失败: %v", err)
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	logger.Info().Str("config", configPath).Msg("配置加载成功")

	// 根上下文携带全局日志器，消费者与引擎内部经 logger.Ctx 取用
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()

	// 链路追踪
	if cfg.Tracing.Enabled {
		shutdownTracing, err := tracing.InitTracerProvider(ctx,
			cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			logger.Fatal().Err(err).Msg("初始化链路追踪失败")
		}
		defer func() {
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := shutdownTracing(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("关闭链路追踪失败")
			}
		}()
		logger.Info().Str("endpoint", cfg.Tracing.Endpoint).Msg("链路追踪已启用")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()
	logger.Info().Msg("存储服务初始化成功")

	if storageManager.MySQL == nil {
		logger.Fatal().Msg("MySQL是必需的存储组件")
	}

	// 打分模型: OpenAI兼容端点 + QPM限流代理
	scoreTimeout := config.GetDuration(cfg.Scorer.ScoreTimeout, 60*time.Second)
	chatModel, err := oracle.NewOpenAIChatModel(
		cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.APIURL,
		oracle.WithTemperature(cfg.Scorer.Temperature),
		oracle.WithMaxTokens(cfg.Scorer.MaxTokens),
		oracle.WithHTTPTimeout(scoreTimeout),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化打分模型失败")
	}
	limitedModel := ratelimit.NewLLMWithRateLimit(
		chatModel, cfg.Oracle.Model, cfg.ModelQPMLimits,
		cfg.Scorer.QPM, cfg.Scorer.MaxRetries,
		time.Duration(cfg.Scorer.RetryWaitSeconds)*time.Second,
	)

	var scorerLogger *stdlog.Logger
	if cfg.Logger.Level == "debug" {
		scorerLogger = stdlog.New(os.Stderr, "[Scorer] ", stdlog.LstdFlags)
	} else {
		scorerLogger = stdlog.New(io.Discard, "", 0)
	}

	var scorerOptions []oracle.LLMScorerOption
	if cfg.Scorer.PromptTemplate != "" {
		scorerOptions = append(scorerOptions, oracle.WithCustomPromptTemplate(cfg.Scorer.PromptTemplate))
	}
	scorer := oracle.NewLLMScorer(limitedModel, scorerLogger, scorerOptions...)
	logger.Info().Str("model", cfg.Oracle.Model).Msg("打分器初始化成功")

	// 匹配编排器
	matcherOptions := []matcher.MatcherOption{
		matcher.WithFanoutConcurrency(cfg.Matcher.FanoutConcurrency),
		matcher.WithFanoutLimit(cfg.Matcher.FanoutJobLimit),
	}
	if storageManager.MinIO != nil {
		matcherOptions = append(matcherOptions, matcher.WithTextStore(storageManager.MinIO))
	}
	if storageManager.Redis != nil {
		matcherOptions = append(matcherOptions, matcher.WithRecommendCache(storageManager.Redis))
	}
	if cfg.Scorer.QPM > 0 {
		matcherOptions = append(matcherOptions,
			matcher.WithRateLimiter(ratelimit.NewTokenBucket(cfg.Scorer.QPM, 0)))
	}
	engine := matcher.NewMatcher(storageManager.MySQL, scorer, matcherOptions...)
	logger.Info().Msg("匹配编排器初始化成功")

	// 发件箱中继
	var relay *outbox.MessageRelay
	if storageManager.RabbitMQ != nil {
		relay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ)
		relay.Start()
	}

	// 匹配事件消费者
	if storageManager.RabbitMQ != nil {
		startConsumers(ctx, cfg, storageManager, engine)
	} else {
		logger.Warn().Msg("RabbitMQ未配置，不启动事件消费者")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	if relay != nil {
		relay.Stop()
	}
	cancel()
	logger.Info().Msg("优雅退出完成")
}

// startConsumers 启动两个方向的扇出匹配消费者
func startConsumers(ctx context.Context, cfg *config.Config, storageManager *storage.Storage, engine *matcher.Matcher) {
	prefetch := cfg.RabbitMQ.PrefetchCount
	if prefetch <= 0 {
		prefetch = 10
	}

	_, err := storageManager.RabbitMQ.StartConsumer(cfg.RabbitMQ.CVMatchingQueue, prefetch, func(body []byte) bool {
		var msg storage.CVUploadedMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			logger.Error().Err(err).Msg("解析简历上传事件失败，丢弃消息")
			return true
		}

		// 上传时先留一份独立分析快照，失败不阻塞后续扇出
		if _, err := engine.AnalyzeCVSnapshot(ctx, msg.CVID); err != nil {
			logger.Warn().Err(err).Str("cv_id", msg.CVID).Msg("简历独立分析失败")
		}

		matches, err := engine.MatchCVAgainstJobs(ctx, msg.CVID)
		if err != nil {
			logger.Error().Err(err).Str("cv_id", msg.CVID).Msg("简历扇出匹配失败")
			return false
		}
		logger.Info().
			Str("cv_id", msg.CVID).
			Int("matches", len(matches)).
			Msg("简历扇出匹配完成")

		// 新匹配产生后用户的推荐缓存过期
		if storageManager.Redis != nil && msg.UserID != "" {
			if err := storageManager.Redis.InvalidateRecommendedJobs(ctx, msg.UserID); err != nil {
				logger.Warn().Err(err).Str("user_id", msg.UserID).Msg("推荐缓存失效操作失败")
			}
		}
		return true
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("启动简历匹配消费者失败")
	}
	logger.Info().Str("queue", cfg.RabbitMQ.CVMatchingQueue).Msg("简历匹配消费者已启动")

	_, err = storageManager.RabbitMQ.StartConsumer(cfg.RabbitMQ.JobMatchingQueue, prefetch, func(body []byte) bool {
		var msg storage.JobCreatedMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			logger.Error().Err(err).Msg("解析岗位创建事件失败，丢弃消息")
			return true
		}

		matches, err := engine.MatchJobAgainstCVs(ctx, msg.JobID)
		if err != nil {
			logger.Error().Err(err).Str("job_id", msg.JobID).Msg("岗位扇出匹配失败")
			return false
		}
		logger.Info().
			Str("job_id", msg.JobID).
			Int("matches", len(matches)).
			Msg("岗位扇出匹配完成")
		return true
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("启动岗位匹配消费者失败")
	}
	logger.Info().Str("queue", cfg.RabbitMQ.JobMatchingQueue).Msg("岗位匹配消费者已启动")
}
