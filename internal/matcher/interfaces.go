package matcher

import (
	"context"
	"time"

	"cv-match-go/internal/storage/models"
	"cv-match-go/internal/types"

	"gorm.io/datatypes"
)

// MatchStore 匹配编排所需的持久层接口，由 *storage.MySQL 实现
type MatchStore interface {
	// 简历
	GetCVByID(ctx context.Context, cvID string) (*models.CV, error)
	ListActiveCVs(ctx context.Context, limit int) ([]models.CV, error)
	ListActiveCVsByUser(ctx context.Context, userID string) ([]models.CV, error)
	UpdateCVContent(ctx context.Context, cvID string, content string) error
	UpdateCVAnalysis(ctx context.Context, cvID string, analysis datatypes.JSON) error

	// 岗位
	GetJobByID(ctx context.Context, jobID string) (*models.Job, error)
	ListJobsByStatus(ctx context.Context, status string, limit int) ([]models.Job, error)
	ListNewestActiveJobsExcluding(ctx context.Context, excludeIDs []string, limit int) ([]models.Job, error)

	// 匹配记录
	GetMatchByPair(ctx context.Context, cvID, jobID string) (*models.Match, error)
	InsertMatchOrGetExisting(ctx context.Context, match *models.Match) (*models.Match, bool, error)
	ListMatchesForCV(ctx context.Context, cvID string, limit int) ([]models.Match, error)
	ListMatchesForJob(ctx context.Context, jobID string, limit int) ([]models.Match, error)
	EnqueueMatchScoredEvent(ctx context.Context, match *models.Match) error

	// 申请
	ListApplicationsByJob(ctx context.Context, jobID string) ([]models.Application, error)
	UpdateApplicationAnalysis(ctx context.Context, applicationID uint64, analysis datatypes.JSON) error
}

// TextStore 解析文本的对象存储接口，用于简历正文的延迟回填
type TextStore interface {
	GetParsedText(ctx context.Context, objectKey string) (string, error)
}

// RecommendCache 推荐结果缓存接口，由 *storage.Redis 实现
type RecommendCache interface {
	CacheRecommendedJobs(ctx context.Context, userID string, jobs []types.RankedJob, ttl time.Duration) error
	GetCachedRecommendedJobs(ctx context.Context, userID string) ([]types.RankedJob, error)
	InvalidateRecommendedJobs(ctx context.Context, userID string) error
}

// RateLimiter 打分调用的限流接口，由 *ratelimit.TokenBucket 实现
type RateLimiter interface {
	Wait(ctx context.Context) error
}
