package constants

import "time"

// 岗位状态
const (
	JobStatusDraft    = "draft"
	JobStatusActive   = "active"
	JobStatusClosed   = "closed"
	JobStatusArchived = "archived"
)

// 匹配记录状态
const (
	MatchStatusPending   = "pending"
	MatchStatusViewed    = "viewed"
	MatchStatusContacted = "contacted"
	MatchStatusRejected  = "rejected"
	MatchStatusArchived  = "archived"
)

// 打分器固定的三个推荐标签
const (
	RecommendationInterview       = "interview"
	RecommendationTechnicalReview = "needs-technical-review"
	RecommendationNotSuitable     = "not-suitable"
)

// RecommendationManualReview 批量分析降级时的建议文案，指向人工复核
const RecommendationManualReview = "oracle-failed: manual review required"

// 批量分析的默认回填值
const (
	DefaultFinalScore     = 70.0 // final_score 缺失时
	DefaultTechnicalScore = 70.0 // final_technical_score 缺失时
	DefaultHRScore        = 65.0 // final_hr_score 缺失时
	DegradedScore         = 50.0 // 打分器整体失败时的三个组合分
	// CommentaryPlaceholder 评语缺失时的占位文本
	CommentaryPlaceholder = "commentary unavailable"
)

// MaxScannedSkills 技能参考词表扫描时最多保留的命中数
const MaxScannedSkills = 5

// 其它应用级常量
const (
	DefaultRecommendLimit = 10              // 推荐视图默认条数
	DefaultTopCVLimit     = 20              // 岗位视角默认条数
	RecommendCacheTTL     = 5 * time.Minute // 推荐结果缓存时长
	PrimaryLockTTL        = 5 * time.Second // 主简历切换锁时长
)
