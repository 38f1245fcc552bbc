package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"cv-match-go/internal/constants"
	"cv-match-go/internal/logger"
	"cv-match-go/internal/oracle"
	"cv-match-go/internal/storage/models"
	"cv-match-go/internal/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultConcurrency = 5
	defaultFanoutLimit = 50
)

// Matcher 匹配编排器
// 负责加载简历与岗位、调用打分器、重算组合分并原子落库；
// 组合分以编排器的计算为准，打分器自报的组合分会被覆盖
type Matcher struct {
	store       MatchStore
	scorer      oracle.Scorer
	texts       TextStore      // 可选，简历正文延迟回填
	cache       RecommendCache // 可选，推荐结果缓存
	limiter     RateLimiter    // 可选，打分限流
	concurrency int
	fanoutLimit int
}

// NewMatcher 创建匹配编排器
func NewMatcher(store MatchStore, scorer oracle.Scorer, options ...MatcherOption) *Matcher {
	m := &Matcher{
		store:       store,
		scorer:      scorer,
		concurrency: defaultConcurrency,
		fanoutLimit: defaultFanoutLimit,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// MatchOne 评估单个 (简历, 岗位) 对并持久化
// 同一对已有记录时直接返回缓存结果，不再调用打分器
func (m *Matcher) MatchOne(ctx context.Context, cvID, jobID string) (*models.Match, error) {
	cv, err := m.store.GetCVByID(ctx, cvID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newCVNotFoundError(cvID, "")
		}
		return nil, err
	}

	job, err := m.store.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newJobNotFoundError(jobID, "")
		}
		return nil, err
	}

	// 幂等短路: 该对已存在记录时不触发新的打分
	existing, err := m.store.GetMatchByPair(ctx, cvID, jobID)
	if err == nil {
		logger.Ctx(ctx).Debug().
			Str("cv_id", cvID).
			Str("job_id", jobID).
			Uint64("match_id", existing.MatchID).
			Msg("匹配记录已存在，跳过打分")
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	content, err := m.resolveCVContent(ctx, cv)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, newEmptyContentError(cvID, jobID)
	}

	weights := types.WeightPair{TechnicalWeight: job.TechnicalWeight, HRWeight: job.HRWeight}
	if !weights.Valid() {
		weights = types.DefaultWeightPair()
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	scorecard, err := m.scorer.ScoreMatch(ctx, content, jobToDetails(job), weights)
	if err != nil {
		return nil, newOracleError(cvID, jobID, err)
	}

	// 组合分以编排器为准: 各维度取四个子分的算术平均，总分按岗位权重加权
	scorecard.FinalTechnicalScore = scorecard.TechnicalMean()
	scorecard.FinalHRScore = scorecard.HRMean()
	scorecard.FinalScore = scorecard.FinalTechnicalScore*float64(weights.TechnicalWeight)/100.0 +
		scorecard.FinalHRScore*float64(weights.HRWeight)/100.0

	match := buildMatchRecord(cv, job, scorecard, weights)

	persisted, inserted, err := m.store.InsertMatchOrGetExisting(ctx, match)
	if err != nil {
		return nil, newPersistError(cvID, jobID, err)
	}

	// 新记录才对外发布事件，发布失败不影响匹配结果
	if inserted {
		if err := m.store.EnqueueMatchScoredEvent(ctx, persisted); err != nil {
			logger.Ctx(ctx).Warn().
				Err(err).
				Uint64("match_id", persisted.MatchID).
				Msg("匹配事件入队失败")
		}
	}

	logger.Ctx(ctx).Info().
		Str("cv_id", cvID).
		Str("job_id", jobID).
		Uint64("match_id", persisted.MatchID).
		Float64("final_score", persisted.FinalScore).
		Bool("inserted", inserted).
		Msg("匹配评估完成")

	return persisted, nil
}

// MatchCVAgainstJobs 将一份简历对所有活跃岗位扇出匹配
// 单项失败只记录日志并丢弃，不影响其它项；结果顺序不保证
func (m *Matcher) MatchCVAgainstJobs(ctx context.Context, cvID string) ([]*models.Match, error) {
	if _, err := m.store.GetCVByID(ctx, cvID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newCVNotFoundError(cvID, "")
		}
		return nil, err
	}

	jobs, err := m.store.ListJobsByStatus(ctx, constants.JobStatusActive, m.fanoutLimit)
	if err != nil {
		return nil, err
	}

	targets := make([]string, len(jobs))
	for i, job := range jobs {
		targets[i] = job.JobID
	}

	return m.fanout(ctx, len(targets), func(i int) (*models.Match, error) {
		return m.MatchOne(ctx, cvID, targets[i])
	})
}

// MatchJobAgainstCVs 将一个岗位对所有活跃简历扇出匹配
func (m *Matcher) MatchJobAgainstCVs(ctx context.Context, jobID string) ([]*models.Match, error) {
	if _, err := m.store.GetJobByID(ctx, jobID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newJobNotFoundError(jobID, "")
		}
		return nil, err
	}

	cvs, err := m.store.ListActiveCVs(ctx, m.fanoutLimit)
	if err != nil {
		return nil, err
	}

	targets := make([]string, len(cvs))
	for i, cv := range cvs {
		targets[i] = cv.CVID
	}

	return m.fanout(ctx, len(targets), func(i int) (*models.Match, error) {
		return m.MatchOne(ctx, targets[i], jobID)
	})
}

// fanout 有界并发地执行n个匹配任务，收集成功结果
func (m *Matcher) fanout(ctx context.Context, n int, task func(i int) (*models.Match, error)) ([]*models.Match, error) {
	if n == 0 {
		return nil, nil
	}

	results := make([]*models.Match, n)
	semaphore := make(chan struct{}, m.concurrency)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			match, err := task(idx)
			if err != nil {
				// 失败项只记录日志并丢弃
				logger.Ctx(ctx).Warn().
					Err(err).
					Int("index", idx).
					Msg("扇出匹配单项失败，已跳过")
				return
			}
			results[idx] = match
		}(i)
	}

	wg.Wait()

	succeeded := make([]*models.Match, 0, n)
	for _, r := range results {
		if r != nil {
			succeeded = append(succeeded, r)
		}
	}

	logger.Ctx(ctx).Info().
		Int("total", n).
		Int("succeeded", len(succeeded)).
		Msg("扇出匹配完成")

	return succeeded, nil
}

// resolveCVContent 取简历正文；正文为空但有解析文本对象键时从对象存储回填
func (m *Matcher) resolveCVContent(ctx context.Context, cv *models.CV) (string, error) {
	if strings.TrimSpace(cv.Content) != "" {
		return cv.Content, nil
	}
	if m.texts == nil || cv.ParsedTextPath == "" {
		return cv.Content, nil
	}

	text, err := m.texts.GetParsedText(ctx, cv.ParsedTextPath)
	if err != nil {
		logger.Ctx(ctx).Warn().
			Err(err).
			Str("cv_id", cv.CVID).
			Str("object_key", cv.ParsedTextPath).
			Msg("从对象存储回填简历正文失败")
		return cv.Content, nil
	}

	if strings.TrimSpace(text) != "" {
		if err := m.store.UpdateCVContent(ctx, cv.CVID, text); err != nil {
			logger.Ctx(ctx).Warn().
				Err(err).
				Str("cv_id", cv.CVID).
				Msg("写回简历正文失败")
		}
	}
	return text, nil
}

// buildMatchRecord 把打分结果组装成待持久化的匹配记录
func buildMatchRecord(cv *models.CV, job *models.Job, sc *types.Scorecard, weights types.WeightPair) *models.Match {
	return &models.Match{
		CVID:        cv.CVID,
		JobID:       job.JobID,
		CandidateID: cv.UserID,
		EmployerID:  job.EmployerID,

		TechnicalSkillsScore:   sc.TechnicalSkillsScore,
		ProjectExperienceScore: sc.ProjectExperienceScore,
		ProblemSolvingScore:    sc.ProblemSolvingScore,
		LearningAgilityScore:   sc.LearningAgilityScore,

		CommunicationScore: sc.CommunicationScore,
		TeamworkScore:      sc.TeamworkScore,
		MotivationScore:    sc.MotivationScore,
		AdaptabilityScore:  sc.AdaptabilityScore,

		FinalTechnicalScore: sc.FinalTechnicalScore,
		FinalHRScore:        sc.FinalHRScore,
		FinalScore:          sc.FinalScore,
		LanguageLevelScore:  sc.LanguageLevelScore,

		GeneralRecommendation: sc.GeneralRecommendation,
		Strengths:             toJSONList(sc.Strengths),
		Weaknesses:            toJSONList(sc.Weaknesses),
		AICommentary:          sc.AICommentary,

		// 权重审计: 记录匹配时刻实际使用的权重
		TechnicalWeightUsed: weights.TechnicalWeight,
		HRWeightUsed:        weights.HRWeight,

		Status:    constants.MatchStatusPending,
		MatchedAt: time.Now(),
	}
}

// jobToDetails 把岗位记录序列化为打分请求里的岗位字段
func jobToDetails(job *models.Job) *types.JobDetails {
	return &types.JobDetails{
		Title:            job.Title,
		Company:          job.Company,
		Location:         job.Location,
		Description:      job.Description,
		Requirements:     fromJSONList(job.Requirements),
		Responsibilities: fromJSONList(job.Responsibilities),
		EmploymentType:   job.EmploymentType,
		ExperienceLevel:  job.ExperienceLevel,
	}
}

// toJSONList 把字符串列表编码为JSON列
func toJSONList(items []string) datatypes.JSON {
	if len(items) == 0 {
		return datatypes.JSON("[]")
	}
	data, err := json.Marshal(items)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}

// fromJSONList 把JSON列解码为字符串列表，解码失败时返回nil
func fromJSONList(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	return items
}
