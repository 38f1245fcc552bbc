package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"cv-match-go/internal/constants"
	"cv-match-go/internal/logger"
	"cv-match-go/internal/storage/models"
	"cv-match-go/internal/types"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// skillVocabulary 批量分析的技能参考词表
// 打分器未返回技能列表时，在简历正文里扫描这些词作为兜底
var skillVocabulary = []string{
	"Go", "Golang", "Java", "Python", "TypeScript", "JavaScript", "Rust", "C++",
	"MySQL", "PostgreSQL", "Redis", "MongoDB", "Elasticsearch",
	"Kafka", "RabbitMQ", "gRPC", "GraphQL",
	"Docker", "Kubernetes", "Terraform", "AWS", "GCP",
	"Linux", "Git", "CI/CD", "React", "Vue",
}

// ValidateAndDefault 校验打分结果的组合分与评语，缺失或越界的字段回填固定默认值
// 任一字段被回填时 Degraded=true 并在 Reason 里说明
func ValidateAndDefault(sc *types.Scorecard) types.ValidatedScorecard {
	out := types.ValidatedScorecard{Scorecard: *sc}
	var reasons []string

	if sc.FinalScore <= 0 || sc.FinalScore > 100 {
		out.Scorecard.FinalScore = constants.DefaultFinalScore
		reasons = append(reasons, "final_score缺失或越界")
	}
	if sc.FinalTechnicalScore <= 0 || sc.FinalTechnicalScore > 100 {
		out.Scorecard.FinalTechnicalScore = constants.DefaultTechnicalScore
		reasons = append(reasons, "final_technical_score缺失或越界")
	}
	if sc.FinalHRScore <= 0 || sc.FinalHRScore > 100 {
		out.Scorecard.FinalHRScore = constants.DefaultHRScore
		reasons = append(reasons, "final_hr_score缺失或越界")
	}
	if strings.TrimSpace(sc.AICommentary) == "" {
		out.Scorecard.AICommentary = constants.CommentaryPlaceholder
		reasons = append(reasons, "ai_commentary缺失")
	}

	if len(reasons) > 0 {
		out.Degraded = true
		out.Reason = strings.Join(reasons, "; ")
	}
	return out
}

// AnalyzeCVSnapshot 对简历做不针对具体岗位的独立分析，评分快照写回简历记录
// 快照回写失败只记日志，分析结果照常返回
func (m *Matcher) AnalyzeCVSnapshot(ctx context.Context, cvID string) (*types.Scorecard, error) {
	cv, err := m.store.GetCVByID(ctx, cvID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newCVNotFoundError(cvID, "")
		}
		return nil, err
	}

	content, err := m.resolveCVContent(ctx, cv)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, newEmptyContentError(cvID, "")
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	scorecard, err := m.scorer.AnalyzeCV(ctx, content)
	if err != nil {
		return nil, newOracleError(cvID, "", err)
	}

	validated := ValidateAndDefault(scorecard)
	snapshot := struct {
		types.Scorecard
		Degraded   bool  `json:"degraded,omitempty"`
		AnalyzedAt int64 `json:"analyzed_at"`
	}{validated.Scorecard, validated.Degraded, time.Now().Unix()}

	if data, err := json.Marshal(snapshot); err == nil {
		if err := m.store.UpdateCVAnalysis(ctx, cvID, datatypes.JSON(data)); err != nil {
			logger.Ctx(ctx).Warn().
				Err(err).
				Str("cv_id", cvID).
				Msg("独立分析快照回写失败")
		}
	}

	logger.Ctx(ctx).Info().
		Str("cv_id", cvID).
		Float64("final_score", validated.Scorecard.FinalScore).
		Bool("degraded", validated.Degraded).
		Msg("简历独立分析完成")

	return &validated.Scorecard, nil
}

// AnalyzeApplications 批量分析一个岗位的全部申请
// 单条申请的失败不会中断批次: 打分失败的条目合成降级报告并标记 Error，
// 每条报告同时快照回写到申请记录上；结果按匹配分倒序
func (m *Matcher) AnalyzeApplications(ctx context.Context, jobID string) ([]types.AnalysisReport, error) {
	job, err := m.store.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newJobNotFoundError(jobID, "")
		}
		return nil, err
	}

	apps, err := m.store.ListApplicationsByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return []types.AnalysisReport{}, nil
	}

	weights := types.WeightPair{TechnicalWeight: job.TechnicalWeight, HRWeight: job.HRWeight}
	if !weights.Valid() {
		weights = types.DefaultWeightPair()
	}
	details := jobToDetails(job)

	reports := make([]types.AnalysisReport, 0, len(apps))
	for i := range apps {
		app := &apps[i]

		content := ""
		if app.CV != nil {
			content = app.CV.Content
		}
		if strings.TrimSpace(content) == "" {
			logger.Ctx(ctx).Warn().
				Uint64("application_id", app.ApplicationID).
				Str("cv_id", app.CVID).
				Msg("申请关联的简历正文为空，跳过分析")
			continue
		}

		report := m.analyzeOne(ctx, app, content, details, weights)
		m.persistReport(ctx, app.ApplicationID, &report)
		reports = append(reports, report)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].MatchScore > reports[j].MatchScore
	})

	logger.Ctx(ctx).Info().
		Str("job_id", jobID).
		Int("applications", len(apps)).
		Int("reports", len(reports)).
		Msg("批量申请分析完成")

	return reports, nil
}

// analyzeOne 分析单条申请，打分失败时合成降级报告
func (m *Matcher) analyzeOne(ctx context.Context, app *models.Application, content string, details *types.JobDetails, weights types.WeightPair) types.AnalysisReport {
	report := types.AnalysisReport{
		ApplicationID: app.ApplicationID,
		CVID:          app.CVID,
		ApplicantID:   app.ApplicantID,
		AnalyzedAt:    time.Now().Unix(),
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return degradedReport(report, err)
		}
	}

	scorecard, err := m.scorer.ScoreMatch(ctx, content, details, weights)
	if err != nil {
		logger.Ctx(ctx).Warn().
			Err(err).
			Uint64("application_id", app.ApplicationID).
			Msg("申请打分失败，合成降级报告")
		return degradedReport(report, err)
	}

	validated := ValidateAndDefault(scorecard)
	if validated.Degraded {
		logger.Ctx(ctx).Debug().
			Uint64("application_id", app.ApplicationID).
			Str("reason", validated.Reason).
			Msg("打分结果部分字段已回填默认值")
	}

	sc := validated.Scorecard
	report.MatchScore = sc.FinalScore
	report.FinalTechnicalScore = sc.FinalTechnicalScore
	report.FinalHRScore = sc.FinalHRScore
	report.GeneralRecommendation = sc.GeneralRecommendation
	report.Strengths = sc.Strengths
	report.Weaknesses = sc.Weaknesses
	report.AICommentary = sc.AICommentary
	report.Degraded = validated.Degraded

	report.Skills = sc.Skills
	if len(report.Skills) == 0 {
		report.Skills = scanSkills(content)
	}
	return report
}

// degradedReport 打分器整体失败时的固定降级条目
func degradedReport(report types.AnalysisReport, cause error) types.AnalysisReport {
	report.MatchScore = constants.DegradedScore
	report.FinalTechnicalScore = constants.DegradedScore
	report.FinalHRScore = constants.DegradedScore
	report.GeneralRecommendation = constants.RecommendationManualReview
	report.AICommentary = constants.CommentaryPlaceholder
	report.Degraded = true
	report.Error = true
	report.ErrorMessage = cause.Error()
	return report
}

// persistReport 把报告快照写回申请记录，失败只记日志不影响批次
func (m *Matcher) persistReport(ctx context.Context, applicationID uint64, report *types.AnalysisReport) {
	data, err := json.Marshal(report)
	if err != nil {
		logger.Ctx(ctx).Warn().
			Err(err).
			Uint64("application_id", applicationID).
			Msg("分析报告序列化失败")
		return
	}
	if err := m.store.UpdateApplicationAnalysis(ctx, applicationID, datatypes.JSON(data)); err != nil {
		logger.Ctx(ctx).Warn().
			Err(err).
			Uint64("application_id", applicationID).
			Msg("分析报告快照回写失败")
	}
}

// scanSkills 在简历正文里扫描参考词表，最多保留 MaxScannedSkills 个命中
func scanSkills(content string) []string {
	lowered := strings.ToLower(content)
	var found []string
	for _, skill := range skillVocabulary {
		if strings.Contains(lowered, strings.ToLower(skill)) {
			found = append(found, skill)
			if len(found) >= constants.MaxScannedSkills {
				break
			}
		}
	}
	return found
}
