package matcher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"cv-match-go/internal/constants"
	"cv-match-go/internal/storage/models"
	"cv-match-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *mockStore) addApplication(appID uint64, jobID, applicantID, cvContent string) {
	cvID := "cv-app-" + applicantID
	s.apps = append(s.apps, models.Application{
		ApplicationID: appID,
		JobID:         jobID,
		ApplicantID:   applicantID,
		CVID:          cvID,
		CV:            &models.CV{CVID: cvID, UserID: applicantID, Content: cvContent},
	})
}

func TestValidateAndDefault(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(sc *types.Scorecard)
		wantDegraded bool
		check        func(t *testing.T, out types.ValidatedScorecard)
	}{
		{
			name:         "完整结果原样通过",
			mutate:       func(sc *types.Scorecard) {},
			wantDegraded: false,
			check: func(t *testing.T, out types.ValidatedScorecard) {
				assert.Equal(t, 81.0, out.Scorecard.FinalScore)
			},
		},
		{
			name:         "总分缺失回填70",
			mutate:       func(sc *types.Scorecard) { sc.FinalScore = 0 },
			wantDegraded: true,
			check: func(t *testing.T, out types.ValidatedScorecard) {
				assert.Equal(t, constants.DefaultFinalScore, out.Scorecard.FinalScore)
			},
		},
		{
			name:         "技术分越界回填70",
			mutate:       func(sc *types.Scorecard) { sc.FinalTechnicalScore = 140 },
			wantDegraded: true,
			check: func(t *testing.T, out types.ValidatedScorecard) {
				assert.Equal(t, constants.DefaultTechnicalScore, out.Scorecard.FinalTechnicalScore)
			},
		},
		{
			name:         "行为分缺失回填65",
			mutate:       func(sc *types.Scorecard) { sc.FinalHRScore = 0 },
			wantDegraded: true,
			check: func(t *testing.T, out types.ValidatedScorecard) {
				assert.Equal(t, constants.DefaultHRScore, out.Scorecard.FinalHRScore)
			},
		},
		{
			name:         "评语缺失回填占位文本",
			mutate:       func(sc *types.Scorecard) { sc.AICommentary = "  " },
			wantDegraded: true,
			check: func(t *testing.T, out types.ValidatedScorecard) {
				assert.Equal(t, constants.CommentaryPlaceholder, out.Scorecard.AICommentary)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := baseScorecard()
			sc.FinalTechnicalScore = 75
			sc.FinalHRScore = 95
			sc.FinalScore = 81
			tt.mutate(&sc)

			out := ValidateAndDefault(&sc)

			assert.Equal(t, tt.wantDegraded, out.Degraded)
			tt.check(t, out)
		})
	}
}

func TestAnalyzeApplicationsBatchResilience(t *testing.T) {
	store := newMockStore()
	store.addJob(activeJob("job-1", 70, 30))
	store.addApplication(1, "job-1", "user-a", "正常简历A，精通Go")
	store.addApplication(2, "job-1", "user-b", "坏简历")
	store.addApplication(3, "job-1", "user-c", "正常简历C，精通Go")

	sc := baseScorecard()
	sc.FinalTechnicalScore = 75
	sc.FinalHRScore = 95
	sc.FinalScore = 81
	scorer := &mockScorer{
		scorecard: sc,
		failWhen: func(cvText string) error {
			if cvText == "坏简历" {
				return errors.New("model unavailable")
			}
			return nil
		},
	}

	m := NewMatcher(store, scorer)
	reports, err := m.AnalyzeApplications(context.Background(), "job-1")

	require.NoError(t, err)
	require.Len(t, reports, 3)

	// 按匹配分倒序，降级条目(50分)排在最后
	degraded := reports[2]
	assert.True(t, degraded.Error)
	assert.True(t, degraded.Degraded)
	assert.Equal(t, constants.DegradedScore, degraded.MatchScore)
	assert.Equal(t, constants.DegradedScore, degraded.FinalTechnicalScore)
	assert.Equal(t, constants.DegradedScore, degraded.FinalHRScore)
	assert.Equal(t, constants.RecommendationManualReview, degraded.GeneralRecommendation)
	assert.Contains(t, degraded.ErrorMessage, "model unavailable")

	for _, ok := range reports[:2] {
		assert.False(t, ok.Error)
		assert.Equal(t, 81.0, ok.MatchScore)
	}

	// 三条报告都应快照回写
	assert.Len(t, store.analyses, 3)
}

func TestAnalyzeApplicationsSnapshotRoundTrip(t *testing.T) {
	store := newMockStore()
	store.addJob(activeJob("job-1", 70, 30))
	store.addApplication(7, "job-1", "user-a", "精通Go与Redis")

	sc := baseScorecard()
	sc.FinalTechnicalScore = 75
	sc.FinalHRScore = 95
	sc.FinalScore = 81
	m := NewMatcher(store, &mockScorer{scorecard: sc})

	_, err := m.AnalyzeApplications(context.Background(), "job-1")
	require.NoError(t, err)

	var snapshot types.AnalysisReport
	require.NoError(t, json.Unmarshal(store.analyses[7], &snapshot))
	assert.Equal(t, uint64(7), snapshot.ApplicationID)
	assert.Equal(t, 81.0, snapshot.MatchScore)
	assert.NotZero(t, snapshot.AnalyzedAt)
}

func TestAnalyzeApplicationsSkipsEmptyCV(t *testing.T) {
	store := newMockStore()
	store.addJob(activeJob("job-1", 70, 30))
	store.addApplication(1, "job-1", "user-a", "   ")
	store.addApplication(2, "job-1", "user-b", "正常简历")

	sc := baseScorecard()
	sc.FinalScore = 81
	sc.FinalTechnicalScore = 75
	sc.FinalHRScore = 95
	scorer := &mockScorer{scorecard: sc}

	m := NewMatcher(store, scorer)
	reports, err := m.AnalyzeApplications(context.Background(), "job-1")

	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, uint64(2), reports[0].ApplicationID)
	assert.Equal(t, 1, scorer.callCount())
	// 被跳过的申请不写快照
	_, ok := store.analyses[1]
	assert.False(t, ok)
}

func TestAnalyzeApplicationsJobNotFound(t *testing.T) {
	store := newMockStore()
	m := NewMatcher(store, &mockScorer{scorecard: baseScorecard()})

	_, err := m.AnalyzeApplications(context.Background(), "job-missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestAnalyzeApplicationsEmptyBatch(t *testing.T) {
	store := newMockStore()
	store.addJob(activeJob("job-1", 70, 30))
	m := NewMatcher(store, &mockScorer{scorecard: baseScorecard()})

	reports, err := m.AnalyzeApplications(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestAnalyzeApplicationsPrefersOracleSkills(t *testing.T) {
	store := newMockStore()
	store.addJob(activeJob("job-1", 70, 30))
	store.addApplication(1, "job-1", "user-a", "精通Go与Redis")

	sc := baseScorecard()
	sc.FinalScore = 81
	sc.FinalTechnicalScore = 75
	sc.FinalHRScore = 95
	sc.Skills = []string{"Kotlin", "Swift"}
	m := NewMatcher(store, &mockScorer{scorecard: sc})

	reports, err := m.AnalyzeApplications(context.Background(), "job-1")

	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, []string{"Kotlin", "Swift"}, reports[0].Skills)
}

func TestAnalyzeApplicationsFallsBackToSkillScan(t *testing.T) {
	store := newMockStore()
	store.addJob(activeJob("job-1", 70, 30))
	store.addApplication(1, "job-1", "user-a", "精通Go和Redis，熟悉Docker部署")

	sc := baseScorecard()
	sc.FinalScore = 81
	sc.FinalTechnicalScore = 75
	sc.FinalHRScore = 95
	m := NewMatcher(store, &mockScorer{scorecard: sc})

	reports, err := m.AnalyzeApplications(context.Background(), "job-1")

	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, []string{"Go", "Redis", "Docker"}, reports[0].Skills)
}

func TestAnalyzeCVSnapshotPersists(t *testing.T) {
	store := newMockStore()
	store.addCV(activeCV("cv-1", "user-1", "Go后端简历全文"))

	sc := baseScorecard()
	sc.FinalTechnicalScore = 75
	sc.FinalHRScore = 95
	sc.FinalScore = 81
	m := NewMatcher(store, &mockScorer{scorecard: sc})

	out, err := m.AnalyzeCVSnapshot(context.Background(), "cv-1")

	require.NoError(t, err)
	assert.Equal(t, 81.0, out.FinalScore)

	var snapshot map[string]interface{}
	require.NoError(t, json.Unmarshal(store.cvAnalyses["cv-1"], &snapshot))
	assert.Equal(t, 81.0, snapshot["final_score"])
	assert.NotZero(t, snapshot["analyzed_at"])
}

func TestAnalyzeCVSnapshotDefaultsMissingFields(t *testing.T) {
	store := newMockStore()
	store.addCV(activeCV("cv-1", "user-1", "简历全文"))

	// 打分器没给组合分，应回填默认值而不是报错
	m := NewMatcher(store, &mockScorer{scorecard: baseScorecard()})

	out, err := m.AnalyzeCVSnapshot(context.Background(), "cv-1")

	require.NoError(t, err)
	assert.Equal(t, constants.DefaultFinalScore, out.FinalScore)
	assert.Equal(t, constants.DefaultTechnicalScore, out.FinalTechnicalScore)
	assert.Equal(t, constants.DefaultHRScore, out.FinalHRScore)
}

func TestAnalyzeCVSnapshotCVNotFound(t *testing.T) {
	m := NewMatcher(newMockStore(), &mockScorer{scorecard: baseScorecard()})

	_, err := m.AnalyzeCVSnapshot(context.Background(), "cv-missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCVNotFound)
}

func TestAnalyzeCVSnapshotEmptyContent(t *testing.T) {
	store := newMockStore()
	store.addCV(activeCV("cv-1", "user-1", " "))
	scorer := &mockScorer{scorecard: baseScorecard()}
	m := NewMatcher(store, scorer)

	_, err := m.AnalyzeCVSnapshot(context.Background(), "cv-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyCVContent)
	assert.Equal(t, 0, scorer.callCount())
}

func TestScanSkillsCap(t *testing.T) {
	content := "Go Java Python Rust MySQL Redis Kafka Docker Kubernetes"
	skills := scanSkills(content)
	assert.Len(t, skills, constants.MaxScannedSkills)
}

func TestScanSkillsNoHits(t *testing.T) {
	assert.Empty(t, scanSkills("这份简历不包含任何已知技术词"))
}
