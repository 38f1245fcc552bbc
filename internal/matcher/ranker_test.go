package matcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"cv-match-go/internal/storage/models"
	"cv-match-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// mockCache 内存版推荐缓存
type mockCache struct {
	mu     sync.Mutex
	stored map[string][]types.RankedJob
	reads  int
}

func newMockCache() *mockCache {
	return &mockCache{stored: make(map[string][]types.RankedJob)}
}

func (c *mockCache) CacheRecommendedJobs(ctx context.Context, userID string, jobs []types.RankedJob, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored[userID] = jobs
	return nil
}

func (c *mockCache) GetCachedRecommendedJobs(ctx context.Context, userID string) ([]types.RankedJob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	return c.stored[userID], nil
}

func (c *mockCache) InvalidateRecommendedJobs(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stored, userID)
	return nil
}

func (s *mockStore) addMatch(cvID, jobID string, finalScore float64) {
	s.nextID++
	s.matches[pairKey(cvID, jobID)] = &models.Match{
		MatchID:               s.nextID,
		CVID:                  cvID,
		JobID:                 jobID,
		FinalScore:            finalScore,
		GeneralRecommendation: "interview",
		Strengths:             datatypes.JSON(`["沟通能力强"]`),
		Weaknesses:            datatypes.JSON(`[]`),
	}
}

func TestTopJobsForUserDedupKeepsHighest(t *testing.T) {
	store := newMockStore()
	store.addCV(activeCV("cv-1", "user-1", "简历A"))
	store.addCV(activeCV("cv-2", "user-1", "简历B"))
	store.addJob(activeJob("job-a", 70, 30))
	store.addJob(activeJob("job-b", 70, 30))

	// 同一岗位在两份简历上分数不同，只保留高分
	store.addMatch("cv-1", "job-a", 60)
	store.addMatch("cv-2", "job-a", 85)
	store.addMatch("cv-1", "job-b", 70)

	m := NewMatcher(store, &mockScorer{scorecard: baseScorecard()})
	ranked, err := m.TopJobsForUser(context.Background(), "user-1", 10)

	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "job-a", ranked[0].JobID)
	assert.Equal(t, 85.0, *ranked[0].FinalScore)
	assert.Equal(t, "job-b", ranked[1].JobID)
	assert.Equal(t, 70.0, *ranked[1].FinalScore)
}

func TestTopJobsForUserNoActiveCVs(t *testing.T) {
	store := newMockStore()
	m := NewMatcher(store, &mockScorer{scorecard: baseScorecard()})

	ranked, err := m.TopJobsForUser(context.Background(), "user-absent", 10)

	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestTopJobsForUserHonorsLimit(t *testing.T) {
	store := newMockStore()
	store.addCV(activeCV("cv-1", "user-1", "简历A"))
	for i, score := range []float64{90, 80, 70, 60} {
		jobID := []string{"job-a", "job-b", "job-c", "job-d"}[i]
		store.addJob(activeJob(jobID, 70, 30))
		store.addMatch("cv-1", jobID, score)
	}

	m := NewMatcher(store, &mockScorer{scorecard: baseScorecard()})
	ranked, err := m.TopJobsForUser(context.Background(), "user-1", 2)

	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, 90.0, *ranked[0].FinalScore)
	assert.Equal(t, 80.0, *ranked[1].FinalScore)
}

func TestRecommendedJobsForUserPadsWithNewestJobs(t *testing.T) {
	store := newMockStore()
	store.addCV(activeCV("cv-1", "user-1", "简历A"))
	store.addJob(activeJob("job-a", 70, 30))
	store.addJob(activeJob("job-b", 70, 30))
	store.addJob(activeJob("job-c", 70, 30))
	store.addMatch("cv-1", "job-a", 88)

	m := NewMatcher(store, &mockScorer{scorecard: baseScorecard()})
	ranked, err := m.RecommendedJobsForUser(context.Background(), "user-1", 3)

	require.NoError(t, err)
	require.Len(t, ranked, 3)

	// 已匹配岗位排在前面且带分数
	assert.Equal(t, "job-a", ranked[0].JobID)
	require.NotNil(t, ranked[0].FinalScore)
	assert.Equal(t, 88.0, *ranked[0].FinalScore)
	assert.False(t, ranked[0].IsRecommended)

	// 补位岗位无分数并标记推荐
	for _, filler := range ranked[1:] {
		assert.Nil(t, filler.FinalScore)
		assert.True(t, filler.IsRecommended)
		assert.NotEqual(t, "job-a", filler.JobID)
	}
}

func TestRecommendedJobsForUserCacheHit(t *testing.T) {
	store := newMockStore()
	cache := newMockCache()
	score := 77.0
	cache.stored["user-1"] = []types.RankedJob{
		{JobID: "job-cached", FinalScore: &score},
	}

	m := NewMatcher(store, &mockScorer{scorecard: baseScorecard()}, WithRecommendCache(cache))
	ranked, err := m.RecommendedJobsForUser(context.Background(), "user-1", 5)

	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "job-cached", ranked[0].JobID)
	assert.Equal(t, 1, cache.reads)
}

func TestRecommendedJobsForUserWritesCache(t *testing.T) {
	store := newMockStore()
	store.addCV(activeCV("cv-1", "user-1", "简历A"))
	store.addJob(activeJob("job-a", 70, 30))
	store.addMatch("cv-1", "job-a", 66)
	cache := newMockCache()

	m := NewMatcher(store, &mockScorer{scorecard: baseScorecard()}, WithRecommendCache(cache))
	_, err := m.RecommendedJobsForUser(context.Background(), "user-1", 1)

	require.NoError(t, err)
	assert.Len(t, cache.stored["user-1"], 1)
}

func TestTopCVsForJob(t *testing.T) {
	store := newMockStore()
	store.addJob(activeJob("job-a", 70, 30))
	store.addCV(activeCV("cv-1", "user-1", "简历A"))
	store.addCV(activeCV("cv-2", "user-2", "简历B"))
	store.addMatch("cv-1", "job-a", 72)
	store.addMatch("cv-2", "job-a", 91)

	m := NewMatcher(store, &mockScorer{scorecard: baseScorecard()})
	ranked, err := m.TopCVsForJob(context.Background(), "job-a", 10)

	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "cv-2", ranked[0].CVID)
	assert.Equal(t, 91.0, ranked[0].FinalScore)
	assert.Equal(t, "简历-cv-2", ranked[0].CVTitle)
	assert.Equal(t, []string{"沟通能力强"}, ranked[0].Strengths)
	assert.Equal(t, "cv-1", ranked[1].CVID)
}

func TestTopCVsForJobNotFound(t *testing.T) {
	store := newMockStore()
	m := NewMatcher(store, &mockScorer{scorecard: baseScorecard()})

	_, err := m.TopCVsForJob(context.Background(), "job-missing", 10)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJobNotFound)
}
