package matcher

import (
	"context"
	"errors"
	"sort"

	"cv-match-go/internal/constants"
	"cv-match-go/internal/logger"
	"cv-match-go/internal/storage/models"
	"cv-match-go/internal/types"

	"gorm.io/gorm"
)

// TopJobsForUser 聚合用户所有活跃简历的匹配记录，按总分倒序返回岗位列表
// 同一岗位在多份简历上出现时只保留最高分的一条，分数相同保留先遇到的
func (m *Matcher) TopJobsForUser(ctx context.Context, userID string, limit int) ([]types.RankedJob, error) {
	if limit <= 0 {
		limit = constants.DefaultRecommendLimit
	}

	cvs, err := m.store.ListActiveCVsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cvs) == 0 {
		return []types.RankedJob{}, nil
	}

	best := make(map[string]types.RankedJob)
	order := make([]string, 0)

	for _, cv := range cvs {
		matches, err := m.store.ListMatchesForCV(ctx, cv.CVID, limit)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			entry := rankedJobFromMatch(&match)
			prev, seen := best[match.JobID]
			if !seen {
				best[match.JobID] = entry
				order = append(order, match.JobID)
				continue
			}
			// 严格更高才替换
			if entry.FinalScore != nil && prev.FinalScore != nil && *entry.FinalScore > *prev.FinalScore {
				best[match.JobID] = entry
			}
		}
	}

	ranked := make([]types.RankedJob, 0, len(order))
	for _, jobID := range order {
		ranked = append(ranked, best[jobID])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].FinalScore > *ranked[j].FinalScore
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// RecommendedJobsForUser 推荐视图: 优先读缓存，未命中时用匹配结果打底，
// 不足limit条再用未匹配过的最新活跃岗位补位
func (m *Matcher) RecommendedJobsForUser(ctx context.Context, userID string, limit int) ([]types.RankedJob, error) {
	if limit <= 0 {
		limit = constants.DefaultRecommendLimit
	}

	if m.cache != nil {
		cached, err := m.cache.GetCachedRecommendedJobs(ctx, userID)
		if err == nil && len(cached) > 0 {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			return cached, nil
		}
	}

	ranked, err := m.TopJobsForUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	if len(ranked) < limit {
		exclude := make([]string, len(ranked))
		for i, r := range ranked {
			exclude[i] = r.JobID
		}
		fillers, err := m.store.ListNewestActiveJobsExcluding(ctx, exclude, limit-len(ranked))
		if err != nil {
			return nil, err
		}
		for i := range fillers {
			ranked = append(ranked, rankedJobFromJob(&fillers[i]))
		}
	}

	if m.cache != nil && len(ranked) > 0 {
		if err := m.cache.CacheRecommendedJobs(ctx, userID, ranked, constants.RecommendCacheTTL); err != nil {
			logger.Ctx(ctx).Warn().
				Err(err).
				Str("user_id", userID).
				Msg("推荐结果写缓存失败")
		}
	}
	return ranked, nil
}

// TopCVsForJob 岗位视角的候选排名，按总分倒序
func (m *Matcher) TopCVsForJob(ctx context.Context, jobID string, limit int) ([]types.RankedCV, error) {
	if limit <= 0 {
		limit = constants.DefaultTopCVLimit
	}

	if _, err := m.store.GetJobByID(ctx, jobID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newJobNotFoundError(jobID, "")
		}
		return nil, err
	}

	matches, err := m.store.ListMatchesForJob(ctx, jobID, limit)
	if err != nil {
		return nil, err
	}

	ranked := make([]types.RankedCV, 0, len(matches))
	for _, match := range matches {
		entry := types.RankedCV{
			CVID:                  match.CVID,
			CandidateID:           match.CandidateID,
			FinalScore:            match.FinalScore,
			GeneralRecommendation: match.GeneralRecommendation,
			Strengths:             fromJSONList(match.Strengths),
			Weaknesses:            fromJSONList(match.Weaknesses),
			MatchID:               match.MatchID,
		}
		if match.CV != nil {
			entry.CVTitle = match.CV.Title
		}
		ranked = append(ranked, entry)
	}
	return ranked, nil
}

// rankedJobFromMatch 把带岗位预加载的匹配记录转为排名条目
func rankedJobFromMatch(match *models.Match) types.RankedJob {
	score := match.FinalScore
	entry := types.RankedJob{
		JobID:      match.JobID,
		FinalScore: &score,
		MatchID:    match.MatchID,
	}
	if match.Job != nil {
		entry.Title = match.Job.Title
		entry.Company = match.Job.Company
		entry.Location = match.Job.Location
		entry.EmploymentType = match.Job.EmploymentType
		entry.ExperienceLevel = match.Job.ExperienceLevel
	}
	return entry
}

// rankedJobFromJob 把补位岗位转为排名条目，无分数且标记为推荐补位
func rankedJobFromJob(job *models.Job) types.RankedJob {
	return types.RankedJob{
		JobID:           job.JobID,
		Title:           job.Title,
		Company:         job.Company,
		Location:        job.Location,
		EmploymentType:  job.EmploymentType,
		ExperienceLevel: job.ExperienceLevel,
		FinalScore:      nil,
		IsRecommended:   true,
	}
}
