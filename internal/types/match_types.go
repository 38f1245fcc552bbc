package types

// WeightPair 匹配权重对，技术分与HR分的百分比拆分
// 不变式: TechnicalWeight + HRWeight == 100
type WeightPair struct {
	TechnicalWeight int `json:"technical_weight"`
	HRWeight        int `json:"hr_weight"`
}

// DefaultWeightPair 返回默认权重 (70/30)
func DefaultWeightPair() WeightPair {
	return WeightPair{TechnicalWeight: 70, HRWeight: 30}
}

// Valid 校验权重对是否满足不变式
func (w WeightPair) Valid() bool {
	return w.TechnicalWeight >= 0 && w.TechnicalWeight <= 100 &&
		w.HRWeight >= 0 && w.HRWeight <= 100 &&
		w.TechnicalWeight+w.HRWeight == 100
}

// Scorecard 打分器(LLM)单次评估的结构化输出
// 字段名与打分器的JSON响应契约保持一致
type Scorecard struct {
	// 技术维度子分 (0-100)
	TechnicalSkillsScore   float64 `json:"technical_skills_score"`
	ProjectExperienceScore float64 `json:"project_experience_score"`
	ProblemSolvingScore    float64 `json:"problem_solving_score"`
	LearningAgilityScore   float64 `json:"learning_agility_score"`

	// 行为维度子分 (0-100)
	CommunicationScore float64 `json:"communication_score"`
	TeamworkScore      float64 `json:"teamwork_score"`
	MotivationScore    float64 `json:"motivation_score"`
	AdaptabilityScore  float64 `json:"adaptability_score"`

	// 组合分: 各维度四个子分的算术平均，以及按权重对加权后的总分
	FinalTechnicalScore float64 `json:"final_technical_score"`
	FinalHRScore        float64 `json:"final_hr_score"`
	FinalScore          float64 `json:"final_score"`

	// 可选的语言水平分
	LanguageLevelScore *float64 `json:"language_level_score,omitempty"`

	// 三个固定标签之一，见 constants 包
	GeneralRecommendation string `json:"general_recommendation"`

	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	AICommentary string   `json:"ai_commentary"`

	// 打分器可选返回的技能列表 (批量分析时优先采用)
	Skills []string `json:"skills,omitempty"`
}

// TechnicalMean 计算技术维度四个子分的算术平均
func (s *Scorecard) TechnicalMean() float64 {
	return (s.TechnicalSkillsScore + s.ProjectExperienceScore +
		s.ProblemSolvingScore + s.LearningAgilityScore) / 4.0
}

// HRMean 计算行为维度四个子分的算术平均
func (s *Scorecard) HRMean() float64 {
	return (s.CommunicationScore + s.TeamworkScore +
		s.MotivationScore + s.AdaptabilityScore) / 4.0
}

// JobDetails 序列化进打分请求的岗位字段
type JobDetails struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	Description      string   `json:"description"`
	Requirements     []string `json:"requirements,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	EmploymentType   string   `json:"employment_type"`
	ExperienceLevel  string   `json:"experience_level"`
}

// ValidatedScorecard validate-and-default 的结果和类型:
// Degraded=false 表示原始响应即完整(Valid)，否则记录被回填的字段原因
type ValidatedScorecard struct {
	Scorecard Scorecard
	Degraded  bool
	Reason    string
}

// RankedJob 推荐视图里的一条岗位记录
// FinalScore 为 nil 表示"尚无匹配、仅作推荐补位"(IsRecommended=true)
type RankedJob struct {
	JobID           string   `json:"job_id"`
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Location        string   `json:"location"`
	EmploymentType  string   `json:"employment_type"`
	ExperienceLevel string   `json:"experience_level"`
	FinalScore      *float64 `json:"final_score"`
	MatchID         uint64   `json:"match_id,omitempty"`
	IsRecommended   bool     `json:"is_recommended"`
}

// RankedCV 岗位视角下的一条候选简历记录
type RankedCV struct {
	CVID                  string   `json:"cv_id"`
	CVTitle               string   `json:"cv_title"`
	CandidateID           string   `json:"candidate_id"`
	FinalScore            float64  `json:"final_score"`
	GeneralRecommendation string   `json:"general_recommendation"`
	Strengths             []string `json:"strengths,omitempty"`
	Weaknesses            []string `json:"weaknesses,omitempty"`
	MatchID               uint64   `json:"match_id"`
}

// AnalysisReport 批量申请分析的单条报告
// 成功与降级条目都会出现在结果里；Error=true 表示该条经历了打分失败，
// 已用固定默认值合成，需人工复核
type AnalysisReport struct {
	ApplicationID         uint64   `json:"application_id"`
	CVID                  string   `json:"cv_id"`
	ApplicantID           string   `json:"applicant_id"`
	MatchScore            float64  `json:"match_score"`
	FinalTechnicalScore   float64  `json:"final_technical_score"`
	FinalHRScore          float64  `json:"final_hr_score"`
	GeneralRecommendation string   `json:"general_recommendation"`
	Strengths             []string `json:"strengths,omitempty"`
	Weaknesses            []string `json:"weaknesses,omitempty"`
	AICommentary          string   `json:"ai_commentary"`
	Skills                []string `json:"skills,omitempty"`
	Degraded              bool     `json:"degraded,omitempty"`
	Error                 bool     `json:"error,omitempty"`
	ErrorMessage          string   `json:"error_message,omitempty"`
	AnalyzedAt            int64    `json:"analyzed_at"`
}
