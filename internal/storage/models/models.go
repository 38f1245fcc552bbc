package models

import (
	"time"

	"gorm.io/datatypes"
)

// CV 简历文档表
// 同一所有者的活跃简历中最多一份 IsPrimary=true；停用(IsActive=false)代替删除
type CV struct {
	CVID           string         `gorm:"type:char(36);primaryKey"`
	UserID         string         `gorm:"type:char(36);not null;index:idx_cvs_user_id"`
	Title          string         `gorm:"type:varchar(255);not null"`
	Content        string         `gorm:"type:text"` // 解析后的简历全文
	ParsedTextPath string         `gorm:"type:varchar(1024)"` // MinIO中解析文本的对象键，Content为空时用于回填
	Skills         datatypes.JSON `gorm:"type:json"`
	Languages      datatypes.JSON `gorm:"type:json"`
	IsPrimary      bool           `gorm:"default:false;index:idx_cvs_user_primary,priority:2"`
	IsActive       bool           `gorm:"default:true;index:idx_cvs_user_primary,priority:1"`
	LatestAnalysis datatypes.JSON `gorm:"type:json"` // 最近一次独立分析的评分快照
	CreatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt      time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (CV) TableName() string {
	return "cvs"
}

// Job 岗位信息表
// TechnicalWeight + HRWeight 恒等于 100
type Job struct {
	JobID            string         `gorm:"type:char(36);primaryKey"`
	EmployerID       string         `gorm:"type:char(36);not null;index:idx_jobs_employer_id"`
	Title            string         `gorm:"type:varchar(255);not null"`
	Company          string         `gorm:"type:varchar(255)"`
	Location         string         `gorm:"type:varchar(255)"`
	Description      string         `gorm:"type:text;not null"`
	Requirements     datatypes.JSON `gorm:"type:json"`
	Responsibilities datatypes.JSON `gorm:"type:json"`
	EmploymentType   string         `gorm:"type:varchar(50)"`
	ExperienceLevel  string         `gorm:"type:varchar(50)"`
	TechnicalWeight  int            `gorm:"default:70"`
	HRWeight         int            `gorm:"default:30"`
	Status           string         `gorm:"type:varchar(50);default:'draft';index:idx_jobs_status"`
	ViewCount        int            `gorm:"default:0"`
	ApplicationCount int            `gorm:"default:0"`
	CreatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt        time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Job) TableName() string {
	return "jobs"
}

// Match 简历-岗位匹配评估表，追加写入
// (CVID, JobID) 上的唯一索引保证同一对至多一条记录
type Match struct {
	MatchID     uint64 `gorm:"primaryKey;autoIncrement"`
	CVID        string `gorm:"type:char(36);not null;index:idx_matches_cv_id_score,priority:1;uniqueIndex:idx_matches_cv_job_unique,priority:1"`
	JobID       string `gorm:"type:char(36);not null;index:idx_matches_job_id_score,priority:1;uniqueIndex:idx_matches_cv_job_unique,priority:2"`
	CandidateID string `gorm:"type:char(36);not null;index:idx_matches_candidate_id"`
	EmployerID  string `gorm:"type:char(36);not null;index:idx_matches_employer_id"`

	// 技术维度子分 (0-100)
	TechnicalSkillsScore   float64 `gorm:"type:double"`
	ProjectExperienceScore float64 `gorm:"type:double"`
	ProblemSolvingScore    float64 `gorm:"type:double"`
	LearningAgilityScore   float64 `gorm:"type:double"`

	// 行为维度子分 (0-100)
	CommunicationScore float64 `gorm:"type:double"`
	TeamworkScore      float64 `gorm:"type:double"`
	MotivationScore    float64 `gorm:"type:double"`
	AdaptabilityScore  float64 `gorm:"type:double"`

	// 编排器重算后的组合分
	FinalTechnicalScore float64  `gorm:"type:double"`
	FinalHRScore        float64  `gorm:"type:double"`
	FinalScore          float64  `gorm:"type:double;index:idx_matches_cv_id_score,priority:2;index:idx_matches_job_id_score,priority:2"`
	LanguageLevelScore  *float64 `gorm:"type:double"`

	GeneralRecommendation string         `gorm:"type:varchar(50)"`
	Strengths             datatypes.JSON `gorm:"type:json"`
	Weaknesses            datatypes.JSON `gorm:"type:json"`
	AICommentary          string         `gorm:"type:text"`

	// 匹配时刻使用的权重审计
	TechnicalWeightUsed int `gorm:"not null"`
	HRWeightUsed        int `gorm:"not null"`

	Status    string    `gorm:"type:varchar(50);default:'pending';index:idx_matches_status"`
	Notes     string    `gorm:"type:text"`
	MatchedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	CreatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	CV  *CV  `gorm:"foreignKey:CVID;references:CVID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Job *Job `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Match) TableName() string {
	return "matches"
}

// Application 岗位申请表
// 分析快照存在 Analysis 字段里，与 Match 记录相互独立
type Application struct {
	ApplicationID uint64         `gorm:"primaryKey;autoIncrement"`
	JobID         string         `gorm:"type:char(36);not null;index:idx_apps_job_id;uniqueIndex:idx_apps_job_applicant_unique,priority:1"`
	CVID          string         `gorm:"type:char(36);not null;index:idx_apps_cv_id"`
	ApplicantID   string         `gorm:"type:char(36);not null;uniqueIndex:idx_apps_job_applicant_unique,priority:2"`
	Status        string         `gorm:"type:varchar(50);default:'submitted';index:idx_apps_status"`
	CoverLetter   string         `gorm:"type:text"`
	Analysis      datatypes.JSON `gorm:"type:json"` // 批量分析写回的报告快照
	AppliedAt     time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	CreatedAt     time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt     time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	CV  *CV  `gorm:"foreignKey:CVID;references:CVID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Job *Job `gorm:"foreignKey:JobID;references:JobID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Application) TableName() string {
	return "applications"
}
