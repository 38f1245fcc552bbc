package storage

// CVUploadedMessage 简历上传完成事件，触发简历对岗位的扇出匹配
type CVUploadedMessage struct {
	CVID       string `json:"cv_id"`
	UserID     string `json:"user_id"`
	UploadTime int64  `json:"upload_time,omitempty"` // Unix时间戳
}

// JobCreatedMessage 岗位创建/更新事件，触发岗位对简历的扇出匹配
type JobCreatedMessage struct {
	JobID      string `json:"job_id"`
	EmployerID string `json:"employer_id"`
	EventTime  int64  `json:"event_time,omitempty"` // Unix时间戳
}

// MatchScoredMessage 匹配完成事件，经发件箱中继对外发布
type MatchScoredMessage struct {
	MatchID    uint64  `json:"match_id"`
	CVID       string  `json:"cv_id"`
	JobID      string  `json:"job_id"`
	FinalScore float64 `json:"final_score"`
	ScoredAt   int64   `json:"scored_at"`
}
