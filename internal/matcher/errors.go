package matcher

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrCVNotFound          = errors.New("简历不存在")
	ErrJobNotFound         = errors.New("岗位不存在")
	ErrApplicationNotFound = errors.New("申请不存在")
	ErrEmptyCVContent      = errors.New("简历内容为空")
	ErrOracleFailed        = errors.New("打分器调用失败")
	ErrPersistFailed       = errors.New("匹配记录持久化失败")
)

// MatchError 包含详细错误信息的自定义错误
type MatchError struct {
	CVID    string
	JobID   string
	Op      string
	BaseErr error
	Detail  string
}

func (e *MatchError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, CV:%s, Job:%s): %s", e.BaseErr, e.Op, e.CVID, e.JobID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, CV:%s, Job:%s)", e.BaseErr, e.Op, e.CVID, e.JobID)
}

func (e *MatchError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *MatchError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func newCVNotFoundError(cvID, detail string) error {
	return &MatchError{
		CVID:    cvID,
		Op:      "load_cv",
		BaseErr: ErrCVNotFound,
		Detail:  detail,
	}
}

func newJobNotFoundError(jobID, detail string) error {
	return &MatchError{
		JobID:   jobID,
		Op:      "load_job",
		BaseErr: ErrJobNotFound,
		Detail:  detail,
	}
}

func newEmptyContentError(cvID, jobID string) error {
	return &MatchError{
		CVID:    cvID,
		JobID:   jobID,
		Op:      "check_content",
		BaseErr: ErrEmptyCVContent,
	}
}

func newOracleError(cvID, jobID string, baseErr error) error {
	// 原始错误保留在链上，调用方可用 errors.As 取回类型化的打分器错误
	return &MatchError{
		CVID:    cvID,
		JobID:   jobID,
		Op:      "score",
		BaseErr: fmt.Errorf("%w: %w", ErrOracleFailed, baseErr),
	}
}

func newPersistError(cvID, jobID string, baseErr error) error {
	return &MatchError{
		CVID:    cvID,
		JobID:   jobID,
		Op:      "persist",
		BaseErr: ErrPersistFailed,
		Detail:  baseErr.Error(),
	}
}
