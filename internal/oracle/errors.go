package oracle

import (
	"errors"
	"fmt"
)

// ErrorKind 打分器失败的类别
type ErrorKind string

const (
	// KindTransport 模型调用本身失败(网络、超时、限流、空响应)
	KindTransport ErrorKind = "transport"
	// KindMalformed 模型有响应但内容无法解析或不符合契约
	KindMalformed ErrorKind = "malformed"
	// KindInvalidInput 调用方传入的参数不合法，未发起模型调用
	KindInvalidInput ErrorKind = "invalid_input"
)

// OracleError 打分器的类型化错误
// 在本层不做重试决策，只携带失败类别供调用方区分
type OracleError struct {
	Kind    ErrorKind
	Op      string
	BaseErr error
	Detail  string
}

// Error 实现error接口
func (e *OracleError) Error() string {
	if e.BaseErr != nil {
		return fmt.Sprintf("oracle %s [%s]: %v (%s)", e.Op, e.Kind, e.BaseErr, e.Detail)
	}
	return fmt.Sprintf("oracle %s [%s]: %s", e.Op, e.Kind, e.Detail)
}

// Unwrap 支持errors.Is/As链
func (e *OracleError) Unwrap() error {
	return e.BaseErr
}

// NewTransportError 创建传输类错误
func NewTransportError(op string, baseErr error, detail string) *OracleError {
	return &OracleError{Kind: KindTransport, Op: op, BaseErr: baseErr, Detail: detail}
}

// NewMalformedError 创建响应格式类错误
func NewMalformedError(op string, baseErr error, detail string) *OracleError {
	return &OracleError{Kind: KindMalformed, Op: op, BaseErr: baseErr, Detail: detail}
}

// NewInvalidInputError 创建入参校验类错误
func NewInvalidInputError(op string, detail string) *OracleError {
	return &OracleError{Kind: KindInvalidInput, Op: op, Detail: detail}
}

// IsKind 判断err的错误链上是否有指定类别的OracleError
func IsKind(err error, kind ErrorKind) bool {
	var oe *OracleError
	if !errors.As(err, &oe) {
		return false
	}
	return oe.Kind == kind
}
