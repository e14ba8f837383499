package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型，Code/100得到对应的HTTP状态码
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
// 4. Fields只在校验失败时出现，key是点分字段路径（如account.email）
type AppError struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Err     error               `json:"-"`
	Fields  map[string][]string `json:"errors,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 错误码和提示信息都相同即视为同一错误
// WithCause返回的是副本，errors.Is仍能匹配到预定义错误
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// HTTPStatus 错误码映射到HTTP状态码
func (e *AppError) HTTPStatus() int {
	switch e.Code / 100 {
	case 400:
		return http.StatusBadRequest
	case 404:
		return http.StatusNotFound
	case 409:
		return http.StatusConflict
	case 422:
		return http.StatusUnprocessableEntity
	case 429:
		return http.StatusTooManyRequests
	case 503:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf 格式化创建AppError
func Newf(code int, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// WithCause 复制错误并附带内部原因，预定义错误本身不会被修改
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// Wrap 包装系统错误（如数据库错误、网络错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：错误码/100 即HTTP状态码
// - 400xx: 请求格式错误
// - 404xx: 记录不存在
// - 409xx: 与存储状态冲突（唯一约束、被权益引用的删除、非法状态流转）
// - 422xx: 字段校验失败（只由校验层产生，仓储层从不返回）
// - 429xx: 限流
// - 500xx: 服务端错误
// - 503xx: 依赖不可用（健康检查）

const (
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误

	ErrCodeServiceUnavailable = 50300 // 依赖不可用

	ErrCodeBadRequest       = 40000 // 请求错误(通用)
	ErrCodeInvalidAttribute = 40001 // 属性类型错误
	ErrCodeBindError        = 40002 // 参数绑定失败

	ErrCodeNotFound          = 40400 // 资源不存在(通用)
	ErrCodeReferenceNotFound = 40401 // 引用的记录不存在
	ErrCodeUnknownRelation   = 40402 // 未声明的关联

	ErrCodeConflict          = 40900 // 冲突(通用)
	ErrCodeDuplicateEntry    = 40901 // 唯一约束冲突
	ErrCodeEntitlementExists = 40902 // 删除会破坏已成交的权益
	ErrCodeInvalidTransition = 40903 // 非法的状态流转
	ErrCodeImmutable         = 40904 // 记录已不可修改

	ErrCodeValidationFailed = 42200 // 字段校验失败

	ErrCodeTooManyRequests = 42900 // 请求过于频繁
)

var (
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")

	ErrBadRequest = New(ErrCodeBadRequest, "请求错误")
	ErrBindError  = New(ErrCodeBindError, "参数格式错误")
	ErrNotFound   = New(ErrCodeNotFound, "记录不存在")
	ErrConflict   = New(ErrCodeConflict, "记录冲突")
)

// NotFound 构造某类记录不存在的错误
func NotFound(kind string, id uint) *AppError {
	return Newf(ErrCodeNotFound, "%s %d 不存在", kind, id)
}

// Duplicate 构造唯一约束冲突错误
func Duplicate(kind string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeDuplicateEntry,
		Message: fmt.Sprintf("%s 已存在相同的唯一字段", kind),
		Err:     err,
	}
}

// ValidationFailed 构造字段校验失败错误
func ValidationFailed(fields map[string][]string) *AppError {
	return &AppError{
		Code:    ErrCodeValidationFailed,
		Message: "字段校验失败",
		Fields:  fields,
	}
}

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

func hasCategory(err error, category int) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code/100 == category
}

// IsNotFound 是否为记录不存在类错误
func IsNotFound(err error) bool { return hasCategory(err, 404) }

// IsConflict 是否为冲突类错误
func IsConflict(err error) bool { return hasCategory(err, 409) }

// IsValidation 是否为校验失败
func IsValidation(err error) bool { return hasCategory(err, 422) }

// IsBadRequest 是否为请求格式错误
func IsBadRequest(err error) bool { return hasCategory(err, 400) }

// HasCode 判断错误链上是否有指定错误码
func HasCode(err error, code int) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
