package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 流水线错误额外携带出错的步骤（Step）与列名（Column），便于定位
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Schema 错误：缺列、无法解析的取值（SCHEMA）
//   - 生命周期错误：未 Fit 即 Transform（NOT_FITTED）、重复 Fit（ALREADY_FITTED）
//   - 编码错误：Transform 时出现训练期未见过的类别（UNSEEN_CATEGORY）
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "SCHEMA", "NOT_FITTED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "feature", "pipeline", "store"）
	Step    string // 出错的流水线步骤（可选）
	Column  string // 相关列名（可选）
}

func (e *DomainError) Error() string {
	msg := e.Message
	if e.Column != "" {
		msg = fmt.Sprintf("column %q: %s", e.Column, msg)
	}
	if e.Step != "" {
		msg = fmt.Sprintf("step %s: %s", e.Step, msg)
	}
	return msg
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound       = "NOT_FOUND"       // 资源不存在
	ErrorCodeNotSupported   = "NOT_SUPPORTED"   // 操作不支持
	ErrorCodeInvalidInput   = "INVALID_INPUT"   // 输入无效
	ErrorCodeSchema         = "SCHEMA"          // 缺列或取值无法解析
	ErrorCodeNotFitted      = "NOT_FITTED"      // 未 Fit 即 Transform
	ErrorCodeAlreadyFitted  = "ALREADY_FITTED"  // 重复 Fit
	ErrorCodeUnseenCategory = "UNSEEN_CATEGORY" // 训练期未见过的类别
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleFeature  = "feature"  // 特征模块
	ModulePipeline = "pipeline" // 流水线模块
	ModuleModel    = "model"    // 模型模块
	ModuleDataset  = "dataset"  // 数据加载模块
)

// SchemaError 创建 Schema 错误：列缺失或取值不合法。
func SchemaError(step string, column Column, format string, args ...any) *DomainError {
	return &DomainError{
		Module:  ModuleFeature,
		Code:    ErrorCodeSchema,
		Step:    step,
		Column:  string(column),
		Message: fmt.Sprintf(format, args...),
	}
}

// MissingColumnError 是最常见的 SchemaError。
func MissingColumnError(step string, column Column) *DomainError {
	return SchemaError(step, column, "required column is missing")
}

// NotFittedError 创建未 Fit 错误。
func NotFittedError(step string) *DomainError {
	return &DomainError{
		Module:  ModulePipeline,
		Code:    ErrorCodeNotFitted,
		Step:    step,
		Message: "transform called before fit",
	}
}

// UnseenCategoryError 创建未见类别错误。
func UnseenCategoryError(step string, column Column, value string) *DomainError {
	return &DomainError{
		Module:  ModuleFeature,
		Code:    ErrorCodeUnseenCategory,
		Step:    step,
		Column:  string(column),
		Message: fmt.Sprintf("category %q was not seen during fit", value),
	}
}

// WithStep 为 DomainError 补充步骤名（已有步骤名时保持不变），返回副本，不修改原错误。
// 其他错误被包装为 "step <name>: <err>"。
func WithStep(err error, step string) error {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		if domainErr.Step != "" {
			return err
		}
		cp := *domainErr
		cp.Step = step
		return &cp
	}
	if domainErr := GetDomainError(err); domainErr != nil && domainErr.Step != "" {
		return err
	}
	return fmt.Errorf("step %s: %w", step, err)
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsSchemaError 检查错误是否为 SCHEMA
func IsSchemaError(err error) bool { return hasCode(err, ErrorCodeSchema) }

// IsNotFitted 检查错误是否为 NOT_FITTED
func IsNotFitted(err error) bool { return hasCode(err, ErrorCodeNotFitted) }

// IsAlreadyFitted 检查错误是否为 ALREADY_FITTED
func IsAlreadyFitted(err error) bool { return hasCode(err, ErrorCodeAlreadyFitted) }

// IsUnseenCategory 检查错误是否为 UNSEEN_CATEGORY
func IsUnseenCategory(err error) bool { return hasCode(err, ErrorCodeUnseenCategory) }
