package models

import "fmt"

// ValidationError 表示请求在进入存储层之前就被拒绝的参数错误。
// 携带字段名与规则名，方便调用方直接修正请求；在 HTTP 边界映射为 400。
type ValidationError struct {
	Field   string // 出错的请求字段，例如 "location.lat"
	Rule    string // 被违反的规则，例如 "range"、"max_length"
	Message string // 面向调用方的描述
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数校验失败: 字段 %s 违反规则 %s: %s", e.Field, e.Rule, e.Message)
}

// NewValidationError 构造一个 ValidationError。
func NewValidationError(field, rule, message string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Message: message}
}
