package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 错误传播策略（引擎契约）：
//   - 只对结构性非法输入报错：空评分集（EMPTY_INPUT）、
//     预测目标缺失于均值/特征表（UNKNOWN_ITEM，通常意味着快照陈旧）
//   - 数值退化场景（零范数、零支持度、加权平均除零）不是错误，
//     是显式的回退分支：相似度取 0、回退物品均值、跳过该项
type DomainError struct {
	Code    string // 错误代码（如 "EMPTY_INPUT", "UNKNOWN_ITEM"）
	Message string // 错误消息
	Module  string // 模块名称（如 "matrix", "recall", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
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
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeEmptyInput    = "EMPTY_INPUT"    // 没有任何评分可用于建矩阵
	ErrorCodeUnknownItem   = "UNKNOWN_ITEM"   // 预测目标不在均值/特征表中（快照陈旧）
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleMatrix     = "matrix"     // 效用矩阵模块
	ModuleSimilarity = "similarity" // 相似度模块
	ModuleRecall     = "recall"     // 召回/排序模块
	ModuleFeature    = "feature"    // 特征模块
	ModuleSnapshot   = "snapshot"   // 快照模块
	ModuleStore      = "store"      // 存储模块
	ModuleBatch      = "batch"      // 离线任务模块
)

// hasCode 统一的代码匹配逻辑
func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsEmptyInput 检查错误是否为 EMPTY_INPUT。
// 上游服务层应将其翻译为数据不足、暂时无法推荐。
func IsEmptyInput(err error) bool { return hasCode(err, ErrorCodeEmptyInput) }

// IsUnknownItem 检查错误是否为 UNKNOWN_ITEM。
// 出现该错误说明均值/特征快照与目录不同步，应触发离线任务排查，不应重试。
func IsUnknownItem(err error) bool { return hasCode(err, ErrorCodeUnknownItem) }
