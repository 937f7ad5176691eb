package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrInvalidUpload     = errors.New("上传文件无效")
	ErrStoreFileFailed   = errors.New("保存原始文件失败")
	ErrExtractionFailed  = errors.New("简历信息提取失败")
	ErrEmptyDescription  = errors.New("岗位描述不能为空")
	ErrKeywordDerivation = errors.New("岗位关键词提取失败")
)

// 入库步骤，用于 IngestError.Op
const (
	OpValidate   = "validate"
	OpSave       = "save"
	OpExtract    = "extract"
	OpName       = "name"
	OpKeywords   = "keywords"
	OpExperience = "experience"
)

// IngestError 单个文件入库失败的详细信息
type IngestError struct {
	Filename string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *IngestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.Filename, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.Filename)
}

func (e *IngestError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *IngestError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newIngestError(filename, op string, base error, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return &IngestError{Filename: filename, Op: op, BaseErr: base, Detail: detail}
}
