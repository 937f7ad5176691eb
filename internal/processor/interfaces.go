package processor

import (
	"context"
	"io"

	"resume-triage/internal/types"
)

//
// 提取相关接口
//

// TextExtractor 文档文本提取接口
type TextExtractor interface {
	// ExtractText 从 reader 中提取全文，uri 只用于日志和错误信息
	ExtractText(ctx context.Context, uri string, reader io.Reader) (string, error)

	// Name 提取器名称，写入审计记录
	Name() string
}

// TermExtractor 基于大模型的术语提取接口
type TermExtractor interface {
	// ExtractKeywords 提问并把逗号分隔的回答拆分为关键词，括号会被去掉
	ExtractKeywords(ctx context.Context, text, question string) ([]string, error)

	// Answer 提问并返回去掉首尾空白的单个回答
	Answer(ctx context.Context, text, question string) (string, error)
}

//
// 存储相关接口
//

// FileStore 原始文件存储，按会话和文件名组织
type FileStore interface {
	// Save 保存文件并返回引用，之后可以通过 Open 读取
	Save(ctx context.Context, sessionID, filename string, data []byte) (string, error)

	// Open 按引用打开文件
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Delete 删除单个文件
	Delete(ctx context.Context, ref string) error
}

// KeywordCache JD 关键词缓存
type KeywordCache interface {
	// GetJobKeywords 未命中时 found 为 false 且不返回错误
	GetJobKeywords(ctx context.Context, description string) (keywords []string, found bool, err error)

	// SetJobKeywords 写入缓存
	SetJobKeywords(ctx context.Context, description string, keywords []string) error
}

// AuditRecorder 审计记录，写入数据库并产生待发布事件
type AuditRecorder interface {
	// RecordIngestion 记录一次成功入库
	RecordIngestion(ctx context.Context, event types.ResumeIngestedEvent, rec *types.CandidateRecord) error

	// RecordTriage 记录一次岗位筛选
	RecordTriage(ctx context.Context, event types.TriageExportedEvent) error
}
