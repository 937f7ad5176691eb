package types

import "time"

// 事件类型，同时作为 outbox 记录的 EventType
const (
	EventResumeIngested = "resume.ingested"
	EventTriageExported = "triage.exported"
)

// ResumeIngestedEvent 一份简历入库完成后发出的事件
// 不携带联系方式与全文，只用于下游统计与审计
type ResumeIngestedEvent struct {
	SessionID     string    `json:"session_id"`
	Filename      string    `json:"filename"`
	FilePath      string    `json:"file_path"`
	KeywordCount  int       `json:"keyword_count"`
	TextLength    int       `json:"text_length"`
	IngestedAt    time.Time `json:"ingested_at"`
	ExtractorName string    `json:"extractor_name,omitempty"`
}

// TriageExportedEvent 一次岗位筛选完成后发出的事件
type TriageExportedEvent struct {
	RunID       string      `json:"run_id"`
	SessionID   string      `json:"session_id"`
	JobName     string      `json:"job_name"`
	Source      string      `json:"source"` // keywords 或 description
	Terms       []string    `json:"terms"`
	GroupCounts map[int]int `json:"group_counts"` // 命中数 -> 人数
	Documents   int         `json:"documents"`
	ExportedAt  time.Time   `json:"exported_at"`
}
