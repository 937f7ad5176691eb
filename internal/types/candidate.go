package types

import "time"

// CandidateRecord 一份成功处理的简历记录
// 记录在入库时创建，之后只读，同一会话内不会被修改或删除
type CandidateRecord struct {
	Filename        string    `json:"filename"`         // 会话内唯一
	RawText         string    `json:"-"`                // 提取出的全文
	FilePath        string    `json:"file_path"`        // 原始文件在存储中的引用
	FullName        string    `json:"full_name"`        // 候选人姓名
	Phones          []string  `json:"phones"`           // 允许重复，保持出现顺序
	Emails          []string  `json:"emails"`           // 保持出现顺序
	LinkedInLinks   []string  `json:"linkedin_links"`   // 保持出现顺序
	Keywords        []string  `json:"keywords"`         // 模型提取的技术关键词
	ExperienceYears string    `json:"experience_years"` // 工作年限，模型给出的自由文本
	IngestedAt      time.Time `json:"ingested_at"`
}

// MatchResult 一条记录在一次查询下的匹配结果
type MatchResult struct {
	Record       *CandidateRecord `json:"record"`
	MatchedCount int              `json:"matched_count"`
	MatchedTerms []string         `json:"matched_terms"`
}

// RankedGroup 命中数相同的一组记录，成员保持原始扫描顺序
type RankedGroup struct {
	Count   int                `json:"count"`
	Members []*CandidateRecord `json:"members"`
}

// ExportRow 导出表格中的一行
type ExportRow struct {
	Filename   string `json:"filename"`
	FullName   string `json:"full_name"`
	Phones     string `json:"phones"`
	Emails     string `json:"emails"`
	LinkedIn   string `json:"linkedin"`
	Keywords   string `json:"keywords"`
	Experience string `json:"experience"`
	FileRef    string `json:"file_ref"`
}

// ExportGroup 按命中数分组的表格
type ExportGroup struct {
	Count int         `json:"count"`
	Rows  []ExportRow `json:"rows"`
}

// ArchiveEntry 压缩包中的一个条目
// Source 非空时从文件存储读取内容，否则直接写入 Content
type ArchiveEntry struct {
	Path    string `json:"path"`
	Source  string `json:"source,omitempty"`
	Content []byte `json:"-"`
}

// TriageExport 一次岗位筛选的导出结果，每次请求重新构建
type TriageExport struct {
	JobName   string         `json:"job_name"`
	Filename  string         `json:"filename"`
	Manifest  string         `json:"manifest"`
	Groups    []ExportGroup  `json:"groups"`
	Entries   []ArchiveEntry `json:"entries"`
	CreatedAt time.Time      `json:"created_at"`
}

// IsEmpty 没有任何命中时为 true
func (e *TriageExport) IsEmpty() bool {
	return e == nil || len(e.Groups) == 0
}
