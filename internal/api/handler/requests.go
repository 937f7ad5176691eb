package handler

import (
	"github.com/go-playground/validator/v10"

	"resume-triage/internal/types"
)

var validate = validator.New()

// AnalysisRequest 岗位兼容度分析请求
type AnalysisRequest struct {
	Description string `json:"description" validate:"required,max=20000"`
}

// Validate 校验请求
func (r *AnalysisRequest) Validate() error {
	return validate.Struct(r)
}

// TriageRequest 岗位筛选请求，keywords 非空时优先于 description
// 岗位名称会出现在导出文件名中，不允许路径分隔符
type TriageRequest struct {
	JobName     string `json:"job_name" validate:"required,max=120,excludesall=/\\"`
	Keywords    string `json:"keywords" validate:"max=2000"`
	Description string `json:"description" validate:"max=20000"`
}

// Validate 校验请求
func (r *TriageRequest) Validate() error {
	return validate.Struct(r)
}

// GroupView 分组响应
type GroupView struct {
	Count int               `json:"count"`
	Title string            `json:"title"`
	Rows  []types.ExportRow `json:"rows"`
}

// MatchView 兼容度分析中的一行
type MatchView struct {
	Filename     string   `json:"filename"`
	FullName     string   `json:"full_name"`
	MatchedCount int      `json:"matched_count"`
	MatchedTerms []string `json:"matched_terms"`
}

// SearchResponse 关键词搜索响应
type SearchResponse struct {
	Terms   []string    `json:"terms"`
	Groups  []GroupView `json:"groups"`
	Message string      `json:"message,omitempty"`
}

// AnalysisResponse 兼容度分析响应
type AnalysisResponse struct {
	Terms   []string    `json:"terms"`
	Results []MatchView `json:"results"`
}

// TriageResponse 岗位筛选响应
type TriageResponse struct {
	JobName  string              `json:"job_name"`
	Source   string              `json:"source"`
	Terms    []string            `json:"terms"`
	Filename string              `json:"filename,omitempty"`
	Manifest string              `json:"manifest"`
	Groups   []types.ExportGroup `json:"groups"`
	Message  string              `json:"message,omitempty"`
}
