package handler

import (
	"bytes"
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-triage/internal/constants"
	"resume-triage/internal/processor"
	"resume-triage/internal/session"
	"resume-triage/internal/triage"
)

// HandleSearch 关键词搜索
// GET /api/v1/sessions/:session_id/search?q=go,rust
func (h *Handler) HandleSearch(ctx context.Context, c *app.RequestContext) {
	store, ok := h.store(ctx, c)
	if !ok {
		return
	}
	terms, groups := h.triage.Search(ctx, store, c.Query("q"))
	resp := SearchResponse{Terms: terms.Bases(), Groups: groupViews(groups)}
	if len(groups) == 0 {
		resp.Message = noMatchesMessage
	}
	c.JSON(consts.StatusOK, resp)
}

// HandleSearchExport 关键词搜索结果打包下载
// GET /api/v1/sessions/:session_id/search/export?q=go,rust
func (h *Handler) HandleSearchExport(ctx context.Context, c *app.RequestContext) {
	store, ok := h.store(ctx, c)
	if !ok {
		return
	}
	terms, groups := h.triage.Search(ctx, store, c.Query("q"))
	if len(groups) == 0 {
		c.JSON(consts.StatusOK, utils.H{"message": noMatchesMessage})
		return
	}
	h.writeArchive(ctx, c, constants.SearchArchiveFilename, h.triage.SearchEntries(groups, terms))
}

// HandleAnalysis 岗位兼容度分析
// POST /api/v1/sessions/:session_id/analysis
func (h *Handler) HandleAnalysis(ctx context.Context, c *app.RequestContext) {
	store, ok := h.store(ctx, c)
	if !ok {
		return
	}
	var req AnalysisRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(ctx, c, err)
		return
	}

	terms, results, err := h.triage.Analyze(ctx, store, req.Description)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	resp := AnalysisResponse{Terms: terms.Bases(), Results: make([]MatchView, 0, len(results))}
	for _, r := range results {
		matched := r.MatchedTerms
		if matched == nil {
			matched = []string{}
		}
		resp.Results = append(resp.Results, MatchView{
			Filename:     r.Record.Filename,
			FullName:     r.Record.FullName,
			MatchedCount: r.MatchedCount,
			MatchedTerms: matched,
		})
	}
	c.JSON(consts.StatusOK, resp)
}

// HandleTriage 岗位筛选，返回分组表格数据
// POST /api/v1/sessions/:session_id/triage
func (h *Handler) HandleTriage(ctx context.Context, c *app.RequestContext) {
	_, res, ok := h.runTriage(ctx, c)
	if !ok {
		return
	}
	resp := TriageResponse{
		JobName:  res.Export.JobName,
		Source:   res.Source,
		Terms:    res.Terms.Bases(),
		Manifest: res.Export.Manifest,
		Groups:   res.Export.Groups,
	}
	if res.Export.IsEmpty() {
		resp.Message = noMatchesMessage
	} else {
		resp.Filename = res.Export.Filename
	}
	c.JSON(consts.StatusOK, resp)
}

// HandleTriageTable 岗位筛选，每个分组一张 HTML 表格
// POST /api/v1/sessions/:session_id/triage/table
func (h *Handler) HandleTriageTable(ctx context.Context, c *app.RequestContext) {
	store, res, ok := h.runTriage(ctx, c)
	if !ok {
		return
	}
	if res.Export.IsEmpty() {
		c.JSON(consts.StatusOK, utils.H{"message": noMatchesMessage})
		return
	}
	var buf bytes.Buffer
	if err := triage.RenderGroupTables(&buf, res.Groups, h.fileLink(store.ID())); err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.Data(consts.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// HandleTriageExport 岗位筛选结果打包下载
// POST /api/v1/sessions/:session_id/triage/export
func (h *Handler) HandleTriageExport(ctx context.Context, c *app.RequestContext) {
	_, res, ok := h.runTriage(ctx, c)
	if !ok {
		return
	}
	if res.Export.IsEmpty() {
		c.JSON(consts.StatusOK, utils.H{"message": noMatchesMessage})
		return
	}
	h.writeArchive(ctx, c, res.Export.Filename, res.Export.Entries)
}

func (h *Handler) runTriage(ctx context.Context, c *app.RequestContext) (*session.Store, *processor.TriageResult, bool) {
	store, ok := h.store(ctx, c)
	if !ok {
		return nil, nil, false
	}
	var req TriageRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(ctx, c, err)
		return nil, nil, false
	}
	res, err := h.triage.Triage(ctx, store, processor.TriageRequest{
		JobName:     req.JobName,
		Keywords:    req.Keywords,
		Description: req.Description,
	})
	if err != nil {
		h.fail(ctx, c, err)
		return nil, nil, false
	}
	return store, res, true
}
