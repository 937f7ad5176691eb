package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-triage/internal/constants"
	"resume-triage/internal/processor"
	"resume-triage/internal/triage"
)

// uploadField 批量上传的表单字段
const uploadField = "files"

// UploadResponse 批量上传响应
type UploadResponse struct {
	SessionID string                   `json:"session_id"`
	Results   []processor.IngestResult `json:"results"`
	Ingested  int                      `json:"ingested"`
	Total     int                      `json:"total"`
}

// HandleUploadResumes 批量上传简历，逐个返回结果
// POST /api/v1/sessions/:session_id/resumes
func (h *Handler) HandleUploadResumes(ctx context.Context, c *app.RequestContext) {
	store, ok := h.store(ctx, c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.fail(ctx, c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	headers := form.File[uploadField]
	if len(headers) == 0 {
		h.fail(ctx, c, fmt.Errorf("%w: 表单字段 %s 中没有文件", errBadRequest, uploadField))
		return
	}

	uploads := make([]processor.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.fail(ctx, c, fmt.Errorf("打开上传文件 %s 失败: %w", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.fail(ctx, c, fmt.Errorf("读取上传文件 %s 失败: %w", fh.Filename, err))
			return
		}
		uploads = append(uploads, processor.Upload{Filename: fh.Filename, Data: data})
	}

	results := h.resumes.IngestBatch(ctx, store, uploads)
	ingested := 0
	for _, r := range results {
		if r.Status == processor.IngestStatusIngested {
			ingested++
		}
	}
	c.JSON(consts.StatusOK, UploadResponse{
		SessionID: store.ID(),
		Results:   results,
		Ingested:  ingested,
		Total:     store.Len(),
	})
}

// HandleListResumes 简历库
// GET /api/v1/sessions/:session_id/resumes
func (h *Handler) HandleListResumes(ctx context.Context, c *app.RequestContext) {
	store, ok := h.store(ctx, c)
	if !ok {
		return
	}
	records := store.Snapshot()
	c.JSON(consts.StatusOK, utils.H{
		"session_id": store.ID(),
		"count":      len(records),
		"resumes":    records,
	})
}

// HandleResumeTable 简历库表格
// GET /api/v1/sessions/:session_id/resumes/table
func (h *Handler) HandleResumeTable(ctx context.Context, c *app.RequestContext) {
	store, ok := h.store(ctx, c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := triage.RenderBankTable(&buf, store.Snapshot(), h.fileLink(store.ID())); err != nil {
		h.fail(ctx, c, err)
		return
	}
	c.Data(consts.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// HandleExportBank 整个简历库打包下载
// GET /api/v1/sessions/:session_id/resumes/export
func (h *Handler) HandleExportBank(ctx context.Context, c *app.RequestContext) {
	store, ok := h.store(ctx, c)
	if !ok {
		return
	}
	h.writeArchive(ctx, c, constants.BankArchiveFilename, h.triage.BankEntries(store))
}

// HandleDownloadText 下载单份简历提取出的全文
// GET /api/v1/sessions/:session_id/resumes/:filename/text
func (h *Handler) HandleDownloadText(ctx context.Context, c *app.RequestContext) {
	store, ok := h.store(ctx, c)
	if !ok {
		return
	}
	filename := c.Param("filename")
	rec, found := store.Get(filename)
	if !found {
		h.fail(ctx, c, fmt.Errorf("%w: %s", errRecordNotFound, filename))
		return
	}
	attach(c, rec.Filename+".txt")
	c.Data(consts.StatusOK, "text/plain; charset=utf-8", []byte(rec.RawText))
}

// HandleDownloadFile 下载原始文件
// GET /api/v1/sessions/:session_id/resumes/:filename/file
func (h *Handler) HandleDownloadFile(ctx context.Context, c *app.RequestContext) {
	store, ok := h.store(ctx, c)
	if !ok {
		return
	}
	filename := c.Param("filename")
	rec, found := store.Get(filename)
	if !found {
		h.fail(ctx, c, fmt.Errorf("%w: %s", errRecordNotFound, filename))
		return
	}
	data, err := h.readFile(ctx, rec.FilePath)
	if err != nil {
		h.fail(ctx, c, err)
		return
	}
	attach(c, rec.Filename)
	c.Data(consts.StatusOK, contentType(rec.Filename), data)
}

func (h *Handler) readFile(ctx context.Context, ref string) ([]byte, error) {
	rc, err := h.files.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func contentType(filename string) string {
	if path.Ext(filename) == ".pdf" {
		return "application/pdf"
	}
	return "application/octet-stream"
}
