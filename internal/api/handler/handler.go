package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/url"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"resume-triage/internal/processor"
	"resume-triage/internal/session"
	"resume-triage/internal/storage"
	"resume-triage/internal/tracing"
	"resume-triage/internal/triage"
	"resume-triage/internal/types"
)

// noMatchesMessage 没有任何命中时返回给前端的提示
const noMatchesMessage = "Nenhum currículo corresponde às palavras-chave informadas."

// Deps 处理器依赖
type Deps struct {
	Sessions *session.Manager
	Resumes  *processor.ResumeProcessor
	Triage   *processor.TriageService
	Files    processor.FileStore
	Logger   zerolog.Logger
	// BasePath 生成 PDF 下载链接时使用的路由前缀
	BasePath string
}

// Handler 会话、简历与筛选相关的 HTTP 处理器
type Handler struct {
	sessions *session.Manager
	resumes  *processor.ResumeProcessor
	triage   *processor.TriageService
	files    processor.FileStore
	logger   zerolog.Logger
	basePath string
}

// New 创建处理器
func New(d Deps) (*Handler, error) {
	if d.Sessions == nil || d.Resumes == nil || d.Triage == nil || d.Files == nil {
		return nil, fmt.Errorf("handler 依赖不完整")
	}
	if d.BasePath == "" {
		d.BasePath = "/api/v1"
	}
	return &Handler{
		sessions: d.Sessions,
		resumes:  d.Resumes,
		triage:   d.Triage,
		files:    d.Files,
		logger:   d.Logger,
		basePath: d.BasePath,
	}, nil
}

// store 取路径中的会话，不存在时直接写 404
func (h *Handler) store(ctx context.Context, c *app.RequestContext) (*session.Store, bool) {
	store, err := h.sessions.Get(c.Param("session_id"))
	if err != nil {
		h.fail(ctx, c, err)
		return nil, false
	}
	return store, true
}

// statusFor 错误到状态码的映射
func statusFor(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, storage.ErrFileNotFound),
		errors.Is(err, errRecordNotFound):
		return consts.StatusNotFound
	case errors.As(err, &validationErrs),
		errors.Is(err, processor.ErrEmptyDescription),
		errors.Is(err, processor.ErrInvalidUpload),
		errors.Is(err, errBadRequest):
		return consts.StatusBadRequest
	case errors.Is(err, triage.ErrMissingFile):
		return consts.StatusConflict
	case errors.Is(err, processor.ErrKeywordDerivation), errors.Is(err, processor.ErrExtractionFailed):
		return consts.StatusBadGateway
	default:
		return consts.StatusInternalServerError
	}
}

var (
	errBadRequest     = errors.New("请求格式错误")
	errRecordNotFound = errors.New("简历不存在")
)

func (h *Handler) fail(ctx context.Context, c *app.RequestContext, err error) {
	status := statusFor(err)
	if status >= consts.StatusInternalServerError {
		l := zerolog.Ctx(ctx)
		if l.GetLevel() == zerolog.Disabled {
			l = &h.logger
		}
		l.Error().Err(err).Str("path", string(c.Path())).Msg("请求处理失败")
		tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)
	}
	c.AbortWithStatusJSON(status, utils.H{"error": err.Error()})
}

// bindJSON 解析并校验 JSON 请求体
func bindJSON(c *app.RequestContext, req interface{ Validate() error }) error {
	if err := json.Unmarshal(c.Request.Body(), req); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return req.Validate()
}

// attach 设置下载文件名
func attach(c *app.RequestContext, filename string) {
	c.Response.Header.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

// writeArchive 先在内存中生成压缩包，成功后才写响应
func (h *Handler) writeArchive(ctx context.Context, c *app.RequestContext, filename string, entries []types.ArchiveEntry) {
	var buf bytes.Buffer
	if err := h.triage.WriteArchive(ctx, &buf, entries); err != nil {
		h.fail(ctx, c, err)
		return
	}
	attach(c, filename)
	c.Data(consts.StatusOK, "application/zip", buf.Bytes())
}

// fileLink 表格中 PDF 下载链接
func (h *Handler) fileLink(sessionID string) triage.LinkFunc {
	return func(filename string) string {
		return fmt.Sprintf("%s/sessions/%s/resumes/%s/file", h.basePath, url.PathEscape(sessionID), url.PathEscape(filename))
	}
}

func groupViews(groups []types.RankedGroup) []GroupView {
	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, GroupView{
			Count: g.Count,
			Title: triage.GroupTitle(g.Count),
			Rows:  triage.Rows(g.Members),
		})
	}
	return views
}
