package router

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"

	"resume-triage/internal/api/handler"
	"resume-triage/internal/api/middleware"
	"resume-triage/internal/metrics"
)

// APIPrefix 业务接口前缀
const APIPrefix = "/api/v1"

// Options 路由选项
type Options struct {
	APIKeys     []string         // 为空时不校验
	KeyHeader   string           // API Key 所在请求头
	Metrics     *metrics.Metrics // 为 nil 时不暴露指标端点
	MetricsPath string
	Logger      zerolog.Logger
}

// RegisterRoutes 注册中间件与 API 路由
func RegisterRoutes(h *server.Hertz, hd *handler.Handler, opts Options) {
	if opts.KeyHeader == "" {
		opts.KeyHeader = "X-API-Key"
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}

	h.Use(middleware.RequestID(opts.Logger), middleware.AccessLog())

	h.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		h.GET(opts.MetricsPath, adaptor.HertzHandler(opts.Metrics.Handler()))
	}

	api := h.Group(APIPrefix, middleware.APIKey(opts.APIKeys, opts.KeyHeader, isPublic))

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api.POST("/sessions", hd.HandleCreateSession)
	s := api.Group("/sessions/:session_id")
	s.DELETE("", hd.HandleEndSession)

	s.POST("/resumes", hd.HandleUploadResumes)
	s.GET("/resumes", hd.HandleListResumes)
	s.GET("/resumes/table", hd.HandleResumeTable)
	s.GET("/resumes/export", hd.HandleExportBank)
	s.GET("/resumes/:filename/text", hd.HandleDownloadText)
	s.GET("/resumes/:filename/file", hd.HandleDownloadFile)

	s.GET("/search", hd.HandleSearch)
	s.GET("/search/export", hd.HandleSearchExport)

	s.POST("/analysis", hd.HandleAnalysis)
	s.POST("/triage", hd.HandleTriage)
	s.POST("/triage/table", hd.HandleTriageTable)
	s.POST("/triage/export", hd.HandleTriageExport)
}

// isPublic 不需要 API Key 的路径
func isPublic(ctx *app.RequestContext) bool {
	return strings.HasSuffix(string(ctx.Path()), "/health")
}
