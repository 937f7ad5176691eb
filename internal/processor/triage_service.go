package processor

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-triage/internal/metrics"
	"resume-triage/internal/session"
	"resume-triage/internal/tracing"
	"resume-triage/internal/triage"
	"resume-triage/internal/types"
)

// 查询词来源
const (
	SourceKeywords    = "keywords"
	SourceDescription = "description"
)

// TriageRequest 岗位筛选请求，Keywords 非空时优先使用，否则从 Description 提取
type TriageRequest struct {
	JobName     string
	Keywords    string
	Description string
}

// TriageResult 岗位筛选结果
type TriageResult struct {
	Terms  triage.TermSet
	Source string
	Groups []types.RankedGroup
	Export *types.TriageExport
}

// TriageService 会话内的搜索、兼容度分析、岗位筛选与导出
// 所有操作都基于会话记录的快照
type TriageService struct {
	jd      *JDProcessor
	files   triage.FileSource
	audit   AuditRecorder
	metrics *metrics.Metrics
	logger  zerolog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// ServiceOption TriageService 配置选项
type ServiceOption func(*TriageService)

// WithTriageAudit 设置审计记录器
func WithTriageAudit(audit AuditRecorder) ServiceOption {
	return func(s *TriageService) {
		s.audit = audit
	}
}

// WithTriageMetrics 设置指标
func WithTriageMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *TriageService) {
		s.metrics = m
	}
}

// WithTriageLogger 设置日志记录器
func WithTriageLogger(logger zerolog.Logger) ServiceOption {
	return func(s *TriageService) {
		s.logger = logger
	}
}

// WithClock 设置时间来源，导出文件名中的日期取自这里
func WithClock(now func() time.Time) ServiceOption {
	return func(s *TriageService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTriageService 创建筛选服务
func NewTriageService(jd *JDProcessor, files triage.FileSource, options ...ServiceOption) (*TriageService, error) {
	if jd == nil {
		return nil, fmt.Errorf("JDProcessor 不能为空")
	}
	if files == nil {
		return nil, fmt.Errorf("FileSource 不能为空")
	}
	s := &TriageService{
		jd:     jd,
		files:  files,
		logger: zerolog.Nop(),
		tracer: otel.Tracer("triage-service"),
		now:    time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s, nil
}

// Search 按逗号分隔的关键词对会话记录分组排序
// 空查询返回空分组
func (s *TriageService) Search(ctx context.Context, store *session.Store, query string) (triage.TermSet, []types.RankedGroup) {
	_, span := s.tracer.Start(ctx, "TriageService.Search")
	defer span.End()

	terms := triage.Normalize(query)
	groups := triage.RankAndGroup(store.Snapshot(), terms)
	s.metrics.IncQuery("search")
	span.SetAttributes(
		attribute.Int("query.terms", terms.Len()),
		attribute.Int("result.groups", len(groups)),
	)
	s.logger.Info().
		Str("session_id", store.ID()).
		Strs("terms", terms.Bases()).
		Int("matched", triage.CountMembers(groups)).
		Msg("关键词搜索完成")
	return terms, groups
}

// Analyze 从岗位描述提取关键词，并给出每份简历的命中情况（包括未命中的）
func (s *TriageService) Analyze(ctx context.Context, store *session.Store, description string) (triage.TermSet, []types.MatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "TriageService.Analyze")
	defer span.End()

	terms, err := s.jd.DeriveTerms(ctx, description)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return triage.TermSet{}, nil, err
	}
	results := triage.Score(store.Snapshot(), terms)
	s.metrics.IncQuery("analysis")
	span.SetAttributes(attribute.Int("query.terms", terms.Len()))
	return terms, results, nil
}

// Triage 执行岗位筛选并构建导出结果，审计尽力而为
func (s *TriageService) Triage(ctx context.Context, store *session.Store, req TriageRequest) (*TriageResult, error) {
	ctx, span := s.tracer.Start(ctx, "TriageService.Triage",
		trace.WithAttributes(attribute.String("triage.job_name", req.JobName)))
	defer span.End()

	res := &TriageResult{Source: SourceKeywords}
	if strings.TrimSpace(req.Keywords) != "" || strings.TrimSpace(req.Description) == "" {
		res.Terms = triage.Normalize(req.Keywords)
	} else {
		terms, err := s.jd.DeriveTerms(ctx, req.Description)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeLLM)
			return nil, err
		}
		res.Source = SourceDescription
		res.Terms = terms
	}

	snapshot := store.Snapshot()
	res.Groups = triage.RankAndGroup(snapshot, res.Terms)
	ts := s.now()
	res.Export = triage.BuildExport(res.Groups, res.Terms, req.JobName, ts)
	s.metrics.IncQuery("triage")

	span.SetAttributes(
		attribute.String("triage.source", res.Source),
		attribute.Int("result.groups", len(res.Groups)),
	)
	s.logger.Info().
		Str("session_id", store.ID()).
		Str("job_name", req.JobName).
		Str("source", res.Source).
		Strs("terms", res.Terms.Bases()).
		Int("groups", len(res.Groups)).
		Msg("岗位筛选完成")

	s.recordTriage(ctx, store.ID(), req.JobName, res, len(snapshot), ts)
	return res, nil
}

func (s *TriageService) recordTriage(ctx context.Context, sessionID, jobName string, res *TriageResult, documents int, ts time.Time) {
	if s.audit == nil {
		return
	}
	counts := make(map[int]int, len(res.Groups))
	for _, g := range res.Groups {
		counts[g.Count] = len(g.Members)
	}
	event := types.TriageExportedEvent{
		RunID:       uuid.NewString(),
		SessionID:   sessionID,
		JobName:     jobName,
		Source:      res.Source,
		Terms:       res.Terms.Bases(),
		GroupCounts: counts,
		Documents:   documents,
		ExportedAt:  ts,
	}
	if err := s.audit.RecordTriage(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("job_name", jobName).Msg("写入筛选审计失败")
	}
}

// SearchEntries 关键词搜索结果的压缩包条目，布局与岗位筛选相同
func (s *TriageService) SearchEntries(groups []types.RankedGroup, terms triage.TermSet) []types.ArchiveEntry {
	return triage.BucketEntries(groups, terms)
}

// BankEntries 整个简历库的压缩包条目
func (s *TriageService) BankEntries(store *session.Store) []types.ArchiveEntry {
	return triage.BankEntries(store.Snapshot())
}

// WriteArchive 写出压缩包，任一原始文件缺失时整个导出中止且不写任何字节
func (s *TriageService) WriteArchive(ctx context.Context, w io.Writer, entries []types.ArchiveEntry) error {
	ctx, span := s.tracer.Start(ctx, "TriageService.WriteArchive",
		trace.WithAttributes(attribute.Int("archive.entries", len(entries))))
	defer span.End()

	if err := triage.WriteArchive(ctx, w, s.files, entries); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return err
	}
	documents := 0
	for _, e := range entries {
		if e.Source != "" {
			documents++
		}
	}
	s.metrics.AddExported(documents)
	return nil
}
