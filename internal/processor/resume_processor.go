package processor // 定义了简历入库、岗位关键词提取与筛选的核心流程

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-triage/internal/config"
	"resume-triage/internal/metrics"
	"resume-triage/internal/parser"
	"resume-triage/internal/session"
	"resume-triage/internal/tracing"
	"resume-triage/internal/triage"
	"resume-triage/internal/types"
)

// IngestStatus 单个文件的入库结果
type IngestStatus string

const (
	IngestStatusIngested IngestStatus = metrics.StatusIngested
	IngestStatusSkipped  IngestStatus = metrics.StatusSkipped
	IngestStatusFailed   IngestStatus = metrics.StatusFailed
)

// Upload 一个上传的文件
type Upload struct {
	Filename string
	Data     []byte
}

// IngestResult 单个文件的入库结果，批量上传时逐个返回
type IngestResult struct {
	Filename string                 `json:"filename"`
	Status   IngestStatus           `json:"status"`
	Error    string                 `json:"error,omitempty"`
	Record   *types.CandidateRecord `json:"-"`
}

// Components 聚合入库所需的组件依赖，便于集中管理和测试替换
type Components struct {
	Extractor TextExtractor // 文本提取
	Terms     TermExtractor // 姓名、关键词、工作年限
	Files     FileStore     // 原始文件存储
}

// ResumeProcessor 简历入库处理器
type ResumeProcessor struct {
	Components

	audit     AuditRecorder
	metrics   *metrics.Metrics
	questions config.QuestionsConfig
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Option ResumeProcessor 配置选项
type Option func(*ResumeProcessor)

// WithAuditRecorder 设置审计记录器，未设置时不写审计
func WithAuditRecorder(audit AuditRecorder) Option {
	return func(p *ResumeProcessor) {
		p.audit = audit
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *ResumeProcessor) {
		p.metrics = m
	}
}

// WithQuestions 设置向模型提出的问题，空字段保持默认
func WithQuestions(q config.QuestionsConfig) Option {
	return func(p *ResumeProcessor) {
		if q.Name != "" {
			p.questions.Name = q.Name
		}
		if q.Keywords != "" {
			p.questions.Keywords = q.Keywords
		}
		if q.Experience != "" {
			p.questions.Experience = q.Experience
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger zerolog.Logger) Option {
	return func(p *ResumeProcessor) {
		p.logger = logger
	}
}

// NewResumeProcessor 创建简历入库处理器
func NewResumeProcessor(comp Components, options ...Option) (*ResumeProcessor, error) {
	if comp.Extractor == nil {
		return nil, fmt.Errorf("TextExtractor 不能为空")
	}
	if comp.Terms == nil {
		return nil, fmt.Errorf("TermExtractor 不能为空")
	}
	if comp.Files == nil {
		return nil, fmt.Errorf("FileStore 不能为空")
	}

	p := &ResumeProcessor{
		Components: comp,
		questions: config.QuestionsConfig{
			Name:       config.DefaultNameQuestion,
			Keywords:   config.DefaultKeywordsQuestion,
			Experience: config.DefaultExperienceQuestion,
		},
		logger: zerolog.Nop(),
		tracer: otel.Tracer("resume-processor"),
		now:    time.Now,
	}
	for _, option := range options {
		option(p)
	}
	return p, nil
}

// IngestBatch 按顺序处理一批上传，每个上传返回一个结果
// 单个文件失败不影响其余文件
func (p *ResumeProcessor) IngestBatch(ctx context.Context, store *session.Store, uploads []Upload) []IngestResult {
	results := make([]IngestResult, 0, len(uploads))
	for _, up := range uploads {
		res, err := p.Ingest(ctx, store, up)
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// Ingest 处理单个上传
//  1. 文件名已在会话中存在时跳过
//  2. 保存原始文件
//  3. 提取全文与联系方式
//  4. 向模型询问姓名、技术关键词和工作年限
//  5. 写入会话记录，审计尽力而为
//
// 第 2 到 4 步任一失败时，本文件不入库，已保存的原始文件会被删除
func (p *ResumeProcessor) Ingest(ctx context.Context, store *session.Store, up Upload) (IngestResult, error) {
	start := p.now()
	filename := cleanFilename(up.Filename)
	res := IngestResult{Filename: filename}

	ctx, span := p.tracer.Start(ctx, "ResumeProcessor.Ingest",
		trace.WithAttributes(
			attribute.String("session.id", store.ID()),
			attribute.String("resume.filename", tracing.SafeAttributeValue("filename", filename, tracing.DefaultMaxLength)),
			attribute.Int("resume.size_bytes", len(up.Data)),
		))
	defer span.End()

	fail := func(err error) (IngestResult, error) {
		res.Status = IngestStatusFailed
		tracing.RecordError(span, err, tracing.ErrorTypeExtraction)
		p.metrics.ObserveIngest(string(res.Status), p.now().Sub(start))
		p.logger.Warn().Err(err).Str("session_id", store.ID()).Str("filename", filename).Msg("简历入库失败")
		return res, err
	}

	if filename == "" || len(up.Data) == 0 {
		return fail(newIngestError(up.Filename, OpValidate, ErrInvalidUpload, errors.New("文件名或内容为空")))
	}

	if !store.Claim(filename) {
		res.Status = IngestStatusSkipped
		span.SetAttributes(attribute.String("resume.status", string(res.Status)))
		p.metrics.ObserveIngest(string(res.Status), p.now().Sub(start))
		p.logger.Info().Str("session_id", store.ID()).Str("filename", filename).Msg("文件已入库，跳过")
		return res, nil
	}
	defer store.Release(filename)

	ref, err := p.Files.Save(ctx, store.ID(), filename, up.Data)
	if err != nil {
		return fail(newIngestError(filename, OpSave, ErrStoreFileFailed, err))
	}

	rec, err := p.extract(ctx, filename, ref, up.Data)
	if err != nil {
		p.removeSaved(ctx, ref)
		return fail(err)
	}

	if !store.Add(rec) {
		// 同名记录未经占用直接写入，原始文件路径相同，不删除
		res.Status = IngestStatusSkipped
		p.metrics.ObserveIngest(string(res.Status), p.now().Sub(start))
		return res, nil
	}

	res.Status = IngestStatusIngested
	res.Record = rec
	span.SetAttributes(
		attribute.String("resume.status", string(res.Status)),
		attribute.Int("resume.keyword_count", len(rec.Keywords)),
	)
	span.SetStatus(codes.Ok, "")
	p.metrics.ObserveIngest(string(res.Status), p.now().Sub(start))

	p.logger.Info().
		Str("session_id", store.ID()).
		Str("filename", filename).
		Int("keywords", len(rec.Keywords)).
		Strs("emails", tracing.MaskAll(rec.Emails)).
		Strs("phones", tracing.MaskAll(rec.Phones)).
		Dur("elapsed", p.now().Sub(start)).
		Msg("简历入库完成")

	p.recordAudit(ctx, store.ID(), rec)
	return res, nil
}

// extract 提取全文、联系方式和模型回答，构建记录
func (p *ResumeProcessor) extract(ctx context.Context, filename, ref string, data []byte) (*types.CandidateRecord, error) {
	stageStart := p.now()
	text, err := p.Extractor.ExtractText(ctx, ref, bytes.NewReader(data))
	p.metrics.ObserveStage("text", p.now().Sub(stageStart))
	if err != nil {
		return nil, newIngestError(filename, OpExtract, ErrExtractionFailed, err)
	}

	contacts := parser.ExtractContacts(text)

	stageStart = p.now()
	fullName, err := p.Terms.Answer(ctx, text, p.questions.Name)
	p.metrics.IncLLMCall(err)
	p.metrics.ObserveStage(OpName, p.now().Sub(stageStart))
	if err != nil {
		return nil, newIngestError(filename, OpName, ErrExtractionFailed, err)
	}

	stageStart = p.now()
	keywords, err := p.Terms.ExtractKeywords(ctx, text, p.questions.Keywords)
	p.metrics.IncLLMCall(err)
	p.metrics.ObserveStage(OpKeywords, p.now().Sub(stageStart))
	if err != nil {
		return nil, newIngestError(filename, OpKeywords, ErrExtractionFailed, err)
	}

	stageStart = p.now()
	experience, err := p.Terms.Answer(ctx, text, p.questions.Experience)
	p.metrics.IncLLMCall(err)
	p.metrics.ObserveStage(OpExperience, p.now().Sub(stageStart))
	if err != nil {
		return nil, newIngestError(filename, OpExperience, ErrExtractionFailed, err)
	}

	return &types.CandidateRecord{
		Filename:        filename,
		RawText:         text,
		FilePath:        ref,
		FullName:        fullName,
		Phones:          contacts.Phones,
		Emails:          contacts.Emails,
		LinkedInLinks:   contacts.LinkedIn,
		Keywords:        triage.FromKeywords(keywords).Bases(),
		ExperienceYears: experience,
		IngestedAt:      p.now(),
	}, nil
}

func (p *ResumeProcessor) removeSaved(ctx context.Context, ref string) {
	if err := p.Files.Delete(context.WithoutCancel(ctx), ref); err != nil {
		p.logger.Warn().Err(err).Str("ref", ref).Msg("删除未入库的原始文件失败")
	}
}

func (p *ResumeProcessor) recordAudit(ctx context.Context, sessionID string, rec *types.CandidateRecord) {
	if p.audit == nil {
		return
	}
	event := types.ResumeIngestedEvent{
		SessionID:     sessionID,
		Filename:      rec.Filename,
		FilePath:      rec.FilePath,
		KeywordCount:  len(rec.Keywords),
		TextLength:    len(rec.RawText),
		IngestedAt:    rec.IngestedAt,
		ExtractorName: p.Extractor.Name(),
	}
	if err := p.audit.RecordIngestion(ctx, event, rec); err != nil {
		p.logger.Warn().Err(err).Str("filename", rec.Filename).Msg("写入入库审计失败")
	}
}

// cleanFilename 只保留上传文件名的最后一段
func cleanFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
