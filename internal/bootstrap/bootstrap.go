// Package bootstrap 根据配置组装提取器、模型与处理器，HTTP 服务和命令行工具共用
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"resume-triage/internal/config"
	"resume-triage/internal/metrics"
	"resume-triage/internal/parser"
	"resume-triage/internal/processor"
	"resume-triage/internal/storage"
)

// Services 组装好的业务组件
type Services struct {
	Resumes *processor.ResumeProcessor
	JD      *processor.JDProcessor
	Triage  *processor.TriageService
}

// NewTermExtractor 创建 genai 客户端及其之上的关键词/问答提取器
func NewTermExtractor(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*parser.GenAITermExtractor, error) {
	generator, err := parser.NewGenAIGenerator(ctx, parser.GenAIOptions{
		Backend:  cfg.GenAI.Backend,
		Project:  cfg.GenAI.Project,
		Location: cfg.GenAI.Location,
		APIKey:   cfg.GenAI.APIKey,
		Model:    cfg.GenAI.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 genai 客户端失败: %w", err)
	}
	return parser.NewGenAITermExtractor(generator,
		parser.WithGenerationConfig(generationConfig(cfg.GenAI.Generation)),
		parser.WithQPM(cfg.GenAI.QPM),
		parser.WithCallTimeout(config.GetDuration(cfg.GenAI.Timeout, 0)),
		parser.WithTermLogger(logger.With().Str("component", "genai").Logger()),
	), nil
}

// NewServices 组装简历入库、JD 关键词与筛选服务
// st 中可选的 Redis/MySQL 为 nil 时对应的缓存与审计不启用
func NewServices(cfg *config.Config, st *storage.Storage, extractor processor.TextExtractor, terms processor.TermExtractor, m *metrics.Metrics, logger zerolog.Logger) (*Services, error) {
	jdOpts := []processor.JDOption{
		processor.WithJDQuestion(cfg.Questions.Keywords),
		processor.WithJDMetrics(m),
		processor.WithJDProcessorLogger(logger.With().Str("component", "jd").Logger()),
	}
	if st.Redis != nil {
		jdOpts = append(jdOpts, processor.WithKeywordCache(st.Redis))
	}
	jd, err := processor.NewJDProcessor(terms, jdOpts...)
	if err != nil {
		return nil, err
	}

	resumeOpts := []processor.Option{
		processor.WithMetrics(m),
		processor.WithQuestions(cfg.Questions),
		processor.WithLogger(logger.With().Str("component", "resume").Logger()),
	}
	triageOpts := []processor.ServiceOption{
		processor.WithTriageMetrics(m),
		processor.WithTriageLogger(logger.With().Str("component", "triage").Logger()),
	}
	if st.MySQL != nil {
		resumeOpts = append(resumeOpts, processor.WithAuditRecorder(st.MySQL))
		triageOpts = append(triageOpts, processor.WithTriageAudit(st.MySQL))
	}

	resumes, err := processor.NewResumeProcessor(processor.Components{
		Extractor: extractor,
		Terms:     terms,
		Files:     st.Files,
	}, resumeOpts...)
	if err != nil {
		return nil, err
	}
	svc, err := processor.NewTriageService(jd, st.Files, triageOpts...)
	if err != nil {
		return nil, err
	}
	return &Services{Resumes: resumes, JD: jd, Triage: svc}, nil
}

func generationConfig(c config.GenerationConfig) parser.GenerationConfig {
	g := parser.DefaultGenerationConfig()
	if c.Temperature != nil {
		g.Temperature = *c.Temperature
	}
	if c.MaxOutputTokens > 0 {
		g.MaxOutputTokens = c.MaxOutputTokens
	}
	if c.TopP != nil {
		g.TopP = *c.TopP
	}
	if c.TopK != nil {
		g.TopK = *c.TopK
	}
	return g
}
