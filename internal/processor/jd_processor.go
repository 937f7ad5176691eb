package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"resume-triage/internal/config"
	"resume-triage/internal/metrics"
	"resume-triage/internal/triage"
)

// JDProcessor 负责从岗位描述 (JD) 中提取技术关键词
type JDProcessor struct {
	terms    TermExtractor
	cache    KeywordCache
	question string
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// JDOption 定义了 JDProcessor 的配置选项函数类型。
type JDOption func(*JDProcessor)

// WithKeywordCache 设置关键词缓存，未设置时每次都调用模型
func WithKeywordCache(cache KeywordCache) JDOption {
	return func(p *JDProcessor) {
		p.cache = cache
	}
}

// WithJDQuestion 设置提取关键词时的问题
func WithJDQuestion(question string) JDOption {
	return func(p *JDProcessor) {
		if question != "" {
			p.question = question
		}
	}
}

// WithJDMetrics 设置指标
func WithJDMetrics(m *metrics.Metrics) JDOption {
	return func(p *JDProcessor) {
		p.metrics = m
	}
}

// WithJDProcessorLogger 设置 JDProcessor 使用的日志记录器。
func WithJDProcessorLogger(logger zerolog.Logger) JDOption {
	return func(p *JDProcessor) {
		p.logger = logger
	}
}

// NewJDProcessor 创建一个新的 JDProcessor 实例。
func NewJDProcessor(terms TermExtractor, options ...JDOption) (*JDProcessor, error) {
	if terms == nil {
		return nil, fmt.Errorf("TermExtractor 不能为空")
	}
	p := &JDProcessor{
		terms:    terms,
		question: config.DefaultKeywordsQuestion,
		logger:   zerolog.Nop(),
	}
	for _, option := range options {
		option(p)
	}
	return p, nil
}

// DeriveKeywords 返回岗位描述的关键词，模型回答原样返回
// 先查缓存，未命中再调用模型并写回缓存；缓存读写失败只记录日志
func (p *JDProcessor) DeriveKeywords(ctx context.Context, description string) ([]string, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}

	if p.cache != nil {
		cached, found, err := p.cache.GetJobKeywords(ctx, description)
		switch {
		case err != nil:
			p.metrics.IncKeywordCache("error")
			p.logger.Warn().Err(err).Msg("读取JD关键词缓存失败，继续调用模型")
		case found:
			p.metrics.IncKeywordCache("hit")
			p.logger.Debug().Int("keywords", len(cached)).Msg("JD关键词缓存命中")
			return cached, nil
		default:
			p.metrics.IncKeywordCache("miss")
		}
	}

	keywords, err := p.terms.ExtractKeywords(ctx, description, p.question)
	p.metrics.IncLLMCall(err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeywordDerivation, err)
	}
	p.logger.Info().Int("keywords", len(keywords)).Msg("JD关键词提取完成")

	if p.cache != nil && len(keywords) > 0 {
		if err := p.cache.SetJobKeywords(ctx, description, keywords); err != nil {
			p.logger.Warn().Err(err).Msg("写入JD关键词缓存失败")
		}
	}
	return keywords, nil
}

// DeriveTerms 提取关键词并按用户输入同样的方式规范化
func (p *JDProcessor) DeriveTerms(ctx context.Context, description string) (triage.TermSet, error) {
	keywords, err := p.DeriveKeywords(ctx, description)
	if err != nil {
		return triage.TermSet{}, err
	}
	return triage.FromKeywords(keywords), nil
}
