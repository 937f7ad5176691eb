package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ErrEmptyText 没有可提问的文本
var ErrEmptyText = errors.New("文本为空")

// GenerationConfig 生成参数
//   - Temperature: 采样温度，越高越发散
//   - MaxOutputTokens: 回答的最大 token 数
//   - TopP: 核采样的累计概率阈值
//   - TopK: 每步只在概率最高的 K 个 token 中采样
type GenerationConfig struct {
	Temperature     float32
	MaxOutputTokens int32
	TopP            float32
	TopK            float32
}

// DefaultGenerationConfig 关键词与实体提取的默认参数
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     1,
		MaxOutputTokens: 2000,
		TopP:            0,
		TopK:            1,
	}
}

func (c GenerationConfig) toGenAI() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.Temperature),
		MaxOutputTokens: c.MaxOutputTokens,
		TopP:            genai.Ptr(c.TopP),
		TopK:            genai.Ptr(c.TopK),
	}
}

// Generator 单轮文本生成
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
}

// GenAIOptions 客户端配置
type GenAIOptions struct {
	Backend  string // vertex 或 gemini
	Project  string
	Location string
	APIKey   string
	Model    string
}

// GenAIGenerator 基于 google.golang.org/genai 的 Generator
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

var _ Generator = (*GenAIGenerator)(nil)

// NewGenAIGenerator 创建 Vertex AI 或 Gemini API 客户端
func NewGenAIGenerator(ctx context.Context, opts GenAIOptions) (*GenAIGenerator, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("genai 模型名称不能为空")
	}

	var cfg *genai.ClientConfig
	switch opts.Backend {
	case "gemini":
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, errors.New("gemini 后端需要 api_key")
		}
		cfg = &genai.ClientConfig{
			APIKey:  opts.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
	case "vertex", "":
		if opts.Project == "" {
			return nil, errors.New("vertex 后端需要 project")
		}
		cfg = &genai.ClientConfig{
			Project:  opts.Project,
			Location: opts.Location,
			Backend:  genai.BackendVertexAI,
		}
	default:
		return nil, fmt.Errorf("不支持的 genai 后端: %s", opts.Backend)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIGenerator{client: client, model: model}, nil
}

// Generate 发送提示词并拼接首个候选的文本
func (g *GenAIGenerator) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg.toGenAI())
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", nil
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return "", nil
	}
	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		builder.WriteString(part.Text)
	}
	return builder.String(), nil
}

// Model 模型名称
func (g *GenAIGenerator) Model() string {
	return g.model
}

// GenAITermExtractor 通过向模型提问提取关键词、姓名和经验年限
type GenAITermExtractor struct {
	generator Generator
	config    GenerationConfig
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    zerolog.Logger
}

// TermExtractorOption 配置选项
type TermExtractorOption func(*GenAITermExtractor)

// WithGenerationConfig 设置生成参数
func WithGenerationConfig(cfg GenerationConfig) TermExtractorOption {
	return func(e *GenAITermExtractor) {
		e.config = cfg
	}
}

// WithQPM 限制每分钟的请求数，0 表示不限制
func WithQPM(qpm int) TermExtractorOption {
	return func(e *GenAITermExtractor) {
		if qpm > 0 {
			e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(qpm)), 1)
		}
	}
}

// WithCallTimeout 单次模型调用超时
func WithCallTimeout(timeout time.Duration) TermExtractorOption {
	return func(e *GenAITermExtractor) {
		e.timeout = timeout
	}
}

// WithTermLogger 设置日志记录器
func WithTermLogger(logger zerolog.Logger) TermExtractorOption {
	return func(e *GenAITermExtractor) {
		e.logger = logger
	}
}

// NewGenAITermExtractor 创建提取器
func NewGenAITermExtractor(generator Generator, options ...TermExtractorOption) *GenAITermExtractor {
	e := &GenAITermExtractor{
		generator: generator,
		config:    DefaultGenerationConfig(),
		logger:    zerolog.Nop(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// ExtractKeywords 提问并把逗号分隔的回答拆成关键词
func (e *GenAITermExtractor) ExtractKeywords(ctx context.Context, text, question string) ([]string, error) {
	answer, err := e.ask(ctx, text, question)
	if err != nil {
		return nil, err
	}
	return ParseKeywordAnswer(answer), nil
}

// Answer 提问并返回去掉首尾空白的回答
func (e *GenAITermExtractor) Answer(ctx context.Context, text, question string) (string, error) {
	answer, err := e.ask(ctx, text, question)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (e *GenAITermExtractor) ask(ctx context.Context, text, question string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("等待模型调用配额失败: %w", err)
		}
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(text, question)
	start := time.Now()
	answer, err := e.generator.Generate(ctx, prompt, e.config)
	if err != nil {
		e.logger.Warn().Err(err).Str("question", question).Int("prompt_length", len(prompt)).Dur("duration", time.Since(start)).Msg("模型调用失败")
		return "", fmt.Errorf("模型调用失败: %w", err)
	}
	e.logger.Debug().Str("question", question).Int("answer_length", len(answer)).Dur("duration", time.Since(start)).Msg("模型调用完成")
	return answer, nil
}

// BuildPrompt 把文本和问题拼成单轮问答提示词
func BuildPrompt(text, question string) string {
	return text + "\n Q:" + question + "\n A:"
}

// ParseKeywordAnswer 去掉括号后按逗号拆分，去掉首尾空白并丢弃空项
func ParseKeywordAnswer(answer string) []string {
	cleaned := strings.NewReplacer("(", "", ")", "").Replace(answer)
	parts := strings.Split(cleaned, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}
