package processor

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"resume-triage/internal/config"
	"resume-triage/internal/metrics"
	"resume-triage/internal/session"
	"resume-triage/internal/types"
)

const anaText = `Ana Souza
ana.souza@example.com | (11) 98765-4321
https://www.linkedin.com/in/ana-souza
Experiência com Go, PostgreSQL e Kubernetes.`

func defaultAnswers() map[string]string {
	return map[string]string{
		config.DefaultNameQuestion:       "Ana Souza",
		config.DefaultExperienceQuestion: "5",
	}
}

func newTestProcessor(t *testing.T, ext *fakeExtractor, terms *fakeTerms, files *memFiles, opts ...Option) *ResumeProcessor {
	t.Helper()
	p, err := NewResumeProcessor(Components{Extractor: ext, Terms: terms, Files: files}, opts...)
	require.NoError(t, err)
	return p
}

func TestNewResumeProcessorRequiresComponents(t *testing.T) {
	_, err := NewResumeProcessor(Components{})
	assert.Error(t, err)

	_, err = NewResumeProcessor(Components{Extractor: &fakeExtractor{}, Terms: &fakeTerms{}})
	assert.Error(t, err, "缺少文件存储")
}

func TestIngestBuildsRecord(t *testing.T) {
	ext := &fakeExtractor{texts: map[string]string{"ana.pdf": anaText}}
	terms := &fakeTerms{answers: defaultAnswers(), keywords: []string{"Go", " PostgreSQL ", "go", "Kubernetes"}}
	files := newMemFiles()
	p := newTestProcessor(t, ext, terms, files)
	store := session.NewStore("s1")

	res, err := p.Ingest(context.Background(), store, Upload{Filename: "uploads/ana.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, IngestStatusIngested, res.Status)
	assert.Equal(t, "ana.pdf", res.Filename)

	rec, ok := store.Get("ana.pdf")
	require.True(t, ok)
	assert.Same(t, res.Record, rec)
	assert.Equal(t, "s1/ana.pdf", rec.FilePath)
	assert.Equal(t, "Ana Souza", rec.FullName)
	assert.Equal(t, "5", rec.ExperienceYears)
	assert.Equal(t, []string{"go", "postgresql", "kubernetes"}, rec.Keywords)
	assert.Equal(t, []string{"ana.souza@example.com"}, rec.Emails)
	assert.Equal(t, []string{"(11) 98765-4321"}, rec.Phones)
	assert.Equal(t, []string{"https://www.linkedin.com/in/ana-souza"}, rec.LinkedInLinks)
	assert.Equal(t, anaText, rec.RawText)
	assert.Contains(t, files.files, "s1/ana.pdf")
}

func TestIngestBatchStatuses(t *testing.T) {
	ext := &fakeExtractor{
		texts: map[string]string{"ana.pdf": anaText},
		errs:  map[string]error{"broken.pdf": errors.New("pdf corrompido")},
	}
	terms := &fakeTerms{answers: defaultAnswers(), keywords: []string{"Go"}}
	files := newMemFiles()
	m := metrics.New("test")
	p := newTestProcessor(t, ext, terms, files, WithMetrics(m))
	store := session.NewStore("s1")

	results := p.IngestBatch(context.Background(), store, []Upload{
		{Filename: "ana.pdf", Data: []byte("a")},
		{Filename: "broken.pdf", Data: []byte("b")},
		{Filename: "ana.pdf", Data: []byte("a2")},
	})
	require.Len(t, results, 3)

	assert.Equal(t, IngestStatusIngested, results[0].Status)
	assert.Empty(t, results[0].Error)

	assert.Equal(t, IngestStatusFailed, results[1].Status)
	assert.Contains(t, results[1].Error, "pdf corrompido")

	assert.Equal(t, IngestStatusSkipped, results[2].Status)
	assert.Empty(t, results[2].Error)

	assert.Equal(t, 1, store.Len(), "只有成功的文件进入会话")
	assert.Contains(t, files.deleted, "s1/broken.pdf", "失败文件的原始文件被删除")
	assert.NotContains(t, files.files, "s1/broken.pdf")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResumesIngested.WithLabelValues(metrics.StatusIngested)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResumesIngested.WithLabelValues(metrics.StatusFailed)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResumesIngested.WithLabelValues(metrics.StatusSkipped)))
}

func TestIngestDuplicateDoesNotCallCollaborators(t *testing.T) {
	ext := &fakeExtractor{texts: map[string]string{"ana.pdf": anaText}}
	terms := &fakeTerms{answers: defaultAnswers()}
	p := newTestProcessor(t, ext, terms, newMemFiles())
	store := session.NewStore("s1")

	_, err := p.Ingest(context.Background(), store, Upload{Filename: "ana.pdf", Data: []byte("a")})
	require.NoError(t, err)
	calls := terms.calls

	res, err := p.Ingest(context.Background(), store, Upload{Filename: "ana.pdf", Data: []byte("other")})
	require.NoError(t, err)
	assert.Equal(t, IngestStatusSkipped, res.Status)
	assert.Equal(t, calls, terms.calls)
}

func TestIngestLLMFailure(t *testing.T) {
	tests := []struct {
		name     string
		question string
		op       string
	}{
		{"姓名", config.DefaultNameQuestion, OpName},
		{"关键词", config.DefaultKeywordsQuestion, OpKeywords},
		{"工作年限", config.DefaultExperienceQuestion, OpExperience},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &fakeExtractor{texts: map[string]string{"ana.pdf": anaText}}
			terms := &fakeTerms{
				answers: defaultAnswers(),
				errs:    map[string]error{tt.question: errors.New("quota exceeded")},
			}
			files := newMemFiles()
			p := newTestProcessor(t, ext, terms, files)
			store := session.NewStore("s1")

			res, err := p.Ingest(context.Background(), store, Upload{Filename: "ana.pdf", Data: []byte("a")})
			require.Error(t, err)
			assert.Equal(t, IngestStatusFailed, res.Status)
			assert.ErrorIs(t, err, ErrExtractionFailed)

			var ingestErr *IngestError
			require.ErrorAs(t, err, &ingestErr)
			assert.Equal(t, tt.op, ingestErr.Op)
			assert.Equal(t, "ana.pdf", ingestErr.Filename)

			assert.Zero(t, store.Len())
			assert.Empty(t, files.files)
		})
	}
}

func TestIngestSaveFailure(t *testing.T) {
	files := newMemFiles()
	files.saveErr = errors.New("disk full")
	p := newTestProcessor(t, &fakeExtractor{}, &fakeTerms{}, files)

	res, err := p.Ingest(context.Background(), session.NewStore("s1"), Upload{Filename: "a.pdf", Data: []byte("a")})
	assert.ErrorIs(t, err, ErrStoreFileFailed)
	assert.Equal(t, IngestStatusFailed, res.Status)
}

func TestIngestInvalidUpload(t *testing.T) {
	p := newTestProcessor(t, &fakeExtractor{}, &fakeTerms{}, newMemFiles())
	store := session.NewStore("s1")

	_, err := p.Ingest(context.Background(), store, Upload{Filename: "", Data: []byte("a")})
	assert.ErrorIs(t, err, ErrInvalidUpload)

	_, err = p.Ingest(context.Background(), store, Upload{Filename: "a.pdf"})
	assert.ErrorIs(t, err, ErrInvalidUpload)
}

func TestIngestAuditIsBestEffort(t *testing.T) {
	audit := &mockAudit{}
	audit.On("RecordIngestion", mock.Anything,
		mock.MatchedBy(func(e types.ResumeIngestedEvent) bool {
			return e.SessionID == "s1" && e.Filename == "ana.pdf" && e.KeywordCount == 2 && e.ExtractorName == "fake"
		}),
		mock.AnythingOfType("*types.CandidateRecord"),
	).Return(errors.New("mysql down")).Once()

	ext := &fakeExtractor{texts: map[string]string{"ana.pdf": anaText}}
	terms := &fakeTerms{answers: defaultAnswers(), keywords: []string{"Go", "SQL"}}
	p := newTestProcessor(t, ext, terms, newMemFiles(), WithAuditRecorder(audit))
	store := session.NewStore("s1")

	res, err := p.Ingest(context.Background(), store, Upload{Filename: "ana.pdf", Data: []byte("a")})
	require.NoError(t, err)
	assert.Equal(t, IngestStatusIngested, res.Status)
	assert.Equal(t, 1, store.Len())
	audit.AssertExpectations(t)
}

func TestWithQuestionsKeepsDefaultsForEmptyFields(t *testing.T) {
	p := newTestProcessor(t, &fakeExtractor{}, &fakeTerms{}, newMemFiles(),
		WithQuestions(config.QuestionsConfig{Name: "Nome?"}))
	assert.Equal(t, "Nome?", p.questions.Name)
	assert.Equal(t, config.DefaultKeywordsQuestion, p.questions.Keywords)
	assert.Equal(t, config.DefaultExperienceQuestion, p.questions.Experience)
}

func TestCleanFilename(t *testing.T) {
	tests := map[string]string{
		"ana.pdf":              "ana.pdf",
		"  dir/sub/ana.pdf  ":  "ana.pdf",
		`C:\Users\x\joao.pdf`:  "joao.pdf",
		"":                     "",
		"..":                   "",
		"/":                    "",
		"uploads/../maria.pdf": "maria.pdf",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanFilename(in), in)
	}
}

// gateExtractor 阻塞在提取阶段，直到测试放行
type gateExtractor struct {
	entered chan struct{}
	release chan error
}

func (g *gateExtractor) ExtractText(_ context.Context, _ string, _ io.Reader) (string, error) {
	g.entered <- struct{}{}
	if err := <-g.release; err != nil {
		return "", err
	}
	return anaText, nil
}

func (g *gateExtractor) Name() string { return "gate" }

func TestIngestConcurrentSameFilename(t *testing.T) {
	gate := &gateExtractor{entered: make(chan struct{}), release: make(chan error)}
	files := newMemFiles()
	p, err := NewResumeProcessor(Components{Extractor: gate, Terms: &fakeTerms{answers: defaultAnswers()}, Files: files})
	require.NoError(t, err)
	store := session.NewStore("s1")

	type outcome struct {
		res IngestResult
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := p.Ingest(context.Background(), store, Upload{Filename: "ana.pdf", Data: []byte("v1")})
		first <- outcome{res, err}
	}()
	<-gate.entered

	// 第一个上传仍在提取时，同名上传直接跳过，不覆盖已保存的文件
	res, err := p.Ingest(context.Background(), store, Upload{Filename: "ana.pdf", Data: []byte("v2")})
	require.NoError(t, err)
	assert.Equal(t, IngestStatusSkipped, res.Status)
	assert.Equal(t, []byte("v1"), files.files["s1/ana.pdf"])

	gate.release <- errors.New("corrupt pdf")
	out := <-first
	require.Error(t, out.err)
	assert.Equal(t, IngestStatusFailed, out.res.Status)
	assert.Empty(t, files.files)

	// 失败后释放占用，可以重新上传
	go func() {
		<-gate.entered
		gate.release <- nil
	}()
	res, err = p.Ingest(context.Background(), store, Upload{Filename: "ana.pdf", Data: []byte("v3")})
	require.NoError(t, err)
	assert.Equal(t, IngestStatusIngested, res.Status)
	assert.Equal(t, []byte("v3"), files.files["s1/ana.pdf"])
	assert.Equal(t, 1, store.Len())
}
