package processor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sync"

	"github.com/stretchr/testify/mock"

	"resume-triage/internal/types"
)

// fakeExtractor 按文件名返回预设文本
type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) ExtractText(_ context.Context, uri string, reader io.Reader) (string, error) {
	if _, err := io.ReadAll(reader); err != nil {
		return "", err
	}
	name := path.Base(uri)
	if err := f.errs[name]; err != nil {
		return "", err
	}
	return f.texts[name], nil
}

func (f *fakeExtractor) Name() string { return "fake" }

// fakeTerms 按问题返回预设回答
type fakeTerms struct {
	mu       sync.Mutex
	answers  map[string]string
	keywords []string
	errs     map[string]error
	calls    int
}

func (f *fakeTerms) ExtractKeywords(_ context.Context, _ string, question string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[question]; err != nil {
		return nil, err
	}
	return f.keywords, nil
}

func (f *fakeTerms) Answer(_ context.Context, _ string, question string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[question]; err != nil {
		return "", err
	}
	return f.answers[question], nil
}

// memFiles 内存文件存储
type memFiles struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
	deleted []string
}

func newMemFiles() *memFiles {
	return &memFiles{files: make(map[string][]byte)}
}

func (m *memFiles) Save(_ context.Context, sessionID, filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := path.Join(sessionID, filename)
	m.files[ref] = append([]byte(nil), data...)
	return ref, nil
}

func (m *memFiles) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[ref]
	if !ok {
		return nil, errors.New("not found: " + ref)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memFiles) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ref)
	m.deleted = append(m.deleted, ref)
	return nil
}

// fakeCache 内存关键词缓存
type fakeCache struct {
	data   map[string][]string
	getErr error
	setErr error
	sets   int
}

func (c *fakeCache) GetJobKeywords(_ context.Context, description string) ([]string, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	kw, ok := c.data[description]
	return kw, ok, nil
}

func (c *fakeCache) SetJobKeywords(_ context.Context, description string, keywords []string) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	if c.data == nil {
		c.data = make(map[string][]string)
	}
	c.data[description] = keywords
	return nil
}

// mockAudit 审计记录器 mock
type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) RecordIngestion(ctx context.Context, event types.ResumeIngestedEvent, rec *types.CandidateRecord) error {
	args := m.Called(ctx, event, rec)
	return args.Error(0)
}

func (m *mockAudit) RecordTriage(ctx context.Context, event types.TriageExportedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
