package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrFileNotFound 引用的文件不存在
	ErrFileNotFound = errors.New("文件不存在")
	// ErrInvalidRef 引用不属于该存储
	ErrInvalidRef = errors.New("无效的文件引用")
)

// FileStore 原始文件存储，按会话隔离
type FileStore interface {
	// Save 保存文件并返回引用
	Save(ctx context.Context, sessionID, filename string, data []byte) (string, error)
	// Open 按引用读取文件
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	// Delete 删除单个文件
	Delete(ctx context.Context, ref string) error
	// Purge 删除会话下的所有文件
	Purge(ctx context.Context, sessionID string) error
}

var _ FileStore = (*LocalFileStore)(nil)

// LocalFileStore 把文件保存在工作目录下的 {sessionID}/{filename}
type LocalFileStore struct {
	root   string
	logger zerolog.Logger
}

// NewLocalFileStore 创建本地文件存储，工作目录不存在时创建
func NewLocalFileStore(workDir string, logger zerolog.Logger) (*LocalFileStore, error) {
	if workDir == "" {
		return nil, errors.New("工作目录不能为空")
	}
	root, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("解析工作目录失败: %w", err)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("创建工作目录 %s 失败: %w", root, err)
	}
	return &LocalFileStore{root: root, logger: logger}, nil
}

// Root 工作目录的绝对路径
func (s *LocalFileStore) Root() string {
	return s.root
}

// Save 写入 {root}/{sessionID}/{filename}，同名文件被覆盖
func (s *LocalFileStore) Save(_ context.Context, sessionID, filename string, data []byte) (string, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return "", err
	}
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, filename)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("创建会话目录失败: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("写入文件 %s 失败: %w", path, err)
	}
	s.logger.Debug().Str("path", path).Int("size", len(data)).Msg("文件已保存")
	return path, nil
}

// Open 打开引用指向的文件，引用必须位于工作目录内
func (s *LocalFileStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, ref)
		}
		return nil, fmt.Errorf("打开文件 %s 失败: %w", ref, err)
	}
	return f, nil
}

// Delete 删除单个文件，文件不存在时不报错
func (s *LocalFileStore) Delete(_ context.Context, ref string) error {
	path, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("删除文件 %s 失败: %w", ref, err)
	}
	return nil
}

// Purge 删除整个会话目录
func (s *LocalFileStore) Purge(_ context.Context, sessionID string) error {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("删除会话目录 %s 失败: %w", dir, err)
	}
	s.logger.Debug().Str("session_id", sessionID).Msg("会话文件已清理")
	return nil
}

func (s *LocalFileStore) sessionDir(sessionID string) (string, error) {
	if sessionID == "" || sessionID != filepath.Base(sessionID) || sessionID == ".." {
		return "", fmt.Errorf("%w: 会话ID %q", ErrInvalidRef, sessionID)
	}
	return filepath.Join(s.root, sessionID), nil
}

func (s *LocalFileStore) resolve(ref string) (string, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	path = filepath.Clean(path)
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidRef, ref)
	}
	return path, nil
}
