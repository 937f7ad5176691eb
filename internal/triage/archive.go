package triage

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"resume-triage/internal/types"
)

var (
	// ErrMissingFile 导出时某个原始文件无法读取，整个导出中止
	ErrMissingFile = errors.New("导出引用的文件不可读")
	// ErrDuplicateEntry 压缩包内出现重复路径
	ErrDuplicateEntry = errors.New("压缩包条目路径重复")
)

// archiveReadConcurrency 预读原始文件的并发度
const archiveReadConcurrency = 4

// FileSource 按引用读取原始文件
type FileSource interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// WriteArchive 将条目写成 zip 输出到 w
// 所有文件先全部读入内存，任一文件读取失败时不向 w 写入任何字节
func WriteArchive(ctx context.Context, w io.Writer, src FileSource, entries []types.ArchiveEntry) error {
	if err := checkUniquePaths(entries); err != nil {
		return err
	}
	contents, err := loadEntries(ctx, src, entries)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for i, e := range entries {
		fw, err := zw.Create(e.Path)
		if err != nil {
			return fmt.Errorf("创建压缩条目 %s 失败: %w", e.Path, err)
		}
		if _, err := fw.Write(contents[i]); err != nil {
			return fmt.Errorf("写入压缩条目 %s 失败: %w", e.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("关闭压缩包失败: %w", err)
	}
	return nil
}

func checkUniquePaths(entries []types.ArchiveEntry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Path]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Path)
		}
		seen[e.Path] = struct{}{}
	}
	return nil
}

func loadEntries(ctx context.Context, src FileSource, entries []types.ArchiveEntry) ([][]byte, error) {
	contents := make([][]byte, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(archiveReadConcurrency)
	for i, e := range entries {
		if e.Source == "" {
			contents[i] = e.Content
			continue
		}
		if src == nil {
			return nil, fmt.Errorf("%w: %s 没有可用的文件存储", ErrMissingFile, e.Path)
		}
		g.Go(func() error {
			data, err := readSource(gctx, src, e.Source)
			if err != nil {
				return fmt.Errorf("%w: %s (%s): %v", ErrMissingFile, e.Path, e.Source, err)
			}
			contents[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}

func readSource(ctx context.Context, src FileSource, ref string) ([]byte, error) {
	rc, err := src.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
