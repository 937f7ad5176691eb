package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-triage/internal/config"
	"resume-triage/internal/tracing"
)

var _ FileStore = (*MinIOFileStore)(nil)

// MinIOFileStore 把原始文件保存为 {sessionID}/{filename} 对象
type MinIOFileStore struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	bucket string
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewMinIOFileStore 创建MinIO客户端并确保存储桶存在
func NewMinIOFileStore(ctx context.Context, cfg *config.MinIOConfig, logger zerolog.Logger) (*MinIOFileStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("初始化MinIO客户端")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIOFileStore{
		client: client,
		cfg:    cfg,
		bucket: cfg.BucketName,
		logger: logger,
		tracer: otel.Tracer("storage.minio"),
	}

	if err := m.ensureBucketExists(ctx, m.bucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保存储桶 %s 存在失败: %w", m.bucket, err)
	}

	if cfg.OriginalFileExpireDays > 0 {
		// 生命周期规则只是兜底清理，设置失败不影响启动
		if err := m.setupBucketLifecycle(ctx, m.bucket, "expire-originals", cfg.OriginalFileExpireDays); err != nil {
			logger.Warn().Err(err).Str("bucket", m.bucket).Msg("设置生命周期规则失败")
		}
	}
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIOFileStore) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Info().Str("bucket", bucketName).Msg("存储桶已创建")
	return nil
}

// setupBucketLifecycle 为指定存储桶设置过期规则
func (m *MinIOFileStore) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, cfg)
}

// ObjectKey 会话文件的对象键
func ObjectKey(sessionID, filename string) string {
	return path.Join(sessionID, filepath.Base(filename))
}

// Save 上传文件，返回对象键
func (m *MinIOFileStore) Save(ctx context.Context, sessionID, filename string, data []byte) (string, error) {
	key := ObjectKey(sessionID, filename)
	ctx, span := m.tracer.Start(ctx, "minio.PutObject", trace.WithAttributes(
		attribute.String("minio.bucket", m.bucket),
		attribute.String("minio.key", key),
		attribute.Int("minio.size", len(data)),
	))
	defer span.End()

	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: getContentType(filepath.Ext(filename))})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.bucket, key, err)
	}
	m.logger.Debug().Str("key", key).Int("size", len(data)).Msg("对象已上传")
	return key, nil
}

// Open 读取对象，对象不存在时返回 ErrFileNotFound
func (m *MinIOFileStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	// GetObject 是惰性的，先 Stat 以便把不存在的对象区分出来
	if _, err := m.client.StatObject(ctx, m.bucket, ref, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, ref)
		}
		return nil, fmt.Errorf("获取对象 %s/%s 状态失败: %w", m.bucket, ref, err)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", m.bucket, ref, err)
	}
	return obj, nil
}

// Delete 删除对象
func (m *MinIOFileStore) Delete(ctx context.Context, ref string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象 %s 失败: %w", ref, err)
	}
	return nil
}

// Purge 删除会话前缀下的所有对象
func (m *MinIOFileStore) Purge(ctx context.Context, sessionID string) error {
	if sessionID == "" || strings.Contains(sessionID, "/") {
		return fmt.Errorf("%w: 会话ID %q", ErrInvalidRef, sessionID)
	}
	ctx, span := m.tracer.Start(ctx, "minio.Purge", trace.WithAttributes(
		attribute.String("minio.bucket", m.bucket),
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	objects := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    sessionID + "/",
		Recursive: true,
	})
	var errs []error
	removed := 0
	for obj := range objects {
		if obj.Err != nil {
			errs = append(errs, obj.Err)
			continue
		}
		if err := m.client.RemoveObject(ctx, m.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("删除对象 %s 失败: %w", obj.Key, err))
			continue
		}
		removed++
	}
	if err := errors.Join(errs...); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return err
	}
	m.logger.Debug().Str("session_id", sessionID).Int("removed", removed).Msg("会话对象已清理")
	return nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}

// 获取内容类型
func getContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
