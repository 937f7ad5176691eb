package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"resume-triage/internal/config"
)

// Storage 存储管理器，聚合所有存储相关依赖
// 文件存储必须可用，其余组件未配置或初始化失败时为 nil
type Storage struct {
	// 原始文件
	Files FileStore

	// 消息队列
	RabbitMQ *RabbitMQ

	// 关系型数据库
	MySQL *MySQL

	// 键值存储
	Redis *Redis

	logger zerolog.Logger
}

// NewStorage 创建存储管理器
func NewStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{logger: logger}
	var err error
	var initErrors []string

	switch cfg.Storage.Backend {
	case config.StorageBackendMinIO:
		s.Files, err = NewMinIOFileStore(ctx, &cfg.MinIO, logger.With().Str("component", "minio").Logger())
	default:
		s.Files, err = NewLocalFileStore(cfg.Storage.WorkDir, logger.With().Str("component", "files").Logger())
	}
	if err != nil {
		return nil, fmt.Errorf("初始化文件存储(%s)失败: %w", cfg.Storage.Backend, err)
	}
	logger.Info().Str("backend", cfg.Storage.Backend).Msg("文件存储初始化成功")

	if cfg.RabbitMQ.URL != "" {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ, logger.With().Str("component", "rabbitmq").Logger())
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("RabbitMQ: %v", err))
		} else if cfg.RabbitMQ.DeclareExchangeOnStart {
			if err := s.RabbitMQ.EnsureExchange(cfg.RabbitMQ.TriageEventsExchange, "topic", true); err != nil {
				initErrors = append(initErrors, fmt.Sprintf("RabbitMQ exchange: %v", err))
			}
		}
	}

	if cfg.MySQL.Host != "" {
		routing := EventRouting{
			Exchange:           cfg.RabbitMQ.TriageEventsExchange,
			IngestedRoutingKey: cfg.RabbitMQ.IngestedRoutingKey,
			ExportedRoutingKey: cfg.RabbitMQ.ExportedRoutingKey,
		}
		s.MySQL, err = NewMySQL(&cfg.MySQL, routing, logger.With().Str("component", "mysql").Logger())
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("MySQL: %v", err))
		}
	}

	if cfg.Redis.Address != "" {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		if err != nil {
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		}
	} else {
		logger.Debug().Msg("Redis未配置, 跳过初始化")
	}

	if len(initErrors) > 0 {
		logger.Warn().Str("errors", strings.Join(initErrors, "; ")).Msg("以下存储组件初始化失败，相关功能将被禁用")
	}
	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
