package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resume-triage/internal/config"
	"resume-triage/internal/storage/models"
	"resume-triage/internal/tracing"
	"resume-triage/internal/types"
)

var mysqlTracer = otel.Tracer("resume-triage/storage/mysql")

type spanContextKey struct{}

// GormTracingPlugin 为每个GORM操作创建一个客户端span
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")),
		cb.Create().After("gorm:create").Register("otel:after_create", p.after()),
		cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")),
		cb.Query().After("gorm:query").Register("otel:after_query", p.after()),
		cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")),
		cb.Update().After("gorm:update").Register("otel:after_update", p.after()),
		cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")),
		cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()),
		cb.Row().Before("gorm:row").Register("otel:before_row", p.before("ROW")),
		cb.Row().After("gorm:row").Register("otel:after_row", p.after()),
		cb.Raw().Before("gorm:raw").Register("otel:before_raw", p.before("RAW")),
		cb.Raw().After("gorm:raw").Register("otel:after_raw", p.after()),
	)
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement.SkipHooks {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		attrs := []attribute.KeyValue{
			semconv.DBSystemMySQL,
			attribute.String("db.name", p.dbName),
			attribute.String("db.operation", operation),
			attribute.String("db.sql.table", table),
		}
		if sql := db.Statement.SQL.String(); sql != "" {
			attrs = append(attrs, attribute.String("db.statement", tracing.SafeSQL(sql)))
		}
		newCtx, span := p.tracer.Start(ctx, operation+" "+table,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attrs...),
		)
		db.Statement.Context = context.WithValue(newCtx, spanContextKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(spanContextKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 查不到记录属于正常业务分支
			span.SetStatus(codes.Ok, "record not found")
		default:
			tracing.RecordError(span, db.Error, tracing.ErrorTypeDB)
		}
	}
}

// EventRouting 审计事件发布到的交换机与路由键
type EventRouting struct {
	Exchange           string
	IngestedRoutingKey string
	ExportedRoutingKey string
}

// MySQL 保存入库与筛选的审计记录，并在同一事务中写入 outbox
type MySQL struct {
	db      *gorm.DB
	cfg     *config.MySQLConfig
	routing EventRouting
	logger  zerolog.Logger
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig, routing EventRouting, log zerolog.Logger) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database, connectTimeout(cfg))

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{db: db, cfg: cfg, routing: routing, logger: log}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

func connectTimeout(cfg *config.MySQLConfig) int {
	if cfg.ConnectTimeoutSeconds > 0 {
		return cfg.ConnectTimeoutSeconds
	}
	return 10
}

func gormLogLevel(level int) logger.LogLevel {
	switch level {
	case 1:
		return logger.Silent
	case 2:
		return logger.Error
	case 3:
		return logger.Warn
	case 4:
		return logger.Info
	default:
		return logger.Warn
	}
}

// autoMigrateSchema 迁移时关闭SQL日志
func (m *MySQL) autoMigrateSchema() error {
	silentDB := m.db.Session(&gorm.Session{Logger: logger.Default.LogMode(logger.Silent)})
	if err := silentDB.AutoMigrate(
		&models.IngestedResume{},
		&models.TriageRun{},
		&models.OutboxMessage{},
	); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// RecordIngestion 写入入库审计记录和 resume.ingested 事件
func (m *MySQL) RecordIngestion(ctx context.Context, event types.ResumeIngestedEvent, rec *types.CandidateRecord) error {
	row, msg, err := m.ingestionRows(event, rec)
	if err != nil {
		return err
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("写入入库记录失败: %w", err)
		}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("写入outbox消息失败: %w", err)
		}
		return nil
	})
}

// RecordTriage 写入筛选运行记录和 triage.exported 事件
func (m *MySQL) RecordTriage(ctx context.Context, event types.TriageExportedEvent) error {
	run, msg, err := m.triageRows(event)
	if err != nil {
		return err
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("写入筛选运行记录失败: %w", err)
		}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("写入outbox消息失败: %w", err)
		}
		return nil
	})
}

func (m *MySQL) ingestionRows(event types.ResumeIngestedEvent, rec *types.CandidateRecord) (models.IngestedResume, models.OutboxMessage, error) {
	if rec == nil {
		return models.IngestedResume{}, models.OutboxMessage{}, errors.New("记录不能为空")
	}
	keywords, err := json.Marshal(rec.Keywords)
	if err != nil {
		return models.IngestedResume{}, models.OutboxMessage{}, fmt.Errorf("序列化关键词失败: %w", err)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return models.IngestedResume{}, models.OutboxMessage{}, fmt.Errorf("序列化事件失败: %w", err)
	}
	row := models.IngestedResume{
		SessionID:       event.SessionID,
		Filename:        rec.Filename,
		FileRef:         rec.FilePath,
		FullName:        rec.FullName,
		KeywordsJSON:    datatypes.JSON(keywords),
		ExperienceYears: rec.ExperienceYears,
		TextLength:      event.TextLength,
		ExtractorName:   event.ExtractorName,
		IngestedAt:      event.IngestedAt,
	}
	msg := models.OutboxMessage{
		AggregateID:      event.SessionID,
		EventType:        types.EventResumeIngested,
		Payload:          string(payload),
		TargetExchange:   m.routing.Exchange,
		TargetRoutingKey: m.routing.IngestedRoutingKey,
		Status:           models.OutboxStatusPending,
	}
	return row, msg, nil
}

func (m *MySQL) triageRows(event types.TriageExportedEvent) (models.TriageRun, models.OutboxMessage, error) {
	terms, err := json.Marshal(event.Terms)
	if err != nil {
		return models.TriageRun{}, models.OutboxMessage{}, fmt.Errorf("序列化查询词失败: %w", err)
	}
	counts, err := json.Marshal(event.GroupCounts)
	if err != nil {
		return models.TriageRun{}, models.OutboxMessage{}, fmt.Errorf("序列化分组统计失败: %w", err)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return models.TriageRun{}, models.OutboxMessage{}, fmt.Errorf("序列化事件失败: %w", err)
	}
	run := models.TriageRun{
		RunID:           event.RunID,
		SessionID:       event.SessionID,
		JobName:         event.JobName,
		Source:          event.Source,
		TermsJSON:       datatypes.JSON(terms),
		GroupCountsJSON: datatypes.JSON(counts),
		Documents:       event.Documents,
		ExportedAt:      event.ExportedAt,
	}
	msg := models.OutboxMessage{
		AggregateID:      event.RunID,
		EventType:        types.EventTriageExported,
		Payload:          string(payload),
		TargetExchange:   m.routing.Exchange,
		TargetRoutingKey: m.routing.ExportedRoutingKey,
		Status:           models.OutboxStatusPending,
	}
	return run, msg, nil
}
