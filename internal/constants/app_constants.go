package constants

import "time"

const (
	// ServiceName 服务名，用于日志、追踪与指标
	ServiceName = "resume-triage"

	// ListSeparator 导出表格中多值字段的连接符
	ListSeparator = ", "

	// ManifestFilename 压缩包中记录查询词的清单文件
	ManifestFilename = "palavras_chave.txt"
	// BucketDirSuffix 分桶目录后缀，目录名为 {命中数}_palavras_chave
	BucketDirSuffix = "_palavras_chave"

	// TriageArchivePrefix 岗位筛选压缩包前缀
	TriageArchivePrefix = "triagem_inteligente"
	// SearchArchiveFilename 关键词搜索结果压缩包
	SearchArchiveFilename = "curriculos_filtrados.zip"
	// BankArchiveFilename 整个简历库压缩包
	BankArchiveFilename = "banco_de_curriculos.zip"

	// JDKeywordsCacheDuration JD 关键词缓存时长
	JDKeywordsCacheDuration = 24 * time.Hour

	// DefaultSessionIdleTTL 会话空闲多久后被回收
	DefaultSessionIdleTTL = 2 * time.Hour
	// DefaultSessionSweepInterval 空闲会话检查间隔
	DefaultSessionSweepInterval = 5 * time.Minute

	// MetricsNamespace Prometheus 指标前缀
	MetricsNamespace = "triage"
)
