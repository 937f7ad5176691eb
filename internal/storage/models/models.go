package models

import (
	"time"

	"gorm.io/datatypes"
)

// IngestedResume 一份入库简历的审计记录，不保存全文和联系方式
type IngestedResume struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement"`
	SessionID       string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_ingested_session_file"`
	Filename        string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_ingested_session_file"`
	FileRef         string         `gorm:"type:varchar(512);not null"`
	FullName        string         `gorm:"type:varchar(255)"`
	KeywordsJSON    datatypes.JSON `gorm:"type:json"`
	ExperienceYears string         `gorm:"type:varchar(100)"`
	TextLength      int            `gorm:"not null"`
	ExtractorName   string         `gorm:"type:varchar(64)"`
	IngestedAt      time.Time      `gorm:"type:datetime(6);not null"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (IngestedResume) TableName() string {
	return "ingested_resumes"
}

// TriageRun 一次岗位筛选的结果摘要
type TriageRun struct {
	RunID           string         `gorm:"type:char(36);primaryKey"`
	SessionID       string         `gorm:"type:varchar(64);not null;index:idx_triage_runs_session"`
	JobName         string         `gorm:"type:varchar(255);not null"`
	Source          string         `gorm:"type:varchar(20);not null"` // keywords 或 description
	TermsJSON       datatypes.JSON `gorm:"type:json"`
	GroupCountsJSON datatypes.JSON `gorm:"type:json"`
	Documents       int            `gorm:"not null"`
	ExportedAt      time.Time      `gorm:"type:datetime(6);not null"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (TriageRun) TableName() string {
	return "triage_runs"
}
