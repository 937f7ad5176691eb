package triage

import (
	"fmt"
	"strings"
	"time"

	"resume-triage/internal/constants"
	"resume-triage/internal/types"
)

// ExportFilename 岗位筛选压缩包的文件名，由岗位名称和日期唯一确定
func ExportFilename(jobName string, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%s.zip", constants.TriageArchivePrefix, jobName, ts.Format("2006-01-02"))
}

// BucketPath 记录在压缩包中按命中数分桶后的路径
func BucketPath(count int, filename string) string {
	return fmt.Sprintf("%d%s/%s", count, constants.BucketDirSuffix, filename)
}

// BuildExport 根据排序后的分组构建导出结果
// 没有分组时返回的导出不含任何条目
func BuildExport(groups []types.RankedGroup, terms TermSet, jobName string, ts time.Time) *types.TriageExport {
	export := &types.TriageExport{
		JobName:   jobName,
		Filename:  ExportFilename(jobName, ts),
		Manifest:  terms.String(),
		Groups:    make([]types.ExportGroup, 0, len(groups)),
		CreatedAt: ts,
	}
	for _, g := range groups {
		eg := types.ExportGroup{Count: g.Count, Rows: make([]types.ExportRow, 0, len(g.Members))}
		for _, rec := range g.Members {
			eg.Rows = append(eg.Rows, Row(rec))
		}
		export.Groups = append(export.Groups, eg)
	}
	export.Entries = BucketEntries(groups, terms)
	return export
}

// Row 记录的表格投影
func Row(rec *types.CandidateRecord) types.ExportRow {
	return types.ExportRow{
		Filename:   rec.Filename,
		FullName:   rec.FullName,
		Phones:     strings.Join(rec.Phones, constants.ListSeparator),
		Emails:     strings.Join(rec.Emails, constants.ListSeparator),
		LinkedIn:   strings.Join(rec.LinkedInLinks, constants.ListSeparator),
		Keywords:   strings.Join(rec.Keywords, constants.ListSeparator),
		Experience: rec.ExperienceYears,
		FileRef:    rec.FilePath,
	}
}

// Rows 按输入顺序投影一组记录，用于简历库表格
func Rows(records []*types.CandidateRecord) []types.ExportRow {
	rows := make([]types.ExportRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Row(rec))
	}
	return rows
}

// BucketEntries 按命中数分桶的压缩包条目，最后附加查询词清单
// 每条记录只属于一个分组，文件名在会话内唯一，因此路径不会重复
func BucketEntries(groups []types.RankedGroup, terms TermSet) []types.ArchiveEntry {
	if len(groups) == 0 {
		return []types.ArchiveEntry{}
	}
	entries := make([]types.ArchiveEntry, 0, CountMembers(groups)+1)
	for _, g := range groups {
		for _, rec := range g.Members {
			entries = append(entries, types.ArchiveEntry{
				Path:   BucketPath(g.Count, rec.Filename),
				Source: rec.FilePath,
			})
		}
	}
	entries = append(entries, types.ArchiveEntry{
		Path:    constants.ManifestFilename,
		Content: []byte(terms.String()),
	})
	return entries
}

// BankEntries 整个简历库的平铺条目
func BankEntries(records []*types.CandidateRecord) []types.ArchiveEntry {
	entries := make([]types.ArchiveEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, types.ArchiveEntry{Path: rec.Filename, Source: rec.FilePath})
	}
	return entries
}
