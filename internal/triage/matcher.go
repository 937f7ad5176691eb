package triage

import (
	"sort"
	"strings"

	"resume-triage/internal/types"
)

// Match 返回在文本中出现的基础词
// 文本只转一次小写；基础词或去空白写法任一作为子串出现即记为命中，且只记一次
func Match(text string, terms TermSet) []string {
	if terms.IsEmpty() {
		return nil
	}
	lowered := strings.ToLower(text)
	matched := make([]string, 0, terms.Len())
	for _, t := range terms.terms {
		if strings.Contains(lowered, t.Base) ||
			(t.NoSpace != t.Base && t.NoSpace != "" && strings.Contains(lowered, t.NoSpace)) {
			matched = append(matched, t.Base)
		}
	}
	return matched
}

// Score 对每条记录计算匹配结果，命中数为 0 的记录同样保留
// 结果按命中数降序稳定排序，用于岗位兼容度分析
func Score(records []*types.CandidateRecord, terms TermSet) []types.MatchResult {
	results := make([]types.MatchResult, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		matched := Match(rec.RawText, terms)
		results = append(results, types.MatchResult{
			Record:       rec,
			MatchedCount: len(matched),
			MatchedTerms: matched,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchedCount > results[j].MatchedCount
	})
	return results
}
