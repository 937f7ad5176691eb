package triage

import (
	"sort"

	"resume-triage/internal/types"
)

// RankAndGroup 按命中数对记录分组
// 命中数为 0 的记录被丢弃；组内保持输入顺序；组按命中数降序排列。
// 没有任何命中时返回空切片，调用方将其视为"无匹配"而不是错误。
func RankAndGroup(records []*types.CandidateRecord, terms TermSet) []types.RankedGroup {
	groups := make([]types.RankedGroup, 0)
	if terms.IsEmpty() {
		return groups
	}

	members := make(map[int][]*types.CandidateRecord)
	counts := make([]int, 0)
	for _, rec := range records {
		if rec == nil {
			continue
		}
		n := len(Match(rec.RawText, terms))
		if n == 0 {
			continue
		}
		if _, ok := members[n]; !ok {
			counts = append(counts, n)
		}
		members[n] = append(members[n], rec)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(counts)))
	for _, n := range counts {
		groups = append(groups, types.RankedGroup{Count: n, Members: members[n]})
	}
	return groups
}

// CountMembers 所有分组的成员总数
func CountMembers(groups []types.RankedGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.Members)
	}
	return total
}
