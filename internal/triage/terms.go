// Package triage 实现关键词匹配、按命中数分组排序以及导出结构的构建。
// 包内函数都是纯函数，不做任何 I/O（压缩包写入除外）。
package triage

import "strings"

// Term 一个查询词及其去空白写法
type Term struct {
	Base    string // 小写、去首尾空白
	NoSpace string // Base 去掉所有空白，与 Base 相同时不额外探测
}

// TermSet 规范化后的查询词集合，保持首次出现的顺序
type TermSet struct {
	terms []Term
}

// Normalize 将逗号分隔的原始字符串转换为查询词集合
// 每段去首尾空白并转小写，空段丢弃，重复词只保留第一次出现
func Normalize(raw string) TermSet {
	var set TermSet
	seen := make(map[string]struct{})
	for _, piece := range strings.Split(raw, ",") {
		base := strings.ToLower(strings.TrimSpace(piece))
		if base == "" {
			continue
		}
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}
		set.terms = append(set.terms, Term{
			Base:    base,
			NoSpace: strings.Join(strings.Fields(base), ""),
		})
	}
	return set
}

// FromKeywords 将模型返回的关键词列表按用户输入同样的方式规范化
func FromKeywords(keywords []string) TermSet {
	return Normalize(strings.Join(keywords, ","))
}

// Len 查询词数量
func (s TermSet) Len() int {
	return len(s.terms)
}

// IsEmpty 空查询不是错误，只是不会命中任何文档
func (s TermSet) IsEmpty() bool {
	return len(s.terms) == 0
}

// Terms 返回查询词副本
func (s TermSet) Terms() []Term {
	out := make([]Term, len(s.terms))
	copy(out, s.terms)
	return out
}

// Bases 按顺序返回所有基础词
func (s TermSet) Bases() []string {
	out := make([]string, 0, len(s.terms))
	for _, t := range s.terms {
		out = append(out, t.Base)
	}
	return out
}

// String 以 ", " 连接的查询词，用于展示和导出清单
func (s TermSet) String() string {
	return strings.Join(s.Bases(), ", ")
}
