// Package session 管理会话范围内的简历记录集合。
package session

import (
	"sync"
	"time"

	"resume-triage/internal/types"
)

// Store 单个会话的记录集合
// 记录按入库顺序保存，文件名在会话内唯一；记录写入后只读
type Store struct {
	id        string
	createdAt time.Time

	mu         sync.RWMutex
	records    []*types.CandidateRecord
	index      map[string]int
	pending    map[string]struct{}
	lastAccess time.Time
}

// NewStore 创建一个空的记录集合
func NewStore(id string) *Store {
	now := time.Now()
	return &Store{
		id:         id,
		createdAt:  now,
		index:      make(map[string]int),
		pending:    make(map[string]struct{}),
		lastAccess: now,
	}
}

// ID 会话ID
func (s *Store) ID() string {
	return s.id
}

// CreatedAt 会话创建时间
func (s *Store) CreatedAt() time.Time {
	return s.createdAt
}

// Add 追加一条记录，文件名已存在时不做任何修改并返回 false
func (s *Store) Add(rec *types.CandidateRecord) bool {
	if rec == nil || rec.Filename == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()
	if _, ok := s.index[rec.Filename]; ok {
		return false
	}
	delete(s.pending, rec.Filename)
	s.index[rec.Filename] = len(s.records)
	s.records = append(s.records, rec)
	return true
}

// Claim 占用一个尚未入库的文件名，同名文件同一时刻只允许一个上传在处理
// 文件名已入库或正被占用时返回 false
func (s *Store) Claim(filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[filename]; ok {
		return false
	}
	if _, ok := s.pending[filename]; ok {
		return false
	}
	s.pending[filename] = struct{}{}
	return true
}

// Release 释放 Claim 的占用，Add 成功后调用无副作用
func (s *Store) Release(filename string) {
	s.mu.Lock()
	delete(s.pending, filename)
	s.mu.Unlock()
}

// Get 按文件名获取记录
func (s *Store) Get(filename string) (*types.CandidateRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[filename]
	if !ok {
		return nil, false
	}
	return s.records[i], true
}

// Snapshot 当前记录的快照，排序、分组、导出都基于快照进行
func (s *Store) Snapshot() []*types.CandidateRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = time.Now()
	out := make([]*types.CandidateRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len 记录数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Touch 刷新最后访问时间
func (s *Store) Touch() {
	s.mu.Lock()
	s.lastAccess = time.Now()
	s.mu.Unlock()
}

// LastAccess 最后访问时间
func (s *Store) LastAccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccess
}
