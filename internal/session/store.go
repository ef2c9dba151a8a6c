// Package session はログインセッションの管理を提供する。
// セッションはサーバープロセスのメモリ上にのみ保持され、永続化されない
// （永続化はすべてリモートAPIに委譲するという方針のため）。
package session

import (
	"sync"
	"time"

	"github.com/restoease/restoease/internal/model"
)

// Store はインメモリのセッションストア。
// 有効期限切れエントリはバックグラウンドループで定期的に削除される。
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session

	sweepInterval time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// NewStore は新しいStoreを生成し、バックグラウンドで期限切れエントリの
// クリーンアップを開始する。
func NewStore(sweepInterval time.Duration) *Store {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	s := &Store{
		sessions:      make(map[string]*model.Session),
		sweepInterval: sweepInterval,
		stopCh:        make(chan struct{}),
	}

	go s.sweepLoop()

	return s
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Save はセッションを保存する。
func (s *Store) Save(session *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Find はセッションIDからセッションを取得する。
// 存在しない、または期限切れの場合はnilを返す。
func (s *Store) Find(id string) *model.Session {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil
	}
	if session.Expired(time.Now()) {
		s.Delete(id)
		return nil
	}
	return session
}

// Delete はセッションを削除する。削除された場合にtrueを返す。
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// Count は現在保持しているセッション数を返す。テストおよびメトリクス用。
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// sweepLoop はバックグラウンドで期限切れセッションを定期的に削除する。
func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep は期限切れセッションを削除する。
func (s *Store) sweep() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
		}
	}
}
