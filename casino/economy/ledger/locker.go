package ledger

import (
	"sort"
	"sync"
)

// Locker serializes balance-touching work per account. Locks are keyed
// by account id and created on demand; they are never dropped, which is
// fine at the scale of a guild's player base.
//
// Callers must not hold a lock across anything that waits on user
// input. Lock, mutate, unlock, then wait.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*sync.Mutex)}
}

func (l *Locker) lockFor(accountID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	return m
}

// WithAccount runs fn while holding the account's lock.
func (l *Locker) WithAccount(accountID int64, fn func() error) error {
	m := l.lockFor(accountID)
	m.Lock()
	defer m.Unlock()
	return fn()
}

// WithAccounts runs fn while holding every listed account's lock.
// Duplicates are collapsed and locks are always acquired in ascending
// id order, so overlapping multi-account operations cannot deadlock.
func (l *Locker) WithAccounts(accountIDs []int64, fn func() error) error {
	unique := make([]int64, 0, len(accountIDs))
	seen := make(map[int64]bool, len(accountIDs))
	for _, id := range accountIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	held := make([]*sync.Mutex, 0, len(unique))
	for _, id := range unique {
		m := l.lockFor(id)
		m.Lock()
		held = append(held, m)
	}
	defer func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}()
	return fn()
}
