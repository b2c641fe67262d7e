package service

import "sync"

// walletLocks hands out one mutex per wallet, dropped again once unused
type walletLocks struct {
	mu    sync.Mutex
	locks map[string]*walletLock
}

type walletLock struct {
	mu   sync.Mutex
	refs int
}

func newWalletLocks() *walletLocks {
	return &walletLocks{locks: make(map[string]*walletLock)}
}

// Lock blocks until the wallet is free and returns its unlock function
func (l *walletLocks) Lock(wallet string) func() {
	l.mu.Lock()
	lock, ok := l.locks[wallet]
	if !ok {
		lock = &walletLock{}
		l.locks[wallet] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, wallet)
		}
		l.mu.Unlock()
	}
}

func (l *walletLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
