// Package refcache memoizes the two admin reference lookups (semester list,
// full class list) for a fixed wall-clock duration. The cache is shared by
// every admin session in the process; it holds read-only reference data, so
// racing populators are fine and the last writer wins.
package refcache

import (
	"sync"
	"time"

	"github.com/NercinoN21/dlpl-frontend/core"
)

type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu          sync.Mutex
	semesters   []string
	semestersAt time.Time
	turmas      []core.Turma
	turmasAt    time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

// Semesters returns the cached semester list, calling fetch on a miss or an
// expired entry. fetch runs without the lock held: concurrent sessions may
// race to populate, which is accepted.
func (c *Cache) Semesters(fetch func() ([]string, error)) ([]string, error) {
	c.mu.Lock()
	if !c.semestersAt.IsZero() && c.now().Sub(c.semestersAt) < c.ttl {
		semesters := c.semesters
		c.mu.Unlock()
		return semesters, nil
	}
	c.mu.Unlock()

	semesters, err := fetch()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.semesters = semesters
	c.semestersAt = c.now()
	c.mu.Unlock()
	return semesters, nil
}

// Turmas returns the cached class list, calling fetch on a miss or an
// expired entry.
func (c *Cache) Turmas(fetch func() ([]core.Turma, error)) ([]core.Turma, error) {
	c.mu.Lock()
	if !c.turmasAt.IsZero() && c.now().Sub(c.turmasAt) < c.ttl {
		turmas := c.turmas
		c.mu.Unlock()
		return turmas, nil
	}
	c.mu.Unlock()

	turmas, err := fetch()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.turmas = turmas
	c.turmasAt = c.now()
	c.mu.Unlock()
	return turmas, nil
}

// Invalidate drops every cached lookup unconditionally. Called after any
// class or configuration mutation succeeds so no stale reference data is
// served after a write.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.semesters, c.semestersAt = nil, time.Time{}
	c.turmas, c.turmasAt = nil, time.Time{}
	c.mu.Unlock()
}
