// Package refresh prefetches translation content for many locales through a
// bounded worker pool. Individual loads keep their best-effort semantics:
// a locale that fails to load is logged by the loader and skipped.
package refresh

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pitabwire/util"
)

// LoadFunc loads one locale; failures are handled inside.
type LoadFunc func(ctx context.Context, locale string)

// Pool schedules locale loads onto a fixed-size ants pool.
type Pool struct {
	pool *ants.Pool
	load LoadFunc
	wg   sync.WaitGroup
}

func NewPool(size int, load LoadFunc) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	antsPool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	return &Pool{pool: antsPool, load: load}, nil
}

// Prefetch schedules a load for every locale. It returns once all loads are
// queued; use Wait to block until they finish.
func (p *Pool) Prefetch(ctx context.Context, locales ...string) {
	for _, locale := range locales {
		p.wg.Add(1)
		err := p.pool.Submit(func() {
			defer p.wg.Done()
			p.load(ctx, locale)
		})
		if err != nil {
			p.wg.Done()
			util.Log(ctx).WithError(err).WithField("locale", locale).
				Error("Prefetch -- could not schedule locale load")
		}
	}
}

// Wait blocks until every scheduled load has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close releases the underlying worker pool.
func (p *Pool) Close() {
	p.pool.Release()
}
