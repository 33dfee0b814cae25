// Package live binds list views to a collection with full-snapshot delivery.
//
// A Binder re-runs its ordered query on every change signal and delivers
// the complete result as a replacement for whatever the consumer held
// before. Snapshots are never diffed or merged: two successive snapshots
// are unrelated full states. If the query fails mid-stream the binder
// delivers a terminal error and stops; there is no automatic reconnect.
// Re-subscribing is the consumer's re-mount.
package live

import (
	"sync"

	apperrors "github.com/shahriarsany/portfolio/backend/internal/errors"
)

// Source provides change signals for a collection. *db.Notifier
// satisfies this.
type Source interface {
	Listen(collection string) (<-chan struct{}, func())
}

// Event carries one full snapshot or a terminal error.
type Event[T any] struct {
	Records []T
	Err     error
}

// Binder owns one live subscription.
type Binder[T any] struct {
	events    chan Event[T]
	done      chan struct{}
	closeOnce sync.Once
}

// Bind subscribes to a collection and starts snapshot delivery. The
// initial snapshot is delivered immediately; afterwards every change
// signal triggers a full re-read. A slow consumer only ever sees the
// newest snapshot: stale undelivered snapshots are replaced, not queued.
func Bind[T any](source Source, collection string, list func() ([]T, error)) *Binder[T] {
	b := &Binder[T]{
		events: make(chan Event[T], 1),
		done:   make(chan struct{}),
	}

	signals, cancel := source.Listen(collection)

	go func() {
		defer cancel()
		defer close(b.events)

		if !b.deliver(list) {
			return
		}

		for {
			select {
			case <-b.done:
				return
			case <-signals:
				if !b.deliver(list) {
					return
				}
			}
		}
	}()

	return b
}

// deliver reads a full snapshot and publishes it, replacing any
// undelivered one. Returns false when the subscription is terminal.
func (b *Binder[T]) deliver(list func() ([]T, error)) bool {
	records, err := list()
	if err != nil {
		err = apperrors.Wrap(apperrors.ErrSubscription, "snapshot read failed", err)
	}
	event := Event[T]{Records: records, Err: err}

	for {
		select {
		case <-b.done:
			return false
		case b.events <- event:
			// A terminal error ends the subscription after delivery.
			return err == nil
		default:
			// Drop the stale undelivered snapshot and retry with the new one.
			select {
			case <-b.events:
			default:
			}
		}
	}
}

// Events returns the snapshot stream. The channel closes when the
// subscription ends, whether by Close or by a terminal error.
func (b *Binder[T]) Events() <-chan Event[T] {
	return b.events
}

// Close tears the subscription down. It must be called when the owning
// view goes away; a leaked subscription keeps re-reading forever.
func (b *Binder[T]) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}
