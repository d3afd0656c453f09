// Package ledger maintains a live, ordered view of one user's transactions.
package ledger

import (
	"sort"
	"sync"

	"tally/internal/core"
	"tally/internal/store"
)

// View subscribes to the transaction store and keeps the user's snapshot
// ordered most-recent-first. Ordering key is CreatedAt when present, the
// transaction date otherwise; ties keep their store order.
//
// Every upstream change re-sorts the whole snapshot. That is the simplest
// correct strategy; incremental patching would be a performance
// optimization only.
type View struct {
	mu       sync.RWMutex
	userID   string
	snapshot []core.Transaction
	err      error

	feed        *store.Feed[core.Transaction]
	unsubscribe func()
	closeOnce   sync.Once
}

func NewView(transactions store.TransactionStore, userID string) *View {
	v := &View{
		userID: userID,
		feed:   store.NewFeed[core.Transaction](),
	}
	v.unsubscribe = transactions.Subscribe(userID, v.onSnapshot, v.onError)
	return v
}

// Sort orders a snapshot most-recent-first without mutating the input.
func Sort(txs []core.Transaction) []core.Transaction {
	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortKey().After(sorted[j].SortKey())
	})
	return sorted
}

func (v *View) onSnapshot(txs []core.Transaction) {
	sorted := Sort(txs)

	v.mu.Lock()
	v.snapshot = sorted
	v.err = nil
	v.mu.Unlock()

	v.feed.Publish(v.userID, sorted)
}

// onError puts the view into an error state with an empty snapshot. Retry
// policy belongs to the store collaborator, not here.
func (v *View) onError(err error) {
	upstream := &core.UpstreamError{Op: "subscribe", Err: err}

	v.mu.Lock()
	v.snapshot = nil
	v.err = upstream
	v.mu.Unlock()

	v.feed.Publish(v.userID, nil)
	v.feed.Fail(v.userID, upstream)
}

// Snapshot returns the latest fully-received snapshot.
func (v *View) Snapshot() []core.Transaction {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]core.Transaction, len(v.snapshot))
	copy(out, v.snapshot)
	return out
}

// Err returns the current error state, nil when healthy.
func (v *View) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// Subscribe registers a downstream observer. The current snapshot is
// delivered immediately.
func (v *View) Subscribe(onSnapshot func([]core.Transaction), onError func(error)) func() {
	unsubscribe := v.feed.Subscribe(v.userID, onSnapshot, onError)
	if onSnapshot != nil {
		onSnapshot(v.Snapshot())
	}
	return unsubscribe
}

// Close detaches the view from the store. No snapshot is delivered after
// Close returns.
func (v *View) Close() {
	v.closeOnce.Do(func() {
		if v.unsubscribe != nil {
			v.unsubscribe()
		}
	})
}
