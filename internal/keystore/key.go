package keystore

import (
	"sync/atomic"
	"time"
)

// Key is a live API key owned by the Store. The identity fields are
// immutable after creation; usage state is held in per-key atomics so
// concurrent validations never contend on the store lock.
type Key struct {
	ID        string
	Token     string
	Name      string
	Tier      Tier
	CreatedAt time.Time

	active     atomic.Bool
	lastUsed   atomic.Int64 // unix nanoseconds, 0 = never used
	totalCalls atomic.Uint64
}

// Active reports whether the key is currently usable.
func (k *Key) Active() bool {
	return k.active.Load()
}

// TotalCalls returns the number of successful validations.
func (k *Key) TotalCalls() uint64 {
	return k.totalCalls.Load()
}

// LastUsed returns the time of the most recent validation, or a zero
// time if the key has never been used.
func (k *Key) LastUsed() time.Time {
	nanos := k.lastUsed.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// use records one successful validation.
func (k *Key) use(now time.Time) {
	k.lastUsed.Store(now.UnixNano())
	k.totalCalls.Add(1)
}

// revoke deactivates the key. The transition is one-way; revoking an
// already-revoked key is a no-op. Returns whether the key was active.
func (k *Key) revoke() bool {
	return k.active.CompareAndSwap(true, false)
}

// Record is the serializable snapshot of a key, used for persistence
// and listing.
type Record struct {
	ID         string     `json:"id"`
	Token      string     `json:"token"`
	Name       string     `json:"name"`
	Tier       Tier       `json:"tier"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used,omitempty"`
	TotalCalls uint64     `json:"total_calls"`
	Active     bool       `json:"active"`
}

// Snapshot returns a point-in-time Record of the key.
func (k *Key) Snapshot() Record {
	rec := Record{
		ID:         k.ID,
		Token:      k.Token,
		Name:       k.Name,
		Tier:       k.Tier,
		CreatedAt:  k.CreatedAt,
		TotalCalls: k.totalCalls.Load(),
		Active:     k.active.Load(),
	}
	if nanos := k.lastUsed.Load(); nanos != 0 {
		t := time.Unix(0, nanos)
		rec.LastUsed = &t
	}
	return rec
}

// keyFromRecord rehydrates a live key from a persisted record.
func keyFromRecord(rec Record) *Key {
	k := &Key{
		ID:        rec.ID,
		Token:     rec.Token,
		Name:      rec.Name,
		Tier:      rec.Tier,
		CreatedAt: rec.CreatedAt,
	}
	k.active.Store(rec.Active)
	k.totalCalls.Store(rec.TotalCalls)
	if rec.LastUsed != nil {
		k.lastUsed.Store(rec.LastUsed.UnixNano())
	}
	return k
}
