package savings

import "math/big"

// Default ring capacities for the bounded audit logs.
const (
	DefaultDepositHistoryCap uint32 = 50
	DefaultEventLogCap       uint32 = 500
	DefaultRateHistoryCap    uint32 = 100
)

// DepositRecord is one per-account deposit history entry.
type DepositRecord struct {
	Amount     *big.Int
	LockPeriod uint64
	Height     uint64
}

// EventRecord is one global audit log entry. Payload holds the flattened
// event attributes.
type EventRecord struct {
	Kind    string
	Payload string
	Height  uint64
}

// RateChange is one reward-rate history entry.
type RateChange struct {
	OldRate uint64
	NewRate uint64
	Height  uint64
}

// ring tracks the write cursor for a fixed-capacity log arena. Entries index
// by position; once the arena fills, the oldest slot is overwritten. Total
// counts every append ever made so readers can detect truncation.
type ring struct {
	Capacity uint32
	Cursor   uint32
	Total    uint64
}

// advance returns the slot to write and moves the cursor. length is the
// current number of occupied slots.
func (r *ring) advance(length int) int {
	if r.Capacity == 0 {
		r.Capacity = 1
	}
	slot := int(r.Cursor)
	if uint32(length) < r.Capacity {
		slot = length
	}
	r.Cursor = (uint32(slot) + 1) % r.Capacity
	r.Total++
	return slot
}

// latestIndices yields up to limit occupied slot indices, most recent first.
func (r *ring) latestIndices(length, limit int) []int {
	if limit <= 0 || length == 0 {
		return nil
	}
	if limit > length {
		limit = length
	}
	indices := make([]int, 0, limit)
	// Cursor points at the next write slot; the most recent entry sits one
	// position behind it.
	last := (int(r.Cursor) + length - 1) % length
	for i := 0; i < limit; i++ {
		indices = append(indices, (last-i+length)%length)
	}
	return indices
}

// DepositLog is the bounded per-account deposit history.
type DepositLog struct {
	Ring    ring
	Entries []DepositRecord
}

func newDepositLog(capacity uint32) *DepositLog {
	return &DepositLog{Ring: ring{Capacity: capacity}}
}

func (l *DepositLog) Append(entry DepositRecord) {
	slot := l.Ring.advance(len(l.Entries))
	if slot == len(l.Entries) {
		l.Entries = append(l.Entries, entry)
		return
	}
	l.Entries[slot] = entry
}

// Latest returns at most limit entries, most recent first, plus the true total
// number of entries ever appended.
func (l *DepositLog) Latest(limit int) ([]DepositRecord, uint64) {
	if l == nil {
		return nil, 0
	}
	indices := l.Ring.latestIndices(len(l.Entries), limit)
	out := make([]DepositRecord, 0, len(indices))
	for _, idx := range indices {
		out = append(out, l.Entries[idx])
	}
	return out, l.Ring.Total
}

// EventLog is the bounded global audit log.
type EventLog struct {
	Ring    ring
	Entries []EventRecord
}

func newEventLog(capacity uint32) *EventLog {
	return &EventLog{Ring: ring{Capacity: capacity}}
}

func (l *EventLog) Append(entry EventRecord) {
	slot := l.Ring.advance(len(l.Entries))
	if slot == len(l.Entries) {
		l.Entries = append(l.Entries, entry)
		return
	}
	l.Entries[slot] = entry
}

func (l *EventLog) Latest(limit int) ([]EventRecord, uint64) {
	if l == nil {
		return nil, 0
	}
	indices := l.Ring.latestIndices(len(l.Entries), limit)
	out := make([]EventRecord, 0, len(indices))
	for _, idx := range indices {
		out = append(out, l.Entries[idx])
	}
	return out, l.Ring.Total
}

// RateLog is the bounded reward-rate change history.
type RateLog struct {
	Ring    ring
	Entries []RateChange
}

func newRateLog(capacity uint32) *RateLog {
	return &RateLog{Ring: ring{Capacity: capacity}}
}

func (l *RateLog) Append(entry RateChange) {
	slot := l.Ring.advance(len(l.Entries))
	if slot == len(l.Entries) {
		l.Entries = append(l.Entries, entry)
		return
	}
	l.Entries[slot] = entry
}

func (l *RateLog) Latest(limit int) ([]RateChange, uint64) {
	if l == nil {
		return nil, 0
	}
	indices := l.Ring.latestIndices(len(l.Entries), limit)
	out := make([]RateChange, 0, len(indices))
	for _, idx := range indices {
		out = append(out, l.Entries[idx])
	}
	return out, l.Ring.Total
}
