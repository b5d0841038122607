package relaylib

import "sync"

// DefaultUsageLogCapacity is a number of records usage log keeps if
// nothing else is requested.
const DefaultUsageLogCapacity = 100

// UsageLog is a fixed capacity circular buffer of UsageRecords. If it
// is full, appending a new record evicts the oldest one. Append and
// eviction happen under the same lock so nobody can see a log which
// is larger than its capacity.
type UsageLog struct {
	mutex   sync.RWMutex
	records []UsageRecord
	head    int
	size    int
}

// Append puts a record to the tail of the log.
func (u *UsageLog) Append(record UsageRecord) {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	capacity := len(u.records)

	if u.size < capacity {
		u.records[(u.head+u.size)%capacity] = record
		u.size++

		return
	}

	u.records[u.head] = record
	u.head = (u.head + 1) % capacity
}

// Snapshot returns a copy of the log contents, oldest record first.
func (u *UsageLog) Snapshot() []UsageRecord {
	u.mutex.RLock()
	defer u.mutex.RUnlock()

	rv := make([]UsageRecord, u.size)
	capacity := len(u.records)

	for i := 0; i < u.size; i++ {
		rv[i] = u.records[(u.head+i)%capacity]
	}

	return rv
}

func (u *UsageLog) Len() int {
	u.mutex.RLock()
	defer u.mutex.RUnlock()

	return u.size
}

func (u *UsageLog) Capacity() int {
	return len(u.records)
}

// Reset drops all records.
func (u *UsageLog) Reset() {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	for i := range u.records {
		u.records[i] = UsageRecord{}
	}

	u.head = 0
	u.size = 0
}

// NewUsageLog creates a new log of a given capacity. Non-positive
// capacity means DefaultUsageLogCapacity.
func NewUsageLog(capacity int) *UsageLog {
	if capacity <= 0 {
		capacity = DefaultUsageLogCapacity
	}

	return &UsageLog{
		records: make([]UsageRecord, capacity),
	}
}
