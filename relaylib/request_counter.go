package relaylib

import "sync"

// RequestCounter counts requests per client IP. Counters only grow,
// they are not affected by usage log eviction.
type RequestCounter struct {
	mutex    sync.Mutex
	counters map[string]uint64
}

// Increment bumps a counter for the given IP and returns a new value.
func (r *RequestCounter) Increment(ip string) uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.counters[ip]++

	return r.counters[ip]
}

func (r *RequestCounter) Get(ip string) uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.counters[ip]
}

func (r *RequestCounter) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.counters = map[string]uint64{}
}

func NewRequestCounter() *RequestCounter {
	return &RequestCounter{
		counters: map[string]uint64{},
	}
}
