package relaylib

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	UsageKindGeo = "geo"
	UsageKindLLM = "llm"
)

// UsageStats tracks how a remote dependency behaves: how many calls
// have succeeded, how many failed and what was the last error.
type UsageStats struct {
	Name string
	Kind string

	mutex         sync.Mutex
	lastUsed      time.Time
	lastSucceeded time.Time
	lastError     string
	successCount  uint64
	failureCount  uint64
}

func (u *UsageStats) Used(err error) {
	now := time.Now()

	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.lastUsed = now

	if err == nil {
		u.successCount++
		u.lastSucceeded = now
	} else {
		u.failureCount++
		u.lastError = err.Error()
	}
}

func (u *UsageStats) Reset() {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.lastUsed = time.Time{}
	u.lastSucceeded = time.Time{}
	u.lastError = ""
	u.successCount = 0
	u.failureCount = 0
}

func (u *UsageStats) MarshalJSON() ([]byte, error) {
	var lastUsedTime, lastSucceededTime int64

	u.mutex.Lock()

	if !u.lastUsed.IsZero() {
		lastUsedTime = u.lastUsed.Unix()
	}

	if !u.lastSucceeded.IsZero() {
		lastSucceededTime = u.lastSucceeded.Unix()
	}

	rawStruct := struct {
		Name          string `json:"name"`
		Kind          string `json:"kind"`
		LastUsed      int64  `json:"last_used"`
		LastSucceeded int64  `json:"last_succeeded"`
		LastError     string `json:"last_error"`
		SuccessCount  uint64 `json:"success_count"`
		FailureCount  uint64 `json:"failure_count"`
	}{
		Name:          u.Name,
		Kind:          u.Kind,
		LastUsed:      lastUsedTime,
		LastSucceeded: lastSucceededTime,
		LastError:     u.lastError,
		SuccessCount:  u.successCount,
		FailureCount:  u.failureCount,
	}

	u.mutex.Unlock()

	return json.Marshal(&rawStruct)
}
