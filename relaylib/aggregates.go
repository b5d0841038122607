package relaylib

import (
	"math"
	"sort"
)

// TopN is a number of entries in top-N lists of Summary.
const TopN = 5

// SortForDebug returns records sorted by timestamp and then client IP,
// both descending. Records with equal keys keep their relative order.
func SortForDebug(records []UsageRecord) ([]UsageRecord, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	rv := make([]UsageRecord, len(records))
	copy(rv, records)

	sort.SliceStable(rv, func(i, j int) bool {
		if rv[i].Timestamp != rv[j].Timestamp {
			return rv[i].Timestamp > rv[j].Timestamp
		}

		return rv[i].ClientIP > rv[j].ClientIP
	})

	return rv, nil
}

// ComputeSummary derives aggregates from records. lastUpdated is put
// into the summary as is.
func ComputeSummary(records []UsageRecord, lastUpdated string) (Summary, error) {
	if len(records) == 0 {
		return Summary{}, ErrNoData
	}

	rv := Summary{
		TotalRequests: len(records),
		LastUpdated:   lastUpdated,
	}

	var totalResponseTime int64

	for i := range records {
		rv.TotalTokens += records[i].TokenUsage
		rv.TotalPromptTokens += records[i].PromptTokens
		rv.TotalCompletionTokens += records[i].CompletionTokens
		totalResponseTime += records[i].ResponseTimeMS
	}

	rv.AverageTokens = roundTo2(float64(rv.TotalTokens) / float64(rv.TotalRequests))
	rv.AverageResponseTimeMS = roundTo2(float64(totalResponseTime) / float64(rv.TotalRequests))
	rv.TopIPs = mostCommon(records, TopN, func(r *UsageRecord) string {
		return r.ClientIP
	})
	rv.TopCountries = mostCommon(records, TopN, func(r *UsageRecord) string {
		return r.Country
	})
	rv.TopModels = mostCommon(records, TopN, func(r *UsageRecord) string {
		return r.Model
	})

	return rv, nil
}

// mostCommon counts values of the key and returns n most frequent
// ones. Ties are resolved by the order keys were first seen.
func mostCommon(records []UsageRecord, n int, key func(*UsageRecord) string) []KeyCount {
	indexes := map[string]int{}
	counts := []KeyCount{}

	for i := range records {
		k := key(&records[i])

		if idx, ok := indexes[k]; ok {
			counts[idx].Count++

			continue
		}

		indexes[k] = len(counts)
		counts = append(counts, KeyCount{Key: k, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if len(counts) > n {
		counts = counts[:n]
	}

	return counts
}

func roundTo2(value float64) float64 {
	return math.Round(value*100) / 100
}
