package relaylib_test

import (
	"encoding/json"
	"testing"

	"github.com/9seconds/promptrelay/relaylib"
	"github.com/stretchr/testify/suite"
)

type AggregatesTestSuite struct {
	suite.Suite
}

func (suite *AggregatesTestSuite) TestSummaryEmpty() {
	_, err := relaylib.ComputeSummary(nil, "2024-01-01 00:00:00")

	suite.ErrorIs(err, relaylib.ErrNoData)
}

func (suite *AggregatesTestSuite) TestDebugEmpty() {
	_, err := relaylib.SortForDebug([]relaylib.UsageRecord{})

	suite.ErrorIs(err, relaylib.ErrNoData)
}

func (suite *AggregatesTestSuite) TestSummaryTotals() {
	records := []relaylib.UsageRecord{
		{ClientIP: "1.1.1.1", TokenUsage: 10, PromptTokens: 4, CompletionTokens: 6, ResponseTimeMS: 100},
		{ClientIP: "1.1.1.1", TokenUsage: 20, PromptTokens: 5, CompletionTokens: 15, ResponseTimeMS: 200},
		{ClientIP: "2.2.2.2", TokenUsage: 30, PromptTokens: 10, CompletionTokens: 20, ResponseTimeMS: 301},
	}

	summary, err := relaylib.ComputeSummary(records, "2024-01-01 00:00:00")

	suite.NoError(err)
	suite.Equal(3, summary.TotalRequests)
	suite.Equal(60, summary.TotalTokens)
	suite.Equal(19, summary.TotalPromptTokens)
	suite.Equal(41, summary.TotalCompletionTokens)
	suite.InDelta(20.0, summary.AverageTokens, 0.0001)
	suite.InDelta(200.33, summary.AverageResponseTimeMS, 0.0001)
	suite.Equal("2024-01-01 00:00:00", summary.LastUpdated)
	suite.Equal([]relaylib.KeyCount{
		{Key: "1.1.1.1", Count: 2},
		{Key: "2.2.2.2", Count: 1},
	}, summary.TopIPs)
}

func (suite *AggregatesTestSuite) TestSummaryRounding() {
	records := []relaylib.UsageRecord{
		{TokenUsage: 1},
		{TokenUsage: 1},
		{TokenUsage: 0},
	}

	summary, err := relaylib.ComputeSummary(records, "")

	suite.NoError(err)
	suite.InDelta(0.67, summary.AverageTokens, 0.0001)
}

func (suite *AggregatesTestSuite) TestTopIsLimited() {
	records := []relaylib.UsageRecord{}
	ips := []string{"1.0.0.1", "1.0.0.2", "1.0.0.3", "1.0.0.4", "1.0.0.5", "1.0.0.6", "1.0.0.7"}

	for i, ip := range ips {
		for j := 0; j <= i; j++ {
			records = append(records, relaylib.UsageRecord{ClientIP: ip, Country: "Israel"})
		}
	}

	summary, err := relaylib.ComputeSummary(records, "")

	suite.NoError(err)
	suite.Len(summary.TopIPs, relaylib.TopN)
	suite.Equal("1.0.0.7", summary.TopIPs[0].Key)
	suite.Equal(7, summary.TopIPs[0].Count)

	for i := 1; i < len(summary.TopIPs); i++ {
		suite.GreaterOrEqual(summary.TopIPs[i-1].Count, summary.TopIPs[i].Count)
	}

	suite.Equal([]relaylib.KeyCount{{Key: "Israel", Count: len(records)}}, summary.TopCountries)
}

func (suite *AggregatesTestSuite) TestTopTiesKeepFirstSeen() {
	records := []relaylib.UsageRecord{
		{Country: "Germany", Model: "gpt-4"},
		{Country: "France", Model: "gpt-4"},
		{Country: "France", Model: "gpt-3.5"},
		{Country: "Germany", Model: "gpt-3.5"},
		{Country: "Spain", Model: "gpt-3.5"},
	}

	summary, err := relaylib.ComputeSummary(records, "")

	suite.NoError(err)
	suite.Equal([]relaylib.KeyCount{
		{Key: "Germany", Count: 2},
		{Key: "France", Count: 2},
		{Key: "Spain", Count: 1},
	}, summary.TopCountries)
	suite.Equal([]relaylib.KeyCount{
		{Key: "gpt-3.5", Count: 3},
		{Key: "gpt-4", Count: 2},
	}, summary.TopModels)
}

func (suite *AggregatesTestSuite) TestSummaryJSON() {
	summary, err := relaylib.ComputeSummary([]relaylib.UsageRecord{
		{ClientIP: "1.1.1.1", Country: "Israel", TokenUsage: 10},
	}, "2024-01-01 00:00:00")

	suite.NoError(err)

	encoded, err := json.Marshal(summary)

	suite.NoError(err)
	suite.JSONEq(`{
        "total_requests": 1,
        "total_tokens_used": 10,
        "total_prompt_tokens": 0,
        "total_completion_tokens": 0,
        "average_tokens_per_request": 10,
        "average_response_time_ms": 0,
        "top_ips": [["1.1.1.1", 1]],
        "top_countries": [["Israel", 1]],
        "top_models": [["", 1]],
        "last_updated": "2024-01-01 00:00:00"
    }`, string(encoded))
}

func (suite *AggregatesTestSuite) TestDebugOrder() {
	records := []relaylib.UsageRecord{
		{ID: "a", Timestamp: "2024-01-01 10:00:00", ClientIP: "1.1.1.1"},
		{ID: "b", Timestamp: "2024-01-01 12:00:00", ClientIP: "1.1.1.1"},
		{ID: "c", Timestamp: "2024-01-01 12:00:00", ClientIP: "9.9.9.9"},
		{ID: "d", Timestamp: "2024-01-01 11:00:00", ClientIP: "1.1.1.1"},
		{ID: "e", Timestamp: "2024-01-01 12:00:00", ClientIP: "1.1.1.1"},
	}

	sorted, err := relaylib.SortForDebug(records)

	suite.NoError(err)

	ids := []string{}
	for _, v := range sorted {
		ids = append(ids, v.ID)
	}

	suite.Equal([]string{"c", "b", "e", "d", "a"}, ids)
	suite.Equal("a", records[0].ID)
}

func TestAggregates(t *testing.T) {
	suite.Run(t, &AggregatesTestSuite{})
}
