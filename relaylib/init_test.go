package relaylib_test

import (
	"context"
	"net"

	"github.com/9seconds/promptrelay/relaylib"
	"github.com/stretchr/testify/mock"
)

type GeoProviderMock struct {
	mock.Mock
}

func (m *GeoProviderMock) Name() string {
	return m.Called().String(0)
}

func (m *GeoProviderMock) Lookup(ctx context.Context, ip net.IP) (relaylib.GeoLookupResult, error) {
	args := m.Called(ctx, ip)

	return args.Get(0).(relaylib.GeoLookupResult), args.Error(1)
}

type LLMClientMock struct {
	mock.Mock
}

func (m *LLMClientMock) Name() string {
	return m.Called().String(0)
}

func (m *LLMClientMock) Complete(ctx context.Context, req relaylib.CompletionRequest) (relaylib.Completion, error) {
	args := m.Called(ctx, req)

	return args.Get(0).(relaylib.Completion), args.Error(1)
}

type LoggerMock struct {
	mock.Mock
}

func (m *LoggerMock) LookupError(ip, providerName string, err error) {
	m.Called(ip, providerName, err)
}

func (m *LoggerMock) LookupResolved(ip, source string, info relaylib.GeoInfo) {
	m.Called(ip, source, info)
}

func (m *LoggerMock) CompletionError(ip string, err error) {
	m.Called(ip, err)
}

func (m *LoggerMock) CompletionRecorded(record relaylib.UsageRecord) {
	m.Called(record)
}

// NewQuietLoggerMock returns a logger which accepts any calls.
func NewQuietLoggerMock() *LoggerMock {
	rv := &LoggerMock{}

	rv.On("LookupError", mock.Anything, mock.Anything, mock.Anything).Maybe()
	rv.On("LookupResolved", mock.Anything, mock.Anything, mock.Anything).Maybe()
	rv.On("CompletionError", mock.Anything, mock.Anything).Maybe()
	rv.On("CompletionRecorded", mock.Anything).Maybe()

	return rv
}
