package relaylib_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/9seconds/promptrelay/relaylib"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type GeoResolverTestSuite struct {
	suite.Suite

	primary    *GeoProviderMock
	secondary  *GeoProviderMock
	logger     *LoggerMock
	classifier *relaylib.NetworkClassifier
	clock      relaylib.Clock
	resolver   *relaylib.GeoResolver
}

func (suite *GeoResolverTestSuite) SetupTest() {
	suite.primary = &GeoProviderMock{}
	suite.secondary = &GeoProviderMock{}
	suite.logger = NewQuietLoggerMock()

	suite.primary.On("Name").Return("primary").Maybe()
	suite.secondary.On("Name").Return("secondary").Maybe()

	classifier, err := relaylib.NewNetworkClassifier(nil)
	if err != nil {
		panic(err)
	}

	clock, err := relaylib.NewClock("UTC", func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	})
	if err != nil {
		panic(err)
	}

	suite.classifier = classifier
	suite.clock = clock
	suite.resolver = relaylib.NewGeoResolver(
		[]relaylib.GeoProvider{suite.primary, suite.secondary},
		suite.classifier,
		suite.logger,
		suite.clock,
		100*time.Millisecond)
}

func (suite *GeoResolverTestSuite) TearDownTest() {
	suite.primary.AssertExpectations(suite.T())
	suite.secondary.AssertExpectations(suite.T())
}

func (suite *GeoResolverTestSuite) TestPrivateAddresses() {
	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "::1", "fe80::1", "garbage", ""} {
		suite.Equal(relaylib.GeoInfoPrivate, suite.resolver.Resolve(context.Background(), ip), ip)
	}

	suite.primary.AssertNotCalled(suite.T(), "Lookup", mock.Anything, mock.Anything)
	suite.secondary.AssertNotCalled(suite.T(), "Lookup", mock.Anything, mock.Anything)
}

func (suite *GeoResolverTestSuite) TestPrimaryOk() {
	suite.primary.On("Lookup", mock.Anything, mock.Anything).
		Return(relaylib.GeoLookupResult{
			Country:     "United States",
			City:        "Ashburn",
			CountryCode: "us",
			Timezone:    "America/New_York",
		}, nil).
		Once()

	expected := relaylib.GeoInfo{
		Country:   "United States",
		City:      "Ashburn",
		LocalTime: "2024-05-01 08:00:00",
		Flag:      "\U0001F1FA\U0001F1F8",
	}

	suite.Equal(expected, suite.resolver.Resolve(context.Background(), "23.22.13.113"))
	suite.Equal(expected, suite.resolver.Resolve(context.Background(), "23.22.13.113"))
	suite.Equal(1, suite.resolver.CacheSize())
	suite.logger.AssertCalled(suite.T(), "LookupResolved", "23.22.13.113", "primary", expected)
	suite.logger.AssertCalled(suite.T(), "LookupResolved", "23.22.13.113", relaylib.GeoSourceCache, expected)
}

func (suite *GeoResolverTestSuite) TestFallback() {
	suite.primary.On("Lookup", mock.Anything, mock.Anything).
		Return(relaylib.GeoLookupResult{}, errors.New("timeout")).
		Once()
	suite.secondary.On("Lookup", mock.Anything, mock.Anything).
		Return(relaylib.GeoLookupResult{Country: "Israel", CountryCode: "IL"}, nil).
		Once()

	info := suite.resolver.Resolve(context.Background(), "5.29.0.1")

	suite.Equal("Israel", info.Country)
	suite.Equal(relaylib.GeoCityUnknown, info.City)
	suite.Equal("2024-05-01 15:00:00", info.LocalTime)
	suite.Equal("\U0001F1EE\U0001F1F1", info.Flag)
	suite.logger.AssertCalled(suite.T(), "LookupError", "5.29.0.1", "primary", mock.Anything)
}

func (suite *GeoResolverTestSuite) TestEmptyCountryIsFailure() {
	suite.primary.On("Lookup", mock.Anything, mock.Anything).
		Return(relaylib.GeoLookupResult{City: "Somewhere"}, nil).
		Once()
	suite.secondary.On("Lookup", mock.Anything, mock.Anything).
		Return(relaylib.GeoLookupResult{Country: "France", City: "Paris", Timezone: "Europe/Paris"}, nil).
		Once()

	info := suite.resolver.Resolve(context.Background(), "2.2.2.2")

	suite.Equal("France", info.Country)
	suite.Equal("Paris", info.City)
	suite.Empty(info.Flag)
}

func (suite *GeoResolverTestSuite) TestFailureIsCached() {
	suite.primary.On("Lookup", mock.Anything, mock.Anything).
		Return(relaylib.GeoLookupResult{}, errors.New("fail")).
		Once()
	suite.secondary.On("Lookup", mock.Anything, mock.Anything).
		Return(relaylib.GeoLookupResult{}, errors.New("fail")).
		Once()

	suite.Equal(relaylib.GeoInfoUnknown, suite.resolver.Resolve(context.Background(), "3.3.3.3"))
	suite.Equal(relaylib.GeoInfoUnknown, suite.resolver.Resolve(context.Background(), "3.3.3.3"))

	stats := suite.resolver.ProviderStats()

	suite.Len(stats, 2)
	suite.Equal("primary", stats[0].Name)
	suite.Equal(relaylib.UsageKindGeo, stats[0].Kind)
}

func (suite *GeoResolverTestSuite) TestUnknownTimezone() {
	suite.primary.On("Lookup", mock.Anything, mock.Anything).
		Return(relaylib.GeoLookupResult{Country: "Nowhere", Timezone: "Mars/Olympus"}, nil).
		Once()

	info := suite.resolver.Resolve(context.Background(), "4.4.4.4")

	suite.Equal(relaylib.TimeUnavailable, info.LocalTime)
}

func (suite *GeoResolverTestSuite) TestCancelledContextIsIgnored() {
	suite.primary.On("Lookup", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			suite.NoError(args.Get(0).(context.Context).Err())
		}).
		Return(relaylib.GeoLookupResult{Country: "Japan", CountryCode: "JP"}, nil).
		Once()

	ctx, cancel := context.WithCancel(context.Background())

	cancel()

	suite.Equal("Japan", suite.resolver.Resolve(ctx, "1.0.16.1").Country)
}

func (suite *GeoResolverTestSuite) TestProviderTimeout() {
	suite.primary.On("Lookup", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(relaylib.GeoLookupResult{}, context.DeadlineExceeded).
		Once()
	suite.secondary.On("Lookup", mock.Anything, mock.Anything).
		Return(relaylib.GeoLookupResult{Country: "Japan"}, nil).
		Once()

	started := time.Now()

	suite.Equal("Japan", suite.resolver.Resolve(context.Background(), "1.0.16.1").Country)
	suite.Less(time.Since(started), time.Second)
}

func (suite *GeoResolverTestSuite) TestConcurrentColdLookup() {
	suite.primary.On("Lookup", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			time.Sleep(50 * time.Millisecond)
		}).
		Return(relaylib.GeoLookupResult{Country: "Japan"}, nil).
		Once()

	wg := &sync.WaitGroup{}

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			suite.Equal("Japan", suite.resolver.Resolve(context.Background(), "1.0.16.1").Country)
		}()
	}

	wg.Wait()

	suite.primary.AssertNumberOfCalls(suite.T(), "Lookup", 1)
}

func (suite *GeoResolverTestSuite) TestReset() {
	suite.primary.On("Lookup", mock.Anything, net.ParseIP("1.0.16.1")).
		Return(relaylib.GeoLookupResult{Country: "Japan"}, nil).
		Twice()

	suite.resolver.Resolve(context.Background(), "1.0.16.1")
	suite.resolver.Reset()

	suite.Equal(0, suite.resolver.CacheSize())

	suite.resolver.Resolve(context.Background(), "1.0.16.1")
}

func (suite *GeoResolverTestSuite) TestNoProviders() {
	resolver := relaylib.NewGeoResolver(nil, suite.classifier, suite.logger, suite.clock, 0)

	suite.Equal(relaylib.GeoInfoUnknown, resolver.Resolve(context.Background(), "8.8.8.8"))
	suite.Empty(resolver.ProviderStats())
}

func TestGeoResolver(t *testing.T) {
	suite.Run(t, &GeoResolverTestSuite{})
}
