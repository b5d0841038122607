package relaylib_test

import (
	"sync"
	"testing"

	"github.com/9seconds/promptrelay/relaylib"
	"github.com/stretchr/testify/suite"
)

type RequestCounterTestSuite struct {
	suite.Suite

	counter *relaylib.RequestCounter
}

func (suite *RequestCounterTestSuite) SetupTest() {
	suite.counter = relaylib.NewRequestCounter()
}

func (suite *RequestCounterTestSuite) TestIncrement() {
	suite.EqualValues(0, suite.counter.Get("1.1.1.1"))
	suite.EqualValues(1, suite.counter.Increment("1.1.1.1"))
	suite.EqualValues(2, suite.counter.Increment("1.1.1.1"))
	suite.EqualValues(1, suite.counter.Increment("8.8.8.8"))
	suite.EqualValues(2, suite.counter.Get("1.1.1.1"))
}

func (suite *RequestCounterTestSuite) TestReset() {
	suite.counter.Increment("1.1.1.1")
	suite.counter.Reset()

	suite.EqualValues(0, suite.counter.Get("1.1.1.1"))
}

func (suite *RequestCounterTestSuite) TestConcurrentIncrement() {
	wg := &sync.WaitGroup{}
	seen := make([]uint64, 1000)

	for i := 0; i < 1000; i++ {
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()

			seen[idx] = suite.counter.Increment("1.1.1.1")
		}(i)
	}

	wg.Wait()

	suite.EqualValues(1000, suite.counter.Get("1.1.1.1"))

	unique := map[uint64]bool{}

	for _, v := range seen {
		unique[v] = true
	}

	suite.Len(unique, 1000)
}

func TestRequestCounter(t *testing.T) {
	suite.Run(t, &RequestCounterTestSuite{})
}
