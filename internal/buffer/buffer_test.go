package buffer

import (
	"testing"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PriceBufferTestSuite struct {
	suite.Suite
}

func TestPriceBufferSuite(t *testing.T) {
	suite.Run(t, new(PriceBufferTestSuite))
}

func prices(values ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromInt(v)
	}

	return out
}

func (suite *PriceBufferTestSuite) assertPrices(expected []decimal.Decimal, actual []decimal.Decimal) {
	suite.Require().Len(actual, len(expected))

	for i := range expected {
		suite.True(expected[i].Equal(actual[i]), "index %d: expected %s, got %s", i, expected[i], actual[i])
	}
}

func (suite *PriceBufferTestSuite) TestInvalidCapacity() {
	for _, capacity := range []int{0, -3} {
		b, err := NewPriceBuffer(capacity)
		suite.Nil(b)
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidWindow))
	}
}

func (suite *PriceBufferTestSuite) TestFillsThenEvictsOldest() {
	b, err := NewPriceBuffer(3)
	suite.Require().NoError(err)

	suite.False(b.IsFull())
	suite.Empty(b.Snapshot())

	b.Push(decimal.NewFromInt(1))
	b.Push(decimal.NewFromInt(2))
	suite.False(b.IsFull())
	suite.assertPrices(prices(1, 2), b.Snapshot())

	b.Push(decimal.NewFromInt(3))
	suite.True(b.IsFull())
	suite.assertPrices(prices(1, 2, 3), b.Snapshot())

	b.Push(decimal.NewFromInt(4))
	suite.True(b.IsFull())
	suite.Equal(3, b.Len())
	suite.assertPrices(prices(2, 3, 4), b.Snapshot())
}

func (suite *PriceBufferTestSuite) TestRetainsLastWindowAfterManyPushes() {
	const capacity = 5

	b, err := NewPriceBuffer(capacity)
	suite.Require().NoError(err)

	// W + k pushes keep exactly the last W, oldest first
	for k := 0; k < 20; k++ {
		b.Reset()

		for i := int64(0); i < int64(capacity+k); i++ {
			b.Push(decimal.NewFromInt(i))
		}

		expected := make([]decimal.Decimal, 0, capacity)
		for i := int64(k); i < int64(capacity+k); i++ {
			expected = append(expected, decimal.NewFromInt(i))
		}

		suite.assertPrices(expected, b.Snapshot())
	}
}

func (suite *PriceBufferTestSuite) TestSnapshotIsACopy() {
	b, err := NewPriceBuffer(2)
	suite.Require().NoError(err)

	b.Push(decimal.NewFromInt(10))
	snap := b.Snapshot()
	snap[0] = decimal.NewFromInt(99)

	suite.assertPrices(prices(10), b.Snapshot())
}

func (suite *PriceBufferTestSuite) TestLatest() {
	b, err := NewPriceBuffer(2)
	suite.Require().NoError(err)

	_, ok := b.Latest()
	suite.False(ok)

	b.Push(decimal.NewFromInt(7))
	b.Push(decimal.NewFromInt(8))
	b.Push(decimal.NewFromInt(9))

	latest, ok := b.Latest()
	suite.True(ok)
	suite.True(decimal.NewFromInt(9).Equal(latest))
	suite.Equal(2, b.Capacity())
}

func (suite *PriceBufferTestSuite) TestCapacityOne() {
	b, err := NewPriceBuffer(1)
	suite.Require().NoError(err)

	b.Push(decimal.NewFromInt(1))
	b.Push(decimal.NewFromInt(2))
	suite.True(b.IsFull())
	suite.assertPrices(prices(2), b.Snapshot())
}
