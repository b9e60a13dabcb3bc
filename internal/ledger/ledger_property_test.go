package ledger

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"mmsim/internal/models"
)

// Property: under arbitrary interleavings of entries and collapses the
// position sizes stay non-negative, a zero-size side always carries a zero
// average price, and equity marked at each side's average price equals cash
// plus reserved margin (unrealized cancels by construction).

type ledgerOp struct {
	Side  int // 0 long, 1 short, 2 collapse
	Price float64
	Size  float64
}

func opGen() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 2),
		gen.Float64Range(1, 500),
		gen.Float64Range(0.001, 5),
	).Map(func(vals []interface{}) ledgerOp {
		return ledgerOp{
			Side:  vals[0].(int),
			Price: vals[1].(float64),
			Size:  vals[2].(float64),
		}
	})
}

func TestProperty_PositionsNeverNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("sizes >= 0 and avg zero when size zero", prop.ForAll(
		func(ops []ledgerOp) bool {
			l := New(Config{InitialBalance: 10000})
			ts := time.Now()
			for _, op := range ops {
				switch op.Side {
				case 0:
					l.Enter(models.SideLong, op.Price, op.Size, ts)
				case 1:
					l.Enter(models.SideShort, op.Price, op.Size, ts)
				default:
					l.Collapse(ts)
				}

				if l.Long().Size < 0 || l.Short().Size < 0 {
					return false
				}
				if l.Long().Size == 0 && l.Long().AvgPrice != 0 {
					return false
				}
				if l.Short().Size == 0 && l.Short().AvgPrice != 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(opGen()),
	))

	properties.TestingRun(t)
}

func TestProperty_RejectionLeavesStateUntouched(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("margin rejection mutates nothing", prop.ForAll(
		func(price, size float64) bool {
			l := New(Config{InitialBalance: 1, Leverage: 10})
			margin := l.Margin(size, price)
			before := l.Snapshot()
			tr := l.Enter(models.SideLong, price, size, time.Now())
			if margin > 1 {
				return tr == nil && l.Snapshot() == before
			}
			return tr != nil
		},
		gen.Float64Range(1, 10000),
		gen.Float64Range(0.001, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_CollapseConservesEquityAtAvgPrices(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("collapse realizes exactly the avg-price gap", prop.ForAll(
		func(longPrice, shortPrice, longSize, shortSize float64) bool {
			l := New(Config{InitialBalance: 1e7})
			ts := time.Now()
			if l.Enter(models.SideLong, longPrice, longSize, ts) == nil {
				return true
			}
			if l.Enter(models.SideShort, shortPrice, shortSize, ts) == nil {
				return true
			}

			netted := longSize
			if shortSize < netted {
				netted = shortSize
			}
			wantRealized := (shortPrice - longPrice) * netted

			c := l.Collapse(ts)
			if c == nil {
				return false
			}
			return approxEq(c.RealizedPnL, wantRealized) &&
				approxEq(l.RealizedPnL(), wantRealized)
		},
		gen.Float64Range(1, 1000),
		gen.Float64Range(1, 1000),
		gen.Float64Range(0.001, 10),
		gen.Float64Range(0.001, 10),
	))

	properties.TestingRun(t)
}

func approxEq(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1e-6
}
