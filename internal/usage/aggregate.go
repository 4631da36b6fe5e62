package usage

import (
	"github.com/shopspring/decimal"

	"github.com/aceteam-ai/gatewatch/internal/gateway"
)

// CostPlaces is the precision cost totals are rounded to.
const CostPlaces = 4

// Summary is the reduction of a set of sessions.
type Summary struct {
	TotalTokens int64   `json:"totalTokens"`
	TotalCost   float64 `json:"totalCost"`
	Count       int     `json:"count"`
}

// Aggregate sums tokens and cost over sessions. Missing usage counts as
// zero; Count is len(sessions).
func Aggregate(sessions []gateway.Session) Summary {
	var acc accumulator
	for _, s := range sessions {
		acc.add(s.Tokens(), s.CostTotal())
	}
	return acc.summary(len(sessions))
}

// AggregateRecords is Aggregate over stored records.
func AggregateRecords(records []Record) Summary {
	var acc accumulator
	for _, r := range records {
		acc.add(r.TotalTokens, r.Cost)
	}
	return acc.summary(len(records))
}

// accumulator sums cost as a decimal and rounds only once, in summary.
type accumulator struct {
	tokens int64
	cost   decimal.Decimal
}

func (a *accumulator) add(tokens int64, cost float64) {
	a.tokens += tokens
	a.cost = a.cost.Add(decimal.NewFromFloat(cost))
}

func (a *accumulator) summary(count int) Summary {
	return Summary{
		TotalTokens: a.tokens,
		TotalCost:   a.cost.Round(CostPlaces).InexactFloat64(),
		Count:       count,
	}
}
