/*
projector.go - Monthly accrual walk

PURPOSE:
  Produces the month-by-month financial schedule: each period updates the
  base remuneration by the prior period's published rate, then derives the
  primary payroll charge, the penalty on it, the flat 30-day delinquency
  interest and the capped monthly surcharge.

RATE REINDEXING:
  The effective rate of period p is the raw observation of p−1; the first
  period of a series with no prior observation settles at 0. This is a
  regulatory publication-lag convention, implemented as an explicit
  reindexing step rather than an offset inside the loop.

DEGRADATION:
  A failed or empty rate fetch is recovered, never surfaced: the walk
  proceeds with zero rates and the failure is logged. The caller always
  gets a complete schedule.

SEE ALSO:
  - period.go: the year-month value type
  - rates/client.go: the production RateSource
*/
package projection

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"github.com/construtiva/obra-engine/rules"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// RATE SOURCE
// =============================================================================

// RateObservation is one published annualized-rate observation.
type RateObservation struct {
	Period         Period
	AnnualizedRate decimal.Decimal // percent
}

// RateSource supplies the annualized benchmark-rate series for a period
// range, both ends inclusive.
type RateSource interface {
	AnnualizedSeries(ctx context.Context, from, to Period) ([]RateObservation, error)
}

// =============================================================================
// SCHEDULE
// =============================================================================

// Row is one month of the accrual schedule.
type Row struct {
	Period        Period
	Base          decimal.Decimal
	EffectiveRate decimal.Decimal // percent, already reindexed
	UpdatedValue  decimal.Decimal
	PrimaryCharge decimal.Decimal // CPP
	Penalty       decimal.Decimal
	DailyInterest decimal.Decimal
	SurchargePct  decimal.Decimal // MAED accumulator at this row
	Surcharge     decimal.Decimal
	Total         decimal.Decimal
}

// Totals sums the schedule's remuneration, updated-value and row-total
// columns across all rows.
type Totals struct {
	Base    decimal.Decimal
	Updated decimal.Decimal
	Total   decimal.Decimal
}

type Schedule struct {
	Rows   []Row
	Totals Totals
}

// =============================================================================
// PROJECTOR
// =============================================================================

type Projector struct {
	Rates RateSource
	Rules *rules.RuleSet
}

func NewProjector(rates RateSource, rs *rules.RuleSet) *Projector {
	return &Projector{Rates: rates, Rules: rs}
}

// Project walks every period from start to end inclusive. An inverted range
// yields an empty schedule, not an error.
func (p *Projector) Project(ctx context.Context, start, end Period, base decimal.Decimal) Schedule {
	if end.Before(start) {
		return Schedule{Rows: []Row{}}
	}

	effective := p.effectiveRates(ctx, start, end)

	var schedule Schedule
	surcharge := decimal.Zero

	for period := start; !period.After(end); period = period.Next() {
		// The surcharge steps up before first use, so the first period
		// already carries one increment and the cap holds from then on.
		if surcharge.LessThan(p.Rules.SurchargeCapPct) {
			surcharge = surcharge.Add(p.Rules.SurchargeStepPct)
		}

		rate := effective[period]
		row := Row{
			Period:        period,
			Base:          base,
			EffectiveRate: rate,
			SurchargePct:  surcharge,
		}
		row.UpdatedValue = base.Mul(decimal.NewFromInt(1).Add(rate.Div(hundred)))
		row.PrimaryCharge = row.UpdatedValue.Mul(p.Rules.PrimaryChargeRate)
		row.Penalty = row.PrimaryCharge.Mul(p.Rules.PenaltyRate)
		row.DailyInterest = row.UpdatedValue.
			Mul(p.Rules.DailyInterestRate).
			Mul(decimal.NewFromInt(p.Rules.DelinquencyDays))
		row.Surcharge = row.UpdatedValue.Mul(surcharge).Div(hundred)
		row.Total = row.PrimaryCharge.Add(row.Penalty).Add(row.DailyInterest).Add(row.Surcharge)

		schedule.Rows = append(schedule.Rows, row)
		schedule.Totals.Base = schedule.Totals.Base.Add(row.Base)
		schedule.Totals.Updated = schedule.Totals.Updated.Add(row.UpdatedValue)
		schedule.Totals.Total = schedule.Totals.Total.Add(row.Total)
	}
	return schedule
}

// effectiveRates fetches the raw series one period early and reindexes it:
// effective[p] = raw[p−1]. Missing observations and fetch failures both
// settle at zero.
func (p *Projector) effectiveRates(ctx context.Context, start, end Period) map[Period]decimal.Decimal {
	effective := make(map[Period]decimal.Decimal)
	if p.Rates == nil {
		return effective
	}

	observations, err := p.Rates.AnnualizedSeries(ctx, start.Prev(), end)
	if err != nil {
		log.Printf("[Projection] rate fetch failed, proceeding with zero rates: %v", err)
		return effective
	}

	raw := make(map[Period]decimal.Decimal, len(observations))
	for _, obs := range observations {
		raw[obs.Period] = obs.AnnualizedRate
	}
	for period := start; !period.After(end); period = period.Next() {
		if rate, ok := raw[period.Prev()]; ok {
			effective[period] = rate
		}
	}
	return effective
}
