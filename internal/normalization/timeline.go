// Package normalization merges raw observation series into the unified daily
// timeline consumed by the analysis pipeline.
package normalization

import (
	"errors"

	"flr-tracker/internal/domain"
)

// Unit conversion into billions.
const (
	Millions = 1000.0
	Billions = 1.0
)

// ErrNoPriceData is returned when the price series is empty.
var ErrNoPriceData = errors.New("no price data available")

// Inputs groups the raw observations of one timeline by role.
// Balance sheet, TGA and reserves are in millions; RRP is in billions.
type Inputs struct {
	Price        []domain.Observation
	BalanceSheet []domain.Observation
	TGA          []domain.Observation
	RRP          []domain.Observation
	Reserves     []domain.Observation
	Aux          map[string][]domain.Observation // optional columns, native units

	HighYieldSpread  []domain.Observation
	InvestmentSpread []domain.Observation
	FundingSpread    []domain.Observation
}

// BuildTimeline produces one row per price observation with every liquidity
// component forward filled onto the price date.
// net_liquidity = balance_sheet - tga - rrp. Rows before all three components
// have been observed are dropped.
func BuildTimeline(in Inputs) ([]domain.TimelineRow, error) {
	if len(in.Price) == 0 {
		return nil, ErrNoPriceData
	}

	price := sortedCopy(in.Price)
	bs := newFiller(in.BalanceSheet, Millions)
	tga := newFiller(in.TGA, Millions)
	rrp := newFiller(in.RRP, Billions)
	reserves := newFiller(in.Reserves, Millions)

	aux := make(map[string]*filler, len(in.Aux))
	for name, obs := range in.Aux {
		aux[name] = newFiller(obs, 1)
	}

	rows := make([]domain.TimelineRow, 0, len(price))
	for _, p := range price {
		ts := p.TimestampMs
		b, t, r := bs.at(ts), tga.at(ts), rrp.at(ts)
		res := reserves.at(ts)

		var auxValues map[string]*float64
		if len(aux) > 0 {
			auxValues = make(map[string]*float64, len(aux))
			for name, f := range aux {
				auxValues[name] = f.at(ts)
			}
		}

		if b == nil || t == nil || r == nil {
			continue
		}

		// Same-day duplicates keep the last price.
		if n := len(rows); n > 0 && rows[n-1].TimestampMs == ts {
			rows[n-1].Price = p.Value
			continue
		}

		rows = append(rows, domain.TimelineRow{
			TimestampMs:  ts,
			Price:        p.Value,
			BalanceSheet: *b,
			TGA:          *t,
			RRP:          *r,
			Reserves:     res,
			NetLiquidity: *b - *t - *r,
			Aux:          auxValues,
		})
	}

	return rows, nil
}

// PriceSeries extracts the engine input from timeline rows.
func PriceSeries(id string, rows []domain.TimelineRow) domain.PriceSeries {
	s := domain.PriceSeries{
		ID:         id,
		Timestamps: make([]int64, len(rows)),
		Values:     make([]float64, len(rows)),
	}
	for i, r := range rows {
		s.Timestamps[i] = r.TimestampMs
		s.Values[i] = r.Price
	}
	return s
}

// Snapshot returns the liquidity input of the regime scorer at the last row,
// or nil when rows is empty. Credit spreads are taken at or before that date.
func Snapshot(rows []domain.TimelineRow, in Inputs) *domain.LiquiditySnapshot {
	if len(rows) == 0 {
		return nil
	}
	last := rows[len(rows)-1]
	snap := &domain.LiquiditySnapshot{NetLiquidity: last.NetLiquidity}

	hy := creditAt(last.TimestampMs, in.HighYieldSpread)
	ig := creditAt(last.TimestampMs, in.InvestmentSpread)
	fs := creditAt(last.TimestampMs, in.FundingSpread)
	if hy != nil || ig != nil || fs != nil {
		snap.Credit = &domain.CreditStress{
			HighYieldSpread:  hy,
			InvestmentSpread: ig,
			FundingSpread:    fs,
		}
	}
	return snap
}

func creditAt(ts int64, obs []domain.Observation) *float64 {
	v, err := ValueAt(ts, sortedCopy(obs))
	if err != nil {
		return nil
	}
	return v
}
