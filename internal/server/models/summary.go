package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Summary is the aggregate portfolio view. Monetary fields are rounded to
// two decimal places by the aggregator.
type Summary struct {
	TotalValue     decimal.Decimal
	TotalPnL       decimal.Decimal
	HoldingsPnL    decimal.Decimal
	PositionsPnL   decimal.Decimal
	HoldingsCount  int
	PositionsCount int
}

type summaryJSON struct {
	TotalValue     json.Number `json:"total_value"`
	TotalPnL       json.Number `json:"total_pnl"`
	HoldingsPnL    json.Number `json:"holdings_pnl"`
	PositionsPnL   json.Number `json:"positions_pnl"`
	HoldingsCount  int         `json:"holdings_count"`
	PositionsCount int         `json:"positions_count"`
}

// MarshalJSON writes monetary fields as plain JSON numbers rather than the
// quoted strings decimal produces by default.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		TotalValue:     json.Number(s.TotalValue.String()),
		TotalPnL:       json.Number(s.TotalPnL.String()),
		HoldingsPnL:    json.Number(s.HoldingsPnL.String()),
		PositionsPnL:   json.Number(s.PositionsPnL.String()),
		HoldingsCount:  s.HoldingsCount,
		PositionsCount: s.PositionsCount,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON; the CLI uses it to read
// summaries back from the API.
func (s *Summary) UnmarshalJSON(b []byte) error {
	var raw summaryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	fields := []struct {
		in  json.Number
		out *decimal.Decimal
	}{
		{raw.TotalValue, &s.TotalValue},
		{raw.TotalPnL, &s.TotalPnL},
		{raw.HoldingsPnL, &s.HoldingsPnL},
		{raw.PositionsPnL, &s.PositionsPnL},
	}
	for _, f := range fields {
		if f.in == "" {
			*f.out = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(f.in.String())
		if err != nil {
			return err
		}
		*f.out = d
	}

	s.HoldingsCount = raw.HoldingsCount
	s.PositionsCount = raw.PositionsCount
	return nil
}
