package services

import (
	"github.com/dmitrijs2005/kitekeeper/internal/kite"
	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
	"github.com/shopspring/decimal"
)

// Summarize aggregates holdings and net positions:
//
//	total_value   = Σ last_price × quantity
//	holdings_pnl  = Σ (last_price − average_price) × quantity
//	positions_pnl = Σ pnl
//	total_pnl     = holdings_pnl + positions_pnl
//
// Money is rounded half away from zero to 2 places at the end. Empty input
// gives an all-zero summary.
func Summarize(holdings []kite.Holding, netPositions []kite.Position) models.Summary {
	totalValue := decimal.Zero
	holdingsPnL := decimal.Zero
	for _, h := range holdings {
		qty := decimal.NewFromFloat(h.Quantity)
		current := decimal.NewFromFloat(h.LastPrice).Mul(qty)
		invested := decimal.NewFromFloat(h.AveragePrice).Mul(qty)

		totalValue = totalValue.Add(current)
		holdingsPnL = holdingsPnL.Add(current.Sub(invested))
	}

	positionsPnL := decimal.Zero
	for _, p := range netPositions {
		positionsPnL = positionsPnL.Add(decimal.NewFromFloat(p.PnL))
	}

	return models.Summary{
		TotalValue:     totalValue.Round(2),
		TotalPnL:       holdingsPnL.Add(positionsPnL).Round(2),
		HoldingsPnL:    holdingsPnL.Round(2),
		PositionsPnL:   positionsPnL.Round(2),
		HoldingsCount:  len(holdings),
		PositionsCount: len(netPositions),
	}
}
