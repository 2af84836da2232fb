// Package accounting implements the portfolio state-transition logic:
// applying a validated transaction to a portfolio snapshot using
// average-cost-basis accounting.
package accounting

import (
	"fmt"
	"time"

	"github.com/portfolio-service/internal/models"
	"github.com/portfolio-service/internal/types"
	"github.com/shopspring/decimal"
)

// Apply applies a transaction to a portfolio snapshot and returns the updated
// snapshot. The input portfolio is never mutated; nil means the user has no
// portfolio yet and a zero-value one is initialized for them.
//
// Persistence is the caller's responsibility and must happen only after a
// successful apply.
func Apply(portfolio *models.Portfolio, tx *models.Transaction) (*models.Portfolio, error) {
	now := time.Now().UTC()

	var p *models.Portfolio
	if portfolio == nil {
		p = models.NewPortfolio(tx.UserID, now)
	} else {
		p = portfolio.Clone()
	}

	amount := tx.Amount()

	switch tx.Action {
	case types.ActionTransfer:
		// Cash deposit: symbol and instrument type do not affect holdings.
		p.CashBalance = p.CashBalance.Add(amount)
		p.TotalMoneyIn = p.TotalMoneyIn.Add(amount)

	case types.ActionBuy:
		p.CashBalance = p.CashBalance.Sub(amount)
		i := p.FindHolding(tx.Symbol)
		if i < 0 {
			p.Holdings = append(p.Holdings, models.Holding{
				Symbol:         tx.Symbol,
				Shares:         0,
				InstrumentType: tx.InstrumentType,
				TotalCost:      decimal.Zero,
			})
			i = len(p.Holdings) - 1
		}
		p.Holdings[i].Shares += tx.Quantity
		p.Holdings[i].TotalCost = p.Holdings[i].TotalCost.Add(amount)

	case types.ActionSell:
		i := p.FindHolding(tx.Symbol)
		if i < 0 {
			return nil, &types.ServiceError{
				Code:    types.CodeInsufficientHoldings,
				Message: fmt.Sprintf("no holding of %s to sell", tx.Symbol),
				Details: map[string]interface{}{"symbol": tx.Symbol},
			}
		}
		h := &p.Holdings[i]
		if tx.Quantity > h.Shares {
			// Over-selling is rejected outright so a share count can never
			// go negative, even transiently.
			return nil, &types.ServiceError{
				Code:    types.CodeInsufficientHoldings,
				Message: fmt.Sprintf("cannot sell %d shares of %s: only %d held", tx.Quantity, tx.Symbol, h.Shares),
				Details: map[string]interface{}{"symbol": tx.Symbol, "held": h.Shares},
			}
		}

		p.CashBalance = p.CashBalance.Add(amount)
		priorShares := h.Shares
		h.Shares -= tx.Quantity
		if h.Shares > 0 {
			// Remove cost proportionally so the average cost per share of
			// what remains is unchanged.
			avgCost := h.TotalCost.Div(decimal.NewFromInt(priorShares))
			h.TotalCost = h.TotalCost.Sub(avgCost.Mul(decimal.NewFromInt(tx.Quantity)))
		} else {
			h.TotalCost = decimal.Zero
			p.RemoveHolding(i)
		}

	default:
		return nil, &types.ServiceError{
			Code:    types.CodeInvalidInput,
			Message: fmt.Sprintf("unknown action: %s", tx.Action),
		}
	}

	p.UpdatedAt = now
	return p, nil
}
