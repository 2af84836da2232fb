// Package types defines shared types used across the portfolio service.
package types

import "fmt"

// ActionType represents the kind of transaction applied to a portfolio
type ActionType string

const (
	ActionBuy      ActionType = "BUY"
	ActionSell     ActionType = "SELL"
	ActionTransfer ActionType = "TRANSFER"
)

// Wire codes for actions. The enumeration is closed: any other code is a
// validation error at the transport boundary.
const (
	ActionCodeBuy      = 1
	ActionCodeSell     = 2
	ActionCodeTransfer = 3
)

// ActionFromCode maps a numeric wire code to an ActionType
func ActionFromCode(code int) (ActionType, error) {
	switch code {
	case ActionCodeBuy:
		return ActionBuy, nil
	case ActionCodeSell:
		return ActionSell, nil
	case ActionCodeTransfer:
		return ActionTransfer, nil
	default:
		return "", fmt.Errorf("invalid action code: %d (must be 1=BUY, 2=SELL, 3=TRANSFER)", code)
	}
}

// Valid reports whether the action is one of the known values
func (a ActionType) Valid() bool {
	return a == ActionBuy || a == ActionSell || a == ActionTransfer
}

// InstrumentType represents the kind of instrument a holding refers to.
// It determines which quote field supplies the live price.
type InstrumentType string

const (
	InstrumentStock InstrumentType = "STOCK"
	InstrumentETF   InstrumentType = "ETF"
)

// Wire codes for instrument types
const (
	InstrumentCodeStock = 1
	InstrumentCodeETF   = 2
)

// InstrumentFromCode maps a numeric wire code to an InstrumentType
func InstrumentFromCode(code int) (InstrumentType, error) {
	switch code {
	case InstrumentCodeStock:
		return InstrumentStock, nil
	case InstrumentCodeETF:
		return InstrumentETF, nil
	default:
		return "", fmt.Errorf("invalid instrument code: %d (must be 1=STOCK, 2=ETF)", code)
	}
}

// Valid reports whether the instrument type is one of the known values
func (i InstrumentType) Valid() bool {
	return i == InstrumentStock || i == InstrumentETF
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Well-known service error codes
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeInsufficientHoldings = "INSUFFICIENT_HOLDINGS"
	CodePortfolioNotFound    = "PORTFOLIO_NOT_FOUND"
)
