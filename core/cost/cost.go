package cost

import "fmt"

// ToolMetrics holds the cost and quality metadata of one tool execution.
//
// Example:
//
//	metrics := cost.ToolMetrics{
//	    Amount:                  0.0,
//	    Currency:                "USD",
//	    CostDescription:         "local HTML parsing",
//	    Accuracy:                0.95,
//	    AverageDurationInMillis: 400,
//	}
type ToolMetrics struct {
	// Amount is the price of a single call
	Amount float64 `json:"amount"`

	// Currency of Amount; "USD" when empty
	Currency string `json:"currency,omitempty"`

	// CostDescription says what the amount pays for (e.g. "local HTTP request")
	CostDescription string `json:"cost_description,omitempty"`

	// Accuracy is a 0..1 reliability estimate
	Accuracy float64 `json:"accuracy,omitempty"`

	// AverageDurationInMillis is the expected wall-clock time of one call
	AverageDurationInMillis int64 `json:"average_duration_ms,omitempty"`
}

// String returns the cost as "<amount> <currency>", followed by the description in parentheses.
func (m ToolMetrics) String() string {
	currency := m.Currency
	if currency == "" {
		currency = "USD"
	}

	result := fmt.Sprintf("%.6f %s", m.Amount, currency)
	if m.CostDescription != "" {
		result = fmt.Sprintf("%s (%s)", result, m.CostDescription)
	}
	return result
}
