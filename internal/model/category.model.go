package model

// IncomeCategory maps a payment type to a GL code.
type IncomeCategory struct {
	ID          int64  `json:"id"`
	GLCode      string `json:"gl_code"`
	Name        string `json:"name"`
	PaymentType string `json:"payment_type,omitempty"`
	Active      bool   `json:"active"`
}

type ExpenseCategory struct {
	ID     int64  `json:"id"`
	GLCode string `json:"gl_code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
