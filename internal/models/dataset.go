package models

import (
	"time"

	"github.com/Dan9191/stress-service/internal/stress"
)

// Dataset is a stored financial snapshot of a company
type Dataset struct {
	ID             string                 `json:"id"`
	UserID         string                 `json:"user_id"`
	UploadID       *string                `json:"upload_id"`
	Name           *string                `json:"name"`
	Revenue        *float64               `json:"revenue"`
	EBITDA         *float64               `json:"ebitda"`
	Debt           *float64               `json:"debt"`
	Cash           *float64               `json:"cash"`
	Equity         *float64               `json:"equity"`
	WorkingCapital *float64               `json:"working_capital"`
	InterestRate   *float64               `json:"interest_rate"`
	MonthlyBurn    *float64               `json:"monthly_burn"`
	RawMetadata    map[string]interface{} `json:"raw_metadata"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// Inputs converts the dataset into engine inputs
func (d *Dataset) Inputs() stress.FinancialInputs {
	return stress.FinancialInputs{
		Revenue:        d.Revenue,
		EBITDA:         d.EBITDA,
		Debt:           d.Debt,
		Cash:           d.Cash,
		Equity:         d.Equity,
		WorkingCapital: d.WorkingCapital,
		InterestRate:   d.InterestRate,
		MonthlyBurn:    d.MonthlyBurn,
	}
}

// DisplayName returns the dataset name or a generic label
func (d *Dataset) DisplayName() string {
	if d.Name == nil || *d.Name == "" {
		return "Company"
	}
	return *d.Name
}
