package dto

import "github.com/shopspring/decimal"

type CreateCustomerRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=120"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

type CustomerResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Phone       *string         `json:"phone"`
	Address     *string         `json:"address"`
	CurrentDebt decimal.Decimal `json:"current_debt"`
}
