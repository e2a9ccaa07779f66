package orders

// CreateSalesOrderRequest carries the salesperson-supplied fields of a new
// sales order. Profit fields are always derived server-side.
type CreateSalesOrderRequest struct {
	CustomerName string  `json:"customerName" validate:"required"`
	SP           float64 `json:"SP" validate:"gte=0"`
	CP           float64 `json:"CP" validate:"gte=0"`
}

// UpdateSalesOrderRequest carries a partial update. Status, Profit and
// ProfitPercentage are decoded only so the coordinator can reject attempts
// to set them directly.
type UpdateSalesOrderRequest struct {
	CustomerName *string  `json:"customerName,omitempty"`
	SP           *float64 `json:"SP,omitempty" validate:"omitempty,gte=0"`
	CP           *float64 `json:"CP,omitempty" validate:"omitempty,gte=0"`

	Status           *string  `json:"status,omitempty"`
	Profit           *float64 `json:"profit,omitempty"`
	ProfitPercentage *float64 `json:"profitPercentage,omitempty"`
}

// SetStatusRequest names the target status of a transition request.
type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
