package models

import "time"

// SupplyCheck is the outcome of comparing expected students against a classroom's chairs.
type SupplyCheck struct {
	ClassroomID   int64        `json:"classroom_id"`
	ClassroomName string       `json:"classroom_name"`
	Expected      int          `json:"expected"`
	Capacity      int          `json:"capacity"`
	Shortfall     int          `json:"shortfall"`
	Order         *SupplyOrder `json:"order,omitempty"`
}

// SupplyOrder is a generated request to the supplier for missing chairs.
type SupplyOrder struct {
	Reference string    `json:"reference"`
	Quantity  int       `json:"quantity"`
	TextFile  string    `json:"text_file"`
	PDFFile   string    `json:"pdf_file"`
	IssuedAt  time.Time `json:"issued_at"`
}
