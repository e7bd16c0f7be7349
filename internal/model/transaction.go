package model

import "time"

// DefaultCategory is used for transactions recorded without a category.
const DefaultCategory = "Other"

// Transaction is a single spend event.
type Transaction struct {
	ID        string
	UserID    string
	Amount    float64
	Category  string
	Note      string
	CreatedAt time.Time
}

// TransactionInput is a new spend event before it has been stored.
type TransactionInput struct {
	Amount   float64
	Category string
	Note     string
	At       time.Time // zero means now
}

// CategoryShare is one row of a category breakdown.
type CategoryShare struct {
	Category   string
	Amount     float64
	Percentage float64
}
