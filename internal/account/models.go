// Package account is the read model behind the conversation's balance side
// query. The full accounts CRUD lives in another service; the assistant only
// needs "does this user have an account, and what is its balance".
package account

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the slice of the accounts table the assistant reads.
type Account struct {
	AccountNo  string
	CustomerID uuid.UUID
	Balance    decimal.Decimal
	Status     string
}
