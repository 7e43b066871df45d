package item

import (
	"fmt"
	"strings"
)

// Item is a catalogue entry. Price and Quantity are pointers so a missing
// form value is distinguishable from zero.
type Item struct {
	ID       int64  `json:"id"`
	ItemName string `json:"itemName"`
	Price    *int   `json:"price"`
	Quantity *int   `json:"quantity"`
}

// Limits.
const (
	MinPrice      = 1_000
	MaxPrice      = 1_000_000
	MaxQuantity   = 9_999
	MinTotalPrice = 10_000
)

// GlobalKey is the Errors key for rules not tied to one field.
const GlobalKey = "globalError"

// Errors maps a field name (or GlobalKey) to a message.
type Errors map[string]string

// HasErrors reports whether any rule failed.
func (e Errors) HasErrors() bool { return len(e) > 0 }

// Fields returns the failing keys, for metrics and logs.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	return out
}

// Validate checks it against the catalogue rules.
//
//   - itemName: required
//   - price: required, MinPrice..MaxPrice
//   - quantity: required, below MaxQuantity
//   - price * quantity: at least MinTotalPrice, checked only when both are present
func Validate(it Item) Errors {
	errs := Errors{}

	if strings.TrimSpace(it.ItemName) == "" {
		errs["itemName"] = "item name is required"
	}
	if it.Price == nil || *it.Price < MinPrice || *it.Price > MaxPrice {
		errs["price"] = fmt.Sprintf("price must be between %d and %d", MinPrice, MaxPrice)
	}
	if it.Quantity == nil || *it.Quantity >= MaxQuantity {
		errs["quantity"] = fmt.Sprintf("quantity must be less than %d", MaxQuantity)
	}

	if it.Price != nil && it.Quantity != nil {
		total := int64(*it.Price) * int64(*it.Quantity)
		if total < MinTotalPrice {
			errs[GlobalKey] = fmt.Sprintf("price * quantity must be at least %d, current value = %d", MinTotalPrice, total)
		}
	}

	return errs
}
