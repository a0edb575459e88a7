// Package pricing fetches priced catalog entries from the paged pricing API.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Categories fetched by default
const (
	CategoryCurrency = "currency"
	CategoryRitual   = "ritual"
)

// PricedItem is one catalog entry as returned by the pricing API
type PricedItem struct {
	Name         string
	CurrentValue decimal.Decimal
	CategoryID   string
}

// ErrDecode marks a page body that could not be understood
var ErrDecode = errors.New("malformed pricing response")

// FetchError is returned when the first page of a category cannot be fetched.
// Failures on later pages truncate the result instead.
type FetchError struct {
	Category string
	Page     int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s page %d: %v", e.Category, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrTruncated marks a listing that stopped before its last page
var ErrTruncated = errors.New("listing truncated")

// TruncatedError is returned together with the items gathered before a page
// after the first one failed.
type TruncatedError struct {
	Category string
	Page     int
	Items    int
	Err      error
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("fetch %s truncated at page %d after %d items: %v", e.Category, e.Page, e.Items, e.Err)
}

func (e *TruncatedError) Unwrap() []error {
	return []error{ErrTruncated, e.Err}
}

// pageEnvelope is the listing response body. Only the fields read here are declared.
type pageEnvelope struct {
	CurrentPage int       `json:"currentPage"`
	Pages       int       `json:"pages"`
	Total       int       `json:"total"`
	Items       []apiItem `json:"items"`
}

type apiItem struct {
	Text          string          `json:"text"`
	CategoryAPIID string          `json:"categoryApiId"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
}

func (i apiItem) toPricedItem(category string) PricedItem {
	categoryID := i.CategoryAPIID
	if categoryID == "" {
		categoryID = category
	}
	return PricedItem{
		Name:         strings.TrimSpace(i.Text),
		CurrentValue: i.CurrentPrice,
		CategoryID:   categoryID,
	}
}
