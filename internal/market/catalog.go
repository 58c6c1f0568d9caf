package market

import (
	"slices"
	"strings"

	"marketgateway/internal/config"
)

const (
	CategoryStocks = "stocks"
	CategoryETFs   = "etfs"
	CategoryBonds  = "bonds"
)

// Catalog maps a price-list category to its fixed symbol list.
// Unknown categories resolve to stocks.
type Catalog struct {
	lists map[string][]string
}

func NewCatalog(cfg config.Catalog) Catalog {
	return Catalog{lists: map[string][]string{
		CategoryStocks: slices.Clone(cfg.Stocks),
		CategoryETFs:   slices.Clone(cfg.ETFs),
		CategoryBonds:  slices.Clone(cfg.Bonds),
	}}
}

// Symbols returns a copy of the category's symbols; matching ignores case.
func (c Catalog) Symbols(category string) []string {
	if list, ok := c.lists[strings.ToLower(strings.TrimSpace(category))]; ok {
		return slices.Clone(list)
	}
	return slices.Clone(c.lists[CategoryStocks])
}
