package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "USD"

// A Money is a price parsed once at the adapter boundary.
//
// Display keeps the cleaned upstream text and is never used for comparisons.
type Money struct {
	Amount       decimal.Decimal
	CurrencyCode string
	Display      string
}

// ZeroMoney is the "price unavailable" value.
func ZeroMoney() Money {
	return Money{Amount: decimal.Zero, CurrencyCode: DefaultCurrency}
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) LessThan(o Money) bool {
	return m.CurrencyCode == o.CurrencyCode && m.Amount.LessThan(o.Amount)
}

type ProductKind int

const (
	KindOther ProductKind = iota
	KindSimple
	KindVariable
	KindExternal
	KindGrouped
)

func (k ProductKind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindVariable:
		return "variable"
	case KindExternal:
		return "external"
	case KindGrouped:
		return "grouped"
	default:
		return "other"
	}
}

type StockStatus string

const (
	InStock     StockStatus = "in_stock"
	OutOfStock  StockStatus = "out_of_stock"
	OnBackorder StockStatus = "on_backorder"
)

type (
	Product struct {
		ID               string
		Slug             string
		Name             string
		ShortDescription string
		Description      string
		Kind             ProductKind
		Price            Money
		RegularPrice     Money
		SalePrice        *Money
		StockStatus      StockStatus
		Image            Image
		Gallery          []Image
		Variations       []Variation
		Modified         time.Time
	}

	Variation struct {
		ID            string
		Name          string
		Price         Money
		RegularPrice  Money
		SalePrice     *Money
		StockStatus   StockStatus
		StockQuantity *int
		Image         *Image
		Attributes    []AttributeSelection
	}

	AttributeSelection struct {
		Name  string
		Value string
	}

	Image struct {
		URL     string
		AltText string
	}
)

func (p Product) AvailableForSale() bool {
	return p.StockStatus == InStock
}

// OnSale reports whether the sale price undercuts the regular price.
func (p Product) OnSale() bool {
	return p.SalePrice != nil && p.SalePrice.LessThan(p.RegularPrice)
}

// FindVariation returns the variation whose attributes equal selection,
// ignoring order.
func (p Product) FindVariation(selection []AttributeSelection) (Variation, bool) {
	for _, v := range p.Variations {
		if v.Matches(selection) {
			return v, true
		}
	}
	return Variation{}, false
}

func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:    p.ID,
		Slug:  p.Slug,
		Name:  p.Name,
		Price: p.Price,
		Image: p.Image,
	}
}

func (v Variation) AvailableForSale() bool {
	return v.StockStatus == InStock
}

func (v Variation) OnSale() bool {
	return v.SalePrice != nil && v.SalePrice.LessThan(v.RegularPrice)
}

// Matches compares attribute sets regardless of order.
func (v Variation) Matches(selection []AttributeSelection) bool {
	if len(v.Attributes) != len(selection) {
		return false
	}
	want := make(map[AttributeSelection]int, len(selection))
	for _, s := range selection {
		want[s]++
	}
	for _, a := range v.Attributes {
		if want[a] == 0 {
			return false
		}
		want[a]--
	}
	return true
}

// AttributesKey identifies the attribute combination of a variation.
func (v Variation) AttributesKey() string {
	return attributesKey(v.Attributes)
}

// ProductSummary is the product shape embedded in cart lines
// and recently viewed entries.
type ProductSummary struct {
	ID    string
	Slug  string
	Name  string
	Price Money
	Image Image
}

type VariationSummary struct {
	ID    string
	Name  string
	Price Money
	Image *Image
}

func attributesKey(attrs []AttributeSelection) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = a.Name + "=" + a.Value
	}
	slices.Sort(parts)
	return strings.Join(parts, "&")
}
