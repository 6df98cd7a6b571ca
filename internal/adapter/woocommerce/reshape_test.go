package woocommerce_test

import (
	"encoding/json"
	"testing"

	"github.com/niksmo/storefront/internal/adapter/woocommerce"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePrice(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		amount   string
		currency string
	}{
		{"Plain", "$10.00", "10", "USD"},
		{
			"Markup",
			`<span class="woocommerce-Price-amount amount"><bdi>` +
				`<span class="woocommerce-Price-currencySymbol">&#36;</span>` +
				`1,250.00</bdi></span>`,
			"1250", "USD",
		},
		{"EuroDecimalComma", "€1.250,50", "1250.5", "EUR"},
		{"PoundDecimalComma", "£9,99", "9.99", "GBP"},
		{"YenThousands", "¥1,000", "1000", "JPY"},
		{"RepeatedPeriods", "1.234.567", "1234567", "USD"},
		{"NoSymbol", "12.5", "12.5", "USD"},
		{"Range", "$10.00 - $20.00", "10", "USD"},
		{"Entity", "&euro;&nbsp;5", "5", "EUR"},
		{"SubUnitPeriod", "$0.500", "0.5", "USD"},
		{"SubUnitComma", "€0,750", "0.75", "EUR"},
		{"Empty", "", "0", "USD"},
		{"NoNumber", "free", "0", "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := woocommerce.NormalizePrice(tt.raw)
			want := decimal.RequireFromString(tt.amount)
			assert.True(t, want.Equal(m.Amount), "got %s", m.Amount)
			assert.Equal(t, tt.currency, m.CurrencyCode)
		})
	}

	t.Run("DisplayIsCleanText", func(t *testing.T) {
		m := woocommerce.NormalizePrice(`<bdi>&#36;1,250.00</bdi>`)
		assert.Equal(t, "$1,250.00", m.Display)
	})
}

const variableProductJSON = `{
	"__typename": "VariableProduct",
	"id": "cHJvZHVjdDoxMA==",
	"databaseId": 10,
	"slug": "tee",
	"name": "Tee",
	"price": "$20.00",
	"regularPrice": "$25.00",
	"salePrice": "$20.00",
	"stockStatus": "IN_STOCK",
	"image": null,
	"galleryImages": null,
	"variations": {"nodes": [
		{
			"id": "v1",
			"price": "$18.00",
			"stockStatus": "OUT_OF_STOCK",
			"attributes": {"nodes": [
				{"name": "Color", "value": "Red"},
				{"name": "Size", "value": "M"}
			]}
		},
		{
			"id": "v2",
			"name": "Tee - Blue",
			"attributes": {"nodes": [
				{"name": "Size", "value": "M"},
				{"name": "Color", "value": "Blue"}
			]},
			"image": {"sourceUrl": "https://cdn.test/blue.jpg", "altText": ""}
		}
	]}
}`

func decodeProduct(t *testing.T, raw string) woocommerce.Product {
	t.Helper()
	var p woocommerce.Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestReshapeProduct(t *testing.T) {
	t.Run("Variable", func(t *testing.T) {
		raw := decodeProduct(t, variableProductJSON)

		p, err := woocommerce.ReshapeProduct(raw)
		require.NoError(t, err)

		assert.Equal(t, domain.KindVariable, p.Kind)
		assert.True(t, p.OnSale())
		require.Len(t, p.Variations, len(raw.Variations.Nodes))

		for i, v := range p.Variations {
			var want []domain.AttributeSelection
			for _, a := range raw.Variations.Nodes[i].Attributes.Nodes {
				want = append(want, domain.AttributeSelection{Name: a.Name, Value: a.Value})
			}
			assert.True(t, v.Matches(want))
		}

		red := p.Variations[0]
		assert.Equal(t, "Tee", red.Name)
		assert.True(t, decimal.RequireFromString("18").Equal(red.Price.Amount))
		assert.Equal(t, domain.OutOfStock, red.StockStatus)
		assert.Nil(t, red.Image)

		blue := p.Variations[1]
		assert.Equal(t, "Tee - Blue", blue.Name)
		assert.True(t, decimal.RequireFromString("20").Equal(blue.Price.Amount))
		assert.Equal(t, domain.InStock, blue.StockStatus)
		require.NotNil(t, blue.Image)
		assert.Equal(t, "Tee", blue.Image.AltText)
	})

	t.Run("VariationNotOnSale", func(t *testing.T) {
		raw := decodeProduct(t, `{
			"__typename": "VariableProduct",
			"id": "p2",
			"slug": "hoodie",
			"name": "Hoodie",
			"price": "$8.00",
			"regularPrice": "$20.00",
			"salePrice": "$8.00",
			"variations": {"nodes": [{
				"id": "v1",
				"price": "$20.00",
				"regularPrice": "$20.00",
				"salePrice": null,
				"attributes": {"nodes": [{"name": "Size", "value": "L"}]}
			}, {
				"id": "v2",
				"price": "$15.00",
				"attributes": {"nodes": [{"name": "Size", "value": "S"}]}
			}]}
		}`)

		p, err := woocommerce.ReshapeProduct(raw)
		require.NoError(t, err)
		require.True(t, p.OnSale())
		require.Len(t, p.Variations, 2)

		large := p.Variations[0]
		assert.Nil(t, large.SalePrice)
		assert.True(t, decimal.RequireFromString("20").Equal(large.Price.Amount))
		assert.True(t, decimal.RequireFromString("20").Equal(large.RegularPrice.Amount))

		small := p.Variations[1]
		assert.Nil(t, small.SalePrice)
		assert.True(t, decimal.RequireFromString("15").Equal(small.RegularPrice.Amount))
	})

	t.Run("AbsentOptionalFields", func(t *testing.T) {
		raw := woocommerce.Product{
			Typename: "SimpleProduct",
			ID:       "p1",
			Slug:     "mug",
			Name:     "Mug",
		}

		p, err := woocommerce.ReshapeProduct(raw)
		require.NoError(t, err)

		assert.Equal(t, domain.KindSimple, p.Kind)
		assert.Equal(t, domain.Image{AltText: "Mug"}, p.Image)
		assert.NotNil(t, p.Gallery)
		assert.Empty(t, p.Gallery)
		assert.NotNil(t, p.Variations)
		assert.Nil(t, p.SalePrice)
		assert.True(t, p.Price.IsZero())
		assert.Equal(t, domain.DefaultCurrency, p.Price.CurrencyCode)
		assert.Equal(t, domain.OutOfStock, p.StockStatus)
		assert.True(t, p.Modified.IsZero())
	})

	t.Run("UnknownTypename", func(t *testing.T) {
		p, err := woocommerce.ReshapeProduct(woocommerce.Product{
			Typename: "BundleProduct", ID: "p1", Slug: "bundle",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.KindOther, p.Kind)
	})

	t.Run("MissingSlug", func(t *testing.T) {
		_, err := woocommerce.ReshapeProduct(woocommerce.Product{ID: "p1"})
		require.ErrorIs(t, err, domain.ErrContractViolation)
	})

	t.Run("VariationWithoutID", func(t *testing.T) {
		raw := decodeProduct(t, variableProductJSON)
		raw.Variations.Nodes[1].ID = ""

		_, err := woocommerce.ReshapeProduct(raw)
		require.ErrorIs(t, err, domain.ErrContractViolation)
	})

	t.Run("DuplicateAttributeCombination", func(t *testing.T) {
		raw := decodeProduct(t, variableProductJSON)
		raw.Variations.Nodes[1].Attributes = raw.Variations.Nodes[0].Attributes

		_, err := woocommerce.ReshapeProduct(raw)
		require.ErrorIs(t, err, domain.ErrContractViolation)
	})
}

func TestReshapeCategories(t *testing.T) {
	raws := []*woocommerce.Category{
		{ID: "c0", Slug: "", Name: "Broken"},
		{ID: "c1", Slug: "shoes", Name: "Shoes"},
		{ID: "c2", Slug: "undefined", Name: "Undefined"},
		{ID: "c3", Slug: "uncategorized-misc", Name: "Misc"},
		nil,
	}

	cs, err := woocommerce.ReshapeCategories(raws)
	require.NoError(t, err)
	require.Len(t, cs, 2)

	assert.Equal(t, domain.AllCategory(), cs[0])
	assert.Equal(t, "", cs[0].Slug)
	assert.Equal(t, "/search", cs[0].Path)

	assert.Equal(t, "shoes", cs[1].Slug)
	assert.Equal(t, "/search/shoes", cs[1].Path)
	assert.Nil(t, cs[1].Image)

	t.Run("MissingID", func(t *testing.T) {
		_, err := woocommerce.ReshapeCategories([]*woocommerce.Category{{Slug: "hats"}})
		require.ErrorIs(t, err, domain.ErrContractViolation)
	})
}

const cartJSON = `{
	"contents": {"nodes": [
		{
			"key": "line-a",
			"quantity": 2,
			"subtotal": "<bdi>&#36;40.00</bdi>",
			"total": "$40.00",
			"product": {"node": {"id": "p1", "slug": "tee", "name": "Tee", "price": "$20.00"}},
			"variation": {"node": {"id": "v1", "name": "Tee - Red", "price": "$20.00"}}
		},
		{
			"key": "line-b",
			"quantity": 0,
			"product": {"node": {"id": "p2", "slug": "mug", "name": "Mug"}}
		},
		{
			"key": "line-c",
			"quantity": 1,
			"product": null
		}
	]},
	"subtotal": "$40.00",
	"total": "<span>$43.20</span>",
	"totalTax": "$3.20",
	"shippingTotal": null
}`

func TestReshapeCart(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		s, err := woocommerce.ReshapeCart(nil)
		require.NoError(t, err)
		assert.Equal(t, domain.EmptyCart(), s)
		assert.Equal(t, 0, s.ItemCount())
	})

	t.Run("Lines", func(t *testing.T) {
		var raw woocommerce.Cart
		require.NoError(t, json.Unmarshal([]byte(cartJSON), &raw))

		s, err := woocommerce.ReshapeCart(&raw)
		require.NoError(t, err)

		require.Len(t, s.Lines, 2)
		assert.Equal(t, 3, s.ItemCount())

		a := s.Lines[0]
		assert.Equal(t, "line-a", a.Key)
		assert.Equal(t, "$40.00", a.Subtotal)
		assert.Equal(t, "tee", a.Product.Slug)
		require.NotNil(t, a.Variation)
		assert.Equal(t, "v1", a.Variation.ID)

		c := s.Lines[1]
		assert.Equal(t, "line-c", c.Key)
		assert.Empty(t, c.Product.ID)
		assert.Nil(t, c.Variation)
		assert.Equal(t, "$0", c.Subtotal)

		assert.Equal(t, "$43.20", s.Total)
		assert.Equal(t, "$0", s.ShippingTotal)
		assert.Equal(t, "$0", s.FeeTotal)
	})

	t.Run("LineWithoutKey", func(t *testing.T) {
		raw := woocommerce.Cart{Contents: &woocommerce.Nodes[*woocommerce.CartItem]{
			Nodes: []*woocommerce.CartItem{{Quantity: 1}},
		}}
		_, err := woocommerce.ReshapeCart(&raw)
		require.ErrorIs(t, err, domain.ErrContractViolation)
	})
}
