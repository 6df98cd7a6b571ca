package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

// ProductViewSchemaTextV1 keeps the price amount as text
// to avoid float rounding.
const ProductViewSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "product_view",
	"fields": [
		{"name": "visitor_id", "type": "string"},
		{"name": "product_id", "type": "string"},
		{"name": "slug", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "price_amount", "type": "string"},
		{"name": "currency_code", "type": "string"},
		{"name": "viewed_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type ProductViewV1 struct {
	VisitorID    string    `avro:"visitor_id"`
	ProductID    string    `avro:"product_id"`
	Slug         string    `avro:"slug"`
	Name         string    `avro:"name"`
	PriceAmount  string    `avro:"price_amount"`
	CurrencyCode string    `avro:"currency_code"`
	ViewedAt     time.Time `avro:"viewed_at"`
}

// ProductViewV1Avro panics on an invalid schema text.
func ProductViewV1Avro() avro.Schema {
	return avro.MustParse(ProductViewSchemaTextV1)
}
