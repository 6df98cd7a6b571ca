package woocommerce

// Upstream WPGraphQL for WooCommerce response shapes.
//
// Optional scalars decode to their zero value when null or absent.

type Nodes[T any] struct {
	Nodes []T `json:"nodes"`
}

type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type VariationConnection struct {
	PageInfo PageInfo     `json:"pageInfo"`
	Nodes    []*Variation `json:"nodes"`
}

type Edge[T any] struct {
	Node *T `json:"node"`
}

type (
	Product struct {
		Typename         string               `json:"__typename"`
		ID               string               `json:"id"`
		DatabaseID       int                  `json:"databaseId"`
		Slug             string               `json:"slug"`
		Name             string               `json:"name"`
		ShortDescription string               `json:"shortDescription"`
		Description      string               `json:"description"`
		Price            string               `json:"price"`
		RegularPrice     string               `json:"regularPrice"`
		SalePrice        string               `json:"salePrice"`
		StockStatus      string               `json:"stockStatus"`
		Image            *MediaItem           `json:"image"`
		GalleryImages    *Nodes[MediaItem]    `json:"galleryImages"`
		Variations       *VariationConnection `json:"variations"`
		Modified         string               `json:"modified"`
	}

	Variation struct {
		ID            string            `json:"id"`
		DatabaseID    int               `json:"databaseId"`
		Name          string            `json:"name"`
		Price         string            `json:"price"`
		RegularPrice  string            `json:"regularPrice"`
		SalePrice     string            `json:"salePrice"`
		StockStatus   string            `json:"stockStatus"`
		StockQuantity *int              `json:"stockQuantity"`
		Attributes    *Nodes[Attribute] `json:"attributes"`
		Image         *MediaItem        `json:"image"`
	}

	Attribute struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}

	MediaItem struct {
		SourceURL string `json:"sourceUrl"`
		AltText   string `json:"altText"`
	}
)

type Category struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Image       *MediaItem `json:"image"`
	Count       *int       `json:"count"`
}

type (
	Cart struct {
		Contents      *Nodes[*CartItem] `json:"contents"`
		Subtotal      string            `json:"subtotal"`
		Total         string            `json:"total"`
		TotalTax      string            `json:"totalTax"`
		ShippingTotal string            `json:"shippingTotal"`
		DiscountTotal string            `json:"discountTotal"`
		FeeTotal      string            `json:"feeTotal"`
	}

	CartItem struct {
		Key       string           `json:"key"`
		Product   *Edge[Product]   `json:"product"`
		Variation *Edge[Variation] `json:"variation"`
		Quantity  int              `json:"quantity"`
		Subtotal  string           `json:"subtotal"`
		Total     string           `json:"total"`
	}
)
