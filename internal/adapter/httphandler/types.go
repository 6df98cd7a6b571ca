package httphandler

import (
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	Money struct {
		Amount       string `json:"amount"`
		CurrencyCode string `json:"currencyCode"`
		Display      string `json:"display,omitempty"`
	}

	Image struct {
		URL     string `json:"url"`
		AltText string `json:"altText"`
	}

	Attribute struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}

	Variation struct {
		ID               string      `json:"id"`
		Name             string      `json:"name"`
		Price            Money       `json:"price"`
		RegularPrice     Money       `json:"regularPrice"`
		SalePrice        *Money      `json:"salePrice,omitempty"`
		AvailableForSale bool        `json:"availableForSale"`
		StockStatus      string      `json:"stockStatus"`
		StockQuantity    *int        `json:"stockQuantity,omitempty"`
		Image            *Image      `json:"image,omitempty"`
		Attributes       []Attribute `json:"attributes"`
	}

	Product struct {
		ID               string      `json:"id"`
		Slug             string      `json:"slug"`
		Name             string      `json:"name"`
		Kind             string      `json:"kind"`
		ShortDescription string      `json:"shortDescription"`
		Description      string      `json:"description"`
		Price            Money       `json:"price"`
		RegularPrice     Money       `json:"regularPrice"`
		SalePrice        *Money      `json:"salePrice,omitempty"`
		OnSale           bool        `json:"onSale"`
		AvailableForSale bool        `json:"availableForSale"`
		StockStatus      string      `json:"stockStatus"`
		Image            Image       `json:"image"`
		Gallery          []Image     `json:"gallery"`
		Variations       []Variation `json:"variations"`
	}

	Category struct {
		ID          string `json:"id"`
		Slug        string `json:"slug"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Path        string `json:"path"`
		Image       *Image `json:"image,omitempty"`
	}

	CategoryPage struct {
		Category Category  `json:"category"`
		Products []Product `json:"products"`
	}

	SearchResult struct {
		Products   []Product  `json:"products"`
		Categories []Category `json:"categories"`
	}
)

type (
	CartLine struct {
		Key       string    `json:"key"`
		Quantity  int       `json:"quantity"`
		Product   CartItem  `json:"product"`
		Variation *CartItem `json:"variation,omitempty"`
		Subtotal  string    `json:"subtotal"`
		Total     string    `json:"total"`
	}

	CartItem struct {
		ID    string `json:"id"`
		Slug  string `json:"slug,omitempty"`
		Name  string `json:"name"`
		Price Money  `json:"price"`
		Image *Image `json:"image,omitempty"`
	}

	Cart struct {
		Lines         []CartLine `json:"lines"`
		ItemCount     int        `json:"itemCount"`
		Subtotal      string     `json:"subtotal"`
		Total         string     `json:"total"`
		TotalTax      string     `json:"totalTax"`
		ShippingTotal string     `json:"shippingTotal"`
		DiscountTotal string     `json:"discountTotal"`
		FeeTotal      string     `json:"feeTotal"`
		DrawerOpen    bool       `json:"drawerOpen"`
		State         string     `json:"state"`
	}

	AddItemRequest struct {
		ProductID   string `json:"productId"`
		VariationID string `json:"variationId"`
		Quantity    int    `json:"quantity"`
	}

	SetQuantityRequest struct {
		Quantity int `json:"quantity"`
	}

	DrawerRequest struct {
		Open bool `json:"open"`
	}
)

// ViewedProduct is the cookie and response shape of a recently
// viewed entry. ViewedAt is in Unix milliseconds.
type ViewedProduct struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Price    string `json:"price,omitempty"`
	Image    string `json:"image,omitempty"`
	ViewedAt int64  `json:"viewedAt"`
}

type (
	RevalidateRequest struct {
		Type string `json:"type"`
		Slug string `json:"slug"`
	}

	RevalidateResponse struct {
		Revalidated bool   `json:"revalidated"`
		Now         int64  `json:"now,omitempty"`
		Error       string `json:"error,omitempty"`
	}

	ViewCount struct {
		Slug  string `json:"slug"`
		Views int64  `json:"views"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
		Code  string `json:"code,omitempty"`
	}
)

func toMoney(m domain.Money) Money {
	return Money{
		Amount:       m.Amount.String(),
		CurrencyCode: m.CurrencyCode,
		Display:      m.Display,
	}
}

func toMoneyPtr(m *domain.Money) *Money {
	if m == nil {
		return nil
	}
	v := toMoney(*m)
	return &v
}

func toImage(img domain.Image) Image {
	return Image{URL: img.URL, AltText: img.AltText}
}

func toImagePtr(img *domain.Image) *Image {
	if img == nil {
		return nil
	}
	v := toImage(*img)
	return &v
}

func toProduct(p domain.Product) Product {
	out := Product{
		ID:               p.ID,
		Slug:             p.Slug,
		Name:             p.Name,
		Kind:             p.Kind.String(),
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		Price:            toMoney(p.Price),
		RegularPrice:     toMoney(p.RegularPrice),
		SalePrice:        toMoneyPtr(p.SalePrice),
		OnSale:           p.OnSale(),
		AvailableForSale: p.AvailableForSale(),
		StockStatus:      string(p.StockStatus),
		Image:            toImage(p.Image),
		Gallery:          make([]Image, len(p.Gallery)),
		Variations:       make([]Variation, len(p.Variations)),
	}
	for i, img := range p.Gallery {
		out.Gallery[i] = toImage(img)
	}
	for i, v := range p.Variations {
		out.Variations[i] = toVariation(v)
	}
	return out
}

func toProducts(ps []domain.Product) []Product {
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = toProduct(p)
	}
	return out
}

func toVariation(v domain.Variation) Variation {
	out := Variation{
		ID:               v.ID,
		Name:             v.Name,
		Price:            toMoney(v.Price),
		RegularPrice:     toMoney(v.RegularPrice),
		SalePrice:        toMoneyPtr(v.SalePrice),
		AvailableForSale: v.AvailableForSale(),
		StockStatus:      string(v.StockStatus),
		StockQuantity:    v.StockQuantity,
		Image:            toImagePtr(v.Image),
		Attributes:       make([]Attribute, len(v.Attributes)),
	}
	for i, a := range v.Attributes {
		out.Attributes[i] = Attribute{Name: a.Name, Value: a.Value}
	}
	return out
}

func toCategory(c domain.Category) Category {
	return Category{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		Description: c.Description,
		Path:        c.Path,
		Image:       toImagePtr(c.Image),
	}
}

func toCategories(cs []domain.Category) []Category {
	out := make([]Category, len(cs))
	for i, c := range cs {
		out[i] = toCategory(c)
	}
	return out
}

func toCart(s domain.CartSnapshot, drawerOpen bool, state string) Cart {
	out := Cart{
		Lines:         make([]CartLine, len(s.Lines)),
		ItemCount:     s.ItemCount(),
		Subtotal:      s.Subtotal,
		Total:         s.Total,
		TotalTax:      s.TotalTax,
		ShippingTotal: s.ShippingTotal,
		DiscountTotal: s.DiscountTotal,
		FeeTotal:      s.FeeTotal,
		DrawerOpen:    drawerOpen,
		State:         state,
	}
	for i, l := range s.Lines {
		out.Lines[i] = CartLine{
			Key:      l.Key,
			Quantity: l.Quantity,
			Subtotal: l.Subtotal,
			Total:    l.Total,
			Product: CartItem{
				ID:    l.Product.ID,
				Slug:  l.Product.Slug,
				Name:  l.Product.Name,
				Price: toMoney(l.Product.Price),
				Image: toImagePtr(&l.Product.Image),
			},
		}
		if v := l.Variation; v != nil {
			out.Lines[i].Variation = &CartItem{
				ID:    v.ID,
				Name:  v.Name,
				Price: toMoney(v.Price),
				Image: toImagePtr(v.Image),
			}
		}
	}
	return out
}

func toViewed(l domain.RecentlyViewed) []ViewedProduct {
	out := make([]ViewedProduct, len(l))
	for i, p := range l {
		out[i] = ViewedProduct{
			ID:       p.ID,
			Slug:     p.Slug,
			Name:     p.Name,
			Price:    p.Price,
			Image:    p.Image,
			ViewedAt: p.ViewedAt.UnixMilli(),
		}
	}
	return out
}

func fromViewed(vs []ViewedProduct) domain.RecentlyViewed {
	out := make(domain.RecentlyViewed, 0, len(vs))
	for _, v := range vs {
		if v.ID == "" {
			continue
		}
		out = append(out, domain.ViewedProduct{
			ID:       v.ID,
			Slug:     v.Slug,
			Name:     v.Name,
			Price:    v.Price,
			Image:    v.Image,
			ViewedAt: time.UnixMilli(v.ViewedAt),
		})
	}
	return out
}
