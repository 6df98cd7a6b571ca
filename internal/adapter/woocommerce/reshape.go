package woocommerce

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	numberRe = regexp.MustCompile(`\d[\d.,]*`)
)

var currencyBySymbol = map[rune]string{
	'$': "USD",
	'€': "EUR",
	'£': "GBP",
	'¥': "JPY",
}

const modifiedLayout = "2006-01-02T15:04:05"

// NormalizePrice parses an upstream price such as
// `<span class="amount"><bdi>&#36;1,250.00</bdi></span>`.
//
// The first numeric run wins, so a range "$10 - $20" yields 10.
// Absent or unparseable input yields [domain.ZeroMoney].
func NormalizePrice(raw string) domain.Money {
	text := cleanText(raw)
	if text == "" {
		return domain.ZeroMoney()
	}

	num := numberRe.FindString(text)
	if num == "" {
		return domain.ZeroMoney()
	}

	amount, err := decimal.NewFromString(normalizeSeparators(num))
	if err != nil {
		return domain.ZeroMoney()
	}

	return domain.Money{
		Amount:       amount,
		CurrencyCode: currencyCode(text),
		Display:      text,
	}
}

func cleanText(raw string) string {
	s := tagRe.ReplaceAllString(raw, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}

func currencyCode(text string) string {
	for _, r := range text {
		if code, ok := currencyBySymbol[r]; ok {
			return code
		}
	}
	return domain.DefaultCurrency
}

// normalizeSeparators rewrites a numeric run to "1234.56".
//
// With both separators present the rightmost one is decimal. A lone
// separator is a thousands separator when it repeats or is followed
// by exactly three digits, unless the integer part is zero.
func normalizeSeparators(num string) string {
	num = strings.TrimRight(num, ".,")
	dot := strings.LastIndexByte(num, '.')
	comma := strings.LastIndexByte(num, ',')

	if dot >= 0 && comma >= 0 {
		dec := max(dot, comma)
		intPart := strings.NewReplacer(".", "", ",", "").Replace(num[:dec])
		return intPart + "." + num[dec+1:]
	}

	sep, idx := ".", dot
	if comma >= 0 {
		sep, idx = ",", comma
	}
	if idx < 0 {
		return num
	}

	zeroInt := strings.Trim(num[:idx], "0") == ""
	if strings.Count(num, sep) > 1 || (len(num)-idx-1 == 3 && !zeroInt) {
		return strings.ReplaceAll(num, sep, "")
	}
	return strings.Replace(num, sep, ".", 1)
}

func optionalPrice(raw string) *domain.Money {
	if cleanText(raw) == "" {
		return nil
	}
	m := NormalizePrice(raw)
	return &m
}

func stockStatus(raw string) domain.StockStatus {
	switch raw {
	case "IN_STOCK":
		return domain.InStock
	case "ON_BACKORDER":
		return domain.OnBackorder
	default:
		return domain.OutOfStock
	}
}

func productKind(typename string) domain.ProductKind {
	switch typename {
	case "SimpleProduct":
		return domain.KindSimple
	case "VariableProduct":
		return domain.KindVariable
	case "ExternalProduct":
		return domain.KindExternal
	case "GroupProduct":
		return domain.KindGrouped
	default:
		return domain.KindOther
	}
}

func image(m *MediaItem, fallbackAlt string) domain.Image {
	if m == nil {
		return domain.Image{AltText: fallbackAlt}
	}
	alt := m.AltText
	if alt == "" {
		alt = fallbackAlt
	}
	return domain.Image{URL: m.SourceURL, AltText: alt}
}

func optionalImage(m *MediaItem, fallbackAlt string) *domain.Image {
	if m == nil || m.SourceURL == "" {
		return nil
	}
	img := image(m, fallbackAlt)
	return &img
}

func gallery(ns *Nodes[MediaItem], fallbackAlt string) []domain.Image {
	if ns == nil {
		return []domain.Image{}
	}
	out := make([]domain.Image, 0, len(ns.Nodes))
	for i := range ns.Nodes {
		out = append(out, image(&ns.Nodes[i], fallbackAlt))
	}
	return out
}

func parseModified(raw string) time.Time {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	t, _ := time.Parse(modifiedLayout, raw)
	return t
}

// ReshapeProduct converts an upstream product into the catalog model.
//
// It fails only with [domain.ErrContractViolation].
func ReshapeProduct(raw Product) (domain.Product, error) {
	const op = "woocommerce.ReshapeProduct"

	if raw.ID == "" || raw.Slug == "" {
		return domain.Product{}, fmt.Errorf(
			"%s: product %q without id or slug: %w",
			op, raw.Name, domain.ErrContractViolation,
		)
	}

	price := NormalizePrice(raw.Price)
	regular := price
	if cleanText(raw.RegularPrice) != "" {
		regular = NormalizePrice(raw.RegularPrice)
	}

	p := domain.Product{
		ID:               raw.ID,
		Slug:             raw.Slug,
		Name:             raw.Name,
		ShortDescription: raw.ShortDescription,
		Description:      raw.Description,
		Kind:             productKind(raw.Typename),
		Price:            price,
		RegularPrice:     regular,
		SalePrice:        optionalPrice(raw.SalePrice),
		StockStatus:      stockStatus(raw.StockStatus),
		Image:            image(raw.Image, raw.Name),
		Gallery:          gallery(raw.GalleryImages, raw.Name),
		Variations:       []domain.Variation{},
		Modified:         parseModified(raw.Modified),
	}

	if p.Kind != domain.KindVariable || raw.Variations == nil {
		return p, nil
	}

	vs, err := reshapeVariations(p, raw.Variations.Nodes)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	p.Variations = vs
	return p, nil
}

func reshapeVariations(
	parent domain.Product, raws []*Variation,
) ([]domain.Variation, error) {
	vs := make([]domain.Variation, 0, len(raws))
	seen := make(map[string]string, len(raws))

	for _, raw := range raws {
		if raw == nil {
			continue
		}
		if raw.ID == "" {
			return nil, fmt.Errorf(
				"variation of %q without id: %w",
				parent.Slug, domain.ErrContractViolation,
			)
		}

		v := reshapeVariation(parent, *raw)

		key := v.AttributesKey()
		if other, ok := seen[key]; ok {
			return nil, fmt.Errorf(
				"variations %q and %q of %q share attributes %q: %w",
				other, v.ID, parent.Slug, key, domain.ErrContractViolation,
			)
		}
		seen[key] = v.ID
		vs = append(vs, v)
	}
	return vs, nil
}

// reshapeVariation fills absent price and stock fields from the parent.
// The sale price is never inherited: a variation without one is not on sale.
func reshapeVariation(parent domain.Product, raw Variation) domain.Variation {
	v := domain.Variation{
		ID:            raw.ID,
		Name:          raw.Name,
		Price:         parent.Price,
		RegularPrice:  parent.RegularPrice,
		StockStatus:   parent.StockStatus,
		StockQuantity: raw.StockQuantity,
		Image:         optionalImage(raw.Image, parent.Name),
		Attributes:    []domain.AttributeSelection{},
	}

	if v.Name == "" {
		v.Name = parent.Name
	}
	if cleanText(raw.Price) != "" {
		v.Price = NormalizePrice(raw.Price)
		v.RegularPrice = v.Price
	}
	if cleanText(raw.RegularPrice) != "" {
		v.RegularPrice = NormalizePrice(raw.RegularPrice)
	}
	v.SalePrice = optionalPrice(raw.SalePrice)
	if raw.StockStatus != "" {
		v.StockStatus = stockStatus(raw.StockStatus)
	}

	if raw.Attributes != nil {
		for _, a := range raw.Attributes.Nodes {
			v.Attributes = append(v.Attributes, domain.AttributeSelection{
				Name:  a.Name,
				Value: a.Value,
			})
		}
	}
	return v
}

// ReshapeProducts skips null list entries.
func ReshapeProducts(raws []*Product) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(raws))
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		p, err := ReshapeProduct(*raw)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func ReshapeCategory(raw Category) (domain.Category, error) {
	const op = "woocommerce.ReshapeCategory"

	if raw.ID == "" || raw.Slug == "" {
		return domain.Category{}, fmt.Errorf(
			"%s: category %q without id or slug: %w",
			op, raw.Name, domain.ErrContractViolation,
		)
	}

	return domain.Category{
		ID:          raw.ID,
		Slug:        raw.Slug,
		Name:        raw.Name,
		Description: raw.Description,
		Image:       optionalImage(raw.Image, raw.Name),
		Path:        domain.CategoryPath(raw.Slug),
	}, nil
}

// ValidCategorySlug rejects placeholder slugs the upstream emits
// for half configured categories.
func ValidCategorySlug(slug string) bool {
	return slug != "" &&
		slug != "undefined" &&
		!strings.Contains(strings.ToLower(slug), "uncategorized")
}

func reshapeValidCategories(raws []*Category) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(raws))
	for _, raw := range raws {
		if raw == nil || !ValidCategorySlug(raw.Slug) {
			continue
		}
		c, err := ReshapeCategory(*raw)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ReshapeCategories filters placeholder categories
// and prepends [domain.AllCategory].
func ReshapeCategories(raws []*Category) ([]domain.Category, error) {
	cs, err := reshapeValidCategories(raws)
	if err != nil {
		return nil, err
	}
	return append([]domain.Category{domain.AllCategory()}, cs...), nil
}

// ReshapeCart converts the upstream cart. A nil cart is empty.
//
// Lines with quantity below one are not persisted states and are dropped.
func ReshapeCart(raw *Cart) (domain.CartSnapshot, error) {
	const op = "woocommerce.ReshapeCart"

	s := domain.EmptyCart()
	if raw == nil {
		return s, nil
	}

	s.Subtotal = displayAmount(raw.Subtotal)
	s.Total = displayAmount(raw.Total)
	s.TotalTax = displayAmount(raw.TotalTax)
	s.ShippingTotal = displayAmount(raw.ShippingTotal)
	s.DiscountTotal = displayAmount(raw.DiscountTotal)
	s.FeeTotal = displayAmount(raw.FeeTotal)

	if raw.Contents == nil {
		return s, nil
	}

	for _, item := range raw.Contents.Nodes {
		if item == nil {
			continue
		}
		if item.Key == "" {
			return domain.CartSnapshot{}, fmt.Errorf(
				"%s: cart line without key: %w", op, domain.ErrContractViolation,
			)
		}
		if item.Quantity < 1 {
			continue
		}
		s.Lines = append(s.Lines, reshapeCartLine(*item))
	}
	return s, nil
}

func reshapeCartLine(item CartItem) domain.CartLine {
	l := domain.CartLine{
		Key:      item.Key,
		Quantity: item.Quantity,
		Subtotal: displayAmount(item.Subtotal),
		Total:    displayAmount(item.Total),
		Product: domain.ProductSummary{
			Price: domain.ZeroMoney(),
		},
	}

	if item.Product != nil && item.Product.Node != nil {
		n := item.Product.Node
		l.Product = domain.ProductSummary{
			ID:    n.ID,
			Slug:  n.Slug,
			Name:  n.Name,
			Price: NormalizePrice(n.Price),
			Image: image(n.Image, n.Name),
		}
	}

	if item.Variation != nil && item.Variation.Node != nil && item.Variation.Node.ID != "" {
		n := item.Variation.Node
		l.Variation = &domain.VariationSummary{
			ID:    n.ID,
			Name:  n.Name,
			Price: NormalizePrice(n.Price),
			Image: optionalImage(n.Image, n.Name),
		}
	}
	return l
}

func displayAmount(raw string) string {
	if s := cleanText(raw); s != "" {
		return s
	}
	return domain.EmptyDisplayAmount
}
