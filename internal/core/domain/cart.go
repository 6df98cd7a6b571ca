package domain

// EmptyDisplayAmount is shown when the upstream omits a cart total.
const EmptyDisplayAmount = "$0"

// A CartSnapshot is the complete cart state as returned by the upstream.
//
// Totals are preformatted by the upstream and treated as display text.
type CartSnapshot struct {
	Lines         []CartLine
	Subtotal      string
	Total         string
	TotalTax      string
	ShippingTotal string
	DiscountTotal string
	FeeTotal      string
}

type CartLine struct {
	Key       string
	Product   ProductSummary
	Variation *VariationSummary
	Quantity  int
	Subtotal  string
	Total     string
}

// EmptyCart is the snapshot of a cart without lines.
func EmptyCart() CartSnapshot {
	return CartSnapshot{
		Lines:         []CartLine{},
		Subtotal:      EmptyDisplayAmount,
		Total:         EmptyDisplayAmount,
		TotalTax:      EmptyDisplayAmount,
		ShippingTotal: EmptyDisplayAmount,
		DiscountTotal: EmptyDisplayAmount,
		FeeTotal:      EmptyDisplayAmount,
	}
}

// ItemCount sums line quantities. A nil snapshot counts as empty.
func (s *CartSnapshot) ItemCount() int {
	if s == nil {
		return 0
	}
	var n int
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

func (s *CartSnapshot) Line(key string) (CartLine, bool) {
	if s == nil {
		return CartLine{}, false
	}
	for _, l := range s.Lines {
		if l.Key == key {
			return l, true
		}
	}
	return CartLine{}, false
}

// LineQuantity targets one cart line in an update request.
type LineQuantity struct {
	Key      string
	Quantity int
}

// AddToCart is an add request with identifiers already decoded
// to upstream database IDs. VariationID is zero for simple products.
type AddToCart struct {
	ProductID   int
	VariationID int
	Quantity    int
}
