package types

// OrderItem is a single purchased line inside an order. Stored as jsonb on
// the order row; orders are settled as a whole, never per item.
type OrderItem struct {
	ItemID    string  `json:"item_id"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
}
