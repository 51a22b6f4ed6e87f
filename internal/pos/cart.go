package pos

import (
	"fmt"
	"strings"

	"github.com/sahar-erp/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Line is one cart entry. Price and name are captured when the item is added.
type Line struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int32           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Note       string          `json:"note"`
}

// Cart is the ordered list of lines being composed at a register.
// Adding the same item twice yields two lines.
type Cart []Line

// AddLine appends a line for item at its effective price. Unavailable items
// are refused and the cart is left unchanged.
func (c *Cart) AddLine(item CatalogItem, note string) (Line, bool) {
	if !item.IsAvailable {
		return Line{}, false
	}
	line := Line{
		MenuItemID: item.ID,
		Name:       item.NameLocal,
		Quantity:   1,
		UnitPrice:  item.EffectivePrice(),
		Note:       note,
	}
	*c = append(*c, line)
	return line, true
}

// RemoveLine drops the line at index. Out-of-range indexes are ignored.
func (c *Cart) RemoveLine(index int) bool {
	if index < 0 || index >= len(*c) {
		return false
	}
	*c = append((*c)[:index:index], (*c)[index+1:]...)
	return true
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity)))
	}
	return total
}

// Summary renders the cart as "{qty}x {name} {note}" entries joined by ", ".
func (c Cart) Summary() string {
	parts := make([]string, len(c))
	for i, l := range c {
		parts[i] = fmt.Sprintf("%dx %s %s", l.Quantity, l.Name, l.Note)
	}
	return strings.Join(parts, ", ")
}

func (c Cart) clone() Cart {
	if c == nil {
		return Cart{}
	}
	return append(Cart(nil), c...)
}

// BuildNote formats the customization captured at the register: the sugar
// level in parentheses followed by any free text. An empty level means Medium.
func BuildNote(sugar, text string) string {
	if sugar == "" {
		sugar = enum.SugarMedium
	}
	note := "(Sugar: " + sugar + ")"
	if text = strings.TrimSpace(text); text != "" {
		note += " " + text
	}
	return note
}
