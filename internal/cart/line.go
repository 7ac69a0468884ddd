package cart

import (
	"fmt"
	"strings"
	"unicode"

	pkgerrors "github.com/arjunnair/tiffinbox-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// FallbackCategory is applied when a stored or aggregated line carries no
// category. DraftFallbackCategory is the distinct fallback used when a cart is
// expanded into order draft rows. The two values intentionally differ; the
// totals path and the draft path evolved independently and downstream account
// routing depends on both.
const (
	FallbackCategory      = "default"
	DraftFallbackCategory = "snacks"
)

// Line is a single cart entry. Identity for merging is (ItemID, Size).
type Line struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Size     string `json:"size"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	ImageURL string `json:"image,omitempty"`
	Category string `json:"category,omitempty"`
}

// Key returns the merge identity of the line.
func (l Line) Key() string {
	return l.ItemID + "|" + l.Size
}

func (l Line) validate() error {
	if strings.TrimSpace(l.ItemID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart line item id is required")
	}
	if l.Quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart line quantity must be at least 1")
	}
	if _, err := ParsePrice(l.Price); err != nil {
		return err
	}
	return nil
}

// ParsePrice converts a display price such as "₹40" or "35.50" into a decimal
// amount. Exactly one leading currency glyph is stripped before parsing.
// Malformed prices are a defect and surface as validation errors rather than
// being coerced to zero.
func ParsePrice(display string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(display)
	if trimmed == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price is required")
	}

	runes := []rune(trimmed)
	if unicode.IsSymbol(runes[0]) || unicode.Is(unicode.Sc, runes[0]) {
		trimmed = strings.TrimSpace(string(runes[1:]))
	}

	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("malformed price %q", display))
	}
	return amount, nil
}

// normalizeLoaded back-fills the category on lines read from storage so later
// total computations always see a populated field.
func normalizeLoaded(lines []Line) []Line {
	for i := range lines {
		if strings.TrimSpace(lines[i].Category) == "" {
			lines[i].Category = FallbackCategory
		}
	}
	return lines
}
