package model

import (
	"sort"
	"strings"
)

// Availability values accepted by the remote catalog.
const (
	AvailabilityInStock          = "in stock"
	AvailabilityOutOfStock       = "out of stock"
	AvailabilityPreorder         = "preorder"
	AvailabilityAvailableToOrder = "available for order"
	AvailabilityDiscontinued     = "discontinued"
)

// Condition values offered by the bulk-upload template.
const (
	ConditionNew         = "New"
	ConditionUsedLikeNew = "Used - Like New"
	ConditionUsedGood    = "Used - Good"
	ConditionUsedFair    = "Used - Fair"
)

// ConditionOptions lists the template conditions in display order.
var ConditionOptions = []string{
	ConditionNew,
	ConditionUsedLikeNew,
	ConditionUsedGood,
	ConditionUsedFair,
}

// Known column names, lowercase.
const (
	ColumnTitle         = "title"
	ColumnPrice         = "price"
	ColumnCondition     = "condition"
	ColumnDescription   = "description"
	ColumnCategory      = "category"
	ColumnOfferShipping = "offer shipping"
)

// KnownColumns maps every canonical column name to itself. Lookups are made
// with NormalizeColumn.
var KnownColumns = map[string]bool{
	ColumnTitle:         true,
	ColumnPrice:         true,
	ColumnCondition:     true,
	ColumnDescription:   true,
	ColumnCategory:      true,
	ColumnOfferShipping: true,
}

// NormalizeColumn returns the comparison form of a header cell.
func NormalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsKnownColumn reports whether name refers to a named listing attribute.
func IsKnownColumn(name string) bool {
	return KnownColumns[NormalizeColumn(name)]
}

// Listing is a single marketplace product listing.
type Listing struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Price         *float64       `json:"price"`
	Condition     string         `json:"condition"`
	Description   string         `json:"description"`
	Category      string         `json:"category"`
	OfferShipping string         `json:"offer_shipping"`
	URL           string         `json:"url,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
	Availability  string         `json:"availability,omitempty"`
	OtherFields   map[string]any `json:"other_fields,omitempty"`
}

// PriceOf returns a pointer to v, for building listings with a set price.
func PriceOf(v float64) *float64 {
	return &v
}

// HasPrice reports whether the price is set.
func (l *Listing) HasPrice() bool {
	return l.Price != nil
}

// PriceValue returns the price, or 0 when unset.
func (l *Listing) PriceValue() float64 {
	if l.Price == nil {
		return 0
	}
	return *l.Price
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	c := *l
	if l.Price != nil {
		p := *l.Price
		c.Price = &p
	}
	if l.OtherFields != nil {
		c.OtherFields = make(map[string]any, len(l.OtherFields))
		for k, v := range l.OtherFields {
			c.OtherFields[k] = v
		}
	}
	return &c
}

// StripKnownFields drops other_fields keys that collide with a known column.
// Returns the number of keys removed.
func (l *Listing) StripKnownFields() int {
	removed := 0
	for k := range l.OtherFields {
		if IsKnownColumn(k) {
			delete(l.OtherFields, k)
			removed++
		}
	}
	if len(l.OtherFields) == 0 {
		l.OtherFields = nil
	}
	return removed
}

// KnownValue returns the value of a known column for export, and whether
// column names a known attribute at all. An unset price exports as 0.
func (l *Listing) KnownValue(column string) (any, bool) {
	switch NormalizeColumn(column) {
	case ColumnTitle:
		return l.Title, true
	case ColumnPrice:
		return l.PriceValue(), true
	case ColumnCondition:
		return l.Condition, true
	case ColumnDescription:
		return l.Description, true
	case ColumnCategory:
		return l.Category, true
	case ColumnOfferShipping:
		return l.OfferShipping, true
	}
	return nil, false
}

// OtherValue resolves column against other_fields, exact key first, then a
// case-insensitive trimmed match.
func (l *Listing) OtherValue(column string) (any, bool) {
	if v, ok := l.OtherFields[column]; ok {
		return v, true
	}
	keys := make([]string, 0, len(l.OtherFields))
	for k := range l.OtherFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	want := NormalizeColumn(column)
	for _, k := range keys {
		if NormalizeColumn(k) == want {
			return l.OtherFields[k], true
		}
	}
	return nil, false
}

// Layout is the remembered shape of the last imported sheet.
type Layout struct {
	HeaderRow     []string `json:"header_row"`
	PreHeaderRows [][]any  `json:"pre_header_rows"`
}

// ListingStatus pairs a listing with its current validation errors.
type ListingStatus struct {
	Listing *Listing          `json:"listing"`
	Valid   bool              `json:"valid"`
	Errors  map[string]string `json:"errors,omitempty"`
}
