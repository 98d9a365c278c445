// Package catalog pushes listings to the marketplace product catalog through
// the Graph items_batch endpoint.
package catalog

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"marketplace-bulk-api/internal/model"
)

// Limits of a single items_batch call.
const (
	MaxItemsPerBatch = 5000
	MaxBatchBytes    = 30 * 1024 * 1024
	Currency         = "USD"
)

// Product is the catalog item payload.
type Product struct {
	RetailerID   string `json:"retailer_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	Availability string `json:"availability"`
	Condition    string `json:"condition"`
	URL          string `json:"url"`
	ImageURL     string `json:"image_url"`
	Brand        string `json:"brand,omitempty"`
}

// BatchRequest is one entry of an items_batch request body.
type BatchRequest struct {
	Method     string   `json:"method"`
	RetailerID string   `json:"retailer_id"`
	Data       *Product `json:"data,omitempty"`
}

// BatchResponse is the items_batch reply.
type BatchResponse struct {
	Handles          []string           `json:"handles"`
	ValidationStatus []ValidationStatus `json:"validation_status"`
}

// ValidationStatus reports remote validation of one item.
type ValidationStatus struct {
	RetailerID string      `json:"retailer_id"`
	Errors     []ItemIssue `json:"errors"`
	Warnings   []ItemIssue `json:"warnings"`
}

// ItemIssue is a remote validation error or warning.
type ItemIssue struct {
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

// Catalog is a product catalog owned by the authenticated user.
type Catalog struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProductCount int    `json:"product_count,omitempty"`
}

var whitespace = regexp.MustCompile(`\s+`)

// ToProduct maps a listing onto the catalog payload. Title and description
// are clipped to the marketplace limits.
func ToProduct(l *model.Listing) *Product {
	availability := l.Availability
	if availability == "" {
		availability = model.AvailabilityInStock
	}

	p := &Product{
		RetailerID:   l.ID,
		Title:        clip(l.Title, model.TitleMaxLength),
		Description:  clip(l.Description, model.DescriptionMaxLength),
		Price:        FormatPrice(l.PriceValue()),
		Availability: availability,
		Condition:    whitespace.ReplaceAllString(strings.ToLower(l.Condition), "_"),
		URL:          l.URL,
		ImageURL:     l.ImageURL,
	}
	if brand, ok := l.OtherFields["brand"].(string); ok {
		p.Brand = brand
	}
	return p
}

// FormatPrice renders an amount the way the catalog expects, e.g. "12.5 USD".
func FormatPrice(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64) + " " + Currency
}

// NewCreateRequest wraps a listing in a CREATE batch entry.
func NewCreateRequest(l *model.Listing) BatchRequest {
	return BatchRequest{
		Method:     "CREATE",
		RetailerID: l.ID,
		Data:       ToProduct(l),
	}
}

// EstimateSize returns the encoded size of a listing's batch entry in bytes.
func EstimateSize(l *model.Listing) int {
	b, err := json.Marshal(NewCreateRequest(l))
	if err != nil {
		return 0
	}
	return len(b)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
