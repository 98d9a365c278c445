package model

import (
	"math"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Field limits enforced by the marketplace.
const (
	TitleMinLength       = 5
	TitleMaxLength       = 150
	DescriptionMaxLength = 5000
)

// Validation messages, keyed by field in the map returned from Validate.
const (
	MsgTitleRequired       = "Title is required"
	MsgTitleTooShort       = "Title is too short (min 5 chars)"
	MsgTitleTooLong        = "Title is too long (max 150 chars for Facebook)"
	MsgPriceRequired       = "Price is required"
	MsgPriceNegative       = "Price cannot be negative"
	MsgCategoryRequired    = "Category is required"
	MsgDescriptionRequired = "Description is required"
	MsgDescriptionTooLong  = "Description is too long (max 5000 chars for Facebook)"
	MsgInvalidURL          = "Invalid URL format"
	MsgInvalidImageURL     = "Invalid image URL format"
)

// Validate checks a listing against every field rule and returns the
// failures keyed by JSON field name. An empty map means the listing can be
// exported.
func Validate(l *Listing) map[string]string {
	errs := make(map[string]string)

	title := strings.TrimSpace(l.Title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		errs["title"] = MsgTitleRequired
	case n < TitleMinLength:
		errs["title"] = MsgTitleTooShort
	case n > TitleMaxLength:
		errs["title"] = MsgTitleTooLong
	}

	switch {
	case l.Price == nil || math.IsNaN(*l.Price):
		errs["price"] = MsgPriceRequired
	case *l.Price < 0:
		errs["price"] = MsgPriceNegative
	}

	if strings.TrimSpace(l.Category) == "" {
		errs["category"] = MsgCategoryRequired
	}

	// Length is measured on the raw text, matching what gets uploaded.
	desc := l.Description
	if strings.TrimSpace(desc) == "" {
		errs["description"] = MsgDescriptionRequired
	} else if utf8.RuneCountInString(desc) > DescriptionMaxLength {
		errs["description"] = MsgDescriptionTooLong
	}

	if strings.TrimSpace(l.URL) != "" && !IsAbsoluteURL(l.URL) {
		errs["url"] = MsgInvalidURL
	}
	if strings.TrimSpace(l.ImageURL) != "" && !IsAbsoluteURL(l.ImageURL) {
		errs["image_url"] = MsgInvalidImageURL
	}

	return errs
}

// IsValid reports whether Validate finds no errors.
func IsValid(l *Listing) bool {
	return len(Validate(l)) == 0
}

// IsAbsoluteURL reports whether s parses as an absolute URL with a host.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
