package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

const (
	minCategoryNameLen = 2
	maxCategoryNameLen = 60
	maxDescriptionLen  = 500
	minDiscount        = 1
	maxDiscount        = 100
)

var couponCodePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

// CategoryRequest creates or updates a category.
type CategoryRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate trims fields in place and checks lengths.
func (r *CategoryRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	n := utf8.RuneCountInString(r.Name)
	if n < minCategoryNameLen || n > maxCategoryNameLen {
		return apperrors.ValidationField("name", "name must be between 2 and 60 characters")
	}
	if utf8.RuneCountInString(r.Description) > maxDescriptionLen {
		return apperrors.ValidationField("description", "description cannot exceed 500 characters")
	}
	return nil
}

// CouponRequest creates or updates a coupon.
type CouponRequest struct {
	ID              string    `json:"id,omitempty"`
	Code            string    `json:"code"`
	DiscountPercent int       `json:"discount"`
	ExpiresAt       time.Time `json:"expiryDate"`
}

// Validate upper-cases the code and checks it against now.
func (r *CouponRequest) Validate(now time.Time) error {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	if !couponCodePattern.MatchString(r.Code) {
		return apperrors.ValidationField("code",
			"code must be 3-32 characters of A-Z, 0-9, underscore or hyphen")
	}
	if r.DiscountPercent < minDiscount || r.DiscountPercent > maxDiscount {
		return apperrors.ValidationField("discount", "discount must be between 1 and 100 percent")
	}
	if r.ExpiresAt.IsZero() || !r.ExpiresAt.After(now) {
		return apperrors.ValidationField("expiryDate", "expiry date must be in the future")
	}
	return nil
}
