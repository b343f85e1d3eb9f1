package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

func TestParseEntityKind(t *testing.T) {
	k, err := ParseEntityKind(" Learners ")
	require.NoError(t, err)
	assert.Equal(t, EntityLearners, k)
	assert.Equal(t, "learner", k.Singular())
	assert.Equal(t, "business", EntityBusinesses.Singular())
	assert.Equal(t, "category", EntityCategories.Singular())
	assert.Equal(t, "course", EntityCourses.Singular())

	_, err = ParseEntityKind("admins")
	assert.True(t, apperrors.IsValidation(err))
}

func TestParseStatusFilter(t *testing.T) {
	f, err := ParseStatusFilter("")
	require.NoError(t, err)
	assert.Equal(t, StatusAll, f)

	f, err = ParseStatusFilter("BLOCKED")
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, f)

	_, err = ParseStatusFilter("deleted")
	assert.True(t, apperrors.IsValidation(err))
}

func TestParseVerificationStatus(t *testing.T) {
	v, err := ParseVerificationStatus("Under Review")
	require.NoError(t, err)
	assert.Equal(t, VerificationUnderReview, v)

	v, err = ParseVerificationStatus("")
	require.NoError(t, err)
	assert.Equal(t, VerificationNone, v)

	_, err = ParseVerificationStatus("approved")
	assert.Error(t, err)

	var decoded VerificationStatus
	assert.Error(t, decoded.UnmarshalText([]byte("pending")))
	require.NoError(t, decoded.UnmarshalText([]byte("verified")))
	assert.Equal(t, VerificationVerified, decoded)
}

func TestListQuery(t *testing.T) {
	q := ListQuery{Page: 2, Limit: 10, Search: " ann ", Status: StatusAll}
	require.NoError(t, q.Validate())
	assert.Equal(t, "limit=10&page=2&search=ann", q.Key())

	q.Status = StatusActive
	q.VerificationStatus = VerificationVerified
	assert.Equal(t, "active", q.Values().Get("status"))
	assert.Equal(t, "verified", q.Values().Get("verificationStatus"))

	assert.True(t, apperrors.IsValidation(ListQuery{Page: 0, Limit: 10}.Validate()))
	assert.True(t, apperrors.IsValidation(ListQuery{Page: 1, Limit: 0}.Validate()))
	assert.True(t, apperrors.IsValidation(ListQuery{Page: 1, Limit: 1, Status: "gone"}.Validate()))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to VerificationStatus
		want     bool
	}{
		{VerificationNotVerified, VerificationUnderReview, true},
		{VerificationUnderReview, VerificationVerified, true},
		{VerificationUnderReview, VerificationRejected, true},
		{VerificationVerified, VerificationBlocked, true},
		{VerificationBlocked, VerificationVerified, true},
		{VerificationRejected, VerificationUnderReview, false},
		{VerificationNotVerified, VerificationVerified, false},
		{VerificationVerified, VerificationRejected, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestVerificationChange_Validate(t *testing.T) {
	c := VerificationChange{CourseID: "c1", Status: VerificationRejected, Remarks: "   "}
	err := c.Validate()
	require.Error(t, err)
	assert.Equal(t, "remarks", apperrors.GetField(err))

	c.Remarks = "missing captions"
	require.NoError(t, c.Validate())

	ok := VerificationChange{CourseID: "c1", Status: VerificationVerified}
	require.NoError(t, ok.ValidateFrom(VerificationUnderReview))
	assert.Error(t, ok.ValidateFrom(VerificationNotVerified))
}

func TestCatalogRequests(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cat := CategoryRequest{Name: " x "}
	assert.Equal(t, "name", apperrors.GetField(cat.Validate()))
	cat.Name = "Design"
	require.NoError(t, cat.Validate())

	coupon := CouponRequest{Code: "spring-25", DiscountPercent: 25, ExpiresAt: now.Add(24 * time.Hour)}
	require.NoError(t, coupon.Validate(now))
	assert.Equal(t, "SPRING-25", coupon.Code)

	coupon.DiscountPercent = 0
	assert.Equal(t, "discount", apperrors.GetField(coupon.Validate(now)))

	coupon.DiscountPercent = 10
	coupon.ExpiresAt = now
	assert.Equal(t, "expiryDate", apperrors.GetField(coupon.Validate(now)))

	coupon.Code = "a b"
	assert.Equal(t, "code", apperrors.GetField(coupon.Validate(now)))
}

func TestWithActive(t *testing.T) {
	l := WithActive(Learner{ID: "1", IsActive: true}, false).(Learner)
	assert.False(t, l.IsActive)

	c := Course{ID: "c"}
	assert.Equal(t, c, WithActive(c, true))
}
