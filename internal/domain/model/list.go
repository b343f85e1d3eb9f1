package model

import (
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// ListQuery is the immutable description of one list request.
// A new value is built whenever any field changes.
type ListQuery struct {
	Page               int
	Limit              int
	Search             string
	Status             StatusFilter
	VerificationStatus VerificationStatus
}

// Validate rejects queries the platform would refuse.
func (q ListQuery) Validate() error {
	if q.Page < 1 {
		return apperrors.ValidationField("page", "page must be at least 1")
	}
	if q.Limit <= 0 {
		return apperrors.ValidationField("limit", "limit must be positive")
	}
	if q.Status != "" && !q.Status.Valid() {
		return apperrors.ValidationField("status", "unknown status filter: "+string(q.Status))
	}
	if q.VerificationStatus != VerificationNone && !q.VerificationStatus.Valid() {
		return apperrors.ValidationField("verificationStatus",
			"unknown verification status: "+string(q.VerificationStatus))
	}
	return nil
}

// Values encodes the query as platform query parameters.
// The "all" status and an empty verification filter are omitted.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Status != "" && q.Status != StatusAll {
		v.Set("status", string(q.Status))
	}
	if q.VerificationStatus != VerificationNone {
		v.Set("verificationStatus", string(q.VerificationStatus))
	}
	return v
}

// Key is the identity of the query; equal keys fetch the same rows.
func (q ListQuery) Key() string {
	return q.Values().Encode()
}

// ListResult is one page of rows plus the server's page count.
type ListResult[R Row] struct {
	Rows       []R
	TotalPages int
}

// NormalizeTotalPages clamps a server-reported page count to at least 1.
func NormalizeTotalPages(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
