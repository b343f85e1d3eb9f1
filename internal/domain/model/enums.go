//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"

	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

// EntityKind names one of the administered collections.
type EntityKind string

const (
	EntityLearners    EntityKind = "learners"
	EntityInstructors EntityKind = "instructors"
	EntityBusinesses  EntityKind = "businesses"
	EntityCategories  EntityKind = "categories"
	EntityCoupons     EntityKind = "coupons"
	EntityCourses     EntityKind = "courses"
)

// AllEntities lists every entity in navigation order.
func AllEntities() []EntityKind {
	return []EntityKind{
		EntityLearners, EntityInstructors, EntityBusinesses,
		EntityCategories, EntityCoupons, EntityCourses,
	}
}

// Valid reports whether the entity kind is supported.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityLearners, EntityInstructors, EntityBusinesses,
		EntityCategories, EntityCoupons, EntityCourses:
		return true
	default:
		return false
	}
}

// Singular returns the platform path segment for a single record ("learner").
func (k EntityKind) Singular() string {
	switch k {
	case EntityBusinesses:
		return "business"
	case EntityCategories:
		return "category"
	default:
		return strings.TrimSuffix(string(k), "s")
	}
}

// Title is the human label used in page headings.
func (k EntityKind) Title() string {
	s := string(k)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Toggleable reports whether rows of this kind carry a binary active flag.
func (k EntityKind) Toggleable() bool {
	switch k {
	case EntityLearners, EntityInstructors, EntityBusinesses, EntityCoupons:
		return true
	default:
		return false
	}
}

// ParseEntityKind normalizes s and rejects unknown kinds.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(normalize(s))
	if !k.Valid() {
		return "", apperrors.ValidationField("entity", "unknown entity: "+s)
	}
	return k, nil
}

// StatusFilter narrows a list by the binary active flag.
type StatusFilter string

const (
	StatusAll     StatusFilter = "all"
	StatusActive  StatusFilter = "active"
	StatusBlocked StatusFilter = "blocked"
)

// Valid reports whether the filter is supported.
func (f StatusFilter) Valid() bool {
	switch f {
	case StatusAll, StatusActive, StatusBlocked:
		return true
	default:
		return false
	}
}

// ParseStatusFilter normalizes s; empty input means StatusAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	f := StatusFilter(normalize(s))
	if f == "" {
		return StatusAll, nil
	}
	if !f.Valid() {
		return "", apperrors.ValidationField("status", "unknown status filter: "+s)
	}
	return f, nil
}

// VerificationStatus is the course review state.
type VerificationStatus string

const (
	VerificationNone        VerificationStatus = ""
	VerificationNotVerified VerificationStatus = "not_verified"
	VerificationUnderReview VerificationStatus = "under_review"
	VerificationVerified    VerificationStatus = "verified"
	VerificationRejected    VerificationStatus = "rejected"
	VerificationBlocked     VerificationStatus = "blocked"
)

// AllVerificationStatuses lists the states in display order.
func AllVerificationStatuses() []VerificationStatus {
	return []VerificationStatus{
		VerificationNotVerified, VerificationUnderReview,
		VerificationVerified, VerificationRejected, VerificationBlocked,
	}
}

// Valid reports whether the status is a known, non-empty state.
func (v VerificationStatus) Valid() bool {
	switch v {
	case VerificationNotVerified, VerificationUnderReview,
		VerificationVerified, VerificationRejected, VerificationBlocked:
		return true
	default:
		return false
	}
}

// Label is the human label for the status.
func (v VerificationStatus) Label() string {
	return strings.ReplaceAll(string(v), "_", " ")
}

// ParseVerificationStatus normalizes s. Empty input is VerificationNone (no filter).
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	v := VerificationStatus(strings.ReplaceAll(normalize(s), " ", "_"))
	if v == VerificationNone || v.Valid() {
		return v, nil
	}
	return "", apperrors.ValidationField("verificationStatus", "unknown verification status: "+s)
}

// UnmarshalText rejects unknown statuses when decoding platform payloads.
func (v *VerificationStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseVerificationStatus(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
