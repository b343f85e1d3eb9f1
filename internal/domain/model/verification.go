package model

import (
	"strings"

	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

var verificationGraph = map[VerificationStatus][]VerificationStatus{
	VerificationNotVerified: {VerificationUnderReview},
	VerificationUnderReview: {VerificationVerified, VerificationRejected},
	VerificationVerified:    {VerificationBlocked},
	VerificationBlocked:     {VerificationVerified},
	// rejected courses return to review only when the instructor resubmits.
	VerificationRejected: {},
}

// CanTransition reports whether an admin may move a course from one state to another.
func CanTransition(from, to VerificationStatus) bool {
	for _, next := range verificationGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the states an admin may move a course to from from.
func NextStatuses(from VerificationStatus) []VerificationStatus {
	next := verificationGraph[from]
	out := make([]VerificationStatus, len(next))
	copy(out, next)
	return out
}

// Destructive reports whether moving into v takes something away from its owner.
func (v VerificationStatus) Destructive() bool {
	return v == VerificationRejected || v == VerificationBlocked
}

// RequiresRemarks reports whether a transition into v needs an explanation.
func (v VerificationStatus) RequiresRemarks() bool {
	return v.Destructive()
}

// VerificationChange is an admin's request to move a course to a new state.
type VerificationChange struct {
	CourseID string             `json:"courseId"`
	Status   VerificationStatus `json:"status"`
	Remarks  string             `json:"remarks,omitempty"`
}

// Validate checks the change on its own, before the current state is known.
func (c *VerificationChange) Validate() error {
	c.CourseID = strings.TrimSpace(c.CourseID)
	c.Remarks = strings.TrimSpace(c.Remarks)
	if c.CourseID == "" {
		return apperrors.ValidationField("courseId", "course id is required")
	}
	if !c.Status.Valid() {
		return apperrors.ValidationField("status", "unknown verification status: "+string(c.Status))
	}
	if c.Status.RequiresRemarks() && c.Remarks == "" {
		return apperrors.ValidationField("remarks", "remarks are required to "+verb(c.Status)+" a course")
	}
	return nil
}

// ValidateFrom additionally checks the change against the course's current state.
func (c *VerificationChange) ValidateFrom(from VerificationStatus) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !CanTransition(from, c.Status) {
		return apperrors.Validationf("cannot move a course from %s to %s", from.Label(), c.Status.Label())
	}
	return nil
}

func verb(v VerificationStatus) string {
	switch v {
	case VerificationRejected:
		return "reject"
	case VerificationBlocked:
		return "block"
	default:
		return "update"
	}
}
