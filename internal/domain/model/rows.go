package model

import "time"

// Row is a record displayed in a list table. IDs are stable across refetches.
type Row interface {
	RowID() string
}

// Activatable rows carry the binary active flag toggled from list screens.
type Activatable interface {
	Row
	Active() bool
}

// Learner is a platform learner account.
type Learner struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func (l Learner) RowID() string { return l.ID }
func (l Learner) Active() bool  { return l.IsActive }

// Instructor is a platform instructor account.
type Instructor struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Designation string    `json:"designation,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (i Instructor) RowID() string { return i.ID }
func (i Instructor) Active() bool  { return i.IsActive }

// Business is an organization account that buys seats for its employees.
type Business struct {
	ID           string    `json:"_id"`
	BusinessName string    `json:"businessName"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (b Business) RowID() string { return b.ID }
func (b Business) Active() bool  { return b.IsActive }

// Category groups courses.
type Category struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"isActive"`
}

func (c Category) RowID() string { return c.ID }
func (c Category) Active() bool  { return c.IsActive }

// Coupon is a percentage discount code.
type Coupon struct {
	ID              string    `json:"_id"`
	Code            string    `json:"code"`
	DiscountPercent int       `json:"discount"`
	ExpiresAt       time.Time `json:"expiryDate"`
	IsActive        bool      `json:"isActive"`
}

func (c Coupon) RowID() string { return c.ID }
func (c Coupon) Active() bool  { return c.IsActive }

// Course is an instructor-authored course awaiting or past review.
type Course struct {
	ID                 string             `json:"_id"`
	Title              string             `json:"title"`
	InstructorName     string             `json:"instructorName"`
	Category           string             `json:"category,omitempty"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	Remarks            string             `json:"remarks,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
}

func (c Course) RowID() string { return c.ID }

// WithActive returns a copy of row with its active flag set to active.
// Rows without the flag are returned unchanged.
func WithActive(row Row, active bool) Row {
	switch r := row.(type) {
	case Learner:
		r.IsActive = active
		return r
	case Instructor:
		r.IsActive = active
		return r
	case Business:
		r.IsActive = active
		return r
	case Category:
		r.IsActive = active
		return r
	case Coupon:
		r.IsActive = active
		return r
	default:
		return row
	}
}

// Label returns the human name of a row for dialogs and audit views.
func Label(row Row) string {
	switch r := row.(type) {
	case Learner:
		return r.Name
	case Instructor:
		return r.Name
	case Business:
		return r.BusinessName
	case Category:
		return r.Name
	case Coupon:
		return r.Code
	case Course:
		return r.Title
	default:
		return row.RowID()
	}
}

// AccountState names the active flag the way filters and audit entries do.
func AccountState(active bool) string {
	if active {
		return string(StatusActive)
	}
	return string(StatusBlocked)
}
