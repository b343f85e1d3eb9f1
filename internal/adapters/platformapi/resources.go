package platformapi

import (
	"context"
	"net/http"

	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
)

// List fetches one page of kind rows. Invalid queries fail before any request is sent.
func List[R model.Row](ctx context.Context, c *Client, kind model.EntityKind, q model.ListQuery) (model.ListResult[R], error) {
	var zero model.ListResult[R]
	if !kind.Valid() {
		return zero, apperrors.ValidationField("entity", "unknown entity: "+string(kind))
	}
	if err := q.Validate(); err != nil {
		return zero, err
	}

	doc, err := c.do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/admin/" + string(kind),
		Query:  q.Values(),
	}, nil)
	if err != nil {
		return zero, err
	}

	var rows []R
	if _, err := doc.decode(c.mapping.Rows, &rows); err != nil {
		// Unknown enum values and malformed rows are a broken contract, not user error.
		return zero, apperrors.Wrap(err, apperrors.ErrCodeServer, apperrors.GenericRetryMessage)
	}
	total, _ := doc.integer(c.mapping.TotalPages)
	if rows == nil {
		rows = []R{}
	}
	return model.ListResult[R]{Rows: rows, TotalPages: model.NormalizeTotalPages(total)}, nil
}

// ToggleStatus flips the active flag of one learner, instructor, business or coupon.
// It returns the toggled row when the response carries one for id, and nil otherwise.
func (c *Client) ToggleStatus(ctx context.Context, kind model.EntityKind, id string) (model.Row, error) {
	if !kind.Toggleable() {
		return nil, apperrors.Validationf("%s do not have an active status", kind)
	}
	if id == "" {
		return nil, apperrors.ValidationField("id", "id is required")
	}
	doc, err := c.do(ctx, Request{
		Method: http.MethodPatch,
		Path:   "/admin/" + kind.Singular() + "/status",
		Body:   map[string]string{"id": id},
	}, nil)
	if err != nil {
		return nil, err
	}
	if row := decodeRow(doc, c.mapping.Row, kind); row != nil && row.RowID() == id {
		return row, nil
	}
	return nil, nil
}

// decodeRow returns nil when expr selects nothing that decodes as a kind row.
func decodeRow(doc document, expr string, kind model.EntityKind) model.Row {
	switch kind {
	case model.EntityLearners:
		return decodeAs[model.Learner](doc, expr)
	case model.EntityInstructors:
		return decodeAs[model.Instructor](doc, expr)
	case model.EntityBusinesses:
		return decodeAs[model.Business](doc, expr)
	case model.EntityCategories:
		return decodeAs[model.Category](doc, expr)
	case model.EntityCoupons:
		return decodeAs[model.Coupon](doc, expr)
	case model.EntityCourses:
		return decodeAs[model.Course](doc, expr)
	default:
		return nil
	}
}

func decodeAs[R model.Row](doc document, expr string) model.Row {
	var row R
	if found, err := doc.decode(expr, &row); err != nil || !found {
		return nil
	}
	return row
}

// SetVerification moves a course to a new review state.
func (c *Client) SetVerification(ctx context.Context, change model.VerificationChange) error {
	if err := change.Validate(); err != nil {
		return err
	}
	return c.Do(ctx, Request{
		Method: http.MethodPatch,
		Path:   "/admin/course/verification",
		Body:   change,
	}, nil)
}

// SaveCategory creates a category when req.ID is empty and updates it otherwise.
// It returns the category id.
func (c *Client) SaveCategory(ctx context.Context, req model.CategoryRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	return c.save(ctx, "/admin/category", req.ID, req)
}

// SaveCoupon creates or updates a coupon. now bounds the expiry date.
func (c *Client) SaveCoupon(ctx context.Context, req model.CouponRequest) (string, error) {
	if err := req.Validate(c.now()); err != nil {
		return "", err
	}
	return c.save(ctx, "/admin/coupon", req.ID, req)
}

func (c *Client) save(ctx context.Context, path, id string, body any) (string, error) {
	method := http.MethodPost
	if id != "" {
		method = http.MethodPut
	}
	doc, err := c.do(ctx, Request{Method: method, Path: path, Body: body}, nil)
	if err != nil {
		return "", err
	}
	if got := doc.str(c.mapping.ID); got != "" {
		return got, nil
	}
	return id, nil
}
