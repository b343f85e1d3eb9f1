package httpx

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edukit/admin-dashboard/internal/domain/model"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	"github.com/edukit/admin-dashboard/internal/service/listing"
)

func TestQueryFromRequest_KeepsAbsentParams(t *testing.T) {
	cur := model.ListQuery{Page: 3, Limit: 10, Search: "ann", Status: model.StatusBlocked}

	q, err := queryFromRequest(cur, url.Values{"page": {"4"}})
	require.NoError(t, err)
	assert.Equal(t, model.ListQuery{Page: 4, Limit: 10, Search: "ann", Status: model.StatusBlocked}, q)

	q, err = queryFromRequest(cur, url.Values{"search": {""}, "status": {"active"}})
	require.NoError(t, err)
	assert.Empty(t, q.Search, "an explicit empty search clears it")
	assert.Equal(t, model.StatusActive, q.Status)
	assert.Equal(t, 3, q.Page)
}

func TestQueryFromRequest_RejectsBadParams(t *testing.T) {
	cur := model.ListQuery{Page: 1, Limit: 10, Status: model.StatusAll}

	_, err := queryFromRequest(cur, url.Values{"page": {"0"}})
	require.Error(t, err)
	assert.Equal(t, "page", apperrors.GetField(err))

	_, err = queryFromRequest(cur, url.Values{"status": {"sleeping"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = queryFromRequest(cur, url.Values{"verification": {"approved"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestListURLValues_OmitsDefaults(t *testing.T) {
	v := listURLValues(model.ListQuery{Page: 2, Limit: 10, Status: model.StatusAll})
	assert.Empty(t, v.Encode())

	v = listURLValues(model.ListQuery{
		Search:             "go",
		Status:             model.StatusActive,
		VerificationStatus: model.VerificationUnderReview,
	})
	assert.Equal(t, "search=go&status=active&verification=under_review", v.Encode())
}

func TestBuildPagination(t *testing.T) {
	p := buildPagination("/learners", url.Values{"search": {"ann"}}, 5, 10)

	require.True(t, p.Show)
	assert.Equal(t, "/learners?page=4&search=ann", p.PrevURL)
	assert.Equal(t, "/learners?page=6&search=ann", p.NextURL)

	var labels []string
	for _, l := range p.Links {
		labels = append(labels, l.Label)
		if l.Current {
			assert.Equal(t, "5", l.Label)
		}
	}
	assert.Equal(t, []string{"1", "...", "4", "5", "6", "...", "10"}, labels)
}

func TestBuildPagination_SinglePageHidden(t *testing.T) {
	p := buildPagination("/learners", nil, 1, 1)
	assert.False(t, p.Show)
	assert.Empty(t, p.Links)
}

func TestNewListView_Courses(t *testing.T) {
	state := listing.State[model.Row]{
		Rows: []model.Row{model.Course{
			ID:                 "c1",
			Title:              "Go Basics",
			InstructorName:     "Ada",
			VerificationStatus: model.VerificationUnderReview,
			CreatedAt:          time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		}},
		Page: 1, TotalPages: 1, Limit: 10, Status: model.StatusAll, Loaded: true,
	}

	v := newListView(model.EntityCourses, state, "go", nil)

	assert.True(t, v.Verifiable)
	assert.False(t, v.Toggleable)
	assert.False(t, v.Editable)
	assert.Equal(t, "go", v.Draft)
	require.Len(t, v.Rows, 1)
	row := v.Rows[0]
	assert.Equal(t, []string{"Go Basics", "Ada", "", "Feb 1, 2025"}, row.Cells)
	assert.Equal(t, model.NextStatuses(model.VerificationUnderReview), row.Next)
	assert.Empty(t, row.EditURL)
}

func TestNewListView_CouponsAreEditableAndToggleable(t *testing.T) {
	state := listing.State[model.Row]{
		Rows: []model.Row{model.Coupon{ID: "k1", Code: "SPRING", DiscountPercent: 10, IsActive: true}},
		Page: 1, TotalPages: 1, Limit: 10, Status: model.StatusAll, Loaded: true,
	}

	v := newListView(model.EntityCoupons, state, "", nil)

	assert.True(t, v.Editable)
	assert.True(t, v.Toggleable)
	assert.Equal(t, "/coupons/new", v.NewURL)
	require.Len(t, v.Rows, 1)
	assert.Equal(t, "/coupons/k1/edit", v.Rows[0].EditURL)
	assert.True(t, v.Rows[0].Active)
	assert.Equal(t, "10%", v.Rows[0].Cells[1])
}

func TestNavItems_MarksActive(t *testing.T) {
	items := navItems("/learners")
	var active []string
	for _, it := range items {
		if it.Active {
			active = append(active, it.Path)
		}
	}
	assert.Equal(t, []string{"/learners"}, active)
	assert.Equal(t, "/dashboard", items[0].Path)
	assert.Equal(t, "/audit", items[len(items)-1].Path)
}
