package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/store"
	"github.com/phrazzld/folio-api/internal/validation"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MaxPage      = store.MaxPage
)

// PaginationQuery holds the paging parameters shared by list endpoints.
type PaginationQuery struct {
	Page   int    `query:"page"    validate:"gte=1,lte=1000000"`
	Limit  int    `query:"limit"   validate:"gte=1,lte=100"`
	Sort   string `query:"sort"    validate:"omitempty,oneof=asc desc"`
	SortBy string `query:"sort_by" validate:"omitempty,max=50"`
}

func defaultPagination() PaginationQuery {
	return PaginationQuery{Page: DefaultPage, Limit: DefaultLimit, Sort: "asc"}
}

// StorePage converts the query into a store.Page.
func (q PaginationQuery) StorePage() store.Page {
	return store.NewPage(q.Page, q.Limit, q.SortBy, q.Sort == "desc")
}

// PaginatedResponse wraps one page of results.
type PaginatedResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// NewPaginatedResponse fills in the page count.
func NewPaginatedResponse[T any](data []T, total int, q PaginationQuery) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{
		Data:  data,
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
		Pages: domain.PageCount(total, q.Limit),
	}
}

// UserListQuery filters GET /api/users.
type UserListQuery struct {
	SortBy string `query:"sort_by" validate:"omitempty,oneof=created_at updated_at username email first_name last_name"`
	Search string `query:"search" validate:"omitempty,max=100"`
	Role   string `query:"role"   validate:"omitempty,oneof=user moderator admin"`
	Active *bool  `query:"active"`
}

// Filter converts the query into a store filter.
func (q UserListQuery) Filter() store.UserFilter {
	return store.UserFilter{Search: q.Search, Role: domain.Role(q.Role), Active: q.Active}
}

// PostListQuery filters GET /api/posts.
type PostListQuery struct {
	SortBy   string     `query:"sort_by"   validate:"omitempty,oneof=created_at updated_at published_at title"`
	Q        string     `query:"q"         validate:"omitempty,min=1,max=200"`
	Tags     []string   `query:"tags"      validate:"omitempty,max=10,dive,min=1,max=50"`
	Category *uuid.UUID `query:"category"`
	Status   string     `query:"status"    validate:"omitempty,oneof=draft published archived"`
	DateFrom *time.Time `query:"date_from"`
	DateTo   *time.Time `query:"date_to"`
	AuthorID *uuid.UUID `query:"author_id"`
}

// Validate checks that the date range is not inverted.
func (q PostListQuery) Validate() validation.Errors {
	if q.DateFrom != nil && q.DateTo != nil && q.DateTo.Before(*q.DateFrom) {
		return validation.Errors{validation.ValueError("date_to", "date_to must be after date_from")}
	}
	return nil
}

// Filter converts the query into a store filter.
func (q PostListQuery) Filter() store.PostFilter {
	return store.PostFilter{
		Query:      q.Q,
		Tags:       q.Tags,
		CategoryID: q.Category,
		Status:     domain.PostStatus(q.Status),
		AuthorID:   q.AuthorID,
		DateFrom:   q.DateFrom,
		DateTo:     q.DateTo,
	}
}

// bindListQuery binds the URL query into page (after defaults) and into
// each filter, validating all of them. It writes a 400 on failure.
func bindListQuery(w http.ResponseWriter, r *http.Request, page *PaginationQuery, filters ...any) bool {
	*page = defaultPagination()
	for _, target := range append([]any{page}, filters...) {
		if err := shared.BindQuery(r, target); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid query parameters", err)
			return false
		}
		if !shared.Validate(w, r, target) {
			return false
		}
	}
	return true
}
