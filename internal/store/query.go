package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
)

// Page selects a window of a sorted result set.
type Page struct {
	Offset int
	Limit  int
	// SortBy names a column from the store's whitelist; unknown names fall
	// back to the store default.
	SortBy string
	Desc   bool
}

// MaxPage is the highest page number NewPage honours.
const MaxPage = 1_000_000

// NewPage converts a 1-based page number and page size into a Page. The
// page is clamped to [1, MaxPage] and a negative limit becomes 0.
func NewPage(page, limit int, sortBy string, desc bool) Page {
	page = min(max(page, 1), MaxPage)
	limit = max(limit, 0)
	return Page{Offset: (page - 1) * limit, Limit: limit, SortBy: sortBy, Desc: desc}
}

// UserFilter narrows a user listing.
type UserFilter struct {
	// Search matches first name, last name or username case-insensitively.
	Search string
	Role   domain.Role
	Active *bool
}

// PostFilter narrows a post listing.
type PostFilter struct {
	// Query matches title or content case-insensitively.
	Query      string
	Tags       []string
	CategoryID *uuid.UUID
	Status     domain.PostStatus
	AuthorID   *uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
	// IncludeFlagged includes posts flagged by moderators.
	IncludeFlagged bool
}

// UserStats aggregates account counts for the admin dashboard.
type UserStats struct {
	Total         int
	Active        int
	Inactive      int
	ByRole        map[domain.Role]int
	RecentSignups int
}
