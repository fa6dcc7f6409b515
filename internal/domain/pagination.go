package domain

// PageCount returns the number of pages needed to show total items at
// limit items per page. It is 0 when limit is not positive.
func PageCount(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
