package shared

// MaxPageSize caps ledger and leaderboard pages.
const MaxPageSize = 100

// DefaultPageSize applies when the caller sends none.
const DefaultPageSize = 20

// NormalizePagination clamps a 1-indexed page and a page size.
func NormalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// RankFor computes the 1-based rank of the i-th (0-based) entry on a
// 1-indexed page.
func RankFor(page, pageSize, i int) int {
	return (page-1)*pageSize + i + 1
}
