package support

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 50
)

// NormalizePage clamps limit and page to sane values. Pages start at 1.
func NormalizePage(limit, page int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page < 1 {
		page = 1
	}
	return limit, page
}

// PageOf returns the window of ids for the requested page, newest ids last as stored.
func PageOf(ids []string, limit, page int) []string {
	limit, page = NormalizePage(limit, page)
	start := (page - 1) * limit
	if start >= len(ids) {
		return nil
	}
	end := start + limit
	if end > len(ids) {
		end = len(ids)
	}
	return append([]string(nil), ids[start:end]...)
}
