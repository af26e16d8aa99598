package repository

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Number     int   `json:"current_page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
	TotalCount int64 `json:"total_count"`
}

func (p Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool     { return p.Number < p.TotalPages }
func (p Page[T]) Previous() int     { return p.Number - 1 }
func (p Page[T]) Next() int         { return p.Number + 1 }

// PageRequest carries the raw query parameters; Normalize clamps them.
type PageRequest struct {
	Number  int
	PerPage int
}

// Normalize applies defaults and limits: perPage falls back to def and is
// capped at max, the page number is clamped into [1, totalPages]. An empty
// listing still has one (empty) page.
func (r PageRequest) Normalize(def, max int, total int64) (number, perPage, totalPages, offset int) {
	perPage = r.PerPage
	if perPage < 1 {
		perPage = def
	}
	if max > 0 && perPage > max {
		perPage = max
	}
	totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}
	number = r.Number
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}
	offset = (number - 1) * perPage
	return number, perPage, totalPages, offset
}
