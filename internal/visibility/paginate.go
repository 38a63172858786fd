package visibility

import "github.com/kozaktomas/event-gallery/internal/constants"

// Page is one page of a display set.
type Page struct {
	IDs        []string `json:"ids"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	TotalItems int      `json:"total_items"`
	TotalPages int      `json:"total_pages"`
}

// Paginate returns page (1-based) of ids. Out of range pages are empty.
func Paginate(ids []string, page, perPage int) Page {
	if perPage <= 0 {
		perPage = constants.DisplayPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(ids)
	p := Page{
		IDs:        []string{},
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	if page > p.TotalPages {
		return p
	}
	start := (page - 1) * perPage
	end := min(start+perPage, total)
	p.IDs = ids[start:end]
	return p
}

// Whole returns ids as a single page, used when pagination is disabled.
func Whole(ids []string) Page {
	pages := 0
	if len(ids) > 0 {
		pages = 1
	}
	return Page{IDs: nonNil(ids), Page: 1, PerPage: len(ids), TotalItems: len(ids), TotalPages: pages}
}
