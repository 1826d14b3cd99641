package pagination

import (
	"fmt"
	"net/url"
	"strconv"
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Offset is the zero-based index of the first item on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Limits bounds the page size and, when MaxPage is set, the page number.
type Limits struct {
	DefaultPerPage int
	MaxPerPage     int
	MaxPage        int
}

// FromQuery reads page and per_page. Missing values take the defaults,
// values below 1 are raised to the minimum and per_page is capped at
// MaxPerPage, page at MaxPage. Non-numeric values are errors.
func FromQuery(q url.Values, limits Limits) (Params, error) {
	p := Params{Page: 1, PerPage: limits.DefaultPerPage}

	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("page: must be an integer")
		}
		if v > 1 {
			p.Page = v
		}
	}

	if raw := q.Get("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("per_page: must be an integer")
		}
		if v > 0 {
			p.PerPage = v
		}
	}
	if limits.MaxPerPage > 0 && p.PerPage > limits.MaxPerPage {
		p.PerPage = limits.MaxPerPage
	}
	if limits.MaxPage > 0 && p.Page > limits.MaxPage {
		p.Page = limits.MaxPage
	}
	return p, nil
}

// TotalPages computes the number of pages for total items.
func TotalPages(total, perPage int) int {
	if perPage < 1 || total < 1 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
