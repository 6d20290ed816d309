package pagination

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Response wraps a paginated API response.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

func NewResponse(data interface{}, total, limit, offset int) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
}

// Sort is a validated sort order. Column is an internal identifier taken
// from an allow-list, never raw client input, so it is safe to interpolate
// into SQL.
type Sort struct {
	Column string
	Desc   bool
}

// SortFromContext maps the "sort" query parameter through an allow-list of
// external keys to internal column identifiers. A leading '-' requests
// descending order. An empty parameter falls back to def; unknown keys
// report ok=false so the boundary can reject them.
func SortFromContext(c echo.Context, allowed map[string]string, def string) (Sort, bool) {
	key := c.QueryParam("sort")
	if key == "" {
		key = def
	}
	desc := strings.HasPrefix(key, "-")
	key = strings.TrimPrefix(key, "-")

	col, ok := allowed[key]
	if !ok {
		return Sort{}, false
	}
	return Sort{Column: col, Desc: desc}, true
}

// OrderBy renders the sort as a SQL ORDER BY fragment.
func (s Sort) OrderBy() string {
	if s.Desc {
		return s.Column + " DESC"
	}
	return s.Column + " ASC"
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// NextOffset returns the offset for the next page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}
