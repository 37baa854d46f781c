package material

import (
	"net/url"
	"strconv"

	"github.com/edubanco/recursos/core"
)

// Sort keys accepted by the backend.
var SortKeys = []string{"createdAt", "title", "avgRating", "downloadCount", "totalRatings"}

// QueryFilter holds every list filter; all filters are ANDed together by the
// backend. Zero values mean "not applied".
type QueryFilter struct {
	Discipline   string     `query:"discipline" json:"discipline,omitempty"`
	Grade        string     `query:"grade" json:"grade,omitempty"`
	MaterialType Type       `query:"materialType" json:"materialType,omitempty"`
	Difficulty   Difficulty `query:"difficulty" json:"difficulty,omitempty"`
	Author       string     `query:"author" json:"author,omitempty"`
	MinRating    float64    `query:"minRating" json:"minRating,omitempty"`
	Search       string     `query:"search" json:"search,omitempty"`
	HasFile      bool       `query:"hasFile" json:"hasFile,omitempty"`
	SortBy       string     `query:"sortBy" json:"sortBy,omitempty"`
	SortOrder    string     `query:"sortOrder" json:"sortOrder,omitempty"` // asc|desc
}

func (f *QueryFilter) Clean() {
	f.Discipline = core.CleanString(f.Discipline)
	f.Grade = core.CleanString(f.Grade)
	f.Author = core.CleanString(f.Author)
	f.Search = core.CleanString(f.Search)
	f.SortBy = core.CleanString(f.SortBy)
	f.SortOrder = core.CleanString(f.SortOrder, true /* lower */)

	if f.SortBy != "" && !containsString(SortKeys, f.SortBy) {
		f.SortBy = ""
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		f.SortOrder = ""
	}
}

// Values encodes the applied filters as backend query parameters; empty
// filters are omitted.
func (f QueryFilter) Values() url.Values {
	vals := url.Values{}
	setIf(vals, "discipline", f.Discipline)
	setIf(vals, "grade", f.Grade)
	setIf(vals, "materialType", string(f.MaterialType))
	setIf(vals, "difficulty", string(f.Difficulty))
	setIf(vals, "author", f.Author)
	if f.MinRating > 0 {
		vals.Set("minRating", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	setIf(vals, "search", f.Search)
	if f.HasFile {
		vals.Set("hasFile", "true")
	}
	setIf(vals, "sortBy", f.SortBy)
	setIf(vals, "sortOrder", f.SortOrder)
	return vals
}

// Page is the pagination window of a listing request.
type Page struct {
	Page  int `query:"page" json:"page"`
	Limit int `query:"limit" json:"limit"`
}

const (
	DefaultPageLimit = 12
	MaxPageLimit     = 50
)

func (p *Page) Clean() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

func (p Page) Values() url.Values {
	vals := url.Values{}
	vals.Set("page", strconv.Itoa(p.Page))
	vals.Set("limit", strconv.Itoa(p.Limit))
	return vals
}

func setIf(vals url.Values, key, val string) {
	if val != "" {
		vals.Set(key, val)
	}
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
