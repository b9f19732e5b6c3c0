package domain

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultSortBy    = "createdAt"
	DefaultSortOrder = "desc"
)

var sortFields = map[string]bool{"createdAt": true, "priority": true, "status": true, "title": true}

// Filters constrain a bug list. A zero field means "no constraint".
// Limit and Skip use -1 for unset after normalisation.
type Filters struct {
	Status     string
	Priority   string
	AssignedTo string
	SortBy     string
	SortOrder  string
	Limit      int
	Skip       int
	SearchText string

	limitSet bool
	skipSet  bool
}

// WithLimit returns f with an explicit page size.
func (f Filters) WithLimit(n int) Filters {
	f.Limit, f.limitSet = n, true
	return f
}

// WithSkip returns f with an explicit page offset.
func (f Filters) WithSkip(n int) Filters {
	f.Skip, f.skipSet = n, true
	return f
}

func (f Filters) HasLimit() bool { return f.limitSet && f.Limit >= 0 }
func (f Filters) HasSkip() bool  { return f.skipSet && f.Skip >= 0 }

// Normalize trims every string, drops empties and negative paging hints, and
// fills in the default sort.
func (f Filters) Normalize() Filters {
	f.Status = strings.TrimSpace(f.Status)
	f.Priority = strings.TrimSpace(f.Priority)
	f.AssignedTo = strings.TrimSpace(f.AssignedTo)
	f.SearchText = strings.TrimSpace(f.SearchText)

	f.SortBy = strings.TrimSpace(f.SortBy)
	if !sortFields[f.SortBy] {
		f.SortBy = DefaultSortBy
	}
	f.SortOrder = strings.ToLower(strings.TrimSpace(f.SortOrder))
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		f.SortOrder = DefaultSortOrder
	}
	if f.Limit < 0 {
		f.Limit, f.limitSet = 0, false
	}
	if f.Skip < 0 {
		f.Skip, f.skipSet = 0, false
	}
	return f
}

// Query encodes the normalised filters. Unset fields are never sent.
func (f Filters) Query() url.Values {
	n := f.Normalize()
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("status", n.Status)
	set("priority", n.Priority)
	set("assignedTo", n.AssignedTo)
	set("sortBy", n.SortBy)
	set("sortOrder", n.SortOrder)
	set("searchText", n.SearchText)
	if n.HasLimit() {
		q.Set("limit", strconv.Itoa(n.Limit))
	}
	if n.HasSkip() {
		q.Set("skip", strconv.Itoa(n.Skip))
	}
	return q
}

// FiltersFromQuery reads filters from request query parameters.
func FiltersFromQuery(v url.Values) Filters {
	f := Filters{
		Status:     v.Get("status"),
		Priority:   v.Get("priority"),
		AssignedTo: v.Get("assignedTo"),
		SortBy:     v.Get("sortBy"),
		SortOrder:  v.Get("sortOrder"),
		SearchText: v.Get("searchText"),
	}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil {
		f = f.WithLimit(n)
	}
	if n, err := strconv.Atoi(v.Get("skip")); err == nil {
		f = f.WithSkip(n)
	}
	return f.Normalize()
}

// Matches applies the local search refinement to an already-fetched bug.
func (f Filters) Matches(b Bug) bool {
	s := strings.ToLower(strings.TrimSpace(f.SearchText))
	if s == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.Title), s) ||
		strings.Contains(strings.ToLower(b.Description), s)
}
