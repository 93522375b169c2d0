package domain

import (
	"strings"
	"time"
)

type SortField string

const (
	SortCreatedAt        SortField = "created_at"
	SortTitle            SortField = "title"
	SortDocumentDate     SortField = "document_date"
	SortValidUntil       SortField = "valid_until"
	SortFileSize         SortField = "file_size"
	SortOriginalFilename SortField = "original_filename"
	SortExtension        SortField = "extension"
	SortRelevance        SortField = "relevance"
)

// ParseSortField accepts snake_case and camelCase names.
func ParseSortField(raw string) (SortField, bool) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(strings.ReplaceAll(s, "_", "")) {
	case "createdat":
		return SortCreatedAt, true
	case "title":
		return SortTitle, true
	case "documentdate":
		return SortDocumentDate, true
	case "validuntil":
		return SortValidUntil, true
	case "filesize":
		return SortFileSize, true
	case "originalfilename", "filename":
		return SortOriginalFilename, true
	case "extension":
		return SortExtension, true
	case "relevance":
		return SortRelevance, true
	default:
		return "", false
	}
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ParseSortOrder(raw string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case SortAsc:
		return SortAsc, true
	case SortDesc:
		return SortDesc, true
	default:
		return "", false
	}
}

// SortSpec is the primary ordering; every query is tie-broken by id desc.
type SortSpec struct {
	Field SortField
	Order SortOrder
}

// SearchQuery is the caller-facing query. Zero values mean "absent": an empty
// string, a nil pointer, an empty slice and a non-positive page number are all
// treated as "no filter" / "use the default".
type SearchQuery struct {
	Text            string
	Hierarchy       HierarchySelection
	Extensions      []string
	DocumentTypes   []string
	Confidentiality string
	Tag             string
	DateFrom        *time.Time
	DateTo          *time.Time
	SortBy          string
	SortOrder       string
	Page            int
	PageSize        int
}

// DocumentFilter is the normalized predicate handed to the read model.
// Extensions is the effective union of the extension and document type axes.
type DocumentFilter struct {
	Text            string
	Hierarchy       HierarchySelection
	Extensions      []string
	Confidentiality *Confidentiality
	Tag             string
	DateFrom        *time.Time
	DateTo          *time.Time
}

type PageRequest struct {
	Limit  int
	Offset int
}

type SearchResult struct {
	Items    []Document `json:"items"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Total    int        `json:"total"`
	LastPage int        `json:"last_page"`
}

// LastPage is ceil(total/pageSize), never below 1.
func LastPage(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ParseDay accepts YYYY-MM-DD or RFC3339 and returns the calendar date (in
// UTC) at midnight.
func ParseDay(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if day, err := time.Parse(time.DateOnly, raw); err == nil {
		return day, true
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), true
}
