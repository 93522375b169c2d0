package domain

import (
	"sort"
	"strings"
	"time"
)

type Confidentiality string

const (
	ConfidentialityPublic     Confidentiality = "public"
	ConfidentialityInternal   Confidentiality = "internal"
	ConfidentialityRestricted Confidentiality = "restricted"
)

// ParseConfidentiality is case-insensitive; ok is false for unknown values.
func ParseConfidentiality(raw string) (Confidentiality, bool) {
	switch Confidentiality(strings.ToLower(strings.TrimSpace(raw))) {
	case ConfidentialityPublic:
		return ConfidentialityPublic, true
	case ConfidentialityInternal:
		return ConfidentialityInternal, true
	case ConfidentialityRestricted:
		return ConfidentialityRestricted, true
	default:
		return "", false
	}
}

type Document struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	OriginalFilename string   `json:"original_filename"`
	Extension        string   `json:"extension"`
	FileSize         int64    `json:"file_size"`
	Tags             []string `json:"tags"`

	ProcessTypeID     *int64 `json:"process_type_id"`
	GeneralProcessID  *int64 `json:"general_process_id"`
	InternalProcessID *int64 `json:"internal_process_id"`
	CategoryID        *int64 `json:"category_id"`

	DocumentDate    *time.Time      `json:"document_date"`
	ValidUntil      *time.Time      `json:"valid_until"`
	Confidentiality Confidentiality `json:"confidentiality"`
	UploadedBy      string          `json:"uploaded_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	InvalidatedAt   *time.Time      `json:"invalidated_at,omitempty"`
}

func (d *Document) Selection() HierarchySelection {
	return HierarchySelection{
		ProcessTypeID:     d.ProcessTypeID,
		GeneralProcessID:  d.GeneralProcessID,
		InternalProcessID: d.InternalProcessID,
		CategoryID:        d.CategoryID,
	}
}

func (d *Document) SetSelection(s HierarchySelection) {
	d.ProcessTypeID = s.ProcessTypeID
	d.GeneralProcessID = s.GeneralProcessID
	d.InternalProcessID = s.InternalProcessID
	d.CategoryID = s.CategoryID
}

// SetFilename replaces the original filename and re-derives the extension.
func (d *Document) SetFilename(name string) {
	d.OriginalFilename = strings.TrimSpace(name)
	d.Extension = ExtensionFromFilename(d.OriginalFilename)
}

// DocumentInput is the writable part of a document. The extension is not
// part of it: it always follows the filename.
type DocumentInput struct {
	Title            string             `json:"title" validate:"required,notblank,max=255"`
	Description      string             `json:"description" validate:"max=5000"`
	OriginalFilename string             `json:"original_filename" validate:"required,notblank,max=255"`
	FileSize         int64              `json:"file_size" validate:"gte=0"`
	Tags             []string           `json:"tags" validate:"max=50,dive,max=64"`
	Hierarchy        HierarchySelection `json:"hierarchy"`
	DocumentDate     *time.Time         `json:"document_date"`
	ValidUntil       *time.Time         `json:"valid_until"`
	Confidentiality  Confidentiality    `json:"confidentiality" validate:"omitempty,oneof=public internal restricted"`
	UploadedBy       string             `json:"uploaded_by" validate:"max=255"`
}

// NormalizeTags trims, lower-cases, de-duplicates and sorts tags.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
