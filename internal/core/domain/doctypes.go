package domain

import (
	"sort"
	"strings"
)

// OtherDocumentType collects extensions that no document type claims.
const OtherDocumentType = "other"

// DocumentTypes maps coarse type labels ("spreadsheet") to extension sets.
type DocumentTypes struct {
	byType map[string][]string
	byExt  map[string]string
	labels []string
}

func NewDocumentTypes(mapping map[string][]string) DocumentTypes {
	t := DocumentTypes{
		byType: make(map[string][]string, len(mapping)),
		byExt:  make(map[string]string),
	}
	for label, exts := range mapping {
		key := strings.ToLower(strings.TrimSpace(label))
		if key == "" {
			continue
		}
		normalized := make([]string, 0, len(exts))
		for _, ext := range exts {
			if e := NormalizeExtension(ext); e != "" {
				normalized = append(normalized, e)
			}
		}
		sort.Strings(normalized)
		if _, exists := t.byType[key]; !exists {
			t.labels = append(t.labels, key)
		}
		t.byType[key] = append(t.byType[key], normalized...)
	}
	sort.Strings(t.labels)
	// first label in sorted order owns an extension claimed twice
	for _, label := range t.labels {
		for _, ext := range t.byType[label] {
			if _, taken := t.byExt[ext]; !taken {
				t.byExt[ext] = label
			}
		}
	}
	return t
}

func DefaultDocumentTypes() DocumentTypes {
	return NewDocumentTypes(map[string][]string{
		"pdf":          {"pdf"},
		"word":         {"doc", "docx", "odt", "rtf"},
		"spreadsheet":  {"xls", "xlsx", "csv", "ods"},
		"presentation": {"ppt", "pptx", "odp"},
		"image":        {"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp", "tif", "tiff"},
		"text":         {"txt", "md"},
		"archive":      {"zip", "rar", "7z", "tar", "gz"},
		"video":        {"mp4", "avi", "mov", "mkv"},
		"audio":        {"mp3", "wav", "ogg"},
	})
}

// Extensions returns the extension set of a label; ok is false for unknown labels.
func (t DocumentTypes) Extensions(label string) ([]string, bool) {
	exts, ok := t.byType[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return nil, false
	}
	out := make([]string, len(exts))
	copy(out, exts)
	return out, true
}

// TypeOf returns the label owning ext, or OtherDocumentType.
func (t DocumentTypes) TypeOf(ext string) string {
	if label, ok := t.byExt[NormalizeExtension(ext)]; ok {
		return label
	}
	return OtherDocumentType
}

func (t DocumentTypes) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}
