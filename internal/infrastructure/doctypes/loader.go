package doctypes

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/document-catalog/internal/core/domain"
)

// File is the on-disk layout:
//
//	types:
//	  spreadsheet: [xls, xlsx, csv]
//	  pdf: [pdf]
type File struct {
	Types map[string][]string `yaml:"types"`
}

// Load returns the built-in mapping when path is empty.
func Load(path string) (domain.DocumentTypes, error) {
	if strings.TrimSpace(path) == "" {
		return domain.DefaultDocumentTypes(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.DocumentTypes{}, fmt.Errorf("open document types file: %w", err)
	}
	defer f.Close()

	types, err := Parse(f)
	if err != nil {
		return domain.DocumentTypes{}, fmt.Errorf("%s: %w", path, err)
	}
	return types, nil
}

func Parse(r io.Reader) (domain.DocumentTypes, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return domain.DocumentTypes{}, fmt.Errorf("parse document types: empty file")
		}
		return domain.DocumentTypes{}, fmt.Errorf("parse document types: %w", err)
	}
	if len(file.Types) == 0 {
		return domain.DocumentTypes{}, fmt.Errorf("parse document types: no types defined")
	}
	for label, exts := range file.Types {
		if strings.TrimSpace(label) == "" {
			return domain.DocumentTypes{}, fmt.Errorf("parse document types: blank type label")
		}
		if strings.EqualFold(strings.TrimSpace(label), domain.OtherDocumentType) {
			return domain.DocumentTypes{}, fmt.Errorf("parse document types: %q is reserved", domain.OtherDocumentType)
		}
		if len(exts) == 0 {
			return domain.DocumentTypes{}, fmt.Errorf("parse document types: type %q has no extensions", label)
		}
	}
	return domain.NewDocumentTypes(file.Types), nil
}
