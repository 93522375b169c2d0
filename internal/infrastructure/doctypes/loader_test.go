package doctypes

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseNormalizesExtensions(t *testing.T) {
	types, err := Parse(strings.NewReader(`
types:
  Spreadsheet: [".XLSX", xls, csv]
  pdf: [pdf]
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	exts, ok := types.Extensions("spreadsheet")
	if !ok || !reflect.DeepEqual(exts, []string{"csv", "xls", "xlsx"}) {
		t.Fatalf("unexpected spreadsheet extensions %v", exts)
	}
	if got := types.TypeOf("XLSX"); got != "spreadsheet" {
		t.Fatalf("TypeOf(XLSX) = %q", got)
	}
	if got := types.TypeOf("docx"); got != "other" {
		t.Fatalf("TypeOf(docx) = %q, want other", got)
	}
}

func TestParseRejectsBadFiles(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"no types":      `types: {}`,
		"unknown field": "types:\n  pdf: [pdf]\nextra: 1\n",
		"reserved":      "types:\n  other: [bin]\n",
		"no extensions": "types:\n  pdf: []\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(body)); err == nil {
				t.Fatalf("expected error for %q", body)
			}
		})
	}
}

func TestLoadDefaultsWithoutPath(t *testing.T) {
	types, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := types.TypeOf("pptx"); got != "presentation" {
		t.Fatalf("TypeOf(pptx) = %q", got)
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	if err := os.WriteFile(path, []byte("types:\n  cad: [dwg, dxf]\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	types, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !reflect.DeepEqual(types.Labels(), []string{"cad"}) {
		t.Fatalf("unexpected labels %v", types.Labels())
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
