package domain

import "testing"

func TestExtensionFromFilename(t *testing.T) {
	cases := map[string]string{
		"Informe Anual.PDF":        "pdf",
		"archive.tar.GZ":           "gz",
		"README":                   NoExtension,
		"trailing.":                NoExtension,
		"":                         NoExtension,
		"  spaced.Docx  ":          "docx",
		"dir.v2/plain":             NoExtension,
		`C:\docs\budget.v3.xlsx`:   "xlsx",
		".env":                     "env",
		"folder/sub.dir/photo.JPG": "jpg",
	}
	for name, want := range cases {
		if got := ExtensionFromFilename(name); got != want {
			t.Fatalf("ExtensionFromFilename(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSetFilenameRederivesExtension(t *testing.T) {
	doc := &Document{}
	doc.SetFilename("minutes.DOCX")
	if doc.Extension != "docx" {
		t.Fatalf("expected docx, got %q", doc.Extension)
	}
	doc.SetFilename("minutes")
	if doc.Extension != NoExtension {
		t.Fatalf("expected %q after rename, got %q", NoExtension, doc.Extension)
	}
}

func TestNormalizeExtension(t *testing.T) {
	if got := NormalizeExtension(" .PDF "); got != "pdf" {
		t.Fatalf("expected pdf, got %q", got)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Finanzas", "calidad", "finanzas", "", "ISO"})
	want := []string{"calidad", "finanzas", "iso"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
