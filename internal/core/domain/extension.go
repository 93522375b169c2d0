package domain

import "strings"

// NoExtension is stored for filenames without a usable suffix.
const NoExtension = "no_extension"

// ExtensionFromFilename returns the lower-cased suffix after the last dot of
// the base name, or NoExtension when there is no dot or the dot is trailing.
func ExtensionFromFilename(filename string) string {
	name := strings.TrimSpace(filename)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return NoExtension
	}
	ext := strings.ToLower(strings.TrimSpace(name[dot+1:]))
	if ext == "" {
		return NoExtension
	}
	return ext
}

// NormalizeExtension cleans an extension supplied as a filter value
// (" .PDF" -> "pdf").
func NormalizeExtension(raw string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(raw), "."))
}
