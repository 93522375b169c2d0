package domain

import "testing"

func TestTokenizeUnicodeAndDigits(t *testing.T) {
	tokens := Tokenize("Informe_Anual 2024 — Gestión")
	want := []string{"informe", "anual", "2024", "gestión"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %v, got %v", want, tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, tokens)
		}
	}
}

func TestTextMatchAnyWordOrder(t *testing.T) {
	doc := &Document{Title: "Anual de calidad", Description: "Informe consolidado", OriginalFilename: "q.pdf"}
	if !TextMatch(doc, "informe anual") {
		t.Fatalf("expected words in any order to match")
	}
	if TextMatch(doc, "informe mensual") {
		t.Fatalf("expected missing word to fail")
	}
}

func TestTextMatchSearchesTags(t *testing.T) {
	doc := &Document{Title: "Plan", Tags: []string{"auditoria"}}
	if !TextMatch(doc, "auditoria") {
		t.Fatalf("expected tag match")
	}
}

func TestRelevanceBoostsTitle(t *testing.T) {
	inTitle := &Document{Title: "presupuesto"}
	inBody := &Document{Description: "presupuesto"}
	if Relevance(inTitle, "presupuesto") <= Relevance(inBody, "presupuesto") {
		t.Fatalf("expected title hit to outrank description hit")
	}
	if Relevance(inBody, "nada") != 0 {
		t.Fatalf("expected zero relevance for no match")
	}
}
