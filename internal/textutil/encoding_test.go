package textutil

import (
	"testing"

	"golang.org/x/text/unicode/norm"
)

func TestRepairEncodingFixesKnownSequences(t *testing.T) {
	cases := map[string]string{
		"nÃ£o":             "não",
		"informaÃ§Ãµes":    "informações",
		"vocÃª estÃ¡":      "você está",
		"Ãšltimo":          "Último",
		"Ãƒ":               "Ã",
		"Ã€ tarde":         "À tarde",
		"polÃ\u00adtica":   "política",
		"Ã‰ isso":          "É isso",
		"Ã\u0081rea":       "Área",
		"Ã\u008dndice":     "Índice",
		"Ã“rbita":          "Órbita",
		"plain ascii text": "plain ascii text",
	}
	for in, want := range cases {
		if got := RepairEncoding(in); got != want {
			t.Errorf("RepairEncoding(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRepairEncodingNormalizesNFC(t *testing.T) {
	decomposed := "água"
	got := RepairEncoding(decomposed)
	if got != "água" {
		t.Fatalf("expected composed form, got %q", got)
	}
	if !norm.NFC.IsNormalString(got) {
		t.Fatal("result is not NFC")
	}
}

func TestRepairEncodingIdempotent(t *testing.T) {
	in := "informaÃ§Ã£o e aÃ§Ã£o"
	once := RepairEncoding(in)
	if twice := RepairEncoding(once); twice != once {
		t.Fatalf("not idempotent: %q then %q", once, twice)
	}
	if RepairEncoding("") != "" {
		t.Fatal("empty input should stay empty")
	}
}

func TestAppendSpaced(t *testing.T) {
	cases := []struct {
		base, next, want string
	}{
		{"hello", "world", "hello world"},
		{"hello ", " world", "hello world"},
		{"", "world", "world"},
		{"hello", "", "hello"},
		{"hello", "   ", "hello"},
	}
	for _, tc := range cases {
		if got := AppendSpaced(tc.base, tc.next); got != tc.want {
			t.Errorf("AppendSpaced(%q, %q) = %q, want %q", tc.base, tc.next, got, tc.want)
		}
	}
}
