package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", Auto},
		{"auto", Auto},
		{" AUTO ", Auto},
		{"en", "en"},
		{"pt-br", "pt-BR"},
		{"pt_BR", "pt-BR"},
		{"ES", "es"},
	}
	for _, tc := range tests {
		got, err := Normalize(tc.in)
		if err != nil {
			t.Fatalf("Normalize(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"not a language", "123"} {
		if _, err := Normalize(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestChoicesAreCanonical(t *testing.T) {
	for _, choice := range Choices {
		got, err := Normalize(choice)
		if err != nil {
			t.Fatalf("choice %q failed to normalize: %v", choice, err)
		}
		if got != choice {
			t.Fatalf("choice %q is not canonical (got %q)", choice, got)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("auto"); got != "Automatic detection" {
		t.Fatalf("unexpected auto label: %q", got)
	}
	if got := DisplayName("en"); got != "English" {
		t.Fatalf("unexpected english label: %q", got)
	}
	if got := DisplayName("??"); got != "??" {
		t.Fatalf("expected passthrough for unparseable hint, got %q", got)
	}
}
