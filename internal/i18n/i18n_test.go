package i18n_test

import (
	"testing"

	"recipebox/internal/i18n"
)

func TestPrinterLanguages(t *testing.T) {
	cases := []struct {
		lang string
		want string
		code string
	}{
		{"en", "Recipe adjusted to 4 servings", "en"},
		{"DE", "Rezept auf 4 Portionen angepasst", "de"},
		{"fr", "Recipe adjusted to 4 servings", "en"},
	}
	for _, tc := range cases {
		p := i18n.New(tc.lang)
		if got := p.Sprintf(i18n.MsgRescaled, 4); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.lang, got, tc.want)
		}
		if p.Language() != tc.code {
			t.Fatalf("%s: unexpected language %q", tc.lang, p.Language())
		}
	}
}

func TestPlaceholderCarriesReason(t *testing.T) {
	got := i18n.New("de").Sprintf(i18n.MsgAnalysisPlaceholder, "timeout")
	if got != "Das Rezept konnte nicht analysiert werden: timeout" {
		t.Fatalf("unexpected placeholder %q", got)
	}
}
