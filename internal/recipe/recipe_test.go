package recipe_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"recipebox/internal/recipe"
	"recipebox/internal/services"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Tomato Soup\n4 tomatoes", "Tomato Soup"},
		{"\n\n  ## Apfelkuchen **\nMehl", "Apfelkuchen"},
		{"   ", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := recipe.DeriveTitle(tc.text); got != tc.want {
			t.Fatalf("DeriveTitle(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestDisplayTitleTruncatesOnlyForDisplay(t *testing.T) {
	long := strings.Repeat("ä", 60)
	display := recipe.DisplayTitle(long)
	if n := len([]rune(display)); n != recipe.MaxDisplayTitleRunes {
		t.Fatalf("expected %d runes, got %d (%q)", recipe.MaxDisplayTitleRunes, n, display)
	}
	if !strings.HasSuffix(display, "…") {
		t.Fatalf("expected ellipsis, got %q", display)
	}

	record := recipe.Record{Title: long}
	if record.EffectiveTitle() != long {
		t.Fatal("stored title must not be truncated")
	}
	if short := recipe.DisplayTitle("Soup"); short != "Soup" {
		t.Fatalf("short titles must be unchanged, got %q", short)
	}
	exact := strings.Repeat("x", recipe.MaxDisplayTitleRunes)
	if recipe.DisplayTitle(exact) != exact {
		t.Fatal("titles at the limit must be unchanged")
	}
}

func TestExtractServings(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int
		ok   bool
	}{
		{"english", "Pancakes\nServes 4\n2 eggs", 4, true},
		{"german plural", "Kartoffelsalat\nfür 8 Personen", 8, true},
		{"german singular", "Omelett für 1 Person", 1, true},
		{"portionen", "Suppe\n6 Portionen", 6, true},
		{"portion", "Snack\n1 portion", 1, true},
		{"first pattern wins", "serves 3\n10 portions", 3, true},
		{"case insensitive", "SERVES 12", 12, true},
		{"out of range", "serves 0", 0, false},
		{"too large", "Für 500 Personen", 0, false},
		{"no match", "Just some text", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := recipe.ExtractServings(tc.text)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("ExtractServings(%q) = (%d, %v), want (%d, %v)", tc.text, got, ok, tc.want, tc.ok)
			}
		})
	}
	if got := recipe.ServingsOrDefault("nothing here"); got != recipe.DefaultServings {
		t.Fatalf("expected default servings, got %d", got)
	}
}

func TestMetaOfDropsDataURIImages(t *testing.T) {
	record := recipe.Record{ID: "1", Analysis: "Soup\n...", Image: "data:image/png;base64,AAAA", CreatedAt: time.Now()}
	meta := recipe.MetaOf(record)
	if meta.ImageURL != "" {
		t.Fatalf("expected data uri to be dropped, got %q", meta.ImageURL)
	}
	if meta.Title != "Soup" {
		t.Fatalf("expected derived title, got %q", meta.Title)
	}

	record.Image = "https://cdn.example.com/r/1.jpg"
	if got := recipe.MetaOf(record).Record().Image; got != record.Image {
		t.Fatalf("expected remote url to survive round trip, got %q", got)
	}
}

func TestParseViewAndRole(t *testing.T) {
	if v, err := recipe.ParseView(" Manual-Recipes "); err != nil || v != recipe.ViewManualRecipes {
		t.Fatalf("unexpected view %q (%v)", v, err)
	}
	if _, err := recipe.ParseView("settings"); err == nil {
		t.Fatal("expected error for unknown view")
	}
	if recipe.ParseRole("ADMIN") != recipe.RoleAdmin || recipe.ParseRole("chef") != recipe.RoleGuest {
		t.Fatal("unexpected role parsing")
	}
	if recipe.ParseStatus("Approved") != recipe.StatusApproved || recipe.ParseStatus("") != recipe.StatusPending {
		t.Fatal("unexpected status parsing")
	}
}

func TestSessionFromToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u-1", "role": "worker"})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	userID, role, ok := recipe.SessionFromToken("Bearer " + signed)
	if !ok || userID != "u-1" || role != recipe.RoleWorker {
		t.Fatalf("unexpected session (%q, %q, %v)", userID, role, ok)
	}
	if _, role, ok := recipe.SessionFromToken("not-a-token"); ok || role != recipe.RoleGuest {
		t.Fatalf("expected guest for garbage token, got %q %v", role, ok)
	}
}

func TestValidate(t *testing.T) {
	if err := recipe.Validate("manual", recipe.ManualEntry{Text: "Soup", Servings: 4}); err != nil {
		t.Fatalf("expected valid entry, got %v", err)
	}
	err := recipe.Validate("manual", recipe.ManualEntry{Servings: 101})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "text is required") || !strings.Contains(err.Error(), "servings must be at most 100") {
		t.Fatalf("expected field details, got %v", err)
	}
	if err := recipe.Validate("folder", recipe.FolderInput{Name: "Desserts", Color: "#ff8800"}); err != nil {
		t.Fatalf("expected valid folder, got %v", err)
	}
	if err := recipe.Validate("folder", recipe.FolderInput{Name: "Desserts", Color: "orange"}); err == nil {
		t.Fatal("expected invalid color to fail")
	}
	if err := recipe.Validate("analyze", recipe.AnalyzeInput{Image: "data:image/png;base64,AAAA", Servings: 3}); err != nil {
		t.Fatalf("expected valid analyze input, got %v", err)
	}
}
