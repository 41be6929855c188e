package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"recipebox/internal/recipe"
	"recipebox/internal/services"
	"recipebox/internal/services/backend"
	"recipebox/internal/testsupport"
)

type recordingMirror struct {
	mu       sync.Mutex
	mirrored []recipe.Meta
	upserted []recipe.Meta
	removed  []string
	err      error
}

func (m *recordingMirror) MirrorRecipes(_ context.Context, metas []recipe.Meta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mirrored = metas
	return m.err
}

func (m *recordingMirror) UpsertRecipeMeta(_ context.Context, meta recipe.Meta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, meta)
	return m.err
}

func (m *recordingMirror) RemoveRecipeMeta(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, id)
	return m.err
}

func TestCreateRecipeSendsBearerAndMirrors(t *testing.T) {
	var gotAuth, gotPath, gotMethod string
	var gotBody recipe.Record
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		created := gotBody
		created.ID = "r-1"
		_ = json.NewEncoder(w).Encode(created)
	}))
	defer server.Close()

	mirror := &recordingMirror{}
	client := backend.NewClient(backend.Config{BaseURL: server.URL + "/", Token: "static"},
		backend.WithMirror(mirror),
		backend.WithTokenSource(func(context.Context) string { return "session-token" }),
	)
	created, err := client.CreateRecipe(context.Background(), recipe.Record{
		Title:    "Soup",
		Analysis: "Soup\nServes 4",
		Image:    "data:image/png;base64,AAAA",
	})
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if created.ID != "r-1" {
		t.Fatalf("unexpected id %q", created.ID)
	}
	if gotMethod != http.MethodPost || gotPath != "/recipes" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
	if gotAuth != "Bearer session-token" {
		t.Fatalf("expected session token to win, got %q", gotAuth)
	}
	if gotBody.Image == "" {
		t.Fatal("expected image payload to reach the backend")
	}
	if len(mirror.upserted) != 1 {
		t.Fatalf("expected one mirrored entry, got %d", len(mirror.upserted))
	}
	if mirror.upserted[0].ImageURL != "" {
		t.Fatalf("mirror must not carry data URI images, got %q", mirror.upserted[0].ImageURL)
	}
}

func TestStaticTokenUsedWhenSessionEmpty(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id":"u1","name":"Ada","role":"ADMIN"}`))
	}))
	defer server.Close()

	client := backend.NewClient(backend.Config{BaseURL: server.URL, Token: "static"},
		backend.WithTokenSource(func(context.Context) string { return "" }))
	user, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if gotAuth != "Bearer static" {
		t.Fatalf("expected static token, got %q", gotAuth)
	}
	if user.Role != recipe.RoleAdmin {
		t.Fatalf("expected normalized admin role, got %q", user.Role)
	}
}

func TestNoAuthorizationWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Fatalf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := backend.NewClient(backend.Config{BaseURL: server.URL})
	if _, err := client.ListUsers(context.Background()); err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
}

func TestListRecipesAcceptsWrappedListAndMirrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"recipes":[
			{"id":"a","title":"A","analysis":"A","image":"https://cdn.example.com/a.png","created_at":"2024-01-02T00:00:00Z"},
			{"id":"b","title":"B","analysis":"B","image":"data:image/png;base64,AAAA","created_at":"2024-01-01T00:00:00Z"}
		]}`))
	}))
	defer server.Close()

	mirror := &recordingMirror{}
	client := backend.NewClient(backend.Config{BaseURL: server.URL}, backend.WithMirror(mirror))
	records, err := client.ListRecipes(context.Background())
	if err != nil {
		t.Fatalf("ListRecipes: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if len(mirror.mirrored) != 2 {
		t.Fatalf("expected mirror of 2, got %d", len(mirror.mirrored))
	}
	if mirror.mirrored[0].ImageURL != "https://cdn.example.com/a.png" || mirror.mirrored[1].ImageURL != "" {
		t.Fatalf("unexpected mirrored images: %+v", mirror.mirrored)
	}
}

func TestMirrorFailureIsSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a","title":"A"}]`))
	}))
	defer server.Close()

	mirror := &recordingMirror{err: services.Wrap(services.ErrQuota, "localstore", "put", "full", nil)}
	client := backend.NewClient(backend.Config{BaseURL: server.URL}, backend.WithMirror(mirror))
	if _, err := client.ListRecipes(context.Background()); err != nil {
		t.Fatalf("mirror failure must not surface: %v", err)
	}
}

func TestStatusErrorsAreClassified(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		marker error
		text   string
	}{
		{"not found", http.StatusNotFound, `{"error":"no such recipe"}`, services.ErrNotFound, "no such recipe"},
		{"forbidden", http.StatusForbidden, `{"message":"admins only"}`, services.ErrValidation, "admins only"},
		{"server", http.StatusBadGateway, `{"error":{"message":"upstream down"}}`, services.ErrTransient, "upstream down"},
		{"teapot", http.StatusTeapot, ``, services.ErrExternal, "http 418"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := backend.NewClient(backend.Config{BaseURL: server.URL})
			err := client.SetApproval(context.Background(), "r1", recipe.StatusApproved)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			if !strings.Contains(err.Error(), tc.text) {
				t.Fatalf("expected %q in %q", tc.text, err.Error())
			}
		})
	}
}

func TestUnconfiguredClientFails(t *testing.T) {
	client := backend.NewClient(backend.Config{})
	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}
	if _, err := client.ListRecipes(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestUpdateAndDeleteRecipe(t *testing.T) {
	var patched map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			if r.URL.Path != "/recipes/r 1" {
				t.Fatalf("unexpected path %q", r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&patched)
			_, _ = w.Write([]byte(`{"title":"New","analysis":"New text"}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	mirror := &recordingMirror{}
	client := backend.NewClient(backend.Config{BaseURL: server.URL}, backend.WithMirror(mirror))
	title := "New"
	fav := false
	updated, err := client.UpdateRecipe(context.Background(), "r 1", backend.RecipePatch{Title: &title, Favorite: &fav})
	if err != nil {
		t.Fatalf("UpdateRecipe: %v", err)
	}
	if updated.ID != "r 1" {
		t.Fatalf("expected id to be filled in, got %q", updated.ID)
	}
	if patched["title"] != "New" || patched["favorite"] != false {
		t.Fatalf("unexpected patch body %v", patched)
	}
	if _, ok := patched["analysis"]; ok {
		t.Fatalf("unset fields must be omitted: %v", patched)
	}
	if err := client.DeleteRecipe(context.Background(), "r 1"); err != nil {
		t.Fatalf("DeleteRecipe: %v", err)
	}
	if len(mirror.removed) != 1 || mirror.removed[0] != "r 1" {
		t.Fatalf("expected mirror removal, got %v", mirror.removed)
	}
}

func TestComments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recipes/r1/comments" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.Method == http.MethodPost {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			_ = json.NewEncoder(w).Encode(recipe.Comment{ID: "c2", RecipeID: "r1", Body: body["body"]})
			return
		}
		_, _ = w.Write([]byte(`[{"id":"c1","recipe_id":"r1","body":"tasty"}]`))
	}))
	defer server.Close()

	client := backend.NewClient(backend.Config{BaseURL: server.URL})
	comments, err := client.ListComments(context.Background(), "r1")
	if err != nil || len(comments) != 1 || comments[0].Body != "tasty" {
		t.Fatalf("unexpected comments %+v err=%v", comments, err)
	}
	if _, err := client.AddComment(context.Background(), "r1", "   "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blank comment, got %v", err)
	}
	added, err := client.AddComment(context.Background(), "r1", " more salt ")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if added.Body != "more salt" {
		t.Fatalf("unexpected body %q", added.Body)
	}
}

func TestLocalBackendRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	local := backend.NewLocal(store)
	ctx := context.Background()

	created, err := local.CreateRecipe(ctx, recipe.Record{Analysis: "# Pancakes\nServes 3"})
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if created.ID == "" || created.Title != "Pancakes" || created.CreatedAt.IsZero() {
		t.Fatalf("unexpected created record %+v", created)
	}
	if created.Status != recipe.StatusPending {
		t.Fatalf("expected pending status, got %q", created.Status)
	}

	fav := true
	updated, err := local.UpdateRecipe(ctx, created.ID, backend.RecipePatch{Favorite: &fav})
	if err != nil || !updated.Favorite {
		t.Fatalf("UpdateRecipe: %+v err=%v", updated, err)
	}
	list, err := local.ListRecipes(ctx)
	if err != nil || len(list) != 1 || !list[0].Favorite {
		t.Fatalf("unexpected list %+v err=%v", list, err)
	}
	if err := local.DeleteRecipe(ctx, created.ID); err != nil {
		t.Fatalf("DeleteRecipe: %v", err)
	}
	if _, err := local.GetRecipe(ctx, created.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
