package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"recipebox/internal/services"
)

const sampleImage = "data:image/jpeg;base64,/9j/4AAQSkZJRg=="

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}
}

func TestAnalyzeImageSendsImagePartAndServings(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Fatal("expected request id header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		completionHandler(t, "Tomato Soup\nServes 4\n- 4 tomatoes")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "vision-model"})
	result := client.AnalyzeImage(context.Background(), sampleImage, 4, nil)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if !strings.HasPrefix(result.Analysis, "Tomato Soup") {
		t.Fatalf("unexpected analysis %q", result.Analysis)
	}

	if captured["model"] != "vision-model" {
		t.Fatalf("unexpected model %v", captured["model"])
	}
	messages := captured["messages"].([]any)
	system := messages[0].(map[string]any)["content"].(string)
	if !strings.Contains(system, "exactly 4 servings") {
		t.Fatalf("system prompt missing servings: %q", system)
	}
	parts := messages[1].(map[string]any)["content"].([]any)
	image := parts[1].(map[string]any)
	if image["type"] != "image_url" {
		t.Fatalf("expected image_url part, got %v", image)
	}
	if image["image_url"].(map[string]any)["url"] != sampleImage {
		t.Fatalf("unexpected image url %v", image["image_url"])
	}
}

func TestAnalyzeImageGermanPrompt(t *testing.T) {
	var system string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var raw struct {
			Messages []struct {
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			t.Fatalf("decode: %v", err)
		}
		system = contentText(raw.Messages[0].Content)
		completionHandler(t, "Kartoffelsalat")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Language: "DE"})
	if result := client.AnalyzeImage(context.Background(), sampleImage, 6, nil); !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if !strings.Contains(system, "genau 6 Portionen") {
		t.Fatalf("expected german prompt, got %q", system)
	}
}

func TestAnalyzeImageValidatesInput(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	cases := []struct {
		name     string
		image    string
		servings int
	}{
		{"empty image", "", 2},
		{"not an image", "hello", 2},
		{"zero servings", sampleImage, 0},
		{"too many servings", sampleImage, 101},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := client.AnalyzeImage(context.Background(), tc.image, tc.servings, nil)
			if result.Success {
				t.Fatal("expected failure")
			}
			if !errors.Is(result.Cause(), services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", result.Cause())
			}
			if result.Error == "" {
				t.Fatal("expected user-facing error message")
			}
		})
	}
}

func TestDecodeAnalysisFallbacks(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message content", `{"choices":[{"message":{"content":"Pancakes\n2 eggs"}}]}`, "Pancakes\n2 eggs"},
		{"delta content", `{"choices":[{"delta":{"content":"Waffles"}}]}`, "Waffles"},
		{"legacy text", `{"choices":[{"text":"Crepes"}]}`, "Crepes"},
		{"content parts", `{"choices":[{"message":{"content":[{"type":"text","text":"Bread"}]}}]}`, "Bread"},
		{"analysis field", `{"analysis":"Lasagne\nServes 6"}`, "Lasagne\nServes 6"},
		{"bare string", `"Goulash"`, "Goulash"},
		{"plain body", "Risotto\n300 g rice", "Risotto\n300 g rice"},
		{"fenced content", "{\"choices\":[{\"message\":{\"content\":\"```text\\nStew\\n```\"}}]}", "Stew"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeAnalysis([]byte(tc.body))
			if err != nil {
				t.Fatalf("decodeAnalysis returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestDecodeAnalysisRejectsMalformed(t *testing.T) {
	for _, body := range []string{``, `{"foo":1}`, `[1,2]`, `{"choices":[{"message":{"content":""}}]}`, `{broken`} {
		if _, err := decodeAnalysis([]byte(body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestAnalyzeImageNon2xxExtractsMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"nested error", `{"error":{"message":"quota exhausted"}}`, "quota exhausted"},
		{"flat error", `{"error":"bad image"}`, "bad image"},
		{"message field", `{"message":"model offline"}`, "model offline"},
		{"no body", ``, "analysis service returned 503 Service Unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(Config{BaseURL: server.URL})
			result := client.AnalyzeImage(context.Background(), sampleImage, 2, nil)
			if result.Success {
				t.Fatal("expected failure")
			}
			if result.Error != tc.want {
				t.Fatalf("got error %q want %q", result.Error, tc.want)
			}
			if !errors.Is(result.Cause(), services.ErrExternal) {
				t.Fatalf("expected external marker, got %v", result.Cause())
			}
		})
	}
}

func TestAnalyzeImageDoesNotRetryByDefault(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if result := client.AnalyzeImage(context.Background(), sampleImage, 2, nil); result.Success {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestRescaleRetriesWhenConfigured(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		completionHandler(t, "Soup for 6")(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{BaseURL: server.URL, RetryAttempts: 3},
		WithRetryBackoff(10*time.Millisecond, 50*time.Millisecond),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	result := client.Rescale(context.Background(), "Soup for 4", 4, 6)
	if !result.Success || result.Analysis != "Soup for 6" {
		t.Fatalf("unexpected result %+v", result)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != 10*time.Millisecond || slept[1] != 20*time.Millisecond {
		t.Fatalf("unexpected backoff schedule %v", slept)
	}
}

func TestRescaleSendsTextAndCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw struct {
			Messages []struct {
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode: %v", err)
		}
		system := contentText(raw.Messages[0].Content)
		if !strings.Contains(system, "written for 4 servings") || !strings.Contains(system, "for 8 servings") {
			t.Fatalf("unexpected rescale prompt %q", system)
		}
		if user := contentText(raw.Messages[1].Content); user != "Soup\n2 carrots" {
			t.Fatalf("unexpected user content %q", user)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"analysis": "Soup\n4 carrots"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	result := client.Rescale(context.Background(), "Soup\n2 carrots", 4, 8)
	if !result.Success || result.Analysis != "Soup\n4 carrots" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRescaleValidatesCounts(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	for _, tc := range []struct{ from, to int }{{0, 2}, {2, 0}, {2, 101}} {
		result := client.Rescale(context.Background(), "Soup", tc.from, tc.to)
		if result.Success || !errors.Is(result.Cause(), services.ErrValidation) {
			t.Fatalf("expected validation failure for %+v, got %+v", tc, result)
		}
	}
	if result := client.Rescale(context.Background(), "  ", 2, 4); result.Success {
		t.Fatal("expected failure for empty text")
	}
}

func TestAnalyzeImageReportsMonotonicProgress(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, strings.Repeat("Long recipe line\n", 200)))
	defer server.Close()

	var mu sync.Mutex
	var seen []float64
	client := NewClient(Config{BaseURL: server.URL})
	result := client.AnalyzeImage(context.Background(), sampleImage, 2, func(fraction float64) {
		mu.Lock()
		seen = append(seen, fraction)
		mu.Unlock()
	})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(seen) < 2 {
		t.Fatalf("expected several progress reports, got %v", seen)
	}
	for i, v := range seen {
		if v <= 0 || v > progressCeiling {
			t.Fatalf("progress %v out of range", v)
		}
		if i > 0 && v <= seen[i-1] {
			t.Fatalf("progress not monotonic: %v", seen)
		}
	}
}

func TestAnalyzeImageTimeoutClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	result := client.AnalyzeImage(context.Background(), sampleImage, 2, nil)
	if result.Success {
		t.Fatal("expected timeout failure")
	}
	if !errors.Is(result.Cause(), services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", result.Cause())
	}
	if result.Error != "analysis service timed out" {
		t.Fatalf("unexpected message %q", result.Error)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "OK"))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer failing.Close()

	err := NewClient(Config{BaseURL: failing.URL}).HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected health check failure")
	}
	if !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("expected upstream message, got %v", err)
	}
}
