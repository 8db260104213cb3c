// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/wayfinder/internal/config"
)

func newNominatim(t *testing.T, handler http.HandlerFunc) (*NominatimGeocoder, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	g := NewNominatimGeocoder(&config.GeocoderConfig{
		BaseURL:       srv.URL,
		UserAgent:     "wayfinder-test",
		RatePerSecond: 1000,
		CacheTTL:      time.Minute,
		Timeout:       5 * time.Second,
	}, zerolog.Nop())
	return g, &hits
}

func TestNominatimGeocoder_Resolves(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var gotQuery, gotAgent, gotFormat string
	g, hits := newNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotQuery = r.URL.Query().Get("q")
		gotFormat = r.URL.Query().Get("format")
		gotAgent = r.Header.Get("User-Agent")
		mu.Unlock()
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `[{"lat":"39.9526","lon":"-75.1652","display_name":"Philadelphia, PA"}]`)
	})

	p, err := g.Geocode(context.Background(), "  Philadelphia, PA ")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if math.Abs(p.Lat-39.9526) > 1e-9 || math.Abs(p.Lon+75.1652) > 1e-9 {
		t.Errorf("point = %v", p)
	}
	mu.Lock()
	if gotQuery != "Philadelphia, PA" {
		t.Errorf("q = %q", gotQuery)
	}
	if gotFormat != "jsonv2" {
		t.Errorf("format = %q", gotFormat)
	}
	if gotAgent != "wayfinder-test" {
		t.Errorf("User-Agent = %q", gotAgent)
	}
	mu.Unlock()

	// Cached, case-insensitively.
	if _, err := g.Geocode(context.Background(), "philadelphia, pa"); err != nil {
		t.Fatalf("cached Geocode: %v", err)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}

func TestNominatimGeocoder_NotFoundIsCached(t *testing.T) {
	t.Parallel()

	g, hits := newNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	for i := 0; i < 2; i++ {
		p, err := g.Geocode(context.Background(), "Atlantis")
		if !errors.Is(err, ErrPlaceNotFound) {
			t.Fatalf("call %d: err = %v, want ErrPlaceNotFound", i, err)
		}
		if p.Valid() {
			t.Errorf("call %d: point %v should be missing", i, p)
		}
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}

func TestNominatimGeocoder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "server error", body: `oops`, code: http.StatusInternalServerError},
		{name: "bad json", body: `{not json`, code: http.StatusOK},
		{name: "bad latitude", body: `[{"lat":"north","lon":"1"}]`, code: http.StatusOK},
		{name: "out of range", body: `[{"lat":"95","lon":"1"}]`, code: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, _ := newNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				fmt.Fprint(w, tt.body)
			})
			_, err := g.Geocode(context.Background(), "Somewhere")
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrPlaceNotFound) {
				t.Errorf("err = %v, should not be ErrPlaceNotFound", err)
			}
		})
	}
}

func TestNominatimGeocoder_EmptyPlace(t *testing.T) {
	t.Parallel()

	g, hits := newNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	if _, err := g.Geocode(context.Background(), "   "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("err = %v, want ErrEmptyInput", err)
	}
	if n := atomic.LoadInt32(hits); n != 0 {
		t.Errorf("server hits = %d, want 0", n)
	}
}

func TestNominatimGeocoder_RateLimitHonorsContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"lat":"1","lon":"1"}]`)
	}))
	t.Cleanup(srv.Close)

	g := NewNominatimGeocoder(&config.GeocoderConfig{
		BaseURL:       srv.URL,
		RatePerSecond: 0.001,
	}, zerolog.Nop())

	if _, err := g.Geocode(context.Background(), "first"); err != nil {
		t.Fatalf("first Geocode: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := g.Geocode(ctx, "second"); err == nil {
		t.Fatal("expected the rate limiter to give up before the deadline")
	}
}

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) (string, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1", &hits
}

func TestOpenAIEmbedder_EmbedsAndCaches(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var gotInput []string
	baseURL, hits := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		_ = json.Unmarshal(body, &req)
		mu.Lock()
		gotInput = req.Input
		mu.Unlock()
		fmt.Fprint(w, `{"object":"list","model":"all-minilm","data":[{"object":"embedding","index":0,"embedding":[0.5,0.25,1]}]}`)
	})

	e := NewOpenAIEmbedder(&config.EmbeddingConfig{
		BaseURL:   baseURL,
		APIKey:    "test",
		Model:     "all-minilm",
		CacheSize: 8,
		Timeout:   5 * time.Second,
	}, zerolog.Nop())

	v, err := e.Embed(context.Background(), "  coffee ")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	want := []float32{0.5, 0.25, 1}
	if len(v) != len(want) {
		t.Fatalf("len = %d, want %d", len(v), len(want))
	}
	for i := range want {
		if v[i] != want[i] {
			t.Errorf("v[%d] = %v, want %v", i, v[i], want[i])
		}
	}
	mu.Lock()
	if len(gotInput) != 1 || gotInput[0] != "coffee" {
		t.Errorf("input = %v", gotInput)
	}
	mu.Unlock()

	// Mutating a returned vector must not leak into the cache.
	v[0] = 99

	again, err := e.Embed(context.Background(), "coffee")
	if err != nil {
		t.Fatalf("cached Embed: %v", err)
	}
	if again[0] != 0.5 {
		t.Errorf("cached vector was mutated: %v", again)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}

func TestOpenAIEmbedder_Errors(t *testing.T) {
	t.Parallel()

	baseURL, _ := newOpenAIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"object":"list","model":"m","data":[]}`)
	})
	e := NewOpenAIEmbedder(&config.EmbeddingConfig{BaseURL: baseURL, Model: "m"}, zerolog.Nop())

	if _, err := e.Embed(context.Background(), ""); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("blank text: err = %v, want ErrEmptyInput", err)
	}
	if _, err := e.Embed(context.Background(), "coffee"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("no data: err = %v, want ErrEmptyResponse", err)
	}
}

func TestOpenAIGenerator_Complete(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var messages []map[string]string
	baseURL, _ := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []map[string]string `json:"messages"`
		}
		_ = json.Unmarshal(body, &req)
		mu.Lock()
		messages = req.Messages
		mu.Unlock()
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",`+
			`"choices":[{"index":0,"message":{"role":"assistant","content":"  Try Cafe One.  "},"finish_reason":"stop"}],`+
			`"usage":{"prompt_tokens":10,"completion_tokens":4,"total_tokens":14}}`)
	})

	g := NewOpenAIGenerator(&config.GenerationConfig{BaseURL: baseURL, Model: "m", MaxTokens: 64}, zerolog.Nop())
	out, err := g.Complete(context.Background(), "Describe Cafe One.")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "Try Cafe One." {
		t.Errorf("out = %q", out)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(messages) != 2 {
		t.Fatalf("messages = %v", messages)
	}
	if messages[0]["role"] != "system" || !strings.Contains(messages[0]["content"], "Do not invent") {
		t.Errorf("system message = %v", messages[0])
	}
	if messages[1]["role"] != "user" || messages[1]["content"] != "Describe Cafe One." {
		t.Errorf("user message = %v", messages[1])
	}
}

func TestOpenAIGenerator_NoChoices(t *testing.T) {
	t.Parallel()

	baseURL, _ := newOpenAIServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	})
	g := NewOpenAIGenerator(&config.GenerationConfig{BaseURL: baseURL, Model: "m"}, zerolog.Nop())

	if _, err := g.Complete(context.Background(), "hello"); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
	if _, err := g.Complete(context.Background(), " "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("err = %v, want ErrEmptyInput", err)
	}
}

func testBreakerConfig() *config.BreakerConfig {
	return &config.BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  1,
	}
}

func TestBreakerGeocoder_OpensOnFailures(t *testing.T) {
	t.Parallel()

	g, hits := newNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	b := NewBreaker("geocoder-open-test", testBreakerConfig(), zerolog.Nop())
	guarded := NewBreakerGeocoder(g, b)

	if _, err := guarded.Geocode(context.Background(), "first"); err == nil {
		t.Fatal("expected upstream error")
	}
	if b.State() != "open" {
		t.Fatalf("state = %s, want open", b.State())
	}

	p, err := guarded.Geocode(context.Background(), "second")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if p.Valid() {
		t.Errorf("point %v should be missing", p)
	}
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("server hits = %d, want 1 (open circuit must not call upstream)", n)
	}
}

func TestBreakerGeocoder_NotFoundKeepsCircuitClosed(t *testing.T) {
	t.Parallel()

	g, _ := newNominatim(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	b := NewBreaker("geocoder-notfound-test", testBreakerConfig(), zerolog.Nop())
	guarded := NewBreakerGeocoder(g, b)

	for _, place := range []string{"Atlantis", "El Dorado", "Shangri-La"} {
		if _, err := guarded.Geocode(context.Background(), place); !errors.Is(err, ErrPlaceNotFound) {
			t.Fatalf("%s: err = %v, want ErrPlaceNotFound", place, err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("state = %s, want closed", b.State())
	}
}

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	return s.vec, s.err
}

type stubGenerator struct {
	out string
	err error
}

func (s stubGenerator) Complete(_ context.Context, _ string) (string, error) {
	return s.out, s.err
}

func TestBreakerEmbedderAndGenerator(t *testing.T) {
	t.Parallel()

	ok := &stubEmbedder{vec: []float32{1, 0}}
	e := NewBreakerEmbedder(ok, NewBreaker("embedder-ok-test", testBreakerConfig(), zerolog.Nop()))
	v, err := e.Embed(context.Background(), "x")
	if err != nil || len(v) != 2 {
		t.Fatalf("Embed = %v, %v", v, err)
	}

	failing := &stubEmbedder{err: errors.New("connection refused")}
	b := NewBreaker("embedder-fail-test", testBreakerConfig(), zerolog.Nop())
	fe := NewBreakerEmbedder(failing, b)
	_, _ = fe.Embed(context.Background(), "x")
	if _, err := fe.Embed(context.Background(), "x"); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if failing.calls != 1 {
		t.Errorf("calls = %d, want 1", failing.calls)
	}
	if b.Name() != "embedder-fail-test" {
		t.Errorf("Name = %q", b.Name())
	}

	gen := NewBreakerGenerator(stubGenerator{out: "hello"}, NewBreaker("generator-test", testBreakerConfig(), zerolog.Nop()))
	out, err := gen.Complete(context.Background(), "p")
	if err != nil || out != "hello" {
		t.Errorf("Complete = %q, %v", out, err)
	}
}

func TestIsSuccessful(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{nil, true},
		{fmt.Errorf("wrap: %w", ErrPlaceNotFound), true},
		{ErrEmptyInput, true},
		{context.Canceled, true},
		{context.DeadlineExceeded, false},
		{errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := isSuccessful(tt.err); got != tt.want {
			t.Errorf("isSuccessful(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

var (
	_ Geocoder      = (*BreakerGeocoder)(nil)
	_ Geocoder      = (*NominatimGeocoder)(nil)
	_ Embedder      = (*OpenAIEmbedder)(nil)
	_ TextGenerator = (*OpenAIGenerator)(nil)
)
