// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeCatalogFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestParseEmbedding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    []float32
		wantErr bool
	}{
		{"array", `[0.5, -1, 2]`, []float32{0.5, -1, 2}, false},
		{"json string", `"[0.5, -1, 2]"`, []float32{0.5, -1, 2}, false},
		{"null", `null`, nil, false},
		{"empty", ``, nil, false},
		{"garbage", `"not a vector"`, nil, true},
		{"object", `{"a":1}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseEmbedding([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEmbedding() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseEmbedding() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseEmbedding()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestJSONSource_JSONLines(t *testing.T) {
	t.Parallel()

	content := `{"business_id":"b1","name":"Bean There","categories":"Coffee & Tea, Cafes, coffee & tea","city":"Philadelphia","state":"PA","latitude":39.95,"longitude":-75.16,"stars":4.5,"embedding":"[1, 0, 0]"}

{"business_id":"b2","name":"Mystery Diner","categories":["Diners"],"city":"Philadelphia","state":"PA","embedding":[0, 1, 0]}
{not json}
{"business_id":"b3","name":"","embedding":[0, 0, 1]}
{"business_id":"b4","name":"No Vector","latitude":39.9,"longitude":-75.1}
{"business_id":"b5","name":"Bad Lat","latitude":123,"longitude":-75.1,"embedding":[1,1,1]}
`
	src := NewJSONSource(writeCatalogFile(t, "catalog.jsonl", content), zerolog.Nop())

	records, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Load() returned %d records, want 2", len(records))
	}

	b1 := records[0]
	if b1.ID != "b1" || !b1.StarsKnown || b1.Stars != 4.5 {
		t.Errorf("b1 = %+v, want known 4.5 stars", b1)
	}
	if len(b1.Categories) != 2 || b1.Categories[0] != "coffee & tea" || b1.Categories[1] != "cafes" {
		t.Errorf("b1 categories = %v, want [coffee & tea cafes]", b1.Categories)
	}
	if !b1.Location.Valid() {
		t.Error("b1 location should be valid")
	}

	b2 := records[1]
	if b2.StarsKnown {
		t.Error("b2 stars should be unknown")
	}
	if b2.RatingLabel() != "rating unknown" {
		t.Errorf("b2 RatingLabel() = %q", b2.RatingLabel())
	}
	if b2.Location.Valid() {
		t.Error("b2 without coordinates should have a missing location")
	}
	if !b2.HasCategory("Diners") {
		t.Errorf("b2 categories = %v, want diners", b2.Categories)
	}
}

func TestJSONSource_Array(t *testing.T) {
	t.Parallel()

	content := `  [
		{"business_id":"x","name":"X","embedding":[1,2]},
		{"business_id":"y","name":"Y","embedding":"[3,4]","stars":3}
	]`
	src := NewJSONSource(writeCatalogFile(t, "catalog.json", content), zerolog.Nop())

	records, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 2 || records[1].Embedding[1] != 4 {
		t.Fatalf("Load() = %+v", records)
	}
	if src.Name() == "" {
		t.Error("Name() is empty")
	}
}

func TestJSONSource_MissingFile(t *testing.T) {
	t.Parallel()

	src := NewJSONSource(filepath.Join(t.TempDir(), "absent.json"), zerolog.Nop())
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("Load() of a missing file should error")
	}
}

func TestParseCategories(t *testing.T) {
	t.Parallel()

	got := ParseCategories(" Pizza ,, Italian,pizza , ")
	want := []string{"pizza", "italian"}
	if !equalIDs(got, want) {
		t.Errorf("ParseCategories() = %v, want %v", got, want)
	}
	if got := ParseCategories(""); len(got) != 0 {
		t.Errorf("ParseCategories(\"\") = %v, want empty", got)
	}
}
