// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package validation

import (
	"math"
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type testRow struct {
	ID        string    `validate:"notblank"`
	Name      string    `validate:"required,max=20"`
	Latitude  *float64  `validate:"omitempty,latitude"`
	Longitude *float64  `validate:"omitempty,longitude"`
	Stars     *float64  `validate:"omitempty,gte=0,lte=5"`
	Embedding []float32 `validate:"required,min=1,finite"`
}

func ptr(f float64) *float64 { return &f }

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	valid := func() testRow {
		return testRow{
			ID:        "b1",
			Name:      "Cafe",
			Latitude:  ptr(39.95),
			Longitude: ptr(-75.16),
			Stars:     ptr(4.5),
			Embedding: []float32{1, 0},
		}
	}

	tests := []struct {
		name       string
		mutate     func(*testRow)
		wantFields []string
	}{
		{name: "valid", mutate: func(*testRow) {}},
		{name: "missing coordinates allowed", mutate: func(r *testRow) {
			r.Latitude = nil
			r.Longitude = nil
		}},
		{name: "blank id", mutate: func(r *testRow) { r.ID = "   " }, wantFields: []string{"ID"}},
		{name: "missing name", mutate: func(r *testRow) { r.Name = "" }, wantFields: []string{"Name"}},
		{name: "latitude out of range", mutate: func(r *testRow) { r.Latitude = ptr(95) }, wantFields: []string{"Latitude"}},
		{name: "longitude out of range", mutate: func(r *testRow) { r.Longitude = ptr(-200) }, wantFields: []string{"Longitude"}},
		{name: "stars above five", mutate: func(r *testRow) { r.Stars = ptr(6) }, wantFields: []string{"Stars"}},
		{name: "nan embedding", mutate: func(r *testRow) { r.Embedding = []float32{1, float32(math.NaN())} }, wantFields: []string{"Embedding"}},
		{name: "empty embedding", mutate: func(r *testRow) { r.Embedding = nil }, wantFields: []string{"Embedding"}},
		{name: "multiple", mutate: func(r *testRow) {
			r.ID = ""
			r.Stars = ptr(-1)
		}, wantFields: []string{"ID", "Stars"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			row := valid()
			tt.mutate(&row)
			err := ValidateStruct(&row)

			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want errors on %v", tt.wantFields)
			}
			got := err.Fields()
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("Fields() = %v, want %v", got, tt.wantFields)
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	t.Parallel()

	row := testRow{ID: "", Name: "a name that is far too long", Embedding: []float32{1}, Stars: ptr(9)}
	err := ValidateStruct(&row)
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{
		"ID must not be blank",
		"Name must be at most 20 characters",
		"Stars must be less than or equal to 5",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want it to contain %q", msg, want)
		}
	}

	for _, fe := range err.Errors() {
		if fe.Field() == "Stars" && (fe.Tag() != "lte" || fe.Param() != "5") {
			t.Errorf("Stars error tag/param = %s/%s, want lte/5", fe.Tag(), fe.Param())
		}
	}
}

type jsonRow struct {
	ID    string   `json:"business_id,omitempty" validate:"notblank"`
	Stars *float64 `json:"stars" validate:"omitempty,lte=5"`
	Note  string   `json:"-" validate:"max=3"`
}

func TestValidateStruct_ReportsJSONNames(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&jsonRow{Stars: ptr(7)})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := strings.Join(err.Fields(), ","); got != "business_id,stars" {
		t.Errorf("Fields() = %s, want business_id,stars", got)
	}
	if !strings.Contains(err.Error(), "business_id must not be blank") {
		t.Errorf("Error() = %q", err.Error())
	}
}
