// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSearch(t *testing.T) {
	before := testutil.ToFloat64(SearchTotal.WithLabelValues(OutcomeServed))
	RecordSearch(OutcomeServed, 3, 2*time.Millisecond)
	after := testutil.ToFloat64(SearchTotal.WithLabelValues(OutcomeServed))

	if after-before != 1 {
		t.Errorf("SearchTotal{served} delta = %v, want 1", after-before)
	}
}

func TestRecordFeedback(t *testing.T) {
	tests := []string{FeedbackLike, FeedbackDislike, FeedbackNext}

	for _, kind := range tests {
		before := testutil.ToFloat64(FeedbackTotal.WithLabelValues(kind))
		RecordFeedback(kind)
		if got := testutil.ToFloat64(FeedbackTotal.WithLabelValues(kind)) - before; got != 1 {
			t.Errorf("FeedbackTotal{%s} delta = %v, want 1", kind, got)
		}
	}
}

func TestRecordCatalogRefresh(t *testing.T) {
	skippedBefore := testutil.ToFloat64(CatalogSkipped.WithLabelValues("degenerate_embedding"))
	RecordCatalogRefresh(42, map[string]int{"degenerate_embedding": 2}, time.Second, nil)

	if got := testutil.ToFloat64(CatalogRecords); got != 42 {
		t.Errorf("CatalogRecords = %v, want 42", got)
	}
	if got := testutil.ToFloat64(CatalogSkipped.WithLabelValues("degenerate_embedding")) - skippedBefore; got != 2 {
		t.Errorf("CatalogSkipped delta = %v, want 2", got)
	}

	errorsBefore := testutil.ToFloat64(CatalogRefreshErrors)
	RecordCatalogRefresh(0, nil, time.Second, errors.New("source unavailable"))
	if got := testutil.ToFloat64(CatalogRefreshErrors) - errorsBefore; got != 1 {
		t.Errorf("CatalogRefreshErrors delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CatalogRecords); got != 42 {
		t.Errorf("CatalogRecords after failed refresh = %v, want 42 (unchanged)", got)
	}
}

func TestRecordCollaboratorCall(t *testing.T) {
	RecordCollaboratorCall("geocoder", 10*time.Millisecond, nil)
	RecordCollaboratorCall("geocoder", 10*time.Millisecond, errors.New("timeout"))

	if n := testutil.CollectAndCount(CollaboratorDuration); n < 2 {
		t.Errorf("CollaboratorDuration series = %d, want at least 2", n)
	}
}
