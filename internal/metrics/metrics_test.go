// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOriginQueryCountsFailures(t *testing.T) {
	before := testutil.ToFloat64(OriginFailures.WithLabelValues("all_events", "EXTERNAL"))

	RecordOriginQuery("all_events", "EXTERNAL", 10*time.Millisecond, nil)
	RecordOriginQuery("all_events", "EXTERNAL", 10*time.Millisecond, errors.New("mongo down"))

	after := testutil.ToFloat64(OriginFailures.WithLabelValues("all_events", "EXTERNAL"))
	if after-before != 1 {
		t.Errorf("failures delta = %v, want 1", after-before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/events", "200"))

	RecordAPIRequest("GET", "/api/v1/events", 200, 5*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/events", "200"))
	if after-before != 1 {
		t.Errorf("requests delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}
