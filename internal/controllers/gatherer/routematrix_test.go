package gatherer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jackc/pgtype"

	"commutewatch/internal/log"
	"commutewatch/internal/types"
	"commutewatch/pkg/config"
)

func TestMain(m *testing.M) {
	log.Init(false)
	os.Exit(m.Run())
}

func TestApplyElementSuccess(t *testing.T) {
	raw := []byte(`[{"originIndex":0,"destinationIndex":0,"status":{},"distanceMeters":45213,"duration":"3720s","condition":"ROUTE_EXISTS"}]`)

	var elements []routeMatrixElement
	if err := json.Unmarshal(raw, &elements); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	slot := &types.CommuteSlot{Direction: types.DirectionHomeToWork}
	applyElement(slot, &elements[0], raw)

	if slot.StatusCode == nil || *slot.StatusCode != "OK" {
		t.Errorf("StatusCode = %v, want OK", slot.StatusCode)
	}
	if slot.Duration == nil || *slot.Duration != "3720s" {
		t.Errorf("Duration = %v, want 3720s", slot.Duration)
	}
	if slot.DistanceMeters == nil || *slot.DistanceMeters != 45213 {
		t.Errorf("DistanceMeters = %v, want 45213", slot.DistanceMeters)
	}
	if slot.Condition == nil || *slot.Condition != "ROUTE_EXISTS" {
		t.Errorf("Condition = %v, want ROUTE_EXISTS", slot.Condition)
	}
	if slot.StatusMessage != nil {
		t.Errorf("StatusMessage = %q, want nil", *slot.StatusMessage)
	}
	if !slot.Gathered() {
		t.Error("Gathered() = false, want true")
	}
	if slot.Response.Status != pgtype.Present {
		t.Errorf("Response status = %v, want present", slot.Response.Status)
	}
}

func TestApplyElementErrorStatus(t *testing.T) {
	raw := []byte(`[{"originIndex":0,"destinationIndex":0,"status":{"code":5,"message":"Address not found"}}]`)

	var elements []routeMatrixElement
	if err := json.Unmarshal(raw, &elements); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	slot := &types.CommuteSlot{Direction: types.DirectionHomeToWork}
	applyElement(slot, &elements[0], raw)

	if slot.StatusCode == nil || *slot.StatusCode != "5" {
		t.Errorf("StatusCode = %v, want 5", slot.StatusCode)
	}
	if slot.StatusMessage == nil || *slot.StatusMessage != "Address not found" {
		t.Errorf("StatusMessage = %v, want Address not found", slot.StatusMessage)
	}
	if slot.Duration != nil {
		t.Errorf("Duration = %q, want nil", *slot.Duration)
	}
	if slot.Gathered() {
		t.Error("Gathered() = true, want false")
	}
	if slot.Pending() {
		t.Error("Pending() = true after attempt, want false")
	}
}

func TestMarkSlotFailureClearsResults(t *testing.T) {
	duration := "900s"
	distance := int32(12000)
	slot := &types.CommuteSlot{
		Duration:       &duration,
		DistanceMeters: &distance,
	}

	markSlotFailure(slot, "HTTP_429", "quota exceeded", []byte("<html>not json</html>"))

	if slot.StatusCode == nil || *slot.StatusCode != "HTTP_429" {
		t.Errorf("StatusCode = %v, want HTTP_429", slot.StatusCode)
	}
	if slot.StatusMessage == nil || *slot.StatusMessage != "quota exceeded" {
		t.Errorf("StatusMessage = %v, want quota exceeded", slot.StatusMessage)
	}
	if slot.Duration != nil {
		t.Errorf("Duration = %q, want nil", *slot.Duration)
	}
	if slot.DistanceMeters != nil {
		t.Errorf("DistanceMeters = %d, want nil", *slot.DistanceMeters)
	}
	if slot.Response.Status != pgtype.Null {
		t.Errorf("Response status = %v, want null for non JSON body", slot.Response.Status)
	}
	if slot.Pending() {
		t.Error("Pending() = true after failure marker, want false")
	}
}

func TestQueryRouteMatrix(t *testing.T) {
	var gotKey, gotMask string
	var gotBody routeMatrixRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Goog-Api-Key")
		gotMask = r.Header.Get("X-Goog-FieldMask")
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"originIndex":0,"destinationIndex":0,"status":{},"distanceMeters":30000,"duration":"1800s","condition":"ROUTE_EXISTS"}]`))
	}))
	defer server.Close()

	g := &GathererController{
		ctx: context.Background(),
		gathererConfig: config.GathererData{
			HomeAddress: "1 Home St",
			WorkAddress: "2 Work Ave",
			APIKey:      "test-key",
			APIEndpoint: server.URL + "/distanceMatrix/v2:computeRouteMatrix",
		},
		httpClient: server.Client(),
	}

	slot := &types.CommuteSlot{
		DepartureTime: "2026-01-12T17:30:00-08:00",
		Direction:     types.DirectionWorkToHome,
	}
	g.queryRouteMatrix(slot)

	if gotKey != "test-key" {
		t.Errorf("X-Goog-Api-Key = %q, want test-key", gotKey)
	}
	if gotMask != routesFieldMask {
		t.Errorf("X-Goog-FieldMask = %q, want %q", gotMask, routesFieldMask)
	}

	if len(gotBody.Origins) != 1 || len(gotBody.Destinations) != 1 {
		t.Fatalf("origins/destinations = %d/%d, want 1/1", len(gotBody.Origins), len(gotBody.Destinations))
	}
	// Work to home swaps origin and destination.
	if gotBody.Origins[0].Waypoint.Address != "2 Work Ave" {
		t.Errorf("origin = %q, want work address", gotBody.Origins[0].Waypoint.Address)
	}
	if gotBody.Destinations[0].Waypoint.Address != "1 Home St" {
		t.Errorf("destination = %q, want home address", gotBody.Destinations[0].Waypoint.Address)
	}
	if gotBody.TravelMode != "DRIVE" {
		t.Errorf("travelMode = %q, want DRIVE", gotBody.TravelMode)
	}
	if gotBody.RoutingPreference != "TRAFFIC_AWARE" {
		t.Errorf("routingPreference = %q, want TRAFFIC_AWARE", gotBody.RoutingPreference)
	}
	if gotBody.DepartureTime != slot.DepartureTime {
		t.Errorf("departureTime = %q, want %q", gotBody.DepartureTime, slot.DepartureTime)
	}

	if slot.StatusCode == nil || *slot.StatusCode != "OK" {
		t.Errorf("StatusCode = %v, want OK", slot.StatusCode)
	}
	if slot.Duration == nil || *slot.Duration != "1800s" {
		t.Errorf("Duration = %v, want 1800s", slot.Duration)
	}
}

func TestQueryRouteMatrixHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded"}}`))
	}))
	defer server.Close()

	g := &GathererController{
		ctx: context.Background(),
		gathererConfig: config.GathererData{
			HomeAddress: "1 Home St",
			WorkAddress: "2 Work Ave",
			APIKey:      "test-key",
			APIEndpoint: server.URL,
		},
		httpClient: server.Client(),
	}

	slot := &types.CommuteSlot{
		DepartureTime: "2026-01-12T07:30:00-08:00",
		Direction:     types.DirectionHomeToWork,
	}
	g.queryRouteMatrix(slot)

	if slot.StatusCode == nil || *slot.StatusCode != "HTTP_429" {
		t.Errorf("StatusCode = %v, want HTTP_429", slot.StatusCode)
	}
	if slot.StatusMessage == nil || *slot.StatusMessage == "" {
		t.Error("StatusMessage not recorded for HTTP failure")
	}
	if slot.Duration != nil {
		t.Errorf("Duration = %q, want nil", *slot.Duration)
	}
	// The error body is valid JSON so it is kept for inspection.
	if slot.Response.Status != pgtype.Present {
		t.Errorf("Response status = %v, want present", slot.Response.Status)
	}
}
