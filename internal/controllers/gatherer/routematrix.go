package gatherer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"commutewatch/internal/log"
	"commutewatch/internal/types"
)

const (
	defaultAPIEndpoint = "https://routes.googleapis.com/distanceMatrix/v2:computeRouteMatrix"
	routesFieldMask    = "duration,distanceMeters,status,condition"
	requestTimeout     = 30 * time.Second

	// The Routes API is rate limited, so long gathering passes pause briefly
	// every pauseEvery requests.
	pauseEvery  = 50
	pauseLength = 500 * time.Millisecond
)

// Status markers recorded when a slot cannot be gathered. HTTP failures are
// marked HTTP_<code>.
const (
	statusOK            = "OK"
	statusRequestError  = "REQUEST_ERROR"
	statusEmptyResponse = "EMPTY_RESPONSE"
)

type routeMatrixRequest struct {
	Origins           []routeMatrixWaypoint `json:"origins"`
	Destinations      []routeMatrixWaypoint `json:"destinations"`
	TravelMode        string                `json:"travelMode"`
	RoutingPreference string                `json:"routingPreference"`
	DepartureTime     string                `json:"departureTime"`
}

type routeMatrixWaypoint struct {
	Waypoint waypointAddress `json:"waypoint"`
}

type waypointAddress struct {
	Address string `json:"address"`
}

type routeMatrixElement struct {
	OriginIndex      int         `json:"originIndex"`
	DestinationIndex int         `json:"destinationIndex"`
	Status           routeStatus `json:"status"`
	DistanceMeters   int32       `json:"distanceMeters"`
	Duration         string      `json:"duration"`
	Condition        string      `json:"condition"`
}

type routeStatus struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// gatherPendingSlots queries the Routes API for every slot that has not been
// attempted yet and stores the results.
func (g *GathererController) gatherPendingSlots() (int, int, error) {
	var pending []types.CommuteSlot
	err := g.DB.DB.Where("status_code IS NULL OR status_code = ''").
		Order("departure_time_rfc3339").
		Find(&pending).Error
	if err != nil {
		return 0, 0, fmt.Errorf("error querying pending commute slots: %v", err)
	}

	if len(pending) == 0 {
		log.Info("No pending commute slots to gather")
		return 0, 0, nil
	}

	log.Infof("Gathering travel times for %d pending slot(s)", len(pending))

	gathered := 0
	failed := 0
	for i := range pending {
		if i > 0 && i%pauseEvery == 0 {
			log.Debugf("pausing %v after %d requests", pauseLength, i)
			select {
			case <-time.After(pauseLength):
			case <-g.ctx.Done():
				return gathered, failed, g.ctx.Err()
			}
		}

		ok, err := g.gatherSlot(&pending[i])
		if err != nil {
			return gathered, failed, err
		}
		if ok {
			gathered++
		} else {
			failed++
		}
	}

	log.Infof("Gathering pass complete: %d gathered, %d marked failed", gathered, failed)
	return gathered, failed, nil
}

// gatherSlot runs one Routes API query and persists the outcome. The slot is
// always saved, either with results or with an error marker, so a bad slot is
// not retried forever.
func (g *GathererController) gatherSlot(slot *types.CommuteSlot) (bool, error) {
	g.queryRouteMatrix(slot)

	if err := g.DB.DB.Save(slot).Error; err != nil {
		return false, fmt.Errorf("error saving commute slot %d: %v", slot.ID, err)
	}

	return slot.Gathered(), nil
}

// queryRouteMatrix posts a single origin/destination matrix request for the
// slot and writes the outcome into its result fields. Failures are recorded
// as status markers rather than returned as errors.
func (g *GathererController) queryRouteMatrix(slot *types.CommuteSlot) {
	origin := g.gathererConfig.HomeAddress
	destination := g.gathererConfig.WorkAddress
	if slot.Direction == types.DirectionWorkToHome {
		origin, destination = destination, origin
	}

	matrixRequest := routeMatrixRequest{
		Origins:           []routeMatrixWaypoint{{Waypoint: waypointAddress{Address: origin}}},
		Destinations:      []routeMatrixWaypoint{{Waypoint: waypointAddress{Address: destination}}},
		TravelMode:        "DRIVE",
		RoutingPreference: "TRAFFIC_AWARE",
		DepartureTime:     slot.DepartureTime,
	}

	payload, err := json.Marshal(matrixRequest)
	if err != nil {
		markSlotFailure(slot, statusRequestError, fmt.Sprintf("error marshaling route matrix request: %v", err), nil)
		return
	}

	req, err := http.NewRequest("POST", g.gathererConfig.APIEndpoint, bytes.NewReader(payload))
	if err != nil {
		markSlotFailure(slot, statusRequestError, fmt.Sprintf("error creating Routes API HTTP request: %v", err), nil)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", g.gathererConfig.APIKey)
	req.Header.Set("X-Goog-FieldMask", routesFieldMask)

	log.Debugf("Making request to Routes API: %s departing %s", slot.Direction, slot.DepartureTime)
	req = req.WithContext(g.ctx)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Debugf("HTTP request failed: %v", err)
		markSlotFailure(slot, statusRequestError, err.Error(), nil)
		return
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		markSlotFailure(slot, statusRequestError, fmt.Sprintf("error reading response body: %v", err), nil)
		return
	}

	log.Debugf("Routes API responded with status: %s", resp.Status)

	if resp.StatusCode != http.StatusOK {
		markSlotFailure(slot, fmt.Sprintf("HTTP_%d", resp.StatusCode), strings.TrimSpace(string(bodyBytes)), bodyBytes)
		return
	}

	var elements []routeMatrixElement
	if err := json.Unmarshal(bodyBytes, &elements); err != nil {
		markSlotFailure(slot, statusRequestError, fmt.Sprintf("unable to decode Routes API response: %v", err), bodyBytes)
		return
	}
	if len(elements) == 0 {
		markSlotFailure(slot, statusEmptyResponse, "route matrix response contained no elements", bodyBytes)
		return
	}

	applyElement(slot, &elements[0], bodyBytes)
}

// applyElement copies a matrix element into the slot's result columns. An
// empty element status means the route was computed successfully.
func applyElement(slot *types.CommuteSlot, element *routeMatrixElement, raw []byte) {
	statusCode := statusOK
	if element.Status.Code != 0 {
		statusCode = strconv.FormatInt(int64(element.Status.Code), 10)
	}
	slot.StatusCode = &statusCode

	slot.StatusMessage = nil
	if element.Status.Message != "" {
		message := element.Status.Message
		slot.StatusMessage = &message
	}

	slot.DistanceMeters = nil
	if element.DistanceMeters != 0 {
		distance := element.DistanceMeters
		slot.DistanceMeters = &distance
	}

	slot.Duration = nil
	if element.Duration != "" {
		duration := element.Duration
		slot.Duration = &duration
	}

	slot.Condition = nil
	if element.Condition != "" {
		condition := element.Condition
		slot.Condition = &condition
	}

	slot.Response.Set(raw)
}

// markSlotFailure clears any result fields and records the failure marker.
// The raw body is kept only when it is valid JSON, the response column is
// jsonb.
func markSlotFailure(slot *types.CommuteSlot, code, message string, raw []byte) {
	slot.DistanceMeters = nil
	slot.Duration = nil
	slot.Condition = nil

	slot.StatusCode = &code
	slot.StatusMessage = nil
	if message != "" {
		slot.StatusMessage = &message
	}

	if len(raw) > 0 && json.Valid(raw) {
		slot.Response.Set(raw)
	} else {
		slot.Response.Set(nil)
	}
}
