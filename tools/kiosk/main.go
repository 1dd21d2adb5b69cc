// Kiosk sign-in client for the hub front desk. It acquires a position from a
// local GPS receiver endpoint and submits the attendance action on behalf of
// the badge-scanned user.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"attendance.service/internal/config"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/location"
)

// httpSource reads the current position from a GPS receiver exposing a small
// HTTP endpoint (e.g. a gpsd bridge on the kiosk host).
type httpSource struct {
	client *http.Client
	url    string
}

func (s *httpSource) Acquire(ctx context.Context) (model.LocationSample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return model.LocationSample{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return model.LocationSample{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return model.LocationSample{}, location.Denied
	default:
		return model.LocationSample{}, location.Unavailable
	}

	var sample model.LocationSample
	if err := json.NewDecoder(resp.Body).Decode(&sample); err != nil {
		return model.LocationSample{}, err
	}
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = time.Now().UTC()
	}
	return sample, nil
}

func main() {
	user := flag.String("user", "", "user id from the badge scan")
	action := flag.String("action", "sign-in", "sign-in or sign-out")
	gpsURL := flag.String("gps", "http://localhost:8082/position", "GPS receiver endpoint")
	apiURL := flag.String("api", "http://localhost:8080", "attendance API base URL")
	flag.Parse()

	if *user == "" {
		log.Fatal("missing -user")
	}
	if *action != "sign-in" && *action != "sign-out" {
		log.Fatalf("unknown action %q", *action)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Could not load configuration: %v", err)
	}

	src := &httpSource{client: &http.Client{}, url: *gpsURL}
	sample, err := location.AcquireWithTimeout(context.Background(), src, location.Options{
		Timeout: cfg.GeoTimeout(),
		MaxAge:  cfg.GeoMaxAge(),
	})
	if err != nil {
		log.Fatalf("Could not acquire position: %v", err)
	}
	log.Printf("Position acquired: %.6f, %.6f (accuracy %.0fm)",
		sample.Latitude, sample.Longitude, sample.AccuracyMeters)

	payload, err := json.Marshal(map[string]any{"location": sample})
	if err != nil {
		log.Fatalf("Could not marshal request: %v", err)
	}

	url := fmt.Sprintf("%s/api/v1/attendance/%s", *apiURL, *action)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(payload))
	if err != nil {
		log.Fatalf("Could not build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", *user)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	log.Printf("%s %s -> %d: %s", *action, *user, resp.StatusCode, bytes.TrimSpace(body))
}
