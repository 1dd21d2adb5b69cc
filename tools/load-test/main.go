package main

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	// Configuration
	url := "http://localhost:8080/api/v1/attendance/sign-in"
	contentType := "application/json"

	numUsers := 5000
	concurrency := 50 // Number of concurrent requests to avoid local port exhaustion

	fmt.Printf("Starting load test: %d users to %s with concurrency %d\n", numUsers, url, concurrency)

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency) // Semaphore to limit concurrency

	var successCount int64
	var failCount int64

	startTime := time.Now()

	// Location samples at the hub so the geofence passes.
	payload := []byte(`{"location": {"latitude": 8.479898, "longitude": 4.541840, "accuracyMeters": 5}}`)

	for i := 0; i < numUsers; i++ {
		wg.Add(1)
		sem <- struct{}{} // Acquire token

		userID := fmt.Sprintf("load-test-user-%d", i)

		go func(uid string) {
			defer wg.Done()
			defer func() { <-sem }() // Release token

			req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(payload))
			if err != nil {
				atomic.AddInt64(&failCount, 1)
				return
			}
			req.Header.Set("Content-Type", contentType)
			req.Header.Set("X-User-Id", uid)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				atomic.AddInt64(&failCount, 1)
				return
			}
			resp.Body.Close()

			if resp.StatusCode < 300 {
				atomic.AddInt64(&successCount, 1)
			} else {
				atomic.AddInt64(&failCount, 1)
			}
		}(userID)
	}

	wg.Wait()
	elapsed := time.Since(startTime)

	fmt.Printf("Done in %s. Success: %d, Failed: %d (%.1f req/s)\n",
		elapsed, successCount, failCount, float64(numUsers)/elapsed.Seconds())
}
