package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

type errorBody struct {
	Code string `json:"code"`
}

func main() {
	// Run the API with RATE_LIMIT_PER_SEC=0, every request comes from one IP.
	url := "http://localhost:8080/api/v1/attendance/check-in"
	contentType := "application/json"

	numEmployees := 5000
	requestsPerEmployee := 2
	totalRequests := numEmployees * requestsPerEmployee
	concurrency := 50 // Number of concurrent requests to avoid local port exhaustion

	fmt.Printf("Starting load test: %d employees (%d check-ins each) to %s with concurrency %d\n", numEmployees, requestsPerEmployee, url, concurrency)

	var created, duplicate, failed int64

	var g errgroup.Group
	g.SetLimit(concurrency)

	startTime := time.Now()

	for i := 0; i < numEmployees; i++ {
		payload := []byte(fmt.Sprintf(`{"employee_id": "load-test-emp-%d", "actor": "load-test"}`, i))

		g.Go(func() error {
			for j := 0; j < requestsPerEmployee; j++ {
				resp, err := http.Post(url, contentType, bytes.NewReader(payload))
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}

				var body errorBody
				switch {
				case resp.StatusCode == http.StatusCreated:
					atomic.AddInt64(&created, 1)
				case resp.StatusCode == http.StatusConflict &&
					json.NewDecoder(resp.Body).Decode(&body) == nil && body.Code == "ALREADY_CHECKED_IN":
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
				resp.Body.Close()
			}
			return nil
		})
	}

	_ = g.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration:   %v\n", duration)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Created:          %d\n", created)
	fmt.Printf("Already checked:  %d\n", duplicate)
	fmt.Printf("Failed:           %d\n", failed)
	fmt.Printf("Requests/Sec:     %.2f\n", float64(totalRequests)/duration.Seconds())
	if created != int64(numEmployees) {
		fmt.Printf("WARNING: expected %d created records, got %d\n", numEmployees, created)
	}
}
