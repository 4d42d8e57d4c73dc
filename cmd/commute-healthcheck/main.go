// Healthcheck probe for container orchestrators. Exits 0 when the API
// responds with any status below 500, 1 otherwise.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

func main() {
	var (
		url     = flag.String("url", "http://127.0.0.1:8080/healthcheck", "Healthcheck endpoint to probe")
		timeout = flag.Duration("timeout", 2*time.Second, "Request timeout")
	)
	flag.Parse()

	client := &http.Client{Timeout: *timeout}
	resp, err := client.Get(*url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	// Statuses below 500 count as alive
	if resp.StatusCode >= 500 {
		fmt.Fprintf(os.Stderr, "healthcheck returned HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Printf("healthy: HTTP %d\n", resp.StatusCode)
}
