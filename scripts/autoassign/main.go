// Command autoassign invokes the pending-request sweep on an interval. It
// is meant to run as a sidecar or cron entry next to the API, keeping the
// engine itself free of scheduling concerns.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

type sweepResult struct {
	Data struct {
		Assigned    int `json:"assigned"`
		StillFailed int `json:"still_failed"`
	} `json:"data"`
}

func main() {
	var (
		base     string
		interval time.Duration
		timeout  time.Duration
		once     bool
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.DurationVar(&interval, "interval", 5*time.Minute, "Sweep interval")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.BoolVar(&once, "once", false, "Run a single sweep and exit")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	url := base + "/api/v1/substitutions/auto-assign"

	for {
		if err := sweep(client, url); err != nil {
			log.Printf("sweep failed: %v", err)
		}
		if once {
			return
		}
		time.Sleep(interval)
	}
}

func sweep(client *http.Client, url string) error {
	resp, err := client.Post(url, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var result sweepResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	log.Printf("sweep done: assigned=%d still_failed=%d", result.Data.Assigned, result.Data.StillFailed)
	return nil
}
