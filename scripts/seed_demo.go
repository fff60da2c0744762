// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// seed_demo populates a running observer with demonstration telemetry.
//
// Usage:
//
//	go run scripts/seed_demo.go -url http://localhost:12230 -token dev-key -entries 50
//
// The script ingests interleaved log and metric entries across a few
// synthetic sources spread over the last hour, then queries the totals
// back so dashboards have something to show immediately.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/AleutianAI/AleutianObserve/services/observer/datatypes"
)

var (
	levels  = []string{"DEBUG", "INFO", "INFO", "INFO", "WARN", "ERROR"}
	sources = []string{"api-gateway", "worker-1", "worker-2", "scheduler"}

	messages = []string{
		"request served",
		"cache miss, falling back to store",
		"retrying upstream call",
		"queue drained",
		"connection reset by peer",
		"snapshot flushed",
	}
)

func main() {
	baseURL := flag.String("url", "http://localhost:12230", "observer base URL")
	token := flag.String("token", "dev-key", "API key for the Authorization header")
	entries := flag.Int("entries", 50, "number of log entries to seed (metrics are half that)")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	now := time.Now().UTC()

	fmt.Printf("Seeding %d log entries into %s...\n", *entries, *baseURL)
	for i := 0; i < *entries; i++ {
		ts := now.Add(-time.Duration(rand.Intn(3600)) * time.Second)
		req := datatypes.LogIngestRequest{
			Source:    sources[rand.Intn(len(sources))],
			Timestamp: ts.Format(time.RFC3339),
			Level:     levels[rand.Intn(len(levels))],
			Message:   messages[rand.Intn(len(messages))],
		}
		if err := post(client, *baseURL, *token, "/logs/ingest", req); err != nil {
			log.Fatalf("Log ingest failed: %v", err)
		}
	}

	metricCount := *entries / 2
	fmt.Printf("Seeding %d metric entries...\n", metricCount)
	for i := 0; i < metricCount; i++ {
		ts := now.Add(-time.Duration(rand.Intn(3600)) * time.Second)
		req := datatypes.MetricIngestRequest{
			Source:    sources[rand.Intn(len(sources))],
			Timestamp: ts.Format(time.RFC3339),
			Metrics: map[string]float64{
				"cpu_percent": 10 + rand.Float64()*80,
				"mem_mb":      128 + rand.Float64()*1024,
				"queue_depth": float64(rand.Intn(40)),
			},
		}
		if err := post(client, *baseURL, *token, "/metrics/ingest", req); err != nil {
			log.Fatalf("Metric ingest failed: %v", err)
		}
	}

	logTotal, err := queryTotal(client, *baseURL, *token, "/logs/query?limit=1")
	if err != nil {
		log.Fatalf("Log query failed: %v", err)
	}
	metricTotal, err := queryTotal(client, *baseURL, *token, "/metrics/query?limit=1")
	if err != nil {
		log.Fatalf("Metric query failed: %v", err)
	}

	fmt.Printf("Done. Observer now holds %d logs and %d metric entries.\n", logTotal, metricTotal)
}

func post(client *http.Client, baseURL, token, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, msg)
	}
	return nil
}

func queryTotal(client *http.Client, baseURL, token, path string) (int, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}

	var parsed struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, err
	}
	return parsed.Total, nil
}
