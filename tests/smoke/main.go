package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

// Smoke client for a running daemon. Walks every API endpoint in order
// and verifies status codes and body shapes. Fetching from the live
// arXiv API is opt-in so the default run stays offline-safe.

var (
	baseURL   = flag.String("base", "http://127.0.0.1:8001", "daemon base URL")
	withFetch = flag.Bool("fetch", false, "also trigger POST /api/fetch against the live arXiv API")
)

var httpClient = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

var failures int

func main() {
	flag.Parse()

	fmt.Println("=== ArxivMon Smoke Test ===")
	fmt.Printf("Base URL: %s\n\n", *baseURL)

	fmt.Print("Waiting for server... ")
	if !waitForServer() {
		fmt.Println("FAILED: server not responding")
		os.Exit(1)
	}
	fmt.Println("OK")

	checkJSON("GET /health", http.MethodGet, "/health", nil, http.StatusOK, func(body map[string]any) error {
		if body["status"] != "ok" {
			return fmt.Errorf("status = %v, want ok", body["status"])
		}
		return nil
	})

	checkList("GET /api/papers", "/api/papers")
	checkList("GET /api/config", "/api/config")

	checkJSON("GET /api/status", http.MethodGet, "/api/status", nil, http.StatusOK, func(body map[string]any) error {
		if _, ok := body["state"]; !ok {
			return fmt.Errorf("missing state field")
		}
		return nil
	})

	var firstToggle bool
	checkJSON("POST /api/toggle-auto-fetch", http.MethodPost, "/api/toggle-auto-fetch", nil, http.StatusOK, func(body map[string]any) error {
		enabled, ok := body["enabled"].(bool)
		if !ok {
			return fmt.Errorf("missing enabled field")
		}
		firstToggle = enabled
		return nil
	})
	checkJSON("POST /api/toggle-auto-fetch (back)", http.MethodPost, "/api/toggle-auto-fetch", nil, http.StatusOK, func(body map[string]any) error {
		enabled, ok := body["enabled"].(bool)
		if !ok {
			return fmt.Errorf("missing enabled field")
		}
		if enabled == firstToggle {
			return fmt.Errorf("second toggle did not flip the flag")
		}
		return nil
	})

	categories := []map[string]any{
		{"category": "cs.CV", "enabled": true, "max_results": 25},
		{"category": "cs.LG", "enabled": false, "max_results": 25},
	}
	payload, _ := json.Marshal(categories)
	checkJSON("POST /api/config", http.MethodPost, "/api/config", payload, http.StatusOK, func(body map[string]any) error {
		if body["status"] != "success" {
			return fmt.Errorf("status = %v, want success", body["status"])
		}
		return nil
	})
	checkJSON("POST /api/config (empty list)", http.MethodPost, "/api/config", []byte("[]"), http.StatusBadRequest, nil)

	if *withFetch {
		checkJSON("POST /api/fetch", http.MethodPost, "/api/fetch", nil, http.StatusOK, func(body map[string]any) error {
			if body["status"] != "success" {
				return fmt.Errorf("status = %v, want success", body["status"])
			}
			return nil
		})
		checkList("GET /api/papers (after fetch)", "/api/papers")
	}

	checkJSON("POST /api/mark-all-seen", http.MethodPost, "/api/mark-all-seen", nil, http.StatusOK, func(body map[string]any) error {
		if body["status"] != "success" {
			return fmt.Errorf("status = %v, want success", body["status"])
		}
		return nil
	})

	checkJSON("POST /api/clear", http.MethodPost, "/api/clear", nil, http.StatusOK, nil)
	checkList("GET /api/config (survives clear)", "/api/config")

	fmt.Println()
	if failures > 0 {
		fmt.Printf("FAILED: %d check(s) failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("All checks passed")
}

func waitForServer() bool {
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(*baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func checkJSON(name, method, path string, payload []byte, wantStatus int, verify func(map[string]any) error) {
	body, status, err := do(method, path, payload)
	if err != nil {
		fail(name, err)
		return
	}
	if status != wantStatus {
		fail(name, fmt.Errorf("status = %d, want %d", status, wantStatus))
		return
	}
	if verify != nil {
		var parsed map[string]any
		if err := json.Unmarshal(body, &parsed); err != nil {
			fail(name, fmt.Errorf("bad JSON: %w", err))
			return
		}
		if err := verify(parsed); err != nil {
			fail(name, err)
			return
		}
	}
	pass(name)
}

// checkList asserts a 200 response carrying a JSON array.
func checkList(name, path string) {
	body, status, err := do(http.MethodGet, path, nil)
	if err != nil {
		fail(name, err)
		return
	}
	if status != http.StatusOK {
		fail(name, fmt.Errorf("status = %d, want 200", status))
		return
	}
	var parsed []any
	if err := json.Unmarshal(body, &parsed); err != nil {
		fail(name, fmt.Errorf("expected JSON array: %w", err))
		return
	}
	pass(name)
}

func do(method, path string, payload []byte) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, *baseURL+path, reqBody)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

func pass(name string) {
	fmt.Printf("  PASS  %s\n", name)
}

func fail(name string, err error) {
	failures++
	fmt.Printf("  FAIL  %s: %s\n", name, err)
}
