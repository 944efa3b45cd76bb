package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	baseURL = "http://localhost:8080"
)

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	fmt.Println("1. Health...")
	if _, ok := sendRequest("GET", "/healthz", nil); !ok {
		fmt.Println("FAILED: Health")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health")

	fmt.Println("2. Consolidating judgments...")
	judgments := map[string]interface{}{
		"judgments": []map[string]interface{}{
			{"id_a": "ag000001", "id_b": "ag000002", "preferred": 0},
			{"id_a": "ag000002", "id_b": "ag000003", "preferred": 0},
			{"id_a": "ag000010", "id_b": "ag000011", "preferred": 1},
		},
	}
	body, ok := sendRequest("POST", "/consolidate", judgments)
	if !ok {
		fmt.Println("FAILED: Consolidate")
		os.Exit(1)
	}
	var res struct {
		Mapping []struct {
			Duplicate string `json:"duplicate_id"`
			Canonical string `json:"canonical_id"`
		} `json:"mapping"`
	}
	if err := json.Unmarshal(body, &res); err != nil || len(res.Mapping) != 3 || res.Mapping[0].Canonical != "ag000001" {
		fmt.Printf("FAILED: Consolidate returned unexpected mapping: %s\n", string(body))
		os.Exit(1)
	}
	fmt.Println("PASSED: Consolidate")

	fmt.Println("3. Projecting clusters...")
	projection := map[string]interface{}{
		"records": []map[string]interface{}{
			{"id": "ag000001", "fields": map[string]string{"name": "Rousseau"}},
			{"id": "ag000002", "fields": map[string]string{"name": "Rousseau"}},
		},
		"clusters": []map[string]interface{}{
			{"members": []map[string]interface{}{
				{"record_id": "ag000001", "confidence": 0.93},
				{"record_id": "ag000002", "confidence": 0.93},
			}},
		},
	}
	if _, ok := sendRequest("POST", "/clusters/project", projection); !ok {
		fmt.Println("FAILED: Project clusters")
		os.Exit(1)
	}
	fmt.Println("PASSED: Project clusters")

	if _, ok := sendRequest("GET", "/stats", nil); !ok {
		fmt.Println("FAILED: Stats")
		os.Exit(1)
	}
	fmt.Println("PASSED: Stats")
}

func sendRequest(method, endpoint string, payload interface{}) ([]byte, bool) {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return nil, false
	}

	fmt.Printf("Response: %s\n", string(respBody))
	return respBody, true
}
