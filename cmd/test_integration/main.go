package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func baseURL() string {
	if v := os.Getenv("DRORANGE_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://localhost:8080"
}

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	treeID := fmt.Sprintf("smoke-%d", time.Now().Unix())

	// 1. Ingest a reading the way field devices send it
	fmt.Println("1. Ingesting Prediction...")
	payload := map[string]interface{}{
		"link":        `{"HLB": 0.82, "Healthy": 0.11, "Red Scale": 0.07}`,
		"Tree ID":     treeID,
		"Tree Desc":   "integration run",
		"Tree Author": "smoke",
		"lastImage":   "aGVsbG8=",
	}
	status, body := sendRequest("POST", "/api/predictions", payload)
	if status != http.StatusOK {
		fail("Ingest prediction", status, body)
	}
	var created struct {
		Prediction struct {
			ID string `json:"_id"`
		} `json:"prediction"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.Prediction.ID == "" {
		fail("Ingest prediction (no id)", status, body)
	}
	id := created.Prediction.ID
	fmt.Println("PASSED: Ingest prediction", id)

	// 2. Read side
	checks := []struct {
		name, method, path string
		want               int
	}{
		{"List predictions", "GET", "/api/predictions", http.StatusOK},
		{"Analysis", "GET", "/api/analysis?k=3", http.StatusOK},
		{"QR code", "GET", "/api/predictions/" + id + "/qr", http.StatusOK},
		{"Record report", "GET", "/api/predictions/" + id + "/report?locale=en", http.StatusOK},
		{"Aggregate report", "GET", "/api/reports/aggregate?locale=en", http.StatusOK},
		{"CSV export", "GET", "/api/export.csv", http.StatusOK},
		{"Catalog lookup", "GET", "/api/catalog/HLB?locale=en", http.StatusOK},
	}
	for i, c := range checks {
		fmt.Printf("%d. %s...\n", i+2, c.name)
		status, body := sendRequest(c.method, c.path, nil)
		if status != c.want {
			fail(c.name, status, body)
		}
		fmt.Println("PASSED:", c.name)
	}

	// 3. Cleanup
	fmt.Println("Deleting Prediction...")
	if status, body := sendRequest("DELETE", "/api/predictions/"+id, nil); status != http.StatusOK {
		fail("Delete prediction", status, body)
	}
	if status, body := sendRequest("DELETE", "/api/predictions/"+id, nil); status != http.StatusNotFound {
		fail("Delete prediction twice", status, body)
	}
	fmt.Println("PASSED: Delete prediction")
}

func fail(step string, status int, body []byte) {
	if len(body) > 300 {
		body = body[:300]
	}
	fmt.Printf("FAILED: %s (status %d): %s\n", step, status, string(body))
	os.Exit(1)
}

func sendRequest(method, endpoint string, payload interface{}) (int, []byte) {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL()+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return 0, nil
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return 0, nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, respBody
}
