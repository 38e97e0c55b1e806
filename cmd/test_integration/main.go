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

func baseURL() string {
	if v := os.Getenv("PLATFORMID_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	run := fmt.Sprintf("%d", time.Now().UnixNano())
	signal := "useragent=UA-" + run + "&gpu=GPU-" + run + "&canvas=C1&webgl=W1&screen=1920x1080&timezone=UTC&platform=Linux&language=en"
	drifted := "useragent=UA-" + run + "&gpu=GPU-" + run + "&canvas=C1&webgl=W1&screen=1920x1080&timezone=UTC&platform=Linux&language=fr"

	steps := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"Create user", "POST", "/api/secure/platform-users", map[string]interface{}{
			"username":         "alice-" + run,
			"signal":           signal,
			"displayPayload":   map[string]string{"avatar": "a.png"},
			"joinedAtUnixTime": time.Now().Unix(),
		}, http.StatusOK},
		{"Resolve exact", "POST", "/api/secure/platform-users/resolve", map[string]string{"signal": signal}, http.StatusOK},
		{"Resolve drifted", "POST", "/api/secure/platform-users/resolve", map[string]interface{}{
			"data": map[string]string{"signal": drifted},
		}, http.StatusOK},
		{"Update display payload", "PUT", "/api/secure/platform-users/update", map[string]interface{}{
			"signal":         drifted,
			"displayPayload": map[string]string{"avatar": "b.png"},
		}, http.StatusOK},
		{"Create linked record", "POST", "/api/secure/linked-records", map[string]interface{}{
			"signal":  signal,
			"payload": map[string]int{"score": 42},
		}, http.StatusOK},
		{"Reject unknown signal", "POST", "/api/secure/linked-records", map[string]interface{}{
			"signal":  "useragent=nobody-" + run,
			"payload": map[string]int{"score": 1},
		}, http.StatusUnauthorized},
		{"Reject missing fields", "POST", "/api/secure/platform-users", map[string]string{}, http.StatusBadRequest},
	}

	for i, step := range steps {
		fmt.Printf("%d. %s...\n", i+1, step.name)
		if !sendRequest(step.method, step.path, step.body, step.status) {
			fmt.Printf("FAILED: %s\n", step.name)
			os.Exit(1)
		}
		fmt.Printf("PASSED: %s\n", step.name)
	}
}

func sendRequest(method, endpoint string, payload interface{}, want int) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL()+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		fmt.Printf("Request failed with status %d (want %d): %s\n", resp.StatusCode, want, string(respBody))
		return false
	}
	fmt.Printf("Response: %s\n", string(respBody))

	return true
}
