package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{} // No timeout, synthesis can take a while
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("🚀 Starting Document + Ask API Smoke Test\n")

	color.Yellow("\n1. Upload a test document")
	resp, body, err := sendRequest("POST", "/document/v1", map[string]string{
		"title": "Witness Interview - Sarah Chen",
		"content": "Interview conducted March 15th. Sarah Chen stated she left the office " +
			"at 6:30 PM and saw the delivery van parked outside. She mentioned that " +
			"Marcus Webb was still in the building when she left.",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	var uploadRes struct {
		Data struct {
			Id string `json:"id"`
		} `json:"data"`
	}
	json.Unmarshal(body, &uploadRes)
	fmt.Printf("Document ID: %s\n", uploadRes.Data.Id)

	color.Yellow("\n2. List documents")
	resp, body, err = sendRequest("GET", "/document/v1", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var listRes map[string]interface{}
	json.Unmarshal(body, &listRes)
	prettyPrint(listRes)

	color.Yellow("\n3. Ask a question (non-streamed fallback)")
	resp, body, err = sendRequest("POST", "/ask/v1", map[string]interface{}{
		"question": "When did Sarah Chen leave the office?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var askRes map[string]interface{}
	json.Unmarshal(body, &askRes)
	prettyPrint(askRes)

	color.Cyan("\n✅ Smoke test finished")
}
