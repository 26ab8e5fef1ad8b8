package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Enter a site URL to monitor (e.g., https://example.com): ")
	raw, _ := reader.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		fmt.Println("Invalid URL.")
		return
	}

	fmt.Print("Enter a short alias for it (e.g., my-site): ")
	alias, _ := reader.ReadString('\n')
	alias = strings.TrimSpace(alias)
	if alias == "" || len(alias) > 75 {
		fmt.Println("Alias must be 1-75 characters.")
		return
	}

	body, _ := json.Marshal(map[string]string{"url": raw, "alias": alias})
	resp, err := http.Post(api+"/api/websites", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		fmt.Printf("Added! Check GET /api/websites/%s for stats.\n", alias)
	case resp.StatusCode == http.StatusConflict:
		fmt.Println("That alias is already taken.")
	default:
		fmt.Println("API returned status:", resp.Status)
	}
}
