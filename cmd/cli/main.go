package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "finform-cli",
		Short: "Finform CLI tool",
		Long:  `A command line interface for interacting with the Finform API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Finform API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	// Offline queue commands
	offlineCmd := &cobra.Command{
		Use:   "offline",
		Short: "Offline queue operations",
	}

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize documents awaiting reconciliation",
		Run: func(cmd *cobra.Command, args []string) {
			offlineReport()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list [type]",
		Short: "List queued documents of one type",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			offlineList(args[0])
		},
	}

	offlineCmd.AddCommand(reportCmd)
	offlineCmd.AddCommand(listCmd)
	rootCmd.AddCommand(offlineCmd)

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check service readiness",
		Run: func(cmd *cobra.Command, args []string) {
			checkHealth()
		},
	}
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func offlineReport() {
	body := get("/api/v1/offline/report")

	var envelope struct {
		Data struct {
			Counts map[string]int64 `json:"counts"`
			Total  int64            `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	if envelope.Data.Total == 0 {
		fmt.Println("Offline queue is empty")
		return
	}

	fmt.Printf("Documents awaiting reconciliation: %d\n", envelope.Data.Total)
	for docType, count := range envelope.Data.Counts {
		fmt.Printf("  %-10s %d\n", docType, count)
	}
}

func offlineList(docType string) {
	body := get("/api/v1/offline/" + docType)

	var envelope struct {
		Data struct {
			Data []struct {
				ID      string `json:"id"`
				Number  string `json:"number"`
				Remarks string `json:"remarks"`
			} `json:"data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	for _, doc := range envelope.Data.Data {
		fmt.Printf("%-28s %-16s %s\n", doc.ID, doc.Number, truncate(doc.Remarks, 40))
	}
	fmt.Printf("%d queued %s document(s)\n", len(envelope.Data.Data), docType)
}

func checkHealth() {
	body := get("/ready")
	fmt.Println("Service is ready")

	var status map[string]string
	if err := json.Unmarshal(body, &status); err == nil {
		printJSON(status)
	}
}

// get fetches a path from the API and exits on any failure.
func get(path string) []byte {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	return body
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
