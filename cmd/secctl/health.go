package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var healthJSONOutput bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Print the server's health snapshot",
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSONOutput, "json", false, "output the raw JSON response")
	rootCmd.AddCommand(healthCmd)
}

type cacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hitRate"`
}

type securitySnapshot struct {
	Total          int64 `json:"total"`
	Safe           int64 `json:"safe"`
	Suspicious     int64 `json:"suspicious"`
	Malicious      int64 `json:"malicious"`
	OutputFiltered int64 `json:"output_filtered"`
}

type healthResponse struct {
	Status    string           `json:"status"`
	Documents int              `json:"documents"`
	Cache     cacheStats       `json:"cache"`
	Security  securitySnapshot `json:"security"`
	UptimeSec float64          `json:"uptimeSeconds"`
}

func runHealth(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(serverURL + "/api/health")
	if err != nil {
		return fmt.Errorf("secctl: health request: %w", err)
	}
	defer resp.Body.Close()

	var out healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("secctl: decode health response: %w", err)
	}

	if healthJSONOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	status := okStyle.Render(out.Status)
	if out.Status != "healthy" {
		status = warnStyle.Render(out.Status)
	}

	fmt.Println(headingStyle.Render("secure-rag health"))
	fmt.Printf("  %s %s\n", labelStyle.Render("status:"), status)
	fmt.Printf("  %s %d\n", labelStyle.Render("documents:"), out.Documents)
	fmt.Printf("  %s %.1fs\n", labelStyle.Render("uptime:"), out.UptimeSec)
	fmt.Printf("  %s %d hits / %d misses (%.0f%% hit rate), %d entries\n",
		labelStyle.Render("cache:"), out.Cache.Hits, out.Cache.Misses, out.Cache.HitRate*100, out.Cache.Size)
	fmt.Printf("  %s %d total, %d safe, %d suspicious, %d malicious, %d output-filtered\n",
		labelStyle.Render("security:"), out.Security.Total, out.Security.Safe, out.Security.Suspicious, out.Security.Malicious, out.Security.OutputFiltered)
	return nil
}
