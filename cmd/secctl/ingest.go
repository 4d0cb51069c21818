package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var ingestSkipConfirm bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Trigger re-ingestion of the server's docs root",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestSkipConfirm, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(ingestCmd)
}

// confirmIngest prompts interactively unless -y was passed or stdin isn't
// a terminal (e.g. running from a script or CI).
func confirmIngest() (bool, error) {
	if ingestSkipConfirm || !isatty.IsTerminal(os.Stdin.Fd()) {
		return true, nil
	}
	confirmed := false
	err := huh.NewConfirm().
		Title("Re-ingest the docs root at " + serverURL + "?").
		Affirmative("Yes").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, fmt.Errorf("secctl: confirmation prompt: %w", err)
	}
	return confirmed, nil
}

type ingestResponse struct {
	Success   bool     `json:"success"`
	Documents int      `json:"documents"`
	Skipped   []string `json:"skipped,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	proceed, err := confirmIngest()
	if err != nil {
		return err
	}
	if !proceed {
		fmt.Println(warnStyle.Render("ingestion cancelled"))
		return nil
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Post(serverURL+"/api/ingest", "application/json", nil)
	if err != nil {
		return fmt.Errorf("secctl: ingest request: %w", err)
	}
	defer resp.Body.Close()

	var out ingestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("secctl: decode ingest response: %w", err)
	}

	if !out.Success {
		fmt.Println(errorStyle.Render(fmt.Sprintf("ingestion failed: %s", out.Error)))
		return fmt.Errorf("secctl: server reported ingestion failure")
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("ingested %d documents", out.Documents)))
	for _, s := range out.Skipped {
		fmt.Println(lipgloss.NewStyle().Faint(true).Render("  skipped: " + s))
	}
	return nil
}
