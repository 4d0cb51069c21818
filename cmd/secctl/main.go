// Command secctl is the operator CLI for the secure-rag service: it talks to
// a running instance over HTTP and never touches the document store or
// vector index directly.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "secctl",
	Short: "Operate a secure-rag server",
	Long: `secctl drives a running secure-rag server over its HTTP API:

  secctl ingest              trigger re-ingestion of the docs root
  secctl health               print the server's health snapshot
  secctl ask "<question>"     ask a question and stream the answer`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("SECCTL_SERVER", "http://localhost:8080"), "base URL of the secure-rag server")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
