// Package cmd provides the CLI commands for raglet.
//
// Commands:
//   - serve: HTTP API server
//   - run: ingest documents and answer questions in one shot
//   - ingest: ingest documents into the index
//   - ask: answer a question against already-ingested documents
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/raglet/raglet/internal/log"
)

// Execute is the main entry point for the raglet CLI.
func Execute() error {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level})
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe(logger)
	case "run":
		return runRun(logger)
	case "ingest":
		return runIngest(logger)
	case "ask":
		return runAsk(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Raglet - Document question answering over your own files")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  raglet serve [addr]                         Start the HTTP API server")
	fmt.Println("  raglet run -doc <ref> ... -q <question> ... Ingest documents and answer questions")
	fmt.Println("  raglet ingest <document>...                 Ingest documents into the index")
	fmt.Println("  raglet ask -doc <ref> ... <question>        Answer against ingested documents")
	fmt.Println("  raglet --version                            Show version information")
	fmt.Println("  raglet --help                               Show this help")
	fmt.Println()
	fmt.Println("Documents may be local file paths or http(s) URLs.")
	fmt.Println("Supported formats: .pdf .docx .eml .msg .txt .md")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  RAGLET_PROVIDER    AI provider: ollama (default) or googleai")
	fmt.Println("  GEMINI_API_KEY     Required for the googleai provider")
	fmt.Println("  RAGLET_API_TOKEN   Required for serve: bearer token for /api/v1/run")
	fmt.Println("  DATABASE_URL       Optional: overrides the postgres settings")
	fmt.Println("  DEBUG              Optional: enable debug logging")
}
