package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/expiry-tracker/internal/expiry"
	"github.com/zombor/expiry-tracker/internal/label"
	"github.com/zombor/expiry-tracker/internal/scanning"
	"github.com/zombor/expiry-tracker/internal/scanning/tesseract"
	"github.com/zombor/expiry-tracker/internal/vocabulary"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("expiry-tracker")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		scannerType    = fs.StringLong("scanner", "tesseract", "Scanner type: 'tesseract', 'gemini' or 'ollama'")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		tesseractLang  = fs.StringLong("tesseract-lang", "eng", "Comma-separated Tesseract languages")
		vocabularyPath = fs.StringLong("vocabulary", "", "YAML file overriding keywords, confusions and date formats")
		nearExpiryDays = fs.IntLong("near-expiry-days", -1, "Days before expiry that count as near expiry (default from vocabulary, else 7)")
		scanTimeout    = fs.IntLong("scan-timeout", 60, "Seconds to wait for a single OCR call")
		debug          = fs.BoolLong("debug", "Enable debug logging")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPIRY_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	// Load vocabulary
	cfg, err := vocabulary.Load(*vocabularyPath)
	if err != nil {
		slog.Error("Failed to load vocabulary", "path", *vocabularyPath, "error", err)
		os.Exit(1)
	}
	if *nearExpiryDays >= 0 {
		cfg.NearExpiryDays = *nearExpiryDays
	}

	pipeline, err := expiry.New(cfg)
	if err != nil {
		slog.Error("Failed to build expiry pipeline", "error", err)
		os.Exit(1)
	}
	slog.Info("Expiry pipeline ready",
		"mfg_keywords", len(cfg.MfgKeywords),
		"exp_keywords", len(cfg.ExpKeywords),
		"hypotheses", len(cfg.Hypotheses),
		"near_expiry_days", cfg.NearExpiryDays,
	)

	// Initialize scanner based on type
	var scanner scanning.Scanner
	switch *scannerType {
	case "tesseract":
		langs := strings.Split(*tesseractLang, ",")
		for i := range langs {
			langs[i] = strings.TrimSpace(langs[i])
		}
		slog.Info("Initializing Tesseract scanner...", "languages", langs)
		scanner = tesseract.New(langs...)
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "tesseract, gemini or ollama")
		os.Exit(1)
	}
	defer scanner.Close()

	// Initialize service
	labelService := label.NewService(scanner, pipeline, label.Config{
		ScanTimeout: time.Duration(*scanTimeout) * time.Second,
	})

	// Initialize server
	server := label.NewServer(labelService)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Shutdown error", "error", err)
	}
}
