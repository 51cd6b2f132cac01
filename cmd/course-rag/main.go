package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"course-rag/internal/app"
	"course-rag/internal/config"
	"course-rag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		docsDir string
		rebuild bool
		verbose bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/course-rag/config.yaml if not provided)")
	flag.StringVar(&docsDir, "docs", "", "Course documents directory (overrides config)")
	flag.BoolVar(&rebuild, "rebuild", false, "Clear the index and re-ingest everything")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if docsDir != "" {
		cfg.DocsDir = docsDir
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble service: %v", err)
	}

	ctx := context.Background()
	added, err := a.Ingest(ctx, cfg.DocsDir, rebuild)
	if err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
	courses, chunks, err := a.Service.Stats(ctx)
	if err != nil {
		log.Fatalf("failed to read catalog: %v", err)
	}
	logger.Info("catalog ready", "courses", courses, "chunks", chunks, "new", added)

	header := fmt.Sprintf("%d courses, %d chunks indexed", courses, chunks)
	m := tui.New(a.Service, header)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
	if err := a.Flush(); err != nil {
		log.Fatalf("failed to persist index: %v", err)
	}
}
