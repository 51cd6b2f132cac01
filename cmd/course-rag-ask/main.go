// course-rag-ask asks a single question from the command line, without the
// interactive UI. Useful for scripting and smoke tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"course-rag/internal/app"
	"course-rag/internal/config"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath   string
		sessionID string
		stats     bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file")
	flag.StringVar(&sessionID, "session", "", "Session id to continue a conversation")
	flag.BoolVar(&stats, "stats", false, "Print catalog statistics and exit")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

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

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("failed to assemble service: %v", err)
	}

	ctx := context.Background()
	if _, err := a.Ingest(ctx, cfg.DocsDir, false); err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	if stats {
		courses, chunks, err := a.Service.Stats(ctx)
		if err != nil {
			log.Fatalf("failed to read catalog: %v", err)
		}
		fmt.Printf("%d courses, %d chunks\n", courses, chunks)
		list, err := a.Service.Courses(ctx)
		if err != nil {
			log.Fatalf("failed to list courses: %v", err)
		}
		for _, c := range list {
			fmt.Printf("  %s (%d lessons)\n", c.Title, len(c.Lessons))
		}
		return
	}

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		fmt.Println("Usage: course-rag-ask [-config=config.yaml] [-session=id] <question>")
		os.Exit(1)
	}

	answer, err := a.Service.Query(ctx, question, sessionID)
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}
	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range answer.Sources {
			ref := src.Course
			if src.LessonNumber != nil {
				ref = fmt.Sprintf("%s - Lesson %d", ref, *src.LessonNumber)
			}
			if src.Link != "" {
				ref += " (" + src.Link + ")"
			}
			fmt.Println("  " + ref)
		}
	}
	fmt.Fprintln(os.Stderr, "session:", answer.SessionID)
}
