package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/stemsi/assessment-pipeline/internal/config"
	"github.com/stemsi/assessment-pipeline/internal/database"
	"github.com/stemsi/assessment-pipeline/internal/logger"
	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/normalizer"
	"github.com/stemsi/assessment-pipeline/internal/repository"
	"github.com/stemsi/assessment-pipeline/internal/service"
)

const chunkSize = 500

func main() {
	var (
		file   string
		dryRun bool
	)
	flag.StringVar(&file, "file", "-", "JSON array or NDJSON file of question records (- for stdin)")
	flag.BoolVar(&dryRun, "dry-run", false, "Normalize and report without writing")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	// ─── Read Records ──────────────────────────────────────────────────
	in, err := openInput(file)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot open input")
	}
	defer in.Close()

	records, err := readRecords(in)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Cannot decode records")
	}
	if len(records) == 0 {
		fmt.Println("No records found")
		return
	}

	if dryRun {
		report(records)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	questionService := service.NewQuestionService(repository.NewQuestionRepository(pool), nil, cfg.BatchConcurrency, log)

	// ─── Import in Chunks ──────────────────────────────────────────────
	var imported, flagged, failed int
	for start := 0; start < len(records); start += chunkSize {
		end := min(start+chunkSize, len(records))
		res, err := questionService.Import(ctx, records[start:end])
		if err != nil {
			log.Error().Err(err).Int("from", start).Int("to", end).Msg("Chunk failed")
		}
		imported += len(res.Imported)
		flagged += res.Flagged
		failed += len(res.Failed)
		for pos, reason := range res.Failed {
			log.Warn().Str("chunk_position", pos).Int("chunk_start", start).Str("reason", reason).Msg("Record not imported")
		}
		if ctx.Err() != nil {
			log.Warn().Msg("Interrupted")
			break
		}
	}

	fmt.Printf("Imported %d question(s), %d auto-flagged for review, %d failed\n", imported, flagged, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// openInput refuses an interactive terminal so a missing -file does not
// silently wait for typed JSON.
func openInput(file string) (io.ReadCloser, error) {
	if file != "-" {
		return os.Open(file)
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("stdin is a terminal: pass -file or pipe records in")
	}
	return io.NopCloser(os.Stdin), nil
}

func report(records []map[string]any) {
	counts := map[model.QuestionStatus]int{}
	flagged := 0
	for _, raw := range records {
		q := normalizer.Normalize(raw)
		counts[q.Status]++
		if q.Status == model.QuestionStatusPending && q.ReviewNotes != "" {
			flagged++
		}
	}
	fmt.Printf("%d record(s): %d draft, %d pending (%d auto-flagged), %d approved, %d rejected\n",
		len(records),
		counts[model.QuestionStatusDraft],
		counts[model.QuestionStatusPending], flagged,
		counts[model.QuestionStatusApproved],
		counts[model.QuestionStatusRejected],
	)
}
