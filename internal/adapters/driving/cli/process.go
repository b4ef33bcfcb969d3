package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/swimanni/chat-cleaner/internal/adapters/driven/input"
	csvin "github.com/swimanni/chat-cleaner/internal/adapters/driven/input/csvfile"
	pdfin "github.com/swimanni/chat-cleaner/internal/adapters/driven/input/pdf"
	txtin "github.com/swimanni/chat-cleaner/internal/adapters/driven/input/plaintext"
	xlsxin "github.com/swimanni/chat-cleaner/internal/adapters/driven/input/xlsxfile"
	"github.com/swimanni/chat-cleaner/internal/adapters/driven/llm/ollama"
	"github.com/swimanni/chat-cleaner/internal/adapters/driven/llm/openai"
	csvout "github.com/swimanni/chat-cleaner/internal/adapters/driven/output/csvfile"
	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driving"
	"github.com/swimanni/chat-cleaner/internal/core/services"
	"github.com/swimanni/chat-cleaner/internal/logger"
	"github.com/swimanni/chat-cleaner/internal/postprocessors/chunker"
)

var (
	processOutput  string
	processBackend string
	processModel   string
	processBaseURL string
	processAPIKey  string
	processWorkers int
	processRate    float64
	processSegment bool
	processWatch   bool
)

var processCmd = &cobra.Command{
	Use:   "process [file or directory...]",
	Short: "Clean chat transcripts into per-conversation CSV files",
	Long: `Process one or more transcript files (or directories of them) through
the cleaning pipeline. Supported inputs: .csv, .tsv, .xlsx, .txt, .log, .pdf.

Each conversation yields one <id>_clean.csv artifact in the output directory,
or no artifact at all when it fails. Failures are reported in the summary and
never abort the rest of the batch.

Examples:
  chatclean process exports/march.csv
  chatclean process exports/ -o cleaned/
  chatclean process dump.txt --segment
  chatclean process inbox/ --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "output directory for cleaned CSV files (default \"cleaned\")")
	processCmd.Flags().StringVar(&processBackend, "backend", "", "inference backend: ollama or openai")
	processCmd.Flags().StringVar(&processModel, "model", "", "model identifier for the backend")
	processCmd.Flags().StringVar(&processBaseURL, "base-url", "", "backend API base URL")
	processCmd.Flags().StringVar(&processAPIKey, "api-key", "", "API key for hosted backends")
	processCmd.Flags().IntVarP(&processWorkers, "workers", "w", 0, "conversation worker pool size")
	processCmd.Flags().Float64Var(&processRate, "rate-limit", 0, "max backend calls per second (0 disables)")
	processCmd.Flags().BoolVar(&processSegment, "segment", false, "split plain-text inputs holding several conversations")
	processCmd.Flags().BoolVar(&processWatch, "watch", false, "keep running and process files as they appear")
	rootCmd.AddCommand(processCmd)
}

// defaultBuildLLM constructs the configured inference backend.
func defaultBuildLLM(backend, model, baseURL, apiKey string) (driven.LLMService, error) {
	switch backend {
	case "", "ollama":
		return ollama.NewLLMService(ollama.Config{BaseURL: baseURL, Model: model}), nil
	case "openai":
		return openai.NewLLMService(openai.Config{APIKey: apiKey, BaseURL: baseURL, Model: model})
	default:
		return nil, fmt.Errorf("unknown backend %q (expected ollama or openai)", backend)
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	registry := input.NewRegistry(csvin.New(), xlsxin.New(), txtin.New(), pdfin.New())

	files, err := collectInputs(args, registry)
	if err != nil {
		return err
	}

	backend := flagOr(processBackend, driven.ConfigLLMBackend, "ollama")
	model := flagOr(processModel, driven.ConfigLLMModel, "")
	baseURL := flagOr(processBaseURL, driven.ConfigLLMBaseURL, "")
	apiKey := flagOr(processAPIKey, driven.ConfigLLMAPIKey, "")
	outputDir := flagOr(processOutput, driven.ConfigOutputDir, "cleaned")

	workers := processWorkers
	if workers == 0 {
		workers = configInt(driven.ConfigPipelineWorkers, services.DefaultWorkers)
	}

	llm, err := buildLLM(backend, model, baseURL, apiKey)
	if err != nil {
		return err
	}
	defer llm.Close()

	if err := llm.Ping(ctx); err != nil {
		return fmt.Errorf("backend %s (%s) is unreachable: %v: %w",
			backend, llm.ModelName(), err, domain.ErrBackendUnavailable)
	}

	cache, err := openCache(configString(driven.ConfigCacheDir, ""))
	if err != nil {
		return fmt.Errorf("opening result cache: %w", err)
	}
	defer cache.Close()

	rateLimit := processRate
	if rateLimit == 0 {
		rateLimit = configFloat(driven.ConfigLLMRateLimit, 0)
	}
	gate := services.NewGate(configInt(driven.ConfigLLMSlots, 1), rateLimit)

	parser, err := services.NewParser(llm, gate)
	if err != nil {
		return err
	}

	segmenter, err := services.NewSegmenter(llm, gate, cache)
	if err != nil {
		return err
	}

	if promptStore != nil {
		parser.SetPromptStore(promptStore)
		segmenter.SetPromptStore(promptStore)
	}

	processor := services.NewProcessor(
		buildChunker(),
		parser,
		buildMerger(),
		cache,
		services.WithWorkers(workers),
		services.WithWriter(csvout.NewWriter(outputDir)),
	)

	run := func(paths []string) {
		transcripts := readTranscripts(ctx, cmd, registry, segmenter, paths)
		if len(transcripts) == 0 {
			cmd.Println("No conversations found in input.")
			return
		}
		printSummary(cmd, processor.ProcessBatch(ctx, transcripts))
	}

	run(files)

	if processWatch {
		return watchInputs(ctx, cmd, registry, args, run)
	}
	return nil
}

// flagOr resolves a string setting: explicit flag, then config, then default.
func flagOr(flagValue, configKey, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	return configString(configKey, fallback)
}

// buildChunker creates the chunk splitter from configuration.
func buildChunker() *chunker.Processor {
	minSize := configInt(driven.ConfigChunkMinSize, chunker.DefaultMinChunkSize)
	maxSize := configInt(driven.ConfigChunkMaxSize, chunker.DefaultMaxChunkSize)
	overlap := configInt(driven.ConfigChunkOverlap, chunker.DefaultOverlap)
	return chunker.New(chunker.WithTargetRange(minSize, maxSize), chunker.WithOverlap(overlap))
}

// buildMerger creates the result merger from configuration.
func buildMerger() *services.Merger {
	if threshold := configFloat(driven.ConfigMergeThreshold, 0); threshold > 0 {
		return services.NewMerger(services.WithSimilarityThreshold(threshold))
	}
	return services.NewMerger()
}

// collectInputs expands file and directory arguments into the list of
// supported input files.
func collectInputs(args []string, registry driven.ReaderRegistry) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", arg, err)
		}

		if !info.IsDir() {
			if !registry.Supported(arg) {
				return nil, fmt.Errorf("input %s: %w", arg, domain.ErrUnsupportedInput)
			}
			files = append(files, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			if registry.Supported(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no supported input files found: %w", domain.ErrUnsupportedInput)
	}
	return files, nil
}

// readTranscripts extracts raw transcripts from the input files. A file
// that fails to read is reported and skipped; it never aborts the batch.
// With --segment, plain-text transcripts are split into individual
// conversations first.
func readTranscripts(
	ctx context.Context,
	cmd *cobra.Command,
	registry driven.ReaderRegistry,
	segmenter *services.Segmenter,
	files []string,
) []domain.RawTranscript {
	var transcripts []domain.RawTranscript
	for _, path := range files {
		extracted, err := registry.Read(ctx, path)
		if err != nil {
			cmd.PrintErrf("skipping %s: %v\n", path, err)
			continue
		}
		for _, tr := range extracted {
			if processSegment && isPlaintext(tr.SourcePath) {
				transcripts = append(transcripts, segmentTranscript(ctx, cmd, segmenter, tr)...)
				continue
			}
			transcripts = append(transcripts, tr)
		}
	}
	return transcripts
}

// segmentTranscript splits one raw transcript into per-conversation
// transcripts. On segmentation failure the transcript passes through whole.
func segmentTranscript(
	ctx context.Context,
	cmd *cobra.Command,
	segmenter *services.Segmenter,
	tr domain.RawTranscript,
) []domain.RawTranscript {
	segments, err := segmenter.Segment(ctx, tr.Text)
	if err != nil {
		cmd.PrintErrf("segmenting %s failed, keeping whole: %v\n", tr.ConversationID, err)
		return []domain.RawTranscript{tr}
	}
	if len(segments) == 1 {
		return []domain.RawTranscript{tr}
	}

	logger.Info("split %s into %d conversations", tr.ConversationID, len(segments))
	out := make([]domain.RawTranscript, 0, len(segments))
	for i, seg := range segments {
		out = append(out, domain.RawTranscript{
			ConversationID: fmt.Sprintf("%s_part%02d", tr.ConversationID, i+1),
			Text:           seg,
			SourcePath:     tr.SourcePath,
		})
	}
	return out
}

func isPlaintext(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".log":
		return true
	}
	return false
}

// printSummary reports the outcome of one batch run.
func printSummary(cmd *cobra.Command, summary *driving.RunSummary) {
	cmd.Printf("Run %s: %d cleaned, %d failed (%d cache hits, %d backend calls)\n",
		summary.RunID, len(summary.Succeeded), len(summary.Failed),
		summary.CacheHits, summary.BackendCalls)

	for _, outcome := range summary.Succeeded {
		cmd.Printf("  %s -> %s\n", outcome.ConversationID, outcome.ArtifactPath)
	}
	for _, outcome := range summary.Failed {
		cmd.Printf("  %s FAILED: %s\n", outcome.ConversationID, outcome.Err)
	}
}

// watchInputs processes supported files as they appear or change under the
// watched directories. Runs until interrupted.
func watchInputs(
	ctx context.Context,
	cmd *cobra.Command,
	registry driven.ReaderRegistry,
	args []string,
	run func([]string),
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := watcher.Add(arg); err != nil {
			return fmt.Errorf("watching %s: %w", arg, err)
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("--watch needs at least one directory argument")
	}

	cmd.Printf("Watching %d directories. Press Ctrl-C to stop.\n", watched)

	// A copy settles before we read it; editors and exports fire several
	// write events per file.
	const settle = 500 * time.Millisecond
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !registry.Supported(event.Name) || strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case now := <-ticker.C:
			var ready []string
			for path, seen := range pending {
				if now.Sub(seen) >= settle {
					ready = append(ready, path)
					delete(pending, path)
				}
			}
			if len(ready) > 0 {
				run(ready)
			}
		}
	}
}
