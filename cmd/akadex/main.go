package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/akadex/akadex/internal/capability"
	"github.com/akadex/akadex/internal/chain"
	"github.com/akadex/akadex/internal/config"
	"github.com/akadex/akadex/internal/ingest"
	"github.com/akadex/akadex/internal/llm"
	"github.com/akadex/akadex/internal/mcp"
	"github.com/akadex/akadex/internal/query"
	"github.com/akadex/akadex/internal/store"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "ingest":
		err = runIngest(os.Args[2:])
	case "ask":
		err = runAsk(os.Args[2:])
	case "delete":
		err = runDelete(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "config":
		err = runConfig(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("akadex %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags are the flags shared by every command.
type cliFlags struct {
	owner      string
	docID      string
	configPath string
	dbPath     string
	llmFlag    string
	model      string
	rest       []string
}

// parseFlags splits "--flag value" pairs from positional arguments.
func parseFlags(args []string) (cliFlags, error) {
	f := cliFlags{owner: "local"}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			f.rest = append(f.rest, arg)
			continue
		}
		if i+1 >= len(args) {
			return f, fmt.Errorf("flag %s needs a value", arg)
		}
		val := args[i+1]
		i++
		switch arg {
		case "--owner", "-o":
			f.owner = val
		case "--doc-id":
			f.docID = val
		case "--config":
			f.configPath = val
		case "--db":
			f.dbPath = val
		case "--llm":
			f.llmFlag = val
		case "--model":
			f.model = val
		default:
			return f, fmt.Errorf("unknown flag: %s", arg)
		}
	}
	return f, nil
}

// runtime is everything a command needs, wired from the resolved config.
type runtime struct {
	cfg      config.ResolvedConfig
	store    store.FactStore
	pipeline *ingest.Pipeline
	router   *query.Router
}

func buildRuntime(f cliFlags) (*runtime, error) {
	cfg, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: f.configPath,
		CLILLM:     f.llmFlag,
		CLIModel:   f.model,
		CLIDBPath:  f.dbPath,
	})
	if err != nil {
		return nil, err
	}

	dbPath := cfg.DBPath.Value
	if dbPath == "" {
		dbPath = store.DefaultDBPath
	}
	s, err := store.NewStore(store.StoreConfig{DBPath: dbPath})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	// The capability chains degrade to rule-only parsing when no LLM is
	// configured.
	var provider llm.Provider
	if cfg.LLMProvider.Value != "" {
		provider, err = llm.NewProvider(llm.Config{
			Provider: cfg.LLMProvider.Value,
			Model:    cfg.LLMModel.Value,
			APIKey:   cfg.APIKeyForProvider(cfg.LLMProvider.Value).Value,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: LLM unavailable, rule extraction only: %v\n", err)
			provider = nil
		}
	}

	models := llm.RankModels(cfg.LLMModel.Value, cfg.BackupModels)
	retrySleep := time.Duration(cfg.RetrySleepMS) * time.Millisecond
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	scheduleChain := &chain.ScheduleChain{Enabled: cfg.CapabilitySchedule}
	transcriptChain := &chain.TranscriptChain{Enabled: cfg.CapabilityTranscript}
	if provider != nil {
		opts := capability.Options{
			Provider:   provider,
			Models:     models,
			RetrySleep: retrySleep,
			Timeout:    timeout,
			MaxRows:    cfg.MaxScheduleRows,
		}
		scheduleChain.Parser = capability.NewScheduleParser(opts)
		transcriptChain.Parser = capability.NewTranscriptParser(opts)
		if cfg.HybridRepair {
			scheduleChain.Repairer = &capability.Repairer{
				Provider:   provider,
				Models:     models,
				RetrySleep: retrySleep,
				Threshold:  cfg.RepairThreshold,
				MaxRows:    cfg.RepairMaxRows,
				BatchSize:  cfg.RepairBatchSize,
			}
		}
	}

	loc, err := time.LoadLocation(cfg.Timezone.Value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: unknown timezone %q, using %s\n", cfg.Timezone.Value, query.DefaultTimezone)
		loc = nil
	}

	return &runtime{
		cfg:   cfg,
		store: s,
		pipeline: &ingest.Pipeline{
			Store:           s,
			ScheduleChain:   scheduleChain,
			TranscriptChain: transcriptChain,
			MaxScheduleRows: cfg.MaxScheduleRows,
			ChunkSize:       cfg.ChunkSize,
			ChunkOverlap:    cfg.ChunkOverlap,
			ChunkProfile:    cfg.ChunkProfile,
		},
		router: &query.Router{
			Store:        s,
			LowGrades:    cfg.LowGradeSet(),
			Location:     loc,
			MaxCitations: cfg.MaxCitations,
		},
	}, nil
}

func runIngest(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.rest) == 0 {
		return fmt.Errorf("usage: akadex ingest <path>... [--owner <id>] [--doc-id <id>]")
	}
	if f.docID != "" && len(f.rest) > 1 {
		return fmt.Errorf("--doc-id only applies to a single file")
	}

	rt, err := buildRuntime(f)
	if err != nil {
		return err
	}
	defer rt.store.Close()
	ctx := context.Background()

	for _, path := range f.rest {
		ext := ingest.FindExtractor(ingest.DefaultExtractors(), path)
		if ext == nil {
			fmt.Fprintf(os.Stderr, "  Skipping %s: unsupported file type\n", path)
			continue
		}
		doc, err := ext.Extract(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Error extracting %s: %v\n", path, err)
			continue
		}

		docID := f.docID
		if docID == "" {
			docID = uuid.NewString()
		}

		fmt.Printf("Ingesting %s...\n", path)
		res, err := rt.pipeline.Run(ctx, f.owner, docID, doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
			continue
		}
		fmt.Printf("  doc_id=%s type=%s chunks=%d", res.DocID, res.DocType, res.ChunksWritten)
		if res.ScheduleRows > 0 {
			fmt.Printf(" schedule_rows=%d source=%s", res.ScheduleRows, res.ScheduleSource)
		}
		if res.TranscriptRows > 0 {
			fmt.Printf(" transcript_rows=%d source=%s", res.TranscriptRows, res.TranscriptSource)
		}
		if res.Deleted > 0 {
			fmt.Printf(" replaced=%d", res.Deleted)
		}
		fmt.Println()
	}
	return nil
}

func runAsk(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.rest) == 0 {
		return fmt.Errorf("usage: akadex ask <question> [--owner <id>] [--doc-id <id>]")
	}

	rt, err := buildRuntime(f)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	req := query.Request{
		OwnerID: f.owner,
		Query:   strings.Join(f.rest, " "),
	}
	if f.docID != "" {
		req.DocIDs = []string{f.docID}
	}

	res := rt.router.Run(context.Background(), req)
	fmt.Println(res.Answer)
	if len(res.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sumber:")
		for _, c := range res.Sources {
			fmt.Printf("  - %s\n", c.Source)
		}
	}
	return nil
}

func runDelete(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	if len(f.rest) > 0 {
		return fmt.Errorf("usage: akadex delete --owner <id> [--doc-id <id>]")
	}

	rt, err := buildRuntime(f)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	filter := store.Filter{"user_id": f.owner}
	if f.docID != "" {
		filter["doc_id"] = f.docID
	}
	res, err := store.DeleteStrict(context.Background(), rt.store, filter, 0, 0)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d chunks\n", res.Deleted)
	return nil
}

func runStats(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(f)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	st, err := rt.store.Stats(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Chunks:    %d\n", st.ChunkCount)
	fmt.Printf("Owners:    %d\n", st.OwnerCount)
	fmt.Printf("Documents: %d\n", st.DocCount)
	if st.DBSizeBytes > 0 {
		fmt.Printf("DB size:   %.1f KB\n", float64(st.DBSizeBytes)/1024)
	}
	return nil
}

func runServe(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(f)
	if err != nil {
		return err
	}
	defer rt.store.Close()

	srv := mcp.NewServer(mcp.ServerConfig{
		Store:    rt.store,
		Pipeline: rt.pipeline,
		Router:   rt.router,
		Version:  version,
	})
	return mcpserver.ServeStdio(srv)
}

func runConfig(args []string) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: f.configPath,
		CLILLM:     f.llmFlag,
		CLIModel:   f.model,
		CLIDBPath:  f.dbPath,
	})
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printUsage() {
	fmt.Printf(`akadex %s — Structured Q&A over Indonesian academic documents

Usage:
  akadex <command> [arguments]

Commands:
  ingest <path>...    Ingest KRS/KHS documents (pdf, csv, xlsx, md, txt)
  ask <question>      Answer a question from the ingested documents
  delete              Delete an owner's chunks (optionally one document)
  stats               Show store statistics
  serve               Run the MCP server over stdio
  config              Print the resolved configuration with provenance
  version             Print version

Flags:
  -o, --owner <id>    Owner the command acts for (default: local)
      --doc-id <id>   Document ID to ingest as, ask about, or delete
      --config <path> Config file (default: ~/.akadex/config.yaml)
      --db <path>     Database file (default: ~/.akadex/akadex.db)
      --llm <name>    LLM provider: openrouter or google
      --model <name>  LLM model override
  -h, --help          Show this help message
  -v, --version       Print version
`, version)
}
