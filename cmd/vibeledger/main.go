package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/vibeledger/internal/advisor"
	"github.com/dvloznov/vibeledger/internal/aggregate"
	"github.com/dvloznov/vibeledger/internal/config"
	"github.com/dvloznov/vibeledger/internal/extract"
	"github.com/dvloznov/vibeledger/internal/ledger"
	bqledger "github.com/dvloznov/vibeledger/internal/ledger/bigquery"
	"github.com/dvloznov/vibeledger/internal/ledger/sheets"
	"github.com/dvloznov/vibeledger/internal/logger"
	"github.com/dvloznov/vibeledger/internal/pipeline"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "log":
		runLog(log)
	case "dashboard":
		runDashboard(log)
	case "ask":
		runAsk(log)
	case "vibe":
		runVibe(log)
	case "session":
		runSession(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("VibeLedger - tracking money, one vibe at a time")
	fmt.Println("\nUsage:")
	fmt.Println("  vibeledger <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  log        Log a transaction from free text and/or a receipt image")
	fmt.Println("  dashboard  Show totals, shared pulse, forecast and subscriptions")
	fmt.Println("  ask        Ask the advisor a question about your spending")
	fmt.Println("  vibe       Get a vibe check summary of recent transactions")
	fmt.Println("  session    Interactive session (keeps the in-memory ledger alive)")
	fmt.Println("  help       Show this help message")
	fmt.Println("\nRun 'vibeledger <command> -h' for more information on a command.")
}

// app bundles the configured collaborators for one invocation.
type app struct {
	cfg     *config.Config
	store   ledger.Store
	deps    pipeline.Deps
	advisor *advisor.Client
	cleanup func()
}

func newApp(ctx context.Context, log zerolog.Logger) *app {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	store, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger backend")
	}

	extractor, err := extract.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ModelTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extraction client")
	}

	adv, err := advisor.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ModelTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create advisor client")
	}

	deps := pipeline.Deps{Extractor: extractor, Ledger: store}
	if cfg.ReceiptsBucket != "" {
		deps.Archiver = &pipeline.GCSArchiver{Bucket: cfg.ReceiptsBucket}
	}

	return &app{cfg: cfg, store: store, deps: deps, advisor: adv, cleanup: cleanup}
}

func newStore(ctx context.Context, cfg *config.Config) (ledger.Store, func(), error) {
	switch cfg.LedgerBackend {
	case config.BackendMemory:
		return ledger.NewMemoryStore(), func() {}, nil
	case config.BackendSheets:
		s, err := sheets.New(ctx, cfg.SpreadsheetID, cfg.SheetName)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.BackendBigQuery:
		s, err := bqledger.New(ctx, cfg.BQProjectID, cfg.BQDataset, cfg.BQTable)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported ledger backend: %s", cfg.LedgerBackend)
	}
}

func runLog(log zerolog.Logger) {
	fs := flag.NewFlagSet("log", flag.ExitOnError)
	text := fs.String("text", "", "Free-text description, e.g. \"$45 on Sushi for dinner\"")
	imagePath := fs.String("image", "", "Path to a receipt image (jpg/png)")
	trip := fs.Bool("trip", false, "Trip mode: tag the expense with the travel marker")
	owner := fs.String("owner", "", "Participant who logged the expense")
	fs.Parse(os.Args[2:])

	if *text == "" && *imagePath == "" {
		log.Fatal().Msg("Feed me text or a receipt: use -text and/or -image")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := newApp(ctx, log)
	defer a.cleanup()

	if !a.cfg.ValidOwner(*owner) {
		log.Fatal().Str("owner", *owner).Strs("participants", a.cfg.Participants).
			Msg("Owner is not a configured participant")
	}

	in := pipeline.Input{Text: *text, TripMode: *trip, Owner: *owner}
	if *imagePath != "" {
		data, err := os.ReadFile(*imagePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *imagePath).Msg("Failed to read receipt image")
		}
		in.Image = data
		in.ImageMIME = mime.TypeByExtension(filepath.Ext(*imagePath))
		if in.ImageMIME == "" {
			in.ImageMIME = "image/jpeg"
		}
	}

	rec, err := pipeline.LogEntry(ctx, a.deps, in)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to log entry")
	}

	fmt.Printf("Logged: %s ($%.2f, %s, %s)\n", rec.Description, rec.Amount, rec.Category, rec.Type)
}

func runDashboard(log zerolog.Logger) {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	recentN := fs.Int("recent", 10, "How many recent records to list")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	a := newApp(ctx, log)
	defer a.cleanup()

	records, err := a.store.All(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read ledger")
	}

	m := aggregate.Summarize(records)

	fmt.Println("\n=== VibeLedger Dashboard ===")
	fmt.Printf("Total Spent:    $%.2f\n", m.TotalSpent)
	fmt.Printf("Shared Pulse:   %.0f%%\n", m.SharedPulsePercent)
	fmt.Printf("Month Forecast: $%.0f\n", m.MonthForecast)

	if len(m.Subscriptions) > 0 {
		names := make([]string, len(m.Subscriptions))
		for i, s := range m.Subscriptions {
			names[i] = s.Description
		}
		fmt.Printf("Subscription Hunter found: %s\n", strings.Join(names, ", "))
	}

	if len(m.CategoryBreakdown) > 0 {
		fmt.Println("\nBy category:")
		for cat, sum := range m.CategoryBreakdown {
			fmt.Printf("  %-14s $%.2f\n", cat, sum)
		}
	}
	if len(m.OwnerBreakdown) > 0 {
		fmt.Println("\nBy owner:")
		for owner, sum := range m.OwnerBreakdown {
			fmt.Printf("  %-14s $%.2f\n", owner, sum)
		}
	}

	recent, err := a.store.Recent(ctx, *recentN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read recent records")
	}
	if len(recent) > 0 {
		fmt.Println("\nRecent vibes:")
		for _, r := range recent {
			fmt.Printf("  %s  %-30s %-13s %8.2f  %s\n",
				r.DateString(), r.Description, r.Category, r.Amount, r.Type)
		}
	}
	fmt.Println()
}

func runAsk(log zerolog.Logger) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	question := fs.String("q", "", "Question for the advisor, e.g. \"Can we afford a new iPad?\"")
	fs.Parse(os.Args[2:])

	if *question == "" {
		log.Fatal().Msg("Error: -q is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	a := newApp(ctx, log)
	defer a.cleanup()

	records, err := a.store.All(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read ledger")
	}

	answer, err := a.advisor.Ask(ctx, *question, records)
	if err != nil {
		log.Fatal().Err(err).Msg("Advisor failed")
	}
	fmt.Println(answer)
}

func runVibe(log zerolog.Logger) {
	ctx := logger.WithContext(context.Background(), log)
	a := newApp(ctx, log)
	defer a.cleanup()

	records, err := a.store.All(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read ledger")
	}

	summary, err := a.advisor.VibeCheck(ctx, records)
	if err != nil {
		log.Fatal().Err(err).Msg("Vibe check failed")
	}
	fmt.Printf("Current Vibe: %s\n", summary)
}

// runSession keeps one in-process ledger alive across entries, which is the
// only way to use the memory backend meaningfully from a terminal.
func runSession(log zerolog.Logger) {
	ctx := logger.WithContext(context.Background(), log)
	a := newApp(ctx, log)
	defer a.cleanup()

	tripMode := false
	fmt.Println("VibeLedger session. Type an expense to log it, or:")
	fmt.Println("  /trip        toggle trip mode")
	fmt.Println("  /dash        show the dashboard")
	fmt.Println("  /vibe        vibe check")
	fmt.Println("  /ask <q>     ask the advisor")
	fmt.Println("  /quit        exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return
		case line == "/trip":
			tripMode = !tripMode
			fmt.Printf("Trip mode: %v\n", tripMode)
		case line == "/dash":
			printSessionDashboard(ctx, a)
		case line == "/vibe":
			records, err := a.store.All(ctx)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			summary, err := a.advisor.VibeCheck(ctx, records)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("Current Vibe: %s\n", summary)
		case strings.HasPrefix(line, "/ask "):
			records, err := a.store.All(ctx)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			answer, err := a.advisor.Ask(ctx, strings.TrimPrefix(line, "/ask "), records)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Println(answer)
		default:
			rec, err := pipeline.LogEntry(ctx, a.deps, pipeline.Input{Text: line, TripMode: tripMode})
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("Logged: %s ($%.2f, %s, %s)\n", rec.Description, rec.Amount, rec.Category, rec.Type)
		}
	}
}

func printSessionDashboard(ctx context.Context, a *app) {
	records, err := a.store.All(ctx)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	m := aggregate.Summarize(records)
	fmt.Printf("Total Spent: $%.2f | Shared Pulse: %.0f%% | Month Forecast: $%.0f\n",
		m.TotalSpent, m.SharedPulsePercent, m.MonthForecast)
	if len(m.Subscriptions) > 0 {
		names := make([]string, len(m.Subscriptions))
		for i, s := range m.Subscriptions {
			names[i] = s.Description
		}
		fmt.Printf("Subscription Hunter found: %s\n", strings.Join(names, ", "))
	}
}
