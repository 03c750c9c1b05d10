package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-importer/internal/app"
	"github.com/dvloznov/statement-importer/internal/domain"
	"github.com/dvloznov/statement-importer/internal/logger"
	"github.com/dvloznov/statement-importer/internal/pipeline"
	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	cfg, log, err := app.Bootstrap()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(logger.WithContext(context.Background(), log), 15*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	err = run(ctx, a, os.Args[2:])
	a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if app.IsInputError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var commands = map[string]func(ctx context.Context, a *app.App, args []string) error{
	"import":       runImport,
	"sync":         runSync,
	"categories":   runCategories,
	"transactions": runTransactions,
	"runs":         runRuns,
	"undo":         runUndo,
}

func printUsage() {
	fmt.Println("Statement Importer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  import        Import a CSV, XLSX or PDF bank statement")
	fmt.Println("  sync          Import every page of a bank-feed account")
	fmt.Println("  categories    List the category catalog")
	fmt.Println("  transactions  List imported transactions in a date range")
	fmt.Println("  runs          List recent import runs")
	fmt.Println("  undo          Delete an import run and its transactions")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runImport(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to the statement file")
	kind := fs.String("kind", "", "Force the reader: delimited, spreadsheet or pdf")
	user := fs.String("user", "", "User to import for (defaults to import.user_id)")
	fs.Parse(args)

	if *filePath == "" {
		return errors.New("-file is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *filePath, err)
	}

	summary, err := a.Importer.Import(ctx, a.UserID(*user), pipeline.Input{
		Filename: filepath.Base(*filePath),
		Kind:     pipeline.Source(*kind),
		Data:     data,
	})
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func runSync(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	account := fs.String("account", "", "Bank-feed account id (defaults to every configured account)")
	user := fs.String("user", "", "User to import for (defaults to import.user_id)")
	fs.Parse(args)

	accounts := a.Config.BankFeed.Accounts
	if *account != "" {
		accounts = []string{*account}
	}
	if len(accounts) == 0 {
		return errors.New("-account is required when bankfeed.accounts is empty")
	}

	results := make(map[string]domain.ImportSummary, len(accounts))
	for _, acc := range accounts {
		summary, err := a.SyncAccount(ctx, *user, acc)
		if err != nil {
			return fmt.Errorf("account %s: %w", acc, err)
		}
		results[acc] = summary
	}
	if *account != "" {
		return printJSON(results[*account])
	}
	return printJSON(results)
}

func runCategories(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	user := fs.String("user", "", "User whose catalog to list")
	fs.Parse(args)

	categories, err := a.Store.ListCategories(ctx, a.UserID(*user))
	if err != nil {
		return err
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return printJSON(categories)
}

func runTransactions(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	from := fs.String("from", "", "First date, YYYY-MM-DD (defaults to one year ago)")
	to := fs.String("to", "", "Last date, YYYY-MM-DD (defaults to today)")
	user := fs.String("user", "", "User whose transactions to list")
	fs.Parse(args)

	end := civil.DateOf(time.Now())
	start := end.AddYears(-1)
	var err error
	if *from != "" {
		if start, err = civil.ParseDate(*from); err != nil {
			return fmt.Errorf("invalid -from: %w", err)
		}
	}
	if *to != "" {
		if end, err = civil.ParseDate(*to); err != nil {
			return fmt.Errorf("invalid -to: %w", err)
		}
	}

	txs, err := a.Store.ListTransactions(ctx, a.UserID(*user), start, end)
	if err != nil {
		return err
	}
	if txs == nil {
		txs = []domain.StoredTransaction{}
	}
	return printJSON(txs)
}

func runRuns(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of runs to show")
	user := fs.String("user", "", "User whose runs to list")
	fs.Parse(args)

	runs, err := a.Store.ListImportRuns(ctx, a.UserID(*user), *limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []domain.ImportRun{}
	}
	return printJSON(runs)
}

func runUndo(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("undo", flag.ExitOnError)
	runID := fs.String("run", "", "Import run id to delete")
	user := fs.String("user", "", "Owner of the run")
	fs.Parse(args)

	if *runID == "" {
		return errors.New("-run is required")
	}
	if err := a.Store.DeleteImportRun(ctx, a.UserID(*user), *runID); err != nil {
		return err
	}
	fmt.Printf("Deleted import run %s\n", *runID)
	return nil
}
