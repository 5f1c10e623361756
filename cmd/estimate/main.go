/*
main.go - Command-line estimator

PURPOSE:
  Prices an estimate request without running the server. Reads the same
  JSON the API accepts and prints the statement as text, or writes it as
  a PDF.

COMMAND-LINE FLAGS:
  -in     Estimate JSON file, "-" for stdin (default: -)
  -db     SQLite fee schedule; empty uses the built-in defaults
  -pdf    Write a PDF statement to this path ("-" for stdout)
  -name   Patient name printed in the header
  -dob    Patient date of birth printed in the header
  -logo   PNG printed at the top of the PDF

EXAMPLES:
  # Default schedule, $500 deductible
  echo '{"plan": {"deductible_total": 500}}' | ./estimate

  # PDF for a nasal mask setup
  ./estimate -in request.json -pdf cpap_eob.pdf -name "Jordan Smith"

  Writing PDF bytes to a terminal is refused; redirect stdout instead.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/warp/cpap-estimator/catalog"
	"github.com/warp/cpap-estimator/catalog/store"
	"github.com/warp/cpap-estimator/costshare"
	"github.com/warp/cpap-estimator/factory"
	"github.com/warp/cpap-estimator/logging"
	"github.com/warp/cpap-estimator/statement"
	"github.com/warp/cpap-estimator/store/sqlite"
	"golang.org/x/term"
)

// errTerminal is returned when PDF output would go to a terminal.
var errTerminal = errors.New("refusing to write PDF to a terminal; redirect stdout or pass a file path")

// options are the parsed command-line flags.
type options struct {
	in     string
	db     string
	pdf    string
	name   string
	dob    string
	logo   string
	isatty func(*os.File) bool
	today  time.Time
}

func main() {
	logging.InitWriter(os.Stderr, "cpap-estimate", "development", "warn")

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if err := run(context.Background(), opts, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Estimate failed")
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	opts := options{
		isatty: func(f *os.File) bool { return term.IsTerminal(int(f.Fd())) },
		today:  time.Now(),
	}

	fs := flag.NewFlagSet("estimate", flag.ContinueOnError)
	fs.StringVar(&opts.in, "in", "-", `Estimate JSON file ("-" for stdin)`)
	fs.StringVar(&opts.db, "db", "", "SQLite fee schedule (default: built-in schedule)")
	fs.StringVar(&opts.pdf, "pdf", "", `Write a PDF statement to this path ("-" for stdout)`)
	fs.StringVar(&opts.name, "name", "", "Patient name")
	fs.StringVar(&opts.dob, "dob", "", "Patient date of birth")
	fs.StringVar(&opts.logo, "logo", "", "PNG logo for the PDF")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout *os.File) error {
	if opts.pdf == "-" && opts.isatty(stdout) {
		return errTerminal
	}

	body, err := readInput(opts.in, stdin)
	if err != nil {
		return err
	}

	st, closeStore, err := openCatalog(ctx, opts.db)
	if err != nil {
		return err
	}
	defer closeStore()

	f := factory.NewEstimateFactory(st)
	ej, err := f.ParseEstimate(body)
	if err != nil {
		return err
	}
	req, err := f.Build(ctx, ej)
	if err != nil {
		return err
	}
	est, err := costshare.Simulate(req.Items, req.Plan)
	if err != nil {
		return err
	}

	docOpts := statement.Options{Date: opts.today, PatientName: opts.name, DOB: opts.dob}
	if opts.pdf == "" {
		return statement.RenderText(stdout, statement.Build(est, docOpts))
	}

	if opts.logo != "" {
		if docOpts.Logo, err = os.ReadFile(opts.logo); err != nil {
			return fmt.Errorf("failed to read logo: %w", err)
		}
	}
	return writePDF(opts.pdf, stdout, statement.Build(est, docOpts))
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// openCatalog opens the SQLite fee schedule at path, or an in-memory copy
// of the defaults when path is empty.
func openCatalog(ctx context.Context, path string) (catalog.Store, func(), error) {
	if path == "" {
		mem := store.NewMemory()
		if err := catalog.Seed(ctx, mem); err != nil {
			return nil, nil, err
		}
		return mem, func() {}, nil
	}

	db, err := sqlite.New(path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

func writePDF(path string, stdout *os.File, doc statement.Document) error {
	if path == "-" {
		return statement.RenderPDF(stdout, doc)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := statement.RenderPDF(out, doc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
