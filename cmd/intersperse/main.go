// Command intersperse reads newline-delimited records from files (or
// standard input) and writes them back out, one per line, with a
// separator record between every pair of records. Records are
// interspersed in parallel.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/tychoish/par"
	"github.com/tychoish/par/ers"
	"github.com/tychoish/par/internal/config"
	"github.com/tychoish/par/internal/logging"
	"github.com/tychoish/par/opt"
	"github.com/tychoish/par/plumbing"
)

const name = "intersperse"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		cancel()
		os.Exit(1)
	}
}

// run is the whole command. Errors are logged to stderr before they
// are returned.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := config.Flags(name)
	conf, err := config.Load(fs, args)
	switch {
	case ers.Is(err, pflag.ErrHelp):
		fmt.Fprintf(stdout, "usage: %s [flags] [files...]\n\n%s", name, fs.FlagUsages())
		return nil
	case err != nil:
		fallback := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true})
		fallback.Error().Err(err).Msg("invalid configuration")
		return err
	}

	logger, err := logging.New(conf.Logging, stderr)
	if err != nil {
		return err
	}
	logger = logger.With().Str("run", uuid.NewString()).Logger()

	if err := intersperse(ctx, logger, conf, stdin, stdout); err != nil {
		logger.Error().Err(err).Msg("intersperse failed")
		return err
	}

	return nil
}

func intersperse(ctx context.Context, logger zerolog.Logger, conf *config.Config, stdin io.Reader, stdout io.Writer) error {
	start := time.Now()

	records, err := readAll(conf, stdin)
	if err != nil {
		return err
	}

	logger.Debug().
		Int("records", len(records)).
		Strs("files", conf.Files).
		Msg("read input")

	out, err := par.Collect(ctx, par.Intersperse(par.Slice(records), conf.Separator), engineOptions(logger, conf)...)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(stdout)
	for _, rec := range out {
		if _, err := w.WriteString(rec); err != nil {
			return ers.Wrap(err, "writing output")
		}
		if err := w.WriteByte('\n'); err != nil {
			return ers.Wrap(err, "writing output")
		}
	}
	if err := w.Flush(); err != nil {
		return ers.Wrap(err, "writing output")
	}

	logger.Info().
		Int("records", len(records)).
		Int("written", len(out)).
		Dur("dur", time.Since(start)).
		Msg("complete")

	return nil
}

func engineOptions(logger zerolog.Logger, conf *config.Config) []opt.Provider[*plumbing.Conf] {
	opts := []opt.Provider[*plumbing.Conf]{
		plumbing.ConfWorkerPerCPU(),
		plumbing.ConfMinLen(conf.MinLen),
		plumbing.ConfLogger(logger.With().Str("component", "engine").Logger()),
	}
	if conf.Workers > 0 {
		opts = append(opts, plumbing.ConfNumWorkers(conf.Workers))
	}
	return opts
}

// readAll reads every record, in order, from the configured files or
// from stdin. Records are trimmed and filtered here, before the
// parallel stage, so that every record reaching it is kept.
func readAll(conf *config.Config, stdin io.Reader) ([]string, error) {
	if len(conf.Files) == 0 {
		return readRecords(conf, stdin, nil)
	}

	var records []string
	for _, path := range conf.Files {
		f, err := os.Open(path)
		if err != nil {
			return nil, ers.Wrapf(err, "opening %q", path)
		}

		records, err = readRecords(conf, f, records)
		err = ers.Join(err, f.Close())
		if err != nil {
			return nil, ers.Wrapf(err, "reading %q", path)
		}
	}
	return records, nil
}

func readRecords(conf *config.Config, r io.Reader, records []string) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		rec := scanner.Text()
		if conf.Trim {
			rec = strings.TrimSpace(rec)
		}
		if conf.SkipEmpty && rec == "" {
			continue
		}
		records = append(records, rec)
	}

	return records, scanner.Err()
}
