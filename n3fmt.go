//
// Copyright 2021 Johns Hopkins University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/logrusorgru/aurora/v3"
	"github.com/mattn/go-sqlite3"
	"io"
	"io/ioutil"
	"log"
	"n3fmt/engine"
	"n3fmt/env"
	"n3fmt/persistence"
	"n3fmt/process"
	"n3fmt/reason"
	"n3fmt/retrieve"
	"n3fmt/visit"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	exitOk    = 0
	exitError = 1
	exitUsage = 2
	useragent = "n3fmt/0.0.1"
)

type options struct {
	format   string
	in       string
	dir      string
	workers  int
	write    bool
	reason   bool
	reasoner string
	stats    bool
	check    bool
	cacheDsn string
	timeout  time.Duration
	text     string
}

// Usage: ./n3fmt [flags] '<n3 text>'
// N3FMT_FORMAT n3
// N3FMT_CACHE_DSN file:/tmp/n3fmt.db?mode=rwc
// N3_REASONER eye
// N3FMT_TIMEOUT 60s
// N3FMT_HTTP_TIMEOUT_MS 30000
// N3FMT_HTTP_USER
// N3FMT_HTTP_PASS
// N3FMT_WORKERS 4
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// Parses the arguments, round-trips the N3 they supply and writes the result to stdout.  Answers the process exit
// status.
func run(args []string, stdout, stderr io.Writer) int {
	environment := env.New()
	logger := log.New(stderr, "", log.LstdFlags)
	log.SetOutput(stderr)
	au := aurora.NewAurora(useColor(stderr, environment))

	opts, err := parseArgs(args, environment, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOk
		}
		logger.Printf("%s", au.Red(err.Error()))
		return exitUsage
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	p, err := newProcessor(opts)
	if err != nil {
		logger.Printf("%s", au.Red(err.Error()))
		return exitError
	}

	if p.Store != nil {
		defer func() {
			if err := p.Store.Close(); err != nil {
				logger.Printf("error closing cache %s: %v", opts.cacheDsn, err)
			}
		}()
	}

	if opts.dir != "" {
		return runDir(ctx, p, opts, stdout, logger, au)
	}

	input := opts.text
	if opts.in != "" {
		r, err := newRetriever(environment)
		if err != nil {
			logger.Printf("%s", au.Red(err.Error()))
			return exitError
		}
		if input, err = r.Get(ctx, opts.in); err != nil {
			logger.Printf("%s", au.Red(err.Error()))
			return exitError
		}
	}

	out, err := p.Process(ctx, input)
	if err != nil {
		var parseErr engine.ParseErr
		if errors.As(err, &parseErr) {
			logger.Printf("%s %s", au.Bold(au.Red("parse error:")), parseErr.Error())
		} else {
			logger.Printf("%s", au.Red(err.Error()))
		}
		return exitError
	}

	if p.Reasoner != nil {
		logger.Printf("%s", au.Green("N3 rules successfully executed."))
	}

	if _, err := fmt.Fprintln(stdout, out); err != nil {
		logger.Printf("error writing output: %v", err)
		return exitError
	}

	return exitOk
}

func parseArgs(args []string, environment env.Env, stderr io.Writer) (options, error) {
	opts := options{}

	fs := flag.NewFlagSet("n3fmt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] '<n3 text>'\n", "n3fmt")
		fmt.Fprintf(stderr, "  example: %s '%s'\n", "n3fmt", "<urn:a> <urn:p> \"hello\" .")
		fmt.Fprintf(stderr, "  example: %s -format %s -in %s\n", "n3fmt", process.FormatCanonical, "http://example.org/doc.n3")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.format, "format", environment.Format, fmt.Sprintf("output format, one of %s", strings.Join(process.Formats(), ", ")))
	fs.StringVar(&opts.in, "in", "", "read N3 from a file, an http(s) URL, or - for standard input, instead of the argument")
	fs.StringVar(&opts.dir, "dir", "", "format every .n3 and .ttl file under the directory, listing those whose formatting differs")
	fs.BoolVar(&opts.write, "write", false, "with -dir, write the result to each file instead of listing it")
	fs.IntVar(&opts.workers, "workers", 0, "with -dir, the maximum number of files processed in parallel")
	fs.BoolVar(&opts.reason, "reason", false, "run the N3 through the reasoner before formatting")
	fs.StringVar(&opts.reasoner, "reasoner", environment.Reasoner, "the reasoner command used by -reason")
	fs.BoolVar(&opts.stats, "stats", false, "log statistics about the parsed graph to stderr")
	fs.BoolVar(&opts.check, "check", false, "verify the output denotes the same graph as the input")
	fs.StringVar(&opts.cacheDsn, "cache", environment.CacheDsn, "the DSN of the sqlite db used to cache results")
	timeout := fs.String("timeout", environment.Timeout, "maximum duration of the invocation, e.g. 30s")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	var err error
	if opts.timeout, err = time.ParseDuration(*timeout); err != nil {
		return opts, fmt.Errorf("error parsing the value of -timeout, must be a positive duration: %w", err)
	} else if opts.timeout <= 0 {
		return opts, fmt.Errorf("error parsing the value of -timeout, must be a positive duration: %s", *timeout)
	}

	if _, err = process.SerializerFor(opts.format); err != nil {
		return opts, err
	}

	if opts.reason && strings.TrimSpace(opts.reasoner) == "" {
		return opts, errors.New("-reason requires a reasoner command, provide -reasoner or set " + env.REASONER)
	}

	if opts.workers == 0 {
		if opts.workers, err = strconv.Atoi(environment.Workers); err != nil {
			return opts, fmt.Errorf("error parsing the value of env var %s, must be a positive integer: %s", env.WORKERS, environment.Workers)
		}
	}
	if opts.workers < 1 {
		return opts, fmt.Errorf("error parsing the value of -workers, must be a positive integer: %d", opts.workers)
	}

	if opts.write && opts.dir == "" {
		return opts, errors.New("-write requires -dir")
	}

	switch {
	case opts.dir != "" && (opts.in != "" || fs.NArg() != 0):
		fs.Usage()
		return opts, errors.New("-dir may not be combined with -in or an N3 text argument")
	case opts.dir != "":
	case opts.in == "" && fs.NArg() != 1:
		fs.Usage()
		return opts, fmt.Errorf("exactly one argument containing N3 text is required, %d supplied", fs.NArg())
	case opts.in != "" && fs.NArg() != 0:
		fs.Usage()
		return opts, errors.New("-in may not be combined with an N3 text argument")
	case opts.in == "":
		opts.text = fs.Arg(0)
	}

	return opts, nil
}

func newProcessor(opts options) (*process.Processor, error) {
	p, err := process.New(opts.format)
	if err != nil {
		return nil, err
	}

	p.Check = opts.check

	if opts.stats {
		p.StatsHandler = process.LogStatsHandler
	}

	if opts.reason {
		p.Reasoner = reason.New(opts.reasoner)
	}

	if strings.TrimSpace(opts.cacheDsn) != "" {
		if p.Store, err = newStore(opts.cacheDsn); err != nil {
			return nil, fmt.Errorf("error obtaining sqlite store: %w", err)
		}
	}

	return p, nil
}

// Round-trips every N3 document under opts.dir.  Paths of documents whose output differs from their content are
// written to stdout, or with opts.write the output replaces their content.
func runDir(ctx context.Context, p *process.Processor, opts options, stdout io.Writer, logger *log.Logger, au aurora.Aurora) int {
	mu := sync.Mutex{}
	failed := 0

	controller := visit.NewController(p, opts.workers)
	controller.ErrorHandler(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		failed++
		logger.Printf("%s", au.Red(err.Error()))
	})
	controller.DocumentHandler(func(d visit.Document) {
		out := d.Output + "\n"
		if out == d.Input {
			return
		}
		if !opts.write {
			fmt.Fprintln(stdout, d.Path)
			return
		}
		if err := ioutil.WriteFile(d.Path, []byte(out), 0644); err != nil {
			mu.Lock()
			defer mu.Unlock()
			failed++
			logger.Printf("%s", au.Red(fmt.Sprintf("error writing %s: %v", d.Path, err)))
		}
	})

	controller.Begin(ctx, opts.dir, nil, nil)

	if failed > 0 {
		logger.Printf("%s", au.Red(fmt.Sprintf("%d document(s) could not be formatted", failed)))
		return exitError
	}

	return exitOk
}

// Answers the persistence store used to cache round-trip results
func newStore(dsn string) (persistence.Store, error) {
	s, err := persistence.NewSqliteStore(dsn, persistence.SqliteParams{
		MaxIdleConn: 1,
		MaxOpenConn: 1,
	}, nil)

	if err != nil {
		return nil, err
	}

	return persistence.NewRetrySqliteStore(s, 500*time.Millisecond, 1.5, 3, sqlite3.ErrBusy, sqlite3.ErrLocked), nil
}

// Answers a Retriever implementation, used to read N3 from files, standard input, or over HTTP
func newRetriever(environment env.Env) (retrieve.Retriever, error) {
	timeout, err := strconv.Atoi(environment.HttpTimeoutMs)
	if err != nil || timeout < 1 {
		return nil, fmt.Errorf("error parsing the value of env var %s, must be a positive integer: %s", env.HTTP_TIMEOUT_MS, environment.HttpTimeoutMs)
	}

	httpClient := &http.Client{Timeout: time.Duration(timeout) * time.Millisecond}
	return retrieve.New(httpClient, environment.HttpUser, environment.HttpPassword, useragent), nil
}

// Colour is used only when writing to a terminal and NO_COLOR is unset
func useColor(w io.Writer, environment env.Env) bool {
	if environment.NoColor != "" {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	fi, err := f.Stat()
	if err != nil {
		return false
	}

	return fi.Mode()&os.ModeCharDevice != 0
}
