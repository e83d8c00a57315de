// Command evctx loads a batch of events, from a file or a NATS subject, and
// prints the resulting event context.
//
// Usage:
//
//	evctx [flags]           render a batch
//	evctx schema            print the JSON schema of an encoded event
//
// Flags:
//
//	-f file         read events from file ("-" for stdin), a JSON array or JSON lines
//	-nats subject   collect events published on a NATS subject instead
//	-for duration   how long to collect from NATS (default 5s)
//	-filter a,b     keep only the events of these messages
//	-combine op     operator joining several filters: and, or (default and)
//	-policy p       stamp events without a policy: check, wait, check_wait
//	-marker m       colour the events: green, red, yellow
//	-last           print only the most recent event
//	-dump           pretty print the event structures
//	-report         print a markdown summary
//
// Environment:
//
//	NATS_URL             NATS server URL
//	EVCTX_LOG_LEVEL      debug, info, warn or error (default warn)
//	EVCTX_REPORT_STYLE   glamour style of the report (default auto)
//	EVCTX_REPORT_WIDTH   word wrap of the report (default 100)
//	NO_COLOR             disable colours
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	// Load .env before reading the configuration
	_ "github.com/joho/godotenv/autoload"

	"github.com/caarlos0/env/v11"
	"github.com/casualjim/evctx/events"
	"github.com/casualjim/evctx/ingest"
	"github.com/casualjim/evctx/internal/report"
	"github.com/casualjim/evctx/marker"
	"github.com/casualjim/evctx/messages"
	"github.com/casualjim/evctx/pkg/natsx"
	"github.com/casualjim/evctx/pkg/slogx"
	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/k0kubun/pp/v3"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

type config struct {
	NatsURL     string     `env:"NATS_URL"`
	LogLevel    slog.Level `env:"EVCTX_LOG_LEVEL"    envDefault:"warn"`
	ReportStyle string     `env:"EVCTX_REPORT_STYLE" envDefault:"auto"`
	ReportWidth int        `env:"EVCTX_REPORT_WIDTH" envDefault:"100"`
	NoColor     bool       `env:"NO_COLOR"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func setupLogging(w io.Writer, level slog.Level, noColor bool) {
	output := zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: level}),
	))
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(os.Stderr, cfg.LogLevel, cfg.NoColor)
	if cfg.NoColor {
		color.NoColor = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("evctx failed", slogx.Error(err))
		os.Exit(1)
	}
}

type cliOptions struct {
	file    string
	subject string
	wait    time.Duration
	filter  string
	combine string
	policy  string
	marker  string
	last    bool
	dump    bool
	report  bool
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, error) {
	var o cliOptions
	fs := flag.NewFlagSet("evctx", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.file, "f", "-", "read events from file (\"-\" for stdin)")
	fs.StringVar(&o.subject, "nats", "", "collect events from a NATS subject")
	fs.DurationVar(&o.wait, "for", 5*time.Second, "how long to collect from NATS")
	fs.StringVar(&o.filter, "filter", "", "comma separated message names to keep")
	fs.StringVar(&o.combine, "combine", string(events.OpAnd), "operator joining several filters")
	fs.StringVar(&o.policy, "policy", "", "policy stamped on events without one")
	fs.StringVar(&o.marker, "marker", "", "marker colour: green, red, yellow")
	fs.BoolVar(&o.last, "last", false, "print only the most recent event")
	fs.BoolVar(&o.dump, "dump", false, "pretty print the event structures")
	fs.BoolVar(&o.report, "report", false, "print a markdown summary")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	switch events.Combinator(o.combine) {
	case events.OpAnd, events.OpOr:
	default:
		return o, fmt.Errorf("invalid combine operator %q", o.combine)
	}
	switch events.Policy(o.policy) {
	case events.PolicyNone, events.PolicyCheck, events.PolicyWait, events.PolicyCheckWait:
	default:
		return o, fmt.Errorf("invalid policy %q", o.policy)
	}
	if o.marker != "" {
		if _, ok := marker.ByName(o.marker); !ok {
			return o, fmt.Errorf("invalid marker %q", o.marker)
		}
	}
	return o, nil
}

func run(ctx context.Context, cfg config, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) > 0 && args[0] == "schema" {
		return printSchema(stdout)
	}

	o, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}

	reg := messages.NewRegistry(messages.AutoRegister(true))
	collector := ingest.NewCollector()
	if o.subject != "" {
		err = collectNATS(ctx, cfg, o, reg, collector)
	} else {
		err = collectFile(o.file, stdin, reg, collector)
	}
	if err != nil {
		return err
	}

	var options []events.Option
	if o.policy != "" {
		options = append(options, events.WithPolicy(events.Policy(o.policy)))
	}
	if mk, ok := marker.ByName(o.marker); ok {
		options = append(options, events.WithMarker(mk))
	}
	q, err := query(collector.Drain(options...), o, reg, options)
	if err != nil {
		return err
	}
	slog.Debug("built event context", slogx.Count(q.Len()))

	return output(q, o, cfg, options, stdout)
}

func collectFile(path string, stdin io.Reader, reg *messages.Registry, c *ingest.Collector) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}

	evs, err := events.DecodeBatch(data, reg)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	c.Absorb(evs...)
	return nil
}

func collectNATS(ctx context.Context, cfg config, o cliOptions, reg *messages.Registry, c *ingest.Collector) error {
	nc, err := natsx.NewClient(cfg.NatsURL)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer nc.Close()

	ctx, cancel := context.WithTimeout(ctx, o.wait)
	defer cancel()

	sub, err := ingest.SubscribeNATS(ctx, nc, o.subject, reg, c)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	slog.Info("collecting events", slog.String("subject", o.subject), slog.Duration("for", o.wait))
	<-ctx.Done()
	return nil
}

func query(base *events.Context, o cliOptions, reg *messages.Registry, options []events.Option) (events.Queryable, error) {
	if o.filter == "" {
		return base, nil
	}

	var parts []events.Queryable
	for _, name := range strings.Split(o.filter, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		msg, err := reg.Resolve(name, 0)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", name, err)
		}
		parts = append(parts, base.Filter(msg))
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return events.Combine(events.Combinator(o.combine), parts, options...), nil
}

func output(q events.Queryable, o cliOptions, cfg config, options []events.Option, stdout io.Writer) error {
	if o.last {
		ev, ok := q.Last()
		if !ok {
			fmt.Fprintln(stdout, "no events")
			return nil
		}
		if o.dump {
			_, err := dumper().Fprintln(stdout, ev)
			return err
		}
		fmt.Fprintln(stdout, events.NewContext([]*events.Event{ev}, options...).String())
		return nil
	}

	if o.dump {
		_, err := dumper().Fprintln(stdout, q.Events())
		return err
	}

	if o.report {
		out, err := report.Render(report.Markdown("Event context", q), cfg.ReportStyle, cfg.ReportWidth)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, out)
		return nil
	}

	fmt.Fprintln(stdout, q.String())
	return nil
}

func dumper() *pp.PrettyPrinter {
	p := pp.New()
	p.SetColoringEnabled(!color.NoColor)
	return p
}

func printSchema(stdout io.Writer) error {
	data, err := json.MarshalIndent(events.RecordSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(data))
	return err
}
