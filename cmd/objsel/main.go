package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/analysis-suite/objsel/internal/analyzer"
	"github.com/analysis-suite/objsel/internal/config"
	"github.com/analysis-suite/objsel/internal/monitoring"
	"github.com/analysis-suite/objsel/internal/output"
	"github.com/analysis-suite/objsel/internal/scalefactors"
	"github.com/analysis-suite/objsel/internal/source"
	"github.com/analysis-suite/objsel/internal/timeutil"
	"github.com/analysis-suite/objsel/internal/version"
)

var (
	configPath  = flag.String("config", "", "Analysis config JSON (built-in defaults when empty)")
	inputPath   = flag.String("input", "-", "JSON-lines event file, - for stdin")
	outputPath  = flag.String("output", "", "Output SQLite database (overrides output_db)")
	maxEvents   = flag.Int("max-events", -1, "Stop after this many events (overrides max_events; 0 = no limit)")
	metricsAddr = flag.String("metrics", "", "Serve Prometheus metrics on this address, e.g. :2112")
	showVersion = flag.Bool("version", false, "Print version and exit")
	verbose     = flag.Bool("verbose", false, "Enable debug logging")
)

// options are the resolved command-line settings for one run.
type options struct {
	cfg         *config.AnalysisConfig
	input       io.Reader
	outputDB    string
	maxEvents   int
	metrics     *monitoring.Metrics
	progressLog int
	clock       timeutil.Clock
}

// stats summarise a completed run.
type stats struct {
	RunID  string
	Events int
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetVerbose(*verbose)

	cfg := config.DefaultAnalysisConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadAnalysisConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	in := io.Reader(os.Stdin)
	if *inputPath != "-" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.Fatalf("Failed to open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	opts := options{
		cfg:         cfg,
		input:       in,
		outputDB:    cfg.GetOutputDB(),
		maxEvents:   cfg.GetMaxEvents(),
		progressLog: cfg.GetProgressEvery(),
	}
	if *outputPath != "" {
		opts.outputDB = *outputPath
	}
	if *maxEvents >= 0 {
		opts.maxEvents = *maxEvents
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts.metrics = monitoring.NewMetrics(reg)
		server := &http.Server{
			Addr:    *metricsAddr,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
		log.Printf("serving metrics on %s/metrics", *metricsAddr)
	}

	st, err := run(ctx, opts)
	if err != nil {
		log.Fatalf("objsel: %v", err)
	}
	log.Printf("run %s complete: %d events written to %s", st.RunID, st.Events, opts.outputDB)
}

// run selects every event of opts.input and writes it to opts.outputDB. The
// context is checked between events.
func run(ctx context.Context, opts options) (stats, error) {
	var st stats
	clock := opts.clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	weights := scalefactors.Builtin()
	if path := opts.cfg.GetWeightsFile(); path != "" {
		var err error
		weights, err = scalefactors.LoadWeights(path)
		if err != nil {
			return st, fmt.Errorf("load weights: %w", err)
		}
	}
	wp, err := scalefactors.ParseWorkingPoint(opts.cfg.GetBTagWorkingPoint())
	if err != nil {
		return st, err
	}
	calib := scalefactors.NewFormulaCalibration(wp)

	dec := source.NewDecoder(opts.input)
	first, err := dec.Next()
	if errors.Is(err, io.EOF) {
		monitoring.Logf("input is empty, nothing to do")
		return st, nil
	}
	if err != nil {
		return st, err
	}

	// The first event fixes the branch schema for the whole input.
	src := source.NewEventSource(source.SchemaOf(first))
	anOpts := []analyzer.Option{analyzer.WithClock(clock)}
	if opts.metrics != nil {
		anOpts = append(anOpts, analyzer.WithMetrics(opts.metrics))
	}
	an, err := analyzer.New(opts.cfg, src, weights, calib, anOpts...)
	if err != nil {
		return st, err
	}

	store, err := output.OpenStore(opts.outputDB)
	if err != nil {
		return st, err
	}
	defer store.Close()

	year, err := opts.cfg.GetYear()
	if err != nil {
		return st, err
	}
	runRec := &output.Run{
		Year:        year.String(),
		IsMC:        opts.cfg.GetIsMC(),
		Systematics: an.Registry().Names(),
	}
	if err := store.CreateRun(runRec); err != nil {
		return st, err
	}
	st.RunID = runRec.RunID
	monitoring.Logf("run %s: writing to %s", runRec.RunID, opts.outputDB)

	start := clock.Now()
	ev := first
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		res, err := an.ProcessEvent(ev)
		if err != nil {
			return st, fmt.Errorf("line %d: %w", dec.Line(), err)
		}
		if err := store.WriteEvent(runRec.RunID, &res.EventRecord); err != nil {
			return st, fmt.Errorf("line %d: %w", dec.Line(), err)
		}
		st.Events++
		monitoring.Debugf("event %d/%d/%d: %d jets, %d leptons", ev.Run, ev.Lumi, ev.Event, res.Jets.Len(), res.Leptons.Len())

		if opts.progressLog > 0 && st.Events%opts.progressLog == 0 {
			rate := float64(st.Events) / clock.Since(start).Seconds()
			monitoring.Logf("processed %d events (%.0f/s)", st.Events, rate)
		}
		if opts.maxEvents > 0 && st.Events >= opts.maxEvents {
			break
		}

		ev, err = dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, err
		}
	}
	return st, nil
}
