package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"fbscrape/internal/collect"
	"fbscrape/internal/config"
	"fbscrape/internal/dateparse"
	"fbscrape/internal/event"
	applog "fbscrape/internal/log"
	"fbscrape/internal/metrics"
	"fbscrape/internal/output"
	"fbscrape/internal/store"
	"fbscrape/internal/version"
)

// flagConfig holds CLI flag values before the YAML config is loaded.
type flagConfig struct {
	events        bool
	headless      bool
	cookies       string
	directory     string
	out           string
	jsonOut       bool
	verbose       bool
	configPath    string
	cronSpec      string
	metricsListen string
	pages         []string
}

func main() {
	flags := parseFlags()
	logger := applog.Setup(flags.verbose)

	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file found")
	}
	applyEnv(&flags)

	if err := flags.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[0], err)
		os.Exit(2)
	}

	logger.Info().Str("version", version.Version).Msg("fbscrape starting")

	configPath := flags.configPath
	if configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot locate config")
		}
		configPath = p
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("config", configPath).Msg("cannot load config")
	}
	if flags.metricsListen != "" {
		cfg.MetricsListen = flags.metricsListen
	}
	if env := os.Getenv("FBSCRAPE_CHROME"); env != "" {
		cfg.ChromePath = env
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("signal received, shutting down")
		cancel()
	}()

	if flags.cronSpec == "" {
		if errored := runOnce(ctx, logger, cfg, flags, nil); errored {
			os.Exit(1)
		}
		return
	}
	if err := watch(ctx, logger, cfg, flags); err != nil {
		logger.Fatal().Err(err).Msg("watch mode failed")
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "usage: %s [flags] [<page> ...]\n\n", os.Args[0])
		fmt.Fprintln(out, "Scrape Facebook events from mbasic pages. A <page> is a configured club")
		fmt.Fprintln(out, "name, a path relative to https://mbasic.facebook.com/, or a full URL.")
		fmt.Fprintln(out, "Without pages, every configured club is scraped.")
		fmt.Fprintln(out)
		flag.PrintDefaults()
		fmt.Fprintln(out)
		fmt.Fprintln(out, "The cookie file is a JSON-encoded list, each element an object whose")
		fmt.Fprintln(out, "`name` and `value` properties are one cookie of a Facebook session.")
	}

	flag.BoolVar(&cfg.events, "e", false, "treat <page> arguments as event URLs, not as Facebook pages")
	flag.BoolVar(&cfg.events, "events", false, "alias for -e")
	flag.BoolVar(&cfg.headless, "headless", false, "start the browser in headless mode")
	flag.StringVar(&cfg.cookies, "c", "", "cookie file (see below; or FBSCRAPE_COOKIES)")
	flag.StringVar(&cfg.cookies, "cookies", "", "alias for -c")
	flag.StringVar(&cfg.directory, "d", "", "archive directory: one .ics and .png per event, committed to git")
	flag.StringVar(&cfg.directory, "directory", "", "alias for -d")
	flag.BoolVar(&cfg.jsonOut, "j", false, "write -o as JSON instead of iCalendar")
	flag.BoolVar(&cfg.jsonOut, "json", false, "alias for -j")
	flag.StringVar(&cfg.out, "o", "", "write all events to a single file")
	flag.StringVar(&cfg.out, "out", "", "alias for -o")
	flag.BoolVar(&cfg.verbose, "v", false, "enable debug logging")
	flag.BoolVar(&cfg.verbose, "verbose", false, "alias for -v")
	flag.StringVar(&cfg.configPath, "config", "", "path to config file (default: the user config dir, or FBSCRAPE_CONFIG)")
	flag.StringVar(&cfg.cronSpec, "cron", "", "keep running, scraping on this cron schedule (needs -d)")
	flag.StringVar(&cfg.metricsListen, "metrics-listen", "", "Prometheus listen address for watch mode (overrides config)")

	flag.Parse()
	cfg.pages = flag.Args()
	return cfg
}

// applyEnv fills flag values that were not given from the environment.
func applyEnv(f *flagConfig) {
	if f.cookies == "" {
		f.cookies = os.Getenv("FBSCRAPE_COOKIES")
	}
	if f.configPath == "" {
		f.configPath = os.Getenv("FBSCRAPE_CONFIG")
	}
}

func (f flagConfig) validate() error {
	if f.cookies == "" {
		return errors.New("no cookie file given (-cookies or FBSCRAPE_COOKIES)")
	}
	if f.events && len(f.pages) == 0 {
		return errors.New("no events given")
	}
	if f.directory == "" && f.out == "" {
		return errors.New("no destination given (-directory or -out)")
	}
	if f.jsonOut && f.out == "" {
		return errors.New("-json needs -out")
	}
	if f.cronSpec != "" && f.directory == "" {
		return errors.New("-cron needs -directory")
	}
	return nil
}

// runOnce performs one full scrape under a fresh run id and records the
// outcome. It reports whether anything went wrong.
func runOnce(ctx context.Context, logger zerolog.Logger, cfg *config.Config, flags flagConfig, mon *metrics.Metrics) bool {
	runLog := logger.With().Str("run", uuid.New().String()).Logger()
	started := time.Now()

	errored := scrape(ctx, runLog, cfg, flags, mon)

	runLog.Info().Dur("took", time.Since(started)).Bool("errored", errored).Msg("run finished")
	if mon != nil {
		mon.RunCompleted(errored)
	}
	return errored
}

// scrape is one run: start a browser, collect event URLs, extract each event
// and hand it to the selected destinations. A failing page or event is
// logged and counted, never fatal; the run carries on with the rest.
func scrape(ctx context.Context, log zerolog.Logger, cfg *config.Config, flags flagConfig, mon *metrics.Metrics) bool {
	browser, err := collect.Start(ctx, collect.Options{
		Headless:  flags.headless,
		ExecPath:  cfg.ChromePath,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout(),
		Logger:    log,
	})
	if err != nil {
		log.Error().Err(err).Msg("cannot start browser")
		return true
	}
	defer browser.Close()

	if err := browser.LoadCookies(flags.cookies); err != nil {
		log.Error().Err(err).Msg("cannot load cookies")
		return true
	}

	errored := false
	var eventURLs []string
	if flags.events {
		eventURLs = flags.pages
	} else {
		for _, page := range targetPages(cfg, flags.pages) {
			urls, err := browser.EventURLs(page)
			if err != nil {
				log.Error().Err(err).Str("page", page).Msg("cannot find upcoming events")
				errored = true
				continue
			}
			eventURLs = append(eventURLs, urls...)
		}
	}

	st, sink, sinkFile, err := openDestinations(flags, log)
	if err != nil {
		log.Error().Err(err).Msg("cannot open destinations")
		return true
	}

	fetch := func(url string) (*event.Event, error) { return scrapeEvent(browser, url) }
	failed, eventsErrored := writeEvents(ctx, log, eventURLs, fetch, st, sink, mon)
	errored = errored || eventsErrored

	if st != nil {
		if err := st.Finalize(ctx); err != nil {
			log.Error().Err(err).Msg("cannot record archive")
			errored = true
		}
	}
	if sink != nil {
		if err := sink.Close(); err != nil {
			log.Error().Err(err).Str("out", flags.out).Msg("cannot finish output")
			errored = true
		}
		if err := sinkFile.Close(); err != nil {
			log.Error().Err(err).Str("out", flags.out).Msg("cannot close output")
			errored = true
		}
	}

	if failed > 0 {
		log.Error().Int("failed", failed).Int("total", len(eventURLs)).Msg("failed to scrape some events")
	}
	return errored
}

// openDestinations opens the run's outputs, the stream file before the
// archive: once the archive is open, the run always reaches Finalize.
func openDestinations(flags flagConfig, log zerolog.Logger) (*store.Store, output.Writer, *os.File, error) {
	var sink output.Writer
	var sinkFile *os.File
	if flags.out != "" {
		f, err := os.Create(flags.out)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create output %s: %w", flags.out, err)
		}
		sinkFile = f
		if flags.jsonOut {
			sink = output.NewJSON(f)
		} else {
			sink = output.NewCalendar(f)
		}
	}

	if flags.directory == "" {
		return nil, sink, sinkFile, nil
	}
	st, err := store.Open(flags.directory, log)
	if err != nil {
		if sinkFile != nil {
			sinkFile.Close()
		}
		return nil, nil, nil, fmt.Errorf("open archive %s: %w", flags.directory, err)
	}
	return st, sink, sinkFile, nil
}

// writeEvents extracts each URL through fetch and hands the record to the
// destinations. A failing event is logged and counted; the rest of the list
// is still processed.
func writeEvents(ctx context.Context, log zerolog.Logger, urls []string, fetch func(url string) (*event.Event, error), st *store.Store, sink output.Writer, mon *metrics.Metrics) (failed int, errored bool) {
	for _, rawURL := range urls {
		if ctx.Err() != nil {
			log.Warn().Msg("run canceled")
			return failed, true
		}
		ev, err := fetch(rawURL)
		if err != nil {
			log.Error().Err(err).Str("url", rawURL).Msg("cannot extract event")
			errored = true
			failed++
			if mon != nil {
				mon.EventFailed()
			}
			continue
		}
		log.Info().
			Str("title", ev.Title).
			Str("location", ev.Location).
			Time("start", ev.Start).
			Msg("extracted event")
		if mon != nil {
			mon.EventScraped()
		}

		if st != nil {
			res, err := st.Write(ev)
			if err != nil {
				log.Error().Err(err).Str("uid", ev.UID).Msg("cannot write snapshot")
				errored = true
			} else if mon != nil {
				mon.EventWritten(res.String())
			}
		}
		if sink != nil {
			if err := sink.WriteEvent(ev); err != nil {
				log.Error().Err(err).Str("url", ev.URL).Msg("cannot write event")
				errored = true
			}
		}
	}
	return failed, errored
}

// targetPages resolves page arguments against the configured catalogue. No
// arguments means every configured club.
func targetPages(cfg *config.Config, args []string) []string {
	if len(args) == 0 {
		pages := make([]string, 0, len(cfg.Pages))
		for _, name := range cfg.PageNames() {
			pages = append(pages, cfg.Pages[name])
		}
		return pages
	}
	pages := make([]string, 0, len(args))
	for _, arg := range args {
		pages = append(pages, cfg.ResolvePage(arg))
	}
	return pages
}

// scrapeEvent extracts one event page and resolves its date phrase relative
// to today.
func scrapeEvent(browser *collect.Browser, rawURL string) (*event.Event, error) {
	raw, err := browser.Event(rawURL)
	if err != nil {
		return nil, err
	}
	start, end, err := dateparse.Resolve(raw.RawDate, time.Now())
	if err != nil {
		return nil, err
	}
	return event.New(raw, start, end), nil
}

// watch runs the scrape on a cron schedule until the context is canceled.
// Runs never overlap; a tick firing while the previous run is still going is
// skipped.
func watch(ctx context.Context, logger zerolog.Logger, cfg *config.Config, flags flagConfig) error {
	var mon *metrics.Metrics
	if cfg.MetricsListen != "" {
		mon = metrics.New(cfg.MetricsListen)
		go func() {
			if err := mon.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
		logger.Info().Str("listen", cfg.MetricsListen).Msg("metrics server started")
	}

	busy := make(chan struct{}, 1)
	run := func() {
		select {
		case busy <- struct{}{}:
			defer func() { <-busy }()
			runOnce(ctx, logger, cfg, flags, mon)
		default:
			logger.Warn().Msg("previous run still in progress, skipping")
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(flags.cronSpec, run); err != nil {
		return fmt.Errorf("bad -cron schedule %q: %w", flags.cronSpec, err)
	}

	logger.Info().Str("cron", flags.cronSpec).Msg("watching")
	run()
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()

	if mon != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mon.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}
	return nil
}
