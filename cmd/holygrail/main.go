// Command holygrail is a terminal client for the Holy Grail API. The session
// lives in a small file under the user config dir and follows the same rules
// as the web client's local storage.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/publicsuffix"

	"github.com/holygrail/holygrail-web/internal/adapters/holygrail"
	"github.com/holygrail/holygrail-web/internal/adapters/jwtinspect"
	"github.com/holygrail/holygrail-web/internal/adapters/localstorage"
	"github.com/holygrail/holygrail-web/internal/apiclient"
	"github.com/holygrail/holygrail-web/internal/bootstrap"
	"github.com/holygrail/holygrail-web/internal/observability/statsd"
	"github.com/holygrail/holygrail-web/internal/service"
	"github.com/holygrail/holygrail-web/internal/util"
)

const defaultTimeout = 15 * time.Second

var errNotLoggedIn = errors.New("not logged in (run `holygrail login`)")

type options struct {
	apiURL      string
	sessionFile string
	logLevel    string
	timeout     time.Duration
	metrics     bool
}

// app is the wired session layer for one invocation.
type app struct {
	auth     *service.AuthService
	sessions *service.SessionService
	backend  *holygrail.Backend
	recorder *statsd.Recorder
	logger   *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal failure to shell scripts
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	var a *app

	root := &cobra.Command{
		Use:   "holygrail",
		Short: "Command-line client for the Holy Grail study-resource API",
		Long: `holygrail logs in against the Holy Grail API and keeps the session
(user profile and access token) in a local file so later commands can
reuse it until the token expires.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			a, err = newApp(opts, cmd.ErrOrStderr())
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if opts.metrics && a != nil {
				printMetrics(cmd.ErrOrStderr(), a.recorder)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", os.Getenv("HOLYGRAIL_API_URL"), "API base URL (env HOLYGRAIL_API_URL)")
	flags.StringVar(&opts.sessionFile, "session-file", "", "session file (default <config dir>/holygrail/session.json)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.DurationVar(&opts.timeout, "timeout", defaultTimeout, "per-request timeout")
	flags.BoolVar(&opts.metrics, "metrics", false, "print session store counters to stderr on exit")

	get := func() *app { return a }
	root.AddCommand(
		loginCmd(get),
		registerCmd(get),
		verifyCmd(get),
		whoamiCmd(get),
		logoutCmd(get),
		uploadCmd(get),
		leaderboardCmd(get),
	)
	return root
}

func newApp(opts *options, stderr io.Writer) (*app, error) {
	if opts.apiURL == "" {
		return nil, errors.New("API URL is required (--api or HOLYGRAIL_API_URL)")
	}
	logger := bootstrap.NewLogger(stderr, opts.logLevel)

	path := opts.sessionFile
	if path == "" {
		var err error
		if path, err = localstorage.DefaultPath(); err != nil {
			return nil, err
		}
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	recorder := &statsd.Recorder{}
	clock := util.RealClock{}
	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Store:     localstorage.NewFile(path),
		Inspector: jwtinspect.New(clock),
		Clock:     clock,
		StoreName: "file",
		Metrics:   recorder,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	reqs, resps := apiclient.Standard(sessions, sessions, logger)
	client, err := apiclient.New(apiclient.Options{
		BaseURL:              opts.apiURL,
		HTTPClient:           &http.Client{Jar: jar, Timeout: opts.timeout},
		Logger:               logger,
		Metrics:              recorder,
		RequestInterceptors:  reqs,
		ResponseInterceptors: resps,
	})
	if err != nil {
		return nil, err
	}
	backend := holygrail.New(client)

	auth, err := service.NewAuthService(service.AuthServiceOptions{
		Backend:  backend,
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	return &app{auth: auth, sessions: sessions, backend: backend, recorder: recorder, logger: logger}, nil
}

func printMetrics(w io.Writer, rec *statsd.Recorder) {
	for _, op := range []string{"session.read", "session.write", "session.erase"} {
		counts := rec.Counts(op, "outcome")
		if len(counts) == 0 {
			continue
		}
		outcomes := make([]string, 0, len(counts))
		for k := range counts {
			outcomes = append(outcomes, k)
		}
		sort.Strings(outcomes)
		for _, k := range outcomes {
			fmt.Fprintf(w, "%s{outcome=%s} %d\n", op, k, counts[k])
		}
	}

	type callStats struct {
		n     int
		total float64
	}
	calls := map[string]*callStats{}
	var keys []string
	for _, s := range rec.Samples() {
		if s.Kind != "ms" || s.Name != "api.call" {
			continue
		}
		key := fmt.Sprintf("%s %s %s", s.Tags["method"], s.Tags["endpoint"], s.Tags["status"])
		st, ok := calls[key]
		if !ok {
			st = &callStats{}
			calls[key] = st
			keys = append(keys, key)
		}
		st.n++
		st.total += s.Value
	}
	sort.Strings(keys)
	for _, k := range keys {
		st := calls[k]
		fmt.Fprintf(w, "api.call{%s} n=%d avg=%.1fms\n", k, st.n, st.total/float64(st.n))
	}
}
