package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/eventum-app/eventum/app"
	"github.com/eventum-app/eventum/internal/config"
	"github.com/eventum-app/eventum/internal/errors"
	"github.com/eventum-app/eventum/pkg/assets"
	"github.com/eventum-app/eventum/pkg/controller"
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/loop"
	"github.com/eventum-app/eventum/pkg/metrics"
	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/realtime"
	"github.com/eventum-app/eventum/pkg/router"
)

type visitOptions struct {
	email    string
	phone    string
	password string
	html     bool
	timeout  time.Duration
	listen   time.Duration
}

func visitCmd(g *globals) *cobra.Command {
	var opts visitOptions

	cmd := &cobra.Command{
		Use:   "visit <path>...",
		Short: "Render screens headlessly and print them",
		Long: `Navigate the client to each path in turn, wait for every request to
finish, and print the rendered screen.

With --email or --phone the client signs in first. With --listen the
last screen keeps receiving push messages for the given time and is
printed again.

Examples:
  eventum visit /search
  eventum visit --email anna@eventum.xyz --password eventum /my/profile /chats/1
  eventum visit --html /chats/1 --listen 30s`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if opts.password == "" {
				opts.password = os.Getenv("EVENTUM_PASSWORD")
			}
			return runVisit(cmd.Context(), g, cfg, opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "Sign in with this email first")
	cmd.Flags().StringVar(&opts.phone, "phone", "", "Sign in with this phone number first")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password for --email or --phone (or EVENTUM_PASSWORD)")
	cmd.Flags().BoolVar(&opts.html, "html", false, "Print HTML instead of text")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "How long to wait for each screen to settle")
	cmd.Flags().DurationVar(&opts.listen, "listen", 0, "Keep the last screen open for push messages")

	return cmd
}

// headless is a client wired from configuration.
type headless struct {
	loop    *loop.Loop
	doc     *dom.Document
	history *router.MemoryHistory
	router  *router.Router
	models  *model.Client
	channel *realtime.Channel
}

func newHeadless(cfg *config.Config, logger *slog.Logger) (*headless, error) {
	var observer *metrics.Collector
	if cfg.Metrics.Enabled {
		observer = metrics.New(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithRegistry(prometheus.NewRegistry()),
		)
	}

	timeout, _ := cfg.APITimeout()
	jar, _ := cookiejar.New(nil)
	clientOpts := []model.ClientOption{
		model.WithLogger(logger),
		model.WithHTTPClient(&http.Client{Jar: jar, Timeout: timeout}),
	}
	if cfg.API.ChatURL != "" {
		clientOpts = append(clientOpts, model.WithChatBase(cfg.API.ChatURL))
	}

	resolver, err := newResolver(cfg)
	if err != nil {
		return nil, err
	}

	rt := &headless{
		loop:    loop.New(loop.WithLogger(logger)),
		doc:     dom.NewDocument(),
		history: router.NewMemoryHistory("/"),
	}
	initial, max, attempts, _ := cfg.Backoff()
	channelOpts := []realtime.Option{
		realtime.WithDialer(realtime.WebsocketDialer{}),
		realtime.WithLogger(logger),
		realtime.WithBackoff(initial, max, attempts),
	}
	env := controller.Env{
		Container: rt.doc.Body(),
		Loop:      rt.loop,
		Logger:    logger,
	}
	routerOpts := []router.Option{router.WithHistory(rt.history), router.WithLogger(logger)}
	if observer != nil {
		clientOpts = append(clientOpts, model.WithObserver(observer))
		channelOpts = append(channelOpts, realtime.WithObserver(observer))
		routerOpts = append(routerOpts, router.WithObserver(observer))
		env.Observer = observer
	}

	rt.models = model.NewClient(cfg.API.URL, clientOpts...)
	rt.channel = realtime.New(realtime.Endpoint(cfg.Realtime.URL), rt.loop, channelOpts...)
	rt.router = router.New(env, routerOpts...)

	err = app.Install(rt.router, app.Deps{
		Models:  rt.models,
		Tags:    model.NewTagCache(rt.models, rt.loop, logger),
		Channel: rt.channel,
		Assets:  resolver,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// newResolver presigns from S3 when a bucket is configured.
func newResolver(cfg *config.Config) (assets.Resolver, error) {
	if cfg.Assets.Bucket == "" {
		return assets.NewStaticResolver(cfg.Assets.BaseURL), nil
	}
	expiry, _ := cfg.AssetExpiry()
	awsCfg := aws.Config{
		Region: cfg.Assets.Region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			creds := aws.Credentials{
				AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				Source:          "environment",
			}
			if !creds.HasKeys() {
				return creds, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required for bucket %s", cfg.Assets.Bucket)
			}
			return creds, nil
		})),
	}
	if cfg.Assets.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Assets.Endpoint)
	}
	return assets.NewS3ResolverFromConfig(awsCfg, cfg.Assets.Bucket).WithURLExpiry(expiry), nil
}

func (rt *headless) close() {
	rt.router.Close()
	rt.loop.Drain()
	rt.loop.Stop()
}

func runVisit(ctx context.Context, g *globals, cfg *config.Config, opts visitOptions, paths []string, out, errOut io.Writer) error {
	logger := g.logger(cfg, errOut)
	rt, err := newHeadless(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	if opts.email != "" || opts.phone != "" {
		user, err := rt.models.PostLogin(ctx, model.Credentials{Email: opts.email, Phone: opts.phone, Password: opts.password})
		if err != nil {
			return errors.New("E201").
				WithDetail("Sign in failed: " + model.ErrorText(err)).
				WithSuggestion("Check --email, --phone and --password").
				Wrap(err)
		}
		success(errOut, "Signed in as %s", user.Name)
	}

	for _, path := range paths {
		err := rt.visit(ctx, path, opts.timeout)
		if errors.Code(err) == "E205" {
			warn(errOut, "%s", err)
		} else if err != nil {
			return err
		}
		rt.print(out, path, opts.html)
	}

	if opts.listen > 0 {
		info(errOut, "Listening for %s", opts.listen)
		deadline := time.Now().Add(opts.listen)
		err := rt.loop.Until(func() bool { return time.Now().After(deadline) }, opts.listen+time.Second)
		if err != nil && !stderrors.Is(err, loop.ErrSettleTimeout) {
			return err
		}
		rt.print(out, paths[len(paths)-1], opts.html)
	}
	return nil
}

// visit navigates to path and runs continuations until the screen is
// idle.
func (rt *headless) visit(ctx context.Context, path string, timeout time.Duration) error {
	if err := rt.router.RedirectForward(ctx, path); err != nil {
		var navErr *router.NavigationError
		if stderrors.As(err, &navErr) {
			return errors.New("E204").WithDetail("Visiting " + path).Wrap(err)
		}
		return err
	}
	if err := rt.loop.Settle(timeout); err != nil {
		if stderrors.Is(err, loop.ErrSettleTimeout) {
			return errors.New("E205").Wrap(fmt.Errorf("%s: %w", path, err))
		}
		return err
	}
	return nil
}

func (rt *headless) print(w io.Writer, path string, html bool) {
	fmt.Fprintf(w, "%s %s\n", paint("\033[36m", "==>"), rt.history.Current())
	if path != rt.history.Current() {
		info(w, "(redirected from %s)", path)
	}
	if html {
		fmt.Fprintln(w, rt.doc.Body().HTML())
		return
	}
	for _, line := range textLines(rt.doc.Body()) {
		fmt.Fprintln(w, line)
	}
}

// textLines returns the non-blank text nodes under el in document order.
func textLines(el *dom.Element) []string {
	var lines []string
	for _, n := range el.QueryAll(func(n *dom.Element) bool { return n.Kind() == dom.TextNode }) {
		if line := strings.TrimSpace(n.TextContent()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
