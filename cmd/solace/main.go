package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solace/internal/app"
	consentsvc "solace/internal/consent/service"
	"solace/internal/endpoint"
	"solace/internal/insights"
	"solace/internal/localstore"
	"solace/internal/platform/config"
	"solace/internal/platform/health"
	"solace/internal/platform/logger"
	"solace/internal/platform/metrics"
	"solace/internal/platform/tracer"
	"solace/internal/remote"
	"solace/internal/session"
	"solace/internal/survey"
)

// main wires high-level dependencies and runs the terminal loop. Business
// logic lives in the internal packages; everything here is view glue.
func main() {
	_ = godotenv.Load()

	apiFlag := flag.String("api", "", "explicit backend base URL for this run")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.New()

	cache, closeCache := openCache(cfg, log)
	defer closeCache()

	resolver := endpoint.NewResolver(cache, cfg.InjectedAPI, *apiFlag, cfg.Host)
	resolved := resolver.Resolve(context.Background())
	eps := endpoint.EndpointsFor(resolved.Base)
	log.Info("backend resolved", "base", eps.Base, "source", string(resolved.Source))

	m := metrics.New()
	tr := tracer.NewOTel()

	client := remote.NewClient(eps,
		remote.WithTimeouts(cfg.RequestTimeout, cfg.ChatTimeout),
		remote.WithMetrics(m),
	)

	sealer, err := localstore.NewSealer(cfg.SealSecret)
	if err != nil {
		log.Error("failed to initialize token sealing", "error", err)
		os.Exit(1)
	}
	sessions := session.NewStore(cache,
		session.WithSealer(sealer),
		session.WithLogger(log),
	)

	consents := consentsvc.NewService(client, cache,
		consentsvc.WithLogger(log),
		consentsvc.WithMetrics(m),
		consentsvc.WithTracer(tr),
	)
	scheduler := survey.NewScheduler(cache, consents,
		survey.WithSchedulerLogger(log),
	)
	submitter := survey.NewSubmitter(client,
		survey.WithSubmitterLogger(log),
		survey.WithSubmitterMetrics(m),
		survey.WithSubmitterTracer(tr),
	)
	loader := insights.NewLoader(client,
		insights.WithLogger(log),
		insights.WithTracer(tr),
	)

	surface := newTerminalSurface(os.Stdin, os.Stdout)
	controller := app.NewController(app.Deps{
		Sessions:  sessions,
		Consent:   consents,
		Scheduler: scheduler,
		Submitter: submitter,
		Loader:    loader,
		Backend:   client,
		Resolver:  resolver,
		Surface:   surface,
		Endpoints: eps,
	},
		app.WithLogger(log),
		app.WithMetrics(m),
		app.WithTracer(tr),
	)

	if cfg.DiagAddr != "" {
		go serveDiagnostics(cfg.DiagAddr, cache, log)
	}

	ctx := context.Background()
	controller.Start(ctx)
	runLoop(ctx, controller, surface, cfg)
	controller.Wait()
}

// openCache opens the durable cache, falling back to memory when the path
// is unusable so the client still runs (without persistence).
func openCache(cfg config.Client, log *slog.Logger) (localstore.Store, func()) {
	sqlite, err := localstore.OpenSQLite(cfg.StorePath)
	if err != nil {
		log.Warn("durable cache unavailable, running in-memory", "path", cfg.StorePath, "error", err)
		return localstore.NewInMemory(), func() {}
	}
	log.Info("durable cache opened", "path", cfg.StorePath)
	return sqlite, func() { _ = sqlite.Close() }
}

// serveDiagnostics exposes health probes and metrics on a local listener.
func serveDiagnostics(addr string, cache localstore.Store, log *slog.Logger) {
	probes := health.New()
	probes.RegisterCheck("cache", func() error {
		_, err := cache.Get(context.Background(), localstore.EndpointOverrideKey())
		if errors.Is(err, localstore.ErrNotFound) {
			return nil
		}
		return err
	})

	r := chi.NewRouter()
	probes.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Error("diagnostics listener failed", "addr", addr, "error", err)
	}
}

// runLoop reads commands and chat lines until quit or teardown.
func runLoop(ctx context.Context, controller *app.Controller, surface *terminalSurface, cfg config.Client) {
	for {
		if surface.tornDown.Load() {
			return
		}
		line, err := surface.in.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			_ = controller.SendMessage(ctx, line)
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/quit", "/exit":
			return
		case "/login":
			if len(fields) != 3 {
				surface.Notify("usage: /login <username> <password>")
				continue
			}
			_ = controller.Submit(ctx, app.ModeLogin, fields[1], fields[2], "")
		case "/register":
			if len(fields) != 4 {
				surface.Notify("usage: /register <username> <password> <confirm>")
				continue
			}
			_ = controller.Submit(ctx, app.ModeRegister, fields[1], fields[2], fields[3])
		case "/logout":
			controller.Logout(ctx)
		case "/accept":
			controller.AcceptConsent(ctx)
		case "/decline":
			controller.DeclineConsent(ctx)
		case "/survey":
			runSurvey(ctx, controller, surface)
		case "/dismiss":
			controller.DismissSurvey()
		case "/type":
			if len(fields) != 2 {
				surface.Notify("usage: /type partner|parent|pet")
				continue
			}
			controller.SetUserType(parseUserType(fields[1]))
		case "/api":
			if len(fields) != 2 {
				surface.Notify("usage: /api <url> (empty string clears the override)")
				continue
			}
			_ = controller.OverrideEndpoint(ctx, fields[1])
		case "/test":
			if len(fields) != 2 {
				surface.Notify("usage: /test <url>")
				continue
			}
			controller.TestConnection(ctx, fields[1], cfg.ProbeTimeout)
		default:
			surface.Notify("unknown command: " + fields[0])
		}
	}
}

// runSurvey walks the fixed question set and submits the answers.
func runSurvey(ctx context.Context, controller *app.Controller, surface *terminalSurface) {
	responses := make([]survey.Response, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		choice := surface.askOption(q)
		responses = append(responses, survey.Answer(q, choice))
	}
	_ = controller.SubmitSurvey(ctx, responses)
}

func parseUserType(raw string) app.UserType {
	switch strings.ToLower(raw) {
	case "parent":
		return app.UserTypeParent
	case "pet":
		return app.UserTypePet
	default:
		return app.UserTypePartner
	}
}
