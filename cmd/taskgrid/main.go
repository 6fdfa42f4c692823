package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/taskgrid/taskgrid-go/api"
	"github.com/taskgrid/taskgrid-go/auth"
	"github.com/taskgrid/taskgrid-go/authstate"
	"github.com/taskgrid/taskgrid-go/cache"
	"github.com/taskgrid/taskgrid-go/internal/config"
	"github.com/taskgrid/taskgrid-go/notify"
	"github.com/taskgrid/taskgrid-go/session"
	"github.com/taskgrid/taskgrid-go/taskapi"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app wires the client stack together: config, store, transport, auth
// service, controller, task API and the notification hub.
type app struct {
	cfg  config.Config
	log  zerolog.Logger
	hub  *notify.Hub
	svc  *auth.Service
	ctrl *authstate.Controller
	api  *taskapi.Client
}

func newApp() (*app, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := config.New()
	log := newLogger(cfg.GetLogLevel())

	client := api.NewClient(cfg.GetAPIBaseURL(),
		api.WithHTTPClient(&http.Client{Timeout: cfg.GetHTTPTimeout()}),
		api.WithLogger(log),
	)
	store := session.NewFileStore(cfg.GetSessionFile())

	// Per-account caches, shared between the task API client and the auth
	// service so login/logout resets them.
	userCache := cache.New[string, *session.User]()
	imageCache := cache.New[string, []byte]()

	svc, err := auth.NewService(client, store,
		auth.WithLogger(log),
		auth.WithCaches(userCache, imageCache),
	)
	if err != nil {
		return nil, err
	}

	transport := api.NewTransport(client, store, svc)
	apiClient := taskapi.NewClient(transport,
		taskapi.WithUserCache(userCache),
		taskapi.WithImageCache(imageCache),
	)

	ctrl, err := authstate.NewController(svc, apiClient, authstate.WithLogger(log))
	if err != nil {
		return nil, err
	}

	hub := notify.NewHub()
	hub.Subscribe(func(m notify.Message) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", m.Level, m.Text)
	})

	return &app{cfg: cfg, log: log, hub: hub, svc: svc, ctrl: ctrl, api: apiClient}, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
