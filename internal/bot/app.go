// Package bot wires the registration workflow to the Telegram surface:
// commands, inline keyboards, callback routing, and the photo/text
// conversation flow.
package bot

import (
	"context"
	"fmt"

	coretelegram "regbot/core/telegram"
	"regbot/core/telegram/commands"
	tghelpers "regbot/core/telegram/helpers"
	"regbot/core/telegram/router"
	"regbot/internal/config"
	"regbot/internal/keepalive"
	"regbot/internal/notify"
	"regbot/internal/repository"
	"regbot/internal/session"
	"regbot/internal/workflow"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"
)

// App owns the bot's services and exposes the run options consumed by the
// shared runner.
type App struct {
	cfg      *config.Config
	store    *repository.Store
	sessions session.Tracker

	// engine is built in the OnStart hook once the bot instance (and with
	// it the notifier) exists; handlers only run after that point.
	engine *workflow.Engine

	keepalive *keepalive.Server
}

// NewApp assembles the application services on top of an established
// database connection.
func NewApp(cfg *config.Config, db *sqlx.DB) *App {
	a := &App{
		cfg:      cfg,
		store:    repository.NewStore(db),
		sessions: session.NewMemoryTracker(),
	}
	if cfg.Keepalive.Enabled {
		a.keepalive = keepalive.New(cfg.Keepalive.Listen)
	}
	return a
}

// TelegramRunOptions builds the registry, routes, and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Start registration",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "Help topics",
	})
	reg.RegisterCommand("/menu", commands.Command{
		Handler:     a.handleMenu,
		Description: "Main menu",
	})
	reg.RegisterCommand("/adminstats", commands.Command{
		Handler:     a.handleAdminStats,
		Description: "Registration statistics",
		AdminOnly:   true,
		Hidden:      true,
	})

	a.registerCallbacks(reg)

	adminReject := func(c tele.Context) error {
		return tghelpers.SendText(c, textAdminOnly)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: adminReject,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes(a, reg, router.MessageOptions{
		UnknownText:     func(c tele.Context) error { return tghelpers.SendText(c, textUnknownMessage) },
		UnknownDocument: a.handleDocument,
	})...)

	opts := coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}
	return opts, nil
}

func (a *App) onStart(_ context.Context, rt coretelegram.Runtime) error {
	notifier := notify.NewTelegramNotifier(rt.Bot, rt.Dispatcher)
	adminID := a.cfg.Telegram.AdminID
	engine, err := workflow.NewEngine(workflow.Config{
		Users:    a.store,
		Payments: a.store,
		Sessions: a.sessions,
		Notifier: notifier,
		IsAdmin:  func(actorID int64) bool { return actorID == adminID },
		AdminID:  adminID,
	})
	if err != nil {
		return fmt.Errorf("bot: engine init failed: %w", err)
	}
	a.engine = engine

	if a.keepalive != nil {
		a.keepalive.Start()
	}
	return nil
}

func (a *App) onStop(ctx context.Context, _ coretelegram.Runtime) error {
	if a.keepalive != nil {
		return a.keepalive.Stop(ctx)
	}
	return nil
}

// actorFrom extracts the workflow actor identity from an update.
func actorFrom(c tele.Context) workflow.Actor {
	sender := c.Sender()
	if sender == nil {
		return workflow.Actor{}
	}
	name := sender.FirstName
	if sender.LastName != "" {
		if name != "" {
			name += " "
		}
		name += sender.LastName
	}
	return workflow.Actor{ID: sender.ID, Username: sender.Username, Name: name}
}
