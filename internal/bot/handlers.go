package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"regbot/core/logger"
	"regbot/core/telegram/format"
	tghelpers "regbot/core/telegram/helpers"
	"regbot/internal/domain"

	tele "gopkg.in/telebot.v4"
)

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "start")
	actor := actorFrom(c)

	if err := a.engine.OnEntry(ctx, actor); err != nil {
		logger.Error(ctx, "tg.handler", "start.entry_failed",
			slog.Int64("chat_id", actor.ID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textTransientFailure)
	}

	user, err := tghelpers.CurrentUser[domain.User](ctx, a.store, actor.ID)
	if err == nil && user.PaymentStatus == domain.StatusRegistered {
		return tghelpers.SendText(c, textAlreadyRegistered,
			&tele.SendOptions{ReplyMarkup: mainMenuMarkup()})
	}

	return tghelpers.SendText(c, welcomeText(a.cfg),
		&tele.SendOptions{ReplyMarkup: packagesMarkup(a.cfg)})
}

func (a *App) handleHelp(c tele.Context) error {
	tghelpers.WithHandler(c, "help")
	return tghelpers.SendText(c, textHelp, &tele.SendOptions{ReplyMarkup: helpMarkup()})
}

func (a *App) handleMenu(c tele.Context) error {
	tghelpers.WithHandler(c, "menu")
	return tghelpers.SendText(c, textMainMenu, &tele.SendOptions{ReplyMarkup: mainMenuMarkup()})
}

// handleAdminStats reports registration totals and recent completions. The
// admin gate is applied by the command router.
func (a *App) handleAdminStats(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "adminstats")

	stats, err := a.store.Stats(ctx)
	if err != nil {
		logger.Error(ctx, "tg.handler", "adminstats.failed",
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textTransientFailure)
	}
	return tghelpers.SendText(c, statsText(stats))
}

func statsText(stats domain.Stats) string {
	var b strings.Builder
	b.WriteString("📊 Registration stats\n\n")
	fmt.Fprintf(&b, "Total users: %d\n", stats.TotalUsers)
	fmt.Fprintf(&b, "Standard: %d\n", stats.StandardCount)
	fmt.Fprintf(&b, "X: %d\n", stats.XCount)

	if len(stats.Recent) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}
	b.WriteString("\nRecently registered:\n")
	for _, u := range stats.Recent {
		b.WriteString("• " + recentUserLine(u) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func recentUserLine(u domain.User) string {
	who := format.DerefString(u.Username, fmt.Sprintf("%d", u.ChatID))
	if u.Username != nil && *u.Username != "" {
		who = "@" + who
	}
	pkg := "-"
	if u.Package != nil {
		pkg = string(*u.Package)
	}
	when := "-"
	if u.RegisteredAt != nil {
		when = u.RegisteredAt.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%s / %s / %s", who, pkg, when)
}
