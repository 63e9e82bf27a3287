package bot

import (
	"errors"
	"fmt"
	"log/slog"

	"regbot/core/logger"
	tghelpers "regbot/core/telegram/helpers"
	"regbot/internal/session"
	"regbot/internal/workflow"

	tele "gopkg.in/telebot.v4"
)

// App satisfies router.Conversation: sessions decide whether free-form text
// and photos belong to an in-flight registration or credential exchange.

func (a *App) InProgress(userID int64) bool {
	_, ok := a.sessions.Get(userID)
	return ok
}

func (a *App) HandleText(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "conversation_text")
	sender := c.Sender().ID

	sess, ok := a.sessions.Get(sender)
	if !ok {
		return tghelpers.SendText(c, textUnknownMessage)
	}

	switch sess.Expectation {
	case session.AwaitingCredentials:
		target, username, err := a.engine.OnCredentialsSubmitted(ctx, sender, c.Text())
		switch {
		case errors.Is(err, workflow.ErrBadCredentials):
			return tghelpers.SendText(c, textCredentialsHint)
		case errors.Is(err, workflow.ErrNotAwaitingCredentials):
			return tghelpers.SendText(c, textNoTargetUser)
		case err != nil:
			logger.Error(ctx, "tg.handler", "credentials.failed",
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, textTransientFailure)
		}
		return tghelpers.SendText(c,
			fmt.Sprintf("Credentials sent to user %d (username: %s).", target, username))

	case session.AwaitingScreenshot:
		return tghelpers.SendText(c, textAwaitingPhoto)
	}

	return tghelpers.SendText(c, textUnknownMessage)
}

func (a *App) HandlePhoto(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "conversation_photo")

	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return tghelpers.SendText(c, textNoPaymentProcess)
	}

	err := a.engine.OnScreenshotSubmitted(ctx, actorFrom(c), msg.Photo.FileID)
	switch {
	case errors.Is(err, workflow.ErrNoActiveProcess):
		return tghelpers.SendText(c, textNoPaymentProcess)
	case err != nil:
		logger.Error(ctx, "tg.handler", "screenshot.failed",
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textTransientFailure)
	}
	return tghelpers.SendText(c, textScreenshotReceived)
}

// handleDocument nudges users who upload the screenshot as a file while a
// screenshot is expected.
func (a *App) handleDocument(c tele.Context) error {
	sess, ok := a.sessions.Get(c.Sender().ID)
	if ok && sess.Expectation == session.AwaitingScreenshot {
		return tghelpers.SendText(c, textSendAsPhoto)
	}
	return tghelpers.SendText(c, textUnknownMessage)
}
