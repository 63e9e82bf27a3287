// Package notify delivers workflow decisions to specific actors over
// Telegram. Sends go through the shared asynchronous dispatcher: best-effort,
// at-most-once per call, with failures logged and reported upward but never
// undoing the store write that caused them.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"regbot/core/logger"
	"regbot/core/telegram/keyboard"
	"regbot/core/telegram/sender"
	"regbot/internal/workflow"

	tele "gopkg.in/telebot.v4"
)

// TelegramNotifier implements workflow.Notifier on top of a telebot instance.
type TelegramNotifier struct {
	bot  *tele.Bot
	disp *sender.Dispatcher
}

// NewTelegramNotifier wires the bot and the outbound dispatcher.
func NewTelegramNotifier(bot *tele.Bot, disp *sender.Dispatcher) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, disp: disp}
}

// SendText delivers a plain message, optionally with action buttons.
func (n *TelegramNotifier) SendText(ctx context.Context, actorID int64, text string, actions ...workflow.Action) error {
	markup := actionMarkup(actions)
	return n.deliver(ctx, "send.text", "sendMessage", actorID, func() error {
		if markup != nil {
			_, err := n.bot.Send(&tele.User{ID: actorID}, text, markup)
			return err
		}
		_, err := n.bot.Send(&tele.User{ID: actorID}, text)
		return err
	})
}

// SendImage delivers a photo by its opaque file reference with a caption and
// optional action buttons.
func (n *TelegramNotifier) SendImage(ctx context.Context, actorID int64, imageRef, caption string, actions ...workflow.Action) error {
	photo := &tele.Photo{File: tele.File{FileID: imageRef}, Caption: caption}
	markup := actionMarkup(actions)
	return n.deliver(ctx, "send.image", "sendPhoto", actorID, func() error {
		if markup != nil {
			_, err := n.bot.Send(&tele.User{ID: actorID}, photo, markup)
			return err
		}
		_, err := n.bot.Send(&tele.User{ID: actorID}, photo)
		return err
	})
}

// deliver enqueues the send, falling back to a synchronous call when the
// queue is saturated or already closed.
func (n *TelegramNotifier) deliver(ctx context.Context, action, endpoint string, actorID int64, run func() error) error {
	if n.disp == nil {
		return run()
	}
	if err := n.disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "service.notify", "queue.fallback",
				slog.String("action", action),
				slog.Int64("target_id", actorID),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// actionMarkup turns typed actions into an inline keyboard, encoding the
// correlation into each button's payload. Approve/reject share a row, the
// finalize shortcut sits on its own.
func actionMarkup(actions []workflow.Action) *tele.ReplyMarkup {
	if len(actions) == 0 {
		return nil
	}
	var decision, rest []keyboard.InlineBtn
	for _, a := range actions {
		payload := Correlation{Target: a.Target, Attempt: a.AttemptID}.Encode()
		switch a.Kind {
		case workflow.ActionApprove:
			decision = append(decision, keyboard.InlineBtn{Text: "✅ Approve", Unique: CallbackApprove, Data: payload})
		case workflow.ActionReject:
			decision = append(decision, keyboard.InlineBtn{Text: "❌ Reject", Unique: CallbackReject, Data: payload})
		case workflow.ActionFinalize:
			rest = append(rest, keyboard.InlineBtn{Text: "Finalize (set credentials)", Unique: CallbackFinalize, Data: payload})
		}
	}
	var rows [][]keyboard.InlineBtn
	if len(decision) > 0 {
		rows = append(rows, decision)
	}
	for _, b := range rest {
		rows = append(rows, []keyboard.InlineBtn{b})
	}
	return keyboard.InlineButtonsRows(rows...)
}
