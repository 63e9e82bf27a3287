package bot

import (
	"errors"
	"fmt"
	"log/slog"

	"regbot/core/logger"
	tg "regbot/core/telegram"
	"regbot/core/telegram/callbacks"
	tghelpers "regbot/core/telegram/helpers"
	"regbot/internal/domain"
	"regbot/internal/notify"
	"regbot/internal/workflow"

	tele "gopkg.in/telebot.v4"
)

func (a *App) registerCallbacks(reg *tg.Registry) {
	_ = reg.RegisterCallback(cbMenu, a.cbMainMenu)
	_ = reg.RegisterCallback(cbHelp, a.cbHelp)
	_ = reg.RegisterCallback(cbHowToPay, a.cbHowToPay)
	_ = reg.RegisterCallback(cbRegistrationProcess, a.cbRegistrationProcess)
	_ = reg.RegisterCallback(cbPackageSelector, a.cbPackageSelector)
	_ = reg.RegisterCallback(cbChoosePackage, a.cbChoosePackage)
	_ = reg.RegisterCallback(cbSelectAccount, a.cbSelectAccount)

	_ = reg.RegisterCallback(notify.CallbackApprove, a.cbApprove)
	_ = reg.RegisterCallback(notify.CallbackReject, a.cbReject)
	_ = reg.RegisterCallback(notify.CallbackFinalize, a.cbFinalize)
}

func (a *App) cbMainMenu(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, textMainMenu, mainMenuMarkup())
}

func (a *App) cbHelp(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, textHelp, helpMarkup())
}

func (a *App) cbHowToPay(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, textHowToPay, backToHelpMarkup())
}

func (a *App) cbRegistrationProcess(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, textRegistrationProcess, backToHelpMarkup())
}

func (a *App) cbPackageSelector(c tele.Context) error {
	return tghelpers.EditOrSendMD(c, "Choose a package:", packagesMarkup(a.cfg))
}

func (a *App) cbChoosePackage(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "package_chosen")
	pkg := callbacks.CallbackPayload(c)

	if err := a.engine.OnPackageChosen(ctx, actorFrom(c), domain.Package(pkg)); err != nil {
		if errors.Is(err, workflow.ErrUnknownPackage) {
			return tghelpers.EditOrSendMD(c, "Unknown package. Pick one from the list.", packagesMarkup(a.cfg))
		}
		logger.Error(ctx, "tg.handler", "package_chosen.failed",
			slog.String("package", pkg),
			slog.String("err", err.Error()),
		)
		return tghelpers.EditOrSendMD(c, textTransientFailure, backToMenuMarkup())
	}
	return tghelpers.EditOrSendMD(c, packageChosenText(pkg), accountsMarkup(a.cfg))
}

func (a *App) cbSelectAccount(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "account_selected")
	account := callbacks.CallbackPayload(c)

	if _, err := a.engine.OnAccountSelected(ctx, actorFrom(c), account); err != nil {
		if errors.Is(err, workflow.ErrNoActiveRegistration) {
			return tghelpers.EditOrSendMD(c, textNoRegistration, backToMenuMarkup())
		}
		logger.Error(ctx, "tg.handler", "account_selected.failed",
			slog.String("account", account),
			slog.String("err", err.Error()),
		)
		return tghelpers.EditOrSendMD(c, textTransientFailure, backToMenuMarkup())
	}

	details, ok := a.cfg.AccountDetails(account)
	if !ok {
		details = "Contact the admin for payment details."
	}
	return tghelpers.EditOrSendMD(c, paymentDetailsText(details), backToMenuMarkup())
}

// Admin review callbacks. The payload carries the target chat id plus an
// optional attempt id; decoding failures and ownership mismatches get the
// same terse reply so stale buttons stay harmless.

func (a *App) cbApprove(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "approve_registration")
	corr, err := notify.ParseCorrelation(callbacks.CallbackPayload(c))
	if err != nil {
		return tghelpers.EditOrSendMD(c, textBadReviewData)
	}

	err = a.engine.OnApprove(ctx, c.Sender().ID, corr.Target, corr.AttemptID())
	switch {
	case errors.Is(err, workflow.ErrNotAdmin):
		return tghelpers.SendText(c, textAdminOnly)
	case errors.Is(err, workflow.ErrAttemptMismatch):
		return tghelpers.EditOrSendMD(c, textBadReviewData)
	case err != nil:
		logger.Error(ctx, "tg.handler", "approve.failed",
			slog.Int64("target_id", corr.Target),
			slog.String("err", err.Error()),
		)
		return tghelpers.EditOrSendMD(c, textTransientFailure)
	}
	return tghelpers.EditOrSendMD(c,
		fmt.Sprintf("✅ Approved payment for user %d. Use the finalize prompt to issue credentials.", corr.Target))
}

func (a *App) cbReject(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "reject_registration")
	corr, err := notify.ParseCorrelation(callbacks.CallbackPayload(c))
	if err != nil {
		return tghelpers.EditOrSendMD(c, textBadReviewData)
	}

	err = a.engine.OnReject(ctx, c.Sender().ID, corr.Target, corr.AttemptID())
	switch {
	case errors.Is(err, workflow.ErrNotAdmin):
		return tghelpers.SendText(c, textAdminOnly)
	case errors.Is(err, workflow.ErrAttemptMismatch):
		return tghelpers.EditOrSendMD(c, textBadReviewData)
	case err != nil:
		logger.Error(ctx, "tg.handler", "reject.failed",
			slog.Int64("target_id", corr.Target),
			slog.String("err", err.Error()),
		)
		return tghelpers.EditOrSendMD(c, textTransientFailure)
	}
	return tghelpers.EditOrSendMD(c,
		fmt.Sprintf("❌ Rejected payment for user %d. They were notified.", corr.Target))
}

func (a *App) cbFinalize(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "finalize_registration")
	corr, err := notify.ParseCorrelation(callbacks.CallbackPayload(c))
	if err != nil {
		return tghelpers.EditOrSendMD(c, textBadReviewData)
	}

	if err := a.engine.OnFinalizeRequested(ctx, c.Sender().ID, corr.Target); err != nil {
		if errors.Is(err, workflow.ErrNotAdmin) {
			return tghelpers.SendText(c, textAdminOnly)
		}
		logger.Error(ctx, "tg.handler", "finalize.failed",
			slog.Int64("target_id", corr.Target),
			slog.String("err", err.Error()),
		)
		return tghelpers.EditOrSendMD(c, textTransientFailure)
	}
	return nil
}
