package bot

import (
	"fmt"

	"regbot/core/telegram/keyboard"
	"regbot/internal/config"

	tele "gopkg.in/telebot.v4"
)

// Callback keys for the user-facing flow. Admin review keys live in the
// notify package next to their payload codec.
const (
	cbMenu                = "menu"
	cbHelp                = "help"
	cbHowToPay            = "how_to_pay"
	cbRegistrationProcess = "registration_process"
	cbPackageSelector     = "package_selector"
	cbChoosePackage       = "reg_pkg"
	cbSelectAccount       = "select_account"
)

func mainMenuMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🚀 Choose Package", Unique: cbPackageSelector},
		{Text: "❓ Help", Unique: cbHelp},
	})
}

func helpMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "How to Pay", Unique: cbHowToPay},
		{Text: "Registration Process", Unique: cbRegistrationProcess},
		{Text: "🔙 Main Menu", Unique: cbMenu},
	})
}

func backToHelpMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🔙 Help", Unique: cbHelp},
	})
}

func backToMenuMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🔙 Main Menu", Unique: cbMenu},
	})
}

// packagesMarkup lists the catalogue with prices, one package per row.
func packagesMarkup(cfg *config.Config) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(cfg.Packages)+1)
	for _, p := range cfg.Packages {
		btns = append(btns, keyboard.InlineBtn{
			Text:   fmt.Sprintf("%s (₦%s)", p.Name, formatPrice(p.PriceNGN)),
			Unique: cbChoosePackage,
			Data:   p.Name,
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: "🔙 Main Menu", Unique: cbMenu})
	return keyboard.InlineButtons(btns)
}

// accountsMarkup lists the payment account catalogue.
func accountsMarkup(cfg *config.Config) *tele.ReplyMarkup {
	btns := make([]keyboard.InlineBtn, 0, len(cfg.Accounts)+1)
	for _, a := range cfg.Accounts {
		btns = append(btns, keyboard.InlineBtn{
			Text:   a.Name,
			Unique: cbSelectAccount,
			Data:   a.Name,
		})
	}
	btns = append(btns, keyboard.InlineBtn{Text: "🔙 Main Menu", Unique: cbMenu})
	return keyboard.InlineButtons(btns)
}
