package bot

import (
	"fmt"
	"strings"

	"regbot/core/telegram/format"
	"regbot/internal/config"
)

const (
	textMainMenu = "Main menu:"
	textHelp     = "Help topics:"

	textHowToPay = "Make payment to any of the accounts shown when you pick a package. " +
		"Upload a screenshot after payment."
	textRegistrationProcess = "1. /start → choose package\n" +
		"2. Select a payment account\n" +
		"3. Upload your payment screenshot\n" +
		"4. Wait for admin approval and credential assignment."

	textScreenshotReceived = "✅ Screenshot received! Admin will review and get back to you."
	textNoPaymentProcess   = "No payment process detected. Start with /start to register."
	textNoRegistration     = "No active registration. Use /start and choose a package first."
	textAwaitingPhoto      = "Please upload your payment screenshot as a photo in this chat."
	textAlreadyRegistered  = "You are already registered. Contact the admin if you need help with your account."
	textUnknownMessage     = "I didn't understand that. Use /start to begin registration or /help for assistance."
	textAdminOnly          = "This command is admin-only."
	textTransientFailure   = "Something went wrong on our side. Please try again later."

	textCredentialsHint = "Please send credentials in two lines:\nusername\npassword"
	textNoTargetUser    = "No target user set. Use the finalize button on a payment message."
	textBadReviewData   = "This review button is stale or malformed. Ask the user to resubmit."
	textSendAsPhoto     = "Please send the screenshot as a photo, not as a file."
)

// welcomeText lists the package catalogue with prices.
func welcomeText(cfg *config.Config) string {
	var b strings.Builder
	b.WriteString("Welcome! Choose a package to register.\n\nWe have:\n")
	for _, p := range cfg.Packages {
		b.WriteString(fmt.Sprintf("• %s (₦%s)", p.Name, formatPrice(p.PriceNGN)))
		if p.Name == "X" {
			b.WriteString(" - gives access to special content.")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// packageChosenText and paymentDetailsText go out with Markdown parse mode,
// so the catalogue values are escaped.
func packageChosenText(pkg string) string {
	return fmt.Sprintf("You selected %s. Choose a payment account and then upload your screenshot.", escapeMD(pkg))
}

func paymentDetailsText(details string) string {
	return fmt.Sprintf("Payment details:\n\n%s\n\nPlease make the payment and upload the screenshot (as a photo) in this chat.", escapeMD(details))
}

func escapeMD(s string) string {
	escaped, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return escaped
}

// formatPrice renders 9000 as "9,000".
func formatPrice(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}
