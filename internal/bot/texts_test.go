package bot

import (
	"testing"
	"time"

	"regbot/internal/config"
	"regbot/internal/domain"

	"github.com/stretchr/testify/require"
)

func catalogueConfig() *config.Config {
	return &config.Config{
		Packages: []config.PackageOption{
			{Name: "Standard", PriceNGN: 9000},
			{Name: "X", PriceNGN: 14000},
		},
		Accounts: []config.PaymentAccount{
			{Name: "Bank A", Details: "Account: 1234567890"},
		},
	}
}

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "900", formatPrice(900))
	require.Equal(t, "9,000", formatPrice(9000))
	require.Equal(t, "14,000", formatPrice(14000))
	require.Equal(t, "1,234,567", formatPrice(1234567))
}

func TestWelcomeTextListsCatalogue(t *testing.T) {
	text := welcomeText(catalogueConfig())
	require.Contains(t, text, "Standard (₦9,000)")
	require.Contains(t, text, "X (₦14,000)")
	require.Contains(t, text, "special content")
}

func TestEscapeMDNeutralizesSpecials(t *testing.T) {
	require.Equal(t, `a\_b`, escapeMD("a_b"))
	require.Contains(t, packageChosenText("X_Pro"), `X\_Pro`)
}

func TestStatsText(t *testing.T) {
	uname := "alice"
	pkg := domain.PackageStandard
	at := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	stats := domain.Stats{
		TotalUsers:    3,
		StandardCount: 2,
		XCount:        1,
		Recent: []domain.User{
			{ChatID: 42, Username: &uname, Package: &pkg, RegisteredAt: &at},
			{ChatID: 77},
		},
	}

	text := statsText(stats)
	require.Contains(t, text, "Total users: 3")
	require.Contains(t, text, "Standard: 2")
	require.Contains(t, text, "X: 1")
	require.Contains(t, text, "@alice / Standard / 2026-08-20 09:30")
	require.Contains(t, text, "77 / - / -")
}

func TestMarkupsCoverCatalogue(t *testing.T) {
	cfg := catalogueConfig()

	pkgRows := packagesMarkup(cfg).InlineKeyboard
	require.Len(t, pkgRows, len(cfg.Packages)+1)

	accRows := accountsMarkup(cfg).InlineKeyboard
	require.Len(t, accRows, len(cfg.Accounts)+1)
}
