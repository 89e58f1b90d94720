package report

import (
	"strings"
	"testing"

	"github.com/bikkkubo/pts-stock/internal/core"
)

func TestStopLimitWarningEmpty(t *testing.T) {
	if got := StopLimitWarning(nil, nil); got != "" {
		t.Errorf("no stocks must yield no warning, got %q", got)
	}
}

func TestStopLimitWarning(t *testing.T) {
	stocks := []core.RankedStock{
		{Code: "6758", Name: "ソニーグループ", ChangePercent: 29.7, IsStopLimit: true},
		{Code: "9984", Name: "ソフトバンクグループ", ChangePercent: -18.2, IsStopLimit: true},
	}
	got := StopLimitWarning(stocks, []string{"Regular", "PTS"})

	if !strings.HasPrefix(got, "【Warning】2 Stop-High/Low Stocks Today!") {
		t.Errorf("warning header missing, got %q", got)
	}
	if !strings.Contains(got, "ソニーグループ (6758) - Market: Regular, Change: +29.70% (Ｓ高)") {
		t.Errorf("positive stop line missing:\n%s", got)
	}
	if !strings.Contains(got, "ソフトバンクグループ (9984) - Market: PTS, Change: -18.20% (Ｓ安)") {
		t.Errorf("negative stop line missing:\n%s", got)
	}
}

func TestStopLimitWarningDefaultsMarket(t *testing.T) {
	stocks := []core.RankedStock{
		{Code: "7203", Name: "トヨタ自動車", ChangePercent: 15.0},
	}
	got := StopLimitWarning(stocks, nil)
	if !strings.Contains(got, "Market: Regular") {
		t.Errorf("missing markets must default to Regular:\n%s", got)
	}
}
