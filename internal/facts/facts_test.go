package facts

import (
	"testing"

	"github.com/bikkkubo/pts-stock/internal/core"
)

func extractOne(t *testing.T, e *Extractor, content string) core.FactSet {
	t.Helper()
	return e.Extract([]core.Article{{Title: "決算記事", Content: content}})
}

func TestExtractSales(t *testing.T) {
	set := extractOne(t, NewExtractor(), "当第3四半期の売上高1200億円となった。")

	if len(set.Sales) != 2 {
		t.Fatalf("expected 2 sales records (narrow + broad pattern), got %d", len(set.Sales))
	}
	for _, r := range set.Sales {
		if r.Value != 1200 {
			t.Errorf("sales value = %v, want 1200", r.Value)
		}
		if r.Unit != "億円" {
			t.Errorf("sales unit = %q, want 億円", r.Unit)
		}
		if r.SourceTitle != "決算記事" {
			t.Errorf("source title = %q", r.SourceTitle)
		}
	}
}

func TestExtractSkipOverlaps(t *testing.T) {
	e := &Extractor{SkipOverlaps: true}
	set := extractOne(t, e, "売上高1200億円を計上。")

	if len(set.Sales) != 1 {
		t.Fatalf("with SkipOverlaps expected 1 sales record, got %d", len(set.Sales))
	}
}

func TestExtractProfitAndLoss(t *testing.T) {
	set := extractOne(t, NewExtractor(), "営業利益300億円、最終損失50億円を計上した。")

	if len(set.Profit) != 2 {
		t.Fatalf("expected 2 profit records, got %d", len(set.Profit))
	}
	if set.Profit[0].Value != 300 {
		t.Errorf("profit value = %v, want 300", set.Profit[0].Value)
	}
	if set.Profit[1].Value != -50 {
		t.Errorf("loss value = %v, want -50 (損失 flips sign)", set.Profit[1].Value)
	}
}

func TestExtractYoY(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    float64
	}{
		{"plus sign", "前年比+15.2%の増収。", 15.2},
		{"full width plus", "前年同期比＋8％増となった。", 8},
		{"triangle negative", "前年比▲3.5%にとどまった。", -3.5},
		{"gen suffix", "前年同期比12%減。", -12},
	}

	e := NewExtractor()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			set := extractOne(t, e, tc.content)
			if len(set.YoY) != 1 {
				t.Fatalf("expected 1 yoy record, got %d", len(set.YoY))
			}
			if set.YoY[0].Value != tc.want {
				t.Errorf("yoy value = %v, want %v", set.YoY[0].Value, tc.want)
			}
			if set.YoY[0].Unit != "%" {
				t.Errorf("yoy unit = %q, want %%", set.YoY[0].Unit)
			}
		})
	}
}

func TestExtractOutlook(t *testing.T) {
	content := "通期予想を上方修正した。来期も増収を見込む。関係ない文。"
	set := extractOne(t, NewExtractor(), content)

	if len(set.Outlook) == 0 {
		t.Fatal("expected outlook records")
	}
	if set.Outlook[0].Text != "通期予想を上方修正した。" {
		t.Errorf("outlook text = %q", set.Outlook[0].Text)
	}
	for _, r := range set.Outlook {
		if r.Category != core.FactOutlook {
			t.Errorf("outlook category = %v", r.Category)
		}
	}
}

func TestExtractNoFacts(t *testing.T) {
	set := extractOne(t, NewExtractor(), "新製品の発表イベントを開催。")

	if len(set.Sales)+len(set.Profit)+len(set.YoY)+len(set.Outlook) != 0 {
		t.Errorf("expected empty fact set, got %+v", set)
	}
}

func TestExtractCommaSeparatedNumber(t *testing.T) {
	set := extractOne(t, NewExtractor(), "売上高1,234億円。")

	if len(set.Sales) == 0 {
		t.Fatal("expected sales record")
	}
	if set.Sales[0].Value != 1234 {
		t.Errorf("sales value = %v, want 1234", set.Sales[0].Value)
	}
}

func TestExtractTitleIsScanned(t *testing.T) {
	set := NewExtractor().Extract([]core.Article{{
		Title:   "A社、売上高500億円で着地",
		Content: "",
	}})

	if len(set.Sales) == 0 {
		t.Error("facts in the title must be extracted")
	}
}

func TestParseNumber(t *testing.T) {
	if v, ok := parseNumber("1,200.5"); !ok || v != 1200.5 {
		t.Errorf("parseNumber(1,200.5) = %v, %v", v, ok)
	}
	if v, ok := parseNumber("▲3"); !ok || v != 3 {
		t.Errorf("parseNumber(▲3) = %v, %v; magnitude only, sign handled by span", v, ok)
	}
	if _, ok := parseNumber("abc"); ok {
		t.Error("parseNumber(abc) should fail")
	}
}
