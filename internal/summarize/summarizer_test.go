package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bikkkubo/pts-stock/internal/core"
)

type mockTextGenerator struct {
	response string
	err      error
	prompt   string
}

func (m *mockTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

func sampleCluster() core.TopicCluster {
	return core.TopicCluster{
		ID: "cluster_0",
		Articles: []core.Article{
			{Title: "A社、通期予想を上方修正", Content: "売上高1200億円、前年比+15.2%となった。"},
		},
	}
}

func TestSummarizeClusterValid(t *testing.T) {
	mock := &mockTextGenerator{
		response: `{"title": "業績の上方修正", "kpi": "売上高1200億円", "driver": "想定を上回る需要", "outlook": "来期も増収見込み"}`,
	}
	s := NewSummarizer(mock)

	got := s.SummarizeCluster(context.Background(), sampleCluster())
	if got.Title != "業績の上方修正" {
		t.Errorf("title = %q", got.Title)
	}
	if got.KPI != "売上高1200億円" {
		t.Errorf("kpi = %q", got.KPI)
	}
	if got.Driver != "想定を上回る需要" {
		t.Errorf("driver = %q", got.Driver)
	}
	if !strings.Contains(mock.prompt, "A社、通期予想を上方修正") {
		t.Error("prompt must carry the article titles")
	}
}

func TestSummarizeClusterMalformedYieldsSentinel(t *testing.T) {
	mock := &mockTextGenerator{response: "これはJSONではありません"}
	s := NewSummarizer(mock)

	got := s.SummarizeCluster(context.Background(), sampleCluster())
	if got != Sentinel {
		t.Errorf("malformed response must yield the sentinel, got %+v", got)
	}
}

func TestSummarizeClusterServiceErrorYieldsSentinel(t *testing.T) {
	mock := &mockTextGenerator{err: errors.New("deadline exceeded")}
	s := NewSummarizer(mock)

	got := s.SummarizeCluster(context.Background(), sampleCluster())
	if got != Sentinel {
		t.Errorf("service error must yield the sentinel, got %+v", got)
	}
}

func TestSummarizeClusterDisabledServiceYieldsSentinel(t *testing.T) {
	s := NewSummarizer(nil)
	got := s.SummarizeCluster(context.Background(), sampleCluster())
	if got != Sentinel {
		t.Errorf("disabled service must yield the sentinel, got %+v", got)
	}
}

func TestParseResponseFenced(t *testing.T) {
	raw := "```json\n{\"title\": \"見出し\", \"kpi\": \"\", \"driver\": \"要因\", \"outlook\": \"\"}\n```"
	got, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("ParseResponse = %v", err)
	}
	if got.Title != "見出し" || got.Driver != "要因" {
		t.Errorf("parsed = %+v", got)
	}
}

func TestParseResponseEmptyRecord(t *testing.T) {
	_, err := ParseResponse(`{"title": "", "kpi": "x", "driver": "", "outlook": "y"}`)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("empty title and driver must be malformed, got %v", err)
	}
}

func TestParseResponseInvalidJSON(t *testing.T) {
	_, err := ParseResponse(`{"title": "unterminated`)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("invalid JSON must wrap ErrMalformedResponse, got %v", err)
	}
}

func TestBuildClusterPromptBounded(t *testing.T) {
	cluster := core.TopicCluster{
		ID: "cluster_0",
		Articles: []core.Article{
			{Title: "長文記事", Content: strings.Repeat("あ", MaxClusterRunes*2)},
		},
	}
	prompt := BuildClusterPrompt(cluster)

	// Instruction text plus the bounded article text.
	if n := utf8.RuneCountInString(prompt); n > MaxClusterRunes+500 {
		t.Errorf("prompt %d runes, article text not bounded", n)
	}
	if !strings.Contains(prompt, "JSON") {
		t.Error("prompt must request JSON output")
	}
}
