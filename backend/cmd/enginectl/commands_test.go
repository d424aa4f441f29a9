package main

import (
	"bytes"
	"strings"
	"testing"

	"adops-engine/backend/internal/service/scoring"

	"github.com/shopspring/decimal"
)

func TestWriteScoresTable(t *testing.T) {
	var buf bytes.Buffer
	ranked := []scoring.CreativeScore{
		{AdName: "Spring Sale", Records: 2, TotalImpressions: 2000, TotalClicks: 100, TotalSpend: decimal.RequireFromString("50"), TotalConversions: 10, AvgCTR: 5, AvgCPC: 0.5, ConversionRate: 10, Score: 6.4},
		{AdName: "Summer", Records: 1, TotalSpend: decimal.Zero},
	}
	if err := writeScores(&buf, ranked); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "1 ") || !strings.Contains(lines[1], "Spring Sale") || !strings.Contains(lines[1], "50.00") || !strings.Contains(lines[1], "6.4000") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
}

func TestWriteScoresEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeScores(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "no performance data") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"ingest": false, "sweep-tests": false, "scores": false, "token": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("command %s not registered", name)
		}
	}
	if f := ingestCmd.Flags().Lookup("range"); f == nil || f.DefValue != "last_30d" {
		t.Fatalf("ingest --range default should be last_30d")
	}
}

func TestScoresRejectsBlankAdSet(t *testing.T) {
	prevAdSet, prevDays := adSetID, days
	t.Cleanup(func() { adSetID, days = prevAdSet, prevDays })

	adSetID, days = "   ", 30
	err := runScores(scoresCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "--ad-set") {
		t.Fatalf("expected blank --ad-set error, got %v", err)
	}
}
