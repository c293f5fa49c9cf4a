package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"stock-insight-api/internal/cache"
	"stock-insight-api/internal/types"
)

var testTime = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func TestFallbackOversold(t *testing.T) {
	tech := &types.TechnicalAnalysis{
		RSI14:    types.Float(25),
		Change1M: types.Float(-8),
		Change3M: types.Float(-3),
	}
	rec := Fallback(tech, 100, testTime)

	if rec.Action != types.ActionBuy {
		t.Errorf("expected BUY, got %s", rec.Action)
	}
	if rec.TargetPrice != 115.00 {
		t.Errorf("expected target 115.00, got %.2f", rec.TargetPrice)
	}
	if rec.Confidence != 60 {
		t.Errorf("expected confidence 60, got %d", rec.Confidence)
	}
	if rec.ProducedBy != types.ProducedByFallback {
		t.Errorf("expected fallback producer, got %s", rec.ProducedBy)
	}
}

func TestFallbackOverbought(t *testing.T) {
	tech := &types.TechnicalAnalysis{
		RSI14:    types.Float(75),
		Change1M: types.Float(15),
	}
	rec := Fallback(tech, 200, testTime)

	if rec.Action != types.ActionSell {
		t.Errorf("expected SELL, got %s", rec.Action)
	}
	if rec.TargetPrice != 180.00 {
		t.Errorf("expected target 180.00, got %.2f", rec.TargetPrice)
	}
	if rec.Confidence != 60 {
		t.Errorf("expected confidence 60, got %d", rec.Confidence)
	}
}

func TestFallbackNeutral(t *testing.T) {
	tech := &types.TechnicalAnalysis{
		RSI14:    types.Float(55),
		Change1M: types.Float(2),
		Change3M: types.Float(4),
		SMA50:    types.Float(103.50),
	}
	rec := Fallback(tech, 100, testTime)

	if rec.Action != types.ActionHold {
		t.Errorf("expected HOLD, got %s", rec.Action)
	}
	if rec.TargetPrice != 103.50 {
		t.Errorf("expected SMA50 target, got %.2f", rec.TargetPrice)
	}
	if rec.Confidence != 50 {
		t.Errorf("expected confidence 50, got %d", rec.Confidence)
	}

	// Without SMA50 the target falls back to a 5% premium.
	tech.SMA50 = nil
	rec = Fallback(tech, 100, testTime)
	if rec.TargetPrice != 105.00 {
		t.Errorf("expected 105.00 without SMA50, got %.2f", rec.TargetPrice)
	}
}

func TestFallbackNoIndicators(t *testing.T) {
	rec := Fallback(&types.TechnicalAnalysis{}, 100, testTime)

	if rec.Action != types.ActionHold {
		t.Errorf("expected HOLD, got %s", rec.Action)
	}
	if rec.TargetPrice != 100 {
		t.Errorf("expected current price as target, got %.2f", rec.TargetPrice)
	}
	if rec.Confidence != 30 {
		t.Errorf("expected confidence 30, got %d", rec.Confidence)
	}
	if rec.Reason != "insufficient data" {
		t.Errorf("unexpected reason %q", rec.Reason)
	}
}

func TestParseWellFormed(t *testing.T) {
	text := `{"action":"buy","reason":"strong momentum","targetPrice":150.5,"upside":12.3,"confidence":78}`
	rec, err := Parse(text, 134, testTime)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Action != types.ActionBuy {
		t.Errorf("expected BUY (normalized), got %s", rec.Action)
	}
	if rec.TargetPrice != 150.5 || rec.Upside != 12.3 || rec.Confidence != 78 {
		t.Errorf("field mismatch: %+v", rec)
	}
	if rec.ProducedBy != types.ProducedByLLM {
		t.Errorf("expected LLM producer, got %s", rec.ProducedBy)
	}
}

func TestParseSurroundingProse(t *testing.T) {
	text := "Sure, here is my analysis:\n```json\n{\"action\":\"HOLD\",\"reason\":\"fairly valued\",\"targetPrice\":\"$120.00\",\"confidence\":\"65\"}\n```\nLet me know if you need more."
	rec, err := Parse(text, 118, testTime)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Action != types.ActionHold {
		t.Errorf("expected HOLD, got %s", rec.Action)
	}
	if rec.TargetPrice != 120.00 {
		t.Errorf("expected coerced string target, got %.2f", rec.TargetPrice)
	}
	if rec.Confidence != 65 {
		t.Errorf("expected coerced string confidence, got %d", rec.Confidence)
	}
}

func TestParseDefaults(t *testing.T) {
	rec, err := Parse(`{"action":"SHORT","reason":"?"}`, 90, testTime)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Action != types.ActionHold {
		t.Errorf("unknown action must normalize to HOLD, got %s", rec.Action)
	}
	if rec.TargetPrice != 90 {
		t.Errorf("targetPrice must default to current price, got %.2f", rec.TargetPrice)
	}
	if rec.Confidence != 50 {
		t.Errorf("confidence must default to 50, got %d", rec.Confidence)
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := Parse("I cannot help with that.", 100, testTime); err == nil {
		t.Error("expected error for text with no JSON object")
	}
	if _, err := Parse("{not json}", 100, testTime); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestBuildPromptGuardsAbsence(t *testing.T) {
	snap := &types.Snapshot{Symbol: "aapl"}
	prompt := BuildPrompt(snap, &types.TechnicalAnalysis{}, 0)

	if !strings.Contains(prompt, "AAPL") {
		t.Error("prompt should carry the uppercased symbol")
	}
	if !strings.Contains(prompt, "N/A") {
		t.Error("absent fields must render as N/A")
	}
	if strings.Contains(prompt, "0.00") {
		t.Errorf("absent fields must not render as zero:\n%s", prompt)
	}
}

func TestFingerprintStability(t *testing.T) {
	a := Fingerprint("2025-09-30", types.Float(54.4), types.Float(3.2), 187.459)
	b := Fingerprint("2025-09-30", types.Float(54.2), types.Float(2.9), 187.451)
	if a != b {
		t.Errorf("materially unchanged inputs must share a fingerprint: %s vs %s", a, b)
	}

	c := Fingerprint("2025-09-30", types.Float(31.0), types.Float(2.9), 187.451)
	if a == c {
		t.Error("a large RSI move must change the fingerprint")
	}

	d := Fingerprint("2025-09-30", nil, nil, 187.451)
	if !strings.Contains(d, "na") {
		t.Errorf("absent indicators must fingerprint as na, got %s", d)
	}
}

type scriptedProvider struct {
	text  string
	err   error
	calls int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Invoke(ctx context.Context, prompt string) (string, error) {
	p.calls++
	return p.text, p.err
}

func testSnapshot() *types.Snapshot {
	return &types.Snapshot{
		Symbol: "AAPL",
		Quote:  &types.Quote{Symbol: "AAPL", Price: 187.45},
		Financials: &types.FinancialSnapshot{
			Symbol:     "AAPL",
			ReportDate: "2025-09-30",
		},
	}
}

func TestRecommendUsesLLMAnswer(t *testing.T) {
	provider := &scriptedProvider{text: `{"action":"BUY","reason":"cheap","targetPrice":210,"upside":12,"confidence":70}`}
	a := New(provider, nil, time.Hour, WithClock(func() time.Time { return testTime }))

	rec, cached := a.Recommend(context.Background(), testSnapshot(), &types.TechnicalAnalysis{})
	if cached {
		t.Error("first call cannot be cached")
	}
	if rec.Action != types.ActionBuy || rec.ProducedBy != types.ProducedByLLM {
		t.Errorf("expected LLM BUY, got %+v", rec)
	}
}

func TestRecommendFallsBackOnProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("transport down")}
	a := New(provider, nil, time.Hour, WithClock(func() time.Time { return testTime }))

	tech := &types.TechnicalAnalysis{RSI14: types.Float(25), Change1M: types.Float(-8), Change3M: types.Float(-3)}
	rec, _ := a.Recommend(context.Background(), testSnapshot(), tech)

	if rec.ProducedBy != types.ProducedByFallback {
		t.Errorf("expected fallback result, got %s", rec.ProducedBy)
	}
	if rec.Action != types.ActionBuy {
		t.Errorf("expected heuristic BUY for oversold inputs, got %s", rec.Action)
	}
	if provider.calls != 1 {
		t.Errorf("llm must not be retried, got %d calls", provider.calls)
	}
}

func TestRecommendReusesFingerprintCache(t *testing.T) {
	provider := &scriptedProvider{text: `{"action":"HOLD","reason":"steady","targetPrice":190,"confidence":55}`}
	clock := testTime
	c := cache.New(nil, cache.WithClock(func() time.Time { return clock }))
	a := New(provider, c, time.Hour, WithClock(func() time.Time { return clock }))

	snap := testSnapshot()
	tech := &types.TechnicalAnalysis{RSI14: types.Float(54)}

	if _, cached := a.Recommend(context.Background(), snap, tech); cached {
		t.Error("first call cannot be cached")
	}
	rec, cached := a.Recommend(context.Background(), snap, tech)
	if !cached {
		t.Error("second call with identical inputs must hit the fingerprint cache")
	}
	if provider.calls != 1 {
		t.Errorf("expected exactly one llm call, got %d", provider.calls)
	}
	if rec.Action != types.ActionHold {
		t.Errorf("cached answer mismatch: %+v", rec)
	}
}
