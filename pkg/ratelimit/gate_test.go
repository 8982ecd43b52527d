package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testGate(cfg Config) *Gate {
	return NewGate(cfg, zerolog.Nop())
}

func TestParseUsage(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantUsed int
		wantMax  int
		wantOK   bool
	}{
		{name: "valid pair", value: "981/1000", wantUsed: 981, wantMax: 1000, wantOK: true},
		{name: "valid with spaces", value: " 42 / 100 ", wantUsed: 42, wantMax: 100, wantOK: true},
		{name: "empty", value: "", wantOK: false},
		{name: "missing separator", value: "9811000", wantOK: false},
		{name: "non-numeric used", value: "abc/1000", wantOK: false},
		{name: "non-numeric max", value: "981/xyz", wantOK: false},
		{name: "trailing garbage", value: "981/1000/5", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			used, max, ok := parseUsage(tt.value)
			if ok != tt.wantOK {
				t.Fatalf("parseUsage(%q) ok = %v, want %v", tt.value, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if used != tt.wantUsed || max != tt.wantMax {
				t.Errorf("parseUsage(%q) = %d/%d, want %d/%d", tt.value, used, max, tt.wantUsed, tt.wantMax)
			}
		})
	}
}

func TestGate_AfterResponse_PauseTrigger(t *testing.T) {
	tests := []struct {
		name      string
		usage     string
		wantPause bool
	}{
		{name: "below threshold triggers pause", usage: "981/1000", wantPause: true}, // remaining 19 <= 20
		{name: "at threshold triggers pause", usage: "980/1000", wantPause: true},    // remaining 20 <= 20
		{name: "above threshold no pause", usage: "970/1000", wantPause: false},      // remaining 30
		{name: "missing header no pause", usage: "", wantPause: false},
		{name: "malformed header no pause", usage: "a lot/some", wantPause: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []PauseEvent
			g := testGate(Config{
				ThresholdRemaining: 20,
				WindowDuration:     time.Minute,
				RecoveryBuffer:     2,
				OnPause: func(e PauseEvent) {
					events = append(events, e)
				},
			})

			now := time.Now()
			g.window.Record(now.Add(-10 * time.Second))
			g.window.Record(now.Add(-5 * time.Second))

			header := http.Header{}
			if tt.usage != "" {
				header.Set(UsageHeader, tt.usage)
			}
			g.AfterResponse(header, now)

			if tt.wantPause {
				if len(events) != 1 {
					t.Fatalf("expected 1 pause event, got %d", len(events))
				}
				if g.pending <= 0 {
					t.Error("expected a pending pause to be staged")
				}
			} else {
				if len(events) != 0 {
					t.Fatalf("expected no pause event, got %d", len(events))
				}
				if g.pending != 0 {
					t.Errorf("expected no pending pause, got %v", g.pending)
				}
			}
		})
	}
}

func TestGate_AfterResponse_EventFields(t *testing.T) {
	var got PauseEvent
	g := testGate(Config{
		ThresholdRemaining: 20,
		WindowDuration:     time.Minute,
		RecoveryBuffer:     1,
		OnPause:            func(e PauseEvent) { got = e },
	})

	now := time.Now()
	g.window.Record(now.Add(-30 * time.Second))

	header := http.Header{}
	header.Set(UsageHeader, "990/1000")
	g.AfterResponse(header, now)

	if got.Used != 990 || got.Max != 1000 || got.Remaining != 10 {
		t.Errorf("event quota = %d/%d remaining %d, want 990/1000 remaining 10",
			got.Used, got.Max, got.Remaining)
	}

	// Oldest dispatch was 30s ago in a 60s window: 30s until it ages out.
	if got.Wait < 29*time.Second || got.Wait > 30*time.Second {
		t.Errorf("event wait = %v, want ~30s", got.Wait)
	}

	if !got.ResumeAt.Equal(now.Add(got.Wait)) {
		t.Errorf("ResumeAt = %v, want now+wait", got.ResumeAt)
	}
}

func TestGate_BeforeRequest_MinSpacing(t *testing.T) {
	g := testGate(Config{MinSpacing: 80 * time.Millisecond})
	ctx := context.Background()

	if err := g.BeforeRequest(ctx); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	first := g.LastDispatch()

	if err := g.BeforeRequest(ctx); err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	second := g.LastDispatch()

	if spacing := second.Sub(first); spacing < 80*time.Millisecond {
		t.Errorf("dispatch spacing = %v, want >= 80ms", spacing)
	}
}

func TestGate_BeforeRequest_ConsumesPendingPause(t *testing.T) {
	g := testGate(Config{MinSpacing: time.Millisecond})
	g.pending = 50 * time.Millisecond

	start := time.Now()
	if err := g.BeforeRequest(context.Background()); err != nil {
		t.Fatalf("BeforeRequest: %v", err)
	}

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("dispatch after %v, want >= 50ms pending pause", elapsed)
	}
	if g.pending != 0 {
		t.Errorf("pending pause = %v after dispatch, want 0", g.pending)
	}
}

func TestGate_BeforeRequest_ContextCancelled(t *testing.T) {
	g := testGate(Config{MinSpacing: time.Millisecond})
	g.pending = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	before := g.window.Len(time.Now())
	if err := g.BeforeRequest(ctx); err == nil {
		t.Fatal("expected error from cancelled wait")
	}

	// An abandoned wait must not record a dispatch.
	if after := g.window.Len(time.Now()); after != before {
		t.Errorf("window length changed from %d to %d on abandoned dispatch", before, after)
	}

	// The pause was never served, so it must stay staged for the next
	// dispatch instead of being silently discarded.
	if g.pending != time.Minute {
		t.Errorf("pending pause = %v after abandoned dispatch, want 1m", g.pending)
	}
}

func TestGate_RecordsDispatch(t *testing.T) {
	g := testGate(Config{MinSpacing: time.Millisecond, WindowDuration: time.Minute})

	if err := g.BeforeRequest(context.Background()); err != nil {
		t.Fatalf("BeforeRequest: %v", err)
	}

	if got := g.window.Len(time.Now()); got != 1 {
		t.Errorf("window length = %d after one dispatch, want 1", got)
	}
	if g.LastDispatch().IsZero() {
		t.Error("lastDispatch not set")
	}
}
