package domain

import (
	"strings"
	"testing"
	"time"
)

func TestCompareQueuePosition(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b *Request
		want int // sign only
	}{
		{
			name: "higher_priority_first",
			a:    &Request{Priority: 5, RequestDate: base},
			b:    &Request{Priority: 1, RequestDate: base.Add(-time.Hour)},
			want: -1,
		},
		{
			name: "fifo_within_priority",
			a:    &Request{Priority: 1, RequestDate: base.Add(-time.Hour)},
			b:    &Request{Priority: 1, RequestDate: base},
			want: -1,
		},
		{
			name: "equal",
			a:    &Request{Priority: 1, RequestDate: base},
			b:    &Request{Priority: 1, RequestDate: base},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareQueuePosition(tt.a, tt.b)
			switch {
			case tt.want < 0 && got >= 0:
				t.Errorf("got %d, want negative", got)
			case tt.want == 0 && got != 0:
				t.Errorf("got %d, want 0", got)
			case tt.want > 0 && got <= 0:
				t.Errorf("got %d, want positive", got)
			}
			// Antisymmetric
			rev := CompareQueuePosition(tt.b, tt.a)
			if (got < 0) != (rev > 0) || (got == 0) != (rev == 0) {
				t.Errorf("not antisymmetric: %d vs %d", got, rev)
			}
		})
	}
}

func TestRequest_SentAge(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sent := now.Add(-45 * time.Minute)

	r := &Request{Status: StatusTradeSent, ProcessingDate: &sent}
	if got := r.SentAge(now); got != 45*time.Minute {
		t.Errorf("SentAge = %s, want 45m", got)
	}

	r.Status = StatusPending
	if got := r.SentAge(now); got != 0 {
		t.Errorf("SentAge for non trade_sent = %s, want 0", got)
	}
}

func TestTracking_RecordAndMerge(t *testing.T) {
	tr := Tracking{}
	tr.Record("offer_sent", "offer 12345")
	tr.Recordf("confirmation", "strategy %s", "stream")

	if len(tr) != 2 {
		t.Fatalf("entries = %d, want 2", len(tr))
	}
	for k, v := range tr {
		if !strings.Contains(k, "@") {
			t.Errorf("key %q missing timestamp suffix", k)
		}
		if v == "" {
			t.Errorf("key %q has empty detail", k)
		}
	}

	// Existing keys win on merge
	a := Tracking{"k@1": "original"}
	b := Tracking{"k@1": "overwrite", "k@2": "new"}
	merged := a.Merge(b)
	if merged["k@1"] != "original" {
		t.Errorf("merge overwrote existing key: %q", merged["k@1"])
	}
	if merged["k@2"] != "new" {
		t.Errorf("merge dropped new key")
	}
	if len(a) != 1 {
		t.Errorf("merge mutated receiver, len = %d", len(a))
	}
}
