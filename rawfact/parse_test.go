package rawfact

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ptrStr(s string) *string { return &s }

func ptrClock(h, m int) *Clock { return &Clock{Hour: h, Minute: m} }

func TestParse(t *testing.T) {

	tests := []struct {
		raw    string
		want   Parsed
		reason string // non-empty for expected parse errors
	}{
		{
			raw:  "foo@bar",
			want: Parsed{Activity: "foo", Category: ptrStr("bar")},
		},
		{
			raw: "10:00-18:00 foo@bar",
			want: Parsed{
				Activity: "foo",
				Category: ptrStr("bar"),
				Range:    Range{Start: ptrClock(10, 0), End: ptrClock(18, 0)},
			},
		},
		{
			raw: "11:00 foo@bar",
			want: Parsed{
				Activity: "foo",
				Category: ptrStr("bar"),
				Range:    Range{Start: ptrClock(11, 0)},
			},
		},
		{
			raw: "9:05 foo",
			want: Parsed{
				Activity: "foo",
				Range:    Range{Start: ptrClock(9, 5)},
			},
		},
		{
			raw: "22:00-02:00 night@shift",
			want: Parsed{
				Activity: "night",
				Category: ptrStr("shift"),
				Range:    Range{Start: ptrClock(22, 0), End: ptrClock(2, 0)},
			},
		},
		{
			raw: "  coding  @ work , fixing things ",
			want: Parsed{
				Activity:    "coding",
				Category:    ptrStr("work"),
				Description: "fixing things",
			},
		},
		{
			raw: "coding@work #go #cli, parser, again",
			want: Parsed{
				Activity:    "coding",
				Category:    ptrStr("work"),
				Description: "parser, again",
				Tags:        []string{"go", "cli"},
			},
		},
		{
			raw:  "coding #go",
			want: Parsed{Activity: "coding", Tags: []string{"go"}},
		},
		{
			raw:  "foo, bar baz",
			want: Parsed{Activity: "foo", Description: "bar baz"},
		},
		{
			raw:  "foo@",
			want: Parsed{Activity: "foo"},
		},
		{
			raw:  "10:00 call, phone bob@acme",
			want: Parsed{Activity: "call", Description: "phone bob@acme", Range: Range{Start: ptrClock(10, 0)}},
		},
		{
			raw:  "foo@bar, baz@qux",
			want: Parsed{Activity: "foo", Category: ptrStr("bar"), Description: "baz@qux"},
		},
		{
			raw:  "10:00\u00a0coding@work",
			want: Parsed{Activity: "coding", Category: ptrStr("work"), Range: Range{Start: ptrClock(10, 0)}},
		},
		{
			raw:  "10:00-11:00\u3000\u3000coding",
			want: Parsed{Activity: "coding", Range: Range{Start: ptrClock(10, 0), End: ptrClock(11, 0)}},
		},
		{
			raw:  "2016 planning@work",
			want: Parsed{Activity: "2016 planning", Category: ptrStr("work")},
		},
		{raw: "", reason: "fact is empty"},
		{raw: "   ", reason: "fact is empty"},
		{raw: "@bar", reason: "no activity name"},
		{raw: "10:00", reason: "no activity name"},
		{raw: "10:00-18:00 @bar", reason: "no activity name"},
		{raw: "#tag", reason: "no activity name"},
		{raw: "25:00 foo", reason: "outside 00:00-23:59"},
		{raw: "10:60 foo", reason: "outside 00:00-23:59"},
		{raw: "10:0-18 foo", reason: "malformed time range"},
		{raw: "10:00-18:00-19:00 foo", reason: "malformed time range"},
	}

	for ii, tt := range tests {
		t.Run(fmt.Sprintf("test_%d", ii), func(t *testing.T) {
			got, err := Parse(tt.raw)
			if tt.reason != "" {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("expected ParseError for %q, got %v", tt.raw, err)
				}
				if pe.Input != tt.raw {
					t.Errorf("ParseError input got %q want %q", pe.Input, tt.raw)
				}
				if got, want := pe.Error(), tt.reason; !strings.Contains(got, want) {
					t.Errorf("error %q does not contain %q", got, want)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

// TestParseNoCategory checks that a missing category is nil rather than "".
func TestParseNoCategory(t *testing.T) {
	for _, raw := range []string{"foo", "foo@", "foo@  ", "foo, with description"} {
		p, err := Parse(raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if p.Category != nil {
			t.Errorf("category for %q got %q want nil", raw, *p.Category)
		}
	}
}

func TestClockString(t *testing.T) {
	if got, want := (Clock{Hour: 7, Minute: 5}).String(), "07:05"; got != want {
		t.Errorf("got %s want %s", got, want)
	}
}
