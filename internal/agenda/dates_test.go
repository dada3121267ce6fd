package agenda

import "testing"

func TestParseLocalDateRoundTrip(t *testing.T) {
	// Inclui datas em que há transição de horário de verão em alguns fusos:
	// o parse fixa meia-noite local e a formatação não pode deslocar o dia.
	for _, s := range []string{"2024-03-10", "2024-11-03", "2024-01-01", "2024-02-29", "2023-10-15"} {
		d, err := ParseLocalDate(s)
		if err != nil {
			t.Fatalf("ParseLocalDate(%q): %v", s, err)
		}
		if got := FormatDate(d); got != s {
			t.Errorf("round trip %q: got %q", s, got)
		}
	}
}

func TestParseLocalDateInvalid(t *testing.T) {
	for _, s := range []string{"", "10/03/2024", "2024-13-01", "hoje"} {
		if _, err := ParseLocalDate(s); err == nil {
			t.Errorf("ParseLocalDate(%q): expected error", s)
		}
	}
}

func TestFormatDateBR(t *testing.T) {
	if got := FormatDateBR("2026-02-11"); got != "11/02/2026" {
		t.Fatalf("expected 11/02/2026, got %q", got)
	}
	if got := FormatDateBR(""); got != "" {
		t.Fatalf("expected empty for empty input, got %q", got)
	}
	if got := FormatDateBR("invalid"); got != "" {
		t.Fatalf("expected empty for invalid input, got %q", got)
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in     string
		h, m   int
		wantOK bool
	}{
		{"09:00", 9, 0, true},
		{"23:59", 23, 59, true},
		{"00:00", 0, 0, true},
		{"24:00", 0, 0, false},
		{"09:60", 0, 0, false},
		{"9:00", 0, 0, false},
		{"0900", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, c := range cases {
		h, m, ok := ParseClock(c.in)
		if ok != c.wantOK {
			t.Errorf("ParseClock(%q) ok = %v, want %v", c.in, ok, c.wantOK)
			continue
		}
		if ok && (h != c.h || m != c.m) {
			t.Errorf("ParseClock(%q) = %d:%d, want %d:%d", c.in, h, m, c.h, c.m)
		}
	}
}
