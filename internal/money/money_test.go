package money

import "testing"

func TestParseCents(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"0", 0},
		{"5", 0.05},
		{"100", 1.00},
		{"15050", 150.50},
		{"150050", 1500.50},
		{"R$ 150,50", 150.50},
		{"1a5b0c", 1.50},
		{"", 0},
		{"abc", 0},
	}
	for _, c := range cases {
		if got := ParseCents(c.in); got != c.want {
			t.Errorf("ParseCents(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0,00"},
		{0.05, "R$ 0,05"},
		{1, "R$ 1,00"},
		{150.50, "R$ 150,50"},
		{1500.50, "R$ 1.500,50"},
		{1234567.89, "R$ 1.234.567,89"},
		{-42.10, "-R$ 42,10"},
	}
	for _, c := range cases {
		if got := FormatBRL(c.in); got != c.want {
			t.Errorf("FormatBRL(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

// O texto formatado precisa voltar ao mesmo valor quando re-parseado: a mesma
// convenção de centavos vale para todo campo de dinheiro do sistema.
func TestFormatParseRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.05, 1, 150.50, 1500.50, 9999.99} {
		if got := ParseCents(FormatBRL(v)); got != v {
			t.Errorf("round trip %v: got %v", v, got)
		}
	}
}
