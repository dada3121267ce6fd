// Package money concentra a convenção de dinheiro do sistema: todo campo de
// valor digitado é interpretado como centavos ("15000" = R$ 150,00) e todo
// valor armazenado é em reais (float64 com duas casas relevantes). A mesma
// regra vale para valor avulso, preço de pacote e pagamento rápido — campos
// com parsing divergente são uma classe de defeito conhecida.
package money

import (
	"math"
	"strconv"
	"strings"
)

// ParseCents interpreta entrada livre de dígitos como centavos e devolve reais.
// Tudo que não for dígito é descartado: "R$ 150,50", "150,50" e "15050" são o
// mesmo valor (150.50). Entrada sem nenhum dígito vale zero.
func ParseCents(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	if digits == "" {
		return 0
	}
	cents, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		// entrada absurdamente longa; satura em vez de quebrar
		return math.MaxInt64 / 100
	}
	return float64(cents) / 100
}

// FormatBRL formata reais como moeda pt-BR: "R$ 1.500,50".
func FormatBRL(v float64) string {
	neg := v < 0
	cents := int64(math.Round(math.Abs(v) * 100))
	intPart := cents / 100
	frac := cents % 100

	digits := strconv.FormatInt(intPart, 10)
	var b strings.Builder
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
	}
	for i := pre; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	out := "R$ " + b.String() + "," + pad2(frac)
	if neg {
		out = "-" + out
	}
	return out
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
