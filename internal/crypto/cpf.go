package crypto

import "regexp"

var onlyDigits = regexp.MustCompile(`[^0-9]`)

// NormalizeCPF remove tudo que não for dígito.
func NormalizeCPF(cpf string) string {
	return onlyDigits.ReplaceAllString(cpf, "")
}

// CPFHash retorna SHA-256 do CPF normalizado em hex, usado para busca por
// igualdade sem descriptografar.
func CPFHash(cpfNormalized string) string {
	return SHA256Hex([]byte(cpfNormalized))
}
