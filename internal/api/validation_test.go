package api

import "testing"

func TestValidateEmailRegex(t *testing.T) {
	valid := []string{"a@b.co", "nome.sobrenome@exemplo.com.br", "x+tag@dominio.org"}
	for _, e := range valid {
		if err := ValidateEmailRegex(e); err != nil {
			t.Errorf("ValidateEmailRegex(%q) = %v, esperava nil", e, err)
		}
	}
	invalid := []string{"", "semarroba", "a@", "@b.com", "a@b", "a b@c.com"}
	for _, e := range invalid {
		if err := ValidateEmailRegex(e); err == nil {
			t.Errorf("ValidateEmailRegex(%q) = nil, esperava erro", e)
		}
	}
}
