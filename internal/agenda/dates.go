package agenda

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseLocalDate interpreta "YYYY-MM-DD" fixando meia-noite LOCAL, não UTC.
// Construir a data em UTC e formatar em local desloca um dia em fusos negativos
// (o clássico off-by-one do Brasil); por isso ParseInLocation com time.Local.
func ParseLocalDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
}

// FormatDate devolve a data em "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// FormatDateBR converte "YYYY-MM-DD" em "DD/MM/YYYY". Entrada vazia ou inválida vira "".
func FormatDateBR(s string) string {
	t, err := ParseLocalDate(s)
	if err != nil {
		return ""
	}
	return t.Format("02/01/2006")
}

// ParseClock valida "HH:MM" e devolve hora e minuto.
func ParseClock(s string) (hour, minute int, ok bool) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(s[:2])
	m, err2 := strconv.Atoi(s[3:])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
