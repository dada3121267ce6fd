package agenda

import (
	"fmt"

	"github.com/google/uuid"
)

// HasConflict verifica se alguma sessão da lista ocupa exatamente (date, time).
// A comparação é igualdade exata de data e horário — sessões às 09:00 e 09:30
// não conflitam mesmo que as durações se sobreponham no relógio. excludeID,
// quando não-nil, ignora a própria sessão sendo editada.
func HasConflict(date, timeStr string, sessions []Session, excludeID *uuid.UUID) bool {
	for i := range sessions {
		s := &sessions[i]
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		if s.Date == date && s.Time == timeStr {
			return true
		}
	}
	return false
}

// SuggestNextSlot devolve (hora+1) mod 24 mantendo os minutos. É uma única
// sugestão por conflito; o horário sugerido pode ele mesmo estar ocupado.
func SuggestNextSlot(timeStr string) string {
	h, m, ok := ParseClock(timeStr)
	if !ok {
		return timeStr
	}
	return fmt.Sprintf("%02d:%02d", (h+1)%24, m)
}

func conflictError(date, timeStr string) *ConflictError {
	return &ConflictError{Date: date, Time: timeStr, SuggestedTime: SuggestNextSlot(timeStr)}
}
