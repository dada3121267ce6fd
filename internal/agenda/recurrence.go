package agenda

import (
	"sort"
)

// Frequency é o passo entre ocorrências de uma recorrência.
type Frequency string

const (
	FreqWeekly   Frequency = "weekly"
	FreqBiweekly Frequency = "biweekly"
	FreqMonthly  Frequency = "monthly"
)

// Occurrence é um par (data, horário) gerado pela recorrência, antes de virar sessão.
type Occurrence struct {
	Date string
	Time string
}

const (
	// MaxQuantityPerWeekday limita quantas ocorrências podem ser geradas por dia da semana.
	MaxQuantityPerWeekday = 52
	// maxTotalOccurrences é o teto absoluto do gerador (52 × 7 dias + folga zero).
	// Qualquer total acima disso é erro do chamador, não motivo para iterar mais.
	maxTotalOccurrences = 364

	// DefaultSessionTime é o horário usado quando o dia selecionado não tem horário próprio.
	DefaultSessionTime = "09:00"
)

// GenerateOccurrences expande uma configuração de recorrência em uma lista
// ordenada e determinística de ocorrências.
//
// Para cada dia da semana selecionado, anda de startDate até a primeira data
// naquele dia (a própria startDate conta), e então avança pelo passo da
// frequência emitindo quantity ocorrências. O passo mensal usa AddDate(0, 1, 0),
// que normaliza estouro de mês do jeito do Go: 31/01 + 1 mês = 02/03 ou 03/03.
// Esse rolamento é comportamento aceito, não corrigido — ocorrências mensais
// podem cair em outro dia da semana.
//
// O horário de cada ocorrência é perWeekdayTime[dia] quando presente e não
// vazio; senão defaultTime; senão DefaultSessionTime. A saída é ordenada por
// (data, horário) e tem exatamente quantity × len(weekdays) itens.
func GenerateOccurrences(startDate string, freq Frequency, weekdays []int, quantity int, perWeekdayTime map[int]string, defaultTime string) ([]Occurrence, error) {
	start, err := ParseLocalDate(startDate)
	if err != nil {
		return nil, invalidf("data inicial inválida: %q", startDate)
	}
	if freq != FreqWeekly && freq != FreqBiweekly && freq != FreqMonthly {
		return nil, invalidf("frequência inválida: %q", freq)
	}
	if quantity < 1 || quantity > MaxQuantityPerWeekday {
		return nil, invalidf("quantidade por dia deve estar entre 1 e %d, veio %d", MaxQuantityPerWeekday, quantity)
	}
	if len(weekdays) == 0 {
		return nil, invalidf("selecione ao menos um dia da semana")
	}
	seen := make(map[int]bool, len(weekdays))
	days := make([]int, 0, len(weekdays))
	for _, wd := range weekdays {
		if wd < 0 || wd > 6 {
			return nil, invalidf("dia da semana inválido: %d", wd)
		}
		if !seen[wd] {
			seen[wd] = true
			days = append(days, wd)
		}
	}
	if quantity*len(days) > maxTotalOccurrences {
		return nil, invalidf("recorrência geraria %d ocorrências (máximo %d)", quantity*len(days), maxTotalOccurrences)
	}
	if defaultTime == "" {
		defaultTime = DefaultSessionTime
	}
	if _, _, ok := ParseClock(defaultTime); !ok {
		return nil, invalidf("horário padrão inválido: %q", defaultTime)
	}

	out := make([]Occurrence, 0, quantity*len(days))
	for _, wd := range days {
		slot := defaultTime
		if t, ok := perWeekdayTime[wd]; ok && t != "" {
			if _, _, okc := ParseClock(t); !okc {
				return nil, invalidf("horário inválido para o dia %d: %q", wd, t)
			}
			slot = t
		}
		// primeira data em/depois de start que cai no dia wd
		d := start.AddDate(0, 0, (wd-int(start.Weekday())+7)%7)
		for i := 0; i < quantity; i++ {
			out = append(out, Occurrence{Date: FormatDate(d), Time: slot})
			switch freq {
			case FreqWeekly:
				d = d.AddDate(0, 0, 7)
			case FreqBiweekly:
				d = d.AddDate(0, 0, 14)
			case FreqMonthly:
				d = d.AddDate(0, 1, 0)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}
