package agenda

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

// 2024-01-01 é segunda-feira; semanal em seg/qua, 2 por dia, horário padrão.
func TestGenerateOccurrencesWeekly(t *testing.T) {
	got, err := GenerateOccurrences("2024-01-01", FreqWeekly, []int{1, 3}, 2, nil, "09:00")
	if err != nil {
		t.Fatalf("GenerateOccurrences: %v", err)
	}
	want := []Occurrence{
		{Date: "2024-01-01", Time: "09:00"},
		{Date: "2024-01-03", Time: "09:00"},
		{Date: "2024-01-08", Time: "09:00"},
		{Date: "2024-01-10", Time: "09:00"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGenerateOccurrencesDeterministic(t *testing.T) {
	times := map[int]string{2: "14:00", 5: "10:30"}
	a, err := GenerateOccurrences("2024-05-15", FreqBiweekly, []int{5, 2}, 4, times, "09:00")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	b, err := GenerateOccurrences("2024-05-15", FreqBiweekly, []int{5, 2}, 4, times, "09:00")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same input produced different output:\n%v\n%v", a, b)
	}
}

func TestGenerateOccurrencesCount(t *testing.T) {
	cases := []struct {
		weekdays []int
		quantity int
	}{
		{[]int{0}, 1},
		{[]int{1, 3}, 2},
		{[]int{0, 1, 2, 3, 4, 5, 6}, 52},
		{[]int{6}, 52},
	}
	for _, c := range cases {
		got, err := GenerateOccurrences("2024-01-01", FreqWeekly, c.weekdays, c.quantity, nil, "09:00")
		if err != nil {
			t.Fatalf("weekdays=%v quantity=%d: %v", c.weekdays, c.quantity, err)
		}
		if len(got) != c.quantity*len(c.weekdays) {
			t.Errorf("weekdays=%v quantity=%d: len=%d, want %d", c.weekdays, c.quantity, len(got), c.quantity*len(c.weekdays))
		}
	}
}

func TestGenerateOccurrencesWeekdayCorrectness(t *testing.T) {
	for _, freq := range []Frequency{FreqWeekly, FreqBiweekly} {
		occs, err := GenerateOccurrences("2024-03-10", freq, []int{0, 2, 6}, 5, nil, "08:00")
		if err != nil {
			t.Fatalf("%s: %v", freq, err)
		}
		allowed := map[time.Weekday]bool{time.Sunday: true, time.Tuesday: true, time.Saturday: true}
		for _, o := range occs {
			d, err := ParseLocalDate(o.Date)
			if err != nil {
				t.Fatalf("bad date %q: %v", o.Date, err)
			}
			if !allowed[d.Weekday()] {
				t.Errorf("%s: %s cai em %s, fora dos dias selecionados", freq, o.Date, d.Weekday())
			}
		}
	}
}

func TestGenerateOccurrencesSorted(t *testing.T) {
	occs, err := GenerateOccurrences("2024-06-05", FreqWeekly, []int{6, 1, 4}, 3, map[int]string{6: "08:00", 1: "18:00"}, "12:00")
	if err != nil {
		t.Fatalf("GenerateOccurrences: %v", err)
	}
	for i := 1; i < len(occs); i++ {
		prev, cur := occs[i-1], occs[i]
		if prev.Date > cur.Date || (prev.Date == cur.Date && prev.Time > cur.Time) {
			t.Fatalf("saída fora de ordem em %d: %v depois de %v", i, cur, prev)
		}
	}
}

func TestGenerateOccurrencesTimeResolution(t *testing.T) {
	// quarta (3) tem horário próprio; sexta (5) cai no padrão.
	occs, err := GenerateOccurrences("2024-01-01", FreqWeekly, []int{3, 5}, 1, map[int]string{3: "16:30"}, "09:00")
	if err != nil {
		t.Fatalf("GenerateOccurrences: %v", err)
	}
	byDate := map[string]string{}
	for _, o := range occs {
		byDate[o.Date] = o.Time
	}
	if byDate["2024-01-03"] != "16:30" {
		t.Errorf("quarta deveria usar 16:30, veio %q", byDate["2024-01-03"])
	}
	if byDate["2024-01-05"] != "09:00" {
		t.Errorf("sexta deveria usar o padrão 09:00, veio %q", byDate["2024-01-05"])
	}
}

// Passo mensal herda a normalização do AddDate: 31/01 + 1 mês vira 02/03 em
// ano bissexto (2024). Comportamento documentado, não corrigido.
func TestGenerateOccurrencesMonthlyOverflow(t *testing.T) {
	// 2024-01-31 é quarta (3): a âncora é a própria data. 31/01 + 1 mês seria
	// 31/02, que o AddDate normaliza para 02/03 (2024 é bissexto).
	occs, err := GenerateOccurrences("2024-01-31", FreqMonthly, []int{3}, 3, nil, "10:00")
	if err != nil {
		t.Fatalf("GenerateOccurrences: %v", err)
	}
	want := []string{"2024-01-31", "2024-03-02", "2024-04-02"}
	for i, o := range occs {
		if o.Date != want[i] {
			t.Errorf("occurrence %d: got %s, want %s", i, o.Date, want[i])
		}
	}
}

func TestGenerateOccurrencesStartsOnAnchor(t *testing.T) {
	// startDate caindo no próprio dia selecionado conta como primeira ocorrência.
	occs, err := GenerateOccurrences("2024-01-06", FreqWeekly, []int{6}, 1, nil, "11:00")
	if err != nil {
		t.Fatalf("GenerateOccurrences: %v", err)
	}
	if occs[0].Date != "2024-01-06" {
		t.Fatalf("anchor saturday should be the first occurrence, got %s", occs[0].Date)
	}
}

func TestGenerateOccurrencesInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		start    string
		freq     Frequency
		weekdays []int
		quantity int
		def      string
	}{
		{"empty weekdays", "2024-01-01", FreqWeekly, nil, 2, "09:00"},
		{"zero quantity", "2024-01-01", FreqWeekly, []int{1}, 0, "09:00"},
		{"over cap", "2024-01-01", FreqWeekly, []int{1}, 53, "09:00"},
		{"bad weekday", "2024-01-01", FreqWeekly, []int{7}, 1, "09:00"},
		{"bad frequency", "2024-01-01", Frequency("daily"), []int{1}, 1, "09:00"},
		{"bad start", "01/01/2024", FreqWeekly, []int{1}, 1, "09:00"},
		{"bad default time", "2024-01-01", FreqWeekly, []int{1}, 1, "9h"},
	}
	for _, c := range cases {
		if _, err := GenerateOccurrences(c.start, c.freq, c.weekdays, c.quantity, nil, c.def); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: err = %v, want ErrInvalidArgument", c.name, err)
		}
	}
}

func TestGenerateOccurrencesEmptyDefaultFallsBack(t *testing.T) {
	occs, err := GenerateOccurrences("2024-01-01", FreqWeekly, []int{2}, 1, nil, "")
	if err != nil {
		t.Fatalf("GenerateOccurrences: %v", err)
	}
	if occs[0].Time != DefaultSessionTime {
		t.Fatalf("expected %s fallback, got %s", DefaultSessionTime, occs[0].Time)
	}
}
