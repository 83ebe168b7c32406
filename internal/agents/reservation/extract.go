package reservation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is how dates are stored and displayed.
const DateLayout = "2006-01-02"

// Request is what a booking message asked for. Zero fields were not found.
type Request struct {
	Date      string
	Time      string
	PartySize int
	VenueID   string
	Special   []string
}

// Missing names the required fields that are still empty.
func (r Request) Missing() []string {
	var out []string
	if r.Date == "" {
		out = append(out, "date")
	}
	if r.Time == "" {
		out = append(out, "time")
	}
	if r.PartySize <= 0 {
		out = append(out, "party size")
	}
	if r.VenueID == "" {
		out = append(out, "restaurant")
	}
	return out
}

var (
	dayMonthRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})\b`)
	clockRe    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	meridiemRe = regexp.MustCompile(`\b(\d{1,2})\s?(am|pm)\b`)
	hoursRe    = regexp.MustCompile(`\b(\d{1,2})\s?(?:hs?|horas?)\b`)
	peopleRe   = regexp.MustCompile(`\b(\d{1,3})\s*(?:people|persons?|guests?|personas?|comensales?)\b`)
	forRe      = regexp.MustCompile(`\b(?:for|para|somos)\s+(\d{1,3})(\s*(?:am|pm|:|h))?`)
)

var weekdays = []struct {
	word string
	day  time.Weekday
}{
	{"monday", time.Monday}, {"tuesday", time.Tuesday}, {"wednesday", time.Wednesday},
	{"thursday", time.Thursday}, {"friday", time.Friday}, {"saturday", time.Saturday}, {"sunday", time.Sunday},
	{"lunes", time.Monday}, {"martes", time.Tuesday}, {"miércoles", time.Wednesday}, {"miercoles", time.Wednesday},
	{"jueves", time.Thursday}, {"viernes", time.Friday}, {"sábado", time.Saturday}, {"sabado", time.Saturday}, {"domingo", time.Sunday},
}

var timeWords = []struct {
	words []string
	slot  string
}{
	{[]string{"noon", "mediodía", "mediodia"}, "12:00"},
	{[]string{"lunch", "almuerzo"}, "13:00"},
	{[]string{"dinner", "cena"}, "20:30"},
	{[]string{"tonight", "night", "noche"}, "20:00"},
	{[]string{"evening", "tarde"}, "19:00"},
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"una": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5, "seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10,
}

var specialRequests = []struct {
	name     string
	keywords []string
}{
	{"vegetarian", []string{"vegetarian", "vegan", "vegetariano", "vegano", "sin carne"}},
	{"celebration", []string{"birthday", "anniversary", "celebration", "cumpleaños", "aniversario", "celebración", "fiesta"}},
	{"terrace", []string{"terrace", "outdoor", "outside", "terraza", "afuera", "exterior"}},
	{"window", []string{"window", "ventana", "vista"}},
	{"accessibility", []string{"wheelchair", "accessible", "silla de ruedas", "accesible"}},
}

// Extract pulls booking details out of free text. Relative dates resolve
// against today.
func Extract(text string, today time.Time, venues []Venue) Request {
	t := strings.ToLower(text)
	r := Request{
		Date:      extractDate(t, today),
		Time:      extractTime(t),
		PartySize: extractPartySize(t),
	}
	if v, ok := mentioned(venues, t); ok {
		r.VenueID = v.ID
	}
	for _, s := range specialRequests {
		for _, k := range s.keywords {
			if strings.Contains(t, k) {
				r.Special = append(r.Special, s.name)
				break
			}
		}
	}
	return r
}

func extractDate(t string, today time.Time) string {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	switch {
	case strings.Contains(t, "day after tomorrow"), strings.Contains(t, "pasado mañana"):
		return today.AddDate(0, 0, 2).Format(DateLayout)
	case strings.Contains(t, "tomorrow"), strings.Contains(t, "mañana"):
		return today.AddDate(0, 0, 1).Format(DateLayout)
	case strings.Contains(t, "today"), strings.Contains(t, "tonight"), strings.Contains(t, "hoy"), strings.Contains(t, "esta noche"):
		return today.Format(DateLayout)
	}

	for _, w := range weekdays {
		if strings.Contains(t, w.word) {
			ahead := (int(w.day) - int(today.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			return today.AddDate(0, 0, ahead).Format(DateLayout)
		}
	}

	if m := dayMonthRe.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if day < 1 || day > 31 || month < 1 || month > 12 {
			return ""
		}
		d := time.Date(today.Year(), time.Month(month), day, 0, 0, 0, 0, today.Location())
		if d.Day() != day {
			return "" // 31/02 and friends
		}
		if d.Before(today) {
			d = d.AddDate(1, 0, 0)
		}
		return d.Format(DateLayout)
	}
	return ""
}

func extractTime(t string) string {
	if m := clockRe.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if h < 24 && minute < 60 {
			return fmt.Sprintf("%02d:%02d", h, minute)
		}
	}
	if m := meridiemRe.FindStringSubmatch(t); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h >= 1 && h <= 12 {
			if m[2] == "pm" && h < 12 {
				h += 12
			}
			if m[2] == "am" && h == 12 {
				h = 0
			}
			return fmt.Sprintf("%02d:00", h)
		}
	}
	if m := hoursRe.FindStringSubmatch(t); m != nil {
		if h, _ := strconv.Atoi(m[1]); h < 24 {
			return fmt.Sprintf("%02d:00", h)
		}
	}
	for _, tw := range timeWords {
		for _, w := range tw.words {
			if strings.Contains(t, w) {
				return tw.slot
			}
		}
	}
	return ""
}

func extractPartySize(t string) int {
	if m := peopleRe.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	for _, m := range forRe.FindAllStringSubmatch(t, -1) {
		if m[2] == "" {
			n, _ := strconv.Atoi(m[1])
			return n
		}
	}
	for _, f := range strings.FieldsFunc(t, func(r rune) bool { return r == ' ' || r == ',' || r == '.' }) {
		if n, ok := numberWords[f]; ok {
			if strings.Contains(t, "for "+f) || strings.Contains(t, "para "+f) ||
				strings.Contains(t, f+" people") || strings.Contains(t, f+" persona") || strings.Contains(t, f+" comensal") ||
				strings.Contains(t, f+" of us") || strings.Contains(t, "somos "+f) {
				return n
			}
		}
	}
	return 0
}
