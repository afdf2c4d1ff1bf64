package identity

import (
	"strings"
	"unicode/utf8"
)

// Convention tags how a raw name string was read. The comma-form heuristic is
// best-effort: when a comma name cannot be classified confidently the parse is
// tagged Ambiguous and candidates for both readings are generated, so the
// decision stays inspectable instead of being a silent guess.
type Convention int

const (
	// ConventionTraditional is "Lastname, Firstname" (academic default).
	ConventionTraditional Convention = iota
	// ConventionAmbiguous is a comma form tried under both readings,
	// traditional first.
	ConventionAmbiguous
	// ConventionNatural is "Firstname Lastname" without a comma.
	ConventionNatural
	// ConventionSingle is a bare surname.
	ConventionSingle
)

func (c Convention) String() string {
	switch c {
	case ConventionTraditional:
		return "traditional"
	case ConventionAmbiguous:
		return "ambiguous"
	case ConventionNatural:
		return "natural"
	case ConventionSingle:
		return "single"
	default:
		return "unknown"
	}
}

// titleMarkers in the part before the comma signal the traditional reading.
var titleMarkers = []string{"prof", "dr", "professor", "doktor"}

// Interpretation is one reading of a raw name, still in raw (unnormalized)
// text so display formatting can reuse it.
type Interpretation struct {
	Given   string
	Surname string
}

// ParsedName is the outcome of convention inference for one raw name.
type ParsedName struct {
	Raw        string
	Convention Convention
	Primary    Interpretation
	// Alternate carries the reversed reading of an ambiguous comma form.
	Alternate *Interpretation
}

// Parse infers the name convention of a raw name string.
func Parse(raw string) ParsedName {
	trimmed := strings.TrimSpace(raw)

	if strings.Contains(trimmed, ",") {
		return parseCommaForm(raw, trimmed)
	}

	parts := strings.Fields(trimmed)
	switch {
	case len(parts) >= 2:
		return ParsedName{
			Raw:        raw,
			Convention: ConventionNatural,
			Primary: Interpretation{
				Given:   strings.Join(parts[:len(parts)-1], " "),
				Surname: parts[len(parts)-1],
			},
		}
	case len(parts) == 1:
		return ParsedName{
			Raw:        raw,
			Convention: ConventionSingle,
			Primary:    Interpretation{Surname: parts[0]},
		}
	default:
		return ParsedName{
			Raw:        raw,
			Convention: ConventionSingle,
			Primary:    Interpretation{Surname: trimmed},
		}
	}
}

func parseCommaForm(raw, trimmed string) ParsedName {
	parts := strings.Split(trimmed, ",")
	part1 := strings.TrimSpace(parts[0])
	part2 := ""
	if len(parts) > 1 {
		part2 = strings.TrimSpace(parts[1])
	}

	hasTitle := false
	lower1 := strings.ToLower(part1)
	for _, marker := range titleMarkers {
		if strings.Contains(lower1, marker) {
			hasTitle = true
			break
		}
	}

	part2HasSpace := strings.Contains(part2, " ")
	muchLonger := utf8.RuneCountInString(part1)*2 > utf8.RuneCountInString(part2)*3

	if hasTitle || (muchLonger && !part2HasSpace) {
		return ParsedName{
			Raw:        raw,
			Convention: ConventionTraditional,
			Primary:    Interpretation{Given: part2, Surname: part1},
		}
	}

	// Cannot tell which half is the surname; keep the traditional reading
	// first and carry the reversed one as an alternate.
	return ParsedName{
		Raw:        raw,
		Convention: ConventionAmbiguous,
		Primary:    Interpretation{Given: part2, Surname: part1},
		Alternate:  &Interpretation{Given: part1, Surname: part2},
	}
}

// FirstGiven returns the first given-name token for personal greetings,
// falling back to the surname when no given name exists.
func (p ParsedName) FirstGiven() string {
	if fields := strings.Fields(p.Primary.Given); len(fields) > 0 {
		return fields[0]
	}
	if fields := strings.Fields(p.Primary.Surname); len(fields) > 0 {
		return fields[0]
	}
	return p.Raw
}

// DisplayName renders the name in natural "First Last" order.
func (p ParsedName) DisplayName() string {
	if p.Primary.Given == "" {
		return p.Primary.Surname
	}
	return p.Primary.Given + " " + p.Primary.Surname
}

// Candidates generates the ordered, deduplicated handle candidate list:
// first-letter+surname, surname, given+surname, then the hyphenless repeats,
// with the alternate reading's patterns appended for ambiguous comma forms.
func (p ParsedName) Candidates() []string {
	seen := map[string]struct{}{}
	var out []string

	add := func(candidate string) {
		if candidate == "" {
			return
		}
		if _, ok := seen[candidate]; ok {
			return
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}

	emit := func(in Interpretation) {
		surname := Normalize(in.Surname)
		given := Normalize(in.Given)
		if surname == "" {
			return
		}

		initial := ""
		if given != "" {
			initial = string([]rune(given)[0])
		}

		if initial != "" {
			add(initial + surname)
		}
		add(surname)
		if given != "" {
			add(given + surname)
		}

		if strings.Contains(surname, "-") {
			compact := strings.ReplaceAll(surname, "-", "")
			if initial != "" {
				add(initial + compact)
			}
			add(compact)
		}
	}

	emit(p.Primary)
	if p.Alternate != nil {
		emit(*p.Alternate)
	}

	return out
}
