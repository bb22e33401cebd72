package nonperson

import (
	"regexp"
	"strings"
	"unicode"
)

// Rule identifies which check rejected a name.
type Rule string

const (
	RuleNone      Rule = ""
	RuleBlacklist Rule = "blacklist"
	RulePattern   Rule = "pattern"
	RuleShape     Rule = "shape"
)

var builtinBlacklist = []string{
	"2015", "2016", "2017", "2018", "2019", "2020", "2021", "2022", "2023", "2024", "2025", "2026", "2027",

	"LA LIFE ADVENTURES", "LALIFE ADVENTURES", "L A LIFE ADVENTURES",
	"1. LA LIFE ADVENTURES", "1.LA LIFE ADVENTURES",
	"AAG ALLIANCE ABROAD GROUP", "ALLIANCE ABROAD GROUP",
	"2.AAG ALLIANCE ABROAD GROUP", "2. AAG ALLIANCE ABROAD GROUP",
	"IEE INTERNATIONAL EDUCATIONAL EXCHANGE", "INTERNATIONAL EDUCATIONAL EXCHANGE",
	"3. IEE INTERNATIONAL EDUCATIONAL EXCHANGE", "3.IEE INTERNATIONAL EDUCATIONAL EXCHANGE",

	"AU PAIR", "AUPAIR",
	"WORK AND TRAVEL", "WORKANDTRAVEL", "WORK & TRAVEL",
	"CAMP COUNSELOR", "CAMPCOUNSELOR",
	"INTERN & TRAINEE", "INTERN AND TRAINEE", "INTERNANDTRAINEE", "INTERN&TRAINEE",
	"H2B", "H-2B", "H 2B",
	"WAT", "W&T", "W & T",

	"AUSTRALIA", "CANADA", "USA", "IRLANDA", "IRELAND", "DUBAI",

	"LISTA DE ESPERA", "LISTADEESPERA", "5. LISTA DE ESPERA", "5.LISTA DE ESPERA",
	"CORREO DE BIENVENIDA", "CORREO BIENVENIDA",
	"CURSO DE INGLES", "CURSO INGLES",
	"FORMATOS CORREO BIENVENIDA WAT",
	"ESTUDIOS ICE", "ESTUDIOSICE",
	"PREGUNTAS WORK AND TRAVEL", "PREGUNTAS WORK AND TRAVEL 2024",
	"VIDEOS DE PANTALLA", "VIDEOSDE PANTALLA",
	"OFICINA", "TODOS", "EB",

	"DOCS AU PAIR", "DOCS AUPAIR", "DOCSAUPAIR",
	"VISAS", "VISA",

	"PPM", "PPM 2023", "PPM2023",
	"WAT 2020", "WAT 2018", "WAT ICE 2018", "WATICE2018",
	"COTIZACIONES", "QUOTATIONS",

	"1", "2", "3", "4", "5", "6", "7", "8", "9", "10",
}

var builtinPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}$`),
	regexp.MustCompile(`^\d{1,2}\.?\s*`),
	regexp.MustCompile(`^WAT\s*\d{4}$`),
	regexp.MustCompile(`^PPM\s*\d{4}$`),
	regexp.MustCompile(`^DOCS?\s+`),
	regexp.MustCompile(`CORREO.*BIENVENIDA`),
	regexp.MustCompile(`FORMATO`),
	regexp.MustCompile(`VIDEO.*PANTALLA`),
	regexp.MustCompile(`^PREGUNTAS\s+WORK\s+AND\s+TRAVEL`),
	regexp.MustCompile(`^\d+\.\s*`),
}

// Filter is the shared non-person predicate. The zero value is not usable;
// construct with New.
type Filter struct {
	blacklist map[string]struct{}
	patterns  []*regexp.Regexp
	whitelist map[string]struct{}
}

// New builds a Filter from the built-in rules extended by list.
func New(list List) *Filter {
	f := &Filter{
		blacklist: make(map[string]struct{}, len(builtinBlacklist)+len(list.Blacklist)),
		patterns:  builtinPatterns,
		whitelist: make(map[string]struct{}, len(list.Whitelist)),
	}
	for _, token := range builtinBlacklist {
		f.blacklist[token] = struct{}{}
	}
	for _, token := range list.Blacklist {
		token = canonical(token)
		if token != "" {
			f.blacklist[token] = struct{}{}
		}
	}
	for _, id := range list.Whitelist {
		id = strings.TrimSpace(id)
		if id != "" {
			f.whitelist[id] = struct{}{}
		}
	}
	return f
}

// IsNonPerson reports whether name looks like an administrative artifact.
// Blank names are non-persons.
func (f *Filter) IsNonPerson(name string) bool {
	return f.Check(name) != RuleNone
}

// Check returns the first rule that rejects name, or RuleNone.
func (f *Filter) Check(name string) Rule {
	upper := canonical(name)
	if upper == "" {
		return RuleShape
	}
	if _, ok := f.blacklist[upper]; ok {
		return RuleBlacklist
	}
	for _, re := range f.patterns {
		if re.MatchString(upper) {
			return RulePattern
		}
	}
	if looksLikeArtifact(upper) {
		return RuleShape
	}
	return RuleNone
}

// Rejects applies IsNonPerson unless identityID is whitelisted.
func (f *Filter) Rejects(identityID, name string) bool {
	if f.Whitelisted(identityID) {
		return false
	}
	return f.IsNonPerson(name)
}

// Whitelisted reports whether identityID is exempt from filtering.
func (f *Filter) Whitelisted(identityID string) bool {
	_, ok := f.whitelist[strings.TrimSpace(identityID)]
	return ok
}

func looksLikeArtifact(upper string) bool {
	numeric := strings.NewReplacer(".", "", ",", "").Replace(upper)
	if numeric != "" && strings.IndexFunc(numeric, func(r rune) bool { return r < '0' || r > '9' }) < 0 {
		return true
	}
	if len([]rune(strings.ReplaceAll(upper, " ", ""))) <= 2 {
		return true
	}
	if strings.HasPrefix(upper, "WAT") && len([]rune(upper)) <= 12 {
		return true
	}
	if !strings.Contains(upper, " ") && len([]rune(upper)) <= 10 && hasCased(upper) {
		return true
	}
	return false
}

func hasCased(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) || unicode.IsLower(r) {
			return true
		}
	}
	return false
}

func canonical(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
