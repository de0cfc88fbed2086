package geo

import (
	"strings"

	"github.com/contaluz/contaluz/internal/metrics"
)

// DefaultState is returned when no pattern matches a distributor name.
// São Paulo is the most populous state, which makes it the least-bad
// fallback; unmapped distributors may still be misclassified.
const DefaultState = "SP"

type stateRule struct {
	pattern string
	uf      string
}

// stateRules maps distributor name substrings to the federative unit they
// operate in. Matching is first-hit, so more specific patterns (e.g.
// "ENEL SP") must come before anything that could shadow them. The list is
// fixed at compile time and never mutated.
var stateRules = []stateRule{
	// Multi-state groups need the state suffix spelled out first.
	{"ENEL SP", "SP"},
	{"ENEL RJ", "RJ"},
	{"ENEL CE", "CE"},
	{"ENEL GO", "GO"},
	{"ENEL DISTRIBUICAO SAO PAULO", "SP"},
	{"ENEL DISTRIBUICAO RIO", "RJ"},
	{"ENEL DISTRIBUICAO CEARA", "CE"},
	{"ENEL DISTRIBUICAO GOIAS", "GO"},
	{"CPFL PAULISTA", "SP"},
	{"CPFL PIRATININGA", "SP"},
	{"CPFL SANTA CRUZ", "SP"},
	{"EDP SP", "SP"},
	{"EDP SAO PAULO", "SP"},
	{"EDP ES", "ES"},
	{"EDP ESPIRITO SANTO", "ES"},
	{"ENERGISA MT", "MT"},
	{"ENERGISA MS", "MS"},
	{"ENERGISA PB", "PB"},
	{"ENERGISA SE", "SE"},
	{"ENERGISA RO", "RO"},
	{"ENERGISA AC", "AC"},
	{"ENERGISA TO", "TO"},
	{"ENERGISA MG", "MG"},
	{"ENERGISA NOVA FRIBURGO", "RJ"},
	{"ENERGISA SUL-SUDESTE", "SP"},
	{"EQUATORIAL PA", "PA"},
	{"EQUATORIAL MA", "MA"},
	{"EQUATORIAL PI", "PI"},
	{"EQUATORIAL AL", "AL"},
	{"EQUATORIAL GO", "GO"},
	{"EQUATORIAL AP", "AP"},
	{"NEOENERGIA PE", "PE"},
	{"NEOENERGIA BRASILIA", "DF"},
	{"NEOENERGIA COELBA", "BA"},
	{"NEOENERGIA COSERN", "RN"},
	{"NEOENERGIA ELEKTRO", "SP"},

	// Legacy acronyms still present in the published dataset.
	{"ELETROPAULO", "SP"},
	{"BANDEIRANTE", "SP"},
	{"ELEKTRO", "SP"},
	{"CEMIG", "MG"},
	{"DMED", "MG"},
	{"LIGHT", "RJ"},
	{"AMPLA", "RJ"},
	{"COELCE", "CE"},
	{"CELG", "GO"},
	{"CHESP", "GO"},
	{"COPEL", "PR"},
	{"COCEL", "PR"},
	{"CELESC", "SC"},
	{"COOPERALIANCA", "SC"},
	{"RGE", "RS"},
	{"CEEE", "RS"},
	{"ELETROCAR", "RS"},
	{"MUXENERGIA", "RS"},
	{"DEMEI", "RS"},
	{"HIDROPAN", "RS"},
	{"COELBA", "BA"},
	{"CELPE", "PE"},
	{"COSERN", "RN"},
	{"CEB", "DF"},
	{"CELPA", "PA"},
	{"CEMAR", "MA"},
	{"CEPISA", "PI"},
	{"CEAL", "AL"},
	{"CEMAT", "MT"},
	{"ENERSUL", "MS"},
	{"CERON", "RO"},
	{"ELETROACRE", "AC"},
	{"CELTINS", "TO"},
	{"ESCELSA", "ES"},
	{"ELFSM", "ES"},
	{"AMAZONAS ENERGIA", "AM"},
	{"AME", "AM"},
	{"RORAIMA ENERGIA", "RR"},
	{"BOA VISTA", "RR"},
	{"CEA", "AP"},
	{"SULGIPE", "SE"},
	{"EBO", "PB"},
	{"EMT", "MT"},
	{"EMS", "MS"},
	{"ETO", "TO"},
	{"ERO", "RO"},
	{"EAC", "AC"},
	{"ESE", "SE"},
	{"EPB", "PB"},
	{"EMG", "MG"},
	{"ENF", "RJ"},
	{"ESS", "SP"},
}

// StateOf resolves a free-text distributor name or acronym to a two-letter
// state code. It never fails: unknown names fall back to DefaultState and
// are counted for observability.
func StateOf(name string) string {
	up := strings.ToUpper(name)
	for _, r := range stateRules {
		if strings.Contains(up, r.pattern) {
			return r.uf
		}
	}
	metrics.UnmappedStatesTotal.Inc()
	return DefaultState
}
