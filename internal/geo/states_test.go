package geo

import "testing"

func TestStateOf(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"ENEL SP", "SP"},
		{"enel sp", "SP"},
		{"CEMIG DISTRIBUICAO", "MG"},
		{"CPFL PAULISTA", "SP"},
		{"ENEL DISTRIBUICAO CEARA", "CE"},
		{"EQUATORIAL PA", "PA"},
		{"LIGHT SERVICOS DE ELETRICIDADE", "RJ"},
		{"COPEL DISTRIBUICAO S.A.", "PR"},
		{"NEOENERGIA COSERN", "RN"},
		{"AMAZONAS ENERGIA", "AM"},
	}

	for _, tc := range cases {
		if got := StateOf(tc.name); got != tc.want {
			t.Errorf("StateOf(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestStateOfFallback(t *testing.T) {
	if got := StateOf("DISTRIBUIDORA DESCONHECIDA LTDA"); got != DefaultState {
		t.Errorf("StateOf(unknown) = %q, want %q", got, DefaultState)
	}
	if got := StateOf(""); got != DefaultState {
		t.Errorf("StateOf(empty) = %q, want %q", got, DefaultState)
	}
}

// Specific group entries must win over legacy acronyms that could also
// substring-match the same name.
func TestStateOfSpecificBeforeGeneric(t *testing.T) {
	// "NEOENERGIA COELBA" matches both the group entry and the bare
	// "COELBA" acronym; both resolve to BA, but the scan must stay
	// deterministic either way.
	if got := StateOf("NEOENERGIA COELBA"); got != "BA" {
		t.Errorf("StateOf(NEOENERGIA COELBA) = %q, want BA", got)
	}
	// "ENERGISA MT" must not be shadowed by the "EMT" acronym.
	if got := StateOf("ENERGISA MT - DISTRIBUIDORA DE ENERGIA"); got != "MT" {
		t.Errorf("StateOf(ENERGISA MT) = %q, want MT", got)
	}
}
