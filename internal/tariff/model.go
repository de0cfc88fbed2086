package tariff

import "time"

// RawRecord mirrors one row of the ANEEL homologated-tariffs datastore
// resource. Everything arrives as strings, including the charge fields,
// which use a decimal comma.
type RawRecord struct {
	DatGeracaoConjuntoDados string `json:"DatGeracaoConjuntoDados"`
	DscREH                  string `json:"DscREH"`
	SigAgente               string `json:"SigAgente"`
	NumCNPJDistribuidora    string `json:"NumCNPJDistribuidora"`
	DatInicioVigencia       string `json:"DatInicioVigencia"`
	DatFimVigencia          string `json:"DatFimVigencia"`
	DscBaseTarifaria        string `json:"DscBaseTarifaria"`
	DscSubGrupo             string `json:"DscSubGrupo"`
	DscModalidadeTarifaria  string `json:"DscModalidadeTarifaria"`
	DscClasse               string `json:"DscClasse"`
	DscSubClasse            string `json:"DscSubClasse"`
	DscDetalhe              string `json:"DscDetalhe"`
	NomPostoTarifario       string `json:"NomPostoTarifario"`
	DscUnidadeTerciaria     string `json:"DscUnidadeTerciaria"`
	SigAgenteAcessante      string `json:"SigAgenteAcessante"`
	VlrTUSD                 string `json:"VlrTUSD"`
	VlrTE                   string `json:"VlrTE"`
}

// Entry is a cleaned residential tariff ready for selection and estimation.
// Charges are BRL per kWh.
type Entry struct {
	Acronym    string    `json:"acronym"`
	Name       string    `json:"name"`
	State      string    `json:"state"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
	Modality   string    `json:"modality"`
	Slot       string    `json:"tou_slot"`
	TUSD       float64   `json:"tusd_brl_per_kwh"`
	TE         float64   `json:"te_brl_per_kwh"`
	Total      float64   `json:"total_brl_per_kwh"`
	Source     string    `json:"source"`
}

// ListResponse is the JSON payload served to clients and cached as a
// storage snapshot.
type ListResponse struct {
	Source    string    `json:"source"`
	SourceURL string    `json:"source_url"`
	FetchedAt time.Time `json:"fetched_at"`
	Entries   []Entry   `json:"entries"`
}

// FilterState returns the entries matching a two-letter state code, or the
// full slice when uf is empty. Matching is exact; order is preserved.
func FilterState(entries []Entry, uf string) []Entry {
	if uf == "" {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.State == uf {
			out = append(out, e)
		}
	}
	return out
}
