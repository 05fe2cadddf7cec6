package cell

// AdhesionTable resolves adhesion coefficients between cell kinds and
// between a cell kind and a named surface. Lookups are symmetric.
type AdhesionTable struct {
	Default float64

	pairs    map[[2]string]float64
	surfaces map[string]float64
}

func NewAdhesionTable(def float64) *AdhesionTable {
	return &AdhesionTable{
		Default:  def,
		pairs:    make(map[[2]string]float64),
		surfaces: make(map[string]float64),
	}
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (t *AdhesionTable) SetPair(a, b string, v float64) { t.pairs[pairKey(a, b)] = v }

func (t *AdhesionTable) SetSurface(name string, v float64) { t.surfaces[name] = v }

// Between returns the adhesion between two cell kinds.
func (t *AdhesionTable) Between(a, b string) float64 {
	if v, ok := t.pairs[pairKey(a, b)]; ok {
		return v
	}
	return t.Default
}

// Surface returns the adhesion against a surface, falling back to Default.
func (t *AdhesionTable) Surface(name string) float64 {
	if v, ok := t.surfaces[name]; ok {
		return v
	}
	return t.Default
}
