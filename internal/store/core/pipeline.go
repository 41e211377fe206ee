package core

// El pipeline de agregación se compone como datos: cada etapa es una
// variante y los adapters la traducen a su representación nativa
// ($match, $facet, ... en mongo; interpretación directa en memory).

// Stage es una etapa del pipeline.
type Stage interface{ stage() }

// Pipeline es una secuencia ordenada de etapas.
type Pipeline []Stage

// Match filtra el set de entrada.
type Match struct {
	Filter Filter
}

// Facet corre ramas independientes sobre el mismo set filtrado.
// Las claves son los nombres de rama ("page", "data").
type Facet struct {
	Branches map[string]Pipeline
}

// Sort ordena por un campo. Order es 1 (asc) o -1 (desc).
type Sort struct {
	Field string
	Order int
}

// Skip descarta los primeros N documentos.
type Skip struct {
	N int64
}

// Limit corta el set a N documentos.
type Limit struct {
	N int64
}

// Count emite una única fila {Field: <cantidad>}; con set vacío no emite nada.
type Count struct {
	Field string
}

// AddFields agrega campos calculados a cada documento de la rama.
type AddFields struct {
	Fields map[string]any
}

// Raw es una etapa opaca provista por el caller (ej: $lookup para
// enriquecimiento). Solo el adapter mongo la soporta.
type Raw struct {
	Stage map[string]any
}

func (Match) stage()     {}
func (Facet) stage()     {}
func (Sort) stage()      {}
func (Skip) stage()      {}
func (Limit) stage()     {}
func (Count) stage()     {}
func (AddFields) stage() {}
func (Raw) stage()       {}
