package core

import "time"

// Document envuelve un registro de tipo T con los campos de sistema.
// ID lo asigna el adapter al insertar y es inmutable. DeletedAt != nil
// marca el documento como lógicamente ausente (soft delete).
type Document[T any] struct {
	ID        string     `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	DeletedAt *time.Time `bson:"deletedAt" json:"deletedAt"`
	Data      T          `bson:",inline"`
}

// IsDeleted indica si el documento fue soft-deleted.
func (d *Document[T]) IsDeleted() bool { return d.DeletedAt != nil }

// Filter es un filtro por igualdad campo→valor. Valores especiales:
//   - nil matchea campo ausente o null (así se expresa deletedAt == null)
//   - Regex matchea substring por expresión regular
type Filter map[string]any

// Regex es un valor de Filter que matchea por expresión regular.
// Options usa las flags de MongoDB ("i" case-insensitive, "s" dot-matches-newline).
type Regex struct {
	Pattern string
	Options string
}

// Patch es un conjunto de asignaciones campo→valor ($set).
type Patch map[string]any

// Update describe una mutación sobre un documento.
// Push y Pull operan sobre campos array (campo→elemento).
type Update struct {
	Set  Patch
	Push map[string]any
	Pull map[string]any
}

// UpdateResult es el ack de una mutación masiva.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// FacetPage es la fila que produce la rama "page" del facet ($count).
type FacetPage struct {
	TotalIndex int64 `bson:"totalIndex"`
}

// FacetResult es el resultado de un pipeline match→facet{page,data}.
// Page queda vacío cuando el match set es vacío ($count no emite fila).
type FacetResult[T any] struct {
	Page []FacetPage   `bson:"page"`
	Data []Document[T] `bson:"data"`
}
