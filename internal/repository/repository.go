// Package repository implementa el motor genérico de acceso a documentos:
// CRUD consciente de soft-delete, mutación de arrays y consulta paginada
// por facet sobre un core.Store.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/docstore/internal/metrics"
	"github.com/dropDatabas3/docstore/internal/observability/logger"
	"github.com/dropDatabas3/docstore/internal/store/core"
)

var (
	// ErrNotFound indica que el target de una mutación por id no existe.
	ErrNotFound = core.ErrNotFound

	// ErrInvalidSortOrder indica un sortOrder fuera de {1, -1}.
	ErrInvalidSortOrder = errors.New("sortOrder must be 1 or -1")
)

// Scope controla si una operación ve documentos soft-deleted.
type Scope int

const (
	// ScopeAlive excluye documentos con deletedAt seteado.
	ScopeAlive Scope = iota
	// ScopeAll incluye también los soft-deleted.
	ScopeAll
)

type settings struct {
	legacyPageMath bool
}

// Option configura el Repository al construirlo.
type Option func(*settings)

// WithLegacyPageMath reproduce la aritmética literal del descriptor de
// página heredada: nextPage invertido (número de página pasada la última,
// null mientras queden páginas) e itemsOnCurrentPage = min(limit, totalIndex)
// sin recortar por ventana. Solo para compatibilidad; el default usa la
// semántica corregida.
func WithLegacyPageMath() Option {
	return func(s *settings) { s.legacyPageMath = true }
}

// Repository es el motor de acceso genérico sobre una colección.
type Repository[T any] struct {
	store core.Store[T]
	name  string
	cfg   settings
}

// New liga un Repository a un Store. name identifica la colección en
// logs y métricas.
func New[T any](s core.Store[T], name string, opts ...Option) *Repository[T] {
	r := &Repository[T]{store: s, name: name}
	for _, opt := range opts {
		opt(&r.cfg)
	}
	return r
}

// alive agrega el filtro implícito de soft-delete sin mutar el filtro
// del caller.
func alive(f core.Filter) core.Filter {
	out := make(core.Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	out["deletedAt"] = nil
	return out
}

func (r *Repository[T]) scoped(f core.Filter, scope Scope) core.Filter {
	if scope == ScopeAll {
		return f
	}
	return alive(f)
}

// CreateOne inserta un documento; el store asigna id y createdAt.
func (r *Repository[T]) CreateOne(ctx context.Context, data T) (*core.Document[T], error) {
	start := time.Now()
	doc, err := r.store.InsertOne(ctx, data)
	metrics.ObserveStore(r.name, "create_one", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: create one: %w", r.name, err)
	}
	logger.From(ctx).Debug("document created",
		logger.Component("repository"),
		logger.Collection(r.name),
		logger.DocID(doc.ID),
	)
	return doc, nil
}

// CreateMany inserta en bloque. No hay commit parcial: si el store
// rechaza algún registro falla la llamada completa.
func (r *Repository[T]) CreateMany(ctx context.Context, data []T) ([]core.Document[T], error) {
	start := time.Now()
	docs, err := r.store.InsertMany(ctx, data)
	metrics.ObserveStore(r.name, "create_many", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: batch insert: %w", r.name, err)
	}
	return docs, nil
}

// FindAllByQuery devuelve todos los documentos vivos que matchean.
func (r *Repository[T]) FindAllByQuery(ctx context.Context, query core.Filter) ([]core.Document[T], error) {
	start := time.Now()
	docs, err := r.store.Find(ctx, alive(query))
	metrics.ObserveStore(r.name, "find_all_by_query", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: find: %w", r.name, err)
	}
	return docs, nil
}

// FindOneByQuery devuelve el primer documento vivo que matchea, o nil.
func (r *Repository[T]) FindOneByQuery(ctx context.Context, query core.Filter) (*core.Document[T], error) {
	start := time.Now()
	doc, err := r.store.FindOne(ctx, alive(query))
	metrics.ObserveStore(r.name, "find_one_by_query", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: find one: %w", r.name, err)
	}
	return doc, nil
}

// FindOneByID devuelve el documento vivo con ese id, o nil.
func (r *Repository[T]) FindOneByID(ctx context.Context, id string) (*core.Document[T], error) {
	return r.FindOneByQuery(ctx, core.Filter{"_id": id})
}

// SearchByAnyCharacter matchea substring por campo, case-insensitive y
// con "." cubriendo newlines (flags "si"), todos los campos en AND.
func (r *Repository[T]) SearchByAnyCharacter(ctx context.Context, query map[string]string) ([]core.Document[T], error) {
	filter := make(core.Filter, len(query))
	for k, v := range query {
		filter[k] = core.Regex{Pattern: v, Options: "si"}
	}
	return r.FindAllByQuery(ctx, filter)
}

// UpdateByID aplica el patch y devuelve el estado post-mutación.
// Matchea por id solamente, sin filtro de soft-delete (comportamiento
// heredado documentado en DESIGN.md). Si no hay match devuelve ErrNotFound.
func (r *Repository[T]) UpdateByID(ctx context.Context, id string, patch core.Patch) (*core.Document[T], error) {
	start := time.Now()
	doc, err := r.store.FindOneAndUpdate(ctx, core.Filter{"_id": id}, core.Update{Set: patch})
	metrics.ObserveStore(r.name, "update_by_id", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: update by id: %w", r.name, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("repository %s: update %s: %w", r.name, id, ErrNotFound)
	}
	return doc, nil
}

// UpdateByQuery aplica el patch al primer match y devuelve el estado
// post-mutación, o nil sin error si nada matchea. La asimetría con
// UpdateByID (error vs nil) es intencional y está testeada.
func (r *Repository[T]) UpdateByQuery(ctx context.Context, query core.Filter, patch core.Patch) (*core.Document[T], error) {
	start := time.Now()
	doc, err := r.store.FindOneAndUpdate(ctx, query, core.Update{Set: patch})
	metrics.ObserveStore(r.name, "update_by_query", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: update by query: %w", r.name, err)
	}
	return doc, nil
}

// RemoveByID soft-deletea el documento vivo con ese id y lo devuelve,
// o nil si no hay match (segunda llamada sobre el mismo id devuelve nil).
func (r *Repository[T]) RemoveByID(ctx context.Context, id string) (*core.Document[T], error) {
	start := time.Now()
	now := time.Now().UTC()
	doc, err := r.store.FindOneAndUpdate(ctx,
		alive(core.Filter{"_id": id}),
		core.Update{Set: core.Patch{"deletedAt": now}},
	)
	metrics.ObserveStore(r.name, "remove_by_id", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: remove by id: %w", r.name, err)
	}
	if doc != nil {
		logger.From(ctx).Debug("document soft-deleted",
			logger.Component("repository"),
			logger.Collection(r.name),
			logger.DocID(id),
		)
	}
	return doc, nil
}

// RemoveByQuery soft-deletea todos los documentos vivos que matchean y
// devuelve el ack con los contadores.
func (r *Repository[T]) RemoveByQuery(ctx context.Context, query core.Filter) (*core.UpdateResult, error) {
	start := time.Now()
	now := time.Now().UTC()
	res, err := r.store.UpdateMany(ctx, alive(query), core.Update{Set: core.Patch{"deletedAt": now}})
	metrics.ObserveStore(r.name, "remove_by_query", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: remove by query: %w", r.name, err)
	}
	return res, nil
}

// PushItemToArrayByQuery agrega valores a campos array del primer match
// (item: campo→elemento) y devuelve el documento post-mutación, o nil.
// El scope es explícito: ScopeAll reproduce el alcance heredado.
func (r *Repository[T]) PushItemToArrayByQuery(ctx context.Context, query core.Filter, item map[string]any, scope Scope) (*core.Document[T], error) {
	start := time.Now()
	doc, err := r.store.FindOneAndUpdate(ctx, r.scoped(query, scope), core.Update{Push: item})
	metrics.ObserveStore(r.name, "push_to_array", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: push to array: %w", r.name, err)
	}
	return doc, nil
}

// RemoveItemFromArrayByQuery saca valores de campos array del primer
// match y devuelve el documento post-mutación, o nil.
func (r *Repository[T]) RemoveItemFromArrayByQuery(ctx context.Context, query core.Filter, item map[string]any, scope Scope) (*core.Document[T], error) {
	start := time.Now()
	doc, err := r.store.FindOneAndUpdate(ctx, r.scoped(query, scope), core.Update{Pull: item})
	metrics.ObserveStore(r.name, "pull_from_array", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: pull from array: %w", r.name, err)
	}
	return doc, nil
}
