package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/docstore/internal/metrics"
	"github.com/dropDatabas3/docstore/internal/store/core"
)

const (
	defaultPage  = 1
	defaultLimit = 10

	defaultSortBy    = "createdAt"
	defaultSortOrder = -1
)

// Paginate son los parámetros de paginación del caller. Cero o negativo
// se normaliza: valor absoluto, y el default cuando queda en cero.
type Paginate struct {
	Page  int
	Limit int
}

// Sort es el orden pedido por el caller. SortOrder válido: 1 o -1.
type Sort struct {
	SortBy    string
	SortOrder int
}

// PageDescriptor es la metadata derivada de una página. Nunca se persiste;
// se recalcula por consulta.
type PageDescriptor struct {
	TotalIndex         int    `json:"totalIndex"`
	TotalPage          int    `json:"totalPage"`
	CurrentPage        int    `json:"currentPage"`
	NextPage           *int   `json:"nextPage"`
	PreviousPage       *int   `json:"previousPage"`
	StartingIndex      int    `json:"startingIndex"`
	EndingIndex        int    `json:"endingIndex"`
	ItemsOnCurrentPage int    `json:"itemsOnCurrentPage"`
	Limit              int    `json:"limit"`
	SortBy             string `json:"sortBy"`
	SortOrder          int    `json:"sortOrder"`
}

// PaginatedResult combina el descriptor con la página de datos.
// Page es nil cuando el match set es vacío (el facet no produce fila).
type PaginatedResult[T any] struct {
	Page *PageDescriptor    `json:"page"`
	Data []core.Document[T] `json:"data"`
}

// FindAll pagina la colección completa (viva).
func (r *Repository[T]) FindAll(ctx context.Context, pg *Paginate) (*PaginatedResult[T], error) {
	return r.FindByPaginate(ctx, core.Filter{}, pg)
}

// FindByPaginate ejecuta el algoritmo central: un solo pipeline
// match→facet{page,data} resuelve conteo y página de datos sobre el
// mismo set filtrado, en un round trip. extra se aplica al final de la
// rama data (enriquecimiento tipo $lookup).
func (r *Repository[T]) FindByPaginate(ctx context.Context, query core.Filter, pg *Paginate, extra ...core.Stage) (*PaginatedResult[T], error) {
	page, limit := resolvePaginate(pg)

	p := core.Pipeline{
		core.Match{Filter: alive(query)},
		facetStage(page, limit, defaultSortBy, defaultSortOrder, extra),
	}

	start := time.Now()
	res, err := r.store.Aggregate(ctx, p)
	metrics.ObserveStore(r.name, "find_by_paginate", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: paginate: %w", r.name, err)
	}
	return r.assemble(res, page, limit, defaultSortBy, defaultSortOrder), nil
}

// FilterPopulateInput agrupa los parámetros de FindByQueryFilterAndPopulate.
type FilterPopulateInput struct {
	Query       core.Filter
	Paginate    *Paginate
	Sort        *Sort
	ExtraStages []core.Stage
}

// FindByQueryFilterAndPopulate es la variante con match por campo y
// orden del caller: cada campo del query se vuelve su propia etapa match
// (todas en AND con el filtro de soft-delete) y el sort se valida contra
// {1, -1} antes de tocar el store.
func (r *Repository[T]) FindByQueryFilterAndPopulate(ctx context.Context, in FilterPopulateInput) (*PaginatedResult[T], error) {
	page, limit := resolvePaginate(in.Paginate)

	sortBy, sortOrder := defaultSortBy, defaultSortOrder
	if in.Sort != nil && in.Sort.SortBy != "" && in.Sort.SortOrder != 0 {
		if in.Sort.SortOrder != 1 && in.Sort.SortOrder != -1 {
			return nil, ErrInvalidSortOrder
		}
		sortBy, sortOrder = in.Sort.SortBy, in.Sort.SortOrder
	}

	var p core.Pipeline
	for k, v := range in.Query {
		p = append(p, core.Match{Filter: core.Filter{k: v, "deletedAt": nil}})
	}
	if len(in.Query) == 0 {
		// sin campos igual se sostiene el invariante de soft-delete
		p = append(p, core.Match{Filter: core.Filter{"deletedAt": nil}})
	}
	p = append(p, facetStage(page, limit, sortBy, sortOrder, in.ExtraStages))

	start := time.Now()
	res, err := r.store.Aggregate(ctx, p)
	metrics.ObserveStore(r.name, "find_by_filter_populate", start, err)
	if err != nil {
		return nil, fmt.Errorf("repository %s: filter populate: %w", r.name, err)
	}
	return r.assemble(res, page, limit, sortBy, sortOrder), nil
}

// resolvePaginate normaliza page/limit: abs y default cuando queda cero.
func resolvePaginate(pg *Paginate) (page, limit int) {
	page, limit = defaultPage, defaultLimit
	if pg == nil {
		return page, limit
	}
	if p := abs(pg.Page); p != 0 {
		page = p
	}
	if l := abs(pg.Limit); l != 0 {
		limit = l
	}
	return page, limit
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// facetStage arma el facet de dos ramas: "page" cuenta el set filtrado,
// "data" lo ordena, saltea y corta, con las etapas extra del caller al final.
func facetStage(page, limit int, sortBy string, sortOrder int, extra []core.Stage) core.Facet {
	data := core.Pipeline{
		core.Sort{Field: sortBy, Order: sortOrder},
		core.Skip{N: int64(limit * (page - 1))},
		core.Limit{N: int64(limit)},
	}
	data = append(data, extra...)
	return core.Facet{Branches: map[string]core.Pipeline{
		"page": {core.Count{Field: "totalIndex"}},
		"data": data,
	}}
}

// assemble deriva el PageDescriptor de la rama page del facet.
// startingIndex/endingIndex son los límites 1-based de la ventana teórica
// de la página pedida, independientes de cuántos datos la llenan.
func (r *Repository[T]) assemble(res *core.FacetResult[T], page, limit int, sortBy string, sortOrder int) *PaginatedResult[T] {
	out := &PaginatedResult[T]{Data: res.Data}
	if len(res.Page) == 0 {
		return out
	}

	total := int(res.Page[0].TotalIndex)
	totalPage := (total + limit - 1) / limit

	d := &PageDescriptor{
		TotalIndex:    total,
		TotalPage:     totalPage,
		CurrentPage:   page,
		StartingIndex: limit*(page-1) + 1,
		EndingIndex:   limit * page,
		Limit:         limit,
		SortBy:        sortBy,
		SortOrder:     sortOrder,
	}
	if page > 1 {
		d.PreviousPage = intPtr(page - 1)
	}

	if r.cfg.legacyPageMath {
		// aritmética literal heredada: nextPage invertido y conteo sin ventana
		if totalPage <= page {
			d.NextPage = intPtr(page + 1)
		}
		d.ItemsOnCurrentPage = min(limit, total)
	} else {
		if totalPage > page {
			d.NextPage = intPtr(page + 1)
		}
		d.ItemsOnCurrentPage = clamp(total-limit*(page-1), 0, limit)
	}

	out.Page = d
	return out
}

func intPtr(n int) *int { return &n }

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
