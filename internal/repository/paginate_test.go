package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dropDatabas3/docstore/internal/store/core"
)

// seedNotes inserta n documentos con createdAt crecientes y distintos
// (n01 el más viejo), para que el orden descendente sea determinístico.
func seedNotes(t *testing.T, repo *Repository[note], n int) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		doc, err := repo.CreateOne(ctx, note{Title: fmt.Sprintf("n%02d", i)})
		if err != nil {
			t.Fatalf("seed create err: %v", err)
		}
		if _, err := repo.UpdateByID(ctx, doc.ID, core.Patch{"createdAt": base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("seed stamp err: %v", err)
		}
	}
}

func TestFindAll_ThirdPageOfTwentyFive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()
	seedNotes(t, repo, 25)

	res, err := repo.FindAll(ctx, &Paginate{Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("FindAll err: %v", err)
	}
	if res.Page == nil {
		t.Fatal("expected page descriptor")
	}

	if res.Page.TotalIndex != 25 {
		t.Fatalf("totalIndex: got %d want 25", res.Page.TotalIndex)
	}
	if res.Page.TotalPage != 3 {
		t.Fatalf("totalPage: got %d want 3", res.Page.TotalPage)
	}
	if res.Page.CurrentPage != 3 {
		t.Fatalf("currentPage: got %d want 3", res.Page.CurrentPage)
	}
	if res.Page.ItemsOnCurrentPage != 5 {
		t.Fatalf("itemsOnCurrentPage: got %d want 5", res.Page.ItemsOnCurrentPage)
	}
	if res.Page.StartingIndex != 21 || res.Page.EndingIndex != 30 {
		t.Fatalf("window: got [%d,%d] want [21,30]", res.Page.StartingIndex, res.Page.EndingIndex)
	}
	if res.Page.PreviousPage == nil || *res.Page.PreviousPage != 2 {
		t.Fatalf("previousPage: got %v want 2", res.Page.PreviousPage)
	}
	if res.Page.NextPage != nil {
		t.Fatalf("nextPage on last page: got %v want nil", *res.Page.NextPage)
	}
	if res.Page.SortBy != "createdAt" || res.Page.SortOrder != -1 {
		t.Fatalf("default sort: got %s/%d", res.Page.SortBy, res.Page.SortOrder)
	}

	// página 3 en orden descendente: los 5 más viejos, n05..n01
	if len(res.Data) != 5 {
		t.Fatalf("expected 5 documents, got %d", len(res.Data))
	}
	want := []string{"n05", "n04", "n03", "n02", "n01"}
	for i, d := range res.Data {
		if d.Data.Title != want[i] {
			t.Fatalf("data[%d]: got %q want %q", i, d.Data.Title, want[i])
		}
	}
}

func TestFindAll_FirstPageHasNext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()
	seedNotes(t, repo, 25)

	res, err := repo.FindAll(ctx, nil) // defaults: page 1, limit 10
	if err != nil {
		t.Fatalf("FindAll err: %v", err)
	}
	if res.Page == nil {
		t.Fatal("expected page descriptor")
	}
	if res.Page.CurrentPage != 1 || res.Page.Limit != 10 {
		t.Fatalf("defaults: got page %d limit %d", res.Page.CurrentPage, res.Page.Limit)
	}
	if res.Page.NextPage == nil || *res.Page.NextPage != 2 {
		t.Fatalf("nextPage: got %v want 2", res.Page.NextPage)
	}
	if res.Page.PreviousPage != nil {
		t.Fatalf("previousPage on first page: got %v want nil", *res.Page.PreviousPage)
	}
	if res.Page.ItemsOnCurrentPage != 10 {
		t.Fatalf("itemsOnCurrentPage: got %d want 10", res.Page.ItemsOnCurrentPage)
	}
	if len(res.Data) != 10 {
		t.Fatalf("expected 10 documents, got %d", len(res.Data))
	}
}

// La aritmética legacy reproduce el descriptor literal heredado:
// nextPage invertido y conteo sin recorte por ventana.
func TestFindAll_LegacyPageMath(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo(WithLegacyPageMath())
	seedNotes(t, repo, 25)

	last, err := repo.FindAll(ctx, &Paginate{Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("FindAll err: %v", err)
	}
	if last.Page.NextPage == nil || *last.Page.NextPage != 4 {
		t.Fatalf("legacy nextPage on last page: got %v want 4", last.Page.NextPage)
	}
	if last.Page.ItemsOnCurrentPage != 10 {
		t.Fatalf("legacy itemsOnCurrentPage: got %d want 10", last.Page.ItemsOnCurrentPage)
	}

	first, err := repo.FindAll(ctx, &Paginate{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("FindAll err: %v", err)
	}
	if first.Page.NextPage != nil {
		t.Fatalf("legacy nextPage with pages remaining: got %v want nil", *first.Page.NextPage)
	}
}

func TestFindByPaginate_EmptyMatchSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	res, err := repo.FindByPaginate(ctx, core.Filter{"title": "nada"}, nil)
	if err != nil {
		t.Fatalf("FindByPaginate err: %v", err)
	}
	if res.Page != nil {
		t.Fatalf("expected nil page descriptor on empty match set, got %+v", res.Page)
	}
	if len(res.Data) != 0 {
		t.Fatalf("expected no data, got %d", len(res.Data))
	}
}

func TestFindByPaginate_ExcludesDeleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()
	seedNotes(t, repo, 3)

	all, err := repo.FindAllByQuery(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("FindAllByQuery err: %v", err)
	}
	if _, err := repo.RemoveByID(ctx, all[0].ID); err != nil {
		t.Fatalf("RemoveByID err: %v", err)
	}

	res, err := repo.FindAll(ctx, nil)
	if err != nil {
		t.Fatalf("FindAll err: %v", err)
	}
	if res.Page == nil || res.Page.TotalIndex != 2 {
		t.Fatalf("expected totalIndex 2 after soft delete, got %+v", res.Page)
	}
}

func TestResolvePaginate_Coercion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                string
		in                  *Paginate
		wantPage, wantLimit int
	}{
		{"nil", nil, 1, 10},
		{"zero", &Paginate{}, 1, 10},
		{"negative abs", &Paginate{Page: -3, Limit: -5}, 3, 5},
		{"explicit", &Paginate{Page: 2, Limit: 20}, 2, 20},
	}
	for _, tc := range cases {
		page, limit := resolvePaginate(tc.in)
		if page != tc.wantPage || limit != tc.wantLimit {
			t.Fatalf("%s: got %d/%d want %d/%d", tc.name, page, limit, tc.wantPage, tc.wantLimit)
		}
	}
}

// startingIndex/endingIndex describen la ventana teórica de la página
// pedida, llena o no.
func TestWindowIndexes_IndependentOfData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()
	seedNotes(t, repo, 2)

	res, err := repo.FindAll(ctx, &Paginate{Page: 7, Limit: 4})
	if err != nil {
		t.Fatalf("FindAll err: %v", err)
	}
	if res.Page == nil {
		t.Fatal("expected descriptor (match set is non-empty)")
	}
	if res.Page.StartingIndex != 25 || res.Page.EndingIndex != 28 {
		t.Fatalf("window: got [%d,%d] want [25,28]", res.Page.StartingIndex, res.Page.EndingIndex)
	}
	if res.Page.CurrentPage != 7 {
		t.Fatalf("currentPage is not clamped: got %d want 7", res.Page.CurrentPage)
	}
	if res.Page.ItemsOnCurrentPage != 0 {
		t.Fatalf("itemsOnCurrentPage past the end: got %d want 0", res.Page.ItemsOnCurrentPage)
	}
	if len(res.Data) != 0 {
		t.Fatalf("expected empty data past the end, got %d", len(res.Data))
	}
}

func TestFindByQueryFilterAndPopulate_SortValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	_, err := repo.FindByQueryFilterAndPopulate(ctx, FilterPopulateInput{
		Sort: &Sort{SortBy: "title", SortOrder: 2},
	})
	if !errors.Is(err, ErrInvalidSortOrder) {
		t.Fatalf("expected ErrInvalidSortOrder, got %v", err)
	}
}

func TestFindByQueryFilterAndPopulate_PerFieldMatchAndSort(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	if _, err := repo.CreateMany(ctx, []note{
		{Title: "beta", Email: "a@b.com"},
		{Title: "alfa", Email: "a@b.com"},
		{Title: "gamma", Email: "c@d.com"},
	}); err != nil {
		t.Fatalf("CreateMany err: %v", err)
	}

	res, err := repo.FindByQueryFilterAndPopulate(ctx, FilterPopulateInput{
		Query: core.Filter{"email": "a@b.com"},
		Sort:  &Sort{SortBy: "title", SortOrder: 1},
	})
	if err != nil {
		t.Fatalf("FindByQueryFilterAndPopulate err: %v", err)
	}
	if res.Page == nil || res.Page.TotalIndex != 2 {
		t.Fatalf("expected totalIndex 2, got %+v", res.Page)
	}
	if res.Page.SortBy != "title" || res.Page.SortOrder != 1 {
		t.Fatalf("sort echo: got %s/%d", res.Page.SortBy, res.Page.SortOrder)
	}
	if len(res.Data) != 2 || res.Data[0].Data.Title != "alfa" || res.Data[1].Data.Title != "beta" {
		t.Fatalf("ascending sort mismatch: %+v", res.Data)
	}
}

func TestFindByQueryFilterAndPopulate_DefaultSortAndSoftDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()
	seedNotes(t, repo, 2)

	all, err := repo.FindAllByQuery(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("FindAllByQuery err: %v", err)
	}
	if _, err := repo.RemoveByID(ctx, all[0].ID); err != nil {
		t.Fatalf("RemoveByID err: %v", err)
	}

	// sin query igual rige el filtro de soft-delete
	res, err := repo.FindByQueryFilterAndPopulate(ctx, FilterPopulateInput{})
	if err != nil {
		t.Fatalf("FindByQueryFilterAndPopulate err: %v", err)
	}
	if res.Page == nil || res.Page.TotalIndex != 1 {
		t.Fatalf("expected totalIndex 1, got %+v", res.Page)
	}
	if res.Page.SortBy != "createdAt" || res.Page.SortOrder != -1 {
		t.Fatalf("default sort: got %s/%d", res.Page.SortBy, res.Page.SortOrder)
	}
}
