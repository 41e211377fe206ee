package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/dropDatabas3/docstore/internal/store/core"
	"github.com/dropDatabas3/docstore/internal/store/memory"
)

type note struct {
	Title string   `bson:"title"`
	Email string   `bson:"email"`
	Tags  []string `bson:"tags"`
}

func newNotesRepo(opts ...Option) *Repository[note] {
	return New[note](memory.New[note](), "notes", opts...)
}

func TestCreateOne_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	created, err := repo.CreateOne(ctx, note{Title: "hola", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("CreateOne err: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected assigned createdAt")
	}
	if created.DeletedAt != nil {
		t.Fatal("expected deletedAt == nil on fresh document")
	}

	got, err := repo.FindOneByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindOneByID err: %v", err)
	}
	if got == nil {
		t.Fatal("expected document back")
	}
	if got.Data.Title != "hola" || got.Data.Email != "a@b.com" {
		t.Fatalf("round trip mismatch: %+v", got.Data)
	}
	if got.ID != created.ID {
		t.Fatalf("id mismatch: got %q want %q", got.ID, created.ID)
	}
}

func TestCreateMany(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	docs, err := repo.CreateMany(ctx, []note{{Title: "a"}, {Title: "b"}, {Title: "c"}})
	if err != nil {
		t.Fatalf("CreateMany err: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	all, err := repo.FindAllByQuery(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("FindAllByQuery err: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 stored, got %d", len(all))
	}
}

func TestSoftDelete_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	created, err := repo.CreateOne(ctx, note{Title: "bye"})
	if err != nil {
		t.Fatalf("CreateOne err: %v", err)
	}

	removed, err := repo.RemoveByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("RemoveByID err: %v", err)
	}
	if removed == nil || removed.DeletedAt == nil {
		t.Fatal("expected soft-deleted document back")
	}

	// segunda llamada: ya filtrado, devuelve nil sin tocar el registro
	again, err := repo.RemoveByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("second RemoveByID err: %v", err)
	}
	if again != nil {
		t.Fatal("expected nil on second remove")
	}

	// el documento queda fuera de todas las lecturas default
	got, err := repo.FindOneByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindOneByID err: %v", err)
	}
	if got != nil {
		t.Fatal("soft-deleted document leaked into default read")
	}
}

func TestRemoveByQuery_CountsMatches(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	if _, err := repo.CreateMany(ctx, []note{
		{Title: "x", Email: "a@b.com"},
		{Title: "y", Email: "a@b.com"},
		{Title: "z", Email: "c@d.com"},
	}); err != nil {
		t.Fatalf("CreateMany err: %v", err)
	}

	res, err := repo.RemoveByQuery(ctx, core.Filter{"email": "a@b.com"})
	if err != nil {
		t.Fatalf("RemoveByQuery err: %v", err)
	}
	if res.MatchedCount != 2 || res.ModifiedCount != 2 {
		t.Fatalf("expected 2/2, got %d/%d", res.MatchedCount, res.ModifiedCount)
	}

	alive, err := repo.FindAllByQuery(ctx, core.Filter{})
	if err != nil {
		t.Fatalf("FindAllByQuery err: %v", err)
	}
	if len(alive) != 1 || alive[0].Data.Title != "z" {
		t.Fatalf("unexpected survivors: %+v", alive)
	}
}

func TestSearchByAnyCharacter_CaseInsensitiveSubstring(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	if _, err := repo.CreateMany(ctx, []note{
		{Email: "Alice@x.com"},
		{Email: "bob@x.com"},
	}); err != nil {
		t.Fatalf("CreateMany err: %v", err)
	}

	got, err := repo.SearchByAnyCharacter(ctx, map[string]string{"email": "ali"})
	if err != nil {
		t.Fatalf("SearchByAnyCharacter err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d", len(got))
	}
	if got[0].Data.Email != "Alice@x.com" {
		t.Fatalf("wrong match: %q", got[0].Data.Email)
	}
}

func TestSearchByAnyCharacter_ExcludesDeleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	created, err := repo.CreateOne(ctx, note{Email: "Alice@x.com"})
	if err != nil {
		t.Fatalf("CreateOne err: %v", err)
	}
	if _, err := repo.RemoveByID(ctx, created.ID); err != nil {
		t.Fatalf("RemoveByID err: %v", err)
	}

	got, err := repo.SearchByAnyCharacter(ctx, map[string]string{"email": "ali"})
	if err != nil {
		t.Fatalf("SearchByAnyCharacter err: %v", err)
	}
	if len(got) != 0 {
		t.Fatal("soft-deleted document matched search")
	}
}

// La asimetría es intencional: UpdateByID falla con NotFound,
// UpdateByQuery devuelve nil en silencio.
func TestUpdateAsymmetry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	_, err := repo.UpdateByID(ctx, "no-such-id", core.Patch{"title": "nuevo"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	doc, err := repo.UpdateByQuery(ctx, core.Filter{"title": "nada"}, core.Patch{"title": "nuevo"})
	if err != nil {
		t.Fatalf("UpdateByQuery err: %v", err)
	}
	if doc != nil {
		t.Fatal("expected silent nil on unmatched query")
	}
}

func TestUpdateByID_ReturnsPostUpdateState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	created, err := repo.CreateOne(ctx, note{Title: "v1"})
	if err != nil {
		t.Fatalf("CreateOne err: %v", err)
	}

	updated, err := repo.UpdateByID(ctx, created.ID, core.Patch{"title": "v2"})
	if err != nil {
		t.Fatalf("UpdateByID err: %v", err)
	}
	if updated.Data.Title != "v2" {
		t.Fatalf("expected post-update state, got %q", updated.Data.Title)
	}
}

func TestArrayPushPull(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	created, err := repo.CreateOne(ctx, note{Title: "tagged"})
	if err != nil {
		t.Fatalf("CreateOne err: %v", err)
	}

	doc, err := repo.PushItemToArrayByQuery(ctx, core.Filter{"_id": created.ID}, map[string]any{"tags": "go"}, ScopeAll)
	if err != nil {
		t.Fatalf("push err: %v", err)
	}
	if doc == nil || len(doc.Data.Tags) != 1 || doc.Data.Tags[0] != "go" {
		t.Fatalf("push result mismatch: %+v", doc)
	}

	doc, err = repo.PushItemToArrayByQuery(ctx, core.Filter{"_id": created.ID}, map[string]any{"tags": "db"}, ScopeAll)
	if err != nil {
		t.Fatalf("second push err: %v", err)
	}
	if len(doc.Data.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", doc.Data.Tags)
	}

	doc, err = repo.RemoveItemFromArrayByQuery(ctx, core.Filter{"_id": created.ID}, map[string]any{"tags": "go"}, ScopeAll)
	if err != nil {
		t.Fatalf("pull err: %v", err)
	}
	if len(doc.Data.Tags) != 1 || doc.Data.Tags[0] != "db" {
		t.Fatalf("pull result mismatch: %v", doc.Data.Tags)
	}
}

func TestArrayPush_ScopeAlive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newNotesRepo()

	created, err := repo.CreateOne(ctx, note{Title: "gone"})
	if err != nil {
		t.Fatalf("CreateOne err: %v", err)
	}
	if _, err := repo.RemoveByID(ctx, created.ID); err != nil {
		t.Fatalf("RemoveByID err: %v", err)
	}

	// con ScopeAlive el soft-deleted queda fuera; con ScopeAll entra
	doc, err := repo.PushItemToArrayByQuery(ctx, core.Filter{"_id": created.ID}, map[string]any{"tags": "x"}, ScopeAlive)
	if err != nil {
		t.Fatalf("push err: %v", err)
	}
	if doc != nil {
		t.Fatal("ScopeAlive matched a soft-deleted document")
	}

	doc, err = repo.PushItemToArrayByQuery(ctx, core.Filter{"_id": created.ID}, map[string]any{"tags": "x"}, ScopeAll)
	if err != nil {
		t.Fatalf("push err: %v", err)
	}
	if doc == nil {
		t.Fatal("ScopeAll should reach soft-deleted documents")
	}
}
