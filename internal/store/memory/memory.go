// Package memory implementa el adapter en memoria del Store.
// Guarda los documentos como mapas bson crudos (mismo codec que el adapter
// mongo) e interpreta el pipeline de agregación sobre ellos, así los tests
// y el modo embebido corren sin una base externa.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dropDatabas3/docstore/internal/store/core"
)

type Store[T any] struct {
	mu   sync.RWMutex
	docs []bson.M // orden de inserción
}

func New[T any]() *Store[T] {
	return &Store[T]{}
}

func (s *Store[T]) Ping(ctx context.Context) error { return nil }

func (s *Store[T]) Close(ctx context.Context) error { return nil }

func (s *Store[T]) InsertOne(ctx context.Context, data T) (*core.Document[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.insertLocked(data)
	if err != nil {
		return nil, err
	}
	doc, err := decodeDoc[T](raw)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store[T]) InsertMany(ctx context.Context, data []T) ([]core.Document[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Document[T], 0, len(data))
	for _, d := range data {
		raw, err := s.insertLocked(d)
		if err != nil {
			// sin commit parcial: revertir lo insertado en esta llamada
			s.docs = s.docs[:len(s.docs)-len(out)]
			return nil, err
		}
		doc, err := decodeDoc[T](raw)
		if err != nil {
			s.docs = s.docs[:len(s.docs)-len(out)]
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

// insertLocked asigna _id y createdAt, y encola el mapa crudo.
func (s *Store[T]) insertLocked(data T) (bson.M, error) {
	doc := core.Document[T]{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Data:      data,
	}
	raw, err := encodeDoc(doc)
	if err != nil {
		return nil, err
	}
	s.docs = append(s.docs, raw)
	return raw, nil
}

func (s *Store[T]) FindOne(ctx context.Context, filter core.Filter) (*core.Document[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, raw := range s.docs {
		ok, err := matches(raw, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			return decodeDoc[T](raw)
		}
	}
	return nil, nil
}

func (s *Store[T]) Find(ctx context.Context, filter core.Filter) ([]core.Document[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Document[T]
	for _, raw := range s.docs {
		ok, err := matches(raw, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			doc, err := decodeDoc[T](raw)
			if err != nil {
				return nil, err
			}
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (s *Store[T]) FindOneAndUpdate(ctx context.Context, filter core.Filter, update core.Update) (*core.Document[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, raw := range s.docs {
		ok, err := matches(raw, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		updated := applyUpdate(raw, update)
		s.docs[i] = updated
		return decodeDoc[T](updated)
	}
	return nil, nil
}

func (s *Store[T]) UpdateMany(ctx context.Context, filter core.Filter, update core.Update) (*core.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &core.UpdateResult{}
	for i, raw := range s.docs {
		ok, err := matches(raw, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		res.MatchedCount++
		res.ModifiedCount++
		s.docs[i] = applyUpdate(raw, update)
	}
	return res, nil
}

func (s *Store[T]) Aggregate(ctx context.Context, p core.Pipeline) (*core.FacetResult[T], error) {
	s.mu.RLock()
	rows := make([]bson.M, len(s.docs))
	copy(rows, s.docs)
	s.mu.RUnlock()

	res := &core.FacetResult[T]{}
	for _, st := range p {
		switch st := st.(type) {
		case core.Match:
			filtered, err := filterRows(rows, st.Filter)
			if err != nil {
				return nil, err
			}
			rows = filtered
		case core.Facet:
			if err := s.runFacet(rows, st, res); err != nil {
				return nil, err
			}
			return res, nil
		default:
			return nil, fmt.Errorf("memory: stage %T outside facet: %w", st, core.ErrNotImplemented)
		}
	}
	// pipeline sin facet: todo lo que quedó es data
	data, err := decodeDocs[T](rows)
	if err != nil {
		return nil, err
	}
	res.Data = data
	return res, nil
}

func (s *Store[T]) runFacet(rows []bson.M, facet core.Facet, res *core.FacetResult[T]) error {
	for name, branch := range facet.Branches {
		out, err := runBranch(rows, branch)
		if err != nil {
			return err
		}
		switch name {
		case "page":
			for _, r := range out {
				n, _ := toFloat(r["totalIndex"])
				res.Page = append(res.Page, core.FacetPage{TotalIndex: int64(n)})
			}
		case "data":
			data, err := decodeDocs[T](out)
			if err != nil {
				return err
			}
			res.Data = data
		default:
			return fmt.Errorf("memory: facet branch %q: %w", name, core.ErrNotImplemented)
		}
	}
	return nil
}

// runBranch interpreta las etapas de una rama del facet sobre una copia del set.
func runBranch(rows []bson.M, branch core.Pipeline) ([]bson.M, error) {
	out := make([]bson.M, len(rows))
	copy(out, rows)

	for _, st := range branch {
		switch st := st.(type) {
		case core.Sort:
			sortRows(out, st.Field, st.Order)
		case core.Skip:
			if st.N >= int64(len(out)) {
				out = nil
			} else {
				out = out[st.N:]
			}
		case core.Limit:
			if int64(len(out)) > st.N {
				out = out[:st.N]
			}
		case core.Count:
			if len(out) == 0 {
				return nil, nil
			}
			return []bson.M{{st.Field: int64(len(out))}}, nil
		case core.AddFields:
			for i, r := range out {
				nr := cloneRow(r)
				for k, v := range st.Fields {
					nr[k] = v
				}
				out[i] = nr
			}
		case core.Match:
			filtered, err := filterRows(out, st.Filter)
			if err != nil {
				return nil, err
			}
			out = filtered
		default:
			return nil, fmt.Errorf("memory: stage %T: %w", st, core.ErrNotImplemented)
		}
	}
	return out, nil
}

// ───────────────────────── helpers ─────────────────────────

func encodeDoc[T any](doc core.Document[T]) (bson.M, error) {
	b, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("memory: encode: %w", err)
	}
	var raw bson.M
	if err := bson.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("memory: encode: %w", err)
	}
	return raw, nil
}

func decodeDoc[T any](raw bson.M) (*core.Document[T], error) {
	b, err := bson.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("memory: decode: %w", err)
	}
	var doc core.Document[T]
	if err := bson.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("memory: decode: %w", err)
	}
	return &doc, nil
}

func decodeDocs[T any](rows []bson.M) ([]core.Document[T], error) {
	out := make([]core.Document[T], 0, len(rows))
	for _, r := range rows {
		doc, err := decodeDoc[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

func filterRows(rows []bson.M, f core.Filter) ([]bson.M, error) {
	var out []bson.M
	for _, r := range rows {
		ok, err := matches(r, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// matches evalúa el filtro contra un mapa crudo: nil matchea campo
// ausente o null, Regex matchea por expresión, el resto por igualdad.
func matches(raw bson.M, f core.Filter) (bool, error) {
	for k, want := range f {
		got, present := raw[k]
		switch want := want.(type) {
		case nil:
			if present && got != nil {
				return false, nil
			}
		case core.Regex:
			str, ok := got.(string)
			if !ok {
				return false, nil
			}
			re, err := compileRegex(want)
			if err != nil {
				return false, err
			}
			if !re.MatchString(str) {
				return false, nil
			}
		default:
			if !present || !valuesEqual(got, want) {
				return false, nil
			}
		}
	}
	return true, nil
}

// compileRegex traduce las flags estilo mongo ("i", "s") a flags de Go.
func compileRegex(r core.Regex) (*regexp.Regexp, error) {
	var flags string
	if strings.Contains(r.Options, "i") {
		flags += "i"
	}
	if strings.Contains(r.Options, "s") {
		flags += "s"
	}
	pattern := r.Pattern
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("memory: regex %q: %w", r.Pattern, core.ErrInvalid)
	}
	return re, nil
}

func applyUpdate(raw bson.M, u core.Update) bson.M {
	out := cloneRow(raw)
	for k, v := range u.Set {
		out[k] = v
	}
	for k, v := range u.Push {
		arr, _ := out[k].(bson.A)
		out[k] = append(arr, v)
	}
	for k, v := range u.Pull {
		arr, ok := out[k].(bson.A)
		if !ok {
			continue
		}
		kept := make(bson.A, 0, len(arr))
		for _, el := range arr {
			if !valuesEqual(el, v) {
				kept = append(kept, el)
			}
		}
		out[k] = kept
	}
	return out
}

func cloneRow(r bson.M) bson.M {
	out := make(bson.M, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func sortRows(rows []bson.M, field string, order int) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareValues(rows[i][field], rows[j][field])
		if order < 0 {
			return c > 0
		}
		return c < 0
	})
}

// compareValues ordena valores heterogéneos: números (incluye bson.DateTime
// y time.Time normalizados a ms), strings y bools.
func compareValues(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case bb:
				return -1
			default:
				return 1
			}
		}
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case bson.DateTime:
		return float64(int64(v)), true
	case time.Time:
		return float64(v.UnixMilli()), true
	}
	return 0, false
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}
