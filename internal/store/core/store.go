package core

import "context"

// Store es el contrato mínimo que el Repository consume de un backend
// de documentos. Cada adapter (memory, mongo) lo implementa para una
// colección concreta.
//
// Semántica de retorno: FindOne y FindOneAndUpdate devuelven (nil, nil)
// cuando no hay match; los errores se reservan para fallas de infraestructura.
type Store[T any] interface {
	// Ping verifica la conexión al backend.
	Ping(ctx context.Context) error

	// Close libera la conexión.
	Close(ctx context.Context) error

	// InsertOne inserta un documento; el adapter asigna ID y CreatedAt.
	InsertOne(ctx context.Context, data T) (*Document[T], error)

	// InsertMany inserta en bloque. El orden de inserción no se garantiza
	// y no hay commit parcial: si el backend rechaza algún registro, falla todo.
	InsertMany(ctx context.Context, data []T) ([]Document[T], error)

	// FindOne devuelve el primer documento que matchea el filtro.
	FindOne(ctx context.Context, filter Filter) (*Document[T], error)

	// Find devuelve todos los documentos que matchean el filtro.
	Find(ctx context.Context, filter Filter) ([]Document[T], error)

	// FindOneAndUpdate aplica la mutación al primer match y devuelve
	// el documento post-mutación (returnUpdated).
	FindOneAndUpdate(ctx context.Context, filter Filter, update Update) (*Document[T], error)

	// UpdateMany aplica la mutación a todos los matches y devuelve el ack.
	UpdateMany(ctx context.Context, filter Filter, update Update) (*UpdateResult, error)

	// Aggregate ejecuta un pipeline match→facet{page,data} en un solo
	// round trip y decodifica ambas ramas.
	Aggregate(ctx context.Context, p Pipeline) (*FacetResult[T], error)
}
