// Package store abre el adapter de documentos según el driver configurado.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/docstore/internal/store/core"
	"github.com/dropDatabas3/docstore/internal/store/memory"
	"github.com/dropDatabas3/docstore/internal/store/mongo"
)

type Config struct {
	Driver string
	Mongo  struct {
		URI      string
		Database string
	}
}

// Open devuelve un Store ligado a una colección.
func Open[T any](ctx context.Context, cfg Config, collection string) (core.Store[T], error) {
	switch strings.ToLower(cfg.Driver) {
	case "memory", "mem", "":
		return memory.New[T](), nil
	case "mongo", "mongodb":
		if collection == "" {
			return nil, fmt.Errorf("store: empty collection name: %w", core.ErrInvalid)
		}
		return mongo.New[T](ctx, cfg.Mongo.URI, cfg.Mongo.Database, collection)
	default:
		return nil, fmt.Errorf("store: unsupported driver: %s", cfg.Driver)
	}
}
