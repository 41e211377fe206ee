package logger

import "go.uber.org/zap"

// Campos estándar para mantener claves consistentes entre paquetes.

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (service, repository, store).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Collection crea un campo para la colección de documentos.
func Collection(v string) zap.Field {
	return zap.String("collection", v)
}

// DocID crea un campo para el id de un documento.
func DocID(v string) zap.Field {
	return zap.String("doc_id", v)
}

// UserID crea un campo para el ID del usuario.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// Email crea un campo para el email (usar con cuidado en prod).
func Email(v string) zap.Field {
	return zap.String("email", v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Page crea un campo para la página pedida.
func Page(v int) zap.Field {
	return zap.Int("page", v)
}

// Limit crea un campo para el límite de página.
func Limit(v int) zap.Field {
	return zap.Int("limit", v)
}
