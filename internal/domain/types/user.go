package types

import (
	"time"

	"github.com/dropDatabas3/docstore/internal/store/core"
)

// User es la forma de datos de la colección de usuarios. Password guarda
// el hash argon2id, nunca el plaintext, y nunca sale en JSON.
type User struct {
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"`
}

// PublicUser es la proyección de un usuario para respuestas: excluye el
// material secreto por construcción.
type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicView proyecta un documento de usuario a su vista pública.
func PublicView(doc *core.Document[User]) PublicUser {
	return PublicUser{
		ID:        doc.ID,
		Email:     doc.Data.Email,
		CreatedAt: doc.CreatedAt,
	}
}
