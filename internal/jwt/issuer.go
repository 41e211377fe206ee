// Package jwt emite y verifica los session tokens firmados del servicio.
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret  = errors.New("empty signing secret")
	ErrInvalidToken = errors.New("invalid token")
)

// Config es la configuración explícita del issuer: el secret y el expiry
// se inyectan en la construcción, nunca se leen de estado global.
type Config struct {
	// Secret es el material de firma HS256 (process-wide, desde config).
	Secret []byte
	// Issuer va en el claim "iss".
	Issuer string
	// Expiry es la vida del token. Default: 15m.
	Expiry time.Duration
}

// Issuer firma tokens de sesión ligados a un subject.
type Issuer struct {
	secret []byte
	iss    string
	ttl    time.Duration
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	ttl := cfg.Expiry
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{secret: cfg.Secret, iss: cfg.Issuer, ttl: ttl}, nil
}

// Sign emite un token HS256 cuyo único claim de identidad es el subject.
// No lleva claims de autorización: token válido ⇒ subject identificado,
// nada más.
func (i *Issuer) Sign(subjectID string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.ttl)

	claims := jwtv5.MapClaims{
		"iss": i.iss,
		"sub": subjectID,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify valida firma, exp/nbf (con tolerancia de 30s) e iss, y devuelve
// el subject del token.
func (i *Issuer) Verify(token string) (string, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) { return i.secret, nil }

	tok, err := jwtv5.Parse(token, keyfunc,
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithLeeway(30*time.Second),
	)
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if i.iss != "" {
		if iss, _ := claims["iss"].(string); iss != i.iss {
			return "", ErrInvalidToken
		}
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
