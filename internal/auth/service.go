// Package auth implementa los flujos stateless de login y registro sobre
// el repositorio de usuarios, el hasher de passwords y el issuer de tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/docstore/internal/domain/types"
	jwtx "github.com/dropDatabas3/docstore/internal/jwt"
	"github.com/dropDatabas3/docstore/internal/observability/logger"
	"github.com/dropDatabas3/docstore/internal/repository"
	"github.com/dropDatabas3/docstore/internal/security/password"
)

// Credentials es el par email/password en tránsito. Nunca se persiste.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Result es la respuesta de login/registro: token firmado más la vista
// pública del usuario (sin hash).
type Result struct {
	AccessToken string           `json:"access_token"`
	ExpiresAt   time.Time        `json:"expires_at"`
	User        types.PublicUser `json:"user"`
}

// Service define las operaciones de autenticación.
type Service interface {
	Login(ctx context.Context, in Credentials) (*Result, error)
	Register(ctx context.Context, in Credentials) (*Result, error)
}

// Deps contiene las dependencias del servicio.
type Deps struct {
	Users  *repository.Repository[types.User]
	Hasher *password.Hasher
	Issuer *jwtx.Issuer
	Policy password.Policy
}

type service struct {
	deps Deps
}

// NewService crea el servicio de autenticación.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

// Errores de autenticación (sentinel). Usuario inexistente y password
// incorrecto colapsan en ErrInvalidCredentials: el caller nunca puede
// distinguir si la cuenta existe.
var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPolicyViolation    = errors.New("password policy violation")
	ErrHashFailed         = errors.New("failed to hash password")
	ErrTokenIssueFailed   = errors.New("failed to issue token")
)

func (s *service) Login(ctx context.Context, in Credentials) (*Result, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Login"),
	)

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	// Buscar usuario (consciente de soft-delete) y verificar password
	user, err := s.deps.Users.FindOneByQuery(ctx, map[string]any{"email": in.Email})
	if err != nil {
		return nil, fmt.Errorf("auth: login: %w", err)
	}
	if user == nil {
		log.Debug("user not found")
		return nil, ErrInvalidCredentials
	}

	log = log.With(logger.UserID(user.ID))

	if !s.deps.Hasher.Verify(in.Password, user.Data.Password) {
		log.Debug("password check failed")
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.deps.Issuer.Sign(user.ID)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, ErrTokenIssueFailed
	}

	log.Info("login ok")
	return &Result{
		AccessToken: token,
		ExpiresAt:   exp,
		User:        types.PublicView(user),
	}, nil
}

func (s *service) Register(ctx context.Context, in Credentials) (*Result, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth"),
		logger.Op("Register"),
	)

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	if ok, reasons := s.deps.Policy.Validate(in.Password); !ok {
		log.Debug("password policy violation", logger.Any("reasons", reasons))
		return nil, ErrPolicyViolation
	}

	// Guard de email duplicado antes de hashear
	existing, err := s.deps.Users.FindOneByQuery(ctx, map[string]any{"email": in.Email})
	if err != nil {
		return nil, fmt.Errorf("auth: register: %w", err)
	}
	if existing != nil {
		log.Debug("email taken")
		return nil, ErrEmailTaken
	}

	// Hashear primero: una falla acá no deja ningún registro creado
	hash, err := s.deps.Hasher.Hash(in.Password)
	if err != nil {
		log.Error("hash failed", logger.Err(err))
		return nil, ErrHashFailed
	}

	user, err := s.deps.Users.CreateOne(ctx, types.User{Email: in.Email, Password: hash})
	if err != nil {
		return nil, fmt.Errorf("auth: register: %w", err)
	}

	token, exp, err := s.deps.Issuer.Sign(user.ID)
	if err != nil {
		log.Error("token issue failed", logger.Err(err))
		return nil, ErrTokenIssueFailed
	}

	log.Info("user registered", logger.UserID(user.ID))
	return &Result{
		AccessToken: token,
		ExpiresAt:   exp,
		User:        types.PublicView(user),
	}, nil
}
