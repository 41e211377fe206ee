package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/docstore/internal/auth"
	"github.com/dropDatabas3/docstore/internal/config"
	"github.com/dropDatabas3/docstore/internal/domain/types"
	jwtx "github.com/dropDatabas3/docstore/internal/jwt"
	"github.com/dropDatabas3/docstore/internal/metrics"
	"github.com/dropDatabas3/docstore/internal/observability/logger"
	"github.com/dropDatabas3/docstore/internal/repository"
	"github.com/dropDatabas3/docstore/internal/security/password"
	"github.com/dropDatabas3/docstore/internal/store"
	"github.com/dropDatabas3/docstore/internal/store/core"
)

// runtime junta todo lo que los subcomandos necesitan ya cableado.
type runtime struct {
	cfg   *config.Config
	users core.Store[types.User]
	auth  auth.Service
}

func (rt *runtime) close(ctx context.Context) {
	if rt.users != nil {
		_ = rt.users.Close(ctx)
	}
	_ = logger.Sync()
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	// sin archivo: config plana desde el entorno
	return config.FromEnv()
}

func buildRuntime(ctx context.Context, cfgPath string) (*runtime, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "docstore",
	})

	if err := metrics.RegisterStore(nil); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	var scfg store.Config
	scfg.Driver = cfg.Storage.Driver
	scfg.Mongo.URI = cfg.Storage.Mongo.URI
	scfg.Mongo.Database = cfg.Storage.Mongo.Database

	users, err := store.Open[types.User](ctx, scfg, "users")
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	issuer, err := jwtx.NewIssuer(jwtx.Config{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.AccessTTL(),
	})
	if err != nil {
		_ = users.Close(ctx)
		return nil, fmt.Errorf("jwt: %w", err)
	}

	svc := auth.NewService(auth.Deps{
		Users:  repository.New[types.User](users, "users"),
		Hasher: password.NewHasher(password.Default),
		Issuer: issuer,
		Policy: password.Policy{MinLength: cfg.Security.PasswordPolicy.MinLength},
	})

	return &runtime{cfg: cfg, users: users, auth: svc}, nil
}

func printResult(res *auth.Result) {
	p, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(p))
}

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "docstore",
		Short:         "Utilidades de operación del document store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("DOCSTORE_CONFIG"), "Ruta al config.yaml (env DOCSTORE_CONFIG; vacío = solo entorno)")

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Abre el store configurado y verifica conectividad",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			rt, err := buildRuntime(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			if err := rt.users.Ping(ctx); err != nil {
				return fmt.Errorf("ping fallo: %w", err)
			}
			fmt.Printf("ok (driver=%s)\n", rt.cfg.Storage.Driver)
			return nil
		},
	}

	var regEmail, regPass string
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Alta de un usuario con credenciales",
		RunE: func(cmd *cobra.Command, args []string) error {
			if regEmail == "" || regPass == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			rt, err := buildRuntime(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			res, err := rt.auth.Register(ctx, auth.Credentials{Email: regEmail, Password: regPass})
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		},
	}
	registerCmd.Flags().StringVar(&regEmail, "email", "", "Email del usuario")
	registerCmd.Flags().StringVar(&regPass, "password", "", "Password en claro (se guarda solo el hash)")

	var loginEmail, loginPass string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Login con credenciales, imprime el token de sesión",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginEmail == "" || loginPass == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			rt, err := buildRuntime(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			res, err := rt.auth.Login(ctx, auth.Credentials{Email: loginEmail, Password: loginPass})
			if err != nil {
				return err
			}
			printResult(res)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email del usuario")
	loginCmd.Flags().StringVar(&loginPass, "password", "", "Password en claro")

	// seed: deja un usuario admin listo para probar (idempotente entre corridas)
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Crea un usuario de prueba (SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD)",
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strEnv("SEED_ADMIN_EMAIL", "admin@local.test")
			pass := strEnv("SEED_ADMIN_PASSWORD", "SuperS3creta!")

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			rt, err := buildRuntime(ctx, cfgPath)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			res, err := rt.auth.Register(ctx, auth.Credentials{Email: email, Password: pass})
			if err != nil {
				if errors.Is(err, auth.ErrEmailTaken) {
					fmt.Printf("seed: %s ya existe, nada que hacer\n", email)
					return nil
				}
				return err
			}
			fmt.Println("Seed listo")
			fmt.Println("--------------------------------------------------")
			fmt.Printf("Admin: %s / %s\n", email, pass)
			fmt.Printf("Sub:   %s\n", res.User.ID)
			fmt.Println("--------------------------------------------------")
			return nil
		},
	}

	root.AddCommand(pingCmd, registerCmd, loginCmd, seedCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func strEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
