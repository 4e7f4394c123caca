package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	zlog "github.com/rs/zerolog/log"
	"github.com/sareehouse/storefront-api/config"
	"github.com/sareehouse/storefront-api/models"
	"github.com/sareehouse/storefront-api/routes"
	"github.com/sareehouse/storefront-api/services"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Saree storefront and back-office API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newCreateAdminCmd(), newSeedCmd(), newRoutesCmd())
	return root
}

// boot loads config, sets up logging and opens the database
func boot() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	config.SetupLogger(cfg)

	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}
	return cfg, config.GetDB(), nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := boot()
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return err
			}

			if cfg.AWSS3Bucket != "" {
				s3Service, err := services.InitS3Service(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				services.InitImageService(s3Service)
			} else {
				zlog.Warn().Msg("AWS_S3_BUCKET not set, product image uploads are disabled")
			}
			services.InitOTPStore(cfg)

			return serve(cmd.Context(), cfg)
		},
	}
}

// serve runs the API until SIGINT or SIGTERM, then drains in-flight requests
func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Str("addr", srv.Addr).Str("env", cfg.GoEnv).Msg("Saree Storefront API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := boot()
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return err
			}
			zlog.Info().Msg("database migration completed successfully")
			return nil
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var input services.CreateAdminInput
	var role string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a back-office account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := boot()
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return err
			}

			input.Role = models.Role(role)
			admin, err := services.NewAdminUserService(db).Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (id %d)\n", admin.Role, admin.Email, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "login email")
	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVar(&input.Password, "password", "", "password, at least 8 characters")
	cmd.Flags().StringVar(&role, "role", string(models.RoleSuperAdmin), "SUPER_ADMIN, SHOP_MANAGER or SALESMAN")
	for _, name := range []string{"email", "name", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a demo catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := boot()
			if err != nil {
				return err
			}
			if err := models.Migrate(db); err != nil {
				return err
			}
			created, err := seedCatalog(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", created)
			return nil
		},
	}
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List all registered routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if cfg == nil {
				var err error
				if cfg, err = config.Load(); err != nil {
					return err
				}
			}
			return printRoutes(cmd, cfg)
		},
	}
}

func printRoutes(cmd *cobra.Command, cfg *config.Config) error {
	infos := routes.SetupRouter(cfg).Routes()
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Path != infos[j].Path {
			return infos[i].Path < infos[j].Path
		}
		return infos[i].Method < infos[j].Method
	})

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH")
	for _, r := range infos {
		fmt.Fprintf(w, "%s\t%s\n", r.Method, r.Path)
	}
	return w.Flush()
}
