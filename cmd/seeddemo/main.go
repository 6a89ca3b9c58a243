package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"HealthAssist/models"
	"HealthAssist/pkg/config"
	"HealthAssist/pkg/database"
	"HealthAssist/pkg/logger"
	"HealthAssist/pkg/services"
	"HealthAssist/pkg/store"
	"HealthAssist/pkg/utils"
)

var (
	email    string
	password string
	create   bool
)

var rootCmd = &cobra.Command{
	Use:   "seeddemo",
	Short: "Load demo metrics, medications and a conversation for one account",
	Long: `seeddemo fills an account with a week of metrics, three medications and
an opening exchange with the assistant. It reads the same environment as the
server (DB_DRIVER, DATABASE_URL, ...).`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.LogMode)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, log)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}

		users := store.NewUserStore(db, log)
		seeder := services.NewSeeder(
			store.NewMetricStore(db, log),
			store.NewMedicationStore(db, log),
			store.NewConversationStore(db, log),
			log,
		)

		user, err := seedAccount(cmd.Context(), users, seeder, email, password, create)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded demo data for %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&email, "email", "", "account email")
	rootCmd.Flags().StringVar(&password, "password", "", "account password")
	rootCmd.Flags().BoolVar(&create, "create", false, "register the account when it does not exist")
	_ = rootCmd.MarkFlagRequired("email")
	_ = rootCmd.MarkFlagRequired("password")
}

// seedAccount signs in as email (registering it first when create is set)
// and loads the demo data for that user.
func seedAccount(ctx context.Context, users store.UserStore, seeder *services.Seeder, email, password string, create bool) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	user, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !user.CheckPassword(password) {
			return nil, errors.New("invalid credentials")
		}
	case errors.Is(err, store.ErrNotFound) && create:
		user = &models.User{Email: email}
		if err := user.SetPassword(password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, err
		}
	case errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("no account for %s, pass --create to register it", email)
	default:
		return nil, err
	}

	if err := seeder.SeedDemo(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
