package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/portal-admin/db"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "Apply the database migrations",
		Long: `Apply the users, document category, module permission and document
migrations. Migrations are embedded in the binary; --dir reads them from disk instead.`,
	}
	migrateRollback bool
	migrateStatus   bool
	migrateTo       int64
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "roll back the latest migration")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print applied and pending migrations")
	migrateCmd.Flags().Int64Var(&migrateTo, "to", 0, "migrate up (or with --rollback, down) to this version")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "", "read migrations from this directory")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg := mustLoadConfig()

	conn, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("goose: open db: %w", err)
	}
	defer conn.Close()

	goose.SetTableName("schema_migrations")
	dir := migrateDir
	if dir == "" {
		goose.SetBaseFS(db.Migrations)
		dir = db.MigrationsDir
	} else {
		goose.SetBaseFS(os.DirFS("."))
	}

	switch {
	case migrateStatus:
		err = goose.StatusContext(ctx, conn, dir)
	case migrateRollback && migrateTo > 0:
		err = goose.DownToContext(ctx, conn, dir, migrateTo)
	case migrateRollback:
		err = goose.DownContext(ctx, conn, dir)
	case migrateTo > 0:
		err = goose.UpToContext(ctx, conn, dir, migrateTo)
	default:
		err = goose.UpContext(ctx, conn, dir)
	}
	if err != nil {
		return fmt.Errorf("goose: %w", err)
	}
	return nil
}
