package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/portal-admin/internal"
	"github.com/frahmantamala/portal-admin/internal/category"
	coreUser "github.com/frahmantamala/portal-admin/internal/core/user"
	"github.com/frahmantamala/portal-admin/internal/module"
	"github.com/frahmantamala/portal-admin/internal/permission"
	"github.com/frahmantamala/portal-admin/internal/user"
	userPostgres "github.com/frahmantamala/portal-admin/internal/user/postgres"
	"github.com/frahmantamala/portal-admin/pkg/logger"
)

var (
	clearData      bool
	seedPassword   string
	adminEmail     = "admin@portal.local"
	editorEmail    = "editor@portal.local"
	seedActor      = &coreUser.Principal{Name: "seed", Role: coreUser.RoleAdmin, Active: true}
	seedTables     = []string{"transparency_documents", "module_permissions", "document_categories", "users"}
	seedCategories = []category.CreateCategoryRequest{
		{Slug: "presupuesto", Name: "Presupuesto", Description: "Presupuesto anual y ejecución del gasto", SortOrder: 1},
		{Slug: "contratos", Name: "Contratos", Description: "Contratos y licitaciones", SortOrder: 2},
		{Slug: "nomina", Name: "Nómina", Description: "Nómina y tabulador de sueldos", SortOrder: 3},
		{Slug: "informes", Name: "Informes de gobierno", SortOrder: 4},
	}
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed an admin and an editor user, sample document categories and the editor's grants.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		lg := logger.LoggerWrapper()

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(db, cfg.Environment)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		ctx := context.Background()
		if clearData {
			if err := clearTables(ctx, gdb); err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		svc := buildServices(gdb, cfg, lg)
		users := userPostgres.NewUserRepository(gdb)

		adminID, err := ensureUser(ctx, svc.Users, users, user.CreateUserRequest{
			Email: adminEmail, Name: "Administrador", Password: seedPassword, Role: string(coreUser.RoleAdmin),
		})
		if err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
		fmt.Println("Admin user:", adminEmail, "id", adminID)

		editorID, err := ensureUser(ctx, svc.Users, users, user.CreateUserRequest{
			Email: editorEmail, Name: "Editor de contenidos", Password: seedPassword, Role: string(coreUser.RoleEditor),
		})
		if err != nil {
			log.Fatalf("failed to seed editor user: %v", err)
		}
		fmt.Println("Editor user:", editorEmail, "id", editorID)

		for _, req := range seedCategories {
			_, err := svc.Categories.Create(ctx, adminID, req)
			switch {
			case err == nil:
				fmt.Println("Seeded category:", module.CategoryKey(req.Slug))
			case internal.HasCode(err, internal.ErrCodeCategorySlugTaken):
				fmt.Println("Category already exists:", req.Slug)
			default:
				log.Fatalf("failed to seed category %s: %v", req.Slug, err)
			}
		}

		editorGrants := []permission.GrantInput{
			permission.NewGrantInput(module.KeyNoticias, permission.Flags{CanCreate: true, CanEdit: true}),
			permission.NewGrantInput(module.KeyEventos, permission.Flags{CanCreate: true, CanEdit: true, CanDelete: true}),
			permission.NewGrantInput(module.CategoryKey("presupuesto"), permission.Flags{CanCreate: true, CanEdit: true}),
			permission.NewGrantInput(module.CategoryKey("contratos"), permission.Flags{CanCreate: true, CanEdit: true, CanPublish: true}),
		}
		grants, err := svc.Permissions.ReplaceAll(ctx, adminID, editorID, editorGrants)
		if err != nil {
			log.Fatalf("failed to grant editor permissions: %v", err)
		}
		fmt.Printf("Granted %d module permissions to %s\n", len(grants), editorEmail)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
	seedCmd.Flags().StringVar(&seedPassword, "password", "cambiar-esta-clave", "password for the seeded users")
}

// ensureUser creates the user or returns the id of the existing one.
func ensureUser(ctx context.Context, svc *user.Service, repo user.Repository, req user.CreateUserRequest) (int64, error) {
	created, err := svc.Create(ctx, seedActor, req)
	if err == nil {
		return created.User.ID, nil
	}
	if !internal.HasCode(err, internal.ErrCodeEmailTaken) {
		return 0, err
	}

	existing, err := repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		return 0, fmt.Errorf("user %s reported taken but not found", req.Email)
	}
	return existing.ID, nil
}

func clearTables(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range seedTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
