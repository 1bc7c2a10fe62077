package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/portal-admin/pkg/logger"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Print the module registry",
	Long:  `Print every permissionable module: the core modules followed by one module per active document category.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(db, "production")
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		svc := buildServices(gdb, cfg, logger.LoggerWrapper())
		modules, err := svc.Registry.List(context.Background())
		if err != nil {
			log.Fatalf("failed to load module registry: %v", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tKIND\tDESCRIPTION")
		for _, m := range modules {
			fmt.Fprintf(w, "%s\t%s\t%s\n", m.Key, m.Kind, m.Description)
		}
		w.Flush()
	},
}
