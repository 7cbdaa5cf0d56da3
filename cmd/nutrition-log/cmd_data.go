// cmd/nutrition-log/cmd_data.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nutrition-log/internal/backup"
	"nutrition-log/internal/foodimport"
	"nutrition-log/internal/models"
)

var (
	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of every table",
		RunE:  runExport,
	}
	exportPath string

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Copy the database into the backup directory",
		Long: `Writes a consistent copy of the database with VACUUM INTO, uploads it to
S3 when a bucket is configured, and prunes old copies beyond the retention.`,
		RunE: runBackup,
	}
	listBackups bool

	importFoodsCmd = &cobra.Command{
		Use:   "import-foods [foods.json]",
		Short: "Import foods from a name-keyed JSON document",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportFoods,
	}

	seedNutrientsCmd = &cobra.Command{
		Use:   "seed-nutrients",
		Short: "Insert the default macronutrients",
		RunE:  runSeedNutrients,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nutrition-log version %s\n", version)
		},
	}
)

func init() {
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "output file (default nutrition-export-<timestamp>.json)")
	backupCmd.Flags().BoolVar(&listBackups, "list", false, "list existing backups instead of writing one")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	path := exportPath
	if path == "" {
		path = fmt.Sprintf("nutrition-export-%s.json", time.Now().Format("20060102-150405"))
	}
	snap, err := backup.Export(ctx, a.store, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d foods, %d diary entries, %d associations to %s\n",
		len(snap.Foods), len(snap.DiaryEntries), len(snap.Associations), path)
	return nil
}

func runBackup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if listBackups {
		names, err := a.backup.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	res, err := a.backup.Run(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runImportFoods(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := foodimport.Import(ctx, a.store, f, a.log)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runSeedNutrients(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	added, err := a.store.SeedNutrients(ctx, models.DefaultNutrients)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %d nutrients\n", added)
	return nil
}
