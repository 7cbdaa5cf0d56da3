// cmd/nutrition-log/cmd_associations.go
package main

import (
	"github.com/spf13/cobra"

	"nutrition-log/internal/associations"
	"nutrition-log/internal/models"
)

var (
	rebuildCmd = &cobra.Command{
		Use:   "rebuild-associations",
		Short: "Reset food associations and replay the diary history",
		Long: `Deletes the food pair records of one meal type (or every meal type) and
replays each logged meal in date order. Use it after importing an old
database or when counts have drifted through repeated updates.`,
		RunE: runRebuild,
	}
	rebuildMealType string

	updateMealCmd = &cobra.Command{
		Use:   "update-meal",
		Short: "Fold one logged meal into the food associations",
		RunE:  runUpdateMeal,
	}
	updateDate     string
	updateMealType string
)

func init() {
	rebuildCmd.Flags().StringVar(&rebuildMealType, "meal-type", "", "meal type to rebuild (default: all)")

	updateMealCmd.Flags().StringVar(&updateDate, "date", "", "meal date (YYYY-MM-DD)")
	updateMealCmd.Flags().StringVar(&updateMealType, "meal-type", "", "meal type")
	_ = updateMealCmd.MarkFlagRequired("date")
	_ = updateMealCmd.MarkFlagRequired("meal-type")
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var results []*associations.RebuildResult
	if rebuildMealType == "" {
		if results, err = a.engine.RebuildAll(ctx); err != nil {
			return err
		}
	} else {
		mt, err := models.ParseMealType(rebuildMealType)
		if err != nil {
			return err
		}
		res, err := a.engine.Rebuild(ctx, mt)
		if err != nil {
			return err
		}
		results = append(results, res)
	}
	return printJSON(cmd.OutOrStdout(), results)
}

func runUpdateMeal(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	mt, err := models.ParseMealType(updateMealType)
	if err != nil {
		return err
	}

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.UpdateForMeal(ctx, updateDate, mt)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
