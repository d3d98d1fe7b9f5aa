package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benvon/smart-wardrobe/internal/models"
)

// NewItemsCmd creates the items command with list and remove subcommands
func NewItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage wardrobe items",
	}
	cmd.AddCommand(newItemsListCmd())
	cmd.AddCommand(newItemsRemoveCmd())
	return cmd
}

func newItemsListCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List wardrobe items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if category != "" && !models.Category(category).Valid() {
				return fmt.Errorf("invalid category %q", category)
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				out := cmd.OutOrStdout()
				wardrobe := app.Store.Snapshot().Wardrobe
				if len(wardrobe) == 0 {
					fmt.Fprintln(out, "The wardrobe is empty. Add photos with 'wardrobe upload'.")
					return nil
				}
				for _, item := range wardrobe {
					if category != "" && item.Category != models.Category(category) {
						continue
					}
					fmt.Fprintln(out, describeItem(item))
				}
				if !app.Engine.CanGenerate() {
					fmt.Fprintf(out, "\nNeeds %s before outfits can be suggested.\n", describeMissing(app.Engine.MissingItems()))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list one category")
	return cmd
}

func newItemsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an item, every outfit that uses it, and its image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				_, known := app.Store.Snapshot().Item(args[0])
				if err := app.Engine.RemoveItem(ctx, args[0]); err != nil {
					return err
				}
				if !known {
					fmt.Fprintf(cmd.OutOrStdout(), "No item %s in the wardrobe\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
				return nil
			})
		},
	}
}
