package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/benvon/smart-wardrobe/cmd/wardrobe/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "wardrobe",
		Short:         "Smart wardrobe assistant",
		Long:          "Catalog clothing from photos and get outfit suggestions based on your style, colors and the weather",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(commands.NewOnboardCmd())
	rootCmd.AddCommand(commands.NewUploadCmd())
	rootCmd.AddCommand(commands.NewItemsCmd())
	rootCmd.AddCommand(commands.NewOutfitsCmd())
	rootCmd.AddCommand(commands.NewWeatherCmd())
	rootCmd.AddCommand(commands.NewThemeCmd())
	rootCmd.AddCommand(commands.NewResetCmd())

	// Ctrl-C cancels batch runs cooperatively: in-flight files finish
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
