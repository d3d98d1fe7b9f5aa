package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/store"
)

// NewWeatherCmd creates the weather command
func NewWeatherCmd() *cobra.Command {
	var (
		lat, lon float64
		name     string
	)
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Show current weather, optionally storing a location first",
		RunE: func(cmd *cobra.Command, args []string) error {
			setLat, setLon := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
			if setLat != setLon {
				return errors.New("--lat and --lon must be set together")
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if setLat {
					loc := &models.Location{Latitude: lat, Longitude: lon, Name: name}
					if err := app.Store.UpdateProfile(ctx, store.ProfileUpdate{Location: loc}); err != nil {
						return err
					}
				}

				app.Engine.FetchWeather(ctx)
				st := app.Store.Snapshot()
				if st.Weather == nil {
					return fmt.Errorf("weather unavailable: %s", st.WeatherError)
				}
				fmt.Fprintln(cmd.OutOrStdout(), describeWeather(st.Weather))
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude to store in the profile")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude to store in the profile")
	cmd.Flags().StringVar(&name, "name", "", "Name of the stored location")
	return cmd
}

// NewThemeCmd creates the theme command
func NewThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|system]",
		Short:     "Show or set the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(store.ThemeLight), string(store.ThemeDark), string(store.ThemeSystem)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if len(args) == 1 {
					if err := app.Store.SetTheme(ctx, store.Theme(args[0])); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", app.Store.Snapshot().Theme)
				return nil
			})
		},
	}
}

// NewResetCmd creates the reset command
func NewResetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase profile, wardrobe and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("this erases everything; pass --yes to confirm")
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Store.ResetApp(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Everything was reset.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
