package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/store"
)

// onboardingAnswers is the YAML questionnaire file
type onboardingAnswers struct {
	StylePreferences map[string]int `yaml:"stylePreferences"`
	FavoriteColors   []string       `yaml:"favoriteColors"`
	Location         *struct {
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
		Name      string  `yaml:"name"`
	} `yaml:"location"`
	Occasions      []string `yaml:"occasions"`
	FitPreferences *struct {
		Top    string `yaml:"top"`
		Bottom string `yaml:"bottom"`
	} `yaml:"fitPreferences"`
	WeatherSensitivity *struct {
		RunsCold bool `yaml:"runsCold"`
		RunsHot  bool `yaml:"runsHot"`
	} `yaml:"weatherSensitivity"`
	Lifestyle *struct {
		WorkEnvironment string `yaml:"workEnvironment"`
		ActivityLevel   string `yaml:"activityLevel"`
	} `yaml:"lifestyle"`
	ColorPreferences *struct {
		Palette string   `yaml:"palette"`
		Avoid   []string `yaml:"avoid"`
	} `yaml:"colorPreferences"`
	PatternPreferences []string `yaml:"patternPreferences"`
	Goals              []string `yaml:"goals"`
}

// parseOnboarding decodes a questionnaire into a profile update. Unknown keys are rejected.
func parseOnboarding(data []byte) (store.ProfileUpdate, error) {
	var a onboardingAnswers
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil {
		return store.ProfileUpdate{}, fmt.Errorf("failed to parse answers: %w", err)
	}

	u := store.ProfileUpdate{
		FavoriteColors:     a.FavoriteColors,
		Occasions:          a.Occasions,
		PatternPreferences: a.PatternPreferences,
		Goals:              a.Goals,
	}
	if a.StylePreferences != nil {
		u.StylePreferences = make(map[models.StyleTag]int, len(a.StylePreferences))
		for k, v := range a.StylePreferences {
			u.StylePreferences[models.StyleTag(k)] = v
		}
	}
	if l := a.Location; l != nil {
		u.Location = &models.Location{Latitude: l.Latitude, Longitude: l.Longitude, Name: l.Name}
	}
	if f := a.FitPreferences; f != nil {
		u.FitPreferences = &models.FitPreferences{Top: f.Top, Bottom: f.Bottom}
	}
	if w := a.WeatherSensitivity; w != nil {
		u.WeatherSensitivity = &models.WeatherSensitivity{RunsCold: w.RunsCold, RunsHot: w.RunsHot}
	}
	if l := a.Lifestyle; l != nil {
		u.Lifestyle = &models.Lifestyle{WorkEnvironment: l.WorkEnvironment, ActivityLevel: l.ActivityLevel}
	}
	if c := a.ColorPreferences; c != nil {
		u.ColorPreferences = &models.ColorPreferences{Palette: c.Palette, Avoid: c.Avoid}
	}
	return u, nil
}

// NewOnboardCmd creates the onboard command
func NewOnboardCmd() *cobra.Command {
	var (
		file     string
		enhanced bool
	)
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Complete the style questionnaire from a YAML answers file",
		Long: "Complete onboarding from a YAML answers file. The basic questionnaire replaces the " +
			"supplied fields; --enhanced merges into the existing profile.",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read answers: %w", err)
			}
			u, err := parseOnboarding(data)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				complete := app.Store.CompleteOnboarding
				if enhanced {
					complete = app.Store.CompleteOnboardingEnhanced
				}
				if err := complete(ctx, u); err != nil {
					return fmt.Errorf("onboarding failed: %w", err)
				}
				p := app.Store.Snapshot().Profile
				fmt.Fprintf(cmd.OutOrStdout(), "Onboarding complete. Favorite colors: %v\n", p.FavoriteColors)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML answers file")
	cmd.Flags().BoolVar(&enhanced, "enhanced", false, "Merge answers of the extended questionnaire")
	_ = cmd.MarkFlagRequired("file")

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Clear the onboarding flag, keeping wardrobe and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Store.ResetOnboarding(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Onboarding reset. Run 'wardrobe onboard' again.")
				return nil
			})
		},
	})
	return cmd
}
