package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/benvon/smart-wardrobe/internal/recommend"
)

const defaultOutfitCount = 5

// NewOutfitsCmd creates the outfits command
func NewOutfitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outfits",
		Short: "Generate, accept and review outfits",
	}
	cmd.AddCommand(newOutfitsGenerateCmd())
	cmd.AddCommand(newOutfitsDailyCmd())
	cmd.AddCommand(newOutfitsAcceptCmd())
	cmd.AddCommand(newOutfitsHistoryCmd())
	cmd.AddCommand(newOutfitsDedupeCmd())
	return cmd
}

func newOutfitsGenerateCmd() *cobra.Command {
	var (
		count int
		mode  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Suggest outfits for the current weather",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := recommend.Mode(mode)
			if m != "" && m != recommend.ModeAI && m != recommend.ModeClassic {
				return fmt.Errorf("invalid mode %q (must be ai or classic)", mode)
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				out := cmd.OutOrStdout()
				app.Engine.FetchWeather(ctx)

				res, err := app.Engine.Recommend(ctx, count, m)
				if err != nil {
					return fmt.Errorf("%w: add %s", err, describeMissing(app.Engine.MissingItems()))
				}
				if res.Warning != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", res.Warning)
				}
				printOutfits(out, app.Store.Snapshot(), res.Outfits)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", defaultOutfitCount, "Number of outfits")
	cmd.Flags().StringVar(&mode, "mode", "", "Recommendation mode: ai or classic (default from WARDROBE_RECOMMEND_MODE)")
	return cmd
}

func newOutfitsDailyCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show today's suggestions, generating them once per day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				out := cmd.OutOrStdout()
				app.Engine.FetchWeather(ctx)

				res, err := app.Engine.DailySuggestions(ctx, count)
				if err != nil {
					return fmt.Errorf("%w: add %s", err, describeMissing(app.Engine.MissingItems()))
				}
				if res.Warning != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", res.Warning)
				}

				st := app.Store.Snapshot()
				if st.Weather != nil {
					fmt.Fprintf(out, "Weather: %s\n", describeWeather(st.Weather))
				}
				fmt.Fprintf(out, "Suggestions for %s:\n", res.Suggestions.Date)
				printOutfits(out, st, res.Suggestions.Outfits)
				if len(res.Suggestions.Outfits) == 0 {
					fmt.Fprintln(out, "No new combinations left. Add items or review your history.")
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", defaultOutfitCount, "Number of outfits")
	return cmd
}

func newOutfitsAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <number>",
		Short: "Wear one of today's suggestions and record it in history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid suggestion number %q", args[0])
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				ds := app.Store.Snapshot().DailySuggestions
				if ds == nil || n < 1 || n > len(ds.Outfits) {
					return fmt.Errorf("no suggestion %d; run 'wardrobe outfits daily' first", n)
				}
				o := ds.Outfits[n-1]
				added, err := app.Engine.AcceptOutfit(ctx, o)
				if err != nil {
					return err
				}
				if err := app.Store.SetTodaysPick(ctx, &o); err != nil {
					return err
				}
				if added {
					fmt.Fprintln(cmd.OutOrStdout(), "Added to history.")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Already in history.")
				}
				return nil
			})
		},
	}
}

func newOutfitsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List worn outfits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				out := cmd.OutOrStdout()
				st := app.Store.Snapshot()
				if len(st.OutfitHistory) == 0 {
					fmt.Fprintln(out, "No outfits in history yet.")
					return nil
				}
				printOutfits(out, st, st.OutfitHistory)
				if st.TodaysPick != nil {
					fmt.Fprintf(out, "\nToday's pick: %s\n", describeOutfit(st, *st.TodaysPick))
				}
				return nil
			})
		},
	}
}

func newOutfitsDedupeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Collapse duplicate outfits in history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				removed, err := app.Store.RemoveDuplicateOutfits(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d duplicate outfit(s)\n", removed)
				return nil
			})
		},
	}
}
