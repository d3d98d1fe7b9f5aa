package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/benvon/smart-wardrobe/internal/engine"
	"github.com/benvon/smart-wardrobe/internal/imaging"
	"github.com/benvon/smart-wardrobe/internal/models"
	"github.com/benvon/smart-wardrobe/internal/store"
)

// NewUploadCmd creates the upload command
func NewUploadCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "upload <image>...",
		Short: "Add clothing photos to the wardrobe",
		Long: "Preprocess photos (format conversion, resize, background removal, color extraction), " +
			"classify them with the analysis service and add them to the wardrobe. Files the service " +
			"could not classify take --category, or are prompted for on a terminal.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fallback *models.Category
			if category != "" {
				c := models.Category(category)
				if !c.Valid() {
					return fmt.Errorf("invalid category %q", category)
				}
				fallback = &c
			}

			uploads := make([]engine.Upload, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				uploads = append(uploads, engine.Upload{
					Name:     filepath.Base(path),
					Data:     data,
					MimeType: imaging.DetectMimeType(data),
				})
			}

			return withApp(cmd, func(ctx context.Context, app *App) error {
				out := cmd.OutOrStdout()
				summary, err := app.Engine.AddBatchFiles(ctx, uploads)
				if errors.Is(err, store.ErrQueueFull) {
					return fmt.Errorf("%w: upload at most %d photos at a time", err, app.Store.MaxQueueSize())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Preprocessed %d/%d photos (%d failed)\n", summary.Success, summary.Total, summary.Errors)
				if summary.Cancelled {
					fmt.Fprintln(out, "Cancelled before every photo was processed.")
				}

				interactive := fallback == nil && term.IsTerminal(int(os.Stdin.Fd()))
				if err := assignMissing(app, out, bufio.NewReader(cmd.InOrStdin()), fallback, interactive); err != nil {
					return err
				}

				committed, err := app.Engine.StartBatchUpload(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Added %d item(s) to the wardrobe\n", committed.Success)

				for _, f := range app.Store.Snapshot().Batch.Queue {
					reason := f.Error
					if reason == "" {
						reason = "no category"
					}
					fmt.Fprintf(out, "  skipped %s: %s\n", f.Name, reason)
				}
				app.Engine.ClearQueue()
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category for photos the analysis service could not classify")
	return cmd
}

// assignMissing gives every ready, uncategorized file a category, either the
// fallback or one read from in
func assignMissing(app *App, out io.Writer, in *bufio.Reader, fallback *models.Category, interactive bool) error {
	for _, f := range app.Store.Snapshot().Batch.Queue {
		if f.Status != models.FileStatusReady || f.Category != nil {
			continue
		}
		if fallback != nil {
			if err := app.Engine.AssignCategory(f.ID, *fallback); err != nil {
				return err
			}
			continue
		}
		if !interactive {
			continue
		}
		c, err := promptCategory(out, in, f)
		if err != nil {
			return err
		}
		if c == "" {
			continue
		}
		if err := app.Engine.AssignCategory(f.ID, c); err != nil {
			return err
		}
	}
	return nil
}

func promptCategory(out io.Writer, in *bufio.Reader, f models.QueuedFile) (models.Category, error) {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	for {
		fmt.Fprintf(out, "Category for %s (colors %v) [%s, empty to skip]: ", f.Name, f.Colors, strings.Join(names, "/"))
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		c := models.Category(strings.ToLower(strings.TrimSpace(line)))
		if c == "" || c.Valid() {
			return c, nil
		}
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		fmt.Fprintf(out, "Unknown category %q\n", c)
	}
}
