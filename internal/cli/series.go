package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"liquidity-lag/internal/config"
	apperrors "liquidity-lag/internal/errors"
	"liquidity-lag/internal/logging"
	"liquidity-lag/internal/models"
	"liquidity-lag/internal/report"
	"liquidity-lag/internal/store"
)

func newSeriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "Manage stored time series",
		Long:  "Import, list, show and delete the index and asset series used by correlate.",
	}

	cmd.AddCommand(newSeriesImportCmd(app))
	cmd.AddCommand(newSeriesListCmd(app))
	cmd.AddCommand(newSeriesShowCmd(app))
	cmd.AddCommand(newSeriesDeleteCmd(app))

	return cmd
}

func newSeriesImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <name> <file.json>",
		Short: "Import a series from a JSON file",
		Long: `Import a series from a JSON array of points, replacing any stored series
with the same name. Timestamps are RFC 3339 or YYYY-MM-DD; a null value marks
a missing observation. An empty array is rejected; use 'series delete' to
remove a series.

  [{"timestamp": "2020-01-01", "value": 15.4}, {"timestamp": "2020-02-01", "value": null}]

Use '-' as the file to read from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := strings.TrimSpace(args[0]), args[1]

			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return apperrors.NewDataError("file", name, "cannot open "+path, err)
				}
				defer f.Close()
				r = f
			}

			points, err := decodePoints(r)
			if err != nil {
				return apperrors.NewDataError("file", name, "cannot decode "+path, err)
			}
			if len(points) == 0 {
				return apperrors.NewValidationError("points", path, "file contains no points")
			}
			series, err := models.NewSeries(name, points)
			if err != nil {
				return err
			}

			return app.withStore(cmd, func(st store.SeriesStore) error {
				began := time.Now()
				err := st.SaveSeries(cmd.Context(), series)
				logging.LogStoreCall(app.Logger, "save", name, time.Since(began), err)
				if err != nil {
					return err
				}

				output := NewOutput(cmd, app.Config.UI.ColorEnabled)
				if output.IsJSON() {
					return output.JSON(map[string]interface{}{"name": name, "points": series.Len()})
				}
				output.Success("✓ Imported %d points into %s", series.Len(), name)
				return nil
			})
		},
	}
}

func newSeriesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored series",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd, func(st store.SeriesStore) error {
				infos, err := st.ListSeries(cmd.Context())
				if err != nil {
					return err
				}

				output := NewOutput(cmd, app.Config.UI.ColorEnabled)
				if output.IsJSON() {
					if infos == nil {
						infos = []store.SeriesInfo{}
					}
					return output.JSON(infos)
				}
				if len(infos) == 0 {
					output.Warning("No series stored. Import one with 'liquidity-lag series import'.")
					return nil
				}

				layout := app.Config.UI.DateFormat
				table := output.NewTable("Name", "Points", "Missing", "First", "Last").AlignRight(1, 2)
				for _, info := range infos {
					table.AddRow(
						info.Name,
						fmt.Sprintf("%d", info.Points),
						fmt.Sprintf("%d", info.Missing),
						report.FormatDate(info.First, layout),
						report.FormatDate(info.Last, layout),
					)
				}
				table.Render()
				return nil
			})
		},
	}
}

func newSeriesShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print a stored series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dateRange, err := seriesRange(cmd)
			if err != nil {
				return err
			}

			return app.withStore(cmd, func(st store.SeriesStore) error {
				series, err := st.LoadSeries(cmd.Context(), args[0], dateRange)
				if err != nil {
					return err
				}
				if series.Len() == 0 {
					return apperrors.NewDataError("series", args[0], "no points in the requested range", apperrors.ErrDataNotFound)
				}

				output := NewOutput(cmd, app.Config.UI.ColorEnabled)
				if output.IsJSON() {
					return output.JSON(series)
				}

				output.Bold("%s (%d points)", series.Name(), series.Len())
				table := output.NewTable("Date", "Value").AlignRight(1)
				for _, p := range series.Points() {
					table.AddRow(report.FormatDate(p.Timestamp, app.Config.UI.DateFormat), report.FormatValue(p.Value))
				}
				table.Render()
				return nil
			})
		},
	}

	cmd.Flags().String("from", "", "first date to include, YYYY-MM-DD")
	cmd.Flags().String("to", "", "last date to include, YYYY-MM-DD")

	return cmd
}

func newSeriesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withStore(cmd, func(st store.SeriesStore) error {
				if err := st.DeleteSeries(cmd.Context(), args[0]); err != nil {
					return err
				}
				output := NewOutput(cmd, app.Config.UI.ColorEnabled)
				if output.IsJSON() {
					return output.JSON(map[string]string{"deleted": args[0]})
				}
				output.Success("✓ Deleted %s", args[0])
				return nil
			})
		},
	}
}

// seriesRange parses optional --from/--to flags into a date range.
func seriesRange(cmd *cobra.Command) (models.DateRange, error) {
	var r models.DateRange
	var err error
	from, _ := cmd.Flags().GetString("from")
	if r.Start, err = config.ParseDate(from); err != nil {
		return r, apperrors.NewValidationError("from", from, err.Error())
	}
	to, _ := cmd.Flags().GetString("to")
	if r.End, err = config.ParseDate(to); err != nil {
		return r, apperrors.NewValidationError("to", to, err.Error())
	}
	return r, r.Validate()
}

type importPoint struct {
	Timestamp string   `json:"timestamp"`
	Value     *float64 `json:"value"`
}

// decodePoints reads a JSON array of points. Timestamps may be RFC 3339 or
// plain dates; null values become missing observations.
func decodePoints(r io.Reader) ([]models.Point, error) {
	var raw []importPoint
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	points := make([]models.Point, len(raw))
	for i, p := range raw {
		ts, err := parseTimestamp(p.Timestamp)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("points[%d].timestamp", i), p.Timestamp, err.Error())
		}
		points[i] = models.Point{Timestamp: ts, Value: math.NaN()}
		if p.Value != nil {
			points[i].Value = *p.Value
		}
	}
	return points, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return config.ParseDate(s)
}
