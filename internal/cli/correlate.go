package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"liquidity-lag/internal/analysis"
	"liquidity-lag/internal/config"
	apperrors "liquidity-lag/internal/errors"
	"liquidity-lag/internal/report"
	"liquidity-lag/internal/store"
)

func newCorrelateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "correlate [asset]",
		Short: "Correlate an asset against the index across lags",
		Long: `Correlate the index series against the asset shifted back by 1..max-lag
steps and report every coefficient, the optimal lag and the scatter at that lag.

Without an asset argument the configured default asset is used.`,
		Example: `  liquidity-lag correlate SPY
  liquidity-lag correlate BTC --max-lag 24 --from 2015-01-01
  liquidity-lag correlate GLD --index M2SL --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := app.correlateRequest(cmd, args)
			if err != nil {
				return err
			}

			output := NewOutput(cmd, app.Config.UI.ColorEnabled)
			if !app.Config.HasAsset(req.Asset) && len(app.Config.Assets.Symbols) > 0 && !output.IsJSON() {
				output.Warning("%s is not in the configured asset list", req.Asset)
			}

			return app.withStore(cmd, func(st store.SeriesStore) error {
				engine := analysis.NewEngine(st, app.Logger)
				result, err := engine.Recompute(cmd.Context(), req)
				if result != nil {
					if rerr := app.reporter(output).Report(result); rerr != nil {
						return rerr
					}
				}
				return err
			})
		},
	}

	cmd.Flags().String("index", "", "index series name (default: analysis.index_series)")
	cmd.Flags().Int("max-lag", 0, "largest lag to evaluate (default: analysis.max_lag)")
	cmd.Flags().String("from", "", "first date to include, YYYY-MM-DD")
	cmd.Flags().String("to", "", "last date to include, YYYY-MM-DD")
	cmd.Flags().Int("window", 0, "moving average window (default: analysis.moving_average_window)")

	return cmd
}

// correlateRequest builds a request from configuration overridden by flags.
func (app *App) correlateRequest(cmd *cobra.Command, args []string) (analysis.Request, error) {
	cfg, err := app.Config.AnalysisDefaults()
	if err != nil {
		return analysis.Request{}, err
	}

	req := analysis.Request{
		Asset:  app.Config.Assets.Default,
		Index:  app.Config.Analysis.IndexSeries,
		Config: cfg,
	}
	if len(args) == 1 {
		req.Asset = strings.TrimSpace(args[0])
	}
	if req.Asset == "" {
		return req, apperrors.NewValidationError("asset", req.Asset, "no asset given and assets.default is not set")
	}

	flags := cmd.Flags()
	if flags.Changed("index") {
		req.Index, _ = flags.GetString("index")
	}
	if flags.Changed("max-lag") {
		req.Config.MaxLag, _ = flags.GetInt("max-lag")
	}
	if flags.Changed("window") {
		req.Config.MovingAverageWindow, _ = flags.GetInt("window")
	}
	if flags.Changed("from") {
		s, _ := flags.GetString("from")
		if req.Config.DateRange.Start, err = config.ParseDate(s); err != nil {
			return req, apperrors.NewValidationError("from", s, err.Error())
		}
	}
	if flags.Changed("to") {
		s, _ := flags.GetString("to")
		if req.Config.DateRange.End, err = config.ParseDate(s); err != nil {
			return req, apperrors.NewValidationError("to", s, err.Error())
		}
	}

	return req, nil
}

func (app *App) reporter(output *Output) report.Reporter {
	if output.IsJSON() {
		return report.NewJSONReporter(output.Writer())
	}
	return report.NewTerminalReporter(output.Writer(), report.TerminalOptions{
		ColorEnabled: output.ColorEnabled(),
		DateFormat:   app.Config.UI.DateFormat,
		MaxRows:      app.Config.UI.MaxRows,
	})
}
