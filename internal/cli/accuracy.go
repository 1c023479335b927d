package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/diligence/internal/accuracy"
	"github.com/ppiankov/diligence/internal/insight"
	"github.com/ppiankov/diligence/internal/render"
)

type accuracyOutput struct {
	Metrics  accuracy.Metrics `json:"metrics"`
	Insights []string         `json:"insights"`
}

var accuracyCmd = &cobra.Command{
	Use:   "accuracy <history.json>",
	Short: "Compute accuracy metrics over historical DD decisions",
	Long: `Accuracy reads historical decisions, claim verification outcomes and
signal history and reports prediction accuracy, confidence calibration,
partner overrides, signal effectiveness, claim verification accuracy,
drift and weekly performance, followed by insights.

Narrative insights are used when analysis.narrative is enabled and the
model answers; otherwise rule-based insights are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		var in accuracy.Input
		if err := json.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		suite, err := buildSuite(cfg)
		if err != nil {
			return err
		}

		m := accuracy.Compute(in)
		insights := insight.NewGenerator(suite.Narrator).Generate(signalContext(cmd), m)
		return render.NewRenderer().WriteJSON(cmd.OutOrStdout(), accuracyOutput{Metrics: m, Insights: insights})
	},
}

func init() {
	rootCmd.AddCommand(accuracyCmd)
}
