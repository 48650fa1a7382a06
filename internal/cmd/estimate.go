// internal/cmd/estimate.go
package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nutrilog/internal/estimate"
)

var estimateJSON bool

var estimateCmd = &cobra.Command{
	Use:   "estimate [text]",
	Short: "Estimate calories for a meal description",
	Long: `Estimate runs the local bilingual estimator over a meal description
and prints the calorie range without storing anything.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().BoolVar(&estimateJSON, "json", false, "Print the full result as JSON")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	result := estimate.New(nil).EstimateText(strings.Join(args, " "))

	if estimateJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	if !result.OK {
		fmt.Println(result.Explanation)
		for _, q := range result.Followups {
			fmt.Printf("  ? %s\n", q)
		}
		return nil
	}

	fmt.Printf("%d kcal (%d-%d, ±%.0f%%)\n",
		result.Kcal.Mid, result.Kcal.Low, result.Kcal.High, result.Kcal.Uncertainty*100)
	fmt.Println(result.Explanation)
	for _, f := range result.Foods {
		fmt.Printf("  - %s %s: %d kcal (%d-%d)\n",
			f.Name, f.Quantity, f.Kcal.Mid, f.Kcal.Low, f.Kcal.High)
	}
	for _, q := range result.Followups {
		fmt.Printf("  ? %s\n", q)
	}
	return nil
}
