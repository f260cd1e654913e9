package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxhq/mclint/analysis"
)

func newMetricsCmd() *cobra.Command {
	var (
		dialect string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "metrics <file>",
		Short: "Estimate send-time performance for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			d, ok := dialectFor(file, dialect)
			if !ok {
				return fmt.Errorf("cannot detect dialect for %s; pass --dialect", file)
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			m := analysis.NewDefault().AnalyzePerformance(string(data), d)

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(m)
			}

			fmt.Printf("%s [%s]\n", bold(file), d)
			fmt.Printf("  cyclomatic complexity: %d\n", m.Complexity.Cyclomatic)
			fmt.Printf("  cognitive complexity:  %d\n", m.Complexity.Cognitive)
			fmt.Printf("  nesting depth:         %d\n", m.Complexity.NestingDepth)
			fmt.Printf("  lines of code:         %d\n", m.Complexity.LinesOfCode)
			fmt.Printf("  loop complexity:       %d\n", m.LoopComplexity)
			fmt.Printf("  data/API calls:        %d\n", m.APICallCount)
			fmt.Printf("  est. memory:           %.0f bytes\n", m.MemoryUsage.EstimatedBytes)
			fmt.Printf("  est. execution time:   %.2f ms\n", m.EstimatedExecutionTimeMs)

			if len(m.Recommendations) > 0 {
				fmt.Println("  recommendations:")
				for _, r := range m.Recommendations {
					fmt.Printf("    %s [%s] %s\n", cyan(string(r.Kind)), r.Impact, r.Message)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dialect, "dialect", "d", "", "force a dialect (ampscript, ssjs, sql)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit JSON instead of text")

	return cmd
}
