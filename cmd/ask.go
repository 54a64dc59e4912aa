// File: cmd/ask.go
package cmd

import (
	"fmt"
	"io"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/graphchat/text2cypher/internal/config"
	"github.com/graphchat/text2cypher/internal/observability"
	"github.com/graphchat/text2cypher/internal/pipeline"
	"github.com/graphchat/text2cypher/internal/service"
)

// newAskCmd creates the `ask` command: one question through the two-stage
// pipeline, printed stage by stage.
func newAskCmd() *cobra.Command {
	askCmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Translates one natural-language question to Cypher and runs it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				return fmt.Errorf("failed to unmarshal config: %w", err)
			}

			app, err := service.Build(ctx, &cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer app.Shutdown(ctx)

			if app.Flow == nil {
				return fmt.Errorf("LLM client unavailable; check llm.api_key (TEXT2CYPHER_LLM_API_KEY)")
			}

			question := strings.Join(args, " ")
			state, err := app.Flow.Run(ctx, question, app.SchemaText)
			if err != nil {
				return fmt.Errorf("pipeline failed: %w", err)
			}

			execute, _ := cmd.Flags().GetBool("execute")
			var rows []map[string]any
			if execute {
				rows, err = app.Executor.Run(ctx, state.Query.Cypher, state.Query.Params)
				if err != nil {
					return fmt.Errorf("query execution failed: %w", err)
				}
			}
			return renderAskResult(cmd.OutOrStdout(), state, rows, execute)
		},
	}

	askCmd.Flags().BoolP("execute", "x", true, "Run the generated query against Neo4j and print the rows (disable with --execute=false)")
	return askCmd
}

// renderAskResult prints the pipeline stages followed by the rows section: the
// rows themselves, or a no-rows notice when execution came back empty. Without
// a configured driver execution yields no rows, so the notice still prints.
func renderAskResult(out io.Writer, state *pipeline.FlowState, rows []map[string]any, executed bool) error {
	extractionJSON, err := json.MarshalIndent(state.Extraction, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render extraction: %w", err)
	}
	paramsJSON, err := json.MarshalIndent(state.Query.Params, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render params: %w", err)
	}

	fmt.Fprintln(out, "Extraction:")
	fmt.Fprintln(out, string(extractionJSON))
	fmt.Fprintln(out, "\nCypher:")
	fmt.Fprintln(out, state.Query.Cypher)
	fmt.Fprintln(out, "\nParams:")
	fmt.Fprintln(out, string(paramsJSON))

	if !executed {
		return nil
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "\nNo rows returned.")
		return nil
	}
	rowsJSON, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render rows: %w", err)
	}
	fmt.Fprintf(out, "\nRows (%d):\n%s\n", len(rows), string(rowsJSON))
	return nil
}
