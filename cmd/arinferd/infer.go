package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"arinfer/pkg/types"
)

type inferOptions struct {
	model     string
	text      string
	maxTokens int
	timeout   time.Duration
	embed     bool
}

// newInferCmd runs a single request against the configured topology in
// process and prints the response as JSON.
func newInferCmd(root *rootOptions) *cobra.Command {
	opts := &inferOptions{}
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Run one inference request locally and print the response",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.model == "" {
				return fmt.Errorf("--model is required")
			}
			cfg, err := root.load()
			if err != nil {
				return err
			}
			sel, part, err := buildTopology(cfg)
			if err != nil {
				return err
			}
			coord := newCoordinator(cfg, sel, part, root.logger(cfg))
			resp := coord.Infer(cmd.Context(), types.InferenceRequest{
				ModelName: opts.model,
				Input:     types.TextInput(opts.text),
				Parameters: types.Parameters{
					MaxTokens:    opts.maxTokens,
					MaxLatencyMs: opts.timeout.Milliseconds(),
					Embed:        opts.embed,
				},
			})
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
			if resp.Outcome != types.OutcomeCompleted {
				return fmt.Errorf("inference %s: %s", resp.Outcome, resp.Output.Error)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.model, "model", "m", "", "Model name")
	f.StringVarP(&opts.text, "text", "t", "", "Text prompt")
	f.IntVar(&opts.maxTokens, "max-tokens", 0, "Maximum tokens to generate (0 uses the default)")
	f.DurationVar(&opts.timeout, "timeout", 0, "Latency bound for the request (0 uses the configured default)")
	f.BoolVar(&opts.embed, "embed", false, "Return the final hidden state instead of text")
	return cmd
}
