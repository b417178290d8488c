package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/dcshock/sewer/pipeline"
)

var (
	runJSON    bool
	runTimeout time.Duration
	runID      string

	runCmd = &cobra.Command{
		Use:   "run <system> [input]",
		Short: "Pump one value through a system",
		Long: `Pump one value through a system and print the final result as JSON.

The input is taken as a string unless --json is set. Use "-" or omit it to
read the input from stdin. A stage failure the system does not handle exits
non-zero.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := "-"
			if len(args) > 1 {
				raw = args[1]
			}
			return runSystem(cmd, args[0], raw)
		},
	}
)

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "decode the input as JSON")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Second, "how long to wait for the result")
	runCmd.Flags().StringVar(&runID, "run-id", "", "run ID (default a new UUID)")
}

type runOutput struct {
	RunID     string `json:"run_id"`
	System    string `json:"system"`
	Kind      string `json:"kind"`
	Stage     string `json:"stage"`
	Value     any    `json:"value,omitempty"`
	Discarded any    `json:"discarded,omitempty"`
	Error     string `json:"error,omitempty"`
}

func runSystem(cmd *cobra.Command, name, raw string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sys, err := a.system(name)
	if err != nil {
		return err
	}
	in, err := readInput(cmd.InOrStdin(), raw, runJSON)
	if err != nil {
		return err
	}

	id := runID
	if id == "" {
		id = uuid.New().String()
	}
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()
	res, err := sys.PumpWithOptions(ctx, in, &pipeline.PumpOptions{RunID: id}).Await(ctx)
	if err != nil {
		return errors.Wrapf(err, "run %s %s", name, id)
	}

	out := runOutput{RunID: id, System: sys.Name(), Kind: res.Kind().String(), Stage: res.Name()}
	switch {
	case res.Succeeded():
		out.Value = res.Value()
	case res.IsFilteredAfter():
		out.Discarded = res.Discarded()
	case res.IsFailed():
		out.Error = res.Err().Error()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(out), "write result")
}

func readInput(stdin io.Reader, raw string, decode bool) (any, error) {
	if raw == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "read stdin")
		}
		raw = string(b)
	}
	if !decode {
		return raw, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, errors.Wrap(err, "decode input")
	}
	return v, nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
