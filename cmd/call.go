package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/dispatch/internal/catalog"
	"github.com/zjrosen/dispatch/internal/dispatch"
	"github.com/zjrosen/dispatch/internal/presentation"
)

var callCmd = &cobra.Command{
	Use:   "call <key> [arg...]",
	Short: "Dispatch a call to the most specific matching entry",
	Long: `Dispatches a call under the given key with the given arguments and prints
the result as JSON.

Arguments are parsed as shape literals, numbers, booleans, or strings:

  circle:2.5    catalog.Circle with radius 2.5
  square:3      catalog.Square with side 3
  rect:2x3      catalog.Rect 2 wide, 3 high
  42            int
  1.5           float64
  true          bool
  hello         string`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	cleanup, err := initLogging("call")
	if err != nil {
		return err
	}
	defer cleanup()

	reg, provider, err := buildRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()
	defer func() { _ = provider.Shutdown(cmd.Context()) }()

	key := args[0]
	callArgs := make([]any, 0, len(args)-1)
	for _, raw := range args[1:] {
		arg, err := parseArg(raw)
		if err != nil {
			return err
		}
		callArgs = append(callArgs, arg)
	}

	result, err := reg.Dispatch(cmd.Context(), dispatch.Key(key), callArgs...)
	if err != nil {
		return fmt.Errorf("dispatching %q: %w", key, err)
	}

	formatter := presentation.NewFormatter(os.Stdout)
	if err := formatter.FormatCallResult(presentation.CallResultDTO{
		Key:    key,
		Args:   args[1:],
		Result: result,
	}); err != nil {
		return fmt.Errorf("formatting result: %w", err)
	}
	return nil
}

// parseArg turns a CLI argument into a dispatch argument. Shape literals
// take a kind:dimensions form; everything else falls through int, float,
// bool, and finally string.
func parseArg(raw string) (any, error) {
	if kind, rest, ok := strings.Cut(raw, ":"); ok {
		switch kind {
		case "circle":
			r, err := strconv.ParseFloat(rest, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid circle radius %q", rest)
			}
			return catalog.Circle{Radius: r}, nil
		case "square":
			s, err := strconv.ParseFloat(rest, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid square side %q", rest)
			}
			return catalog.Square{Side: s}, nil
		case "rect":
			w, h, ok := strings.Cut(rest, "x")
			if !ok {
				return nil, fmt.Errorf("invalid rect dimensions %q, expected WxH", rest)
			}
			width, err := strconv.ParseFloat(w, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid rect width %q", w)
			}
			height, err := strconv.ParseFloat(h, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid rect height %q", h)
			}
			return catalog.Rect{Width: width, Height: height}, nil
		}
	}

	if i, err := strconv.Atoi(raw); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, nil
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b, nil
	}
	return raw, nil
}
