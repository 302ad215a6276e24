package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"signalconfig/internal/domain"
	"signalconfig/internal/validation"

	"github.com/spf13/cobra"
)

var errDraftInvalid = errors.New("draft has validation errors")

// ValidateCmd checks one stored draft record file.
func ValidateCmd() *cobra.Command {
	var rules string
	cmd := &cobra.Command{
		Use:   "validate <file.json>",
		Short: "Validate a draft record and print section errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read draft file: %w", err)
			}
			data, err := domain.DecodeSignal(raw)
			if err != nil {
				return err
			}
			ruleSet := validation.BasicRules
			switch rules {
			case "basic":
			case "draft":
				ruleSet = validation.DraftRules
			default:
				return fmt.Errorf("--rules must be basic or draft, got %q", rules)
			}

			state := validation.Evaluate(data, ruleSet)
			printState(cmd.OutOrStdout(), state)
			if !state.IsValid {
				return errDraftInvalid
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rules, "rules", "basic", "rule set: basic or draft")
	return cmd
}

func printState(out io.Writer, state validation.State) {
	for _, name := range domain.Sections() {
		section, _ := state.Section(name)
		mark := "ok"
		if !section.IsValid {
			mark = "invalid"
		} else if !section.IsComplete {
			mark = "incomplete"
		}
		fmt.Fprintf(out, "%s\t%s\n", name, mark)
		for _, problem := range section.Errors {
			fmt.Fprintf(out, "  %s: %s\n", problem.Field, problem.Message)
		}
	}
	fmt.Fprintf(out, "total errors: %d\n", state.TotalErrors)
}
