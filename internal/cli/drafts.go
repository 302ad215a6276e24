package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"signalconfig/internal/app"
	"signalconfig/internal/clock"
	"signalconfig/internal/domain"
	"signalconfig/internal/draftstore"
	"signalconfig/internal/storage"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// DraftsCmd groups draft inspection commands over the configured storage.
func DraftsCmd(flags *configFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect drafts in local storage",
	}
	cmd.AddCommand(draftsListCmd(flags), draftsShowCmd(flags))
	return cmd
}

func openConfiguredStorage(flags *configFlags) (storage.Storage, error) {
	cfg, err := flags.load()
	if err != nil {
		return nil, err
	}
	return app.OpenStorage(cfg, clock.RealClock{})
}

func draftsListCmd(flags *configFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored drafts with a signal name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openConfiguredStorage(flags)
			if err != nil {
				return err
			}
			defer backend.Close()

			drafts, err := draftstore.ListDrafts(cmd.Context(), backend)
			if err != nil {
				return err
			}
			for _, draft := range drafts {
				status := "draft"
				if draft.Signal.IsComplete {
					status = "complete"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", draft.Key, draft.Signal.SignalName, status)
			}
			return nil
		},
	}
}

func draftsShowCmd(flags *configFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Print one stored draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("--output must be json or yaml, got %q", output)
			}
			backend, err := openConfiguredStorage(flags)
			if err != nil {
				return err
			}
			defer backend.Close()

			raw, err := backend.GetItem(cmd.Context(), args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("draft %q not found", args[0])
			}
			if err != nil {
				return err
			}
			signal, err := domain.DecodeSignal([]byte(raw))
			if err != nil {
				return err
			}
			body, err := renderDraft(signal, output)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

// renderDraft encodes a draft keeping the storage record field names in both formats.
func renderDraft(signal domain.SignalConfigData, output string) ([]byte, error) {
	body, err := json.MarshalIndent(signal, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	if output == "json" {
		return append(body, '\n'), nil
	}
	var generic map[string]any
	if err := json.Unmarshal(body, &generic); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("encode draft yaml: %w", err)
	}
	return out, nil
}
