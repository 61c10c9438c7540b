package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Record how you felt about a trade",
	}
	var (
		positionID int64
		emotion    string
		note       string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a journal entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := current.service.AddJournalEntry(cmd.Context(), positionID, emotion, note)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Journal entry %d saved (%s)\n", e.ID, e.Emotion)
			return nil
		},
	}
	add.Flags().Int64Var(&positionID, "position", 0, "position the entry refers to")
	add.Flags().StringVar(&emotion, "emotion", "", "CALM, CONFIDENT, EXCITED, FOMO, FEAR, GREEDY, REVENGE, ANXIOUS or FRUSTRATED")
	add.Flags().StringVar(&note, "note", "", "free-text note")
	_ = add.MarkFlagRequired("emotion")
	cmd.AddCommand(add)
	return cmd
}
