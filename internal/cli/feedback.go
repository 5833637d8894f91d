package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/experience-rank/internal/ranking"
)

func init() {
	cmd := &cobra.Command{
		Use:   "feedback <id>",
		Short: "Judge an experience against its neighbors",
		Long:  "Record whether an experience is harder than its easier neighbor and easier than its harder neighbor, then adjust its score and re-rank.",
		Args:  cobra.ExactArgs(1),
		Run:   runFeedback,
	}

	cmd.Flags().Bool("more-than-lower", false, "The experience is harder than its easier neighbor")
	cmd.Flags().Bool("less-than-higher", false, "The experience is easier than its harder neighbor")

	RootCmd.AddCommand(cmd)
}

func runFeedback(cmd *cobra.Command, args []string) {
	more, _ := cmd.Flags().GetBool("more-than-lower")
	less, _ := cmd.Flags().GetBool("less-than-higher")

	cfg := loadConfig(false)
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	updated, err := newEngine(cfg, s, false, nil).Feedback(cmd.Context(), ranking.FeedbackParams{
		ExperienceID:              args[0],
		IsMoreDifficultThanLower:  more,
		IsLessDifficultThanHigher: less,
	})
	if err != nil {
		exitErr("feedback", err)
	}

	b, _ := json.MarshalIndent(updated.Summary(), "", "  ")
	fmt.Println(string(b))
}
