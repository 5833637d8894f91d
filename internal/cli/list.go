package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rcliao/experience-rank/internal/model"
	"github.com/rcliao/experience-rank/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List experiences, hardest first",
		Run:   runList,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore(loadConfig(false))
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	experiences, err := s.List(cmd.Context(), store.ListParams{Limit: limit})
	if err != nil {
		exitErr("list", err)
	}
	printExperiences(experiences)
}

func printExperiences(experiences []model.Experience) {
	if formatFlag == "text" {
		for _, e := range experiences {
			fmt.Printf("%5.1f  %6.2f  %s  %s\n", e.RelativeRank, e.DifficultyScore, e.ID, e.Text)
		}
		return
	}

	out := make([]*model.Summary, 0, len(experiences))
	for i := range experiences {
		out = append(out, experiences[i].Summary())
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
