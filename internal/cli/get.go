package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show an experience with its neighbors",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().Bool("comparisons", false, "Include recorded feedback")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	withComparisons, _ := cmd.Flags().GetBool("comparisons")

	cfg := loadConfig(false)
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	st, err := newEngine(cfg, s, false, nil).Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}

	if formatFlag == "text" {
		printStanding(st)
		return
	}

	out := map[string]any{
		"experience":  st.Experience,
		"adjacent":    standingJSON(st).Adjacent,
		"total_count": st.Total,
	}
	if withComparisons {
		comps, err := s.Comparisons(cmd.Context(), st.Experience.ID)
		if err != nil {
			exitErr("comparisons", err)
		}
		out["comparisons"] = comps
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
