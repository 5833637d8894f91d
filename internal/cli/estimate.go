package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/experience-rank/internal/ranking"
)

func init() {
	cmd := &cobra.Command{
		Use:   "estimate [text]",
		Short: "Score a new experience",
		Long:  "Score and store an experience. Text can be a positional arg or piped via stdin.",
		Run:   runEstimate,
	}

	RootCmd.AddCommand(cmd)
}

func runEstimate(cmd *cobra.Command, args []string) {
	// Get text: positional arg first, then check stdin
	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			text = string(b)
		}
	}

	if strings.TrimSpace(text) == "" {
		exitErr("estimate", fmt.Errorf("text is required (positional arg or stdin)"))
	}

	cfg := loadConfig(true)
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res, err := newEngine(cfg, s, true, nil).Estimate(cmd.Context(), text)
	if err != nil {
		exitErr("estimate", err)
	}

	if formatFlag == "text" {
		printStanding(&res.Standing)
		fmt.Printf("source: %s (similarity %.3f)\n", res.Source, res.Similarity)
		return
	}
	b, _ := json.MarshalIndent(standingJSON(&res.Standing), "", "  ")
	fmt.Println(string(b))
}

type standingOutput struct {
	Experience any `json:"experience"`
	Adjacent   struct {
		Lower  any `json:"lower"`
		Higher any `json:"higher"`
	} `json:"adjacent"`
	TotalCount int `json:"total_count"`
}

func standingJSON(st *ranking.Standing) standingOutput {
	var out standingOutput
	out.Experience = st.Experience.Summary()
	out.Adjacent.Lower = st.Lower.Summary()
	out.Adjacent.Higher = st.Higher.Summary()
	out.TotalCount = st.Total
	return out
}

func printStanding(st *ranking.Standing) {
	e := st.Experience
	fmt.Printf("%s  score %.2f  rank %.1f/100  (%d total)\n", e.ID, e.DifficultyScore, e.RelativeRank, st.Total)
	fmt.Printf("  %s\n", e.Text)
	if st.Lower != nil {
		fmt.Printf("  easier: %s (%.2f) %s\n", st.Lower.ID, st.Lower.DifficultyScore, st.Lower.Text)
	}
	if st.Higher != nil {
		fmt.Printf("  harder: %s (%.2f) %s\n", st.Higher.ID, st.Higher.DifficultyScore, st.Higher.Text)
	}
}
