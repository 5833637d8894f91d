package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Recompute every relative rank from current scores",
		Run:   runRank,
	}

	RootCmd.AddCommand(cmd)
}

func runRank(cmd *cobra.Command, args []string) {
	cfg := loadConfig(false)
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := newEngine(cfg, s, false, nil).Recompute(cmd.Context()); err != nil {
		exitErr("rank", err)
	}
	n, _ := s.Count(cmd.Context())
	fmt.Printf(`{"ok":true,"ranked":%d}`+"\n", n)
}
