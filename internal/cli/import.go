package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rcliao/experience-rank/internal/model"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import experiences from JSON",
		Long:  "Import experiences from JSON on stdin. Expects the format produced by export. Ids are reassigned and ranks recomputed.",
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	var experiences []model.Experience
	if err := json.Unmarshal(data, &experiences); err != nil {
		exitErr("parse json", err)
	}

	cfg := loadConfig(false)
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := newEngine(cfg, s, false, nil).Import(cmd.Context(), experiences)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"imported":%d}`+"\n", imported)
}
