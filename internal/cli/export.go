package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export experiences as JSON",
		Long:  "Export every experience, including embeddings and detailed scores, as a JSON array.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	s, err := openStore(loadConfig(false))
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	experiences, err := s.ExportAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}

	b, _ := json.MarshalIndent(experiences, "", "  ")
	fmt.Println(string(b))
}
