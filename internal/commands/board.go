package commands

import (
	"github.com/spf13/cobra"

	"github.com/balkashynov/taskdeck/internal/api"
	"github.com/balkashynov/taskdeck/internal/config"
	"github.com/balkashynov/taskdeck/internal/tui"
)

var boardAPIURL string

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the terminal task board",
	Long: `Open the interactive board against a running taskdeck server.

Examples:
  taskdeck board
  taskdeck board --api http://localhost:9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if boardAPIURL != "" {
			cfg.APIURL = boardAPIURL
		}

		return tui.RunBoard(api.NewClient(cfg.APIURL))
	},
}

func init() {
	boardCmd.Flags().StringVar(&boardAPIURL, "api", "", "API base URL (overrides config)")
}
