package commands

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/balkashynov/taskdeck/internal/config"
	"github.com/balkashynov/taskdeck/internal/db"
	"github.com/balkashynov/taskdeck/internal/server"
)

var (
	serveAddr string
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the taskdeck API server",
	Long: `Start the HTTP API server.

Examples:
  taskdeck serve
  taskdeck serve --addr :9090 --db ./taskdeck.db`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "SQLite database path (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveDB != "" {
		cfg.DBPath = serveDB
	}

	gin.SetMode(cfg.Mode)

	if err := db.Initialize(cfg.DBPath); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Starting taskdeck API at http://localhost%s\n", cfg.Addr)
	return server.NewServer().Run(cfg.Addr)
}
