package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashtra-audio/ashtra/internal/devserver"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local stand-in for the podcast backend",
	Long: paragraph(fmt.Sprintf("\nRun a %s that answers /chat, /history and /audio with "+
		"synthesized tones, so the player can be tried without the real backend.", keyword("local backend"))),
	Example: paragraph("ashtra devserver\nashtra devserver --addr localhost:5011 --dir ./sessions"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		dir, _ := cmd.Flags().GetString("dir")
		public, _ := cmd.Flags().GetString("public-url")
		debug, _ := cmd.Flags().GetBool("debug")

		// The TUI logs to a file; the dev server logs to the terminal.
		logger := log.NewWithOptions(os.Stderr, log.Options{
			Prefix:          "devserver",
			ReportTimestamp: true,
		})
		if debug {
			logger.SetLevel(log.DebugLevel)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		srv, err := devserver.New(devserver.Config{
			Addr:      addr,
			Dir:       dir,
			PublicURL: public,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("unable to start dev server: %w", err)
		}
		logger.Info("serving sessions", "dir", srv.SessionDir())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("dev server: %w", err)
		}
		return nil
	},
}

func init() {
	devserverCmd.Flags().String("addr", devserver.DefaultAddr, "listen address")
	devserverCmd.Flags().String("dir", "", "session library directory (default: a temporary directory)")
	devserverCmd.Flags().String("public-url", "", "base URL written into segment urls (default: http://ADDR)")
	devserverCmd.Flags().Bool("debug", false, "verbose request logging")
}
