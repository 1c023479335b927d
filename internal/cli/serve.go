package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/diligence/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the DD HTTP API",
	Long: `Serve exposes DD runs, reports, audit logs and accuracy metrics over HTTP:

  GET  /health
  GET  /api/applications
  POST /api/applications
  GET  /api/applications/{id}/dd          status
  POST /api/applications/{id}/dd          run (?force=true)
  GET  /api/applications/{id}/dd/report   latest report
  GET  /api/applications/{id}/dd/runs     audit log
  POST /api/accuracy                      accuracy metrics and insights`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		addr := rt.cfg.Server.Addr
		fmt.Fprintf(os.Stderr, "Serving DD API on %s (mode: %s, store: %s)\n", addr, rt.suite.Mode, rt.cfg.Store.Driver)

		srv := api.NewServer(rt.dd, rt.store, rt.insights, Version)
		return srv.ListenAndServe(signalContext(cmd), addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}
