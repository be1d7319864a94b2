package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simsapa/simsapa-sub001/app/server"
)

var (
	serveAddress string
	servePort    int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API on a local port",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if cmd.Flags().Changed("address") {
			a.conf.Server.Address = serveAddress
		}
		if cmd.Flags().Changed("port") {
			a.conf.Server.Port = servePort
		}

		e := server.NewServer(server.NewSearchController(a.svc), a.conf)
		return server.StartServer(ctx, e, a.conf)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddress, "address", "a", "127.0.0.1", "address to bind, overrides the config")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 4848, "port to bind, overrides the config")
	rootCmd.AddCommand(serveCmd)
}
