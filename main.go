package main

import (
	"fmt"
	"os"

	"github.com/go-i2p/embedded-router/lib/config"
	"github.com/go-i2p/embedded-router/lib/embedded"
	"github.com/go-i2p/embedded-router/lib/util"
	"github.com/go-i2p/embedded-router/lib/util/signals"
	"github.com/go-i2p/logger"
	"github.com/spf13/cobra"
)

var log = logger.GetGoI2PLogger()

var rootCmd = &cobra.Command{
	Use:   "embedded-router",
	Short: "Run the embeddable I2P router standalone",
	Long: "embedded-router runs the same router core that the C bindings expose,\n" +
		"as a standalone process: SAM bridge on loopback, transit disabled.\n" +
		"It runs until interrupted.",
	Run: runRouter,
}

func init() {
	cobra.OnInitialize(config.InitConfig)
	rootCmd.PersistentFlags().StringVar(&config.CfgFile, "config", "",
		"config file (default is $HOME/.embedded-router/config.yaml)")
}

func runRouter(cmd *cobra.Command, args []string) {
	cfg := config.NewRouterConfigFromViper()
	log.Debug("starting up embedded router")

	r := embedded.New(embedded.WithConfig(cfg))
	util.RegisterCloser(r)

	if code := r.Start(); code != embedded.Success {
		log.Errorf("failed to start router: code %d", code)
		os.Exit(1)
	}

	if r.SamAvailable() {
		fmt.Printf("SAM bridge listening on %s:%d (tcp) and %s:%d (udp)\n",
			cfg.SAM.Host, r.SamTCPPort(), cfg.SAM.Host, r.SamUDPPort())
	}

	signals.RegisterReloadHandler(func() {
		// Applies at the next start; a running router keeps its snapshot.
		r.SetConfig(config.NewRouterConfigFromViper())
	})
	signals.RegisterInterruptHandler(func() {
		log.Debug("interrupt received, shutting down")
		r.Stop()
		util.CloseAll()
		signals.StopHandle()
	})

	signals.Handle()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
