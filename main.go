package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mangashelf/mangashelf/config"
	"github.com/mangashelf/mangashelf/heal"
	"github.com/mangashelf/mangashelf/log"
	"github.com/mangashelf/mangashelf/server"
	"github.com/mangashelf/mangashelf/store"
	"github.com/mangashelf/mangashelf/store/db"
	"github.com/mangashelf/mangashelf/version"
	"github.com/mangashelf/mangashelf/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const greetingBanner = `
███    ███  █████  ███    ██  ██████   █████      ███████ ██   ██ ███████ ██      ███████
████  ████ ██   ██ ████   ██ ██       ██   ██     ██      ██   ██ ██      ██      ██
██ ████ ██ ███████ ██ ██  ██ ██   ███ ███████     ███████ ███████ █████   ██      █████
██  ██  ██ ██   ██ ██  ██ ██ ██    ██ ██   ██          ██ ██   ██ ██      ██      ██
██      ██ ██   ██ ██   ████  ██████  ██   ██     ███████ ██   ██ ███████ ███████ ██
`

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   "manga-shelf",
		Short: "Manga Shelf is a self-hosted comic and e-book delivery server",
		Run: func(cmd *cobra.Command, args []string) {
			if err := run(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}
)

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to the config file")
}

func run() error {
	if _, err := config.GetConfig(); err != nil {
		return err
	}
	if configFile != "" {
		if _, err := config.ParseFile(configFile); err != nil {
			return err
		}
	}

	log.Logger = log.NewLogger()
	defer log.Logger.Sync()

	if err := config.Opts.EnsureStorage(); err != nil {
		return err
	}

	d, err := db.NewDB(config.Opts.DSN)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := db.Migrate(d); err != nil {
		return err
	}

	s := store.NewStore(d)
	if err := s.Ping(); err != nil {
		return err
	}

	healer := heal.NewHealer(s)
	healPool := worker.NewHealPool(healer, config.Opts.WorkerPoolSize)

	fmt.Print(greetingBanner)
	fmt.Println("Version:", version.GetCurrentVersion())

	httpServer := server.StartServer(s, healer, healPool)
	log.Info("Server started",
		zap.String("host", config.Opts.Host),
		zap.Int("port", config.Opts.Port),
		zap.String("data", config.Opts.Data))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down")
	server.Shutdown(httpServer)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
