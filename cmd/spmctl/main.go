package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"spm-client/internal/config"
	"spm-client/internal/httpx"
	"spm-client/internal/logger"
)

// app carries what every command needs once flags and env are read.
type app struct {
	cfg   *config.Config
	log   logger.Logger
	out   io.Writer
	token string
}

func (a *app) service(name, baseURL string, cookies bool) (*httpx.Client, error) {
	return httpx.New(httpx.Options{
		BaseURL:     baseURL,
		Timeout:     a.cfg.HTTPTimeout,
		Retries:     a.cfg.HTTPRetries,
		WithCookies: cookies,
		Token:       a.token,
		Logger:      a.log.With("service", name),
	})
}

func rootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "spmctl",
		Short:         "Command-line client for the SPM task and project services",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.Load()
			level := a.cfg.LogLevel
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = "debug"
			}
			a.log = logger.New(&logger.Config{Level: level, Output: os.Stderr, JSON: a.cfg.LogJSON, TimeFormat: "15:04:05"})
			logger.SetDefault(a.log)
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&a.token, "token", os.Getenv("SPM_TOKEN"), "Bearer token sent to the services")

	cmd.AddCommand(tasksCmd(a), projectsCmd(a), loginCmd(a))
	return cmd
}

func main() {
	a := &app{out: os.Stdout, log: logger.Default()}
	if err := rootCmd(a).Execute(); err != nil {
		a.log.Error(err.Error())
		os.Exit(1)
	}
}
