// Package cmd wires the Krishi Sahayak services into the krishi CLI.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "krishi",
	Short:        "Krishi Sahayak multilingual farm assistant",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, mcpCmd, ingestCmd, askCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
