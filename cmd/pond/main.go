// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/pondfi/pond/admin"
	"github.com/pondfi/pond/log"
	"github.com/pondfi/pond/metrics"
	"github.com/pondfi/pond/node"
	"github.com/pondfi/pond/pond"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Pond",
		Usage:     "Fixed-pool staking ledger",
		Copyright: "2026 The Pond developers",
		Flags: []cli.Flag{
			dataDirFlag,
			configFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiRecordsLimitFlag,
			verbosityFlag,
			enableMetricsFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	logLevel := initLogger(ctx.Int(verbosityFlag.Name))

	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel)
		if err != nil {
			return err
		}
		defer closeFunc()
		logger.Info("admin server started", "url", url)
	}

	config := pond.Config{}
	if path := ctx.String(configFlag.Name); path != "" {
		loaded, err := pond.LoadConfig(path)
		if err != nil {
			return err
		}
		config = *loaded
		logger.Info("custom network config loaded", "params", config.String())
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	n, err := node.New(node.Options{
		DataDir:        ctx.String(dataDirFlag.Name),
		APIAddr:        ctx.String(apiAddrFlag.Name),
		AllowedOrigins: ctx.String(apiCorsFlag.Name),
		RecordsLimit:   ctx.Uint64(apiRecordsLimitFlag.Name),
		EnableMetrics:  ctx.Bool(enableMetricsFlag.Name),
		Config:         config,
	})
	if err != nil {
		return err
	}

	return n.Run(handleExitSignal())
}

func initLogger(verbosity int) *slog.LevelVar {
	logLevel := new(slog.LevelVar)
	logLevel.Set(log.FromLegacyLevel(verbosity))
	color := isatty.IsTerminal(os.Stderr.Fd())
	log.SetDefault(log.NewTerminalHandler(os.Stderr, color, logLevel))
	return logLevel
}

// handleExitSignal returns a context canceled on interrupt or terminate.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
