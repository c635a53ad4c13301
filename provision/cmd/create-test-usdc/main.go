package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/credebt/setup/lending/pkg/config"
	"github.com/credebt/setup/provision/internal/provision"
	"github.com/credebt/setup/utils/pkg/cli"
	"github.com/credebt/setup/utils/pkg/errreport"
	"github.com/credebt/setup/utils/pkg/logger"
	"github.com/credebt/setup/utils/pkg/metrics"
)

var (
	// Set by LDFLAGS
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(cli.Exit(os.Stderr, run()))
}

func run() (err error) {
	verboseFlag := flag.Bool("verbose", false, "Enable verbose (debug) logging")
	rpcURLFlag := flag.String("rpc-url", "", "Solana RPC URL (or set SOLANA_RPC_URL env var)")
	walletFlag := flag.String("wallet", "", "Path to the payer keypair (or set SOLANA_WALLET env var)")
	apiEnvFlag := flag.String("api-env", config.DefaultAPIEnvFile(), "Backend env file receiving USDC_MINT")
	appEnvFlag := flag.String("app-env", config.DefaultAppEnvFile(), "Frontend env file receiving REACT_APP_USDC_MINT")
	metricsTextfileFlag := flag.String("metrics-textfile", "", "Write prometheus metrics to this node-exporter textfile on exit")

	flag.Parse()

	log := logger.ForRun(logger.New(os.Stderr, *verboseFlag), "provision")
	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	reporter, rerr := errreport.New(errreport.ConfigFromEnv(os.Getenv, version))
	if rerr != nil {
		log.Warn("error reporting disabled", "error", rerr)
		reporter, _ = errreport.New(errreport.Config{})
	}
	defer func() {
		reporter.Capture("provision", err)
		if werr := metrics.WriteTextfile(*metricsTextfileFlag); werr != nil {
			log.Warn("failed to write metrics", "error", werr)
		}
	}()

	settings := config.LoadProvision(os.LookupEnv)
	if *rpcURLFlag != "" {
		settings.RPCURL = *rpcURLFlag
	}
	if *walletFlag != "" {
		settings.WalletPath = *walletFlag
	}
	settings.EnvTargets = []config.EnvTarget{
		{Path: *apiEnvFlag, Key: "USDC_MINT"},
		{Path: *appEnvFlag, Key: "REACT_APP_USDC_MINT"},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := provision.Execute(ctx, settings, provision.Deps{
		Logger: log,
		Out:    os.Stdout,
	})
	if err != nil {
		return err
	}
	for _, envErr := range res.EnvErrors {
		reporter.Capture("provision", envErr)
	}
	return nil
}
