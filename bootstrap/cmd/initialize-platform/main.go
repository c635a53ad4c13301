package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/credebt/setup/bootstrap/internal/bootstrap"
	"github.com/credebt/setup/lending/pkg/config"
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
	envFileFlag := flag.String("env-file", config.DefaultAPIEnvFile(), "Env file providing LOAN_CORE_PROGRAM_ID and USDC_MINT")
	rpcURLFlag := flag.String("rpc-url", "", "Solana RPC URL (or set SOLANA_RPC_URL env var)")
	walletFlag := flag.String("wallet", "", "Path to the authority keypair (or set SOLANA_WALLET env var)")
	programIDFlag := flag.String("program-id", "", "Loan core program id (or set LOAN_CORE_PROGRAM_ID)")
	mintFlag := flag.String("usdc-mint", "", "USDC mint address (or set USDC_MINT)")
	idlFlag := flag.String("idl", config.DefaultIDLPath(), "Path to the loan core IDL produced by anchor build")
	dryRunFlag := flag.Bool("dry-run", false, "Derive addresses and show the parameters without submitting")
	metricsTextfileFlag := flag.String("metrics-textfile", "", "Write prometheus metrics to this node-exporter textfile on exit")

	flag.Parse()

	log := logger.ForRun(logger.New(os.Stderr, *verboseFlag), "bootstrap")
	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	reporter, rerr := errreport.New(errreport.ConfigFromEnv(os.Getenv, version))
	if rerr != nil {
		log.Warn("error reporting disabled", "error", rerr)
		reporter, _ = errreport.New(errreport.Config{})
	}
	defer func() {
		reporter.Capture("bootstrap", err)
		if werr := metrics.WriteTextfile(*metricsTextfileFlag); werr != nil {
			log.Warn("failed to write metrics", "error", werr)
		}
	}()

	settings, err := config.LoadBootstrap(*envFileFlag, os.LookupEnv)
	if err != nil {
		return err
	}
	if *rpcURLFlag != "" {
		settings.RPCURL = *rpcURLFlag
	}
	if *walletFlag != "" {
		settings.WalletPath = *walletFlag
	}
	if *programIDFlag != "" {
		settings.ProgramID = *programIDFlag
	}
	if *mintFlag != "" {
		settings.USDCMint = *mintFlag
	}
	settings.IDLPath = *idlFlag

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := bootstrap.Execute(ctx, settings, bootstrap.Deps{
		Logger: log,
		Out:    os.Stdout,
		DryRun: *dryRunFlag,
	})
	if err != nil {
		return err
	}
	log.Debug("bootstrap finished", "outcome", string(res.Outcome), "address", res.ConfigAddress.String())
	return nil
}
