package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blobbench/blobbench/internal/common"
	"github.com/blobbench/blobbench/internal/loadtest"
	"github.com/blobbench/blobbench/internal/loadtest/plan"
	"github.com/blobbench/blobbench/pkg/client/util"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run ./path/to/plan.yaml",
	Short: "Run a load test plan against a blob storage network",
	Long: `Run a load test plan from a plan file. Plans can be written as YAML or JSON.
Every scenario in the plan runs concurrently.

Example plan.yaml:

privateKey: "0x..."
funderPrivateKey: "0x..."
network: localnet
tests:
  - requestFunds: 10
    buyCredit: 5
    test:
      broadcastMode: async
      upload:
        prefix: bench
        blobCount: 100
        blobSizeMb: 1
      download: "0-50"
      delete: true
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		testPlan := &plan.TestPlan{}
		if err := util.BindJsonOrYaml(args[0], testPlan); err != nil {
			log.Error(err)
			os.Exit(1)
		}
		runPlan(testPlan)
	},
}

// runPlan runs a plan to completion and exits the process, reporting failure
// through the exit code. Shared by the run and basic commands.
func runPlan(testPlan *plan.TestPlan) {
	params, err := extractParams()
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}

	// Keys omitted from the plan fall back to the config file or the
	// BLOBBENCH_PRIVATEKEY / BLOBBENCH_FUNDERPRIVATEKEY environment variables.
	if testPlan.PrivateKey == "" {
		testPlan.PrivateKey = viper.GetString("privateKey")
	}
	if testPlan.FunderPrivateKey == "" {
		testPlan.FunderPrivateKey = viper.GetString("funderPrivateKey")
	}

	if params.MetricsPort > 0 {
		common.RegisterLogMetrics()
		shutdown := common.ServeMetrics(params.MetricsPort)
		defer shutdown()
	}

	app := loadtest.New()
	app.Params = params

	// Cancel the run on ctrl-C so scenarios stop issuing new requests.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-stopSignal:
			cancel()
		}
	}()

	report, err := app.RunPlan(ctx, testPlan)
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
	report.Print(app.Out, params.MaxErrorRate)
	if !report.Succeeded(params.MaxErrorRate) {
		os.Exit(1)
	}
}
