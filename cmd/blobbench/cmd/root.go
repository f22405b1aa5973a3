package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blobbench/blobbench/internal/loadtest"
	"github.com/blobbench/blobbench/internal/loadtest/scenario"
	"github.com/blobbench/blobbench/pkg/client"
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.blobbench.yaml)")
	client.AddConnectionCommandlineArgs(rootCmd)
	addToolCommandlineArgs(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:   "blobbench command",
	Short: "Command line utility to load test a blob storage network",
	Long: `
Command line utility to load test a blob storage network.

Persistent config can be saved in a config file so it doesn't have to be specified every command.

Example structure:

network: localnet
chainUrl: http://localhost:8545
objectUrl: localhost:9000

The location of this file can be passed in using --config argument or picked from $HOME/.blobbench.yaml.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

var cfgFile string

func initConfig() {
	if err := client.LoadCommandlineArgsFromConfigFile(cfgFile); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func addToolCommandlineArgs(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.Int("uploadWorkers", loadtest.DefaultWorkers, "Number of concurrent uploads per scenario")
	flags.Int("downloadWorkers", loadtest.DefaultWorkers, "Number of concurrent downloads per scenario")
	flags.Int("deleteWorkers", loadtest.DefaultWorkers, "Number of concurrent deletes per scenario")
	flags.Uint("pollAttempts", loadtest.DefaultPollAttempts, "How often to poll for a blob that is not yet readable")
	flags.Duration("pollInterval", loadtest.DefaultPollInterval, "Pause between polls for a blob that is not yet readable")
	flags.Float64("maxErrorRate", 0, "Fraction of operations allowed to fail before a scenario counts as failed")
	flags.Uint16("metricsPort", 0, "Port to serve Prometheus metrics on while a run is in progress, 0 disables")
	for _, name := range []string{
		"uploadWorkers", "downloadWorkers", "deleteWorkers",
		"pollAttempts", "pollInterval", "maxErrorRate", "metricsPort",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func extractParams() (*loadtest.Params, error) {
	connectionDetails, err := client.ExtractCommandlineConnectionDetails()
	if err != nil {
		return nil, err
	}
	return &loadtest.Params{
		Connection: connectionDetails,
		Scenario: scenario.Params{
			UploadWorkers:   viper.GetInt("uploadWorkers"),
			DownloadWorkers: viper.GetInt("downloadWorkers"),
			DeleteWorkers:   viper.GetInt("deleteWorkers"),
			PollAttempts:    viper.GetUint("pollAttempts"),
			PollInterval:    viper.GetDuration("pollInterval"),
		},
		MaxErrorRate: viper.GetFloat64("maxErrorRate"),
		MetricsPort:  uint16(viper.GetUint("metricsPort")),
	}, nil
}
