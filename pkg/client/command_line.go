package client

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// AddConnectionCommandlineArgs registers the persistent flags selecting the
// network and its endpoints, and binds them into viper so they can also come
// from the config file or BLOBBENCH_* environment variables.
func AddConnectionCommandlineArgs(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("network", "localnet", "target storage network (one of: mainnet, testnet, devnet, localnet)")
	viper.BindPFlag("network", rootCmd.PersistentFlags().Lookup("network"))
	rootCmd.PersistentFlags().String("chainUrl", "", "override the network's chain JSON-RPC endpoint")
	viper.BindPFlag("chainUrl", rootCmd.PersistentFlags().Lookup("chainUrl"))
	rootCmd.PersistentFlags().String("objectUrl", "", "override the network's object gateway host[:port]")
	viper.BindPFlag("objectUrl", rootCmd.PersistentFlags().Lookup("objectUrl"))
	rootCmd.PersistentFlags().Bool("objectTls", false, "reach an overridden object gateway over TLS")
	viper.BindPFlag("objectTls", rootCmd.PersistentFlags().Lookup("objectTls"))
	rootCmd.PersistentFlags().String("accessKey", "", "object gateway access key")
	viper.BindPFlag("accessKey", rootCmd.PersistentFlags().Lookup("accessKey"))
	rootCmd.PersistentFlags().String("secretKey", "", "object gateway secret key")
	viper.BindPFlag("secretKey", rootCmd.PersistentFlags().Lookup("secretKey"))
	rootCmd.PersistentFlags().Duration("receiptTimeout", time.Minute, "how long chain transactions wait for confirmation")
	viper.BindPFlag("receiptTimeout", rootCmd.PersistentFlags().Lookup("receiptTimeout"))
}

// LoadCommandlineArgsFromConfigFile merges settings from, in increasing
// precedence: a blobbench-defaults.yaml next to the executable, the user's
// $HOME/.blobbench.yaml (or the file given via --config), and BLOBBENCH_*
// environment variables.
func LoadCommandlineArgsFromConfigFile(cfgFile string) error {
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("error finding executable path: %s", err)
	} else {
		exeDir := filepath.Dir(exePath)
		viper.SetConfigFile(exeDir + "/blobbench-defaults.yaml")
		err := viper.ReadInConfig()
		if err != nil {
			switch err.(type) {
			case viper.ConfigFileNotFoundError:
			case *os.PathError:
				// No default config is fine
			default:
				return fmt.Errorf("error reading config file %s: %s", viper.ConfigFileUsed(), err)
			}
		}
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("error getting user home directory: %s", err)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".blobbench")
	}

	viper.SetEnvPrefix("BLOBBENCH")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	err = viper.MergeInConfig()

	if err != nil {
		switch err.(type) {
		case viper.ConfigFileNotFoundError:
			// This only occurs when looking for the default .blobbench file and it is not present
			// This is not an error as users don't have to specify it, so do nothing
		default:
			return fmt.Errorf("error reading config file %s: %s", viper.ConfigFileUsed(), err)
		}
	}
	return nil
}

// ExtractCommandlineConnectionDetails unmarshals the merged flag/file/env
// state into ConnectionDetails. Duration fields accept strings like "90s".
func ExtractCommandlineConnectionDetails() (*ConnectionDetails, error) {
	details := &ConnectionDetails{}
	err := viper.Unmarshal(details, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("error extracting connection details: %s", err)
	}
	return details, nil
}
