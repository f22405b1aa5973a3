package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blobbench/blobbench/internal/loadtest/plan"
)

func init() {
	rootCmd.AddCommand(basicCmd)
	flags := basicCmd.Flags()
	flags.String("privateKey", "", "Hex-encoded key of the account to run as")
	flags.String("fundingKey", "", "Hex-encoded key of the account funding the test account")
	flags.Uint64("requestFunds", 0, "Tokens to transfer from the funding key before the test, 0 skips funding")
	flags.Uint64("buyCredit", 0, "Tokens of storage credit to buy before the test, 0 skips the purchase")
	flags.String("target", "", "Backend to test, chain (default) or s3")
	flags.String("bucket", "", "Existing bucket to reuse, empty creates a fresh one")
	flags.String("prefix", plan.DefaultPrefix, "Key prefix for the uploaded blobs")
	flags.Int("blobCount", plan.DefaultBlobCount, "Number of blobs to upload")
	flags.Float64("blobSizeMb", plan.DefaultBlobSizeMb, "Size of each blob in megabytes, fractions allowed")
	flags.Bool("overwrite", true, "Permit replacing blobs that already exist under the same key")
	flags.String("download", "true", "Blobs to read back: true, false, or an index range like 0-50")
	flags.Bool("delete", false, "Delete the uploaded blobs at the end")
	flags.String("broadcastMode", "", "How eagerly writes are confirmed: commit (default), sync or async")
}

var basicCmd = &cobra.Command{
	Use:   "basic",
	Short: "Run a single ad-hoc scenario built from flags",
	Long: `Run a single scenario without writing a plan file. The private key can also
come from the config file or the BLOBBENCH_PRIVATEKEY environment variable.`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		overwrite, _ := flags.GetBool("overwrite")
		downloadArg, _ := flags.GetString("download")
		download, err := plan.ParseDownloadSpec(downloadArg)
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}

		spec := &plan.ScenarioSpec{
			Name:       "basic",
			PrivateKey: stringFlagOrViper(cmd, "privateKey"),
			FundingKey: stringFlagOrViper(cmd, "fundingKey"),
			Test: &plan.TestSpec{
				Upload:   &plan.UploadSpec{Overwrite: &overwrite},
				Download: download,
			},
		}
		spec.RequestFunds, _ = flags.GetUint64("requestFunds")
		spec.BuyCredit, _ = flags.GetUint64("buyCredit")
		spec.Target, _ = flags.GetString("target")
		spec.Test.Delete, _ = flags.GetBool("delete")
		spec.Test.BroadcastMode, _ = flags.GetString("broadcastMode")
		spec.Test.Upload.Bucket, _ = flags.GetString("bucket")
		spec.Test.Upload.Prefix, _ = flags.GetString("prefix")
		spec.Test.Upload.BlobCount, _ = flags.GetInt("blobCount")
		spec.Test.Upload.BlobSizeMb, _ = flags.GetFloat64("blobSizeMb")

		runPlan(&plan.TestPlan{Tests: []*plan.ScenarioSpec{spec}})
	},
}

// stringFlagOrViper prefers the command's own flag and falls back to the
// merged config file / environment state.
func stringFlagOrViper(cmd *cobra.Command, name string) string {
	if value, err := cmd.Flags().GetString(name); err == nil && value != "" {
		return value
	}
	return viper.GetString(name)
}
