package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(queryCmd)
	flags := queryCmd.Flags()
	flags.String("privateKey", "", "Hex-encoded key of the account owning the bucket")
	flags.String("target", "", "Backend to query, chain (default) or s3")
	flags.String("bucket", "", "Bucket to query")
	flags.String("prefix", "", "Only list blobs whose key starts with this prefix")
	flags.String("key", "", "Fetch a single blob and report its size instead of listing")
	if err := queryCmd.MarkFlagRequired("bucket"); err != nil {
		panic(err)
	}
}

var queryCmd = &cobra.Command{
	Use:   "query --bucket mybucket [--prefix bench] [--key bench/0]",
	Short: "List the blobs in a bucket, or fetch one and report its size",
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		bucket, _ := flags.GetString("bucket")
		prefix, _ := flags.GetString("prefix")
		key, _ := flags.GetString("key")

		c, identity, err := commandClient(cmd)
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}
		ctx := context.Background()

		if key != "" {
			data, err := c.GetBlob(ctx, identity, bucket, key)
			if err != nil {
				log.Error(err)
				os.Exit(1)
			}
			fmt.Printf("%s\t%s\n", key, humanize.IBytes(uint64(len(data))))
			return
		}

		keys, err := c.ListBucket(ctx, identity, bucket)
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}
		listed := 0
		for _, k := range keys {
			if prefix != "" && !strings.HasPrefix(k, prefix) {
				continue
			}
			fmt.Println(k)
			listed++
		}
		fmt.Printf("%d blob(s) in bucket %s\n", listed, bucket)
	},
}
