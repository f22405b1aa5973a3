package cmd

import (
	"context"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blobbench/blobbench/pkg/client"
)

func init() {
	rootCmd.AddCommand(cleanupCmd)
	flags := cleanupCmd.Flags()
	flags.String("privateKey", "", "Hex-encoded key of the account owning the bucket")
	flags.String("target", "", "Backend to clean up, chain (default) or s3")
	flags.String("bucket", "", "Bucket to delete blobs from")
	flags.String("prefix", "", "Only delete blobs whose key starts with this prefix, empty deletes everything")
	if err := cleanupCmd.MarkFlagRequired("bucket"); err != nil {
		panic(err)
	}
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup --bucket mybucket [--prefix bench]",
	Short: "Delete blobs left behind by earlier runs",
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		bucket, _ := flags.GetString("bucket")
		prefix, _ := flags.GetString("prefix")

		c, identity, err := commandClient(cmd)
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}

		ctx := context.Background()
		keys, err := c.ListBucket(ctx, identity, bucket)
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}

		deleted := 0
		failed := 0
		for _, key := range keys {
			if prefix != "" && !strings.HasPrefix(key, prefix) {
				continue
			}
			if err := c.DeleteBlob(ctx, identity, bucket, key); err != nil {
				failed++
				log.WithError(err).Warnf("failed to delete blob %s", key)
				continue
			}
			deleted++
			log.Infof("deleted blob %s", key)
		}
		log.Infof("deleted %d blob(s) from bucket %s, %d failure(s)", deleted, bucket, failed)
		if failed > 0 {
			os.Exit(1)
		}
	},
}

// commandClient builds a client and resolves the signing identity for the
// one-shot cleanup and query commands.
func commandClient(cmd *cobra.Command) (client.Client, client.Identity, error) {
	target, err := client.ParseTarget(stringFlagOrViper(cmd, "target"))
	if err != nil {
		return nil, client.Identity{}, err
	}
	connectionDetails, err := client.ExtractCommandlineConnectionDetails()
	if err != nil {
		return nil, client.Identity{}, err
	}
	c, err := client.New(connectionDetails, target)
	if err != nil {
		return nil, client.Identity{}, err
	}
	identity, err := c.ResolveKey(stringFlagOrViper(cmd, "privateKey"))
	if err != nil {
		return nil, client.Identity{}, err
	}
	return c, identity, nil
}
