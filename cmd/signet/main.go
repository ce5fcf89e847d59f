package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/signet/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "signet",
	Short:   "Presigned URL gateway for S3-compatible object storage",
	Long: `Signet is a thin HTTP service that hands out short-lived presigned
URLs for uploading and downloading objects, reports object metadata,
deletes objects and can stream an object through itself.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			files = append(files, configFile)
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("backend", "", "storage backend: s3, minio, local (default: local, env: SIGNET_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("bucket", "", "bucket name (env: SIGNET_STORAGE_BUCKET, S3_BUCKET)")
	rootCmd.PersistentFlags().String("region", "", "storage region (default: us-east-1, env: SIGNET_STORAGE_REGION, AWS_REGION)")
	rootCmd.PersistentFlags().String("endpoint", "", "S3-compatible endpoint (env: SIGNET_STORAGE_ENDPOINT, S3_ENDPOINT)")
	rootCmd.PersistentFlags().String("storage-path", "", "local backend directory (default: ./data, env: SIGNET_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (default: info)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
