package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/signet/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configured bucket if it does not exist",
	Long: `Make sure the storage target is ready to accept uploads:
  - s3: creates the bucket in the configured region
  - minio: creates the bucket on the configured endpoint
  - local: creates the storage directory layout`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	opened, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer opened.close()

	if err := opened.store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	slog.Info("storage ready", "backend", cfg.Storage.Backend, "bucket", cfg.Storage.Bucket, "path", cfg.Storage.Path)
	return nil
}
