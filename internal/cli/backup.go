package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dukerupert/roomie/internal/backup"
	"github.com/dukerupert/roomie/internal/database"
)

func backupCmd(opts *rootOptions) *cobra.Command {
	var dir, passphrase string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write an encrypted database snapshot",
		Long: `Snapshot the database, encrypt it with a passphrase and write it to the
backup directory. When a backup bucket is configured the file is uploaded too.
The passphrase defaults to ROOMIE_BACKUP_PASSPHRASE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.BackupDir
			}
			if passphrase == "" {
				passphrase = cfg.BackupPassphrase
			}
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return fmt.Errorf("create backup dir: %w", err)
			}

			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			mgr := backup.NewManager(db, backup.S3Config{
				Endpoint:  cfg.BackupS3Endpoint,
				Bucket:    cfg.BackupS3Bucket,
				Region:    cfg.BackupS3Region,
				AccessKey: cfg.BackupS3Access,
				SecretKey: cfg.BackupS3Secret,
			}, logger)

			res, err := mgr.Run(cmd.Context(), dir, passphrase)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s (%d bytes)\n", color.New(color.FgGreen).Sprint("wrote"), res.Path, res.Size)
			if res.Uploaded {
				fmt.Fprintf(out, "%s s3://%s/%s\n", color.New(color.FgGreen).Sprint("uploaded"), cfg.BackupS3Bucket, res.Key)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory for the encrypted file (default from config)")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "encryption passphrase")

	cmd.AddCommand(decryptCmd())
	return cmd
}

func decryptCmd() *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "decrypt <encrypted-file> <output-db>",
		Short: "Decrypt a backup into a plain SQLite file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				passphrase = os.Getenv("ROOMIE_BACKUP_PASSPHRASE")
			}
			if passphrase == "" {
				return fmt.Errorf("--passphrase is required")
			}
			if err := backup.DecryptFile(args[0], args[1], passphrase); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.New(color.FgGreen).Sprint("restored"), args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "encryption passphrase")
	return cmd
}
