// Package backup writes encrypted snapshots of the roomie database and ships
// them to S3-compatible storage when a bucket is configured.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const keyPrefix = "roomie/"

// s3Client is the subset of the S3 API the manager uses.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether enough is configured to upload.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Result describes a finished backup.
type Result struct {
	Path     string `json:"path"`
	Key      string `json:"key,omitempty"`
	Size     int64  `json:"size"`
	Uploaded bool   `json:"uploaded"`
}

type Manager struct {
	db     *sql.DB
	client s3Client
	bucket string
	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates a manager for db. Uploads are skipped unless s3cfg is
// enabled.
func NewManager(db *sql.DB, s3cfg S3Config, logger *slog.Logger) *Manager {
	m := &Manager{
		db:     db,
		bucket: s3cfg.Bucket,
		now:    time.Now,
		logger: logger.With("component", "backup"),
	}
	if s3cfg.Enabled() {
		m.client = newS3Client(s3cfg)
	}
	return m
}

// Snapshot writes a consistent copy of db to dst. dst must not exist.
func Snapshot(ctx context.Context, db *sql.DB, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("snapshot: %s already exists", dst)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("snapshot: %w", err)
	}
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, dst); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}

// Run snapshots the database, encrypts the snapshot into dir and uploads it
// when storage is configured. The encrypted file is kept either way.
func (m *Manager) Run(ctx context.Context, dir, passphrase string) (Result, error) {
	if passphrase == "" {
		return Result{}, errors.New("backup: passphrase is required")
	}

	timestamp := m.now().UTC().Format("2006-01-02T150405Z")
	filename := fmt.Sprintf("roomie-%s.db.enc", timestamp)

	tmpDir, err := os.MkdirTemp("", "roomie-backup-")
	if err != nil {
		return Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, "snapshot.db")
	if err := Snapshot(ctx, m.db, snapshot); err != nil {
		return Result{}, err
	}

	res := Result{Path: filepath.Join(dir, filename)}
	if err := EncryptFile(snapshot, res.Path, passphrase); err != nil {
		return Result{}, fmt.Errorf("encrypt: %w", err)
	}

	f, err := os.Open(res.Path)
	if err != nil {
		return Result{}, fmt.Errorf("open encrypted file: %w", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("stat encrypted file: %w", err)
	}
	res.Size = stat.Size()

	if m.client == nil {
		m.logger.Info("backup written", "path", res.Path, "size", res.Size)
		return res, nil
	}

	res.Key = keyPrefix + filename
	if _, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(res.Key),
		Body:          f,
		ContentLength: aws.Int64(res.Size),
	}); err != nil {
		return res, fmt.Errorf("upload to s3: %w", err)
	}
	res.Uploaded = true

	m.logger.Info("backup uploaded", "path", res.Path, "key", res.Key, "size", res.Size)
	return res, nil
}
