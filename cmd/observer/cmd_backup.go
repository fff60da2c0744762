// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianObserve/cmd/observer/gcs"
)

var (
	backupDataDir string
	backupOutDir  string
	backupBucket  string
	backupPrefix  string
	backupSAKey   string

	backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Archive the snapshot directory, optionally uploading to GCS",
		Long: `Creates a timestamped tar.gz of the observer data directory. With
--bucket, the archive is also uploaded to Google Cloud Storage using the
service account key given by --sa-key.

Run against a live observer this captures the latest flushed snapshots;
stop the service first for a point-in-time copy.`,
		Run: runBackup,
	}
)

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.Flags().StringVar(&backupDataDir, "data-dir", "",
		"Data directory to archive (default: resolved like serve)")
	backupCmd.Flags().StringVar(&backupOutDir, "output", ".",
		"Directory the archive is written to")
	backupCmd.Flags().StringVar(&backupBucket, "bucket", "",
		"GCS bucket to upload the archive to")
	backupCmd.Flags().StringVar(&backupPrefix, "prefix", "observer/backups",
		"GCS object prefix for uploads")
	backupCmd.Flags().StringVar(&backupSAKey, "sa-key", "",
		"Path to the GCS service account key (required with --bucket)")
}

func runBackup(cmd *cobra.Command, args []string) {
	dataDir := backupDataDir
	if dataDir == "" {
		dataDir = getEnvString("OBSERVER_DATA_DIR", fileCfg.DataDir)
	}
	if dataDir == "" {
		dataDir = "data"
	}
	if _, err := os.Stat(dataDir); err != nil {
		log.Fatalf("Data directory %s is not readable: %v", dataDir, err)
	}

	archiveName := fmt.Sprintf("observer-backup-%s.tar.gz",
		time.Now().Format("2006-01-02_150405"))
	archivePath := filepath.Join(backupOutDir, archiveName)

	fmt.Printf("Archiving %s...\n", dataDir)
	if err := createArchive(dataDir, archivePath); err != nil {
		log.Fatalf("Backup failed: %v", err)
	}
	fmt.Printf("Archive written to %s\n", archivePath)

	if backupBucket == "" {
		return
	}
	if backupSAKey == "" {
		log.Fatalf("--sa-key is required when uploading to a bucket")
	}

	ctx := context.Background()
	client, err := gcs.NewClient(ctx, backupBucket, backupSAKey)
	if err != nil {
		log.Fatalf("Failed to create GCS client: %v", err)
	}
	defer client.Close()

	objectPath := path.Join(backupPrefix, archiveName)
	fmt.Printf("Uploading to gs://%s/%s\n", backupBucket, objectPath)
	if err := client.UploadFile(ctx, archivePath, objectPath); err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
	fmt.Println("Backup upload complete.")
}

// createArchive writes a gzip-compressed tarball of srcDir. Entry names
// are stored relative to srcDir so restores can unpack anywhere.
func createArchive(srcDir, dstPath string) (err error) {
	out, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", closeErr)
		}
	}()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	walkErr := filepath.Walk(srcDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if walkErr != nil {
		return fmt.Errorf("archive %s: %w", srcDir, walkErr)
	}

	// Close order matters: the tar stream must land in the gzip buffer
	// before the gzip trailer is written.
	if err := tw.Close(); err != nil {
		return fmt.Errorf("flush tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("flush gzip stream: %w", err)
	}
	return nil
}
