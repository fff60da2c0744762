// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gcs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewClient_MissingKeyFile(t *testing.T) {
	_, err := NewClient(context.Background(), "test-bucket",
		filepath.Join(t.TempDir(), "absent-key.json"))
	if err == nil {
		t.Fatal("expected an error for a missing key file")
	}
	if !strings.Contains(err.Error(), "service account key not readable") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewClient_InvalidCredentialsFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(keyPath, []byte("not a credentials file"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}

	_, err := NewClient(context.Background(), "test-bucket", keyPath)
	if err == nil {
		t.Fatal("expected an error for an invalid credentials file")
	}
	if !strings.Contains(err.Error(), "create GCS storage client") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestUploadFile_MissingLocalFile(t *testing.T) {
	// The local file is opened before the storage client is touched,
	// so a nil client is safe for this path.
	client := &Client{BucketName: "test-bucket"}

	err := client.UploadFile(context.Background(),
		filepath.Join(t.TempDir(), "absent.tar.gz"), "backups/absent.tar.gz")
	if err == nil {
		t.Fatal("expected an error for a missing local file")
	}
	if !strings.Contains(err.Error(), "open local file") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestClient_Integration uploads a real archive to GCS. It only runs
// when GCS_TEST_BUCKET and GCS_TEST_SA_KEY are set.
func TestClient_Integration(t *testing.T) {
	bucket := os.Getenv("GCS_TEST_BUCKET")
	saKey := os.Getenv("GCS_TEST_SA_KEY")
	if bucket == "" || saKey == "" {
		t.Skip("GCS_TEST_BUCKET and GCS_TEST_SA_KEY not set")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, bucket, saKey)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	defer client.Close()

	localPath := filepath.Join(t.TempDir(), "integration.tar.gz")
	if err := os.WriteFile(localPath, []byte("integration payload"), 0o644); err != nil {
		t.Fatalf("write local file: %v", err)
	}

	if err := client.UploadFile(ctx, localPath, "observer-test/integration.tar.gz"); err != nil {
		t.Errorf("UploadFile failed: %v", err)
	}
}
