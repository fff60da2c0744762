// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gcs uploads observer backup archives to Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Client wraps a GCS storage client bound to one bucket.
type Client struct {
	storageClient *storage.Client
	BucketName    string
}

// NewClient authenticates against GCS with the service account key at
// saKeyPath and binds the client to bucketName. The key file is checked
// before any network call so a bad path fails fast.
func NewClient(ctx context.Context, bucketName, saKeyPath string) (*Client, error) {
	if _, err := os.Stat(saKeyPath); err != nil {
		return nil, fmt.Errorf("service account key not readable at %s: %w", saKeyPath, err)
	}

	storageClient, err := storage.NewClient(ctx, option.WithCredentialsFile(saKeyPath))
	if err != nil {
		return nil, fmt.Errorf("create GCS storage client: %w", err)
	}

	return &Client{
		storageClient: storageClient,
		BucketName:    bucketName,
	}, nil
}

// UploadFile streams the local file to the given object path in the
// client's bucket.
func (c *Client) UploadFile(ctx context.Context, localPath, objectPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file %s: %w", localPath, err)
	}
	defer f.Close()

	writer := c.storageClient.Bucket(c.BucketName).Object(objectPath).NewWriter(ctx)
	writer.ContentType = "application/gzip"

	if _, err := io.Copy(writer, f); err != nil {
		_ = writer.Close()
		return fmt.Errorf("copy %s to gs://%s/%s: %w", localPath, c.BucketName, objectPath, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize gs://%s/%s: %w", c.BucketName, objectPath, err)
	}
	return nil
}

// Close releases the underlying storage client.
func (c *Client) Close() error {
	return c.storageClient.Close()
}
