// Package receipts archives receipt photos in a GCS bucket so the original
// image survives the session that logged it. Archival is best-effort from
// the pipeline's point of view; a failed upload never blocks the ledger.
package receipts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// Archive stores one receipt image under the given object name and returns
// its gs:// URI. Credentials come from Application Default Credentials.
func Archive(ctx context.Context, bucketName, objectName string, data []byte, contentType string) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("receipts: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("receipts: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("receipts: finalize upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", bucketName, objectName), nil
}

// ArchiveFile uploads a local receipt file, deriving the content type from
// the file extension.
func ArchiveFile(ctx context.Context, bucketName, objectName, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("receipts: read file %q: %w", filePath, err)
	}
	contentType := mime.TypeByExtension(path.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return Archive(ctx, bucketName, objectName, data, contentType)
}

// Fetch downloads receipt bytes from a gs:// URI.
func Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := splitGCSURI(gcsURI)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("receipts: create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("receipts: read object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("receipts: read bytes: %w", err)
	}
	return data, nil
}

// ObjectName derives a stable object name for a record's receipt from the
// record ID and the image content type.
func ObjectName(recordID, contentType string) string {
	ext := ".bin"
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return fmt.Sprintf("receipts/%s%s", recordID, ext)
}

func splitGCSURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("receipts: invalid GCS URI: %s", gcsURI)
	}
	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("receipts: invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}
