package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Storage persists the raw bytes of uploaded documents so they can be
// served back for download. Parsed clauses live in the session store;
// this layer only ever sees opaque file content.
type Storage interface {
	// Save stores a document's raw content and returns its storage path
	Save(ctx context.Context, sessionID string, docID int, filename string, data io.Reader) (string, error)

	// Open retrieves stored content by storage path
	Open(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes stored content by storage path
	Delete(ctx context.Context, storagePath string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorageFromEnv creates a storage instance from environment variables
func NewStorageFromEnv() (Storage, error) {
	storageType := os.Getenv("STORAGE_TYPE")
	if storageType == "" {
		storageType = "local" // Default to local for development
	}

	switch StorageType(storageType) {
	case StorageTypeLocal:
		localPath := os.Getenv("STORAGE_LOCAL_PATH")
		if localPath == "" {
			localPath = "./storage/files"
		}
		return NewLocalStorage(localPath)

	case StorageTypeS3:
		cfg := StorageConfig{
			Type:         StorageTypeS3,
			S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
			S3Region:     os.Getenv("AWS_REGION"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		}
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1"
		}
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3Storage(cfg)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storageType)
	}
}

// DocumentPath derives the deterministic storage path for a document.
// The doc id prefix keeps re-uploads of the same filename apart; the
// session segment keeps sessions apart.
func DocumentPath(sessionID string, docID int, filename string) string {
	return fmt.Sprintf("%s/%d_%s", sanitizeSegment(sessionID), docID, sanitizeSegment(filename))
}

func sanitizeSegment(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
