// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/NEBULA-33/nebula-1/internal/config"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

const checksumMetadataKey = "Sha256"

// StorageService keeps backup archives in S3. Without credentials it is
// disabled and every call returns ErrBackupDisabled.
type StorageService struct {
	s3Client s3iface.S3API
	config   *config.Config
}

type BackupArchive struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if !config.AWS.S3Enabled() {
		// Archiving stays off for local development
		return &StorageService{config: config}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// NewStorageServiceWithClient is used by tests to plug in a fake S3.
func NewStorageServiceWithClient(client s3iface.S3API, config *config.Config) *StorageService {
	return &StorageService{s3Client: client, config: config}
}

func (s *StorageService) Enabled() bool {
	return s.s3Client != nil
}

// PutBackup uploads data under the backup prefix with its checksum in the
// object metadata.
func (s *StorageService) PutBackup(ctx context.Context, data []byte, at time.Time) (*BackupArchive, error) {
	if !s.Enabled() {
		return nil, ErrBackupDisabled
	}

	key := s.backupKey(at)
	checksum := utils.Checksum(data)
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      map[string]*string{checksumMetadataKey: aws.String(checksum)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload backup to S3: %w", err)
	}

	return &BackupArchive{
		Key:       key,
		Size:      int64(len(data)),
		Checksum:  checksum,
		CreatedAt: at.UTC(),
	}, nil
}

// ListBackups returns the archives under the backup prefix, newest first.
func (s *StorageService) ListBackups(ctx context.Context) ([]BackupArchive, error) {
	if !s.Enabled() {
		return nil, ErrBackupDisabled
	}

	var archives []BackupArchive
	err := s.s3Client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Prefix: aws.String(s.config.AWS.BackupPrefix + "/"),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			archives = append(archives, BackupArchive{
				Key:       aws.StringValue(obj.Key),
				Size:      aws.Int64Value(obj.Size),
				CreatedAt: aws.TimeValue(obj.LastModified).UTC(),
			})
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].CreatedAt.After(archives[j].CreatedAt)
	})
	return archives, nil
}

// GetBackup downloads an archive and checks it against its stored checksum.
func (s *StorageService) GetBackup(ctx context.Context, key string) ([]byte, error) {
	if !s.Enabled() {
		return nil, ErrBackupDisabled
	}

	out, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, ErrBackupArchiveNotFound
		}
		return nil, fmt.Errorf("failed to download backup: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	if want := aws.StringValue(out.Metadata[checksumMetadataKey]); want != "" && !utils.VerifyChecksum(data, want) {
		return nil, fmt.Errorf("%w: checksum mismatch for %s", ErrInvalidBackup, key)
	}
	return data, nil
}

func (s *StorageService) backupKey(at time.Time) string {
	name := fmt.Sprintf("backup_%s.json", at.UTC().Format("2006-01-02_150405"))
	return path.Join(s.config.AWS.BackupPrefix, name)
}
