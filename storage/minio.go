package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"MusicFlow/config"
	"MusicFlow/logger"
)

var minioClient *minio.Client

// InitMinio 初始化 MinIO 客户端并确保存储桶存在
func InitMinio(cfg *config.Config) error {
	logger.Info("Connecting to MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Bucket created", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("MinIO client initialized")
	return nil
}

// GetMinioClient 获取 MinIO 客户端实例
func GetMinioClient() *minio.Client {
	return minioClient
}

// CoverStore keeps original-resolution cover images in MinIO. Only the
// lossy webp derivatives live in MySQL; the untouched source image goes
// to object storage so it can be re-derived at other sizes later.
type CoverStore struct {
	client *minio.Client
	bucket string
}

// NewCoverStore builds a CoverStore over the initialized global client.
func NewCoverStore(bucket string) *CoverStore {
	return &CoverStore{client: minioClient, bucket: bucket}
}

func contentTypeFor(format string) string {
	if format == "png" {
		return "image/png"
	}
	return "image/jpeg"
}

// UploadCoverOriginal stores the raw embedded image under
// covers/<type>/<id>/original.<format>.
func (s *CoverStore) UploadCoverOriginal(ctx context.Context, coverType string, linkID int64, format string, data []byte) error {
	if s.client == nil {
		return fmt.Errorf("minio client not initialized")
	}

	objectName := fmt.Sprintf("covers/%s/%d/original.%s", coverType, linkID, format)
	_, err := s.client.PutObject(ctx, s.bucket, objectName,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentTypeFor(format),
		})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectName, err)
	}

	logger.Debug("Original cover uploaded",
		logger.String("object", objectName), logger.Int("bytes", len(data)))
	return nil
}
