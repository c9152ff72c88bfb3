// Package storage 提供了与对象存储服务（MinIO / S3 兼容）交互的功能。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"kb-chatbot-go/internal/config"
	"kb-chatbot-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectNotFound 表示存储桶或对象不存在。
var ErrObjectNotFound = errors.New("object not found")

// NewMinIO 初始化 MinIO 客户端。
func NewMinIO(cfg config.MinIOConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio endpoint is not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}
	log.Info("MinIO 客户端初始化成功")
	return client, nil
}

// ReadObject 读取整个对象内容。对象或存储桶不存在时返回 ErrObjectNotFound。
func ReadObject(ctx context.Context, client *minio.Client, bucket, object string) ([]byte, error) {
	obj, err := client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, classify(bucket, object, err)
	}
	defer obj.Close()

	// GetObject 是惰性的，需要 Stat 才能拿到 NoSuchKey 之类的错误
	if _, err := obj.Stat(); err != nil {
		return nil, classify(bucket, object, err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classify(bucket, object, err)
	}
	return data, nil
}

func classify(bucket, object string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, object)
	}
	return fmt.Errorf("failed to read %s/%s: %w", bucket, object, err)
}
