package knowledge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"kb-chatbot-go/internal/config"
	"kb-chatbot-go/internal/model"
	"kb-chatbot-go/pkg/storage"
)

// MinIOSource 从对象存储读取 CSV 或 XLSX 格式的知识库。
type MinIOSource struct {
	spec   string
	bucket string
	object string
	cfg    config.MinIOConfig
}

func newMinIOSource(spec string, cfg config.MinIOConfig) (*MinIOSource, error) {
	rest, _, err := splitQuery(spec, "minio")
	if err != nil {
		return nil, err
	}
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return nil, fmt.Errorf("invalid minio source %q: want minio://bucket/object", spec)
	}
	return &MinIOSource{spec: spec, bucket: bucket, object: object, cfg: cfg}, nil
}

func (s *MinIOSource) Identity() string { return s.spec }

func (s *MinIOSource) Read(ctx context.Context) ([]model.KBEntry, error) {
	client, err := storage.NewMinIO(s.cfg)
	if err != nil {
		return nil, err
	}
	data, err := storage.ReadObject(ctx, client, s.bucket, s.object)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrSourceNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(s.object), ".xlsx") {
		return parseXLSX(bytes.NewReader(data))
	}
	return parseCSV(bytes.NewReader(data))
}
