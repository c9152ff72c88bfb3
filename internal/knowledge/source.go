// Package knowledge 负责加载问答知识库、构建 TF-IDF 索引并进行检索。
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"kb-chatbot-go/internal/config"
	"kb-chatbot-go/internal/model"
)

var (
	// ErrSourceNotFound 表示知识库来源不存在，启动时致命，不做自动重试。
	ErrSourceNotFound = errors.New("knowledge base source not found")
	// ErrMissingColumn 表示来源缺少 question 或 answer 列。
	ErrMissingColumn = errors.New("knowledge base source is missing a required column")
)

const (
	columnQuestion = "question"
	columnAnswer   = "answer"
)

// Source 是一个表格型知识库来源。
type Source interface {
	// Identity 是缓存使用的来源标识。
	Identity() string
	// Read 读取全部行，保持原始顺序。
	Read(ctx context.Context) ([]model.KBEntry, error)
}

// FileSource 是位于本地文件系统上的来源，可以被 Watcher 监听。
type FileSource interface {
	Source
	Path() string
}

// SourceResolver 将配置中的来源字符串解析为 Source。
type SourceResolver interface {
	Resolve(spec string) (Source, error)
}

// Resolver 是默认的 SourceResolver。
type Resolver struct {
	MinIO config.MinIOConfig
}

// NewResolver 创建一个 Resolver。
func NewResolver(minioCfg config.MinIOConfig) *Resolver {
	return &Resolver{MinIO: minioCfg}
}

// Resolve 根据 scheme 或文件扩展名选择来源实现：
//
//	data/kb.csv                          CSV 文件
//	data/kb.xlsx                         Excel 第一个工作表
//	sqlite://data/kb.db?table=faq        sqlite 表
//	mysql://user:pw@tcp(h:3306)/db?table=faq
//	minio://bucket/path/kb.csv           对象存储中的 CSV/XLSX
func (r *Resolver) Resolve(spec string) (Source, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: empty source", ErrSourceNotFound)
	}
	switch {
	case strings.HasPrefix(spec, "sqlite://"):
		return newSQLSource(spec, "sqlite")
	case strings.HasPrefix(spec, "mysql://"):
		return newSQLSource(spec, "mysql")
	case strings.HasPrefix(spec, "minio://"):
		return newMinIOSource(spec, r.MinIO)
	}
	switch strings.ToLower(filepath.Ext(spec)) {
	case ".xlsx":
		return &XLSXSource{path: spec}, nil
	default:
		return &CSVSource{path: spec}, nil
	}
}

// Load 读取来源并返回规范化后的条目。
func Load(ctx context.Context, src Source) ([]model.KBEntry, error) {
	entries, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// entriesFromRows 把首行当作表头，按列名取出 question/answer。
// 缺失的单元格视为空字符串，所有值去除首尾空白；零单元格的行被跳过。
func entriesFromRows(rows [][]string) ([]model.KBEntry, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMissingColumn)
	}
	qIdx, aIdx := -1, -1
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case name == columnQuestion && qIdx < 0:
			qIdx = i
		case name == columnAnswer && aIdx < 0:
			aIdx = i
		}
	}
	if qIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, columnQuestion)
	}
	if aIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, columnAnswer)
	}

	entries := make([]model.KBEntry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		entries = append(entries, model.KBEntry{
			Question: cell(row, qIdx),
			Answer:   cell(row, aIdx),
		})
	}
	return entries, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// splitQuery 把 "scheme://rest?k=v" 拆分成 rest 与查询参数。
func splitQuery(spec, scheme string) (string, url.Values, error) {
	rest := strings.TrimPrefix(spec, scheme+"://")
	raw := ""
	if i := strings.LastIndex(rest, "?"); i >= 0 {
		rest, raw = rest[:i], rest[i+1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "", nil, fmt.Errorf("invalid %s source %q: %w", scheme, spec, err)
	}
	return rest, values, nil
}
