package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"

	"kb-chatbot-go/internal/model"
	"kb-chatbot-go/pkg/database"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// SQLSource 从 sqlite 或 mysql 表读取 question/answer 两列。
type SQLSource struct {
	spec    string
	dialect string
	dsn     string
	path    string // sqlite 的裸文件路径，不含驱动参数
	table   string
	order   string
}

type kbRow struct {
	Question *string
	Answer   *string
}

func newSQLSource(spec, dialect string) (*SQLSource, error) {
	base, params, err := splitQuery(spec, dialect)
	if err != nil {
		return nil, err
	}
	table := params.Get("table")
	if table == "" {
		table = "knowledge_base"
	}
	params.Del("table")

	order := params.Get("order")
	params.Del("order")
	if order == "" {
		switch dialect {
		case database.DialectSQLite:
			order = "rowid"
		case database.DialectMySQL:
			order = "id"
		}
	}
	for _, ident := range []string{table, order} {
		if ident != "" && !identPattern.MatchString(ident) {
			return nil, fmt.Errorf("invalid identifier %q in source %q", ident, spec)
		}
	}
	dsn := base
	if rest := params.Encode(); rest != "" {
		dsn += "?" + rest
	}
	src := &SQLSource{spec: spec, dialect: dialect, dsn: dsn, table: table, order: order}
	if dialect == database.DialectSQLite {
		src.path = base
	}
	return src, nil
}

func (s *SQLSource) Identity() string { return s.spec }

// Path 只对 sqlite 有意义，使其可以被 Watcher 监听。
func (s *SQLSource) Path() string {
	return s.path
}

func (s *SQLSource) Read(ctx context.Context) ([]model.KBEntry, error) {
	// sqlite 驱动会在文件不存在时创建空库，这里先显式检查
	if s.dialect == database.DialectSQLite {
		if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, s.path)
		}
	}

	db, err := database.OpenSQL(s.dialect, s.dsn)
	if err != nil {
		return nil, err
	}
	defer database.CloseSQL(db)
	db = db.WithContext(ctx)

	migrator := db.Migrator()
	if !migrator.HasTable(s.table) {
		return nil, fmt.Errorf("%w: table %q", ErrSourceNotFound, s.table)
	}
	for _, col := range []string{columnQuestion, columnAnswer} {
		if !migrator.HasColumn(s.table, col) {
			return nil, fmt.Errorf("%w: %q in table %q", ErrMissingColumn, col, s.table)
		}
	}

	var rows []kbRow
	query := db.Table(s.table).Select(columnQuestion, columnAnswer)
	if s.order != "" {
		query = query.Order(s.order)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query table %q: %w", s.table, err)
	}

	entries := make([]model.KBEntry, len(rows))
	for i, r := range rows {
		entries[i] = model.KBEntry{Question: trimPtr(r.Question), Answer: trimPtr(r.Answer)}
	}
	return entries, nil
}

func trimPtr(s *string) string {
	if s == nil {
		return ""
	}
	return cell([]string{*s}, 0)
}
