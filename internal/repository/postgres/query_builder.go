package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/maxviazov/projecthub-service/internal/repository"
)

// columns maps the logical fields a store accepts in filters and sort keys onto
// SQL expressions. Anything not listed is refused with ErrUnsupportedField, so
// client input never reaches the statement text.
type columns map[string]string

func (c columns) column(field string) (string, error) {
	col, ok := c[field]
	if !ok {
		return "", fmt.Errorf("%w: %q", repository.ErrUnsupportedField, field)
	}
	return col, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// sqlBuilder accumulates positional arguments while the statement is assembled.
type sqlBuilder struct {
	cols columns
	sb   strings.Builder
	args []any
}

func newSQLBuilder(cols columns, head string) *sqlBuilder {
	b := &sqlBuilder{cols: cols}
	b.sb.WriteString(head)
	return b
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) where(f repository.Filter) error {
	for i, cl := range f.Clauses {
		col, err := b.cols.column(cl.Field)
		if err != nil {
			return err
		}
		if i == 0 {
			b.sb.WriteString(" WHERE ")
		} else {
			b.sb.WriteString(" AND ")
		}
		switch cl.Op {
		case repository.OpEq, "":
			b.sb.WriteString(col + " = " + b.arg(cl.Value))
		case repository.OpContains:
			s, ok := cl.Value.(string)
			if !ok {
				return fmt.Errorf("%w: contains on %q needs a string", repository.ErrUnsupportedField, cl.Field)
			}
			b.sb.WriteString(col + " ILIKE " + b.arg("%"+likeEscaper.Replace(s)+"%"))
		default:
			return fmt.Errorf("%w: operator %q", repository.ErrUnsupportedField, cl.Op)
		}
	}
	return nil
}

func (b *sqlBuilder) orderBy(order []repository.OrderBy) error {
	for i, o := range order {
		col, err := b.cols.column(o.Field)
		if err != nil {
			return err
		}
		dir := "ASC"
		if o.Dir == repository.Desc {
			dir = "DESC"
		}
		if i == 0 {
			b.sb.WriteString(" ORDER BY ")
		} else {
			b.sb.WriteString(", ")
		}
		b.sb.WriteString(col + " " + dir)
	}
	return nil
}

func (b *sqlBuilder) window(limit, offset int) {
	limit, offset = sanitizeLimitOffset(limit, offset)
	b.sb.WriteString(" LIMIT " + b.arg(limit) + " OFFSET " + b.arg(offset))
}

func (b *sqlBuilder) String() string { return b.sb.String() }

// countSQL renders SELECT COUNT(*) <from> <where>.
func countSQL(cols columns, from string, f repository.Filter) (string, []any, error) {
	b := newSQLBuilder(cols, "SELECT COUNT(*) "+from)
	if err := b.where(f); err != nil {
		return "", nil, err
	}
	return b.String(), b.args, nil
}

// fetchSQL renders SELECT <selectList> <from> <where> <order> <window>.
func fetchSQL(cols columns, selectList, from string, q repository.Query) (string, []any, error) {
	b := newSQLBuilder(cols, "SELECT "+selectList+" "+from)
	if err := b.where(q.Filter); err != nil {
		return "", nil, err
	}
	if err := b.orderBy(q.OrderBy); err != nil {
		return "", nil, err
	}
	b.window(q.Window.Take, q.Window.Skip)
	return b.String(), b.args, nil
}

// nullableTime sends the zero time as NULL so column defaults apply.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
