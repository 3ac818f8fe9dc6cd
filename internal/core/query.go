// AngelaMos | 2026
// query.go

package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5/pgconn"
)

// Where accumulates AND-ed predicates. Conditions use ? placeholders which
// are renumbered to $n in the order they are added.
type Where struct {
	conds []string
	args  []any
}

func (w *Where) Add(cond string, args ...any) {
	var b strings.Builder
	argIdx := 0
	for _, ch := range cond {
		if ch == '?' && argIdx < len(args) {
			w.args = append(w.args, args[argIdx])
			fmt.Fprintf(&b, "$%d", len(w.args))
			argIdx++
			continue
		}
		b.WriteRune(ch)
	}
	w.conds = append(w.conds, b.String())
}

// AddIf adds cond only when value is non-empty.
func (w *Where) AddIf(value string, cond string) {
	if value == "" {
		return
	}
	w.Add(cond, value)
}

func (w *Where) Clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

func (w *Where) Args() []any {
	return append([]any(nil), w.args...)
}

// Next is the placeholder number following the last added argument.
func (w *Where) Next() int {
	return len(w.args) + 1
}

var immutableColumns = map[string]struct{}{
	"id":         {},
	"created_at": {},
	"updated_at": {},
}

// Patch is a partial column update. updated_at is always stamped.
type Patch struct {
	cols []string
	args []any
}

func NewPatch() *Patch {
	return &Patch{}
}

// Set assigns a storage column directly.
func (p *Patch) Set(column string, value any) *Patch {
	for i, c := range p.cols {
		if c == column {
			p.args[i] = value
			return p
		}
	}
	p.cols = append(p.cols, column)
	p.args = append(p.args, value)
	return p
}

// SetField assigns a camelCase domain field, translated to its column.
func (p *Patch) SetField(field string, value any) error {
	column := ToSnake(field)
	if _, ok := immutableColumns[column]; ok {
		return fmt.Errorf("field %q is immutable: %w", field, ErrInvalidInput)
	}
	p.Set(column, value)
	return nil
}

func (p *Patch) Empty() bool {
	return len(p.cols) == 0
}

func (p *Patch) Columns() []string {
	return append([]string(nil), p.cols...)
}

// Build renders UPDATE table SET ... WHERE ... RETURNING returning.
func (p *Patch) Build(table string, where *Where, returning string) (string, []any) {
	sets := make([]string, 0, len(p.cols)+1)
	args := make([]any, 0, len(p.args)+len(where.args))

	for i, c := range p.cols {
		args = append(args, p.args[i])
		sets = append(sets, fmt.Sprintf("%s = $%d", c, len(args)))
	}
	sets = append(sets, "updated_at = NOW()")

	offset := len(args)
	conds := make([]string, 0, len(where.conds))
	for _, c := range where.conds {
		conds = append(conds, shiftPlaceholders(c, offset))
	}
	args = append(args, where.args...)

	query := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(sets, ", "))
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if returning != "" {
		query += " RETURNING " + returning
	}

	return query, args
}

func shiftPlaceholders(cond string, offset int) string {
	if offset == 0 {
		return cond
	}

	var b strings.Builder
	for i := 0; i < len(cond); i++ {
		if cond[i] != '$' {
			b.WriteByte(cond[i])
			continue
		}
		j := i + 1
		n := 0
		for j < len(cond) && cond[j] >= '0' && cond[j] <= '9' {
			n = n*10 + int(cond[j]-'0')
			j++
		}
		if j == i+1 {
			b.WriteByte('$')
			continue
		}
		fmt.Fprintf(&b, "$%d", n+offset)
		i = j - 1
	}
	return b.String()
}

// ToSnake converts camelCase or PascalCase to snake_case (avatarURL -> avatar_url).
func ToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
					(unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NullIfEmpty maps "" to NULL for nullable uuid and text columns.
func NullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
