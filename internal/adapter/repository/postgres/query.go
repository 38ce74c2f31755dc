package postgres

import (
	"strings"
)

// whereBuilder collects AND-ed conditions with numbered placeholders.
type whereBuilder struct {
	placeholders
	conds []string
}

// where appends cond after replacing each "?" with the next placeholder.
func (w *whereBuilder) where(cond string, args ...any) {
	var sb strings.Builder
	for _, arg := range args {
		i := strings.IndexByte(cond, '?')
		if i < 0 {
			break
		}
		sb.WriteString(cond[:i])
		sb.WriteString(w.add(arg))
		cond = cond[i+1:]
	}
	sb.WriteString(cond)
	w.conds = append(w.conds, sb.String())
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET to query. A non-positive limit means no limit.
func (w *whereBuilder) page(query string, limit, offset int) string {
	if limit > 0 {
		query += " LIMIT " + w.add(limit)
	}
	if offset > 0 {
		query += " OFFSET " + w.add(offset)
	}
	return query
}

// escapeLike quotes the LIKE wildcards in s.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
