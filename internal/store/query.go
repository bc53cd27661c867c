package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// conditions accumulates positional WHERE clauses. Each expression passed to
// add must contain exactly one %d, which is replaced with the next $N.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(expr string, arg any) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(expr, len(c.args)))
}

// raw appends a clause that takes no argument.
func (c *conditions) raw(expr string) {
	c.clauses = append(c.clauses, expr)
}

// param appends an argument without a clause and returns its placeholder index.
func (c *conditions) param(arg any) int {
	c.args = append(c.args, arg)
	return len(c.args)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(c.clauses, " AND ")
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
