package schema

import (
	"fmt"
	"strings"

	"github.com/helloworldkim/querydsl/internal/ir"
)

var sqlTypes = map[ir.Type]string{
	ir.TypeString:  "TEXT",
	ir.TypeInt:     "INTEGER",
	ir.TypeDecimal: "NUMERIC",
	ir.TypeBool:    "INTEGER",
}

// DDL renders CREATE TABLE statements for every entity, in declaration order.
func (m *Model) DDL() string {
	var b strings.Builder
	for i, e := range m.Entities {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.tableDDL(e))
	}
	return b.String()
}

func (m *Model) tableDDL(e *Entity) string {
	lines := make([]string, 0, len(e.Columns))
	for _, c := range e.Columns {
		var line string
		switch {
		case c.Name == e.Identity:
			line = fmt.Sprintf("%s INTEGER PRIMARY KEY AUTOINCREMENT", c.Name)
		case c.Relation != "":
			line = fmt.Sprintf("%s %s", c.Name, sqlTypes[c.Type])
			if r, ok := e.Relation(c.Relation); ok {
				if target, ok := m.Entity(r.Target); ok {
					line += fmt.Sprintf(" REFERENCES %s(%s)", target.Table, target.Identity)
				}
			}
		default:
			line = fmt.Sprintf("%s %s", c.Name, sqlTypes[c.Type])
			if !c.Nullable {
				line += " NOT NULL"
			}
		}
		lines = append(lines, "\t"+line)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);\n", e.Table, strings.Join(lines, ",\n"))
}
