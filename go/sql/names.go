/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package sql

import (
	"fmt"
	"strconv"
	"strings"
)

// EscapeName will escape a db/table/column/... name by wrapping with backticks.
// It is not fool proof. I'm just trying to do the right thing here, not solving
// SQL injection issues, which should be irrelevant for this tool.
func EscapeName(name string) string {
	if unquoted, err := strconv.Unquote(name); err == nil {
		name = unquoted
	}
	return fmt.Sprintf("`%s`", UnescapeName(name))
}

// UnescapeName strips any surrounding backticks off a name, as mysqlbinlog prints them.
// Backticks within the name are left as they are.
func UnescapeName(name string) string {
	return strings.Trim(name, "`")
}

// QualifiedName returns the escaped `db`.`table` form
func QualifiedName(databaseName, tableName string) string {
	return fmt.Sprintf("%s.%s", EscapeName(databaseName), EscapeName(tableName))
}
