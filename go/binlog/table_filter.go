/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package binlog

import (
	"fmt"
	"strings"

	"github.com/github/binlog-extract/go/sql"
)

// TableReference is the table a Table_map event maps
type TableReference struct {
	DatabaseName string
	TableName    string
}

// ParseTableReference reads the qualified table name off the extra field of a Table_map
// annotation, e.g. "`shop`.`orders` mapped to number 90"
func ParseTableReference(extra string) (*TableReference, error) {
	tokens := strings.Fields(extra)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("Expected qualified table name, got empty Table_map")
	}
	qualifiedName := tokens[0]
	separator := "."
	if strings.Contains(qualifiedName, "`.`") {
		// quoted names may themselves contain dots
		separator = "`.`"
	}
	names := strings.SplitN(qualifiedName, separator, 2)
	if len(names) != 2 {
		return nil, fmt.Errorf("Expected qualified table name, got %s", qualifiedName)
	}
	return &TableReference{
		DatabaseName: sql.UnescapeName(names[0]),
		TableName:    sql.UnescapeName(names[1]),
	}, nil
}

func (this *TableReference) String() string {
	return sql.QualifiedName(this.DatabaseName, this.TableName)
}

// AllowList is the set of (unqualified) table names to extract
type AllowList struct {
	tables map[string]bool
}

func NewAllowList(tables ...string) *AllowList {
	allowList := &AllowList{tables: make(map[string]bool)}
	for _, table := range tables {
		allowList.tables[sql.UnescapeName(table)] = true
	}
	return allowList
}

// Matches tests for exact membership. An empty allow-list never matches.
func (this *AllowList) Matches(tableName string) bool {
	return this.tables[sql.UnescapeName(tableName)]
}

func (this *AllowList) Len() int {
	return len(this.tables)
}
