/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package base

import (
	"os"
	"path/filepath"
	"strings"
)

func FileExists(fileName string) bool {
	if _, err := os.Stat(fileName); err == nil {
		return true
	}
	return false
}

// InjectFileNameSuffix inserts `suffix` right before the extension of `fileName`.
// e.g. "/tmp/binlog.000012.sql" => "/tmp/binlog.000012-extracted.sql"
func InjectFileNameSuffix(fileName string, suffix string) string {
	extension := filepath.Ext(fileName)
	return strings.TrimSuffix(fileName, extension) + suffix + extension
}
