/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package mysql

import (
	"strings"

	gomysql "github.com/go-mysql-org/go-mysql/mysql"
	version "github.com/hashicorp/go-version"
)

const (
	MariaDBVersionMarker = "MariaDB"
)

// ServerVersion is the version of the server which wrote a binary log,
// as announced by the log's format description event.
type ServerVersion struct {
	*version.Version
	Flavor string
}

// ParseServerVersion parses strings such as "8.0.36", "5.7.44-log" or "10.11.6-MariaDB-log".
func ParseServerVersion(serverVersion string) (*ServerVersion, error) {
	vs, err := version.NewVersion(serverVersion)
	if err != nil {
		return nil, err
	}
	flavor := gomysql.MySQLFlavor
	if strings.Contains(serverVersion, MariaDBVersionMarker) {
		flavor = gomysql.MariaDBFlavor
	}
	return &ServerVersion{Version: vs, Flavor: flavor}, nil
}

func (this *ServerVersion) String() string {
	return this.Flavor + " " + this.Version.Original()
}
