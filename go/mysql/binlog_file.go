/*
   Copyright 2015 Shlomi Noach, courtesy Booking.com
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package mysql

import (
	"fmt"

	gomysql "github.com/go-mysql-org/go-mysql/mysql"
)

// FileBinlogCoordinates described binary log coordinates in the form of a binlog file & log position.
type FileBinlogCoordinates struct {
	LogFile string
	LogPos  int64
}

func NewFileBinlogCoordinates(logFile string, logPos int64) *FileBinlogCoordinates {
	return &FileBinlogCoordinates{
		LogFile: logFile,
		LogPos:  logPos,
	}
}

// DisplayString returns a user-friendly string representation of these coordinates
func (this *FileBinlogCoordinates) DisplayString() string {
	return fmt.Sprintf("%s:%d", this.LogFile, this.LogPos)
}

// String returns a user-friendly string representation of these coordinates
func (this FileBinlogCoordinates) String() string {
	return this.DisplayString()
}

// Position returns these coordinates in go-mysql terms
func (this *FileBinlogCoordinates) Position() gomysql.Position {
	return gomysql.Position{Name: this.LogFile, Pos: uint32(this.LogPos)}
}

// SmallerThan returns true if this coordinate is strictly smaller than the other.
func (this *FileBinlogCoordinates) SmallerThan(other *FileBinlogCoordinates) bool {
	if other == nil {
		return false
	}
	if this.LogFile < other.LogFile {
		return true
	}
	if this.LogFile == other.LogFile && this.LogPos < other.LogPos {
		return true
	}
	return false
}

func (this *FileBinlogCoordinates) Clone() *FileBinlogCoordinates {
	return &FileBinlogCoordinates{
		LogPos:  this.LogPos,
		LogFile: this.LogFile,
	}
}
