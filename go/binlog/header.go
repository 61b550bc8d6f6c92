/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package binlog

import (
	"regexp"
	"strings"

	"github.com/github/binlog-extract/go/base"
	"github.com/github/binlog-extract/go/mysql"
)

const (
	BinlogStatementMarker = "BINLOG"
)

var (
	serverVersionRegexp = regexp.MustCompile(`server v ([^ ]+) created`)
)

// Header is the preamble of a mysqlbinlog dump: session settings, DELIMITER directives,
// and the format description BINLOG statement. It is replayed ahead of any extracted statement.
type Header struct {
	Lines []string
}

// ServerVersion returns the version of the server which wrote the binary log, as
// announced by the format description event. nil when not found.
func (this *Header) ServerVersion() *mysql.ServerVersion {
	for _, line := range this.Lines {
		annotation := ParseAnnotation(line)
		if annotation == nil || !annotation.IsFormatDescription() {
			continue
		}
		submatch := serverVersionRegexp.FindStringSubmatch(annotation.Extra)
		if len(submatch) == 0 {
			return nil
		}
		serverVersion, err := mysql.ParseServerVersion(submatch[1])
		if err != nil {
			return nil
		}
		return serverVersion
	}
	return nil
}

// HeaderCollector accumulates lines up to and including the end of the first BINLOG statement
type HeaderCollector struct {
	delimiterTracker *DelimiterTracker
	binlogSeen       bool
	complete         bool
	lines            []string
	debug            bool
	log              base.Logger
}

func NewHeaderCollector(delimiterTracker *DelimiterTracker, logger base.Logger, debug bool) *HeaderCollector {
	return &HeaderCollector{
		delimiterTracker: delimiterTracker,
		lines:            []string{},
		debug:            debug,
		log:              logger,
	}
}

// Collect appends a line to the header. It returns true once the header is complete,
// after which no more lines are accepted.
func (this *HeaderCollector) Collect(line string) (complete bool) {
	if this.complete {
		return true
	}
	this.lines = append(this.lines, line)
	this.delimiterTracker.Track(line)
	if !this.binlogSeen && strings.Contains(line, BinlogStatementMarker) {
		this.binlogSeen = true
		if this.debug {
			this.log.Debugf("Found BINLOG header...")
		}
	}
	if this.binlogSeen && strings.Contains(line, this.delimiterTracker.Delimiter()) {
		this.complete = true
		if this.debug {
			this.log.Debugf("BINLOG header completed...")
		}
	}
	return this.complete
}

func (this *HeaderCollector) IsComplete() bool {
	return this.complete
}

// Header returns the collected header. It is nil until the header is complete.
func (this *HeaderCollector) Header() *Header {
	if !this.complete {
		return nil
	}
	return &Header{Lines: this.lines}
}

// CollectedLines is the number of lines absorbed so far
func (this *HeaderCollector) CollectedLines() int {
	return len(this.lines)
}
