/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package binlog

import (
	"regexp"

	"github.com/github/binlog-extract/go/base"
)

var (
	delimiterDirectiveRegexp = regexp.MustCompile(`^DELIMITER\s+(.*)`)
)

// DelimiterTracker keeps the statement terminator currently in effect
type DelimiterTracker struct {
	delimiter string
	log       base.Logger
}

func NewDelimiterTracker(delimiter string, logger base.Logger) *DelimiterTracker {
	return &DelimiterTracker{
		delimiter: delimiter,
		log:       logger,
	}
}

func (this *DelimiterTracker) Delimiter() string {
	return this.delimiter
}

// Track checks a line for a DELIMITER directive, and adopts the declared delimiter.
// The remainder of the line is taken as is.
func (this *DelimiterTracker) Track(line string) (changed bool) {
	submatch := delimiterDirectiveRegexp.FindStringSubmatch(lineText(line))
	if len(submatch) == 0 {
		return false
	}
	this.delimiter = submatch[1]
	this.log.Infof("DELIMITER set to %s...", this.delimiter)
	return true
}
