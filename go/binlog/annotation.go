/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package binlog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-mysql-org/go-mysql/replication"
)

// Event type tags, as printed by mysqlbinlog
const (
	QueryEventTag             = "Query"
	TableMapEventTag          = "Table_map:"
	RotateEventTag            = "Rotate"
	FormatDescriptionEventTag = "Start:"
	XidEventTag               = "Xid"
)

var (
	annotationRegexp = regexp.MustCompile(`^#(\d{6})\s+` +
		`(\d{1,2}:\d{2}:\d{2})\s+` +
		`server id\s+(\d+)\s+` +
		`end_log_pos\s+(\d+)\s+` +
		`CRC32\s+(0x[a-z0-9]+)\s+` +
		`([A-Za-z_]+:?)(?:\s+(.*)|$)`)

	eventTagTypes = map[string]replication.EventType{
		QueryEventTag:             replication.QUERY_EVENT,
		TableMapEventTag:          replication.TABLE_MAP_EVENT,
		RotateEventTag:            replication.ROTATE_EVENT,
		FormatDescriptionEventTag: replication.FORMAT_DESCRIPTION_EVENT,
		XidEventTag:               replication.XID_EVENT,
		"Stop":                    replication.STOP_EVENT,
		"Intvar":                  replication.INTVAR_EVENT,
		"Rand":                    replication.RAND_EVENT,
		"User_var":                replication.USER_VAR_EVENT,
		"GTID":                    replication.GTID_EVENT,
		"Anonymous_GTID":          replication.ANONYMOUS_GTID_EVENT,
		"Rows_query":              replication.ROWS_QUERY_EVENT,
		"Write_rows:":             replication.WRITE_ROWS_EVENTv2,
		"Update_rows:":            replication.UPDATE_ROWS_EVENTv2,
		"Delete_rows:":            replication.DELETE_ROWS_EVENTv2,
	}
)

// Annotation is the parsed form of the comment line mysqlbinlog prints ahead of each event, e.g.
// #240501 10:00:01 server id 1  end_log_pos 567 CRC32 0x1a2b3c4d 	Table_map: `shop`.`orders` mapped to number 90
type Annotation struct {
	Date      string
	Time      string
	ServerId  uint64
	EndLogPos uint64
	CRC32     string
	Tag       string
	Extra     string
}

// ParseAnnotation classifies a single line. It returns nil when the line is not an
// event annotation, in which case it is ordinary log content.
func ParseAnnotation(line string) *Annotation {
	submatch := annotationRegexp.FindStringSubmatch(lineText(line))
	if len(submatch) == 0 {
		return nil
	}
	annotation := &Annotation{
		Date:  submatch[1],
		Time:  submatch[2],
		CRC32: submatch[5],
		Tag:   submatch[6],
		Extra: submatch[7],
	}
	annotation.ServerId, _ = strconv.ParseUint(submatch[3], 10, 64)
	annotation.EndLogPos, _ = strconv.ParseUint(submatch[4], 10, 64)
	return annotation
}

// EventType maps the printed tag onto the replication event type it stands for
func (this *Annotation) EventType() replication.EventType {
	if eventType, ok := eventTagTypes[this.Tag]; ok {
		return eventType
	}
	return replication.UNKNOWN_EVENT
}

func (this *Annotation) IsQuery() bool {
	return this.EventType() == replication.QUERY_EVENT
}

func (this *Annotation) IsTableMap() bool {
	return this.EventType() == replication.TABLE_MAP_EVENT
}

func (this *Annotation) IsFormatDescription() bool {
	return this.EventType() == replication.FORMAT_DESCRIPTION_EVENT
}

// RotateTarget returns the coordinates named by a Rotate annotation, e.g. "to mysql-bin.000013  pos: 4"
func (this *Annotation) RotateTarget() (logFile string, logPos int64, ok bool) {
	if this.EventType() != replication.ROTATE_EVENT {
		return "", 0, false
	}
	tokens := strings.Fields(this.Extra)
	if len(tokens) < 2 || tokens[0] != "to" {
		return "", 0, false
	}
	if len(tokens) >= 4 && tokens[2] == "pos:" {
		logPos, _ = strconv.ParseInt(tokens[3], 10, 64)
	}
	return tokens[1], logPos, true
}

func (this *Annotation) String() string {
	return fmt.Sprintf("[%s at end_log_pos %d]", this.EventType(), this.EndLogPos)
}

// lineText strips the line terminator off a raw line
func lineText(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
