/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package binlog

import (
	"errors"
	"strings"
	"testing"

	"github.com/github/binlog-extract/go/base"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	headers  [][]string
	blocks   [][]string
	writes   []string
	failWith error
}

func (this *recordingSink) WriteHeader(lines []string) error {
	if this.failWith != nil {
		return this.failWith
	}
	this.headers = append(this.headers, lines)
	this.writes = append(this.writes, "header")
	return nil
}

func (this *recordingSink) WriteBlock(lines []string) error {
	if this.failWith != nil {
		return this.failWith
	}
	this.blocks = append(this.blocks, lines)
	this.writes = append(this.writes, "block")
	return nil
}

func newTestAssembler(sink BlockSink, delimiter string, tables ...string) *StatementAssembler {
	logger := base.NewDefaultLogger()
	tracker := NewDelimiterTracker(delimiter, logger)
	header := &Header{Lines: []string{"DELIMITER /*!*/;\n", "BINLOG '\n", "'/*!*/;\n"}}
	return NewStatementAssembler(NewAllowList(tables...), tracker, header, sink, logger, true)
}

func feedLines(t *testing.T, assembler *StatementAssembler, text string) {
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		require.NoError(t, assembler.Feed(line, ParseAnnotation(line)))
	}
}

const twoTablesTransaction = `# at 236
#240501 10:00:01 server id 1  end_log_pos 315 CRC32 0x2c4d5e6f 	Query	thread_id=8	exec_time=0	error_code=0
SET TIMESTAMP=1714557601/*!*/;
BEGIN
/*!*/;
# at 315
#240501 10:00:01 server id 1  end_log_pos 372 CRC32 0x3d5e6f70 	Table_map: ` + "`shop`.`t1`" + ` mapped to number 90
# at 372
#240501 10:00:01 server id 1  end_log_pos 425 CRC32 0x4e6f7081 	Write_rows: table id 90 flags: STMT_END_F
BINLOG '
dDEtcm93cw==
'/*!*/;
# at 425
#240501 10:00:01 server id 1  end_log_pos 480 CRC32 0x5f708192 	Table_map: ` + "`shop`.`t2`" + ` mapped to number 91
# at 480
#240501 10:00:01 server id 1  end_log_pos 530 CRC32 0x6f8192a3 	Write_rows: table id 91 flags: STMT_END_F
BINLOG '
dDItcm93cw==
'/*!*/;
# at 530
#240501 10:00:01 server id 1  end_log_pos 561 CRC32 0x708192a3 	Xid = 31
COMMIT/*!*/;
`

func TestAssemblerRetainsMatchedTableAndExcludesOthers(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "t1")
	feedLines(t, assembler, twoTablesTransaction)

	require.Equal(t, IdleState, assembler.State())
	require.Equal(t, []string{"header", "block"}, sink.writes)
	require.Len(t, sink.headers, 1)

	block := strings.Join(sink.blocks[0], "")
	require.Equal(t, `# at 236
#240501 10:00:01 server id 1  end_log_pos 315 CRC32 0x2c4d5e6f 	Query	thread_id=8	exec_time=0	error_code=0
SET TIMESTAMP=1714557601/*!*/;
BEGIN
/*!*/;
# at 315
#240501 10:00:01 server id 1  end_log_pos 372 CRC32 0x3d5e6f70 	Table_map: `+"`shop`.`t1`"+` mapped to number 90
# at 372
#240501 10:00:01 server id 1  end_log_pos 425 CRC32 0x4e6f7081 	Write_rows: table id 90 flags: STMT_END_F
BINLOG '
dDEtcm93cw==
'/*!*/;
# at 425
# at 530
#240501 10:00:01 server id 1  end_log_pos 561 CRC32 0x708192a3 	Xid = 31
COMMIT/*!*/;
`, block)

	require.Equal(t, int64(1), assembler.BlocksStarted)
	require.Equal(t, int64(1), assembler.BlocksRetained)
	require.Equal(t, int64(0), assembler.BlocksDropped)
	require.Equal(t, map[string]int64{"`shop`.`t1`": 1}, assembler.TableMatches)
}

func TestAssemblerRetainsBlockMatchedByLaterTable(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "t2")
	feedLines(t, assembler, twoTablesTransaction)

	require.Len(t, sink.blocks, 1)
	block := strings.Join(sink.blocks[0], "")
	require.NotContains(t, block, "`shop`.`t1`")
	require.NotContains(t, block, "dDEtcm93cw==")
	require.NotContains(t, block, "table id 90")
	require.Contains(t, block, "`shop`.`t2`")
	require.Contains(t, block, "dDItcm93cw==")
	require.True(t, strings.HasPrefix(block, "# at 236\n"))
	require.True(t, strings.HasSuffix(block, "COMMIT/*!*/;\n"))
}

func TestAssemblerDropsUnmatchedBlock(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "nonexistent")
	feedLines(t, assembler, twoTablesTransaction)
	feedLines(t, assembler, twoTablesTransaction)

	require.Empty(t, sink.writes)
	require.Equal(t, int64(2), assembler.BlocksStarted)
	require.Equal(t, int64(0), assembler.BlocksRetained)
	require.Equal(t, int64(2), assembler.BlocksDropped)
	require.Empty(t, assembler.TableMatches)
}

func TestAssemblerEmptyAllowList(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter)
	feedLines(t, assembler, twoTablesTransaction)
	require.Empty(t, sink.writes)
}

func TestAssemblerWritesHeaderOnce(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "t1", "t2")
	feedLines(t, assembler, twoTablesTransaction)
	feedLines(t, assembler, twoTablesTransaction)
	feedLines(t, assembler, twoTablesTransaction)

	require.Equal(t, []string{"header", "block", "block", "block"}, sink.writes)
	require.Equal(t, map[string]int64{"`shop`.`t1`": 3, "`shop`.`t2`": 3}, assembler.TableMatches)
	for _, block := range sink.blocks {
		require.Equal(t, strings.Count(twoTablesTransaction, "\n"), len(block))
	}
}

func TestAssemblerIgnoresBlockWithoutTableMap(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "t1")
	feedLines(t, assembler, `# at 157
#240501 10:00:01 server id 1  end_log_pos 315 CRC32 0x2c4d5e6f 	Query	thread_id=8	exec_time=0	error_code=0
SET TIMESTAMP=1714557601/*!*/;
INSERT INTO t1 VALUES (1)
/*!*/;
COMMIT/*!*/;
`)
	require.Empty(t, sink.writes)
	require.Equal(t, int64(1), assembler.BlocksDropped)
}

func TestAssemblerIdleLookback(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "t1")
	feedLines(t, assembler, `# at 100
#240501 10:00:01 server id 1  end_log_pos 157 CRC32 0x1b9a3c7d 	Anonymous_GTID	last_committed=0	sequence_number=1
SET @@SESSION.GTID_NEXT= 'ANONYMOUS'/*!*/;
`)
	require.Equal(t, IdleState, assembler.State())
	require.False(t, assembler.HasPendingBlock())

	feedLines(t, assembler, `#240501 10:00:01 server id 1  end_log_pos 315 CRC32 0x2c4d5e6f 	Query	thread_id=8
`)
	require.Equal(t, CollectingState, assembler.State())
	require.True(t, assembler.HasPendingBlock())

	feedLines(t, assembler, `#240501 10:00:01 server id 1  end_log_pos 372 CRC32 0x3d5e6f70 	Table_map: `+"`shop`.`t1`"+` mapped to number 90
`)
	require.Equal(t, TableOpenState, assembler.State())
	feedLines(t, assembler, `'/*!*/;
`)
	require.Equal(t, CollectingState, assembler.State())
	feedLines(t, assembler, `COMMIT/*!*/;
`)
	require.Equal(t, IdleState, assembler.State())

	require.Len(t, sink.blocks, 1)
	require.Equal(t, "SET @@SESSION.GTID_NEXT= 'ANONYMOUS'/*!*/;\n", sink.blocks[0][0])
}

func TestAssemblerWithoutLookback(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "t1")
	feedLines(t, assembler, `#240501 10:00:01 server id 1  end_log_pos 315 CRC32 0x2c4d5e6f 	Query	thread_id=8
#240501 10:00:01 server id 1  end_log_pos 372 CRC32 0x3d5e6f70 	Table_map: `+"`shop`.`t1`"+` mapped to number 90
'/*!*/;
COMMIT/*!*/;
`)
	require.Len(t, sink.blocks, 1)
	require.Len(t, sink.blocks[0], 4)
	require.True(t, strings.HasPrefix(sink.blocks[0][0], "#240501"))
}

func TestAssemblerCommitInsideExcludedTable(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "t1")
	feedLines(t, assembler, `# at 236
#240501 10:00:01 server id 1  end_log_pos 315 CRC32 0x2c4d5e6f 	Query	thread_id=8
#240501 10:00:01 server id 1  end_log_pos 372 CRC32 0x3d5e6f70 	Table_map: `+"`shop`.`t1`"+` mapped to number 90
'/*!*/;
#240501 10:00:01 server id 1  end_log_pos 480 CRC32 0x5f708192 	Table_map: `+"`shop`.`t2`"+` mapped to number 91
COMMIT
`)
	require.Equal(t, IdleState, assembler.State())
	require.Len(t, sink.blocks, 1)
	block := strings.Join(sink.blocks[0], "")
	require.NotContains(t, block, "COMMIT")
	require.NotContains(t, block, "`shop`.`t2`")
}

func TestAssemblerRestartsUncommittedBlock(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "t1")
	feedLines(t, assembler, `# at 157
#240501 10:00:01 server id 1  end_log_pos 236 CRC32 0x2c4d5e6f 	Query	thread_id=8	exec_time=0	error_code=0
ALTER TABLE t1 ADD COLUMN c INT
/*!*/;
# at 236
`)
	feedLines(t, assembler, twoTablesTransaction[strings.Index(twoTablesTransaction, "\n")+1:])

	require.Equal(t, int64(2), assembler.BlocksStarted)
	require.Equal(t, int64(1), assembler.BlocksAbandoned)
	require.Equal(t, int64(1), assembler.BlocksRetained)
	require.Len(t, sink.blocks, 1)
	block := strings.Join(sink.blocks[0], "")
	require.NotContains(t, block, "ALTER TABLE")
	require.NotContains(t, block, "# at 236\n")
	require.True(t, strings.HasPrefix(block, "# at 157\n#240501 10:00:01 server id 1  end_log_pos 315 "))
}

func TestAssemblerKeepsIdleLookbackAcrossBlocks(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "t1")
	feedLines(t, assembler, twoTablesTransaction)
	feedLines(t, assembler, twoTablesTransaction[strings.Index(twoTablesTransaction, "\n")+1:])

	require.Len(t, sink.blocks, 2)
	require.Equal(t, "# at 236\n", sink.blocks[1][0])
	require.NotEqual(t, "COMMIT/*!*/;\n", sink.blocks[1][0])
}

func TestAssemblerDelimiter(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, "$$", "t1")
	feedLines(t, assembler, `# at 236
#240501 10:00:01 server id 1  end_log_pos 315 CRC32 0x2c4d5e6f 	Query	thread_id=8
#240501 10:00:01 server id 1  end_log_pos 372 CRC32 0x3d5e6f70 	Table_map: `+"`shop`.`t2`"+` mapped to number 91
'/*!*/;
still inside t2
'$$
between tables
#240501 10:00:01 server id 1  end_log_pos 480 CRC32 0x5f708192 	Table_map: `+"`shop`.`t1`"+` mapped to number 90
inside t1
'$$
COMMIT$$
`)
	require.Len(t, sink.blocks, 1)
	block := strings.Join(sink.blocks[0], "")
	require.NotContains(t, block, "still inside t2")
	require.Contains(t, block, "between tables\n")
	require.Contains(t, block, "inside t1\n")
	require.True(t, strings.HasSuffix(block, "COMMIT$$\n"))
}

func TestAssemblerMalformedTableMap(t *testing.T) {
	sink := &recordingSink{}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "t1")
	feedLines(t, assembler, `#240501 10:00:01 server id 1  end_log_pos 315 CRC32 0x2c4d5e6f 	Query	thread_id=8
#240501 10:00:01 server id 1  end_log_pos 372 CRC32 0x3d5e6f70 	Table_map: t1 mapped to number 90
'/*!*/;
COMMIT/*!*/;
`)
	require.Empty(t, sink.writes)
	require.Equal(t, int64(1), assembler.BlocksDropped)
}

func TestAssemblerSinkFailure(t *testing.T) {
	sink := &recordingSink{failWith: errors.New("disk full")}
	assembler := newTestAssembler(sink, base.DefaultDelimiter, "t1")
	var err error
	for _, line := range strings.SplitAfter(twoTablesTransaction, "\n") {
		if line == "" {
			continue
		}
		if err = assembler.Feed(line, ParseAnnotation(line)); err != nil {
			break
		}
	}
	require.EqualError(t, err, "disk full")
}
