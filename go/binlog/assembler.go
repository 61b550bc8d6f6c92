/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package binlog

import (
	"fmt"
	"strings"

	"github.com/github/binlog-extract/go/base"
)

const (
	CommitMarker = "COMMIT"
)

// AssemblerState is a state in the statement assembler automaton / state machine
type AssemblerState string

// States of the state machine
const (
	// IdleState: no statement in progress
	IdleState AssemblerState = "IdleState"
	// CollectingState: inside a query event, collecting its lines
	CollectingState AssemblerState = "CollectingState"
	// TableOpenState: inside the body of a Table_map event, up to its delimiter
	TableOpenState AssemblerState = "TableOpenState"
)

// BlockSink receives the statement blocks the assembler retains
type BlockSink interface {
	WriteHeader(lines []string) error
	WriteBlock(lines []string) error
}

// StatementBlock is one logical replay unit: a query event through its COMMIT
type StatementBlock struct {
	Lines         []string
	Query         *Annotation
	MatchedTables []*TableReference
}

func newStatementBlock(query *Annotation) *StatementBlock {
	return &StatementBlock{
		Lines: []string{},
		Query: query,
	}
}

func (this *StatementBlock) String() string {
	return fmt.Sprintf("[StatementBlock at %+v; lines:%d; tables:%+v]", this.Query, len(this.Lines), this.MatchedTables)
}

// StatementAssembler groups post-header lines into statement blocks, and hands the blocks
// which touch an allowed table over to the sink. The header is written ahead of the first one.
type StatementAssembler struct {
	allowList        *AllowList
	delimiterTracker *DelimiterTracker
	header           *Header
	sink             BlockSink
	debug            bool
	log              base.Logger

	state               AssemblerState
	block               *StatementBlock
	tableSeenCount      int
	currentTableMatched bool
	lastOrdinaryLine    *string
	headerWritten       bool

	BlocksStarted   int64
	BlocksRetained  int64
	BlocksDropped   int64
	BlocksAbandoned int64
	TableMatches    map[string]int64
}

func NewStatementAssembler(allowList *AllowList, delimiterTracker *DelimiterTracker, header *Header, sink BlockSink, logger base.Logger, debug bool) *StatementAssembler {
	return &StatementAssembler{
		allowList:        allowList,
		delimiterTracker: delimiterTracker,
		header:           header,
		sink:             sink,
		debug:            debug,
		log:              logger,
		state:            IdleState,
		TableMatches:     make(map[string]int64),
	}
}

func (this *StatementAssembler) State() AssemblerState {
	return this.state
}

// HasPendingBlock returns true when a block has been started and not yet closed
func (this *StatementAssembler) HasPendingBlock() bool {
	return this.state != IdleState
}

// Feed runs a single line, along with its classification (nil when not an annotation),
// through the state machine.
func (this *StatementAssembler) Feed(line string, annotation *Annotation) error {
	if annotation != nil && annotation.IsQuery() {
		this.startBlock(annotation)
	}
	if this.state == IdleState {
		if annotation == nil {
			this.lastOrdinaryLine = &line
		}
		return nil
	}

	if annotation != nil && annotation.IsTableMap() {
		this.openTable(annotation)
	}
	closing := strings.Contains(line, CommitMarker)
	if this.state != TableOpenState || this.currentTableMatched {
		this.block.Lines = append(this.block.Lines, line)
	}
	if this.state == TableOpenState && strings.Contains(line, this.delimiterTracker.Delimiter()) {
		this.state = CollectingState
	}
	if closing {
		return this.closeBlock()
	}
	return nil
}

// startBlock begins a new block, seeded with the last ordinary line seen while idle:
// that is where mysqlbinlog puts the event's position.
func (this *StatementAssembler) startBlock(query *Annotation) {
	if this.state != IdleState {
		this.BlocksAbandoned++
		if this.debug {
			this.log.Debugf("Abandoning uncommitted block %+v", this.block)
		}
	}
	// lastOrdinaryLine only follows idle lines; a restarted block reuses the earlier seed
	this.block = newStatementBlock(query)
	if this.lastOrdinaryLine != nil {
		this.block.Lines = append(this.block.Lines, *this.lastOrdinaryLine)
	}
	this.tableSeenCount = 0
	this.currentTableMatched = false
	this.state = CollectingState
	this.BlocksStarted++
}

func (this *StatementAssembler) openTable(tableMap *Annotation) {
	this.state = TableOpenState
	tableReference, err := ParseTableReference(tableMap.Extra)
	if err != nil {
		this.currentTableMatched = false
		this.log.Warningf("Cannot read table of %+v: %+v", tableMap, err)
		return
	}
	this.currentTableMatched = this.allowList.Matches(tableReference.TableName)
	if this.currentTableMatched {
		this.tableSeenCount++
		this.block.MatchedTables = append(this.block.MatchedTables, tableReference)
		this.TableMatches[tableReference.String()]++
		this.log.Infof("Found match for table %s...", tableReference)
	} else if this.debug {
		this.log.Debugf("Table is excluded %s...", tableReference)
	}
}

func (this *StatementAssembler) closeBlock() error {
	block := this.block
	retained := this.tableSeenCount > 0

	this.state = IdleState
	this.block = nil
	this.tableSeenCount = 0
	this.currentTableMatched = false

	if !retained {
		this.BlocksDropped++
		if this.debug {
			this.log.Debugf("Dropping %+v", block)
		}
		return nil
	}
	this.BlocksRetained++
	if !this.headerWritten {
		if err := this.sink.WriteHeader(this.header.Lines); err != nil {
			return err
		}
		this.headerWritten = true
	}
	return this.sink.WriteBlock(block.Lines)
}
