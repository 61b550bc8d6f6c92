/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package logic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/github/binlog-extract/go/base"
	"github.com/github/binlog-extract/go/binlog"
	"github.com/github/binlog-extract/go/mysql"
	"github.com/go-mysql-org/go-mysql/replication"
)

// Report sums up an extraction run
type Report struct {
	SourceFound     bool
	HeaderComplete  bool
	ServerVersion   *mysql.ServerVersion
	LinesRead       int64
	BlocksStarted   int64
	BlocksRetained  int64
	BlocksDropped   int64
	BlocksAbandoned int64
	TableMatches    map[string]int64
	EventCounts     map[replication.EventType]int64
	OutputFile      string
	Coordinates     *mysql.FileBinlogCoordinates
}

func (this *Report) String() string {
	return fmt.Sprintf("[lines:%d; events:%d; blocks retained:%d/%d; tables:%+v; output:%q; at:%+v]",
		this.LinesRead, this.eventCount(), this.BlocksRetained, this.BlocksStarted, this.TableMatches, this.OutputFile, this.Coordinates)
}

func (this *Report) eventCount() (count int64) {
	for _, eventCount := range this.EventCounts {
		count += eventCount
	}
	return count
}

// Extractor reads a mysqlbinlog dump and writes out the statements affecting the requested tables
type Extractor struct {
	extractionContext *base.ExtractionContext
	delimiterTracker  *binlog.DelimiterTracker
	headerCollector   *binlog.HeaderCollector
	assembler         *binlog.StatementAssembler
	sink              *OutputSink
	coordinates       *mysql.FileBinlogCoordinates
	report            *Report
}

func NewExtractor(extractionContext *base.ExtractionContext) *Extractor {
	return &Extractor{
		extractionContext: extractionContext,
	}
}

// Extract runs the extraction. A missing source file is reported and yields an empty report, not an error.
func (this *Extractor) Extract() (report *Report, err error) {
	this.report = &Report{
		TableMatches: map[string]int64{},
		EventCounts:  map[replication.EventType]int64{},
	}
	sourceFile := this.extractionContext.SourceFile
	if !base.FileExists(sourceFile) {
		this.extractionContext.Log.Errorf("File not found %s!", sourceFile)
		return this.report, nil
	}
	this.report.SourceFound = true

	file, err := os.Open(sourceFile)
	if err != nil {
		return this.report, err
	}
	defer file.Close()

	logger := this.extractionContext.Log
	debug := this.extractionContext.Debug
	this.delimiterTracker = binlog.NewDelimiterTracker(this.extractionContext.InitialDelimiter, logger)
	this.headerCollector = binlog.NewHeaderCollector(this.delimiterTracker, logger, debug)
	this.sink = NewOutputSink(this.extractionContext)
	this.coordinates = mysql.NewFileBinlogCoordinates(filepath.Base(sourceFile), 0)
	defer func() {
		if closeErr := this.sink.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		this.report.OutputFile = this.sink.FileName()
	}()

	logger.Infof("Extracting tables %+v from %s", this.extractionContext.Tables, sourceFile)
	if err := this.readLines(bufio.NewReader(file)); err != nil {
		return this.report, err
	}
	this.finalizeReport()
	return this.report, nil
}

func (this *Extractor) readLines(reader *bufio.Reader) error {
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			this.report.LinesRead++
			if processErr := this.processLine(line); processErr != nil {
				return processErr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (this *Extractor) processLine(line string) error {
	if this.assembler == nil {
		if !this.headerCollector.Collect(line) {
			return nil
		}
		header := this.headerCollector.Header()
		this.report.HeaderComplete = true
		if this.report.ServerVersion = header.ServerVersion(); this.report.ServerVersion != nil {
			this.extractionContext.Log.Infof("Binary log written by %s", this.report.ServerVersion)
		}
		allowList := binlog.NewAllowList(this.extractionContext.Tables...)
		this.assembler = binlog.NewStatementAssembler(allowList, this.delimiterTracker, header, this.sink, this.extractionContext.Log, this.extractionContext.Debug)
		return nil
	}
	annotation := binlog.ParseAnnotation(line)
	if annotation != nil {
		this.report.EventCounts[annotation.EventType()]++
		this.trackCoordinates(annotation)
	}
	return this.assembler.Feed(line, annotation)
}

func (this *Extractor) trackCoordinates(annotation *binlog.Annotation) {
	coordinates := mysql.NewFileBinlogCoordinates(this.coordinates.LogFile, int64(annotation.EndLogPos))
	if coordinates.SmallerThan(this.coordinates) {
		this.extractionContext.Log.Warningf("end_log_pos went backwards from %s to %s; is this a concatenation of several logs?", this.coordinates, coordinates)
	}
	if logFile, logPos, ok := annotation.RotateTarget(); ok {
		if this.extractionContext.Debug {
			this.extractionContext.Log.Debugf("Rotate at %+v to %s:%d", coordinates.Position(), logFile, logPos)
		}
		coordinates = mysql.NewFileBinlogCoordinates(logFile, logPos)
	}
	this.coordinates = coordinates
}

func (this *Extractor) finalizeReport() {
	this.report.Coordinates = this.coordinates.Clone()
	if !this.report.HeaderComplete {
		this.extractionContext.Log.Warningf("No complete BINLOG header found in %s after %d lines; nothing extracted", this.extractionContext.SourceFile, this.headerCollector.CollectedLines())
		return
	}
	if this.assembler.HasPendingBlock() && this.extractionContext.Debug {
		this.extractionContext.Log.Debugf("Discarding uncommitted block at end of log, %+v", this.coordinates.Position())
	}
	this.report.BlocksStarted = this.assembler.BlocksStarted
	this.report.BlocksRetained = this.assembler.BlocksRetained
	this.report.BlocksDropped = this.assembler.BlocksDropped
	this.report.BlocksAbandoned = this.assembler.BlocksAbandoned
	for table, count := range this.assembler.TableMatches {
		this.report.TableMatches[table] = count
	}
	this.extractionContext.Log.Infof("Extracted %d of %d statement blocks, up to %+v", this.report.BlocksRetained, this.report.BlocksStarted, this.coordinates.Position())
}
