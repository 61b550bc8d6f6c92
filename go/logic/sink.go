/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package logic

import (
	"bufio"
	"os"

	"github.com/github/binlog-extract/go/base"
)

// OutputSink writes extracted lines to the output file. The file is only created
// upon the first write, so that a run which extracts nothing leaves no file behind.
type OutputSink struct {
	extractionContext *base.ExtractionContext
	fileName          string
	file              *os.File
	writer            *bufio.Writer

	LinesWritten  int64
	BlocksWritten int64
}

func NewOutputSink(extractionContext *base.ExtractionContext) *OutputSink {
	return &OutputSink{
		extractionContext: extractionContext,
	}
}

func (this *OutputSink) open() error {
	if this.file != nil {
		return nil
	}
	fileName := this.extractionContext.GetOutputFileName()
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	this.extractionContext.Log.Infof("Writing to %s", fileName)
	this.fileName = fileName
	this.file = file
	this.writer = bufio.NewWriter(file)
	return nil
}

func (this *OutputSink) writeLines(lines []string) error {
	if err := this.open(); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := this.writer.WriteString(line); err != nil {
			return err
		}
		this.LinesWritten++
	}
	return nil
}

// WriteHeader writes the dump's preamble
func (this *OutputSink) WriteHeader(lines []string) error {
	return this.writeLines(lines)
}

// WriteBlock writes a retained statement block
func (this *OutputSink) WriteBlock(lines []string) error {
	if err := this.writeLines(lines); err != nil {
		return err
	}
	this.BlocksWritten++
	return nil
}

// IsOpen returns true once the output file has been created
func (this *OutputSink) IsOpen() bool {
	return this.file != nil
}

// FileName returns the name of the output file, or empty string if nothing has been written
func (this *OutputSink) FileName() string {
	return this.fileName
}

// Close flushes and closes the output file. It is safe to call on a sink which was never written to.
func (this *OutputSink) Close() error {
	if this.file == nil {
		return nil
	}
	file := this.file
	this.file = nil
	if err := this.writer.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
