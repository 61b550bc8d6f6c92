/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package base

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/go-ini/ini"
)

const (
	// DefaultDelimiter is the statement terminator mysqlbinlog starts its output with
	DefaultDelimiter       = "/*!*/;"
	ExtractedFileSuffix    = "-extracted"
	configFileSectionName  = "extract"
	configTablesSeparator  = ","
	configFileTablesKey    = "tables"
	configFileOutputKey    = "out"
	configFileDebugKey     = "debug"
	configFileDelimiterKey = "delimiter"
)

var (
	envVariableRegexp = regexp.MustCompile("[$][{](.*)[}]")
)

// ExtractionContext has the general state of an extraction run. It is created once
// by the caller and handed to every component taking part in the run.
type ExtractionContext struct {
	SourceFile string
	OutputFile string
	ConfigFile string
	Tables     []string
	Debug      bool

	// InitialDelimiter is the delimiter in effect before any DELIMITER directive is read
	InitialDelimiter string

	Log         Logger
	configMutex *sync.Mutex
}

func NewExtractionContext() *ExtractionContext {
	return &ExtractionContext{
		InitialDelimiter: DefaultDelimiter,
		Log:              NewDefaultLogger(),
		configMutex:      &sync.Mutex{},
	}
}

// AddTables appends given table names to the allow-list. Empty and already known names are skipped.
func (this *ExtractionContext) AddTables(tables ...string) {
	known := make(map[string]bool, len(this.Tables))
	for _, table := range this.Tables {
		known[table] = true
	}
	for _, table := range tables {
		table = strings.TrimSpace(table)
		if table == "" || known[table] {
			continue
		}
		known[table] = true
		this.Tables = append(this.Tables, table)
	}
}

// GetOutputFileName returns the explicitly requested output file, or the source file name
// with the "-extracted" suffix injected before its extension.
func (this *ExtractionContext) GetOutputFileName() string {
	if this.OutputFile != "" {
		return this.OutputFile
	}
	return InjectFileNameSuffix(this.SourceFile, ExtractedFileSuffix)
}

// ReadConfigFile attempts to read the config file, if it exists.
// Values already set on the context (i.e. from command line) take precedence; tables are merged.
func (this *ExtractionContext) ReadConfigFile() error {
	this.configMutex.Lock()
	defer this.configMutex.Unlock()

	if this.ConfigFile == "" {
		return nil
	}
	cfg, err := ini.Load(this.ConfigFile)
	if err != nil {
		return fmt.Errorf("cannot read config file %s: %w", this.ConfigFile, err)
	}
	section := cfg.Section(configFileSectionName)

	if section.HasKey(configFileTablesKey) {
		this.AddTables(section.Key(configFileTablesKey).Strings(configTablesSeparator)...)
	}
	if this.OutputFile == "" {
		outputFile := section.Key(configFileOutputKey).String()
		// We accept the output file in the form "${SOME_ENV_VARIABLE}" in which case we pull
		// the given variable from os env
		if submatch := envVariableRegexp.FindStringSubmatch(outputFile); len(submatch) > 1 {
			outputFile = os.Getenv(submatch[1])
		}
		this.OutputFile = outputFile
	}
	if !this.Debug {
		this.Debug = section.Key(configFileDebugKey).MustBool(false)
	}
	if delimiter := section.Key(configFileDelimiterKey).String(); delimiter != "" {
		this.InitialDelimiter = delimiter
	}
	return nil
}
