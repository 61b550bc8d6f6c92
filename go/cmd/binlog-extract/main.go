/*
   Copyright 2026 GitHub Inc.
	 See https://github.com/github/binlog-extract/blob/master/LICENSE
*/

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/github/binlog-extract/go/base"
	"github.com/github/binlog-extract/go/logic"
	"github.com/openark/golib/log"
	"github.com/spf13/cobra"
)

var AppVersion string

type cliFlags struct {
	quiet   bool
	stack   bool
	version bool
}

func printUsage(out io.Writer, name string) {
	fmt.Fprintf(out, "Usage: %s [options] SQL-FILE\n", name)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "SQL-FILE should be SQL file generated by mysqlbinlog program.")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	fmt.Fprintln(out, "-t, --table tablename    Specify tablename to be extracted")
	fmt.Fprintln(out, "                         Can be supplied multiple times to extract more tables")
	fmt.Fprintln(out, "-o, --out filename       Specify out filename to write to")
	fmt.Fprintln(out, "-d, --debug              Turn on debugging")
	fmt.Fprintln(out, "-c, --conf filename      Config file")
	fmt.Fprintln(out, "    --quiet              Only print errors")
	fmt.Fprintln(out, "    --stack              Print stack traces on errors")
	fmt.Fprintln(out, "    --version            Print version and exit")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Example:")
	fmt.Fprintf(out, "%s -t mytable /path/to/my/file\n", name)
	fmt.Fprintln(out, "")
}

func newRootCommand(extractionContext *base.ExtractionContext) *cobra.Command {
	flags := &cliFlags{}
	name := filepath.Base(os.Args[0])

	rootCmd := &cobra.Command{
		Use:           fmt.Sprintf("%s [options] SQL-FILE", name),
		Short:         "Extract the statements of given tables out of a mysqlbinlog dump",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, extractionContext, flags)
		},
	}
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		printUsage(cmd.OutOrStdout(), name)
		return nil
	})
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		printUsage(cmd.OutOrStdout(), name)
	})
	// Unknown options print usage
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", err)
		printUsage(cmd.OutOrStdout(), name)
		return nil
	})
	// Options must precede SQL-FILE
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.Flags().StringArrayVarP(&extractionContext.Tables, "table", "t", nil, "Specify tablename to be extracted. Can be supplied multiple times to extract more tables")
	rootCmd.Flags().StringVarP(&extractionContext.OutputFile, "out", "o", "", "Specify out filename to write to")
	rootCmd.Flags().BoolVarP(&extractionContext.Debug, "debug", "d", false, "Turn on debugging")
	rootCmd.Flags().StringVarP(&extractionContext.ConfigFile, "conf", "c", "", "Config file")
	rootCmd.Flags().BoolVar(&flags.quiet, "quiet", false, "Only print errors")
	rootCmd.Flags().BoolVar(&flags.stack, "stack", false, "Print stack traces on errors")
	rootCmd.Flags().BoolVar(&flags.version, "version", false, "Print version and exit")
	return rootCmd
}

func run(cmd *cobra.Command, args []string, extractionContext *base.ExtractionContext, flags *cliFlags) error {
	if flags.version {
		appVersion := AppVersion
		if appVersion == "" {
			appVersion = "unversioned"
		}
		fmt.Fprintln(cmd.OutOrStdout(), appVersion)
		return nil
	}
	if len(args) != 1 {
		return cmd.Usage()
	}
	extractionContext.SourceFile = args[0]

	setLogLevel(extractionContext.Debug, flags)
	if err := extractionContext.ReadConfigFile(); err != nil {
		return err
	}
	// Tables may repeat between command line and config file
	tables := extractionContext.Tables
	extractionContext.Tables = nil
	extractionContext.AddTables(tables...)
	setLogLevel(extractionContext.Debug, flags)

	report, err := logic.NewExtractor(extractionContext).Extract()
	if err != nil {
		return err
	}
	log.Infof("Done %+v", report)
	return nil
}

func setLogLevel(debug bool, flags *cliFlags) {
	log.SetLevel(log.INFO)
	if debug {
		log.SetLevel(log.DEBUG)
	}
	if flags.stack {
		log.SetPrintStackTrace(flags.stack)
	}
	if flags.quiet {
		// Override!!
		log.SetLevel(log.ERROR)
	}
}

// main is the application's entry point
func main() {
	extractionContext := base.NewExtractionContext()
	if err := newRootCommand(extractionContext).Execute(); err != nil {
		log.Fatale(err)
	}
}
