package cli

import (
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/examlab/examlab/internal/moodlexml"
)

func runXML(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		out := flags.String("o", "-", "Output path, - for stdout")
		strict := flags.Bool("strict", false, "Apply full authoring validation before exporting")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}
		if flags.NArg() != 1 {
			fmt.Fprintln(stderr, "exactly one quiz file is required")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		log := newLogger(stderr)
		defer log.Sync()

		quizzes, err := loadQuizzes(flags.Args(), *strict)
		if err != nil {
			fmt.Fprintf(stderr, "Load failed:\n%v\n", err)
			return ExitError
		}
		q := quizzes[0]
		data, err := moodlexml.Export(q.CategoryName, q.Questions)
		if err != nil {
			fmt.Fprintf(stderr, "Export failed:\n%v\n", err)
			return ExitError
		}
		if err := writeOutput(*out, data, stdout); err != nil {
			fmt.Fprintf(stderr, "write %s: %v\n", *out, err)
			return ExitError
		}
		log.Info("xml written", zap.String("path", *out), zap.Int("questions", len(q.Questions)))
		return ExitOK
	}
}
