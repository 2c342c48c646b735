package cli

import (
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/examlab/examlab/internal/moodle"
)

func runMBZ(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		out := flags.String("o", "", "Output path (default: the generated backup name)")
		start := flags.Int64("moduleid-start", moodle.DefaultModuleIDStart, "First moduleid for quizzes without one")
		category := flags.String("category", moodle.DefaultCategory, "Question bank category when no quiz names one")
		wwwroot := flags.String("wwwroot", moodle.DefaultWWWRoot, "Original site URL recorded in the backup")
		strict := flags.Bool("strict", false, "Apply full authoring validation before building")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}
		if flags.NArg() == 0 {
			fmt.Fprintln(stderr, "at least one quiz file is required")
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
		b := moodle.NewBuilder()
		b.ModuleIDStart = *start
		b.DefaultCategory = *category
		b.WWWRoot = *wwwroot

		a, err := b.Archive(quizzes)
		if err != nil {
			fmt.Fprintf(stderr, "Export failed:\n%v\n", err)
			return ExitError
		}
		path := *out
		if path == "" {
			path = a.Name
		}
		if err := writeOutput(path, a.Data, stdout); err != nil {
			fmt.Fprintf(stderr, "write %s: %v\n", path, err)
			return ExitError
		}
		log.Info("archive written",
			zap.String("path", path),
			zap.Int("quizzes", len(a.Modules)),
			zap.Int("questions", a.Questions),
			zap.Int("bytes", len(a.Data)),
		)
		if path != "-" {
			fmt.Fprintf(stdout, "Wrote %s (%d quizzes, %d questions)\n", path, len(a.Modules), a.Questions)
		}
		return ExitOK
	}
}
