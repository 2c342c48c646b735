package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/examlab/examlab/internal/moodlexml"
	"github.com/examlab/examlab/internal/quiz"
)

func runImport(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		out := flags.String("o", "-", "Output path, - for stdout")
		name := flags.String("name", "", "Quiz name (default: the category, then the file name)")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}
		if flags.NArg() != 1 {
			fmt.Fprintln(stderr, "exactly one XML file is required")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		path := flags.Arg(0)
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(stderr, "open %s: %v\n", path, err)
			return ExitError
		}
		defer f.Close()

		res, err := moodlexml.Load(f)
		if err != nil {
			fmt.Fprintf(stderr, "Import failed:\n%v\n", err)
			return ExitError
		}
		for _, s := range res.Skipped {
			fmt.Fprintf(stderr, "skipped question %d (%s): unsupported type %q\n", s.Position, s.Name, s.Type)
		}

		q := quiz.Quiz{
			Name:         firstNonBlank(*name, res.Category, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))),
			CategoryName: res.Category,
			Questions:    res.Questions,
		}
		data, err := yaml.Marshal(q)
		if err != nil {
			fmt.Fprintf(stderr, "encode: %v\n", err)
			return ExitError
		}
		if err := writeOutput(*out, data, stdout); err != nil {
			fmt.Fprintf(stderr, "write %s: %v\n", *out, err)
			return ExitError
		}
		return ExitOK
	}
}

func firstNonBlank(in ...string) string {
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
