package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/examlab/examlab/internal/cloze"
)

func runCloze(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}
		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		kind := flags.String("type", "multichoice", "Sub-question type: multichoice or shortanswer")
		weight := flags.Int("weight", 1, "Sub-question weight")
		var correct, wrong stringList
		flags.Var(&correct, "correct", "Correct answer (repeatable)")
		flags.Var(&wrong, "wrong", "Wrong answer (repeatable)")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}
		if flags.NArg() > 0 {
			fmt.Fprintf(stderr, "unexpected arguments: %v\n", flags.Args())
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		k := cloze.NormalizeKind(*kind)
		if k != cloze.MultiChoice && k != cloze.ShortAnswer {
			fmt.Fprintf(stderr, "unsupported type %q\n", *kind)
			return ExitUsage
		}
		s, err := cloze.Build(cloze.Snippet{Weight: *weight, Kind: k, Correct: correct, Wrong: wrong})
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitError
		}
		fmt.Fprintln(stdout, s)
		return ExitOK
	}
}
