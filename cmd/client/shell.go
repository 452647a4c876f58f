package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl(a)
		},
	}
}

// repl runs the interactive shell loop. Each line is executed as a fitctl
// command against the same server; errors are printed and the loop goes on.
func repl(a *app) error {
	a.inShell = true
	defer func() { a.inShell = false }()

	fmt.Fprintln(a.out, "Type 'help' for a list of commands, 'exit' to quit.")
	for {
		line, err := a.prompter.Line("fit> ")
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.out)
			return nil
		}
		if err != nil {
			return err
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye")
			return nil
		}

		root := newRootCmd(a)
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			fmt.Fprintln(a.out, "error:", err)
		}
	}
}
