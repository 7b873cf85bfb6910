package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return 0
	}
	// Ctrl-C already reads as an interruption on the terminal; repeating
	// it as an error line would just be noise.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "subweave:", err)
	}
	return 1
}
