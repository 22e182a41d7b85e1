package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kolah/piglet/internal/cli"
)

func main() {
	cmd := cli.RootCmd()
	err := cmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
