package main

import (
	"fmt"
	"os"

	"jobboard-backend/internal/bootstrap"
)

func main() {
	if err := newRootCmd(bootstrap.NewCompleter).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
