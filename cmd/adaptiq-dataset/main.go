// Command adaptiq-dataset generates synthetic quiz datasets and measures how
// well the score regressors fit them.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
