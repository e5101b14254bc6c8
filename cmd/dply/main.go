// Command dply evaluates pipe-composed dplyr-style scripts against
// CSV/NdJSON/Parquet tabular data.
package main

import "dply/pkg/lib"

func main() {
	if err := rootCmd.Execute(); err != nil {
		lib.Exit(err)
	}
}
