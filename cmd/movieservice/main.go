// cmd/movieservice/main.go
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("movieservice exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
