package main

import (
	"fmt"
	"os"
)

func main() {
	cfg := &Config{
		ServerURL: envOr("CHATD_URL", "http://localhost:8080"),
	}
	root := buildRootCmd(cfg)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
