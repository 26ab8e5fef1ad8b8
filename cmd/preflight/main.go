// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	db := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	sqlitePath := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	interval := strings.TrimSpace(os.Getenv("PROBE_INTERVAL_MS"))

	if addr == "" {
		warn("ADDR is empty; default 127.0.0.1:8080 will be used.")
	} else {
		ok("ADDR=" + addr)
	}

	if db == "" {
		if sqlitePath == "" {
			warn("DATABASE_URL and SQLITE_PATH empty — sitepulse.db in the working directory will be used.")
		} else {
			ok("SQLITE_PATH=" + sqlitePath)
		}
	} else {
		ok("DATABASE_URL present")
	}

	if interval != "" {
		if ms, err := strconv.Atoi(interval); err != nil || ms <= 0 {
			warn("PROBE_INTERVAL_MS is not a positive integer.")
		} else if ms < 60000 {
			// sub-minute intervals collide with the one-log-per-minute constraint
			warn("PROBE_INTERVAL_MS < 60000: extra probes within a minute are rejected as duplicates.")
		} else {
			ok("PROBE_INTERVAL_MS=" + interval)
		}
	}

	ok("preflight passed")
}
