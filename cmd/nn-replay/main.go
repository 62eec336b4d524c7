package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"nn-client/internal/infrastructure/storage"
)

// line одна запись сессии в выводе
type line struct {
	Time time.Time `json:"time"`
	storage.Record
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s SESSION.bin\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		slog.Error("replay failed", "error", err)
		os.Exit(1)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	enc := json.NewEncoder(out)
	return storage.ReadRecords(bufio.NewReader(f), func(ts time.Time, rec storage.Record) error {
		return enc.Encode(line{Time: ts, Record: rec})
	})
}
