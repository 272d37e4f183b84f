package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/piewpiew"
)

func main() {
	count := flag.Int("count", 1000, "Number of records to generate")
	format := flag.String("format", "json", "Record file format (json or yaml)")
	keep := flag.Bool("keep", false, "Keep the benchmark store after running")
	flag.Parse()

	// 1. Setup store directory
	benchDir, err := os.MkdirTemp("", "piewpiew_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	// Records are written straight to disk to simulate an existing store.
	fmt.Printf("Generating %d records in %s...\n", *count, benchDir)
	startGen := time.Now()
	dir := filepath.Join(benchDir, "person")
	if err := os.MkdirAll(dir, 0755); err != nil {
		panic(err)
	}
	for i := 0; i < *count; i++ {
		var content string
		if *format == "yaml" {
			content = fmt.Sprintf("id: %d\nname: Person %d\nage: %d\n", i, i, i%90)
		} else {
			content = fmt.Sprintf("{\"id\": %d, \"name\": \"Person %d\", \"age\": %d}\n", i, i, i%90)
		}
		filename := filepath.Join(dir, fmt.Sprintf("%d.%s", i, *format))
		if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	// 2. Open the fs adaptor
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	adaptor, err := piewpiew.Open(benchDir,
		piewpiew.WithAdapter("fs"),
		piewpiew.WithFormat(*format),
		piewpiew.WithDevSafety(false),
		piewpiew.WithLogger(logger),
	)
	if err != nil {
		panic(err)
	}
	person := piewpiew.Define("person", piewpiew.Fields{
		"name": piewpiew.String(piewpiew.Required()),
		"age":  piewpiew.Integer(),
	}, piewpiew.WithAdaptor(adaptor), piewpiew.WithLogger(logger))

	ctx := context.TODO()

	// Run 1: every record
	fmt.Println("Running All...")
	startAll := time.Now()
	all, err := person.Objects().NewQuerySet().Fetch(ctx)
	if err != nil {
		panic(err)
	}
	durationAll := time.Since(startAll)
	fmt.Printf("All Result: %v (Items: %d)\n", durationAll, len(all))

	// Run 2: filtered
	fmt.Println("Running Filter (age__gte=60)...")
	startFilter := time.Now()
	adults, err := person.Objects().Filter(piewpiew.Lookups{"age__gte": 60}).Fetch(ctx)
	if err != nil {
		panic(err)
	}
	durationFilter := time.Since(startFilter)
	fmt.Printf("Filter Result: %v (Items: %d)\n", durationFilter, len(adults))

	// Run 3: create, which must pick the id after the last generated record
	fmt.Println("Running Create...")
	startCreate := time.Now()
	done := make(chan error, 1)
	person.Objects().Create(ctx, map[string]any{"name": "Newcomer", "age": 30}, func(m *piewpiew.Model, err error) {
		if err == nil {
			fmt.Printf("Created %s\n", m)
		}
		done <- err
	})
	if err := <-done; err != nil {
		panic(err)
	}
	durationCreate := time.Since(startCreate)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d records):\n", *count)
	fmt.Printf("  All:    %v\n", durationAll)
	fmt.Printf("  Filter: %v\n", durationFilter)
	fmt.Printf("  Create: %v\n", durationCreate)
	fmt.Printf("--------------------------------------------------\n")
}
