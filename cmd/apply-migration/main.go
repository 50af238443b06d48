package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"medlink-data/internal/config"
	"medlink-data/internal/database"
)

// Applies every .sql file under migrations/ in name order. Statements
// are idempotent (CREATE TABLE IF NOT EXISTS), so reruns are safe.
func main() {
	dir := "migrations"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list migrations: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(files)
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "no .sql files under %s\n", dir)
		os.Exit(1)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", file, err)
			os.Exit(1)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to apply %s: %v\n", file, err)
			os.Exit(1)
		}
		fmt.Printf("applied %s\n", file)
	}
}
