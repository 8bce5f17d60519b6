package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/saferoute/internal/pkg/config"
)

func main() {
	dir := flag.String("dir", "migrations", "directory of .sql migration files")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("usage: migrate [-dir migrations] <up|down>")
	}

	cfg, err := config.Load("saferoute-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch flag.Arg(0) {
	case "up":
		if err := up(ctx, pool, *dir); err != nil {
			log.Fatal(err)
		}
		log.Println("all migrations applied")
	case "down":
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS search_history"); err != nil {
			log.Fatalf("down: %v", err)
		}
		log.Println("search_history dropped")
	default:
		log.Fatalf("unknown command: %s", flag.Arg(0))
	}
}

// up applies every .sql file in dir in lexical order, each in its own
// transaction. Migrations must be idempotent.
func up(ctx context.Context, pool *pgxpool.Pool, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, string(data))
			return err
		})
		if err != nil {
			return fmt.Errorf("exec %s: %w", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}
	return nil
}
