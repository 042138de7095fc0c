// Команда migrate создаёт или обновляет схему базы данных сервиса.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vladislavdragonenkov/dms/internal/storage/postgres"
)

func main() {
	dsn := flag.String("dsn", os.Getenv("DMS_DATABASE_DSN"), "PostgreSQL DSN")
	timeout := flag.Duration("timeout", 30*time.Second, "общий таймаут применения схемы")
	flag.Parse()

	if *dsn == "" {
		fail("не задан DSN: используйте -dsn или переменную окружения DMS_DATABASE_DSN")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := postgres.Open(ctx, *dsn)
	if err != nil {
		fail("не удалось подключиться к базе: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.EnsureSchema(ctx); err != nil {
		fail("не удалось применить схему: %v", err)
	}

	fmt.Println("схема базы данных актуальна")
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
