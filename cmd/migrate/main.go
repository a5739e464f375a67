package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	migrateV4 "github.com/golang-migrate/migrate/v4"

	"github.com/Wetende/crossview-sub004/internal/config"
	"github.com/Wetende/crossview-sub004/pkg/database"
)

// Ручное управление схемой: up, down [N], force VERSION, version
func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "config/config.yaml"), "путь к файлу конфигурации")
	source := flag.String("source", database.DefaultMigrationsPath, "источник миграций")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [flags] up | down [N] | force VERSION | version\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	m, err := database.NewMigrator(db, *source)
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}
	defer m.Close()

	if err := run(m, flag.Args()); err != nil {
		log.Fatalf("[Migrate] Ошибка: %v", err)
	}
}

func run(m *migrateV4.Migrate, args []string) error {
	switch args[0] {
	case "up":
		return ignoreNoChange(m.Up())
	case "down":
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("некорректное количество шагов: %q", args[1])
			}
			return ignoreNoChange(m.Steps(-n))
		}
		return ignoreNoChange(m.Down())
	case "force":
		if len(args) < 2 {
			return errors.New("force требует номер версии")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("некорректная версия: %q", args[1])
		}
		if err := m.Force(version); err != nil {
			return err
		}
		log.Printf("[Migrate] Версия принудительно установлена в %d, флаг dirty сброшен", version)
		return nil
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrateV4.ErrNilVersion) {
			log.Println("[Migrate] Миграции ещё не применялись")
			return nil
		}
		if err != nil {
			return err
		}
		log.Printf("[Migrate] Текущая версия: %d, dirty: %t", version, dirty)
		return nil
	default:
		return fmt.Errorf("неизвестная команда %q", args[0])
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrateV4.ErrNoChange) {
		log.Println("[Migrate] Изменений нет")
		return nil
	}
	if err == nil {
		log.Println("[Migrate] Готово")
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
