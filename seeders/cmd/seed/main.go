package main

import (
	"context"
	"flag"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"gearguard/pkg/config"
	"gearguard/pkg/database/postgresql"
	"gearguard/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runTeams := flag.Bool("teams", false, "Создать команды обслуживания")
	runUsers := flag.Bool("users", false, "Создать менеджера, техников и пользователей (нужны команды)")
	runEquipment := flag.Bool("equipment", false, "Создать оборудование (нужны команды)")
	runRequests := flag.Bool("requests", false, "Создать демо-заявки (нужны пользователи и оборудование)")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -teams -users -equipment -requests)")

	flag.Parse()

	if !*runTeams && !*runUsers && !*runEquipment && !*runRequests && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -teams -users")
		log.Println("  go run ./seeders/cmd/seed -all")
		log.Println("======================================================")
		return
	}

	ctx := context.Background()
	cfg := config.New()
	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, zap.NewNop())
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к БД: %v", err)
	}
	defer dbPool.Close()

	if cfg.Postgres.AutoMigrate {
		if err := postgresql.Migrate(dbPool); err != nil {
			log.Fatalf("❌ Ошибка миграций: %v", err)
		}
	}

	// порядок важен: пользователи и оборудование ссылаются на команды
	steps := []struct {
		enabled bool
		name    string
		run     func(context.Context, *pgxpool.Pool) error
	}{
		{*runAll || *runTeams, "Команды", seeders.SeedTeams},
		{*runAll || *runUsers, "Пользователи", seeders.SeedUsers},
		{*runAll || *runEquipment, "Оборудование", seeders.SeedEquipment},
		{*runAll || *runRequests, "Заявки", seeders.SeedRequests},
	}
	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if err := step.run(ctx, dbPool); err != nil {
			log.Fatalf("❌ Ошибка наполнения (%s): %v", step.name, err)
		}
		log.Printf("✅ %s готовы", step.name)
	}

	log.Println("======================================================")
	log.Printf("📧 Вход: manager@gearguard.com / %s", seeders.DefaultPassword)
	log.Println("✅ Все указанные операции сидирования успешно завершены.")
}
