package seeders

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gearguard/pkg/constants"
	"gearguard/pkg/utils"
)

// SeedTeams создаёт команды обслуживания.
func SeedTeams(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Создание команд обслуживания...")
	for _, name := range teamsData {
		if _, err := db.Exec(ctx,
			`INSERT INTO maintenance_teams (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("команда %q: %w", name, err)
		}
	}
	return nil
}

// SeedUsers создаёт менеджера, техников и обычных пользователей. Команды должны уже существовать.
func SeedUsers(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Создание пользователей...")
	hashedPassword, err := utils.HashPassword(DefaultPassword)
	if err != nil {
		return err
	}

	for _, u := range usersData {
		var teamID *uint64
		if u.Team != "" {
			id, err := lookupID(ctx, db, `SELECT id FROM maintenance_teams WHERE name = $1`, u.Team)
			if err != nil {
				return fmt.Errorf("не найдена команда %q для %s: %w", u.Team, u.Email, err)
			}
			teamID = &id
		}
		avatar := fmt.Sprintf(constants.AvatarURLTemplate, u.Seed)
		if _, err := db.Exec(ctx,
			`INSERT INTO users (email, password, name, avatar, role, team_id)
			 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (email) DO NOTHING`,
			u.Email, hashedPassword, u.Name, avatar, string(u.Role), teamID); err != nil {
			return fmt.Errorf("пользователь %s: %w", u.Email, err)
		}
	}
	return nil
}

// SeedEquipment создаёт оборудование. Команды должны уже существовать.
func SeedEquipment(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Создание оборудования...")
	for _, eq := range equipmentData {
		teamID, err := lookupID(ctx, db, `SELECT id FROM maintenance_teams WHERE name = $1`, eq.Team)
		if err != nil {
			return fmt.Errorf("не найдена команда %q для %s: %w", eq.Team, eq.SerialNumber, err)
		}
		purchase, _ := time.Parse("2006-01-02", eq.PurchaseDate)
		warranty, _ := time.Parse("2006-01-02", eq.WarrantyEndDate)
		var assigned *string
		if eq.AssignedEmployee != "" {
			assigned = &eq.AssignedEmployee
		}
		if _, err := db.Exec(ctx,
			`INSERT INTO equipment (name, serial_number, department, location, assigned_employee, purchase_date, warranty_end_date, team_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (serial_number) DO NOTHING`,
			eq.Name, eq.SerialNumber, eq.Department, eq.Location, assigned, purchase, warranty, teamID); err != nil {
			return fmt.Errorf("оборудование %s: %w", eq.SerialNumber, err)
		}
	}
	return nil
}

// SeedRequests создаёт демо-заявки. Повторный запуск не дублирует заявку с той же темой на том же оборудовании.
func SeedRequests(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Создание заявок на обслуживание...")
	now := time.Now().UTC()

	for _, r := range requestsData {
		var equipmentID, teamID uint64
		if err := db.QueryRow(ctx, `SELECT id, team_id FROM equipment WHERE serial_number = $1`, r.Serial).
			Scan(&equipmentID, &teamID); err != nil {
			return fmt.Errorf("не найдено оборудование %s: %w", r.Serial, err)
		}
		createdByID, err := lookupID(ctx, db, `SELECT id FROM users WHERE email = $1`, r.CreatedBy)
		if err != nil {
			return fmt.Errorf("не найден автор %s: %w", r.CreatedBy, err)
		}
		var technicianID *uint64
		if r.Technician != "" {
			id, err := lookupID(ctx, db, `SELECT id FROM users WHERE email = $1`, r.Technician)
			if err != nil {
				return fmt.Errorf("не найден техник %s: %w", r.Technician, err)
			}
			technicianID = &id
		}
		var scheduled *time.Time
		if r.ScheduledIn != nil {
			t := now.AddDate(0, 0, *r.ScheduledIn)
			scheduled = &t
		}
		var notes *string
		if r.Notes != "" {
			notes = &r.Notes
		}
		createdAt := now.AddDate(0, 0, -r.CreatedDaysAgo)

		if _, err := db.Exec(ctx,
			`INSERT INTO maintenance_requests
			   (subject, description, type, priority, stage, equipment_id, team_id, created_by_id, technician_id,
			    scheduled_date, duration, notes, created_at, updated_at)
			 SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13
			 WHERE NOT EXISTS (SELECT 1 FROM maintenance_requests WHERE subject = $1 AND equipment_id = $6)`,
			r.Subject, r.Description, string(r.Type), r.Priority, string(r.Stage), equipmentID, teamID, createdByID,
			technicianID, scheduled, r.Duration, notes, createdAt); err != nil {
			return fmt.Errorf("заявка %q: %w", r.Subject, err)
		}
	}
	return nil
}

func lookupID(ctx context.Context, db *pgxpool.Pool, query string, arg any) (uint64, error) {
	var id uint64
	err := db.QueryRow(ctx, query, arg).Scan(&id)
	return id, err
}
