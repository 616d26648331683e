package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garagehq/garage-engine/pkg/database"
	"github.com/garagehq/garage-engine/pkg/models"
)

// ReminderRepository defines the interface for the outbound reminder log.
type ReminderRepository interface {
	Log(ctx context.Context, reminder *models.Reminder) error

	// RecentlyReminded returns the ids of vehicles with a successful send
	// since the given time. Used to avoid messaging the same customer twice
	// inside one critical window.
	RecentlyReminded(ctx context.Context, since time.Time) (map[uuid.UUID]struct{}, error)
}

type reminderRepository struct {
	db *database.DB
}

// NewReminderRepository creates a new reminder repository.
func NewReminderRepository(db *database.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Log(ctx context.Context, reminder *models.Reminder) error {
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}
	if reminder.SentAt.IsZero() {
		reminder.SentAt = time.Now()
	}

	query := `
		INSERT INTO reminders (id, vehicle_id, customer_id, phone, body, status, provider_sid, error_message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		reminder.ID, reminder.VehicleID, reminder.CustomerID, reminder.Phone, reminder.Body,
		reminder.Status, reminder.ProviderSID, reminder.ErrorMessage, reminder.SentAt)
	if err != nil {
		return fmt.Errorf("failed to log reminder: %w", err)
	}
	return nil
}

func (r *reminderRepository) RecentlyReminded(ctx context.Context, since time.Time) (map[uuid.UUID]struct{}, error) {
	query := `
		SELECT DISTINCT vehicle_id
		FROM reminders
		WHERE status = 'sent' AND sent_at >= $1`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent reminders: %w", err)
	}
	defer rows.Close()

	reminded := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan reminder vehicle id: %w", err)
		}
		reminded[id] = struct{}{}
	}
	return reminded, rows.Err()
}

var _ ReminderRepository = (*reminderRepository)(nil)
