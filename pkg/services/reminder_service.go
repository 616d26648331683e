package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garagehq/garage-engine/pkg/config"
	"github.com/garagehq/garage-engine/pkg/logging"
	"github.com/garagehq/garage-engine/pkg/models"
	"github.com/garagehq/garage-engine/pkg/repositories"
	"github.com/garagehq/garage-engine/pkg/retry"
)

// MessageSender is the slice of the messaging client the reminder service
// needs. Returns the provider's message SID.
type MessageSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// ReminderRunSummary reports the outcome of one reminder pass.
type ReminderRunSummary struct {
	Due     int `json:"due"`
	Skipped int `json:"skipped"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// ReminderService sends MOT expiry reminders to owners of vehicles whose
// MOT falls due inside the configured critical window.
type ReminderService interface {
	// RunDueMOTPass finds owned vehicles with MOT due in the window,
	// skips those already reminded this window or without a reachable
	// owner, and sends the rest. A failed send is logged and counted, not
	// fatal to the pass.
	RunDueMOTPass(ctx context.Context) (*ReminderRunSummary, error)
}

type reminderService struct {
	vehicles  repositories.VehicleRepository
	customers repositories.CustomerRepository
	reminders repositories.ReminderRepository
	sender    MessageSender
	policy    config.ReconciliationConfig
	logger    *zap.Logger

	now func() time.Time
}

// NewReminderService creates a new ReminderService. sender may be nil when
// outbound messaging is not configured; the pass then reports everything as
// skipped.
func NewReminderService(
	vehicles repositories.VehicleRepository,
	customers repositories.CustomerRepository,
	reminders repositories.ReminderRepository,
	sender MessageSender,
	policy config.ReconciliationConfig,
	logger *zap.Logger,
) ReminderService {
	return &reminderService{
		vehicles:  vehicles,
		customers: customers,
		reminders: reminders,
		sender:    sender,
		policy:    policy,
		logger:    logger.Named("reminder-service"),
		now:       time.Now,
	}
}

var _ ReminderService = (*reminderService)(nil)

func (s *reminderService) RunDueMOTPass(ctx context.Context) (*ReminderRunSummary, error) {
	now := s.now()
	window := s.policy.MOTCriticalWindow()

	due, err := s.vehicles.ListMOTDueWithin(ctx, now, window)
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicles with MOT due: %w", err)
	}

	summary := &ReminderRunSummary{Due: len(due)}
	if len(due) == 0 {
		return summary, nil
	}

	if s.sender == nil {
		s.logger.Warn("Messaging not configured, skipping reminder pass",
			zap.Int("due", len(due)))
		summary.Skipped = len(due)
		return summary, nil
	}

	reminded, err := s.reminders.RecentlyReminded(ctx, now.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to load recent reminders: %w", err)
	}

	for _, vehicle := range due {
		if _, already := reminded[vehicle.ID]; already {
			summary.Skipped++
			continue
		}
		if vehicle.OwnerID == nil {
			summary.Skipped++
			continue
		}

		customer, err := s.customers.Get(ctx, *vehicle.OwnerID)
		if err != nil || customer.Phone == "" {
			summary.Skipped++
			continue
		}

		body := renderMOTReminder(vehicle, customer)
		entry := &models.Reminder{
			VehicleID:  vehicle.ID,
			CustomerID: customer.ID,
			Phone:      customer.Phone,
			Body:       body,
			SentAt:     s.now(),
		}

		sid, sendErr := retry.DoWithResult(ctx, nil, func() (string, error) {
			return s.sender.Send(ctx, customer.Phone, body)
		})
		if sendErr != nil {
			summary.Failed++
			entry.Status = models.ReminderFailed
			entry.ErrorMessage = logging.SanitizeError(sendErr)
			s.logger.Warn("Reminder send failed",
				zap.String("registration", vehicle.Registration),
				zap.String("phone", logging.SanitizePhone(customer.Phone)),
				zap.String("error", entry.ErrorMessage))
		} else {
			summary.Sent++
			entry.Status = models.ReminderSent
			entry.ProviderSID = sid
		}

		if err := s.reminders.Log(ctx, entry); err != nil {
			// The send already happened; losing the log row must not abort
			// the rest of the pass.
			s.logger.Error("Failed to log reminder", zap.Error(err))
		}
	}

	s.logger.Info("Reminder pass complete",
		zap.Int("due", summary.Due),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func renderMOTReminder(v *models.Vehicle, c *models.Customer) string {
	expiry := "soon"
	if v.MOTExpiry != nil {
		expiry = v.MOTExpiry.Format("2 January 2006")
	}
	return fmt.Sprintf("Hi %s, the MOT for your %s %s (%s) expires on %s. Reply or call us to book it in.",
		c.FirstName, v.Make, v.Model, v.Registration, expiry)
}
