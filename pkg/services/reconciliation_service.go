package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garagehq/garage-engine/pkg/apperrors"
	"github.com/garagehq/garage-engine/pkg/config"
	"github.com/garagehq/garage-engine/pkg/models"
	"github.com/garagehq/garage-engine/pkg/registration"
	"github.com/garagehq/garage-engine/pkg/repositories"
)

// ReconciliationService infers and repairs customer-vehicle ownership from
// historical document associations. Reconciliation is operator-triggered
// data repair: anomalies are reported, and nothing is applied silently
// unless policy says so and the evidence is unambiguous.
type ReconciliationService interface {
	// ProposeOwner ranks the customers historically associated with a
	// registration and returns the best candidate, or nil when no document
	// references the vehicle. A tie between top candidates returns the
	// deterministic winner alongside an AmbiguousOwnershipError.
	ProposeOwner(ctx context.Context, reg string) (*models.OwnershipCandidate, error)

	// ApplyOwner sets the vehicle's single canonical owner reference.
	ApplyOwner(ctx context.Context, reg string, customerID uuid.UUID) error

	// Reconcile proposes and, when policy allows (auto-apply enabled, a
	// customer id present and no tie), applies. Returns the proposal and
	// whether it was applied.
	Reconcile(ctx context.Context, reg string) (*models.OwnershipCandidate, bool, error)

	// AuditSuspiciousOwners flags customers assigned more vehicles than the
	// configured threshold, with how much of that fleet lacks any document
	// history.
	AuditSuspiciousOwners(ctx context.Context, threshold int) ([]*models.SuspiciousOwner, error)
}

type reconciliationService struct {
	docs     repositories.DocumentRepository
	vehicles repositories.VehicleRepository
	policy   config.ReconciliationConfig
	logger   *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	docs repositories.DocumentRepository,
	vehicles repositories.VehicleRepository,
	policy config.ReconciliationConfig,
	logger *zap.Logger,
) ReconciliationService {
	return &reconciliationService{
		docs:     docs,
		vehicles: vehicles,
		policy:   policy,
		logger:   logger.Named("reconciliation-service"),
	}
}

var _ ReconciliationService = (*reconciliationService)(nil)

func (s *reconciliationService) ProposeOwner(ctx context.Context, reg string) (*models.OwnershipCandidate, error) {
	normalized := registration.Normalize(reg)
	if !registration.Valid(normalized) {
		return nil, apperrors.ErrInvalidRegistration
	}

	refs, err := s.docs.ListRefsByRegistration(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to load document history: %w", err)
	}
	if len(refs) == 0 {
		return nil, nil
	}

	candidates := RankCandidates(refs)
	top := candidates[0]

	if len(candidates) > 1 && tied(candidates[0], candidates[1]) {
		tiedIDs := []string{candidateKey(candidates[0]), candidateKey(candidates[1])}
		s.logger.Warn("Ownership tie, operator must choose",
			zap.String("registration", normalized),
			zap.Strings("candidates", tiedIDs),
			zap.Int("document_count", top.DocumentCount))
		return top, &apperrors.AmbiguousOwnershipError{
			Registration: normalized,
			CandidateIDs: tiedIDs,
		}
	}

	return top, nil
}

func (s *reconciliationService) ApplyOwner(ctx context.Context, reg string, customerID uuid.UUID) error {
	normalized := registration.Normalize(reg)
	if !registration.Valid(normalized) {
		return apperrors.ErrInvalidRegistration
	}

	if err := s.vehicles.SetOwner(ctx, normalized, &customerID); err != nil {
		return fmt.Errorf("failed to apply ownership: %w", err)
	}

	s.logger.Info("Applied vehicle ownership",
		zap.String("registration", normalized),
		zap.String("customer_id", customerID.String()))
	return nil
}

func (s *reconciliationService) Reconcile(ctx context.Context, reg string) (*models.OwnershipCandidate, bool, error) {
	candidate, err := s.ProposeOwner(ctx, reg)
	if err != nil || candidate == nil {
		// Ties come back with the candidate attached; they are never
		// auto-applied.
		return candidate, false, err
	}

	if !s.policy.AutoApply || candidate.CustomerID == nil {
		return candidate, false, nil
	}

	if err := s.ApplyOwner(ctx, reg, *candidate.CustomerID); err != nil {
		return candidate, false, err
	}
	return candidate, true, nil
}

func (s *reconciliationService) AuditSuspiciousOwners(ctx context.Context, threshold int) ([]*models.SuspiciousOwner, error) {
	if threshold <= 0 {
		threshold = s.policy.SuspiciousOwnerThreshold
	}

	owners, err := s.vehicles.AuditOwners(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to audit owners: %w", err)
	}

	for _, o := range owners {
		s.logger.Info("Suspicious ownership",
			zap.String("customer_id", o.CustomerID.String()),
			zap.Int("assigned_vehicles", o.AssignedVehicles),
			zap.Int("without_history", o.VehiclesWithoutHistory))
	}
	return owners, nil
}

// RankCandidates groups document references by customer identity and ranks
// them by (document count desc, most recent issue date desc, identity asc).
// Documents without a customer id fall back to the stored customer-name
// string as the identity, so pre-import history still counts.
func RankCandidates(refs []models.DocumentRef) []*models.OwnershipCandidate {
	byKey := make(map[string]*models.OwnershipCandidate)
	for _, ref := range refs {
		key := refKey(ref)
		if key == "" {
			// No usable identity at all; cannot support any candidate.
			continue
		}
		c, ok := byKey[key]
		if !ok {
			c = &models.OwnershipCandidate{
				CustomerID:   ref.CustomerID,
				CustomerName: ref.CustomerName,
			}
			byKey[key] = c
		}
		c.DocumentCount++
		if ref.IssueDate.After(c.MostRecent) {
			c.MostRecent = ref.IssueDate
		}
	}

	candidates := make([]*models.OwnershipCandidate, 0, len(byKey))
	for _, c := range byKey {
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.DocumentCount != b.DocumentCount {
			return a.DocumentCount > b.DocumentCount
		}
		if !a.MostRecent.Equal(b.MostRecent) {
			return a.MostRecent.After(b.MostRecent)
		}
		// Deterministic tie-break: lexicographically smallest identity.
		return candidateKey(a) < candidateKey(b)
	})
	return candidates
}

func refKey(ref models.DocumentRef) string {
	if ref.CustomerID != nil {
		return "id:" + ref.CustomerID.String()
	}
	name := strings.TrimSpace(strings.ToLower(ref.CustomerName))
	if name == "" {
		return ""
	}
	return "name:" + name
}

func candidateKey(c *models.OwnershipCandidate) string {
	return refKey(models.DocumentRef{CustomerID: c.CustomerID, CustomerName: c.CustomerName})
}

func tied(a, b *models.OwnershipCandidate) bool {
	return a.DocumentCount == b.DocumentCount && a.MostRecent.Equal(b.MostRecent)
}
