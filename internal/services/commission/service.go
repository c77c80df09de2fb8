// Package commission resolves the active fee rule for an (action, audience)
// pair and computes commission amounts. Computation is pure; resolution reads
// through the Redis cache when one is configured.
package commission

import (
	"context"
	"errors"
	"fmt"
	"log"

	"moneta/internal/models"
	"moneta/internal/repositories"
	"moneta/internal/repositories/cache"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Service is the commission rule engine.
type Service interface {
	// Resolve returns the single active rule for the pair, or nil when no
	// rule is configured.
	Resolve(ctx context.Context, action string, audience models.CommissionAudience) (*models.CommissionRule, error)
	// Compute returns the commission for amount under rule. A nil rule or an
	// amount outside the rule's bounds yields zero.
	Compute(rule *models.CommissionRule, amount decimal.Decimal) decimal.Decimal
	// Quote resolves and computes for every audience and returns the summed
	// commission.
	Quote(ctx context.Context, action string, audiences []models.CommissionAudience, amount decimal.Decimal) (decimal.Decimal, error)
	// CreateRule activates a new rule, deactivating the prior active rule
	// for the same pair.
	CreateRule(ctx context.Context, rule *models.CommissionRule) error
	ListRules(ctx context.Context) ([]models.CommissionRule, error)
}

type service struct {
	store repositories.Store
	cache *cache.CacheService
}

// NewService creates the rule engine. The cache may be nil; resolution then
// always hits the store.
func NewService(store repositories.Store, cacheSvc *cache.CacheService) Service {
	if store == nil {
		panic("store is required")
	}
	return &service{store: store, cache: cacheSvc}
}

func (s *service) Resolve(ctx context.Context, action string, audience models.CommissionAudience) (*models.CommissionRule, error) {
	key := cache.RuleKey(action, string(audience))
	if s.cache != nil {
		var cached models.CommissionRule
		if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
			return &cached, nil
		}
	}

	rule, err := s.store.CommissionRules().ActiveRule(ctx, action, audience)
	if err != nil {
		if errors.Is(err, repositories.ErrRuleNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve commission rule: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rule); err != nil {
			log.Printf("failed to cache commission rule %s: %v", key, err)
		}
	}
	return rule, nil
}

func (s *service) Compute(rule *models.CommissionRule, amount decimal.Decimal) decimal.Decimal {
	if rule == nil || !amount.IsPositive() {
		return decimal.Zero
	}
	if rule.MinAmount != nil && amount.LessThan(*rule.MinAmount) {
		return decimal.Zero
	}
	if rule.MaxAmount != nil && amount.GreaterThan(*rule.MaxAmount) {
		return decimal.Zero
	}

	switch rule.Kind {
	case models.CommissionFixed:
		return rule.Value.RoundBank(2)
	case models.CommissionPercentage:
		return amount.Mul(rule.Value).Div(oneHundred).RoundBank(2)
	default:
		return decimal.Zero
	}
}

func (s *service) Quote(ctx context.Context, action string, audiences []models.CommissionAudience, amount decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, audience := range audiences {
		rule, err := s.Resolve(ctx, action, audience)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(s.Compute(rule, amount))
	}
	return total, nil
}

func (s *service) CreateRule(ctx context.Context, rule *models.CommissionRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	rule.IsActive = true
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		if err := tx.CommissionRules().DeactivateActive(ctx, rule.Action, rule.Audience); err != nil {
			return err
		}
		return tx.CommissionRules().Create(ctx, rule)
	})
	if err != nil {
		return fmt.Errorf("failed to create commission rule: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.RuleKey(rule.Action, string(rule.Audience))); err != nil {
			log.Printf("failed to invalidate commission rule cache: %v", err)
		}
	}
	return nil
}

func (s *service) ListRules(ctx context.Context) ([]models.CommissionRule, error) {
	return s.store.CommissionRules().List(ctx)
}

func validateRule(rule *models.CommissionRule) error {
	if rule == nil {
		return ErrInvalidRule
	}
	if rule.Action == "" || rule.Audience == "" {
		return ErrInvalidRule
	}
	switch rule.Kind {
	case models.CommissionFixed, models.CommissionPercentage:
	default:
		return ErrInvalidRule
	}
	if rule.Value.IsNegative() {
		return ErrInvalidRule
	}
	if rule.MinAmount != nil && rule.MaxAmount != nil && rule.MaxAmount.LessThan(*rule.MinAmount) {
		return ErrInvalidBounds
	}
	return nil
}
