// Package useractions records actions users submit through the UI:
// nominations, referral keys and newsletter sign-ups.
package useractions

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"validator-explorer/internal/domain"
	"validator-explorer/internal/logging"
	"validator-explorer/internal/refkey"
	"validator-explorer/internal/storage"
)

// TagLen is the length of the tag identifying a recorded nomination.
const TagLen = 16

// Nomination is a nomination submitted by a user.
type Nomination struct {
	Stash      string   `json:"stash" validate:"required"`
	Validators []string `json:"validators" validate:"required,min=1,dive,required"`
	Amount     string   `json:"amount" validate:"required"`
	Strategy   int      `json:"strategy" validate:"gte=0"`
}

// NominationResult is the extrinsic outcome of a tagged nomination.
type NominationResult struct {
	Tag           string `json:"tag" validate:"required"`
	ExtrinsicHash string `json:"extrinsicHash" validate:"required"`
	RefKey        string `json:"refKey"`
}

type subscription struct {
	Email string `validate:"required,email"`
}

// Service records user actions.
type Service struct {
	stores   *storage.ActionStores
	validate *validator.Validate
	now      func() time.Time
	log      *logrus.Entry
}

// Options for creating Service.
type Options struct {
	Stores *storage.ActionStores
	Log    *logrus.Entry
}

// NewService creates a new Service.
func NewService(opts Options) *Service {
	return &Service{
		stores:   opts.Stores,
		validate: validator.New(),
		now:      time.Now,
		log:      logging.OrDefault(opts.Log),
	}
}

// RecordNomination stores n for chain under a fresh random tag and returns
// the tag.
func (s *Service) RecordNomination(ctx context.Context, chain string, n Nomination) (string, error) {
	if err := s.check(n); err != nil {
		return "", err
	}

	tag, err := refkey.RandomString(rand.Reader, TagLen)
	if err != nil {
		return "", fmt.Errorf("generate tag: %w", err)
	}

	action := &domain.NominationAction{
		Stash:      n.Stash,
		Validators: n.Validators,
		Amount:     n.Amount,
		Strategy:   n.Strategy,
		Tag:        tag,
		Chain:      chain,
	}
	if err := s.stores.Nominations.Insert(ctx, action); err != nil {
		return "", fmt.Errorf("insert nomination: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"chain": chain,
		"stash": n.Stash,
		"tag":   tag,
	}).Info("nomination recorded")
	return tag, nil
}

// RecordNominationResult attaches the extrinsic outcome to the nomination
// tagged r.Tag. Unknown tags return storage.ErrNotFound.
func (s *Service) RecordNominationResult(ctx context.Context, r NominationResult) error {
	if err := s.check(r); err != nil {
		return err
	}
	if err := s.stores.Nominations.SetResult(ctx, r.Tag, r.ExtrinsicHash, r.RefKey); err != nil {
		return fmt.Errorf("set nomination result %s: %w", r.Tag, err)
	}
	return nil
}

// NominationRecord returns the nomination recorded for stash.
func (s *Service) NominationRecord(ctx context.Context, stash string) (*domain.NominationAction, error) {
	a, err := s.stores.Nominations.GetByStash(ctx, stash)
	if err != nil {
		return nil, fmt.Errorf("find nomination of %s: %w", stash, err)
	}
	return a, nil
}

// IssueRefKey generates a referral key for stash, replacing any previous
// one, and returns it.
func (s *Service) IssueRefKey(ctx context.Context, stash string) (string, error) {
	if stash == "" {
		return "", fmt.Errorf("issue ref key: empty stash: %w", storage.ErrInvalidInput)
	}

	now := s.now()
	key, err := refkey.Generate(stash, now)
	if err != nil {
		return "", fmt.Errorf("generate ref key: %w", err)
	}
	rec := &domain.RefKeyRecord{Stash: stash, RefKey: key, Timestamp: now.Unix()}
	if err := s.stores.RefKeys.Upsert(ctx, rec); err != nil {
		return "", fmt.Errorf("store ref key: %w", err)
	}
	return key, nil
}

// RefKey returns the referral key issued to stash.
func (s *Service) RefKey(ctx context.Context, stash string) (string, error) {
	rec, err := s.stores.RefKeys.GetByStash(ctx, stash)
	if err != nil {
		return "", fmt.Errorf("find ref key of %s: %w", stash, err)
	}
	return rec.RefKey, nil
}

// DecodeRefKey decodes key. Only keys that were issued decode; others
// return storage.ErrNotFound.
func (s *Service) DecodeRefKey(ctx context.Context, key string) (refkey.Key, error) {
	rec, err := s.stores.RefKeys.GetByKey(ctx, key)
	if err != nil {
		return refkey.Key{}, fmt.Errorf("find ref key: %w", err)
	}
	return refkey.Decode(rec.RefKey)
}

// Subscribe adds email to the newsletter. A known email returns
// storage.ErrDuplicateKey.
func (s *Service) Subscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := s.check(subscription{Email: email}); err != nil {
		return err
	}

	sub := &domain.NewsletterSubscriber{Email: email, Timestamp: s.now().Unix()}
	if err := s.stores.Newsletter.Insert(ctx, sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// check validates v and reports failures as storage.ErrInvalidInput.
func (s *Service) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+" "+fe.Tag())
		}
		return fmt.Errorf("%s: %w", strings.Join(fields, ", "), storage.ErrInvalidInput)
	}
	return fmt.Errorf("%v: %w", err, storage.ErrInvalidInput)
}
