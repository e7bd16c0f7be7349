// Package profile reads and writes user profiles and transactions in the
// document store.
package profile

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/finlens/internal/docstore"
	"github.com/theirongolddev/finlens/internal/model"
	"github.com/theirongolddev/finlens/internal/pipeline"
)

// Collection names and document fields shared with the web client.
const (
	UsersCollection        = "users"
	TransactionsCollection = "transactions"

	fieldUserID        = "userId"
	fieldOnboarded     = "onboarded"
	fieldUpdatedAt     = "updatedAt"
	fieldMonthlyIncome = "monthly_income"
	fieldSpendingGoal  = "spending_goal"
	fieldCurrentSpend  = "current_spend"
	fieldAmount        = "amount"
	fieldCategory      = "category"
	fieldNote          = "note"
	fieldCreatedAt     = "createdAt"
)

var transactionNamespace = uuid.MustParse("5b0d6a3e-8f43-4c1e-9d1a-2f6c7e0b4a91")

// Store is the profile and transaction client.
type Store struct {
	docs docstore.Store
	now  func() time.Time
	log  zerolog.Logger
}

// NewStore returns a Store over docs.
func NewStore(docs docstore.Store, log zerolog.Logger) *Store {
	return &Store{
		docs: docs,
		now:  time.Now,
		log:  log.With().Str("component", "profile").Logger(),
	}
}

// Get returns the user's profile. A user without a stored document gets a
// synthesized profile with Onboarded false, not an error.
func (s *Store) Get(ctx context.Context, userID string) (model.UserProfile, error) {
	doc, ok, err := s.docs.Get(ctx, UsersCollection, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("profile fetch failed")
		return model.UserProfile{}, wrap("get", err)
	}
	if !ok {
		return model.UserProfile{UserID: userID}, nil
	}
	return decodeProfile(userID, doc.Data), nil
}

// Save records the onboarding figures and marks the profile onboarded.
// Existing fields not named here are kept.
func (s *Store) Save(ctx context.Context, userID string, in model.ProfileInput) error {
	if err := ValidateInput(in); err != nil {
		return err
	}

	data := map[string]any{
		fieldMonthlyIncome: in.MonthlyIncome,
		fieldSpendingGoal:  in.SpendingGoal,
		fieldCurrentSpend:  in.CurrentSpend,
		fieldUserID:        userID,
		fieldOnboarded:     true,
		fieldUpdatedAt:     s.now().UTC(),
	}
	if err := s.docs.Set(ctx, UsersCollection, userID, data, true); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("profile save failed")
		return wrap("save", err)
	}
	s.log.Info().Str("user_id", userID).Msg("profile saved")
	return nil
}

// AddTransaction stores a spend event and returns its id.
func (s *Store) AddTransaction(ctx context.Context, userID string, in model.TransactionInput) (string, error) {
	data, err := s.transactionData(userID, in)
	if err != nil {
		return "", err
	}
	id, err := s.docs.Add(ctx, TransactionsCollection, data)
	if err != nil {
		return "", wrap("add transaction", err)
	}
	return id, nil
}

// PutTransaction stores a spend event under an id derived from userID and
// externalID, so writing the same event twice leaves one document.
func (s *Store) PutTransaction(ctx context.Context, userID, externalID string, in model.TransactionInput) (string, error) {
	data, err := s.transactionData(userID, in)
	if err != nil {
		return "", err
	}
	id := TransactionID(userID, externalID)
	if err := s.docs.Set(ctx, TransactionsCollection, id, data, false); err != nil {
		return "", wrap("put transaction", err)
	}
	return id, nil
}

// TransactionID is the document id PutTransaction uses.
func TransactionID(userID, externalID string) string {
	return uuid.NewSHA1(transactionNamespace, []byte(userID+"/"+externalID)).String()
}

func (s *Store) transactionData(userID string, in model.TransactionInput) (map[string]any, error) {
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return nil, &InputError{Message: "Amount must be a number"}
	}
	cat := strings.TrimSpace(in.Category)
	if cat == "" {
		cat = model.DefaultCategory
	}
	at := in.At
	if at.IsZero() {
		at = s.now()
	}

	data := map[string]any{
		fieldUserID:    userID,
		fieldAmount:    in.Amount,
		fieldCategory:  cat,
		fieldCreatedAt: at.UTC(),
	}
	if in.Note != "" {
		data[fieldNote] = in.Note
	}
	return data, nil
}

// Transactions returns the user's transactions, newest first.
func (s *Store) Transactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	docs, err := s.docs.Query(ctx, TransactionsCollection, fieldUserID, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("transaction query failed")
		return nil, wrap("list transactions", err)
	}

	txs := make([]model.Transaction, 0, len(docs))
	for _, d := range docs {
		txs = append(txs, decodeTransaction(d))
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	return txs, nil
}

// CategoryBreakdown aggregates the user's transactions by category.
func (s *Store) CategoryBreakdown(ctx context.Context, userID string) ([]model.CategoryShare, error) {
	txs, err := s.Transactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pipeline.AggregateCategories(txs), nil
}

// ValidateInput checks onboarding figures.
func ValidateInput(in model.ProfileInput) error {
	for _, v := range []float64{in.MonthlyIncome, in.SpendingGoal, in.CurrentSpend} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InputError{Message: "Please fill all fields"}
		}
		if v < 0 {
			return &InputError{Message: "Values must be zero or more"}
		}
	}
	return nil
}

// ParseInput converts the three onboarding form strings.
func ParseInput(income, goal, spend string) (model.ProfileInput, error) {
	vals := make([]float64, 3)
	for i, raw := range []string{income, goal, spend} {
		raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
		if raw == "" {
			return model.ProfileInput{}, &InputError{Message: "Please fill all fields"}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.ProfileInput{}, &InputError{Message: "Please enter numbers only"}
		}
		vals[i] = v
	}
	in := model.ProfileInput{MonthlyIncome: vals[0], SpendingGoal: vals[1], CurrentSpend: vals[2]}
	return in, ValidateInput(in)
}

func decodeProfile(userID string, data map[string]any) model.UserProfile {
	p := model.UserProfile{UserID: userID}
	if id, ok := data[fieldUserID].(string); ok && id != "" {
		p.UserID = id
	}
	p.Onboarded, _ = data[fieldOnboarded].(bool)
	p.UpdatedAt = timeField(data[fieldUpdatedAt])

	income, okI := numberField(data[fieldMonthlyIncome])
	goal, okG := numberField(data[fieldSpendingGoal])
	spend, okS := numberField(data[fieldCurrentSpend])
	if p.Onboarded && okI && okG && okS {
		p.Budget = &model.Budget{MonthlyIncome: income, SpendingGoal: goal, CurrentSpend: spend}
	}
	return p
}

func decodeTransaction(d docstore.Document) model.Transaction {
	t := model.Transaction{ID: d.ID}
	t.UserID, _ = d.Data[fieldUserID].(string)
	t.Category, _ = d.Data[fieldCategory].(string)
	t.Note, _ = d.Data[fieldNote].(string)
	t.Amount, _ = numberField(d.Data[fieldAmount])
	t.CreatedAt = timeField(d.Data[fieldCreatedAt])
	return t
}

// numberField reads a numeric field the way the web client wrote it: numbers
// of any width, or numeric strings. Anything else reads as (0, false).
func numberField(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func timeField(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
