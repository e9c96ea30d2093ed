package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/policy"
	"go-ledger-api/repository"
	"math"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidFundingSource = errors.New("invalid funding source")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountNotActive     = errors.New("account is not active")
)

// reconcileTolerance absorbs floating-point rounding noise when comparing the
// cached balance against the recomputed one.
const reconcileTolerance = 0.01

// LedgerService is the accounting engine. Balances are derived from the
// append-only transaction log; the balance column on accounts is only a read
// cache that this service keeps consistent.
type LedgerService struct {
	db              *sql.DB
	accountRepo     repository.IAccountRepository
	transactionRepo repository.ITransactionRepository
	redisClient     *redis.Client
}

func NewLedgerService(db *sql.DB, accountRepo repository.IAccountRepository, transactionRepo repository.ITransactionRepository, redisClient *redis.Client) *LedgerService {
	return &LedgerService{
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		redisClient:     redisClient,
	}
}

// ReconciliationResult reports one reconciliation pass over an account.
type ReconciliationResult struct {
	Match           bool    `json:"match"`
	StoredBalance   float64 `json:"stored_balance"`
	ComputedBalance float64 `json:"computed_balance"`
}

// sumCompleted derives a balance from completed ledger entries: deposits add,
// withdrawals subtract. The running total is re-rounded to cents after every
// entry so aggregation uses the same rounding rule as amount normalization.
func sumCompleted(transactions []*model.Transaction) float64 {
	var balance float64
	for _, t := range transactions {
		if t.Status != model.TransactionStatusCompleted {
			continue
		}
		switch t.Kind {
		case model.TransactionKindDeposit:
			balance = policy.RoundCents(balance + t.Amount)
		case model.TransactionKindWithdrawal:
			balance = policy.RoundCents(balance - t.Amount)
		}
	}
	return balance
}

// ownedAccount loads an account and enforces ownership. A foreign account is
// indistinguishable from a missing one.
func (s *LedgerService) ownedAccount(userID, accountID int) (*model.Account, error) {
	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if account.UserID != userID {
		logger.Log.WithFields(logrus.Fields{
			"requesting_user_id": userID,
			"target_account_id":  accountID,
		}).Warn("Request for account not owned by user")
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// GetBalance verifies ownership and returns the true balance computed from
// the transaction log. The cached column is never consulted here.
func (s *LedgerService) GetBalance(ctx context.Context, userID, accountID int) (float64, error) {
	if _, err := s.ownedAccount(userID, accountID); err != nil {
		return 0, err
	}

	completed, err := s.transactionRepo.GetCompletedByAccountID(s.db, accountID)
	if err != nil {
		return 0, err
	}
	return sumCompleted(completed), nil
}

// ReconcileForUser verifies ownership before reconciling on behalf of an API
// caller. A periodic sweep would call Reconcile directly.
func (s *LedgerService) ReconcileForUser(ctx context.Context, userID, accountID int) (*ReconciliationResult, error) {
	if _, err := s.ownedAccount(userID, accountID); err != nil {
		return nil, err
	}
	return s.Reconcile(ctx, accountID)
}

// Reconcile recomputes the balance from the log and compares it to the cached
// value. A mismatch is corrected in place and reported; it never fails the
// caller. Running it twice with no intervening writes reports a match the
// second time.
func (s *LedgerService) Reconcile(ctx context.Context, accountID int) (*ReconciliationResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin reconciliation transaction: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accountRepo.GetAccountForUpdate(tx, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	completed, err := s.transactionRepo.GetCompletedByAccountID(tx, accountID)
	if err != nil {
		return nil, err
	}
	computed := sumCompleted(completed)

	result := &ReconciliationResult{
		Match:           math.Abs(account.Balance-computed) < reconcileTolerance,
		StoredBalance:   account.Balance,
		ComputedBalance: computed,
	}

	if !result.Match {
		logger.Log.WithFields(logrus.Fields{
			"account_id":       accountID,
			"stored_balance":   account.Balance,
			"computed_balance": computed,
		}).Error("Cached balance drifted from ledger; correcting")

		if err := s.accountRepo.UpdateAccountBalance(tx, accountID, computed); err != nil {
			return nil, fmt.Errorf("could not correct cached balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit reconciliation: %w", err)
	}

	if !result.Match {
		s.invalidateAccountCache(ctx, account.UserID)
	}
	return result, nil
}

// FundAccount executes a deposit against the ledger. The append, the balance
// recomputation and the cache update happen in one database transaction
// holding the account row lock, so concurrent deposits to the same account
// serialize and the cached balance always reflects the full completed set.
func (s *LedgerService) FundAccount(ctx context.Context, userID, accountID int, req model.FundRequest) (*model.Transaction, float64, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": accountID,
		"amount":     req.Amount,
		"source":     req.Source.Type,
	})
	log.Info("Starting funding operation")

	amount, err := policy.ValidateAmount(req.Amount)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accountRepo.GetAccountForUpdate(tx, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, ErrAccountNotFound
		}
		return nil, 0, err
	}
	if account.UserID != userID {
		log.Warn("Funding attempt on account not owned by user")
		return nil, 0, ErrAccountNotFound
	}
	if account.Status != model.AccountStatusActive {
		return nil, 0, ErrAccountNotActive
	}

	if req.IdempotencyKey != "" {
		existing, err := s.transactionRepo.GetCompletedByIdempotencyKey(tx, accountID, req.IdempotencyKey)
		if err != nil && err != sql.ErrNoRows {
			return nil, 0, err
		}
		if existing != nil {
			completed, err := s.transactionRepo.GetCompletedByAccountID(tx, accountID)
			if err != nil {
				return nil, 0, err
			}
			if err := tx.Commit(); err != nil {
				return nil, 0, fmt.Errorf("could not commit idempotent replay: %w", err)
			}
			log.WithField("transaction_id", existing.ID).Info("Idempotency key seen before; returning original transaction")
			return existing, sumCompleted(completed), nil
		}
	}

	description, err := validateFundingSource(req.Source)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidFundingSource, err)
	}

	transaction := &model.Transaction{
		AccountID:      accountID,
		Kind:           model.TransactionKindDeposit,
		Amount:         amount,
		Description:    policy.StripMarkup(description),
		Status:         model.TransactionStatusCompleted,
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := s.transactionRepo.CreateTransaction(tx, transaction); err != nil {
		if isUniqueViolation(err) && req.IdempotencyKey != "" {
			// A concurrent retry with the same key won the insert race.
			// Abandon this transaction and return the winner's row.
			tx.Rollback()
			return s.replayIdempotent(ctx, log, accountID, req.IdempotencyKey)
		}
		return nil, 0, fmt.Errorf("could not append transaction: %w", err)
	}

	completed, err := s.transactionRepo.GetCompletedByAccountID(tx, accountID)
	if err != nil {
		return nil, 0, fmt.Errorf("could not recompute balance: %w", err)
	}
	balance := sumCompleted(completed)

	if err := s.accountRepo.UpdateAccountBalance(tx, accountID, balance); err != nil {
		return nil, 0, fmt.Errorf("could not update cached balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("could not commit funding operation: %w", err)
	}

	s.invalidateAccountCache(ctx, userID)
	log.WithFields(logrus.Fields{
		"transaction_id": transaction.ID,
		"new_balance":    balance,
	}).Info("Funding operation completed")
	return transaction, balance, nil
}

// ListTransactionsForAccount retrieves the transaction history for an account
// owned by the user, newest first, annotated with the account type.
func (s *LedgerService) ListTransactionsForAccount(ctx context.Context, userID, accountID int) ([]*model.Transaction, error) {
	account, err := s.ownedAccount(userID, accountID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.transactionRepo.GetTransactionsByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	for _, t := range transactions {
		t.AccountType = account.AccountType
	}
	return transactions, nil
}

// replayIdempotent fetches the transaction written by the winner of an
// idempotency key race, together with the current balance.
func (s *LedgerService) replayIdempotent(ctx context.Context, log *logrus.Entry, accountID int, key string) (*model.Transaction, float64, error) {
	existing, err := s.transactionRepo.GetCompletedByIdempotencyKey(s.db, accountID, key)
	if err != nil {
		return nil, 0, fmt.Errorf("could not fetch winning idempotent transaction: %w", err)
	}

	completed, err := s.transactionRepo.GetCompletedByAccountID(s.db, accountID)
	if err != nil {
		return nil, 0, err
	}

	log.WithField("transaction_id", existing.ID).Info("Lost idempotency insert race; returning winning transaction")
	return existing, sumCompleted(completed), nil
}

func validateFundingSource(source model.FundingSource) (string, error) {
	switch source.Type {
	case policy.FundingTypeCard:
		cardType, err := policy.ValidateCard(source.CardNumber)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Card deposit (%s)", cardType), nil
	case policy.FundingTypeBank:
		if !policy.ValidateRoutingNumber(source.RoutingNumber) {
			return "", policy.ErrInvalidRoutingNumber
		}
		if source.AccountNumber == "" {
			return "", policy.ErrMissingBankAccount
		}
		return "Bank transfer deposit", nil
	}
	return "", policy.ErrUnknownFundingType
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *LedgerService) invalidateAccountCache(ctx context.Context, userID int) {
	if s.redisClient == nil {
		return
	}
	cacheKey := fmt.Sprintf("accounts:%d", userID)
	if err := s.redisClient.Del(ctx, cacheKey).Err(); err != nil {
		logger.Log.WithField("cache_key", cacheKey).WithError(err).Warn("Failed to invalidate account cache")
	}
}
