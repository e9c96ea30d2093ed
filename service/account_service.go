package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"go-ledger-api/repository"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrDuplicateAccountType = errors.New("user already has an account of this type")
	ErrNumberSpaceExhausted = errors.New("could not allocate a unique account number")
	ErrAccountStateCorrupt  = errors.New("account state verification failed after creation")
)

const (
	accountNumberMin   = 1_000_000_000 // smallest 10-digit number
	accountNumberSpan  = 9_000_000_000
	accountNumberTries = 10
)

// AccountService handles account lifecycle and cached listings.
type AccountService struct {
	repo        repository.IAccountRepository
	redisClient *redis.Client
}

func NewAccountService(repo repository.IAccountRepository, redisClient *redis.Client) *AccountService {
	return &AccountService{
		repo:        repo,
		redisClient: redisClient,
	}
}

// CreateNewAccount opens one account of the given type for the user. A second
// account of the same type is rejected. The generated account number is drawn
// uniformly from the 10-digit range with a cryptographically secure source.
func (s *AccountService) CreateNewAccount(userID int, accountType string) (*model.Account, error) {
	exists, err := s.repo.HasAccountOfType(userID, accountType)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateAccountType
	}

	accountNumber, err := s.allocateAccountNumber()
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		UserID:        userID,
		AccountNumber: accountNumber,
		AccountType:   accountType,
	}
	if err := s.repo.CreateAccount(account); err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent creation for the same (user, type).
			return nil, ErrDuplicateAccountType
		}
		return nil, err
	}

	// Re-read and verify the creation postconditions. A violation means the
	// store is corrupt, not that the request should be retried.
	fresh, err := s.repo.GetAccountByID(account.ID)
	if err != nil {
		return nil, fmt.Errorf("could not verify new account: %w", err)
	}
	if fresh.Balance != 0 || fresh.Status != model.AccountStatusActive {
		logger.Log.WithField("account_id", account.ID).Error("New account failed postcondition check")
		return nil, ErrAccountStateCorrupt
	}

	cacheKey := fmt.Sprintf("accounts:%d", userID)
	if s.redisClient != nil {
		s.redisClient.Del(context.Background(), cacheKey)
	}

	return fresh, nil
}

// ListAccountsForUser lists accounts for a specific user, utilizing a
// cache-aside strategy.
func (s *AccountService) ListAccountsForUser(userID int) ([]*model.Account, error) {
	cacheKey := fmt.Sprintf("accounts:%d", userID)
	ctx := context.Background()

	if s.redisClient != nil {
		cachedAccounts, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var accounts []*model.Account
			if err := json.Unmarshal([]byte(cachedAccounts), &accounts); err == nil {
				return accounts, nil
			}
		}
	}

	accounts, err := s.repo.GetAccountsByUserID(userID)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(accounts); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, 10*time.Minute)
		}
	}

	return accounts, nil
}

// allocateAccountNumber draws candidates until one is free. The range is nine
// billion wide, so exhausting the retry bound signals something badly wrong
// rather than bad luck.
func (s *AccountService) allocateAccountNumber() (int64, error) {
	for i := 0; i < accountNumberTries; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(accountNumberSpan))
		if err != nil {
			return 0, fmt.Errorf("could not draw account number: %w", err)
		}
		candidate := accountNumberMin + n.Int64()

		taken, err := s.repo.AccountNumberExists(candidate)
		if err != nil {
			return 0, err
		}
		if !taken {
			return candidate, nil
		}
	}
	logger.Log.Error("Exhausted account number generation retries")
	return 0, ErrNumberSpaceExhausted
}
