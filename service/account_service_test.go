package service

import (
	"errors"
	"go-ledger-api/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestAccountService_CreateNewAccount(t *testing.T) {
	userID := 1

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		accountService := NewAccountService(mockRepo, nil)

		mockRepo.On("HasAccountOfType", userID, model.AccountTypeChecking).Return(false, nil).Once()
		mockRepo.On("AccountNumberExists", mock.AnythingOfType("int64")).Return(false, nil).Once()
		mockRepo.On("CreateAccount", mock.MatchedBy(func(acc *model.Account) bool {
			return acc.UserID == userID &&
				acc.AccountType == model.AccountTypeChecking &&
				acc.AccountNumber >= 1_000_000_000 && acc.AccountNumber <= 9_999_999_999
		})).Run(func(args mock.Arguments) {
			acc := args.Get(0).(*model.Account)
			acc.ID = 5
			acc.Status = model.AccountStatusActive
			acc.Balance = 0
		}).Return(nil).Once()
		mockRepo.On("GetAccountByID", 5).Return(&model.Account{
			ID:          5,
			UserID:      userID,
			AccountType: model.AccountTypeChecking,
			Status:      model.AccountStatusActive,
			Balance:     0,
		}, nil).Once()

		account, err := accountService.CreateNewAccount(userID, model.AccountTypeChecking)

		assert.NoError(t, err)
		assert.Equal(t, model.AccountStatusActive, account.Status)
		assert.Equal(t, 0.0, account.Balance)
		mockRepo.AssertExpectations(t)
	})

	t.Run("duplicate account type", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		accountService := NewAccountService(mockRepo, nil)

		mockRepo.On("HasAccountOfType", userID, model.AccountTypeSavings).Return(true, nil).Once()

		_, err := accountService.CreateNewAccount(userID, model.AccountTypeSavings)

		assert.ErrorIs(t, err, ErrDuplicateAccountType)
		mockRepo.AssertNotCalled(t, "CreateAccount", mock.Anything)
	})

	t.Run("account number collision retries", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		accountService := NewAccountService(mockRepo, nil)

		mockRepo.On("HasAccountOfType", userID, model.AccountTypeChecking).Return(false, nil).Once()
		mockRepo.On("AccountNumberExists", mock.AnythingOfType("int64")).Return(true, nil).Once()
		mockRepo.On("AccountNumberExists", mock.AnythingOfType("int64")).Return(false, nil).Once()
		mockRepo.On("CreateAccount", mock.AnythingOfType("*model.Account")).Run(func(args mock.Arguments) {
			acc := args.Get(0).(*model.Account)
			acc.ID = 6
		}).Return(nil).Once()
		mockRepo.On("GetAccountByID", 6).Return(&model.Account{
			ID:     6,
			UserID: userID,
			Status: model.AccountStatusActive,
		}, nil).Once()

		_, err := accountService.CreateNewAccount(userID, model.AccountTypeChecking)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("number space exhaustion", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		accountService := NewAccountService(mockRepo, nil)

		mockRepo.On("HasAccountOfType", userID, model.AccountTypeChecking).Return(false, nil).Once()
		mockRepo.On("AccountNumberExists", mock.AnythingOfType("int64")).Return(true, nil).Times(accountNumberTries)

		_, err := accountService.CreateNewAccount(userID, model.AccountTypeChecking)

		assert.ErrorIs(t, err, ErrNumberSpaceExhausted)
		mockRepo.AssertNotCalled(t, "CreateAccount", mock.Anything)
	})

	t.Run("postcondition violation", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		accountService := NewAccountService(mockRepo, nil)

		mockRepo.On("HasAccountOfType", userID, model.AccountTypeChecking).Return(false, nil).Once()
		mockRepo.On("AccountNumberExists", mock.AnythingOfType("int64")).Return(false, nil).Once()
		mockRepo.On("CreateAccount", mock.AnythingOfType("*model.Account")).Run(func(args mock.Arguments) {
			args.Get(0).(*model.Account).ID = 7
		}).Return(nil).Once()
		mockRepo.On("GetAccountByID", 7).Return(&model.Account{
			ID:      7,
			UserID:  userID,
			Status:  model.AccountStatusActive,
			Balance: 12.34, // storage corruption: a brand new account must be empty
		}, nil).Once()

		_, err := accountService.CreateNewAccount(userID, model.AccountTypeChecking)

		assert.ErrorIs(t, err, ErrAccountStateCorrupt)
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo := new(MockAccountRepository)
		accountService := NewAccountService(mockRepo, nil)

		expectedError := errors.New("db error")
		mockRepo.On("HasAccountOfType", userID, model.AccountTypeChecking).Return(false, expectedError).Once()

		_, err := accountService.CreateNewAccount(userID, model.AccountTypeChecking)

		assert.ErrorIs(t, err, expectedError)
	})
}

func TestAccountService_ListAccountsForUser(t *testing.T) {
	mockRepo := new(MockAccountRepository)
	accountService := NewAccountService(mockRepo, nil)

	expected := []*model.Account{{ID: 1, UserID: 1, AccountType: model.AccountTypeChecking}}
	mockRepo.On("GetAccountsByUserID", 1).Return(expected, nil).Once()

	accounts, err := accountService.ListAccountsForUser(1)

	assert.NoError(t, err)
	assert.Equal(t, expected, accounts)
	mockRepo.AssertExpectations(t)
}
