package repository

import (
	"database/sql"
	"go-ledger-api/logger"
	"go-ledger-api/model"

	"github.com/sirupsen/logrus"
)

// IAccountRepository defines the contract for account database operations.
type IAccountRepository interface {
	CreateAccount(account *model.Account) error
	GetAccountByID(accountID int) (*model.Account, error)
	GetAccountsByUserID(userID int) ([]*model.Account, error)
	HasAccountOfType(userID int, accountType string) (bool, error)
	AccountNumberExists(accountNumber int64) (bool, error)
	GetAccountForUpdate(tx *sql.Tx, accountID int) (*model.Account, error)
	UpdateAccountBalance(tx *sql.Tx, accountID int, newBalance float64) error
}

// AccountRepository implements IAccountRepository.
type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

// CreateAccount adds a new account to the database.
func (r *AccountRepository) CreateAccount(account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        account.UserID,
		"account_number": account.AccountNumber,
		"account_type":   account.AccountType,
	})
	log.Info("Executing query to create a new account")

	query := `INSERT INTO accounts (user_id, account_number, account_type) VALUES ($1, $2, $3) RETURNING id, status, balance, created_at`
	err := r.DB.QueryRow(query, account.UserID, account.AccountNumber, account.AccountType).
		Scan(&account.ID, &account.Status, &account.Balance, &account.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create account query")
		return err
	}
	return nil
}

// GetAccountByID retrieves a single account by its primary key.
func (r *AccountRepository) GetAccountByID(accountID int) (*model.Account, error) {
	account := &model.Account{}
	query := `SELECT id, user_id, account_number, account_type, status, balance, created_at FROM accounts WHERE id = $1`
	err := r.DB.QueryRow(query, accountID).
		Scan(&account.ID, &account.UserID, &account.AccountNumber, &account.AccountType, &account.Status, &account.Balance, &account.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithField("account_id", accountID).WithError(err).Error("Failed to execute get account by ID query")
		}
		return nil, err
	}
	return account, nil
}

// GetAccountsByUserID retrieves all accounts for a specific user.
func (r *AccountRepository) GetAccountsByUserID(userID int) ([]*model.Account, error) {
	log := logger.Log.WithField("user_id", userID)
	log.Info("Executing query to get accounts by user ID")

	query := `SELECT id, user_id, account_number, account_type, status, balance, created_at FROM accounts WHERE user_id = $1`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for accounts by user ID")
		return nil, err
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		var acc model.Account
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.AccountNumber, &acc.AccountType, &acc.Status, &acc.Balance, &acc.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan account row")
			return nil, err
		}
		accounts = append(accounts, &acc)
	}
	return accounts, rows.Err()
}

// HasAccountOfType reports whether the user already owns an account of the
// given type.
func (r *AccountRepository) HasAccountOfType(userID int, accountType string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE user_id = $1 AND account_type = $2)`
	if err := r.DB.QueryRow(query, userID, accountType).Scan(&exists); err != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Error("Failed to check for existing account type")
		return false, err
	}
	return exists, nil
}

// AccountNumberExists reports whether an account number is already taken.
func (r *AccountRepository) AccountNumberExists(accountNumber int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`
	if err := r.DB.QueryRow(query, accountNumber).Scan(&exists); err != nil {
		logger.Log.WithError(err).Error("Failed to check for existing account number")
		return false, err
	}
	return exists, nil
}

// GetAccountForUpdate locks the account row for the duration of the enclosing
// transaction, serializing concurrent ledger writes per account.
func (r *AccountRepository) GetAccountForUpdate(tx *sql.Tx, accountID int) (*model.Account, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get account for update")

	account := &model.Account{}
	query := `SELECT id, user_id, account_number, account_type, status, balance FROM accounts WHERE id = $1 FOR UPDATE`
	err := tx.QueryRow(query, accountID).
		Scan(&account.ID, &account.UserID, &account.AccountNumber, &account.AccountType, &account.Status, &account.Balance)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Account not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get account for update query")
		}
		return nil, err
	}
	return account, nil
}

// UpdateAccountBalance overwrites the cached balance. Only the ledger engine
// calls this, always with a freshly computed value.
func (r *AccountRepository) UpdateAccountBalance(tx *sql.Tx, accountID int, newBalance float64) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  accountID,
		"new_balance": newBalance,
	})
	log.Info("Executing query to update account balance")

	query := `UPDATE accounts SET balance = $1 WHERE id = $2`
	_, err := tx.Exec(query, newBalance, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update account balance query")
		return err
	}
	return nil
}
