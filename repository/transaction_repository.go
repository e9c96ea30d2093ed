package repository

import (
	"database/sql"
	"go-ledger-api/logger"
	"go-ledger-api/model"

	"github.com/sirupsen/logrus"
)

// ITransactionRepository defines the contract for ledger database operations.
// The ledger is append-only: there are no update or delete methods.
type ITransactionRepository interface {
	CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error
	GetCompletedByAccountID(q Querier, accountID int) ([]*model.Transaction, error)
	GetCompletedByIdempotencyKey(q Querier, accountID int, key string) (*model.Transaction, error)
	GetTransactionsByAccountID(accountID int) ([]*model.Transaction, error)
}

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

// CreateTransaction appends a new ledger entry inside the given transaction.
// Completed entries get their completion timestamp from the database clock.
func (r *TransactionRepository) CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": transaction.AccountID,
		"kind":       transaction.Kind,
		"amount":     transaction.Amount,
	})
	log.Info("Executing query to append a ledger transaction")

	var key interface{}
	if transaction.IdempotencyKey != "" {
		key = transaction.IdempotencyKey
	}

	query := `INSERT INTO transactions (account_id, kind, amount, description, status, idempotency_key, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, CASE WHEN $5 = 'completed' THEN now() END)
		RETURNING id, created_at, completed_at`
	err := tx.QueryRow(query, transaction.AccountID, transaction.Kind, transaction.Amount,
		transaction.Description, transaction.Status, key).
		Scan(&transaction.ID, &transaction.CreatedAt, &transaction.CompletedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute append transaction query")
		return err
	}
	return nil
}

// GetCompletedByAccountID retrieves the completed ledger entries for an
// account in creation order. Pending entries are invisible here.
func (r *TransactionRepository) GetCompletedByAccountID(q Querier, accountID int) ([]*model.Transaction, error) {
	query := `SELECT id, account_id, kind, amount, description, status, COALESCE(idempotency_key, ''), created_at, completed_at
		FROM transactions
		WHERE account_id = $1 AND status = 'completed'
		ORDER BY created_at ASC, id ASC`

	rows, err := q.Query(query, accountID)
	if err != nil {
		logger.Log.WithField("account_id", accountID).WithError(err).Error("Failed to execute query for completed transactions")
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetCompletedByIdempotencyKey looks up the completed transaction recorded for
// a prior request carrying the same idempotency key.
func (r *TransactionRepository) GetCompletedByIdempotencyKey(q Querier, accountID int, key string) (*model.Transaction, error) {
	t := &model.Transaction{}
	query := `SELECT id, account_id, kind, amount, description, status, COALESCE(idempotency_key, ''), created_at, completed_at
		FROM transactions
		WHERE account_id = $1 AND idempotency_key = $2 AND status = 'completed'`
	err := q.QueryRow(query, accountID, key).
		Scan(&t.ID, &t.AccountID, &t.Kind, &t.Amount, &t.Description, &t.Status, &t.IdempotencyKey, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithFields(logrus.Fields{
				"account_id":      accountID,
				"idempotency_key": key,
			}).WithError(err).Error("Failed to execute idempotency key lookup query")
		}
		return nil, err
	}
	return t, nil
}

// GetTransactionsByAccountID retrieves the full history for an account,
// newest first.
func (r *TransactionRepository) GetTransactionsByAccountID(accountID int) ([]*model.Transaction, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get transactions by account ID")

	query := `SELECT id, account_id, kind, amount, description, status, COALESCE(idempotency_key, ''), created_at, completed_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.DB.Query(query, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transactions by account ID")
		return nil, err
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Kind, &t.Amount, &t.Description, &t.Status, &t.IdempotencyKey, &t.CreatedAt, &t.CompletedAt); err != nil {
			logger.Log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		transactions = append(transactions, &t)
	}
	return transactions, rows.Err()
}
