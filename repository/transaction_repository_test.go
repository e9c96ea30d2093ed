package repository

import (
	"go-ledger-api/logger"
	"go-ledger-api/model"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func transactionColumns() []string {
	return []string{"id", "account_id", "kind", "amount", "description", "status", "idempotency_key", "created_at", "completed_at"}
}

func TestTransactionRepository_GetCompletedByAccountID(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTransactionRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(transactionColumns()).
		AddRow(1, 1, model.TransactionKindDeposit, 100.00, "Card deposit (visa)", model.TransactionStatusCompleted, "", now, now).
		AddRow(2, 1, model.TransactionKindDeposit, 200.00, "Bank transfer deposit", model.TransactionStatusCompleted, "T", now, now)

	dbMock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(1).
		WillReturnRows(rows)

	transactions, err := repo.GetCompletedByAccountID(db, 1)

	assert.NoError(t, err)
	assert.Len(t, transactions, 2)
	assert.Equal(t, 100.00, transactions[0].Amount)
	assert.Equal(t, "T", transactions[1].IdempotencyKey)
	assert.NotNil(t, transactions[0].CompletedAt)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTransactionRepository_GetCompletedByIdempotencyKey(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTransactionRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(transactionColumns()).
		AddRow(7, 1, model.TransactionKindDeposit, 100.00, "Card deposit (visa)", model.TransactionStatusCompleted, "T", now, now)

	dbMock.ExpectQuery("SELECT (.+) FROM transactions").
		WithArgs(1, "T").
		WillReturnRows(rows)

	transaction, err := repo.GetCompletedByIdempotencyKey(db, 1, "T")

	assert.NoError(t, err)
	assert.Equal(t, 7, transaction.ID)
	assert.Equal(t, "T", transaction.IdempotencyKey)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTransactionRepository_CreateTransaction(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewTransactionRepository(db)
	now := time.Now()

	dbMock.ExpectBegin()
	dbMock.ExpectQuery("INSERT INTO transactions").
		WithArgs(1, model.TransactionKindDeposit, 100.00, "Card deposit (visa)", model.TransactionStatusCompleted, "T").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "completed_at"}).AddRow(42, now, now))
	dbMock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)

	transaction := &model.Transaction{
		AccountID:      1,
		Kind:           model.TransactionKindDeposit,
		Amount:         100.00,
		Description:    "Card deposit (visa)",
		Status:         model.TransactionStatusCompleted,
		IdempotencyKey: "T",
	}
	err = repo.CreateTransaction(tx, transaction)
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())

	assert.Equal(t, 42, transaction.ID)
	assert.NotNil(t, transaction.CompletedAt)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
