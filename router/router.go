package router

import (
	"go-ledger-api/common"
	"go-ledger-api/handler"
	"net/http"
)

func NewRouter(userHandler *handler.UserHandler, accountHandler *handler.AccountHandler, ledgerHandler *handler.LedgerHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	mux.Handle("POST /register", handler.ErrorHandlingMiddleware(userHandler.Register))
	mux.Handle("POST /login", handler.ErrorHandlingMiddleware(userHandler.Login))
	mux.Handle("POST /api/token/refresh", handler.ErrorHandlingMiddleware(userHandler.Refresh))

	protected := func(h func(http.ResponseWriter, *http.Request) *common.AppError) http.Handler {
		return handler.AuthMiddleware(handler.ErrorHandlingMiddleware(h))
	}

	mux.Handle("POST /api/logout", protected(userHandler.Logout))

	mux.Handle("POST /api/accounts", protected(accountHandler.CreateAccount))
	mux.Handle("GET /api/accounts", protected(accountHandler.ListAccounts))

	mux.Handle("POST /api/accounts/{accountId}/deposits", protected(ledgerHandler.FundAccount))
	mux.Handle("GET /api/accounts/{accountId}/balance", protected(ledgerHandler.GetBalance))
	mux.Handle("POST /api/accounts/{accountId}/reconcile", protected(ledgerHandler.Reconcile))
	mux.Handle("GET /api/accounts/{accountId}/transactions", protected(ledgerHandler.ListTransactionsForAccount))

	return mux
}
