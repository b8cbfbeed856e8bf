package api

import (
	"net/http"

	"expense_tracker/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NameRequest is the body for creating accounts and categories
type NameRequest struct {
	Name string `json:"name" binding:"required,max=255"` // Display name
}

// CreateAccountHandler opens an account for the caller. Account names are
// unique system-wide.
func CreateAccountHandler(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req NameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "name is required")
			return
		}
		acc, err := store.CreateAccount(c.Request.Context(), userID, req.Name)
		if err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": userID, "account_id": acc.ID}).Info("Account created")
		c.JSON(http.StatusCreated, acc)
	}
}

// ListAccountsHandler lists the caller's accounts
func ListAccountsHandler(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		accs, err := store.Accounts(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, accs)
	}
}

// GetAccountHandler returns one of the caller's accounts
func GetAccountHandler(store *ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		acc, err := store.Account(c.Request.Context(), userID, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, acc)
	}
}
