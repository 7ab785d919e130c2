package handlers

import "budget-tracker/models"

// UserStore is the slice of the file store the handlers need.
// *store.FileStore satisfies it.
type UserStore interface {
	CreateUser(username, passwordHash string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	GetSnapshot(userID string) (*models.LedgerSnapshot, error)
	SaveSnapshot(userID string, snap models.LedgerSnapshot) error
}
