package repositories

import (
	"github.com/betterdrive/betterdrive/app/models"
	"gorm.io/gorm"
)

// UserRepository handles database operations for User, including the
// storage-quota ledger.
type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(db *gorm.DB, email string) (models.User, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	return user, err
}

// FindByID looks up a user by primary key.
func (r *UserRepository) FindByID(db *gorm.DB, id uint) (models.User, error) {
	var user models.User
	err := db.First(&user, id).Error
	return user, err
}

// Create persists a new user record.
func (r *UserRepository) Create(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

// ── Quota ledger ─────────────────────────────────────────────────────────────
//
// Both mutations are single conditional UPDATE statements, so concurrent
// requests cannot lose updates at any isolation level and every driver we
// support executes them identically. They must run on the same tx handle as
// the file-row change they account for.

// TryIncrementStorage adds bytes to the user's storage_used counter, but only
// if the result stays within limit. Returns false when the quota check fails
// (no row changed, nothing to roll back).
func (r *UserRepository) TryIncrementStorage(db *gorm.DB, userID uint, bytes, limit int64) (bool, error) {
	res := db.Model(&models.User{}).
		Where("id = ? AND storage_used + ? <= ?", userID, bytes, limit).
		Update("storage_used", gorm.Expr("storage_used + ?", bytes))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DecrementStorage subtracts bytes from the user's storage_used counter.
// The guard keeps the counter from going negative; in a consistent system it
// can never trip, so a false return is a corruption signal the caller must
// surface, not swallow.
func (r *UserRepository) DecrementStorage(db *gorm.DB, userID uint, bytes int64) (bool, error) {
	res := db.Model(&models.User{}).
		Where("id = ? AND storage_used >= ?", userID, bytes).
		Update("storage_used", gorm.Expr("storage_used - ?", bytes))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// StorageLedger recomputes the true sum of file sizes for every user.
// Used by the consistency audit job to detect ledger drift.
func (r *UserRepository) StorageLedger(db *gorm.DB) (map[uint]int64, error) {
	type row struct {
		UserID uint
		Total  int64
	}

	var rows []row
	err := db.Model(&models.File{}).
		Select("user_id, COALESCE(SUM(size), 0) as total").
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ledger := make(map[uint]int64, len(rows))
	for _, r := range rows {
		ledger[r.UserID] = r.Total
	}
	return ledger, nil
}

// AllUsers returns id and storage_used for every user (audit job input).
func (r *UserRepository) AllUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	err := db.Select("id", "storage_used").Find(&users).Error
	return users, err
}
