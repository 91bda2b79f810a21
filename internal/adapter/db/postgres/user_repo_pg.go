package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "user-api/internal/domain/user"
	"user-api/internal/usecase/user"
	"user-api/pkg/logger"
)

// UserRepoPG implements user.Repository on top of GORM. It is used with the
// PostgreSQL dialector in production and SQLite in tests and local runs.
type UserRepoPG struct {
	db  *gorm.DB    // GORM handle, possibly bound to a transaction
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`      // Unique identifier with auto-increment
	FirstName string    `gorm:"size:100;not null"`             // Given name (required)
	LastName  string    `gorm:"size:100;not null"`             // Family name (required)
	Email     string    `gorm:"size:255;not null;uniqueIndex"` // Unique email address (required)
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`       // Set on insert
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`       // Refreshed on every save
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Now stamps CreatedAt and UpdatedAt. PostgreSQL timestamps keep microseconds,
// so the value returned from Save matches what a later read returns.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// AutoMigrate provisions the users table and its unique email index.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

func toSchema(u *domain.User) UserSchema {
	return UserSchema{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (m UserSchema) toDomain() *domain.User {
	return &domain.User{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// WithinTransaction runs fn with a repository bound to a single transaction.
// The transaction commits when fn returns nil and rolls back on error or panic.
// Nested calls use savepoints.
func (r *UserRepoPG) WithinTransaction(ctx context.Context, readOnly bool, fn func(context.Context, user.Repository) error) error {
	var opts []*sql.TxOptions
	// SQLite drivers reject read-only transaction options
	if readOnly && r.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{ReadOnly: true})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &UserRepoPG{db: tx, log: r.log})
	}, opts...)
}

// Save inserts u when it has no ID, otherwise overwrites every column of the
// existing row. Timestamps are maintained by GORM.
func (r *UserRepoPG) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	log := logger.WithContext(ctx, r.log)
	model := toSchema(u)

	var err error
	if model.ID == 0 {
		err = r.db.WithContext(ctx).Create(&model).Error
	} else {
		err = r.db.WithContext(ctx).Save(&model).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Warn("unique email index rejected write", zap.String("email", u.Email))
			return nil, domain.ErrEmailTaken
		}
		log.Error("failed to save user in db", zap.Error(err), zap.Int64("id", u.ID))
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	log.Debug("user saved in db", zap.Int64("id", model.ID))
	return model.toDomain(), nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&UserSchema{}, id).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to delete user in db", zap.Error(err), zap.Int64("id", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}

	logger.WithContext(ctx, r.log).Debug("user deleted in db", zap.Int64("id", id))
	return nil
}

// GetByID retrieves a user by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.first(ctx, "id", r.db.WithContext(ctx).Where("id = ?", id))
}

// GetByEmail retrieves a user by their exact email address.
func (r *UserRepoPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email", r.db.WithContext(ctx).Where("email = ?", email))
}

// GetByFullName retrieves the first user whose first and last name both match exactly.
func (r *UserRepoPG) GetByFullName(ctx context.Context, firstName, lastName string) (*domain.User, error) {
	return r.first(ctx, "full name", r.db.WithContext(ctx).Where("first_name = ? AND last_name = ?", firstName, lastName))
}

func (r *UserRepoPG) first(ctx context.Context, by string, q *gorm.DB) (*domain.User, error) {
	var model UserSchema
	if err := q.Order("id").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		logger.WithContext(ctx, r.log).Error("failed to get user from db", zap.String("by", by), zap.Error(err))
		return nil, fmt.Errorf("failed to get user by %s: %w", by, err)
	}

	return model.toDomain(), nil
}

// ExistsByID reports whether a user with the given ID exists.
func (r *UserRepoPG) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, "id", r.db.WithContext(ctx).Where("id = ?", id))
}

// ExistsByEmail reports whether any user owns the given email.
func (r *UserRepoPG) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", r.db.WithContext(ctx).Where("email = ?", email))
}

func (r *UserRepoPG) exists(ctx context.Context, by string, q *gorm.DB) (bool, error) {
	var count int64
	if err := q.Model(&UserSchema{}).Count(&count).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to check user existence", zap.String("by", by), zap.Error(err))
		return false, fmt.Errorf("failed to check user existence by %s: %w", by, err)
	}
	return count > 0, nil
}

// List retrieves all users ordered by ID.
func (r *UserRepoPG) List(ctx context.Context) ([]domain.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.User, len(models))
	for i, model := range models {
		users[i] = *model.toDomain()
	}

	return users, nil
}
