package user

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domain "user-api/internal/domain/user"
	pkgerrors "user-api/pkg/errors"
	"user-api/pkg/logger"
	"user-api/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// Repository defines the interface for user data access operations.
// Lookups return domain.ErrNotFound when nothing matches, and Save returns
// domain.ErrEmailTaken when the unique email index rejects a write.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByFullName(ctx context.Context, firstName, lastName string) (*domain.User, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]domain.User, error)
	Save(ctx context.Context, u *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	WithinTransaction(ctx context.Context, readOnly bool, fn func(context.Context, Repository) error) error
}

// UserUsecase implements the business rules for user management.
// Every operation runs inside a single repository transaction.
type UserUsecase struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// New creates a new instance of UserUsecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *UserUsecase {
	return &UserUsecase{repo: r, log: log, validate: validation.New()}
}

// GetUser retrieves a user by ID.
func (uc *UserUsecase) GetUser(ctx context.Context, in GetUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("fetching user", zap.Int64("id", in.ID))

	var out User
	err := uc.repo.WithinTransaction(ctx, true, func(ctx context.Context, repo Repository) error {
		u, err := repo.GetByID(ctx, in.ID)
		if err != nil {
			return lookupError(in.ID, err)
		}
		out = ToDTO(u)
		return nil
	})
	if err != nil {
		return nil, uc.fail(log, "get user failed", err, zap.Int64("id", in.ID))
	}

	return &out, nil
}

// ListUsers retrieves every user. The result is empty, not nil, when there are none.
func (uc *UserUsecase) ListUsers(ctx context.Context) ([]User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("listing users")

	var out []User
	err := uc.repo.WithinTransaction(ctx, true, func(ctx context.Context, repo Repository) error {
		users, err := repo.List(ctx)
		if err != nil {
			return pkgerrors.NewInternalError("failed to list users", err)
		}
		out = ToDTOs(users)
		return nil
	})
	if err != nil {
		return nil, uc.fail(log, "list users failed", err)
	}

	return out, nil
}

// CreateUser creates a new user after validating the request and checking email uniqueness.
func (uc *UserUsecase) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, validationError(err)
	}

	email := *in.Email
	log.Debug("creating user", zap.String("email", email))

	var out User
	err := uc.repo.WithinTransaction(ctx, false, func(ctx context.Context, repo Repository) error {
		exists, err := repo.ExistsByEmail(ctx, email)
		if err != nil {
			return pkgerrors.NewInternalError("failed to validate email uniqueness", err)
		}
		if exists {
			return alreadyExists(email)
		}

		saved, err := repo.Save(ctx, ToEntity(in.UserFields))
		if err != nil {
			return saveError(email, "failed to create user", err)
		}
		out = ToDTO(saved)
		return nil
	})
	if err != nil {
		return nil, uc.fail(log, "create user failed", err, zap.String("email", email))
	}

	log.Info("user created", zap.Int64("id", out.ID))
	return &out, nil
}

// UpdateUser replaces the editable fields of an existing user. The email
// uniqueness check only runs when the email actually changes.
func (uc *UserUsecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*User, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Int64("id", in.ID), zap.Error(err))
		return nil, validationError(err)
	}

	log.Debug("updating user", zap.Int64("id", in.ID))

	var out User
	err := uc.repo.WithinTransaction(ctx, false, func(ctx context.Context, repo Repository) error {
		existing, err := repo.GetByID(ctx, in.ID)
		if err != nil {
			return lookupError(in.ID, err)
		}

		if in.Email != nil && *in.Email != existing.Email {
			taken, err := repo.ExistsByEmail(ctx, *in.Email)
			if err != nil {
				return pkgerrors.NewInternalError("failed to validate email uniqueness", err)
			}
			if taken {
				return alreadyExists(*in.Email)
			}
		}

		ApplyUpdate(in.UserFields, existing)
		saved, err := repo.Save(ctx, existing)
		if err != nil {
			return saveError(existing.Email, "failed to update user", err)
		}
		out = ToDTO(saved)
		return nil
	})
	if err != nil {
		return nil, uc.fail(log, "update user failed", err, zap.Int64("id", in.ID))
	}

	log.Info("user updated", zap.Int64("id", out.ID))
	return &out, nil
}

// DeleteUser hard-deletes an existing user.
func (uc *UserUsecase) DeleteUser(ctx context.Context, in DeleteUserRequest) error {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("deleting user", zap.Int64("id", in.ID))

	err := uc.repo.WithinTransaction(ctx, false, func(ctx context.Context, repo Repository) error {
		exists, err := repo.ExistsByID(ctx, in.ID)
		if err != nil {
			return pkgerrors.NewInternalError("failed to check user existence", err)
		}
		if !exists {
			return notFound(in.ID)
		}

		if err := repo.Delete(ctx, in.ID); err != nil {
			return pkgerrors.NewInternalError("failed to delete user", err)
		}
		return nil
	})
	if err != nil {
		return uc.fail(log, "delete user failed", err, zap.Int64("id", in.ID))
	}

	log.Info("user deleted", zap.Int64("id", in.ID))
	return nil
}

// fail logs err at a level matching its kind and returns it as one of the
// pkg/errors types. Anything untyped, such as a failed commit, becomes an
// InternalError.
func (uc *UserUsecase) fail(log *zap.Logger, msg string, err error, fields ...zap.Field) error {
	var (
		validationErr *pkgerrors.ValidationError
		notFoundErr   *pkgerrors.NotFoundError
		existsErr     *pkgerrors.AlreadyExistsError
		internalErr   *pkgerrors.InternalError
	)

	fields = append(fields, zap.Error(err))
	switch {
	case errors.As(err, &validationErr), errors.As(err, &notFoundErr), errors.As(err, &existsErr):
		log.Warn(msg, fields...)
		return err
	case errors.As(err, &internalErr):
		log.Error(msg, fields...)
		return err
	default:
		log.Error(msg, fields...)
		return pkgerrors.NewInternalError("transaction failed", err)
	}
}

func notFound(id int64) error {
	return pkgerrors.NewNotFoundError("user", fmt.Sprintf("User not found with id: %d", id))
}

func alreadyExists(email string) error {
	return pkgerrors.NewAlreadyExistsError("user", fmt.Sprintf("User already exists with email: %s", email))
}

func lookupError(id int64, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(id)
	}
	return pkgerrors.NewInternalError("failed to get user", err)
}

func saveError(email, msg string, err error) error {
	if errors.Is(err, domain.ErrEmailTaken) {
		return alreadyExists(email)
	}
	return pkgerrors.NewInternalError(msg, err)
}

func validationError(err error) error {
	if fields := validation.Fields(err); fields != nil {
		return pkgerrors.NewValidationError(fields)
	}
	return pkgerrors.NewInternalError("failed to validate request", err)
}
