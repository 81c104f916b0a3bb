package workflow

import (
	"context"
	"errors"
	"strings"

	"github.com/geoflow/geoflow/internal/audit"
	"github.com/geoflow/geoflow/internal/auth"
	"github.com/geoflow/geoflow/internal/domain"
	"github.com/geoflow/geoflow/internal/metrics"
	"github.com/geoflow/geoflow/internal/repository"
)

// ErrInvalidCredentials is returned by Login for a bad username or password.
// The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid username or password")

const tableUserRoles = "user_roles"

// CreateUser registers a user with the named roles. Admin only.
func (s *Service) CreateUser(ctx context.Context, session auth.Session, name, username, password string, roleNames []string) (domain.User, error) {
	if err := domain.ValidateNewUser(name, username, password); err != nil {
		return domain.User{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	var created domain.User
	err = s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		if err := s.require(ctx, store, session.UserID, auth.IsAdmin()); err != nil {
			return err
		}

		roleIDs := make([]int64, 0, len(roleNames))
		for _, roleName := range roleNames {
			role, err := store.Roles.GetByName(ctx, roleName)
			if err != nil {
				return domain.ValidationFailed{Field: "roles", Reason: "unknown role " + roleName}
			}
			roleIDs = append(roleIDs, role.RoleID)
		}

		created, err = store.Users.Create(ctx, domain.User{
			Name:         name,
			Username:     username,
			PasswordHash: hash,
		}, roleIDs)
		if err != nil {
			return err
		}

		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableUsers,
			RelID:      created.UID,
			Action:     domain.AuditActionInsert,
			NewImage:   userImage(created),
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	metrics.CountMutation(tableUsers, "insert")
	return created, nil
}

// Login verifies the credentials and returns the user with roles.
func (s *Service) Login(ctx context.Context, username, password string) (domain.User, error) {
	user, err := s.store.Users.GetByUsername(ctx, username)
	if err != nil {
		var notFound domain.NotFound
		if errors.As(err, &notFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, uid int64) (domain.User, error) {
	return s.store.Users.GetByID(ctx, uid)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.store.Users.List(ctx)
}

// UpdateUserName renames a user. Users may rename themselves; anyone else
// requires admin.
func (s *Service) UpdateUserName(ctx context.Context, session auth.Session, uid int64, name string) (domain.User, error) {
	if strings.TrimSpace(name) == "" {
		return domain.User{}, domain.ValidationFailed{Field: "name", Reason: "must not be blank"}
	}

	var updated domain.User
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		if uid != session.UserID {
			if err := s.require(ctx, store, session.UserID, auth.IsAdmin()); err != nil {
				return err
			}
		}

		current, err := store.Users.GetByID(ctx, uid)
		if err != nil {
			return err
		}
		if err := store.Users.UpdateName(ctx, uid, name); err != nil {
			return err
		}
		updated, err = store.Users.GetByID(ctx, uid)
		if err != nil {
			return err
		}

		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableUsers,
			RelID:      uid,
			Action:     domain.AuditActionUpdate,
			OldImage:   userImage(current),
			NewImage:   userImage(updated),
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	metrics.CountMutation(tableUsers, "update")
	return updated, nil
}

// UpdateUserPassword rehashes and stores a new password. Users may change
// their own; anyone else requires admin.
func (s *Service) UpdateUserPassword(ctx context.Context, session auth.Session, uid int64, password string) error {
	if password == "" {
		return domain.ValidationFailed{Field: "password", Reason: "must not be empty"}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	err = s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		if uid != session.UserID {
			if err := s.require(ctx, store, session.UserID, auth.IsAdmin()); err != nil {
				return err
			}
		}

		current, err := store.Users.GetByID(ctx, uid)
		if err != nil {
			return err
		}
		if err := store.Users.UpdatePassword(ctx, uid, hash); err != nil {
			return err
		}
		next := current
		next.PasswordHash = hash

		// The password column is excluded from the audit log, so this
		// capture is suppressed unless other columns moved with it.
		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableUsers,
			RelID:      uid,
			Action:     domain.AuditActionUpdate,
			OldImage:   userImage(current),
			NewImage:   userImage(next),
		})
	})
	if err != nil {
		return err
	}
	metrics.CountMutation(tableUsers, "update")
	return nil
}

// AddUserRole grants a role by name. Admin only.
func (s *Service) AddUserRole(ctx context.Context, session auth.Session, uid int64, roleName string) (domain.User, error) {
	var updated domain.User
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		if err := s.require(ctx, store, session.UserID, auth.IsAdmin()); err != nil {
			return err
		}
		role, err := store.Roles.GetByName(ctx, roleName)
		if err != nil {
			return domain.ValidationFailed{Field: "role", Reason: "unknown role " + roleName}
		}
		if err := store.Users.AddRole(ctx, uid, role.RoleID); err != nil {
			return err
		}
		updated, err = store.Users.GetByID(ctx, uid)
		if err != nil {
			return err
		}

		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableUserRoles,
			RelID:      uid,
			Action:     domain.AuditActionInsert,
			NewImage:   domain.RowImage{"uid": uid, "role_id": role.RoleID},
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	metrics.CountMutation(tableUserRoles, "insert")
	return updated, nil
}

// RemoveUserRole revokes a role by name. Admin only.
func (s *Service) RemoveUserRole(ctx context.Context, session auth.Session, uid int64, roleName string) (domain.User, error) {
	var updated domain.User
	err := s.uow.Run(ctx, func(ctx context.Context, store *repository.Store) error {
		if err := s.require(ctx, store, session.UserID, auth.IsAdmin()); err != nil {
			return err
		}
		role, err := store.Roles.GetByName(ctx, roleName)
		if err != nil {
			return domain.ValidationFailed{Field: "role", Reason: "unknown role " + roleName}
		}
		if err := store.Users.RemoveRole(ctx, uid, role.RoleID); err != nil {
			return err
		}
		updated, err = store.Users.GetByID(ctx, uid)
		if err != nil {
			return err
		}

		return s.capture(ctx, store, session, audit.Event{
			SchemaName: schemaName,
			TableName:  tableUserRoles,
			RelID:      uid,
			Action:     domain.AuditActionDelete,
			OldImage:   domain.RowImage{"uid": uid, "role_id": role.RoleID},
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	metrics.CountMutation(tableUserRoles, "delete")
	return updated, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.store.Roles.List(ctx)
}

// ListAuditLog reads the change-capture records of one table. Admin only.
func (s *Service) ListAuditLog(ctx context.Context, session auth.Session, tableName string, limit, offset int) ([]domain.AuditLogEntry, error) {
	if err := s.require(ctx, s.store, session.UserID, auth.IsAdmin()); err != nil {
		return nil, err
	}
	return s.store.AuditLogs.ListByTable(ctx, tableName, limit, offset)
}
