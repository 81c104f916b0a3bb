package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/geoflow/geoflow/internal/domain"
)

// userRepository implements UserRepository over pgx.
type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user domain.User, roleIDs []int64) (domain.User, error) {
	var uid int64
	err := r.db.QueryRow(
		ctx,
		`INSERT INTO geoflow.users (name, username, password)
		 VALUES ($1, $2, $3)
		 RETURNING uid`,
		user.Name,
		user.Username,
		user.PasswordHash,
	).Scan(&uid)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to create user: %w", translateError(err))
	}

	for _, roleID := range roleIDs {
		if _, err := r.db.Exec(
			ctx,
			`INSERT INTO geoflow.user_roles (uid, role_id) VALUES ($1, $2)`,
			uid,
			roleID,
		); err != nil {
			return domain.User{}, fmt.Errorf("failed to assign role %d: %w", roleID, translateError(err))
		}
	}

	return r.GetByID(ctx, uid)
}

func (r *userRepository) GetByID(ctx context.Context, uid int64) (domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(
		ctx,
		`SELECT uid, name, username, password FROM geoflow.users WHERE uid = $1`,
		uid,
	).Scan(&user.UID, &user.Name, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.NotFound{Kind: "user", ID: uid}
		}
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	roles, err := r.GetRoles(ctx, uid)
	if err != nil {
		return domain.User{}, err
	}
	user.Roles = roles
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var user domain.User
	err := r.db.QueryRow(
		ctx,
		`SELECT uid, name, username, password FROM geoflow.users WHERE username = $1`,
		username,
	).Scan(&user.UID, &user.Name, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.NotFound{Kind: "user", ID: 0}
		}
		return domain.User{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	roles, err := r.GetRoles(ctx, user.UID)
	if err != nil {
		return domain.User{}, err
	}
	user.Roles = roles
	return user, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT u.uid, u.name, u.username,
		        COALESCE(jsonb_agg(jsonb_build_object(
		            'role_id', ro.role_id, 'name', ro.name, 'description', ro.description
		        ) ORDER BY ro.role_id) FILTER (WHERE ro.role_id IS NOT NULL), '[]'::jsonb)
		 FROM   geoflow.users u
		 LEFT JOIN geoflow.user_roles ur ON ur.uid = u.uid
		 LEFT JOIN geoflow.roles ro ON ro.role_id = ur.role_id
		 GROUP BY u.uid, u.name, u.username
		 ORDER BY u.uid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var (
			user  domain.User
			roles []domain.Role
		)
		if err := rows.Scan(&user.UID, &user.Name, &user.Username, &roles); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.Roles = roles
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateName(ctx context.Context, uid int64, name string) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE geoflow.users SET name = $2 WHERE uid = $1`,
		uid,
		name,
	)
	if err != nil {
		return fmt.Errorf("failed to update user name: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound{Kind: "user", ID: uid}
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, uid int64, passwordHash string) error {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE geoflow.users SET password = $2 WHERE uid = $1`,
		uid,
		passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update user password: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound{Kind: "user", ID: uid}
	}
	return nil
}

func (r *userRepository) AddRole(ctx context.Context, uid, roleID int64) error {
	if _, err := r.db.Exec(
		ctx,
		`INSERT INTO geoflow.user_roles (uid, role_id) VALUES ($1, $2)`,
		uid,
		roleID,
	); err != nil {
		return fmt.Errorf("failed to add role: %w", translateError(err))
	}
	return nil
}

func (r *userRepository) RemoveRole(ctx context.Context, uid, roleID int64) error {
	if _, err := r.db.Exec(
		ctx,
		`DELETE FROM geoflow.user_roles WHERE uid = $1 AND role_id = $2`,
		uid,
		roleID,
	); err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	return nil
}

func (r *userRepository) GetRoles(ctx context.Context, uid int64) ([]domain.Role, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT ro.role_id, ro.name, ro.description
		 FROM   geoflow.user_roles ur
		 JOIN   geoflow.roles ro ON ro.role_id = ur.role_id
		 WHERE  ur.uid = $1
		 ORDER BY ro.role_id`,
		uid,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles for user %d: %w", uid, err)
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.RoleID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}
	return roles, nil
}
