package postgres

import (
	"context"
	"errors"
	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRoleRepo struct {
	db *gorm.DB
}

func NewPostgresRoleRepo(db *gorm.DB) *PostgresRoleRepo {
	return &PostgresRoleRepo{db: db}
}

func (p *PostgresRoleRepo) RoleNamesByUserID(ctx context.Context, userID uint64) ([]string, error) {
	var names []string
	err := p.db.WithContext(ctx).
		Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name").
		Pluck("roles.name", &names).Error
	if err != nil {
		return nil, customErrors.WrapInternal(err, "RoleNamesByUserID")
	}
	return names, nil
}

func (p *PostgresRoleRepo) AssignRole(ctx context.Context, userID uint64, name string) error {
	role, err := p.ensureRole(ctx, name)
	if err != nil {
		return customErrors.WrapInternal(err, "AssignRole")
	}

	err = p.db.WithContext(ctx).
		Table("user_roles").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]interface{}{"user_id": userID, "role_id": role.ID}).Error
	if err != nil {
		return customErrors.WrapInternal(err, "AssignRole")
	}
	return nil
}

func (p *PostgresRoleRepo) RemoveRole(ctx context.Context, userID uint64, name string) error {
	err := p.db.WithContext(ctx).Exec(
		"DELETE FROM user_roles WHERE user_id = ? AND role_id IN (SELECT id FROM roles WHERE name = ?)",
		userID, name,
	).Error
	if err != nil {
		return customErrors.WrapInternal(err, "RemoveRole")
	}
	return nil
}

// ensureRole creates the role lazily; a concurrent creator wins the unique index and we reread.
func (p *PostgresRoleRepo) ensureRole(ctx context.Context, name string) (model.Role, error) {
	var role model.Role
	err := p.db.WithContext(ctx).Where("name = ?", name).First(&role).Error
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Role{}, err
	}

	role = model.Role{Name: name}
	if err := p.db.WithContext(ctx).Create(&role).Error; err != nil {
		if !isUniqueViolation(err) {
			return model.Role{}, err
		}
		if err := p.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
			return model.Role{}, err
		}
	}
	return role, nil
}
