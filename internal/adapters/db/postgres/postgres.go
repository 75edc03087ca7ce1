package postgres

import (
	"errors"

	authmodel "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
	notesmodel "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/notes/model"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// AutoMigrate creates the schema from the gorm models. Production uses the SQL migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&authmodel.User{},
		&authmodel.Role{},
		&authmodel.RefreshToken{},
		&notesmodel.Note{},
	)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
