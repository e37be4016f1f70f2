package roles

import (
	"context"

	"gorm.io/gorm"

	"github.com/auroralife/aurora-backend/pkg/db/models"
)

// Directory maps internal role ids to the catalog role codes used when
// pricing order lines.
type Directory struct {
	db *gorm.DB
}

// NewDirectory builds a role directory bound to the provided DB.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) RoleCode(ctx context.Context, roleID int) (string, error) {
	var role models.Role
	if err := d.db.WithContext(ctx).Where("id = ?", roleID).First(&role).Error; err != nil {
		return "", err
	}
	return role.Code, nil
}

func (d *Directory) FindAll(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := d.db.WithContext(ctx).Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
