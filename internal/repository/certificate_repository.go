package repository

import (
	"context"
	"database/sql"
	"errors"

	"vpnserver/internal/models"
)

var ErrCertificateNotFound = errors.New("certificate not found")

type CertificateRepository struct {
	db DBTX
}

func NewCertificateRepository(db DBTX) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// UserCertificateInfo resolves a common name to the owning user. A
// certificate that no longer exists yields ErrCertificateNotFound, and so
// does a certificate whose user row is gone: the lookup joins users, so
// such a certificate is treated as absent for admission and for the
// user_certificate_info route alike.
func (r *CertificateRepository) UserCertificateInfo(ctx context.Context, commonName string) (models.CertificateInfo, error) {
	const query = `
		SELECT c.common_name, c.user_id, c.display_name, c.valid_from, c.valid_to, u.is_disabled
		FROM certificates c
		JOIN users u ON u.user_id = c.user_id
		WHERE c.common_name = $1
	`

	var info models.CertificateInfo
	err := r.db.QueryRowContext(ctx, query, commonName).Scan(
		&info.CommonName,
		&info.UserID,
		&info.DisplayName,
		&info.ValidFrom,
		&info.ValidTo,
		&info.UserIsDisabled,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CertificateInfo{}, ErrCertificateNotFound
		}
		return models.CertificateInfo{}, err
	}
	return info, nil
}
