package models

import "time"

// CertificateInfo resolves a client certificate common name to its owner.
type CertificateInfo struct {
	CommonName     string
	UserID         string
	DisplayName    string
	ValidFrom      time.Time
	ValidTo        time.Time
	UserIsDisabled bool
}
