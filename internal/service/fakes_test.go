package service

import (
	"context"
	"time"

	"vpnserver/internal/models"
	"vpnserver/internal/repository"
)

type fakeUser struct {
	expiresAt   *time.Time
	permissions []string
}

type sentMessage struct {
	userID  string
	kind    models.MessageType
	message string
}

type fakeStore struct {
	users        map[string]fakeUser
	certificates map[string]models.CertificateInfo
	messages     []sentMessage
	connects     []ConnectInput
	disconnects  []DisconnectInput
	open         map[ConnectInput]int

	err error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[string]fakeUser{},
		certificates: map[string]models.CertificateInfo{},
		open:         map[ConnectInput]int{},
	}
}

func (f *fakeStore) SessionExpiresAt(ctx context.Context, userID string) (*time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[userID].expiresAt, nil
}

func (f *fakeStore) PermissionList(ctx context.Context, userID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[userID].permissions, nil
}

func (f *fakeStore) AddUserMessage(ctx context.Context, userID string, messageType models.MessageType, message string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, sentMessage{userID: userID, kind: messageType, message: message})
	return nil
}

func (f *fakeStore) UserCertificateInfo(ctx context.Context, commonName string) (models.CertificateInfo, error) {
	if f.err != nil {
		return models.CertificateInfo{}, f.err
	}
	info, ok := f.certificates[commonName]
	if !ok {
		return models.CertificateInfo{}, repository.ErrCertificateNotFound
	}
	return info, nil
}

func (f *fakeStore) ClientConnect(ctx context.Context, profileID, commonName, ip4, ip6 string, connectedAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	in := ConnectInput{ProfileID: profileID, CommonName: commonName, IP4: ip4, IP6: ip6, ConnectedAt: connectedAt}
	f.connects = append(f.connects, in)
	f.open[in]++
	return nil
}

func (f *fakeStore) ClientDisconnect(ctx context.Context, profileID, commonName, ip4, ip6 string, connectedAt, disconnectedAt time.Time, bytesTransferred int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	key := ConnectInput{ProfileID: profileID, CommonName: commonName, IP4: ip4, IP6: ip6, ConnectedAt: connectedAt}
	f.disconnects = append(f.disconnects, DisconnectInput{
		ProfileID:        profileID,
		CommonName:       commonName,
		IP4:              ip4,
		IP6:              ip6,
		ConnectedAt:      connectedAt,
		DisconnectedAt:   disconnectedAt,
		BytesTransferred: bytesTransferred,
	})
	if f.open[key] == 0 {
		return false, nil
	}
	delete(f.open, key)
	return true, nil
}

func ptr(t time.Time) *time.Time { return &t }
