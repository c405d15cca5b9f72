package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"vpnserver/internal/config"
	"vpnserver/internal/metrics"
	"vpnserver/internal/models"
	"vpnserver/internal/repository"
)

type CertificateStore interface {
	UserCertificateInfo(ctx context.Context, commonName string) (models.CertificateInfo, error)
}

type ConnectionLog interface {
	ClientConnect(ctx context.Context, profileID, commonName, ip4, ip6 string, connectedAt time.Time) error
	ClientDisconnect(ctx context.Context, profileID, commonName, ip4, ip6 string, connectedAt, disconnectedAt time.Time, bytesTransferred int64) (bool, error)
}

type ConnectInput struct {
	ProfileID   string
	CommonName  string
	IP4         string
	IP6         string
	ConnectedAt time.Time
}

type DisconnectInput struct {
	ProfileID        string
	CommonName       string
	IP4              string
	IP6              string
	ConnectedAt      time.Time
	DisconnectedAt   time.Time
	BytesTransferred int64
}

// ConnectResult carries a rejection message when Accepted is false.
type ConnectResult struct {
	Accepted bool
	Message  string
}

type ConnectionService struct {
	profiles     *config.Profiles
	certificates CertificateStore
	policy       *PolicyEvaluator
	connections  ConnectionLog
	log          zerolog.Logger
}

func NewConnectionService(
	profiles *config.Profiles,
	certificates CertificateStore,
	policy *PolicyEvaluator,
	connections ConnectionLog,
	log zerolog.Logger,
) *ConnectionService {
	return &ConnectionService{
		profiles:     profiles,
		certificates: certificates,
		policy:       policy,
		connections:  connections,
		log:          log,
	}
}

// Connect decides admission for a connect event and, when admitted, appends
// an open accounting row. Duplicate connects are never rejected here.
func (s *ConnectionService) Connect(ctx context.Context, input ConnectInput) (ConnectResult, error) {
	info, err := s.certificates.UserCertificateInfo(ctx, input.CommonName)
	if err != nil {
		if errors.Is(err, repository.ErrCertificateNotFound) {
			metrics.AdmissionDecisionsTotal.WithLabelValues(input.ProfileID, "unknown_certificate").Inc()
			return s.reject(input, fmt.Sprintf(
				"user or certificate does not exist [profile_id: %s, common_name: %s]",
				input.ProfileID, input.CommonName,
			)), nil
		}
		return ConnectResult{}, fmt.Errorf("certificate info: %w", err)
	}

	profile, ok := s.profiles.Get(input.ProfileID)
	if !ok {
		metrics.AdmissionDecisionsTotal.WithLabelValues(input.ProfileID, "unknown_profile").Inc()
		return s.reject(input, fmt.Sprintf("profile does not exist [profile_id: %s]", input.ProfileID)), nil
	}

	decision, err := s.policy.Evaluate(ctx, profile, info.UserID, info.UserIsDisabled)
	if err != nil {
		return ConnectResult{}, err
	}
	if !decision.Allowed {
		metrics.AdmissionDecisionsTotal.WithLabelValues(input.ProfileID, "denied").Inc()
		return s.reject(input, decision.Reason), nil
	}

	if err := s.connections.ClientConnect(ctx, input.ProfileID, input.CommonName, input.IP4, input.IP6, input.ConnectedAt); err != nil {
		return ConnectResult{}, fmt.Errorf("record connect: %w", err)
	}

	metrics.AdmissionDecisionsTotal.WithLabelValues(input.ProfileID, "accepted").Inc()
	s.log.Info().
		Str("profile_id", input.ProfileID).
		Str("common_name", input.CommonName).
		Str("user_id", info.UserID).
		Str("ip4", input.IP4).
		Str("ip6", input.IP6).
		Msg("client connected")

	return ConnectResult{Accepted: true}, nil
}

// Disconnect closes the matching open accounting row. An event that matches
// no open row is accepted as-is.
func (s *ConnectionService) Disconnect(ctx context.Context, input DisconnectInput) error {
	matched, err := s.connections.ClientDisconnect(
		ctx,
		input.ProfileID,
		input.CommonName,
		input.IP4,
		input.IP6,
		input.ConnectedAt,
		input.DisconnectedAt,
		input.BytesTransferred,
	)
	if err != nil {
		return fmt.Errorf("record disconnect: %w", err)
	}

	metrics.DisconnectsTotal.WithLabelValues(input.ProfileID, strconv.FormatBool(matched)).Inc()

	event := s.log.Info()
	if !matched {
		event = s.log.Debug()
	}
	event.
		Str("profile_id", input.ProfileID).
		Str("common_name", input.CommonName).
		Int64("bytes_transferred", input.BytesTransferred).
		Bool("matched", matched).
		Msg("client disconnected")

	return nil
}

func (s *ConnectionService) reject(input ConnectInput, message string) ConnectResult {
	s.log.Warn().
		Str("profile_id", input.ProfileID).
		Str("common_name", input.CommonName).
		Str("reason", message).
		Msg("connect rejected")
	return ConnectResult{Accepted: false, Message: message}
}
