package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vpnserver/internal/config"
	"vpnserver/internal/models"
)

// Clock supplies the evaluation time.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type SessionStore interface {
	SessionExpiresAt(ctx context.Context, userID string) (*time.Time, error)
	PermissionList(ctx context.Context, userID string) ([]string, error)
}

type UserMessageWriter interface {
	AddUserMessage(ctx context.Context, userID string, messageType models.MessageType, message string) error
}

// Decision is the outcome of a successful policy evaluation. A denial is a
// normal result, not an error.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

type PolicyEvaluator struct {
	sessions SessionStore
	messages UserMessageWriter
	clock    Clock
}

func NewPolicyEvaluator(sessions SessionStore, messages UserMessageWriter, clock Clock) *PolicyEvaluator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &PolicyEvaluator{
		sessions: sessions,
		messages: messages,
		clock:    clock,
	}
}

// Evaluate checks session expiry, then the disabled flag, then the profile
// ACL. The first failing check decides and is recorded as a user
// notification.
func (e *PolicyEvaluator) Evaluate(ctx context.Context, profile config.ProfileConfig, userID string, isDisabled bool) (Decision, error) {
	expiresAt, err := e.sessions.SessionExpiresAt(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("session expiry: %w", err)
	}

	now := e.clock.Now()
	if expiresAt == nil {
		return e.deny(ctx, userID, "[VPN] the certificate is still valid, but the session expired (no session recorded)")
	}
	if expiresAt.Before(now) {
		return e.deny(ctx, userID, fmt.Sprintf(
			"[VPN] the certificate is still valid, but the session expired at %s",
			expiresAt.Format(time.RFC3339),
		))
	}

	if isDisabled {
		return e.deny(ctx, userID, "[VPN] unable to connect, account is disabled")
	}

	if !profile.EnableACL {
		return allow(), nil
	}

	permissions, err := e.sessions.PermissionList(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("permission list: %w", err)
	}
	if !hasPermission(permissions, profile.ACLPermissionList) {
		return e.deny(ctx, userID, fmt.Sprintf(
			"[VPN] unable to connect, user permissions are [%s], but requires any of [%s]",
			strings.Join(permissions, ","),
			strings.Join(profile.ACLPermissionList, ","),
		))
	}

	return allow(), nil
}

func (e *PolicyEvaluator) deny(ctx context.Context, userID string, reason string) (Decision, error) {
	if err := e.messages.AddUserMessage(ctx, userID, models.MessageTypeNotification, reason); err != nil {
		return Decision{}, fmt.Errorf("add user message: %w", err)
	}
	return Decision{Allowed: false, Reason: reason}, nil
}

func hasPermission(userPermissions []string, aclPermissions []string) bool {
	acl := make(map[string]struct{}, len(aclPermissions))
	for _, p := range aclPermissions {
		acl[p] = struct{}{}
	}
	for _, p := range userPermissions {
		if _, ok := acl[p]; ok {
			return true
		}
	}
	return false
}
