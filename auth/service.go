package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// SERVICE - Signup and login
// =============================================================================

// Service handles member onboarding and authentication.
type Service struct {
	members MemberStore
	leaves  *leave.Service
	tokens  *TokenIssuer
	log     *logrus.Logger

	now   func() time.Time
	newID func() string
}

// NewService creates the auth service. leaves is used only for the
// best-effort entitlement creation on signup.
func NewService(members MemberStore, leaves *leave.Service, tokens *TokenIssuer, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		members: members,
		leaves:  leaves,
		tokens:  tokens,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Signup registers a member and grants the current year's entitlement.
// The entitlement grant is best-effort: a failure there is logged and
// swallowed, and signup still succeeds. The member can create the
// entitlement explicitly later.
func (s *Service) Signup(ctx context.Context, email, password string) (*Member, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	m := &Member{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.members.InsertMember(ctx, m); err != nil {
		return nil, err
	}

	if _, err := s.leaves.CreateEntitlement(ctx, leave.OwnerID(m.ID), nil); err != nil {
		s.log.WithFields(logrus.Fields{
			"member_id": m.ID,
			"error":     err.Error(),
		}).Error("failed to create entitlement on signup")
	}

	return m, nil
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*Member, string, error) {
	m, err := s.members.GetMemberByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := s.now()
	if err := s.members.UpdateLastLogin(ctx, m.ID, now); err != nil {
		return nil, "", err
	}
	m.LastLoginAt = &now

	token, err := s.tokens.Issue(leave.OwnerID(m.ID))
	if err != nil {
		return nil, "", err
	}
	return m, token, nil
}
