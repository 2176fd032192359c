// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/mail"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	// CreatePending stores an identity without credentials. It returns
	// core.ErrAlreadyRegistered when the email is taken.
	CreatePending(ctx context.Context, email string) (*UserInfo, error)
	SetCredentials(ctx context.Context, userID, passwordHash, name string) error
	HardDelete(ctx context.Context, userID string) error
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// AccountProvisioner creates the tenant side of a signup and looks
// organizations up for session introspection.
type AccountProvisioner interface {
	ProvisionAccount(
		ctx context.Context,
		ownerID, clinicName, taxID string,
	) (*Organization, error)
	GetOrganization(ctx context.Context, id string) (*Organization, error)
}

type ServiceConfig struct {
	InviteTTL       time.Duration
	InviteAcceptURL string
	Hasher          *core.PasswordHasher
}

type Service struct {
	repo         Repository
	jwt          *JWTManager
	userProvider UserProvider
	provisioner  AccountProvisioner
	tokens       TokenStore
	mailer       mail.Sender
	config       ServiceConfig
	logger       *slog.Logger
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	userProvider UserProvider,
	provisioner AccountProvisioner,
	tokens TokenStore,
	mailer mail.Sender,
	cfg ServiceConfig,
	logger *slog.Logger,
) *Service {
	if cfg.InviteTTL <= 0 {
		cfg.InviteTTL = 7 * 24 * time.Hour
	}
	if cfg.Hasher == nil {
		cfg.Hasher = core.NewPasswordHasher(core.DefaultArgon2)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:         repo,
		jwt:          jwt,
		userProvider: userProvider,
		provisioner:  provisioner,
		tokens:       tokens,
		mailer:       mailer,
		config:       cfg,
		logger:       logger,
	}
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	user, err := s.userProvider.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // decoy derivation only
			_, _, _ = s.config.Hasher.Check(req.Password, "")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := s.config.Hasher.Check(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.userProvider.UpdatePassword(ctx, user.ID, newHash)
	}

	return s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
}

// Signup runs as a saga: the identity is created first and hard-deleted
// again when the organization transaction fails.
func (s *Service) Signup(
	ctx context.Context,
	req SignupRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	passwordHash, err := s.config.Hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(ctx, req.Email, passwordHash, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) ||
			errors.Is(err, core.ErrAlreadyRegistered) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	org, err := s.provisioner.ProvisionAccount(
		ctx,
		user.ID,
		strings.TrimSpace(req.ClinicName),
		strings.TrimSpace(req.TaxID),
	)
	if err != nil {
		if delErr := s.userProvider.HardDelete(context.WithoutCancel(ctx), user.ID); delErr != nil {
			s.logger.Error("signup compensation failed",
				"user_id", user.ID,
				"error", delErr,
			)
		}
		return nil, fmt.Errorf("provision organization: %w", err)
	}

	resp, err := s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
	if err != nil {
		return nil, err
	}

	orgResp := toOrganizationResponse(org)
	resp.Organization = &orgResp

	s.logger.Info("organization provisioned",
		"organization_id", org.ID,
		"owner_id", user.ID,
	)

	return resp, nil
}

// InviteIdentity creates a credential-less identity for email and mails it
// a one-time acceptance link. orgName only decorates the message.
func (s *Service) InviteIdentity(
	ctx context.Context,
	email, orgName string,
) (string, error) {
	user, err := s.userProvider.CreatePending(ctx, email)
	if err != nil {
		return "", err
	}

	if err := s.sendInvite(ctx, user, orgName); err != nil {
		return "", err
	}
	return user.ID, nil
}

// ReissueInvite mails a fresh acceptance link to an identity that never
// set a password. Earlier links stay valid until they expire or one of
// them is accepted. Active identities get core.ErrAlreadyRegistered.
func (s *Service) ReissueInvite(ctx context.Context, userID, orgName string) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user.HasPassword() {
		return fmt.Errorf("reissue invite: %w", core.ErrAlreadyRegistered)
	}
	return s.sendInvite(ctx, user, orgName)
}

func (s *Service) sendInvite(ctx context.Context, user *UserInfo, orgName string) error {
	token, err := core.NewOpaqueToken(32)
	if err != nil {
		return fmt.Errorf("generate invite token: %w", err)
	}

	if err := s.tokens.SaveInvite(ctx, core.HashToken(token), user.ID, s.config.InviteTTL); err != nil {
		return err
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: "You have been invited to " + orgName,
		Body: fmt.Sprintf(
			"You were invited to join %s on dentflow.\n\nAccept the invitation: %s\n\nThis link expires in %s.\n",
			orgName,
			s.acceptURL(token),
			s.config.InviteTTL.String(),
		),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("invite mail failed",
			"user_id", user.ID,
			"error", err,
		)
	}
	return nil
}

// FindIdentityByEmail reports pending for identities still waiting on
// their first /auth/callback.
func (s *Service) FindIdentityByEmail(
	ctx context.Context,
	email string,
) (string, bool, error) {
	user, err := s.userProvider.GetByEmail(ctx, email)
	if err != nil {
		return "", false, err
	}
	return user.ID, !user.HasPassword(), nil
}

func (s *Service) acceptURL(token string) string {
	sep := "?"
	if strings.Contains(s.config.InviteAcceptURL, "?") {
		sep = "&"
	}
	return s.config.InviteAcceptURL + sep + "token=" + url.QueryEscape(token)
}

func (s *Service) AcceptInvite(
	ctx context.Context,
	req AcceptInviteRequest,
	userAgent, ipAddress string,
) (*AuthResponse, error) {
	userID, err := s.tokens.ConsumeInvite(ctx, core.HashToken(req.Token))
	if err != nil {
		return nil, err
	}

	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.HasPassword() {
		return nil, fmt.Errorf("accept invite: already accepted: %w", core.ErrTokenInvalid)
	}

	passwordHash, err := s.config.Hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = user.Name
	}

	if err := s.userProvider.SetCredentials(ctx, user.ID, passwordHash, name); err != nil {
		return nil, fmt.Errorf("set credentials: %w", err)
	}

	user.Name = name
	user.PasswordHash = passwordHash

	return s.createAuthResponse(ctx, user, userAgent, ipAddress, "", nil)
}

func (s *Service) Refresh(
	ctx context.Context,
	refreshToken, userAgent, ipAddress string,
) (*AuthResponse, error) {
	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	switch storedToken.State(time.Now()) {
	case TokenUsed:
		if revokeErr := s.repo.RevokeByFamilyID(ctx, storedToken.FamilyID); revokeErr != nil {
			s.logger.Error("revoke token family failed",
				"family_id", storedToken.FamilyID,
				"error", revokeErr,
			)
		}
		s.logger.Warn("refresh token reuse detected",
			"user_id", storedToken.UserID,
			"family_id", storedToken.FamilyID,
		)
		return nil, ErrTokenReuse
	case TokenRevoked:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	case TokenExpired:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.userProvider.GetByID(ctx, storedToken.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return s.createAuthResponse(
		ctx,
		user,
		userAgent,
		ipAddress,
		storedToken.FamilyID,
		&storedToken.ID,
	)
}

// Logout revokes the refresh token and blacklists the access token that
// made the request for the rest of its lifetime.
func (s *Service) Logout(
	ctx context.Context,
	refreshToken string,
	claims *middleware.AccessTokenClaims,
) error {
	if claims != nil && claims.JTI != "" {
		if err := s.tokens.Blacklist(ctx, claims.JTI, time.Until(claims.ExpiresAt)); err != nil {
			s.logger.Warn("blacklist access token failed", "error", err)
		}
	}

	if refreshToken == "" {
		return nil
	}

	storedToken, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find token: %w", err)
	}

	if claims == nil || storedToken.UserID != claims.UserID {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, storedToken.ID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

// VerifyAccessToken layers revocation on top of signature checks: a
// blacklisted jti or a stale token version is rejected.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.ParseAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if claims.JTI != "" {
		revoked, err := s.tokens.IsBlacklisted(ctx, claims.JTI)
		if err != nil {
			s.logger.Warn("blacklist lookup failed", "error", err)
		} else if revoked {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
		}
	}

	user, err := s.userProvider.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (s *Service) GetActiveSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if !user.HasPassword() {
		return ErrInvalidCredentials
	}

	valid, _, err := s.config.Hasher.Check(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := s.config.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

// CurrentSession describes the caller and the membership resolved for the
// request.
func (s *Service) CurrentSession(
	ctx context.Context,
	session *middleware.Session,
) (*SessionResponse, error) {
	user, err := s.userProvider.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	org, err := s.provisioner.GetOrganization(ctx, session.TenantID)
	if err != nil {
		return nil, err
	}

	return &SessionResponse{
		User:         toUserResponse(user),
		Organization: toOrganizationResponse(org),
		Role:         session.Role,
	}, nil
}

// SweepExpired deletes refresh tokens that expired more than a day ago,
// every interval until ctx is done.
func (s *Service) SweepExpired(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.repo.DeleteExpired(ctx, time.Now().Add(-24*time.Hour))
			if err != nil {
				s.logger.Warn("refresh token sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				s.logger.Info("refresh tokens swept", "deleted", deleted)
			}
		}
	}
}

func (s *Service) createAuthResponse(
	ctx context.Context,
	user *UserInfo,
	userAgent, ipAddress, familyID string,
	oldTokenID *string,
) (*AuthResponse, error) {
	accessToken, err := s.jwt.CreateAccessToken(user.ID, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refreshData, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	newTokenID := uuid.New().String()

	if err := s.repo.Create(ctx, &RefreshToken{
		ID:        newTokenID,
		UserID:    user.ID,
		TokenHash: refreshData.Hash,
		FamilyID:  refreshData.FamilyID,
		ExpiresAt: refreshData.ExpiresAt,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if oldTokenID != nil {
		if err := s.repo.MarkAsUsed(ctx, *oldTokenID, newTokenID); err != nil {
			s.logger.Warn("mark refresh token used failed",
				"token_id", *oldTokenID,
				"error", err,
			)
		}
	}

	ttl := s.jwt.AccessTokenTTL()

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshData.Token,
			TokenType:    "Bearer",
			ExpiresIn:    int(ttl / time.Second),
			ExpiresAt:    time.Now().Add(ttl),
		},
	}, nil
}
