// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/dentflow/internal/config"
	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/middleware"
)

const (
	claimTokenVersion = "token_version"
	claimTokenType    = "typ"
	accessTokenType   = "access"
)

// JWTManager signs ES256 access tokens and mints opaque refresh tokens.
// The key id is the RFC 7638 thumbprint of the public key, so every
// replica started from the same PEM files advertises the same kid.
type JWTManager struct {
	signingKey jwk.Key
	verifyKey  jwk.Key
	jwks       jwk.Set
	keyID      string
	config     config.JWTConfig
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	pem, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	signingKey, err := jwk.ParseKey(pem, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	verifyKey, err := signingKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	thumb, err := verifyKey.Thumbprint(crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("key thumbprint: %w", err)
	}
	keyID := base64.RawURLEncoding.EncodeToString(thumb)[:16]

	for _, k := range []jwk.Key{signingKey, verifyKey} {
		if err := k.Set(jwk.KeyIDKey, keyID); err != nil {
			return nil, fmt.Errorf("set key id: %w", err)
		}
		if err := k.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
			return nil, fmt.Errorf("set algorithm: %w", err)
		}
	}
	if err := verifyKey.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("set key usage: %w", err)
	}

	jwks := jwk.NewSet()
	if err := jwks.AddKey(verifyKey); err != nil {
		return nil, fmt.Errorf("build jwks: %w", err)
	}

	return &JWTManager{
		signingKey: signingKey,
		verifyKey:  verifyKey,
		jwks:       jwks,
		keyID:      keyID,
		config:     cfg,
	}, nil
}

// EnsureKeyPair writes a fresh P-256 key pair when the private key file
// does not exist yet. Existing keys are left untouched.
func EnsureKeyPair(privateKeyPath, publicKeyPath string) (created bool, err error) {
	_, err = os.Stat(privateKeyPath)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat private key: %w", err)
	}

	for _, p := range []string{privateKeyPath, publicKeyPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return false, fmt.Errorf("create key dir: %w", err)
		}
	}
	if err := GenerateKeyPair(privateKeyPath, publicKeyPath); err != nil {
		return false, err
	}
	return true, nil
}

func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	private, err := jwk.Import(raw)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}
	public, err := private.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	privatePEM, err := jwk.Pem(private)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}
	publicPEM, err := jwk.Pem(public)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}

	if err := os.WriteFile(privateKeyPath, privatePEM, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	//nolint:gosec // G306: public half
	if err := os.WriteFile(publicKeyPath, publicPEM, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	return nil
}

func (m *JWTManager) KeyID() string {
	return m.keyID
}

func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.config.AccessTokenExpire
}

// CreateAccessToken carries identity only. Tenant and role are resolved per
// request from the membership table so a role change applies immediately.
func (m *JWTManager) CreateAccessToken(userID string, tokenVersion int) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(userID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(m.config.AccessTokenExpire)).
		Claim(claimTokenVersion, tokenVersion).
		Claim(claimTokenType, accessTokenType).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.signingKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}

// ParseAccessToken verifies signature, issuer, audience and time claims.
// Expired tokens wrap core.ErrTokenExpired, every other failure wraps
// core.ErrTokenInvalid.
func (m *JWTManager) ParseAccessToken(
	_ context.Context,
	raw string,
) (*middleware.AccessTokenClaims, error) {
	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.ES256(), m.verifyKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithAcceptableSkew(5*time.Second),
	)
	if err != nil {
		if expired(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	claims, err := accessClaims(token)
	if err != nil {
		return nil, fmt.Errorf("verify token: %s: %w", err, core.ErrTokenInvalid)
	}
	return claims, nil
}

func accessClaims(token jwt.Token) (*middleware.AccessTokenClaims, error) {
	var typ string
	if err := token.Get(claimTokenType, &typ); err != nil || typ != accessTokenType {
		return nil, errors.New("not an access token")
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, errors.New("missing subject")
	}

	// JSON numbers decode as float64.
	var version float64
	if err := token.Get(claimTokenVersion, &version); err != nil {
		return nil, errors.New("missing token version")
	}

	jti, _ := token.JwtID()
	exp, _ := token.Expiration()

	return &middleware.AccessTokenClaims{
		UserID:       subject,
		TokenVersion: int(version),
		JTI:          jti,
		ExpiresAt:    exp,
	}, nil
}

func expired(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "exp") && strings.Contains(msg, "not satisfied")
}

// GetJWKSHandler serves the public key set for services that verify our
// access tokens themselves.
func (m *JWTManager) GetJWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body, err := json.Marshal(m.jwks)
		if err != nil {
			core.InternalServerError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/jwk-set+json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(body) //nolint:errcheck // client gone
	}
}

type RefreshTokenData struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
	FamilyID  string
}

// CreateRefreshToken starts a new family when familyID is empty. Only the
// hash is persisted.
func (m *JWTManager) CreateRefreshToken(familyID string) (*RefreshTokenData, error) {
	token, err := core.NewOpaqueToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if familyID == "" {
		familyID = uuid.New().String()
	}

	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: time.Now().Add(m.config.RefreshTokenExpire),
		FamilyID:  familyID,
	}, nil
}
