package token

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid is the single failure outcome of [Codec.Verify]. Signature
// failure, malformed payload, wrong kind, and expiry all collapse into it;
// the distinction is audit detail, not caller information.
var ErrInvalid = errors.New("invalid signed token")

// Kind selects which of the two token classes a codec operation applies to.
// The two kinds are signed with independent secrets so that compromise of one
// cannot forge the other.
type Kind int

const (
	// KindAccess is the short-lived credential carried on every protected
	// request.
	KindAccess Kind = iota
	// KindRefresh is the long-lived, single-use credential exchanged for a
	// new token triple. Its registration in the session store, not the
	// signature, is the source of truth for consumption and revocation.
	KindRefresh
)

func (k Kind) String() string {
	if k == KindRefresh {
		return "refresh"
	}
	return "access"
}

// Config holds the two signing secrets and lifetimes. Lifetimes are
// configured in seconds at the edge and carried as durations here; cookie
// Max-Age derives from [Codec.Lifetime] in whole seconds.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Claims is the verified payload of a signed token.
type Claims struct {
	SubjectID string
	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string
}

type signedClaims struct {
	jwt.RegisteredClaims
}

// Codec creates and verifies the two classes of signed, time-limited tokens
// (HS256). It is stateless and safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates the configuration and returns a [Codec]. The access and
// refresh secrets must both be set and must differ.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("both signing secrets are required")
	}
	if subtle.ConstantTimeCompare(cfg.AccessSecret, cfg.RefreshSecret) == 1 {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Codec{config: cfg}, nil
}

// Lifetime returns the configured lifetime for a token kind.
func (c *Codec) Lifetime(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.config.RefreshTTL
	}
	return c.config.AccessTTL
}

func (c *Codec) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return c.config.RefreshSecret
	}
	return c.config.AccessSecret
}

// Issue serializes {subject, issuedAt: now, expiresAt: now + lifetime(kind)}
// and signs it with the secret for that kind.
func (c *Codec) Issue(kind Kind, subjectID string, now time.Time) (string, error) {
	if subjectID == "" {
		return "", errors.New("subject id is required")
	}

	claims := signedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.Lifetime(kind))),
			ID:        uuid.NewString(),
		},
	}
	if c.config.Issuer != "" {
		claims.Issuer = c.config.Issuer
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret(kind))
}

// Verify checks signature integrity and now < expiresAt for the given kind.
// Every failure mode reports [ErrInvalid]; the underlying cause is not
// exposed to avoid building a verification oracle.
func (c *Codec) Verify(kind Kind, tokenStr string, now time.Time) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &signedClaims{}, func(t *jwt.Token) (interface{}, error) {
		return c.secret(kind), nil
	})
	if err != nil {
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*signedClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalid
	}

	out := &Claims{
		SubjectID: claims.Subject,
		TokenID:   claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
