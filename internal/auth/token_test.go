package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type TokenServiceTestSuite struct {
	suite.Suite
	tokens *TokenService
}

func (s *TokenServiceTestSuite) SetupTest() {
	s.tokens = NewTokenService("test-secret-key", 30*time.Minute)
}

func (s *TokenServiceTestSuite) TestIssueAndValidate() {
	adminID := uuid.New()
	orgID := uuid.New()

	token, err := s.tokens.Issue(adminID, orgID, "acme_corp")
	s.Require().NoError(err)
	s.NotEmpty(token)

	claims, err := s.tokens.Validate(token)
	s.Require().NoError(err)
	s.Equal(adminID.String(), claims.AdminID)
	s.Equal(orgID.String(), claims.OrganizationID)
	s.Equal("acme_corp", claims.OrganizationName)
	s.WithinDuration(time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func (s *TokenServiceTestSuite) TestValidateExpired() {
	expired := NewTokenService("test-secret-key", -time.Minute)

	token, err := expired.Issue(uuid.New(), uuid.New(), "acme_corp")
	s.Require().NoError(err)

	_, err = s.tokens.Validate(token)
	s.ErrorIs(err, ErrTokenExpired)
}

func (s *TokenServiceTestSuite) TestValidateMalformed() {
	_, err := s.tokens.Validate("not-a-token")
	s.ErrorIs(err, ErrTokenMalformed)

	_, err = s.tokens.Validate("")
	s.ErrorIs(err, ErrTokenMalformed)
}

func (s *TokenServiceTestSuite) TestValidateWrongKey() {
	other := NewTokenService("different-secret", 30*time.Minute)

	token, err := other.Issue(uuid.New(), uuid.New(), "acme_corp")
	s.Require().NoError(err)

	_, err = s.tokens.Validate(token)
	s.ErrorIs(err, ErrTokenMalformed)
}

func (s *TokenServiceTestSuite) TestValidateMissingBinding() {
	// A structurally valid token without the admin/org binding is rejected
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret-key"))
	s.Require().NoError(err)

	_, err = s.tokens.Validate(signed)
	s.ErrorIs(err, ErrTokenMalformed)
}

func (s *TokenServiceTestSuite) TestTokenOutlivesNothing() {
	// No revocation list: a token stays valid until natural expiry
	token, err := s.tokens.Issue(uuid.New(), uuid.New(), "deleted_org")
	s.Require().NoError(err)

	claims, err := s.tokens.Validate(token)
	s.Require().NoError(err)
	s.Equal("deleted_org", claims.OrganizationName)
}

func TestTokenServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TokenServiceTestSuite))
}
