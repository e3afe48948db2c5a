package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSessionToken(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresIn time.Duration
		want      bool
	}{
		{"well before expiry", time.Hour, true},
		{"inside the skew window", 10 * time.Second, false},
		{"exactly at the skew boundary", ExpirySkew, false},
		{"just outside the skew", ExpirySkew + time.Second, true},
		{"already expired", -time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Credential{
				Kind:  CredentialSession,
				Token: &SessionToken{Bearer: "tok", ExpiresAt: now.Add(tt.expiresIn)},
			}
			assert.Equal(t, tt.want, IsValid(c, now))
		})
	}
}

func TestIsValidAPIKeyAlwaysValid(t *testing.T) {
	now := time.Now()
	assert.True(t, IsValid(&Credential{Kind: CredentialAPIKey, APIKey: "k"}, now))
	assert.False(t, IsValid(&Credential{Kind: CredentialAPIKey}, now))
}

func TestIsValidNilAndEmpty(t *testing.T) {
	now := time.Now()
	assert.False(t, IsValid(nil, now))
	assert.False(t, IsValid(&Credential{Kind: CredentialSession}, now))
	assert.False(t, IsValid(&Credential{Kind: CredentialSession, Token: &SessionToken{}}, now))
}

func TestPutCredentialReplacesAtomically(t *testing.T) {
	s := newState()
	s.PutCredential("acct", &Credential{Kind: CredentialSession, Token: &SessionToken{Bearer: "old"}})
	s.PutCredential("acct", &Credential{Kind: CredentialSession, Token: &SessionToken{Bearer: "new"}})

	got := s.CredentialFor("acct")
	assert.Equal(t, "new", got.Token.Bearer, "one credential per account, last write wins")
}

func TestInvalidatePreservesAPIKey(t *testing.T) {
	s := newState()
	s.PutCredential("keyed", &Credential{Kind: CredentialAPIKey, APIKey: "k-1"})
	s.PutCredential("sessioned", &Credential{Kind: CredentialSession, Token: &SessionToken{Bearer: "t"}})

	s.InvalidateCredential("keyed")
	s.InvalidateCredential("sessioned")
	s.InvalidateCredential("absent")

	assert.NotNil(t, s.CredentialFor("keyed"), "API keys survive invalidation")
	assert.Nil(t, s.CredentialFor("sessioned"))
}

func TestForgetCredentialRemovesAPIKey(t *testing.T) {
	s := newState()
	s.PutCredential("keyed", &Credential{Kind: CredentialAPIKey, APIKey: "k-1"})

	ForgetCredential(s, "keyed")
	assert.Nil(t, s.CredentialFor("keyed"))
}

func TestCanRefresh(t *testing.T) {
	assert.False(t, canRefresh(nil))
	assert.False(t, canRefresh(&Credential{Kind: CredentialAPIKey, APIKey: "k"}))
	assert.False(t, canRefresh(&Credential{Kind: CredentialSession, Token: &SessionToken{Bearer: "t"}}))
	assert.True(t, canRefresh(&Credential{Kind: CredentialSession, Token: &SessionToken{Bearer: "t", RefreshToken: "r"}}))
}
