package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/openai-api-blueprint/blueprint/pkg/logger"
	"github.com/rs/zerolog"
)

// Token is a bearer credential that passed every check of the Gate
type Token string

// Gate validates Authorization header values against a fixed allow-list.
// The allow-list is copied at construction and never changes.
type Gate struct {
	tokens    [][]byte
	minLength int
	strict    bool
}

func NewGate(tokens []string, minLength int, strict bool) *Gate {
	allowed := make([][]byte, 0, len(tokens))
	for _, t := range tokens {
		allowed = append(allowed, []byte(t))
	}

	return &Gate{
		tokens:    allowed,
		minLength: minLength,
		strict:    strict,
	}
}

// Authenticate parses a raw Authorization header value. A nil error means the
// token is in the allow-list; otherwise the error is a *RejectionError.
func (g *Gate) Authenticate(header string) (Token, error) {
	return g.AuthenticateWithLogger(header, logger.For(logger.AUTH))
}

// AuthenticateWithLogger is Authenticate with a request scoped logger, so
// rejections carry the caller's attributes. The token never reaches the log.
func (g *Gate) AuthenticateWithLogger(header string, l zerolog.Logger) (Token, error) {
	if strings.TrimSpace(header) == "" {
		l.Warn().Str("code", CodeMissingAPIKey).Msg("Missing API key")
		return "", reject(CodeMissingAPIKey)
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		l.Warn().Str("code", CodeInvalidAuthFormat).Msg("Invalid authorization header format")
		return "", reject(CodeInvalidAuthFormat)
	}

	token := parts[1]
	if !validCharset(token) {
		l.Warn().Str("code", CodeInvalidKeyFormat).Msg("API key contains disallowed characters")
		return "", reject(CodeInvalidKeyFormat)
	}

	if len(token) < g.minLength {
		if g.strict {
			l.Warn().
				Str("code", CodeInvalidKeyLength).
				Int("length", len(token)).
				Msg("API key below minimum length")
			return "", reject(CodeInvalidKeyLength)
		}
		l.Warn().
			Int("length", len(token)).
			Int("min_length", g.minLength).
			Msg("API key below minimum length. This would be rejected in production")
	}

	if !g.allowed([]byte(token)) {
		l.Warn().Str("code", CodeInvalidKey).Msg("Invalid API key provided")
		return "", reject(CodeInvalidKey)
	}

	l.Debug().Msg("Valid API key provided")
	return Token(token), nil
}

// allowed compares against every entry so timing does not depend on the
// position of a match
func (g *Gate) allowed(token []byte) bool {
	found := 0
	for _, t := range g.tokens {
		found |= subtle.ConstantTimeCompare(token, t)
	}
	return found == 1
}

func validCharset(token string) bool {
	for _, c := range token {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '-', c == '.':
		default:
			return false
		}
	}
	return true
}
