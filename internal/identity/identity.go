// Package identity verifies ID tokens issued by the external identity provider
package identity

import (
	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
)

// ErrInvalidToken is returned for tokens that fail verification
var ErrInvalidToken = errors.New("invalid ID token")

// Claims are the facts about a user the identity provider vouches for
type Claims struct {
	Subject string
	Email   string
	Name    string
}

// Verifier checks an ID token and returns its claims
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Claims, error)
}

// GoogleVerifier verifies Google ID tokens issued for one OAuth client
type GoogleVerifier struct {
	clientID string
	v        googleAuthIDTokenVerifier.Verifier
}

// NewGoogleVerifier creates a verifier accepting tokens issued for clientID
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

// Verify checks signature, audience and expiry of the token and decodes its claims
func (g *GoogleVerifier) Verify(_ context.Context, idToken string) (*Claims, error) {
	if err := g.v.VerifyIDToken(idToken, []string{g.clientID}); err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if claimSet.Email == "" {
		return nil, errors.Wrap(ErrInvalidToken, "token carries no e-mail address")
	}
	return &Claims{
		Subject: claimSet.Sub,
		Email:   claimSet.Email,
		Name:    claimSet.Name,
	}, nil
}
