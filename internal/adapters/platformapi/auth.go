package platformapi

import (
	"context"
	"net/http"
	"strings"

	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	apperrors "github.com/edukit/admin-dashboard/internal/errors"
	"github.com/edukit/admin-dashboard/internal/ports"
)

// Authenticator signs admins in and out of the platform.
type Authenticator struct {
	factory *Factory
}

var _ ports.Authenticator = (*Authenticator)(nil)

// NewAuthenticator returns an Authenticator backed by f.
func NewAuthenticator(f *Factory) *Authenticator {
	return &Authenticator{factory: f}
}

type identityPayload struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SignIn exchanges credentials for an access token and refresh cookie.
func (a *Authenticator) SignIn(
	ctx context.Context,
	creds domainauth.Credentials,
) (domainauth.Identity, domainauth.Tokens, error) {
	email := strings.TrimSpace(creds.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domainauth.Identity{}, domainauth.Tokens{}, apperrors.ValidationField("email", "a valid email is required")
	}
	if creds.Password == "" {
		return domainauth.Identity{}, domainauth.Tokens{}, apperrors.ValidationField("password", "password is required")
	}

	sess, err := a.factory.NewSession(domainauth.Tokens{})
	if err != nil {
		return domainauth.Identity{}, domainauth.Tokens{}, err
	}
	c := a.factory.NewClient(sess, Hooks{})

	doc, err := c.do(ctx, Request{
		Method:    http.MethodPost,
		Path:      pathSignIn,
		Body:      map[string]string{"email": email, "password": creds.Password},
		NoRefresh: true,
	}, nil)
	if err != nil {
		if apperrors.IsAuth(err) {
			return domainauth.Identity{}, domainauth.Tokens{}, apperrors.Auth("Invalid email or password.")
		}
		return domainauth.Identity{}, domainauth.Tokens{}, err
	}

	token := doc.str(c.mapping.Token)
	if token == "" {
		return domainauth.Identity{}, domainauth.Tokens{}, apperrors.Internal("sign-in response carried no access token")
	}
	sess.SetToken(token)

	var who identityPayload
	if _, err := doc.decode(c.mapping.Identity, &who); err != nil {
		a.factory.logger.WarnContext(ctx, "sign-in identity not decodable", "error", err)
	}
	if who.Email == "" {
		who.Email = email
	}
	id := domainauth.Identity{AdminID: who.ID, Name: who.Name, Email: who.Email}
	return id, sess.Tokens(), nil
}

// SignOut revokes the refresh cookie held in tokens. A 401 is treated as already signed out.
func (a *Authenticator) SignOut(ctx context.Context, tokens domainauth.Tokens) error {
	sess, err := a.factory.NewSession(tokens)
	if err != nil {
		return err
	}
	c := a.factory.NewClient(sess, Hooks{})
	err = c.Do(ctx, Request{Method: http.MethodPost, Path: pathLogout, NoRefresh: true}, nil)
	if apperrors.IsAuth(err) {
		return nil
	}
	return err
}
