package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	firebase "firebase.google.com/go"
	fbauth "firebase.google.com/go/auth"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/truefans/server/models"
)

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

type passwordVerifier interface {
	VerifyPassword(ctx context.Context, email, password string) (string, error)
}

// Firebase signs users in with the Identity Toolkit password endpoint and
// reads their identity from verified Firebase ID tokens.
type Firebase struct {
	tokens    tokenVerifier
	passwords passwordVerifier
	log       zerolog.Logger
}

// NewFirebase connects to the Firebase project. apiKey is the web API key
// used for password sign-in; opts configure the Admin SDK credentials.
func NewFirebase(ctx context.Context, projectID, apiKey string, log zerolog.Logger, opts ...option.ClientOption) (*Firebase, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("init identity toolkit: %w", err)
	}

	return &Firebase{
		tokens:    client,
		passwords: toolkit{svc: svc},
		log:       log,
	}, nil
}

func (f *Firebase) NewClient() Provider {
	return &FirebaseClient{fb: f}
}

func (f *Firebase) ClientForToken(token string) Provider {
	return &FirebaseClient{fb: f, idToken: token}
}

func (f *Firebase) userFromIDToken(ctx context.Context, idToken string) (*models.User, error) {
	token, err := f.tokens.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	user := UserFromClaims(token.Subject, token.Claims)
	f.log.Debug().Str("uid", user.ID).Str("role", string(user.Role)).Msg("verified ID token")
	return &user, nil
}

// UserFromClaims builds a User from ID token claims. The role custom claim
// is authoritative; tokens without one get a role derived from the is_admin
// and is_musician claims.
func UserFromClaims(uid string, claims map[string]interface{}) models.User {
	user := models.User{
		ID:    uid,
		Email: stringClaim(claims, "email"),
		Role:  models.Role(stringClaim(claims, "role")),
		Metadata: models.UserMetadata{
			Name:       stringClaim(claims, "name"),
			IsMusician: boolClaim(claims, "is_musician"),
			IsAdmin:    boolClaim(claims, "is_admin"),
			MusicianID: stringClaim(claims, "musician_id"),
		},
	}
	if user.Role == "" {
		user.Role = models.RoleFromFlags(user.Metadata)
	}
	return user
}

func stringClaim(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return v
}

func boolClaim(claims map[string]interface{}, key string) bool {
	v, _ := claims[key].(bool)
	return v
}

// FirebaseClient holds one client's ID token.
type FirebaseClient struct {
	fb        *Firebase
	mu        sync.Mutex
	idToken   string
	listeners listeners
}

func (c *FirebaseClient) CurrentSession(ctx context.Context) (*models.User, error) {
	c.mu.Lock()
	idToken := c.idToken
	c.mu.Unlock()
	if idToken == "" {
		return nil, nil
	}
	return c.fb.userFromIDToken(ctx, idToken)
}

func (c *FirebaseClient) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	idToken, err := c.fb.passwords.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	user, err := c.fb.userFromIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.idToken = idToken
	c.mu.Unlock()

	c.listeners.emit(SignedIn, user)
	return user, nil
}

// SignOut revokes the user's refresh tokens so other devices holding them
// are signed out as well.
func (c *FirebaseClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	idToken := c.idToken
	c.idToken = ""
	c.mu.Unlock()

	var err error
	if idToken != "" {
		var token *fbauth.Token
		token, err = c.fb.tokens.VerifyIDToken(ctx, idToken)
		if err == nil {
			err = c.fb.tokens.RevokeRefreshTokens(ctx, token.Subject)
		}
	}

	c.listeners.emit(SignedOut, nil)
	return err
}

func (c *FirebaseClient) OnSessionChanged(fn Listener) Unsubscribe {
	return c.listeners.subscribe(fn)
}

type toolkit struct {
	svc *identitytoolkit.Service
}

func (t toolkit) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	resp, err := t.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return "", passwordError(err)
	}
	return resp.IdToken, nil
}

// passwordError turns the toolkit's rejection of the credentials
// (INVALID_PASSWORD, EMAIL_NOT_FOUND, USER_DISABLED) into
// ErrInvalidCredentials, keeping the toolkit's reason in the message.
// Server side failures are returned as they are.
func passwordError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	if gerr.Code < http.StatusBadRequest || gerr.Code >= http.StatusInternalServerError || gerr.Code == http.StatusTooManyRequests {
		return err
	}
	return fmt.Errorf("%w: %s", ErrInvalidCredentials, gerr.Message)
}
