package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func signToken(t *testing.T, secret []byte, subject string) string {
	t.Helper()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func invoke(mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, uuid.UUID, bool, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotID uuid.UUID
	var gotOK bool
	err := mw(func(c echo.Context) error {
		gotID, gotOK = ActorFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, gotID, gotOK, err
}

func TestMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, userID.String()))

	_, gotID, gotOK, err := invoke(Middleware(testSecret), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotOK || gotID != userID {
		t.Errorf("expected actor %s, got %s (ok=%v)", userID, gotID, gotOK)
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, _, _, err := invoke(Middleware(testSecret), req)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_WrongSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, []byte("another-secret-another-secret-xx"), uuid.NewString()))
	_, _, _, err := invoke(Middleware(testSecret), req)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddleware_NonUUIDSubject(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "not-a-uuid"))
	_, _, _, err := invoke(Middleware(testSecret), req)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestDevAuthMiddleware(t *testing.T) {
	devID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, gotID, gotOK, err := invoke(DevAuthMiddleware(devID), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotOK || gotID != devID {
		t.Errorf("expected dev actor %s, got %s", devID, gotID)
	}
}

func TestActorFromContext_Empty(t *testing.T) {
	if _, ok := ActorFromContext(context.Background()); ok {
		t.Error("expected no actor in empty context")
	}
}
