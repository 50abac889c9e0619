package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wesley950/coisando-coisas/internal/logging"
	"github.com/wesley950/coisando-coisas/internal/server/auth"
	"github.com/wesley950/coisando-coisas/internal/server/identity"
	"github.com/wesley950/coisando-coisas/internal/server/models"
	"github.com/wesley950/coisando-coisas/internal/server/services"
)

type fakeAccounts struct {
	err   error
	token string

	registered []services.RegisterInput
	confirmed  []string
	logins     []string
	loggedOut  []*auth.Claims
	nicknames  []string
	passwords  []string
	reseeded   int
	deleted    []identity.Identity
}

func (f *fakeAccounts) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	f.registered = append(f.registered, in)
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "u-1", Nickname: in.Nickname}, nil
}

func (f *fakeAccounts) Confirm(_ context.Context, code string) (string, error) {
	f.confirmed = append(f.confirmed, code)
	return f.token, f.err
}

func (f *fakeAccounts) Login(_ context.Context, login, _ string) (string, error) {
	f.logins = append(f.logins, login)
	return f.token, f.err
}

func (f *fakeAccounts) Logout(_ context.Context, claims *auth.Claims) {
	f.loggedOut = append(f.loggedOut, claims)
}

func (f *fakeAccounts) ChangeNickname(_ context.Context, _ identity.Identity, nickname string) error {
	f.nicknames = append(f.nicknames, nickname)
	return f.err
}

func (f *fakeAccounts) ChangePassword(_ context.Context, _ identity.Identity, password string) (string, error) {
	f.passwords = append(f.passwords, password)
	return f.token, f.err
}

func (f *fakeAccounts) ReseedAvatar(context.Context, identity.Identity) (string, error) {
	f.reseeded++
	return "seed", f.err
}

func (f *fakeAccounts) DeleteAccount(_ context.Context, ident identity.Identity, _ *auth.Claims) error {
	f.deleted = append(f.deleted, ident)
	return f.err
}

func (f *fakeAccounts) SessionValidity() time.Duration { return time.Hour }

type fakeListings struct {
	err      error
	stored   int
	inputs   []services.SubmitInput
	contents []string

	items         []services.FeedItem
	offset, limit int
}

func (f *fakeListings) Submit(_ context.Context, _ identity.Identity, in services.SubmitInput) (*services.SubmitResult, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	res := &services.SubmitResult{Listing: &models.Listing{ID: "l-1"}}
	for i, file := range in.Files {
		rc, err := file.Open()
		if err == nil {
			b, _ := io.ReadAll(rc)
			_ = rc.Close()
			f.contents = append(f.contents, string(b))
		}
		out := services.AttachmentOutcome{Filename: file.Filename}
		if i >= f.stored {
			out.Err = io.ErrUnexpectedEOF
		}
		res.Attachments = append(res.Attachments, out)
	}
	return res, nil
}

func (f *fakeListings) Recent(_ context.Context, offset, limit int) ([]services.FeedItem, error) {
	f.offset, f.limit = offset, limit
	return f.items, f.err
}

type fakeAttachments struct {
	url string
	err error
}

func (f *fakeAttachments) PresignedURL(context.Context, string) (string, error) {
	return f.url, f.err
}

type session struct {
	ident  identity.Identity
	claims *auth.Claims
}

type fakeSessions map[string]session

func (f fakeSessions) ResolveSession(_ context.Context, token string) (identity.Identity, *auth.Claims) {
	if s, ok := f[token]; ok {
		return s.ident, s.claims
	}
	return identity.Anonymous{}, nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

// --- harness ---

const (
	confirmedToken = "tok-confirmed"
	pendingToken   = "tok-pending"
)

type harness struct {
	accounts    *fakeAccounts
	listings    *fakeListings
	attachments *fakeAttachments
	pinger      *fakePinger
	srv         *Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		accounts:    &fakeAccounts{token: "new-token"},
		listings:    &fakeListings{stored: 100},
		attachments: &fakeAttachments{},
		pinger:      &fakePinger{},
	}
	sessions := fakeSessions{
		confirmedToken: {identity.Authenticated{UserID: "u-1", Nickname: "ana"}, &auth.Claims{UserID: "u-1"}},
		pendingToken:   {identity.Pending{UserID: "u-2"}, &auth.Claims{UserID: "u-2"}},
	}
	h.srv = NewServer("127.0.0.1:0", Deps{
		Accounts:        h.accounts,
		Listings:        h.listings,
		Attachments:     h.attachments,
		Sessions:        sessions,
		DB:              h.pinger,
		Log:             logging.NewNopLogger(),
		MaxRequestBytes: 1 << 20,
	})
	return h
}

func (h *harness) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	return w
}

func (h *harness) postForm(path string, form url.Values, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req, token)
}

func (h *harness) get(path, token string) *httptest.ResponseRecorder {
	return h.do(httptest.NewRequest(http.MethodGet, path, nil), token)
}

// location splits a redirect target into its decoded path and error code.
func location(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	u, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location %q: %v", w.Header().Get("Location"), err)
	}
	return u.Path, u.Query().Get(ErrorParam)
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}
