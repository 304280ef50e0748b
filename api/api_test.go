package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdwb/yawp/api"
	"github.com/jdwb/yawp/internal/passkeytest"
	"github.com/jdwb/yawp/internal/util"
	"github.com/jdwb/yawp/passkey"
	"github.com/jdwb/yawp/session"
	"github.com/jdwb/yawp/storage/memory"
)

type testServer struct {
	*httptest.Server
	origin      string
	rpID        string
	credentials *memory.CredentialStore
}

// setupServer starts a black-box test server. The relying party is
// derived from the listener address, so a simulated authenticator can
// produce responses the verifier accepts.
func setupServer(t *testing.T) *testServer {
	t.Helper()

	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	origin := u.Scheme + "://" + u.Host
	rpID := u.Hostname()

	credentials := memory.NewCredentialStore()
	notes := memory.NewNoteStore()

	key, err := util.NewAESKey()
	require.NoError(t, err)
	codec, err := session.NewCodec(key, session.DefaultTTL)
	require.NoError(t, err)
	t.Cleanup(codec.Close)

	issuer := passkey.NewIssuer(credentials, rpID, "admin", []byte("00000000-0000-0000-0000-000000000000"))
	verifier := passkey.NewVerifier(credentials, origin, rpID, passkey.DefaultCeremonyTTL)
	manager := session.NewManager(issuer, verifier)

	a := api.New(manager, codec, notes, api.WithSite("yawp test", "Luther Blissett", srv.URL))
	handler = a.Router()

	return &testServer{Server: srv, origin: origin, rpID: rpID, credentials: credentials}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequest(method, url, &reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func startRegistration(t *testing.T, client *http.Client, srv *testServer) passkey.RegistrationOptions {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/register/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[passkey.RegistrationOptions](t, resp)
}

func startLogin(t *testing.T, client *http.Client, srv *testServer) passkey.LoginOptions {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/login/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[passkey.LoginOptions](t, resp)
}

func registrationResponse(t *testing.T, a *passkeytest.Authenticator, srv *testServer, challenge []byte) passkey.RegistrationResponse {
	t.Helper()
	return passkey.RegistrationResponse{
		ClientDataJSON:    passkeytest.ClientData(t, "webauthn.create", challenge, srv.origin),
		AuthenticatorData: a.AttestationData(srv.rpID),
		PublicKey:         a.PublicKeyDER(t),
	}
}

func loginResponse(t *testing.T, a *passkeytest.Authenticator, srv *testServer, challenge []byte) passkey.LoginResponse {
	t.Helper()
	clientData := passkeytest.ClientData(t, "webauthn.get", challenge, srv.origin)
	authData := passkeytest.AssertionData(srv.rpID)
	return passkey.LoginResponse{
		RawID:             a.CredentialID,
		ClientDataJSON:    clientData,
		AuthenticatorData: authData,
		Signature:         a.Sign(t, authData, clientData),
	}
}

// register drives a full registration ceremony for the authenticator.
func register(t *testing.T, client *http.Client, srv *testServer, a *passkeytest.Authenticator) {
	t.Helper()
	options := startRegistration(t, client, srv)
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/register/finish", registrationResponse(t, a, srv, options.Challenge))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

// login drives a full login ceremony for the authenticator.
func login(t *testing.T, client *http.Client, srv *testServer, a *passkeytest.Authenticator) {
	t.Helper()
	options := startLogin(t, client, srv)
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/login/finish", loginResponse(t, a, srv, options.Challenge))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func sessionStatus(t *testing.T, client *http.Client, srv *testServer) bool {
	t.Helper()
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/session", nil)
	return decodeBody[api.SessionResponse](t, resp).Authenticated
}

func TestRegisterThenLogin(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)
	authenticator := passkeytest.New(t)

	register(t, client, srv, authenticator)

	// Registration persists the credential but does not authenticate.
	assert.False(t, sessionStatus(t, client, srv))

	login(t, client, srv, authenticator)
	assert.True(t, sessionStatus(t, client, srv))
}

func TestSecondRegistrationConflicts(t *testing.T) {
	srv := setupServer(t)
	first := passkeytest.New(t)
	register(t, newClient(t), srv, first)

	// A second anonymous client cannot register another credential.
	client := newClient(t)
	intruder := passkeytest.New(t)
	options := startRegistration(t, client, srv)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/register/finish", registrationResponse(t, intruder, srv, options.Challenge))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	n, err := srv.credentials.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// An authenticated admin can add a second credential.
	admin := newClient(t)
	login(t, admin, srv, first)
	register(t, admin, srv, intruder)

	n, err = srv.credentials.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLoginChallengeMismatch(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)
	authenticator := passkeytest.New(t)
	register(t, client, srv, authenticator)

	startLogin(t, client, srv)

	// Answer with a challenge the server never issued.
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/login/finish", loginResponse(t, authenticator, srv, []byte("a challenge of my own choosing!!")))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, sessionStatus(t, client, srv))
}

func TestCeremonyConsumedOnFailure(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)
	authenticator := passkeytest.New(t)
	register(t, client, srv, authenticator)

	options := startLogin(t, client, srv)
	good := loginResponse(t, authenticator, srv, options.Challenge)

	bad := loginResponse(t, authenticator, srv, []byte("a challenge of my own choosing!!"))
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/login/finish", bad)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The once-valid response is now useless: the failed finish
	// consumed the ceremony.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/login/finish", good)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, sessionStatus(t, client, srv))
}

func postRaw(t *testing.T, client *http.Client, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

// A finish call whose body cannot even be decoded still consumes the
// pending ceremony, so the challenge is not replayable afterwards.
func TestMalformedFinishConsumesCeremony(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)
	authenticator := passkeytest.New(t)

	options := startRegistration(t, client, srv)
	goodReg := registrationResponse(t, authenticator, srv, options.Challenge)

	resp := postRaw(t, client, srv.URL+"/register/finish", "{not json")
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/register/finish", goodReg)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	register(t, client, srv, authenticator)

	loginOpts := startLogin(t, client, srv)
	goodLogin := loginResponse(t, authenticator, srv, loginOpts.Challenge)

	resp = postRaw(t, client, srv.URL+"/login/finish", "{not json")
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/login/finish", goodLogin)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, sessionStatus(t, client, srv))
}

func TestFinishWithoutStart(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)
	authenticator := passkeytest.New(t)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/register/finish", registrationResponse(t, authenticator, srv, []byte("whatever")))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// Flipping one bit of the session cookie must demote the session to
// anonymous, never error out or stay authenticated.
func TestTamperedCookieFailsClosed(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)
	authenticator := passkeytest.New(t)
	register(t, client, srv, authenticator)
	login(t, client, srv, authenticator)
	require.True(t, sessionStatus(t, client, srv))

	srvURL, err := url.Parse(srv.URL)
	require.NoError(t, err)
	var sealed string
	for _, c := range client.Jar.Cookies(srvURL) {
		if c.Name == "yawp_session" {
			sealed = c.Value
		}
	}
	require.NotEmpty(t, sealed)

	tampered := []byte(sealed)
	tampered[len(tampered)/2] ^= 0x02

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/session", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "yawp_session", Value: string(tampered)})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	status := decodeBody[api.SessionResponse](t, resp)
	assert.False(t, status.Authenticated)
}

func TestLogout(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)
	authenticator := passkeytest.New(t)
	register(t, client, srv, authenticator)
	login(t, client, srv, authenticator)
	require.True(t, sessionStatus(t, client, srv))

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/logout", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.False(t, sessionStatus(t, client, srv))
}

func TestNotes(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)
	authenticator := passkeytest.New(t)

	// Publishing requires an authenticated session.
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/admin/notes", api.CreateNoteRequest{Body: "# hello"})
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	register(t, client, srv, authenticator)
	login(t, client, srv, authenticator)

	resp = doJSON(t, client, http.MethodPost, srv.URL+"/admin/notes", api.CreateNoteRequest{Body: "# hello\n\nfirst post"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	note := decodeBody[api.NoteResponse](t, resp)
	assert.NotEmpty(t, note.ID)
	assert.Contains(t, note.HTML, "<h1>hello</h1>")

	// Reading is public.
	anon := newClient(t)
	resp = doJSON(t, anon, http.MethodGet, srv.URL+"/notes/"+note.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[api.NoteResponse](t, resp)
	assert.Equal(t, note.Body, got.Body)

	resp = doJSON(t, anon, http.MethodGet, srv.URL+"/notes/nope", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	list := decodeBody[api.NoteListResponse](t, doJSON(t, anon, http.MethodGet, srv.URL+"/notes", nil))
	require.Len(t, list.Notes, 1)

	// Empty bodies are rejected.
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/admin/notes", api.CreateNoteRequest{Body: "   \n"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAtomFeed(t *testing.T) {
	srv := setupServer(t)
	client := newClient(t)
	authenticator := passkeytest.New(t)
	register(t, client, srv, authenticator)
	login(t, client, srv, authenticator)

	resp := doJSON(t, client, http.MethodPost, srv.URL+"/admin/notes", api.CreateNoteRequest{Body: "# feed me\n\nbody text"})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/atom.xml")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/atom+xml", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "feed me"))
	assert.True(t, strings.Contains(string(body), "Luther Blissett"))
}

func TestHealth(t *testing.T) {
	srv := setupServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
