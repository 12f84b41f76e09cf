package http

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gopherblog/internal/bootstrap"
	"gopherblog/internal/config"
	"gopherblog/internal/model"
)

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Post{}))

	cfg := &config.Config{
		App: config.AppConfig{
			Name:          "gopherblog",
			Env:           "test",
			GinMode:       "release",
			TemplatesGlob: "../../../web/templates/*.html",
		},
		Auth: config.AuthConfig{
			SessionSecret:    "test-secret",
			SessionTTLMinute: 60,
			RememberTTLHour:  24,
		},
	}

	return &bootstrap.App{Config: cfg, DB: db, StartedAt: time.Now()}
}

func newTestServer(t *testing.T) (*httptest.Server, *bootstrap.App) {
	t.Helper()
	app := newTestApp(t)
	server := httptest.NewServer(NewRouter(app))
	t.Cleanup(server.Close)
	return server, app
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// noFollow returns a client sharing the browser's cookie jar that stops at
// the first redirect, so Location headers can be asserted.
func noFollow(browser *http.Client) *http.Client {
	return &http.Client{
		Jar: browser.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func signup(t *testing.T, browser *http.Client, baseURL, username, email, password string) {
	t.Helper()
	resp, err := browser.PostForm(baseURL+"/signup", url.Values{
		"username": {username},
		"email":    {email},
		"password": {password},
		"confirm":  {password},
	})
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Account created. Please log in.")
}

func login(t *testing.T, browser *http.Client, baseURL, identifier, password string) {
	t.Helper()
	resp, err := browser.PostForm(baseURL+"/login", url.Values{
		"identifier": {identifier},
		"password":   {password},
	})
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Logged in successfully.")
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	browser := newBrowser(t)

	resp, err := browser.Get(server.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"status":"ok"`)
}

func TestSignupLoginLogoutFlow(t *testing.T) {
	server, _ := newTestServer(t)
	browser := newBrowser(t)

	signup(t, browser, server.URL, "alice", "a@x.com", "secret1")
	login(t, browser, server.URL, "A@X.COM", "secret1")

	resp, err := browser.Get(server.URL + "/dashboard")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "alice")

	// Logged-in users are bounced away from the login page.
	plain := noFollow(browser)
	resp, err = plain.Get(server.URL + "/login")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, err = browser.Get(server.URL + "/logout")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Logged out.")

	resp, err = plain.Get(server.URL + "/dashboard")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login?next="))
}

func TestSignupDuplicateUsername(t *testing.T) {
	server, _ := newTestServer(t)
	browser := newBrowser(t)

	signup(t, browser, server.URL, "alice", "a@x.com", "secret1")

	resp, err := browser.PostForm(server.URL+"/signup", url.Values{
		"username": {"alice"},
		"email":    {"other@x.com"},
		"password": {"secret1"},
		"confirm":  {"secret1"},
	})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Username already taken.")
	assert.Contains(t, body, "other@x.com", "entered values are preserved")
}

func TestSignupValidation(t *testing.T) {
	server, _ := newTestServer(t)
	browser := newBrowser(t)

	resp, err := browser.PostForm(server.URL+"/signup", url.Values{
		"username": {"alice"},
		"email":    {"a@x.com"},
		"password": {"secret1"},
		"confirm":  {"different"},
	})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Passwords do not match.")

	resp, err = browser.PostForm(server.URL+"/signup", url.Values{
		"username": {"alice"},
		"email":    {"not-an-email"},
		"password": {"secret1"},
		"confirm":  {"secret1"},
	})
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Enter a valid email address.")
}

func TestLoginBadCredentials(t *testing.T) {
	server, _ := newTestServer(t)
	browser := newBrowser(t)

	signup(t, browser, server.URL, "alice", "a@x.com", "secret1")

	resp, err := browser.PostForm(server.URL+"/login", url.Values{
		"identifier": {"alice"},
		"password":   {"wrong"},
	})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Invalid username or password.")
}

func TestAnonymousAddRedirectsAndResumes(t *testing.T) {
	server, _ := newTestServer(t)
	browser := newBrowser(t)
	plain := noFollow(browser)

	signup(t, browser, server.URL, "alice", "a@x.com", "secret1")

	resp, err := plain.Get(server.URL + "/add")
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/login?next=%2Fadd", resp.Header.Get("Location"))

	// Logging in through the remembered next parameter lands back on /add.
	resp, err = browser.PostForm(server.URL+"/login?next=%2Fadd", url.Values{
		"identifier": {"alice"},
		"password":   {"secret1"},
	})
	require.NoError(t, err)
	body := readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "New post")

	resp, err = browser.PostForm(server.URL+"/add", url.Values{
		"title":   {"Resumed"},
		"content": {"made it"},
	})
	require.NoError(t, err)
	body = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Post created.")

	resp, err = browser.Get(server.URL + "/")
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "Resumed")
}

func TestPostCRUDAndSearch(t *testing.T) {
	server, app := newTestServer(t)
	browser := newBrowser(t)

	signup(t, browser, server.URL, "alice", "a@x.com", "secret1")
	login(t, browser, server.URL, "alice", "secret1")

	for _, p := range []struct{ title, content string }{
		{"Go tips", "useful FOO tricks"},
		{"Unrelated", "nothing"},
	} {
		resp, err := browser.PostForm(server.URL+"/add", url.Values{
			"title":   {p.title},
			"content": {p.content},
		})
		require.NoError(t, err)
		readBody(t, resp)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := browser.Get(server.URL + "/?q=foo")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Contains(t, body, "Go tips")
	assert.NotContains(t, body, "Unrelated")

	var post model.Post
	require.NoError(t, app.DB.Where("title = ?", "Go tips").First(&post).Error)
	id := strconv.FormatUint(uint64(post.ID), 10)

	resp, err = browser.Get(server.URL + "/post/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "useful FOO tricks")

	resp, err = browser.PostForm(server.URL+"/edit/"+id, url.Values{
		"title":   {"Go tips v2"},
		"content": {"updated"},
	})
	require.NoError(t, err)
	body = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Post updated.")

	resp, err = browser.PostForm(server.URL+"/delete/"+id, url.Values{})
	require.NoError(t, err)
	body = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Post deleted.")

	resp, err = browser.Get(server.URL + "/post/" + id)
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOwnershipOverHTTP(t *testing.T) {
	server, app := newTestServer(t)

	alice := newBrowser(t)
	signup(t, alice, server.URL, "alice", "a@x.com", "secret1")
	login(t, alice, server.URL, "alice", "secret1")

	resp, err := alice.PostForm(server.URL+"/add", url.Values{
		"title":   {"Alice's post"},
		"content": {"hands off"},
	})
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var post model.Post
	require.NoError(t, app.DB.Where("title = ?", "Alice's post").First(&post).Error)
	id := strconv.FormatUint(uint64(post.ID), 10)

	bob := newBrowser(t)
	signup(t, bob, server.URL, "bob", "b@x.com", "secret1")
	login(t, bob, server.URL, "bob", "secret1")

	resp, err = bob.PostForm(server.URL+"/edit/"+id, url.Values{
		"title":   {"hijacked"},
		"content": {"hijacked"},
	})
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = bob.Get(server.URL + "/edit/" + id)
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = bob.PostForm(server.URL+"/delete/"+id, url.Values{})
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var unchanged model.Post
	require.NoError(t, app.DB.First(&unchanged, post.ID).Error)
	assert.Equal(t, "Alice's post", unchanged.Title)
}

func TestNotFoundPages(t *testing.T) {
	server, _ := newTestServer(t)
	browser := newBrowser(t)

	resp, err := browser.Get(server.URL + "/post/9999")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "404")

	resp, err = browser.Get(server.URL + "/no-such-route")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = browser.Get(server.URL + "/post/not-a-number")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
