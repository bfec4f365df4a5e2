package web

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spu-nas/nasweb/database"
	"github.com/spu-nas/nasweb/database/model"
	"github.com/spu-nas/nasweb/util/metrics"
	"github.com/spu-nas/nasweb/web/cache"
	"github.com/spu-nas/nasweb/web/entity"
	"github.com/spu-nas/nasweb/web/service"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	t      *testing.T
	base   string
	client *http.Client
}

func setup(t *testing.T) *testClient {
	t.Helper()
	require.NoError(t, database.InitDB(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, cache.InitRedis(""))
	t.Cleanup(func() {
		_ = cache.Close()
		_ = database.CloseDB()
	})

	h, err := NewServer().handler()
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return newClient(t, srv.URL)
}

func newClient(t *testing.T, base string) *testClient {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{
		t:    t,
		base: base,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *testClient) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(body)
}

func (c *testClient) get(path string) (*http.Response, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

func (c *testClient) post(path string, form url.Values) (*http.Response, string) {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.base+path, strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *testClient) login(email, password string) {
	c.t.Helper()
	resp, _ := c.post("/users/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(c.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(c.t, "/myadmin", resp.Header.Get("Location"))
}

func registerUser(t *testing.T) {
	t.Helper()
	_, err := (&service.AuthService{}).Register(context.Background(), entity.RegisterForm{
		Name: "A", Email: "a@x.com", Password: "abcd", Password2: "abcd",
	})
	require.NoError(t, err)
}

func addSubscriber(t *testing.T) *model.Subscriber {
	t.Helper()
	sub, err := (&service.SubscriberService{}).Submit(context.Background(), entity.SubscriberForm{
		FirstName: "J", LastName: "D", Email: "j@d.com",
	})
	require.NoError(t, err)
	return sub
}

func TestRegisterFlow(t *testing.T) {
	c := setup(t)

	resp, _ := c.post("/users/register", url.Values{
		"name": {"A"}, "email": {"a@x.com"}, "password": {"abcd"}, "password2": {"abcd"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/users/login", resp.Header.Get("Location"))

	var users []model.User
	require.NoError(t, database.GetDB().Where("email = ?", "a@x.com").Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "A", users[0].Name)
	assert.NotEmpty(t, users[0].PasswordHash)
	assert.NotEqual(t, "abcd", users[0].PasswordHash)

	_, body := c.get("/users/login")
	assert.Contains(t, body, "You are now registered and can log in.")

	// the same address cannot register twice
	resp, _ = c.post("/users/register", url.Values{
		"name": {"B"}, "email": {"a@x.com"}, "password": {"wxyz"}, "password2": {"wxyz"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/users/register", resp.Header.Get("Location"))
	_, body = c.get("/users/register")
	assert.Contains(t, body, "Email already registered!")

	var n int64
	require.NoError(t, database.GetDB().Model(&model.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestRegisterValidationRerendersForm(t *testing.T) {
	c := setup(t)

	resp, body := c.post("/users/register", url.Values{
		"name": {"A"}, "email": {"a@x.com"}, "password": {"ab"}, "password2": {"abc"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, strings.Count(body, "data-field="))
	assert.Contains(t, body, "Passwords do not match!")
	assert.Contains(t, body, "Passwords must be at least 4 characters!")
	assert.Contains(t, body, `value="a@x.com"`)

	var n int64
	require.NoError(t, database.GetDB().Model(&model.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestContactSubmit(t *testing.T) {
	c := setup(t)

	resp, _ := c.post("/", url.Values{"firstName": {"J"}, "lastName": {"D"}, "email": {"j@d.com"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/contact", resp.Header.Get("Location"))

	var subs []model.Subscriber
	require.NoError(t, database.GetDB().Find(&subs).Error)
	require.Len(t, subs, 1)
	assert.Equal(t, "J", subs[0].FirstName)
	assert.Equal(t, "D", subs[0].LastName)
	assert.Equal(t, "j@d.com", subs[0].Email)
	assert.False(t, subs[0].SubmittedAt.IsZero())

	// the flash shows once, on the next rendered page only
	_, body := c.get("/contact")
	assert.Contains(t, body, "Form submission successful!")
	_, body = c.get("/contact")
	assert.NotContains(t, body, "Form submission successful!")
}

func TestContactValidationRerendersForm(t *testing.T) {
	c := setup(t)

	resp, body := c.post("/", url.Values{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, strings.Count(body, "data-field="))

	_, body = c.post("/", url.Values{"firstName": {"J"}, "lastName": {"D"}})
	assert.Equal(t, 1, strings.Count(body, "data-field="))
	assert.Contains(t, body, "Please add email")
	assert.Contains(t, body, `value="J"`)
	assert.Contains(t, body, `value="D"`)

	var n int64
	require.NoError(t, database.GetDB().Model(&model.Subscriber{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestGuardBlocksAnonymous(t *testing.T) {
	c := setup(t)
	sub := addSubscriber(t)

	resp, _ := c.get("/myadmin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/users/login", resp.Header.Get("Location"))

	_, body := c.get("/users/login")
	assert.Contains(t, body, "Not Authorized")

	resp, _ = c.post("/myadmin/edit/"+sub.Id, url.Values{
		"_method": {"PUT"}, "firstName": {"X"}, "lastName": {"Y"}, "email": {"x@y.com"},
	})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	resp, _ = c.post("/myadmin/edit/"+sub.Id, url.Values{"_method": {"DELETE"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	got, err := (&service.SubscriberService{}).Get(context.Background(), sub.Id)
	require.NoError(t, err)
	assert.Equal(t, "J", got.FirstName)

	req, err := http.NewRequest(http.MethodGet, c.base+"/myadmin", nil)
	require.NoError(t, err)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	resp, body = c.do(req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, `"success":false`)
}

func TestLoginLogout(t *testing.T) {
	c := setup(t)
	registerUser(t)

	resp, _ := c.post("/users/login", url.Values{"email": {"a@x.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/users/login", resp.Header.Get("Location"))
	_, body := c.get("/users/login")
	assert.Contains(t, body, "Invalid email or password")

	resp, _ = c.get("/myadmin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	c.login("a@x.com", "abcd")
	resp, body = c.get("/myadmin")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `data-user="a@x.com"`)

	resp, _ = c.get("/logout")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/users/login", resp.Header.Get("Location"))
	_, body = c.get("/users/login")
	assert.Contains(t, body, "You are logged out.")

	resp, _ = c.get("/myadmin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	// logging out twice is harmless
	resp, _ = c.get("/logout")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestAdminEditUpdateDelete(t *testing.T) {
	c := setup(t)
	registerUser(t)
	sub := addSubscriber(t)
	c.login("a@x.com", "abcd")

	_, body := c.get("/myadmin")
	assert.Contains(t, body, `data-id="`+sub.Id+`"`)

	resp, body := c.get("/myadmin/edit/" + sub.Id)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="j@d.com"`)

	resp, _ = c.post("/myadmin/edit/"+sub.Id, url.Values{
		"_method": {"PUT"}, "firstName": {"K"}, "lastName": {"L"}, "email": {"k@l.com"},
	})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/myadmin", resp.Header.Get("Location"))

	got, err := (&service.SubscriberService{}).Get(context.Background(), sub.Id)
	require.NoError(t, err)
	assert.Equal(t, "K", got.FirstName)
	assert.Equal(t, "L", got.LastName)
	assert.Equal(t, "k@l.com", got.Email)

	_, body = c.get("/myadmin")
	assert.Contains(t, body, "Subscriber has been updated!")
	assert.Contains(t, body, "k@l.com")

	resp, _ = c.post("/myadmin/edit/"+sub.Id, url.Values{"_method": {"DELETE"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/myadmin", resp.Header.Get("Location"))

	var n int64
	require.NoError(t, database.GetDB().Model(&model.Subscriber{}).Count(&n).Error)
	assert.Zero(t, n)

	_, body = c.get("/myadmin")
	assert.Contains(t, body, "Subscriber removed!")

	resp, _ = c.get("/myadmin/edit/" + sub.Id)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/myadmin", resp.Header.Get("Location"))
	_, body = c.get("/myadmin")
	assert.Contains(t, body, "Subscriber not found")

	resp, _ = c.post("/myadmin/edit/"+sub.Id, url.Values{"_method": {"PUT"}, "firstName": {"Z"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.NoError(t, database.GetDB().Model(&model.Subscriber{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPublicPagesAndRedirects(t *testing.T) {
	c := setup(t)

	for _, path := range []string{"/", "/about", "/departments", "/aps", "/staff", "/students", "/contact", "/users/register"} {
		resp, _ := c.get(path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, _ := c.get("/admin")
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/myadmin", resp.Header.Get("Location"))

	resp, _ = c.get("/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = c.get("/assets/css/style.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionsAreIsolated(t *testing.T) {
	c := setup(t)
	registerUser(t)
	c.login("a@x.com", "abcd")

	other := newClient(t, c.base)
	resp, _ := other.get("/myadmin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp, _ = c.get("/myadmin")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func (c *testClient) sessionCookie() *http.Cookie {
	c.t.Helper()
	u, err := url.Parse(c.base)
	require.NoError(c.t, err)
	for _, ck := range c.client.Jar.Cookies(u) {
		if ck.Name == sessionName {
			return ck
		}
	}
	return nil
}

func TestLoginIssuesNewSession(t *testing.T) {
	c := setup(t)
	registerUser(t)

	// the guard flash gives the anonymous visitor a session
	resp, _ := c.get("/myadmin")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	before := c.sessionCookie()
	require.NotNil(t, before)

	c.login("a@x.com", "abcd")
	after := c.sessionCookie()
	require.NotNil(t, after)
	assert.NotEqual(t, before.Value, after.Value)

	// the flash queued before login moves to the new session
	resp, body := c.get("/myadmin")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Not Authorized")

	other := newClient(t, c.base)
	u, err := url.Parse(c.base)
	require.NoError(t, err)
	other.client.Jar.SetCookies(u, []*http.Cookie{{Name: sessionName, Value: before.Value, Path: "/"}})
	resp, _ = other.get("/myadmin")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/users/login", resp.Header.Get("Location"))
}

func TestPagesFollowLanguageCookie(t *testing.T) {
	c := setup(t)
	u, err := url.Parse(c.base)
	require.NoError(t, err)

	_, body := c.get("/contact")
	assert.Contains(t, body, `<label for="firstName">First Name</label>`)

	c.client.Jar.SetCookies(u, []*http.Cookie{{Name: "lang", Value: "es-ES", Path: "/"}})
	_, body = c.get("/contact")
	assert.Contains(t, body, `<label for="firstName">Nombre</label>`)
	assert.Contains(t, body, "<title>Contacto")
}

func TestAdminLogs(t *testing.T) {
	c := setup(t)
	registerUser(t)

	resp, _ := c.get("/myadmin/logs")
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	c.login("a@x.com", "abcd")
	resp, body := c.get("/myadmin/logs?level=INFO&count=50")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "a@x.com logged in successfully")

	_, body = c.get("/myadmin/logs?level=ERROR")
	assert.NotContains(t, body, "logged in successfully")

	req, err := http.NewRequest(http.MethodGet, c.base+"/myadmin/logs?count=5", nil)
	require.NoError(t, err)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	resp, body = c.do(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"success":true`)
	assert.Contains(t, body, "logged in successfully")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Setenv("NASWEB_METRICS", "true")
	c := setup(t)
	registerUser(t)

	before := testutil.ToFloat64(metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess))
	c.login("a@x.com", "abcd")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess)))

	resp, body := c.get("/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `nasweb_http_requests_total{method="POST",route="/users/login",status="303"}`)
}

func TestMetricsEndpointDisabledByDefault(t *testing.T) {
	c := setup(t)
	resp, _ := c.get("/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
