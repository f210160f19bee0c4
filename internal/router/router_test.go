package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animal-catalog/internal/adapters/qrcode"
	mem "animal-catalog/internal/adapters/storage/memory"
	"animal-catalog/internal/domain/account"
	"animal-catalog/internal/domain/animals"
	"animal-catalog/internal/platform/metrics"
	"animal-catalog/internal/platform/token"
	"animal-catalog/internal/ports/auth"
	"animal-catalog/internal/router"
)

const (
	testEmail    = "guarda@pauxi.org"
	testPassword = "mutum123"
	publicBase   = "https://zoo.example"
)

type browserClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newBrowser(t *testing.T, base string) *browserClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browserClient{t: t, base: base, http: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (b *browserClient) do(req *http.Request) (int, http.Header, string) {
	b.t.Helper()
	resp, err := b.http.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp.StatusCode, resp.Header, string(body)
}

func (b *browserClient) get(path string) (int, http.Header, string) {
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browserClient) postForm(path string, form url.Values) (int, http.Header, string) {
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

type formFile struct {
	name string
	data []byte
}

func (b *browserClient) postMultipart(path string, fields map[string]string, fileField, filename string, file []byte) (int, http.Header, string) {
	files := map[string]formFile{}
	if fileField != "" {
		files[fileField] = formFile{name: filename, data: file}
	}
	return b.postMultipartFiles(path, fields, files)
}

func (b *browserClient) postMultipartFiles(path string, fields map[string]string, files map[string]formFile) (int, http.Header, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(b.t, mw.WriteField(k, v))
	}
	for field, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(b.t, err)
		_, err = part.Write(f.data)
		require.NoError(b.t, err)
	}
	require.NoError(b.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, b.base+path, &buf)
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.do(req)
}

func (b *browserClient) login(email, password, next string) (int, http.Header, string) {
	return b.postForm("/login", url.Values{"email": {email}, "password": {password}, "next": {next}})
}

type fixture struct {
	srv      *httptest.Server
	auth     *mem.Auth
	profiles *mem.ProfilesRepo
	user     auth.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	a := mem.NewAuth(token.NewManager("test-secret", time.Hour))
	u, err := a.AddUser(testEmail, testPassword)
	require.NoError(t, err)
	profiles := mem.NewProfilesRepo()

	h, err := router.NewRouter(router.Options{
		Auth:          a,
		Profiles:      profiles,
		Metrics:       metrics.New(),
		PublicBaseURL: publicBase,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, auth: a, profiles: profiles, user: u}
}

func listAPI(t *testing.T, base string) []animals.Animal {
	t.Helper()
	resp, err := http.Get(base + "/api/animais")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []animals.Animal
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHTTP_AnonymousRouting(t *testing.T) {
	f := newFixture(t)
	b := newBrowser(t, f.srv.URL)

	// 1) Rutas protegidas redirigen a login
	for path, want := range map[string]string{
		"/":                   "/login",
		"/account":            "/login?next=%2Faccount",
		"/cadastro-animal":    "/login?next=%2Fcadastro-animal",
		"/editar-animal/abc":  "/login?next=%2Feditar-animal%2Fabc",
		"/ruta-que-no-existe": "/login?next=%2Fruta-que-no-existe",
	} {
		st, h, _ := b.get(path)
		assert.Equal(t, http.StatusSeeOther, st, path)
		assert.Equal(t, want, h.Get("Location"), path)
	}

	// 2) Las públicas se muestran
	st, _, body := b.get("/lista-animais")
	assert.Equal(t, http.StatusOK, st)
	assert.Contains(t, body, "Nenhum animal cadastrado ainda.")

	st, _, body = b.get("/animal-details/nao-existe")
	assert.Equal(t, http.StatusNotFound, st)
	assert.Contains(t, body, "Animal não encontrado.")

	st, _, _ = b.get("/login")
	assert.Equal(t, http.StatusOK, st)

	// 3) Borrar sin sesión tampoco llega al backend
	st, h, _ := b.postForm("/animais/x/excluir", url.Values{"confirm": {"sim"}})
	assert.Equal(t, http.StatusSeeOther, st)
	assert.Equal(t, "/login", h.Get("Location"))
}

func TestHTTP_LoginRejectedKeepsSessionEmpty(t *testing.T) {
	f := newFixture(t)
	b := newBrowser(t, f.srv.URL)

	st, h, body := b.login(testEmail, "errada", "/account")
	assert.Equal(t, http.StatusUnauthorized, st)
	assert.Empty(t, h.Get("Location"))
	assert.Contains(t, body, "email ou senha inválidos")

	st, h, _ = b.get("/")
	assert.Equal(t, http.StatusSeeOther, st)
	assert.Equal(t, "/login", h.Get("Location"))
}

func TestHTTP_EndToEnd_CatalogLifecycle(t *testing.T) {
	f := newFixture(t)
	f.profiles.Put(account.Profile{UserID: f.user.ID, Username: "guarda"})
	b := newBrowser(t, f.srv.URL)

	// 1) Login vuelve a la página pedida
	st, h, _ := b.login(testEmail, testPassword, "/account")
	require.Equal(t, http.StatusSeeOther, st)
	assert.Equal(t, "/account", h.Get("Location"))

	st, _, body := b.get("/account")
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, body, testEmail)
	assert.Contains(t, body, `value="guarda"`)

	// 2) Alta con foto
	var photo bytes.Buffer
	require.NoError(t, qrcode.WritePNG(&photo, "foto", 64))
	st, h, _ = b.postMultipart("/cadastro-animal", map[string]string{
		"nome_comum":      "Mutum-cavalo",
		"nome_cientifico": "Pauxi tuberosa",
		"familia":         "Cracidae",
	}, "imagem", "mutum.png", photo.Bytes())
	require.Equal(t, http.StatusSeeOther, st)
	assert.Equal(t, "/lista-animais", h.Get("Location"))

	st, _, body = b.get("/lista-animais")
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, body, "Animal criado com sucesso!")
	assert.Contains(t, body, "Mutum-cavalo")

	list := listAPI(t, f.srv.URL)
	require.Len(t, list, 1)
	created := list[0]
	require.NotEmpty(t, created.ID)
	require.True(t, strings.HasPrefix(created.ImageURL, publicBase+"/blobs/photos/"), created.ImageURL)

	// la foto quedó servida por el blob store local
	st, h, _ = b.get(strings.TrimPrefix(created.ImageURL, publicBase))
	assert.Equal(t, http.StatusOK, st)
	assert.Equal(t, "image/png", h.Get("Content-Type"))

	// 3) Alta sin nombre: error inline, nada se escribe
	st, _, body = b.postMultipart("/cadastro-animal", map[string]string{"familia": "X"}, "", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, st)
	assert.Contains(t, body, "nome comum é obrigatório")
	assert.Len(t, listAPI(t, f.srv.URL), 1)

	// 4) Ficha y QR
	st, _, body = b.get("/animal-details/" + created.ID)
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, body, "Pauxi tuberosa")

	resp, err := b.http.Get(f.srv.URL + "/animal-details/" + created.ID + "/qr.png")
	require.NoError(t, err)
	img, err := png.Decode(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	text, err := qrcode.NewDecoder().Decode(img)
	require.NoError(t, err)
	assert.Equal(t, publicBase+"/animal-details/"+created.ID, text)

	// 5) Edición sin archivo conserva la foto
	st, _, body = b.get("/editar-animal/" + created.ID)
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, body, `value="Mutum-cavalo"`)

	st, _, _ = b.postForm("/editar-animal/"+created.ID, url.Values{
		"nome_comum": {"Mutum-cavalo"},
		"habitat":    {"Várzea"},
	})
	require.Equal(t, http.StatusSeeOther, st)

	list = listAPI(t, f.srv.URL)
	require.Len(t, list, 1)
	assert.Equal(t, "Várzea", list[0].Habitat)
	assert.Equal(t, created.ImageURL, list[0].ImageURL)
	assert.Empty(t, list[0].ScientificName)

	// 6) Borrar sin confirmar sólo muestra la confirmación
	st, _, body = b.postForm("/animais/"+created.ID+"/excluir", url.Values{"nome": {"Mutum-cavalo"}})
	require.Equal(t, http.StatusOK, st)
	assert.Contains(t, body, "Tem certeza que deseja excluir <strong>Mutum-cavalo</strong>")
	assert.Len(t, listAPI(t, f.srv.URL), 1)

	st, h, _ = b.postForm("/animais/"+created.ID+"/excluir", url.Values{"confirm": {"sim"}})
	require.Equal(t, http.StatusSeeOther, st)
	assert.Equal(t, "/lista-animais", h.Get("Location"))
	assert.Empty(t, listAPI(t, f.srv.URL))

	// 7) Ruta inexistente con sesión: 404
	st, _, body = b.get("/ruta-que-no-existe")
	assert.Equal(t, http.StatusNotFound, st)
	assert.Contains(t, body, "não encontrada")

	// 8) Logout destruye la sesión
	st, h, _ = b.postForm("/logout", nil)
	require.Equal(t, http.StatusSeeOther, st)
	assert.Equal(t, "/login", h.Get("Location"))

	st, h, _ = b.get("/")
	assert.Equal(t, http.StatusSeeOther, st)
	assert.Equal(t, "/login", h.Get("Location"))
}

func TestHTTP_CreateFillsEveryDetailField(t *testing.T) {
	f := newFixture(t)
	b := newBrowser(t, f.srv.URL)

	st, _, _ := b.login(testEmail, testPassword, "")
	require.Equal(t, http.StatusSeeOther, st)

	fields := map[string]string{
		"nome_comum":              "Arara-azul-grande",
		"nome_cientifico":         "Anodorhynchus hyacinthinus",
		"familia":                 "Psittacidae",
		"distribuicao_geografica": "Pantanal e Cerrado do Brasil central",
		"habitat":                 "Palmeirais e matas de galeria",
		"alimentacao":             "Sementes de acuri e bocaiuva",
		"tamanho_aparencia":       "Cerca de 1 m, plumagem azul cobalto",
		"reproducao":              "Ninhos em ocos de manduvi, dois ovos",
		"conservacao":             "Vulnerável",
		"curiosidades":            "Maior psitacídeo do mundo",
	}
	var photo, mapa bytes.Buffer
	require.NoError(t, qrcode.WritePNG(&photo, "foto", 64))
	require.NoError(t, qrcode.WritePNG(&mapa, "mapa", 64))

	st, _, _ = b.postMultipartFiles("/cadastro-animal", fields, map[string]formFile{
		"imagem": {name: "arara.png", data: photo.Bytes()},
		"mapa":   {name: "distribuicao.png", data: mapa.Bytes()},
	})
	require.Equal(t, http.StatusSeeOther, st)

	list := listAPI(t, f.srv.URL)
	require.Len(t, list, 1)
	created := list[0]
	require.True(t, strings.HasPrefix(created.ImageURL, publicBase+"/blobs/photos/"), created.ImageURL)
	require.True(t, strings.HasPrefix(created.MapURL, publicBase+"/blobs/maps/"), created.MapURL)

	st, _, body := b.get("/animal-details/" + created.ID)
	require.Equal(t, http.StatusOK, st)
	for name, value := range fields {
		assert.Contains(t, body, value, name)
	}
	assert.Contains(t, body, `src="`+created.ImageURL+`"`)
	assert.Contains(t, body, `src="`+created.MapURL+`"`)

	for _, u := range []string{created.ImageURL, created.MapURL} {
		st, h, _ := b.get(strings.TrimPrefix(u, publicBase))
		assert.Equal(t, http.StatusOK, st, u)
		assert.Equal(t, "image/png", h.Get("Content-Type"))
	}
}

func TestHTTP_SignOutOfAnotherSessionKeepsBrowserSignedIn(t *testing.T) {
	f := newFixture(t)
	b := newBrowser(t, f.srv.URL)

	_, _, _ = b.login(testEmail, testPassword, "")
	st, _, _ := b.get("/")
	require.Equal(t, http.StatusOK, st)

	// Otro cliente del mismo usuario entra y sale
	sess, err := f.auth.SignInWithPassword(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, f.auth.SignOut(context.Background(), sess))
	st, _, _ = b.get("/")
	assert.Equal(t, http.StatusOK, st)
}

// unreachableAuth acepta el login pero nunca puede validar el token.
type unreachableAuth struct {
	n *auth.Notifier
}

func (a *unreachableAuth) SignInWithPassword(_ context.Context, email, _ string) (auth.Session, error) {
	return auth.Session{
		AccessToken:  "tok",
		RefreshToken: "ref",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         auth.User{ID: "u1", Email: email},
	}, nil
}
func (a *unreachableAuth) SignOut(context.Context, auth.Session) error { return nil }
func (a *unreachableAuth) GetUser(context.Context, string) (auth.User, error) {
	return auth.User{}, auth.ErrUnavailable
}
func (a *unreachableAuth) Refresh(context.Context, string) (auth.Session, error) {
	return auth.Session{}, auth.ErrUnavailable
}
func (a *unreachableAuth) Notifier() *auth.Notifier { return a.n }

func TestHTTP_UnresolvedSessionShowsPlaceholder(t *testing.T) {
	h, err := router.NewRouter(router.Options{Auth: &unreachableAuth{n: auth.NewNotifier()}})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	defer srv.Close()
	b := newBrowser(t, srv.URL)

	st, _, _ := b.login("a@b.c", "x", "")
	require.Equal(t, http.StatusSeeOther, st)

	for _, path := range []string{"/", "/lista-animais", "/qr-scanner", "/nada"} {
		st, hdr, body := b.get(path)
		assert.Equal(t, http.StatusServiceUnavailable, st, path)
		assert.Equal(t, "2", hdr.Get("Retry-After"), path)
		assert.Contains(t, body, "Carregando", path)
	}
}

func TestHTTP_APIAndInfra(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/api/animais", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://other.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `[]`, string(body))

	resp, err = http.Get(f.srv.URL + "/api/animais/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	for _, path := range []string{"/health", "/metrics", "/static/app.css", "/swagger/doc.json"} {
		resp, err := http.Get(f.srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
