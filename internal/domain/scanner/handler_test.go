package scanner_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animal-catalog/internal/adapters/camera/browser"
	"animal-catalog/internal/adapters/qrcode"
	"animal-catalog/internal/domain/scanner"
	"animal-catalog/internal/session"
	"animal-catalog/internal/views"
	"animal-catalog/internal/web"
)

type scanEnv struct {
	srv     *httptest.Server
	client  *http.Client
	devices *browser.Devices
	reg     *scanner.Registry
}

func newScanEnv(t *testing.T) *scanEnv {
	t.Helper()
	return newScanEnvWith(t, scanner.RegistryOptions{})
}

func newScanEnvWith(t *testing.T, ropts scanner.RegistryOptions) *scanEnv {
	t.Helper()

	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	store := session.NewStore(session.StoreOptions{})
	v := views.New(renderer, store, nil)

	devices := browser.NewDevices()
	ropts.Camera = devices.Camera
	ropts.Decoder = qrcode.NewDecoder()
	reg := scanner.NewRegistry(ropts)

	r := chi.NewRouter()
	r.Use(store.Wrap)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := session.WithState(r.Context(), session.State{Status: session.StatusAnonymous})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	scanner.RegisterRoutes(r, scanner.HandlerOptions{Views: v, Registry: reg})
	r.Route("/api", func(ar chi.Router) { scanner.RegisterAPIRoutes(ar) })

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &scanEnv{srv: srv, client: client, devices: devices, reg: reg}
}

var scanIDRe = regexp.MustCompile(`data-scan-id="([^"]+)"`)

func (e *scanEnv) openPage(t *testing.T) string {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + "/qr-scanner")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	m := scanIDRe.FindStringSubmatch(string(body))
	require.Len(t, m, 2)
	assert.Contains(t, string(body), `data-state="requesting-camera"`)
	return m[1]
}

func (e *scanEnv) post(t *testing.T, path, contentType string, body []byte) (int, map[string]any) {
	t.Helper()
	resp, err := e.client.Post(e.srv.URL+path, contentType, bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func qrPNG(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, qrcode.WritePNG(&buf, text, 240))
	return buf.Bytes()
}

func owners(e *scanEnv) int { return e.reg.Len() }

func TestScanner_FrameNavigatesAndReleasesCamera(t *testing.T) {
	e := newScanEnv(t)
	id := e.openPage(t)
	base := "/qr-scanner/" + id

	code, snap := e.post(t, base+"/acquire", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "streaming", snap["state"])
	assert.EqualValues(t, 1, snap["active_tracks"])

	// texto que no es una URL de ficha: sigue escaneando
	code, res := e.post(t, base+"/frames", "image/png", qrPNG(t, "hola"))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "invalid", res["outcome"])
	assert.Equal(t, "streaming", res["state"])
	assert.NotEmpty(t, res["message"])

	code, res = e.post(t, base+"/frames", "image/png", qrPNG(t, "https://zoo.example/animal-details/arara-7"))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "navigate", res["outcome"])
	assert.Equal(t, "/animal-details/arara-7", res["path"])
	assert.Equal(t, "stopped", res["state"])
	assert.EqualValues(t, 0, res["active_tracks"])

	// después de navegar los frames ya no se procesan
	code, _ = e.post(t, base+"/frames", "image/png", qrPNG(t, "https://zoo.example/animal-details/x"))
	assert.Equal(t, http.StatusConflict, code)
}

func TestScanner_SecondScannerForSameBrowserIsBusy(t *testing.T) {
	e := newScanEnv(t)
	first := e.openPage(t)
	second := e.openPage(t)

	_, snap := e.post(t, "/qr-scanner/"+first+"/acquire", "", nil)
	require.Equal(t, "streaming", snap["state"])

	_, snap = e.post(t, "/qr-scanner/"+second+"/acquire", "", nil)
	assert.Equal(t, "device-error", snap["state"])
	assert.Equal(t, true, snap["is_error"])
	assert.NotEmpty(t, snap["error_message"])

	// al desmontar la primera se libera y el retry de la segunda la toma
	code, _ := e.post(t, "/qr-scanner/"+first+"/release", "", nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, snap = e.post(t, "/qr-scanner/"+second+"/retry", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "requesting-camera", snap["state"])

	_, snap = e.post(t, "/qr-scanner/"+second+"/acquire", "", nil)
	assert.Equal(t, "streaming", snap["state"])
	assert.Equal(t, 1, owners(e))
}

func TestScanner_ReloadWithoutReleaseRecoversCamera(t *testing.T) {
	e := newScanEnvWith(t, scanner.RegistryOptions{Heartbeat: 50 * time.Millisecond})

	first := e.openPage(t)
	_, snap := e.post(t, "/qr-scanner/"+first+"/acquire", "", nil)
	require.Equal(t, "streaming", snap["state"])

	// recarga: la página vieja nunca mandó release
	second := e.openPage(t)
	_, snap = e.post(t, "/qr-scanner/"+second+"/acquire", "", nil)
	require.Equal(t, "device-error", snap["state"])

	// la página vieja dejó de mandar frames; el retry recupera la cámara
	time.Sleep(120 * time.Millisecond)
	code, _ := e.post(t, "/qr-scanner/"+second+"/retry", "", nil)
	require.Equal(t, http.StatusOK, code)
	code, snap = e.post(t, "/qr-scanner/"+second+"/acquire", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "streaming", snap["state"])
	assert.EqualValues(t, 1, snap["active_tracks"])

	code, _ = e.post(t, "/qr-scanner/"+first+"/frames", "image/png", qrPNG(t, "x"))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 1, owners(e))
}

func TestScanner_ClientReportedCameraErrors(t *testing.T) {
	e := newScanEnv(t)
	id := e.openPage(t)

	code, snap := e.post(t, "/qr-scanner/"+id+"/fail", "application/json", []byte(`{"name":"NotAllowedError","message":"denied"}`))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "permission-denied", snap["state"])
	assert.Equal(t, "permission-denied", snap["error_kind"])

	// retry sólo desde error; un segundo retry ya no vale
	code, _ = e.post(t, "/qr-scanner/"+id+"/retry", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.post(t, "/qr-scanner/"+id+"/retry", "", nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestScanner_UnknownFlow(t *testing.T) {
	e := newScanEnv(t)
	e.openPage(t)

	code, snap := e.post(t, "/qr-scanner/nope/acquire", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "stopped", snap["state"])
}

func TestScanner_ManualEntry(t *testing.T) {
	e := newScanEnv(t)
	id := e.openPage(t)
	_, snap := e.post(t, "/qr-scanner/"+id+"/acquire", "", nil)
	require.Equal(t, "streaming", snap["state"])

	form := url.Values{"scan": {id}, "id": {" onca 1 "}}
	resp, err := e.client.PostForm(e.srv.URL+"/qr-scanner/manual", form)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/animal-details/onca%201", resp.Header.Get("Location"))
	assert.Equal(t, 0, e.reg.Len())

	resp, err = e.client.PostForm(e.srv.URL+"/qr-scanner/manual", url.Values{"id": {"a/b"}})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "Código inválido")
}

func TestAPI_ResolvePayload(t *testing.T) {
	e := newScanEnv(t)

	code, out := e.post(t, "/api/scan/resolve", "application/json", []byte(`{"payload":"https://h/animal-details/abc"}`))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "abc", out["id"])
	assert.Equal(t, "/animal-details/abc", out["path"])

	code, out = e.post(t, "/api/scan/resolve", "application/json", []byte(`{"payload":"hello"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.True(t, strings.HasPrefix(out["error"].(string), "invalid code"))
}
