package httpapi

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/plate-reader/internal/detection"
	"github.com/ironsheep/plate-reader/internal/recognition"
	"github.com/ironsheep/plate-reader/internal/service"
	"github.com/ironsheep/plate-reader/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type passEnhancer struct{}

func (passEnhancer) Enhance(img image.Image) image.Image           { return img }
func (passEnhancer) EnhanceAggressive(img image.Image) image.Image { return img }

var (
	plateBox  = []detection.Detection{{Label: recognition.PlateLabel, Confidence: 0.9, X: 100, Y: 50, Width: 60, Height: 20}}
	plateText = "ب أ ١٢"
	charDets  = []detection.Detection{
		{Label: "a", Confidence: 0.9, X: 10, Y: 20, Width: 8, Height: 16},
		{Label: "b", Confidence: 0.9, X: 30, Y: 20, Width: 8, Height: 16},
		{Label: "1", Confidence: 0.9, X: 60, Y: 20, Width: 8, Height: 16},
		{Label: "2", Confidence: 0.9, X: 80, Y: 20, Width: 8, Height: 16},
	}
)

func newTestRouter(t *testing.T, chars []detection.Detection) (*gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	rec := recognition.New(passEnhancer{}, detection.Repeat(plateBox), detection.Repeat(chars), recognition.Options{})
	plates := service.New(rec, storage.NewMemoryStore(), service.Options{
		CaptureDir: dir,
		NewName:    func() string { return "capture.jpg" },
	})
	return NewRouter(plates, Options{CORS: true}), dir
}

func photo(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			v := uint8((x*7 + y*13) % 256)
			img.Set(x, y, color.NRGBA{R: v, G: 255 - v, B: uint8(x), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode photo: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "plate.png")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	part.Write(data)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("body is not JSON: %v\n%s", err, rec.Body.String())
	}
}

func TestPredict(t *testing.T) {
	r, dir := newTestRouter(t, charDets)

	rec := do(r, uploadRequest(t, "/predict", photo(t)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Plate     string `json:"plate"`
		Allowed   bool   `json:"allowed"`
		ImageName string `json:"image_name"`
	}
	decodeBody(t, rec, &got)
	if got.Plate != plateText || !got.Allowed || got.ImageName != "capture.jpg" {
		t.Errorf("unexpected body %+v", got)
	}

	if _, err := os.Stat(filepath.Join(dir, "capture.jpg")); err != nil {
		t.Fatalf("capture missing: %v", err)
	}
	static := do(r, httptest.NewRequest(http.MethodGet, "/static/captures/capture.jpg", nil))
	if static.Code != http.StatusOK {
		t.Errorf("static capture: got %d, want 200", static.Code)
	}
}

func TestPredict_BadUploads(t *testing.T) {
	r, _ := newTestRouter(t, charDets)

	rec := do(r, httptest.NewRequest(http.MethodPost, "/predict", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file: got %d, want 400", rec.Code)
	}

	rec = do(r, uploadRequest(t, "/predict", []byte("not an image")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid image: got %d, want 400", rec.Code)
	}
}

func TestPredictDebug(t *testing.T) {
	r, _ := newTestRouter(t, charDets)

	rec := do(r, uploadRequest(t, "/predict/debug", photo(t)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Regions    []recognition.RegionInfo `json:"regions"`
		Hypotheses []recognition.Hypothesis `json:"hypotheses"`
	}
	decodeBody(t, rec, &got)
	if len(got.Regions) != 1 || len(got.Hypotheses) != 4 {
		t.Errorf("unexpected trace %s", rec.Body.String())
	}
}

func TestBlacklistEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, charDets)

	rec := do(r, uploadRequest(t, "/blacklist/add-by-photo", photo(t)))
	if rec.Code != http.StatusOK {
		t.Fatalf("add-by-photo: got %d: %s", rec.Code, rec.Body.String())
	}
	var byPhoto struct {
		Status string `json:"status"`
		Plate  string `json:"plate"`
	}
	decodeBody(t, rec, &byPhoto)
	if byPhoto.Status != "success" || byPhoto.Plate != plateText {
		t.Errorf("unexpected body %+v", byPhoto)
	}

	rec = do(r, httptest.NewRequest(http.MethodPost, "/blacklist/add?plate="+url.QueryEscape("د ٤"), nil))
	var added struct {
		Status string                 `json:"status"`
		Entry  storage.BlacklistEntry `json:"entry"`
	}
	decodeBody(t, rec, &added)
	if rec.Code != http.StatusOK || added.Status != "added" || added.Entry.PlateText != "د ٤" {
		t.Errorf("add: got %d %+v", rec.Code, added)
	}

	rec = do(r, httptest.NewRequest(http.MethodPost, "/blacklist/add?plate="+url.QueryEscape("د ٤"), nil))
	decodeBody(t, rec, &added)
	if added.Status != "exists" {
		t.Errorf("re-add: got status %q, want exists", added.Status)
	}

	rec = do(r, httptest.NewRequest(http.MethodPost, "/blacklist/add", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("add without plate: got %d, want 400", rec.Code)
	}

	rec = do(r, httptest.NewRequest(http.MethodGet, "/blacklist", nil))
	var list []storage.BlacklistEntry
	decodeBody(t, rec, &list)
	if len(list) != 2 {
		t.Fatalf("list: got %d entries, want 2", len(list))
	}

	rec = do(r, uploadRequest(t, "/predict", photo(t)))
	var pred struct {
		Allowed bool `json:"allowed"`
	}
	decodeBody(t, rec, &pred)
	if pred.Allowed {
		t.Error("blacklisted plate should not be allowed")
	}

	path := "/blacklist/remove/" + jsonNumber(list[0].ID)
	if rec := do(r, httptest.NewRequest(http.MethodDelete, path, nil)); rec.Code != http.StatusOK {
		t.Errorf("remove: got %d", rec.Code)
	}
	if rec := do(r, httptest.NewRequest(http.MethodDelete, path, nil)); rec.Code != http.StatusNotFound {
		t.Errorf("remove twice: got %d, want 404", rec.Code)
	}
	if rec := do(r, httptest.NewRequest(http.MethodDelete, "/blacklist/remove/abc", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("remove bad id: got %d, want 400", rec.Code)
	}
}

func TestAddByPhoto_NoPlate(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := do(r, uploadRequest(t, "/blacklist/add-by-photo", photo(t)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != service.ErrNoPlate.Error() {
		t.Errorf("error: got %q", body["error"])
	}
}

func TestHistory(t *testing.T) {
	r, _ := newTestRouter(t, charDets)

	rec := do(r, httptest.NewRequest(http.MethodGet, "/history", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "[]" {
		t.Errorf("empty history: got %d %s", rec.Code, rec.Body.String())
	}

	do(r, uploadRequest(t, "/predict", photo(t)))

	rec = do(r, httptest.NewRequest(http.MethodGet, "/history", nil))
	var hist []map[string]interface{}
	decodeBody(t, rec, &hist)
	if len(hist) != 1 {
		t.Fatalf("got %d history items, want 1", len(hist))
	}
	// The gate frontend renders item.text and item.is_allowed.
	if hist[0]["text"] != plateText {
		t.Errorf("text: got %v, want %q", hist[0]["text"], plateText)
	}
	if allowed, ok := hist[0]["is_allowed"].(bool); !ok || !allowed {
		t.Errorf("is_allowed: got %v, want true", hist[0]["is_allowed"])
	}
	if hist[0]["image_name"] != "capture.jpg" {
		t.Errorf("image_name: got %v", hist[0]["image_name"])
	}
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, charDets)

	rec := do(r, httptest.NewRequest(http.MethodOptions, "/predict", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight: got %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
