package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/abdulhamidalthaljy/CareConnect/internal/app"
	"github.com/abdulhamidalthaljy/CareConnect/internal/config"
	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository/memory"
	"github.com/abdulhamidalthaljy/CareConnect/internal/session"
	"github.com/abdulhamidalthaljy/CareConnect/internal/storage"
	messagingmemory "github.com/abdulhamidalthaljy/CareConnect/pkg/messaging/memory"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/security"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type countingStore struct {
	storage.Store
	puts int
}

func (c *countingStore) Put(ctx context.Context, key string, r io.Reader, size int64, ct string) error {
	c.puts++
	return c.Store.Put(ctx, key, r, size, ct)
}

type testEnv struct {
	t       *testing.T
	srv     *httptest.Server
	client  *http.Client
	store   repository.Store
	objects *countingStore
	root    string
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  mode: test\nrate_limit:\n  login_burst: 1000\n"), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	root := t.TempDir()
	fs, err := storage.NewFileStore(root)
	require.NoError(t, err)
	objects := &countingStore{Store: fs}

	store := memory.NewStore()
	broker := messagingmemory.NewBroker()
	t.Cleanup(func() { broker.Close() })

	a, err := app.New(cfg, app.Deps{
		Store:    store,
		Sessions: session.NewMemoryStore(time.Hour),
		Objects:  objects,
		Broker:   broker,
		Hasher:   security.NewBcryptHasher(bcrypt.MinCost),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, a.Start(ctx))

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{
		t:   t,
		srv: srv,
		client: &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}},
		store:   store,
		objects: objects,
		root:    root,
	}
}

func (e *testEnv) do(method, path, token, contentType string, body io.Reader, accept string) *http.Response {
	e.t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, body)
	require.NoError(e.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := e.client.Do(req)
	require.NoError(e.t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func (e *testEnv) get(path, token string) (int, envelope) {
	resp := e.do(http.MethodGet, path, token, "", nil, "application/json")
	return resp.StatusCode, decode(e.t, resp)
}

func (e *testEnv) post(path, token string, form url.Values) (int, envelope) {
	resp := e.do(http.MethodPost, path, token, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), "application/json")
	return resp.StatusCode, decode(e.t, resp)
}

func (e *testEnv) register(username string, role model.Role) int64 {
	e.t.Helper()
	code, env := e.post("/register", "", url.Values{
		"username":         {username},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
		"role":             {role.String()},
		"email":            {username + "@example.com"},
	})
	require.Equal(e.t, http.StatusCreated, code, env.Message)
	var data struct {
		User model.Contact `json:"user"`
	}
	require.NoError(e.t, json.Unmarshal(env.Data, &data))
	return data.User.ID
}

func (e *testEnv) login(username string) string {
	e.t.Helper()
	code, env := e.post("/login", "", url.Values{"username": {username}, "password": {"secret1"}})
	require.Equal(e.t, http.StatusOK, code, env.Message)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(e.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(e.t, data.Token)
	return data.Token
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

func TestDuplicateRegistration(t *testing.T) {
	e := newEnv(t)
	e.register("patient1", model.RolePatient)

	code, env := e.post("/register", "", url.Values{
		"username": {"patient1"}, "password": {"other1"}, "confirm_password": {"other1"},
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Username already exists", env.Message)

	patients, err := e.store.Users.ListByRole(context.Background(), model.RolePatient)
	require.NoError(t, err)
	assert.Len(t, patients, 1)

	code, env = e.post("/register", "", url.Values{
		"username": {"patient2"}, "password": {"secret1"}, "confirm_password": {"secret2"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Passwords do not match", env.Message)
}

func TestLoginWrongPasswordOpensNoSession(t *testing.T) {
	e := newEnv(t)
	e.register("patient1", model.RolePatient)

	resp := e.do(http.MethodPost, "/login", "", "application/x-www-form-urlencoded",
		strings.NewReader(url.Values{"username": {"patient1"}, "password": {"wrong"}}.Encode()), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Cookies())
	assert.Equal(t, "Invalid username or password", decode(t, resp).Message)

	resp = e.do(http.MethodPost, "/login", "", "application/x-www-form-urlencoded",
		strings.NewReader(url.Values{"username": {"patient1"}, "password": {"secret1"}}.Encode()), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, resp.Cookies(), 1)
	cookie := resp.Cookies()[0]
	assert.Equal(t, "careconnect_session", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/dashboard", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	resp, err = e.client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, err = http.NewRequest(http.MethodGet, e.srv.URL+"/logout", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	resp, err = e.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	req, err = http.NewRequest(http.MethodGet, e.srv.URL+"/dashboard", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	resp, err = e.client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAnonymousAccess(t *testing.T) {
	e := newEnv(t)

	resp := e.do(http.MethodGet, "/dashboard", "", "", nil, "text/html,application/xhtml+xml")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	resp.Body.Close()

	code, env := e.get("/dashboard", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "error", env.Status)

	code, _ = e.get("/", "")
	assert.Equal(t, http.StatusOK, code)

	resp = e.do(http.MethodGet, "/health/ready", "", "", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = e.do(http.MethodGet, "/metrics", "", "", nil, "")
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "careconnect_http_requests_total")
}

func TestNonNumericVitalIsRejected(t *testing.T) {
	e := newEnv(t)
	pid := e.register("patient1", model.RolePatient)
	token := e.login("patient1")

	code, env := e.post("/add_vital", token, url.Values{"type": {"bp"}, "value1": {"high"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Vital values must be numeric", env.Message)

	code, _ = e.post("/add_vital", token, url.Values{"type": {"bp"}, "value1": {"120"}, "value2": {"x"}})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.post("/add_vital", token, url.Values{"type": {"bp"}, "value1": {strings.Repeat("9", 60)}})
	assert.Equal(t, http.StatusBadRequest, code)

	vitals, err := e.store.Vitals.ListByPatient(context.Background(), pid)
	require.NoError(t, err)
	assert.Empty(t, vitals)

	code, env = e.post("/add_vital", token, url.Values{"type": {"bp"}, "value1": {"120"}, "value2": {"80"}})
	require.Equal(t, http.StatusCreated, code)
	var v model.Vital
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.NotZero(t, v.ID)

	code, env = e.get("/api/get_vitals", token)
	require.Equal(t, http.StatusOK, code)
	var list []model.Vital
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	code, _ = e.get("/api/get_vitals?patient_id="+id(pid), token)
	assert.Equal(t, http.StatusForbidden, code)
}

func multipartBody(t *testing.T, filename string, data []byte) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return w.FormDataContentType(), &buf
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3, 3))))
	return buf.Bytes()
}

func TestUploadFlow(t *testing.T) {
	e := newEnv(t)
	pid := e.register("patient1", model.RolePatient)
	e.register("patient2", model.RolePatient)
	e.register("doctor1", model.RoleDoctor)
	token := e.login("patient1")

	ct, body := multipartBody(t, "photo.exe", pngBytes(t))
	resp := e.do(http.MethodPost, "/upload_file", token, ct, body, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "File type not allowed", decode(t, resp).Message)
	assert.Zero(t, e.objects.puts)

	resp = e.do(http.MethodPost, "/upload_file", token, "application/x-www-form-urlencoded", strings.NewReader("a=b"), "")
	assert.Equal(t, "No file part", decode(t, resp).Message)

	data := pngBytes(t)
	ct, body = multipartBody(t, "photo.png", data)
	resp = e.do(http.MethodPost, "/upload_file", token, ct, body, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var uploaded struct {
		FileID           int64  `json:"file_id"`
		OriginalFilename string `json:"original_filename"`
	}
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &uploaded))
	assert.Equal(t, "photo.png", uploaded.OriginalFilename)

	entries, err := os.ReadDir(filepath.Join(e.root, "user_"+id(pid)))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEqual(t, "photo.png", entries[0].Name())
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".png"))

	for _, who := range []string{"patient1", "doctor1"} {
		resp = e.do(http.MethodGet, "/download_file/"+id(uploaded.FileID), e.login(who), "", nil, "")
		got, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, who)
		assert.Equal(t, data, got)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "photo.png")
	}

	code, _ := e.get("/download_file/"+id(uploaded.FileID), e.login("patient2"))
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAppointmentScenario(t *testing.T) {
	e := newEnv(t)
	e.register("patient1", model.RolePatient)
	did := e.register("doctor1", model.RoleDoctor)
	patient := e.login("patient1")
	doctor := e.login("doctor1")

	code, env := e.post("/request_appointment", patient, url.Values{"doctor_id": {id(did)}, "start_time": {"2026-11-02T09:30"}})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var appt model.Appointment
	require.NoError(t, json.Unmarshal(env.Data, &appt))
	assert.Equal(t, model.AppointmentStatusPending, appt.Status)

	code, _ = e.post("/confirm_appointment/"+id(appt.ID), patient, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = e.post("/confirm_appointment/"+id(appt.ID), doctor, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &appt))
	assert.Equal(t, model.AppointmentStatusConfirmed, appt.Status)

	for _, who := range []string{patient, doctor} {
		code, env = e.post("/cancel_appointment/"+id(appt.ID), who, nil)
		require.Equal(t, http.StatusOK, code)
		require.NoError(t, json.Unmarshal(env.Data, &appt))
		assert.Equal(t, model.AppointmentStatusCancelled, appt.Status)
	}

	code, env = e.get("/doctor/appointments?status=cancelled", doctor)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"patient1"`)
}

func TestExportPermissions(t *testing.T) {
	e := newEnv(t)
	p1 := e.register("patient1", model.RolePatient)
	p2 := e.register("patient2", model.RolePatient)
	e.register("doctor1", model.RoleDoctor)
	doctor := e.login("doctor1")
	patient := e.login("patient1")

	for path, ct := range map[string]string{
		"/export_excel": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"/export_pdf":   "application/pdf",
	} {
		resp := e.do(http.MethodGet, path+"?patient_id="+id(p2), doctor, "", nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, ct, resp.Header.Get("Content-Type"))
		resp.Body.Close()

		resp = e.do(http.MethodGet, path, patient, "", nil, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), id(p1))
		resp.Body.Close()

		code, env := e.get(path+"?patient_id="+id(p2), patient)
		assert.Equal(t, http.StatusForbidden, code, path)
		assert.Equal(t, "access denied", env.Message)
	}
}

func TestDoctorRoutes(t *testing.T) {
	e := newEnv(t)
	pid := e.register("patient1", model.RolePatient)
	e.register("doctor1", model.RoleDoctor)
	doctor := e.login("doctor1")
	patient := e.login("patient1")

	code, _ := e.get("/doctor", patient)
	assert.Equal(t, http.StatusForbidden, code)

	code, env := e.post("/doctor/add_medicine/"+id(pid), doctor, url.Values{"name": {"Aspirin"}, "dosage": {"100mg"}})
	require.Equal(t, http.StatusCreated, code, env.Message)
	code, _ = e.post("/doctor/update_profile/"+id(pid), doctor, url.Values{"full_name": {"Pat One"}})
	require.Equal(t, http.StatusOK, code)

	code, env = e.get("/doctor/view/"+id(pid), doctor)
	require.Equal(t, http.StatusOK, code)
	var view struct {
		Profile   model.Profile    `json:"profile"`
		Medicines []model.Medicine `json:"medicines"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "Pat One", view.Profile.FullName)
	require.Len(t, view.Medicines, 1)

	code, _ = e.post("/delete_medicine/"+id(view.Medicines[0].ID), patient, nil)
	assert.Equal(t, http.StatusOK, code)

	resp := e.do(http.MethodGet, "/dashboard", doctor, "", nil, "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/doctor", resp.Header.Get("Location"))
	resp.Body.Close()
}

func TestChatRoundTrip(t *testing.T) {
	e := newEnv(t)
	pid := e.register("patient1", model.RolePatient)
	did := e.register("doctor1", model.RoleDoctor)
	patient := e.login("patient1")
	doctor := e.login("doctor1")

	dial := func(token string) *websocket.Conn {
		header := http.Header{"Authorization": {"Bearer " + token}}
		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(e.srv.URL, "http")+"/ws", header)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}
	patientConn := dial(patient)
	doctorConn := dial(doctor)

	// A frame only reaches sessions that have joined, so wait until both
	// answer an unknown event before sending real traffic.
	for _, conn := range []*websocket.Conn{patientConn, doctorConn} {
		require.NoError(t, conn.WriteJSON(map[string]string{"event": "ping"}))
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var env map[string]json.RawMessage
		require.NoError(t, conn.ReadJSON(&env))
	}

	texts := []string{"first", "second"}
	for _, text := range texts {
		require.NoError(t, patientConn.WriteJSON(map[string]interface{}{
			"event": "private_message",
			"data":  map[string]interface{}{"to_user_id": did, "message": text},
		}))
		for _, conn := range []*websocket.Conn{doctorConn, patientConn} {
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
			var frame struct {
				Event string            `json:"event"`
				Data  model.ChatMessage `json:"data"`
			}
			require.NoError(t, conn.ReadJSON(&frame))
			assert.Equal(t, "new_message", frame.Event)
			assert.Equal(t, text, frame.Data.Text)
		}
	}

	code, env := e.get("/api/get_messages/"+id(pid), doctor)
	require.Equal(t, http.StatusOK, code)
	var history []model.ChatMessage
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Text)
	assert.Equal(t, "second", history[1].Text)
	assert.Equal(t, pid, history[0].SenderID)

	code, env = e.get("/chat", patient)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "doctor1")
}
