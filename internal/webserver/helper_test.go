package webserver_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/mdouchement/logger"
	"github.com/mdouchement/monitoraedes/internal/database"
	"github.com/mdouchement/monitoraedes/internal/storage"
	"github.com/mdouchement/monitoraedes/internal/webserver"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const adminKey = "s3cr3t"

type env struct {
	t       *testing.T
	server  *httptest.Server
	db      database.Client
	storage storage.Backend
}

func setup(t *testing.T) *env {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logger.LogrusTextFormatter{
		DisableColors:   true,
		ForceFormatting: true,
		PrefixRE:        regexp.MustCompile(`^(\[.*?\])\s`),
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	//

	workspace := t.TempDir()

	db, err := database.StormOpen(filepath.Join(workspace, "monitoraedes.db"))
	require.NoError(t, err)

	backend, err := storage.NewFileSystem(filepath.Join(workspace, "images"))
	require.NoError(t, err)

	//

	ctrl := webserver.Controller{
		Version:  "test",
		Logger:   logger.WrapLogrus(log),
		Database: db,
		Storage:  backend,
		AdminKey: adminKey,
		Debug:    true,
	}
	engine := webserver.EchoEngine(ctrl)

	server := httptest.NewUnstartedServer(engine)
	server.Config.ReadTimeout = 20 * time.Second
	server.Config.WriteTimeout = 20 * time.Second
	server.Start()

	t.Cleanup(func() {
		server.Close()
		db.Close()
	})

	return &env{
		t:       t,
		server:  server,
		db:      db,
		storage: backend,
	}
}

func (e *env) do(req *http.Request) (*http.Response, []byte) {
	e.t.Helper()

	res, err := e.server.Client().Do(req)
	require.NoError(e.t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(e.t, err)
	return res, body
}

func (e *env) request(method, path string, header http.Header) (*http.Response, []byte) {
	e.t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, nil)
	require.NoError(e.t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	return e.do(req)
}

func (e *env) get(path string) (*http.Response, []byte) {
	e.t.Helper()
	return e.request(http.MethodGet, path, nil)
}

func (e *env) getJSON(path string, v interface{}) *http.Response {
	e.t.Helper()

	res, body := e.get(path)
	require.NoError(e.t, json.Unmarshal(body, v), string(body))
	return res
}

type upload struct {
	fields      map[string]string
	filename    string
	contentType string
	content     []byte
}

func newUpload(id string, count int) upload {
	return upload{
		fields: map[string]string{
			"raspberry_id":    id,
			"name":            "Raspberry Pi " + id,
			"location":        "Surco",
			"detection_count": strconv.Itoa(count),
			"temperature":     "27.5",
			"humidity":        "75.25",
			"latitude":        "-12.1",
			"longitude":       "-77.0",
		},
		filename:    "capture.jpg",
		contentType: "image/jpeg",
		content:     []byte("\xff\xd8\xff\xe0 fake jpeg"),
	}
}

func (e *env) post(u upload) (*http.Response, map[string]interface{}) {
	e.t.Helper()

	res, body := e.do(e.multipart(u))
	payload := map[string]interface{}{}
	require.NoError(e.t, json.Unmarshal(body, &payload), string(body))
	return res, payload
}

func (e *env) multipart(u upload) *http.Request {
	e.t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range u.fields {
		require.NoError(e.t, w.WriteField(k, v))
	}

	if u.filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+u.filename+`"`)
		h.Set("Content-Type", u.contentType)
		part, err := w.CreatePart(h)
		require.NoError(e.t, err)
		_, err = part.Write(u.content)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, w.Close())

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/api/raspberry-data", &buf)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}
