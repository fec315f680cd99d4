package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereceipt/quickreceipt/internal/export"
	"github.com/thereceipt/quickreceipt/internal/share"
	"github.com/thereceipt/quickreceipt/internal/shell"
	"github.com/thereceipt/quickreceipt/pkg/receiptformat"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	server *Server
	shell  *shell.Shell
	saver  *export.MemorySaver
	opener *share.RecordingOpener
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := export.DefaultConfig()
	cfg.SettleDelay = time.Millisecond

	env := &testEnv{saver: export.NewMemorySaver(), opener: &share.RecordingOpener{}}
	env.shell = shell.New(context.Background(), shell.Deps{
		Export:        cfg,
		Saver:         env.saver,
		Opener:        env.opener,
		ViewportWidth: 1200,
		Logger:        zaptest.NewLogger(t),
	})
	env.server = NewServer(env.shell, Options{}, zaptest.NewLogger(t))
	t.Cleanup(func() {
		env.server.Close()
		env.shell.Close()
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSnapshot(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/receipt", nil)
	require.Equal(t, http.StatusOK, w.Code)

	snap := decode[map[string]any](t, w)
	assert.Equal(t, "desktop_inline", snap["captureState"])
	assert.Equal(t, "inline", snap["captureSource"])
	assert.Equal(t, "$0.00", snap["formattedTotal"])
	assert.Equal(t, false, snap["exporting"])
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/settings", receiptformat.CompanySettings{Name: "Acme", FooterMessage: "Bye"})
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[receiptformat.CompanySettings](t, env.do(t, http.MethodGet, "/settings", nil))
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "Bye", got.FooterMessage)
}

func TestUploadLogo(t *testing.T) {
	env := newTestEnv(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 3, 3))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/settings/logo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[receiptformat.CompanySettings](t, w)
	require.NotNil(t, got.LogoURL)
	assert.True(t, strings.HasPrefix(*got.LogoURL, "data:image/png;base64,"))

	w = env.do(t, http.MethodPost, "/settings/logo", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/settings/logo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[receiptformat.CompanySettings](t, w).LogoURL)
}

func TestTransaction(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/transaction", map[string]string{"customerName": "Jane", "paymentMethod": "Crypto"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/transaction", receiptformat.TransactionDetails{
		CustomerName: "Jane", Date: "2024-01-15", PaymentMethod: receiptformat.PaymentCard, Currency: "EUR",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Jane", env.shell.Transaction().CustomerName)
}

func TestItems(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/items", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	item := decode[receiptformat.Item](t, w)

	w = env.do(t, http.MethodPatch, "/items/"+item.ID, map[string]any{"description": "Widget", "quantity": "2", "unitPrice": 9.99})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, receiptformat.Item{ID: item.ID, Description: "Widget", Quantity: 2, UnitPrice: 9.99}, decode[receiptformat.Item](t, w))

	w = env.do(t, http.MethodPatch, "/items/"+item.ID, map[string]any{"quantity": "abc"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[receiptformat.Item](t, w).Quantity)

	w = env.do(t, http.MethodPatch, "/items/"+item.ID, map[string]any{"colour": "red"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, "/items/missing", map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/items/"+item.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, "/items/"+item.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	list := decode[struct {
		Items []receiptformat.Item `json:"items"`
	}](t, env.do(t, http.MethodGet, "/items", nil))
	assert.Len(t, list.Items, 1)
}

func TestItemsWorkbook(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/items.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestDraft(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/draft", map[string]any{"version": "1.0", "items": []map[string]any{{"id": "a", "quantity": -1}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	draft := receiptformat.Draft{
		Version:     receiptformat.Version,
		Settings:    receiptformat.CompanySettings{Name: "Imported"},
		Transaction: receiptformat.TransactionDetails{CustomerName: "Jane", Date: "2024-03-01", PaymentMethod: receiptformat.PaymentCash, Currency: "USD"},
		Items:       []receiptformat.Item{{ID: "a", Description: "Tea", Quantity: 2, UnitPrice: 1.5}},
	}
	w = env.do(t, http.MethodPost, "/draft", draft)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[receiptformat.Draft](t, env.do(t, http.MethodGet, "/draft", nil))
	assert.Equal(t, draft, got)
}

func TestLayout(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/viewport", map[string]int{"width": 375})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"captureState":"mobile_modal_closed"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/preview/open", nil)
	assert.JSONEq(t, `{"captureState":"mobile_modal_open"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/preview/close", nil)
	assert.JSONEq(t, `{"captureState":"mobile_modal_closed"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/viewport", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.shell.UpdateTransaction(receiptformat.TransactionDetails{CustomerName: "John Doe", Date: "2024-01-15"}))

	w := env.do(t, http.MethodPost, "/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Receipt-John-Doe-2024-01-15.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	assert.Equal(t, []string{"Receipt-John-Doe-2024-01-15.pdf"}, env.saver.Names())
}

func TestShare(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/share", nil)
	require.Equal(t, http.StatusOK, w.Code)

	handoff := decode[share.Handoff](t, w)
	assert.True(t, strings.HasPrefix(handoff.URL, "https://wa.me/?text=Hello"))
	assert.Contains(t, handoff.Message, "our company")
	assert.Equal(t, []string{handoff.URL}, env.opener.Links())
}

func TestPreviews(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/receipt/preview.txt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TOTAL")

	w = env.do(t, http.MethodGet, "/receipt/preview.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = env.do(t, http.MethodGet, "/receipt/preview.html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="receipt-container"`)

	w = env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "WebSocket")
}

func TestPrint(t *testing.T) {
	env := newTestEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan int, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- len(data)
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	w := env.do(t, http.MethodPost, "/print", map[string]any{"host": "127.0.0.1", "port": port, "dots": 384})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	select {
	case n := <-received:
		assert.Greater(t, n, 8)
	case <-time.After(5 * time.Second):
		t.Fatal("printer received nothing")
	}

	w = env.do(t, http.MethodPost, "/print", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(export.ErrInFlight))
	assert.Equal(t, http.StatusBadRequest, statusFor(receiptformat.ErrInvalidDraft))
	assert.Equal(t, http.StatusInternalServerError, statusFor(io.EOF))
}

func TestWebSocket_StateEvents(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventState, msg.Event)

	require.Eventually(t, func() bool { return env.server.hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	env.shell.AddItem()
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventState, msg.Event)

	var snap struct {
		Items []receiptformat.Item `json:"items"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Len(t, snap.Items, 2)

	// Layout events from the client change the shell and come back as state
	require.NoError(t, conn.WriteJSON(map[string]any{"event": EventViewport, "data": map[string]int{"width": 375}}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventState, msg.Event)
	assert.Equal(t, shell.MobileModalClosed, env.shell.CaptureState())

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "bogus"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, EventError, msg.Event)
}
