package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cfonb120/internal/config"
	"github.com/cleared-dev/cfonb120/internal/convert"
	"github.com/cleared-dev/cfonb120/internal/logger"
)

func setupTestApp(t *testing.T, opts Options) *fiber.App {
	t.Helper()
	cfg := config.Default()
	cfg.Account.IBAN = "FR76 3000 4022 3100 0101 7355 454"
	copts, err := convert.OptionsFromConfig(cfg)
	require.NoError(t, err)
	return New(convert.NewService(copts), opts, logger.Discard()).App()
}

func defaultOptions() Options {
	return Options{RequestsPerSecond: 100, Burst: 100}
}

func uploadRequest(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func readTestdata(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/statement.csv")
	require.NoError(t, err)
	return data
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
	return er
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t, defaultOptions())

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result["status"])
	assert.NotEmpty(t, result["version"])
}

func TestConvertEndpoint(t *testing.T) {
	app := setupTestApp(t, defaultOptions())

	resp, err := app.Test(uploadRequest(t, "january.csv", readTestdata(t), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, "text/plain; charset=iso-8859-1", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "january.cfo")
	assert.Equal(t, "3", resp.Header.Get("X-Transactions"))
	assert.Equal(t, "6", resp.Header.Get("X-Records"))
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.NotEmpty(t, resp.Header.Get("X-Run-Id"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, body, 6*121)
	assert.Equal(t, "01", string(body[:2]))
}

func TestConvertEndpoint_CachesByContentAndOptions(t *testing.T) {
	app := setupTestApp(t, defaultOptions())
	data := readTestdata(t)

	first, err := app.Test(uploadRequest(t, "a.csv", data, nil))
	require.NoError(t, err)
	second, err := app.Test(uploadRequest(t, "b.csv", data, nil))
	require.NoError(t, err)
	assert.Equal(t, "MISS", first.Header.Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header.Get("X-Cache"))
	assert.Equal(t, first.Header.Get("X-Run-Id"), second.Header.Get("X-Run-Id"))
	assert.Contains(t, first.Header.Get("Content-Disposition"), `"a.cfo"`)
	assert.Contains(t, second.Header.Get("Content-Disposition"), `"b.cfo"`, "name follows the current upload")

	crlf, err := app.Test(uploadRequest(t, "a.csv", data, map[string]string{"line_ending": "crlf"}))
	require.NoError(t, err)
	assert.Equal(t, "MISS", crlf.Header.Get("X-Cache"))
	body, err := io.ReadAll(crlf.Body)
	require.NoError(t, err)
	assert.Len(t, body, 6*122)
}

func TestConvertEndpoint_Overrides(t *testing.T) {
	app := setupTestApp(t, defaultOptions())

	resp, err := app.Test(uploadRequest(t, "a.csv", readTestdata(t), map[string]string{
		"amount_encoding": "plain",
		"balance_mode":    "closing",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// closing mode: 1000.00 is the end balance, opening = 1000 - (-940.70) = 1940.70
	assert.Equal(t, "00000000194070", string(body[90:104]))
}

func TestConvertEndpoint_Errors(t *testing.T) {
	app := setupTestApp(t, defaultOptions())

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"missing file", uploadRequest(t, "", nil, map[string]string{"balance_mode": "opening"}), fiber.StatusBadRequest},
		{"bad override", uploadRequest(t, "a.csv", readTestdata(t), map[string]string{"amount_encoding": "ebcdic"}), fiber.StatusBadRequest},
		{"unsupported", uploadRequest(t, "a.pdf", []byte("%PDF-1.7"), nil), fiber.StatusUnsupportedMediaType},
		{"invalid amount", uploadRequest(t, "a.csv", []byte("01/01/2024;;;x;douze\n"), nil), fiber.StatusUnprocessableEntity},
		{"no transactions", uploadRequest(t, "a.csv", []byte("Date;Montant\n"), nil), fiber.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		resp, err := app.Test(tt.req)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.status, resp.StatusCode, tt.name)

		er := decodeError(t, resp)
		assert.False(t, er.Success, tt.name)
		assert.NotEmpty(t, er.Error, tt.name)
	}
}

func TestConvertEndpoint_RateLimited(t *testing.T) {
	app := setupTestApp(t, Options{RequestsPerSecond: 0.001, Burst: 2})
	data := readTestdata(t)

	for i := range 2 {
		resp, err := app.Test(uploadRequest(t, "a.csv", data, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i+1)
	}

	resp, err := app.Test(uploadRequest(t, "a.csv", data, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	health, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, health.StatusCode, "health is not rate limited")
}
