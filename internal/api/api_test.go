package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/packtrack/internal/auth"
	"github.com/erazemk/packtrack/internal/db"
	"github.com/erazemk/packtrack/internal/imaging"
	"github.com/erazemk/packtrack/internal/lifecycle"
	"github.com/erazemk/packtrack/internal/model"
	"github.com/erazemk/packtrack/internal/store"
)

const (
	testJWTSecret = "test-secret"
	testEmail     = "admin@example.com"
	testPassword  = "password"
)

func newTestHandler(t *testing.T) (http.Handler, *db.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	coord := lifecycle.New(database, auth.PasswordAuthenticator{DB: database}, lifecycle.Options{Logger: logger})
	router := NewRouter(Deps{
		DB:         database,
		Lifecycle:  coord,
		Images:     imaging.New(imaging.Options{MaxDimension: 64}),
		JWTSecret:  testJWTSecret,
		BcryptCost: bcrypt.MinCost,
	})
	return LoggingMiddleware(logger)(router), database
}

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	handler, database := newTestHandler(t)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	_, err = store.CreateUser(context.Background(), database, testEmail, hash)
	require.NoError(t, err)

	return server, login(t, server, testEmail, testPassword)
}

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, "login failed")

	var loginResp loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	require.NotEmpty(t, loginResp.Token)
	return loginResp.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func do(t *testing.T, req *http.Request, out any) int {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, url, token string, fields map[string]string, images ...[]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for i, data := range images {
		fw, err := mw.CreateFormFile("images", "photo"+strconv.Itoa(i)+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &body)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func createPackViaAPI(t *testing.T, server *httptest.Server, token, price string, items int, images ...[]byte) model.PackView {
	t.Helper()
	req := multipartRequest(t, server.URL+"/api/packs", token, map[string]string{
		"brand":         "Levi's",
		"category":      "Jeans",
		"price":         price,
		"numberOfItems": strconv.Itoa(items),
	}, images...)

	var view model.PackView
	require.Equal(t, http.StatusCreated, do(t, req, &view))
	return view
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"email": testEmail, "password": "wrong"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	body, _ = json.Marshal(map[string]string{"email": testEmail})
	resp, err = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	handler, _ := newTestHandler(t)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/api/packs")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req, _ := authRequest(http.MethodGet, server.URL+"/api/packs", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, do(t, req, nil))
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest(http.MethodPost, server.URL+"/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, do(t, req, nil))

	req, _ = authRequest(http.MethodGet, server.URL+"/api/packs", token, nil)
	assert.Equal(t, http.StatusUnauthorized, do(t, req, nil))
}

func TestRequestIDHeader(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest(http.MethodGet, server.URL+"/api/packs", token, nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	const id = "0b6f1c9e-3c1a-4f7e-9b5d-2f3a4b5c6d7e"
	req, _ = authRequest(http.MethodGet, server.URL+"/api/packs", token, nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, id, resp.Header.Get(RequestIDHeader))
}

func TestPackSaleFlow(t *testing.T) {
	server, token := setupTestServer(t)

	view := createPackViaAPI(t, server, token, "100", 3, testPNG(t, 200, 100))
	assert.Len(t, view.Items, 3)
	require.Len(t, view.Images, 1)
	assert.Equal(t, model.PackStatusNotSold, view.Status)

	var packs []model.PackView
	req, _ := authRequest(http.MethodGet, server.URL+"/api/packs", token, nil)
	require.Equal(t, http.StatusOK, do(t, req, &packs))
	require.Len(t, packs, 1)
	assert.Equal(t, view.ID, packs[0].ID)

	soldURL := server.URL + "/api/packs/" + view.ID + "/sold"

	req, _ = authRequest(http.MethodPost, soldURL, token, map[string]any{"amount": 150, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, do(t, req, nil))

	var sale model.Transaction
	req, _ = authRequest(http.MethodPost, soldURL, token, map[string]any{"amount": 150, "password": testPassword})
	require.Equal(t, http.StatusCreated, do(t, req, &sale))
	assert.True(t, sale.Profit.Equal(decimal.NewFromInt(50)), "profit = %s", sale.Profit)

	var sold model.SoldStats
	req, _ = authRequest(http.MethodGet, server.URL+"/api/packs/sold", token, nil)
	require.Equal(t, http.StatusOK, do(t, req, &sold))
	assert.Equal(t, 1, sold.Count)
	assert.True(t, sold.Percentage.Equal(decimal.NewFromInt(100)))

	var profits model.ProfitStats
	req, _ = authRequest(http.MethodGet, server.URL+"/api/transactions/profits", token, nil)
	require.Equal(t, http.StatusOK, do(t, req, &profits))
	assert.True(t, profits.TotalProfit.Equal(decimal.NewFromInt(50)))
	assert.True(t, profits.PercentageProfit.Equal(decimal.NewFromInt(50)))

	// Reversing the only sale puts the pack back on sale.
	var pack model.Pack
	req, _ = authRequest(http.MethodDelete, server.URL+"/api/transactions/"+strconv.FormatInt(sale.ID, 10), token,
		map[string]string{"password": testPassword})
	require.Equal(t, http.StatusOK, do(t, req, &pack))
	assert.Equal(t, model.PackStatusNotSold, pack.Status)

	var txs []model.Transaction
	req, _ = authRequest(http.MethodGet, server.URL+"/api/transactions", token, nil)
	require.Equal(t, http.StatusOK, do(t, req, &txs))
	assert.Empty(t, txs)
}

func TestMarkSoldErrors(t *testing.T) {
	server, token := setupTestServer(t)
	view := createPackViaAPI(t, server, token, "100", 1)

	req, _ := authRequest(http.MethodPost, server.URL+"/api/packs/ZZZ10000/sold", token,
		map[string]any{"amount": "10", "password": testPassword})
	assert.Equal(t, http.StatusNotFound, do(t, req, nil))

	req, _ = authRequest(http.MethodPost, server.URL+"/api/packs/"+view.ID+"/sold", token,
		map[string]any{"amount": "lots", "password": testPassword})
	assert.Equal(t, http.StatusBadRequest, do(t, req, nil))
}

func TestCreatePackValidation(t *testing.T) {
	server, token := setupTestServer(t)

	tests := []struct {
		name   string
		fields map[string]string
		images [][]byte
	}{
		{"negative price", map[string]string{"brand": "b", "category": "c", "price": "-1", "numberOfItems": "2"}, nil},
		{"zero items", map[string]string{"brand": "b", "category": "c", "price": "10", "numberOfItems": "0"}, nil},
		{"missing brand", map[string]string{"category": "c", "price": "10", "numberOfItems": "2"}, nil},
		{"count not a number", map[string]string{"brand": "b", "category": "c", "price": "10", "numberOfItems": "two"}, nil},
		{"not an image", map[string]string{"brand": "b", "category": "c", "price": "10", "numberOfItems": "2"}, [][]byte{[]byte("plain text")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, server.URL+"/api/packs", token, tt.fields, tt.images...)
			assert.Equal(t, http.StatusBadRequest, do(t, req, nil))
		})
	}

	var packs []model.PackView
	req, _ := authRequest(http.MethodGet, server.URL+"/api/packs", token, nil)
	require.Equal(t, http.StatusOK, do(t, req, &packs))
	assert.Empty(t, packs)
}

func TestResizePackAPI(t *testing.T) {
	server, token := setupTestServer(t)
	view := createPackViaAPI(t, server, token, "40", 2)

	var pack model.Pack
	req, _ := authRequest(http.MethodPut, server.URL+"/api/packs/"+view.ID, token, map[string]any{
		"brand":         "Wrangler",
		"category":      "Jackets",
		"price":         "55.5",
		"numberOfItems": 4,
	})
	require.Equal(t, http.StatusOK, do(t, req, &pack))
	assert.Equal(t, 4, pack.NumberOfItems)
	assert.Equal(t, "Wrangler", pack.Brand)

	var items []model.Item
	req, _ = authRequest(http.MethodGet, server.URL+"/api/items", token, nil)
	require.Equal(t, http.StatusOK, do(t, req, &items))
	assert.Len(t, items, 4)

	var categories []string
	req, _ = authRequest(http.MethodGet, server.URL+"/api/categories", token, nil)
	require.Equal(t, http.StatusOK, do(t, req, &categories))
	assert.Equal(t, []string{"Jackets"}, categories)

	req, _ = authRequest(http.MethodPut, server.URL+"/api/packs/ZZZ10000", token, map[string]any{
		"brand": "b", "category": "c", "price": 1, "numberOfItems": 1,
	})
	assert.Equal(t, http.StatusNotFound, do(t, req, nil))
}

func TestDeleteItemAPI(t *testing.T) {
	server, token := setupTestServer(t)
	view := createPackViaAPI(t, server, token, "10", 2)

	itemURL := func(id string) string { return server.URL + "/api/items/" + id }

	req, _ := authRequest(http.MethodDelete, itemURL(view.Items[0]), token, map[string]string{"password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, do(t, req, nil))

	var res deleteItemResponse
	req, _ = authRequest(http.MethodDelete, itemURL(view.Items[0]), token, map[string]string{"password": testPassword})
	require.Equal(t, http.StatusOK, do(t, req, &res))
	assert.Equal(t, 1, res.ItemsLeft)
	assert.False(t, res.PackRemoved)

	res = deleteItemResponse{}
	req, _ = authRequest(http.MethodDelete, itemURL(view.Items[1]), token, map[string]string{"password": testPassword})
	require.Equal(t, http.StatusOK, do(t, req, &res))
	assert.True(t, res.PackRemoved)
	assert.Empty(t, res.Warning)

	var count map[string]int
	req, _ = authRequest(http.MethodGet, server.URL+"/api/packs/count", token, nil)
	require.Equal(t, http.StatusOK, do(t, req, &count))
	assert.Equal(t, 0, count["count"])

	req, _ = authRequest(http.MethodDelete, itemURL(view.Items[1]), token, map[string]string{"password": testPassword})
	assert.Equal(t, http.StatusNotFound, do(t, req, nil))
}

func TestImagesAPI(t *testing.T) {
	server, token := setupTestServer(t)
	view := createPackViaAPI(t, server, token, "10", 1)

	var added map[string][]int64
	req := multipartRequest(t, server.URL+"/api/packs/"+view.ID+"/images", token, nil, testPNG(t, 8, 8), testPNG(t, 300, 20))
	require.Equal(t, http.StatusCreated, do(t, req, &added))
	require.Len(t, added["ids"], 2)

	req = multipartRequest(t, server.URL+"/api/packs/"+view.ID+"/images", token, nil)
	assert.Equal(t, http.StatusBadRequest, do(t, req, nil))

	var deleted map[string]int
	req, _ = authRequest(http.MethodDelete, server.URL+"/api/images", token, map[string]any{"ids": []int64{added["ids"][0], 9999}})
	require.Equal(t, http.StatusOK, do(t, req, &deleted))
	assert.Equal(t, 1, deleted["deleted"])

	var packs []model.PackView
	req, _ = authRequest(http.MethodGet, server.URL+"/api/packs", token, nil)
	require.Equal(t, http.StatusOK, do(t, req, &packs))
	require.Len(t, packs, 1)
	assert.Len(t, packs[0].Images, 1)
}

func TestSearchItemsAPI(t *testing.T) {
	server, token := setupTestServer(t)
	view := createPackViaAPI(t, server, token, "10", 2)

	req, _ := authRequest(http.MethodGet, server.URL+"/api/items/search?q=", token, nil)
	assert.Equal(t, http.StatusBadRequest, do(t, req, nil))

	var items []model.Item
	req, _ = authRequest(http.MethodGet, server.URL+"/api/items/search?q="+view.ID[:3], token, nil)
	require.Equal(t, http.StatusOK, do(t, req, &items))
	assert.Len(t, items, 2)
}

func TestUsersAPI(t *testing.T) {
	server, token := setupTestServer(t)

	var users []model.User
	req, _ := authRequest(http.MethodGet, server.URL+"/api/users", token, nil)
	require.Equal(t, http.StatusOK, do(t, req, &users))
	require.Len(t, users, 1)

	req, _ = authRequest(http.MethodPut, server.URL+"/api/users/999", token,
		map[string]string{"email": "x@example.com", "password": "longenough"})
	assert.Equal(t, http.StatusNotFound, do(t, req, nil))

	req, _ = authRequest(http.MethodPut, server.URL+"/api/users/"+strconv.FormatInt(users[0].ID, 10), token,
		map[string]string{"email": "owner@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, do(t, req, nil))

	req, _ = authRequest(http.MethodPut, server.URL+"/api/users/"+strconv.FormatInt(users[0].ID, 10), token,
		map[string]string{"email": "owner@example.com", "password": "longenough"})
	require.Equal(t, http.StatusOK, do(t, req, nil))

	login(t, server, "owner@example.com", "longenough")
}

func TestChangePassword(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest(http.MethodPut, server.URL+"/api/auth/password", token,
		map[string]string{"current_password": "wrong", "new_password": "newpassword"})
	assert.Equal(t, http.StatusUnauthorized, do(t, req, nil))

	req, _ = authRequest(http.MethodPut, server.URL+"/api/auth/password", token,
		map[string]string{"current_password": testPassword, "new_password": "newpassword"})
	require.Equal(t, http.StatusOK, do(t, req, nil))

	login(t, server, testEmail, "newpassword")
}

func TestFlexString(t *testing.T) {
	var v struct {
		A flexString `json:"a"`
		B flexString `json:"b"`
		C flexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.50, "b": "7", "c": null}`), &v))
	assert.Equal(t, flexString("12.50"), v.A)
	assert.Equal(t, flexString("7"), v.B)
	assert.Equal(t, flexString(""), v.C)
}

func TestMalformedPackIDRejected(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest(http.MethodPut, server.URL+"/api/packs/not-a-pack", token, map[string]any{
		"brand": "b", "category": "c", "price": 1, "numberOfItems": 1,
	})
	assert.Equal(t, http.StatusBadRequest, do(t, req, nil))

	req, _ = authRequest(http.MethodPost, server.URL+"/api/packs/abc12345/sold", token,
		map[string]any{"amount": 10, "password": testPassword})
	assert.Equal(t, http.StatusBadRequest, do(t, req, nil))

	req = multipartRequest(t, server.URL+"/api/packs/ABC01234/images", token, nil, testPNG(t, 4, 4))
	assert.Equal(t, http.StatusBadRequest, do(t, req, nil))
}
