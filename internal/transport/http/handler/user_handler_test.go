package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"user-directory/internal/domain"
	"user-directory/internal/repo"
	"user-directory/internal/service"
	"user-directory/internal/transport/http/handler"
	"user-directory/internal/transport/http/router"
)

func init() { gin.SetMode(gin.TestMode) }

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	svc := service.NewUserService(repo.NewUserRepo(db))
	return router.NewAPIEngine(zap.NewNop(), handler.New(svc, nil, zap.NewNop()), nil)
}

func do(t *testing.T, e *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

type userJSON struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Age     int    `json:"age"`
	Address string `json:"address"`
}

type envelope struct {
	Message string   `json:"message"`
	Error   string   `json:"error"`
	Data    userJSON `json:"data"`
}

type listJSON struct {
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"totalPages"`
	Data       []userJSON `json:"data"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestRootGreeting(t *testing.T) {
	e := newEngine(t)
	w := do(t, e, http.MethodGet, "/", "")
	if w.Code != 200 || w.Body.String() != "hello world" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	e := newEngine(t)
	w := do(t, e, http.MethodGet, "/health", "")
	if w.Code != 200 {
		t.Fatalf("got %d", w.Code)
	}
}

func TestCreateStoresNormalizedRecord(t *testing.T) {
	e := newEngine(t)
	w := do(t, e, http.MethodPost, "/api/users",
		`{"name":"  Al  ","age":20,"email":" A@B.com ","address":" 12 Main ST "}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	resp := decode[envelope](t, w)
	if resp.Data.ID == 0 {
		t.Errorf("no id assigned")
	}
	if resp.Data.Name != "al" || resp.Data.Email != "a@b.com" || resp.Data.Address != "12 main st" {
		t.Errorf("not normalized: %+v", resp.Data)
	}
}

func TestCreateDuplicateEmailRejected(t *testing.T) {
	e := newEngine(t)
	if w := do(t, e, http.MethodPost, "/api/users", `{"name":"Al","age":20,"email":"a@b.com"}`); w.Code != 201 {
		t.Fatalf("first create: %d", w.Code)
	}
	w := do(t, e, http.MethodPost, "/api/users", `{"name":"Bob","age":30,"email":"a@b.com"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decode[envelope](t, w); !strings.Contains(resp.Error, "email already exists") {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestCreateRejectsFractionalAge(t *testing.T) {
	e := newEngine(t)
	w := do(t, e, http.MethodPost, "/api/users", `{"name":"bob","age":20.5}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decode[envelope](t, w); !strings.Contains(resp.Error, "whole number") {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestCreateValidationFailures(t *testing.T) {
	e := newEngine(t)
	for _, body := range []string{
		`{"age":20}`,                             // 缺 name
		`{"name":" a ","age":20}`,                // 归一化后过短
		`{"name":"bob"}`,                         // 缺 age
		`{"name":"bob","age":-1}`,                // 负数
		`{"name":"bob","age":20,"email":"nope"}`, // 形状不对
		`{"name":"bob","age":"twenty"}`,          // 类型不对
	} {
		if w := do(t, e, http.MethodPost, "/api/users", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", body, w.Code)
		}
	}
}

func TestListPageTwoOfSeven(t *testing.T) {
	e := newEngine(t)
	for i := 1; i <= 7; i++ {
		body := fmt.Sprintf(`{"name":"user%d","age":%d}`, i, 20+i)
		if w := do(t, e, http.MethodPost, "/api/users", body); w.Code != 201 {
			t.Fatalf("create %d: %d", i, w.Code)
		}
	}

	w := do(t, e, http.MethodGet, "/api/users?limit=3&page=2", "")
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[listJSON](t, w)
	if resp.Total != 7 || resp.TotalPages != 3 || resp.Page != 2 || resp.Limit != 3 {
		t.Fatalf("meta = %+v", resp)
	}
	want := []string{"user4", "user5", "user6"}
	if len(resp.Data) != 3 {
		t.Fatalf("rows = %d", len(resp.Data))
	}
	for i, u := range resp.Data {
		if u.Name != want[i] {
			t.Errorf("row %d = %q, want %q", i, u.Name, want[i])
		}
	}
}

func TestListDefaultsAndEmpty(t *testing.T) {
	e := newEngine(t)
	w := do(t, e, http.MethodGet, "/api/users", "")
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[listJSON](t, w)
	if resp.Page != 1 || resp.Limit != 5 || resp.Total != 0 {
		t.Fatalf("meta = %+v", resp)
	}
	if resp.Data == nil {
		t.Errorf("data should be [] not null")
	}
}

func TestListRejectsInvalidParamsBeforeQuerying(t *testing.T) {
	e := newEngine(t)
	for _, q := range []string{"page=0", "page=-3", "limit=0", "limit=6", "page=abc", "limit=x"} {
		if w := do(t, e, http.MethodGet, "/api/users?"+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", q, w.Code)
		}
	}
}

func TestListSearchFilter(t *testing.T) {
	e := newEngine(t)
	do(t, e, http.MethodPost, "/api/users", `{"name":"Alice Smith","age":30,"email":"alice@example.com"}`)
	do(t, e, http.MethodPost, "/api/users", `{"name":"Bob","age":25,"address":"Main Street 4"}`)
	do(t, e, http.MethodPost, "/api/users", `{"name":"Carol","age":40,"email":"carol@other.org"}`)

	w := do(t, e, http.MethodGet, "/api/users?search=MAIN", "")
	resp := decode[listJSON](t, w)
	if resp.Total != 1 || resp.Data[0].Name != "bob" {
		t.Fatalf("address search: %+v", resp)
	}

	w = do(t, e, http.MethodGet, "/api/users?search=example.com", "")
	resp = decode[listJSON](t, w)
	if resp.Total != 1 || resp.Data[0].Name != "alice smith" {
		t.Fatalf("email search: %+v", resp)
	}
}

func TestGetByID(t *testing.T) {
	e := newEngine(t)
	w := do(t, e, http.MethodPost, "/api/users", `{"name":"alice","age":30}`)
	created := decode[envelope](t, w)

	w = do(t, e, http.MethodGet, fmt.Sprintf("/api/users/%d", created.Data.ID), "")
	if w.Code != 200 {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[envelope](t, w); got.Data.Name != "alice" {
		t.Errorf("data = %+v", got.Data)
	}

	if w := do(t, e, http.MethodGet, "/api/users/99999", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing id: status = %d", w.Code)
	}
}

func TestUpdateUnknownIDIs404(t *testing.T) {
	e := newEngine(t)
	// 非数字 id 同样按不存在处理
	for _, id := range []string{"doesnotexist", "99999"} {
		if w := do(t, e, http.MethodPut, "/api/users/"+id, `{"name":"bob"}`); w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d", id, w.Code)
		}
	}
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	e := newEngine(t)
	w := do(t, e, http.MethodPost, "/api/users", `{"name":"alice","age":30,"email":"a@b.com"}`)
	created := decode[envelope](t, w)

	w = do(t, e, http.MethodPut, fmt.Sprintf("/api/users/%d", created.Data.ID), `{"address":"  New PLACE  "}`)
	if w.Code != 200 {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	got := decode[envelope](t, w)
	if got.Data.Address != "new place" || got.Data.Name != "alice" || got.Data.Email != "a@b.com" {
		t.Errorf("data = %+v", got.Data)
	}
}

func TestUpdateDuplicateEmailRejected(t *testing.T) {
	e := newEngine(t)
	do(t, e, http.MethodPost, "/api/users", `{"name":"alice","age":30,"email":"a@b.com"}`)
	w := do(t, e, http.MethodPost, "/api/users", `{"name":"bob","age":25,"email":"b@b.com"}`)
	bob := decode[envelope](t, w)

	w = do(t, e, http.MethodPut, fmt.Sprintf("/api/users/%d", bob.Data.ID), `{"email":"a@b.com"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestDeleteThenGone(t *testing.T) {
	e := newEngine(t)
	w := do(t, e, http.MethodPost, "/api/users", `{"name":"alice","age":30}`)
	created := decode[envelope](t, w)
	path := fmt.Sprintf("/api/users/%d", created.Data.ID)

	w = do(t, e, http.MethodDelete, path, "")
	if w.Code != 200 {
		t.Fatalf("delete: %d", w.Code)
	}
	if resp := decode[envelope](t, w); resp.Message == "" {
		t.Errorf("expected confirmation message")
	}

	if w := do(t, e, http.MethodGet, path, ""); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d", w.Code)
	}
	list := decode[listJSON](t, do(t, e, http.MethodGet, "/api/users", ""))
	if list.Total != 0 {
		t.Errorf("list still has %d records", list.Total)
	}
	if w := do(t, e, http.MethodDelete, path, ""); w.Code != http.StatusNotFound {
		t.Errorf("double delete: %d", w.Code)
	}
}
