package imports

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"campaign-import/internal/catalog"
	"campaign-import/internal/content"
)

func newTestRouter(env testEnv, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(env.svc, maxUpload).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartUpload(t *testing.T, fileName string, data []byte, types ...string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if data != nil {
		part, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	for _, tp := range types {
		if err := w.WriteField("types", tp); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

type errorBody struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func TestUploadValidatesWorkbook(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	r := newTestRouter(env, 0)

	body, ct := multipartUpload(t, "december.xlsx", sampleWorkbook(t), "ReviewTypeA")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		BatchID    string `json:"batchId"`
		Validation struct {
			TotalRecords  int `json:"totalRecords"`
			ValidRecords  int `json:"validRecords"`
			SkippedSheets []struct {
				SheetName string `json:"sheetName"`
			} `json:"skippedSheets"`
		} `json:"validation"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.BatchID == "" || payload.Validation.TotalRecords != 2 || payload.Validation.ValidRecords != 1 {
		t.Fatalf("unexpected payload %s", resp.Body.String())
	}
	if len(payload.Validation.SkippedSheets) != 2 {
		t.Fatalf("expected 2 skipped sheets, got %s", resp.Body.String())
	}
}

func TestUploadRequiresFile(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	r := newTestRouter(env, 0)

	body, ct := multipartUpload(t, "", nil, "ReviewTypeA")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUploadRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	r := newTestRouter(env, 0)

	body, ct := multipartUpload(t, "x.xlsx", sampleWorkbook(t), "Podcast")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUploadRejectsInvalidWorkbook(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	r := newTestRouter(env, 0)

	body, ct := multipartUpload(t, "x.xlsx", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUploadTooLarge(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	r := newTestRouter(env, 512)

	body, ct := multipartUpload(t, "x.xlsx", bytes.Repeat([]byte("a"), 4096))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "file_too_large") {
		t.Fatalf("expected file_too_large code, got %s", resp.Body.String())
	}
}

func TestValidateRowsAndDeployFlow(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	r := newTestRouter(env, 0)

	rows := `{"sheets":[{"name":"ReviewTypeA","rows":[
		["Submission No","Company","Content","Registered","Visit","Status","Link","External ID"],
		["RA-2025-0001","Acme Foods","From JSON","2025-12-05",null,"approved",null,null]
	]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/rows", strings.NewReader(rows))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		BatchID string `json:"batchId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	getResp := httptest.NewRecorder()
	r.ServeHTTP(getResp, httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+created.BatchID, nil))
	if getResp.Code != http.StatusOK {
		t.Fatalf("expected 200 on get, got %d", getResp.Code)
	}

	deployResp := httptest.NewRecorder()
	r.ServeHTTP(deployResp, httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+created.BatchID+"/deploy", nil))
	if deployResp.Code != http.StatusOK {
		t.Fatalf("expected 200 on deploy, got %d: %s", deployResp.Code, deployResp.Body.String())
	}
	var deployed DeployResponse
	if err := json.Unmarshal(deployResp.Body.Bytes(), &deployed); err != nil {
		t.Fatalf("decode deploy: %v", err)
	}
	if deployed.BatchID != created.BatchID || !deployed.Result.Success || deployed.Result.SuccessCount != 1 {
		t.Fatalf("unexpected deploy response %s", deployResp.Body.String())
	}
	if got := len(env.content.List("review_a_contents")); got != 1 {
		t.Fatalf("expected 1 stored row, got %d", got)
	}
}

func TestValidateRowsRejectsBadBody(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	r := newTestRouter(env, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports/rows", strings.NewReader(`{"sheets":`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetAndDeployUnknownBatch(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	r := newTestRouter(env, 0)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/imports/nope"},
		{http.MethodPost, "/api/v1/imports/nope/deploy"},
	} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(tc.method, tc.path, nil))
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestDeployStoreOutageReturns502WithPartialResult(t *testing.T) {
	env := newTestEnv(t, downStore{}, nil)
	r := newTestRouter(env, 0)

	body, ct := multipartUpload(t, "x.xlsx", sampleWorkbook(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var created Batch
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	deployResp := httptest.NewRecorder()
	r.ServeHTTP(deployResp, httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+created.ID+"/deploy", nil))
	if deployResp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", deployResp.Code, deployResp.Body.String())
	}
	var eb errorBody
	if err := json.Unmarshal(deployResp.Body.Bytes(), &eb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if eb.Error.Code != "deploy_failed" || !strings.Contains(eb.Error.Message, content.ErrStoreUnavailable.Error()) {
		t.Fatalf("unexpected error body %s", deployResp.Body.String())
	}
	var details DeployResponse
	if err := json.Unmarshal(eb.Error.Details, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.BatchID != created.ID || details.Result.Success {
		t.Fatalf("expected failed partial result, got %+v", details)
	}
}

func TestValidateLookupFailureReturns502(t *testing.T) {
	env := newTestEnv(t, nil, failingDirectory{err: content.ErrStoreUnavailable})
	r := newTestRouter(env, 0)

	body, ct := multipartUpload(t, "x.xlsx", sampleWorkbook(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", body)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}

func TestProductTypesListsRegistry(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	r := newTestRouter(env, 0)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/product-types", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var types []ProductTypeResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &types); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(types) != len(env.svc.Registry.Types()) {
		t.Fatalf("expected %d types, got %d", len(env.svc.Registry.Types()), len(types))
	}
	first := types[0]
	if first.Type != string(catalog.ReviewA) || first.Prefix != "RA" || !first.HasStatusRule || len(first.Columns) == 0 {
		t.Fatalf("unexpected first type %+v", first)
	}
}
