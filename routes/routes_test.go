package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/address-resolver/app/controllers"
	"github.com/address-resolver/app/models"
	"github.com/address-resolver/app/responses"
	"github.com/address-resolver/app/services"
	"github.com/address-resolver/internal/masterdata"
	"github.com/address-resolver/internal/parser"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	master := masterdata.NewMaster([]models.GeoRecord{
		{Subdistrict: "คลองตัน", District: "เขตคลองเตย", Province: "กรุงเทพมหานคร", PostalCode: "10110"},
		{Subdistrict: "หมากแข้ง", District: "เมืองอุดรธานี", Province: "อุดรธานี", PostalCode: "41000"},
		{Subdistrict: "บ้านเลื่อม", District: "เมืองอุดรธานี", Province: "อุดรธานี", PostalCode: "41000"},
	}, "test")

	cache := services.NewCacheService(100, time.Hour, nil)
	reviews := services.NewReviewService(services.NewMemoryReviewStore(), nil)
	addresses := services.NewAddressService(parser.NewAddressParser(nil, 0, nil), nil, master, cache, reviews,
		services.AddressServiceConfig{Suggestions: 3, QueueReviews: true, Workers: 2}, nil)
	geo := services.NewGeoService(addresses, nil, nil)
	admin := services.NewAdminService(addresses, cache, reviews, nil, nil)

	router := gin.New()
	SetupAllRoutes(router, Controllers{
		Address: controllers.NewAddressController(addresses, nil),
		Geo:     controllers.NewGeoController(geo, nil),
		Admin:   controllers.NewAdminController(admin, nil),
	})
	return router
}

func do(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			json.NewEncoder(&buf).Encode(b)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestResolveRoute(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantError  string
		wantSub    string
	}{
		{
			name:       "free text",
			body:       map[string]string{"free_text": "99 แขวงคลองตัน เขตคลองเตย กทม. 10110"},
			wantStatus: http.StatusOK,
			wantSub:    "คลองตัน",
		},
		{
			name:       "structured",
			body:       map[string]string{"subdistrict": "ต.หมากแข้ง", "postal_code": "41000.0"},
			wantStatus: http.StatusOK,
			wantSub:    "หมากแข้ง",
		},
		{
			name:       "empty",
			body:       map[string]string{},
			wantStatus: http.StatusBadRequest,
			wantError:  "EMPTY_ADDRESS",
		},
		{
			name:       "malformed json",
			body:       "{",
			wantStatus: http.StatusBadRequest,
			wantError:  "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/v1/addresses/resolve", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode[responses.ErrorResponse](t, w).Error)
				return
			}
			res := decode[models.ResolveResult](t, w)
			assert.True(t, res.Resolved.Matched)
			assert.Equal(t, tt.wantSub, res.Resolved.Subdistrict)
			assert.Equal(t, "test", res.MasterVersion)
		})
	}
}

func TestExtractRoute(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodPost, "/v1/addresses/extract", map[string]string{"text": "ต.บ้านเลื่อมอ.เมือง จ.อุดรธานี 41000"})
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[services.ExtractResult](t, w)
	assert.Equal(t, "บ้านเลื่อม", res.Cleaned.Subdistrict)
	assert.Equal(t, "41000", res.Extracted.PostalCode)

	w = do(router, http.MethodPost, "/v1/addresses/extract", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchRoute(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodPost, "/v1/addresses/batch", map[string]interface{}{
		"items": []map[string]string{
			{"postal_code": "10110"},
			{"free_text": "ไม่รู้"},
			{"subdistrict": "บ้านเลื่อม"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[responses.BatchResolveResponse](t, w)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Matched)
	require.Len(t, res.Results, 3)
	assert.Equal(t, "คลองตัน", res.Results[0].Resolved.Subdistrict)
	assert.Equal(t, "ไม่รู้", res.Results[1].Input.FreeText)
	assert.Equal(t, "บ้านเลื่อม", res.Results[2].Resolved.Subdistrict)

	w = do(router, http.MethodPost, "/v1/addresses/batch", map[string]interface{}{"items": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeoRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantTotal  int
	}{
		{name: "postal", path: "/v1/geo/postal/41000", wantStatus: http.StatusOK, wantTotal: 2},
		{name: "postal invalid", path: "/v1/geo/postal/abc", wantStatus: http.StatusBadRequest},
		{name: "provinces", path: "/v1/geo/provinces", wantStatus: http.StatusOK, wantTotal: 2},
		{name: "districts by alias", path: "/v1/geo/provinces/" + url.PathEscape("กทม") + "/districts", wantStatus: http.StatusOK, wantTotal: 1},
		{name: "districts unknown", path: "/v1/geo/provinces/" + url.PathEscape("ไม่มี") + "/districts", wantStatus: http.StatusNotFound},
		{name: "search", path: "/v1/geo/search?q=" + url.QueryEscape("เมืองอุดรธานี"), wantStatus: http.StatusOK, wantTotal: 2},
		{name: "search without q", path: "/v1/geo/search", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body struct {
				Total int `json:"total"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantTotal, body.Total)
		})
	}
}

func TestAdminReviewRoutes(t *testing.T) {
	router := newTestRouter(t)

	w := do(router, http.MethodPost, "/v1/addresses/resolve", map[string]string{"subdistrict": "ต.หมากแขง", "province": "อุดรธานี"})
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, decode[models.ResolveResult](t, w).Resolved.Matched)

	w = do(router, http.MethodGet, "/v1/admin/reviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[responses.ReviewListResponse](t, w)
	require.Equal(t, int64(1), list.Total)
	id := list.Reviews[0].ID

	w = do(router, http.MethodPost, "/v1/admin/reviews/"+id+"/correct", map[string]string{
		"reviewer_id": "alice",
		"subdistrict": "หมากแข้ง",
		"district":    "เมืองอุดรธานี",
		"province":    "อุดรธานี",
		"postal_code": "4100",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/v1/admin/reviews/"+id+"/correct", map[string]string{
		"reviewer_id": "alice",
		"subdistrict": "หมากแข้ง",
		"district":    "เมืองอุดรธานี",
		"province":    "อุดรธานี",
		"postal_code": "41000",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	action := decode[responses.ReviewActionResponse](t, w)
	assert.Equal(t, models.ReviewStatusCorrected, action.Review.Status)
	assert.Equal(t, models.StrategyManual, action.Review.FinalResult().Strategy)

	w = do(router, http.MethodPost, "/v1/admin/reviews/"+id+"/approve", map[string]string{"reviewer_id": "bob"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodPost, "/v1/admin/reviews/missing/reject", map[string]string{"reviewer_id": "bob"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodGet, "/v1/admin/reviews?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	router := newTestRouter(t)
	do(router, http.MethodPost, "/v1/addresses/resolve", map[string]string{"postal_code": "10110"})

	w := do(router, http.MethodGet, "/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[services.SystemStats](t, w)
	assert.Equal(t, int64(1), stats.Service.TotalResolved)
	require.NotNil(t, stats.Cache)
	assert.Equal(t, int64(1), stats.Cache.TotalItems)

	w = do(router, http.MethodPost, "/v1/admin/cache/invalidate", map[string]bool{"all": true})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/v1/admin/cache/invalidate", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/v1/admin/search/reindex", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestHealthAndWebRoutes(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/", "/health", "/ready", "/live", "/v1/health"} {
		t.Run(path, func(t *testing.T) {
			w := do(router, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	w := do(router, http.MethodGet, "/ready", nil)
	health := decode[responses.HealthResponse](t, w)
	assert.Equal(t, 3, health.MasterRecords)

	w = do(router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadyWithoutMaster(t *testing.T) {
	gin.SetMode(gin.TestMode)
	addresses := services.NewAddressService(parser.NewAddressParser(nil, 0, nil), nil, nil, nil, nil,
		services.AddressServiceConfig{}, nil)

	router := gin.New()
	SetupHealthRoutes(router, controllers.NewAddressController(addresses, nil))

	w := do(router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
