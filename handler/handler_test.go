package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/onboardkit/handler"
	"github.com/dmitrymomot/onboardkit/pkg/binder"
	"github.com/dmitrymomot/onboardkit/pkg/validator"
)

type codeRequest struct {
	Step int    `path:"step" json:"-"`
	Code string `json:"code"`
}

var errLocked = errors.New("flow locked")

func decode(t *testing.T, body *bytes.Buffer) handler.JSONResponse {
	t.Helper()
	var got handler.JSONResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &got))
	return got
}

func TestWrap(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))
	errHandler := handler.NewErrorHandler(log, func(err error) error {
		if errors.Is(err, errLocked) {
			return handler.ErrConflict.WithMessage("flow is locked")
		}
		return nil
	})

	h := handler.HandlerFunc[codeRequest](func(ctx handler.Context, req codeRequest) handler.Response {
		switch req.Code {
		case "locked":
			return handler.Error(errLocked)
		case "":
			return handler.Error(validator.Field("code", "code is required", "validation.required"))
		case "boom":
			return handler.Error(errors.New("database password is hunter2"))
		}
		return handler.JSON(map[string]any{"step": req.Step, "code": req.Code, "param": ctx.Param("step")})
	})

	mux := http.NewServeMux()
	mux.Handle("POST /steps/{step}", handler.Wrap(h,
		handler.WithBinders[codeRequest](binder.Path(func(r *http.Request, n string) string { return r.PathValue(n) }), binder.JSON()),
		handler.WithErrorHandler[codeRequest](errHandler),
	))

	do := func(body, contentType string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/steps/3", strings.NewReader(body))
		if contentType != "" {
			r.Header.Set("Content-Type", contentType)
		}
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		return w
	}

	t.Run("success", func(t *testing.T) {
		w := do(`{"code":"123456"}`, "application/json")
		assert.Equal(t, http.StatusOK, w.Code)
		got := decode(t, w.Body)
		assert.Equal(t, map[string]any{"step": float64(3), "code": "123456", "param": "3"}, got.Data)
	})

	t.Run("mapped domain error", func(t *testing.T) {
		w := do(`{"code":"locked"}`, "application/json")
		assert.Equal(t, http.StatusConflict, w.Code)
		got := decode(t, w.Body)
		require.NotNil(t, got.Error)
		assert.Equal(t, "conflict", got.Error.Code)
		assert.Equal(t, "flow is locked", got.Error.Message)
	})

	t.Run("validation errors", func(t *testing.T) {
		w := do(`{"code":""}`, "application/json")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		got := decode(t, w.Body)
		require.NotNil(t, got.Error)
		assert.Equal(t, "validation_error", got.Error.Code)
		assert.Equal(t, map[string][]string{"code": {"code is required"}}, got.Error.Details)
	})

	t.Run("internal error text is hidden", func(t *testing.T) {
		w := do(`{"code":"boom"}`, "application/json")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "hunter2")
		assert.Contains(t, logs.String(), "hunter2")
	})

	t.Run("bad json", func(t *testing.T) {
		w := do(`{"code":1}`, "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		w := do(`code=1`, "application/x-www-form-urlencoded")
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})
}

func TestWrap_NilResponse(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(handler.HandlerFunc[struct{}](func(handler.Context, struct{}) handler.Response {
		return nil
	}))
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWrap_DecoratorOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) handler.Decorator[struct{}] {
		return func(next handler.HandlerFunc[struct{}]) handler.HandlerFunc[struct{}] {
			return func(ctx handler.Context, req struct{}) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}

	h := handler.Wrap(handler.HandlerFunc[struct{}](func(handler.Context, struct{}) handler.Response {
		order = append(order, "handler")
		return handler.Empty()
	}), handler.WithDecorators(mark("outer"), mark("inner")))

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	t.Run("http error without message uses status text", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, handler.JSONError(handler.ErrNotFound).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusNotFound, w.Code)
		got := decode(t, w.Body)
		assert.Equal(t, &handler.ErrorDetail{Code: "not_found", Message: "Not Found"}, got.Error)
	})

	t.Run("new http error derives key", func(t *testing.T) {
		t.Parallel()
		err := handler.NewHTTPError(http.StatusBadGateway, "upstream down")
		assert.Equal(t, "bad_gateway", err.Key)
		assert.Equal(t, "upstream down", err.Error())
	})

	t.Run("wrapped http error", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		err := errors.Join(handler.ErrTooManyRequests.WithMessage("wait 30s"), errLocked)
		require.NoError(t, handler.JSONError(err).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "wait 30s", decode(t, w.Body).Error.Message)
	})

	t.Run("json with meta and status", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		resp := handler.JSON(map[string]string{"id": "1"},
			handler.WithJSONStatus(http.StatusCreated),
			handler.WithJSONMeta(map[string]any{"step": float64(1)}),
		)
		require.NoError(t, resp.Render(w, httptest.NewRequest(http.MethodPost, "/", nil)))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, handler.JSONResponse{
			Data: map[string]any{"id": "1"},
			Meta: map[string]any{"step": float64(1)},
		}, decode(t, w.Body))
	})
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	ve := handler.FromValidator(validator.ValidationErrors{
		{Field: "email", Message: "email is required"},
		{Field: "password", Message: "too short"},
		{Field: "password", Message: "too weak"},
	})
	assert.True(t, ve.Has("email"))
	assert.Equal(t, "too short", ve.Get("password"))
	assert.Equal(t, []string{"too short", "too weak"}, ve["password"])
	assert.Equal(t, "validation error: email: email is required, password: too short", ve.Error())
	assert.Equal(t, "Validation failed", handler.NewValidationError().Error())
}
