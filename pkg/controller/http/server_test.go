package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	controller "github.com/secmon-lab/guildsweep/pkg/controller/http"
	"github.com/secmon-lab/guildsweep/pkg/domain/model"
	"github.com/secmon-lab/guildsweep/pkg/domain/types"
	"github.com/secmon-lab/guildsweep/pkg/service/discord"
	"github.com/secmon-lab/guildsweep/pkg/usecase"
	"github.com/secmon-lab/guildsweep/pkg/utils/pacing"
)

const (
	testToken types.BotToken = "bot-token"
	testGuild types.GuildID  = "G1"
)

func setupPlatform(members int, bans int) *discord.Memory {
	mem := discord.NewMemory()
	mem.PutGuild(model.Guild{ID: testGuild, Name: "test guild", OwnerID: "OWNER"})
	mem.PutRole(testGuild, model.Role{ID: "R-LOW", Name: "low", Position: 1})
	mem.PutRole(testGuild, model.Role{ID: "R-HIGH", Name: "high", Position: 9})
	for i := 0; i < members; i++ {
		mem.PutMember(testGuild, model.Member{
			UserID: types.UserID(fmt.Sprintf("U%02d", i)),
			Label:  fmt.Sprintf("user%02d", i),
		})
	}
	for i := 0; i < bans; i++ {
		mem.PutBan(testGuild, model.Ban{
			UserID: types.UserID(fmt.Sprintf("B%02d", i)),
			Label:  fmt.Sprintf("banned%02d", i),
		})
	}
	mem.PutBot(testToken, testGuild, "BOT", types.AllCapabilities(), 5)
	return mem
}

func setupServer(t *testing.T, mem *discord.Memory) *controller.Server {
	uc := usecase.NewGuildAdmin(mem, usecase.WithPacer(pacing.NewRecorder()))
	server, err := controller.NewServer(context.Background(), ":0", "test", uc)
	gt.NoError(t, err).Required()
	return server
}

func doRequest(server *controller.Server, method, path string, headers map[string]string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)
	return w
}

func validHeaders() map[string]string {
	return map[string]string{
		"x-bot-token": testToken.String(),
		"x-guild-id":  testGuild.String(),
	}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	var resp model.ErrorResponse
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp)).Required()
	gt.False(t, resp.Success)
	return resp
}

func TestIndex(t *testing.T) {
	server := setupServer(t, setupPlatform(0, 0))

	w := doRequest(server, http.MethodGet, "/", nil, "")
	gt.Equal(t, w.Code, http.StatusOK)
	gt.S(t, w.Header().Get("Content-Type")).Contains("application/json")

	var resp struct {
		Status    string   `json:"status"`
		Service   string   `json:"service"`
		Version   string   `json:"version"`
		Endpoints []string `json:"endpoints"`
	}
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp)).Required()
	gt.Equal(t, resp.Status, "ok")
	gt.Equal(t, resp.Service, "guildsweep")
	gt.Equal(t, resp.Version, "test")
	gt.A(t, resp.Endpoints).Length(5)
}

func TestHealth(t *testing.T) {
	server := setupServer(t, setupPlatform(0, 0))

	w := doRequest(server, http.MethodGet, "/health", nil, "")
	gt.Equal(t, w.Code, http.StatusOK)
	gt.True(t, strings.Contains(w.Body.String(), "healthy"))
}

func TestRequestValidation(t *testing.T) {
	testCases := []struct {
		name    string
		path    string
		headers map[string]string
		body    string
		label   string
	}{
		{
			name:    "missing token",
			path:    "/addroleall",
			headers: map[string]string{"x-guild-id": testGuild.String()},
			body:    `{"roleId":"R-LOW"}`,
			label:   "missing_bot_token",
		},
		{
			name:    "blank token",
			path:    "/unbanall",
			headers: map[string]string{"x-bot-token": "  ", "x-guild-id": testGuild.String()},
			label:   "missing_bot_token",
		},
		{
			name:    "missing guild",
			path:    "/roleremoveall",
			headers: map[string]string{"x-bot-token": testToken.String()},
			body:    `{"roleId":"R-LOW"}`,
			label:   "missing_guild_id",
		},
		{
			name:    "missing headers reported before a broken body",
			path:    "/addroleall",
			headers: map[string]string{},
			body:    `{broken`,
			label:   "missing_bot_token",
		},
		{
			name:    "missing role id",
			path:    "/addroleall",
			headers: validHeaders(),
			body:    `{"reason":"cleanup"}`,
			label:   "missing_role_id",
		},
		{
			name:    "empty body on role endpoint",
			path:    "/roleremoveall",
			headers: validHeaders(),
			label:   "missing_role_id",
		},
		{
			name:    "malformed body",
			path:    "/addroleall",
			headers: validHeaders(),
			body:    `{"roleId":`,
			label:   "invalid_body",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mem := setupPlatform(3, 3)
			server := setupServer(t, mem)

			w := doRequest(server, http.MethodPost, tc.path, tc.headers, tc.body)
			gt.Equal(t, w.Code, http.StatusBadRequest)

			resp := decodeError(t, w)
			gt.Equal(t, resp.Error, tc.label)
			gt.True(t, resp.Detail != "")

			// nothing reaches the platform
			gt.Equal(t, mem.Stats().Opened, 0)
			gt.Equal(t, mem.Stats().Mutations, 0)
		})
	}
}

func TestAddRoleAllEndpoint(t *testing.T) {
	mem := setupPlatform(4, 0)
	server := setupServer(t, mem)

	w := doRequest(server, http.MethodPost, "/addroleall", validHeaders(), `{"roleId":"R-LOW","reason":"onboarding"}`)
	gt.Equal(t, w.Code, http.StatusOK)

	var resp model.RoleBatchResponse
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp)).Required()
	gt.True(t, resp.Success)
	gt.Equal(t, resp.RoleID, types.RoleID("R-LOW"))
	gt.Equal(t, resp.RoleName, "low")
	gt.Equal(t, resp.TotalMembers, 4)
	gt.Equal(t, resp.SuccessCount, 4)
	gt.Equal(t, resp.SkipCount, 0)
	gt.Equal(t, resp.ErrorCount, 0)
	gt.A(t, resp.Errors).Length(0)
	gt.S(t, resp.Detail).Contains("low")

	// errors is always an array on the wire
	gt.True(t, strings.Contains(w.Body.String(), `"errors":[]`))

	// second call is a no-op
	w = doRequest(server, http.MethodPost, "/addroleall", validHeaders(), `{"roleId":"R-LOW"}`)
	gt.Equal(t, w.Code, http.StatusOK)
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp)).Required()
	gt.Equal(t, resp.SuccessCount, 0)
	gt.Equal(t, resp.SkipCount, 4)
	gt.Equal(t, mem.Stats().Mutations, 4)
	gt.Equal(t, mem.Stats().Opened, 2)
	gt.Equal(t, mem.Stats().Closed, 2)
}

func TestRoleRemoveAllEndpoint(t *testing.T) {
	mem := setupPlatform(3, 0)
	mem.FailOn("U01", goerr.New("Missing Access"))
	server := setupServer(t, mem)

	w := doRequest(server, http.MethodPost, "/addroleall", validHeaders(), `{"roleId":"R-LOW"}`)
	gt.Equal(t, w.Code, http.StatusOK)

	w = doRequest(server, http.MethodPost, "/roleremoveall", validHeaders(), `{"roleId":"R-LOW"}`)
	gt.Equal(t, w.Code, http.StatusOK)

	var resp model.RoleBatchResponse
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp)).Required()
	gt.True(t, resp.Success)
	gt.Equal(t, resp.TotalMembers, 3)
	gt.Equal(t, resp.SuccessCount, 2)
	gt.Equal(t, resp.SkipCount, 1)
	gt.Equal(t, resp.ErrorCount, 0)
}

func TestUnbanAllEndpoint(t *testing.T) {
	t.Run("unbans everyone", func(t *testing.T) {
		mem := setupPlatform(0, 3)
		server := setupServer(t, mem)

		w := doRequest(server, http.MethodPost, "/unbanall", validHeaders(), "")
		gt.Equal(t, w.Code, http.StatusOK)

		var resp model.UnbanBatchResponse
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp)).Required()
		gt.True(t, resp.Success)
		gt.Equal(t, resp.TotalBans, 3)
		gt.Equal(t, resp.SuccessCount, 3)
		gt.Equal(t, resp.UnbannedUsers, []string{"banned00", "banned01", "banned02"})
		gt.Equal(t, mem.BanCount(testGuild), 0)
	})

	t.Run("no bans", func(t *testing.T) {
		mem := setupPlatform(2, 0)
		server := setupServer(t, mem)

		w := doRequest(server, http.MethodPost, "/unbanall", validHeaders(), `{"reason":"amnesty"}`)
		gt.Equal(t, w.Code, http.StatusOK)

		body := w.Body.String()
		gt.True(t, strings.Contains(body, `"totalBans":0`))
		gt.True(t, strings.Contains(body, `"errors":[]`))
		gt.True(t, strings.Contains(body, `"unbannedUsers":[]`))
		gt.Equal(t, mem.Stats().Mutations, 0)
		gt.Equal(t, mem.Stats().Closed, 1)
	})
}

func TestPreconditionFailures(t *testing.T) {
	t.Run("missing capability", func(t *testing.T) {
		mem := setupPlatform(2, 2)
		mem.PutBot("weak-token", testGuild, "WEAK", types.NewCapabilitySet(types.CapabilityManageRoles), 5)
		server := setupServer(t, mem)

		headers := validHeaders()
		headers["x-bot-token"] = "weak-token"
		w := doRequest(server, http.MethodPost, "/unbanall", headers, "")
		gt.Equal(t, w.Code, http.StatusForbidden)

		resp := decodeError(t, w)
		gt.Equal(t, resp.Error, "insufficient_permission")
		gt.S(t, resp.Detail).Contains("ban members")
		gt.Equal(t, mem.Stats().Opened, 1)
		gt.Equal(t, mem.Stats().Closed, 1)
		gt.Equal(t, mem.Stats().Mutations, 0)
	})

	t.Run("role above the bot", func(t *testing.T) {
		mem := setupPlatform(2, 0)
		server := setupServer(t, mem)

		w := doRequest(server, http.MethodPost, "/addroleall", validHeaders(), `{"roleId":"R-HIGH"}`)
		gt.Equal(t, w.Code, http.StatusForbidden)
		gt.Equal(t, decodeError(t, w).Error, "role_precedence_violation")
		gt.Equal(t, mem.Stats().Mutations, 0)
		gt.Equal(t, mem.Stats().Closed, 1)
	})

	t.Run("unknown guild", func(t *testing.T) {
		mem := setupPlatform(2, 0)
		server := setupServer(t, mem)

		headers := validHeaders()
		headers["x-guild-id"] = "G-UNKNOWN"
		w := doRequest(server, http.MethodPost, "/addroleall", headers, `{"roleId":"R-LOW"}`)
		gt.Equal(t, w.Code, http.StatusNotFound)
		gt.Equal(t, decodeError(t, w).Error, "guild_not_found")
		gt.Equal(t, mem.Stats().Closed, 1)
	})

	t.Run("unknown role", func(t *testing.T) {
		mem := setupPlatform(2, 0)
		server := setupServer(t, mem)

		w := doRequest(server, http.MethodPost, "/roleremoveall", validHeaders(), `{"roleId":"R-NONE"}`)
		gt.Equal(t, w.Code, http.StatusNotFound)
		gt.Equal(t, decodeError(t, w).Error, "role_not_found")
	})

	t.Run("rejected token", func(t *testing.T) {
		mem := setupPlatform(2, 0)
		server := setupServer(t, mem)

		headers := validHeaders()
		headers["x-bot-token"] = "unknown-token"
		w := doRequest(server, http.MethodPost, "/addroleall", headers, `{"roleId":"R-LOW"}`)
		gt.Equal(t, w.Code, http.StatusInternalServerError)
		gt.Equal(t, decodeError(t, w).Error, "authentication_failed")
		gt.Equal(t, mem.Stats().Opened, 0)
	})
}

func TestClassifyError(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		label  model.ErrorLabel
	}{
		{
			name:   "wrapped guild not found",
			err:    goerr.Wrap(model.ErrGuildNotFound, "failed to get guild"),
			status: http.StatusNotFound,
			label:  model.LabelGuildNotFound,
		},
		{
			name:   "unlabelled validation",
			err:    goerr.New("bad", goerr.T(model.ErrTagValidation)),
			status: http.StatusBadRequest,
			label:  model.LabelInvalidRequest,
		},
		{
			name:   "authentication",
			err:    goerr.Wrap(goerr.New("401", goerr.T(model.ErrTagAuthentication)), "failed to connect"),
			status: http.StatusInternalServerError,
			label:  model.LabelAuthentication,
		},
		{
			name:   "untagged",
			err:    goerr.New("boom"),
			status: http.StatusInternalServerError,
			label:  model.LabelInternal,
		},
		{
			name:   "batch timeout",
			err:    goerr.Wrap(context.DeadlineExceeded, "batch stopped after 1 of 4 items"),
			status: http.StatusInternalServerError,
			label:  model.LabelInternal,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, label := controller.ClassifyError(tc.err)
			gt.Equal(t, status, tc.status)
			gt.Equal(t, label, tc.label)
		})
	}
}

// hangupPacer cancels the request context at the first pause
type hangupPacer struct {
	cancel context.CancelFunc
}

func (p *hangupPacer) Pause(ctx context.Context, d time.Duration) error {
	p.cancel()
	return ctx.Err()
}

func TestClientDisconnectCompletesBatch(t *testing.T) {
	mem := setupPlatform(4, 0)
	reqCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uc := usecase.NewGuildAdmin(mem, usecase.WithPacer(&hangupPacer{cancel: cancel}))
	server, err := controller.NewServer(context.Background(), ":0", "test", uc)
	gt.NoError(t, err).Required()

	req := httptest.NewRequest(http.MethodPost, "/addroleall", strings.NewReader(`{"roleId":"R-LOW"}`)).WithContext(reqCtx)
	for k, v := range validHeaders() {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	gt.Equal(t, w.Code, http.StatusOK)
	gt.Equal(t, mem.Stats().Mutations, 4)
	gt.Equal(t, mem.Stats().Closed, 1)

	var resp model.RoleBatchResponse
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp)).Required()
	gt.Equal(t, resp.SuccessCount, 4)
}
