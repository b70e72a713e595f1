package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/guildsweep/pkg/domain/interfaces"
	"github.com/secmon-lab/guildsweep/pkg/domain/model"
	"github.com/secmon-lab/guildsweep/pkg/domain/types"
)

const (
	HeaderBotToken = "X-Bot-Token"
	HeaderGuildID  = "X-Guild-Id"

	maxBodyBytes = 64 << 10
)

// GuildHandler serves the bulk guild endpoints
type GuildHandler struct {
	guildAdmin interfaces.GuildAdmin
}

// NewGuildHandler creates a new guild handler
func NewGuildHandler(guildAdmin interfaces.GuildAdmin) *GuildHandler {
	return &GuildHandler{
		guildAdmin: guildAdmin,
	}
}

type mutationBody struct {
	RoleID string `json:"roleId"`
	Reason string `json:"reason"`
}

// HandleAddRoleAll adds a role to every member
func (h *GuildHandler) HandleAddRoleAll(w http.ResponseWriter, r *http.Request) {
	req, err := parseMutationRequest(w, r, model.OperationAddRole)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.guildAdmin.AddRoleToAll(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// HandleRemoveRoleAll removes a role from every member
func (h *GuildHandler) HandleRemoveRoleAll(w http.ResponseWriter, r *http.Request) {
	req, err := parseMutationRequest(w, r, model.OperationRemoveRole)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.guildAdmin.RemoveRoleFromAll(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// HandleUnbanAll lifts every ban
func (h *GuildHandler) HandleUnbanAll(w http.ResponseWriter, r *http.Request) {
	req, err := parseMutationRequest(w, r, model.OperationUnban)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.guildAdmin.UnbanAll(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// parseMutationRequest reads headers and body. Missing headers are
// reported before body problems.
func parseMutationRequest(w http.ResponseWriter, r *http.Request, kind model.OperationKind) (*model.MutationRequest, error) {
	req := &model.MutationRequest{
		Kind:    kind,
		Token:   types.BotToken(strings.TrimSpace(r.Header.Get(HeaderBotToken))),
		GuildID: types.GuildID(strings.TrimSpace(r.Header.Get(HeaderGuildID))),
	}
	if err := req.ValidateTarget(); err != nil {
		return nil, err
	}

	body, err := decodeBody(w, r)
	if err != nil {
		return nil, err
	}
	req.RoleID = types.RoleID(strings.TrimSpace(body.RoleID))
	req.Reason = strings.TrimSpace(body.Reason)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// decodeBody decodes an optional JSON body; an empty body is allowed
func decodeBody(w http.ResponseWriter, r *http.Request) (*mutationBody, error) {
	var body mutationBody
	if r.Body == nil {
		return &body, nil
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return &body, nil
		}
		return nil, goerr.New(fmt.Sprintf("invalid request body: %v", err),
			goerr.T(model.ErrTagValidation),
			model.WithLabel(model.LabelInvalidBody),
		)
	}
	return &body, nil
}
