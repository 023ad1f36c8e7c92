package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/goalside/matchtrack/internal/match"
	"github.com/goalside/matchtrack/internal/settings"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "MatchTrack API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the match-event tracker.")

	// POST /api/match
	postMatch, _ := r.NewOperationContext(http.MethodPost, "/api/match")
	postMatch.SetSummary("Start match")
	postMatch.SetDescription("Starts a new active match with the timer running in period 1.")
	postMatch.AddReqStructure(StartMatchRequest{})
	postMatch.AddRespStructure(MatchStateResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postMatch)

	// GET /api/match
	getMatch, _ := r.NewOperationContext(http.MethodGet, "/api/match")
	getMatch.SetSummary("Active match state")
	getMatch.SetDescription("Returns the live match with derived score, elapsed time, and timeline.")
	getMatch.AddRespStructure(MatchStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMatch)

	// DELETE /api/match
	endMatch, _ := r.NewOperationContext(http.MethodDelete, "/api/match")
	endMatch.SetSummary("End match")
	endMatch.SetDescription("Finalizes the active match into history and the archive.")
	endMatch.AddRespStructure(match.Summary{}, openapi.WithHTTPStatus(http.StatusOK))
	endMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(endMatch)

	// GET /api/match/stream
	getStream, _ := r.NewOperationContext(http.MethodGet, "/api/match/stream")
	getStream.SetSummary("State change stream")
	getStream.SetDescription("Server-Sent Events stream of state-change notifications.")
	getStream.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getStream)

	// POST /api/match/goals
	postGoal, _ := r.NewOperationContext(http.MethodPost, "/api/match/goals")
	postGoal.SetSummary("Record goal")
	postGoal.SetDescription("Appends a goal to the active match. Scorer and assist apply to my-team goals only.")
	postGoal.AddReqStructure(AddGoalRequest{})
	postGoal.AddRespStructure(MatchStateResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postGoal.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGoal.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postGoal)

	// DELETE /api/match/goals/{id}
	deleteGoal, _ := r.NewOperationContext(http.MethodDelete, "/api/match/goals/{id}")
	deleteGoal.SetSummary("Delete goal")
	deleteGoal.SetDescription("Removes a goal by id. Unknown ids are ignored.")
	deleteGoal.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	_ = r.AddOperation(deleteGoal)

	// POST /api/match/events
	postEvent, _ := r.NewOperationContext(http.MethodPost, "/api/match/events")
	postEvent.SetSummary("Record timeline event")
	postEvent.AddReqStructure(AddEventRequest{})
	postEvent.AddRespStructure(MatchStateResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postEvent)

	// DELETE /api/match/events/{id}
	deleteEvent, _ := r.NewOperationContext(http.MethodDelete, "/api/match/events/{id}")
	deleteEvent.SetSummary("Delete timeline event")
	deleteEvent.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	_ = r.AddOperation(deleteEvent)

	// POST /api/match/undo
	postUndo, _ := r.NewOperationContext(http.MethodPost, "/api/match/undo")
	postUndo.SetSummary("Undo last entry")
	postUndo.SetDescription("Removes the most recently recorded goal or timeline event.")
	postUndo.AddRespStructure(MatchStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postUndo.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postUndo)

	// POST /api/match/timer/toggle
	postToggle, _ := r.NewOperationContext(http.MethodPost, "/api/match/timer/toggle")
	postToggle.SetSummary("Pause or resume the timer")
	postToggle.AddRespStructure(MatchStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postToggle.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postToggle)

	// POST /api/match/period/start
	postPeriodStart, _ := r.NewOperationContext(http.MethodPost, "/api/match/period/start")
	postPeriodStart.SetSummary("Start period")
	postPeriodStart.SetDescription("Resumes play; advances the period number if the previous period was ended.")
	postPeriodStart.AddRespStructure(MatchStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPeriodStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postPeriodStart)

	// POST /api/match/period/end
	postPeriodEnd, _ := r.NewOperationContext(http.MethodPost, "/api/match/period/end")
	postPeriodEnd.SetSummary("End period")
	postPeriodEnd.AddRespStructure(MatchStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPeriodEnd.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postPeriodEnd)

	// GET /api/history
	getHistory, _ := r.NewOperationContext(http.MethodGet, "/api/history")
	getHistory.SetSummary("Match history")
	getHistory.SetDescription("Finalized match summaries, most recent first.")
	getHistory.AddRespStructure([]match.Summary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getHistory)

	// GET /api/history/{id}
	getDetails, _ := r.NewOperationContext(http.MethodGet, "/api/history/{id}")
	getDetails.SetSummary("Match details")
	getDetails.AddRespStructure(MatchStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getDetails.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getDetails)

	// DELETE /api/history/{id}
	deleteMatchOp, _ := r.NewOperationContext(http.MethodDelete, "/api/history/{id}")
	deleteMatchOp.SetSummary("Delete finalized match")
	deleteMatchOp.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	_ = r.AddOperation(deleteMatchOp)

	// GET /api/settings
	getSettings, _ := r.NewOperationContext(http.MethodGet, "/api/settings")
	getSettings.SetSummary("Get settings")
	getSettings.AddRespStructure(settings.Settings{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getSettings)

	// PUT /api/settings
	putSettings, _ := r.NewOperationContext(http.MethodPut, "/api/settings")
	putSettings.SetSummary("Replace settings")
	putSettings.SetDescription("Replaces the whole settings document. A changed sync token re-activates sync.")
	putSettings.AddReqStructure(settings.Settings{})
	putSettings.AddRespStructure(settings.Settings{}, openapi.WithHTTPStatus(http.StatusOK))
	putSettings.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(putSettings)

	// GET /v1/state/{token}
	getState, _ := r.NewOperationContext(http.MethodGet, "/v1/state/{token}")
	getState.SetSummary("Fetch sync blob")
	getState.SetDescription("Returns the whole state blob stored for the token, 404 when none exists.")
	getState.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("application/json"))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getState)

	// PUT /v1/state/{token}
	putState, _ := r.NewOperationContext(http.MethodPut, "/v1/state/{token}")
	putState.SetSummary("Store sync blob")
	putState.SetDescription("Replaces the whole state blob for the token. Last writer wins.")
	putState.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	putState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(putState)

	// GET /ws/clock
	getClock, _ := r.NewOperationContext(http.MethodGet, "/ws/clock")
	getClock.SetSummary("Clock websocket")
	getClock.SetDescription("Upgrades to a WebSocket pushing elapsed time, period, and score once per second.")
	getClock.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getClock)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
