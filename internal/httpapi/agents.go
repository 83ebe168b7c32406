package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/buildtall-systems/pidebot/internal/agents/design"
	"github.com/buildtall-systems/pidebot/internal/agents/reservation"
	"github.com/buildtall-systems/pidebot/internal/agents/scaffold"
	"github.com/buildtall-systems/pidebot/internal/commands"
	"github.com/buildtall-systems/pidebot/internal/execmon"
	"github.com/buildtall-systems/pidebot/internal/prompts"
)

type MessageReq struct {
	Customer string `json:"customer"`
	Text     string `json:"text"`
}

type MessageResp struct {
	Agent   string `json:"agent"`
	Action  string `json:"action,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// postMessage runs chat text through the same dispatcher the bot uses.
// Admin commands are refused; operators use /stats and /monitor.
func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageReq
	if !decode(w, r, &req) {
		return
	}
	cmd := commands.Parse(req.Text)
	if req.Customer == "" || cmd == nil {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	res := commands.Execute(r.Context(), h.App, cmd, commands.Sender{ID: req.Customer})
	resp := MessageResp{Agent: res.Agent, Action: res.Action, Message: res.Message}
	code := http.StatusOK
	if res.Error != nil {
		resp.Error = res.Error.Error()
		resp.Message = commands.ErrorText(h.App, res.Error)
		code = http.StatusUnprocessableEntity
		if errors.Is(res.Error, commands.ErrAdminOnly) {
			code = http.StatusForbidden
		}
	}
	writeJSON(w, code, resp)
}

type DesignReq struct {
	RoomType     string          `json:"room_type"`
	Dimensions   string          `json:"dimensions"`
	Style        string          `json:"style"`
	Budget       decimal.Decimal `json:"budget"`
	Requirements []string        `json:"requirements"`
}

type DesignLine struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

type DesignPlacement struct {
	ItemID   string  `json:"item_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation int     `json:"rotation"`
}

type DesignResp struct {
	ID              string            `json:"id"`
	RoomType        string            `json:"room_type"`
	Style           string            `json:"style"`
	Width           float64           `json:"width"`
	Length          float64           `json:"length"`
	TotalCost       decimal.Decimal   `json:"total_cost"`
	Budget          decimal.Decimal   `json:"budget"`
	Remaining       decimal.Decimal   `json:"remaining"`
	Efficiency      float64           `json:"efficiency"`
	Shopping        []DesignLine      `json:"shopping"`
	Placements      []DesignPlacement `json:"placements"`
	Dropped         []string          `json:"dropped,omitempty"`
	Recommendations []string          `json:"recommendations"`
	Summary         string            `json:"summary"`
}

func (h *Handler) createDesign(w http.ResponseWriter, r *http.Request) {
	var req DesignReq
	if !decode(w, r, &req) {
		return
	}
	if req.RoomType == "" || req.Dimensions == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	a := h.App
	d, err := execmon.Do(r.Context(), a.Exec, commands.AgentDesign, "http_design", len(req.RoomType)+len(req.Dimensions), func(ctx context.Context) (design.Design, error) {
		return a.Design.Generate(ctx, design.Request{
			RoomType:     req.RoomType,
			Dimensions:   req.Dimensions,
			Style:        req.Style,
			Budget:       req.Budget,
			Requirements: req.Requirements,
		})
	})
	if err != nil {
		writeError(w, statusFor(err,
			design.ErrUnknownRoomType, design.ErrInvalidDimensions, design.ErrRoomTooSmall,
			design.ErrInvalidBudget, design.ErrNoFurniture,
		), err.Error())
		return
	}

	resp := DesignResp{
		ID:              d.ID,
		RoomType:        d.RoomType,
		Style:           d.Style,
		Width:           d.Room.Width,
		Length:          d.Room.Length,
		TotalCost:       d.TotalCost,
		Budget:          d.Budget,
		Remaining:       d.Remaining,
		Efficiency:      d.Layout.Efficiency,
		Recommendations: d.Recommendations,
		Summary:         a.Design.Summary(d),
	}
	for _, l := range d.Shopping {
		resp.Shopping = append(resp.Shopping, DesignLine{
			ItemID: l.ItemID, Name: l.Name, Category: l.Category,
			Quantity: l.Quantity, UnitPrice: l.UnitPrice, Total: l.Total,
		})
	}
	for _, p := range d.Layout.Placed {
		resp.Placements = append(resp.Placements, DesignPlacement{ItemID: p.Item.Ref, X: p.X, Y: p.Y, Rotation: p.Rotation})
	}
	for _, it := range d.Layout.Dropped {
		resp.Dropped = append(resp.Dropped, it.Ref)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ReservationReq either carries free text or the structured fields.
type ReservationReq struct {
	Customer     string   `json:"customer"`
	Text         string   `json:"text,omitempty"`
	RestaurantID string   `json:"restaurant_id,omitempty"`
	Date         string   `json:"date,omitempty"`
	Time         string   `json:"time,omitempty"`
	PartySize    int      `json:"party_size,omitempty"`
	Requests     []string `json:"requests,omitempty"`
}

type ReservationResp struct {
	Action       string   `json:"action"`
	Message      string   `json:"message"`
	Code         string   `json:"code,omitempty"`
	Missing      []string `json:"missing,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
	var req ReservationReq
	if !decode(w, r, &req) {
		return
	}
	if req.Customer == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}

	a := h.App
	reply, err := execmon.Do(r.Context(), a.Exec, commands.AgentReservation, "http_reservation", len(req.Text), func(ctx context.Context) (reservation.Reply, error) {
		if req.Text != "" {
			return a.Reservation.HandleMessage(ctx, req.Customer, req.Text)
		}
		br := reservation.Request{
			VenueID:   req.RestaurantID,
			Date:      req.Date,
			Time:      req.Time,
			PartySize: req.PartySize,
			Special:   req.Requests,
		}
		if missing := br.Missing(); len(missing) > 0 {
			text := a.Prompts.MustRender("reservation_missing_info", map[string]any{"missing_fields_list": prompts.FormatList(missing, prompts.Bullet)})
			return reservation.Reply{Text: text, Action: "request_info", Request: br, Missing: missing}, nil
		}
		return a.Reservation.Book(ctx, req.Customer, br)
	})
	if err != nil {
		writeError(w, statusFor(err, reservation.ErrUnknownVenue, reservation.ErrInvalidDate), err.Error())
		return
	}

	resp := ReservationResp{
		Action:       reply.Action,
		Message:      reply.Text,
		Missing:      reply.Missing,
		Alternatives: reply.Alternatives,
	}
	code := http.StatusOK
	if reply.Reservation != nil {
		resp.Code = reply.Reservation.Code()
		code = http.StatusCreated
	}
	writeJSON(w, code, resp)
}

type ScaffoldReq struct {
	Spec    string `json:"spec"`
	Format  string `json:"format"`
	Analyze bool   `json:"analyze"`
}

type ScaffoldResp struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Files map[string]string `json:"files"`
}

type AnalysisResp struct {
	Models          int      `json:"models"`
	Endpoints       int      `json:"endpoints"`
	Complexity      int      `json:"complexity"`
	TotalHours      int      `json:"total_hours"`
	EstimatedDays   int      `json:"estimated_days"`
	MissingElements []string `json:"missing_elements,omitempty"`
}

func (h *Handler) createScaffold(w http.ResponseWriter, r *http.Request) {
	var req ScaffoldReq
	if !decode(w, r, &req) {
		return
	}
	if req.Spec == "" {
		writeError(w, http.StatusBadRequest, "missing fields")
		return
	}
	format, err := scaffold.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	clientErrs := []error{scaffold.ErrInvalidSpec, scaffold.ErrNoModels}

	a := h.App
	if req.Analyze {
		an, err := a.Scaffold.Analyze(req.Spec, format)
		if err != nil {
			writeError(w, statusFor(err, clientErrs...), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, AnalysisResp{
			Models:          an.Models,
			Endpoints:       an.Endpoints,
			Complexity:      an.Complexity,
			TotalHours:      an.TotalHours,
			EstimatedDays:   an.EstimatedDays,
			MissingElements: an.MissingElements,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	g, err := execmon.Do(ctx, a.Exec, commands.AgentScaffold, "http_scaffold", len(req.Spec), func(ctx context.Context) (scaffold.Generation, error) {
		return a.Scaffold.Generate(ctx, req.Spec, format)
	})
	if err != nil {
		writeError(w, statusFor(err, clientErrs...), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ScaffoldResp{ID: g.ID, Title: g.API.Title, Files: g.Files})
}

type StatsResp struct {
	Since           time.Time      `json:"since"`
	Executions      int            `json:"executions"`
	UniqueAgents    int            `json:"unique_agents"`
	SuccessRate     float64        `json:"success_rate"`
	AvgDurationMs   int64          `json:"avg_duration_ms"`
	ByAgent         map[string]int `json:"by_agent"`
	MostActive      string         `json:"most_active,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	OrdersByState   map[string]int `json:"orders_by_state"`
	MonitorRunning  bool           `json:"monitor_running"`
	ActiveOrders    int            `json:"active_orders"`
}

// getStats takes an optional ?window=1h duration, 24h by default.
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	window := commands.StatsWindow
	if q := r.URL.Query().Get("window"); q != "" {
		d, err := time.ParseDuration(q)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "invalid window")
			return
		}
		window = d
	}

	since := time.Now().Add(-window)
	s, err := h.App.Stats(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := StatsResp{
		Since:           since,
		Executions:      s.Executions.Total,
		UniqueAgents:    s.Executions.UniqueAgents,
		SuccessRate:     s.Executions.SuccessRate,
		AvgDurationMs:   s.Executions.AvgDuration.Milliseconds(),
		ByAgent:         make(map[string]int, len(s.Executions.Agents)),
		MostActive:      s.Executions.MostActive,
		Recommendations: s.Executions.Recommendations,
		OrdersByState:   s.OrdersByState,
		MonitorRunning:  s.MonitorRunning,
		ActiveOrders:    len(s.Monitor.Orders),
	}
	for _, ac := range s.Executions.Agents {
		resp.ByAgent[ac.Agent] = ac.Count
	}
	writeJSON(w, http.StatusOK, resp)
}
