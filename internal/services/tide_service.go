package services

import (
	"context"
	"fmt"
	"time"

	"tides-mcp/internal/logging"
	"tides-mcp/internal/storage"

	"github.com/go-playground/validator/v10"
)

// TideService implements the four tidal workflow operations exposed
// through the tool boundary. Every internal failure is converted to a
// success=false result; the only errors returned are argument
// validation failures, which the tool layer reports as tool errors.
type TideService struct {
	store    storage.TideStore
	logger   *logging.Logger
	validate *validator.Validate
}

// NewTideService creates a new TideService.
func NewTideService(store storage.TideStore, logger *logging.Logger) *TideService {
	return &TideService{
		store:    store,
		logger:   logger,
		validate: validator.New(),
	}
}

// CreateTideInput are the arguments of the create_tide tool.
type CreateTideInput struct {
	Name        string `json:"name" validate:"required"`
	FlowType    string `json:"flow_type" validate:"required,oneof=daily weekly project seasonal"`
	Description string `json:"description"`
}

// CreateTideResult is the create_tide result payload.
type CreateTideResult struct {
	Success   bool   `json:"success"`
	TideID    string `json:"tide_id"`
	Name      string `json:"name"`
	FlowType  string `json:"flow_type"`
	CreatedAt string `json:"created_at"`
	NextFlow  string `json:"next_flow,omitempty"`
}

// ListTidesInput are the arguments of the list_tides tool.
type ListTidesInput struct {
	FlowType   string `json:"flow_type" validate:"omitempty,oneof=daily weekly project seasonal"`
	ActiveOnly bool   `json:"active_only"`
}

// TideSummary is the per-tide view returned by list_tides.
type TideSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FlowType  string `json:"flow_type"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	LastFlow  string `json:"last_flow,omitempty"`
	NextFlow  string `json:"next_flow,omitempty"`
}

// ListTidesResult is the list_tides result payload.
type ListTidesResult struct {
	Tides []TideSummary `json:"tides"`
	Total int           `json:"total"`
}

// FlowTideInput are the arguments of the flow_tide tool.
type FlowTideInput struct {
	TideID    string `json:"tide_id" validate:"required"`
	Intensity string `json:"intensity" validate:"omitempty,oneof=gentle moderate strong"`
	Duration  int    `json:"duration" validate:"min=0"`
}

// FlowTideResult is the flow_tide result payload.
type FlowTideResult struct {
	Success             bool     `json:"success"`
	TideID              string   `json:"tide_id"`
	FlowStarted         string   `json:"flow_started"`
	EstimatedCompletion string   `json:"estimated_completion"`
	FlowGuidance        string   `json:"flow_guidance"`
	NextActions         []string `json:"next_actions"`
}

// EndTideInput are the arguments of the end_tide tool.
type EndTideInput struct {
	TideID string `json:"tide_id" validate:"required"`
	Status string `json:"status" validate:"omitempty,oneof=completed paused"`
	Notes  string `json:"notes"`
}

// EndTideResult is the end_tide result payload.
type EndTideResult struct {
	Success        bool   `json:"success"`
	TideID         string `json:"tide_id"`
	FinalStatus    string `json:"final_status"`
	CompletionTime string `json:"completion_time"`
	Summary        string `json:"summary"`
}

const (
	defaultIntensity = storage.IntensityModerate
	defaultDuration  = 25
)

var flowGuidance = map[storage.FlowIntensity]string{
	storage.IntensityGentle:   "🌊 Begin with calm, steady focus. Let thoughts flow naturally without forcing. Take breaks as needed.",
	storage.IntensityModerate: "🌊 Maintain focused attention with deliberate action. Balance effort with ease. Stay present to the work.",
	storage.IntensityStrong:   "🌊 Dive deep with sustained concentration. Channel energy into meaningful progress. Push through resistance mindfully.",
}

var flowNextActions = []string{
	"🎯 Set clear intention for this flow session",
	"⏰ Start timer and begin focused work",
	"🧘 Take mindful breaks if needed",
	"📝 Capture insights and progress",
	"🌊 Honor the natural rhythm of the work",
}

// CreateTide creates a new tidal workflow.
func (s *TideService) CreateTide(ctx context.Context, in CreateTideInput) (*CreateTideResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	tide, err := s.store.Create(ctx, storage.CreateTideInput{
		Name:        in.Name,
		FlowType:    storage.FlowType(in.FlowType),
		Description: in.Description,
	})
	if err != nil {
		s.logger.Error("failed to create tide: %v", err)
		return &CreateTideResult{
			Success:   false,
			TideID:    "",
			Name:      in.Name,
			FlowType:  in.FlowType,
			CreatedAt: time.Now().Format(storage.TimeLayout),
		}, nil
	}

	s.logger.Info("creating tide: %s (%s)", in.Name, in.FlowType)

	return &CreateTideResult{
		Success:   true,
		TideID:    tide.ID,
		Name:      tide.Name,
		FlowType:  string(tide.FlowType),
		CreatedAt: tide.CreatedAt,
		NextFlow:  tide.NextFlow,
	}, nil
}

// ListTides lists tidal workflows, optionally filtered by flow type
// and by active status.
func (s *TideService) ListTides(ctx context.Context, in ListTidesInput) (*ListTidesResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	tides, err := s.store.List(ctx, storage.ListFilter{
		FlowType:   storage.FlowType(in.FlowType),
		ActiveOnly: in.ActiveOnly,
	})
	if err != nil {
		s.logger.Error("failed to list tides: %v", err)
		return &ListTidesResult{Tides: []TideSummary{}, Total: 0}, nil
	}

	summaries := make([]TideSummary, 0, len(tides))
	for _, tide := range tides {
		summaries = append(summaries, TideSummary{
			ID:        tide.ID,
			Name:      tide.Name,
			FlowType:  string(tide.FlowType),
			Status:    string(tide.Status),
			CreatedAt: tide.CreatedAt,
			LastFlow:  tide.LastFlow,
			NextFlow:  tide.NextFlow,
		})
	}

	return &ListTidesResult{Tides: summaries, Total: len(summaries)}, nil
}

// FlowTide starts a flow session against an existing tide: it logs a
// history entry, advances the schedule, and returns guidance matched
// to the requested intensity.
func (s *TideService) FlowTide(ctx context.Context, in FlowTideInput) (*FlowTideResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	intensity := storage.FlowIntensity(in.Intensity)
	if intensity == "" {
		intensity = defaultIntensity
	}
	duration := in.Duration
	if duration <= 0 {
		duration = defaultDuration
	}

	tide, err := s.store.Get(ctx, in.TideID)
	if err != nil {
		s.logger.Error("failed to start flow: %v", err)
		return flowTideFailure(in.TideID, "Failed to start flow session"), nil
	}
	if tide == nil {
		return flowTideFailure(in.TideID, "Tide not found"), nil
	}

	now := time.Now()
	flowStarted := now.Format(storage.TimeLayout)
	estimatedCompletion := now.Add(time.Duration(duration) * time.Minute).Format(storage.TimeLayout)

	updated, err := s.store.AddFlow(ctx, in.TideID, storage.FlowEntry{
		Timestamp: flowStarted,
		Intensity: intensity,
		Duration:  duration,
	})
	if err != nil || updated == nil {
		s.logger.Error("failed to start flow: %v", err)
		return flowTideFailure(in.TideID, "Failed to start flow session"), nil
	}

	s.logger.Info("starting flow session for tide: %s (%s intensity, %dmin)", in.TideID, intensity, duration)

	return &FlowTideResult{
		Success:             true,
		TideID:              in.TideID,
		FlowStarted:         flowStarted,
		EstimatedCompletion: estimatedCompletion,
		FlowGuidance:        flowGuidance[intensity],
		NextActions:         flowNextActions,
	}, nil
}

// EndTide ends a tidal workflow by completing or pausing it. Ending
// an already completed or paused tide is refused. Notes, when given,
// are attached to the last flow entry, or carried on a synthesized
// zero-duration gentle entry when there is no history yet.
func (s *TideService) EndTide(ctx context.Context, in EndTideInput) (*EndTideResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	finalStatus := storage.TideStatus(in.Status)
	if finalStatus == "" {
		finalStatus = storage.StatusCompleted
	}

	tide, err := s.store.Get(ctx, in.TideID)
	if err != nil {
		return endTideFailure(in.TideID, "error", "", fmt.Sprintf("Failed to end tide: %v", err)), nil
	}
	if tide == nil {
		return endTideFailure(in.TideID, "not_found", "", "Tide not found"), nil
	}

	if tide.Status == storage.StatusCompleted || tide.Status == storage.StatusPaused {
		return endTideFailure(in.TideID, string(tide.Status), tide.CreatedAt,
			fmt.Sprintf("Tide is already %s", tide.Status)), nil
	}

	completionTime := time.Now().Format(storage.TimeLayout)
	// Session count reported in the summary reflects history at
	// lookup time, before any synthesized completion entry.
	flowCount := len(tide.FlowHistory)

	patch := storage.TidePatch{
		Status:   &finalStatus,
		LastFlow: &completionTime,
	}

	if in.Notes != "" {
		if flowCount > 0 {
			tide.FlowHistory[flowCount-1].Notes = in.Notes
			patch.FlowHistory = tide.FlowHistory
		} else {
			// No prior sessions: carry the notes on a synthesized entry
			// so they are never lost.
			if _, err := s.store.AddFlow(ctx, in.TideID, storage.FlowEntry{
				Timestamp: completionTime,
				Intensity: storage.IntensityGentle,
				Duration:  0,
				Notes:     in.Notes,
			}); err != nil {
				s.logger.Error("failed to end tide: %v", err)
				return endTideFailure(in.TideID, "error", "", fmt.Sprintf("Failed to end tide: %v", err)), nil
			}
		}
	}

	if _, err := s.store.Update(ctx, in.TideID, patch); err != nil {
		s.logger.Error("failed to end tide: %v", err)
		return endTideFailure(in.TideID, "error", "", fmt.Sprintf("Failed to end tide: %v", err)), nil
	}

	var summary string
	switch finalStatus {
	case storage.StatusCompleted:
		summary = fmt.Sprintf("🌊 Tide '%s' completed successfully with %d flow sessions. The natural rhythm has reached its conclusion.", tide.Name, flowCount)
	case storage.StatusPaused:
		summary = fmt.Sprintf("🌊 Tide '%s' paused gracefully with %d flow sessions. The flow can resume when energy returns.", tide.Name, flowCount)
	}

	s.logger.Info("ended tide: %s with status %s", in.TideID, finalStatus)

	return &EndTideResult{
		Success:        true,
		TideID:         in.TideID,
		FinalStatus:    string(finalStatus),
		CompletionTime: completionTime,
		Summary:        summary,
	}, nil
}

func flowTideFailure(tideID, guidance string) *FlowTideResult {
	return &FlowTideResult{
		Success:      false,
		TideID:       tideID,
		FlowGuidance: guidance,
		NextActions:  []string{},
	}
}

func endTideFailure(tideID, finalStatus, completionTime, summary string) *EndTideResult {
	return &EndTideResult{
		Success:        false,
		TideID:         tideID,
		FinalStatus:    finalStatus,
		CompletionTime: completionTime,
		Summary:        summary,
	}
}
