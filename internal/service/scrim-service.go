package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/ZayanAhmed07/SpikeLeagueScrim/errors"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/completion"
	scrimerrors "github.com/ZayanAhmed07/SpikeLeagueScrim/internal/errors"
	scrimevents "github.com/ZayanAhmed07/SpikeLeagueScrim/internal/events"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/guard"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/lifecycle"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/notifier"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/readycheck"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/internal/repository"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/logger"
	"github.com/ZayanAhmed07/SpikeLeagueScrim/models"
)

// ScrimService is the application surface. Commands from the gateway and
// HTTP reads both land here.
type ScrimService interface {
	CreateScrim(ctx context.Context, input CreateScrimInput) (*models.Scrim, error)
	RequestBooking(ctx context.Context, scrimID, challengerID string) (*models.Scrim, error)
	CancelScrim(ctx context.Context, scrimID, actorID string) (*models.Scrim, error)
	ConfirmCompletion(ctx context.Context, scrimID, actorID string) (completion.Result, error)
	GetScrim(ctx context.Context, scrimID string) (*models.Scrim, error)
	GetActiveScrim(ctx context.Context, userID string) (*models.Scrim, error)
}

type CreateScrimInput struct {
	RequesterID string
	GuildID     string
	ChannelID   string
	TeamName    string
	MatchDate   string
	Format      string
	Maps        []string
	Ranks       []string
	Server      string
}

type scrimService struct {
	repo       repository.ScrimRepository
	engine     *lifecycle.Engine
	guard      *guard.Guard
	readyCheck *readycheck.Coordinator
	completion *completion.Coordinator
	notifier   notifier.Notifier
	presenter  notifier.Presenter
	events     scrimevents.Publisher
	log        *logger.Logger
}

func NewScrimService(
	repo repository.ScrimRepository,
	engine *lifecycle.Engine,
	g *guard.Guard,
	rc *readycheck.Coordinator,
	cc *completion.Coordinator,
	n notifier.Notifier,
	p notifier.Presenter,
	ev scrimevents.Publisher,
	log *logger.Logger,
) ScrimService {
	return &scrimService{
		repo:       repo,
		engine:     engine,
		guard:      g,
		readyCheck: rc,
		completion: cc,
		notifier:   n,
		presenter:  p,
		events:     ev,
		log:        log,
	}
}

// CreateScrim validates the request, enforces the single-active-request
// rule inside the requester's critical section, and stores the scrim as
// open.
func (s *scrimService) CreateScrim(ctx context.Context, input CreateScrimInput) (*models.Scrim, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	unlock := s.guard.LockUser(input.RequesterID)
	defer unlock()

	if err := s.guard.EnsureNoActive(ctx, input.RequesterID); err != nil {
		return nil, err
	}

	scrim := &models.Scrim{
		ScrimID:     uuid.New().String(),
		RequesterID: input.RequesterID,
		GuildID:     input.GuildID,
		ChannelID:   input.ChannelID,
		TeamName:    strings.TrimSpace(input.TeamName),
		MatchDate:   input.MatchDate,
		Format:      models.MatchFormat(input.Format),
		Maps:        input.Maps,
		Ranks:       input.Ranks,
		Server:      input.Server,
	}

	if err := s.repo.Create(ctx, scrim); err != nil {
		return nil, err
	}

	s.log.Info("scrim created",
		"scrim_id", scrim.ScrimID,
		"requester_id", scrim.RequesterID,
		"format", string(scrim.Format))

	s.events.ScrimCreated(ctx, scrim)
	return scrim, nil
}

// RequestBooking moves the scrim to pending and starts the ready check.
// If the ready check can't even be delivered the scrim is already back to
// open by the time the error returns.
func (s *scrimService) RequestBooking(ctx context.Context, scrimID, challengerID string) (*models.Scrim, error) {
	pending, err := s.engine.RequestBooking(ctx, scrimID, challengerID)
	if err != nil {
		return nil, err
	}

	if err := s.readyCheck.Begin(ctx, pending); err != nil {
		return nil, err
	}

	s.presenter.UpdatePresentation(ctx, pending, "Ready check in progress", true)
	return pending, nil
}

// CancelScrim withdraws an open scrim. Only the requester may do it.
func (s *scrimService) CancelScrim(ctx context.Context, scrimID, actorID string) (*models.Scrim, error) {
	scrim, err := s.repo.GetByID(ctx, scrimID)
	if err != nil {
		return nil, err
	}
	if scrim == nil {
		return nil, scrimerrors.ScrimNotFoundError(scrimID)
	}
	if scrim.RequesterID != actorID {
		return nil, scrimerrors.NotOwnerError()
	}

	cancelled, err := s.engine.Cancel(ctx, scrimID)
	if err != nil {
		return nil, err
	}

	s.presenter.RemovePresentation(ctx, cancelled.ScrimID)
	s.events.ScrimCancelled(ctx, cancelled)
	return cancelled, nil
}

func (s *scrimService) ConfirmCompletion(ctx context.Context, scrimID, actorID string) (completion.Result, error) {
	return s.completion.Confirm(ctx, scrimID, actorID)
}

func (s *scrimService) GetScrim(ctx context.Context, scrimID string) (*models.Scrim, error) {
	scrim, err := s.repo.GetByID(ctx, scrimID)
	if err != nil {
		return nil, err
	}
	if scrim == nil {
		return nil, scrimerrors.ScrimNotFoundError(scrimID)
	}
	return scrim, nil
}

func (s *scrimService) GetActiveScrim(ctx context.Context, userID string) (*models.Scrim, error) {
	return s.repo.GetActiveForUser(ctx, userID)
}

func validateCreate(input CreateScrimInput) error {
	if input.RequesterID == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "requester id is required")
	}
	if strings.TrimSpace(input.TeamName) == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "team name is required")
	}
	if strings.TrimSpace(input.MatchDate) == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "match date is required")
	}

	format := models.MatchFormat(input.Format)
	if !format.Valid() {
		return apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("unknown match format %q", input.Format))
	}

	if len(input.Maps) == 0 {
		return apperrors.New(apperrors.CodeInvalidInput, "at least one map is required")
	}
	if len(input.Maps) > format.MaxMaps() {
		return apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("%s allows at most %d maps", input.Format, format.MaxMaps()))
	}
	for _, m := range input.Maps {
		if !models.ValidMap(m) {
			return apperrors.New(apperrors.CodeInvalidInput,
				fmt.Sprintf("unknown map %q", m))
		}
	}

	if len(input.Ranks) == 0 {
		return apperrors.New(apperrors.CodeInvalidInput, "at least one rank is required")
	}
	for _, r := range input.Ranks {
		if !models.ValidRank(r) {
			return apperrors.New(apperrors.CodeInvalidInput,
				fmt.Sprintf("unknown rank %q", r))
		}
	}

	if !models.ValidServer(input.Server) {
		return apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("unknown server %q", input.Server))
	}

	return nil
}
