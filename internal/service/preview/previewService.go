package previewService

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikhil/begreen/internal/database"
	"github.com/nikhil/begreen/internal/logger"
	"github.com/nikhil/begreen/internal/models"
)

// Aliases hide the names of teams and users the caller does not know.
var Aliases = []string{"Anonymer Hase", "Anonymer Hund", "Anonyme Katze", "Anonymer Krebs", "Anonymer Vogel", "Anonymer Apfel"}

const (
	rankedSectionID    = "ranked"
	rankedSectionTitle = "Top 3"
	rankedSectionSize  = 3

	personalSectionID    = "personal"
	personalSectionTitle = "Platzierung"
)

type PreviewRepository interface {
	GetForUpdate(ctx context.Context, previewID string) (*models.Preview, error)
	ListByIDs(ctx context.Context, previewIDs []string) ([]models.Preview, error)
	ListByScore(ctx context.Context) ([]models.Preview, error)
	Create(ctx context.Context, p models.Preview) error
	Update(ctx context.Context, p models.Preview) error
}

// TeamLister resolves the display names of the caller's teams.
type TeamLister interface {
	List(ctx context.Context, user models.Principal, naming, search string) ([]models.Team, error)
}

// PreviewService keeps the per team and per user score and last message.
type PreviewService struct {
	previews PreviewRepository
	teams    TeamLister
	tx       database.Transactor
	now      func() time.Time
	Log      *logger.Logger
}

func NewPreviewService(previews PreviewRepository, teams TeamLister, tx database.Transactor, log *logger.Logger) *PreviewService {
	return &PreviewService{
		previews: previews,
		teams:    teams,
		tx:       tx,
		now:      time.Now,
		Log:      log,
	}
}

// Get returns the previews that exist for ids.
func (s *PreviewService) Get(ctx context.Context, ids []string) ([]models.Preview, error) {
	return s.previews.ListByIDs(ctx, ids)
}

// UpdateScore adds delta to the score of assignee. Scores never drop below
// zero and a missing preview is created on the way.
func (s *PreviewService) UpdateScore(ctx context.Context, assignee string, delta int) (*models.Preview, error) {
	var updated *models.Preview
	err := s.upsert(ctx, assignee, func(p *models.Preview, exists bool) {
		if exists {
			p.Score = max(p.Score+delta, 0)
		} else {
			p.Score = max(delta, 0)
		}
		updated = p
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetMessage points the preview of a team at its latest message.
func (s *PreviewService) SetMessage(ctx context.Context, teamID, messageID string) error {
	return s.upsert(ctx, teamID, func(p *models.Preview, _ bool) {
		p.MessageID = messageID
	})
}

func (s *PreviewService) upsert(ctx context.Context, previewID string, mutate func(p *models.Preview, exists bool)) error {
	return s.tx.Do(ctx, func(ctx context.Context) error {
		now := s.now().UTC().Unix()

		p, err := s.previews.GetForUpdate(ctx, previewID)
		switch {
		case errors.Is(err, models.ErrNotFound):
			p = &models.Preview{ID: previewID, CreatedAt: now, UpdatedAt: now}
			mutate(p, false)
			err = s.previews.Create(ctx, *p)
			if !errors.Is(err, models.ErrConflict) {
				return err
			}
			// created concurrently, fall through to the update path
			if p, err = s.previews.GetForUpdate(ctx, previewID); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		mutate(p, true)
		p.UpdatedAt = now
		if err := s.previews.Update(ctx, *p); err != nil {
			return fmt.Errorf("failed to update preview %s: %w", previewID, err)
		}
		return nil
	})
}

// Leaderboard ranks every preview by score. Teams of the caller and the
// caller itself are named, everyone else gets an alias.
func (s *PreviewService) Leaderboard(ctx context.Context, user models.Principal) ([]models.Section[models.LeaderboardEntry], error) {
	teams, err := s.teams.List(ctx, user, models.NamingFull, "")
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(teams)+1)
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	names[user.UserID] = user.Name

	previews, err := s.previews.ListByScore(ctx)
	if err != nil {
		return nil, err
	}

	ranked := &models.Section[models.LeaderboardEntry]{ID: rankedSectionID, Title: rankedSectionTitle}
	var personal *models.Section[models.LeaderboardEntry]

	for i, p := range previews {
		name, ok := names[p.ID]
		if !ok {
			name = AliasFor(p.ID)
		}
		entry := models.LeaderboardEntry{
			ID:        p.ID,
			Name:      name,
			Score:     p.Score,
			Rank:      i + 1,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		}
		if i < rankedSectionSize {
			ranked.Add(entry)
		}
		if p.ID == user.UserID {
			personal = &models.Section[models.LeaderboardEntry]{
				ID:        personalSectionID,
				Title:     personalSectionTitle,
				UpdatedAt: p.UpdatedAt,
			}
			personal.Add(entry)
		}
	}

	return models.NonEmpty(ranked, personal), nil
}

// AliasFor picks a stable alias from the last byte of id.
func AliasFor(id string) string {
	if id == "" {
		return Aliases[0]
	}
	return Aliases[int(id[len(id)-1])%len(Aliases)]
}
