package usecase

import (
	"context"

	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/domain/repository"
	"github.com/dhanasekaranr/screensync/internal/domain/service"
	"github.com/dhanasekaranr/screensync/internal/infra/pagination"
	"github.com/sirupsen/logrus"
)

type Screen struct {
	repo repository.ScreenRepository
	log  *logrus.Logger
}

var _ service.ScreenService = (*Screen)(nil)

func NewScreen(repo repository.ScreenRepository, log *logrus.Logger) *Screen {
	return &Screen{repo: repo, log: log}
}

func (s *Screen) Create(ctx context.Context, screen entity.ScreenDefinition, idempotencyKey, requestHash string) (entity.ScreenDefinition, bool, error) {
	if idempotencyKey == "" {
		created, err := s.repo.Create(ctx, screen)
		if err != nil {
			s.log.WithError(err).Error("create screen failed")
			return entity.ScreenDefinition{}, false, err
		}
		return created, false, nil
	}

	created, alreadyExist, err := s.repo.CreateIdempotent(ctx, screen, idempotencyKey, requestHash)
	if err != nil {
		s.log.WithError(err).Error("create screen failed")
		return entity.ScreenDefinition{}, false, err
	}
	return created, alreadyExist, nil
}

func (s *Screen) GetByID(ctx context.Context, id int64) (entity.ScreenDefinition, error) {
	screen, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.WithError(err).Error("get screen failed")
		return entity.ScreenDefinition{}, err
	}
	return screen, nil
}

func (s *Screen) Update(ctx context.Context, id int64, screen entity.ScreenDefinition) (entity.ScreenDefinition, error) {
	updated, err := s.repo.Update(ctx, id, screen)
	if err != nil {
		s.log.WithError(err).Error("update screen failed")
		return entity.ScreenDefinition{}, err
	}
	return updated, nil
}

func (s *Screen) DeleteByID(ctx context.Context, id int64) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		s.log.WithError(err).Error("delete screen failed")
		return err
	}
	return nil
}

func (s *Screen) List(ctx context.Context, limit int, cursor string) ([]entity.ScreenDefinition, string, error) {
	screens, err := s.repo.ListCursor(ctx, limit, cursor)
	if err != nil {
		s.log.WithError(err).Error("list screens failed")
		return nil, "", err
	}
	nextCursor := ""
	if len(screens) > 0 && (limit <= 0 || len(screens) == limit) {
		last := screens[len(screens)-1]
		nextCursor = pagination.Encode(last.CreatedAt, last.ID)
	}
	return screens, nextCursor, nil
}
