package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/dhanasekaranr/screensync/internal/config"
	"github.com/dhanasekaranr/screensync/internal/domain/entity"
	"github.com/dhanasekaranr/screensync/internal/infra/persistence"
	"github.com/dhanasekaranr/screensync/internal/outbox"
	"github.com/go-faker/faker/v4"
)

// Seed creates sample screens with a couple of menu items each, routed
// through the repositories so every row also gets its replication intent.
func Seed(ctx context.Context, cfg config.Config, count, menusPer int) error {
	if count <= 0 {
		count = 10
	}
	if menusPer <= 0 {
		menusPer = 3
	}

	log, err := BuildLogger(cfg)
	if err != nil {
		return err
	}

	conn, err := persistence.New(ctx, dbConfig(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	pingCtx := ctx
	if cfg.Database.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
		defer cancel()
	}
	if err := conn.Ping(pingCtx); err != nil {
		return err
	}

	publisher := outbox.NewPublisher(persistence.NewOutboxRepository(conn))
	screenRepo := persistence.NewScreenRepository(conn, publisher)
	menuRepo := persistence.NewMenuItemRepository(conn, publisher)

	for i := 0; i < count; i++ {
		word := faker.Word()
		name := fmt.Sprintf("%s-%d", strings.ToLower(word), i)
		screen, err := screenRepo.Create(ctx, entity.ScreenDefinition{
			Name:         name,
			Route:        "/" + name,
			DisplayOrder: i,
		})
		if err != nil {
			return err
		}
		for j := 0; j < menusPer; j++ {
			if _, err := menuRepo.Create(ctx, entity.MenuItem{
				ScreenID: screen.ID,
				Label:    faker.Word(),
				Position: j,
			}); err != nil {
				return err
			}
		}
	}

	log.Infof("bootstrap: seeded %d screens with %d menu items each", count, menusPer)
	return nil
}
