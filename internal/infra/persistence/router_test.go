package persistence

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func TestRouterResolvesHints(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	primary := &gorm.DB{}
	secondary := &gorm.DB{}
	router := NewRouter(primary, secondary, log)

	if router.Resolve(RoutePrimary) != primary {
		t.Fatal("expected primary for primary hint")
	}
	if router.Resolve(RouteSecondary) != secondary {
		t.Fatal("expected secondary for secondary hint")
	}
	if router.Resolve("") != primary {
		t.Fatal("expected primary for empty hint")
	}
	if router.Resolve("replica-3") != primary {
		t.Fatal("expected primary for unknown hint")
	}
}

func TestRouterFallsBackWithoutSecondary(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	primary := &gorm.DB{}
	router := NewRouter(primary, nil, log)

	if router.Resolve(RouteSecondary) != primary {
		t.Fatal("expected secondary hint to fall back to primary")
	}
}
