package service

import (
	"testing"

	"norwegianopen/internal/mailer"
	"norwegianopen/internal/testutil"
)

type fixture struct {
	repo   *testutil.MemoryRepository
	mail   *mailer.ConsoleSender
	clock  *testutil.Clock
	alerts *recordingAlerts
	deps   Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   testutil.NewMemoryRepository(),
		mail:   testutil.Mailer(),
		clock:  testutil.NewClock(testutil.Midgard(t)),
		alerts: &recordingAlerts{},
	}
	f.deps = Deps{
		Repo:     f.repo,
		Table:    testutil.Table(),
		Renderer: testutil.Renderer(t),
		Mailer:   f.mail,
		Alerts:   f.alerts,
		Logger:   testutil.Logger(),
		Now:      f.clock.Now,
	}
	return f
}
