package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/kitekeeper/internal/kite"
	"github.com/dmitrijs2005/kitekeeper/internal/server/models"
	"github.com/dmitrijs2005/kitekeeper/internal/server/repositories/repomanager"
)

// --- token store ---

type fakeStore struct {
	mu      sync.Mutex
	saved   []string
	saveErr error

	current *models.AccessToken
	readErr error
	reads   int
}

func (f *fakeStore) Save(ctx context.Context, value string) (*models.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, value)
	now := time.Now()
	return &models.AccessToken{ID: int64(len(f.saved)), Value: value, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}, nil
}

func (f *fakeStore) LatestValid(ctx context.Context, now time.Time) (*models.AccessToken, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, false, f.readErr
	}
	if f.current == nil {
		return nil, false, nil
	}
	return f.current, true, nil
}

func (f *fakeStore) CurrentToken(ctx context.Context, now time.Time) (*models.AccessToken, bool, error) {
	return f.LatestValid(ctx, now)
}

// --- upstream ---

type fakeKite struct {
	noCreds bool

	loginErr error

	session    *kite.Session
	sessionErr error
	exchanges  []string
	deadline   bool

	profile      *kite.Profile
	holdings     []kite.Holding
	positions    *kite.Positions
	dataErr      error
	calls        []string
	seenTokens   []string
	hadDeadlines []bool
}

func (f *fakeKite) HasCredentials() bool { return !f.noCreds }

func (f *fakeKite) LoginURL(state string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return "https://login.example/?state=" + state, nil
}

func (f *fakeKite) GenerateSession(ctx context.Context, requestToken string) (*kite.Session, error) {
	f.exchanges = append(f.exchanges, requestToken)
	_, f.deadline = ctx.Deadline()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeKite) record(ctx context.Context, op, tok string) {
	f.calls = append(f.calls, op)
	f.seenTokens = append(f.seenTokens, tok)
	_, ok := ctx.Deadline()
	f.hadDeadlines = append(f.hadDeadlines, ok)
}

func (f *fakeKite) Profile(ctx context.Context, tok string) (*kite.Profile, error) {
	f.record(ctx, "profile", tok)
	if f.dataErr != nil {
		return nil, f.dataErr
	}
	return f.profile, nil
}

func (f *fakeKite) Holdings(ctx context.Context, tok string) ([]kite.Holding, error) {
	f.record(ctx, "holdings", tok)
	if f.dataErr != nil {
		return nil, f.dataErr
	}
	return f.holdings, nil
}

func (f *fakeKite) Positions(ctx context.Context, tok string) (*kite.Positions, error) {
	f.record(ctx, "positions", tok)
	if f.dataErr != nil {
		return nil, f.dataErr
	}
	return f.positions, nil
}

// --- repository manager ---

type failingManager struct {
	err error
}

func (m *failingManager) RunMigrations(context.Context) error                 { return nil }
func (m *failingManager) Read(context.Context, repomanager.ScopeFunc) error  { return m.err }
func (m *failingManager) Write(context.Context, repomanager.ScopeFunc) error { return m.err }
func (m *failingManager) Close() error                                        { return nil }
