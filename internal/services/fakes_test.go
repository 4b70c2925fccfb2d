package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mimrai-org/mimrai-sub004/internal/repos"
	"github.com/mimrai-org/mimrai-sub004/internal/types"
)

type fakeUserRepo struct {
	users  map[uuid.UUID]*types.User
	system *types.User
}

func (f *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, users []*types.User) ([]*types.User, error) {
	for _, u := range users {
		f.users[u.ID] = u
	}
	return users, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*types.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, repos.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetSystemUser(_ context.Context, _ *gorm.DB) (*types.User, error) {
	if f.system == nil {
		return nil, repos.ErrNotFound
	}
	return f.system, nil
}

type fakeTeamRepo struct {
	teams map[uuid.UUID]*types.Team
}

func (f *fakeTeamRepo) Create(_ context.Context, _ *gorm.DB, teams []*types.Team) ([]*types.Team, error) {
	for _, t := range teams {
		f.teams[t.ID] = t
	}
	return teams, nil
}

func (f *fakeTeamRepo) GetByID(_ context.Context, _ *gorm.DB, teamID uuid.UUID) (*types.Team, error) {
	t, ok := f.teams[teamID]
	if !ok {
		return nil, repos.ErrNotFound
	}
	return t, nil
}

type fakeTaskRepo struct {
	tasks map[uuid.UUID]*types.Task
}

func (f *fakeTaskRepo) Create(_ context.Context, _ *gorm.DB, tasks []*types.Task) ([]*types.Task, error) {
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return tasks, nil
}

func (f *fakeTaskRepo) GetByID(_ context.Context, _ *gorm.DB, taskID uuid.UUID) (*types.Task, error) {
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, repos.ErrNotFound
	}
	return t, nil
}

type fakeActivityRepo struct {
	mu         sync.Mutex
	activities []*types.Activity
	listCalls  []int
}

func (f *fakeActivityRepo) Create(_ context.Context, _ *gorm.DB, activities []*types.Activity) ([]*types.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range activities {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		f.activities = append(f.activities, a)
	}
	return activities, nil
}

func (f *fakeActivityRepo) GetByID(_ context.Context, _ *gorm.DB, activityID uuid.UUID) (*types.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.activities {
		if a.ID == activityID {
			return a, nil
		}
	}
	return nil, repos.ErrNotFound
}

func (f *fakeActivityRepo) ListByGroup(_ context.Context, _ *gorm.DB, groupID, teamID uuid.UUID, activityType string, limit int) ([]*types.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, limit)

	var out []*types.Activity
	for _, a := range f.activities {
		if a.GroupID == groupID && a.TeamID == teamID && a.Type == activityType {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// replies returns every comment threaded under the given parent comment.
func (f *fakeActivityRepo) replies(parentID uuid.UUID) []*types.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Activity
	for _, a := range f.activities {
		if a.GroupID == parentID {
			out = append(out, a)
		}
	}
	return out
}

type fakeChatRepo struct {
	mu             sync.Mutex
	threads        map[string]*types.ChatThread
	messages       map[string][]*types.ChatMessage
	saveCalls      int
	titleUpdates   []string
	summaryUpdates []string
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		threads:  make(map[string]*types.ChatThread),
		messages: make(map[string][]*types.ChatMessage),
	}
}

func (f *fakeChatRepo) GetThread(_ context.Context, _ *gorm.DB, threadID string, teamID uuid.UUID) (*types.ChatThread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.threads[threadID]
	if !ok || t.TeamID != teamID {
		return nil, repos.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeChatRepo) EnsureThread(_ context.Context, _ *gorm.DB, threadID string, teamID uuid.UUID) (*types.ChatThread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.threads[threadID]
	if !ok {
		t = &types.ChatThread{ID: threadID, TeamID: teamID, CreatedAt: time.Now().UTC()}
		f.threads[threadID] = t
	}
	copied := *t
	return &copied, nil
}

func (f *fakeChatRepo) ListThreads(_ context.Context, _ *gorm.DB, teamID uuid.UUID, limit int) ([]*types.ChatThread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.ChatThread
	for _, t := range f.threads {
		if t.TeamID == teamID {
			copied := *t
			out = append(out, &copied)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeChatRepo) ListMessages(_ context.Context, _ *gorm.DB, threadID string) ([]*types.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := append([]*types.ChatMessage(nil), f.messages[threadID]...)
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (f *fakeChatRepo) ListMessagesAfter(_ context.Context, _ *gorm.DB, threadID string, after time.Time) ([]*types.ChatMessage, error) {
	all, _ := f.ListMessages(nil, nil, threadID)
	var out []*types.ChatMessage
	for _, m := range all {
		if m.CreatedAt.After(after) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) SaveMessage(_ context.Context, _ *gorm.DB, msg *types.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	for _, existing := range f.messages[msg.ThreadID] {
		if existing.ID == msg.ID {
			return nil
		}
	}
	copied := *msg
	f.messages[msg.ThreadID] = append(f.messages[msg.ThreadID], &copied)
	return nil
}

func (f *fakeChatRepo) UpdateTitle(_ context.Context, _ *gorm.DB, threadID string, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titleUpdates = append(f.titleUpdates, title)
	if t, ok := f.threads[threadID]; ok {
		t.Title = title
	}
	return nil
}

func (f *fakeChatRepo) UpdateSummary(_ context.Context, _ *gorm.DB, threadID string, summary string, lastSummaryAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryUpdates = append(f.summaryUpdates, summary)
	if t, ok := f.threads[threadID]; ok {
		t.Summary = summary
		at := lastSummaryAt
		t.LastSummaryAt = &at
	}
	return nil
}

// scriptedGenerator returns canned text and records every call.
type scriptedGenerator struct {
	mu         sync.Mutex
	out        string
	err        error
	calls      int
	lastSystem string
	lastUser   string
}

func (g *scriptedGenerator) GenerateText(_ context.Context, system string, user string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastSystem = system
	g.lastUser = user
	if g.err != nil {
		return "", g.err
	}
	return g.out, nil
}

// fakeAgentStream drives the drain/await contract from tests.
type fakeAgentStream struct {
	final            types.ChatMessage
	drainErr         error
	finishAfterDrain bool
	onFinish         func(types.ChatMessage)
	drained          bool
}

func (s *fakeAgentStream) Drain(_ context.Context) error {
	s.drained = true
	if s.drainErr != nil {
		return s.drainErr
	}
	if s.finishAfterDrain {
		final := s.final
		onFinish := s.onFinish
		go func() {
			time.Sleep(20 * time.Millisecond)
			onFinish(final)
		}()
		return nil
	}
	s.onFinish(s.final)
	return nil
}

type fakeAgentRunner struct {
	stream  *fakeAgentStream
	runs    int
	lastRun AgentRun
}

func (r *fakeAgentRunner) Run(_ context.Context, run AgentRun) (AgentStream, error) {
	r.runs++
	r.lastRun = run
	r.stream.onFinish = run.OnFinish
	return r.stream, nil
}
