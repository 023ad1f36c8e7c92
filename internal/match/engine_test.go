package match

import (
	"context"
	"errors"
	"testing"
	"time"
)

// memRepo is an in-memory Repository for engine tests.
type memRepo struct {
	history []Summary
	active  *Match
	archive map[string]Match

	saveActiveCalls int
	archiveErr      error
}

func newMemRepo() *memRepo {
	return &memRepo{archive: map[string]Match{}}
}

func (r *memRepo) History(ctx context.Context) ([]Summary, error) {
	return append([]Summary(nil), r.history...), nil
}

func (r *memRepo) SaveHistory(ctx context.Context, history []Summary) error {
	r.history = append([]Summary(nil), history...)
	return nil
}

func (r *memRepo) ActiveMatch(ctx context.Context) (*Match, error) {
	return r.active.Clone(), nil
}

func (r *memRepo) SaveActiveMatch(ctx context.Context, m *Match) error {
	r.saveActiveCalls++
	r.active = m.Clone()
	return nil
}

func (r *memRepo) Archive(ctx context.Context) (map[string]Match, error) {
	if r.archiveErr != nil {
		return nil, r.archiveErr
	}
	out := make(map[string]Match, len(r.archive))
	for k, v := range r.archive {
		out[k] = v
	}
	return out, nil
}

func (r *memRepo) SaveArchive(ctx context.Context, archive map[string]Match) error {
	r.archive = archive
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T) (*Engine, *memRepo, *fakeClock) {
	t.Helper()
	repo := newMemRepo()
	clock := &fakeClock{now: time.Date(2025, 5, 10, 14, 0, 0, 0, time.UTC)}
	eng, err := New(context.Background(), repo, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("creating engine: %v", err)
	}
	return eng, repo, clock
}

func TestStartMatchSeedsFirstPeriod(t *testing.T) {
	eng, repo, _ := newTestEngine(t)
	ctx := context.Background()

	m, err := eng.StartMatch(ctx, "Reds", "Blues", true)
	if err != nil {
		t.Fatalf("starting match: %v", err)
	}

	if !m.IsActive || !m.IsRunning {
		t.Errorf("expected active running match, got active=%v running=%v", m.IsActive, m.IsRunning)
	}
	if m.CurrentPeriod != 1 {
		t.Errorf("expected period 1, got %d", m.CurrentPeriod)
	}
	if len(m.Events) != 1 || m.Events[0].Type != EventStart {
		t.Fatalf("expected one seed start event, got %v", m.Events)
	}
	if m.Events[0].Label != "Start Period 1" {
		t.Errorf("expected 'Start Period 1' label, got %q", m.Events[0].Label)
	}
	if len(m.Goals) != 0 {
		t.Errorf("expected no goals, got %d", len(m.Goals))
	}
	if repo.active == nil {
		t.Error("expected active match to be persisted")
	}
}

func TestStartMatchRejectsSecond(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := eng.StartMatch(ctx, "Reds", "Blues", true); err != nil {
		t.Fatalf("starting match: %v", err)
	}
	_, err := eng.StartMatch(ctx, "Greens", "Yellows", false)
	if !errors.Is(err, ErrMatchInProgress) {
		t.Fatalf("expected ErrMatchInProgress, got %v", err)
	}

	if m := eng.ActiveMatch(); m.MyTeamName != "Reds" {
		t.Errorf("first match should survive, got %q", m.MyTeamName)
	}
}

func TestStartMatchDefaultNames(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	m, err := eng.StartMatch(context.Background(), "", "", false)
	if err != nil {
		t.Fatalf("starting match: %v", err)
	}
	if m.MyTeamName != "My Team" || m.OpponentName != "Opponent" {
		t.Errorf("expected default names, got %q vs %q", m.MyTeamName, m.OpponentName)
	}
}

func TestScoreSumEqualsGoalCount(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)

	adds := []struct {
		team Team
		typ  GoalType
	}{
		{TeamMine, GoalNormal},
		{TeamMine, GoalPenalty},
		{TeamOpponent, GoalNormal},
		{TeamMine, GoalOwn},
		{TeamOpponent, GoalOwn},
		{TeamOpponent, GoalHeader},
	}
	for _, a := range adds {
		clock.Advance(time.Second)
		if err := eng.AddGoal(ctx, a.team, "", "", a.typ); err != nil {
			t.Fatalf("adding goal: %v", err)
		}
	}

	m := eng.ActiveMatch()
	score := m.Score()
	if got, want := score.MyTeam+score.Opponent, len(m.Goals); got != want {
		t.Errorf("score sum %d != goal count %d", got, want)
	}
}

func TestOwnGoalCreditsOtherSide(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)

	clock.Advance(time.Second)
	eng.AddGoal(ctx, TeamOpponent, "", "", GoalOwn)
	if s := eng.ActiveMatch().Score(); s.MyTeam != 1 || s.Opponent != 0 {
		t.Fatalf("opponent own goal should credit my team, got %+v", s)
	}

	clock.Advance(time.Second)
	eng.AddGoal(ctx, TeamMine, "", "", GoalOwn)
	if s := eng.ActiveMatch().Score(); s.MyTeam != 1 || s.Opponent != 1 {
		t.Fatalf("my-team own goal should credit opponent, got %+v", s)
	}
}

func TestOpponentGoalDropsScorerAndAssist(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)

	clock.Advance(time.Second)
	eng.AddGoal(ctx, TeamOpponent, "Alex", "Sam", GoalNormal)

	g := eng.ActiveMatch().Goals[0]
	if g.Scorer != "" || g.Assist != "" {
		t.Errorf("opponent goal must not keep scorer/assist, got %q/%q", g.Scorer, g.Assist)
	}
}

func TestUndoLastRemovesMostRecent(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)

	clock.Advance(time.Second)
	eng.AddGoal(ctx, TeamMine, "Alex", "", GoalNormal)
	clock.Advance(time.Second)
	eng.AddEvent(ctx, EventHalfTime, "Half time")

	// Event is newer than the goal: undo removes the event.
	if err := eng.UndoLast(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}
	m := eng.ActiveMatch()
	if len(m.Goals) != 1 {
		t.Errorf("goal should survive, got %d goals", len(m.Goals))
	}
	if len(m.Events) != 1 {
		t.Errorf("expected only the seed event, got %d events", len(m.Events))
	}

	// Now the goal is newer than the remaining seed event.
	if err := eng.UndoLast(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}
	m = eng.ActiveMatch()
	if len(m.Goals) != 0 {
		t.Errorf("goal should be removed, got %d goals", len(m.Goals))
	}
	if len(m.Events) != 1 {
		t.Errorf("seed event should survive, got %d events", len(m.Events))
	}
}

func TestUndoLastEmptyIsNoop(t *testing.T) {
	eng, repo, _ := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)

	// Remove the seed event, leaving both lists empty.
	if err := eng.UndoLast(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}
	saves := repo.saveActiveCalls

	if err := eng.UndoLast(ctx); err != nil {
		t.Fatalf("undo on empty lists: %v", err)
	}
	if repo.saveActiveCalls != saves {
		t.Error("undo with empty goals and events must not persist anything")
	}
	m := eng.ActiveMatch()
	if len(m.Goals) != 0 || len(m.Events) != 0 {
		t.Errorf("state changed: %d goals, %d events", len(m.Goals), len(m.Events))
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)

	clock.Advance(10 * time.Second)
	before := eng.ActiveMatch().Elapsed(clock.Now())
	if before != 10 {
		t.Fatalf("expected 10s elapsed, got %d", before)
	}

	// Pause, let 5s of wall time pass, resume.
	eng.ToggleTimer(ctx)
	clock.Advance(5 * time.Second)
	if got := eng.ActiveMatch().Elapsed(clock.Now()); got != before {
		t.Errorf("clock must hold while paused: %d != %d", got, before)
	}

	eng.ToggleTimer(ctx)
	m := eng.ActiveMatch()
	if m.TotalPausedTime != 5000 {
		t.Errorf("expected 5000ms paused, got %d", m.TotalPausedTime)
	}
	if got := m.Elapsed(clock.Now()); got != before {
		t.Errorf("no time may leak across a pause: %d != %d", got, before)
	}

	clock.Advance(3 * time.Second)
	if got := eng.ActiveMatch().Elapsed(clock.Now()); got != before+3 {
		t.Errorf("expected %d after resume, got %d", before+3, got)
	}
}

func TestElapsedMonotonicWhileRunning(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	eng.StartMatch(context.Background(), "Reds", "Blues", true)

	prev := int64(-1)
	for i := 0; i < 10; i++ {
		clock.Advance(700 * time.Millisecond)
		got := eng.ActiveMatch().Elapsed(clock.Now())
		if got < prev {
			t.Fatalf("elapsed went backwards: %d < %d", got, prev)
		}
		prev = got
	}
}

func TestElapsedNeverNegative(t *testing.T) {
	m := &Match{StartedAt: time.Now().Add(time.Hour).UnixMilli(), IsRunning: true}
	if got := m.Elapsed(time.Now()); got != 0 {
		t.Errorf("expected 0 for future start, got %d", got)
	}
}

func TestPeriodTransitions(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)

	// StartPeriod right after StartMatch must not advance the period.
	clock.Advance(time.Second)
	eng.StartPeriod(ctx)
	if m := eng.ActiveMatch(); m.CurrentPeriod != 1 {
		t.Fatalf("period advanced without a period-end, got %d", m.CurrentPeriod)
	}

	clock.Advance(20 * time.Minute)
	eng.EndPeriod(ctx)
	m := eng.ActiveMatch()
	if m.IsRunning {
		t.Error("timer should stop at period end")
	}
	if m.TimerState() != TimerPeriodEnded {
		t.Errorf("expected period-ended state, got %v", m.TimerState())
	}

	clock.Advance(2 * time.Minute)
	eng.StartPeriod(ctx)
	m = eng.ActiveMatch()
	if m.CurrentPeriod != 2 {
		t.Errorf("expected period 2, got %d", m.CurrentPeriod)
	}
	if !m.IsRunning || m.PausedAt != 0 {
		t.Errorf("expected running timer, got running=%v pausedAt=%d", m.IsRunning, m.PausedAt)
	}
	if m.TotalPausedTime != (2 * time.Minute).Milliseconds() {
		t.Errorf("interval break must count as pause, got %dms", m.TotalPausedTime)
	}
	last := m.Events[len(m.Events)-1]
	if last.Label != "Start Period 2" {
		t.Errorf("expected 'Start Period 2' label, got %q", last.Label)
	}
}

func TestStartPeriodAfterResumeAdvancesPeriod(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)

	clock.Advance(20 * time.Minute)
	eng.EndPeriod(ctx)

	// Resuming the clock during the break must not consume the pending
	// period transition: the last event is still period-end.
	clock.Advance(time.Minute)
	eng.ToggleTimer(ctx)
	if m := eng.ActiveMatch(); !m.IsRunning {
		t.Fatal("expected the clock to resume")
	}

	clock.Advance(time.Minute)
	eng.StartPeriod(ctx)
	m := eng.ActiveMatch()
	if m.CurrentPeriod != 2 {
		t.Errorf("expected period 2 after end, resume, start, got %d", m.CurrentPeriod)
	}
	last := m.Events[len(m.Events)-1]
	if last.Label != "Start Period 2" {
		t.Errorf("expected 'Start Period 2' label, got %q", last.Label)
	}
}

func TestEndPeriodTwiceAppendsTwoEvents(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)

	clock.Advance(time.Minute)
	eng.EndPeriod(ctx)
	pausedAt := eng.ActiveMatch().PausedAt

	clock.Advance(time.Minute)
	eng.EndPeriod(ctx)

	m := eng.ActiveMatch()
	ends := 0
	for _, ev := range m.Events {
		if ev.Type == EventPeriodEnd {
			ends++
		}
	}
	if ends != 2 {
		t.Errorf("expected two period-end events, got %d", ends)
	}
	if m.PausedAt != pausedAt {
		t.Errorf("second call must not touch timer fields: %d != %d", m.PausedAt, pausedAt)
	}
}

func TestEndMatchConsumesActive(t *testing.T) {
	eng, repo, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)

	clock.Advance(time.Second)
	eng.AddGoal(ctx, TeamMine, "Alex", "Sam", GoalNormal)
	clock.Advance(time.Second)
	eng.AddGoal(ctx, TeamOpponent, "", "", GoalNormal)
	id := eng.ActiveMatch().ID

	summary, err := eng.EndMatch(ctx)
	if err != nil {
		t.Fatalf("ending match: %v", err)
	}
	if summary.MyTeamScore != 1 || summary.OpponentScore != 1 {
		t.Errorf("expected 1-1 summary, got %d-%d", summary.MyTeamScore, summary.OpponentScore)
	}

	if eng.ActiveMatch() != nil {
		t.Error("active match must be cleared")
	}
	if repo.active != nil {
		t.Error("active slot must be cleared in the repository")
	}

	history := eng.History()
	if len(history) != 1 || history[0].ID != id {
		t.Fatalf("expected the match at the head of history, got %v", history)
	}

	archived, err := eng.MatchDetails(ctx, id)
	if err != nil {
		t.Fatalf("loading details: %v", err)
	}
	if archived == nil {
		t.Fatal("archived match not found")
	}
	if archived.IsActive || archived.IsRunning {
		t.Error("archived match must be frozen")
	}
	if len(archived.Goals) != 2 || len(archived.Events) != 1 {
		t.Errorf("archived record incomplete: %d goals, %d events", len(archived.Goals), len(archived.Events))
	}
	if archived.EndedAt == 0 || archived.PausedAt == 0 {
		t.Errorf("expected resolved end timestamps, got endedAt=%d pausedAt=%d", archived.EndedAt, archived.PausedAt)
	}
}

func TestEndMatchWithoutActiveIsNoop(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	summary, err := eng.EndMatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != nil {
		t.Errorf("expected nil summary, got %+v", summary)
	}
}

func TestMutationsWithoutActiveMatchAreNoops(t *testing.T) {
	eng, repo, _ := newTestEngine(t)
	ctx := context.Background()

	if err := eng.AddGoal(ctx, TeamMine, "Alex", "", GoalNormal); err != nil {
		t.Errorf("AddGoal: %v", err)
	}
	if err := eng.AddEvent(ctx, EventPause, ""); err != nil {
		t.Errorf("AddEvent: %v", err)
	}
	if err := eng.ToggleTimer(ctx); err != nil {
		t.Errorf("ToggleTimer: %v", err)
	}
	if err := eng.StartPeriod(ctx); err != nil {
		t.Errorf("StartPeriod: %v", err)
	}
	if err := eng.EndPeriod(ctx); err != nil {
		t.Errorf("EndPeriod: %v", err)
	}
	if err := eng.UndoLast(ctx); err != nil {
		t.Errorf("UndoLast: %v", err)
	}
	if repo.saveActiveCalls != 0 {
		t.Errorf("no-ops must not persist, got %d saves", repo.saveActiveCalls)
	}
}

func TestDeleteUnknownIDsAreNoops(t *testing.T) {
	eng, repo, _ := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)
	saves := repo.saveActiveCalls

	if err := eng.DeleteGoal(ctx, "nope"); err != nil {
		t.Errorf("DeleteGoal: %v", err)
	}
	if err := eng.DeleteEvent(ctx, "nope"); err != nil {
		t.Errorf("DeleteEvent: %v", err)
	}
	if repo.saveActiveCalls != saves {
		t.Error("unknown-id deletes must not persist anything")
	}
}

func TestDeleteMatchRemovesHistoryAndArchive(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)
	clock.Advance(time.Second)
	id := eng.ActiveMatch().ID
	eng.EndMatch(ctx)

	if err := eng.DeleteMatch(ctx, id); err != nil {
		t.Fatalf("deleting match: %v", err)
	}
	if len(eng.History()) != 0 {
		t.Error("history entry should be gone")
	}
	m, err := eng.MatchDetails(ctx, id)
	if err != nil {
		t.Fatalf("loading details: %v", err)
	}
	if m != nil {
		t.Error("archived record should be gone")
	}
}

func TestDeleteMatchKeepsHistoryOnStorageError(t *testing.T) {
	eng, repo, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)
	clock.Advance(time.Second)
	id := eng.ActiveMatch().ID
	eng.EndMatch(ctx)

	repo.archiveErr = errors.New("disk gone")
	if err := eng.DeleteMatch(ctx, id); err == nil {
		t.Fatal("expected the storage error to surface")
	}

	// The failed delete must not leave memory ahead of the store.
	if h := eng.History(); len(h) != 1 || h[0].ID != id {
		t.Errorf("history must be unchanged after a failed delete, got %v", h)
	}

	repo.archiveErr = nil
	if err := eng.DeleteMatch(ctx, id); err != nil {
		t.Fatalf("deleting match: %v", err)
	}
	if len(eng.History()) != 0 {
		t.Error("history entry should be gone after the retry")
	}
}

func TestEngineReloadsPersistedState(t *testing.T) {
	eng, repo, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)
	clock.Advance(time.Second)
	eng.AddGoal(ctx, TeamMine, "Alex", "", GoalNormal)

	reloaded, err := New(ctx, repo, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("reloading engine: %v", err)
	}
	m := reloaded.ActiveMatch()
	if m == nil {
		t.Fatal("expected the active match to survive a restart")
	}
	if len(m.Goals) != 1 || m.MyTeamName != "Reds" {
		t.Errorf("reloaded state incomplete: %+v", m)
	}
}

func TestReplaceAllOverwritesState(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	eng.StartMatch(ctx, "Reds", "Blues", true)
	clock.Advance(time.Second)
	eng.AddGoal(ctx, TeamMine, "Alex", "", GoalNormal)

	remote := &Match{ID: "remote-1", MyTeamName: "Away Team", IsActive: true, Goals: []Goal{}, Events: []GameEvent{}, CurrentPeriod: 2}
	history := []Summary{{ID: "old-1", MyTeamName: "Away Team", MyTeamScore: 3}}

	if err := eng.ReplaceAll(ctx, history, remote, map[string]Match{}); err != nil {
		t.Fatalf("replacing state: %v", err)
	}

	m := eng.ActiveMatch()
	if m.ID != "remote-1" || len(m.Goals) != 0 {
		t.Errorf("local state should be fully replaced, got %+v", m)
	}
	if h := eng.History(); len(h) != 1 || h[0].ID != "old-1" {
		t.Errorf("history should be fully replaced, got %v", h)
	}
}

// Mirrors the walk-through scenario: two goals, an undo, a period
// transition, and the final summary.
func TestMatchScenario(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()

	eng.StartMatch(ctx, "Reds", "Blues", true)

	clock.Advance(time.Minute)
	eng.AddGoal(ctx, TeamMine, "Alex", "", GoalNormal)
	if s := eng.ActiveMatch().Score(); s.MyTeam != 1 || s.Opponent != 0 {
		t.Fatalf("expected 1-0, got %+v", s)
	}

	clock.Advance(time.Minute)
	eng.AddGoal(ctx, TeamOpponent, "", "", GoalOwn)
	if s := eng.ActiveMatch().Score(); s.MyTeam != 2 || s.Opponent != 0 {
		t.Fatalf("expected 2-0 after opponent own goal, got %+v", s)
	}

	eng.UndoLast(ctx)
	if s := eng.ActiveMatch().Score(); s.MyTeam != 1 || s.Opponent != 0 {
		t.Fatalf("expected 1-0 after undo, got %+v", s)
	}

	clock.Advance(time.Minute)
	eng.EndPeriod(ctx)
	clock.Advance(time.Minute)
	eng.StartPeriod(ctx)
	m := eng.ActiveMatch()
	if m.CurrentPeriod != 2 || !m.IsRunning {
		t.Fatalf("expected running period 2, got period=%d running=%v", m.CurrentPeriod, m.IsRunning)
	}

	summary, err := eng.EndMatch(ctx)
	if err != nil {
		t.Fatalf("ending match: %v", err)
	}
	if summary.MyTeamScore != 1 || summary.OpponentScore != 0 {
		t.Errorf("expected 1-0 summary, got %d-%d", summary.MyTeamScore, summary.OpponentScore)
	}
	if eng.ActiveMatch() != nil {
		t.Error("no active match may remain")
	}
}
