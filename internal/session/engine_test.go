package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/habitloop/habitloop/internal/database"
	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/render"
	"github.com/habitloop/habitloop/internal/validation"
	"go.uber.org/zap"
)

// fakeStore is an in-memory Store honoring the same contracts as the
// real one: case-insensitive active-name uniqueness, one completion per
// (user, habit, day), silent deactivate no-ops.
type fakeStore struct {
	mu          sync.Mutex
	nextHabitID int64
	users       map[int64]models.User
	habits      []models.Habit
	completions map[string]string // "user/habit/day" -> note
	failOn      map[string]error  // op name -> injected error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[int64]models.User),
		completions: make(map[string]string),
		failOn:      make(map[string]error),
	}
}

func (f *fakeStore) fail(op string) error {
	return f.failOn[op]
}

func (f *fakeStore) RegisterUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("register"); err != nil {
		return err
	}
	if _, ok := f.users[user.ID]; !ok {
		f.users[user.ID] = *user
	}
	return nil
}

func (f *fakeStore) CreateHabit(_ context.Context, userID int64, name, glyph string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("create"); err != nil {
		return 0, err
	}
	name = validation.SanitizeText(name)
	if err := validation.HabitName(name); err != nil {
		return 0, database.ErrInvalidName
	}
	for _, h := range f.habits {
		if h.UserID == userID && h.Active && strings.EqualFold(h.Name, name) {
			return 0, database.ErrDuplicateHabit
		}
	}
	f.nextHabitID++
	f.habits = append(f.habits, models.Habit{
		ID:        f.nextHabitID,
		UserID:    userID,
		Name:      name,
		Glyph:     glyph,
		Active:    true,
		CreatedAt: time.Now(),
	})
	return f.nextHabitID, nil
}

func (f *fakeStore) ListActiveHabits(_ context.Context, userID int64) ([]models.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("list"); err != nil {
		return nil, err
	}
	var out []models.Habit
	for _, h := range f.habits {
		if h.UserID == userID && h.Active {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) DeactivateHabit(_ context.Context, habitID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("deactivate"); err != nil {
		return err
	}
	for i := range f.habits {
		if f.habits[i].ID == habitID && f.habits[i].UserID == userID {
			f.habits[i].Active = false
		}
	}
	return nil
}

func (f *fakeStore) RecordCompletion(_ context.Context, userID, habitID int64, day time.Time, note string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("record"); err != nil {
		return false, err
	}
	key := fmt.Sprintf("%d/%d/%s", userID, habitID, day.Format(models.DateLayout))
	if _, dup := f.completions[key]; dup {
		return false, nil
	}
	f.completions[key] = note
	return true, nil
}

func (f *fakeStore) TodaysStats(_ context.Context, userID int64, day time.Time) (models.DayStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("stats"); err != nil {
		return models.DayStats{}, err
	}
	var stats models.DayStats
	for _, h := range f.habits {
		if h.UserID != userID || !h.Active {
			continue
		}
		stats.Total++
		key := fmt.Sprintf("%d/%d/%s", userID, h.ID, day.Format(models.DateLayout))
		if _, done := f.completions[key]; done {
			stats.Completed++
		}
	}
	return stats, nil
}

func (f *fakeStore) TodaysCompletedHabitIDs(_ context.Context, userID int64, day time.Time) (map[int64]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("completed"); err != nil {
		return nil, err
	}
	out := make(map[int64]bool)
	for _, h := range f.habits {
		key := fmt.Sprintf("%d/%d/%s", userID, h.ID, day.Format(models.DateLayout))
		if _, done := f.completions[key]; done {
			out[h.ID] = true
		}
	}
	return out, nil
}

func newTestEngine(t *testing.T, store Store, opts ...Option) *Engine {
	t.Helper()
	return NewEngine(store, zap.NewNop(), opts...)
}

func command(userID int64, name string) models.Event {
	return models.Event{
		Kind:    models.EventCommand,
		From:    models.User{ID: userID, FirstName: "Test"},
		ChatID:  userID,
		Command: name,
	}
}

func text(userID int64, body string) models.Event {
	return models.Event{
		Kind:   models.EventText,
		From:   models.User{ID: userID},
		ChatID: userID,
		Text:   body,
	}
}

func button(userID int64, token string) models.Event {
	return models.Event{
		Kind:   models.EventButton,
		From:   models.User{ID: userID},
		ChatID: userID,
		Token:  token,
	}
}

// addCustomHabit walks a user through the custom add flow.
func addCustomHabit(t *testing.T, e *Engine, userID int64, name string) {
	t.Helper()
	ctx := context.Background()
	e.HandleEvent(ctx, command(userID, "add"))
	e.HandleEvent(ctx, button(userID, models.CustomToken()))
	out := e.HandleEvent(ctx, text(userID, name))
	if !strings.Contains(out.Text, "Habit added") {
		t.Fatalf("expected habit %q to be created, got %q", name, out.Text)
	}
}

func TestCustomHabitNameValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store)
	const user = int64(100)

	e.HandleEvent(ctx, command(user, "add"))
	e.HandleEvent(ctx, button(user, models.CustomToken()))

	// 1 character: rejected, stays in the typing state
	out := e.HandleEvent(ctx, text(user, "a"))
	if out.Text != render.InvalidName(user).Text {
		t.Errorf("1-char name: got %q, want invalid-name re-prompt", out.Text)
	}

	// 31 characters: same
	out = e.HandleEvent(ctx, text(user, strings.Repeat("x", 31)))
	if out.Text != render.InvalidName(user).Text {
		t.Errorf("31-char name: got %q, want invalid-name re-prompt", out.Text)
	}

	// still in ADD_CUSTOM_HABIT: a valid name now succeeds without
	// restarting the flow
	out = e.HandleEvent(ctx, text(user, "Fifteen letters"))
	if !strings.Contains(out.Text, "Habit added") {
		t.Errorf("valid name after re-prompts: got %q", out.Text)
	}

	habits, _ := store.ListActiveHabits(ctx, user)
	if len(habits) != 1 || habits[0].Name != "Fifteen letters" {
		t.Errorf("store habits = %+v, want single 'Fifteen letters'", habits)
	}
}

func TestDuplicateNameIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store)
	const user = int64(101)

	addCustomHabit(t, e, user, "Reading")

	e.HandleEvent(ctx, command(user, "add"))
	e.HandleEvent(ctx, button(user, models.CustomToken()))
	out := e.HandleEvent(ctx, text(user, "reading"))
	if !strings.Contains(out.Text, "already on your list") {
		t.Errorf("lowercase duplicate: got %q, want duplicate re-prompt", out.Text)
	}

	habits, _ := store.ListActiveHabits(ctx, user)
	if len(habits) != 1 {
		t.Errorf("store has %d habits, want 1", len(habits))
	}
}

func TestPredefinedHabitFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store)
	const user = int64(102)

	e.HandleEvent(ctx, command(user, "add"))
	out := e.HandleEvent(ctx, button(user, models.PredefToken("💧")))
	if !strings.Contains(out.Text, "Drink water") {
		t.Fatalf("predefined pick: got %q", out.Text)
	}

	// picking the same catalog entry again reports the duplicate and
	// returns to the menu
	e.HandleEvent(ctx, command(user, "add"))
	out = e.HandleEvent(ctx, button(user, models.PredefToken("💧")))
	if !strings.Contains(out.Text, "already on your list") || !out.MainMenu {
		t.Errorf("duplicate catalog pick: got %+v", out)
	}
}

func TestTrackFlowWithNote(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store, WithClock(func() time.Time { return today }))
	const user = int64(103)

	addCustomHabit(t, e, user, "Water")

	habits, _ := store.ListActiveHabits(ctx, user)
	waterID := habits[0].ID

	e.HandleEvent(ctx, command(user, "track"))
	e.HandleEvent(ctx, button(user, models.TrackToken(waterID)))
	e.HandleEvent(ctx, button(user, models.YesToken()))
	out := e.HandleEvent(ctx, text(user, "felt great"))

	if !strings.Contains(out.Text, "1/1") {
		t.Errorf("progress after completion: got %q, want 1/1", out.Text)
	}
	if !strings.Contains(out.Text, "felt great") {
		t.Errorf("note missing from progress: %q", out.Text)
	}
	if !strings.Contains(out.Text, "congratulations") {
		t.Errorf("all-done celebration missing: %q", out.Text)
	}

	stats, _ := store.TodaysStats(ctx, user, today)
	if stats != (models.DayStats{Completed: 1, Total: 1}) {
		t.Errorf("stats = %+v, want {1 1}", stats)
	}
}

func TestTrackTwiceSameDay(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store, WithClock(func() time.Time { return today }))
	const user = int64(104)

	addCustomHabit(t, e, user, "Water")
	habits, _ := store.ListActiveHabits(ctx, user)
	waterID := habits[0].ID

	// First completion, no note.
	e.HandleEvent(ctx, command(user, "track"))
	e.HandleEvent(ctx, button(user, models.TrackToken(waterID)))
	out := e.HandleEvent(ctx, button(user, models.NoToken()))
	if !strings.Contains(out.Text, "Tracked") {
		t.Fatalf("first completion: got %q", out.Text)
	}

	// The track picker no longer offers the habit.
	out = e.HandleEvent(ctx, command(user, "track"))
	if out.Text != render.AllDone(user).Text {
		t.Errorf("track after all done: got %q, want all-done", out.Text)
	}

	// Forcing a second completion through the store reports false.
	inserted, err := store.RecordCompletion(ctx, user, waterID, today, "")
	if err != nil || inserted {
		t.Errorf("second RecordCompletion = (%v, %v), want (false, nil)", inserted, err)
	}
}

func TestCancelClearsStash(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store)
	const user = int64(105)

	addCustomHabit(t, e, user, "Water")
	habits, _ := store.ListActiveHabits(ctx, user)

	e.HandleEvent(ctx, command(user, "track"))
	e.HandleEvent(ctx, button(user, models.TrackToken(habits[0].ID)))

	out := e.HandleEvent(ctx, button(user, models.CancelToken()))
	if out.Text != render.Cancelled(user).Text {
		t.Fatalf("cancel: got %q", out.Text)
	}

	s := e.session(models.Event{From: models.User{ID: user}})
	if s.state != StateMainMenu || s.trackHabitID != 0 {
		t.Errorf("after cancel: state=%v stash=%d, want MAIN_MENU and empty stash", s.state, s.trackHabitID)
	}
	if len(store.completions) != 0 {
		t.Errorf("cancel recorded a completion: %v", store.completions)
	}
}

func TestOrphanedFlowApologizes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store)
	const user = int64(106)

	// Force the defensive path: ADD_NOTE with nothing stashed.
	s := e.session(models.Event{From: models.User{ID: user}, ChatID: user})
	s.state = StateAddNote
	s.trackHabitID = 0

	out := e.HandleEvent(ctx, text(user, "a note for nothing"))
	if out.Text != render.Apology(user).Text {
		t.Errorf("orphaned flow: got %q, want apology", out.Text)
	}
	if s.state != StateMainMenu {
		t.Errorf("orphaned flow left state %v, want MAIN_MENU", s.state)
	}
	if len(store.completions) != 0 {
		t.Errorf("orphaned flow recorded a completion: %v", store.completions)
	}
}

func TestDeleteFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store)
	const user = int64(107)

	addCustomHabit(t, e, user, "Old habit")
	habits, _ := store.ListActiveHabits(ctx, user)

	e.HandleEvent(ctx, command(user, "delete"))
	out := e.HandleEvent(ctx, button(user, models.DeleteToken(habits[0].ID)))
	if !strings.Contains(out.Text, "Removed") {
		t.Fatalf("delete: got %q", out.Text)
	}

	remaining, _ := store.ListActiveHabits(ctx, user)
	if len(remaining) != 0 {
		t.Errorf("habit still active after delete: %+v", remaining)
	}

	// Deleting again via the store is a silent no-op.
	if err := store.DeactivateHabit(ctx, habits[0].ID, user); err != nil {
		t.Errorf("repeat deactivate: %v", err)
	}
}

func TestUnrecognizedInputStaysInPlace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store)
	const user = int64(108)

	e.HandleEvent(ctx, command(user, "add"))
	// Free text is not a valid ADD_HABIT event: re-prompt, same state.
	out := e.HandleEvent(ctx, text(user, "hello?"))
	if len(out.Options) == 0 {
		t.Errorf("expected picker re-prompt, got %q", out.Text)
	}
	// The flow still works without restarting.
	out = e.HandleEvent(ctx, button(user, models.CustomToken()))
	if !strings.Contains(out.Text, "Type your habit name") {
		t.Errorf("custom after re-prompt: got %q", out.Text)
	}
}

func TestStorageErrorReturnsToSafeState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store)
	const user = int64(109)

	e.HandleEvent(ctx, command(user, "add"))
	e.HandleEvent(ctx, button(user, models.CustomToken()))

	store.failOn["create"] = fmt.Errorf("connection refused")
	out := e.HandleEvent(ctx, text(user, "Doomed habit"))
	if out.Text != render.Apology(user).Text {
		t.Fatalf("storage failure: got %q, want apology", out.Text)
	}

	// The user is not stranded: the menu works immediately.
	delete(store.failOn, "create")
	out = e.HandleEvent(ctx, command(user, "habits"))
	if out.Text != render.NoHabits(user).Text {
		t.Errorf("menu after failure: got %q", out.Text)
	}
}

func TestMenuLabelsRouteLikeCommands(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store)
	const user = int64(110)

	out := e.HandleEvent(ctx, text(user, render.LabelStats))
	if !strings.Contains(out.Text, "Done: 0/0") {
		t.Errorf("stats label: got %q", out.Text)
	}

	out = e.HandleEvent(ctx, text(user, "random chatter"))
	if out.Text != render.UnknownInput(user).Text {
		t.Errorf("unknown text: got %q", out.Text)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store)

	users := []int64{201, 202, 203, 204}
	var wg sync.WaitGroup
	for i, id := range users {
		wg.Add(1)
		go func(id int64, i int) {
			defer wg.Done()
			e.HandleEvent(ctx, command(id, "add"))
			e.HandleEvent(ctx, button(id, models.CustomToken()))
			e.HandleEvent(ctx, text(id, fmt.Sprintf("Habit of %d", id)))
			e.HandleEvent(ctx, command(id, "track"))
		}(id, i)
	}
	wg.Wait()

	for _, id := range users {
		habits, _ := store.ListActiveHabits(ctx, id)
		if len(habits) != 1 {
			t.Errorf("user %d has %d habits, want 1", id, len(habits))
			continue
		}
		want := fmt.Sprintf("Habit of %d", id)
		if habits[0].Name != want {
			t.Errorf("user %d habit = %q, want %q", id, habits[0].Name, want)
		}
	}
}

func TestIdleSessionsAreEvicted(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	store := newFakeStore()
	e := newTestEngine(t, store, WithClock(clock), WithSessionTTL(30*time.Minute))

	e.HandleEvent(context.Background(), command(301, "help"))
	if e.SessionCount() != 1 {
		t.Fatalf("session count = %d, want 1", e.SessionCount())
	}

	// Not idle long enough.
	now = now.Add(10 * time.Minute)
	if evicted := e.EvictIdle(); evicted != 0 {
		t.Errorf("evicted %d sessions early", evicted)
	}

	now = now.Add(time.Hour)
	if evicted := e.EvictIdle(); evicted != 1 {
		t.Errorf("evicted %d sessions, want 1", evicted)
	}
	if e.SessionCount() != 0 {
		t.Errorf("session count = %d after eviction, want 0", e.SessionCount())
	}
}

func TestJanitorRunsAlongsideEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	// Nanosecond TTL makes every sweep evict, maximizing interleavings
	// between eviction and live events under the race detector.
	e := newTestEngine(t, store, WithSessionTTL(time.Nanosecond))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				e.EvictIdle()
			}
		}
	}()

	const user = int64(111)
	for i := 0; i < 200; i++ {
		if out := e.HandleEvent(ctx, command(user, "help")); out == nil {
			t.Error("help returned no instruction")
			break
		}
	}
	close(done)
	wg.Wait()
}

func TestConcurrentDoubleTapRecordsOnce(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store, WithClock(func() time.Time { return today }))
	const user = int64(113)

	addCustomHabit(t, e, user, "Water")
	habits, _ := store.ListActiveHabits(ctx, user)
	waterID := habits[0].ID

	// Two rapid-fire track flows for the same habit. Whatever the
	// interleaving, exactly one completion lands for the day.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.HandleEvent(ctx, command(user, "track"))
			e.HandleEvent(ctx, button(user, models.TrackToken(waterID)))
			e.HandleEvent(ctx, button(user, models.NoToken()))
		}()
	}
	wg.Wait()

	if n := len(store.completions); n != 1 {
		t.Errorf("store has %d completions, want 1: %v", n, store.completions)
	}
	stats, _ := store.TodaysStats(ctx, user, today)
	if stats != (models.DayStats{Completed: 1, Total: 1}) {
		t.Errorf("stats = %+v, want {1 1}", stats)
	}
}

func TestStartRegistersAndResets(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(t, store)
	const user = int64(112)

	// Mid-flow /start restarts cleanly.
	e.HandleEvent(ctx, command(user, "add"))
	out := e.HandleEvent(ctx, command(user, "start"))
	if !strings.Contains(out.Text, "Hi, Test!") {
		t.Errorf("start: got %q", out.Text)
	}
	if _, ok := store.users[user]; !ok {
		t.Error("start did not register the user")
	}

	s := e.session(models.Event{From: models.User{ID: user}})
	if s.state != StateMainMenu {
		t.Errorf("state after start = %v, want MAIN_MENU", s.state)
	}
}
