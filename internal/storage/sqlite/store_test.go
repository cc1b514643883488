package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/gradually/internal/constants"
	"github.com/julianstephens/gradually/internal/models"
	"github.com/julianstephens/gradually/internal/storage"
)

func setupTestStore(t *testing.T) (*Store, models.User) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	user, err := store.AddUser(context.Background(), models.User{Username: "alice", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("failed to add user: %v", err)
	}
	return store, user
}

func clock(s string) *models.TimeOfDay {
	t := models.MustParseTimeOfDay(s)
	return &t
}

func planned(userID int64, date string, tasks ...string) models.GenerationBatch {
	batch := models.GenerationBatch{ID: uuid.NewString(), UserID: userID, Date: date}
	for _, task := range tasks {
		batch.Entries = append(batch.Entries, models.DailyScheduleEntry{
			TaskName: task, ScheduledTime: clock("07:00:00"), UserTimezone: "UTC",
		})
	}
	return batch
}

func TestLoad_NotInitialized(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); !errors.Is(err, storage.ErrNotInitialized) {
		t.Errorf("Load() error = %v, want ErrNotInitialized", err)
	}
}

func TestInit_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("first Init() failed: %v", err)
	}
	if err := store.Init(); err != nil {
		t.Fatalf("second Init() failed: %v", err)
	}
	store.Close()

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	defer reopened.Close()

	ok, err := reopened.SchemaUpToDate()
	if err != nil || !ok {
		t.Errorf("SchemaUpToDate() = %v, %v", ok, err)
	}
}

func TestUsers(t *testing.T) {
	store, user := setupTestStore(t)
	ctx := context.Background()

	if _, err := store.AddUser(ctx, models.User{Username: "alice"}); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate username error = %v, want ErrConflict", err)
	}

	bob, err := store.AddUser(ctx, models.User{Username: "bob"})
	if err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if bob.Timezone != constants.DefaultTimezone {
		t.Errorf("Timezone = %q, want default %q", bob.Timezone, constants.DefaultTimezone)
	}

	got, err := store.GetUserByName(ctx, "alice")
	if err != nil || got.ID != user.ID {
		t.Errorf("GetUserByName() = %+v, %v", got, err)
	}
	if _, err := store.GetUser(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetUser(999) error = %v, want ErrNotFound", err)
	}

	users, err := store.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Errorf("ListUsers() = %d users, %v", len(users), err)
	}
}

func TestReplaceBaseline(t *testing.T) {
	store, user := setupTestStore(t)
	ctx := context.Background()

	first := []models.BaselineTask{
		{TaskName: "Wake", ScheduledTime: models.MustParseTimeOfDay("07:00:00"), GoalTime: clock("06:00:00")},
		{TaskName: "Read", ScheduledTime: models.MustParseTimeOfDay("21:00:00")},
	}
	if err := store.ReplaceBaseline(ctx, user.ID, "America/New_York", first); err != nil {
		t.Fatalf("ReplaceBaseline failed: %v", err)
	}

	second := []models.BaselineTask{
		{TaskName: "Meditate", ScheduledTime: models.MustParseTimeOfDay("08:00:00")},
	}
	if err := store.ReplaceBaseline(ctx, user.ID, "Europe/London", second); err != nil {
		t.Fatalf("ReplaceBaseline failed: %v", err)
	}

	got, err := store.GetBaseline(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetBaseline failed: %v", err)
	}
	if len(got) != 1 || got[0].TaskName != "Meditate" {
		t.Fatalf("GetBaseline() = %+v, want only Meditate", got)
	}
	if got[0].UserTimezone != "Europe/London" {
		t.Errorf("UserTimezone = %q, want Europe/London", got[0].UserTimezone)
	}

	updated, _ := store.GetUser(ctx, user.ID)
	if updated.Timezone != "Europe/London" {
		t.Errorf("user timezone = %q, want Europe/London", updated.Timezone)
	}
}

func TestReplaceBaseline_DuplicateRollsBack(t *testing.T) {
	store, user := setupTestStore(t)
	ctx := context.Background()

	keep := []models.BaselineTask{{TaskName: "Wake", ScheduledTime: models.MustParseTimeOfDay("07:00:00")}}
	if err := store.ReplaceBaseline(ctx, user.ID, "UTC", keep); err != nil {
		t.Fatalf("ReplaceBaseline failed: %v", err)
	}

	dupes := []models.BaselineTask{
		{TaskName: "Read", ScheduledTime: models.MustParseTimeOfDay("21:00:00")},
		{TaskName: "Read", ScheduledTime: models.MustParseTimeOfDay("22:00:00")},
	}
	if err := store.ReplaceBaseline(ctx, user.ID, "UTC", dupes); err == nil {
		t.Fatal("expected duplicate task names to fail")
	}

	got, _ := store.GetBaseline(ctx, user.ID)
	if len(got) != 1 || got[0].TaskName != "Wake" {
		t.Errorf("failed replace should leave the old baseline, got %+v", got)
	}
}

func TestCommitGeneration(t *testing.T) {
	store, user := setupTestStore(t)
	ctx := context.Background()

	batch := planned(user.ID, "2026-01-02", "Wake", "Read")
	batch.Adjustments = []models.ScheduleAdjustment{{
		TaskName: "Wake", PreviousScheduledTime: clock("07:05:00"),
		NewScheduledTime: models.MustParseTimeOfDay("07:00:00"), Reason: constants.ReasonShiftEarlier,
		EffectiveDate: "2026-01-02",
	}}
	if err := store.CommitGeneration(ctx, batch); err != nil {
		t.Fatalf("CommitGeneration failed: %v", err)
	}

	if err := store.CommitGeneration(ctx, planned(user.ID, "2026-01-02", "Wake")); !errors.Is(err, storage.ErrAlreadyGenerated) {
		t.Errorf("second CommitGeneration error = %v, want ErrAlreadyGenerated", err)
	}

	entries, err := store.GetEntriesForDate(ctx, user.ID, "2026-01-02")
	if err != nil {
		t.Fatalf("GetEntriesForDate failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.GenerationID != batch.ID {
			t.Errorf("entry %q generation = %q, want %q", e.TaskName, e.GenerationID, batch.ID)
		}
		if e.Status != constants.StatusPending {
			t.Errorf("entry %q status = %q, want pending", e.TaskName, e.Status)
		}
	}

	history, err := store.GetAdjustmentHistory(ctx, user.ID)
	if err != nil || len(history) != 1 {
		t.Fatalf("GetAdjustmentHistory() = %d records, %v", len(history), err)
	}
	if history[0].Reason != constants.ReasonShiftEarlier {
		t.Errorf("Reason = %q", history[0].Reason)
	}

	has, err := store.HasPlannedEntries(ctx, user.ID, "2026-01-02")
	if err != nil || !has {
		t.Errorf("HasPlannedEntries() = %v, %v", has, err)
	}
}

func TestCommitGeneration_PromotesAdHoc(t *testing.T) {
	store, user := setupTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 1, 2, 6, 58, 0, 0, time.UTC)
	if _, err := store.LogCompletion(ctx, models.CompletionLog{
		UserID: user.ID, TaskName: "Wake", LogDate: "2026-01-02", Completed: true, CompletedAt: at, UserTimezone: "UTC",
	}); err != nil {
		t.Fatalf("LogCompletion failed: %v", err)
	}

	if err := store.CommitGeneration(ctx, planned(user.ID, "2026-01-02", "Wake")); err != nil {
		t.Fatalf("CommitGeneration failed: %v", err)
	}

	entry, err := store.GetEntry(ctx, user.ID, "Wake", "2026-01-02")
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry.IsAdHoc() {
		t.Error("ad-hoc entry should have joined the planned batch")
	}
	if entry.Status != constants.StatusCompleted || entry.ActualCompletedAt == nil {
		t.Errorf("promoted entry lost its completion: %+v", entry)
	}
	if entry.ScheduledTime == nil || entry.ScheduledTime.String() != "07:00:00" {
		t.Errorf("ScheduledTime = %v, want 07:00:00", entry.ScheduledTime)
	}
}

func TestCommitGeneration_Concurrent(t *testing.T) {
	store, user := setupTestStore(t)
	ctx := context.Background()

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.CommitGeneration(ctx, planned(user.ID, "2026-01-03", "Wake", "Read"))
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, storage.ErrAlreadyGenerated):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Errorf("expected exactly one batch to be created, got %d", created)
	}

	entries, _ := store.GetEntriesForDate(ctx, user.ID, "2026-01-03")
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
	if dupes, err := store.CountDuplicateEntries(ctx); err != nil || dupes != 0 {
		t.Errorf("CountDuplicateEntries() = %d, %v", dupes, err)
	}
}

func TestCommitGeneration_RollsBackOnFailure(t *testing.T) {
	store, user := setupTestStore(t)
	ctx := context.Background()

	batch := planned(user.ID, "2026-01-04", "Wake", "Wake")
	if err := store.CommitGeneration(ctx, batch); err == nil {
		t.Fatal("expected a batch with a repeated task to fail")
	}

	entries, _ := store.GetEntriesForDate(ctx, user.ID, "2026-01-04")
	if len(entries) != 0 {
		t.Errorf("failed batch left %d entries behind", len(entries))
	}
}

func TestCommitGeneration_RejectsInvalidAdjustment(t *testing.T) {
	store, user := setupTestStore(t)
	ctx := context.Background()

	batch := planned(user.ID, "2026-01-04", "Wake")
	batch.Adjustments = []models.ScheduleAdjustment{{
		TaskName:              "Wake",
		PreviousScheduledTime: clock("07:05:00"),
		NewScheduledTime:      models.MustParseTimeOfDay("07:00:00"),
		EffectiveDate:         "2026-01-04",
	}}
	if err := store.CommitGeneration(ctx, batch); err == nil {
		t.Fatal("expected an adjustment without a reason to fail the batch")
	}

	entries, _ := store.GetEntriesForDate(ctx, user.ID, "2026-01-04")
	if len(entries) != 0 {
		t.Errorf("rejected batch left %d entries behind", len(entries))
	}
	history, _ := store.GetAdjustmentHistory(ctx, user.ID)
	if len(history) != 0 {
		t.Errorf("rejected batch left %d ledger records behind", len(history))
	}
}

func TestLogCompletion(t *testing.T) {
	store, user := setupTestStore(t)
	ctx := context.Background()

	if err := store.CommitGeneration(ctx, planned(user.ID, "2026-01-05", "Wake")); err != nil {
		t.Fatalf("CommitGeneration failed: %v", err)
	}

	at := time.Date(2026, 1, 5, 7, 10, 0, 0, time.UTC)
	entry, err := store.LogCompletion(ctx, models.CompletionLog{
		UserID: user.ID, TaskName: "Wake", LogDate: "2026-01-05", Completed: true, CompletedAt: at, UserTimezone: "UTC",
	})
	if err != nil {
		t.Fatalf("LogCompletion failed: %v", err)
	}
	if entry.Status != constants.StatusCompleted || !entry.ActualCompletedAt.Equal(at) {
		t.Errorf("unexpected entry after completion: %+v", entry)
	}

	entry, err = store.LogCompletion(ctx, models.CompletionLog{
		UserID: user.ID, TaskName: "Wake", LogDate: "2026-01-05", Completed: false, UserTimezone: "UTC",
	})
	if err != nil {
		t.Fatalf("LogCompletion failed: %v", err)
	}
	if entry.Status != constants.StatusPending || entry.ActualCompletedAt != nil {
		t.Errorf("un-completing should reset the entry: %+v", entry)
	}
	if entry.ScheduledTime == nil {
		t.Error("planned scheduled time should survive completion logging")
	}

	adhoc, err := store.LogCompletion(ctx, models.CompletionLog{
		UserID: user.ID, TaskName: "Stretch", LogDate: "2026-01-05", Completed: true, CompletedAt: at, UserTimezone: "UTC",
	})
	if err != nil {
		t.Fatalf("LogCompletion failed: %v", err)
	}
	if !adhoc.IsAdHoc() || adhoc.ScheduledTime != nil {
		t.Errorf("expected ad-hoc entry without scheduled time, got %+v", adhoc)
	}
}

func TestHistoryQueries(t *testing.T) {
	store, user := setupTestStore(t)
	ctx := context.Background()

	for _, date := range []string{"2026-01-01", "2026-01-03"} {
		if err := store.CommitGeneration(ctx, planned(user.ID, date, "Wake")); err != nil {
			t.Fatalf("CommitGeneration(%s) failed: %v", date, err)
		}
	}
	at := time.Date(2026, 1, 1, 7, 3, 0, 0, time.UTC)
	if _, err := store.LogCompletion(ctx, models.CompletionLog{
		UserID: user.ID, TaskName: "Wake", LogDate: "2026-01-01", Completed: true, CompletedAt: at, UserTimezone: "UTC",
	}); err != nil {
		t.Fatalf("LogCompletion failed: %v", err)
	}

	latest, err := store.GetLatestScheduledEntry(ctx, user.ID, "Wake", "2026-01-03")
	if err != nil || latest.LogDate != "2026-01-01" {
		t.Errorf("GetLatestScheduledEntry(before 01-03) = %s, %v", latest.LogDate, err)
	}
	if _, err := store.GetLatestScheduledEntry(ctx, user.ID, "Wake", "2026-01-01"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound before first entry, got %v", err)
	}

	done, err := store.GetCompletedEntries(ctx, user.ID, "2025-12-27", "2026-01-03")
	if err != nil || len(done) != 1 {
		t.Fatalf("GetCompletedEntries() = %d, %v", len(done), err)
	}
	if done, _ := store.GetCompletedEntries(ctx, user.ID, "2026-01-02", "2026-01-09"); len(done) != 0 {
		t.Errorf("window should exclude completions before its start, got %d", len(done))
	}
}

func TestSuggestions(t *testing.T) {
	store, user := setupTestStore(t)
	ctx := context.Background()

	if err := store.CommitGeneration(ctx, planned(user.ID, "2026-01-06", "Wake")); err != nil {
		t.Fatalf("CommitGeneration failed: %v", err)
	}

	saved, err := store.AddSuggestions(ctx, []models.HabitSuggestion{
		{UserID: user.ID, Habit: "Wake", LogDate: "2026-01-05", SuggestedValue: models.MustParseTimeOfDay("06:40:00"), Reason: "old"},
		{UserID: user.ID, Habit: "Wake", LogDate: "2026-01-06", SuggestedValue: models.MustParseTimeOfDay("06:50:00"), Reason: "earlier"},
	})
	if err != nil || len(saved) != 2 {
		t.Fatalf("AddSuggestions() = %d, %v", len(saved), err)
	}

	pending, err := store.GetPendingSuggestion(ctx, user.ID, "Wake")
	if err != nil {
		t.Fatalf("GetPendingSuggestion failed: %v", err)
	}
	if pending.LogDate != "2026-01-06" {
		t.Errorf("expected most recent pending suggestion, got %s", pending.LogDate)
	}

	res, err := store.ResolveSuggestion(ctx, pending.ID, constants.SuggestionAccepted, constants.ReasonAIPrefix+pending.Reason)
	if err != nil {
		t.Fatalf("ResolveSuggestion failed: %v", err)
	}
	if !res.EntryUpdated || res.Adjustment == nil {
		t.Fatalf("expected entry update with ledger record, got %+v", res)
	}
	if res.Adjustment.Reason != "AI suggestion: earlier" {
		t.Errorf("ledger reason = %q", res.Adjustment.Reason)
	}

	entry, _ := store.GetEntry(ctx, user.ID, "Wake", "2026-01-06")
	if entry.ScheduledTime == nil || entry.ScheduledTime.String() != "06:50:00" {
		t.Errorf("entry not updated: %v", entry.ScheduledTime)
	}

	if _, err := store.ResolveSuggestion(ctx, pending.ID, constants.SuggestionRejected, ""); !errors.Is(err, storage.ErrSuggestionNotPending) {
		t.Errorf("double resolve error = %v, want ErrSuggestionNotPending", err)
	}

	// No entry exists for 01-05, so acceptance only records the decision.
	older, err := store.ResolveSuggestion(ctx, saved[0].ID, constants.SuggestionAccepted, "AI suggestion: old")
	if err != nil {
		t.Fatalf("ResolveSuggestion failed: %v", err)
	}
	if older.EntryUpdated || older.Adjustment != nil {
		t.Errorf("expected no entry change, got %+v", older)
	}

	if _, err := store.GetPendingSuggestion(ctx, user.ID, "Wake"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected no pending suggestions left, got %v", err)
	}

	accepted, err := store.ListSuggestions(ctx, user.ID, constants.SuggestionAccepted)
	if err != nil || len(accepted) != 2 {
		t.Errorf("ListSuggestions(accepted) = %d, %v", len(accepted), err)
	}
	all, _ := store.ListSuggestions(ctx, user.ID, "")
	if len(all) != 2 {
		t.Errorf("ListSuggestions(all) = %d", len(all))
	}
}

func TestResolveSuggestion_InvalidDecision(t *testing.T) {
	store, _ := setupTestStore(t)
	if _, err := store.ResolveSuggestion(context.Background(), 1, constants.SuggestionPending, ""); err == nil {
		t.Error("expected pending to be rejected as a decision")
	}
}
