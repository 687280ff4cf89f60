package event_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/baechuer/blood-drive-service/internal/infrastructure/db/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks & Helpers ---

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// jsonCache stores values the way the Redis client does, as JSON.
type jsonCache struct {
	mu    sync.Mutex
	store map[string][]byte
	hits  int
}

func newJSONCache() *jsonCache { return &jsonCache{store: map[string][]byte{}} }

func (c *jsonCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dest)
}

func (c *jsonCache) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.store[key] = b
	c.mu.Unlock()
	return nil
}

func (c *jsonCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.store, k)
	}
	return nil
}

type statsRecorder struct {
	mu  sync.Mutex
	ids []string
}

func (s *statsRecorder) Invalidate(ctx context.Context, subjectIDs ...string) error {
	s.mu.Lock()
	s.ids = append(s.ids, subjectIDs...)
	s.mu.Unlock()
	return nil
}

func (s *statsRecorder) reset() {
	s.mu.Lock()
	s.ids = nil
	s.mu.Unlock()
}

var (
	organizer = domain.Actor{ID: "org-1", Role: domain.RoleOrganizer}
	intruder  = domain.Actor{ID: "org-2", Role: domain.RoleOrganizer}
)

func donor(id string) domain.Actor { return domain.Actor{ID: id, Role: domain.RoleDonor} }

func at(t *testing.T, s string) time.Time {
	t.Helper()
	tt, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return tt.UTC()
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s, time.UTC)
	require.NoError(t, err)
	return d
}

type fixture struct {
	svc   *event.Service
	repo  *memory.EventRepo
	clock *fakeClock
	cache *jsonCache
	stats *statsRecorder
}

func newFixture(t *testing.T, now string) *fixture {
	f := &fixture{
		repo:  memory.NewEventRepo(),
		clock: &fakeClock{t: at(t, now)},
		cache: newJSONCache(),
		stats: &statsRecorder{},
	}
	f.svc = event.New(f.repo, f.clock, f.cache, f.stats, nil, time.Minute)
	return f
}

func (f *fixture) create(t *testing.T, title, start string, capacity int) *domain.Event {
	t.Helper()
	ev, err := f.svc.Create(context.Background(), createCmd(t, title, start, capacity))
	require.NoError(t, err)
	return ev
}

func createCmd(t *testing.T, title, start string, capacity int) event.CreateCmd {
	return event.CreateCmd{
		Actor:            organizer,
		Title:            title,
		OrganizationName: "Red Cross",
		Description:      "Community blood drive",
		Location:         "Town Hall",
		ContactEmail:     "drive@example.org",
		ContactPhone:     "555-0100",
		BloodTypesNeeded: []string{"O-", "A+"},
		StartDate:        date(t, start),
		TimeRange:        "9:00 AM - 5:00 PM",
		ExpectedCapacity: capacity,
	}
}

func routingKeys(repo *memory.EventRepo) []string {
	var out []string
	for _, m := range repo.Outbox() {
		out = append(out, m.RoutingKey)
	}
	return out
}

// --- Test Cases ---

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("organizer_creates_upcoming_event", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 10)

		assert.Equal(t, domain.StatusUpcoming, ev.Status)
		assert.Equal(t, []string{event.RKEventCreated}, routingKeys(f.repo))
		assert.Contains(t, f.stats.ids, organizer.ID)
	})

	t.Run("event_starting_now_is_created_ongoing", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T10:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 10)
		assert.Equal(t, domain.StatusOngoing, ev.Status)
	})

	t.Run("donor_cannot_create", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		cmd := createCmd(t, "Community Drive", "2025-03-02", 10)
		cmd.Actor = donor("d1")
		_, err := f.svc.Create(ctx, cmd)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("validation_error_commits_nothing", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		cmd := createCmd(t, "Community Drive", "2025-03-02", 10)
		cmd.TimeRange = "5:00 PM - 9:00 AM"
		_, err := f.svc.Create(ctx, cmd)
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
		assert.Empty(t, f.repo.Outbox())
	})
}

func TestService_Create_DuplicateTitle(t *testing.T) {
	ctx := context.Background()

	t.Run("active_title_blocks_case_insensitively", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		f.create(t, "Community Drive", "2025-03-05", 10)

		_, err := f.svc.Create(ctx, createCmd(t, "  community DRIVE ", "2025-03-09", 10))
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
	})

	t.Run("cancelled_title_can_be_reused", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		prior := f.create(t, "Community Drive", "2025-03-05", 10)
		_, err := f.svc.Cancel(ctx, prior.ID, organizer)
		require.NoError(t, err)

		_, err = f.svc.Create(ctx, createCmd(t, "Community Drive", "2025-03-09", 10))
		assert.NoError(t, err)
	})

	t.Run("completed_title_can_be_reused_without_a_read_in_between", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		f.create(t, "Community Drive", "2025-03-01", 10)

		// Stored status is still upcoming; the check must recompute it.
		f.clock.Set(at(t, "2025-03-02T08:00:00Z"))
		_, err := f.svc.Create(ctx, createCmd(t, "Community Drive", "2025-03-09", 10))
		assert.NoError(t, err)
	})

	t.Run("concurrent_creations_admit_one", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		cmd := createCmd(t, "Community Drive", "2025-03-05", 10)

		var wg sync.WaitGroup
		var mu sync.Mutex
		ok, conflicts := 0, 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.Create(ctx, cmd)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					ok++
				} else if domain.IsCode(err, domain.CodeConflict) {
					conflicts++
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, ok)
		assert.Equal(t, 9, conflicts)
	})
}

func TestService_Get_LazyStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("read_persists_changed_status", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 10)

		f.clock.Set(at(t, "2025-03-01T10:00:00Z"))
		got, err := f.svc.Get(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusOngoing, got.Status)

		stored, _ := f.repo.GetByID(ctx, ev.ID)
		assert.Equal(t, domain.StatusOngoing, stored.Status)
		assert.Contains(t, routingKeys(f.repo), event.RKEventStatusChanged)
	})

	t.Run("unchanged_status_writes_nothing", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 10)
		before := len(f.repo.Outbox())

		_, err := f.svc.Get(ctx, ev.ID)
		require.NoError(t, err)
		assert.Len(t, f.repo.Outbox(), before)
	})

	t.Run("cache_hit_is_still_refreshed", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 10)

		_, err := f.svc.Get(ctx, ev.ID)
		require.NoError(t, err)

		f.clock.Set(at(t, "2025-03-01T18:00:00Z"))
		got, err := f.svc.Get(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, f.cache.hits)
		assert.Equal(t, domain.StatusCompleted, got.Status)
	})

	t.Run("mutation_invalidates_cached_details", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 10)
		_, _ = f.svc.Get(ctx, ev.ID)

		_, err := f.svc.Register(ctx, ev.ID, donor("d1"))
		require.NoError(t, err)

		got, err := f.svc.Get(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.CurrentAttendees)
		assert.Equal(t, 0, f.cache.hits)
	})

	t.Run("missing_event_is_not_found", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		_, err := f.svc.Get(ctx, "nope")
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("full_event_rejects_with_conflict", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 1)

		_, err := f.svc.Register(ctx, ev.ID, donor("d1"))
		require.NoError(t, err)
		_, err = f.svc.Register(ctx, ev.ID, donor("d2"))
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
	})

	t.Run("duplicate_registration_rejected", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)

		_, err := f.svc.Register(ctx, ev.ID, donor("d1"))
		require.NoError(t, err)
		_, err = f.svc.Register(ctx, ev.ID, donor("d1"))
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
	})

	t.Run("cancel_then_reregister_adds_second_record", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)

		_, err := f.svc.Register(ctx, ev.ID, donor("d1"))
		require.NoError(t, err)
		_, err = f.svc.CancelRegistration(ctx, ev.ID, donor("d1"))
		require.NoError(t, err)
		res, err := f.svc.Register(ctx, ev.ID, donor("d1"))
		require.NoError(t, err)

		assert.Len(t, res.Event.Attendees, 2)
		assert.Equal(t, 1, res.Event.CurrentAttendees)

		stored, _ := f.repo.GetByID(ctx, ev.ID)
		assert.Len(t, stored.Attendees, 2)
		assert.Equal(t, 1, stored.CurrentAttendees)
	})

	t.Run("double_cancel_is_conflict", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)
		_, _ = f.svc.Register(ctx, ev.ID, donor("d1"))
		_, err := f.svc.CancelRegistration(ctx, ev.ID, donor("d1"))
		require.NoError(t, err)

		_, err = f.svc.CancelRegistration(ctx, ev.ID, donor("d1"))
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
	})

	t.Run("organizer_cannot_register", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)
		_, err := f.svc.Register(ctx, ev.ID, organizer)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("completed_event_is_closed", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 5)
		f.clock.Set(at(t, "2025-03-01T18:00:00Z"))

		_, err := f.svc.Register(ctx, ev.ID, donor("d1"))
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
	})

	t.Run("invalidates_donor_and_organizer_stats", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)
		f.stats.reset()

		_, err := f.svc.Register(ctx, ev.ID, donor("d1"))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"d1", organizer.ID}, f.stats.ids)
		assert.Contains(t, routingKeys(f.repo), event.RKRegistrationCreated)
	})

	t.Run("concurrent_registrations_never_overrun_capacity", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _ = f.svc.Register(ctx, ev.ID, donor(string(rune('a'+i))))
			}(i)
		}
		wg.Wait()

		stored, _ := f.repo.GetByID(ctx, ev.ID)
		assert.Equal(t, 5, stored.CurrentAttendees)
		assert.Len(t, stored.Attendees, 5)
	})
}

func TestService_MarkAttended(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-03-01T08:00:00Z")
	ev := f.create(t, "Community Drive", "2025-03-01", 5)
	_, err := f.svc.Register(ctx, ev.ID, donor("d1"))
	require.NoError(t, err)

	t.Run("not_before_event_starts", func(t *testing.T) {
		_, err := f.svc.MarkAttended(ctx, ev.ID, "d1", organizer)
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
	})

	f.clock.Set(at(t, "2025-03-01T10:00:00Z"))

	t.Run("only_owner", func(t *testing.T) {
		_, err := f.svc.MarkAttended(ctx, ev.ID, "d1", intruder)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("owner_marks_attendance", func(t *testing.T) {
		res, err := f.svc.MarkAttended(ctx, ev.ID, "d1", organizer)
		require.NoError(t, err)
		assert.Equal(t, domain.AttendeeAttended, res.Attendee.Status)
		assert.Equal(t, domain.StatusOngoing, res.Event.Status)
		assert.Contains(t, routingKeys(f.repo), event.RKRegistrationAttended)
	})

	t.Run("attended_registration_cannot_be_cancelled", func(t *testing.T) {
		_, err := f.svc.CancelRegistration(ctx, ev.ID, donor("d1"))
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
	})
}

func TestService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades_to_registered_only", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 5)
		for _, d := range []string{"d1", "d2", "d3"} {
			_, err := f.svc.Register(ctx, ev.ID, donor(d))
			require.NoError(t, err)
		}
		f.clock.Set(at(t, "2025-03-01T10:00:00Z"))
		_, err := f.svc.MarkAttended(ctx, ev.ID, "d2", organizer)
		require.NoError(t, err)
		f.stats.reset()

		out, err := f.svc.Cancel(ctx, ev.ID, organizer)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, out.Status)
		assert.Equal(t, 1, out.CurrentAttendees)

		stored, _ := f.repo.GetByID(ctx, ev.ID)
		statuses := map[string]domain.AttendeeStatus{}
		for _, a := range stored.Attendees {
			statuses[a.DonorID] = a.Status
		}
		assert.Equal(t, domain.AttendeeCancelled, statuses["d1"])
		assert.Equal(t, domain.AttendeeAttended, statuses["d2"])
		assert.Equal(t, domain.AttendeeCancelled, statuses["d3"])
		assert.Equal(t, 1, stored.CurrentAttendees)
		assert.ElementsMatch(t, []string{"d1", "d3", organizer.ID}, f.stats.ids)
	})

	t.Run("stays_cancelled_inside_window", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 5)
		_, err := f.svc.Cancel(ctx, ev.ID, organizer)
		require.NoError(t, err)

		f.clock.Set(at(t, "2025-03-01T12:00:00Z"))
		got, err := f.svc.Get(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, got.Status)
	})

	t.Run("non_owner_forbidden", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)
		_, err := f.svc.Cancel(ctx, ev.ID, intruder)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))

		stored, _ := f.repo.GetByID(ctx, ev.ID)
		assert.Equal(t, domain.StatusUpcoming, stored.Status)
	})

	t.Run("completed_event_cannot_be_cancelled", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 5)
		f.clock.Set(at(t, "2025-03-02T08:00:00Z"))
		_, err := f.svc.Cancel(ctx, ev.ID, organizer)
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	t.Run("owner_updates_fields", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)

		out, err := f.svc.Update(ctx, event.UpdateCmd{Actor: organizer, EventID: ev.ID, Location: str("Library"), ExpectedCapacity: num(8)})
		require.NoError(t, err)
		assert.Equal(t, "Library", out.Location)
		assert.Equal(t, 8, out.ExpectedCapacity)
		assert.Contains(t, routingKeys(f.repo), event.RKEventUpdated)
	})

	t.Run("non_owner_forbidden", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)
		_, err := f.svc.Update(ctx, event.UpdateCmd{Actor: intruder, EventID: ev.ID, Location: str("Library")})
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("completed_event_is_immutable", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 5)
		f.clock.Set(at(t, "2025-03-02T08:00:00Z"))
		_, err := f.svc.Update(ctx, event.UpdateCmd{Actor: organizer, EventID: ev.ID, Location: str("Library")})
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
	})

	t.Run("rename_onto_active_title_is_conflict", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		f.create(t, "Spring Drive", "2025-03-02", 5)
		ev := f.create(t, "Community Drive", "2025-03-03", 5)

		_, err := f.svc.Update(ctx, event.UpdateCmd{Actor: organizer, EventID: ev.ID, Title: str("SPRING drive")})
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
	})

	t.Run("keeping_own_title_is_fine", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-03", 5)
		_, err := f.svc.Update(ctx, event.UpdateCmd{Actor: organizer, EventID: ev.ID, Title: str("community drive")})
		assert.NoError(t, err)
	})

	t.Run("moving_schedule_refreshes_status", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T10:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 5)
		require.Equal(t, domain.StatusOngoing, ev.Status)

		next := date(t, "2025-03-04")
		out, err := f.svc.Update(ctx, event.UpdateCmd{Actor: organizer, EventID: ev.ID, StartDate: &next, EndDate: &next})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusUpcoming, out.Status)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("event_without_history_is_deleted", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)
		require.NoError(t, f.svc.Delete(ctx, ev.ID, organizer))

		_, err := f.svc.Get(ctx, ev.ID)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
		assert.Contains(t, routingKeys(f.repo), event.RKEventDeleted)
	})

	t.Run("history_blocks_deletion", func(t *testing.T) {
		f := newFixture(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)
		_, _ = f.svc.Register(ctx, ev.ID, donor("d1"))
		_, _ = f.svc.CancelRegistration(ctx, ev.ID, donor("d1"))

		err := f.svc.Delete(ctx, ev.ID, organizer)
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
	})
}

func TestService_Lists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "2025-03-01T08:00:00Z")

	today := f.create(t, "Today Drive", "2025-03-01", 5)
	later := f.create(t, "Later Drive", "2025-03-05", 5)
	dropped := f.create(t, "Dropped Drive", "2025-03-03", 5)
	_, err := f.svc.Cancel(ctx, dropped.ID, organizer)
	require.NoError(t, err)

	f.clock.Set(at(t, "2025-03-01T10:00:00Z"))

	t.Run("status_filter_uses_derived_status", func(t *testing.T) {
		page, err := f.svc.ListPublic(ctx, event.ListFilter{Status: "ongoing"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, today.ID, page.Items[0].ID)

		page, err = f.svc.ListPublic(ctx, event.ListFilter{Status: "upcoming"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, later.ID, page.Items[0].ID)
	})

	t.Run("unfiltered_list_is_ordered_by_start_date", func(t *testing.T) {
		page, err := f.svc.ListPublic(ctx, event.ListFilter{PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		require.Len(t, page.Items, 2)
		assert.Equal(t, today.ID, page.Items[0].ID)
		assert.Equal(t, dropped.ID, page.Items[1].ID)
	})

	t.Run("invalid_filter_is_validation_error", func(t *testing.T) {
		_, err := f.svc.ListPublic(ctx, event.ListFilter{BloodType: "Z+"})
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
		_, err = f.svc.ListPublic(ctx, event.ListFilter{Status: "draft"})
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})

	t.Run("list_mine_requires_organizer", func(t *testing.T) {
		_, err := f.svc.ListMine(ctx, donor("d1"), 1, 10)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))

		page, err := f.svc.ListMine(ctx, organizer, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
	})

	t.Run("roster_is_owner_only", func(t *testing.T) {
		_, err := f.svc.Register(ctx, later.ID, donor("d1"))
		require.NoError(t, err)

		roster, err := f.svc.Roster(ctx, later.ID, organizer)
		require.NoError(t, err)
		require.Len(t, roster, 1)
		assert.Equal(t, "d1", roster[0].DonorID)

		_, err = f.svc.Roster(ctx, later.ID, intruder)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})
}

type statusMove struct {
	eventID  string
	from, to domain.EventStatus
}

// auditRecorder keeps status moves and ignores the other audit lines.
type auditRecorder struct {
	mu    sync.Mutex
	moves []statusMove
}

func (a *auditRecorder) EventCreated(context.Context, *domain.Event)                   {}
func (a *auditRecorder) EventUpdated(context.Context, *domain.Event, string)           {}
func (a *auditRecorder) EventCancelled(context.Context, *domain.Event, string, int)    {}
func (a *auditRecorder) EventDeleted(context.Context, string, string)                  {}
func (a *auditRecorder) RegistrationCreated(context.Context, string, string, int, int) {}
func (a *auditRecorder) RegistrationCancelled(context.Context, string, string)         {}
func (a *auditRecorder) AttendanceMarked(context.Context, string, string, string)      {}

func (a *auditRecorder) StatusMaterialized(ctx context.Context, eventID string, from, to domain.EventStatus) {
	a.mu.Lock()
	a.moves = append(a.moves, statusMove{eventID: eventID, from: from, to: to})
	a.mu.Unlock()
}

func TestService_StatusTransitions(t *testing.T) {
	ctx := context.Background()

	newAudited := func(t *testing.T, now string) (*fixture, *auditRecorder) {
		f := newFixture(t, now)
		audit := &auditRecorder{}
		f.svc = event.New(f.repo, f.clock, f.cache, f.stats, audit, time.Minute)
		return f, audit
	}

	t.Run("read_audits_and_invalidates_active_donors", func(t *testing.T) {
		f, audit := newAudited(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 5)
		_, err := f.svc.Register(ctx, ev.ID, donor("d1"))
		require.NoError(t, err)
		f.stats.reset()

		f.clock.Set(at(t, "2025-03-01T10:00:00Z"))
		_, err = f.svc.Get(ctx, ev.ID)
		require.NoError(t, err)

		assert.Equal(t, []statusMove{{ev.ID, domain.StatusUpcoming, domain.StatusOngoing}}, audit.moves)
		assert.ElementsMatch(t, []string{"d1", organizer.ID}, f.stats.ids)
	})

	t.Run("write_path_refresh_audits_and_invalidates_active_donors", func(t *testing.T) {
		f, audit := newAudited(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-01", 5)
		for _, id := range []string{"d1", "d2"} {
			_, err := f.svc.Register(ctx, ev.ID, donor(id))
			require.NoError(t, err)
		}
		f.stats.reset()

		// no read in between, the write path sees the move first
		f.clock.Set(at(t, "2025-03-01T10:00:00Z"))
		_, err := f.svc.MarkAttended(ctx, ev.ID, "d1", organizer)
		require.NoError(t, err)

		assert.Equal(t, []statusMove{{ev.ID, domain.StatusUpcoming, domain.StatusOngoing}}, audit.moves)
		assert.Contains(t, f.stats.ids, "d2")
		assert.Contains(t, f.stats.ids, organizer.ID)
		assert.Contains(t, routingKeys(f.repo), event.RKEventStatusChanged)
	})

	t.Run("reschedule_that_moves_status_invalidates_active_donors", func(t *testing.T) {
		f, audit := newAudited(t, "2025-03-01T10:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)
		_, err := f.svc.Register(ctx, ev.ID, donor("d1"))
		require.NoError(t, err)
		f.stats.reset()

		today := date(t, "2025-03-01")
		out, err := f.svc.Update(ctx, event.UpdateCmd{Actor: organizer, EventID: ev.ID, StartDate: &today, EndDate: &today})
		require.NoError(t, err)
		require.Equal(t, domain.StatusOngoing, out.Status)

		assert.Equal(t, []statusMove{{ev.ID, domain.StatusUpcoming, domain.StatusOngoing}}, audit.moves)
		assert.Contains(t, f.stats.ids, "d1")
		assert.Contains(t, f.stats.ids, organizer.ID)
		assert.Contains(t, routingKeys(f.repo), event.RKEventStatusChanged)
	})

	t.Run("plain_write_audits_nothing", func(t *testing.T) {
		f, audit := newAudited(t, "2025-03-01T08:00:00Z")
		ev := f.create(t, "Community Drive", "2025-03-02", 5)
		_, err := f.svc.Register(ctx, ev.ID, donor("d1"))
		require.NoError(t, err)
		assert.Empty(t, audit.moves)
	})
}
