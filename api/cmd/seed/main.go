package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/baechuer/blood-drive-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/blood-drive-service/internal/logger"
)

type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

var bloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var timeRanges = []string{"8:00 AM - 12:00 PM", "9:00 AM - 5:00 PM", "1:00 PM - 6:00 PM", "10:00 AM - 2:00 PM"}

func main() {
	logger.Init()
	zlog.Info().Msg("seed starting")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		zlog.Fatal().Msg("DATABASE_URL is required")
	}
	organizers := intEnv("SEED_ORGANIZERS", 5)
	perOrganizer := intEnv("SEED_EVENTS_PER_ORGANIZER", 4)
	donors := intEnv("SEED_DONORS", 50)

	if err := postgres.MigrateUp(dsn); err != nil {
		zlog.Fatal().Err(err).Msg("migrate")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		zlog.Fatal().Err(err).Msg("open postgres")
	}
	defer db.Close()

	gofakeit.Seed(time.Now().UnixNano())

	svc := event.New(postgres.New(db, time.Local), sysClock{}, nil, nil, nil, 0)
	ctx := context.Background()

	events, err := seedEvents(ctx, svc, organizers, perOrganizer)
	if err != nil {
		zlog.Fatal().Err(err).Msg("seed events")
	}
	if err := seedRegistrations(ctx, svc, events, donors); err != nil {
		zlog.Fatal().Err(err).Msg("seed registrations")
	}

	zlog.Info().Int("events", len(events)).Int("donors", donors).Msg("seed complete")
}

func intEnv(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return def
}

func seedEvents(ctx context.Context, svc *event.Service, organizers, perOrganizer int) ([]*domain.Event, error) {
	zlog.Info().Int("organizers", organizers).Int("per_organizer", perOrganizer).Msg("seeding events")

	today := domain.DateOf(time.Now())
	var out []*domain.Event
	for i := 0; i < organizers; i++ {
		org := domain.Actor{ID: uuid.NewString(), Role: domain.RoleOrganizer}
		company := gofakeit.Company()

		for j := 0; j < perOrganizer; j++ {
			start := today.AddDate(0, 0, gofakeit.Number(1, 60))
			city := gofakeit.City()
			ev, err := svc.Create(ctx, event.CreateCmd{
				Actor:            org,
				Title:            fmt.Sprintf("%s Blood Drive #%d", city, i*perOrganizer+j+1),
				OrganizationName: company,
				Description:      fmt.Sprintf("Community blood drive hosted by %s in %s.", company, city),
				Location:         gofakeit.Street() + ", " + city,
				ContactEmail:     gofakeit.Email(),
				ContactPhone:     gofakeit.Phone(),
				BloodTypesNeeded: pickBloodTypes(),
				StartDate:        start,
				EndDate:          start.AddDate(0, 0, gofakeit.Number(0, 2)),
				TimeRange:        timeRanges[gofakeit.Number(0, len(timeRanges)-1)],
				ExpectedCapacity: gofakeit.Number(10, 80),
			})
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
	}
	return out, nil
}

func pickBloodTypes() []string {
	n := gofakeit.Number(1, 4)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, bloodTypes[gofakeit.Number(0, len(bloodTypes)-1)])
	}
	return out
}

// seedRegistrations signs each donor up for a few random drives; full drives
// and repeats are skipped.
func seedRegistrations(ctx context.Context, svc *event.Service, events []*domain.Event, donors int) error {
	if len(events) == 0 {
		return nil
	}
	registered := 0
	for i := 0; i < donors; i++ {
		donor := domain.Actor{ID: uuid.NewString(), Role: domain.RoleDonor}
		for k := gofakeit.Number(1, 3); k > 0; k-- {
			ev := events[gofakeit.Number(0, len(events)-1)]
			_, err := svc.Register(ctx, ev.ID, donor)
			switch {
			case err == nil:
				registered++
			case domain.IsCode(err, domain.CodeConflict):
			default:
				return err
			}
		}
	}
	zlog.Info().Int("registrations", registered).Msg("registrations seeded")
	return nil
}
