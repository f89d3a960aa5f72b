package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/finsight/marketcal/pkg/model"
	"github.com/finsight/marketcal/pkg/storage"
)

func newEventStore(db *sqlx.DB) *eventStore {
	return &eventStore{
		db: db,
	}
}

type eventStore struct {
	db *sqlx.DB
}

type sqlDataEvent struct {
	ID              int64           `db:"id"`
	Ticker          string          `db:"ticker"`
	EventDate       time.Time       `db:"event_date"`
	EventName       string          `db:"event_name"`
	EventType       string          `db:"event_type"`
	Impact          string          `db:"impact"`
	Details         string          `db:"details"`
	CleanImpliedVol sql.NullFloat64 `db:"clean_implied_vol"`
	DirtyVolume     sql.NullFloat64 `db:"dirty_volume"`
	TotalImpliedVol sql.NullFloat64 `db:"total_implied_vol"`
	Vol             sql.NullFloat64 `db:"vol"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (d *sqlDataEvent) Scan(m *model.Event) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.Ticker = m.Ticker
	d.EventDate = m.EventDate.UTC()
	d.EventName = m.EventName
	d.EventType = string(m.EventType)
	d.Impact = string(m.Impact)
	d.Details = m.Details
	d.CleanImpliedVol = toNullFloat(m.CleanImpliedVol)
	d.DirtyVolume = toNullFloat(m.DirtyVolume)
	d.TotalImpliedVol = toNullFloat(m.TotalImpliedVol)
	d.Vol = toNullFloat(m.Vol)
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataEvent) Model() (*model.Event, error) {
	m := &model.Event{
		ID:              d.ID,
		Ticker:          d.Ticker,
		EventDate:       d.EventDate,
		EventName:       d.EventName,
		EventType:       model.EventType(d.EventType),
		Impact:          model.Impact(d.Impact),
		Details:         d.Details,
		CleanImpliedVol: fromNullFloat(d.CleanImpliedVol),
		DirtyVolume:     fromNullFloat(d.DirtyVolume),
		TotalImpliedVol: fromNullFloat(d.TotalImpliedVol),
		Vol:             fromNullFloat(d.Vol),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}

	return m, nil
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func (s *eventStore) FetchAll() ([]model.Event, error) {
	return fetchEvents(s.db, "SELECT * FROM ticker_events ORDER BY id")
}

func (s *eventStore) FetchByTicker(ticker string) ([]model.Event, error) {
	return fetchEvents(s.db, "SELECT * FROM ticker_events WHERE ticker=$1 ORDER BY id", ticker)
}

func (s *eventStore) FindByID(id int64) (*model.Event, error) {
	return findEvent(s.db, "SELECT * FROM ticker_events WHERE id=$1", id)
}

func (s *eventStore) FindByNaturalKey(ticker string, eventDate time.Time) (*model.Event, error) {
	return findEvent(s.db, "SELECT * FROM ticker_events WHERE ticker=$1 AND event_date=$2",
		ticker, eventDate.UTC())
}

func (s *eventStore) Create(m *model.Event) error {
	return createEvent(s.db, m)
}

func (s *eventStore) UpdateByID(id int64, u model.EventUpdate) (*model.Event, error) {
	return updateEventByID(s.db, id, u)
}

func (s *eventStore) Upsert(m *model.Event) (bool, error) {
	return upsertEvent(s.db, m)
}

func fetchEvents(db *sqlx.DB, query string, args ...interface{}) ([]model.Event, error) {
	rows := make([]sqlDataEvent, 0)
	models := make([]model.Event, 0)

	if err := db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to fetch events")
	}

	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to event model")
		}

		models = append(models, *m)
	}

	return models, nil
}

func findEvent(db *sqlx.DB, query string, args ...interface{}) (*model.Event, error) {
	d := sqlDataEvent{}
	if err := db.Get(&d, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find event")
	}

	return d.Model()
}

func createEvent(db *sqlx.DB, m *model.Event) error {
	d := sqlDataEvent{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert event model to SQL data")
	}

	query := `INSERT INTO ticker_events
		(ticker, event_date, event_name, event_type, impact, details,
		 clean_implied_vol, dirty_volume, total_implied_vol, vol,
		 created_at, updated_at)
		VALUES
		(:ticker, :event_date, :event_name, :event_type, :impact, :details,
		 :clean_implied_vol, :dirty_volume, :total_implied_vol, :vol,
		 :created_at, :updated_at)
		RETURNING id`
	rows, err := db.NamedQuery(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to create event")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&m.ID)
	}

	return nil
}

func updateEventByID(db *sqlx.DB, id int64, u model.EventUpdate) (*model.Event, error) {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	args = append(args, id)

	addSet := func(column string, v *float64) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	addSet("clean_implied_vol", u.CleanImpliedVol)
	addSet("dirty_volume", u.DirtyVolume)
	addSet("total_implied_vol", u.TotalImpliedVol)
	addSet("vol", u.Vol)

	args = append(args, time.Now().Round(time.Second).UTC())
	sets = append(sets, fmt.Sprintf("updated_at=$%d", len(args)))

	query := fmt.Sprintf("UPDATE ticker_events SET %s WHERE id=$1 RETURNING *",
		strings.Join(sets, ", "))

	d := sqlDataEvent{}
	if err := db.Get(&d, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to update event")
	}

	return d.Model()
}

func upsertEvent(db *sqlx.DB, m *model.Event) (bool, error) {
	d := sqlDataEvent{}
	if err := d.Scan(m); err != nil {
		return false, errors.Wrap(err, "failed to convert event model to SQL data")
	}

	// The unique constraint on (ticker, event_date) makes this the
	// serialization point for concurrent reconciliation runs. COALESCE on
	// the overlay columns keeps analyst-entered values alive when the
	// candidate does not carry a replacement. xmax is zero only for rows
	// the statement freshly inserted.
	query := `INSERT INTO ticker_events
		(ticker, event_date, event_name, event_type, impact, details,
		 clean_implied_vol, dirty_volume, total_implied_vol, vol,
		 created_at, updated_at)
		VALUES
		(:ticker, :event_date, :event_name, :event_type, :impact, :details,
		 :clean_implied_vol, :dirty_volume, :total_implied_vol, :vol,
		 :created_at, :updated_at)
		ON CONFLICT (ticker, event_date) DO UPDATE SET
		 event_name = EXCLUDED.event_name,
		 event_type = EXCLUDED.event_type,
		 impact = EXCLUDED.impact,
		 details = EXCLUDED.details,
		 clean_implied_vol = COALESCE(EXCLUDED.clean_implied_vol, ticker_events.clean_implied_vol),
		 dirty_volume = COALESCE(EXCLUDED.dirty_volume, ticker_events.dirty_volume),
		 total_implied_vol = COALESCE(EXCLUDED.total_implied_vol, ticker_events.total_implied_vol),
		 vol = COALESCE(EXCLUDED.vol, ticker_events.vol),
		 updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0) AS inserted`

	rows, err := db.NamedQuery(query, d)
	if err != nil {
		return false, errors.Wrap(err, "failed to upsert event")
	}
	defer rows.Close()

	var created bool
	if rows.Next() {
		if err := rows.Scan(&m.ID, &created); err != nil {
			return false, errors.Wrap(err, "failed to scan upsert result")
		}
	}

	return created, nil
}
