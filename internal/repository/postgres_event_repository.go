package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/yourusername/ol-results/internal/batch"
	"github.com/yourusername/ol-results/internal/database"
	"github.com/yourusername/ol-results/internal/models"
)

const (
	errScanEvent       = "failed to scan event: %w"
	uniqueViolation    = "23505"
	resultCopyRowLimit = batch.DefaultSize
)

const selectEventColumns = `SELECT id, name, start_date, organiser, created_at, updated_at FROM events`

var resultColumns = []string{
	"class_result_id", "ordinal", "person_id", "given_name", "family_name", "birth_date",
	"gender", "organisation", "bib_number", "start_time", "finish_time",
	"time_seconds", "time_behind", "position", "status", "split_times",
}

// PostgresEventRepository implements EventRepository on PostgreSQL. Event ids
// come from the BIGSERIAL sequence of the events table.
type PostgresEventRepository struct {
	db       *database.DB
	recorder SaveRecorder
}

// NewPostgresEventRepository creates a new event repository
func NewPostgresEventRepository(db *database.DB, recorder SaveRecorder) *PostgresEventRepository {
	return &PostgresEventRepository{db: db, recorder: recorder}
}

// Save implements EventRepository
func (r *PostgresEventRepository) Save(ctx context.Context, event *models.Event) (*models.Event, error) {
	if event == nil {
		return nil, fmt.Errorf("event is nil")
	}
	if event.Name.IsZero() {
		return nil, models.ErrEmptyEventName
	}

	var stored *models.Event
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		if event.HasIdentity() {
			stored, err = r.updateHeader(ctx, tx, event)
		} else {
			stored, err = r.insertHeader(ctx, tx, event)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM class_results WHERE event_id = $1`, stored.ID); err != nil {
			return fmt.Errorf("failed to clear class results: %w", err)
		}
		if err := r.replaceRaces(ctx, tx, stored); err != nil {
			return err
		}
		return r.insertClassResults(ctx, tx, stored.ID, 0, event.ClassResults)
	})
	if err != nil {
		return nil, err
	}

	stored.ClassResults = event.Clone().ClassResults
	r.record(stored)
	return stored, nil
}

// FindAll implements EventRepository
func (r *PostgresEventRepository) FindAll(ctx context.Context) ([]*models.Event, error) {
	var events []*models.Event
	err := r.db.WithReadTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, selectEventColumns+` ORDER BY id ASC`)
		if err != nil {
			return fmt.Errorf("failed to query events: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			e, err := scanEvent(rows)
			if err != nil {
				return err
			}
			events = append(events, e)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		for _, e := range events {
			if err := r.loadChildren(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// FindByID implements EventRepository
func (r *PostgresEventRepository) FindByID(ctx context.Context, id models.EventID) (*models.Event, bool, error) {
	var event *models.Event
	err := r.db.WithReadTx(ctx, func(tx pgx.Tx) error {
		var err error
		event, err = r.loadEvent(ctx, tx, selectEventColumns+` WHERE id = $1`, id)
		return err
	})
	if errors.Is(err, models.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return event, true, nil
}

// FindOrCreate implements EventRepository. The insert uses ON CONFLICT so two
// concurrent importers of the same name end up with a single row.
func (r *PostgresEventRepository) FindOrCreate(ctx context.Context, event *models.Event) (*models.Event, bool, error) {
	if event == nil {
		return nil, false, fmt.Errorf("event is nil")
	}
	if event.Name.IsZero() {
		return nil, false, models.ErrEmptyEventName
	}

	var (
		stored  *models.Event
		created bool
	)
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO events (name, start_date, organiser)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
			RETURNING id, created_at, updated_at
		`

		fresh := event.Clone()
		err := tx.QueryRow(ctx, query, fresh.Name.String(), fresh.StartDate, fresh.Organiser).
			Scan(&fresh.ID, &fresh.CreatedAt, &fresh.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			stored, err = r.loadEvent(ctx, tx, selectEventColumns+` WHERE name = $1`, fresh.Name.String())
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}

		stored = fresh.WithID(fresh.ID)
		created = true
		if err := r.replaceRaces(ctx, tx, stored); err != nil {
			return err
		}
		return r.insertClassResults(ctx, tx, stored.ID, 0, stored.ClassResults)
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		r.record(stored)
	}
	return stored, created, nil
}

// ReplaceClassResults implements EventRepository
func (r *PostgresEventRepository) ReplaceClassResults(ctx context.Context, event *models.Event) error {
	if event == nil || !event.HasIdentity() {
		return models.ErrInvalidID
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		stored, err := r.updateHeader(ctx, tx, event)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM class_results WHERE event_id = $1`, event.ID); err != nil {
			return fmt.Errorf("failed to clear class results: %w", err)
		}
		return r.replaceRaces(ctx, tx, stored)
	})
}

// AppendClassResults implements EventRepository. Each call is one transaction;
// ordinals continue after the classes already stored.
func (r *PostgresEventRepository) AppendClassResults(ctx context.Context, id models.EventID, classResults []models.ClassResult) error {
	if len(classResults) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("event %d: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}

		var next int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(ordinal) + 1, 0) FROM class_results WHERE event_id = $1`, id).Scan(&next); err != nil {
			return fmt.Errorf("failed to read class ordinal: %w", err)
		}

		if err := r.insertClassResults(ctx, tx, id, next, classResults); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE events SET updated_at = NOW() WHERE id = $1`, id)
		return err
	})
}

func (r *PostgresEventRepository) insertHeader(ctx context.Context, tx pgx.Tx, event *models.Event) (*models.Event, error) {
	query := `
		INSERT INTO events (name, start_date, organiser)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	stored := event.WithClassResults(nil)
	err := tx.QueryRow(ctx, query, stored.Name.String(), stored.StartDate, stored.Organiser).
		Scan(&stored.ID, &stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("event %q: %w", stored.Name, models.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return stored.WithID(stored.ID), nil
}

func (r *PostgresEventRepository) updateHeader(ctx context.Context, tx pgx.Tx, event *models.Event) (*models.Event, error) {
	query := `
		UPDATE events SET start_date = $2, organiser = $3, updated_at = NOW()
		WHERE id = $1 AND name = $4
		RETURNING created_at, updated_at
	`

	stored := event.WithClassResults(nil)
	err := tx.QueryRow(ctx, query, stored.ID, stored.StartDate, stored.Organiser, stored.Name.String()).
		Scan(&stored.CreatedAt, &stored.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var name string
		lookupErr := tx.QueryRow(ctx, `SELECT name FROM events WHERE id = $1`, stored.ID).Scan(&name)
		if errors.Is(lookupErr, pgx.ErrNoRows) {
			return nil, fmt.Errorf("event %d: %w", stored.ID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("event %d: %w", stored.ID, models.ErrNameImmutable)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return stored, nil
}

func (r *PostgresEventRepository) replaceRaces(ctx context.Context, tx pgx.Tx, event *models.Event) error {
	if _, err := tx.Exec(ctx, `DELETE FROM event_races WHERE event_id = $1`, event.ID); err != nil {
		return fmt.Errorf("failed to clear races: %w", err)
	}
	for _, race := range event.Races {
		_, err := tx.Exec(ctx,
			`INSERT INTO event_races (event_id, race_number, race_name) VALUES ($1, $2, $3)`,
			event.ID, race.Number, race.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert race %d: %w", race.Number, err)
		}
	}
	return nil
}

// insertClassResults writes class rows one by one and their result rows with
// COPY, bounded to resultCopyRowLimit rows per COPY.
func (r *PostgresEventRepository) insertClassResults(ctx context.Context, tx pgx.Tx, eventID models.EventID, firstOrdinal int, classResults []models.ClassResult) error {
	for i, cr := range classResults {
		var classID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO class_results (event_id, ordinal, class_name, short_name, race_number)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, eventID, firstOrdinal+i, cr.ClassName, cr.ShortName, cr.RaceNumber).Scan(&classID)
		if err != nil {
			return fmt.Errorf("failed to insert class %q: %w", cr.ClassName, err)
		}

		rows, err := resultRows(classID, cr.Results)
		if err != nil {
			return err
		}

		err = batch.ProcessInBatches(rows, resultCopyRowLimit, func(chunk [][]any) error {
			n, err := tx.CopyFrom(ctx, pgx.Identifier{"results"}, resultColumns, pgx.CopyFromRows(chunk))
			if err != nil {
				return err
			}
			if n != int64(len(chunk)) {
				return fmt.Errorf("inserted %d rows, expected %d", n, len(chunk))
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to insert results of class %q: %w", cr.ClassName, err)
		}
	}
	return nil
}

func resultRows(classID int64, results []models.Result) ([][]any, error) {
	rows := make([][]any, len(results))
	for i, res := range results {
		var splits []byte
		if len(res.SplitTimes) > 0 {
			var err error
			splits, err = json.Marshal(res.SplitTimes)
			if err != nil {
				return nil, fmt.Errorf("failed to encode split times: %w", err)
			}
		}
		rows[i] = []any{
			classID, i, res.Person.ID, res.Person.GivenName, res.Person.FamilyName, res.Person.BirthDate,
			string(res.Person.Gender), res.Organisation, res.BibNumber, res.StartTime, res.FinishTime,
			decimalArg(res.Time), decimalArg(res.TimeBehind), res.Position.Value, string(res.Status), splits,
		}
	}
	return rows, nil
}

func (r *PostgresEventRepository) loadEvent(ctx context.Context, tx pgx.Tx, query string, arg any) (*models.Event, error) {
	e, err := scanEvent(tx.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, tx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *PostgresEventRepository) loadChildren(ctx context.Context, tx pgx.Tx, e *models.Event) error {
	raceRows, err := tx.Query(ctx, `SELECT race_number, race_name FROM event_races WHERE event_id = $1 ORDER BY race_number`, e.ID)
	if err != nil {
		return fmt.Errorf("failed to query races: %w", err)
	}
	for raceRows.Next() {
		race := models.Race{EventID: e.ID}
		if err := raceRows.Scan(&race.Number, &race.Name); err != nil {
			raceRows.Close()
			return fmt.Errorf("failed to scan race: %w", err)
		}
		e.Races = append(e.Races, race)
	}
	raceRows.Close()
	if err := raceRows.Err(); err != nil {
		return err
	}

	classRows, err := tx.Query(ctx, `
		SELECT id, class_name, short_name, race_number
		FROM class_results WHERE event_id = $1 ORDER BY ordinal ASC
	`, e.ID)
	if err != nil {
		return fmt.Errorf("failed to query class results: %w", err)
	}

	var classIDs []int64
	for classRows.Next() {
		var (
			id int64
			cr models.ClassResult
		)
		if err := classRows.Scan(&id, &cr.ClassName, &cr.ShortName, &cr.RaceNumber); err != nil {
			classRows.Close()
			return fmt.Errorf("failed to scan class result: %w", err)
		}
		classIDs = append(classIDs, id)
		e.ClassResults = append(e.ClassResults, cr)
	}
	classRows.Close()
	if err := classRows.Err(); err != nil {
		return err
	}

	for i, id := range classIDs {
		results, err := loadResults(ctx, tx, id)
		if err != nil {
			return err
		}
		e.ClassResults[i].Results = results
	}
	return nil
}

func loadResults(ctx context.Context, tx pgx.Tx, classID int64) ([]models.Result, error) {
	rows, err := tx.Query(ctx, `
		SELECT person_id, given_name, family_name, birth_date, gender, organisation, bib_number,
		       start_time, finish_time, time_seconds::text, time_behind::text, position, status, split_times
		FROM results WHERE class_result_id = $1 ORDER BY ordinal ASC
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		var (
			res               models.Result
			gender, status    string
			seconds, behind   *string
			splits            []byte
			birth, start, fin *time.Time
		)
		err := rows.Scan(
			&res.Person.ID, &res.Person.GivenName, &res.Person.FamilyName, &birth, &gender,
			&res.Organisation, &res.BibNumber, &start, &fin, &seconds, &behind,
			&res.Position.Value, &status, &splits,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		res.Person.BirthDate = birth
		res.Person.Gender = models.Gender(gender)
		res.StartTime = start
		res.FinishTime = fin
		res.Status = models.ResultStatus(status)
		if res.Time, err = parseDecimal(seconds); err != nil {
			return nil, err
		}
		if res.TimeBehind, err = parseDecimal(behind); err != nil {
			return nil, err
		}
		if len(splits) > 0 {
			if err := json.Unmarshal(splits, &res.SplitTimes); err != nil {
				return nil, fmt.Errorf("failed to decode split times: %w", err)
			}
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var (
		e    models.Event
		name string
	)
	if err := row.Scan(&e.ID, &name, &e.StartDate, &e.Organiser, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf(errScanEvent, err)
	}
	n, err := models.NewEventName(name)
	if err != nil {
		return nil, fmt.Errorf(errScanEvent, err)
	}
	e.Name = n
	if e.StartDate != nil {
		utc := e.StartDate.UTC()
		e.StartDate = &utc
	}
	return &e, nil
}

func decimalArg(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func parseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid numeric %q: %w", *s, err)
	}
	return &d, nil
}

func (r *PostgresEventRepository) record(e *models.Event) {
	if r.recorder != nil {
		r.recorder.RecordSave(e)
	}
}
