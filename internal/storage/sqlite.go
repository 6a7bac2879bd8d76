// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"diet-coach/internal/models"
)

// Store owns the shared SQLite connection. It is constructed once at the
// application root and injected into every component that reads or writes
// records. No call succeeds before EnsureSchema has completed.
type Store struct {
	db          *sql.DB
	initialized bool
}

// New opens the database at path. Use ":memory:" for tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInit, path, err)
	}
	// A single writer keeps the cooperative single-threaded model honest
	// and avoids SQLITE_BUSY under concurrent tool calls.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema idempotently provisions the four relations. Safe to call
// multiple times; every statement is CREATE ... IF NOT EXISTS.
func (s *Store) EnsureSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS user (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        height REAL NOT NULL,
        weight REAL NOT NULL,
        target_weight REAL NOT NULL DEFAULT 0,
        gender TEXT NOT NULL DEFAULT '',
        body_type TEXT NOT NULL DEFAULT '',
        goal TEXT NOT NULL DEFAULT '',
        period TEXT NOT NULL DEFAULT '',
        goal_intake INTEGER NOT NULL DEFAULT 0,
        goal_burn INTEGER NOT NULL DEFAULT 0
    );

    CREATE TABLE IF NOT EXISTS exercises (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        date TEXT NOT NULL,
        type TEXT NOT NULL,
        duration INTEGER NOT NULL DEFAULT 0,
        calories INTEGER NOT NULL DEFAULT 0,
        distance REAL NOT NULL DEFAULT 0,
        incline REAL NOT NULL DEFAULT 0,
        speed REAL NOT NULL DEFAULT 0,
        level INTEGER NOT NULL DEFAULT 0,
        sets INTEGER NOT NULL DEFAULT 0,
        reps INTEGER NOT NULL DEFAULT 0,
        weight REAL NOT NULL DEFAULT 0
    );

    CREATE TABLE IF NOT EXISTS meals (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        date TEXT NOT NULL,
        type TEXT NOT NULL,
        food_name TEXT NOT NULL,
        quantity TEXT NOT NULL DEFAULT '',
        calories INTEGER NOT NULL DEFAULT 0,
        protein INTEGER NOT NULL DEFAULT 0,
        carbs INTEGER NOT NULL DEFAULT 0,
        fat INTEGER NOT NULL DEFAULT 0
    );

    CREATE TABLE IF NOT EXISTS credentials (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT NOT NULL UNIQUE,
        password TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_exercises_date ON exercises(date);
    CREATE INDEX IF NOT EXISTS idx_meals_date ON meals(date);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrInit, err)
	}

	s.initialized = true
	return nil
}

func (s *Store) ready() error {
	if !s.initialized {
		return ErrNotInitialized
	}
	return nil
}

// UpsertProfile updates the singleton profile row in place, inserting it
// on first setup.
func (s *Store) UpsertProfile(ctx context.Context, p *models.UserProfile) error {
	if err := s.ready(); err != nil {
		return err
	}
	if p.Height <= 0 {
		return &ValidationError{Field: "height", Reason: "must be positive"}
	}
	if p.Weight <= 0 {
		return &ValidationError{Field: "weight", Reason: "must be positive"}
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM user ORDER BY id ASC LIMIT 1`).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx, `
            INSERT INTO user (height, weight, target_weight, gender, body_type, goal, period, goal_intake, goal_burn)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Height, p.Weight, p.TargetWeight, p.Gender, p.BodyType, p.Goal, p.Period, p.GoalIntake, p.GoalBurn)
		if err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to query profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
        UPDATE user SET height = ?, weight = ?, target_weight = ?, gender = ?,
            body_type = ?, goal = ?, period = ?, goal_intake = ?, goal_burn = ?
        WHERE id = ?`,
		p.Height, p.Weight, p.TargetWeight, p.Gender, p.BodyType, p.Goal, p.Period, p.GoalIntake, p.GoalBurn, id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// Profile returns the singleton profile, or nil when none has been set up.
// Should duplicate rows ever exist, the first by insertion order wins.
func (s *Store) Profile(ctx context.Context) (*models.UserProfile, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	p := &models.UserProfile{}
	err := s.db.QueryRowContext(ctx, `
        SELECT height, weight, target_weight, gender, body_type, goal, period, goal_intake, goal_burn
        FROM user ORDER BY id ASC LIMIT 1`).
		Scan(&p.Height, &p.Weight, &p.TargetWeight, &p.Gender, &p.BodyType, &p.Goal, &p.Period, &p.GoalIntake, &p.GoalBurn)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return p, nil
}

// AddExercise inserts a session and returns its assigned id. Calories 0
// marks the record as pending AI analysis.
func (s *Store) AddExercise(ctx context.Context, rec *models.ExerciseRecord) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(rec.Date) == "" {
		return 0, &ValidationError{Field: "date", Reason: "must not be empty"}
	}
	if strings.TrimSpace(rec.Type) == "" {
		return 0, &ValidationError{Field: "type", Reason: "must not be empty"}
	}

	res, err := s.db.ExecContext(ctx, `
        INSERT INTO exercises (date, type, duration, calories, distance, incline, speed, level, sets, reps, weight)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Date, rec.Type, rec.Duration, rec.Calories, rec.Distance,
		rec.Incline, rec.Speed, rec.Level, rec.Sets, rec.Reps, rec.Weight)
	if err != nil {
		return 0, fmt.Errorf("failed to insert exercise: %w", err)
	}
	return res.LastInsertId()
}

// AddMeal inserts a meal and returns its assigned id.
func (s *Store) AddMeal(ctx context.Context, rec *models.MealRecord) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(rec.Date) == "" {
		return 0, &ValidationError{Field: "date", Reason: "must not be empty"}
	}
	if strings.TrimSpace(rec.Type) == "" {
		return 0, &ValidationError{Field: "type", Reason: "must not be empty"}
	}
	if strings.TrimSpace(rec.FoodName) == "" {
		return 0, &ValidationError{Field: "food_name", Reason: "must not be empty"}
	}

	res, err := s.db.ExecContext(ctx, `
        INSERT INTO meals (date, type, food_name, quantity, calories, protein, carbs, fat)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Date, rec.Type, rec.FoodName, rec.Quantity,
		rec.Calories, rec.Protein, rec.Carbs, rec.Fat)
	if err != nil {
		return 0, fmt.Errorf("failed to insert meal: %w", err)
	}
	return res.LastInsertId()
}

// GetExercise returns the record with the given id, or nil when absent.
func (s *Store) GetExercise(ctx context.Context, id int64) (*models.ExerciseRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rec := &models.ExerciseRecord{}
	err := s.db.QueryRowContext(ctx, `
        SELECT id, date, type, duration, calories, distance, incline, speed, level, sets, reps, weight
        FROM exercises WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Date, &rec.Type, &rec.Duration, &rec.Calories,
			&rec.Distance, &rec.Incline, &rec.Speed, &rec.Level, &rec.Sets, &rec.Reps, &rec.Weight)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query exercise: %w", err)
	}
	return rec, nil
}

// GetMeal returns the record with the given id, or nil when absent.
func (s *Store) GetMeal(ctx context.Context, id int64) (*models.MealRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rec := &models.MealRecord{}
	err := s.db.QueryRowContext(ctx, `
        SELECT id, date, type, food_name, quantity, calories, protein, carbs, fat
        FROM meals WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Date, &rec.Type, &rec.FoodName, &rec.Quantity,
			&rec.Calories, &rec.Protein, &rec.Carbs, &rec.Fat)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query meal: %w", err)
	}
	return rec, nil
}

// ListExercises returns all sessions, most recent first. The ordering
// (date desc, id desc) is stable so screens and tests can rely on it.
func (s *Store) ListExercises(ctx context.Context) ([]*models.ExerciseRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, date, type, duration, calories, distance, incline, speed, level, sets, reps, weight
        FROM exercises ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()

	var recs []*models.ExerciseRecord
	for rows.Next() {
		rec := &models.ExerciseRecord{}
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Type, &rec.Duration, &rec.Calories,
			&rec.Distance, &rec.Incline, &rec.Speed, &rec.Level, &rec.Sets, &rec.Reps, &rec.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ListMeals returns all meals, most recent first (date desc, id desc).
func (s *Store) ListMeals(ctx context.Context) ([]*models.MealRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, date, type, food_name, quantity, calories, protein, carbs, fat
        FROM meals ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var recs []*models.MealRecord
	for rows.Next() {
		rec := &models.MealRecord{}
		if err := rows.Scan(&rec.ID, &rec.Date, &rec.Type, &rec.FoodName, &rec.Quantity,
			&rec.Calories, &rec.Protein, &rec.Carbs, &rec.Fat); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteExercise removes a session. Deleting a missing id is a no-op, not
// an error.
func (s *Store) DeleteExercise(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete exercise: %w", err)
	}
	return nil
}

// DeleteMeal removes a meal. Deleting a missing id is a no-op.
func (s *Store) DeleteMeal(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	return nil
}

// UpdateExerciseCalories writes AI-reconciled calories onto one record and
// returns the number of rows touched. Zero rows means the record was
// deleted mid-flight; the caller treats that as a benign race.
func (s *Store) UpdateExerciseCalories(ctx context.Context, id int64, calories int) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE exercises SET calories = ? WHERE id = ?`, calories, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update exercise calories: %w", err)
	}
	return res.RowsAffected()
}

// UpdateMealCalories writes AI-reconciled nutrition onto one record and
// returns the number of rows touched.
func (s *Store) UpdateMealCalories(ctx context.Context, id int64, calories, protein, carbs, fat int) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
        UPDATE meals SET calories = ?, protein = ?, carbs = ?, fat = ? WHERE id = ?`,
		calories, protein, carbs, fat, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update meal calories: %w", err)
	}
	return res.RowsAffected()
}

// AddCredential registers an account. The duplicate check runs before the
// insert so callers see ErrDuplicateEmail instead of an engine-specific
// constraint violation.
func (s *Store) AddCredential(ctx context.Context, email, passwordHash string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	if passwordHash == "" {
		return &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	existing, err := s.FindCredentialByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateEmail
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (email, password) VALUES (?, ?)`, email, passwordHash); err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}
	return nil
}

// FindCredentialByEmail returns the matching credential, or nil when the
// email is not registered.
func (s *Store) FindCredentialByEmail(ctx context.Context, email string) (*models.Credential, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	cred := &models.Credential{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password FROM credentials WHERE email = ?`, email).
		Scan(&cred.ID, &cred.Email, &cred.Password)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}
	return cred, nil
}
