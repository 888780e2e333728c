package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitMasteryAPI/internal/calendar"
	"habitMasteryAPI/internal/congratulation"
	"habitMasteryAPI/internal/habit"
	"habitMasteryAPI/internal/progress"
	"habitMasteryAPI/internal/tracking"
	"habitMasteryAPI/utils"
)

type HabitService struct {
	db              *pgxpool.Pool
	congratulations *CongratulationService
}

func NewHabitService(db *pgxpool.Pool, congratulations *CongratulationService) *HabitService {
	return &HabitService{
		db:              db,
		congratulations: congratulations,
	}
}

// ToggleResult is what a toggle request hands back to the HTTP layer.
type ToggleResult struct {
	Habit           *habit.Habit                     `json:"habit"`
	Marked          bool                             `json:"marked"`
	Congratulations []*congratulation.Congratulation `json:"congratulations"`
}

func (s *HabitService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

func (s *HabitService) CreateHabit(ctx context.Context, clerkID string, req *habit.CreateHabitRequest) (*habit.Habit, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	// Settings supply the defaults for habits created without explicit
	// parameters.
	defaultGoal := 100
	defaultPeriod := progress.DefaultPeriodDays
	err = s.db.QueryRow(ctx,
		"SELECT default_mastery_goal, default_period FROM user_settings WHERE user_id = $1",
		userID).Scan(&defaultGoal, &defaultPeriod)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to load user settings: %w", err)
	}

	masteryGoal := defaultGoal
	if req.MasteryGoal != nil {
		masteryGoal = *req.MasteryGoal
	}
	if masteryGoal < 1 || masteryGoal > 100 {
		return nil, fmt.Errorf("%w: mastery_goal must be between 1 and 100", ErrInvalidInput)
	}

	now := time.Now()
	var targetDate *time.Time
	if req.TargetDate != nil && *req.TargetDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", *req.TargetDate, now.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: target_date must be YYYY-MM-DD", ErrInvalidInput)
		}
		if !parsed.After(progress.DateOf(now)) {
			return nil, fmt.Errorf("%w: target_date must be in the future", ErrInvalidInput)
		}
		targetDate = &parsed
	} else if defaultPeriod != progress.DefaultPeriodDays {
		d := progress.DateOf(now).AddDate(0, 0, defaultPeriod)
		targetDate = &d
	}

	var teamID *uuid.UUID
	if req.TeamID != nil && *req.TeamID != "" {
		parsed, err := uuid.Parse(*req.TeamID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid team id", ErrInvalidInput)
		}
		var exists bool
		err = s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)", parsed).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check team: %w", err)
		}
		if !exists {
			return nil, ErrTeamNotFound
		}
		teamID = &parsed
	}

	query := `
	INSERT INTO habits (id, user_id, team_id, name, description, mastery_progress, mastery_goal, target_date, is_completed, created_at)
	VALUES ($1, $2, $3, $4, $5, 0, $6, $7, false, NOW())
	RETURNING id, user_id, team_id, name, description, mastery_progress, mastery_goal, target_date, is_completed, completed_at, created_at
	`

	h := &habit.Habit{}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID, teamID, name, req.Description, masteryGoal, targetDate).Scan(
		&h.ID,
		&h.UserID,
		&h.TeamID,
		&h.Name,
		&h.Description,
		&h.MasteryProgress,
		&h.MasteryGoal,
		&h.TargetDate,
		&h.IsCompleted,
		&h.CompletedAt,
		&h.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	return h, nil
}

func (s *HabitService) GetHabits(ctx context.Context, clerkID string) ([]*habit.Habit, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, team_id, name, description, mastery_progress, mastery_goal, target_date, is_completed, completed_at, created_at
	FROM habits
	WHERE user_id = $1
	ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch habits: %w", err)
	}
	defer rows.Close()

	var habits []*habit.Habit
	for rows.Next() {
		h := &habit.Habit{}
		err := rows.Scan(
			&h.ID, &h.UserID, &h.TeamID, &h.Name, &h.Description,
			&h.MasteryProgress, &h.MasteryGoal, &h.TargetDate,
			&h.IsCompleted, &h.CompletedAt, &h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}

	if habits == nil {
		habits = []*habit.Habit{}
	}

	return habits, nil
}

func (s *HabitService) GetHabit(ctx context.Context, clerkID string, habitID uuid.UUID) (*habit.Habit, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, team_id, name, description, mastery_progress, mastery_goal, target_date, is_completed, completed_at, created_at
	FROM habits
	WHERE id = $1 AND user_id = $2
	`

	h := &habit.Habit{}
	err = s.db.QueryRow(ctx, query, habitID, userID).Scan(
		&h.ID, &h.UserID, &h.TeamID, &h.Name, &h.Description,
		&h.MasteryProgress, &h.MasteryGoal, &h.TargetDate,
		&h.IsCompleted, &h.CompletedAt, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	return h, nil
}

// DeleteHabit removes a habit; trackings cascade at the database level.
func (s *HabitService) DeleteHabit(ctx context.Context, clerkID string, habitID uuid.UUID) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, "DELETE FROM habits WHERE id = $1 AND user_id = $2", habitID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrHabitNotFound
	}

	return nil
}

// ToggleTracking is the sole ledger mutation entry point. Inside one
// transaction it flips the (habit, user, date) entry, recomputes mastery
// progress from the ledger and emits the mastery congratulation when the
// goal is first reached. A concurrent duplicate insert loses against the
// uniqueness constraint and surfaces ErrTrackingExists.
func (s *HabitService) ToggleTracking(ctx context.Context, clerkID string, habitID uuid.UUID, date time.Time) (*ToggleResult, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	date = progress.DateOf(date)
	if progress.DaysBetween(time.Now(), date) > 0 {
		return nil, ErrFutureDate
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	h := &habit.Habit{}
	err = tx.QueryRow(ctx, `
	SELECT id, user_id, team_id, name, description, mastery_progress, mastery_goal, target_date, is_completed, completed_at, created_at
	FROM habits
	WHERE id = $1 AND user_id = $2
	FOR UPDATE
	`, habitID, userID).Scan(
		&h.ID, &h.UserID, &h.TeamID, &h.Name, &h.Description,
		&h.MasteryProgress, &h.MasteryGoal, &h.TargetDate,
		&h.IsCompleted, &h.CompletedAt, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("failed to load habit: %w", err)
	}

	var existingID uuid.UUID
	err = tx.QueryRow(ctx,
		"SELECT id FROM trackings WHERE habit_id = $1 AND user_id = $2 AND date = $3",
		habitID, userID, date).Scan(&existingID)

	marked := false
	switch {
	case err == nil:
		// Un-mark: toggle is a strict add/remove, not a counter.
		if _, err := tx.Exec(ctx, "DELETE FROM trackings WHERE id = $1", existingID); err != nil {
			return nil, fmt.Errorf("failed to remove tracking: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		_, err := tx.Exec(ctx,
			"INSERT INTO trackings (id, habit_id, user_id, date) VALUES ($1, $2, $3, $4)",
			uuid.New(), habitID, userID, date)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, ErrTrackingExists
			}
			return nil, fmt.Errorf("failed to insert tracking: %w", err)
		}
		marked = true
	default:
		return nil, fmt.Errorf("failed to check tracking: %w", err)
	}

	var congrats []*congratulation.Congratulation

	// A permanently completed habit keeps its frozen progress; the ledger
	// entry itself may still be flipped.
	if !h.IsCompleted {
		var trackedDays int
		err = tx.QueryRow(ctx, "SELECT COUNT(*) FROM trackings WHERE habit_id = $1", habitID).Scan(&trackedDays)
		if err != nil {
			return nil, fmt.Errorf("failed to count trackings: %w", err)
		}

		h.MasteryProgress = progress.Recompute(h.CreatedAt, h.TargetDate, trackedDays, h.MasteryProgress)

		if marked && progress.ReachesGoal(h.MasteryProgress, h.MasteryGoal) {
			h.IsCompleted = true
			h.CompletedAt = &date

			c, err := s.congratulations.EmitInTx(ctx, tx, userID,
				congratulation.TypeMasteryGoalAchieved,
				fmt.Sprintf("You mastered \"%s\"! Goal of %d%% reached.", h.Name, h.MasteryGoal), date)
			if err != nil {
				return nil, err
			}
			if c != nil {
				congrats = append(congrats, c)
			}
		}

		_, err = tx.Exec(ctx, `
		UPDATE habits
		SET mastery_progress = $2, is_completed = $3, completed_at = $4
		WHERE id = $1
		`, habitID, h.MasteryProgress, h.IsCompleted, h.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to update habit progress: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit toggle: %w", err)
	}

	for _, c := range congrats {
		s.congratulations.DispatchPush(c)
	}

	if congrats == nil {
		congrats = []*congratulation.Congratulation{}
	}

	return &ToggleResult{Habit: h, Marked: marked, Congratulations: congrats}, nil
}

// CompleteHabit force-sets is_completed regardless of progress. Calling it
// on an already completed habit is a no-op; completed_at is set exactly
// once.
func (s *HabitService) CompleteHabit(ctx context.Context, clerkID string, habitID uuid.UUID) (*habit.Habit, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	h := &habit.Habit{}
	err = tx.QueryRow(ctx, `
	SELECT id, user_id, team_id, name, description, mastery_progress, mastery_goal, target_date, is_completed, completed_at, created_at
	FROM habits
	WHERE id = $1 AND user_id = $2
	FOR UPDATE
	`, habitID, userID).Scan(
		&h.ID, &h.UserID, &h.TeamID, &h.Name, &h.Description,
		&h.MasteryProgress, &h.MasteryGoal, &h.TargetDate,
		&h.IsCompleted, &h.CompletedAt, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("failed to load habit: %w", err)
	}

	if h.IsCompleted {
		return h, tx.Commit(ctx)
	}

	now := progress.DateOf(time.Now())
	h.IsCompleted = true
	h.CompletedAt = &now

	_, err = tx.Exec(ctx,
		"UPDATE habits SET is_completed = true, completed_at = $2 WHERE id = $1",
		habitID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to complete habit: %w", err)
	}

	c, err := s.congratulations.EmitInTx(ctx, tx, userID,
		congratulation.TypeHabitCompleted,
		fmt.Sprintf("Habit \"%s\" completed for good. Well done!", h.Name), now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}

	s.congratulations.DispatchPush(c)

	if h.TeamID != nil {
		var username string
		if err := s.db.QueryRow(ctx, "SELECT username FROM users WHERE id = $1", userID).Scan(&username); err == nil {
			go utils.TeamHabitMastered(s.db, s.congratulations, h, username)
		}
	}

	return h, nil
}

func (s *HabitService) GetTrackings(ctx context.Context, clerkID string, habitID uuid.UUID) ([]*tracking.Tracking, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var exists bool
	err = s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM habits WHERE id = $1 AND user_id = $2)", habitID, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check habit: %w", err)
	}
	if !exists {
		return nil, ErrHabitNotFound
	}

	rows, err := s.db.Query(ctx,
		"SELECT id, habit_id, user_id, date FROM trackings WHERE habit_id = $1 ORDER BY date",
		habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trackings: %w", err)
	}
	defer rows.Close()

	var trackings []*tracking.Tracking
	for rows.Next() {
		t := &tracking.Tracking{}
		if err := rows.Scan(&t.ID, &t.HabitID, &t.UserID, &t.Date); err != nil {
			return nil, fmt.Errorf("failed to scan tracking: %w", err)
		}
		trackings = append(trackings, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trackings: %w", err)
	}

	if trackings == nil {
		trackings = []*tracking.Tracking{}
	}

	return trackings, nil
}

func (s *HabitService) GetCalendar(ctx context.Context, clerkID string, habitID uuid.UUID, year, month int) (*calendar.CalendarResponse, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var exists bool
	err = s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM habits WHERE id = $1 AND user_id = $2)", habitID, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check habit: %w", err)
	}
	if !exists {
		return nil, ErrHabitNotFound
	}

	startDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	endDate := startDate.AddDate(0, 1, -1)

	rows, err := s.db.Query(ctx,
		"SELECT date FROM trackings WHERE habit_id = $1 AND date >= $2 AND date <= $3 ORDER BY date",
		habitID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	defer rows.Close()

	dayMap := make(map[string]bool)
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		dayMap[date.Format("2006-01-02")] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calendar rows: %w", err)
	}

	var days []*calendar.CalendarDay
	today := time.Now().Format("2006-01-02")

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		days = append(days, &calendar.CalendarDay{
			Date:    d,
			Tracked: dayMap[dateStr],
			IsToday: dateStr == today,
		})
	}

	return &calendar.CalendarResponse{
		Year:  year,
		Month: month,
		Days:  days,
	}, nil
}

