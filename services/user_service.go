package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitMasteryAPI/internal/congratulation"
	"habitMasteryAPI/internal/habit"
	"habitMasteryAPI/internal/progress"
	"habitMasteryAPI/internal/settings"
	"habitMasteryAPI/internal/stats"
	"habitMasteryAPI/internal/streak"
	"habitMasteryAPI/internal/user"
)

type UserService struct {
	db              *pgxpool.Pool
	congratulations *CongratulationService
}

func NewUserService(db *pgxpool.Pool, congratulations *CongratulationService) *UserService {
	return &UserService{
		db:              db,
		congratulations: congratulations,
	}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, email_verified, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.ImageURL,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, first_name, last_name, image_url, email_verified, created_at, updated_at, current_streak, max_streak, last_completed_date, team_id
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.CurrentStreak,
		&u.MaxStreak,
		&u.LastCompletedDate,
		&u.TeamID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET
		username = COALESCE(NULLIF($2, ''), username),
		first_name = COALESCE(NULLIF($3, ''), first_name),
		last_name = COALESCE(NULLIF($4, ''), last_name),
		image_url = COALESCE(NULLIF($5, ''), image_url),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING id
	`

	var id string
	err := s.db.QueryRow(ctx, query, clerkID, req.Username, req.FirstName, req.LastName, req.ImageURL).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return s.GetUserByClerkID(ctx, clerkID)
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	query := `
	UPDATE users
	SET email_verified = $2, updated_at = NOW()
	WHERE clerk_id = $1
	`

	_, err := s.db.Exec(ctx, query, clerkID, verified)
	return err
}

// DeleteUserByClerkID removes the user; habits, trackings, congratulations,
// settings and device tokens cascade at the database level.
func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, "DELETE FROM users WHERE clerk_id = $1", clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// GetDashboard assembles the home view and keeps the streak consistent with
// today's ledger state. Streak evaluation and the daily all-habits
// congratulation run inside one transaction with the field updates.
func (s *UserService) GetDashboard(ctx context.Context, clerkID string, today time.Time) (*user.DashboardResponse, error) {
	today = progress.DateOf(today)
	if progress.DaysBetween(time.Now(), today) > 0 {
		return nil, ErrFutureDate
	}

	var userID uuid.UUID
	prev := streak.State{}
	err := s.db.QueryRow(ctx,
		"SELECT id, current_streak, max_streak, last_completed_date FROM users WHERE clerk_id = $1",
		clerkID).Scan(&userID, &prev.CurrentStreak, &prev.MaxStreak, &prev.LastCompletedDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
	SELECT
		h.id, h.user_id, h.team_id, h.name, h.description,
		h.mastery_progress, h.mastery_goal, h.target_date,
		h.is_completed, h.completed_at, h.created_at,
		COUNT(t.id) AS tracked_days,
		COUNT(t.id) FILTER (WHERE t.date = $2) > 0 AS completed_today
	FROM habits h
	LEFT JOIN trackings t ON t.habit_id = h.id
	WHERE h.user_id = $1
	GROUP BY h.id
	ORDER BY h.created_at
	`

	rows, err := tx.Query(ctx, query, userID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch habits: %w", err)
	}

	habits := []*habit.HabitWithStatus{}
	activeCount := 0
	activeCompletedToday := 0
	for rows.Next() {
		h := &habit.HabitWithStatus{}
		err := rows.Scan(
			&h.ID, &h.UserID, &h.TeamID, &h.Name, &h.Description,
			&h.MasteryProgress, &h.MasteryGoal, &h.TargetDate,
			&h.IsCompleted, &h.CompletedAt, &h.CreatedAt,
			&h.TrackedDays, &h.CompletedToday,
		)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)

		// Permanently completed habits no longer count towards the streak.
		if !h.IsCompleted {
			activeCount++
			if h.CompletedToday {
				activeCompletedToday++
			}
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}

	res := streak.Advance(prev, today, activeCount, activeCompletedToday)

	if res.Changed {
		_, err = tx.Exec(ctx, `
		UPDATE users
		SET current_streak = $2, max_streak = $3, last_completed_date = $4, updated_at = NOW()
		WHERE id = $1
		`, userID, res.State.CurrentStreak, res.State.MaxStreak, res.State.LastCompletedDate)
		if err != nil {
			return nil, fmt.Errorf("failed to persist streak: %w", err)
		}
	}

	var dispatch *congratulation.Congratulation
	if res.FirstAllCompletedToday {
		c, err := s.congratulations.EmitInTx(ctx, tx, userID,
			congratulation.TypeAllHabitsCompleted,
			"Congratulations! You completed all of your habits today!", today)
		if err != nil {
			return nil, err
		}
		dispatch = c
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit dashboard update: %w", err)
	}

	s.congratulations.DispatchPush(dispatch)

	unread, err := s.getUnreadCongratulations(ctx, userID)
	if err != nil {
		return nil, err
	}

	progressPercent := 0
	if activeCount > 0 {
		progressPercent = activeCompletedToday * 100 / activeCount
	}

	return &user.DashboardResponse{
		Habits:          habits,
		ProgressPercent: progressPercent,
		CurrentStreak:   res.State.CurrentStreak,
		MaxStreak:       res.State.MaxStreak,
		Congratulations: unread,
	}, nil
}

func (s *UserService) getUnreadCongratulations(ctx context.Context, userID uuid.UUID) ([]*congratulation.Congratulation, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, user_id, message, type, is_read, created_at
	FROM congratulations
	WHERE user_id = $1 AND is_read = false
	ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch congratulations: %w", err)
	}
	defer rows.Close()

	congrats := []*congratulation.Congratulation{}
	for rows.Next() {
		c := &congratulation.Congratulation{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Message, &c.Type, &c.IsRead, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan congratulation: %w", err)
		}
		congrats = append(congrats, c)
	}

	return congrats, rows.Err()
}

func (s *UserService) GetUserStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	query := `
	SELECT
		COUNT(h.id) FILTER (WHERE h.is_completed = false) AS active_habits,
		COUNT(h.id) FILTER (WHERE h.is_completed = true) AS completed_habits,
		COALESCE((SELECT COUNT(*) FROM trackings t WHERE t.user_id = u.id), 0) AS total_trackings,
		COALESCE((SELECT COUNT(DISTINCT t.habit_id) FROM trackings t
			JOIN habits th ON th.id = t.habit_id AND th.is_completed = false
			WHERE t.user_id = u.id AND t.date = CURRENT_DATE), 0) AS tracked_today,
		u.current_streak,
		u.max_streak,
		COALESCE((SELECT COUNT(*) FROM congratulations c WHERE c.user_id = u.id AND c.is_read = false), 0) AS unread,
		u.team_id IS NOT NULL AS in_team
	FROM users u
	LEFT JOIN habits h ON h.user_id = u.id
	WHERE u.id = $1
	GROUP BY u.id
	`

	st := &stats.UserStats{}
	err = s.db.QueryRow(ctx, query, userID).Scan(
		&st.ActiveHabits,
		&st.CompletedHabits,
		&st.TotalTrackings,
		&st.TrackedToday,
		&st.CurrentStreak,
		&st.MaxStreak,
		&st.UnreadCongrats,
		&st.InTeam,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	st.AllDoneToday = st.ActiveHabits > 0 && st.TrackedToday >= st.ActiveHabits

	return st, nil
}

// GetSettings returns the caller's settings, creating the default row on
// first access.
func (s *UserService) GetSettings(ctx context.Context, clerkID string) (*settings.UserSettings, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	query := `
	INSERT INTO user_settings (id, user_id)
	VALUES ($1, $2)
	ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	RETURNING id, user_id, theme, daily_reminder, to_char(reminder_time, 'HH24:MI'), default_mastery_goal, default_period, updated_at
	`

	st := &settings.UserSettings{}
	err = s.db.QueryRow(ctx, query, uuid.New(), userID).Scan(
		&st.ID,
		&st.UserID,
		&st.Theme,
		&st.DailyReminder,
		&st.ReminderTime,
		&st.DefaultMasteryGoal,
		&st.DefaultPeriod,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return st, nil
}

func (s *UserService) UpdateSettings(ctx context.Context, clerkID string, req *settings.UpdateSettingsRequest) (*settings.UserSettings, error) {
	// Ensures the row exists before the dynamic update.
	current, err := s.GetSettings(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	updates := []string{}
	args := []interface{}{current.UserID}
	argCount := 2

	if req.Theme != nil {
		switch *req.Theme {
		case "light", "dark", "system":
		default:
			return nil, fmt.Errorf("%w: theme must be light, dark or system", ErrInvalidInput)
		}
		updates = append(updates, fmt.Sprintf("theme = $%d", argCount))
		args = append(args, *req.Theme)
		argCount++
	}
	if req.DailyReminder != nil {
		updates = append(updates, fmt.Sprintf("daily_reminder = $%d", argCount))
		args = append(args, *req.DailyReminder)
		argCount++
	}
	if req.ReminderTime != nil {
		if _, err := time.Parse("15:04", *req.ReminderTime); err != nil {
			return nil, fmt.Errorf("%w: reminder_time must be HH:MM", ErrInvalidInput)
		}
		updates = append(updates, fmt.Sprintf("reminder_time = $%d", argCount))
		args = append(args, *req.ReminderTime)
		argCount++
	}
	if req.DefaultMasteryGoal != nil {
		if *req.DefaultMasteryGoal < 1 || *req.DefaultMasteryGoal > 100 {
			return nil, fmt.Errorf("%w: default_mastery_goal must be between 1 and 100", ErrInvalidInput)
		}
		updates = append(updates, fmt.Sprintf("default_mastery_goal = $%d", argCount))
		args = append(args, *req.DefaultMasteryGoal)
		argCount++
	}
	if req.DefaultPeriod != nil {
		if *req.DefaultPeriod < 1 {
			return nil, fmt.Errorf("%w: default_period must be positive", ErrInvalidInput)
		}
		updates = append(updates, fmt.Sprintf("default_period = $%d", argCount))
		args = append(args, *req.DefaultPeriod)
		argCount++
	}

	if len(updates) == 0 {
		return current, nil
	}

	query := fmt.Sprintf(`
	UPDATE user_settings
	SET %s, updated_at = NOW()
	WHERE user_id = $1
	`, strings.Join(updates, ", "))

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	return s.GetSettings(ctx, clerkID)
}
