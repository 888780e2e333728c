package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitMasteryAPI/internal/congratulation"
	"habitMasteryAPI/internal/progress"
	"habitMasteryAPI/internal/push"
)

type CongratulationService struct {
	db         *pgxpool.Pool
	dispatcher *CongratulationDispatcher
}

func NewCongratulationService(db *pgxpool.Pool) *CongratulationService {
	service := &CongratulationService{db: db}
	service.dispatcher = NewCongratulationDispatcher(service)
	return service
}

// SetPushProvider injects the FCM provider from main.go. Without a provider
// congratulations stay in-app only.
func (s *CongratulationService) SetPushProvider(provider PushProvider) {
	s.dispatcher.SetPushProvider(provider)
}

func (s *CongratulationService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
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

// EmitInTx appends a congratulation row inside the caller's transaction.
// For all_habits_completed at most one row per user per calendar day is
// created; a second emission the same day returns (nil, nil). The dedup
// window starts at the caller's evaluation day so it always agrees with the
// streak day, regardless of the database timezone. Other types are never
// deduplicated.
func (s *CongratulationService) EmitInTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, ctype congratulation.CongratulationType, message string, day time.Time) (*congratulation.Congratulation, error) {
	if ctype == congratulation.TypeAllHabitsCompleted {
		var existingID uuid.UUID
		err := tx.QueryRow(ctx, `
			SELECT id FROM congratulations
			WHERE user_id = $1 AND type = $2 AND created_at >= $3
			LIMIT 1
		`, userID, ctype, progress.DateOf(day)).Scan(&existingID)
		if err == nil {
			return nil, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to check existing congratulation: %w", err)
		}
	}

	query := `
	INSERT INTO congratulations (id, user_id, message, type, is_read, created_at)
	VALUES ($1, $2, $3, $4, false, NOW())
	RETURNING id, user_id, message, type, is_read, created_at
	`

	c := &congratulation.Congratulation{}
	err := tx.QueryRow(ctx, query, uuid.New(), userID, message, ctype).Scan(
		&c.ID,
		&c.UserID,
		&c.Message,
		&c.Type,
		&c.IsRead,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create congratulation: %w", err)
	}

	return c, nil
}

// Emit is the standalone variant of EmitInTx for callers outside a request
// transaction.
func (s *CongratulationService) Emit(ctx context.Context, userID uuid.UUID, ctype congratulation.CongratulationType, message string) (*congratulation.Congratulation, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c, err := s.EmitInTx(ctx, tx, userID, ctype, message, time.Now())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit congratulation: %w", err)
	}

	return c, nil
}

// DispatchPush queues a committed congratulation for push delivery. Callers
// invoke this after their transaction commits.
func (s *CongratulationService) DispatchPush(c *congratulation.Congratulation) {
	if c == nil {
		return
	}
	s.dispatcher.Dispatch(c)
}

func (s *CongratulationService) GetCongratulations(ctx context.Context, clerkID string) ([]*congratulation.Congratulation, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, message, type, is_read, created_at
	FROM congratulations
	WHERE user_id = $1
	ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch congratulations: %w", err)
	}
	defer rows.Close()

	var congrats []*congratulation.Congratulation
	for rows.Next() {
		c := &congratulation.Congratulation{}
		err := rows.Scan(&c.ID, &c.UserID, &c.Message, &c.Type, &c.IsRead, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan congratulation: %w", err)
		}
		congrats = append(congrats, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating congratulations: %w", err)
	}

	if congrats == nil {
		congrats = []*congratulation.Congratulation{}
	}

	return congrats, nil
}

func (s *CongratulationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRow(ctx, "SELECT COUNT(*) FROM congratulations WHERE user_id = $1 AND is_read = false", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread congratulations: %w", err)
	}

	return count, nil
}

// MarkAsRead flips is_read on a congratulation owned by the caller. A row
// owned by another user yields ErrCongratulationNotFound, never a forbidden
// error, so existence does not leak.
func (s *CongratulationService) MarkAsRead(ctx context.Context, congratulationID uuid.UUID, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
	UPDATE congratulations
	SET is_read = true
	WHERE id = $1 AND user_id = $2
	`

	result, err := s.db.Exec(ctx, query, congratulationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark congratulation as read: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCongratulationNotFound
	}

	return nil
}

func (s *CongratulationService) MarkAllAsRead(ctx context.Context, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, "UPDATE congratulations SET is_read = true WHERE user_id = $1 AND is_read = false", userID)
	if err != nil {
		return fmt.Errorf("failed to mark congratulations as read: %w", err)
	}

	return nil
}

// RegisterDevice stores a push token for the caller, replacing a previous
// registration of the same token.
func (s *CongratulationService) RegisterDevice(ctx context.Context, clerkID string, token, platform string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO device_tokens (user_id, token, platform, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (token)
	DO UPDATE SET user_id = $1, platform = $3
	`

	_, err = s.db.Exec(ctx, query, userID, token, platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}

	return nil
}

func (s *CongratulationService) getDeviceTokens(ctx context.Context, userID uuid.UUID) ([]push.DeviceToken, error) {
	rows, err := s.db.Query(ctx, "SELECT token, platform FROM device_tokens WHERE user_id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []push.DeviceToken
	for rows.Next() {
		var t push.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}

	return tokens, rows.Err()
}
