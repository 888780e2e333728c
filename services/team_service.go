package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitMasteryAPI/internal/team"
)

type TeamService struct {
	db *pgxpool.Pool
}

func NewTeamService(db *pgxpool.Pool) *TeamService {
	return &TeamService{db: db}
}

func (s *TeamService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
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

// CreateTeam creates a team and makes the caller its first member. A user
// can belong to at most one team at a time.
func (s *TeamService) CreateTeam(ctx context.Context, clerkID string, req *team.CreateTeamRequest) (*team.Team, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}

	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentTeam *uuid.UUID
	if err := tx.QueryRow(ctx, "SELECT team_id FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&currentTeam); err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if currentTeam != nil {
		return nil, ErrAlreadyInTeam
	}

	t := &team.Team{}
	err = tx.QueryRow(ctx, `
	INSERT INTO teams (id, name, description, owner_id, created_at)
	VALUES ($1, $2, $3, $4, NOW())
	RETURNING id, name, description, owner_id, created_at
	`, uuid.New(), name, req.Description, userID).Scan(
		&t.ID, &t.Name, &t.Description, &t.OwnerID, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	if _, err := tx.Exec(ctx, "UPDATE users SET team_id = $2, updated_at = NOW() WHERE id = $1", userID, t.ID); err != nil {
		return nil, fmt.Errorf("failed to join created team: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit team creation: %w", err)
	}

	return t, nil
}

func (s *TeamService) GetTeam(ctx context.Context, teamID uuid.UUID) (*team.Team, error) {
	t := &team.Team{}
	err := s.db.QueryRow(ctx, `
	SELECT id, name, description, owner_id, created_at
	FROM teams
	WHERE id = $1
	`, teamID).Scan(&t.ID, &t.Name, &t.Description, &t.OwnerID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return t, nil
}

func (s *TeamService) GetTeams(ctx context.Context) ([]*team.Team, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, name, description, owner_id, created_at
	FROM teams
	ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch teams: %w", err)
	}
	defer rows.Close()

	teams := []*team.Team{}
	for rows.Next() {
		t := &team.Team{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.OwnerID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}

	return teams, rows.Err()
}

func (s *TeamService) JoinTeam(ctx context.Context, clerkID string, teamID uuid.UUID) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)", teamID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check team: %w", err)
	}
	if !exists {
		return ErrTeamNotFound
	}

	var currentTeam *uuid.UUID
	if err := tx.QueryRow(ctx, "SELECT team_id FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&currentTeam); err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if currentTeam != nil {
		return ErrAlreadyInTeam
	}

	if _, err := tx.Exec(ctx, "UPDATE users SET team_id = $2, updated_at = NOW() WHERE id = $1", userID, teamID); err != nil {
		return fmt.Errorf("failed to join team: %w", err)
	}

	return tx.Commit(ctx)
}

// LeaveTeam detaches the caller from the team. When the last member leaves
// the team row is removed; habits shared with the team stay with their
// owners and lose the team link via the FK.
func (s *TeamService) LeaveTeam(ctx context.Context, clerkID string, teamID uuid.UUID) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var currentTeam *uuid.UUID
	if err := tx.QueryRow(ctx, "SELECT team_id FROM users WHERE id = $1 FOR UPDATE", userID).Scan(&currentTeam); err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if currentTeam == nil || *currentTeam != teamID {
		return ErrNotInTeam
	}

	if _, err := tx.Exec(ctx, "UPDATE users SET team_id = NULL, updated_at = NOW() WHERE id = $1", userID); err != nil {
		return fmt.Errorf("failed to leave team: %w", err)
	}

	// Detach the caller's habits from the team board.
	if _, err := tx.Exec(ctx, "UPDATE habits SET team_id = NULL WHERE user_id = $1 AND team_id = $2", userID, teamID); err != nil {
		return fmt.Errorf("failed to detach habits: %w", err)
	}

	var remaining int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE team_id = $1", teamID).Scan(&remaining); err != nil {
		return fmt.Errorf("failed to count members: %w", err)
	}
	if remaining == 0 {
		if _, err := tx.Exec(ctx, "DELETE FROM teams WHERE id = $1", teamID); err != nil {
			return fmt.Errorf("failed to remove empty team: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetBoard returns the team, its members and the shared habits with who
// tracked each habit today. Non-members get not-found, the board itself is
// never exposed outside the team.
func (s *TeamService) GetBoard(ctx context.Context, clerkID string, teamID uuid.UUID) (*team.Board, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var currentTeam *uuid.UUID
	if err := s.db.QueryRow(ctx, "SELECT team_id FROM users WHERE id = $1", userID).Scan(&currentTeam); err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if currentTeam == nil || *currentTeam != teamID {
		return nil, ErrTeamNotFound
	}

	t, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	memberRows, err := s.db.Query(ctx, `
	SELECT id, username, image_url
	FROM users
	WHERE team_id = $1
	ORDER BY username
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members: %w", err)
	}
	defer memberRows.Close()

	members := []team.Member{}
	for memberRows.Next() {
		var m team.Member
		if err := memberRows.Scan(&m.ID, &m.Username, &m.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	habitRows, err := s.db.Query(ctx, `
	SELECT h.id, h.name, h.user_id, u.id, u.username, u.image_url
	FROM habits h
	LEFT JOIN trackings t ON t.habit_id = h.id AND t.date = CURRENT_DATE
	LEFT JOIN users u ON u.id = t.user_id
	WHERE h.team_id = $1
	ORDER BY h.created_at, h.id
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team habits: %w", err)
	}
	defer habitRows.Close()

	habitIndex := map[uuid.UUID]int{}
	habits := []team.BoardHabit{}
	for habitRows.Next() {
		var (
			habitID   uuid.UUID
			habitName string
			ownerID   uuid.UUID
			memberID  *uuid.UUID
			username  *string
			imageURL  *string
		)
		if err := habitRows.Scan(&habitID, &habitName, &ownerID, &memberID, &username, &imageURL); err != nil {
			return nil, fmt.Errorf("failed to scan team habit: %w", err)
		}

		idx, ok := habitIndex[habitID]
		if !ok {
			idx = len(habits)
			habitIndex[habitID] = idx
			habits = append(habits, team.BoardHabit{
				ID:          habitID,
				Name:        habitName,
				OwnerID:     ownerID,
				CompletedBy: []team.Member{},
			})
		}

		if memberID != nil {
			m := team.Member{ID: *memberID}
			if username != nil {
				m.Username = *username
			}
			if imageURL != nil {
				m.ImageURL = *imageURL
			}
			habits[idx].CompletedBy = append(habits[idx].CompletedBy, m)
		}
	}
	if err := habitRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team habits: %w", err)
	}

	return &team.Board{
		Team:    t,
		Members: members,
		Habits:  habits,
	}, nil
}
