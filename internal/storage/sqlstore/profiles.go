package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/julianstephens/daystreak/internal/models"
)

const profileColumns = `id, username, display_name, avatar_url, current_streak, longest_streak,
	last_activity_date, created_at, updated_at`

func scanProfile(row scanner) (models.Profile, error) {
	var p models.Profile
	var lastActivity sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.CurrentStreak,
		&p.LongestStreak, &lastActivity, &createdAt, &updatedAt)
	if err != nil {
		return models.Profile{}, err
	}

	p.LastActivityDate = lastActivity.String
	if p.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return models.Profile{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return models.Profile{}, err
	}
	return p, nil
}

func (s *Store) AddProfile(ctx context.Context, p models.Profile) error {
	_, err := s.exec(ctx, `
		INSERT INTO profiles (id, username, display_name, avatar_url, current_streak, longest_streak,
			last_activity_date, streak_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		p.ID, p.Username, p.DisplayName, p.AvatarURL, p.CurrentStreak, p.LongestStreak,
		nullString(p.LastActivityDate), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	row := s.queryRow(ctx, "SELECT "+profileColumns+" FROM profiles WHERE id = ?", id)
	p, err := scanProfile(row)
	if err != nil {
		return models.Profile{}, notFound(err, "profile", id)
	}
	return p, nil
}

func (s *Store) GetProfileByUsername(ctx context.Context, username string) (models.Profile, error) {
	row := s.queryRow(ctx, "SELECT "+profileColumns+" FROM profiles WHERE lower(username) = lower(?)", username)
	p, err := scanProfile(row)
	if err != nil {
		return models.Profile{}, notFound(err, "profile", username)
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, p models.Profile) error {
	res, err := s.exec(ctx, `
		UPDATE profiles SET username = ?, display_name = ?, avatar_url = ?, updated_at = ?
		WHERE id = ?`,
		p.Username, p.DisplayName, p.AvatarURL, formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return notFound(sql.ErrNoRows, "profile", p.ID)
	}
	return nil
}

// SearchProfiles matches username or display name case-insensitively.
func (s *Store) SearchProfiles(ctx context.Context, query, excludeID string, limit int) ([]models.Profile, error) {
	pattern := "%" + strings.ToLower(escapeLike(query)) + "%"
	rows, err := s.query(ctx, "SELECT "+profileColumns+` FROM profiles
		WHERE id <> ? AND (lower(username) LIKE ? ESCAPE '\' OR lower(display_name) LIKE ? ESCAPE '\')
		ORDER BY username
		LIMIT ?`, excludeID, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *Store) GetAllProfileIDs(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, "SELECT id FROM profiles ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) GetStreakProfile(ctx context.Context, userID string) (models.StreakProfile, error) {
	var sp models.StreakProfile
	var lastActivity sql.NullString

	err := s.queryRow(ctx, `
		SELECT id, current_streak, longest_streak, last_activity_date, streak_version
		FROM profiles WHERE id = ?`, userID).
		Scan(&sp.UserID, &sp.CurrentStreak, &sp.LongestStreak, &lastActivity, &sp.Version)
	if err != nil {
		return models.StreakProfile{}, notFound(err, "streak profile", userID)
	}
	sp.LastActivityDate = lastActivity.String
	return sp, nil
}

func (s *Store) UpdateStreakProfile(ctx context.Context, sp models.StreakProfile) error {
	res, err := s.exec(ctx, `
		UPDATE profiles
		SET current_streak = ?, longest_streak = ?, last_activity_date = ?,
			streak_version = streak_version + 1, updated_at = ?
		WHERE id = ? AND streak_version = ?`,
		sp.CurrentStreak, sp.LongestStreak, nullString(sp.LastActivityDate), formatTime(timeNow()),
		sp.UserID, sp.Version)
	if err != nil {
		return fmt.Errorf("failed to update streak profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.conditionalMiss(ctx, "streak profile", "profiles", "id", sp.UserID)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
