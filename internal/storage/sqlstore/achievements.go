package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/daystreak/internal/models"
)

const achievementColumns = `id, user_id, achievement_type, title, description, icon, requirement,
	unlocked_at, created_at`

func scanAchievement(row scanner) (models.Achievement, error) {
	var a models.Achievement
	var achievementType, createdAt string
	var unlockedAt sql.NullString

	err := row.Scan(&a.ID, &a.UserID, &achievementType, &a.Title, &a.Description, &a.Icon,
		&a.Requirement, &unlockedAt, &createdAt)
	if err != nil {
		return models.Achievement{}, err
	}

	a.Type = models.AchievementType(achievementType)
	if unlockedAt.Valid {
		t, err := parseTime(unlockedAt.String, "unlocked_at")
		if err != nil {
			return models.Achievement{}, err
		}
		a.UnlockedAt = &t
	}
	if a.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return models.Achievement{}, err
	}
	return a, nil
}

func (s *Store) AddAchievement(ctx context.Context, a models.Achievement) (bool, error) {
	res, err := s.exec(ctx, `
		INSERT INTO achievements (`+achievementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, achievement_type, requirement) DO NOTHING`,
		a.ID, a.UserID, string(a.Type), a.Title, a.Description, a.Icon, a.Requirement,
		nullTime(a.UnlockedAt), formatTime(a.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("failed to add achievement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) GetAchievements(ctx context.Context, userID string) ([]models.Achievement, error) {
	rows, err := s.query(ctx, "SELECT "+achievementColumns+`
		FROM achievements WHERE user_id = ?
		ORDER BY requirement, created_at, achievement_type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	achievements := []models.Achievement{}
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

func (s *Store) UnlockAchievement(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.exec(ctx, `
		UPDATE achievements SET unlocked_at = ?
		WHERE id = ? AND unlocked_at IS NULL`, formatTime(at), id)
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
