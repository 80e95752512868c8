package sqlstore

import (
	"context"
	"fmt"

	"github.com/julianstephens/daystreak/internal/models"
)

// AddUserStats inserts the row if it is missing and leaves an existing row alone.
func (s *Store) AddUserStats(ctx context.Context, st models.UserStats) error {
	_, err := s.exec(ctx, `
		INSERT INTO user_stats (user_id, level, xp, xp_to_next_level, total_points,
			total_habits_completed, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		st.UserID, st.Level, st.XP, st.XPToNextLevel, st.TotalPoints, st.TotalHabitsCompleted,
		formatTime(st.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add user stats: %w", err)
	}
	return nil
}

func (s *Store) GetUserStats(ctx context.Context, userID string) (models.UserStats, error) {
	var st models.UserStats
	var updatedAt string

	err := s.queryRow(ctx, `
		SELECT user_id, level, xp, xp_to_next_level, total_points, total_habits_completed,
			version, updated_at
		FROM user_stats WHERE user_id = ?`, userID).
		Scan(&st.UserID, &st.Level, &st.XP, &st.XPToNextLevel, &st.TotalPoints,
			&st.TotalHabitsCompleted, &st.Version, &updatedAt)
	if err != nil {
		return models.UserStats{}, notFound(err, "user stats", userID)
	}
	if st.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return models.UserStats{}, err
	}
	return st, nil
}

func (s *Store) UpdateUserStats(ctx context.Context, st models.UserStats) error {
	res, err := s.exec(ctx, `
		UPDATE user_stats
		SET level = ?, xp = ?, xp_to_next_level = ?, total_points = ?, total_habits_completed = ?,
			version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?`,
		st.Level, st.XP, st.XPToNextLevel, st.TotalPoints, st.TotalHabitsCompleted,
		formatTime(timeNow()), st.UserID, st.Version)
	if err != nil {
		return fmt.Errorf("failed to update user stats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.conditionalMiss(ctx, "user stats", "user_stats", "user_id", st.UserID)
	}
	return nil
}
