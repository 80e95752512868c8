package sqlstore

import (
	"context"
	"fmt"

	"github.com/julianstephens/daystreak/internal/models"
)

const completionColumns = "id, habit_id, user_id, completed_date, completed, created_at"

func scanCompletion(row scanner) (models.Completion, error) {
	var c models.Completion
	var createdAt string

	err := row.Scan(&c.ID, &c.HabitID, &c.UserID, &c.Date, &c.Completed, &createdAt)
	if err != nil {
		return models.Completion{}, err
	}
	if c.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return models.Completion{}, err
	}
	return c, nil
}

func (s *Store) UpsertCompletion(ctx context.Context, c models.Completion) (bool, error) {
	res, err := s.exec(ctx, `
		INSERT INTO habit_completions (`+completionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, completed_date) DO UPDATE SET
			completed = excluded.completed
		WHERE habit_completions.completed <> excluded.completed`,
		c.ID, c.HabitID, c.UserID, c.Date, c.Completed, formatTime(c.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("failed to upsert completion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) GetCompletion(ctx context.Context, habitID, day string) (models.Completion, error) {
	row := s.queryRow(ctx, "SELECT "+completionColumns+`
		FROM habit_completions WHERE habit_id = ? AND completed_date = ?`, habitID, day)
	c, err := scanCompletion(row)
	if err != nil {
		return models.Completion{}, notFound(err, "completion", habitID+"@"+day)
	}
	return c, nil
}

func (s *Store) GetCompletionsForDay(ctx context.Context, userID, day string) ([]models.Completion, error) {
	return s.GetCompletionsInRange(ctx, userID, day, day)
}

func (s *Store) GetCompletionsInRange(ctx context.Context, userID, startDay, endDay string) ([]models.Completion, error) {
	rows, err := s.query(ctx, "SELECT "+completionColumns+`
		FROM habit_completions
		WHERE user_id = ? AND completed_date >= ? AND completed_date <= ?
		ORDER BY completed_date, created_at`, userID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completions := []models.Completion{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

func (s *Store) GetCompletedDays(ctx context.Context, habitID, endDay string) ([]string, error) {
	rows, err := s.query(ctx, `
		SELECT completed_date FROM habit_completions
		WHERE habit_id = ? AND completed = ? AND completed_date <= ?
		ORDER BY completed_date DESC`, habitID, true, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []string{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (s *Store) GetDayProgress(ctx context.Context, userID, day string) (models.DayProgress, error) {
	progress := models.DayProgress{Day: day}
	err := s.queryRow(ctx, `
		SELECT COUNT(h.id), COALESCE(SUM(CASE WHEN c.completed = ? THEN 1 ELSE 0 END), 0)
		FROM habits h
		LEFT JOIN habit_completions c ON c.habit_id = h.id AND c.completed_date = ?
		WHERE h.user_id = ? AND h.is_active = ? AND h.start_date <= ?`,
		true, day, userID, true, day).Scan(&progress.Total, &progress.Completed)
	if err != nil {
		return models.DayProgress{}, fmt.Errorf("failed to count day progress: %w", err)
	}
	return progress, nil
}
