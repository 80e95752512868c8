package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/daystreak/internal/models"
)

const habitColumns = `id, user_id, name, icon, frequency, points, streak, is_active, start_date,
	created_at, updated_at`

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var frequency, createdAt, updatedAt string

	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Icon, &frequency, &h.Points, &h.Streak,
		&h.IsActive, &h.StartDate, &createdAt, &updatedAt)
	if err != nil {
		return models.Habit{}, err
	}

	h.Frequency = models.Frequency(frequency)
	if h.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return models.Habit{}, err
	}
	if h.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func (s *Store) AddHabit(ctx context.Context, h models.Habit) error {
	_, err := s.exec(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.Name, h.Icon, string(h.Frequency), h.Points, h.Streak, h.IsActive,
		h.StartDate, formatTime(h.CreatedAt), formatTime(h.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	row := s.queryRow(ctx, "SELECT "+habitColumns+" FROM habits WHERE id = ?", id)
	h, err := scanHabit(row)
	if err != nil {
		return models.Habit{}, notFound(err, "habit", id)
	}
	return h, nil
}

func (s *Store) GetActiveHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	rows, err := s.query(ctx, "SELECT "+habitColumns+`
		FROM habits WHERE user_id = ? AND is_active = ?
		ORDER BY created_at`, userID, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// UpdateHabit writes the user-editable fields. Points and the streak counter
// are not editable here.
func (s *Store) UpdateHabit(ctx context.Context, h models.Habit) error {
	res, err := s.exec(ctx, `
		UPDATE habits SET name = ?, icon = ?, frequency = ?, updated_at = ?
		WHERE id = ? AND is_active = ?`,
		h.Name, h.Icon, string(h.Frequency), formatTime(h.UpdatedAt), h.ID, true)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	return requireRow(res, "habit", h.ID)
}

func (s *Store) SetHabitStreak(ctx context.Context, id string, streak int) error {
	res, err := s.exec(ctx, "UPDATE habits SET streak = ?, updated_at = ? WHERE id = ?",
		streak, formatTime(timeNow()), id)
	if err != nil {
		return fmt.Errorf("failed to update habit streak: %w", err)
	}
	return requireRow(res, "habit", id)
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "UPDATE habits SET is_active = ?, updated_at = ? WHERE id = ? AND is_active = ?",
		false, formatTime(timeNow()), id, true)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(sql.ErrNoRows, "habit (or already deleted)", id)
	}
	return nil
}

func requireRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(sql.ErrNoRows, entity, id)
	}
	return nil
}
