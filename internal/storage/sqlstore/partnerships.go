package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/julianstephens/daystreak/internal/models"
)

const partnershipColumns = `id, user1_id, user2_id, status, target_days, current_streak, start_date,
	end_date, last_activity_date, reminder_enabled, version, created_at, updated_at`

func scanPartnership(row scanner) (models.StreakPartnership, error) {
	var p models.StreakPartnership
	var status, createdAt, updatedAt string
	var startDate, endDate, lastActivity sql.NullString

	err := row.Scan(&p.ID, &p.User1ID, &p.User2ID, &status, &p.TargetDays, &p.CurrentStreak,
		&startDate, &endDate, &lastActivity, &p.ReminderEnabled, &p.Version, &createdAt, &updatedAt)
	if err != nil {
		return models.StreakPartnership{}, err
	}

	p.Status = models.PartnershipStatus(status)
	p.StartDate = startDate.String
	p.EndDate = endDate.String
	p.LastActivityDate = lastActivity.String
	if p.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return models.StreakPartnership{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return models.StreakPartnership{}, err
	}
	return p, nil
}

func (s *Store) AddPartnership(ctx context.Context, p models.StreakPartnership) error {
	_, err := s.exec(ctx, `
		INSERT INTO streak_partnerships (`+partnershipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		p.ID, p.User1ID, p.User2ID, string(p.Status), p.TargetDays, p.CurrentStreak,
		nullString(p.StartDate), nullString(p.EndDate), nullString(p.LastActivityDate),
		p.ReminderEnabled, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add partnership: %w", err)
	}
	return nil
}

func (s *Store) GetPartnership(ctx context.Context, id string) (models.StreakPartnership, error) {
	row := s.queryRow(ctx, "SELECT "+partnershipColumns+" FROM streak_partnerships WHERE id = ?", id)
	p, err := scanPartnership(row)
	if err != nil {
		return models.StreakPartnership{}, notFound(err, "partnership", id)
	}
	return p, nil
}

func (s *Store) GetOpenPartnershipBetween(ctx context.Context, userA, userB string) (models.StreakPartnership, error) {
	row := s.queryRow(ctx, "SELECT "+partnershipColumns+`
		FROM streak_partnerships
		WHERE ((user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?))
			AND status IN (?, ?)`,
		userA, userB, userB, userA, string(models.PartnershipPending), string(models.PartnershipActive))
	p, err := scanPartnership(row)
	if err != nil {
		return models.StreakPartnership{}, notFound(err, "open partnership", userA+"/"+userB)
	}
	return p, nil
}

// GetPartnershipsForUser lists partnerships the user belongs to, newest first.
// With no statuses every partnership is returned.
func (s *Store) GetPartnershipsForUser(ctx context.Context, userID string, statuses ...models.PartnershipStatus) ([]models.StreakPartnership, error) {
	query := "SELECT " + partnershipColumns + " FROM streak_partnerships WHERE (user1_id = ? OR user2_id = ?)"
	args := []interface{}{userID, userID}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += " AND status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	partnerships := []models.StreakPartnership{}
	for rows.Next() {
		p, err := scanPartnership(rows)
		if err != nil {
			return nil, err
		}
		partnerships = append(partnerships, p)
	}
	return partnerships, rows.Err()
}

func (s *Store) UpdatePartnership(ctx context.Context, p models.StreakPartnership) error {
	res, err := s.exec(ctx, `
		UPDATE streak_partnerships
		SET status = ?, current_streak = ?, start_date = ?, end_date = ?, last_activity_date = ?,
			reminder_enabled = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(p.Status), p.CurrentStreak, nullString(p.StartDate), nullString(p.EndDate),
		nullString(p.LastActivityDate), p.ReminderEnabled, formatTime(timeNow()), p.ID, p.Version)
	if err != nil {
		return fmt.Errorf("failed to update partnership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.conditionalMiss(ctx, "partnership", "streak_partnerships", "id", p.ID)
	}
	return nil
}

func (s *Store) RecordPartnershipDay(ctx context.Context, p models.StreakPartnership, day string) (bool, error) {
	res, err := s.exec(ctx, `
		UPDATE streak_partnerships
		SET current_streak = ?, status = ?, end_date = ?, last_activity_date = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ? AND status = ?
			AND (last_activity_date IS NULL OR last_activity_date <> ?)`,
		p.CurrentStreak, string(p.Status), nullString(p.EndDate), day, formatTime(timeNow()),
		p.ID, p.Version, string(models.PartnershipActive), day)
	if err != nil {
		return false, fmt.Errorf("failed to record partnership day: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
