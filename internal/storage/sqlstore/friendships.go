package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/julianstephens/daystreak/internal/models"
)

const friendshipColumns = "id, requester_id, addressee_id, status, created_at, updated_at"

func scanFriendship(row scanner) (models.Friendship, error) {
	var f models.Friendship
	var status, createdAt, updatedAt string

	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &status, &createdAt, &updatedAt)
	if err != nil {
		return models.Friendship{}, err
	}
	f.Status = models.FriendshipStatus(status)
	if f.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return models.Friendship{}, err
	}
	if f.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return models.Friendship{}, err
	}
	return f, nil
}

func (s *Store) AddFriendship(ctx context.Context, f models.Friendship) error {
	_, err := s.exec(ctx, `
		INSERT INTO friendships (`+friendshipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.RequesterID, f.AddresseeID, string(f.Status), formatTime(f.CreatedAt), formatTime(f.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to add friendship: %w", err)
	}
	return nil
}

func (s *Store) GetFriendship(ctx context.Context, id string) (models.Friendship, error) {
	row := s.queryRow(ctx, "SELECT "+friendshipColumns+" FROM friendships WHERE id = ?", id)
	f, err := scanFriendship(row)
	if err != nil {
		return models.Friendship{}, notFound(err, "friendship", id)
	}
	return f, nil
}

func (s *Store) GetFriendshipBetween(ctx context.Context, userA, userB string) (models.Friendship, error) {
	row := s.queryRow(ctx, "SELECT "+friendshipColumns+`
		FROM friendships
		WHERE (requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)`,
		userA, userB, userB, userA)
	f, err := scanFriendship(row)
	if err != nil {
		return models.Friendship{}, notFound(err, "friendship", userA+"/"+userB)
	}
	return f, nil
}

func (s *Store) GetFriendships(ctx context.Context, userID string, status models.FriendshipStatus) ([]models.Friendship, error) {
	rows, err := s.query(ctx, "SELECT "+friendshipColumns+`
		FROM friendships
		WHERE (requester_id = ? OR addressee_id = ?) AND status = ?
		ORDER BY updated_at DESC`, userID, userID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friendships := []models.Friendship{}
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, err
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}

func (s *Store) UpdateFriendshipStatus(ctx context.Context, id string, from, to models.FriendshipStatus) (bool, error) {
	res, err := s.exec(ctx, `
		UPDATE friendships SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`, string(to), formatTime(timeNow()), id, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update friendship: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) DeleteFriendship(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "DELETE FROM friendships WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(sql.ErrNoRows, "friendship", id)
	}
	return nil
}

func (s *Store) CountFriends(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.queryRow(ctx, `
		SELECT COUNT(*) FROM friendships
		WHERE (requester_id = ? OR addressee_id = ?) AND status = ?`,
		userID, userID, string(models.FriendshipAccepted)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count friends: %w", err)
	}
	return n, nil
}
