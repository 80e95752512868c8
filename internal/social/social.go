// Package social manages profiles and friendships.
package social

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/daystreak/internal/clock"
	"github.com/julianstephens/daystreak/internal/constants"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/logger"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/storage"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,30}$`)

// ProfileUpdate holds the editable profile fields. Empty fields are left unchanged.
type ProfileUpdate struct {
	Username    string
	DisplayName string
	AvatarURL   string
}

// Request is a pending friend request together with the other user's profile.
type Request struct {
	Friendship models.Friendship    `json:"friendship"`
	From       models.PublicProfile `json:"from"`
}

type Service struct {
	store storage.Provider
	clock clock.Clock
	log   *log.Logger
}

// New creates a new Service
func New(store storage.Provider, clk clock.Clock) *Service {
	return &Service{store: store, clock: clk, log: logger.Component("social")}
}

// ValidateUsername checks the username format.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return apperrors.Validation("username must be 3-30 letters, digits, '_' or '.'")
	}
	return nil
}

// CreateProfile registers a new profile. Usernames are unique ignoring case.
func (s *Service) CreateProfile(ctx context.Context, username, displayName string) (models.Profile, error) {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return models.Profile{}, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}

	now := s.clock.Now().UTC()
	p := models.Profile{
		ID:          uuid.New().String(),
		Username:    username,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.AddProfile(ctx, p); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.Profile{}, apperrors.Validation("username %q is already taken", username)
		}
		return models.Profile{}, apperrors.Store("add profile", err)
	}
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return models.Profile{}, apperrors.FromStore("get profile", "profile", userID, err)
	}
	return p, nil
}

// GetPublicProfile returns the fields of userID visible to others.
func (s *Service) GetPublicProfile(ctx context.Context, userID string) (models.PublicProfile, error) {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return models.PublicProfile{}, err
	}
	return p.Public(), nil
}

// UpdateProfile changes username, display name or avatar.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (models.Profile, error) {
	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return models.Profile{}, err
	}

	if u := strings.TrimSpace(upd.Username); u != "" && u != p.Username {
		if err := ValidateUsername(u); err != nil {
			return models.Profile{}, err
		}
		p.Username = u
	}
	if d := strings.TrimSpace(upd.DisplayName); d != "" {
		p.DisplayName = d
	}
	if a := strings.TrimSpace(upd.AvatarURL); a != "" {
		p.AvatarURL = a
	}

	if err := s.store.UpdateProfile(ctx, p); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.Profile{}, apperrors.Validation("username %q is already taken", p.Username)
		}
		return models.Profile{}, apperrors.FromStore("update profile", "profile", userID, err)
	}
	return p, nil
}

// SearchUsers finds profiles by username or display name, excluding the caller.
func (s *Service) SearchUsers(ctx context.Context, userID, query string) ([]models.PublicProfile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.PublicProfile{}, nil
	}
	profiles, err := s.store.SearchProfiles(ctx, query, userID, constants.DefaultSearchLimit)
	if err != nil {
		s.log.Warn("Profile search failed", "query", query, "error", err)
		return []models.PublicProfile{}, apperrors.Store("search profiles", err)
	}
	out := make([]models.PublicProfile, len(profiles))
	for i, p := range profiles {
		out[i] = p.Public()
	}
	return out, nil
}

// SendRequest creates a pending friend request. Only one friendship may
// exist per pair of users, whichever side asked.
func (s *Service) SendRequest(ctx context.Context, requesterID, addresseeID string) (models.Friendship, error) {
	if requesterID == addresseeID {
		return models.Friendship{}, apperrors.Validation("you cannot befriend yourself")
	}
	if _, err := s.GetProfile(ctx, addresseeID); err != nil {
		return models.Friendship{}, err
	}

	existing, err := s.store.GetFriendshipBetween(ctx, requesterID, addresseeID)
	switch {
	case err == nil:
		return models.Friendship{}, existingReason(existing, requesterID)
	case !errors.Is(err, storage.ErrNotFound):
		return models.Friendship{}, apperrors.Store("get friendship", err)
	}

	now := s.clock.Now().UTC()
	f := models.Friendship{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.FriendshipPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.AddFriendship(ctx, f); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return models.Friendship{}, apperrors.Validation("a friendship with this user already exists")
		}
		return models.Friendship{}, apperrors.Store("add friendship", err)
	}

	s.log.Debug("Friend request sent", "from", requesterID, "to", addresseeID)
	return f, nil
}

func existingReason(f models.Friendship, requesterID string) error {
	switch f.Status {
	case models.FriendshipAccepted:
		return apperrors.Validation("you are already friends")
	case models.FriendshipBlocked:
		return apperrors.Validation("you cannot send a request to this user")
	}
	if f.RequesterID == requesterID {
		return apperrors.Validation("a friend request is already pending")
	}
	return apperrors.Validation("this user already sent you a friend request")
}

func (s *Service) getRequest(ctx context.Context, friendshipID string) (models.Friendship, error) {
	f, err := s.store.GetFriendship(ctx, friendshipID)
	if err != nil {
		return models.Friendship{}, apperrors.FromStore("get friendship", "friend request", friendshipID, err)
	}
	return f, nil
}

// AcceptRequest accepts a pending request. Only the addressee may accept.
func (s *Service) AcceptRequest(ctx context.Context, friendshipID, userID string) (models.Friendship, error) {
	f, err := s.getRequest(ctx, friendshipID)
	if err != nil {
		return models.Friendship{}, err
	}
	if f.AddresseeID != userID {
		return models.Friendship{}, apperrors.Validation("only the recipient can accept a friend request")
	}
	if f.Status != models.FriendshipPending {
		return models.Friendship{}, apperrors.Validation("friend request is no longer pending")
	}

	ok, err := s.store.UpdateFriendshipStatus(ctx, f.ID, models.FriendshipPending, models.FriendshipAccepted)
	if err != nil {
		return models.Friendship{}, apperrors.Store("accept friendship", err)
	}
	if !ok {
		return models.Friendship{}, apperrors.Validation("friend request is no longer pending")
	}
	f.Status = models.FriendshipAccepted
	f.UpdatedAt = s.clock.Now().UTC()
	return f, nil
}

// RejectRequest deletes a pending request. Either side may reject or withdraw it.
func (s *Service) RejectRequest(ctx context.Context, friendshipID, userID string) error {
	f, err := s.getRequest(ctx, friendshipID)
	if err != nil {
		return err
	}
	if !f.Involves(userID) {
		return apperrors.NotFound("friend request", friendshipID)
	}
	if f.Status != models.FriendshipPending {
		return apperrors.Validation("friend request is no longer pending")
	}
	if err := s.store.DeleteFriendship(ctx, f.ID); err != nil {
		return apperrors.FromStore("delete friendship", "friend request", friendshipID, err)
	}
	return nil
}

// RemoveFriend deletes an accepted friendship between userID and friendID.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID string) error {
	f, err := s.store.GetFriendshipBetween(ctx, userID, friendID)
	if err != nil {
		return apperrors.FromStore("get friendship", "friendship", friendID, err)
	}
	if f.Status != models.FriendshipAccepted {
		return apperrors.NotFound("friendship", friendID)
	}
	if err := s.store.DeleteFriendship(ctx, f.ID); err != nil {
		return apperrors.FromStore("delete friendship", "friendship", f.ID, err)
	}
	return nil
}

// AreFriends reports whether the pair has an accepted friendship.
func (s *Service) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	f, err := s.store.GetFriendshipBetween(ctx, userA, userB)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Store("get friendship", err)
	}
	return f.Status == models.FriendshipAccepted, nil
}

// GetFriends lists accepted friends with their public profiles.
func (s *Service) GetFriends(ctx context.Context, userID string) ([]models.Friend, error) {
	friendships, err := s.store.GetFriendships(ctx, userID, models.FriendshipAccepted)
	if err != nil {
		s.log.Warn("Failed to load friends", "user", userID, "error", err)
		return []models.Friend{}, apperrors.Store("get friendships", err)
	}

	friends := make([]models.Friend, 0, len(friendships))
	for _, f := range friendships {
		p, err := s.store.GetProfile(ctx, f.Other(userID))
		if err != nil {
			s.log.Warn("Skipping friend without profile", "friendship", f.ID, "error", err)
			continue
		}
		friends = append(friends, models.Friend{FriendshipID: f.ID, Profile: p.Public(), Since: f.UpdatedAt})
	}
	return friends, nil
}

// GetPendingRequests lists requests waiting for userID to answer.
func (s *Service) GetPendingRequests(ctx context.Context, userID string) ([]Request, error) {
	friendships, err := s.store.GetFriendships(ctx, userID, models.FriendshipPending)
	if err != nil {
		s.log.Warn("Failed to load friend requests", "user", userID, "error", err)
		return []Request{}, apperrors.Store("get friendships", err)
	}

	requests := []Request{}
	for _, f := range friendships {
		if f.AddresseeID != userID {
			continue
		}
		p, err := s.store.GetProfile(ctx, f.RequesterID)
		if err != nil {
			continue
		}
		requests = append(requests, Request{Friendship: f, From: p.Public()})
	}
	return requests, nil
}

// GetFriendCount counts accepted friendships.
func (s *Service) GetFriendCount(ctx context.Context, userID string) (int, error) {
	n, err := s.store.CountFriends(ctx, userID)
	if err != nil {
		return 0, apperrors.Store("count friends", err)
	}
	return n, nil
}
