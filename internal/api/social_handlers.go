package api

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/models"
)

type friendRequest struct {
	UserID string `json:"user_id"`
}

type inviteRequest struct {
	FriendID   string `json:"friend_id"`
	TargetDays int    `json:"target_days"`
}

type reminderToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

type dispatchRequest struct {
	ReminderType string   `json:"reminder_type"`
	UserIDs      []string `json:"user_ids"`
}

func (s *Server) listFriends(c *fiber.Ctx) error {
	friends, err := s.tracker.Social().GetFriends(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, friends)
}

func (s *Server) removeFriend(c *fiber.Ctx) error {
	if err := s.tracker.Social().RemoveFriend(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) pendingRequests(c *fiber.Ctx) error {
	reqs, err := s.tracker.Social().GetPendingRequests(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, reqs)
}

func (s *Server) sendRequest(c *fiber.Ctx) error {
	var req friendRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.UserID == "" {
		return apperrors.Validation("user_id is required")
	}
	f, err := s.tracker.Social().SendRequest(c.UserContext(), userID(c), req.UserID)
	if err != nil {
		return err
	}
	return created(c, f)
}

func (s *Server) acceptRequest(c *fiber.Ctx) error {
	f, unlocked, err := s.tracker.AcceptFriend(c.UserContext(), c.Params("id"), userID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"friendship": f, "unlocked": unlocked})
}

func (s *Server) rejectRequest(c *fiber.Ctx) error {
	if err := s.tracker.Social().RejectRequest(c.UserContext(), c.Params("id"), userID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listPartnerships(c *fiber.Ctx) error {
	var statuses []models.PartnershipStatus
	if status := c.Query("status"); status != "" {
		statuses = append(statuses, models.PartnershipStatus(status))
	}
	views, err := s.tracker.Partnerships().GetUserPartnerships(c.UserContext(), userID(c), statuses...)
	if err != nil {
		return err
	}
	return ok(c, views)
}

func (s *Server) createInvite(c *fiber.Ctx) error {
	var req inviteRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.tracker.Partnerships().CreateInvite(c.UserContext(), userID(c), req.FriendID, req.TargetDays)
	if err != nil {
		return err
	}
	return created(c, p)
}

func (s *Server) pendingInvites(c *fiber.Ctx) error {
	n, err := s.tracker.Partnerships().PendingInvitesCount(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"count": n})
}

func (s *Server) getPartnership(c *fiber.Ctx) error {
	p, err := s.tracker.Partnerships().Get(c.UserContext(), c.Params("id"), userID(c))
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (s *Server) acceptInvite(c *fiber.Ctx) error {
	done, err := s.tracker.Partnerships().AcceptInvite(c.UserContext(), c.Params("id"), userID(c))
	if err != nil {
		return err
	}
	return applied(c, done)
}

func (s *Server) cancelPartnership(c *fiber.Ctx) error {
	done, err := s.tracker.Partnerships().CancelPartnership(c.UserContext(), c.Params("id"), userID(c))
	if err != nil {
		return err
	}
	return applied(c, done)
}

func (s *Server) checkPartnership(c *fiber.Ctx) error {
	ctx := c.UserContext()
	// Membership check before revealing progress
	if _, err := s.tracker.Partnerships().Get(ctx, c.Params("id"), userID(c)); err != nil {
		return err
	}
	res, err := s.tracker.Partnerships().CheckPartnershipProgress(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, res)
}

func (s *Server) updateReminder(c *fiber.Ctx) error {
	var req reminderToggleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Enabled == nil {
		return apperrors.Validation("enabled is required")
	}
	done, err := s.tracker.Partnerships().UpdateReminderSettings(c.UserContext(), c.Params("id"), userID(c), *req.Enabled)
	if err != nil {
		return err
	}
	return applied(c, done)
}

func (s *Server) dispatchReminders(c *fiber.Ctx) error {
	if s.reminders == nil {
		return fiber.NewError(fiber.StatusNotImplemented, "reminders are not configured")
	}
	var req dispatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	report, err := s.reminders.Dispatch(c.UserContext(), req.ReminderType, req.UserIDs)
	if err != nil {
		return err
	}
	return ok(c, report)
}
