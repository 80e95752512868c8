package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/julianstephens/daystreak/internal/achievement"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/ledger"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/social"
)

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type profileRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type habitRequest struct {
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Frequency string `json:"frequency"`
	Points    int    `json:"points"`
}

func (r habitRequest) input() ledger.HabitInput {
	return ledger.HabitInput{
		Name:      r.Name,
		Icon:      r.Icon,
		Frequency: models.Frequency(strings.ToLower(r.Frequency)),
		Points:    r.Points,
	}
}

type dayRequest struct {
	Date string `json:"date"`
}

type toggleRequest struct {
	HabitID   string `json:"habit_id"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
}

type pointsRequest struct {
	Points int `json:"points"`
}

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.tracker.Register(c.UserContext(), req.Username, req.DisplayName)
	if err != nil {
		return err
	}
	return created(c, p)
}

func (s *Server) getMe(c *fiber.Ctx) error {
	p, err := s.tracker.Social().GetProfile(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (s *Server) updateMe(c *fiber.Ctx) error {
	var req profileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := s.tracker.Social().UpdateProfile(c.UserContext(), userID(c), social.ProfileUpdate{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (s *Server) refresh(c *fiber.Ctx) error {
	out, err := s.tracker.Refresh(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, out)
}

func (s *Server) searchUsers(c *fiber.Ctx) error {
	users, err := s.tracker.Social().SearchUsers(c.UserContext(), userID(c), c.Query("q"))
	if err != nil {
		return err
	}
	return ok(c, users)
}

func (s *Server) getUser(c *fiber.Ctx) error {
	p, err := s.tracker.Social().GetPublicProfile(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (s *Server) listHabits(c *fiber.Ctx) error {
	habits, err := s.tracker.Ledger().GetAll(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, habits)
}

func (s *Server) createHabit(c *fiber.Ctx) error {
	var req habitRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	h, err := s.tracker.Ledger().CreateHabit(c.UserContext(), userID(c), req.input())
	if err != nil {
		return err
	}
	return created(c, h)
}

func (s *Server) getHabit(c *fiber.Ctx) error {
	h, err := s.tracker.Ledger().GetHabit(c.UserContext(), userID(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, h)
}

func (s *Server) updateHabit(c *fiber.Ctx) error {
	var req habitRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	h, err := s.tracker.Ledger().UpdateHabit(c.UserContext(), userID(c), c.Params("id"), req.input())
	if err != nil {
		return err
	}
	return ok(c, h)
}

func (s *Server) deleteHabit(c *fiber.Ctx) error {
	if err := s.tracker.Ledger().DeleteHabit(c.UserContext(), userID(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) completeHabit(c *fiber.Ctx) error {
	var req dayRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := s.tracker.CompleteHabit(c.UserContext(), userID(c), c.Params("id"), req.Date)
	if err != nil {
		return err
	}
	return ok(c, out)
}

func (s *Server) uncompleteHabit(c *fiber.Ctx) error {
	var req dayRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := s.tracker.UncompleteHabit(c.UserContext(), userID(c), c.Params("id"), req.Date)
	if err != nil {
		return err
	}
	return ok(c, out)
}

// toggleCompletion writes the ledger only; no XP or streak side effects.
func (s *Server) toggleCompletion(c *fiber.Ctx) error {
	var req toggleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.HabitID == "" {
		return apperrors.Validation("habit_id is required")
	}
	if req.Date == "" {
		req.Date = s.tracker.Clock().Today()
	}
	res, err := s.tracker.Ledger().Toggle(c.UserContext(), userID(c), req.HabitID, req.Date, req.Completed)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"completion": res.Completion, "changed": res.Changed})
}

func (s *Server) completionsByDate(c *fiber.Ctx) error {
	day := c.Query("date", s.tracker.Clock().Today())
	completions, err := s.tracker.Ledger().GetByDate(c.UserContext(), userID(c), day)
	if err != nil {
		return err
	}
	return ok(c, completions)
}

func (s *Server) recentCompletions(c *fiber.Ctx) error {
	completions, err := s.tracker.Ledger().GetLast7Days(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, completions)
}

func (s *Server) today(c *fiber.Ctx) error {
	done, err := s.tracker.Ledger().CheckAllCompletedToday(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"date": s.tracker.Clock().Today(), "all_completed": done})
}

func (s *Server) day(c *fiber.Ctx) error {
	day := c.Params("date")
	done, err := s.tracker.Ledger().AllHabitsCompletedOnDate(c.UserContext(), userID(c), day)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"date": day, "all_completed": done})
}

func (s *Server) weeklySummary(c *fiber.Ctx) error {
	summary, err := s.tracker.Ledger().WeeklySummary(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, summary)
}

func (s *Server) getStats(c *fiber.Ctx) error {
	stats, err := s.tracker.XP().Get(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, stats)
}

func (s *Server) addXP(c *fiber.Ctx) error {
	var req pointsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.tracker.XP().AddXP(c.UserContext(), userID(c), req.Points)
	if err != nil {
		return err
	}
	return ok(c, res)
}

func (s *Server) removeXP(c *fiber.Ctx) error {
	var req pointsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	stats, err := s.tracker.XP().RemoveXP(c.UserContext(), userID(c), req.Points)
	if err != nil {
		return err
	}
	return ok(c, stats)
}

func (s *Server) getStreak(c *fiber.Ctx) error {
	sp, err := s.tracker.Streaks().GetProfile(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, sp)
}

func (s *Server) checkStreak(c *fiber.Ctx) error {
	res, err := s.tracker.Streaks().Check(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return ok(c, res)
}

func (s *Server) listAchievements(c *fiber.Ctx) error {
	ctx := c.UserContext()
	all, err := s.tracker.Achievements().GetAll(ctx, userID(c))
	if err != nil {
		return err
	}
	progress, err := s.tracker.Achievements().Progress(ctx, userID(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"achievements": all, "progress": progress})
}

// checkAchievements evaluates the caller's current stats, streak and friend
// count.
func (s *Server) checkAchievements(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := userID(c)

	stats, err := s.tracker.XP().Get(ctx, id)
	if err != nil {
		return err
	}
	sp, err := s.tracker.Streaks().GetProfile(ctx, id)
	if err != nil {
		return err
	}
	friends, err := s.tracker.Social().GetFriendCount(ctx, id)
	if err != nil {
		return err
	}
	unlocked, err := s.tracker.Achievements().CheckAndUnlock(ctx, id, achievement.Snapshot{
		Stats:         stats,
		CurrentStreak: sp.CurrentStreak,
		FriendCount:   friends,
	})
	if err != nil {
		return err
	}
	return ok(c, unlocked)
}
