package friends

import (
	"github.com/julianstephens/daystreak/internal/cli"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/social"
)

type FriendCmd struct {
	Request FriendRequestCmd `cmd:"" help:"Send a friend request."`
	Accept  FriendAcceptCmd  `cmd:"" help:"Accept a friend request."`
	Reject  FriendRejectCmd  `cmd:"" help:"Reject or withdraw a friend request."`
	Remove  FriendRemoveCmd  `cmd:"" help:"Remove a friend."`
	List    FriendListCmd    `cmd:"" help:"List friends."`
	Pending FriendPendingCmd `cmd:"" help:"List friend requests waiting for you."`
}

type FriendRequestCmd struct {
	User string `arg:"" help:"Username or id."`
}

func (c *FriendRequestCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	friend, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	if _, err := ctx.Tracker().Social().SendRequest(ctx.Context(), userID, friend.ID); err != nil {
		return err
	}
	ctx.Printf("Friend request sent to @%s\n", friend.Username)
	return nil
}

// findRequest resolves a pending request by friendship id or by the
// username of the other side.
func findRequest(ctx *cli.Context, userID, ref string) (string, error) {
	if f, err := ctx.Store.GetFriendship(ctx.Context(), ref); err == nil && f.Involves(userID) {
		return f.ID, nil
	}
	other, err := ctx.ResolveUser(ref)
	if err != nil {
		return "", err
	}
	f, err := ctx.Store.GetFriendshipBetween(ctx.Context(), userID, other.ID)
	if err != nil {
		return "", apperrors.FromStore("get friendship", "friend request", ref, err)
	}
	return f.ID, nil
}

type FriendAcceptCmd struct {
	Request string `arg:"" help:"Requester's username or the request id."`
}

func (c *FriendAcceptCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	id, err := findRequest(ctx, userID, c.Request)
	if err != nil {
		return err
	}

	f, unlocked, err := ctx.Tracker().AcceptFriend(ctx.Context(), id, userID)
	if err != nil {
		return err
	}
	friend, err := ctx.Tracker().Social().GetPublicProfile(ctx.Context(), f.Other(userID))
	if err != nil {
		return err
	}

	ctx.Printf("✓ You and @%s are now friends\n", friend.Username)
	for _, a := range unlocked {
		ctx.Println(cli.SuccessStyle.Render("  " + a.Icon + " Achievement unlocked: " + a.Title))
	}
	return nil
}

type FriendRejectCmd struct {
	Request string `arg:"" help:"Other user's username or the request id."`
}

func (c *FriendRejectCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	id, err := findRequest(ctx, userID, c.Request)
	if err != nil {
		return err
	}
	if err := ctx.Tracker().Social().RejectRequest(ctx.Context(), id, userID); err != nil {
		return err
	}
	ctx.Println("Friend request removed.")
	return nil
}

type FriendRemoveCmd struct {
	User string `arg:"" help:"Friend's username or id."`
}

func (c *FriendRemoveCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	friend, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	if err := ctx.Tracker().Social().RemoveFriend(ctx.Context(), userID, friend.ID); err != nil {
		return err
	}
	ctx.Printf("Removed @%s from your friends\n", friend.Username)
	return nil
}

type FriendListCmd struct{}

func (c *FriendListCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	friends, err := ctx.Tracker().Social().GetFriends(ctx.Context(), userID)
	if err != nil {
		return err
	}
	if len(friends) == 0 {
		ctx.Println("No friends yet. Find people with 'daystreak user search <name>'.")
		return nil
	}
	for _, f := range friends {
		ctx.Printf("  @%-20s %-24s 🔥 %d\n", f.Profile.Username, f.Profile.DisplayName, f.Profile.CurrentStreak)
	}
	return nil
}

type FriendPendingCmd struct{}

func (c *FriendPendingCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.UserID()
	if err != nil {
		return err
	}
	requests, err := ctx.Tracker().Social().GetPendingRequests(ctx.Context(), userID)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		ctx.Println("No pending friend requests.")
		return nil
	}
	for _, r := range requests {
		printRequest(ctx, r)
	}
	return nil
}

func printRequest(ctx *cli.Context, r social.Request) {
	ctx.Printf("  @%-20s %s  %s\n", r.From.Username, r.From.DisplayName,
		cli.MutedStyle.Render(r.Friendship.CreatedAt.Format("2006-01-02")))
}
