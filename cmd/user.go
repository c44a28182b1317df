package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/chorus/internal/auth"
	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/repositories"
	"github.com/desertthunder/chorus/internal/shared"
	"github.com/urfave/cli/v3"
)

// UserCreate registers a new profile.
func (r *Runner) UserCreate(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username argument is required", shared.ErrValidation)
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(cmd.String("password"))
	if err != nil {
		return err
	}

	user := models.NewUser(0, models.NormalizeUsername(username), hash)
	user.SetDisplayName(cmd.String("display-name"))
	user.SetPublic(!cmd.Bool("private"))

	if err := repositories.NewUserRepository(db).Create(user); err != nil {
		return err
	}

	r.logger.Info("profile created", "username", user.Username(), "id", user.ID())
	r.writePlain("✓ Created profile %s\n", user.Handle())
	return nil
}

// UserShow prints a profile with its graph edges.
func (r *Runner) UserShow(ctx context.Context, cmd *cli.Command) error {
	user, err := r.userByName(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}
	graph := repositories.NewGraphRepository(db)

	follows, err := graph.Follows(user.ID())
	if err != nil {
		return err
	}
	followers, err := graph.Followers(user.ID())
	if err != nil {
		return err
	}
	pending, err := graph.PendingRequests(user.ID())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"id":           user.ID(),
			"username":     user.Username(),
			"display_name": user.DisplayName(),
			"public":       user.Public(),
			"follows":      len(follows),
			"followers":    len(followers),
			"pending":      len(pending),
		}, true)
	}

	r.writePlain("%s (@%s)\n", user.Handle(), user.Username())
	if user.Public() {
		r.writePlain("Visibility: Public\n")
	} else {
		r.writePlain("Visibility: Private\n")
	}
	r.writePlain("Following: %d  Followers: %d  Pending requests: %d\n",
		len(follows), len(followers), len(pending))
	return nil
}

// UserUpdate applies profile field updates.
func (r *Runner) UserUpdate(ctx context.Context, cmd *cli.Command) error {
	user, err := r.userByName(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}
	users := repositories.NewUserRepository(db)

	updates := []models.ProfileUpdate{}
	if v := cmd.String("new-username"); v != "" {
		updates = append(updates, models.UsernameUpdate{Username: models.NormalizeUsername(v)})
	}
	if cmd.IsSet("display-name") {
		updates = append(updates, models.DisplayNameUpdate{DisplayName: cmd.String("display-name")})
	}
	if v := cmd.String("password"); v != "" {
		hash, err := auth.HashPassword(v)
		if err != nil {
			return err
		}
		updates = append(updates, models.PasswordUpdate{Hash: hash})
	}
	if v := cmd.String("visibility"); v != "" {
		switch v {
		case "public":
			updates = append(updates, models.VisibilityUpdate{Public: true})
		case "private":
			updates = append(updates, models.VisibilityUpdate{Public: false})
		default:
			return fmt.Errorf("%w: visibility must be public or private", shared.ErrValidation)
		}
	}

	if len(updates) == 0 {
		return fmt.Errorf("%w: nothing to update", shared.ErrValidation)
	}

	for _, update := range updates {
		if err := users.ApplyProfileUpdate(user.ID(), update); err != nil {
			return err
		}
	}

	r.writePlain("✓ Updated profile %s\n", user.Username())
	return nil
}

// UserDelete removes a profile and its posts.
func (r *Runner) UserDelete(ctx context.Context, cmd *cli.Command) error {
	user, err := r.userByName(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	if err := repositories.NewUserRepository(db).Delete(user.ID()); err != nil {
		return err
	}

	r.logger.Info("profile deleted", "username", user.Username())
	r.writePlain("✓ Deleted profile %s\n", user.Username())
	return nil
}

// UserFollow creates a follow edge.
func (r *Runner) UserFollow(ctx context.Context, cmd *cli.Command) error {
	return r.graphEdge(cmd, "Now following",
		func(g *repositories.GraphRepository, actor, target string) error {
			return g.Follow(actor, target)
		})
}

// UserUnfollow removes a follow edge.
func (r *Runner) UserUnfollow(ctx context.Context, cmd *cli.Command) error {
	return r.graphEdge(cmd, "Unfollowed",
		func(g *repositories.GraphRepository, actor, target string) error {
			return g.Unfollow(actor, target)
		})
}

// UserBlock blocks a user.
func (r *Runner) UserBlock(ctx context.Context, cmd *cli.Command) error {
	return r.graphEdge(cmd, "Blocked",
		func(g *repositories.GraphRepository, actor, target string) error {
			return g.Block(actor, target)
		})
}

// UserUnblock removes a block.
func (r *Runner) UserUnblock(ctx context.Context, cmd *cli.Command) error {
	return r.graphEdge(cmd, "Unblocked",
		func(g *repositories.GraphRepository, actor, target string) error {
			return g.Unblock(actor, target)
		})
}

// UserRequest sends a friend request.
func (r *Runner) UserRequest(ctx context.Context, cmd *cli.Command) error {
	return r.graphEdge(cmd, "Requested friendship with",
		func(g *repositories.GraphRepository, actor, target string) error {
			return g.RequestFriendship(actor, target)
		})
}

// UserResolve accepts or declines a pending friend request.
func (r *Runner) UserResolve(ctx context.Context, cmd *cli.Command) error {
	actor, err := r.userByName(cmd.StringArg("actor"))
	if err != nil {
		return err
	}
	requester, err := r.userByName(cmd.StringArg("requester"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	decision := repositories.Decision(cmd.String("decision"))
	if err := repositories.NewGraphRepository(db).ResolveFriendRequest(actor.ID(), requester.ID(), decision); err != nil {
		return err
	}

	r.writePlain("✓ Request from %s: %s\n", requester.Handle(), decision)
	return nil
}

// graphEdge resolves both usernames and applies a graph mutation.
func (r *Runner) graphEdge(cmd *cli.Command, verb string, fn func(*repositories.GraphRepository, string, string) error) error {
	actor, err := r.userByName(cmd.StringArg("actor"))
	if err != nil {
		return err
	}
	target, err := r.userByName(cmd.StringArg("target"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	if err := fn(repositories.NewGraphRepository(db), actor.ID(), target.ID()); err != nil {
		return err
	}

	r.writePlain("✓ %s %s\n", verb, target.Handle())
	return nil
}
