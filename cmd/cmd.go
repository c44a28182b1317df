// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag is shared by commands that read or create config.toml.
func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for database and seed data.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "seed",
				Usage:  "Create demo users and posts for local exploration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupSeed,
			},
		},
	}
}

// userCommand handles profile and social graph operations
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "Profiles and the social graph",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Register a new profile",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Account password",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "display-name",
						Usage: "Display name shown instead of the username",
					},
					&cli.BoolFlag{
						Name:  "private",
						Usage: "Hide posts from non-followers",
					},
				},
				Action: r.UserCreate,
			},
			{
				Name:  "show",
				Usage: "Show a profile and its graph edges",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.UserShow,
			},
			{
				Name:  "update",
				Usage: "Update profile fields",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "new-username", Usage: "Rename the account"},
					&cli.StringFlag{Name: "display-name", Usage: "New display name"},
					&cli.StringFlag{Name: "password", Usage: "New password"},
					&cli.StringFlag{Name: "visibility", Usage: "public or private"},
				},
				Action: r.UserUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete a profile and its posts",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Action: r.UserDelete,
			},
			{
				Name:  "follow",
				Usage: "Follow another user",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "actor"},
					&cli.StringArg{Name: "target"},
				},
				Action: r.UserFollow,
			},
			{
				Name:  "unfollow",
				Usage: "Stop following another user",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "actor"},
					&cli.StringArg{Name: "target"},
				},
				Action: r.UserUnfollow,
			},
			{
				Name:  "block",
				Usage: "Block a user and sever all edges between you",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "actor"},
					&cli.StringArg{Name: "target"},
				},
				Action: r.UserBlock,
			},
			{
				Name:  "unblock",
				Usage: "Remove a block",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "actor"},
					&cli.StringArg{Name: "target"},
				},
				Action: r.UserUnblock,
			},
			{
				Name:  "request",
				Usage: "Send a friend request",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "actor"},
					&cli.StringArg{Name: "target"},
				},
				Action: r.UserRequest,
			},
			{
				Name:  "resolve",
				Usage: "Accept or decline a pending friend request",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "actor"},
					&cli.StringArg{Name: "requester"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "decision",
						Usage:    "accept or decline",
						Required: true,
					},
				},
				Action: r.UserResolve,
			},
		},
	}
}

// postCommand handles posts and engagement operations
func postCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "post",
		Aliases: []string{"p"},
		Usage:   "Posts, comments, likes, and ratings",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Share a song, album, or playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "author",
						Usage:    "Author username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "body",
						Usage:    "Post body text",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag (repeatable, up to 3)",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Music content type: song, album, or playlist",
						Value: "playlist",
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Provider-side content ID",
						Required: true,
					},
				},
				Action: r.PostCreate,
			},
			{
				Name:  "show",
				Usage: "Show a post with its engagement",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.PostShow,
			},
			{
				Name:  "edit",
				Usage: "Edit a post's body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "author",
						Usage:    "Acting username (must be the post author)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "body",
						Usage:    "Replacement body text",
						Required: true,
					},
				},
				Action: r.PostEdit,
			},
			{
				Name:  "delete",
				Usage: "Delete a post",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "author",
						Usage:    "Acting username (must be the post author)",
						Required: true,
					},
				},
				Action: r.PostDelete,
			},
			{
				Name:  "search",
				Usage: "Search visible posts by text",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "term"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "viewer",
						Usage:    "Viewing username (controls visibility)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "playlists",
						Usage: "Match playlist names, tags, and track titles instead",
					},
				},
				Action: r.PostSearch,
			},
			{
				Name:  "like",
				Usage: "Toggle a like on a post, comment, or rating",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "actor",
						Usage:    "Acting username",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Target kind: post, comment, or rating",
						Value: "post",
					},
				},
				Action: r.PostLike,
			},
			{
				Name:  "comment",
				Usage: "Comment on a post",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "author",
						Usage:    "Commenting username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "body",
						Usage:    "Comment text",
						Required: true,
					},
				},
				Action: r.PostComment,
			},
			{
				Name:  "rate",
				Usage: "Rate a shared playlist 1-5 stars",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "rater",
						Usage:    "Rating username",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "stars",
						Usage:    "Star rating from 1 to 5",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "review",
						Usage: "Optional review text",
					},
				},
				Action: r.PostRate,
			},
		},
	}
}

// feedCommand renders a user's feed
func feedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "Show a user's feed (own posts plus followed authors)",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "username"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Posts per page (0 for all)",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Page through the entire feed",
			},
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Feed,
	}
}

// messageCommand handles direct messages
func messageCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "message",
		Aliases: []string{"msg"},
		Usage:   "Direct messages",
		Commands: []*cli.Command{
			{
				Name:  "send",
				Usage: "Send a direct message",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "from"},
					&cli.StringArg{Name: "to"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "body",
						Usage:    "Message text",
						Required: true,
					},
				},
				Action: r.MessageSend,
			},
			{
				Name:  "inbox",
				Usage: "Show a user's mailbox, oldest first",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.MessageInbox,
			},
		},
	}
}

// connectCommand handles provider connections (PKCE authorization)
func connectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Link music provider accounts",
		Commands: []*cli.Command{
			{
				Name:  "spotify",
				Usage: "Authorize with Spotify using OAuth2 PKCE",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConnectSpotify,
			},
			{
				Name:  "status",
				Usage: "Show a user's provider connection state",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Action: r.ConnectStatus,
			},
			{
				Name:  "remove",
				Usage: "Disconnect a provider and discard stored credentials",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
				},
				Action: r.ConnectRemove,
			},
		},
	}
}

// syncCommand refreshes stored playlist snapshots
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Refresh embedded playlist snapshots from the provider",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "post",
				Usage: "Refresh a single post instead of the full backlog",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent refresh workers",
				Value: 5,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Catalog requests per second",
				Value: 5,
			},
		},
		Action: r.Sync,
	}
}
