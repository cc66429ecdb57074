package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/y4gg/portfolio-api/client"
)

const usage = `usage: blogctl [-server URL] <command> [args]

commands:
  login <key>                      verify and persist the admin key
  logout                           clear the persisted key
  status                           show the session state
  list                             list all posts
  get <slug>                       print one post
  create <title> <content> [slug]  create a post (slug derived from title if omitted)
  update <slug> <title> <content>  overwrite title and content
  delete <slug>                    delete a post
`

func main() {
	server := flag.String("server", "http://localhost:8000", "portfolio API base URL")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	keyPath, err := client.DefaultKeyPath()
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()
	session := client.NewSession(client.New(*server), client.NewFileKeyStore(keyPath))

	switch args[0] {
	case "login":
		if len(args) != 2 {
			fatalUsage()
		}
		if err := session.Login(ctx, args[1]); err != nil {
			fatal(err)
		}
		fmt.Println("Logged in successfully!")

	case "logout":
		if err := session.Logout(); err != nil {
			fatal(err)
		}
		fmt.Println("Logged out.")

	case "status":
		state, err := session.Resume(ctx)
		if err != nil {
			fatal(err)
		}
		fmt.Println("session:", state)

	case "list":
		posts, err := client.New(*server).ListPosts(ctx)
		if err != nil {
			fatal(err)
		}
		for _, post := range posts {
			fmt.Printf("%s\t%s\t%s\n", post.Published.Format("2006-01-02"), post.Slug, post.Title)
		}

	case "get":
		if len(args) != 2 {
			fatalUsage()
		}
		post, err := client.New(*server).GetPost(ctx, args[1])
		if err != nil {
			fatal(err)
		}
		fmt.Printf("# %s\n\n%s\n", post.Title, post.Content)
		if len(post.Tags) > 0 {
			fmt.Println("\ntags:", strings.Join(post.Tags, ", "))
		}

	case "create":
		if len(args) < 3 || len(args) > 4 {
			fatalUsage()
		}
		requireAuth(ctx, session)
		slug := ""
		if len(args) == 4 {
			slug = args[3]
		}
		post, err := session.CreatePost(ctx, args[1], args[2], slug, nil)
		if err != nil {
			fatal(err)
		}
		fmt.Println("created:", post.Slug)

	case "update":
		if len(args) != 4 {
			fatalUsage()
		}
		requireAuth(ctx, session)
		post, err := session.UpdatePost(ctx, args[2], args[3], args[1], nil)
		if err != nil {
			fatal(err)
		}
		fmt.Println("updated:", post.Slug)

	case "delete":
		if len(args) != 2 {
			fatalUsage()
		}
		requireAuth(ctx, session)
		if err := session.DeletePost(ctx, args[1]); err != nil {
			fatal(err)
		}
		fmt.Println("deleted:", args[1])

	default:
		fatalUsage()
	}
}

func requireAuth(ctx context.Context, session *client.Session) {
	state, err := session.Resume(ctx)
	if err != nil {
		fatal(err)
	}
	if state != client.StateAuthenticated {
		fatal(fmt.Errorf("not logged in; run blogctl login <key>"))
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "blogctl:", err)
	os.Exit(1)
}

func fatalUsage() {
	flag.Usage()
	os.Exit(2)
}
