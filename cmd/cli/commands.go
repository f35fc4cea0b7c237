package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cinescope/proj/internal/domain/models"
	"cinescope/proj/internal/services"
	"cinescope/proj/internal/services/movies"
	"cinescope/proj/internal/services/session"
)

func runCommand(ctx context.Context, svc *services.Services, args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "login":
		if len(rest) != 2 {
			usage()
			return 2
		}
		err := svc.Session.Login(ctx, session.Credentials{Email: rest[0], Password: rest[1]})
		if err != nil {
			printSessionError(err)
			return 1
		}
		st := svc.Session.Snapshot()
		fmt.Printf("logged in as %s\n", st.User.Username)

	case "register":
		if len(rest) != 3 {
			usage()
			return 2
		}
		err := svc.Session.Register(ctx, session.Registration{
			Email: rest[0], Username: rest[1], Password: rest[2],
		})
		if err != nil {
			printSessionError(err)
			return 1
		}
		st := svc.Session.Snapshot()
		fmt.Printf("welcome, %s\n", st.User.Username)

	case "logout":
		svc.Session.Logout()
		fmt.Println("logged out")

	case "whoami":
		st := svc.Session.Snapshot()
		if !st.IsAuthenticated {
			fmt.Println("not logged in")
			return 1
		}
		fmt.Printf("%s <%s> (id %d)\n", st.User.Username, st.User.Email, st.User.ID)

	case "forgot-password":
		if len(rest) != 1 {
			usage()
			return 2
		}
		if err := svc.Session.ForgotPassword(ctx, rest[0]); err != nil {
			printSessionError(err)
			return 1
		}
		fmt.Println("reset code sent, check your email")

	case "reset-password":
		if len(rest) != 3 {
			usage()
			return 2
		}
		err := svc.Session.ResetPassword(ctx, session.PasswordReset{
			Email: rest[0], OTP: rest[1], NewPassword: rest[2],
		})
		if err != nil {
			printSessionError(err)
			return 1
		}
		fmt.Println("password updated")

	case "delete-account":
		if len(rest) != 1 {
			usage()
			return 2
		}
		if err := svc.Session.DeleteAccount(ctx, rest[0]); err != nil {
			printSessionError(err)
			return 1
		}
		fmt.Println("account deleted")

	case "featured":
		page := optionalPage(rest, 0)
		results := svc.Catalog.LoadFeatured(ctx, page)
		return printMovies(svc, results)

	case "search":
		if len(rest) < 1 {
			usage()
			return 2
		}
		page := optionalPage(rest, 1)
		results := svc.Catalog.Search(ctx, rest[0], movies.SearchByTitle, page)
		return printMovies(svc, results)

	case "director":
		if len(rest) < 1 {
			usage()
			return 2
		}
		results := svc.Catalog.Search(ctx, strings.Join(rest, " "), movies.SearchByDirector, 1)
		return printMovies(svc, results)

	case "actor":
		if len(rest) < 1 {
			usage()
			return 2
		}
		results := svc.Catalog.Search(ctx, strings.Join(rest, " "), movies.SearchByActor, 1)
		return printMovies(svc, results)

	case "genres":
		genres := svc.Catalog.Genres(ctx)
		if msg := svc.Catalog.Err(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
			return 1
		}
		for _, g := range genres {
			fmt.Printf("%4d  %s\n", g.ID, g.Name)
		}

	case "genre":
		if len(rest) < 1 {
			usage()
			return 2
		}
		genreID, err := strconv.Atoi(rest[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "genre-id must be a number")
			return 2
		}
		page := optionalPage(rest, 1)
		results := svc.Catalog.ByGenre(ctx, genreID, page)
		return printMovies(svc, results)

	case "movie":
		id, ok := intArg(rest, 0, "movie-id")
		if !ok {
			return 2
		}
		movie := svc.Catalog.GetMovieDetails(ctx, id)
		if movie == nil {
			fmt.Fprintln(os.Stderr, svc.Catalog.Err())
			return 1
		}
		printMovieDetails(svc, movie)

	case "related":
		id, ok := intArg(rest, 0, "movie-id")
		if !ok {
			return 2
		}
		movie := svc.Catalog.GetMovieDetails(ctx, id)
		if movie == nil {
			fmt.Fprintln(os.Stderr, svc.Catalog.Err())
			return 1
		}
		return printMovies(svc, svc.Catalog.Related(ctx, movie))

	case "watchlist":
		entries := svc.Watchlist.Load(ctx)
		if msg := svc.Watchlist.Err(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
			return 1
		}
		if len(entries) == 0 {
			fmt.Println("watchlist is empty")
			return 0
		}
		for _, e := range entries {
			title := fmt.Sprintf("movie %d", e.MovieID)
			if e.Movie != nil {
				title = e.Movie.Title
			}
			fmt.Printf("%6d  %s\n", e.MovieID, title)
		}

	case "watchlist-add":
		id, ok := intArg(rest, 0, "movie-id")
		if !ok {
			return 2
		}
		if !svc.Watchlist.Add(ctx, id) {
			fmt.Fprintln(os.Stderr, svc.Watchlist.Err())
			return 1
		}
		fmt.Println("added")

	case "watchlist-rm":
		id, ok := intArg(rest, 0, "movie-id")
		if !ok {
			return 2
		}
		if !svc.Watchlist.Remove(ctx, id) {
			fmt.Fprintln(os.Stderr, svc.Watchlist.Err())
			return 1
		}
		fmt.Println("removed")

	case "stats":
		stats := svc.Watchlist.LoadStats(ctx)
		if stats == nil {
			fmt.Fprintln(os.Stderr, svc.Watchlist.Err())
			return 1
		}
		fmt.Printf("on watchlist: %d\nwatched: %d\n", stats.TotalWatchlist, stats.Watched)

	case "comments":
		id, ok := intArg(rest, 0, "movie-id")
		if !ok {
			return 2
		}
		thread := svc.Comments.Load(ctx, id)
		if msg := svc.Comments.Err(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
			return 1
		}
		printComments(thread)

	case "comment":
		if len(rest) < 2 {
			usage()
			return 2
		}
		id, ok := intArg(rest, 0, "movie-id")
		if !ok {
			return 2
		}
		comment := svc.Comments.Add(ctx, id, strings.Join(rest[1:], " "))
		if comment == nil {
			fmt.Fprintln(os.Stderr, svc.Comments.Err())
			return 1
		}
		fmt.Printf("posted comment %d\n", comment.ID)

	case "my-comments":
		thread := svc.Comments.Mine(ctx)
		if msg := svc.Comments.Err(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
			return 1
		}
		printComments(thread)

	case "my-likes":
		thread := svc.Comments.Liked(ctx)
		if msg := svc.Comments.Err(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
			return 1
		}
		printComments(thread)

	case "sentiment":
		if len(rest) < 1 {
			usage()
			return 2
		}
		result, err := svc.Sentiment.Analyze(ctx, strings.Join(rest, " "))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("%s (polarity %.2f, subjectivity %.2f)\n",
			result.Sentiment, result.Polarity, result.Subjectivity)

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		return 2
	}
	return 0
}

func printSessionError(err error) {
	var validationErr *session.ValidationError
	if errors.As(err, &validationErr) {
		for field, msg := range validationErr.Fields {
			fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
		}
		return
	}
	var policyErr *session.PasswordPolicyError
	if errors.As(err, &policyErr) {
		fmt.Fprintln(os.Stderr, "password does not meet the requirements:")
		for _, v := range policyErr.Violations {
			fmt.Fprintf(os.Stderr, "  - %s\n", v)
		}
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

func printMovies(svc *services.Services, results []models.Movie) int {
	if msg := svc.Catalog.Err(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		return 1
	}
	if len(results) == 0 {
		fmt.Println("no movies found")
		return 0
	}
	for _, m := range results {
		marker := " "
		if svc.Watchlist.InWatchlist(m.ID) {
			marker = "*"
		}
		fmt.Printf("%s %6d  %-40s %4d  %.1f\n", marker, m.ID, truncate(m.Title, 40), m.Year, m.IMDBRating)
	}
	if st := svc.Catalog.Query(); st.HasMore {
		fmt.Printf("-- page %d, more available --\n", st.Page)
	}
	return 0
}

func printMovieDetails(svc *services.Services, m *models.Movie) {
	fmt.Printf("%s (%d)\n", m.Title, m.Year)
	if m.Runtime > 0 {
		fmt.Printf("runtime: %d min\n", m.Runtime)
	}
	fmt.Printf("imdb: %.1f (%d raters)", m.IMDBRating, m.NumRaters)
	if m.PredictedRating > 0 {
		fmt.Printf("  predicted: %.1f", m.PredictedRating)
	}
	fmt.Println()
	if len(m.Genres) > 0 {
		names := make([]string, len(m.Genres))
		for i, g := range m.Genres {
			names[i] = g.Name
		}
		fmt.Printf("genres: %s\n", strings.Join(names, ", "))
	}
	for _, p := range m.People {
		fmt.Printf("%s: %s\n", p.Role, p.Name)
	}
	if m.Synopsis != "" {
		fmt.Printf("\n%s\n", m.Synopsis)
	}
	if svc.Watchlist.InWatchlist(m.ID) {
		fmt.Println("\non your watchlist")
	}
}

func printComments(thread []models.Comment) {
	if len(thread) == 0 {
		fmt.Println("no comments")
		return
	}
	for _, c := range thread {
		author := fmt.Sprintf("user %d", c.UserID)
		if c.User != nil {
			author = c.User.Username
		}
		fmt.Printf("%6d  %s (%d likes)\n        %s\n", c.ID, author, c.Likes, c.Content)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func intArg(args []string, i int, name string) (int, bool) {
	if len(args) <= i {
		usage()
		return 0, false
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s must be a number\n", name)
		return 0, false
	}
	return v, true
}

func optionalPage(args []string, at int) int {
	if len(args) > at {
		if p, err := strconv.Atoi(args[at]); err == nil {
			return p
		}
	}
	return 1
}
