package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"BlogMigrator/internal/domain"
	"BlogMigrator/internal/usecase"
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage")

const timeLayout = "2006-01-02 15:04"

type command struct {
	summary string
	run     func(ctx context.Context, args []string) error
}

func (a *Application) commands() map[string]command {
	return map[string]command{
		"stats":       {"show migration statistics and recent activity", a.cmdStats},
		"sources":     {"add|list|delete legacy blog sources", a.cmdSources},
		"extract":     {"extract posts from one source (or all)", a.cmdExtract},
		"posts":       {"list posts by status or source", a.cmdPosts},
		"recent":      {"list recently updated posts", a.cmdRecent},
		"rewrite":     {"rewrite extracted posts", a.cmdRewrite},
		"configs":     {"add|list|default|delete publish destinations", a.cmdConfigs},
		"schedule":    {"assign publishing slots to rewritten posts", a.cmdSchedule},
		"next-slot":   {"show the next free publishing slot", a.cmdNextSlot},
		"publish":     {"publish rewritten posts now", a.cmdPublish},
		"publish-due": {"publish scheduled posts whose slot has passed", a.cmdPublishDue},
		"run":         {"poll and publish due posts until interrupted", a.cmdRun},
		"clear":       {"delete all sources and posts", a.cmdClear},
	}
}

// Execute runs one subcommand.
func (a *Application) Execute(ctx context.Context, args []string) error {
	cmds := a.commands()
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage(cmds)
		if len(args) == 0 {
			return fmt.Errorf("%w: missing command", ErrUsage)
		}
		return nil
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		a.usage(cmds)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	err := cmd.run(ctx, args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func (a *Application) usage(cmds map[string]command) {
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(a.out, "usage: blogmigrator <command> [flags]")
	fmt.Fprintln(a.out)
	t := newTable("COMMAND", "DESCRIPTION")
	for _, name := range names {
		t.add(name, cmds[name].summary)
	}
	_ = t.render(a.out)
}

func (a *Application) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *Application) cmdStats(ctx context.Context, args []string) error {
	fs := a.flags("stats")
	recent := fs.Int("recent", 5, "number of recent posts to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	overview, err := usecase.LoadOverview(ctx, a.repo, *recent)
	if err != nil {
		return err
	}
	s := overview.Stats
	fmt.Fprintf(a.out, "Sources:   %d\nExtracted: %d\nPublished: %d\nPending:   %d\n",
		s.TotalSources, s.TotalExtracted, s.TotalPublished, s.TotalPending)
	if len(overview.Recent) > 0 {
		fmt.Fprintln(a.out)
		return a.renderPosts(overview.Recent)
	}
	return nil
}

func (a *Application) cmdSources(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: sources add|list|delete", ErrUsage)
	}
	switch args[0] {
	case "add":
		fs := a.flags("sources add")
		url := fs.String("url", "", "source URL (http or https)")
		name := fs.String("name", "", "display name (defaults to the host)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		source, err := a.ingestor.AddSource(ctx, *url, *name)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added source %s (%s)\n", source.Name, source.ID)
		return nil
	case "list":
		sources, err := a.repo.ListSources(ctx)
		if err != nil {
			return err
		}
		t := newTable("ID", "NAME", "URL", "POSTS", "ADDED")
		for _, s := range sources {
			t.add(s.ID, s.Name, s.URL, strconv.Itoa(s.PostCount), a.localTime(s.CreatedAt))
		}
		return t.render(a.out)
	case "delete":
		fs := a.flags("sources delete")
		id := fs.String("id", "", "source id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if err := a.repo.DeleteSource(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted source %s and its posts\n", *id)
		return nil
	}
	return fmt.Errorf("%w: unknown sources action %q", ErrUsage, args[0])
}

func (a *Application) cmdExtract(ctx context.Context, args []string) error {
	fs := a.flags("extract")
	sourceID := fs.String("source", "", "source id (empty extracts every source)")
	maxPosts := fs.Int("max", a.cfg.Extractor.DefaultMaxPosts, "maximum posts per source (1-100)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var reports []usecase.IngestReport
	if *sourceID == "" {
		all, err := a.ingestor.IngestAll(ctx, *maxPosts)
		if err != nil {
			return err
		}
		reports = all
	} else {
		report, err := a.ingestor.Ingest(ctx, *sourceID, *maxPosts)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	for _, r := range reports {
		fmt.Fprintf(a.out, "%s: found %d, added %d, duplicates %d, failed %d\n",
			r.Source.Name, r.Found, r.Added(), r.Duplicates(), r.Failed)
		a.printFailures(r.BatchReport)
	}
	return nil
}

func (a *Application) cmdPosts(ctx context.Context, args []string) error {
	fs := a.flags("posts")
	statusFlag := fs.String("status", "", "extracted|rewritten|scheduled|published|failed")
	sourceID := fs.String("source", "", "only posts of this source")
	limit := fs.Int("limit", 20, "maximum posts to list (status filter only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var status domain.PostStatus
	if *statusFlag != "" {
		parsed, err := domain.ParseStatus(*statusFlag)
		if err != nil {
			return err
		}
		status = parsed
	}

	var (
		posts []domain.Post
		err   error
	)
	switch {
	case *sourceID != "":
		posts, err = a.repo.ListPostsBySource(ctx, *sourceID, status)
	case status != "":
		posts, err = a.repo.ListPostsByStatus(ctx, status, *limit)
	default:
		return fmt.Errorf("%w: posts needs -status or -source", ErrUsage)
	}
	if err != nil {
		return err
	}
	return a.renderPosts(posts)
}

func (a *Application) cmdRecent(ctx context.Context, args []string) error {
	fs := a.flags("recent")
	limit := fs.Int("limit", 10, "number of posts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	posts, err := a.repo.RecentPosts(ctx, *limit)
	if err != nil {
		return err
	}
	return a.renderPosts(posts)
}

func (a *Application) cmdRewrite(ctx context.Context, args []string) error {
	defaults := usecase.DefaultRewriteOptions()
	fs := a.flags("rewrite")
	limit := fs.Int("limit", 5, "maximum posts to rewrite")
	seo := fs.Bool("seo", defaults.OptimizeSEO, "optimize for search engines")
	readability := fs.Bool("readability", defaults.ImproveReadability, "improve readability")
	meta := fs.Bool("meta", defaults.GenerateMeta, "generate a meta description")
	tags := fs.Bool("tags", defaults.SuggestTags, "suggest tags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	report, err := a.rewriting.RewriteBatch(ctx, *limit, usecase.RewriteOptions{
		OptimizeSEO:        *seo,
		ImproveReadability: *readability,
		GenerateMeta:       *meta,
		SuggestTags:        *tags,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, report.Summary())
	return nil
}

func (a *Application) cmdConfigs(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: configs add|list|default|delete", ErrUsage)
	}
	switch args[0] {
	case "add":
		return a.addConfig(ctx, args[1:])
	case "list":
		configs, err := a.repo.ListPublishConfigs(ctx)
		if err != nil {
			return err
		}
		t := newTable("ID", "NAME", "METHOD", "TARGET", "DEFAULT")
		for _, c := range configs {
			target := c.BlogID
			if c.PublishMethod == domain.MethodEmail {
				target = c.EmailAddress
			}
			def := ""
			if c.IsDefault {
				def = "yes"
			}
			t.add(c.ID, c.BlogName, string(c.PublishMethod), target, def)
		}
		return t.render(a.out)
	case "default", "delete":
		fs := a.flags("configs " + args[0])
		id := fs.String("id", "", "publish config id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if args[0] == "default" {
			if err := a.repo.SetDefaultPublishConfig(ctx, *id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Config %s is now the default\n", *id)
			return nil
		}
		if err := a.repo.DeletePublishConfig(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted config %s\n", *id)
		return nil
	}
	return fmt.Errorf("%w: unknown configs action %q", ErrUsage, args[0])
}

func (a *Application) addConfig(ctx context.Context, args []string) error {
	fs := a.flags("configs add")
	name := fs.String("name", "", "blog name")
	method := fs.String("method", string(domain.MethodAPI), "api|email")
	blogID := fs.String("blog-id", "", "numeric Blogger blog id (api)")
	apiKey := fs.String("api-key", "", "Blogger API key (api)")
	email := fs.String("email", "", "Blogger post-by-email address (email)")
	smtpServer := fs.String("smtp-server", "", "SMTP server (email)")
	smtpPort := fs.Int("smtp-port", 0, "SMTP port (email)")
	smtpUser := fs.String("smtp-user", "", "SMTP username (email)")
	smtpPassword := fs.String("smtp-password", "", "SMTP password (email)")
	isDefault := fs.Bool("default", false, "make this the default destination")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := domain.PublishConfig{
		BlogName:      strings.TrimSpace(*name),
		PublishMethod: domain.PublishMethod(strings.ToLower(*method)),
		BlogID:        strings.TrimSpace(*blogID),
		APIKey:        strings.TrimSpace(*apiKey),
		EmailAddress:  strings.TrimSpace(*email),
		SMTPServer:    strings.TrimSpace(*smtpServer),
		SMTPPort:      *smtpPort,
		SMTPUsername:  strings.TrimSpace(*smtpUser),
		SMTPPassword:  *smtpPassword,
		IsDefault:     *isDefault,
	}
	cfg.ApplyDefaults()
	if err := a.publisher.Validate(cfg); err != nil {
		return err
	}
	id, err := a.repo.AddPublishConfig(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added config %s (%s)\n", cfg.BlogName, id)
	return nil
}

func (a *Application) cmdSchedule(ctx context.Context, args []string) error {
	fs := a.flags("schedule")
	limit := fs.Int("limit", 10, "maximum posts to schedule")
	date := fs.String("date", "", "first day, YYYY-MM-DD")
	clock := fs.String("time", "09:00", "first slot, HH:MM")
	perDay := fs.Int("per-day", a.cfg.Scheduler.PostsPerDay, "posts per day")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *date == "" {
		*date = a.now().In(a.cfg.Scheduler.Location()).Format("2006-01-02")
	}
	start, err := usecase.CombineDateTime(*date, *clock, a.cfg.Scheduler.Location())
	if err != nil {
		return err
	}

	entries, report, err := a.scheduler.ScheduleRewritten(ctx, *limit, start, *perDay)
	if err != nil {
		return err
	}
	t := newTable("POST", "TITLE", "SLOT")
	for _, e := range entries {
		t.add(e.PostID, e.Title, a.localTime(e.ScheduledTime))
	}
	if err := t.render(a.out); err != nil {
		return err
	}
	fmt.Fprintln(a.out, report.Summary())
	return nil
}

func (a *Application) cmdNextSlot(ctx context.Context, args []string) error {
	fs := a.flags("next-slot")
	hours := fs.Int("hours", a.cfg.Scheduler.HoursBetweenPosts, "hours between posts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	next, err := a.scheduler.NextAvailableSlot(ctx, a.now(), *hours)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.localTime(next))
	return nil
}

func (a *Application) cmdPublish(ctx context.Context, args []string) error {
	fs := a.flags("publish")
	limit := fs.Int("limit", 5, "maximum posts to publish")
	configID := fs.String("config", "", "publish config id (default destination when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	report, err := a.publishing.PublishBatch(ctx, *limit, *configID)
	if err != nil {
		return err
	}
	a.printPublish(report)
	return nil
}

func (a *Application) cmdPublishDue(ctx context.Context, args []string) error {
	fs := a.flags("publish-due")
	if err := fs.Parse(args); err != nil {
		return err
	}
	report, err := a.publishing.PublishDue(ctx, a.now())
	if err != nil {
		return err
	}
	if report.Attempted == 0 {
		fmt.Fprintln(a.out, "No posts are due")
		return nil
	}
	a.printPublish(report)
	return nil
}

func (a *Application) cmdRun(ctx context.Context, args []string) error {
	fs := a.flags("run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.Serve(ctx)
}

func (a *Application) cmdClear(ctx context.Context, args []string) error {
	fs := a.flags("clear")
	yes := fs.Bool("yes", false, "confirm deleting every source and post")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("%w: clear requires -yes", ErrUsage)
	}
	if err := a.repo.ClearAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All sources and posts deleted")
	return nil
}

func (a *Application) renderPosts(posts []domain.Post) error {
	if len(posts) == 0 {
		fmt.Fprintln(a.out, "No posts")
		return nil
	}
	t := newTable("ID", "TITLE", "SOURCE", "STATUS", "UPDATED")
	for _, p := range posts {
		t.add(p.ID, p.DisplayTitle(), p.SourceName, string(p.Status), a.localTime(p.UpdatedAt))
	}
	return t.render(a.out)
}

func (a *Application) printPublish(report domain.BatchReport) {
	fmt.Fprintln(a.out, report.Summary())
	for _, item := range report.Items {
		if item.Err == nil && item.Reference != "" {
			fmt.Fprintf(a.out, "  %s -> %s\n", item.Title, item.Reference)
		}
	}
}

func (a *Application) printFailures(report domain.BatchReport) {
	for _, item := range report.Items {
		if item.Err != nil {
			fmt.Fprintf(a.out, "  failed %s: %v\n", item.Title, item.Err)
		}
	}
}

func (a *Application) localTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(a.cfg.Scheduler.Location()).Format(timeLayout)
}
