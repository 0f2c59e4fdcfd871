package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/disiqueira/gotree/v3"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"hoersaal/internal/config"
	"hoersaal/internal/domain"
	"hoersaal/internal/logging"
	"hoersaal/internal/render"
	"hoersaal/internal/store"
	"hoersaal/internal/tree"
)

const usageText = `
Usage:
   hoersaal [FLAG...] <ACTION> [ARG...]

 ACTIONs:
   semesters                 list semesters
   courses [--sync MODE]     list courses, optionally one sync mode only
   files [--course ID]       list files with their resolved paths
   detail FILE               show everything known about one file
   tree COURSE [--times]     print the folder tree of a course
   views                     list views
   view-add NAME             create a view (--format, --base, --escape, --charset)
   view-rm VIEW              delete a view and its checkouts
   checkout [VIEW] FILE      record that a file is materialized in a view
   checkouts [VIEW]          list checked out files with rendered paths
   render [VIEW] FILE        print the path a view renders for a file
   prune                     remove folders and files no course can reach
   seed                      load a small demo dataset

 VIEW may be a view id or name and defaults to the configured view.
`

func main() {
	_ = godotenv.Load()

	flags := pflag.NewFlagSet("hoersaal", pflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usageText+"\n Flags:\n")
		flags.PrintDefaults()
	}

	defaults := config.Default()
	configPath := flags.String("config", "", "path of an optional YAML config file")
	flags.String("database", defaults.Database, "path of the SQLite cache file")
	flags.String("view", defaults.View, "view used when a command does not name one")
	flags.String("log-level", defaults.LogLevel, "debug, info, warn or error")
	flags.String("environment", defaults.Environment, "development or production")

	syncFilter := flags.String("sync", "", "filter courses: disabled, manual, automatic or full")
	courseFilter := flags.String("course", "", "restrict files to one course id")
	withTimes := flags.Bool("times", false, "annotate tree folders with their newest remote date")
	viewFormat := flags.String("format", "", "layout template of a new view, empty for the default")
	viewBase := flags.String("base", "default", "base directory of a new view")
	viewEscape := flags.String("escape", "similar", "escape mode of a new view: similar, typeable, camelcase or snakecase")
	viewCharset := flags.String("charset", "unicode", "charset of a new view: unicode, ascii or identifier")

	_ = flags.Parse(os.Args[1:]) // exits on error

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		fail(err)
	}
	log, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fail(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(2)
	}
	action := flags.Arg(0)
	args := flags.Args()[1:]

	s, err := store.Open(store.FileDSN(cfg.Database), log)
	if err != nil {
		log.Error("failed to open store", zap.String("database", cfg.Database), zap.Error(err))
		fail(err)
	}
	defer s.Close()

	a := &app{cfg: cfg, log: log, store: s}
	ctx := context.Background()

	switch action {
	case "semesters":
		err = a.semesters(ctx)
	case "courses":
		err = a.courses(ctx, *syncFilter)
	case "files":
		err = a.files(ctx, *courseFilter)
	case "detail":
		err = a.detail(ctx, one(args, "detail FILE"))
	case "tree":
		err = a.tree(ctx, one(args, "tree COURSE"), *withTimes)
	case "views":
		err = a.views(ctx)
	case "view-add":
		err = a.viewAdd(ctx, one(args, "view-add NAME"), *viewFormat, *viewBase, *viewEscape, *viewCharset)
	case "view-rm":
		err = a.viewRemove(ctx, one(args, "view-rm VIEW"))
	case "checkout":
		view, file := viewAndFile(args, "checkout [VIEW] FILE")
		err = a.checkout(ctx, view, file)
	case "checkouts":
		view := ""
		if len(args) > 0 {
			view = args[0]
		}
		err = a.checkouts(ctx, view)
	case "render":
		view, file := viewAndFile(args, "render [VIEW] FILE")
		err = a.render(ctx, view, file)
	case "prune":
		err = a.prune(ctx)
	case "seed":
		err = a.seed(ctx)
	default:
		flags.Usage()
		fail(fmt.Errorf("unknown action %q", action))
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	color.Red("hoersaal: %v", err)
	os.Exit(1)
}

// one returns the single required argument or exits with usage help.
func one(args []string, usage string) string {
	if len(args) != 1 {
		fail(fmt.Errorf("usage: hoersaal %s", usage))
	}
	return args[0]
}

// viewAndFile splits [VIEW] FILE argument lists. With one argument the
// view is left empty and resolved to the configured default later.
func viewAndFile(args []string, usage string) (view, file string) {
	switch len(args) {
	case 1:
		return "", args[0]
	case 2:
		return args[0], args[1]
	}
	fail(fmt.Errorf("usage: hoersaal %s", usage))
	return "", ""
}

type app struct {
	cfg   config.Config
	log   *zap.Logger
	store *store.Store
}

func (a *app) semesters(ctx context.Context) error {
	semesters, err := a.store.Semesters(ctx)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Order"})
	for _, s := range semesters {
		table.Append([]string{s.ID, s.Name, strconv.Itoa(s.Order)})
	}
	table.Render()
	return nil
}

func (a *app) courses(ctx context.Context, syncFilter string) error {
	var modes []domain.SyncMode
	if syncFilter != "" {
		mode, err := domain.ParseSyncMode(syncFilter)
		if err != nil {
			return err
		}
		modes = append(modes, mode)
	}
	courses, err := a.store.Courses(ctx, modes...)
	if err != nil {
		return err
	}
	semesters, err := a.store.Semesters(ctx)
	if err != nil {
		return err
	}
	semesterName := make(map[string]string, len(semesters))
	for _, s := range semesters {
		semesterName[s.ID] = s.Name
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Semester", "Number", "Name", "Abbrev", "Type", "Sync"})
	for _, c := range courses {
		table.Append([]string{c.ID, semesterName[c.Semester], c.Number, c.Name, c.EffectiveAbbrev(), c.Type, c.Sync.String()})
	}
	table.Render()
	return nil
}

func (a *app) files(ctx context.Context, courseFilter string) error {
	details, err := a.store.FileDetails(ctx)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Course", "Path", "Name", "Ext", "Version", "Remote Date"})
	for _, d := range details {
		if courseFilter != "" && d.CourseID != courseFilter {
			continue
		}
		table.Append([]string{
			d.ID,
			d.CourseAbbrev,
			tree.SerializePath(d.Path),
			d.Name,
			d.Extension,
			strconv.Itoa(d.Version),
			d.RemoteDate.Format("2006-01-02 15:04"),
		})
	}
	table.Render()
	return nil
}

func (a *app) detail(ctx context.Context, fileID string) error {
	d, err := a.store.FileDetail(ctx, fileID)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("no resolvable detail for file %s: %w", fileID, domain.ErrNotFound)
	}
	local := "-"
	if d.LocalDate != nil {
		local = d.LocalDate.Format("2006-01-02 15:04")
	}
	copyrighted := "no"
	if d.Copyrighted {
		copyrighted = "yes"
	}
	rows := [][2]string{
		{"id", d.ID},
		{"semester", d.Semester},
		{"course", fmt.Sprintf("%s (%s)", d.CourseName, d.CourseID)},
		{"number", d.CourseNumber},
		{"type", d.CourseType},
		{"sync", d.Sync.String()},
		{"path", tree.SerializePath(d.Path)},
		{"name", d.Name},
		{"extension", d.Extension},
		{"author", d.Author},
		{"description", d.Description},
		{"remote date", d.RemoteDate.Format("2006-01-02 15:04")},
		{"local date", local},
		{"version", strconv.Itoa(d.Version)},
		{"copyrighted", copyrighted},
	}
	for _, row := range rows {
		fmt.Printf("%-12s %s\n", row[0], row[1])
	}
	return nil
}

func (a *app) tree(ctx context.Context, courseID string, withTimes bool) error {
	course, err := a.store.Course(ctx, courseID)
	if err != nil {
		return err
	}
	snap, err := a.store.Snapshot(ctx)
	if err != nil {
		return err
	}
	var times map[int64]time.Time
	if withTimes {
		if times, err = tree.MaxTimes(snap); err != nil {
			return err
		}
	}

	children := make(map[int64][]domain.Folder)
	for _, f := range snap.Folders {
		if f.Parent != nil {
			children[*f.Parent] = append(children[*f.Parent], f)
		}
	}
	for _, kids := range children {
		sort.Slice(kids, func(i, j int) bool { return *kids[i].Name < *kids[j].Name })
	}
	filesIn := make(map[int64][]domain.File)
	for _, f := range snap.Files {
		filesIn[f.Folder] = append(filesIn[f.Folder], f)
	}
	for _, files := range filesIn {
		sort.Slice(files, func(i, j int) bool {
			if files[i].Name != files[j].Name {
				return files[i].Name < files[j].Name
			}
			return files[i].ID < files[j].ID
		})
	}

	label := func(name string, folderID int64) string {
		if t, ok := times[folderID]; ok {
			return fmt.Sprintf("%s  (%s)", name, t.Format("2006-01-02"))
		}
		return name
	}

	root := gotree.New(label(course.Name, course.Root))
	seen := map[int64]bool{course.Root: true}
	var add func(node gotree.Tree, folderID int64)
	add = func(node gotree.Tree, folderID int64) {
		for _, child := range children[folderID] {
			if seen[child.ID] { // corrupted parent links must not loop forever
				continue
			}
			seen[child.ID] = true
			add(node.Add(label(*child.Name, child.ID)), child.ID)
		}
		for _, f := range filesIn[folderID] {
			name := f.Name
			if f.Extension != "" {
				name += "." + f.Extension
			}
			node.Add(name)
		}
	}
	add(root, course.Root)
	fmt.Print(root.Print())
	return nil
}

func (a *app) views(ctx context.Context) error {
	views, err := a.store.Views(ctx)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Format", "Base", "Escape", "Charset"})
	for _, v := range views {
		table.Append([]string{
			strconv.FormatInt(v.ID, 10), v.Name, v.Format, v.Base, v.Escape.String(), v.Charset.String(),
		})
	}
	table.Render()
	return nil
}

func (a *app) viewAdd(ctx context.Context, name, format, base, escape, charset string) error {
	escapeMode, err := domain.ParseEscapeMode(escape)
	if err != nil {
		return err
	}
	cs, err := domain.ParseCharset(charset)
	if err != nil {
		return err
	}
	id, err := a.store.CreateView(ctx, domain.View{
		Name:    name,
		Format:  format,
		Base:    base,
		Escape:  escapeMode,
		Charset: cs,
	})
	if err != nil {
		return err
	}
	color.Green("view %q created with id %d", name, id)
	return nil
}

func (a *app) viewRemove(ctx context.Context, arg string) error {
	v, err := a.resolveView(ctx, arg)
	if err != nil {
		return err
	}
	if err := a.store.DeleteView(ctx, v.ID); err != nil {
		return err
	}
	color.Green("view %q removed", v.Name)
	return nil
}

func (a *app) checkout(ctx context.Context, viewArg, fileID string) error {
	v, err := a.resolveView(ctx, viewArg)
	if err != nil {
		return err
	}
	if err := a.store.Checkout(ctx, v.ID, fileID); err != nil {
		return err
	}
	color.Green("file %s checked out in view %q", fileID, v.Name)
	return nil
}

func (a *app) checkouts(ctx context.Context, viewArg string) error {
	v, err := a.resolveView(ctx, viewArg)
	if err != nil {
		return err
	}
	ids, err := a.store.Checkouts(ctx, v.ID)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"File", "Path"})
	for _, id := range ids {
		rendered := "-"
		if d, err := a.store.FileDetail(ctx, id); err != nil {
			return err
		} else if d != nil {
			if rendered, err = render.Path(v, *d); err != nil {
				return err
			}
		}
		table.Append([]string{id, rendered})
	}
	table.Render()
	return nil
}

func (a *app) render(ctx context.Context, viewArg, fileID string) error {
	v, err := a.resolveView(ctx, viewArg)
	if err != nil {
		return err
	}
	d, err := a.store.FileDetail(ctx, fileID)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("no resolvable detail for file %s: %w", fileID, domain.ErrNotFound)
	}
	path, err := render.Path(v, *d)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func (a *app) prune(ctx context.Context) error {
	stats, err := a.store.PruneOrphans(ctx)
	if err != nil {
		return err
	}
	color.Green("pruned %d folders, %d files, %d checkouts", stats.Folders, stats.Files, stats.Checkouts)
	return nil
}

// resolveView accepts a view id or name, or the configured default when
// arg is empty.
func (a *app) resolveView(ctx context.Context, arg string) (domain.View, error) {
	if arg == "" {
		arg = a.cfg.View
	}
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		v, err := a.store.View(ctx, id)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.View{}, err
		}
	}
	views, err := a.store.Views(ctx)
	if err != nil {
		return domain.View{}, err
	}
	for _, v := range views {
		if v.Name == arg {
			return v, nil
		}
	}
	return domain.View{}, fmt.Errorf("view %q: %w", arg, domain.ErrNotFound)
}

// seedID derives a stable 32 character id so reruns hit the same rows.
func seedID(name string) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("hoersaal/"+name))
	return strings.ReplaceAll(id.String(), "-", "")
}

func (a *app) seed(ctx context.Context) error {
	now := time.Now().UTC().Truncate(time.Hour)
	ws := seedID("semester/ws-2025")
	ss := seedID("semester/ss-2026")
	err := a.store.UpsertSemesters(ctx, []domain.Semester{
		{ID: ws, Name: "WS 2025/26", Order: 20252},
		{ID: ss, Name: "SS 2026", Order: 20261},
	})
	if err != nil {
		return err
	}

	courses := []domain.Course{
		{ID: seedID("course/mathe1"), Semester: ws, Number: "10101", Name: "Mathematik 1", Type: "Vorlesung", Sync: domain.SyncFull},
		{ID: seedID("course/neuzeit"), Semester: ws, Number: "20345", Name: "Geschichte der Neuzeit", Type: "Seminar", Sync: domain.SyncManual},
		{ID: seedID("course/algo"), Semester: ss, Number: "10230", Name: "Algorithmen und Datenstrukturen", Type: "Vorlesung", Sync: domain.SyncAutomatic},
	}
	for _, c := range courses {
		if err := a.store.CreateCourse(ctx, c); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				color.Yellow("seed data already present, nothing to do")
				return nil
			}
			return err
		}
	}

	files := []struct {
		id     string
		course string
		path   []string
		name   string
		ext    string
		author string
		age    time.Duration
	}{
		{seedID("file/mathe1/folien01"), courses[0].ID, []string{"Folien"}, "01-einfuehrung", "pdf", "Prof. Weber", 400 * time.Hour},
		{seedID("file/mathe1/blatt01"), courses[0].ID, []string{"Übungen", "Blatt 1"}, "aufgaben", "pdf", "Prof. Weber", 300 * time.Hour},
		{seedID("file/mathe1/blatt01l"), courses[0].ID, []string{"Übungen", "Blatt 1"}, "loesungen", "pdf", "Prof. Weber", 100 * time.Hour},
		{seedID("file/neuzeit/quellen"), courses[1].ID, []string{"Quellen"}, "briefe-1848", "zip", "Dr. Hoffmann", 200 * time.Hour},
		{seedID("file/neuzeit/plan"), courses[1].ID, nil, "seminarplan", "pdf", "Dr. Hoffmann", 500 * time.Hour},
		{seedID("file/algo/folien01"), courses[2].ID, []string{"Folien"}, "01-sortieren", "pdf", "Prof. Díaz", 50 * time.Hour},
	}
	for _, f := range files {
		folder, err := a.store.EnsureFolderPath(ctx, f.course, f.path)
		if err != nil {
			return err
		}
		err = a.store.CreateFile(ctx, domain.File{
			ID:         f.id,
			Folder:     folder,
			Name:       f.name,
			Extension:  f.ext,
			Author:     f.author,
			RemoteDate: now.Add(-f.age),
		})
		if err != nil {
			return err
		}
	}

	_, err = a.store.CreateView(ctx, domain.View{
		Name:    "ascii",
		Format:  "{semester}/{course-abbrev}/{path}/{name}{ext}",
		Base:    "portable",
		Escape:  domain.EscapeTypeable,
		Charset: domain.CharsetASCII,
	})
	if err != nil {
		return err
	}

	color.Green("seeded %d semesters, %d courses, %d files", 2, len(courses), len(files))
	return nil
}
