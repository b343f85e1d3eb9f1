package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/caarlos0/env/v11"

	"github.com/edukit/admin-dashboard/internal/adapters/platformapi"
	"github.com/edukit/admin-dashboard/internal/bootstrap"
	"github.com/edukit/admin-dashboard/internal/data"
	domainauth "github.com/edukit/admin-dashboard/internal/domain/auth"
	"github.com/edukit/admin-dashboard/internal/domain/model"
	"github.com/edukit/admin-dashboard/internal/domain/pagination"
	"github.com/edukit/admin-dashboard/internal/service"
	"github.com/edukit/admin-dashboard/internal/service/listing"
)

type credentials struct {
	Email    string `env:"ADMIN_EMAIL,notEmpty"`
	Password string `env:"ADMIN_PASSWORD,notEmpty"`
}

func loadCredentials(getenv func(string) string) (credentials, error) {
	var creds credentials
	err := env.ParseWithOptions(&creds, env.Options{Environment: map[string]string{
		"ADMIN_EMAIL":    getenv("ADMIN_EMAIL"),
		"ADMIN_PASSWORD": getenv("ADMIN_PASSWORD"),
	}})
	if err != nil {
		return credentials{}, fmt.Errorf("credentials: %w", err)
	}
	return creds, nil
}

// signIn authenticates against the platform and returns a client holding the
// admin's tokens for the rest of the command.
func signIn(cmdCtx *commandContext) (*platformapi.Client, domainauth.Identity, error) {
	creds, err := loadCredentials(cmdCtx.Getenv)
	if err != nil {
		return nil, domainauth.Identity{}, err
	}
	factory, err := bootstrap.NewPlatformFactory(cmdCtx.Config.Platform, nil, cmdCtx.Logger)
	if err != nil {
		return nil, domainauth.Identity{}, err
	}
	id, tokens, err := platformapi.NewAuthenticator(factory).SignIn(cmdCtx.Ctx, domainauth.Credentials{
		Email:    creds.Email,
		Password: creds.Password,
	})
	if err != nil {
		return nil, domainauth.Identity{}, fmt.Errorf("sign in: %w", err)
	}
	sess, err := factory.NewSession(tokens)
	if err != nil {
		return nil, domainauth.Identity{}, err
	}
	return factory.NewClient(sess, platformapi.Hooks{}), id, nil
}

func runSignIn(cmdCtx *commandContext, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: signin takes no arguments", errUsage)
	}
	_, id, err := signIn(cmdCtx)
	if err != nil {
		return err
	}
	name := id.Name
	if name == "" {
		name = "admin"
	}
	writef(cmdCtx.Out, "Signed in as %s <%s>\n", name, id.Email)
	return nil
}

type listOptions struct {
	Entity       model.EntityKind
	Page         int
	Search       string
	Status       string
	Verification string
}

func parseListFlags(args []string) (listOptions, error) {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return listOptions{}, fmt.Errorf("%w: entity is required", errUsage)
	}
	kind, err := model.ParseEntityKind(args[0])
	if err != nil {
		return listOptions{}, err
	}
	opts := listOptions{Entity: kind}
	fs := newFlagSet("list")
	fs.IntVar(&opts.Page, "page", 1, "page number")
	fs.StringVar(&opts.Search, "search", "", "search text")
	fs.StringVar(&opts.Status, "status", "all", "all, active or inactive")
	fs.StringVar(&opts.Verification, "verification", "", "course verification status")
	if err := fs.Parse(args[1:]); err != nil {
		return listOptions{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	return opts, nil
}

func (o listOptions) query(limit int) (model.ListQuery, error) {
	status, err := model.ParseStatusFilter(o.Status)
	if err != nil {
		return model.ListQuery{}, err
	}
	verification, err := model.ParseVerificationStatus(o.Verification)
	if err != nil {
		return model.ListQuery{}, err
	}
	q := model.ListQuery{
		Page:               o.Page,
		Limit:              limit,
		Search:             strings.TrimSpace(o.Search),
		Status:             status,
		VerificationStatus: verification,
	}
	return q, q.Validate()
}

func runList(cmdCtx *commandContext, args []string) error {
	opts, err := parseListFlags(args)
	if err != nil {
		return err
	}
	q, err := opts.query(cmdCtx.Config.Platform.PageSize)
	if err != nil {
		return err
	}
	client, _, err := signIn(cmdCtx)
	if err != nil {
		return err
	}
	rows, totalPages, err := fetchPage(cmdCtx, client, opts.Entity, q)
	if err != nil {
		return err
	}
	return printRows(cmdCtx.Out, rows, q.Page, totalPages)
}

func fetchPage(cmdCtx *commandContext, c *platformapi.Client, kind model.EntityKind, q model.ListQuery) ([]model.Row, int, error) {
	ctx := cmdCtx.Ctx
	switch kind {
	case model.EntityLearners:
		return widen[model.Learner](platformapi.List[model.Learner](ctx, c, kind, q))
	case model.EntityInstructors:
		return widen[model.Instructor](platformapi.List[model.Instructor](ctx, c, kind, q))
	case model.EntityBusinesses:
		return widen[model.Business](platformapi.List[model.Business](ctx, c, kind, q))
	case model.EntityCategories:
		return widen[model.Category](platformapi.List[model.Category](ctx, c, kind, q))
	case model.EntityCoupons:
		return widen[model.Coupon](platformapi.List[model.Coupon](ctx, c, kind, q))
	case model.EntityCourses:
		return widen[model.Course](platformapi.List[model.Course](ctx, c, kind, q))
	default:
		return nil, 0, fmt.Errorf("unknown entity %q", kind)
	}
}

func widen[R model.Row](res model.ListResult[R], err error) ([]model.Row, int, error) {
	if err != nil {
		return nil, 0, err
	}
	rows := make([]model.Row, len(res.Rows))
	for i, r := range res.Rows {
		rows[i] = r
	}
	return rows, res.TotalPages, nil
}

func rowStatus(row model.Row) string {
	switch r := row.(type) {
	case model.Course:
		return r.VerificationStatus.Label()
	case model.Activatable:
		if r.Active() {
			return "active"
		}
		return "inactive"
	default:
		return ""
	}
}

func printRows(w io.Writer, rows []model.Row, page, totalPages int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writef(tw, "ID\tNAME\tSTATUS\n")
	for _, row := range rows {
		writef(tw, "%s\t%s\t%s\n", row.RowID(), model.Label(row), rowStatus(row))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(rows) == 0 {
		writef(w, "(no rows)\n")
	}
	writef(w, "page %d of %d\n", page, totalPages)
	return nil
}

// screen is one fetched page of rows. Mutations find their row on it and patch
// it, the same way they do on a console list.
type screen struct {
	kind model.EntityKind
	rows []model.Row
}

func (s *screen) Entity() model.EntityKind { return s.kind }

func (s *screen) RowByID(id string) (model.Row, bool) {
	for _, r := range s.rows {
		if r.RowID() == id {
			return r, true
		}
	}
	return nil, false
}

func (s *screen) PatchRow(id string, update func(model.Row) model.Row) bool {
	for i, r := range s.rows {
		if r.RowID() == id {
			s.rows[i] = update(r)
			return true
		}
	}
	return false
}

// openRecorder is replaced in tests.
var openRecorder = openAuditRecorder

// openAuditRecorder connects the audit database so CLI mutations land in the
// same trail as console ones.
func openAuditRecorder(cmdCtx *commandContext) (listing.Recorder, func(), error) {
	db, err := bootstrap.ConnectDB(cmdCtx.Ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("audit database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			cmdCtx.Logger.WarnContext(cmdCtx.Ctx, "close audit database", "error", err)
		}
	}
	svc, err := service.NewAuditService(service.AuditServiceOptions{
		Repo:   data.NewAuditRepo(db),
		Config: cmdCtx.Config.Audit,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return svc, closeDB, nil
}

// mutationTarget holds what toggle and verify need once signed in.
type mutationTarget struct {
	mutator *listing.Mutator
	screen  *screen
	close   func()
}

// prepareMutation opens the audit trail, signs in and loads the page the row
// is expected on. Nothing is changed if any step fails.
func prepareMutation(cmdCtx *commandContext, kind model.EntityKind, id string, loc locator) (*mutationTarget, error) {
	q := model.ListQuery{
		Page:   loc.page,
		Limit:  cmdCtx.Config.Platform.PageSize,
		Search: strings.TrimSpace(loc.search),
		Status: model.StatusAll,
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	recorder, closeRecorder, err := openRecorder(cmdCtx)
	if err != nil {
		return nil, err
	}
	client, ident, err := signIn(cmdCtx)
	if err != nil {
		closeRecorder()
		return nil, err
	}
	rows, _, err := fetchPage(cmdCtx, client, kind, q)
	if err != nil {
		closeRecorder()
		return nil, err
	}
	scr := &screen{kind: kind, rows: rows}
	if _, ok := scr.RowByID(id); !ok {
		closeRecorder()
		return nil, fmt.Errorf("%s %s is not on page %d; pass -page or -search to find it", kind.Singular(), id, loc.page)
	}

	m, err := listing.NewMutator(listing.MutatorOptions{
		Gateway:  client,
		Recorder: recorder,
		Actor:    listing.Actor{AdminID: ident.AdminID, Email: ident.Email},
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		closeRecorder()
		return nil, err
	}
	return &mutationTarget{mutator: m, screen: scr, close: closeRecorder}, nil
}

// locator finds the page a row is on, like the list screen the admin
// would otherwise act from.
type locator struct {
	page   int
	search string
}

func (l *locator) register(fs *flag.FlagSet) {
	fs.IntVar(&l.page, "page", 1, "page the row is on")
	fs.StringVar(&l.search, "search", "", "search text narrowing the page")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runToggle(cmdCtx *commandContext, args []string) error {
	if len(args) < 2 || strings.HasPrefix(args[1], "-") {
		return fmt.Errorf("%w: entity and id are required", errUsage)
	}
	kind, err := model.ParseEntityKind(args[0])
	if err != nil {
		return err
	}
	if !kind.Toggleable() {
		return fmt.Errorf("%s do not have an active status", kind)
	}
	id := args[1]
	var loc locator
	fs := newFlagSet("toggle")
	loc.register(fs)
	if err := fs.Parse(args[2:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	target, err := prepareMutation(cmdCtx, kind, id, loc)
	if err != nil {
		return err
	}
	defer target.close()

	row, err := target.mutator.Toggle(cmdCtx.Ctx, target.screen, id, "")
	if err != nil {
		return err
	}
	active := false
	if act, ok := row.(model.Activatable); ok {
		active = act.Active()
	}
	writef(cmdCtx.Out, "Toggled %s %s, now %s\n", kind.Singular(), id, model.AccountState(active))
	return nil
}

type verifyOptions struct {
	Change model.VerificationChange
	Where  locator
}

func parseVerifyArgs(args []string) (verifyOptions, error) {
	if len(args) < 2 {
		return verifyOptions{}, fmt.Errorf("%w: course id and status are required", errUsage)
	}
	status, err := model.ParseVerificationStatus(args[1])
	if err != nil {
		return verifyOptions{}, err
	}
	if status == model.VerificationNone {
		return verifyOptions{}, fmt.Errorf("%w: status is required", errUsage)
	}
	var loc locator
	fs := newFlagSet("verify")
	loc.register(fs)
	remarks := fs.String("remarks", "", "reason shown to the instructor")
	if err := fs.Parse(args[2:]); err != nil {
		return verifyOptions{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	change := model.VerificationChange{CourseID: args[0], Status: status, Remarks: *remarks}
	if err := change.Validate(); err != nil {
		return verifyOptions{}, err
	}
	return verifyOptions{Change: change, Where: loc}, nil
}

func runVerify(cmdCtx *commandContext, args []string) error {
	opts, err := parseVerifyArgs(args)
	if err != nil {
		return err
	}
	change := opts.Change

	target, err := prepareMutation(cmdCtx, model.EntityCourses, change.CourseID, opts.Where)
	if err != nil {
		return err
	}
	defer target.close()

	if _, err := target.mutator.Transition(cmdCtx.Ctx, target.screen, listing.TransitionRequest{
		ID:      change.CourseID,
		To:      change.Status,
		Remarks: change.Remarks,
	}); err != nil {
		return err
	}
	writef(cmdCtx.Out, "Course %s is now %s\n", change.CourseID, change.Status.Label())
	return nil
}

func runPages(cmdCtx *commandContext, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: current and total are required", errUsage)
	}
	current, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: current page: %v", errUsage, err)
	}
	total, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: total pages: %v", errUsage, err)
	}
	fs := newFlagSet("pages")
	siblings := fs.Int("siblings", pagination.DefaultSiblings, "pages shown on each side of the current page")
	if err := fs.Parse(args[2:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	if !pagination.ShouldRender(total) {
		writef(cmdCtx.Out, "(single page)\n")
		return nil
	}
	tokens := pagination.Range(current, total, *siblings)
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
		if t.Page == current {
			parts[i] = "[" + parts[i] + "]"
		}
	}
	writef(cmdCtx.Out, "%s\n", strings.Join(parts, " "))
	return nil
}
