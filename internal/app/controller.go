// Package app owns the application state and sequences the gated
// initialization flow: session restore, consent reconciliation, then survey
// scheduling and panel loading. Control returns to the presentation surface
// only after the consent gate passes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	consentmodels "solace/internal/consent/models"
	consentsvc "solace/internal/consent/service"
	"solace/internal/endpoint"
	"solace/internal/insights"
	"solace/internal/platform/metrics"
	"solace/internal/platform/tracer"
	"solace/internal/remote"
	"solace/internal/session"
	"solace/internal/survey"
	dErrors "solace/pkg/domain-errors"
)

// Backend is the subset of the remote client the controller calls directly.
type Backend interface {
	Login(ctx context.Context, username, password string) (*remote.Auth, error)
	Register(ctx context.Context, username, password string) (*remote.Auth, error)
	SendChat(ctx context.Context, token, userID, userType, message string) (*remote.ChatReply, error)
	Probe(ctx context.Context, base string, timeout time.Duration) remote.ProbeResult
}

// Controller drives the session and consent lifecycle. All state transitions
// happen here; the surface only renders what it is told.
type Controller struct {
	sessions  *session.Store
	consent   *consentsvc.Service
	scheduler *survey.Scheduler
	submitter *survey.Submitter
	loader    *insights.Loader
	backend   Backend
	resolver  *endpoint.Resolver
	surface   Surface
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time

	mu    sync.Mutex
	state AppState

	bg sync.WaitGroup
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger sets the logger instance.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics instance.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithTracer sets the tracer.
func WithTracer(t tracer.Tracer) Option {
	return func(c *Controller) {
		c.tracer = t
	}
}

// WithSleep replaces the delay function used for survey prompt scheduling
// (for tests).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithClock replaces the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Deps bundles the collaborators the controller sequences.
type Deps struct {
	Sessions  *session.Store
	Consent   *consentsvc.Service
	Scheduler *survey.Scheduler
	Submitter *survey.Submitter
	Loader    *insights.Loader
	Backend   Backend
	Resolver  *endpoint.Resolver
	Surface   Surface
	Endpoints endpoint.Endpoints
}

// NewController wires the controller from its collaborators.
func NewController(deps Deps, opts ...Option) *Controller {
	c := &Controller{
		sessions:  deps.Sessions,
		consent:   deps.Consent,
		scheduler: deps.Scheduler,
		submitter: deps.Submitter,
		loader:    deps.Loader,
		backend:   deps.Backend,
		resolver:  deps.Resolver,
		surface:   deps.Surface,
		state:     newAppState(deps.Endpoints),
		now:       time.Now,
	}
	c.sleep = func(ctx context.Context, d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = tracer.NewNoop()
	}
	return c
}

// State returns a snapshot of the application state.
func (c *Controller) State() AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until background work (deferred survey prompts, best-effort
// consent notifications) settles. Called on shutdown and by tests.
func (c *Controller) Wait() {
	c.bg.Wait()
	c.consent.Wait()
}

// Start restores the session mirror and, when a session exists, runs the
// consent-gated initialization sequence. Restoration always completes
// before any network activity begins.
func (c *Controller) Start(ctx context.Context) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanSessionRestore)
	sess := c.sessions.Restore(ctx)
	span.End(nil)

	if sess == nil {
		c.setAuth(StateAnonymous)
		c.surface.ShowAuthView()
		return
	}
	c.logger.InfoContext(ctx, "session restored", "user_id", sess.UserID)
	c.enterAuthenticated(ctx, *sess)
}

// Submit runs one login or register attempt. Validation failures are
// terminal client-side rejections that never reach the network.
func (c *Controller) Submit(ctx context.Context, mode Mode, username, password, confirm string) error {
	username = strings.TrimSpace(username)
	if field, msg := validateCredentials(mode, username, password, confirm); msg != "" {
		c.surface.ShowAuthError(field, msg)
		return dErrors.New(dErrors.CodeValidation, msg)
	}

	c.setAuth(StateAuthenticating)
	ctx, span := c.tracer.Start(ctx, tracer.SpanAuthSubmit, tracer.String(tracer.AttrMode, string(mode)))

	var (
		auth *remote.Auth
		err  error
	)
	if mode == ModeRegister {
		auth, err = c.backend.Register(ctx, username, password)
	} else {
		auth, err = c.backend.Login(ctx, username, password)
	}
	span.End(err)
	c.countLogin(mode, err)

	if err != nil {
		c.setAuth(StateAnonymous)
		c.surface.ShowAuthError(FieldGeneral, c.authFailureMessage(err))
		return err
	}

	sess := session.Session{UserID: auth.UserID, UserName: auth.UserName, Token: auth.Token}
	if err := c.sessions.Establish(ctx, sess); err != nil {
		c.setAuth(StateAnonymous)
		c.surface.ShowAuthError(FieldGeneral, "could not save your session; please try again")
		return err
	}

	c.enterAuthenticated(ctx, sess)
	return nil
}

// Logout asks for confirmation, clears the session, and resets the UI mode
// toggles. Idempotent from the anonymous state.
func (c *Controller) Logout(ctx context.Context) {
	if !c.surface.Confirm("Sign out?") {
		return
	}
	if err := c.sessions.Clear(ctx); err != nil {
		c.logger.WarnContext(ctx, "session clear failed", "error", err)
	}
	c.mu.Lock()
	c.state.Auth = StateAnonymous
	c.state.Mode = ModeLogin
	c.state.UserType = UserTypePartner
	c.mu.Unlock()
	c.surface.ShowAuthView()
}

// ToggleMode flips between login and register.
func (c *Controller) ToggleMode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode == ModeLogin {
		c.state.Mode = ModeRegister
	} else {
		c.state.Mode = ModeLogin
	}
	return c.state.Mode
}

// SetUserType selects the companion persona used for chat.
func (c *Controller) SetUserType(t UserType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.UserType = t
}

// enterAuthenticated shows the authenticated view and runs the consent
// gate. A closed gate disables the application synchronously, before any
// further network call is issued.
func (c *Controller) enterAuthenticated(ctx context.Context, sess session.Session) {
	c.setAuth(StateAuthenticated)
	c.surface.ShowAppView(sess.UserName)

	gate := c.consent.Reconcile(ctx, sess.UserID)
	if !gate.Open {
		c.setAuth(StateConsentPending)
		c.surface.DisableApp()
		c.surface.OpenConsentModal()
		return
	}
	c.surface.EnableApp()
	c.completeInit(ctx, sess)
}

// AcceptConsent records the grant, re-enables the application, and runs the
// remaining initialization sequence. The backend notification happens
// asynchronously and never blocks or reverses the decision.
func (c *Controller) AcceptConsent(ctx context.Context) {
	sess := c.sessions.Current()
	if sess == nil {
		c.logger.WarnContext(ctx, "consent accepted with no active session")
		return
	}
	c.consent.Accept(ctx, sess.UserID)
	c.surface.CloseConsentModal()
	c.surface.EnableApp()
	c.completeInit(ctx, *sess)
}

// DeclineConsent records the refusal and tears the application down. The
// local effect is immediate and independent of the notification outcome.
func (c *Controller) DeclineConsent(ctx context.Context) {
	sess := c.sessions.Current()
	if sess == nil {
		c.logger.WarnContext(ctx, "consent declined with no active session")
		return
	}
	c.consent.Decline(ctx, sess.UserID)
	c.setAuth(StateTerminated)
	c.surface.Teardown("You have declined data collection. The application will now close to honor your choice.")
}

// completeInit runs the post-gate sequence: survey scheduling check, then
// statistics and history loads.
func (c *Controller) completeInit(ctx context.Context, sess session.Session) {
	c.setAuth(StateReady)

	if due, delay := c.scheduler.ShouldPrompt(ctx, sess.UserID); due {
		c.promptSurveyAfter(ctx, sess.UserID, delay)
	}

	summary := c.loader.Load(ctx, sess)
	c.applySummary(ctx, sess.UserID, summary)
	c.surface.SetStatus("ready")
}

// promptSurveyAfter opens the survey modal after the scheduler's delay,
// unless the session changed underneath it.
func (c *Controller) promptSurveyAfter(ctx context.Context, userID string, delay time.Duration) {
	bgCtx := context.WithoutCancel(ctx)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		if err := c.sleep(bgCtx, delay); err != nil {
			return
		}
		current := c.sessions.Current()
		if current == nil || current.UserID != userID || c.State().Auth != StateReady {
			return
		}
		c.surface.OpenSurveyModal(survey.Questions)
	}()
}

// SubmitSurvey validates and submits the responses, updating the schedule
// state only after the backend confirmed the submission.
func (c *Controller) SubmitSurvey(ctx context.Context, responses []survey.Response) error {
	sess := c.sessions.Current()
	err := c.submitter.Submit(ctx, sess, responses)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			c.surface.Notify(err.Error())
			return err
		}
		c.surface.Notify(c.submitFailureMessage(err))
		return err
	}
	if err := c.scheduler.MarkSubmitted(ctx, c.now()); err != nil {
		c.logger.WarnContext(ctx, "failed to record survey submission time", "error", err)
	}
	c.surface.CloseSurveyModal()
	c.surface.AppendMessage(StyleBot,
		"Thank you for completing the survey. Your feedback helps us understand how you are doing.")
	return nil
}

// DismissSurvey closes the prompt without submitting; schedule state is
// untouched so the prompt will return.
func (c *Controller) DismissSurvey() {
	c.surface.CloseSurveyModal()
}

// SendMessage relays one chat message and forwards the reply to the
// surface. Requires the ready state.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	state := c.State()
	if state.Auth != StateReady {
		return dErrors.New(dErrors.CodeValidation, "the application is not ready for chat")
	}
	sess := c.sessions.Current()
	if sess == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}

	c.surface.AppendMessage(StyleUser, text)

	ctx, span := c.tracer.Start(ctx, tracer.SpanChatSend,
		tracer.String(tracer.AttrUserID, tracer.HashUserID(sess.UserID)))
	reply, err := c.backend.SendChat(ctx, sess.Token, sess.UserID, string(state.UserType), text)
	span.End(err)

	// A logout during the round trip supersedes this reply.
	current := c.sessions.Current()
	if current == nil || current.UserID != sess.UserID {
		return nil
	}

	if err != nil {
		c.countChat("failure")
		c.surface.AppendMessage(StyleBot, c.chatFailureMessage(err))
		return err
	}
	if reply.Response == "" {
		c.countChat("failure")
		c.surface.AppendMessage(StyleBot, "Sorry, something went wrong. Please try again shortly.")
		return nil
	}

	style := StyleBot
	if reply.AlertFlag == remote.AlertCrisis {
		style = StyleCrisis
	}
	c.surface.AppendMessage(style, reply.Response)
	c.applyReplyPanels(reply)
	c.countChat("success")

	c.mu.Lock()
	c.state.ConversationCount++
	c.mu.Unlock()

	summary := c.loader.Load(ctx, *sess)
	c.applySummary(ctx, sess.UserID, summary)
	return nil
}

// OverrideEndpoint persists a new backend override. The resolved endpoint
// set is immutable for the rest of the run; the change applies on restart.
func (c *Controller) OverrideEndpoint(ctx context.Context, url string) error {
	eps, err := c.resolver.Override(ctx, url)
	if err != nil {
		c.surface.Notify("could not save the backend override: " + err.Error())
		return err
	}
	c.surface.Notify(fmt.Sprintf("Backend set to %s. Restart the client to apply it.", eps.Base))
	return nil
}

// TestConnection probes a candidate backend and reports what it found.
func (c *Controller) TestConnection(ctx context.Context, base string, timeout time.Duration) remote.ProbeResult {
	result := c.backend.Probe(ctx, base, timeout)
	switch result.State {
	case remote.ProbeReachable:
		c.surface.Notify("Connection OK: the backend answered.")
	case remote.ProbeDegraded:
		c.surface.Notify(fmt.Sprintf("The backend is temporarily unavailable (status %d).", result.Status))
	default:
		c.surface.Notify("Could not connect to that address.")
	}
	return result
}

// CachedConsent exposes the per-user cached decision, mainly for the
// surface's settings view.
func (c *Controller) CachedConsent(ctx context.Context, userID string) consentmodels.Decision {
	return c.consent.CachedDecision(ctx, userID)
}

func (c *Controller) setAuth(state AuthState) {
	c.mu.Lock()
	c.state.Auth = state
	c.mu.Unlock()
}

func (c *Controller) applySummary(ctx context.Context, userID string, summary *insights.Summary) {
	current := c.sessions.Current()
	if current == nil || current.UserID != userID {
		return
	}
	if summary.Stats != nil {
		c.surface.UpdateStatsPanel(summary.Stats.TotalInteractions, summary.Stability)
	}
}

func (c *Controller) applyReplyPanels(reply *remote.ChatReply) {
	if mood, ok := reply.MoodValue(); ok {
		trend := "recovering"
		if mood > 50 {
			trend = "needs companionship"
		}
		c.surface.UpdateMoodPanel(mood, trend)
	}
	if reply.StageInfo != "" {
		c.surface.UpdateStagePanel(reply.StageInfo, stageDescription(reply.StageInfo))
	}
	c.surface.SetStatus("in conversation")
}

func (c *Controller) authFailureMessage(err error) string {
	if dErrors.HasCode(err, dErrors.CodeTransport) {
		return fmt.Sprintf("Could not reach the backend. Check that it is running at:\n%s",
			dErrors.EndpointOf(err))
	}
	return err.Error()
}

func (c *Controller) chatFailureMessage(err error) string {
	return fmt.Sprintf("Connection failed.\nPossible causes:\n1. The backend service is not running\n2. Backend address: %s",
		c.State().Endpoints.Chat)
}

func (c *Controller) submitFailureMessage(err error) string {
	if dErrors.HasCode(err, dErrors.CodeTransport) {
		return fmt.Sprintf("Could not submit the survey: the backend was unreachable.\n"+
			"Make sure the backend service is started (for a local run: python run_app.py),\n"+
			"check your network connection, and verify the backend address:\n%s",
			dErrors.EndpointOf(err))
	}
	return fmt.Sprintf("Survey submission failed (%v).\nThe service may be offline or restarting; please try again later.", err)
}

func (c *Controller) countLogin(mode Mode, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.metrics.LoginsTotal.WithLabelValues(string(mode), outcome).Inc()
}

func (c *Controller) countChat(outcome string) {
	if c.metrics != nil {
		c.metrics.ChatMessagesTotal.WithLabelValues(outcome).Inc()
	}
}

func validateCredentials(mode Mode, username, password, confirm string) (AuthField, string) {
	if utf8.RuneCountInString(username) < 3 {
		return FieldUsername, "username must be at least 3 characters"
	}
	if utf8.RuneCountInString(password) < 6 {
		return FieldPassword, "password must be at least 6 characters"
	}
	if mode == ModeRegister && password != confirm {
		return FieldConfirm, "passwords do not match"
	}
	return "", ""
}

var stageDescriptions = map[string]string{
	"Denial":     "Still adjusting; it takes time",
	"Anger":      "Emotions finding their release",
	"Bargaining": "Trying to change what happened",
	"Depression": "A period of deep sadness",
	"Acceptance": "Beginning a new chapter",
}

func stageDescription(stage string) string {
	if desc, ok := stageDescriptions[stage]; ok {
		return desc
	}
	return "Unknown stage"
}
