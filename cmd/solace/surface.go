package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"solace/internal/app"
	"solace/internal/survey"
)

// terminalSurface renders the presentation contract on a line-based
// terminal. It is deliberately dumb: every decision comes from the
// controller.
type terminalSurface struct {
	in  *bufio.Reader
	out io.Writer

	surveyOpen  atomic.Bool
	consentOpen atomic.Bool
	tornDown    atomic.Bool
}

func newTerminalSurface(in io.Reader, out io.Writer) *terminalSurface {
	return &terminalSurface{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (t *terminalSurface) printf(format string, args ...any) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

func (t *terminalSurface) ShowAuthView() {
	t.printf("— Sign in —")
	t.printf("Use /login <username> <password> or /register <username> <password> <confirm>.")
}

func (t *terminalSurface) ShowAppView(userName string) {
	t.printf("Welcome back, %s.", userName)
}

func (t *terminalSurface) ShowAuthError(field app.AuthField, message string) {
	t.printf("[%s] %s", field, message)
}

func (t *terminalSurface) OpenConsentModal() {
	t.consentOpen.Store(true)
	t.printf("— Informed consent —")
	t.printf("Solace records your conversations and periodic survey answers to support your wellbeing.")
	t.printf("You must decide before continuing: /accept to consent, /decline to refuse.")
}

func (t *terminalSurface) CloseConsentModal() {
	t.consentOpen.Store(false)
}

func (t *terminalSurface) DisableApp() {
	t.printf("(the application is locked until you decide)")
}

func (t *terminalSurface) EnableApp() {}

func (t *terminalSurface) OpenSurveyModal(questions []survey.Question) {
	t.surveyOpen.Store(true)
	t.printf("— Wellbeing check-in —")
	t.printf("A short %d-question survey is due. Run /survey to answer it, or /dismiss to skip for now.", len(questions))
}

func (t *terminalSurface) CloseSurveyModal() {
	t.surveyOpen.Store(false)
}

func (t *terminalSurface) AppendMessage(style app.MessageStyle, text string) {
	switch style {
	case app.StyleUser:
		t.printf("you> %s", text)
	case app.StyleCrisis:
		t.printf("solace!> %s", text)
		t.printf("solace!> If you are in immediate danger, please contact your local crisis line.")
	default:
		t.printf("solace> %s", text)
	}
}

func (t *terminalSurface) UpdateMoodPanel(moodValue float64, trend string) {
	t.printf("[mood %d%% · %s]", int(moodValue+0.5), trend)
}

func (t *terminalSurface) UpdateStagePanel(stage, description string) {
	t.printf("[stage: %s — %s]", stage, description)
}

func (t *terminalSurface) UpdateStatsPanel(totalInteractions int, stability float64) {
	t.printf("[%d interactions · stability %.1f%%]", totalInteractions, stability)
}

func (t *terminalSurface) SetStatus(status string) {
	t.printf("[status: %s]", status)
}

func (t *terminalSurface) Confirm(prompt string) bool {
	fmt.Fprintf(t.out, "%s [y/N] ", prompt)
	line, err := t.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (t *terminalSurface) Notify(message string) {
	t.printf("%s", message)
}

func (t *terminalSurface) Teardown(message string) {
	t.tornDown.Store(true)
	t.printf("%s", message)
}

// askOption prompts for one survey answer and returns the chosen option
// index, or -1 on unparsable input.
func (t *terminalSurface) askOption(q survey.Question) int {
	t.printf("%d. %s", q.ID, q.Text)
	for i, opt := range q.Options {
		t.printf("   %d) %s", i+1, opt)
	}
	fmt.Fprint(t.out, "> ")
	line, err := t.in.ReadString('\n')
	if err != nil {
		return -1
	}
	var choice int
	if _, err := fmt.Sscanf(strings.TrimSpace(line), "%d", &choice); err != nil {
		return -1
	}
	return choice - 1
}

var _ app.Surface = (*terminalSurface)(nil)
