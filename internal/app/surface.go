package app

import "solace/internal/survey"

// MessageStyle selects how the presentation surface renders a message.
type MessageStyle string

const (
	StyleUser   MessageStyle = "user"
	StyleBot    MessageStyle = "bot"
	StyleCrisis MessageStyle = "crisis"
)

// AuthField names the auth form field an error belongs to.
type AuthField string

const (
	FieldUsername AuthField = "username"
	FieldPassword AuthField = "password"
	FieldConfirm  AuthField = "confirm"
	FieldGeneral  AuthField = "general"
)

// Surface is the presentation contract. The controller only calls these as
// opaque effects; rendering, styling, and input wiring live entirely on the
// other side.
type Surface interface {
	// ShowAuthView presents the login/register view.
	ShowAuthView()
	// ShowAppView presents the authenticated view for the named user.
	ShowAppView(userName string)
	// ShowAuthError attaches an error message to an auth form field.
	ShowAuthError(field AuthField, message string)

	// OpenConsentModal presents the blocking informed-consent prompt.
	OpenConsentModal()
	CloseConsentModal()
	// DisableApp blocks interaction with everything behind the consent
	// prompt, visually and functionally.
	DisableApp()
	EnableApp()

	OpenSurveyModal(questions []survey.Question)
	CloseSurveyModal()

	AppendMessage(style MessageStyle, text string)
	UpdateMoodPanel(moodValue float64, trend string)
	UpdateStagePanel(stage, description string)
	UpdateStatsPanel(totalInteractions int, stability float64)
	SetStatus(status string)

	// Confirm asks the user a yes/no question and blocks for the answer.
	Confirm(prompt string) bool
	// Notify shows a transient informational or error message.
	Notify(message string)
	// Teardown makes the application unusable for the rest of the process
	// lifetime, showing the given farewell.
	Teardown(message string)
}
