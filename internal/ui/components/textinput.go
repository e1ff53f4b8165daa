package components

import (
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/mockt/mockt/internal/ui/theme"
)

// TextInput is a single-line form field. A field rejected by Check shows
// an error mark until it is edited again.
type TextInput struct {
	Model   textinput.Model
	digits  bool
	invalid bool
}

// NewTextInput returns an unfocused field holding at most limit runes.
// With digits set, only 0-9 can be typed.
func NewTextInput(placeholder string, digits bool, limit int) TextInput {
	m := textinput.New()
	m.Placeholder = placeholder
	m.CharLimit = limit
	return TextInput{Model: m, digits: digits}
}

// NewPasswordInput returns a field that masks its value.
func NewPasswordInput(placeholder string) TextInput {
	t := NewTextInput(placeholder, false, 128)
	t.Model.EchoMode = textinput.EchoPassword
	t.Model.EchoCharacter = '•'
	return t
}

func (t *TextInput) Focus() tea.Cmd { return t.Model.Focus() }
func (t *TextInput) Blur()          { t.Model.Blur() }
func (t TextInput) Focused() bool   { return t.Model.Focused() }

func (t TextInput) Value() string       { return t.Model.Value() }
func (t *TextInput) SetValue(v string) { t.Model.SetValue(v) }

// NumericValue parses the value as a base-10 integer.
func (t TextInput) NumericValue() (int, error) {
	return strconv.Atoi(strings.TrimSpace(t.Model.Value()))
}

// Check marks the field as valid or not.
func (t *TextInput) Check(valid bool) { t.invalid = !valid }

// Invalid reports whether the last Check failed and nothing was typed since.
func (t TextInput) Invalid() bool { return t.invalid }

func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.digits && !digitsOnly(msg) {
		return t, nil
	}
	t.invalid = false
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// digitsOnly reports whether msg inserts nothing but digits. Messages that
// insert no text, such as cursor keys, pass.
func digitsOnly(msg tea.Msg) bool {
	var text string
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		text = msg.Text
	case tea.PasteMsg:
		text = msg.Content
	}
	return strings.IndexFunc(text, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

func (t TextInput) View() string {
	if t.Invalid() {
		return t.Model.View() + " " + lipgloss.NewStyle().Foreground(theme.Error).Render("✗")
	}
	return t.Model.View()
}
