package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockt/mockt/internal/screen"
)

type fakeScreen struct {
	name   string
	inits  int
	closed int
	got    []tea.Msg
}

func (f *fakeScreen) Init() tea.Cmd { f.inits++; return nil }
func (f *fakeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	f.got = append(f.got, msg)
	return f, nil
}
func (f *fakeScreen) View(int, int) string { return f.name }
func (f *fakeScreen) Title() string        { return f.name }
func (f *fakeScreen) Close()               { f.closed++ }

func TestPushAndPop(t *testing.T) {
	home := &fakeScreen{name: "home"}
	form := &fakeScreen{name: "form"}
	r := New(home)

	r.Update(PushScreenMsg{Screen: form})
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "form", r.View(80, 24))
	assert.Equal(t, 1, form.inits)

	cmd := r.Update(PopScreenMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, screen.ResumedMsg{}, cmd())
	assert.Same(t, screen.Screen(home), r.Active())
	assert.Equal(t, 1, form.closed)
	assert.Zero(t, home.closed)
}

func TestPopKeepsRoot(t *testing.T) {
	home := &fakeScreen{name: "home"}
	r := New(home)

	assert.Nil(t, r.Pop())
	assert.Equal(t, 1, r.Depth())
	assert.Zero(t, home.closed)
}

func TestReplace(t *testing.T) {
	home := &fakeScreen{name: "home"}
	form := &fakeScreen{name: "setup"}
	interview := &fakeScreen{name: "interview"}
	r := New(home)
	r.Push(form)

	r.Update(ReplaceScreenMsg{Screen: interview})
	assert.Equal(t, 2, r.Depth())
	assert.Equal(t, "interview", r.Active().Title())
	assert.Equal(t, 1, interview.inits)
	assert.Equal(t, 1, form.closed)

	r.Pop()
	assert.Equal(t, "home", r.Active().Title())
}

func TestUpdateReachesOnlyActive(t *testing.T) {
	home := &fakeScreen{name: "home"}
	top := &fakeScreen{name: "top"}
	r := New(home)
	r.Push(top)

	r.Update("hello")
	assert.Equal(t, []tea.Msg{"hello"}, top.got)
	assert.Empty(t, home.got)
}

func TestCloseEmptiesStack(t *testing.T) {
	home := &fakeScreen{name: "home"}
	top := &fakeScreen{name: "interview"}
	r := New(home)
	r.Push(top)

	r.Close()
	r.Close()
	assert.Equal(t, 1, home.closed)
	assert.Equal(t, 1, top.closed)
	assert.Nil(t, r.Active())
	assert.Empty(t, r.View(80, 24))
	assert.Nil(t, r.Update("late"))
}

func TestCommands(t *testing.T) {
	s := &fakeScreen{name: "x"}
	assert.Equal(t, PushScreenMsg{Screen: s}, Open(s)())
	assert.Equal(t, PopScreenMsg{}, Back()())
	assert.Equal(t, ReplaceScreenMsg{Screen: s}, Swap(s)())
}
