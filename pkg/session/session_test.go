package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mainPy = "/home/python/app/main.py"
	reqs   = "/home/python/app/requirements.txt"
	utils  = "/home/python/app/utils"
	config = "/home/python/app/utils/config.json"
)

func TestOpen(t *testing.T) {
	s := New().Open(mainPy).Open(reqs)
	assert.Equal(t, []string{mainPy, reqs}, s.OpenPaths())
	assert.Equal(t, reqs, s.ActivePath())

	again := s.Open(mainPy)
	assert.Equal(t, []string{mainPy, reqs}, again.OpenPaths(), "reopening keeps tab order")
	assert.Equal(t, mainPy, again.ActivePath())
	assert.Equal(t, reqs, s.ActivePath(), "receiver unchanged")
}

func TestClose(t *testing.T) {
	t.Run("OnlyTab", func(t *testing.T) {
		s := New().Open(mainPy).Close(mainPy)
		assert.Empty(t, s.OpenPaths())
		assert.Equal(t, "", s.ActivePath())
	})

	t.Run("ActivePromotesLastTab", func(t *testing.T) {
		s := New().Open(mainPy).Open(reqs).Open(config).Focus(mainPy)
		s = s.Close(mainPy)
		assert.Equal(t, []string{reqs, config}, s.OpenPaths())
		assert.Equal(t, config, s.ActivePath())
	})

	t.Run("ActiveInMiddleUsesLastPosition", func(t *testing.T) {
		s := New().Open(mainPy).Open(reqs).Open(config).Focus(reqs)
		s = s.Close(reqs)
		assert.Equal(t, config, s.ActivePath())
	})

	t.Run("InactiveKeepsActive", func(t *testing.T) {
		s := New().Open(mainPy).Open(reqs).Close(mainPy)
		assert.Equal(t, reqs, s.ActivePath())
	})

	t.Run("NotOpenIsNoop", func(t *testing.T) {
		s := New().Open(mainPy)
		assert.Equal(t, s.UI(), s.Close(reqs).UI())
	})

	t.Run("DoesNotAliasReceiver", func(t *testing.T) {
		s := New().Open(mainPy).Open(reqs).Open(config)
		_ = s.Close(mainPy)
		assert.Equal(t, []string{mainPy, reqs, config}, s.OpenPaths())
	})
}

func TestToggleSelect(t *testing.T) {
	s := New().ToggleSelect(mainPy, false)
	assert.Equal(t, []string{mainPy}, s.Selected())

	s = s.ToggleSelect(reqs, true)
	assert.Equal(t, []string{mainPy, reqs}, s.Selected())

	s2 := s.ToggleSelect(mainPy, true)
	assert.Equal(t, []string{reqs}, s2.Selected())
	assert.Equal(t, 2, s.SelectionLen(), "receiver unchanged")

	s3 := s.ToggleSelect(utils, false)
	assert.Equal(t, []string{utils}, s3.Selected())
}

func TestReconcile(t *testing.T) {
	s := New().Open(mainPy).Open(config).
		ToggleSelect(utils, true).ToggleSelect(config, true).ToggleSelect(reqs, true)

	r := s.Reconcile([]string{utils, config})
	assert.Equal(t, []string{mainPy}, r.OpenPaths())
	assert.Equal(t, "", r.ActivePath(), "active is cleared, not promoted")
	assert.Equal(t, []string{reqs}, r.Selected())

	same := s.Reconcile(nil)
	assert.Equal(t, s.UI(), same.UI())
}

func TestSelectAllAndClear(t *testing.T) {
	s := New().SelectAll([]string{"/r", "/r/a", "/r/d", "/r/d/b"})
	assert.Equal(t, 4, s.SelectionLen())
	assert.True(t, s.IsSelected("/r/d"))

	assert.Zero(t, s.ClearSelection().SelectionLen())
}

func TestRemap(t *testing.T) {
	s := New().Open(config).Open(mainPy).Focus(config).ToggleSelect(utils, false)
	r := s.Remap(utils, "/home/python/app/lib/utils")

	assert.Equal(t, []string{"/home/python/app/lib/utils/config.json", mainPy}, r.OpenPaths())
	assert.Equal(t, "/home/python/app/lib/utils/config.json", r.ActivePath())
	assert.Equal(t, []string{"/home/python/app/lib/utils"}, r.Selected())

	// Sibling sharing a name prefix is untouched.
	p := New().Open("/home/python/app/utils2/x").Remap(utils, "/z")
	assert.Equal(t, []string{"/home/python/app/utils2/x"}, p.OpenPaths())
}

func TestRetain(t *testing.T) {
	files := map[string]bool{mainPy: true, reqs: true}
	s := FromUI(UI{OpenPaths: []string{mainPy, "/gone", reqs}, ActivePath: "/gone"})
	s = s.Retain(func(p string) bool { return files[p] })

	assert.Equal(t, []string{mainPy, reqs}, s.OpenPaths())
	assert.Equal(t, "", s.ActivePath())
}

func TestUIRoundTrip(t *testing.T) {
	s := New().Open(mainPy).Open(reqs).SetView(ViewSettings).ToggleSelect(mainPy, false)
	ui := s.UI()
	assert.Equal(t, UI{OpenPaths: []string{mainPy, reqs}, ActivePath: reqs, View: ViewSettings}, ui)

	back := FromUI(ui)
	assert.Equal(t, ui, back.UI())
	assert.Zero(t, back.SelectionLen(), "selection is not persisted")
}

func TestFromUI_Sanitizes(t *testing.T) {
	s := FromUI(UI{OpenPaths: []string{mainPy, mainPy}, ActivePath: reqs, View: "bogus"})
	assert.Equal(t, []string{mainPy}, s.OpenPaths())
	assert.Equal(t, "", s.ActivePath())
	assert.Equal(t, ViewIDE, s.View())
}

func TestParseView(t *testing.T) {
	for _, name := range []string{"ide", "processes", "settings", "profile"} {
		v, err := ParseView(name)
		require.NoError(t, err)
		assert.Equal(t, View(name), v)
	}
	_, err := ParseView("terminal")
	assert.Error(t, err)
}
