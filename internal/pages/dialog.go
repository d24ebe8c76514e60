package pages

import (
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/lucad87test-org/kong-test/internal/obs"
)

// AcceptDialogs accepts every dialog page opens until the returned release
// function is called. Release is idempotent.
func AcceptDialogs(page playwright.Page) (release func()) {
	l := obs.Pkg("pages")
	handler := func(dialog playwright.Dialog) {
		l.Info("dialog_accepted", "type", dialog.Type(), "message", dialog.Message())
		if err := dialog.Accept(); err != nil {
			l.Warn("dialog_accept_failed", "error", err.Error())
		}
	}
	page.OnDialog(handler)

	var once sync.Once
	return func() {
		once.Do(func() {
			page.RemoveListener("dialog", handler)
		})
	}
}
