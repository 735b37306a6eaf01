// Package receivecard is the page object for the wallet's "Receive Card" screen,
// where the holder shows a QR code and waits for a verifier to connect.
package receivecard

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/inji-pages/pkg/core"
	"github.com/devicelab-dev/inji-pages/pkg/locator"
	"github.com/devicelab-dev/inji-pages/pkg/page"
)

// Element names, usable as override keys in config.
const (
	ElemAllow                = "allow"
	ElemHeader               = "header"
	ElemHeaderFilipino       = "headerFilipino"
	ElemQrCode               = "qrCode"
	ElemWaitingForConnection = "waitingForConnection"
)

// Screen is the config key for this page's locator overrides.
const Screen = "receiveCard"

// Header texts per language.
const (
	HeaderText         = "Display this QR code to request resident Card"
	HeaderTextFilipino = "Ipakita ang QR code na ito para humiling ng resident card"
	WaitingText        = "Waiting for connection..."
)

// Language selects which header translation to check.
type Language int

// Supported languages
const (
	English Language = iota
	Filipino
)

// String returns the language name.
func (l Language) String() string {
	switch l {
	case English:
		return "english"
	case Filipino:
		return "filipino"
	default:
		return fmt.Sprintf("language(%d)", int(l))
	}
}

// ParseLanguage maps a name ("", "en", "english", "fil", "filipino") to a Language.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "en", "english":
		return English, nil
	case "fil", "filipino":
		return Filipino, nil
	default:
		return English, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unknown language %q", s))
	}
}

// DefaultLocators returns the built-in locators for the screen.
func DefaultLocators() locator.Set {
	return locator.Set{
		ElemAllow:                locator.TextContains("Allow"),
		ElemHeader:               locator.TextContains(HeaderText),
		ElemHeaderFilipino:       locator.TextContains(HeaderTextFilipino),
		ElemQrCode:               locator.XPath("//android.view.ViewGroup/descendant::android.view.ViewGroup[last()]", "QR code"),
		ElemWaitingForConnection: locator.TextContains(WaitingText),
	}
}

// ReceiveCard is the Receive Card page object.
type ReceiveCard struct {
	helper   page.Helper
	locators locator.Set
}

// New binds the page to a helper. Overrides replace default locators by name.
func New(helper page.Helper, overrides ...locator.Set) *ReceiveCard {
	locators := DefaultLocators()
	for _, o := range overrides {
		locators = locators.Merge(o)
	}
	return &ReceiveCard{helper: helper, locators: locators}
}

// Locators returns a copy of the resolved locator set.
func (p *ReceiveCard) Locators() locator.Set {
	return p.locators.Merge(nil)
}

// ClickAllow taps the "Allow" permission prompt and returns the same page for chaining.
func (p *ReceiveCard) ClickAllow() (*ReceiveCard, error) {
	if err := p.helper.Click(p.locators[ElemAllow]); err != nil {
		return nil, err
	}
	return p, nil
}

// IsHeaderDisplayed checks the screen header in the given language.
func (p *ReceiveCard) IsHeaderDisplayed(lang Language) (bool, error) {
	switch lang {
	case English:
		return p.helper.IsDisplayed(p.locators[ElemHeader])
	case Filipino:
		return p.helper.IsDisplayed(p.locators[ElemHeaderFilipino])
	default:
		return false, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported header language %s", lang))
	}
}

// IsWaitingIndicatorDisplayed checks the "Waiting for connection..." status text.
func (p *ReceiveCard) IsWaitingIndicatorDisplayed() (bool, error) {
	return p.helper.IsDisplayed(p.locators[ElemWaitingForConnection])
}

// IsQrCodeEnabled checks the QR code view. The XPath's [last()] picks the innermost
// view group; the first match in document order is used.
func (p *ReceiveCard) IsQrCodeEnabled() (bool, error) {
	return p.helper.IsEnabled(p.locators[ElemQrCode])
}
