// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// AnswerReceived carries an answer back to the model.
type AnswerReceived struct {
	Response *driving.AskResponse
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question form and answer view.
	ViewAsk
	// ViewDocuments lists the documents with unified pages.
	ViewDocuments
	// ViewDocContent shows the pages of one document.
	ViewDocContent
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the identifiers of the browsable documents.
type DocumentsLoaded struct {
	DocumentIDs []string
	Err         error
}

// DocumentSelected signals a document was picked from the list.
type DocumentSelected struct {
	DocumentID string
}

// PagesLoaded carries the unified pages of a document.
type PagesLoaded struct {
	DocumentID string
	Pages      []domain.Unit
	Err        error
}
