package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/vango-dev/pagebridge/pkg/bridge"
	"github.com/vango-dev/pagebridge/pkg/change"
	"github.com/vango-dev/pagebridge/pkg/event"
	"github.com/vango-dev/pagebridge/pkg/host"
)

// Node ids of the page rendered by echoApp.
const (
	inputID change.NodeID = "input"
	labelID change.NodeID = "label"
	listID  change.NodeID = "list"
)

// echoApp renders an input, a label and a list on connect. Every change
// event writes its value into the label and highlights the next row.
type echoApp struct {
	listSize int
	logger   *slog.Logger
	handled  atomic.Uint64
}

func newEchoApp(listSize int, logger *slog.Logger) *echoApp {
	return &echoApp{listSize: listSize, logger: logger}
}

func rowID(i int) change.NodeID {
	return change.NodeID("row" + strconv.Itoa(i))
}

// initial returns the records that render the page.
func (a *echoApp) initial() []change.Change {
	body := bridge.DefaultBodyID
	changes := []change.Change{
		change.CreateElem(inputID, "input"),
		change.AppendChild(body, inputID),
		change.CreateText(labelID, ""),
		change.AppendChild(body, labelID),
		change.CreateElem(listID, "ul"),
		change.AppendChild(body, listID),
	}
	for i := 0; i < a.listSize; i++ {
		id := rowID(i)
		text := id + "-text"
		changes = append(changes,
			change.CreateElem(id, "li"),
			change.CreateText(text, "item "+strconv.Itoa(i)),
			change.AppendChild(id, text),
			change.AppendChild(listID, id),
		)
	}
	return changes
}

// Connected implements host.SessionHandler.
func (a *echoApp) Connected(s *host.Session) {
	if _, err := s.Send(s.Context(), a.initial()); err != nil {
		a.logger.Warn("initial render failed", "session", s.ID(), "error", err)
	}
}

// Disconnected implements host.SessionHandler.
func (a *echoApp) Disconnected(*host.Session) {}

// HandleEvent implements host.Handler.
func (a *echoApp) HandleEvent(ctx context.Context, s *host.Session, p event.Payload) error {
	value, err := p.Resolve()
	if err != nil {
		return err
	}
	token, ok := value.(string)
	if !ok {
		return fmt.Errorf("bench: %s sent %T, want string", p.Target, value)
	}

	n := a.handled.Add(1)
	changes := []change.Change{change.SetText(labelID, token)}
	if a.listSize > 0 {
		row := int(n % uint64(a.listSize))
		changes = append(changes, change.SetAttrs(rowID(row), map[string]string{"class": "active"}))
	}
	_, err = s.Send(ctx, changes)
	return err
}
