package audit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sftmarket/core/events"
	"sftmarket/core/types"
)

type testEvent struct {
	kind  string
	attrs map[string]string
}

func (e testEvent) EventType() string { return e.kind }

func (e testEvent) Event() *types.Event {
	return &types.Event{Type: e.kind, Attributes: e.attrs}
}

type countingEmitter struct {
	seen []string
}

func (c *countingEmitter) Emit(evt events.Event) { c.seen = append(c.seen, evt.EventType()) }

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ", nil)
	require.ErrorIs(t, err, ErrPathRequired)
}

func TestRecorderPersistsAndForwards(t *testing.T) {
	next := &countingEmitter{}
	recorder, err := Open(filepath.Join(t.TempDir(), "audit.db"), next)
	require.NoError(t, err)
	t.Cleanup(func() { recorder.Close() })

	recorder.Emit(testEvent{kind: "market.listed", attrs: map[string]string{"itemId": "7"}})
	recorder.Emit(testEvent{kind: "market.purchased", attrs: map[string]string{"itemId": "7", "quantity": "1"}})

	require.Equal(t, []string{"market.listed", "market.purchased"}, next.seen)

	records, err := recorder.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "market.purchased", records[0].EventType)
	require.Equal(t, "1", records[0].Attributes["quantity"])
	require.Equal(t, "market.listed", records[1].EventType)
	require.Equal(t, "7", records[1].Attributes["itemId"])
}

func TestRecorderDefaultsToNoopNext(t *testing.T) {
	recorder, err := Open(filepath.Join(t.TempDir(), "audit.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { recorder.Close() })

	recorder.Emit(testEvent{kind: "token.minted", attrs: map[string]string{}})

	records, err := recorder.Recent(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "token.minted", records[0].EventType)
}
