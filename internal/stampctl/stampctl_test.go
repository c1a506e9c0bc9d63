package stampctl

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/stampcard/internal/domain/logrow"
	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/internal/domain/projection"
)

// sheet is an in-memory event log endpoint.
type sheet struct {
	mu   sync.Mutex
	rows []json.RawMessage
}

func newSheet(t *testing.T, events ...model.Event) (*sheet, *httptest.Server) {
	t.Helper()
	s := &sheet{}
	for _, e := range events {
		b, err := logrow.Marshal(e)
		require.NoError(t, err)
		s.rows = append(s.rows, b)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			rows := s.rows
			if rows == nil {
				rows = []json.RawMessage{}
			}
			_ = json.NewEncoder(w).Encode(rows)
		case http.MethodPost:
			b, _ := io.ReadAll(r.Body)
			s.rows = append(s.rows, b)
			_, _ = w.Write([]byte(`{"result":"success"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return s, srv
}

func stamps(p model.Profile, n int, variant string) []model.Event {
	out := make([]model.Event, n)
	for i := range out {
		out[i] = model.Event{Profile: p, Kind: model.KindStamp, Variant: variant}
	}
	return out
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"replay", "grid", "history", "append"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("url"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("timeout"))
}

func TestInvalidFormat(t *testing.T) {
	_, srv := newSheet(t)
	_, err := execute(t, "replay", "--url", srv.URL, "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMissingURL(t *testing.T) {
	t.Setenv("STAMPCARD_LOG_ENDPOINT", "")
	_, err := execute(t, "replay")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--url")
}

func TestReplayText(t *testing.T) {
	events := append(stamps(model.ProfileA, 12, "cat"),
		model.Event{Profile: model.ProfileB, Kind: model.KindUpdateProfile, DisplayName: "Mochi"},
		model.Event{Profile: model.ProfileA, Kind: model.KindPenalty},
	)
	_, srv := newSheet(t, events...)

	out, err := execute(t, "replay", "--url", srv.URL, "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "14 rows, 14 applied, 0 skipped")
	assert.Contains(t, out, "count=1 sets=1")
	assert.Contains(t, out, "Mochi")
	assert.Contains(t, out, "deterministic: yes")
}

func TestReplayJSON(t *testing.T) {
	s, srv := newSheet(t, stamps(model.ProfileB, 3, "frog")...)
	s.rows = append(s.rows, json.RawMessage(`{"profile":"A","type":"double_stamp"}`), json.RawMessage(`"junk"`))

	out, err := execute(t, "replay", "--url", srv.URL, "--format", "json", "--verify")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.Data.Applied)
	assert.Equal(t, 2, resp.Data.Skipped)
	assert.Equal(t, 3, resp.Data.State.B.ActiveCount)
	require.NotNil(t, resp.Data.Deterministic)
	assert.True(t, *resp.Data.Deterministic)
}

func TestReplayUnreachable(t *testing.T) {
	_, srv := newSheet(t)
	srv.Close()

	_, err := execute(t, "replay", "--url", srv.URL)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGrid(t *testing.T) {
	_, srv := newSheet(t, stamps(model.ProfileA, 3, "panda")...)

	out, err := execute(t, "grid", "a", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Brownie")
	assert.Contains(t, out, "set #1")
	assert.Contains(t, out, "3/10")
	assert.Contains(t, out, model.Glyph("panda"))

	out, err = execute(t, "grid", "A", "--url", srv.URL, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data GridResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.Grid.Filled)
	assert.Equal(t, model.ProfileA, resp.Data.Profile)
}

func TestGridUnknownProfile(t *testing.T) {
	_, srv := newSheet(t)
	_, err := execute(t, "grid", "C", "--url", srv.URL)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRenderGridCompletedSet(t *testing.T) {
	state := model.DefaultProfileState(model.ProfileB)
	state.CompletedSets = 1
	for i := 0; i < model.Threshold; i++ {
		state.History = append(state.History, model.StampRecord{Kind: model.RecordStamp, Variant: "chick"})
	}

	out := RenderGrid(GridResult{
		Profile:       model.ProfileB,
		Name:          state.DisplayName,
		CompletedSets: 1,
		Grid:          projection.BuildGrid(state),
	})
	assert.Contains(t, out, "set complete!")
	assert.Contains(t, out, "10/10")
	assert.Equal(t, model.Threshold, strings.Count(out, model.Glyph("chick")))
}

func TestHistory(t *testing.T) {
	events := append(stamps(model.ProfileA, 4, "cat"), model.Event{Profile: model.ProfileA, Kind: model.KindPenalty})
	_, srv := newSheet(t, events...)

	out, err := execute(t, "history", "A", "--url", srv.URL, "--page-size", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "4 records, 3 valid stamps (page 1/2)")

	out, err = execute(t, "history", "A", "--url", srv.URL, "--page-size", "3", "--page", "1", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data projection.HistoryPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Items, 1)
	assert.Equal(t, model.RecordPenalty, resp.Data.Items[0].Kind)

	_, err = execute(t, "history", "A", "--url", srv.URL, "--page", "-1")
	require.Error(t, err)
}

func TestAppend(t *testing.T) {
	s, srv := newSheet(t)

	out, err := execute(t, "append", "B", "stamp", "--stamp", "rabbit", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "appended stamp for B")

	_, err = execute(t, "append", "B", "update_profile", "--name", "Mochi", "--url", srv.URL)
	require.NoError(t, err)

	s.mu.Lock()
	body, err := json.Marshal(s.rows)
	s.mu.Unlock()
	require.NoError(t, err)
	batch, err := logrow.Decode(body)
	require.NoError(t, err)
	require.Len(t, batch.Events, 2)
	assert.Equal(t, "rabbit", batch.Events[0].Variant)
	assert.Equal(t, "Mochi", batch.Events[1].DisplayName)

	out, err = execute(t, "replay", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Mochi")
}

func TestAppendRejectsBadInput(t *testing.T) {
	_, srv := newSheet(t)

	_, err := execute(t, "append", "A", "double_stamp", "--url", srv.URL)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "append", "A", "stamp", "--stamp", "dragon", "--url", srv.URL)
	require.Error(t, err)

	_, err = execute(t, "append", "A", "--url", srv.URL)
	require.Error(t, err)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "x", assert.AnError)))
}
