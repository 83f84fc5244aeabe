package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/core/service"
)

func render(t *testing.T, v View) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, Renderer{}.Render(&sb, v))
	return sb.String()
}

func confirmed(id int64, content string, sender domain.Sender) domain.Confirmed {
	return domain.Confirmed{Message: domain.Message{ID: id, Content: content, Sender: sender}}
}

func TestRender_Collapsed(t *testing.T) {
	out := render(t, View{
		Window:  service.WindowState{IsOpen: false},
		Entries: []domain.Entry{confirmed(1, "secret", domain.SenderUser)},
	})
	require.Contains(t, out, Title)
	require.NotContains(t, out, "secret")
}

func TestRender_Entries(t *testing.T) {
	now := time.Now()
	edited := confirmed(2, "bye", domain.SenderUser)
	edited.UpdatedAt = &now
	deleted := confirmed(3, "gone", domain.SenderUser)
	deleted.DeletedAt = &now
	deleted.UpdatedAt = &now

	out := render(t, View{
		Window: service.WindowState{IsOpen: true},
		Entries: []domain.Entry{
			confirmed(1, "hello there", domain.SenderAgent),
			edited,
			deleted,
			domain.Pending{TemporaryMessage: domain.TemporaryMessage{TempID: uuid.New(), Content: "on its way"}},
		},
		Err: service.ErrTextSend,
	})

	require.Contains(t, out, "Ava: hello there")
	require.Contains(t, out, "#2 (Edited)")
	require.Contains(t, out, domain.TombstoneText)
	require.NotContains(t, out, "gone")
	require.NotContains(t, out, "#3", "tombstones offer no actions")
	require.NotContains(t, out, "#1", "agent messages offer no actions")
	require.Contains(t, out, "on its way")
	require.Contains(t, out, SendingMarker)
	require.Contains(t, out, "! "+service.ErrTextSend)
	require.Equal(t, 1, strings.Count(out, "(Edited)"))
}

func TestRender_UserRightAligned(t *testing.T) {
	out := render(t, View{
		Window:  service.WindowState{IsOpen: true},
		Entries: []domain.Entry{confirmed(1, "hi", domain.SenderUser)},
	})
	require.Contains(t, out, "hi |\n")
}

func TestRender_ExpandedIsWider(t *testing.T) {
	normal := render(t, View{Window: service.WindowState{IsOpen: true}})
	expanded := render(t, View{Window: service.WindowState{IsOpen: true, IsExpanded: true}})
	firstLine := func(s string) int { return len(strings.SplitN(s, "\n", 2)[0]) }
	require.Greater(t, firstLine(expanded), firstLine(normal))
}

func TestRender_EmptyAndLoading(t *testing.T) {
	require.Contains(t, render(t, View{Window: service.WindowState{IsOpen: true}}), "Say hi")
	require.Contains(t, render(t, View{Window: service.WindowState{IsOpen: true}, Loading: true}), "Loading")
}

func TestWrap(t *testing.T) {
	require.Equal(t, []string{"aaa bb", "cccc"}, wrap("aaa bb cccc", 6))
	require.Equal(t, []string{"abcdef", "gh"}, wrap("abcdefgh", 6))
	require.Equal(t, []string{"one", "", "two"}, wrap("one\n\ntwo", 10))
}

func TestTranscript(t *testing.T) {
	now := time.Now()
	edited := confirmed(2, "bye", domain.SenderUser)
	edited.Edited = true
	deleted := confirmed(3, "gone", domain.SenderUser)
	deleted.DeletedAt = &now

	var sb strings.Builder
	require.NoError(t, Transcript(&sb, []domain.Entry{
		confirmed(1, "hello", domain.SenderAgent),
		edited,
		deleted,
		domain.Pending{TemporaryMessage: domain.TemporaryMessage{TempID: uuid.New(), Content: "hi"}},
	}))

	require.Equal(t, "Ava: hello\n"+
		"#2 you: bye (Edited)\n"+
		"you: "+domain.TombstoneText+"\n"+
		"you: hi ("+SendingMarker+")\n", sb.String())
}
