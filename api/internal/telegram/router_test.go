package telegram

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linearsolve/api/internal/export"
	"linearsolve/api/internal/solver"
	"linearsolve/api/internal/store"
	"linearsolve/api/internal/workspace"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	if fileID == "broken" {
		return "", errors.New("file not found")
	}
	return "https://files.example/" + fileID, nil
}

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (b *fakeBot) documents() []tgbotapi.DocumentConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.DocumentConfig
	for _, c := range b.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

type recordingSolver struct {
	calls []solver.Problem
	out   string
	err   error
}

func (s *recordingSolver) Solve(_ context.Context, p solver.Problem) (string, error) {
	s.calls = append(s.calls, p)
	return s.out, s.err
}

type fakeHistory struct{ rows []store.SolveRow }

func (h *fakeHistory) Record(_ context.Context, row store.SolveRow) { h.rows = append(h.rows, row) }

type pngRasterizer struct{}

func (pngRasterizer) Capture(context.Context, string, string, float64) ([]byte, error) {
	var buf bytes.Buffer
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 30)))
	return buf.Bytes(), nil
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: text}}
}

func commandUpdate(chatID int64, cmd string) tgbotapi.Update {
	upd := textUpdate(chatID, cmd)
	upd.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	return upd
}

func TestTextMessageSolves(t *testing.T) {
	bot := &fakeBot{}
	s := &recordingSolver{out: "**Javob:** $x=2$"}
	hist := &fakeHistory{}
	r := &Router{Sessions: workspace.NewStore(), Bot: bot, Solver: s, History: hist, Model: "gemini-test"}

	r.HandleUpdate(textUpdate(7, "2x = 4"))

	require.Len(t, s.calls, 1)
	assert.Equal(t, solver.Problem{Text: "2x = 4"}, s.calls[0])
	assert.Equal(t, []string{solvingText, "**Javob:** $x=2$"}, bot.texts())
	assert.Empty(t, bot.documents())

	require.Len(t, hist.rows, 1)
	assert.Equal(t, "telegram", hist.rows[0].Source)
	assert.Equal(t, "tg:7", hist.rows[0].Session)
}

func TestPhotoMessageSolvesWithImage(t *testing.T) {
	bot := &fakeBot{}
	s := &recordingSolver{out: "ok"}
	photo := []byte{0xFF, 0xD8, 0xFF, 0xE0, 9}
	var gotURL string
	r := &Router{Sessions: workspace.NewStore(), Bot: bot, Solver: s}
	r.download = func(url string) ([]byte, error) {
		gotURL = url
		return photo, nil
	}

	upd := tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 1},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}}
	r.HandleUpdate(upd)

	assert.Equal(t, "https://files.example/large", gotURL)
	require.Len(t, s.calls, 1)
	assert.Empty(t, s.calls[0].Text)
	assert.Equal(t, solver.DefaultImagePrompt, s.calls[0].PromptText())
	assert.True(t, strings.HasPrefix(s.calls[0].Image, "data:image/jpeg;base64,"))
}

func TestPhotoDownloadError(t *testing.T) {
	bot := &fakeBot{}
	s := &recordingSolver{out: "ok"}
	r := &Router{Sessions: workspace.NewStore(), Bot: bot, Solver: s}

	r.HandleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: 1},
		Photo: []tgbotapi.PhotoSize{{FileID: "broken"}},
	}})
	assert.Empty(t, s.calls)
	assert.Equal(t, []string{workspace.FailedMessage}, bot.texts())
}

func TestSolveFailureSendsFixedMessageAndNoPDF(t *testing.T) {
	bot := &fakeBot{}
	r := &Router{Sessions: workspace.NewStore(),
		Bot:      bot,
		Solver:   &recordingSolver{err: solver.ErrSolveFailed},
		Exporter: export.New(pngRasterizer{}, time.Second),
	}
	r.HandleUpdate(textUpdate(3, "q"))

	assert.Equal(t, []string{solvingText, workspace.FailedMessage}, bot.texts())
	assert.Empty(t, bot.documents())
}

func TestSolveSendsPDF(t *testing.T) {
	bot := &fakeBot{}
	r := &Router{Sessions: workspace.NewStore(),
		Bot:      bot,
		Solver:   &recordingSolver{out: "$$x$$"},
		Exporter: export.New(pngRasterizer{}, time.Second),
	}
	r.HandleUpdate(textUpdate(3, "q"))

	docs := bot.documents()
	require.Len(t, docs, 1)
	fb, ok := docs[0].File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, export.Filename, fb.Name)
	assert.True(t, bytes.HasPrefix(fb.Bytes, []byte("%PDF-")))
}

func TestCommands(t *testing.T) {
	bot := &fakeBot{}
	s := &recordingSolver{out: "yechim"}
	r := &Router{Sessions: workspace.NewStore(), Bot: bot, Solver: s, Exporter: export.New(pngRasterizer{}, time.Second)}

	r.HandleUpdate(commandUpdate(5, "/start"))
	assert.Equal(t, []string{startText}, bot.texts())

	// /pdf без решения: ничего не отправляет
	r.HandleUpdate(commandUpdate(5, "/pdf"))
	assert.Empty(t, bot.documents())

	r.HandleUpdate(textUpdate(5, "q"))
	require.Len(t, bot.documents(), 1)

	r.HandleUpdate(commandUpdate(5, "/clear"))
	v := r.workspace(5).View()
	assert.Empty(t, v.Text)
	assert.Empty(t, v.Solution)

	r.HandleUpdate(commandUpdate(5, "/pdf"))
	assert.Len(t, bot.documents(), 1)

	r.HandleUpdate(commandUpdate(5, "/nope"))
	texts := bot.texts()
	assert.Equal(t, unknownCommandText, texts[len(texts)-1])
	assert.Len(t, s.calls, 1)
}

func TestEmptyMessageGetsHelp(t *testing.T) {
	bot := &fakeBot{}
	s := &recordingSolver{}
	r := &Router{Sessions: workspace.NewStore(), Bot: bot, Solver: s}
	r.HandleUpdate(textUpdate(1, "   "))
	r.HandleUpdate(tgbotapi.Update{})

	assert.Empty(t, s.calls)
	assert.Equal(t, []string{helpText}, bot.texts())
}

func TestBusyChat(t *testing.T) {
	bot := &fakeBot{}
	started := make(chan struct{})
	release := make(chan struct{})
	r := &Router{Sessions: workspace.NewStore(), Bot: bot, Solver: solver.Func(func(context.Context, solver.Problem) (string, error) {
		close(started)
		<-release
		return "done", nil
	})}

	done := make(chan struct{})
	go func() {
		r.HandleUpdate(textUpdate(9, "first"))
		close(done)
	}()
	<-started
	r.HandleUpdate(textUpdate(9, "second"))
	close(release)
	<-done

	assert.Contains(t, bot.texts(), busyText)
	assert.Contains(t, bot.texts(), "done")
}

func TestDispatchSolvesChatsConcurrently(t *testing.T) {
	bot := &fakeBot{}
	var both sync.WaitGroup
	both.Add(2)
	r := &Router{Bot: bot, Sessions: workspace.NewStore(), Solver: solver.Func(func(_ context.Context, p solver.Problem) (string, error) {
		both.Done()
		both.Wait() // оба чата одновременно внутри Solve
		return "javob: " + p.Text, nil
	})}

	r.Dispatch(textUpdate(1, "birinchi"))
	r.Dispatch(textUpdate(2, "ikkinchi"))

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second chat waited for the first one")
	}

	assert.Contains(t, bot.texts(), "javob: birinchi")
	assert.Contains(t, bot.texts(), "javob: ikkinchi")
}

func TestDispatchSameChatReportsBusy(t *testing.T) {
	bot := &fakeBot{}
	started := make(chan struct{})
	release := make(chan struct{})
	r := &Router{Bot: bot, Sessions: workspace.NewStore(), Solver: solver.Func(func(context.Context, solver.Problem) (string, error) {
		close(started)
		<-release
		return "done", nil
	})}

	r.Dispatch(textUpdate(5, "first"))
	<-started
	r.Dispatch(textUpdate(5, "second"))
	require.Eventually(t, func() bool {
		for _, s := range bot.texts() {
			if s == busyText {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	close(release)
	r.Wait()

	assert.Contains(t, bot.texts(), "done")
}
