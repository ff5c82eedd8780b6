package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"linearsolve/api/internal/export"
	"linearsolve/api/internal/solver"
	"linearsolve/api/internal/store"
	"linearsolve/api/internal/util"
	"linearsolve/api/internal/workspace"
)

// Bot: часть *tgbotapi.BotAPI, которой пользуется роутер.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type History interface {
	Record(ctx context.Context, row store.SolveRow)
}

type Router struct {
	Bot      Bot
	Solver   solver.Solver
	Sessions *workspace.Store // обязателен
	Exporter *export.Exporter // nil: PDF не отправляем
	History  History
	Model    string

	download func(url string) ([]byte, error)
	inflight sync.WaitGroup
}

func chatKey(chatID int64) string { return fmt.Sprintf("tg:%d", chatID) }

func (r *Router) workspace(chatID int64) *workspace.Workspace {
	return r.Sessions.Get(chatKey(chatID))
}

// Dispatch обрабатывает апдейт в своей горутине, чтобы долгое решение
// одного чата не задерживало остальные. Sessions должен быть задан заранее.
func (r *Router) Dispatch(upd tgbotapi.Update) {
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		r.HandleUpdate(upd)
	}()
}

// Wait ждёт апдейты, запущенные через Dispatch.
func (r *Router) Wait() { r.inflight.Wait() }

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.Message == nil || upd.Message.Chat == nil {
		return
	}
	msg := upd.Message
	cid := msg.Chat.ID

	if msg.IsCommand() {
		r.HandleCommand(msg)
		return
	}

	ctx := context.Background()
	switch {
	case len(msg.Photo) > 0:
		r.acceptPhoto(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		ws := r.workspace(cid)
		ws.SetText(msg.Text)
		ws.RemoveImage()
		r.solve(ctx, cid)
	default:
		r.send(cid, helpText)
	}
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, startText)
	case "clear":
		r.workspace(cid).Clear()
		r.send(cid, clearedText)
	case "pdf":
		r.sendPDF(context.Background(), cid, r.workspace(cid).View())
	default:
		r.send(cid, unknownCommandText)
	}
}

func (r *Router) acceptPhoto(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	// берём самое большое превью
	ph := msg.Photo[len(msg.Photo)-1]
	url, err := r.Bot.GetFileDirectURL(ph.FileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	dl := r.download
	if dl == nil {
		dl = download
	}
	img, err := dl(url)
	if err != nil {
		r.SendError(cid, err)
		return
	}

	ws := r.workspace(cid)
	ws.SetText(msg.Caption)
	ws.SetImage(util.EncodeDataURL("", img))
	r.solve(ctx, cid)
}

func (r *Router) solve(ctx context.Context, cid int64) {
	ws := r.workspace(cid)
	p := ws.View().Problem()
	if p.Empty() {
		return
	}
	r.send(cid, solvingText)

	start := time.Now()
	v, err := ws.Solve(ctx, r.Solver)
	switch {
	case errors.Is(err, workspace.ErrBusy):
		r.send(cid, busyText)
		return
	case errors.Is(err, workspace.ErrEmptyInput):
		return
	case err != nil:
		r.SendError(cid, err)
		return
	}
	log.Printf("telegram: chat=%d solved in %v failed=%v", cid, time.Since(start), v.Failed)

	if r.History != nil {
		r.History.Record(ctx, store.NewSolveRow(chatKey(cid), "telegram", r.Model, p, v))
	}
	for _, part := range SplitMessage(v.Solution, maxMessageLen) {
		r.send(cid, part)
	}
	if !v.Failed {
		r.sendPDF(ctx, cid, v)
	}
}

// sendPDF без решения или при выключенном экспорте молча ничего не делает.
func (r *Router) sendPDF(ctx context.Context, cid int64, v workspace.View) {
	if r.Exporter == nil || !v.HasSolution() {
		return
	}
	pdf, err := r.Exporter.Export(ctx, v.Solution)
	if errors.Is(err, export.ErrNoTarget) {
		return
	}
	if err != nil {
		log.Printf("telegram: export chat=%d: %v", cid, err)
		return
	}
	doc := tgbotapi.NewDocument(cid, tgbotapi.FileBytes{Name: export.Filename, Bytes: pdf})
	if _, err := r.Bot.Send(doc); err != nil {
		log.Printf("telegram: send pdf chat=%d: %v", cid, err)
	}
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		log.Printf("telegram: send chat=%d: %v", chatID, err)
	}
}

// SendError пишет причину в лог, пользователю: только фиксированное сообщение.
func (r *Router) SendError(chatID int64, err error) {
	log.Printf("telegram: chat=%d: %v", chatID, err)
	r.send(chatID, workspace.FailedMessage)
}
