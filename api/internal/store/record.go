package store

import (
	"context"
	"log"

	"linearsolve/api/internal/solver"
	"linearsolve/api/internal/util"
	"linearsolve/api/internal/workspace"
)

// NewSolveRow собирает запись истории из задачи и итогового состояния.
func NewSolveRow(session, source, model string, p solver.Problem, v workspace.View) SolveRow {
	row := SolveRow{
		Session:     session,
		Source:      source,
		ProblemText: p.Text,
		Model:       model,
		Solution:    v.Solution,
		Failed:      v.Failed,
	}
	if p.HasImage() {
		if b, _, err := util.DecodeBase64MaybeDataURL(p.Image); err == nil {
			row.ImageSHA256 = util.SHA256Hex(b)
		} else {
			row.ImageSHA256 = util.SHA256Hex([]byte(p.Image))
		}
	}
	return row
}

// Record пишет историю «best effort»: ошибка только логируется, nil-репозиторий: no-op.
func (r *SolveRepo) Record(ctx context.Context, row SolveRow) {
	if r == nil || r.DB == nil {
		return
	}
	if _, err := r.Insert(ctx, row); err != nil {
		log.Printf("store: record solve: %v", err)
	}
}
