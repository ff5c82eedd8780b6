// Package solver describes a single solve request against the external model.
package solver

import (
	"context"
	"errors"
	"strings"
)

// ErrSolveFailed is the only error a Solver reports; causes are logged, not returned.
var ErrSolveFailed = errors.New("solve failed")

// DefaultImagePrompt replaces the user text when only a photo was supplied.
const DefaultImagePrompt = "Ushbu rasmdagi chiziqli algebra masalasini yechib bering."

// ImageMIME is what the model is told about every attached photo.
const ImageMIME = "image/jpeg"

// SystemInstruction fixes persona, topic, language and answer layout.
const SystemInstruction = `Siz chiziqli algebra bo'yicha mutaxassis matematika o'qituvchisisiz. 
Sizning vazifangiz foydalanuvchi tomonidan yuborilgan chiziqli algebra masalalarini (matritsalar, determinantlar, chiziqli tenglamalar sistemasi, vektor fazolar, xos qiymatlar va h.k.) qadamma-qadam yechib berishdir.

Qoidalar:
1. Faqat chiziqli algebraga oid savollarga javob bering. Agar savol boshqa sohadan bo'lsa, muloyimlik bilan rad eting.
2. Yechimni qadamma-qadam, tushunarli tilda tushuntiring.
3. Matematik formulalar uchun LaTeX formatidan foydalaning (masalan, $x^2$ yoki $$A = \begin{pmatrix} 1 & 2 \\ 3 & 4 \end{pmatrix}$$).
4. Hech qachon "Gemini" yoki "Google" nomini tilga olmang. O'zingizni "LinearSolve AI" deb tanishtiring.
5. Javob oxirida xulosa bering.
6. O'zbek tilida javob bering.`

// Temperature keeps answers close to deterministic.
const Temperature float32 = 0.2

// Problem is one user submission. Image is a data URI, empty when absent.
type Problem struct {
	Text  string
	Image string
}

func (p Problem) HasImage() bool { return strings.TrimSpace(p.Image) != "" }

// Empty reports whether there is nothing to send.
func (p Problem) Empty() bool {
	return p.Text == "" && !p.HasImage()
}

// PromptText is the text part of the request.
func (p Problem) PromptText() string {
	if p.Text == "" {
		return DefaultImagePrompt
	}
	return p.Text
}

type Solver interface {
	Solve(ctx context.Context, p Problem) (string, error)
}

// Func adapts a plain function to Solver.
type Func func(ctx context.Context, p Problem) (string, error)

func (f Func) Solve(ctx context.Context, p Problem) (string, error) { return f(ctx, p) }
