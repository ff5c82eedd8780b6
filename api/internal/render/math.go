package render

import (
	"bytes"

	mathjax "github.com/litao91/goldmark-mathjax"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	inlineOpen  = `\(`
	inlineClose = `\)`
	displayOpen = `\[`
	displayEnd  = `\]`
)

// math подключает $…$ и $$…$$. Узлы и inline-парсер из goldmark-mathjax,
// блочный парсер свой: принимает и однострочный $$x$$, и многострочный блок.
// Содержимое формул всегда экранируется.
type math struct{}

func (math) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&mathBlockParser{}, 701)),
		parser.WithInlineParsers(util.Prioritized(mathjax.NewInlineMathParser(), 501)),
	)
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&mathRenderer{}, 501),
	))
}

var mathBlockKey = parser.NewContextKey()

type mathBlockState struct {
	indent int
	closed bool
}

type mathBlockParser struct{}

func (b *mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (b *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || pos+1 >= len(line) || line[pos] != '$' || line[pos+1] != '$' {
		return nil, parser.NoChildren
	}
	rest := util.TrimRightSpace(line[pos+2:])
	oneLine := len(rest) >= 2 && bytes.HasSuffix(rest, []byte("$$"))
	if !oneLine && bytes.Contains(rest, []byte("$$")) {
		// $$x$$ посреди текста: это inline
		return nil, parser.NoChildren
	}

	node := mathjax.NewMathBlock()
	st := &mathBlockState{indent: pos}
	pc.Set(mathBlockKey, st)

	start := segment.Start + pos + 2
	if oneLine {
		if body := len(rest) - 2; body > 0 {
			node.Lines().Append(text.NewSegment(start, start+body))
		}
		st.closed = true
	} else if !util.IsBlank(rest) {
		node.Lines().Append(text.NewSegment(start, segment.Stop))
	}
	reader.Advance(segment.Len() - trailingNewline(line))
	return node, parser.NoChildren
}

func (b *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	st, _ := pc.Get(mathBlockKey).(*mathBlockState)
	if st == nil || st.closed {
		return parser.Close
	}
	line, segment := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	trimmed := util.TrimRightSpace(line)
	if bytes.HasSuffix(trimmed, []byte("$$")) {
		body := trimmed[:len(trimmed)-2]
		if !util.IsBlank(body) {
			node.Lines().Append(text.NewSegment(segment.Start, segment.Start+len(body)))
		}
		reader.Advance(segment.Len() - trailingNewline(line))
		st.closed = true
		return parser.Close
	}
	pos, padding := util.DedentPosition(line, 0, st.indent)
	seg := text.NewSegmentPadding(segment.Start+pos, segment.Stop, padding)
	node.Lines().Append(seg)
	reader.AdvanceAndSetPadding(segment.Stop-segment.Start-pos-1, padding)
	return parser.Continue | parser.NoChildren
}

// Close ничего не чистит: Open следующего блока ставит своё состояние.
func (b *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *mathBlockParser) CanInterruptParagraph() bool { return true }
func (b *mathBlockParser) CanAcceptIndentedLine() bool { return false }

func trailingNewline(line []byte) int {
	if len(line) > 0 && line[len(line)-1] == '\n' {
		return 1
	}
	return 0
}

type mathRenderer struct{}

func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(mathjax.KindMathBlock, r.renderBlock)
	reg.Register(mathjax.KindInlineMath, r.renderInline)
}

func (r *mathRenderer) renderBlock(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString(displayEnd + "</span></p>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<p><span class="math display">` + displayOpen)
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(seg.Value(source)))
	}
	return ast.WalkContinue, nil
}

func (r *mathRenderer) renderInline(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString(inlineClose + "</span>")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<span class="math inline">` + inlineOpen)
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok {
			continue
		}
		v := t.Segment.Value(source)
		if bytes.HasSuffix(v, []byte("\n")) {
			v = v[:len(v)-1]
			if c != n.LastChild() {
				v = append(append([]byte{}, v...), ' ')
			}
		}
		_, _ = w.Write(util.EscapeHTML(v))
	}
	return ast.WalkSkipChildren, nil
}
