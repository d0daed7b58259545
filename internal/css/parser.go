package css

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	tdcss "github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// ErrParse is the sentinel wrapped by every ParseError
var ErrParse = errors.New("malformed css")

// ParseError reports a structural problem in the stylesheet text
type ParseError struct {
	Offset int // byte offset of the offending token
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("css: %s at offset %d", e.Msg, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Parser turns stylesheet text into a Node tree. It understands nested
// blocks, so both classic `@media { .a {} }` and nested `.a { @media {} }`
// layouts come out with the proper parent chain.
type Parser struct {
	log            *zap.Logger
	importantRegex *regexp.Regexp
}

// NewParser creates a new CSS parser
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{
		log:            log.Named("css-parser"),
		importantRegex: regexp.MustCompile(`(?i)\s*!\s*important\s*$`),
	}
}

type token struct {
	tt     tdcss.TokenType
	data   string
	offset int
}

type parseState struct {
	tokens []token
	pos    int
	end    int // offset just past the last token
}

func (s *parseState) peek() (token, bool) {
	if s.pos >= len(s.tokens) {
		return token{}, false
	}
	return s.tokens[s.pos], true
}

func (s *parseState) next() {
	s.pos++
}

func (s *parseState) errorf(format string, args ...any) error {
	offset := s.end
	if t, ok := s.peek(); ok {
		offset = t.offset
	}
	return &ParseError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

// Parse parses CSS text into a stylesheet root
func (p *Parser) Parse(cssText string) (*Node, error) {
	tokens, end, err := tokenize(cssText)
	if err != nil {
		return nil, err
	}

	s := &parseState{tokens: tokens, end: end}
	root := NewRoot()
	if err := p.parseBlock(s, root, true); err != nil {
		return nil, err
	}

	p.log.Debug("Parsed stylesheet", zap.Int("bytes", len(cssText)), zap.Int("tokens", len(tokens)), zap.Int("nodes", len(root.Nodes)))
	return root, nil
}

func tokenize(cssText string) ([]token, int, error) {
	lexer := tdcss.NewLexer(parse.NewInputString(cssText))

	var tokens []token
	offset := 0
	for {
		tt, data := lexer.Next()
		if tt == tdcss.ErrorToken {
			if err := lexer.Err(); err != nil && err != io.EOF {
				return nil, offset, &ParseError{Offset: offset, Msg: err.Error()}
			}
			return tokens, offset, nil
		}
		tokens = append(tokens, token{tt: tt, data: string(data), offset: offset})
		offset += len(data)
	}
}

// parseBlock reads statements into parent until the closing brace of the
// block (consumed) or, for the top level, the end of input
func (p *Parser) parseBlock(s *parseState, parent *Node, top bool) error {
	for {
		t, ok := s.peek()
		if !ok {
			if top {
				return nil
			}
			return s.errorf("unclosed block")
		}

		switch t.tt {
		case tdcss.WhitespaceToken, tdcss.CommentToken, tdcss.SemicolonToken, tdcss.CDOToken, tdcss.CDCToken:
			s.next()
		case tdcss.RightBraceToken:
			if top {
				return s.errorf("unexpected '}'")
			}
			s.next()
			return nil
		case tdcss.AtKeywordToken:
			if err := p.parseAtRule(s, parent); err != nil {
				return err
			}
		default:
			if err := p.parseRuleOrDeclaration(s, parent, top); err != nil {
				return err
			}
		}
	}
}

// collect gathers tokens up to (not including) the first top-level '{', ';'
// or '}' and reports which one stopped it (ErrorToken for end of input)
func collect(s *parseState) ([]token, tdcss.TokenType, error) {
	var out []token
	depth := 0
	for {
		t, ok := s.peek()
		if !ok {
			if depth > 0 {
				return nil, tdcss.ErrorToken, s.errorf("unclosed parenthesis")
			}
			return out, tdcss.ErrorToken, nil
		}
		switch t.tt {
		case tdcss.FunctionToken, tdcss.LeftParenthesisToken, tdcss.LeftBracketToken:
			depth++
		case tdcss.RightParenthesisToken, tdcss.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case tdcss.LeftBraceToken, tdcss.SemicolonToken, tdcss.RightBraceToken:
			if depth == 0 {
				return out, t.tt, nil
			}
		}
		out = append(out, t)
		s.next()
	}
}

// join concatenates token text, dropping comments and collapsing whitespace
func join(tokens []token) string {
	var sb strings.Builder
	for _, t := range tokens {
		switch t.tt {
		case tdcss.CommentToken:
			continue
		case tdcss.WhitespaceToken:
			sb.WriteByte(' ')
		default:
			sb.WriteString(t.data)
		}
	}
	return strings.TrimSpace(sb.String())
}

func (p *Parser) parseAtRule(s *parseState, parent *Node) error {
	t, _ := s.peek()
	s.next()

	name := strings.ToLower(strings.TrimPrefix(t.data, "@"))
	prelude, stop, err := collect(s)
	if err != nil {
		return err
	}

	atRule := &Node{Kind: KindAtRule, Name: name, Params: join(prelude)}
	parent.Append(atRule)

	switch stop {
	case tdcss.LeftBraceToken:
		s.next()
		atRule.HasBlock = true
		return p.parseBlock(s, atRule, false)
	case tdcss.SemicolonToken:
		s.next()
	}
	return nil
}

func (p *Parser) parseRuleOrDeclaration(s *parseState, parent *Node, top bool) error {
	tokens, stop, err := collect(s)
	if err != nil {
		return err
	}

	if stop == tdcss.LeftBraceToken {
		s.next()
		rule := NewRule(join(tokens))
		parent.Append(rule)
		return p.parseBlock(s, rule, false)
	}

	if stop == tdcss.SemicolonToken {
		s.next()
	}

	if top {
		p.log.Debug("Skipping stray top-level tokens", zap.String("text", join(tokens)))
		return nil
	}

	if decl := p.parseDeclaration(tokens); decl != nil {
		parent.Append(decl)
	}
	return nil
}

// parseDeclaration splits `prop: value [!important]`
func (p *Parser) parseDeclaration(tokens []token) *Node {
	colon := -1
	for i, t := range tokens {
		if t.tt == tdcss.ColonToken {
			colon = i
			break
		}
	}
	if colon == -1 {
		p.log.Debug("Skipping declaration without colon", zap.String("text", join(tokens)))
		return nil
	}

	property := join(tokens[:colon])
	if property == "" {
		return nil
	}
	if !strings.HasPrefix(property, "--") {
		property = strings.ToLower(property)
	}

	value := join(tokens[colon+1:])
	important := p.importantRegex.MatchString(value)
	if important {
		value = strings.TrimSpace(p.importantRegex.ReplaceAllString(value, ""))
	}

	return NewDecl(property, value, important)
}
