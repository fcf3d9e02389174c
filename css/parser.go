// Package css parses stylesheets into ordered items and renders them back in
// a consistent indented form.
package css

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Parser errors other than end of
// input are returned as is.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) (*Stylesheet, error) {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	parser := css.NewParser(parse.NewInputBytes(data), false)
	items, err := p.parseBlock(parser, 0)
	if err != nil {
		return nil, err
	}
	return &Stylesheet{Items: items}, nil
}

// parseBlock collects items until the end of the current block or input.
func (p *Parser) parseBlock(parser *css.Parser, depth int) ([]Item, error) {
	var (
		items     []Item
		selectors []string
	)
	for {
		gt, tt, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			if depth > 0 {
				p.log.Debug("Unterminated CSS block", zap.Int("depth", depth))
			}
			return items, nil

		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			if depth > 0 {
				return items, nil
			}

		case css.CommentGrammar:
			s := string(data)
			items = append(items, Item{Comment: &s})

		case css.AtRuleGrammar:
			items = append(items, Item{AtRule: &AtRule{
				Name:    string(data),
				Prelude: joinTokens(parser.Values()),
			}})

		case css.BeginAtRuleGrammar:
			rule := &AtRule{
				Name:    string(data),
				Prelude: joinTokens(parser.Values()),
				Block:   true,
			}
			nested, err := p.parseBlock(parser, depth+1)
			if err != nil {
				return nil, err
			}
			rule.Items = nested
			items = append(items, Item{AtRule: rule})

		case css.QualifiedRuleGrammar:
			// one selector of a comma separated list, the rest follows
			selectors = append(selectors, selectorList(tt, data, parser.Values())...)

		case css.BeginRulesetGrammar:
			rule := &Rule{Selectors: append(selectors, selectorList(tt, data, parser.Values())...)}
			selectors = nil
			nested, err := p.parseBlock(parser, depth+1)
			if err != nil {
				return nil, err
			}
			rule.Items = nested
			items = append(items, Item{Rule: rule})

		case css.DeclarationGrammar:
			items = append(items, Item{Declaration: &Declaration{
				Property: string(data),
				Value:    joinTokens(parser.Values()),
			}})

		case css.CustomPropertyGrammar:
			var sb strings.Builder
			for _, v := range parser.Values() {
				sb.Write(v.Data)
			}
			items = append(items, Item{Declaration: &Declaration{
				Property: string(data),
				Value:    strings.TrimSpace(sb.String()),
			}})

		case css.TokenGrammar:
			if s := strings.TrimSpace(string(data)); s != "" {
				p.log.Debug("Stray CSS token", zap.String("token", s))
				items = append(items, Item{Raw: &s})
			}
		}
	}
}

// selectorList builds selectors from the first token and the rest of values,
// splitting on commas outside of parentheses.
func selectorList(tt css.TokenType, data []byte, values []css.Token) []string {
	tokens := make([]css.Token, 0, len(values)+1)
	if len(data) > 0 {
		tokens = append(tokens, css.Token{TokenType: tt, Data: data})
	}
	tokens = append(tokens, values...)

	var (
		res   []string
		depth int
		start int
	)
	for i, t := range tokens {
		switch t.TokenType {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		case css.CommaToken:
			if depth == 0 {
				if s := joinTokens(tokens[start:i]); s != "" {
					res = append(res, s)
				}
				start = i + 1
			}
		}
	}
	if s := joinTokens(tokens[start:]); s != "" {
		res = append(res, s)
	}
	return res
}

// joinTokens concatenates tokens collapsing whitespace runs to a single space
// and dropping leading and trailing whitespace.
func joinTokens(tokens []css.Token) string {
	var (
		sb    strings.Builder
		space bool
	)
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = true
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.Write(t.Data)
	}
	return sb.String()
}

// Pretty parses raw stylesheet and renders it indented with indent unit.
func (p *Parser) Pretty(data []byte, indent string, source ...string) ([]byte, error) {
	sheet, err := p.Parse(data, source...)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	if _, err := sheet.Write(&sb, indent); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}
