package html

import (
	"errors"
	"fmt"
	"io"
	"strings"

	xhtml "golang.org/x/net/html"
)

// ErrParse is wrapped by every document parsing failure
var ErrParse = errors.New("malformed html")

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// Parse builds a tree from markup. The structure is kept as written: no
// implied <html>, <head> or <body> are added, so callers can tell whether
// the document really has a head. End tags close the nearest open element
// of the same name; stray end tags are ignored.
func Parse(markup string) (*Tree, error) {
	t := NewTree()
	z := xhtml.NewTokenizer(strings.NewReader(markup))

	stack := []NodeID{t.Root()}
	top := func() NodeID { return stack[len(stack)-1] }

	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: %w", ErrParse, err)
			}
			return t, nil

		case xhtml.TextToken:
			t.AppendChild(top(), t.NewNode(TextNode, string(z.Text())))

		case xhtml.CommentToken:
			t.AppendChild(top(), t.NewNode(CommentNode, string(z.Text())))

		case xhtml.DoctypeToken:
			t.AppendChild(top(), t.NewNode(DoctypeNode, string(z.Text())))

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			var attrs []Attribute
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				attrs = append(attrs, Attribute{Key: string(key), Val: string(val)})
			}
			id := t.NewNode(ElementNode, tag, attrs...)
			t.AppendChild(top(), id)
			if tt == xhtml.StartTagToken && !voidElements[tag] {
				stack = append(stack, id)
			}

		case xhtml.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			for i := len(stack) - 1; i > 0; i-- {
				if t.nodes[stack[i]].Data == tag {
					stack = stack[:i]
					break
				}
			}
		}
	}
}
