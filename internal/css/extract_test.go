package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRulesPerClass(t *testing.T) {
	root := mustParse(t, `
		.bg-blue-500 { background-color: blue; }
		@media (min-width: 640px) { .sm\:bg-red-500 { background-color: red; } }
		.unused { color: green; }
		.bg-blue-500 { background-color: navy; }
		.link:hover { color: red; }
	`)

	result := ExtractRulesPerClass(root, []string{"bg-blue-500", "sm:bg-red-500", "link", "missing"})

	rule, ok := result.Inlinable.Get("bg-blue-500")
	require.True(t, ok)
	assert.Equal(t, "blue", rule.Decls()[0].Value, "first rule for a class wins")

	assert.False(t, result.Inlinable.Has("unused"))
	assert.False(t, result.Inlinable.Has("missing"))
	assert.False(t, result.Inlinable.Has("link"))

	assert.True(t, result.NonInlinable.Has("sm:bg-red-500"))
	assert.True(t, result.NonInlinable.Has("link"))
	assert.Equal(t, []string{"sm:bg-red-500", "link"}, result.NonInlinable.Classes())
}

func TestRuleIndex_RulesAreDistinct(t *testing.T) {
	shared := NewRule(".a, .b")
	idx := NewRuleIndex()

	assert.True(t, idx.Add("a", shared))
	assert.True(t, idx.Add("b", shared))
	assert.False(t, idx.Add("a", NewRule(".a")))

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []*Node{shared}, idx.Rules())
}

func TestExtractGlobalRules(t *testing.T) {
	root := mustParse(t, `
		*, ::before, ::after { box-sizing: border-box; margin: 0; }
		:root, html { font-size: 16px; }
		DIV, p > span, a, .cls, #id, [type="text"] { color: blue; }
		@layer base { * { border-color: currentColor; } }
		@media print { * { color: black; } p { color: black; } }
	`)

	g := ExtractGlobalRules(root)

	require.Len(t, g.Universal, 2)
	assert.Equal(t, "*", g.Universal[0].Selector)
	assert.Nil(t, g.Universal[0].Parent)
	assert.Equal(t, "border-color", g.Universal[1].Decls()[0].Prop)

	require.Len(t, g.Root, 1)
	assert.Equal(t, ":root", g.Root[0].Selector)

	assert.Len(t, g.ForElement("html"), 1)
	assert.Len(t, g.ForElement("div"), 1)
	assert.Len(t, g.ForElement("a"), 1)
	assert.Empty(t, g.ForElement("p"))
	assert.Empty(t, g.ForElement("span"))
	assert.Len(t, g.Element, 3)
	assert.False(t, g.Empty())
}

func TestExtractGlobalRules_NothingGlobal(t *testing.T) {
	g := ExtractGlobalRules(mustParse(t, `.only { color: red } ::before, ::after { content: ""; }`))
	assert.True(t, g.Empty())
}

func TestGetCustomProperties(t *testing.T) {
	root := mustParse(t, `
		@property --tw-shadow { syntax: "*"; inherits: false; initial-value: 0 0 #0000; }
		@property --tw-ring { syntax: "*"; inherits: false; }
		@property not-a-var { initial-value: 1; }
	`)

	props := GetCustomProperties(root)
	require.Len(t, props, 2)

	v, ok := props.Initial("--tw-shadow")
	assert.True(t, ok)
	assert.Equal(t, "0 0 #0000", v)
	assert.Equal(t, `"*"`, props["--tw-shadow"].Syntax.Value)
	assert.Equal(t, "false", props["--tw-shadow"].Inherits.Value)

	_, ok = props.Initial("--tw-ring")
	assert.False(t, ok)
	_, ok = props.Initial("--missing")
	assert.False(t, ok)
}

func TestParseValue(t *testing.T) {
	nodes := ParseValue("1px  solid\n red")
	require.Len(t, nodes, 5)
	assert.Equal(t, ValueWord, nodes[0].Type)
	assert.Equal(t, ValueSpace, nodes[1].Type)
	assert.Equal(t, "1px solid red", Stringify(nodes))

	nodes = ParseValue("rgb(0 0 0 / 0.5)")
	require.Len(t, nodes, 1)
	fn := nodes[0]
	assert.Equal(t, ValueFunction, fn.Type)
	assert.Equal(t, "rgb", fn.Value)
	args := fn.Args("/")
	require.Len(t, args, 2)
	assert.Equal(t, "0 0 0", Stringify(args[0]))
	assert.Equal(t, "0.5", Stringify(args[1]))
	assert.Equal(t, "rgb(0 0 0 / 0.5)", fn.String())
}

func TestParseValue_NestedFunctions(t *testing.T) {
	nodes := ParseValue("var(--a, var(--b, 1px))")
	require.Len(t, nodes, 1)

	v := nodes[0]
	require.Len(t, v.Nodes, 3)
	assert.Equal(t, "--a", v.Nodes[0].Value)
	assert.Equal(t, ValueDiv, v.Nodes[1].Type)
	assert.Equal(t, ValueFunction, v.Nodes[2].Type)
	assert.Equal(t, "var(--a, var(--b, 1px))", Stringify(nodes))

	var names []string
	WalkValues(nodes, func(n *Value) bool {
		if n.Type == ValueFunction {
			names = append(names, n.Value)
		}
		return true
	})
	assert.Equal(t, []string{"var", "var"}, names)

	var post []string
	WalkValuesPost(nodes, func(n *Value) {
		if n.Type == ValueWord {
			post = append(post, n.Value)
		}
	})
	assert.Equal(t, []string{"--a", "--b", "1px"}, post)
}

func TestParseValue_SetWord(t *testing.T) {
	nodes := ParseValue("0 0 var(--c) #fff")
	WalkValues(nodes, func(n *Value) bool {
		if n.Type == ValueFunction && n.Value == "var" {
			n.SetWord("red")
			return false
		}
		return true
	})
	assert.Equal(t, "0 0 red #fff", Stringify(nodes))
}
