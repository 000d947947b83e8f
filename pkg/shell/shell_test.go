package shell

import (
	"testing"

	"github.com/aedmark/shellos/pkg/effect"
	"github.com/aedmark/shellos/pkg/session"
	"github.com/aedmark/shellos/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootActor() vfs.Actor { return vfs.Actor{Name: "root", Groups: []string{"root"}} }

func TestTokenizeHandlesQuotesAndDoubleQuoteEscapes(t *testing.T) {
	tokens, err := Tokenize(`echo "hi \"there\"" 'raw $X'`)
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, `hi "there"`, tokens[1].Text)
	assert.True(t, tokens[1].Quoted)
	assert.Equal(t, "raw $X", tokens[2].Text)
}

func TestTokenizeRejectsUnterminatedQuote(t *testing.T) {
	_, err := Tokenize(`echo "unterminated`)
	assert.ErrorIs(t, err, ErrUnterminatedQuote)
}

func TestExpandBracesCommaAndRange(t *testing.T) {
	tokens, err := Tokenize(`file{1..3}.txt`)
	require.NoError(t, err)
	expanded := expandBraces(tokens)
	var words []string
	for _, tok := range expanded {
		words = append(words, tok.Text)
	}
	assert.Equal(t, []string{"file1.txt", "file2.txt", "file3.txt"}, words)
}

func TestExpandBracesSkipsQuotedTokens(t *testing.T) {
	tokens, err := Tokenize(`echo "{a,b}"`)
	require.NoError(t, err)
	expanded := expandBraces(tokens)
	assert.Equal(t, "{a,b}", expanded[1].Text)
}

func TestPreprocessOrderBraceAliasEnvThenSubstitution(t *testing.T) {
	pre := &Preprocessor{
		Alias: func(name string) (string, bool) {
			if name == "ll" {
				return "ls -la", true
			}
			return "", false
		},
		Env: func(name string) (string, bool) {
			if name == "TARGET" {
				return "report.txt", true
			}
			return "", false
		},
		Exec: func(line string) (string, error) { return "SUBSTITUTED", nil },
	}
	out, err := pre.Preprocess(`ll $TARGET`)
	require.NoError(t, err)
	assert.Equal(t, "ls -la report.txt", out)
}

func TestPreprocessEnvExpandsBeforeCommandSubstitution(t *testing.T) {
	pre := &Preprocessor{
		Env: func(name string) (string, bool) {
			if name == "X" {
				return "$(nested)", true
			}
			return "", false
		},
		Exec: func(line string) (string, error) {
			return "NESTED-OUT", nil
		},
	}
	// $X expands to the literal text "$(nested)" before substitution runs,
	// so the subsequent $(...) scan must see and evaluate it.
	out, err := pre.Preprocess(`echo $X`)
	require.NoError(t, err)
	assert.Equal(t, "echo NESTED-OUT", out)
}

func TestIsStandaloneAssignmentAndApply(t *testing.T) {
	assert.True(t, IsStandaloneAssignment("FOO=bar BAZ=qux"))
	assert.False(t, IsStandaloneAssignment("echo FOO=bar"))
	pairs := ApplyAssignments("FOO=bar BAZ=qux")
	assert.Equal(t, [][2]string{{"FOO", "bar"}, {"BAZ", "qux"}}, pairs)
}

func TestSplitSequencesHonorsQuotesAndEscape(t *testing.T) {
	seqs := SplitSequences(`echo "a;b"; echo c\;d; echo e`)
	require.Len(t, seqs, 3)
	assert.Equal(t, `echo "a;b"`, seqs[0])
	assert.Equal(t, `echo c;d`, seqs[1])
}

func TestParseSequenceSplitsOperatorsAndPipeline(t *testing.T) {
	subs, err := ParseSequence(`grep foo file.txt | wc -l && echo done`)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, OpAnd, subs[0].Op)
	require.Len(t, subs[0].Pipeline, 2)
	assert.Equal(t, "grep", subs[0].Pipeline[0].Command)
	assert.Equal(t, "wc", subs[0].Pipeline[1].Command)
	assert.Equal(t, OpNone, subs[1].Op)
	assert.Equal(t, "echo", subs[1].Pipeline[0].Command)
}

func TestBuildSubCommandExtractsRedirect(t *testing.T) {
	subs, err := ParseSequence(`echo hi >> out.txt`)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.NotNil(t, subs[0].Redirect)
	assert.True(t, subs[0].Redirect.Append)
	assert.Equal(t, "out.txt", subs[0].Redirect.Target)
}

func TestParseFlagsHandlesAllForms(t *testing.T) {
	schema := CommandSchema{Flags: []FlagSpec{
		{Name: "all", Short: 'a'},
		{Name: "long", Short: 'l'},
		{Name: "width", Long: "width", TakesValue: true},
	}}
	tokens, err := Tokenize(`-al --width=80 file.txt`)
	require.NoError(t, err)
	flags, positionals := ParseFlags(schema, tokens)
	assert.Equal(t, true, flags["all"])
	assert.Equal(t, true, flags["long"])
	assert.Equal(t, "80", flags["width"])
	require.Len(t, positionals, 1)
	assert.Equal(t, "file.txt", positionals[0].Text)
}

func TestParseFlagsQuotedTokenNeverTreatedAsFlag(t *testing.T) {
	schema := CommandSchema{Flags: []FlagSpec{{Name: "all", Short: 'a'}}}
	tokens := []Token{{Text: "-a", Quoted: true}}
	flags, positionals := ParseFlags(schema, tokens)
	assert.Empty(t, flags)
	require.Len(t, positionals, 1)
}

func TestExpandGlobsMatchesAndSkipsQuoted(t *testing.T) {
	fs := vfs.New(nil)
	actor := rootActor()
	require.NoError(t, fs.WriteFile("/home/root/a.txt", []byte("a"), actor))
	require.NoError(t, fs.WriteFile("/home/root/b.txt", []byte("b"), actor))
	require.NoError(t, fs.WriteFile("/home/root/c.log", []byte("c"), actor))

	tokens := []Token{{Text: "/home/root/*.txt"}, {Text: "*.txt", Quoted: true}}
	out := ExpandGlobs(fs, actor, "/home/root", tokens)
	require.Len(t, out, 3)
	assert.Equal(t, "/home/root/a.txt", out[0].Text)
	assert.Equal(t, "/home/root/b.txt", out[1].Text)
	assert.Equal(t, "*.txt", out[2].Text)
}

func TestExpandGlobsSkipsDotfilesWithoutLeadingDotPattern(t *testing.T) {
	fs := vfs.New(nil)
	actor := rootActor()
	require.NoError(t, fs.WriteFile("/home/root/.hidden", []byte("x"), actor))
	require.NoError(t, fs.WriteFile("/home/root/visible", []byte("x"), actor))

	out := ExpandGlobs(fs, actor, "/home/root", []Token{{Text: "*"}})
	require.Len(t, out, 1)
	assert.Equal(t, "/home/root/visible", out[0].Text)
}

func newTestShell(t *testing.T, dispatch Dispatch) *Shell {
	t.Helper()
	fs := vfs.New(nil)
	sess := session.New("root", "localhost", 0)
	return &Shell{FS: fs, Session: sess, Actor: rootActor(), Dispatch: dispatch}
}

func TestExecuteAndShortCircuitsOnFailure(t *testing.T) {
	var calls []string
	sh := newTestShell(t, func(name string, ctx CommandContext) effect.Result {
		calls = append(calls, name)
		if name == "false" {
			return effect.Fail("boom")
		}
		return effect.Ok(name)
	})
	result := sh.Execute("false && echo unreached")
	assert.False(t, result.Success)
	assert.Equal(t, []string{"false"}, calls)
}

func TestExecuteOrRunsFallbackOnlyOnFailure(t *testing.T) {
	var calls []string
	sh := newTestShell(t, func(name string, ctx CommandContext) effect.Result {
		calls = append(calls, name)
		if name == "false" {
			return effect.Fail("boom")
		}
		return effect.Ok(name)
	})
	result := sh.Execute("false || echo fallback")
	assert.True(t, result.Success)
	assert.Equal(t, []string{"false", "echo"}, calls)
}

func TestExecutePipesOutputBetweenSegments(t *testing.T) {
	sh := newTestShell(t, func(name string, ctx CommandContext) effect.Result {
		switch name {
		case "produce":
			return effect.Ok("raw-data")
		case "consume":
			return effect.Ok("consumed:" + ctx.Stdin)
		}
		return effect.Fail("unknown")
	})
	result := sh.Execute("produce | consume")
	assert.True(t, result.Success)
	assert.Equal(t, "consumed:raw-data", result.Output)
}

func TestExecuteRedirectWritesFileAndBlanksOutput(t *testing.T) {
	sh := newTestShell(t, func(name string, ctx CommandContext) effect.Result {
		return effect.Ok("hello")
	})
	result := sh.Execute("echo hi > /home/root/out.txt")
	assert.True(t, result.Success)
	assert.Equal(t, "", result.Output)

	node, err := sh.FS.GetNode("/home/root/out.txt", true)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(node.Content))
}

func TestExecuteStandaloneAssignmentSetsEnvWithoutDispatch(t *testing.T) {
	dispatched := false
	sh := newTestShell(t, func(name string, ctx CommandContext) effect.Result {
		dispatched = true
		return effect.Ok("")
	})
	result := sh.Execute("FOO=bar")
	assert.True(t, result.Success)
	assert.False(t, dispatched)
	v, ok := sh.Session.Env.Get("FOO")
	assert.True(t, ok)
	assert.Equal(t, "bar", v)
}

func TestExecuteBackgroundEmitsJobEffectWithoutBlockingResult(t *testing.T) {
	sh := newTestShell(t, func(name string, ctx CommandContext) effect.Result {
		return effect.Ok("done")
	})
	result := sh.Execute("sleep 5 &")
	require.Len(t, result.Effects, 1)
	assert.Equal(t, effect.KindBackgroundJob, result.Effects[0].Kind)
}

func TestExecuteAliasExpandsFirstWordOnly(t *testing.T) {
	var seen []string
	sh := newTestShell(t, func(name string, ctx CommandContext) effect.Result {
		seen = append(seen, name)
		for _, a := range ctx.Args {
			seen = append(seen, a.Text)
		}
		return effect.Ok("")
	})
	sh.Session.Aliases.Set("ll", "ls -la")
	sh.Execute("ll /home")
	assert.Equal(t, []string{"ls", "-la", "/home"}, seen)
}
