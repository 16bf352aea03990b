package diff

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Examples(t *testing.T) {
	tests := []struct {
		name        string
		old, new    string
		wantBlocks  Blocks
		wantAdded   int
		wantDeleted int
	}{
		{
			name: "inserted word",
			old:  "hello world",
			new:  "hello brave world",
			wantBlocks: Blocks{
				{Kind: KindNeutral, Text: "hello "},
				{Kind: KindAdd, Text: "brave "},
				{Kind: KindNeutral, Text: "world"},
			},
			wantAdded: 1,
		},
		{
			name: "replaced word",
			old:  "the quick brown fox",
			new:  "the slow brown fox",
			wantBlocks: Blocks{
				{Kind: KindNeutral, Text: "the "},
				{Kind: KindDelete, Text: "quick"},
				{Kind: KindAdd, Text: "slow"},
				{Kind: KindNeutral, Text: " brown fox"},
			},
			wantAdded:   1,
			wantDeleted: 1,
		},
		{
			name:        "identical",
			old:         "nothing changed here",
			new:         "nothing changed here",
			wantBlocks:  Blocks{{Kind: KindNeutral, Text: "nothing changed here"}},
			wantAdded:   0,
			wantDeleted: 0,
		},
		{
			name:       "both empty",
			wantBlocks: Blocks{{Kind: KindNeutral, Text: ""}},
		},
		{
			name:       "first revision",
			old:        "",
			new:        "a b  c\n",
			wantBlocks: Blocks{{Kind: KindAdd, Text: "a b  c\n"}},
			wantAdded:  3,
		},
		{
			name:        "everything removed",
			old:         "gone for good",
			new:         "",
			wantBlocks:  Blocks{{Kind: KindDelete, Text: "gone for good"}},
			wantDeleted: 3,
		},
		{
			name: "whitespace only change is not counted",
			old:  "a b",
			new:  "a  b",
			wantBlocks: Blocks{
				{Kind: KindNeutral, Text: "a"},
				{Kind: KindDelete, Text: " "},
				{Kind: KindAdd, Text: "  "},
				{Kind: KindNeutral, Text: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(tt.old, tt.new)
			require.NoError(t, err)

			assert.Equal(t, tt.wantBlocks, res.Blocks)
			assert.Equal(t, tt.wantAdded, res.Added, "added")
			assert.Equal(t, tt.wantDeleted, res.Deleted, "deleted")
			assert.False(t, res.Approximate)
		})
	}
}

func TestCompute_InsertedWordTrimmed(t *testing.T) {
	res, err := Compute("hello world", "hello brave world")
	require.NoError(t, err)

	var kinds []Kind
	var words []string
	for _, b := range res.Blocks {
		kinds = append(kinds, b.Kind)
		words = append(words, strings.TrimSpace(b.Text))
	}
	assert.Equal(t, []Kind{KindNeutral, KindAdd, KindNeutral}, kinds)
	assert.Equal(t, []string{"hello", "brave", "world"}, words)
}

func TestCompute_MultipleEdits(t *testing.T) {
	res, err := Compute("one two three four", "two three five")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, "one two three four", res.Blocks.Old())
	assert.Equal(t, "two three five", res.Blocks.New())
}

func TestCompute_Mirror(t *testing.T) {
	pairs := [][2]string{
		{"hello world", "hello brave world"},
		{"the quick brown fox", "the slow brown fox"},
		{"", "fresh text"},
		{"line one\nline two\n", "line one\nline 2\n"},
	}
	for _, p := range pairs {
		forward, err := Compute(p[0], p[1])
		require.NoError(t, err)
		backward, err := Compute(p[1], p[0])
		require.NoError(t, err)

		assert.Equal(t, forward.Added, backward.Deleted, "%q -> %q", p[0], p[1])
		assert.Equal(t, forward.Deleted, backward.Added, "%q -> %q", p[0], p[1])
		assert.Equal(t, forward.Blocks.Mirror(), backward.Blocks, "%q -> %q", p[0], p[1])
	}
}

func TestCompute_CharUnit(t *testing.T) {
	eng := New(Options{Unit: UnitChar})

	res, err := eng.Compute("abc", "abxc")
	require.NoError(t, err)
	assert.Equal(t, Blocks{
		{Kind: KindNeutral, Text: "ab"},
		{Kind: KindAdd, Text: "x"},
		{Kind: KindNeutral, Text: "c"},
	}, res.Blocks)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 0, res.Deleted)

	res, err = eng.Compute("héllo", "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, "héllo", res.Blocks.Old())
	assert.Equal(t, "hello", res.Blocks.New())
}

func TestCompute_TooLarge(t *testing.T) {
	eng := New(Options{MaxTokens: 4})

	_, err := eng.Compute("a b", "c d")
	require.ErrorIs(t, err, ErrTooLarge)

	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 6, limitErr.Tokens)
	assert.Equal(t, 4, limitErr.Limit)

	// Identical input never needs alignment.
	_, err = eng.Compute("a b c d e", "a b c d e")
	assert.NoError(t, err)
}

func TestCompute_EditDistanceFallback(t *testing.T) {
	eng := New(Options{MaxEditDistance: 1})

	res, err := eng.Compute("a b c", "x y z")
	require.NoError(t, err)

	assert.True(t, res.Approximate)
	assert.Equal(t, Blocks{
		{Kind: KindDelete, Text: "a b c"},
		{Kind: KindAdd, Text: "x y z"},
	}, res.Blocks)
	assert.Equal(t, 3, res.Added)
	assert.Equal(t, 3, res.Deleted)
}

func TestCompute_FallbackKeepsCommonEnds(t *testing.T) {
	eng := New(Options{MaxEditDistance: 1})

	res, err := eng.Compute("keep a b c keep", "keep x y z keep")
	require.NoError(t, err)

	assert.True(t, res.Approximate)
	assert.Equal(t, KindNeutral, res.Blocks[0].Kind)
	assert.Equal(t, "keep ", res.Blocks[0].Text)
	assert.Equal(t, KindNeutral, res.Blocks[len(res.Blocks)-1].Kind)
	assert.Equal(t, " keep", res.Blocks[len(res.Blocks)-1].Text)
	assert.Equal(t, "keep a b c keep", res.Blocks.Old())
	assert.Equal(t, "keep x y z keep", res.Blocks.New())
}

func TestCompute_Deterministic(t *testing.T) {
	old := "alpha beta gamma delta epsilon"
	new := "alpha gamma beta delta zeta epsilon"

	first, err := Compute(old, new)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Compute(old, new)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// randomText builds short strings over a tiny alphabet so random pairs share
// plenty of tokens.
func randomText(r *rand.Rand) string {
	pieces := []string{"a", "b", "c", "ab", " ", "  ", "\n"}
	n := r.Intn(24)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(pieces[r.Intn(len(pieces))])
	}
	return sb.String()
}

// mixedText adds multi-byte runes and stray bytes that are not valid UTF-8.
func mixedText(r *rand.Rand) string {
	pieces := []string{"a", "é", "日本", " ", "\n", "\xff", "\xe2\x82", "ab"}
	n := r.Intn(24)
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(pieces[r.Intn(len(pieces))])
	}
	return sb.String()
}

func TestCompute_Reconstruction(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for _, unit := range []Unit{UnitWord, UnitChar} {
		eng := New(Options{Unit: unit})
		for i := 0; i < 500; i++ {
			old, new := randomText(r), randomText(r)
			if i%2 == 1 {
				old, new = mixedText(r), mixedText(r)
			}

			res, err := eng.Compute(old, new)
			require.NoError(t, err)

			require.Equal(t, old, res.Blocks.Old(), "unit=%s old=%q new=%q", unit, old, new)
			require.Equal(t, new, res.Blocks.New(), "unit=%s old=%q new=%q", unit, old, new)

			added, deleted := 0, 0
			for j, b := range res.Blocks {
				if j > 0 {
					require.NotEqual(t, res.Blocks[j-1].Kind, b.Kind, "blocks must be coalesced")
				}
				switch b.Kind {
				case KindAdd:
					added += CountUnits(b.Text, unit)
				case KindDelete:
					deleted += CountUnits(b.Text, unit)
				}
			}
			require.Equal(t, added, res.Added)
			require.Equal(t, deleted, res.Deleted)
		}
	}
}

func TestCompute_Symmetric(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for _, unit := range []Unit{UnitWord, UnitChar} {
		eng := New(Options{Unit: unit})
		for i := 0; i < 1000; i++ {
			a, b := randomText(r), randomText(r)
			if i%2 == 1 {
				a, b = mixedText(r), mixedText(r)
			}
			ab, err := eng.Compute(a, b)
			require.NoError(t, err)
			ba, err := eng.Compute(b, a)
			require.NoError(t, err)

			require.Equal(t, ab.Added, ba.Deleted, "unit=%s a=%q b=%q", unit, a, b)
			require.Equal(t, ab.Deleted, ba.Added, "unit=%s a=%q b=%q", unit, a, b)
			require.Equal(t, ab.Blocks.Mirror(), ba.Blocks, "unit=%s a=%q b=%q", unit, a, b)
		}
	}
}

func TestCompute_SymmetricWordExample(t *testing.T) {
	a := "bab   \nba a\ncc  ab \ncccca"
	b := "ac bab\nc ab"

	ab, err := Compute(a, b)
	require.NoError(t, err)
	ba, err := Compute(b, a)
	require.NoError(t, err)

	assert.Equal(t, ab.Added, ba.Deleted)
	assert.Equal(t, ab.Deleted, ba.Added)
	assert.Equal(t, ab.Blocks.Mirror(), ba.Blocks)
	assert.Equal(t, a, ba.Blocks.New())
	assert.Equal(t, b, ba.Blocks.Old())
}

func TestCompute_InvalidUTF8(t *testing.T) {
	for _, unit := range []Unit{UnitWord, UnitChar} {
		eng := New(Options{Unit: unit})

		res, err := eng.Compute("", "ab\xffcd")
		require.NoError(t, err)
		assert.Equal(t, "ab\xffcd", res.Blocks.New(), "unit=%s", unit)

		res, err = eng.Compute("x", "a\xff")
		require.NoError(t, err)
		assert.Equal(t, "x", res.Blocks.Old(), "unit=%s", unit)
		assert.Equal(t, "a\xff", res.Blocks.New(), "unit=%s", unit)
	}

	res, err := New(Options{Unit: UnitChar}).Compute("", "ab\xffcd")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Added, "an invalid byte is one unit")

	toks := tokenize("\xe2\x82a", UnitChar)
	require.Len(t, toks, 3)
	assert.Equal(t, "\xe2", toks[0].text)
	assert.Equal(t, "\x82", toks[1].text)
	assert.Equal(t, "a", toks[2].text)
}

func TestCompute_Minimal(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	eng := New(Options{Unit: UnitChar})

	for i := 0; i < 200; i++ {
		a, b := randomText(r), randomText(r)
		res, err := eng.Compute(a, b)
		require.NoError(t, err)

		lcs := lcsLength([]rune(a), []rune(b))
		require.Equal(t, len([]rune(b))-lcs, res.Added, "a=%q b=%q", a, b)
		require.Equal(t, len([]rune(a))-lcs, res.Deleted, "a=%q b=%q", a, b)
	}
}

func lcsLength(a, b []rune) int {
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				dp[i][j] = dp[i-1][j-1] + 1
			case dp[i-1][j] >= dp[i][j-1]:
				dp[i][j] = dp[i-1][j]
			default:
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	return dp[len(a)][len(b)]
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("")
	require.NoError(t, err)
	assert.Equal(t, UnitWord, u)

	u, err = ParseUnit(" CHAR ")
	require.NoError(t, err)
	assert.Equal(t, UnitChar, u)

	_, err = ParseUnit("line")
	assert.Error(t, err)
}

func TestTokenize_WordRuns(t *testing.T) {
	toks := tokenize("  hi there\n", UnitWord)

	var texts []string
	var counted []bool
	for _, tk := range toks {
		texts = append(texts, tk.text)
		counted = append(counted, tk.counted)
	}
	assert.Equal(t, []string{"  ", "hi", " ", "there", "\n"}, texts)
	assert.Equal(t, []bool{false, true, false, true, false}, counted)
}

func BenchmarkCompute(b *testing.B) {
	r := rand.New(rand.NewSource(1))
	words := []string{"lorem", "ipsum", "dolor", "sit", "amet", "consectetur"}
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		sb.WriteString(words[r.Intn(len(words))])
		sb.WriteByte(' ')
	}
	old := sb.String()
	new := strings.Replace(old, "dolor", "color", 50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Compute(old, new); err != nil {
			b.Fatal(err)
		}
	}
}
