package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_ToggleIsInvolution(t *testing.T) {
	s := domain.NewSet("calm", "tired")

	once := s.Toggle("worried")
	twice := once.Toggle("worried")

	assert.True(t, once.Contains("worried"))
	assert.Equal(t, s, twice)
	assert.False(t, s.Contains("worried"), "receiver must not be modified")
}

func TestSet_DistinctTogglesCommute(t *testing.T) {
	var s domain.Set
	ab := s.Toggle("a").Toggle("b")
	ba := s.Toggle("b").Toggle("a")
	assert.Equal(t, ab, ba)
	assert.Equal(t, "a+b", ab.String())
}

func TestNewSet_SortsAndDeduplicates(t *testing.T) {
	assert.Equal(t, domain.Set{"a", "b", "c"}, domain.NewSet("c", "a", "b", "a"))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"anxious", "anxious"},
		{3, "3"},
		{3.0, "3"},
		{2.5, "2.5"},
		{int64(4), "4"},
		{true, "true"},
		{[]string{"b", "a"}, "a+b"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.FormatValue(tt.in))
	}
}

func TestAnswers_Satisfies(t *testing.T) {
	a := domain.NewAnswers(map[string]any{
		"mood":   "calm",
		"tags":   []string{},
		"blank":  "",
		"level":  0,
		"extras": []string{"tea"},
	})

	assert.True(t, a.Satisfies("mood"))
	assert.True(t, a.Satisfies("level"), "zero is still an answer")
	assert.True(t, a.Satisfies("extras"))
	assert.False(t, a.Satisfies("tags"), "empty set does not satisfy")
	assert.True(t, a.Satisfies("blank"), "an explicit empty string is an answer")
	assert.False(t, a.Satisfies("missing"))

	assert.True(t, a.Has("tags"), "empty set is still present")
}

func TestAnswers_IsImmutable(t *testing.T) {
	src := map[string]any{"tags": []string{"a"}}
	a := domain.NewAnswers(src)
	src["tags"] = []string{"changed"}
	src["new"] = 1

	assert.Equal(t, domain.Set{"a"}, a.Set("tags"))
	assert.False(t, a.Has("new"))

	m := a.ToMap()
	m["tags"] = domain.Set{"x"}
	assert.Equal(t, domain.Set{"a"}, a.Set("tags"))

	b := a.With("mood", "ok").Without("tags")
	assert.True(t, a.Has("tags"))
	assert.False(t, a.Has("mood"))
	assert.Equal(t, []string{"mood"}, b.Keys())
}

func TestAnswers_JSON(t *testing.T) {
	a := domain.NewAnswers(map[string]any{
		"primary":   "anxious",
		"intensity": 3,
		"tags":      []string{"work", "sleep"},
	})

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var back domain.Answers
	require.NoError(t, json.Unmarshal(data, &back))

	assert.True(t, a.Equal(back), "got %s", back)
	v, _ := back.Get("intensity")
	assert.Equal(t, 3, v)
}

func TestAnswers_Number(t *testing.T) {
	a := domain.NewAnswers(map[string]any{"i": 4, "f": 1.5, "s": "2", "x": "abc"})

	n, ok := a.Number("i")
	assert.True(t, ok)
	assert.Equal(t, 4.0, n)

	n, ok = a.Number("s")
	assert.True(t, ok)
	assert.Equal(t, 2.0, n)

	_, ok = a.Number("x")
	assert.False(t, ok)
	_, ok = a.Number("missing")
	assert.False(t, ok)
}
