package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chaptersPayload struct {
	Chapters []ChapterSpec `json:"chapters"`
}

func TestExtractJSON_CleanInput(t *testing.T) {
	var out chaptersPayload
	err := ExtractJSON(`{"chapters": [{"title": "Pointers"}]}`, &out)
	require.NoError(t, err)
	require.Len(t, out.Chapters, 1)
	assert.Equal(t, "Pointers", out.Chapters[0].Title)
}

func TestExtractJSON_ProseWrapped(t *testing.T) {
	raw := `Sure, here is the breakdown you asked for:

{"chapters": [{"title": "Slices"}, {"title": "Maps"}]}

Let me know if you need anything else!`

	var out chaptersPayload
	err := ExtractJSON(raw, &out)
	require.NoError(t, err)
	require.Len(t, out.Chapters, 2)
	assert.Equal(t, "Maps", out.Chapters[1].Title)
}

func TestExtractJSON_MarkdownFences(t *testing.T) {
	raw := "```json\n{\"chapters\": [{\"title\": \"Channels\"}]}\n```"

	var out chaptersPayload
	err := ExtractJSON(raw, &out)
	require.NoError(t, err)
	require.Len(t, out.Chapters, 1)
	assert.Equal(t, "Channels", out.Chapters[0].Title)
}

func TestExtractJSON_BareArray(t *testing.T) {
	var out []string
	err := ExtractJSON(`The list: ["a", "b"]`, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestExtractJSON_EmptyInput(t *testing.T) {
	var out chaptersPayload
	err := ExtractJSON("   ", &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
}

func TestExtractJSON_NoJSON(t *testing.T) {
	var out chaptersPayload
	err := ExtractJSON("I cannot produce that output.", &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
}

func TestExtractJSONField_RecoversNamedArray(t *testing.T) {
	// 前面夹杂无法解析的花括号，整体截取失败，只能按字段名窄化捕获
	raw := `I produced {roughly} what you wanted. "chapters": [{"title": "Structs", "learningPoints": ["fields", "methods"]}] — done.`

	var out chaptersPayload
	err := ExtractJSONField(raw, "chapters", &out)
	require.NoError(t, err)
	require.Len(t, out.Chapters, 1)
	assert.Equal(t, "Structs", out.Chapters[0].Title)
	assert.Equal(t, []string{"fields", "methods"}, out.Chapters[0].LearningPoints)
}

func TestExtractJSONField_BracketsInsideStrings(t *testing.T) {
	// 字符串值里的方括号不能干扰配对计数
	raw := `Note {this} first. "chapters": [{"title": "Arrays [part 1]", "description": "covers [0]-indexing"}] trailing text`

	var out chaptersPayload
	err := ExtractJSONField(raw, "chapters", &out)
	require.NoError(t, err)
	require.Len(t, out.Chapters, 1)
	assert.Equal(t, "Arrays [part 1]", out.Chapters[0].Title)
}

func TestExtractJSONField_FieldMissing(t *testing.T) {
	var out chaptersPayload
	err := ExtractJSONField(`no structure here at all`, "chapters", &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
}

func TestExtractJSONField_UnterminatedArray(t *testing.T) {
	var out chaptersPayload
	err := ExtractJSONField(`broken {x} "chapters": [{"title": "Cut off"`, "chapters", &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtraction))
}
